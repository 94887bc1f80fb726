package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/40acres/fossad/completion"
	"github.com/40acres/fossad/database"
	"github.com/40acres/fossad/database/models"
	"github.com/40acres/fossad/swaps"
)

// DefaultCompletionTimeout is how long a chain payout may stay in
// awaiting_completion before the monitor fails it.
const DefaultCompletionTimeout = 10 * time.Minute

// SessionMonitor drives awaiting_completion sessions to a terminal state
// by polling the swap service.
type SessionMonitor struct {
	sessions          *SessionStore
	ledger            database.TransactionRepository
	hub               *completion.Hub
	swapClient        swaps.ClientInterface
	completionTimeout time.Duration
}

func NewSessionMonitor(
	sessions *SessionStore,
	ledger database.TransactionRepository,
	hub *completion.Hub,
	swapClient swaps.ClientInterface,
	completionTimeout time.Duration,
) *SessionMonitor {
	if completionTimeout <= 0 {
		completionTimeout = DefaultCompletionTimeout
	}

	return &SessionMonitor{
		sessions:          sessions,
		ledger:            ledger,
		hub:               hub,
		swapClient:        swapClient,
		completionTimeout: completionTimeout,
	}
}

func (m *SessionMonitor) MonitorSessions(ctx context.Context) {
	for _, session := range m.sessions.ListAwaitingCompletion() {
		err := m.MonitorSession(ctx, session)
		if err != nil {
			log.Errorf("failed to monitor session %s: %v", session.Key, err)

			continue
		}
	}
}

func (m *SessionMonitor) MonitorSession(ctx context.Context, session PayoutSession) error {
	logger := log.WithFields(log.Fields{
		"session": session.Key,
		"swap":    session.SwapID,
	})
	logger.Debug("polling swap status")

	if time.Since(session.CreatedAt) > m.completionTimeout {
		logger.Warn("completion timed out")
		m.fail(ctx, session, ErrCompletionTimeout.Error())

		return nil
	}

	swap, err := m.swapClient.GetSwap(ctx, session.SwapID)
	switch {
	case errors.Is(err, swaps.ErrSwapNotFound):
		logger.Warn("swap not found")
		m.fail(ctx, session, "swap not found")

		return nil
	case err != nil:
		// Transient, the next tick retries
		return fmt.Errorf("failed to get swap: %w", err)
	}

	switch swap.Status {
	case swaps.StatusPending:
		logger.Debug("swap pending, waiting for settlement")
		m.hub.Publish(completion.Event{
			Kind:       completion.EventPing,
			SessionKey: session.Key,
			At:         time.Now(),
		})
	case swaps.StatusSettled:
		logger.Info("swap settled")
		m.complete(ctx, session)
	case swaps.StatusFailed, swaps.StatusRefunded:
		logger.Warnf("swap ended with status %s", swap.Status)
		m.fail(ctx, session, fmt.Sprintf("swap %s", swap.Status))
	}

	return nil
}

func (m *SessionMonitor) complete(ctx context.Context, session PayoutSession) {
	changed, err := m.sessions.Transition(session.Key, models.StateCompleted, "")
	if err != nil || !changed {
		return
	}

	m.record(ctx, session, models.ResultCompleted, "")
	m.hub.Publish(completion.Event{
		Kind:       completion.EventCompleted,
		SessionKey: session.Key,
		At:         time.Now(),
	})
}

func (m *SessionMonitor) fail(ctx context.Context, session PayoutSession, reason string) {
	changed, err := m.sessions.Transition(session.Key, models.StateFailed, reason)
	if err != nil || !changed {
		return
	}

	m.record(ctx, session, models.ResultFailed, reason)
	m.hub.Publish(completion.Event{
		Kind:       completion.EventFailed,
		SessionKey: session.Key,
		Reason:     reason,
		At:         time.Now(),
	})
}

func (m *SessionMonitor) record(ctx context.Context, session PayoutSession, result models.PayoutResult, reason string) {
	tx := &models.AtmTransaction{
		SessionKey:    session.Key,
		DeviceID:      session.DeviceID,
		AmountSATS:    uint64(session.AmountSats),
		Rail:          session.Rail,
		Destination:   session.Destination,
		Result:        result,
		FailureReason: reason,
	}
	if session.SwapID != "" {
		swapID := session.SwapID
		tx.SwapID = &swapID
	}

	if err := m.ledger.RecordTransaction(ctx, tx); err != nil {
		log.WithError(err).WithField("session", session.Key).Error("failed to record payout transaction")
	}
}
