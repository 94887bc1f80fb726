package daemon

import (
	"sync"
	"time"

	"github.com/40acres/fossad/database/models"
	"github.com/40acres/fossad/money"
	log "github.com/sirupsen/logrus"
)

// PayoutSession tracks one ATM payout from token redemption to settlement.
type PayoutSession struct {
	Key           string
	DeviceID      string
	Rail          models.Rail
	State         models.SessionState
	AmountSats    money.Money
	Destination   string
	SwapID        string
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SessionStore holds in-flight payout sessions. Sessions are ephemeral,
// the durable record is the transaction ledger written at terminal states.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*PayoutSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*PayoutSession),
	}
}

func (s *SessionStore) Put(session *PayoutSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.Key] = session
}

// Get returns a copy of the session, so callers cannot race the store.
func (s *SessionStore) Get(key string) (PayoutSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[key]
	if !ok {
		return PayoutSession{}, ErrSessionNotFound
	}

	return *session, nil
}

// Transition moves a session to a new state. Terminal states are sticky:
// once completed or failed, further transitions are silently dropped and
// the method reports false. This makes duplicate completion signals
// harmless.
func (s *SessionStore) Transition(key string, to models.SessionState, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[key]
	if !ok {
		return false, ErrSessionNotFound
	}

	if session.State.IsTerminal() {
		log.WithFields(log.Fields{
			"session": key,
			"state":   session.State,
			"to":      to,
		}).Debug("ignoring transition on terminal session")

		return false, nil
	}

	session.State = to
	session.UpdatedAt = time.Now()
	if reason != "" {
		session.FailureReason = reason
	}

	return true, nil
}

// SetSwapID associates the swap service identifier with the session.
func (s *SessionStore) SetSwapID(key, swapID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[key]
	if !ok {
		return ErrSessionNotFound
	}
	session.SwapID = swapID
	session.UpdatedAt = time.Now()

	return nil
}

// ListAwaitingCompletion returns copies of every session waiting on an
// asynchronous settlement signal.
func (s *SessionStore) ListAwaitingCompletion() []PayoutSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []PayoutSession
	for _, session := range s.sessions {
		if session.State == models.StateAwaitingCompletion {
			out = append(out, *session)
		}
	}

	return out
}

// Sweep drops terminal sessions older than maxAge and returns how many
// were removed.
func (s *SessionStore) Sweep(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for key, session := range s.sessions {
		if session.State.IsTerminal() && session.UpdatedAt.Before(cutoff) {
			delete(s.sessions, key)
			removed++
		}
	}

	return removed
}
