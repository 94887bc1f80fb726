// fossad drives ATM payouts from token redemption to settlement
package daemon

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

const MONITORING_INTERVAL_SECONDS = 10

// Server is the HTTP surface the daemon exposes to ATM devices.
type Server interface {
	ListenAndServe() error
}

// Start runs the HTTP server and the session monitor loop until the
// context is canceled.
func Start(ctx context.Context, server Server, monitor *SessionMonitor) error {
	log.Info("Starting fossad")

	go func() {
		err := server.ListenAndServe()
		if err != nil {
			log.Fatalf("couldn't start server: %v", err)
		}
	}()

	// monitor every 10 seconds
	for {
		select {
		case <-ctx.Done():
			log.Info("Shutting down fossad")

			return nil
		default:
			monitor.MonitorSessions(ctx)

			time.Sleep(MONITORING_INTERVAL_SECONDS * time.Second)
		}
	}
}
