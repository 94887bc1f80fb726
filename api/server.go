// Package api exposes the HTTP surface ATM devices and wallets talk to.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/40acres/fossad/completion"
	"github.com/40acres/fossad/daemon"
	"github.com/40acres/fossad/database"
)

// staleSessionAge is how long terminal sessions stay queryable before the
// ledger listing sweeps them out of memory.
const staleSessionAge = time.Hour

type Server struct {
	addr       string
	publicURL  string
	devices    database.DeviceRepository
	ledger     database.TransactionRepository
	dispatcher *daemon.Dispatcher
	sessions   *daemon.SessionStore
	hub        *completion.Hub
	validate   *validator.Validate
	upgrader   websocket.Upgrader
}

func NewServer(
	port uint32,
	publicURL string,
	devices database.DeviceRepository,
	ledger database.TransactionRepository,
	dispatcher *daemon.Dispatcher,
	sessions *daemon.SessionStore,
	hub *completion.Hub,
) *Server {
	return &Server{
		addr:       fmt.Sprintf(":%d", port),
		publicURL:  publicURL,
		devices:    devices,
		ledger:     ledger,
		dispatcher: dispatcher,
		sessions:   sessions,
		hub:        hub,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		upgrader: websocket.Upgrader{
			// ATM screens load from the device's own origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/payout/ln/{deviceID}/{token}/{input}", s.handlePayoutLn)
		r.Get("/payout/chain/{deviceID}/{token}/{rail}/{address}", s.handlePayoutChain)

		r.Get("/fossa", s.handleListDevices)
		r.Post("/fossa", s.handleCreateDevice)
		r.Put("/fossa/{deviceID}", s.handleUpdateDevice)
		r.Delete("/fossa/{deviceID}", s.handleDeleteDevice)

		r.Get("/atm", s.handleListTransactions)
		r.Delete("/atm/{id}", s.handleDeleteTransaction)
		r.Get("/atm/session/{key}", s.handleGetSession)
		r.Get("/ws/{key}", s.handleSessionSocket)

		r.Get("/lnurl/{deviceID}", s.handleLnurlWithdraw)
		r.Get("/lnurl/cb/{deviceID}", s.handleLnurlWithdrawCallback)
	})

	return r
}

func (s *Server) ListenAndServe() error {
	log.Infof("http server listening on %s", s.addr)

	return http.ListenAndServe(s.addr, s.router())
}

// Handler exposes the routed mux, tests mount it on a httptest server.
func (s *Server) Handler() http.Handler {
	return s.router()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("failed to encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
