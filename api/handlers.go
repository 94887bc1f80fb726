package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/40acres/fossad/crypto"
	"github.com/40acres/fossad/daemon"
	"github.com/40acres/fossad/database"
	"github.com/40acres/fossad/database/models"
	"github.com/40acres/fossad/destination"
)

type sessionResponse struct {
	Key           string `json:"key"`
	DeviceID      string `json:"deviceId"`
	Rail          string `json:"rail"`
	State         string `json:"state"`
	AmountSats    uint64 `json:"amountSats"`
	SwapID        string `json:"swapId,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
}

func toSessionResponse(s daemon.PayoutSession) sessionResponse {
	return sessionResponse{
		Key:           s.Key,
		DeviceID:      s.DeviceID,
		Rail:          s.Rail.String(),
		State:         s.State.String(),
		AmountSats:    uint64(s.AmountSats),
		SwapID:        s.SwapID,
		FailureReason: s.FailureReason,
	}
}

// handlePayoutLn redeems a token against a Lightning destination: a bolt11
// invoice, a bech32 lnurl or a lightning address.
func (s *Server) handlePayoutLn(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, daemon.DispatchRequest{
		DeviceID: chi.URLParam(r, "deviceID"),
		Token:    chi.URLParam(r, "token"),
		Input:    unescape(chi.URLParam(r, "input")),
		RailHint: models.RailLightning,
	})
}

// handlePayoutChain redeems a token against a chain address. The rail path
// segment names the rail the ATM asked for; the resolved address decides.
func (s *Server) handlePayoutChain(w http.ResponseWriter, r *http.Request) {
	rail := models.Rail(chi.URLParam(r, "rail"))
	if rail != models.RailOnchain && rail != models.RailLiquid {
		writeError(w, http.StatusBadRequest, "rail must be onchain or liquid")

		return
	}

	s.dispatch(w, r, daemon.DispatchRequest{
		DeviceID: chi.URLParam(r, "deviceID"),
		Token:    chi.URLParam(r, "token"),
		Input:    unescape(chi.URLParam(r, "address")),
		RailHint: rail,
	})
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req daemon.DispatchRequest) {
	session, err := s.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		writeError(w, dispatchStatus(err), err.Error())

		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(*session))
}

func dispatchStatus(err error) int {
	switch {
	case errors.Is(err, database.ErrDeviceNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrTokenAlreadyUsed):
		return http.StatusConflict
	case errors.Is(err, database.ErrTokenExpired),
		errors.Is(err, daemon.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, destination.ErrMalformedDestination),
		errors.Is(err, daemon.ErrAmountMismatch):
		return http.StatusBadRequest
	case errors.Is(err, daemon.ErrRailNotEnabled):
		return http.StatusForbidden
	case errors.Is(err, daemon.ErrBackendRejected),
		errors.Is(err, daemon.ErrNetworkError):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func unescape(segment string) string {
	if unescaped, err := url.PathUnescape(segment); err == nil {
		return unescaped
	}

	return segment
}

type devicePayload struct {
	Title               string   `json:"title" validate:"required"`
	WalletID            string   `json:"walletId" validate:"required"`
	Currency            string   `json:"currency" validate:"required"`
	ProfitMarginPercent float64  `json:"profitMarginPercent" validate:"gte=0,lte=100"`
	EnabledRails        []string `json:"enabledRails" validate:"required,min=1,dive,oneof=lnurl lightning onchain liquid"`
}

type deviceResponse struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	WalletID            string   `json:"walletId"`
	Currency            string   `json:"currency"`
	ProfitMarginPercent float64  `json:"profitMarginPercent"`
	EnabledRails        []string `json:"enabledRails"`
	// TokenSecret is shared with the physical device, which encrypts its
	// payout payloads with it.
	TokenSecret string `json:"tokenSecret"`
}

func toDeviceResponse(d *models.Device) deviceResponse {
	return deviceResponse{
		ID:                  d.ID,
		Title:               d.Title,
		WalletID:            d.WalletID,
		Currency:            d.Currency,
		ProfitMarginPercent: d.ProfitMarginPercent,
		EnabledRails:        d.EnabledRails,
		TokenSecret:         d.TokenSecret,
	}
}

func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var payload devicePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")

		return
	}
	if err := s.validate.Struct(payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	secret, err := crypto.GenerateTokenSecret()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate device secret")

		return
	}

	device := &models.Device{
		ID:                  uuid.NewString(),
		Title:               payload.Title,
		WalletID:            payload.WalletID,
		Currency:            payload.Currency,
		ProfitMarginPercent: payload.ProfitMarginPercent,
		EnabledRails:        payload.EnabledRails,
		TokenSecret:         secret,
	}
	if err := s.devices.SaveDevice(r.Context(), device); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, toDeviceResponse(device))
}

func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	device, err := s.devices.GetDevice(r.Context(), chi.URLParam(r, "deviceID"))
	if err != nil {
		writeError(w, deviceStatus(err), err.Error())

		return
	}

	var payload devicePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")

		return
	}
	if err := s.validate.Struct(payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	device.Title = payload.Title
	device.WalletID = payload.WalletID
	device.Currency = payload.Currency
	device.ProfitMarginPercent = payload.ProfitMarginPercent
	device.EnabledRails = payload.EnabledRails

	if err := s.devices.SaveDevice(r.Context(), device); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	writeJSON(w, http.StatusOK, toDeviceResponse(device))
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.ListDevices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	out := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, toDeviceResponse(d))
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	if err := s.devices.DeleteDevice(r.Context(), chi.URLParam(r, "deviceID")); err != nil {
		writeError(w, deviceStatus(err), err.Error())

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func deviceStatus(err error) int {
	if errors.Is(err, database.ErrDeviceNotFound) {
		return http.StatusNotFound
	}

	return http.StatusInternalServerError
}

type transactionResponse struct {
	ID            uint   `json:"id"`
	SessionKey    string `json:"sessionKey"`
	DeviceID      string `json:"deviceId"`
	AmountSats    uint64 `json:"amountSats"`
	Rail          string `json:"rail"`
	Destination   string `json:"destination"`
	Result        string `json:"result"`
	FailureReason string `json:"failureReason,omitempty"`
	SwapID        string `json:"swapId,omitempty"`
}

// handleListTransactions returns the payout ledger across all devices. The
// listing doubles as housekeeping: stale terminal sessions are swept out of
// the in-memory store.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if removed := s.sessions.Sweep(staleSessionAge); removed > 0 {
		log.Debugf("swept %d stale sessions", removed)
	}

	devices, err := s.devices.ListDevices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())

		return
	}
	deviceIDs := make([]string, 0, len(devices))
	for _, d := range devices {
		deviceIDs = append(deviceIDs, d.ID)
	}

	txs, err := s.ledger.ListTransactions(r.Context(), deviceIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp := transactionResponse{
			ID:            tx.ID,
			SessionKey:    tx.SessionKey,
			DeviceID:      tx.DeviceID,
			AmountSats:    tx.AmountSATS,
			Rail:          tx.Rail.String(),
			Destination:   tx.Destination,
			Result:        tx.Result.String(),
			FailureReason: tx.FailureReason,
		}
		if tx.SwapID != nil {
			resp.SwapID = *tx.SwapID
		}
		out = append(out, resp)
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")

		return
	}

	if err := s.ledger.DeleteTransaction(r.Context(), uint(id)); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Get(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())

		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}
