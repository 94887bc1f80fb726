package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/40acres/fossad/daemon"
	"github.com/40acres/fossad/database/models"
	"github.com/40acres/fossad/lnurl"
)

// handleLnurlWithdraw is the first LNURL-withdraw request (LUD-03). The
// wallet scanned the ATM QR and asks what it may withdraw. The token rides
// in the payload query parameter and becomes the callback's k1.
func (s *Server) handleLnurlWithdraw(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	token := r.URL.Query().Get("payload")
	if token == "" {
		writeJSON(w, http.StatusOK, lnurl.ErrorResponse("missing payload"))

		return
	}

	amount, err := s.dispatcher.Quote(r.Context(), deviceID, token)
	if err != nil {
		writeJSON(w, http.StatusOK, lnurl.ErrorResponse(err.Error()))

		return
	}

	device, err := s.devices.GetDevice(r.Context(), deviceID)
	if err != nil {
		writeJSON(w, http.StatusOK, lnurl.ErrorResponse(err.Error()))

		return
	}

	callback := fmt.Sprintf("%s/api/v1/lnurl/cb/%s", s.publicURL, url.PathEscape(deviceID))
	writeJSON(w, http.StatusOK, lnurl.WithdrawResponse{
		Tag:                lnurl.TagWithdrawRequest,
		Callback:           callback,
		K1:                 token,
		MinWithdrawable:    amount.ToMilliSats(),
		MaxWithdrawable:    amount.ToMilliSats(),
		DefaultDescription: fmt.Sprintf("%s withdraw", device.Title),
	})
}

// handleLnurlWithdrawCallback is the second LNURL-withdraw request. The
// wallet committed and sends an invoice for the quoted amount.
func (s *Server) handleLnurlWithdrawCallback(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	k1 := r.URL.Query().Get("k1")
	pr := r.URL.Query().Get("pr")
	if k1 == "" || pr == "" {
		writeJSON(w, http.StatusOK, lnurl.ErrorResponse("missing k1 or pr"))

		return
	}

	_, err := s.dispatcher.Dispatch(r.Context(), daemon.DispatchRequest{
		DeviceID:    deviceID,
		Token:       k1,
		Input:       pr,
		RailHint:    models.RailLnurl,
		ViaWithdraw: true,
	})
	if err != nil {
		writeJSON(w, http.StatusOK, lnurl.ErrorResponse(err.Error()))

		return
	}

	writeJSON(w, http.StatusOK, lnurl.OkResponse())
}
