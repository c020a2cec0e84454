package shipment

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/jumla-app/trader-gateway/internal/common"
	"github.com/jumla-app/trader-gateway/internal/upstream"
)

// Handlers proxies driver shipment operations to the marketplace API and
// decorates each shipment with its transition surface so the client does not
// hardcode the state machine.
type Handlers struct {
	Upstream *upstream.Client
	Logger   zerolog.Logger
}

// View is a shipment plus the actions currently available on it.
type View struct {
	upstream.Shipment
	StateLabel  string `json:"state_label"`
	NextState   string `json:"next_state,omitempty"`
	Cancellable bool   `json:"cancellable"`
}

func decorate(shipments []upstream.Shipment) []View {
	views := make([]View, 0, len(shipments))
	for _, sh := range shipments {
		view := View{Shipment: sh}
		if state, ok := Parse(sh.State); ok {
			view.StateLabel = state.Label()
			view.Cancellable = state.Cancellable()
			if next, ok := state.Next(); ok {
				view.NextState = string(next)
			}
		}
		views = append(views, view)
	}
	return views
}

// Available handles GET /shipments/available.
func (h Handlers) Available(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	shipments, err := h.Upstream.AvailableShipments(r.Context(), session.Token)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, decorate(shipments))
}

// Mine handles GET /shipments, listing the driver's assigned shipments.
func (h Handlers) Mine(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	shipments, err := h.Upstream.DriverShipments(r.Context(), session.Token, session.DriverID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, decorate(shipments))
}

// Accept handles POST /shipments/{shipmentID}/accept.
func (h Handlers) Accept(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	shipmentID := chi.URLParam(r, "shipmentID")
	if err := h.Upstream.AcceptShipment(r.Context(), session.Token, shipmentID); err != nil {
		h.writeError(w, err)
		return
	}
	h.Logger.Info().Str("shipment_id", shipmentID).Str("driver_id", session.DriverID).Msg("shipment accepted")
	common.JSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

type advanceRequest struct {
	CurrentState string `json:"current_state"`
	State        string `json:"state"`
}

// Advance handles POST /shipments/{shipmentID}/state. The request names the
// state the driver saw and the one it wants; impossible jumps are rejected
// here without a round trip.
func (h Handlers) Advance(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	target, ok := Parse(req.State)
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown shipment state", nil)
		return
	}
	if current, ok := Parse(req.CurrentState); ok && !current.CanTransition(target) {
		common.JSONError(w, http.StatusConflict, "INVALID_TRANSITION",
			"shipment cannot move from "+string(current)+" to "+string(target), nil)
		return
	}
	shipmentID := chi.URLParam(r, "shipmentID")
	if err := h.Upstream.AdvanceShipment(r.Context(), session.Token, shipmentID, string(target)); err != nil {
		h.writeError(w, err)
		return
	}
	h.Logger.Info().Str("shipment_id", shipmentID).Str("state", string(target)).Msg("shipment advanced")
	common.JSON(w, http.StatusOK, map[string]string{"state": string(target), "state_label": target.Label()})
}

// Cancel handles POST /shipments/{shipmentID}/cancel.
func (h Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	shipmentID := chi.URLParam(r, "shipmentID")
	if err := h.Upstream.CancelShipment(r.Context(), session.Token, shipmentID); err != nil {
		h.writeError(w, err)
		return
	}
	h.Logger.Info().Str("shipment_id", shipmentID).Msg("shipment cancelled")
	common.JSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h Handlers) writeError(w http.ResponseWriter, err error) {
	status := upstream.StatusOf(err)
	if status == 0 || status >= 500 {
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error(), nil)
		return
	}
	common.JSONError(w, status, "UPSTREAM_ERROR", err.Error(), nil)
}
