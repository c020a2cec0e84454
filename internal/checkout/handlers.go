package checkout

import (
	"encoding/json"
	"net/http"

	"github.com/jumla-app/trader-gateway/internal/common"
	"github.com/jumla-app/trader-gateway/internal/upstream"
)

// Handlers exposes the checkout endpoint and the trader's order history.
type Handlers struct {
	Service  *Service
	Upstream *upstream.Client
}

type submitRequest struct {
	AreaID string `json:"area_id"`
}

// Submit handles POST /checkout.
func (h Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	receipt, err := h.Service.Submit(r.Context(), session, req.AreaID)
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout failed", nil)
		return
	}
	common.JSON(w, http.StatusCreated, receipt)
}

// History handles GET /orders, listing the trader's placed orders.
func (h Handlers) History(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	orders, err := h.Upstream.TraderOrders(r.Context(), session.Token)
	if err != nil {
		status := upstream.StatusOf(err)
		if status == 0 || status >= 500 {
			status = http.StatusBadGateway
		}
		common.JSONError(w, status, "UPSTREAM_ERROR", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, orders)
}
