package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/jumla-app/trader-gateway/internal/common"
	"github.com/jumla-app/trader-gateway/internal/obs"
	"github.com/jumla-app/trader-gateway/internal/pricing"
)

// Handlers exposes the cart endpoints. Every route is session-scoped; the
// session ID from the auth middleware keys the cart.
type Handlers struct {
	Store         *Store
	MinOrderTotal pricing.Money
	Metrics       *obs.DomainMetrics
}

// StoreView is one store's slice of the cart enriched with derived totals.
type StoreView struct {
	StoreID      string     `json:"store_id"`
	StoreName    string     `json:"store_name"`
	Items        []LineItem `json:"items"`
	Deferred     bool       `json:"deferred"`
	Subtotal     string     `json:"subtotal"`
	MeetsMinimum bool       `json:"meets_minimum"`
}

// CartView is the full cart payload returned by every mutation, so the client
// never recomputes totals itself.
type CartView struct {
	Stores        []StoreView `json:"stores"`
	GrandTotal    string      `json:"grand_total"`
	MinOrderTotal string      `json:"min_order_total"`
	ReadyToSubmit bool        `json:"ready_to_submit"`
}

func (h Handlers) view(sessionID string) CartView {
	snapshot := h.Store.Snapshot(sessionID)
	storeIDs := make([]string, 0, len(snapshot))
	for id := range snapshot {
		storeIDs = append(storeIDs, id)
	}
	sort.Strings(storeIDs)

	stores := make([]StoreView, 0, len(storeIDs))
	for _, id := range storeIDs {
		sc := snapshot[id]
		stores = append(stores, StoreView{
			StoreID:      sc.StoreID,
			StoreName:    sc.StoreName,
			Items:        sc.Items,
			Deferred:     sc.Deferred,
			Subtotal:     pricing.FormatAmount(sc.Subtotal()),
			MeetsMinimum: sc.MeetsMinimum(h.MinOrderTotal),
		})
	}
	return CartView{
		Stores:        stores,
		GrandTotal:    pricing.FormatAmount(snapshot.GrandTotal()),
		MinOrderTotal: pricing.FormatAmount(h.MinOrderTotal),
		ReadyToSubmit: snapshot.AllMeetMinimum(h.MinOrderTotal),
	}
}

// Get handles GET /cart.
func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	common.JSON(w, http.StatusOK, h.view(session.ID))
}

type addRequest struct {
	StoreID   string  `json:"store_id"`
	StoreName string  `json:"store_name"`
	Product   Product `json:"product"`
}

// Add handles POST /cart/items. Each call adds exactly one unit.
func (h Handlers) Add(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := h.Store.Add(session.ID, req.StoreID, req.StoreName, req.Product); err != nil {
		if errors.Is(err, ErrInvalidInput) {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "store and product are required", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart unavailable", nil)
		return
	}
	h.Metrics.ObserveCartMutation("add")
	common.JSON(w, http.StatusOK, h.view(session.ID))
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// SetQuantity handles PUT /cart/stores/{storeID}/items/{productID}.
func (h Handlers) SetQuantity(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	storeID := chi.URLParam(r, "storeID")
	productID := chi.URLParam(r, "productID")
	if err := h.Store.SetQuantity(session.ID, storeID, productID, req.Quantity); err != nil {
		if errors.Is(err, ErrInvalidInput) {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "quantity must be at least 1", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart unavailable", nil)
		return
	}
	h.Metrics.ObserveCartMutation("set_quantity")
	common.JSON(w, http.StatusOK, h.view(session.ID))
}

// Remove handles DELETE /cart/stores/{storeID}/items/{productID}.
func (h Handlers) Remove(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	h.Store.Remove(session.ID, chi.URLParam(r, "storeID"), chi.URLParam(r, "productID"))
	h.Metrics.ObserveCartMutation("remove")
	common.JSON(w, http.StatusOK, h.view(session.ID))
}

type deferredRequest struct {
	Deferred bool `json:"deferred"`
}

// SetDeferred handles PUT /cart/stores/{storeID}/deferred.
func (h Handlers) SetDeferred(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	var req deferredRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	h.Store.SetDeferred(session.ID, chi.URLParam(r, "storeID"), req.Deferred)
	h.Metrics.ObserveCartMutation("set_deferred")
	common.JSON(w, http.StatusOK, h.view(session.ID))
}

// Clear handles DELETE /cart.
func (h Handlers) Clear(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	h.Store.Clear(session.ID)
	h.Metrics.ObserveCartMutation("clear")
	common.JSON(w, http.StatusOK, h.view(session.ID))
}
