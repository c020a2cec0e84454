package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jumla-app/trader-gateway/internal/common"
	"github.com/jumla-app/trader-gateway/internal/upstream"
)

// Handlers exposes the catalog endpoints.
type Handlers struct {
	Service *Service
}

// ListStores handles GET /stores.
func (h Handlers) ListStores(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	stores, err := h.Service.Stores(r.Context(), session.Token)
	if err != nil {
		writeUpstream(w, err)
		return
	}
	common.JSON(w, http.StatusOK, stores)
}

// ListStoreProducts handles GET /stores/{storeID}/products.
func (h Handlers) ListStoreProducts(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	storeID := chi.URLParam(r, "storeID")
	products, err := h.Service.StoreProducts(r.Context(), session.Token, storeID)
	if err != nil {
		writeUpstream(w, err)
		return
	}
	common.JSON(w, http.StatusOK, products)
}

// ListAreas handles GET /areas.
func (h Handlers) ListAreas(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	areas, err := h.Service.Areas(r.Context(), session.Token)
	if err != nil {
		writeUpstream(w, err)
		return
	}
	common.JSON(w, http.StatusOK, areas)
}

func writeUpstream(w http.ResponseWriter, err error) {
	status := upstream.StatusOf(err)
	if status == 0 || status >= 500 {
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error(), nil)
		return
	}
	common.JSONError(w, status, "UPSTREAM_ERROR", err.Error(), nil)
}
