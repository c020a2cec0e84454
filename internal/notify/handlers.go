package notify

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/jumla-app/trader-gateway/internal/common"
	"github.com/jumla-app/trader-gateway/internal/upstream"
)

// Handlers proxies the notification feed.
type Handlers struct {
	Upstream *upstream.Client
	Logger   zerolog.Logger
}

// List handles GET /notifications for the session's user.
func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	notifications, err := h.Upstream.Notifications(r.Context(), session.Token, session.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, notifications)
}

// MarkRead handles POST /notifications/{notificationID}/read.
func (h Handlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	notificationID := chi.URLParam(r, "notificationID")
	if err := h.Upstream.MarkNotificationRead(r.Context(), session.Token, notificationID); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (h Handlers) writeError(w http.ResponseWriter, err error) {
	status := upstream.StatusOf(err)
	if status == 0 || status >= 500 {
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error(), nil)
		return
	}
	h.Logger.Debug().Err(err).Msg("notification call failed")
	common.JSONError(w, status, "UPSTREAM_ERROR", err.Error(), nil)
}
