package auth

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jumla-app/trader-gateway/internal/cart"
	"github.com/jumla-app/trader-gateway/internal/common"
	"github.com/jumla-app/trader-gateway/internal/upstream"
)

// Handlers exposes the session endpoints.
type Handlers struct {
	Service  *Service
	Carts    *cart.Store
	Upstream *upstream.Client
	Logger   zerolog.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginData struct {
	SessionID string        `json:"session_id"`
	User      upstream.User `json:"user"`
}

// Login handles POST /auth/login.
func (h Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	session, user, err := h.Service.Login(r.Context(), upstream.Credentials{
		Email:      req.Email,
		Password:   req.Password,
		DeviceName: "mobile",
	})
	if err != nil {
		h.writeUpstreamError(w, err, http.StatusUnauthorized, "LOGIN_FAILED")
		return
	}
	h.Logger.Info().Str("user_id", session.UserID).Msg("session opened")
	common.JSON(w, http.StatusOK, loginData{SessionID: session.ID, User: user})
}

// Logout handles POST /auth/logout. The session's cart is dropped with it.
func (h Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	if h.Carts != nil {
		h.Carts.Clear(session.ID)
	}
	if err := h.Service.Logout(r.Context(), session.ID); err != nil {
		h.Logger.Warn().Err(err).Msg("logout")
	}
	common.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me handles GET /auth/me, reloading the profile from upstream so the client
// sees trader/driver changes made server-side.
func (h Handlers) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
		return
	}
	user, err := h.Upstream.LoadUser(r.Context(), session.Token)
	if err != nil {
		h.writeUpstreamError(w, err, http.StatusBadGateway, "UPSTREAM_ERROR")
		return
	}
	common.JSON(w, http.StatusOK, user)
}

func (h Handlers) writeUpstreamError(w http.ResponseWriter, err error, fallback int, code string) {
	if verr, ok := upstream.AsValidation(err); ok {
		details := map[string]any{}
		for field, messages := range verr.Fields {
			details[field] = messages
		}
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", verr.Message, details)
		return
	}
	status := upstream.StatusOf(err)
	if status == 0 {
		status = http.StatusBadGateway
	}
	if status == http.StatusUnauthorized || status == http.StatusUnprocessableEntity {
		status = fallback
	}
	h.Logger.Warn().Err(err).Msg("upstream call failed")
	common.JSONError(w, status, code, err.Error(), nil)
}
