package auth

import (
	"net/http"
	"strings"

	"github.com/jumla-app/trader-gateway/internal/common"
)

// Middleware wires session resolution into HTTP handlers. The client sends
// its gateway session ID as a bearer token.
type Middleware struct {
	Service *Service
}

// RequireSession enforces that a valid session is present before executing
// the next handler and attaches it to the request context.
func (m Middleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Service == nil {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
			return
		}
		sessionID := extractBearer(r)
		if sessionID == "" {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session", nil)
			return
		}
		session, ok := m.Service.Resolve(sessionID)
		if !ok {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "session expired or unknown", nil)
			return
		}
		ctx := common.WithSession(r.Context(), common.Session{
			ID:       session.ID,
			Token:    session.Token,
			UserID:   session.UserID,
			TraderID: session.TraderID,
			DriverID: session.DriverID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireTrader rejects sessions that are not linked to a trader profile.
func RequireTrader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := common.SessionFrom(r.Context())
		if !ok || session.TraderID == "" {
			common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "trader account required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireDriver rejects sessions that are not linked to a driver profile.
func RequireDriver(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := common.SessionFrom(r.Context())
		if !ok || session.DriverID == "" {
			common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "driver account required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractBearer(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
