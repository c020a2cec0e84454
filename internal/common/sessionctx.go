package common

import "context"

// Session carries the resolved gateway session through request contexts. The
// upstream bearer token never leaves the server side.
type Session struct {
	ID       string
	Token    string
	UserID   string
	TraderID string
	DriverID string
}

type ctxKey string

const sessionKey ctxKey = "auth/session"

// WithSession stores the resolved session on the provided context.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFrom extracts the session from the context if present.
func SessionFrom(ctx context.Context) (Session, bool) {
	v := ctx.Value(sessionKey)
	if v == nil {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok
}
