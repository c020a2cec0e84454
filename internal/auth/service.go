package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jumla-app/trader-gateway/internal/obs"
	"github.com/jumla-app/trader-gateway/internal/upstream"
)

// ErrSessionNotFound indicates the session ID is unknown or expired.
var ErrSessionNotFound = errors.New("auth: session not found")

// Client is the slice of the upstream API the auth service needs.
type Client interface {
	Login(ctx context.Context, creds upstream.Credentials) (string, error)
	LoadUser(ctx context.Context, token string) (upstream.User, error)
	Logout(ctx context.Context, token string) error
}

// Session binds a gateway session ID to the upstream bearer token and the
// account profile resolved at login. Tokens stay server-side; the mobile
// client only ever sees the session ID.
type Session struct {
	ID        string
	Token     string
	UserID    string
	TraderID  string
	DriverID  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Service owns the in-memory session registry.
type Service struct {
	Client  Client
	TTL     time.Duration
	Now     func() time.Time
	Metrics *obs.DomainMetrics

	mu       sync.Mutex
	sessions map[string]*Session
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 12 * time.Hour
	}
	return s.TTL
}

// Login exchanges credentials upstream, loads the account profile and issues
// a gateway session.
func (s *Service) Login(ctx context.Context, creds upstream.Credentials) (Session, upstream.User, error) {
	if s == nil || s.Client == nil {
		return Session{}, upstream.User{}, errors.New("auth: service not configured")
	}
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return Session{}, upstream.User{}, errors.New("auth: email and password are required")
	}
	token, err := s.Client.Login(ctx, creds)
	if err != nil {
		return Session{}, upstream.User{}, fmt.Errorf("login: %w", err)
	}
	user, err := s.Client.LoadUser(ctx, token)
	if err != nil {
		return Session{}, upstream.User{}, fmt.Errorf("load user: %w", err)
	}
	now := s.now()
	session := &Session{
		ID:        uuid.NewString(),
		Token:     token,
		UserID:    user.ID.String(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl()),
	}
	if user.Trader != nil {
		session.TraderID = user.Trader.ID.String()
	}
	if user.Driver != nil {
		session.DriverID = user.Driver.ID.String()
	}
	s.mu.Lock()
	if s.sessions == nil {
		s.sessions = make(map[string]*Session)
	}
	s.sessions[session.ID] = session
	s.Metrics.SetActiveSessions(len(s.sessions))
	s.mu.Unlock()
	return *session, user, nil
}

// Resolve looks up a session by ID, evicting it when expired.
func (s *Service) Resolve(sessionID string) (Session, bool) {
	if s == nil || sessionID == "" {
		return Session{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	if s.now().After(session.ExpiresAt) {
		delete(s.sessions, sessionID)
		s.Metrics.SetActiveSessions(len(s.sessions))
		return Session{}, false
	}
	return *session, true
}

// Logout revokes the upstream token and drops the session. The upstream call
// is best-effort; the local session is removed either way so a flaky network
// cannot pin a session alive.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if s == nil {
		return errors.New("auth: service not configured")
	}
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
		s.Metrics.SetActiveSessions(len(s.sessions))
	}
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	if s.Client != nil {
		if err := s.Client.Logout(ctx, session.Token); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
	}
	return nil
}
