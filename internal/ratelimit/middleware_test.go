package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/jumla-app/trader-gateway/internal/common"
)

func newLimited(t *testing.T, max int, window time.Duration) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	handler := Handler{
		Limiter: Limiter{Client: client, Prefix: "ratelimit:"},
		Config:  Config{Key: SessionOrIP, Window: window, Max: max},
	}
	return handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func sessionRequest(sessionID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	return req.WithContext(common.WithSession(context.Background(), common.Session{ID: sessionID}))
}

func TestLimitEnforcedPerSession(t *testing.T) {
	limited := newLimited(t, 1, time.Second)

	rr := httptest.NewRecorder()
	limited.ServeHTTP(rr, sessionRequest("sess-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	limited.ServeHTTP(rr, sessionRequest("sess-1"))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	// Another session is unaffected.
	rr = httptest.NewRecorder()
	limited.ServeHTTP(rr, sessionRequest("sess-2"))
	if rr.Code != http.StatusOK {
		t.Fatalf("other session should pass, got %d", rr.Code)
	}
}

func TestAnonymousRequestsKeyedByIP(t *testing.T) {
	limited := newLimited(t, 1, time.Second)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:4000"
	rr := httptest.NewRecorder()
	limited.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	limited.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", rr.Code)
	}
}

func TestLimiterFailsOpenOnRedisError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer func() { _ = client.Close() }()
	called := false
	handler := Handler{
		Limiter: Limiter{Client: client, Prefix: "ratelimit:"},
		Config:  Config{Key: SessionOrIP, Window: time.Second, Max: 1},
		OnError: func(error) { called = true },
	}
	limited := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	limited.ServeHTTP(rr, sessionRequest("sess-1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected pass-through on limiter error, got %d", rr.Code)
	}
	if !called {
		t.Fatal("expected OnError callback")
	}
}
