package resilience

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestBreakerOpensOnFailureRatio(t *testing.T) {
	b := NewBreaker(4, 0.5, time.Minute, zerolog.Nop())
	for i := 0; i < 2; i++ {
		b.Report(true)
	}
	for i := 0; i < 2; i++ {
		b.Report(false)
	}
	if b.CurrentState() != Open {
		t.Fatalf("expected open, got %s", b.CurrentState())
	}
	if b.Allow() {
		t.Fatal("open breaker must reject requests")
	}
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	b := NewBreaker(1, 0.5, time.Millisecond, zerolog.Nop())
	b.Report(false)
	if b.CurrentState() != Open {
		t.Fatalf("expected open, got %s", b.CurrentState())
	}
	time.Sleep(5 * time.Millisecond)
	if !b.Allow() {
		t.Fatal("expected probe after cool-off")
	}
	if b.CurrentState() != HalfOpen {
		t.Fatalf("expected half-open, got %s", b.CurrentState())
	}
	b.Report(true)
	if b.CurrentState() != Closed {
		t.Fatalf("expected closed after good probe, got %s", b.CurrentState())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(1, 0.5, time.Millisecond, zerolog.Nop())
	b.Report(false)
	time.Sleep(5 * time.Millisecond)
	b.Allow()
	b.Report(false)
	if b.CurrentState() != Open {
		t.Fatalf("expected reopened breaker, got %s", b.CurrentState())
	}
}

func TestBackoffGrowsExponentially(t *testing.T) {
	base := 100 * time.Millisecond
	if Backoff(base, 1, 0) != base {
		t.Fatal("first attempt should equal base")
	}
	if Backoff(base, 3, 0) != 4*base {
		t.Fatal("third attempt should be 4x base")
	}
}

func TestTransportFailsFastWhenOpen(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	breaker := NewBreaker(1, 0.5, time.Minute, zerolog.Nop())
	client := &http.Client{Transport: Transport{Breaker: breaker}}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("first request should reach server: %v", err)
	}
	_ = resp.Body.Close()

	_, err = client.Get(srv.URL)
	if err == nil || !errors.Is(err, ErrOpenCircuit) {
		t.Fatalf("expected ErrOpenCircuit, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("server must not be hit while open, got %d hits", hits.Load())
	}
}
