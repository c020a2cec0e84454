package resilience

import (
	"net/http"
)

// Transport is an http.RoundTripper that consults a circuit breaker before
// forwarding requests. Only idempotent methods are retried; POST bodies such
// as order submissions go out exactly once.
type Transport struct {
	Base    http.RoundTripper
	Breaker *Breaker
}

// RoundTrip implements http.RoundTripper.
func (t Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Breaker == nil {
		return base.RoundTrip(req)
	}
	if !t.Breaker.Allow() {
		return nil, ErrOpenCircuit
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		t.Breaker.Report(false)
		return nil, err
	}
	t.Breaker.Report(resp.StatusCode < http.StatusInternalServerError)
	return resp, nil
}
