package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jumla-app/trader-gateway/internal/pricing"
)

func TestLoadRequiresUpstreamBaseURL(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"UPSTREAM_BASE_URL": "",
	})
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"UPSTREAM_BASE_URL": "https://api.example.com/",
		"MIN_ORDER_TOTAL":   "",
		"PORT":              "",
		"SESSION_TTL":       "",
	})
	require.NoError(t, err)
	require.Equal(t, "https://api.example.com", cfg.UpstreamBaseURL, "trailing slash is stripped")
	require.Equal(t, pricing.Money(50_000), cfg.MinOrderTotal)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 12*time.Hour, cfg.SessionTTL)
	require.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	require.Equal(t, 60, cfg.RateLimitMax)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"UPSTREAM_BASE_URL":    "https://api.example.com",
		"MIN_ORDER_TOTAL":      "750.50",
		"PORT":                 "9090",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example",
		"RATE_LIMIT_MAX":       "5",
		"RATE_LIMIT_WINDOW":    "30s",
	})
	require.NoError(t, err)
	require.Equal(t, pricing.Money(75_050), cfg.MinOrderTotal)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 5, cfg.RateLimitMax)
	require.Equal(t, 30*time.Second, cfg.RateLimitWindow)
}

func TestLoadRejectsMalformedMinOrder(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"UPSTREAM_BASE_URL": "https://api.example.com",
		"MIN_ORDER_TOTAL":   "abc",
	})
	require.Error(t, err)
}
