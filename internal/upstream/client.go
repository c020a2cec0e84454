package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jumla-app/trader-gateway/internal/resilience"
)

// Client talks to the marketplace REST API. It is the only component that
// performs network I/O; everything above it works with typed results.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  zerolog.Logger
}

// NewHTTPClient returns an HTTP client configured for upstream calls. When a
// breaker is provided the client fails fast while the marketplace is down.
func NewHTTPClient(timeout time.Duration, breaker *resilience.Breaker) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(resilience.Transport{
			Base:    &http.Transport{},
			Breaker: breaker,
		}),
	}
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	var out loginResponse
	if err := c.do(ctx, http.MethodPost, "/login", "", creds, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Token) == "" {
		return "", errors.New("upstream: no token received")
	}
	return out.Token, nil
}

// Logout revokes the bearer token server-side.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/logout", token, struct{}{}, nil)
}

// LoadUser fetches the authenticated account with its trader/driver profile.
func (c *Client) LoadUser(ctx context.Context, token string) (User, error) {
	var out User
	err := c.do(ctx, http.MethodGet, "/user", token, nil, &out)
	return out, err
}

// WholesaleStores lists the vendors available to the trader.
func (c *Client) WholesaleStores(ctx context.Context, token string) ([]WholesaleStore, error) {
	var out []WholesaleStore
	err := c.do(ctx, http.MethodGet, "/wholesale-stores", token, nil, &out)
	return out, err
}

// StoreProducts lists the catalog of one wholesale store.
func (c *Client) StoreProducts(ctx context.Context, token, storeID string) ([]Product, error) {
	var out []Product
	err := c.do(ctx, http.MethodGet, "/wholesale-stores/"+url.PathEscape(storeID)+"/products", token, nil, &out)
	return out, err
}

// DeliveryAreas lists serviced areas with their delivery fees.
func (c *Client) DeliveryAreas(ctx context.Context, token string) ([]DeliveryArea, error) {
	var out []DeliveryArea
	err := c.do(ctx, http.MethodGet, "/areas", token, nil, &out)
	return out, err
}

// SubmitOrder posts the checkout payload. A nil error means the server
// accepted the order; the cart may then be cleared.
func (c *Client) SubmitOrder(ctx context.Context, token string, order OrderSubmission) error {
	return c.do(ctx, http.MethodPost, "/orders", token, order, nil)
}

// TraderOrders lists the trader's placed orders.
func (c *Client) TraderOrders(ctx context.Context, token string) ([]Order, error) {
	var out []Order
	err := c.do(ctx, http.MethodGet, "/trader/orders", token, nil, &out)
	return out, err
}

// Notifications fetches the user's notification feed.
func (c *Client) Notifications(ctx context.Context, token, userID string) ([]Notification, error) {
	var out []Notification
	err := c.do(ctx, http.MethodGet, "/user/"+url.PathEscape(userID)+"/notifications", token, nil, &out)
	return out, err
}

// MarkNotificationRead marks a single notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, token, notificationID string) error {
	return c.do(ctx, http.MethodPost, "/notifications/"+url.PathEscape(notificationID)+"/read", token, struct{}{}, nil)
}

// AvailableShipments lists shipments drivers may accept.
func (c *Client) AvailableShipments(ctx context.Context, token string) ([]Shipment, error) {
	var out []Shipment
	err := c.do(ctx, http.MethodGet, "/shipments/available", token, nil, &out)
	return out, err
}

// DriverShipments lists the shipments assigned to the driver.
func (c *Client) DriverShipments(ctx context.Context, token, driverID string) ([]Shipment, error) {
	var out []Shipment
	err := c.do(ctx, http.MethodGet, "/driver/"+url.PathEscape(driverID)+"/shipments", token, nil, &out)
	return out, err
}

// AcceptShipment assigns an available shipment to the driver.
func (c *Client) AcceptShipment(ctx context.Context, token, shipmentID string) error {
	return c.do(ctx, http.MethodPost, "/shipments/"+url.PathEscape(shipmentID)+"/accept", token, struct{}{}, nil)
}

// AdvanceShipment asks the server to move a shipment into the named state.
// The server remains the authority on allowed transitions.
func (c *Client) AdvanceShipment(ctx context.Context, token, shipmentID, state string) error {
	return c.do(ctx, http.MethodPost, "/shipments/"+url.PathEscape(shipmentID)+"/"+url.PathEscape(state), token, struct{}{}, nil)
}

// CancelShipment releases a shipment back to the available pool.
func (c *Client) CancelShipment(ctx context.Context, token, shipmentID string) error {
	return c.do(ctx, http.MethodPost, "/shipments/"+url.PathEscape(shipmentID)+"/cancel", token, struct{}{}, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	if c == nil || strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("upstream: client not configured")
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("upstream: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("upstream: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := c.HTTP
	if client == nil {
		client = NewHTTPClient(0, nil)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		c.Logger.Error().Err(err).Str("method", method).Str("path", path).Msg("upstream request failed")
		return fmt.Errorf("upstream: %s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("upstream: read response: %w", err)
	}
	c.Logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("upstream request")
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(payload) == 0 {
			return nil
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("upstream: decode response: %w", err)
		}
		return nil
	}
	return decodeError(resp.StatusCode, payload)
}

func decodeError(status int, payload []byte) error {
	var parsed struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	_ = json.Unmarshal(payload, &parsed)
	if status == http.StatusUnprocessableEntity {
		return &ValidationError{Message: parsed.Message, Fields: parsed.Errors}
	}
	return &Error{Status: status, Message: parsed.Message}
}
