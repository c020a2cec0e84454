package upstream_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jumla-app/trader-gateway/internal/upstream"
)

func newClient(t *testing.T, handler http.HandlerFunc) *upstream.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &upstream.Client{BaseURL: srv.URL, HTTP: srv.Client(), Logger: zerolog.Nop()}
}

func TestLoginParsesToken(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/login", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var creds upstream.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		require.Equal(t, "trader@example.com", creds.Email)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok-123"}`))
	})
	token, err := client.Login(context.Background(), upstream.Credentials{Email: "trader@example.com", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, "tok-123", token)
}

func TestLoginRejectsMissingToken(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	_, err := client.Login(context.Background(), upstream.Credentials{Email: "a", Password: "b"})
	require.Error(t, err)
}

func TestBearerTokenAttached(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-9", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"id":7,"name":"Ahmed","trader":{"id":"3"}}`))
	})
	user, err := client.LoadUser(context.Background(), "tok-9")
	require.NoError(t, err)
	require.Equal(t, "7", user.ID.String())
	require.NotNil(t, user.Trader)
	require.Equal(t, "3", user.Trader.ID.String())
}

func TestStoreProductsNormalisesPrices(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/wholesale-stores/5/products", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id":10,"name":"Rice","price":"12.5"},
			{"id":"11","name":"Oil","price":300}
		]`))
	})
	products, err := client.StoreProducts(context.Background(), "tok", "5")
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Equal(t, int64(1_250), products[0].Price.Money())
	require.Equal(t, int64(30_000), products[1].Price.Money())
}

func TestSubmitOrderPayloadShape(t *testing.T) {
	var captured map[string]any
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusCreated)
	})
	err := client.SubmitOrder(context.Background(), "tok", upstream.OrderSubmission{
		TraderID: "3",
		AreaID:   "2",
		Orders: []upstream.StoreOrder{{
			WholesaleStoreID: "1",
			Products:         []upstream.OrderProduct{{ProductID: "10", Quantity: 2, Price: "100.00"}},
			Deferred:         true,
		}},
	})
	require.NoError(t, err)
	require.Equal(t, "3", captured["trader_id"])
	require.Equal(t, "2", captured["area_id"])
	orders := captured["orders"].([]any)
	first := orders[0].(map[string]any)
	require.Equal(t, "1", first["wholesale_store_id"])
	require.Equal(t, true, first["deferred"])
}

func TestValidationErrorDecoded(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"The given data was invalid.","errors":{"area_id":["required"]}}`))
	})
	err := client.SubmitOrder(context.Background(), "tok", upstream.OrderSubmission{})
	require.Error(t, err)
	verr, ok := upstream.AsValidation(err)
	require.True(t, ok)
	require.Equal(t, []string{"required"}, verr.Fields["area_id"])
	require.Equal(t, 422, upstream.StatusOf(err))
}

func TestServerErrorCarriesMessage(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"upstream maintenance"}`))
	})
	_, err := client.DeliveryAreas(context.Background(), "tok")
	require.Error(t, err)
	require.Equal(t, http.StatusBadGateway, upstream.StatusOf(err))
	require.Contains(t, err.Error(), "upstream maintenance")
}
