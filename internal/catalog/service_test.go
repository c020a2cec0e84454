package catalog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jumla-app/trader-gateway/internal/upstream"
)

type countingProvider struct {
	stores   []upstream.WholesaleStore
	products []upstream.Product
	areas    []upstream.DeliveryArea
	calls    map[string]int
}

func (p *countingProvider) bump(name string) {
	if p.calls == nil {
		p.calls = map[string]int{}
	}
	p.calls[name]++
}

func (p *countingProvider) WholesaleStores(context.Context, string) ([]upstream.WholesaleStore, error) {
	p.bump("stores")
	return p.stores, nil
}

func (p *countingProvider) StoreProducts(_ context.Context, _, _ string) ([]upstream.Product, error) {
	p.bump("products")
	return p.products, nil
}

func (p *countingProvider) DeliveryAreas(context.Context, string) ([]upstream.DeliveryArea, error) {
	p.bump("areas")
	return p.areas, nil
}

func newTestService(t *testing.T, provider *countingProvider) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc, err := NewService(ServiceConfig{
		Upstream: provider,
		Cache:    NewCache(client, time.Minute),
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	return svc
}

func mustProducts(t *testing.T, raw string) []upstream.Product {
	t.Helper()
	var out []upstream.Product
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestStoresCachedAfterFirstFetch(t *testing.T) {
	provider := &countingProvider{}
	require.NoError(t, json.Unmarshal(
		[]byte(`[{"id":1,"name":"Al Noor"},{"id":"2","name":"Baraka"}]`), &provider.stores))
	svc := newTestService(t, provider)

	first, err := svc.Stores(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.Stores(context.Background(), "tok")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, provider.calls["stores"])
}

func TestStoreProductsKeyedByStore(t *testing.T) {
	provider := &countingProvider{
		products: mustProducts(t, `[{"id":10,"name":"Rice","price":"12.5"}]`),
	}
	svc := newTestService(t, provider)

	products, err := svc.StoreProducts(context.Background(), "tok", "5")
	require.NoError(t, err)
	require.Equal(t, int64(1_250), products[0].Price.Money())

	_, err = svc.StoreProducts(context.Background(), "tok", "5")
	require.NoError(t, err)
	require.Equal(t, 1, provider.calls["products"])

	_, err = svc.StoreProducts(context.Background(), "tok", "6")
	require.NoError(t, err)
	require.Equal(t, 2, provider.calls["products"], "different store must not share a cache entry")
}

func TestStoreProductsRequiresID(t *testing.T) {
	svc := newTestService(t, &countingProvider{})
	_, err := svc.StoreProducts(context.Background(), "tok", "  ")
	require.Error(t, err)
}

func TestAreaLookup(t *testing.T) {
	provider := &countingProvider{}
	require.NoError(t, json.Unmarshal(
		[]byte(`[{"id":1,"name":"North","price":"20"},{"id":2,"name":"South","price":"35.5"}]`), &provider.areas))
	svc := newTestService(t, provider)

	area, err := svc.Area(context.Background(), "tok", "2")
	require.NoError(t, err)
	require.Equal(t, "South", area.Name)
	require.Equal(t, int64(3_550), area.Price.Money())

	_, err = svc.Area(context.Background(), "tok", "99")
	require.ErrorIs(t, err, ErrAreaNotFound)
}
