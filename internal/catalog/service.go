package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jumla-app/trader-gateway/internal/upstream"
)

type storefrontProvider interface {
	WholesaleStores(ctx context.Context, token string) ([]upstream.WholesaleStore, error)
	StoreProducts(ctx context.Context, token, storeID string) ([]upstream.Product, error)
	DeliveryAreas(ctx context.Context, token string) ([]upstream.DeliveryArea, error)
}

// Service serves the storefront catalog with a Redis read-through cache in
// front of the marketplace API. Catalog data is the same for every trader, so
// cache keys are not session-scoped.
type Service struct {
	upstream storefrontProvider
	cache    *Cache
	logger   zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Upstream storefrontProvider
	Cache    *Cache
	Logger   zerolog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Upstream == nil {
		return nil, errors.New("catalog: upstream provider is required")
	}
	return &Service{upstream: cfg.Upstream, cache: cfg.Cache, logger: cfg.Logger}, nil
}

// Stores lists the wholesale stores available to the trader.
func (s *Service) Stores(ctx context.Context, token string) ([]upstream.WholesaleStore, error) {
	const key = "catalog:stores"
	var cached []upstream.WholesaleStore
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	stores, err := s.upstream.WholesaleStores(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	if err := s.cache.SetJSON(ctx, key, stores); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return stores, nil
}

// StoreProducts lists one store's products.
func (s *Service) StoreProducts(ctx context.Context, token, storeID string) ([]upstream.Product, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return nil, errors.New("catalog: store id is required")
	}
	key := "catalog:store:" + storeID + ":products"
	var cached []upstream.Product
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	products, err := s.upstream.StoreProducts(ctx, token, storeID)
	if err != nil {
		return nil, fmt.Errorf("list store products: %w", err)
	}
	if err := s.cache.SetJSON(ctx, key, products); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return products, nil
}

// Areas lists delivery areas with their fees.
func (s *Service) Areas(ctx context.Context, token string) ([]upstream.DeliveryArea, error) {
	const key = "catalog:areas"
	var cached []upstream.DeliveryArea
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	areas, err := s.upstream.DeliveryAreas(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	if err := s.cache.SetJSON(ctx, key, areas); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return areas, nil
}

// Area resolves one delivery area by ID.
func (s *Service) Area(ctx context.Context, token, areaID string) (upstream.DeliveryArea, error) {
	areas, err := s.Areas(ctx, token)
	if err != nil {
		return upstream.DeliveryArea{}, err
	}
	for _, area := range areas {
		if area.ID.String() == areaID {
			return area, nil
		}
	}
	return upstream.DeliveryArea{}, fmt.Errorf("catalog: area %s: %w", areaID, ErrAreaNotFound)
}

// ErrAreaNotFound indicates the requested delivery area does not exist.
var ErrAreaNotFound = errors.New("area not found")
