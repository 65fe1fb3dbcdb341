// Package service implements the storefront business logic on top of the
// session store and the efood API adapter. Services validate and enforce
// the flow invariants; the store below them is plain storage.
package service

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/dukerupert/mesa/internal/domain"
	"github.com/dukerupert/mesa/internal/efood"
)

// DefaultCatalogTTL is how long a fetched catalog is served before it is
// refreshed from the upstream API.
const DefaultCatalogTTL = 5 * time.Minute

type catalogService struct {
	client efood.Client
	logger *slog.Logger
	ttl    time.Duration

	mu        sync.Mutex
	cached    []domain.Restaurant
	fetchedAt time.Time
	now       func() time.Time
}

// NewCatalogService creates a CatalogService that caches the upstream
// catalog for ttl. A non-positive ttl falls back to DefaultCatalogTTL.
func NewCatalogService(client efood.Client, logger *slog.Logger, ttl time.Duration) domain.CatalogService {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &catalogService{
		client: client,
		logger: logger,
		ttl:    ttl,
		now:    time.Now,
	}
}

// ListRestaurants returns the catalog, refreshing it from upstream when the
// cached copy is stale. A failed refresh falls back to the stale copy so a
// flaky upstream does not blank the storefront.
func (s *catalogService) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && s.now().Sub(s.fetchedAt) < s.ttl {
		return s.cached, nil
	}

	restaurants, err := s.client.ListRestaurants(ctx)
	if err != nil {
		if s.cached != nil {
			s.logger.Warn("catalog refresh failed, serving stale copy",
				"age", s.now().Sub(s.fetchedAt).String(),
				"error", err,
			)
			return s.cached, nil
		}
		return nil, err
	}

	s.cached = restaurants
	s.fetchedAt = s.now()
	return restaurants, nil
}

// GetRestaurant returns a single restaurant by id.
func (s *catalogService) GetRestaurant(ctx context.Context, id int) (*domain.Restaurant, error) {
	const op = "service.catalog.get_restaurant"

	restaurants, err := s.ListRestaurants(ctx)
	if err != nil {
		return nil, err
	}

	for i := range restaurants {
		if restaurants[i].ID == id {
			return &restaurants[i], nil
		}
	}

	return nil, domain.NotFound(op, "restaurant", strconv.Itoa(id))
}
