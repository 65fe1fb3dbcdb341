package service

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/mesa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogServesCachedCopy(t *testing.T) {
	calls := 0
	client := &mockClient{
		ListRestaurantsFunc: func(ctx context.Context) ([]domain.Restaurant, error) {
			calls++
			return []domain.Restaurant{*testRestaurant()}, nil
		},
	}

	svc := NewCatalogService(client, testLogger(), time.Minute)
	ctx := context.Background()

	_, err := svc.ListRestaurants(ctx)
	require.NoError(t, err)
	_, err = svc.ListRestaurants(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestCatalogRefreshesWhenStale(t *testing.T) {
	calls := 0
	client := &mockClient{
		ListRestaurantsFunc: func(ctx context.Context) ([]domain.Restaurant, error) {
			calls++
			return []domain.Restaurant{*testRestaurant()}, nil
		},
	}

	svc := NewCatalogService(client, testLogger(), time.Minute).(*catalogService)
	current := time.Now()
	svc.now = func() time.Time { return current }
	ctx := context.Background()

	_, err := svc.ListRestaurants(ctx)
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)
	_, err = svc.ListRestaurants(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestCatalogFallsBackToStaleOnRefreshFailure(t *testing.T) {
	healthy := true
	client := &mockClient{
		ListRestaurantsFunc: func(ctx context.Context) ([]domain.Restaurant, error) {
			if !healthy {
				return nil, domain.Unavailable(assert.AnError, "efood.list_restaurants", "restaurant catalog is unavailable")
			}
			return []domain.Restaurant{*testRestaurant()}, nil
		},
	}

	svc := NewCatalogService(client, testLogger(), time.Minute).(*catalogService)
	current := time.Now()
	svc.now = func() time.Time { return current }
	ctx := context.Background()

	_, err := svc.ListRestaurants(ctx)
	require.NoError(t, err)

	healthy = false
	current = current.Add(2 * time.Minute)

	restaurants, err := svc.ListRestaurants(ctx)
	require.NoError(t, err)
	assert.Len(t, restaurants, 1)
}

func TestCatalogErrorWithoutCache(t *testing.T) {
	client := &mockClient{
		ListRestaurantsFunc: func(ctx context.Context) ([]domain.Restaurant, error) {
			return nil, domain.Unavailable(assert.AnError, "efood.list_restaurants", "restaurant catalog is unavailable")
		},
	}

	svc := NewCatalogService(client, testLogger(), time.Minute)
	_, err := svc.ListRestaurants(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
}

func TestGetRestaurant(t *testing.T) {
	client := &mockClient{
		ListRestaurantsFunc: func(ctx context.Context) ([]domain.Restaurant, error) {
			return []domain.Restaurant{*testRestaurant()}, nil
		},
	}

	svc := NewCatalogService(client, testLogger(), time.Minute)
	ctx := context.Background()

	restaurant, err := svc.GetRestaurant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "La Dolce Vita Trattoria", restaurant.Title)

	_, err = svc.GetRestaurant(ctx, 999)
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}
