package session

import (
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/mesa/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreateAndUpdate(t *testing.T) {
	store := NewStore(time.Hour)

	token, err := store.Create()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	err = store.Update(token, func(s *State) error {
		s.Items = append(s.Items, domain.LineItem{
			ProductID: 1,
			Name:      "Pizza Marguerita",
			UnitPrice: decimal.NewFromFloat(60.9),
			Quantity:  1,
		})
		return nil
	})
	require.NoError(t, err)

	var count int
	err = store.View(token, func(s *State) {
		count = len(s.Items)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStoreUnknownToken(t *testing.T) {
	store := NewStore(time.Hour)

	err := store.Update("nope", func(s *State) error { return nil })
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))

	err = store.View("nope", func(s *State) {})
	assert.True(t, errors.Is(err, domain.ErrSessionNotFound))
}

func TestStoreTokensAreUnique(t *testing.T) {
	store := NewStore(time.Hour)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := store.Create()
		require.NoError(t, err)
		assert.False(t, seen[token], "duplicate token")
		seen[token] = true
	}
}

func TestStorePurgeExpired(t *testing.T) {
	store := NewStore(time.Minute)

	current := time.Now()
	store.now = func() time.Time { return current }

	stale, err := store.Create()
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)
	fresh, err := store.Create()
	require.NoError(t, err)

	removed := store.PurgeExpired()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	assert.True(t, errors.Is(store.View(stale, func(*State) {}), domain.ErrSessionNotFound))
	assert.NoError(t, store.View(fresh, func(*State) {}))
}

func TestStateRemoveItemPreservesOrder(t *testing.T) {
	s := &State{Items: []domain.LineItem{
		{ProductID: 1},
		{ProductID: 2},
		{ProductID: 3},
	}}

	s.RemoveItem(2)

	require.Len(t, s.Items, 2)
	assert.Equal(t, 1, s.Items[0].ProductID)
	assert.Equal(t, 3, s.Items[1].ProductID)

	// Removing an absent id is a no-op.
	s.RemoveItem(99)
	assert.Len(t, s.Items, 2)
}

func TestStateResetFlowBumpsEpoch(t *testing.T) {
	s := &State{
		Items:    []domain.LineItem{{ProductID: 1}},
		Delivery: &domain.DeliveryDetails{ReceiverName: "Ana"},
		Payment:  &domain.PaymentCard{CardholderName: "Ana"},
		Order:    &domain.Order{OrderID: "abc"},
		Epoch:    3,
	}

	s.ResetFlow()

	assert.Empty(t, s.Items)
	assert.Nil(t, s.Delivery)
	assert.Nil(t, s.Payment)
	assert.Nil(t, s.Order)
	assert.Equal(t, 4, s.Epoch)
}
