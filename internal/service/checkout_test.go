package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/mesa/internal/domain"
	"github.com/dukerupert/mesa/internal/efood"
	"github.com/dukerupert/mesa/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient implements efood.Client with function fields.
type mockClient struct {
	ListRestaurantsFunc func(ctx context.Context) ([]domain.Restaurant, error)
	CheckoutFunc        func(ctx context.Context, req efood.CheckoutRequest) (*domain.Order, error)
}

func (m *mockClient) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	return m.ListRestaurantsFunc(ctx)
}

func (m *mockClient) Checkout(ctx context.Context, req efood.CheckoutRequest) (*domain.Order, error) {
	return m.CheckoutFunc(ctx, req)
}

func validDelivery() domain.DeliveryDetails {
	return domain.DeliveryDetails{
		ReceiverName: "Ana Souza",
		AddressLine:  "Rua das Flores",
		City:         "Recife",
		ZipCode:      "50000-000",
		Number:       "123",
		Complement:   "Apto 2",
	}
}

func validCard() domain.PaymentCard {
	return domain.PaymentCard{
		CardholderName: "Ana M Souza",
		CardNumber:     "4111111111111111",
		CVV:            "321",
		ExpiryMonth:    "12",
		ExpiryYear:     "2027",
	}
}

// checkoutFixture wires a store with a filled cart, a cart service and a
// checkout service sharing it.
type checkoutFixture struct {
	store    *session.Store
	client   *mockClient
	carts    domain.CartService
	checkout domain.CheckoutService
	token    string
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	store := session.NewStore(time.Hour)
	client := &mockClient{
		CheckoutFunc: func(ctx context.Context, req efood.CheckoutRequest) (*domain.Order, error) {
			return &domain.Order{OrderID: "ZTW0a2", Total: decimal.NewFromFloat(60.9)}, nil
		},
	}

	carts := NewCartService(store, fixedCatalog(), testLogger())
	checkout := NewCheckoutService(store, client, testLogger())

	_, token, err := carts.AddItem(context.Background(), "", 1, 10)
	require.NoError(t, err)

	return &checkoutFixture{
		store:    store,
		client:   client,
		carts:    carts,
		checkout: checkout,
		token:    token,
	}
}

func TestGateDeliveryRequiresItems(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	assert.NoError(t, f.checkout.Gate(ctx, f.token, domain.StepDelivery))

	require.NoError(t, f.carts.ClearCart(ctx, f.token))
	err := f.checkout.Gate(ctx, f.token, domain.StepDelivery)
	assert.ErrorIs(t, err, domain.ErrCartEmpty)

	// No session at all behaves like an empty cart.
	err = f.checkout.Gate(ctx, "", domain.StepDelivery)
	assert.ErrorIs(t, err, domain.ErrCartEmpty)
}

func TestGatePaymentRequiresDelivery(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	err := f.checkout.Gate(ctx, f.token, domain.StepPayment)
	assert.ErrorIs(t, err, domain.ErrDeliveryRequired)

	require.NoError(t, f.checkout.SubmitDelivery(ctx, f.token, validDelivery()))
	assert.NoError(t, f.checkout.Gate(ctx, f.token, domain.StepPayment))
}

func TestGateConfirmationRequiresOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	err := f.checkout.Gate(ctx, f.token, domain.StepConfirmation)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	require.NoError(t, f.checkout.SubmitDelivery(ctx, f.token, validDelivery()))
	_, err = f.checkout.SubmitPayment(ctx, f.token, validCard())
	require.NoError(t, err)

	assert.NoError(t, f.checkout.Gate(ctx, f.token, domain.StepConfirmation))
}

func TestSubmitDeliveryValidation(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	details := validDelivery()
	details.ReceiverName = ""
	details.ZipCode = ""

	err := f.checkout.SubmitDelivery(ctx, f.token, details)
	require.Error(t, err)
	require.True(t, domain.IsValidationError(err))

	fields := domain.GetValidationFields(err)
	assert.Contains(t, fields, "receiverName")
	assert.Contains(t, fields, "zipCode")
	assert.NotContains(t, fields, "complement")
}

func TestSubmitDeliveryOverwritesDraft(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	require.NoError(t, f.checkout.SubmitDelivery(ctx, f.token, validDelivery()))

	updated := validDelivery()
	updated.City = "Olinda"
	require.NoError(t, f.checkout.SubmitDelivery(ctx, f.token, updated))

	saved, err := f.checkout.DeliveryDetails(ctx, f.token)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "Olinda", saved.City)
}

func TestSubmitPaymentValidation(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	card := validCard()
	card.CVV = "12345"
	card.CardholderName = ""

	_, err := f.checkout.SubmitPayment(ctx, f.token, card)
	require.Error(t, err)
	require.True(t, domain.IsValidationError(err))

	fields := domain.GetValidationFields(err)
	assert.Contains(t, fields, "cvv")
	assert.Contains(t, fields, "cardholderName")
}

func TestSubmitPaymentRequiresDelivery(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.checkout.SubmitPayment(context.Background(), f.token, validCard())
	assert.ErrorIs(t, err, domain.ErrDeliveryRequired)
}

func TestSubmitPaymentBuildsUpstreamRequest(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, _, err := f.carts.AddItem(ctx, f.token, 1, 10) // quantity 2
	require.NoError(t, err)
	_, _, err = f.carts.AddItem(ctx, f.token, 1, 11)
	require.NoError(t, err)

	var captured efood.CheckoutRequest
	f.client.CheckoutFunc = func(ctx context.Context, req efood.CheckoutRequest) (*domain.Order, error) {
		captured = req
		return &domain.Order{OrderID: "ok", Total: decimal.NewFromFloat(171.7)}, nil
	}

	require.NoError(t, f.checkout.SubmitDelivery(ctx, f.token, validDelivery()))
	order, err := f.checkout.SubmitPayment(ctx, f.token, validCard())
	require.NoError(t, err)
	assert.Equal(t, "ok", order.OrderID)

	// One entry per distinct product even with quantity 2 in the cart.
	require.Len(t, captured.Products, 2)
	assert.Equal(t, 10, captured.Products[0].ID)
	assert.InDelta(t, 60.9, captured.Products[0].Price, 0.001)
	assert.Equal(t, 11, captured.Products[1].ID)

	assert.Equal(t, "Ana Souza", captured.Delivery.Receiver)
	assert.Equal(t, 123, captured.Delivery.Address.Number)
	assert.Equal(t, 321, captured.Payment.Card.Code)
	assert.Equal(t, 12, captured.Payment.Card.Expires.Month)
}

func TestSubmitPaymentTotalFallsBackToCartTotal(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	f.client.CheckoutFunc = func(ctx context.Context, req efood.CheckoutRequest) (*domain.Order, error) {
		return &domain.Order{OrderID: "no-total"}, nil
	}

	require.NoError(t, f.checkout.SubmitDelivery(ctx, f.token, validDelivery()))
	order, err := f.checkout.SubmitPayment(ctx, f.token, validCard())
	require.NoError(t, err)

	assert.True(t, order.Total.Equal(decimal.NewFromFloat(60.9)))
}

func TestSubmitPaymentUpstreamFailureKeepsCart(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	f.client.CheckoutFunc = func(ctx context.Context, req efood.CheckoutRequest) (*domain.Order, error) {
		return nil, domain.Unavailable(assert.AnError, "efood.checkout", "order submission failed")
	}

	require.NoError(t, f.checkout.SubmitDelivery(ctx, f.token, validDelivery()))
	_, err := f.checkout.SubmitPayment(ctx, f.token, validCard())
	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))

	// The flow stays on payment: cart and delivery survive for a retry.
	summary, err := f.carts.GetSummary(ctx, f.token)
	require.NoError(t, err)
	assert.False(t, summary.IsEmpty())
	assert.NoError(t, f.checkout.Gate(ctx, f.token, domain.StepPayment))

	// A retry can then succeed.
	f.client.CheckoutFunc = func(ctx context.Context, req efood.CheckoutRequest) (*domain.Order, error) {
		return &domain.Order{OrderID: "retry", Total: decimal.NewFromFloat(60.9)}, nil
	}
	order, err := f.checkout.SubmitPayment(ctx, f.token, validCard())
	require.NoError(t, err)
	assert.Equal(t, "retry", order.OrderID)
}

func TestSubmitPaymentSingleFlight(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	require.NoError(t, f.checkout.SubmitDelivery(ctx, f.token, validDelivery()))

	started := make(chan struct{})
	release := make(chan struct{})
	f.client.CheckoutFunc = func(ctx context.Context, req efood.CheckoutRequest) (*domain.Order, error) {
		close(started)
		<-release
		return &domain.Order{OrderID: "slow", Total: decimal.NewFromFloat(60.9)}, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := f.checkout.SubmitPayment(ctx, f.token, validCard())
		assert.NoError(t, err)
	}()

	<-started
	_, err := f.checkout.SubmitPayment(ctx, f.token, validCard())
	assert.ErrorIs(t, err, domain.ErrSubmissionInFlight)

	close(release)
	wg.Wait()
}

func TestSubmitPaymentDiscardsStaleResponse(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	require.NoError(t, f.checkout.SubmitDelivery(ctx, f.token, validDelivery()))

	// The flow resets while the submission is in flight.
	f.client.CheckoutFunc = func(ctx context.Context, req efood.CheckoutRequest) (*domain.Order, error) {
		require.NoError(t, f.carts.ClearCart(ctx, f.token))
		return &domain.Order{OrderID: "late", Total: decimal.NewFromFloat(60.9)}, nil
	}

	_, err := f.checkout.SubmitPayment(ctx, f.token, validCard())
	require.Error(t, err)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

	// The late response did not resurrect the completed flow.
	err = f.checkout.Gate(ctx, f.token, domain.StepConfirmation)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestConfirmationReturnsOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.checkout.Confirmation(ctx, f.token)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	require.NoError(t, f.checkout.SubmitDelivery(ctx, f.token, validDelivery()))
	submitted, err := f.checkout.SubmitPayment(ctx, f.token, validCard())
	require.NoError(t, err)

	order, err := f.checkout.Confirmation(ctx, f.token)
	require.NoError(t, err)
	assert.Equal(t, submitted.OrderID, order.OrderID)
}

func TestCompleteOrderResetsSession(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	require.NoError(t, f.checkout.SubmitDelivery(ctx, f.token, validDelivery()))
	_, err := f.checkout.SubmitPayment(ctx, f.token, validCard())
	require.NoError(t, err)

	require.NoError(t, f.checkout.CompleteOrder(ctx, f.token))

	summary, err := f.carts.GetSummary(ctx, f.token)
	require.NoError(t, err)
	assert.True(t, summary.IsEmpty())

	assert.ErrorIs(t, f.checkout.Gate(ctx, f.token, domain.StepConfirmation), domain.ErrOrderNotFound)
	assert.ErrorIs(t, f.checkout.Gate(ctx, f.token, domain.StepDelivery), domain.ErrCartEmpty)

	// Completing twice is rejected.
	assert.ErrorIs(t, f.checkout.CompleteOrder(ctx, f.token), domain.ErrOrderNotFound)
}
