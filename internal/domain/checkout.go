package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CHECKOUT DOMAIN ERRORS
// =============================================================================

var (
	ErrCartEmpty = &Error{Code: EPRECONDITION, Message: "Your cart is empty"}

	ErrDeliveryRequired = &Error{Code: EPRECONDITION, Message: "Complete the delivery step first"}

	ErrOrderNotFound = &Error{Code: ENOTFOUND, Message: "Order not found"}

	// ErrSubmissionInFlight rejects a second order submission while one is
	// already pending for the session.
	ErrSubmissionInFlight = &Error{Code: ECONFLICT, Message: "An order submission is already in progress"}
)

// CheckoutStep identifies one step of the linear checkout flow.
type CheckoutStep int

const (
	StepDelivery CheckoutStep = iota + 1
	StepPayment
	StepConfirmation
)

// String implements fmt.Stringer.
func (s CheckoutStep) String() string {
	switch s {
	case StepDelivery:
		return "delivery"
	case StepPayment:
		return "payment"
	case StepConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

// CheckoutService sequences the delivery, payment and confirmation steps and
// owns the step-scoped drafts. The navigation itself lives in the HTTP layer;
// Gate only advises whether a step may be entered.
type CheckoutService interface {
	// Gate checks the entry precondition for a step. Returns nil when the
	// step may be entered, otherwise a precondition or not-found error.
	Gate(ctx context.Context, token string, step CheckoutStep) error

	// DeliveryDetails returns the stored delivery draft for prefilling the
	// form on back-navigation. Nil when none has been submitted.
	DeliveryDetails(ctx context.Context, token string) (*DeliveryDetails, error)

	// SubmitDelivery validates and stores the delivery draft, overwriting
	// any previous one. Permitted whenever the cart is non-empty.
	SubmitDelivery(ctx context.Context, token string, details DeliveryDetails) error

	// SubmitPayment validates the card draft, submits the order to the
	// remote checkout endpoint and stores the normalized result. On failure
	// the flow stays on the payment step and the error is retryable.
	SubmitPayment(ctx context.Context, token string, card PaymentCard) (*Order, error)

	// Confirmation returns the stored order for the confirmation view.
	Confirmation(ctx context.Context, token string) (*Order, error)

	// CompleteOrder finishes the flow: clears the cart and resets all
	// step-scoped state so the session returns to the catalog.
	CompleteOrder(ctx context.Context, token string) error
}

// DeliveryDetails is the delivery-step draft. All fields except Complement
// are required; there is no format validation beyond presence.
type DeliveryDetails struct {
	ReceiverName string `validate:"required"`
	AddressLine  string `validate:"required"`
	City         string `validate:"required"`
	ZipCode      string `validate:"required"`
	Number       string `validate:"required"`
	Complement   string
}

// PaymentCard is the payment-step draft. Numeric-coded fields stay strings
// here; they are coerced (leniently, zero on failure) when the submission
// payload is built.
type PaymentCard struct {
	CardholderName string `validate:"required"`
	CardNumber     string `validate:"required,max=16"`
	CVV            string `validate:"required,max=3"`
	ExpiryMonth    string `validate:"required,max=2"`
	ExpiryYear     string `validate:"required,max=4"`
}

// OrderItem is one product entry echoed back by the checkout endpoint.
type OrderItem struct {
	ID    int
	Price decimal.Decimal
}

// OrderDelivery is the delivery summary echoed back by the checkout endpoint.
type OrderDelivery struct {
	Receiver string
	Address  string
}

// Order is the normalized result of a successful checkout submission.
// The upstream response varies in field naming; the submission adapter folds
// both conventions into this single shape.
type Order struct {
	OrderID               string
	EstimatedDeliveryTime string
	Total                 decimal.Decimal
	Items                 []OrderItem
	Delivery              OrderDelivery
}
