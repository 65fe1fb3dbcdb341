package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukerupert/mesa/internal/domain"
	"github.com/dukerupert/mesa/internal/efood"
	"github.com/dukerupert/mesa/internal/session"
	"github.com/dukerupert/mesa/internal/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type checkoutService struct {
	store    *session.Store
	client   efood.Client
	validate *validator.Validate
	logger   *slog.Logger
}

// NewCheckoutService creates a new CheckoutService instance
func NewCheckoutService(store *session.Store, client efood.Client, logger *slog.Logger) domain.CheckoutService {
	return &checkoutService{
		store:    store,
		client:   client,
		validate: validator.New(),
		logger:   logger,
	}
}

// Gate reports whether the session may enter a checkout step. The chain is
// cumulative: payment requires everything delivery requires, confirmation
// requires a submitted order.
func (s *checkoutService) Gate(ctx context.Context, token string, step domain.CheckoutStep) error {
	if token == "" {
		return gateError(step)
	}

	var gateErr error
	err := s.store.View(token, func(st *session.State) {
		switch step {
		case domain.StepDelivery:
			if len(st.Items) == 0 {
				gateErr = domain.ErrCartEmpty
			}
		case domain.StepPayment:
			if len(st.Items) == 0 {
				gateErr = domain.ErrCartEmpty
			} else if st.Delivery == nil {
				gateErr = domain.ErrDeliveryRequired
			}
		case domain.StepConfirmation:
			if st.Order == nil {
				gateErr = domain.ErrOrderNotFound
			}
		}
	})
	if err != nil {
		return gateError(step)
	}
	return gateErr
}

// gateError is the failure for a step when the session itself is missing.
func gateError(step domain.CheckoutStep) error {
	if step == domain.StepConfirmation {
		return domain.ErrOrderNotFound
	}
	return domain.ErrCartEmpty
}

// DeliveryDetails returns the saved delivery draft for form prefill, or nil
// when nothing has been submitted yet.
func (s *checkoutService) DeliveryDetails(ctx context.Context, token string) (*domain.DeliveryDetails, error) {
	if err := s.Gate(ctx, token, domain.StepDelivery); err != nil {
		return nil, err
	}

	var details *domain.DeliveryDetails
	err := s.store.View(token, func(st *session.State) {
		if st.Delivery != nil {
			d := *st.Delivery
			details = &d
		}
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

// deliveryFieldNames maps struct fields to their wire names for validation
// error reporting.
var deliveryFieldNames = map[string]string{
	"ReceiverName": "receiverName",
	"AddressLine":  "addressLine",
	"City":         "city",
	"ZipCode":      "zipCode",
	"Number":       "number",
	"Complement":   "complement",
}

var cardFieldNames = map[string]string{
	"CardholderName": "cardholderName",
	"CardNumber":     "cardNumber",
	"CVV":            "cvv",
	"ExpiryMonth":    "expiryMonth",
	"ExpiryYear":     "expiryYear",
}

// SubmitDelivery validates and stores the delivery draft. The draft is kept
// verbatim; numeric coercion of the street number happens at submission.
func (s *checkoutService) SubmitDelivery(ctx context.Context, token string, details domain.DeliveryDetails) error {
	const op = "service.checkout.submit_delivery"

	if err := s.Gate(ctx, token, domain.StepDelivery); err != nil {
		return err
	}

	if err := s.validate.Struct(details); err != nil {
		return validationError(err, op, deliveryFieldNames)
	}

	err := s.store.Update(token, func(st *session.State) error {
		if len(st.Items) == 0 {
			return domain.ErrCartEmpty
		}
		d := details
		st.Delivery = &d
		return nil
	})
	if err != nil {
		return err
	}

	telemetry.CountCheckoutStep("delivery")
	return nil
}

// SubmitPayment validates the card, submits the order upstream and stores
// the normalized confirmation. At most one submission runs per session; a
// second call while one is in flight fails with ErrSubmissionInFlight
// instead of producing a duplicate order.
func (s *checkoutService) SubmitPayment(ctx context.Context, token string, card domain.PaymentCard) (*domain.Order, error) {
	const op = "service.checkout.submit_payment"

	if err := s.validate.Struct(card); err != nil {
		return nil, validationError(err, op, cardFieldNames)
	}

	// Claim the submission slot and snapshot everything the request needs
	// under the lock. The network call itself runs outside it.
	var (
		items    []domain.LineItem
		delivery domain.DeliveryDetails
		total    decimal.Decimal
		epoch    int
	)
	err := s.store.Update(token, func(st *session.State) error {
		if len(st.Items) == 0 {
			return domain.ErrCartEmpty
		}
		if st.Delivery == nil {
			return domain.ErrDeliveryRequired
		}
		if st.Submitting {
			return domain.ErrSubmissionInFlight
		}
		st.Submitting = true
		st.Payment = &card

		items = make([]domain.LineItem, len(st.Items))
		copy(items, st.Items)
		delivery = *st.Delivery
		total = summarize(st).TotalPrice
		epoch = st.Epoch
		return nil
	})
	if err != nil {
		return nil, err
	}

	if telemetry.Business != nil {
		telemetry.Business.PaymentAttempts.Inc()
	}

	order, submitErr := s.client.Checkout(ctx, efood.BuildCheckoutRequest(items, delivery, card))

	// Release the slot and write the result back. A session whose flow was
	// reset while the call was in flight keeps its reset state; the late
	// response is dropped.
	stale := false
	err = s.store.Update(token, func(st *session.State) error {
		st.Submitting = false
		if st.Epoch != epoch {
			stale = true
			return nil
		}
		if submitErr == nil {
			st.Order = order
		}
		return nil
	})
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, err
	}

	if submitErr != nil {
		telemetry.CountPaymentFailed(failureReason(submitErr))
		telemetry.CaptureError(submitErr, map[string]interface{}{"op": op})
		return nil, submitErr
	}

	if stale {
		s.logger.Warn("discarding order response for reset session", "order_id", order.OrderID)
		return nil, domain.Errorf(domain.ECONFLICT, op, "checkout was reset during submission")
	}

	// Some confirmations omit the total; fall back to the cart total that
	// was captured when the submission started.
	if order.Total.IsZero() && !total.IsZero() {
		order.Total = total
	}

	if telemetry.Business != nil {
		telemetry.Business.PaymentSucceeded.Inc()
		telemetry.Business.OrdersCreated.Inc()
		telemetry.Business.OrderValue.Observe(order.Total.InexactFloat64())
		telemetry.Business.OrderItemCount.Observe(float64(len(items)))
	}
	telemetry.CountCheckoutStep("payment")

	s.logger.Info("order confirmed", "order_id", order.OrderID, "total", order.Total.String())
	return order, nil
}

// Confirmation returns the submitted order for the confirmation step.
func (s *checkoutService) Confirmation(ctx context.Context, token string) (*domain.Order, error) {
	if err := s.Gate(ctx, token, domain.StepConfirmation); err != nil {
		return nil, err
	}

	var order *domain.Order
	err := s.store.View(token, func(st *session.State) {
		if st.Order != nil {
			o := *st.Order
			order = &o
		}
	})
	if err != nil {
		return nil, domain.ErrOrderNotFound
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// CompleteOrder acknowledges the confirmation and resets the session for
// the next purchase: cart, drafts and order are all cleared.
func (s *checkoutService) CompleteOrder(ctx context.Context, token string) error {
	if err := s.Gate(ctx, token, domain.StepConfirmation); err != nil {
		return err
	}

	err := s.store.Update(token, func(st *session.State) error {
		st.ResetFlow()
		return nil
	})
	if err != nil {
		return err
	}

	if telemetry.Business != nil {
		telemetry.Business.CartCleared.WithLabelValues("purchase").Inc()
	}
	telemetry.CountCheckoutStep("confirmation")
	return nil
}

// validationError converts validator failures into the domain validation
// error, reporting wire field names.
func validationError(err error, op string, names map[string]string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Internal(err, op, "validation failed")
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := names[fe.Field()]
		if name == "" {
			name = fe.Field()
		}
		switch fe.Tag() {
		case "required":
			fields[name] = "this field is required"
		case "max":
			fields[name] = "value is too long (max " + fe.Param() + " characters)"
		default:
			fields[name] = "invalid value"
		}
	}
	return &domain.ValidationError{Op: op, Fields: fields}
}

func failureReason(err error) string {
	switch domain.ErrorCode(err) {
	case domain.EBADDATA:
		return "bad_data"
	case domain.EUNAVAILABLE:
		return "upstream"
	default:
		return "internal"
	}
}
