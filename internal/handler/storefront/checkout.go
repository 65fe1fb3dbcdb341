package storefront

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dukerupert/mesa/internal/domain"
	"github.com/dukerupert/mesa/internal/handler"
	"github.com/dukerupert/mesa/internal/money"
)

// CheckoutHandler handles the delivery, payment and confirmation steps.
type CheckoutHandler struct {
	checkout domain.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkout domain.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// redirectFor maps a gate failure to the path the client should return to.
func redirectFor(err error) string {
	if errors.Is(err, domain.ErrDeliveryRequired) {
		return "/checkout/delivery"
	}
	if errors.Is(err, domain.ErrCartEmpty) || errors.Is(err, domain.ErrOrderNotFound) {
		return "/"
	}
	return ""
}

// respondGateError writes the error envelope with the redirect hint.
func respondGateError(w http.ResponseWriter, r *http.Request, err error) {
	if redirect := redirectFor(err); redirect != "" {
		handler.ErrorResponseRedirect(w, r, err, redirect)
		return
	}
	handler.ErrorResponse(w, r, err)
}

type deliveryBody struct {
	ReceiverName string `json:"receiverName"`
	AddressLine  string `json:"addressLine"`
	City         string `json:"city"`
	ZipCode      string `json:"zipCode"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
}

type orderItemResponse struct {
	ID    int    `json:"id"`
	Price string `json:"price"`
}

type orderResponse struct {
	OrderID               string              `json:"orderId"`
	EstimatedDeliveryTime string              `json:"estimatedDeliveryTime"`
	Total                 string              `json:"total"`
	Items                 []orderItemResponse `json:"items,omitempty"`
	Delivery              struct {
		Receiver string `json:"receiver,omitempty"`
		Address  string `json:"address,omitempty"`
	} `json:"delivery"`
}

func toOrderResponse(order *domain.Order) orderResponse {
	resp := orderResponse{
		OrderID:               order.OrderID,
		EstimatedDeliveryTime: order.EstimatedDeliveryTime,
		Total:                 money.FormatBRL(order.Total),
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:    item.ID,
			Price: money.FormatBRL(item.Price),
		})
	}
	resp.Delivery.Receiver = order.Delivery.Receiver
	resp.Delivery.Address = order.Delivery.Address
	return resp
}

// Delivery handles GET /api/checkout/delivery: the entry gate plus the saved
// draft for form prefill on back-navigation.
func (h *CheckoutHandler) Delivery(w http.ResponseWriter, r *http.Request) {
	details, err := h.checkout.DeliveryDetails(r.Context(), GetSessionToken(r))
	if err != nil {
		respondGateError(w, r, err)
		return
	}

	var body *deliveryBody
	if details != nil {
		body = &deliveryBody{
			ReceiverName: details.ReceiverName,
			AddressLine:  details.AddressLine,
			City:         details.City,
			ZipCode:      details.ZipCode,
			Number:       details.Number,
			Complement:   details.Complement,
		}
	}
	handler.RespondJSON(w, http.StatusOK, map[string]any{"delivery": body})
}

// SubmitDelivery handles POST /api/checkout/delivery
func (h *CheckoutHandler) SubmitDelivery(w http.ResponseWriter, r *http.Request) {
	const op = "storefront.checkout_delivery"

	var body deliveryBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid(op, "invalid request body"))
		return
	}

	details := domain.DeliveryDetails{
		ReceiverName: body.ReceiverName,
		AddressLine:  body.AddressLine,
		City:         body.City,
		ZipCode:      body.ZipCode,
		Number:       body.Number,
		Complement:   body.Complement,
	}

	if err := h.checkout.SubmitDelivery(r.Context(), GetSessionToken(r), details); err != nil {
		respondGateError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Payment handles GET /api/checkout/payment: gate check only, the card form
// is never prefilled.
func (h *CheckoutHandler) Payment(w http.ResponseWriter, r *http.Request) {
	if err := h.checkout.Gate(r.Context(), GetSessionToken(r), domain.StepPayment); err != nil {
		respondGateError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitPayment handles POST /api/checkout/payment
func (h *CheckoutHandler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	const op = "storefront.checkout_payment"

	var body struct {
		CardholderName string `json:"cardholderName"`
		CardNumber     string `json:"cardNumber"`
		CVV            string `json:"cvv"`
		ExpiryMonth    string `json:"expiryMonth"`
		ExpiryYear     string `json:"expiryYear"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid(op, "invalid request body"))
		return
	}

	card := domain.PaymentCard{
		CardholderName: body.CardholderName,
		CardNumber:     body.CardNumber,
		CVV:            body.CVV,
		ExpiryMonth:    body.ExpiryMonth,
		ExpiryYear:     body.ExpiryYear,
	}

	order, err := h.checkout.SubmitPayment(r.Context(), GetSessionToken(r), card)
	if err != nil {
		respondGateError(w, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, toOrderResponse(order))
}

// Confirmation handles GET /api/checkout/confirmation
func (h *CheckoutHandler) Confirmation(w http.ResponseWriter, r *http.Request) {
	order, err := h.checkout.Confirmation(r.Context(), GetSessionToken(r))
	if err != nil {
		respondGateError(w, r, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, toOrderResponse(order))
}

// Complete handles POST /api/checkout/complete
func (h *CheckoutHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if err := h.checkout.CompleteOrder(r.Context(), GetSessionToken(r)); err != nil {
		respondGateError(w, r, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]string{"redirect": "/"})
}
