package efood

import (
	"github.com/dukerupert/mesa/internal/domain"
	"github.com/dukerupert/mesa/internal/money"
)

// CheckoutRequest is the exact wire shape the checkout endpoint accepts.
// The contract carries one {id, price} entry per distinct product; item
// quantity is not part of the payload, so the upstream sees each product
// once regardless of how many units are in the cart.
type CheckoutRequest struct {
	Products []CheckoutProduct `json:"products"`
	Delivery CheckoutDelivery  `json:"delivery"`
	Payment  CheckoutPayment   `json:"payment"`
}

// CheckoutProduct is one product entry of the submission payload.
type CheckoutProduct struct {
	ID    int     `json:"id"`
	Price float64 `json:"price"`
}

// CheckoutDelivery carries the receiver and address of the submission.
type CheckoutDelivery struct {
	Receiver string          `json:"receiver"`
	Address  CheckoutAddress `json:"address"`
}

// CheckoutAddress is the delivery address of the submission payload.
type CheckoutAddress struct {
	Description string `json:"description"`
	City        string `json:"city"`
	ZipCode     string `json:"zipCode"`
	Number      int    `json:"number"`
	Complement  string `json:"complement"`
}

// CheckoutPayment wraps the card details of the submission payload.
type CheckoutPayment struct {
	Card CheckoutCard `json:"card"`
}

// CheckoutCard is the card block of the submission payload. The card number
// stays a string; CVV and expiry are integers on the wire.
type CheckoutCard struct {
	Name    string          `json:"name"`
	Number  string          `json:"number"`
	Code    int             `json:"code"`
	Expires CheckoutExpires `json:"expires"`
}

// CheckoutExpires is the card expiry of the submission payload.
type CheckoutExpires struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// BuildCheckoutRequest assembles the submission payload from the cart line
// items and the two checkout drafts. Numeric-coded draft fields (street
// number, CVV, expiry) coerce leniently: non-numeric input becomes 0 rather
// than failing the submission.
func BuildCheckoutRequest(items []domain.LineItem, delivery domain.DeliveryDetails, card domain.PaymentCard) CheckoutRequest {
	products := make([]CheckoutProduct, 0, len(items))
	for _, item := range items {
		products = append(products, CheckoutProduct{
			ID:    item.ProductID,
			Price: item.UnitPrice.InexactFloat64(),
		})
	}

	return CheckoutRequest{
		Products: products,
		Delivery: CheckoutDelivery{
			Receiver: delivery.ReceiverName,
			Address: CheckoutAddress{
				Description: delivery.AddressLine,
				City:        delivery.City,
				ZipCode:     delivery.ZipCode,
				Number:      money.IntOrZero(delivery.Number),
				Complement:  delivery.Complement,
			},
		},
		Payment: CheckoutPayment{
			Card: CheckoutCard{
				Name:   card.CardholderName,
				Number: card.CardNumber,
				Code:   money.IntOrZero(card.CVV),
				Expires: CheckoutExpires{
					Month: money.IntOrZero(card.ExpiryMonth),
					Year:  money.IntOrZero(card.ExpiryYear),
				},
			},
		},
	}
}
