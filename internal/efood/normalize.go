package efood

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/dukerupert/mesa/internal/domain"
	"github.com/dukerupert/mesa/internal/money"
	"github.com/shopspring/decimal"
)

// defaultDeliveryEstimate is used when the response carries no estimate.
const defaultDeliveryEstimate = "30 - 40 minutos"

// flexString decodes a JSON value that may arrive as a string or a number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// orderPayload accepts the field name variants the checkout endpoint has
// been observed to return. Where both variants are present the first listed
// wins: orderId over id, total over totalPrice, items over products,
// estimatedDeliveryTime over deliveryEstimate.
type orderPayload struct {
	OrderID flexString `json:"orderId"`
	ID      flexString `json:"id"`

	Total      *float64 `json:"total"`
	TotalPrice *float64 `json:"totalPrice"`

	Items    []orderItemPayload `json:"items"`
	Products []orderItemPayload `json:"products"`

	EstimatedDeliveryTime string `json:"estimatedDeliveryTime"`
	DeliveryEstimate      string `json:"deliveryEstimate"`

	Delivery *orderDeliveryPayload `json:"delivery"`
}

type orderItemPayload struct {
	ID    int     `json:"id"`
	Price float64 `json:"price"`
}

type orderDeliveryPayload struct {
	Receiver string `json:"receiver"`

	// Address arrives either as a plain string or as the structured object
	// the request carries.
	Address json.RawMessage `json:"address"`
}

// NormalizeOrder decodes a checkout response body into the canonical order
// shape. A body that is not a JSON object at all is a data shape error; a
// decodable object with fields missing degrades per field instead.
func NormalizeOrder(body []byte) (*domain.Order, error) {
	const op = "efood.normalize_order"

	var payload orderPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.WrapError(err, domain.EBADDATA, op, "order confirmation returned malformed data")
	}

	order := &domain.Order{
		OrderID:               string(payload.OrderID),
		EstimatedDeliveryTime: payload.EstimatedDeliveryTime,
	}
	if order.OrderID == "" {
		order.OrderID = string(payload.ID)
	}
	if order.EstimatedDeliveryTime == "" {
		order.EstimatedDeliveryTime = payload.DeliveryEstimate
	}
	if order.EstimatedDeliveryTime == "" {
		order.EstimatedDeliveryTime = defaultDeliveryEstimate
	}

	switch {
	case payload.Total != nil:
		order.Total = money.FromFloat(*payload.Total)
	case payload.TotalPrice != nil:
		order.Total = money.FromFloat(*payload.TotalPrice)
	default:
		order.Total = decimal.Zero
	}

	items := payload.Items
	if items == nil {
		items = payload.Products
	}
	for _, item := range items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:    item.ID,
			Price: money.FromFloat(item.Price),
		})
	}

	if payload.Delivery != nil {
		order.Delivery = domain.OrderDelivery{
			Receiver: payload.Delivery.Receiver,
			Address:  normalizeAddress(payload.Delivery.Address),
		}
	}

	return order, nil
}

// normalizeAddress flattens a string-or-object address into display text.
func normalizeAddress(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		Description string `json:"description"`
		City        string `json:"city"`
		ZipCode     string `json:"zipCode"`
		Number      int    `json:"number"`
		Complement  string `json:"complement"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}

	parts := make([]string, 0, 4)
	if obj.Description != "" {
		line := obj.Description
		if obj.Number != 0 {
			line += ", " + strconv.Itoa(obj.Number)
		}
		parts = append(parts, line)
	}
	if obj.Complement != "" {
		parts = append(parts, obj.Complement)
	}
	if obj.City != "" {
		parts = append(parts, obj.City)
	}
	if obj.ZipCode != "" {
		parts = append(parts, obj.ZipCode)
	}
	return strings.Join(parts, " - ")
}
