package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrCartNotFound    = &Error{Code: ENOTFOUND, Message: "Cart not found"}
	ErrSessionNotFound = &Error{Code: ENOTFOUND, Message: "Session not found"}
)

// CartService provides business logic for shopping cart operations.
// Implementations are session-scoped: every method takes the session token
// and mutations are applied in call order, immediately visible to readers.
type CartService interface {
	// AddItem adds one unit of a product to the cart, snapshotting its
	// catalog fields. If the product is already in the cart its quantity
	// is incremented instead. Returns the updated summary and the session
	// token (a new one when the request carried none).
	AddItem(ctx context.Context, token string, restaurantID, productID int) (*CartSummary, string, error)

	// UpdateItemQuantity replaces the quantity of a cart item.
	// A quantity of zero or less removes the item; an unknown product id
	// is a no-op.
	UpdateItemQuantity(ctx context.Context, token string, productID, quantity int) (*CartSummary, error)

	// RemoveItem removes a product from the cart. No-op if absent.
	RemoveItem(ctx context.Context, token string, productID int) (*CartSummary, error)

	// GetSummary retrieves the cart with items and calculated totals.
	// An unknown or empty token yields an empty summary, not an error.
	GetSummary(ctx context.Context, token string) (*CartSummary, error)

	// ClearCart removes all items from the cart.
	ClearCart(ctx context.Context, token string) error
}

// LineItem is one product entry in the cart. Product fields are snapshotted
// at add-time so later catalog changes don't alter an open cart.
type LineItem struct {
	ProductID   int
	Name        string
	Description string
	UnitPrice   decimal.Decimal
	PhotoURL    string
	Portion     string
	Restaurant  RestaurantRef
	Quantity    int
}

// Subtotal returns unit price times quantity. A non-positive quantity
// contributes zero rather than a negative amount.
func (li LineItem) Subtotal() decimal.Decimal {
	if li.Quantity <= 0 {
		return decimal.Zero
	}
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// CartSummary aggregates cart items with calculated totals.
type CartSummary struct {
	Items      []LineItem
	TotalPrice decimal.Decimal
	ItemCount  int
}

// IsEmpty reports whether the cart holds no items.
func (s *CartSummary) IsEmpty() bool {
	return s == nil || len(s.Items) == 0
}
