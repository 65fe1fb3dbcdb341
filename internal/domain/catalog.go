package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATALOG DOMAIN ERRORS
// =============================================================================

var (
	ErrRestaurantNotFound = &Error{Code: ENOTFOUND, Message: "Restaurant not found"}
	ErrProductNotFound    = &Error{Code: ENOTFOUND, Message: "Product not found"}
)

// CatalogService provides read access to the remote restaurant catalog.
// Implementations are expected to cache; the upstream endpoint returns the
// full catalog on every call.
type CatalogService interface {
	// ListRestaurants returns all restaurants with their menus.
	ListRestaurants(ctx context.Context) ([]Restaurant, error)

	// GetRestaurant returns a single restaurant by id.
	GetRestaurant(ctx context.Context, id int) (*Restaurant, error)
}

// Product is a menu entry as published by the catalog. Read-only.
type Product struct {
	ID          int
	Name        string
	Description string
	UnitPrice   decimal.Decimal
	PhotoURL    string
	Portion     string
}

// Restaurant is a catalog listing with its menu. Read-only.
type Restaurant struct {
	ID          int
	Title       string
	Description string
	CoverURL    string
	Rating      string
	Menu        []Product
}

// FindProduct returns the menu entry with the given id, if present.
func (r *Restaurant) FindProduct(id int) (*Product, bool) {
	for i := range r.Menu {
		if r.Menu[i].ID == id {
			return &r.Menu[i], true
		}
	}
	return nil, false
}

// RestaurantRef is the slice of restaurant identity snapshotted onto cart
// items at add-time.
type RestaurantRef struct {
	ID    int
	Title string
}

// Ref returns the restaurant's identity snapshot.
func (r *Restaurant) Ref() RestaurantRef {
	return RestaurantRef{ID: r.ID, Title: r.Title}
}
