package service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukerupert/mesa/internal/domain"
	"github.com/dukerupert/mesa/internal/session"
	"github.com/dukerupert/mesa/internal/telemetry"
	"github.com/shopspring/decimal"
)

type cartService struct {
	store   *session.Store
	catalog domain.CatalogService
	logger  *slog.Logger
}

// NewCartService creates a new CartService instance
func NewCartService(store *session.Store, catalog domain.CatalogService, logger *slog.Logger) domain.CartService {
	return &cartService{
		store:   store,
		catalog: catalog,
		logger:  logger,
	}
}

// AddItem adds one unit of a product to the cart, creating a session when
// the request carries no token. The product's name and price are snapshotted
// into the line item at add time; adding an item already in the cart
// increments its quantity instead of appending a second line.
func (s *cartService) AddItem(ctx context.Context, token string, restaurantID, productID int) (*domain.CartSummary, string, error) {
	const op = "service.cart.add_item"

	restaurant, err := s.catalog.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, "", err
	}

	product, ok := restaurant.FindProduct(productID)
	if !ok {
		return nil, "", domain.NotFound(op, "product", strconv.Itoa(productID))
	}

	if token == "" {
		token, err = s.store.Create()
		if err != nil {
			return nil, "", domain.Internal(err, op, "failed to create session")
		}
		if telemetry.Business != nil {
			telemetry.Business.CartCreated.Inc()
			telemetry.Business.SessionsCreated.Inc()
		}
	}

	var summary *domain.CartSummary
	err = s.store.Update(token, func(st *session.State) error {
		if item := st.FindItem(productID); item != nil {
			item.Quantity++
		} else {
			st.Items = append(st.Items, domain.LineItem{
				ProductID:   product.ID,
				Name:        product.Name,
				Description: product.Description,
				UnitPrice:   product.UnitPrice,
				PhotoURL:    product.PhotoURL,
				Portion:     product.Portion,
				Restaurant:  restaurant.Ref(),
				Quantity:    1,
			})
		}
		summary = summarize(st)
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	telemetry.CountCartUpdate("add")
	if telemetry.Business != nil {
		telemetry.Business.CartItemsAdd.Inc()
	}
	s.logger.Debug("item added to cart", "product_id", productID, "restaurant_id", restaurantID)

	return summary, token, nil
}

// UpdateItemQuantity sets the quantity of a line item. A quantity of zero or
// less removes the line; an unknown product id leaves the cart unchanged.
func (s *cartService) UpdateItemQuantity(ctx context.Context, token string, productID, quantity int) (*domain.CartSummary, error) {
	var summary *domain.CartSummary
	err := s.store.Update(token, func(st *session.State) error {
		if item := st.FindItem(productID); item != nil {
			if quantity <= 0 {
				st.RemoveItem(productID)
			} else {
				item.Quantity = quantity
			}
		}
		summary = summarize(st)
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.CountCartUpdate("update_quantity")
	return summary, nil
}

// RemoveItem deletes a line item from the cart. Unknown ids are a no-op.
func (s *cartService) RemoveItem(ctx context.Context, token string, productID int) (*domain.CartSummary, error) {
	var summary *domain.CartSummary
	err := s.store.Update(token, func(st *session.State) error {
		st.RemoveItem(productID)
		summary = summarize(st)
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.CountCartUpdate("remove")
	return summary, nil
}

// GetSummary returns the current cart. An empty or unknown token yields an
// empty summary rather than an error: a visitor without a session simply has
// an empty cart.
func (s *cartService) GetSummary(ctx context.Context, token string) (*domain.CartSummary, error) {
	if token == "" {
		return emptySummary(), nil
	}

	var summary *domain.CartSummary
	err := s.store.View(token, func(st *session.State) {
		summary = summarize(st)
	})
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return emptySummary(), nil
		}
		return nil, err
	}

	return summary, nil
}

// ClearCart empties the cart and resets the checkout flow.
func (s *cartService) ClearCart(ctx context.Context, token string) error {
	err := s.store.Update(token, func(st *session.State) error {
		st.ResetFlow()
		return nil
	})
	if err != nil {
		return err
	}

	if telemetry.Business != nil {
		telemetry.Business.CartCleared.WithLabelValues("manual").Inc()
	}
	return nil
}

// summarize builds the cart view from session state. Line subtotals use the
// snapshotted unit price; a non-positive quantity contributes zero.
func summarize(st *session.State) *domain.CartSummary {
	summary := &domain.CartSummary{
		Items:      make([]domain.LineItem, len(st.Items)),
		TotalPrice: decimal.Zero,
	}
	copy(summary.Items, st.Items)

	for _, item := range summary.Items {
		summary.TotalPrice = summary.TotalPrice.Add(item.Subtotal())
		if item.Quantity > 0 {
			summary.ItemCount += item.Quantity
		}
	}
	return summary
}

func emptySummary() *domain.CartSummary {
	return &domain.CartSummary{TotalPrice: decimal.Zero}
}
