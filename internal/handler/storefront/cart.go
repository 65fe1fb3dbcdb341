package storefront

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dukerupert/mesa/internal/cookie"
	"github.com/dukerupert/mesa/internal/domain"
	"github.com/dukerupert/mesa/internal/handler"
	"github.com/dukerupert/mesa/internal/money"
)

// CartHandler handles all cart-related storefront routes
type CartHandler struct {
	carts   domain.CartService
	cookies *cookie.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts domain.CartService, cookies *cookie.Config) *CartHandler {
	return &CartHandler{
		carts:   carts,
		cookies: cookies,
	}
}

type lineItemResponse struct {
	ProductID   int    `json:"productId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PhotoURL    string `json:"photoUrl"`
	Portion     string `json:"portion"`
	Restaurant  struct {
		ID    int    `json:"id"`
		Title string `json:"title"`
	} `json:"restaurant"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Subtotal  string `json:"subtotal"`
}

type cartResponse struct {
	Items      []lineItemResponse `json:"items"`
	TotalPrice string             `json:"totalPrice"`
	ItemCount  int                `json:"itemCount"`
}

func toCartResponse(summary *domain.CartSummary) cartResponse {
	resp := cartResponse{
		Items:      make([]lineItemResponse, 0, len(summary.Items)),
		TotalPrice: money.FormatBRL(summary.TotalPrice),
		ItemCount:  summary.ItemCount,
	}
	for _, item := range summary.Items {
		li := lineItemResponse{
			ProductID:   item.ProductID,
			Name:        item.Name,
			Description: item.Description,
			PhotoURL:    item.PhotoURL,
			Portion:     item.Portion,
			Quantity:    item.Quantity,
			UnitPrice:   money.FormatBRL(item.UnitPrice),
			Subtotal:    money.FormatBRL(item.Subtotal()),
		}
		li.Restaurant.ID = item.Restaurant.ID
		li.Restaurant.Title = item.Restaurant.Title
		resp.Items = append(resp.Items, li)
	}
	return resp
}

// View handles GET /api/cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	summary, err := h.carts.GetSummary(r.Context(), GetSessionToken(r))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, toCartResponse(summary))
}

// Add handles POST /api/cart/items
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	const op = "storefront.cart_add"

	var body struct {
		RestaurantID int `json:"restaurantId"`
		ProductID    int `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid(op, "invalid request body"))
		return
	}

	token := GetSessionToken(r)
	summary, newToken, err := h.carts.AddItem(r.Context(), token, body.RestaurantID, body.ProductID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if newToken != token {
		SetSessionCookie(w, h.cookies, newToken)
	}

	handler.RespondJSON(w, http.StatusOK, toCartResponse(summary))
}

// UpdateItem handles PATCH /api/cart/items/{id}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	const op = "storefront.cart_update_item"

	productID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid(op, "product id must be a number"))
		return
	}

	// Quantity arrives as a JSON number that may be fractional; it is
	// floored and clamped at zero before it reaches the cart.
	var body struct {
		Quantity float64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid(op, "invalid request body"))
		return
	}

	summary, err := h.carts.UpdateItemQuantity(r.Context(), GetSessionToken(r), productID, money.FloorQuantity(body.Quantity))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, toCartResponse(summary))
}

// RemoveItem handles DELETE /api/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	const op = "storefront.cart_remove_item"

	productID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid(op, "product id must be a number"))
		return
	}

	summary, err := h.carts.RemoveItem(r.Context(), GetSessionToken(r), productID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, toCartResponse(summary))
}

// Clear handles DELETE /api/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.ClearCart(r.Context(), GetSessionToken(r)); err != nil {
		// Clearing a cart that never existed is not an error.
		if !domain.IsCode(err, domain.ENOTFOUND) {
			handler.ErrorResponse(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
