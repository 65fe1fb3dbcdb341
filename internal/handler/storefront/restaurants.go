package storefront

import (
	"net/http"
	"strconv"

	"github.com/dukerupert/mesa/internal/domain"
	"github.com/dukerupert/mesa/internal/handler"
	"github.com/dukerupert/mesa/internal/money"
)

// RestaurantHandler serves the catalog read endpoints.
type RestaurantHandler struct {
	catalog domain.CatalogService
}

// NewRestaurantHandler creates a new restaurant handler
func NewRestaurantHandler(catalog domain.CatalogService) *RestaurantHandler {
	return &RestaurantHandler{catalog: catalog}
}

type productResponse struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	PhotoURL    string `json:"photoUrl"`
	Portion     string `json:"portion"`
}

type restaurantResponse struct {
	ID          int               `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	CoverURL    string            `json:"coverUrl"`
	Rating      string            `json:"rating"`
	Menu        []productResponse `json:"menu,omitempty"`
}

func toRestaurantResponse(r *domain.Restaurant, includeMenu bool) restaurantResponse {
	resp := restaurantResponse{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		CoverURL:    r.CoverURL,
		Rating:      r.Rating,
	}
	if includeMenu {
		resp.Menu = make([]productResponse, 0, len(r.Menu))
		for _, p := range r.Menu {
			resp.Menu = append(resp.Menu, productResponse{
				ID:          p.ID,
				Name:        p.Name,
				Description: p.Description,
				Price:       money.FormatBRL(p.UnitPrice),
				PhotoURL:    p.PhotoURL,
				Portion:     p.Portion,
			})
		}
	}
	return resp
}

// List handles GET /api/restaurants
func (h *RestaurantHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.catalog.ListRestaurants(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	resp := make([]restaurantResponse, 0, len(restaurants))
	for i := range restaurants {
		resp = append(resp, toRestaurantResponse(&restaurants[i], false))
	}
	handler.RespondJSON(w, http.StatusOK, resp)
}

// Detail handles GET /api/restaurants/{id}
func (h *RestaurantHandler) Detail(w http.ResponseWriter, r *http.Request) {
	const op = "storefront.restaurant_detail"

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid(op, "restaurant id must be a number"))
		return
	}

	restaurant, err := h.catalog.GetRestaurant(r.Context(), id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, toRestaurantResponse(restaurant, true))
}
