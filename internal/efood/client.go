// Package efood is the adapter for the remote efood REST API: the
// restaurant catalog (GET /restaurantes) and the order checkout endpoint
// (POST /checkout). It owns the wire contract in both directions: the
// catalog's Portuguese field names are folded into the English-named domain
// types, and the checkout response's varying field naming is normalized
// into a single domain.Order shape.
package efood

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/mesa/internal/domain"
	"github.com/dukerupert/mesa/internal/money"
	"github.com/dukerupert/mesa/internal/telemetry"
)

// DefaultBaseURL is the public efood API.
const DefaultBaseURL = "https://api-ebac.vercel.app/api/efood"

// Client calls the remote efood API.
type Client interface {
	// ListRestaurants fetches the full catalog.
	ListRestaurants(ctx context.Context) ([]domain.Restaurant, error)

	// Checkout submits an order and returns the normalized result.
	// There is no retry: a network failure or non-2xx status is a single
	// terminal error for the attempt and the caller resubmits manually.
	Checkout(ctx context.Context, req CheckoutRequest) (*domain.Order, error)
}

// Config contains configuration for the HTTP client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger // Optional: defaults to slog.Default()
}

// HTTPClient is the production Client implementation.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPClient creates an efood API client.
func NewHTTPClient(cfg Config) *HTTPClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// restaurantPayload mirrors the catalog's wire shape.
type restaurantPayload struct {
	ID          int              `json:"id"`
	Title       string           `json:"titulo"`
	Description string           `json:"descricao"`
	CoverURL    string           `json:"capa"`
	Rating      flexString       `json:"avaliacao"`
	Menu        []productPayload `json:"cardapio"`
}

type productPayload struct {
	ID          int     `json:"id"`
	Name        string  `json:"nome"`
	Description string  `json:"descricao"`
	Price       float64 `json:"preco"`
	PhotoURL    string  `json:"foto"`
	Portion     string  `json:"porcao"`
}

// ListRestaurants fetches and maps the catalog.
func (c *HTTPClient) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	const op = "efood.list_restaurants"

	start := time.Now()
	body, err := c.get(ctx, "/restaurantes")
	telemetry.ObserveUpstream("restaurantes", time.Since(start), err == nil)
	if err != nil {
		return nil, domain.Unavailable(err, op, "restaurant catalog is unavailable")
	}

	var payload []restaurantPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.WrapError(err, domain.EBADDATA, op, "restaurant catalog returned malformed data")
	}

	restaurants := make([]domain.Restaurant, 0, len(payload))
	for _, r := range payload {
		menu := make([]domain.Product, 0, len(r.Menu))
		for _, p := range r.Menu {
			menu = append(menu, domain.Product{
				ID:          p.ID,
				Name:        p.Name,
				Description: p.Description,
				UnitPrice:   money.FromFloat(p.Price),
				PhotoURL:    p.PhotoURL,
				Portion:     p.Portion,
			})
		}
		restaurants = append(restaurants, domain.Restaurant{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			CoverURL:    r.CoverURL,
			Rating:      string(r.Rating),
			Menu:        menu,
		})
	}

	c.logger.Debug("catalog fetched", "restaurants", len(restaurants))
	return restaurants, nil
}

// Checkout submits the order payload and normalizes the response.
func (c *HTTPClient) Checkout(ctx context.Context, req CheckoutRequest) (*domain.Order, error) {
	const op = "efood.checkout"

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode checkout request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create checkout request")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		telemetry.ObserveUpstream("checkout", time.Since(start), false)
		return nil, domain.Unavailable(err, op, "order submission failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		telemetry.ObserveUpstream("checkout", time.Since(start), false)
		return nil, domain.Unavailable(err, op, "order submission failed")
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	telemetry.ObserveUpstream("checkout", time.Since(start), ok)

	if !ok {
		c.logger.Warn("checkout rejected by upstream",
			"status", resp.StatusCode,
			"body_size", len(body),
		)
		return nil, domain.Unavailable(
			fmt.Errorf("checkout API error (status %d)", resp.StatusCode),
			op, "order submission failed",
		)
	}

	order, err := NormalizeOrder(body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("order submitted", "order_id", order.OrderID)
	return order, nil
}

// get performs a GET against the API and returns the response body.
func (c *HTTPClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("efood API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}
