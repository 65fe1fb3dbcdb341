package efood

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/mesa/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPClient(Config{BaseURL: server.URL, Timeout: 5 * time.Second})
}

func TestListRestaurants(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/restaurantes", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{
			"id": 1,
			"titulo": "La Dolce Vita Trattoria",
			"descricao": "Massas artesanais",
			"capa": "https://example.test/capa.png",
			"avaliacao": 4.6,
			"cardapio": [{
				"id": 10,
				"nome": "Pizza Marguerita",
				"descricao": "Molho, mussarela e manjericao",
				"preco": 60.9,
				"foto": "https://example.test/pizza.png",
				"porcao": "2 a 3 pessoas"
			}]
		}]`)
	})

	restaurants, err := client.ListRestaurants(context.Background())
	require.NoError(t, err)
	require.Len(t, restaurants, 1)

	r := restaurants[0]
	assert.Equal(t, 1, r.ID)
	assert.Equal(t, "La Dolce Vita Trattoria", r.Title)
	assert.Equal(t, "4.6", r.Rating)
	require.Len(t, r.Menu, 1)
	assert.Equal(t, "Pizza Marguerita", r.Menu[0].Name)
	assert.True(t, r.Menu[0].UnitPrice.Equal(decimal.NewFromFloat(60.9)))
	assert.Equal(t, "2 a 3 pessoas", r.Menu[0].Portion)
}

func TestListRestaurantsUpstreamDown(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.ListRestaurants(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
}

func TestListRestaurantsMalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"unexpected":"object"}`)
	})

	_, err := client.ListRestaurants(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.EBADDATA, domain.ErrorCode(err))
}

func TestCheckoutSendsExactPayload(t *testing.T) {
	var captured map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		io.WriteString(w, `{"orderId":"ZTW0a2"}`)
	})

	items := []domain.LineItem{
		{ProductID: 10, UnitPrice: decimal.NewFromFloat(60.9), Quantity: 3},
		{ProductID: 11, UnitPrice: decimal.NewFromFloat(25.5), Quantity: 1},
	}
	delivery := domain.DeliveryDetails{
		ReceiverName: "Ana Souza",
		AddressLine:  "Rua das Flores",
		City:         "Recife",
		ZipCode:      "50000-000",
		Number:       "123",
		Complement:   "Apto 2",
	}
	card := domain.PaymentCard{
		CardholderName: "Ana M Souza",
		CardNumber:     "4111111111111111",
		CVV:            "321",
		ExpiryMonth:    "12",
		ExpiryYear:     "2027",
	}

	order, err := client.Checkout(context.Background(), BuildCheckoutRequest(items, delivery, card))
	require.NoError(t, err)
	assert.Equal(t, "ZTW0a2", order.OrderID)

	// One product entry per line item; quantity never crosses the wire.
	products := captured["products"].([]any)
	require.Len(t, products, 2)
	first := products[0].(map[string]any)
	assert.Equal(t, float64(10), first["id"])
	assert.InDelta(t, 60.9, first["price"], 0.001)
	assert.NotContains(t, first, "quantity")

	deliveryBody := captured["delivery"].(map[string]any)
	assert.Equal(t, "Ana Souza", deliveryBody["receiver"])
	address := deliveryBody["address"].(map[string]any)
	assert.Equal(t, "Rua das Flores", address["description"])
	assert.Equal(t, "Recife", address["city"])
	assert.Equal(t, "50000-000", address["zipCode"])
	assert.Equal(t, float64(123), address["number"])
	assert.Equal(t, "Apto 2", address["complement"])

	cardBody := captured["payment"].(map[string]any)["card"].(map[string]any)
	assert.Equal(t, "Ana M Souza", cardBody["name"])
	assert.Equal(t, "4111111111111111", cardBody["number"])
	assert.Equal(t, float64(321), cardBody["code"])
	expires := cardBody["expires"].(map[string]any)
	assert.Equal(t, float64(12), expires["month"])
	assert.Equal(t, float64(2027), expires["year"])
}

func TestCheckoutCoercesNonNumericFields(t *testing.T) {
	delivery := domain.DeliveryDetails{ReceiverName: "Ana", Number: "s/n"}
	card := domain.PaymentCard{CVV: "abc", ExpiryMonth: "", ExpiryYear: "20x7"}

	req := BuildCheckoutRequest(nil, delivery, card)
	assert.Equal(t, 0, req.Delivery.Address.Number)
	assert.Equal(t, 0, req.Payment.Card.Code)
	assert.Equal(t, 0, req.Payment.Card.Expires.Month)
	assert.Equal(t, 0, req.Payment.Card.Expires.Year)
}

func TestCheckoutUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Checkout(context.Background(), CheckoutRequest{})
	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
}
