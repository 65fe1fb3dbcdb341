// Package money holds the price formatting and numeric-coercion helpers
// shared by the cart, checkout and catalog layers. Prices are carried as
// decimals end to end; floats only appear at the JSON boundary.
package money

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBRL renders an amount the way the storefront displays it:
// "R$ 10,00" with a comma decimal separator and two fractional digits.
func FormatBRL(amount decimal.Decimal) string {
	return "R$ " + strings.Replace(amount.StringFixed(2), ".", ",", 1)
}

// FromFloat converts a JSON number into a decimal amount.
// NaN or infinite inputs degrade to zero instead of failing.
func FromFloat(f float64) decimal.Decimal {
	if f != f || f > maxPrice || f < -maxPrice {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// maxPrice bounds FromFloat against infinities and garbage upstream values.
const maxPrice = 1e12

// IntOrZero parses s as a base-10 integer, returning 0 when it is empty or
// not numeric. This mirrors the lenient coercion the checkout contract
// expects for CVV, expiry and street-number fields.
func IntOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// FloorQuantity clamps a requested quantity to a non-negative integer,
// flooring fractional input.
func FloorQuantity(q float64) int {
	if q != q || q <= 0 {
		return 0
	}
	n := int(q)
	if float64(n) > q {
		n--
	}
	return n
}
