// Package storefront holds the JSON handlers for the storefront API: the
// restaurant catalog, the cart and the checkout flow.
package storefront

import (
	"net/http"

	"github.com/dukerupert/mesa/internal/cookie"
	"github.com/dukerupert/mesa/internal/session"
)

// GetSessionToken reads the session token from the request cookie.
// Returns empty string when the visitor has no session yet.
func GetSessionToken(r *http.Request) string {
	return cookie.Get(r, cookie.SessionCookieName)
}

// SetSessionCookie stores the session token on the response. MaxAge follows
// the store TTL so the cookie and the server-side state expire together.
func SetSessionCookie(w http.ResponseWriter, cookies *cookie.Config, token string) {
	cookies.SetSession(w, cookie.SessionCookieName, token, int(session.DefaultTTL.Seconds()))
}
