// Package session owns the per-visitor storefront state: the cart line
// items, the step-scoped checkout drafts and the submitted order. State is
// purely in-memory and discarded when the session expires; there is no
// durable storage by design.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/dukerupert/mesa/internal/domain"
)

// State is the session-scoped storefront state. Access goes through
// Store.Update/Store.View so mutations are applied in call order and are
// immediately visible to subsequent readers.
type State struct {
	Token     string
	CreatedAt time.Time
	LastSeen  time.Time

	// Cart line items in insertion order.
	Items []domain.LineItem

	// Step-scoped checkout drafts and the normalized submission result.
	Delivery *domain.DeliveryDetails
	Payment  *domain.PaymentCard
	Order    *domain.Order

	// Submitting marks an order submission in flight for this session.
	// At most one submission runs at a time.
	Submitting bool

	// Epoch increments whenever the flow resets (order completed or cart
	// cleared). A submission captures the epoch at start; a response
	// carrying a stale epoch is discarded rather than applied.
	Epoch int
}

// FindItem returns the line item for a product id, or nil.
func (s *State) FindItem(productID int) *domain.LineItem {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			return &s.Items[i]
		}
	}
	return nil
}

// RemoveItem deletes the line item for a product id, preserving the order
// of the remaining items. No-op if absent.
func (s *State) RemoveItem(productID int) {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			return
		}
	}
}

// ResetFlow clears the cart and all checkout state and bumps the epoch so
// any in-flight submission response is discarded.
func (s *State) ResetFlow() {
	s.Items = nil
	s.Delivery = nil
	s.Payment = nil
	s.Order = nil
	s.Epoch++
}

// Store is an in-memory session store keyed by an opaque token.
// A single store-level mutex serializes all state access, which gives the
// "apply in event order" guarantee the cart relies on.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*State
	ttl      time.Duration
	now      func() time.Time
}

// DefaultTTL is how long an idle session survives before the sweeper
// removes it.
const DefaultTTL = 4 * time.Hour

// NewStore creates a session store. A non-positive ttl falls back to
// DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		sessions: make(map[string]*State),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create allocates a new session and returns its token.
func (st *Store) Create() (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	now := st.now()
	st.mu.Lock()
	st.sessions[token] = &State{
		Token:     token,
		CreatedAt: now,
		LastSeen:  now,
	}
	st.mu.Unlock()

	return token, nil
}

// Update runs fn against the session state under the store lock.
// Returns domain.ErrSessionNotFound for an unknown or expired token; any
// error from fn is returned as-is and the state mutations fn already made
// are kept (fn is expected to validate before mutating).
func (st *Store) Update(token string, fn func(*State) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[token]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.LastSeen = st.now()

	return fn(s)
}

// View runs fn against the session state under the store lock without
// refreshing its idle deadline. fn must not retain references to the state.
func (st *Store) View(token string, fn func(*State)) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[token]
	if !ok {
		return domain.ErrSessionNotFound
	}

	fn(s)
	return nil
}

// Delete removes a session. No-op if absent.
func (st *Store) Delete(token string) {
	st.mu.Lock()
	delete(st.sessions, token)
	st.mu.Unlock()
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// PurgeExpired removes sessions idle for longer than the TTL and returns
// how many were removed.
func (st *Store) PurgeExpired() int {
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for token, s := range st.sessions {
		if s.LastSeen.Before(cutoff) {
			delete(st.sessions, token)
			removed++
		}
	}
	return removed
}

// generateToken returns a cryptographically secure session token:
// 32 bytes of random data encoded as a URL-safe base64 string.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return base64.URLEncoding.EncodeToString(b), nil
}
