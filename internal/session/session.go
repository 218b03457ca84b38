// Package session carries per-browser ephemeral state: the shopping cart
// and the in-progress checkout wizard data. State lives server-side in a
// pluggable store keyed by a random cookie ID; only the ID crosses the wire.
package session

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/handmade_market/internal/checkout"
)

const (
	CookieName = "hm_session"

	ctxKey = "session"
)

// Data is the persisted session payload. Cart keys are product IDs as
// decimal strings, matching the form-field naming used by the cart routes.
type Data struct {
	Cart     map[string]int         `json:"cart,omitempty"`
	Shipping *checkout.ShippingInfo `json:"shipping_info,omitempty"`
	Payment  *checkout.PaymentInfo  `json:"payment_info,omitempty"`
}

// Session is the in-request handle. Mutations set the dirty flag; the
// middleware writes the session back to the store only when dirty.
type Session struct {
	ID    string
	Data  Data
	dirty bool
}

func (s *Session) Dirty() bool { return s.dirty }

func (s *Session) Touch() { s.dirty = true }

// CartQuantity returns the quantity for a product ID, 0 when absent.
func (s *Session) CartQuantity(productID uint) int {
	return s.Data.Cart[strconv.FormatUint(uint64(productID), 10)]
}

// AddToCart merges qty into an existing line or creates one.
func (s *Session) AddToCart(productID uint, qty int) {
	if qty < 1 {
		qty = 1
	}
	if s.Data.Cart == nil {
		s.Data.Cart = map[string]int{}
	}
	s.Data.Cart[strconv.FormatUint(uint64(productID), 10)] += qty
	s.dirty = true
}

// SetCartQuantity replaces the quantity of an existing line. Zero deletes
// the line; unknown product IDs are a no-op.
func (s *Session) SetCartQuantity(productID uint, qty int) {
	key := strconv.FormatUint(uint64(productID), 10)
	if _, ok := s.Data.Cart[key]; !ok {
		return
	}
	if qty <= 0 {
		delete(s.Data.Cart, key)
	} else {
		s.Data.Cart[key] = qty
	}
	s.dirty = true
}

// RemoveFromCart deletes a line, idempotently.
func (s *Session) RemoveFromCart(productID uint) {
	key := strconv.FormatUint(uint64(productID), 10)
	if _, ok := s.Data.Cart[key]; ok {
		delete(s.Data.Cart, key)
		s.dirty = true
	}
}

func (s *Session) ClearCart() {
	if len(s.Data.Cart) > 0 {
		s.Data.Cart = nil
		s.dirty = true
	}
}

func (s *Session) CartEmpty() bool { return len(s.Data.Cart) == 0 }

// CartEntries returns (productID, quantity) pairs ordered by product ID.
// Keys that fail numeric coercion are dropped.
func (s *Session) CartEntries() []CartEntry {
	entries := make([]CartEntry, 0, len(s.Data.Cart))
	for key, qty := range s.Data.Cart {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, CartEntry{ProductID: uint(id), Quantity: qty})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ProductID < entries[j].ProductID })
	return entries
}

type CartEntry struct {
	ProductID uint
	Quantity  int
}

func (s *Session) SetShipping(info checkout.ShippingInfo) {
	s.Data.Shipping = &info
	s.dirty = true
}

func (s *Session) SetPayment(info checkout.PaymentInfo) {
	s.Data.Payment = &info
	s.dirty = true
}

// Reset purges the cart and all wizard keys after a completed checkout.
func (s *Session) Reset() {
	s.Data = Data{}
	s.dirty = true
}

// FromContext returns the request session installed by Middleware.
func FromContext(c echo.Context) *Session {
	if s, ok := c.Get(ctxKey).(*Session); ok {
		return s
	}
	// Routes registered without the middleware still get a working,
	// non-persisted session.
	return &Session{ID: uuid.NewString()}
}

// Middleware loads the session named by the request cookie (creating a
// fresh one when absent or unknown) and saves it back when it was mutated.
// The save and the Set-Cookie header must land before the handler commits
// the response; headers added after the first write are dropped.
func Middleware(store Store, ttl time.Duration, secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := &Session{}
			fresh := true
			if ck, err := c.Cookie(CookieName); err == nil && ck.Value != "" {
				if data, ok, err := store.Load(c.Request().Context(), ck.Value); err == nil && ok {
					sess.ID = ck.Value
					sess.Data = data
					fresh = false
				}
			}
			if fresh {
				sess.ID = uuid.NewString()
			}
			c.Set(ctxKey, sess)

			saved := false
			save := func() {
				if saved || !sess.dirty {
					return
				}
				saved = true
				if err := store.Save(c.Request().Context(), sess.ID, sess.Data, ttl); err != nil {
					c.Logger().Errorf("session save error: %v", err)
					return
				}
				if fresh {
					c.SetCookie(&http.Cookie{
						Name:     CookieName,
						Value:    sess.ID,
						Path:     "/",
						Expires:  time.Now().Add(ttl),
						HttpOnly: true,
						Secure:   secure,
						SameSite: http.SameSiteLaxMode,
					})
				}
			}
			c.Response().Before(save)

			err := next(c)

			// Handlers that return without writing never trigger the hook.
			if !c.Response().Committed {
				save()
			}
			return err
		}
	}
}
