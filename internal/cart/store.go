package cart

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jumla-app/trader-gateway/internal/pricing"
)

// ErrInvalidInput is returned when a mutation is called with a malformed payload.
var ErrInvalidInput = errors.New("cart: invalid input")

// Product is the immutable catalog payload carried by a line item. The cart
// only interprets ID and UnitPrice; everything else is display data captured
// at insertion time.
type Product struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	UnitPrice pricing.Money `json:"unit_price"`
	Thumbnail string        `json:"thumbnail,omitempty"`
}

// LineItem pairs a product with its ordered quantity. Quantity is always >= 1.
type LineItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// StoreCart holds one wholesale store's slice of the cart. Items are ordered
// by insertion and unique by product ID.
type StoreCart struct {
	StoreID   string     `json:"store_id"`
	StoreName string     `json:"store_name"`
	Items     []LineItem `json:"items"`
	Deferred  bool       `json:"deferred"`
}

// Subtotal sums unit price times quantity over the store's line items.
func (sc *StoreCart) Subtotal() pricing.Money {
	if sc == nil {
		return 0
	}
	items := make([]pricing.Item, 0, len(sc.Items))
	for _, it := range sc.Items {
		items = append(items, pricing.Item{Qty: it.Quantity, UnitPrice: it.Product.UnitPrice})
	}
	return pricing.Subtotal(items)
}

// MeetsMinimum reports whether the store subtotal satisfies the per-store
// minimum order total.
func (sc *StoreCart) MeetsMinimum(threshold pricing.Money) bool {
	return sc.Subtotal() >= threshold
}

// Cart maps wholesale store IDs to their store carts. A store key exists iff
// the store holds at least one line item; iteration order carries no meaning.
type Cart map[string]*StoreCart

// GrandTotal sums subtotals across all stores.
func (c Cart) GrandTotal() pricing.Money {
	var total pricing.Money
	for _, sc := range c {
		total += sc.Subtotal()
	}
	return total
}

// AllMeetMinimum reports whether every store individually satisfies the
// minimum order total. An empty cart never satisfies checkout preconditions.
func (c Cart) AllMeetMinimum(threshold pricing.Money) bool {
	if len(c) == 0 {
		return false
	}
	for _, sc := range c {
		if !sc.MeetsMinimum(threshold) {
			return false
		}
	}
	return true
}

func (c Cart) clone() Cart {
	out := make(Cart, len(c))
	for id, sc := range c {
		copied := *sc
		copied.Items = append([]LineItem(nil), sc.Items...)
		out[id] = &copied
	}
	return out
}

// Store owns the session-keyed cart state. All mutations are serialized by a
// mutex so rapid-fire edits from one session are applied in dispatch order and
// readers never observe a half-applied cart. Carts live in memory only; they
// are discarded on process teardown by design, since checkout snapshots are
// submitted immediately.
type Store struct {
	mu     sync.Mutex
	carts  map[string]Cart
	logger zerolog.Logger
}

// NewStore constructs an empty cart store.
func NewStore(logger zerolog.Logger) *Store {
	return &Store{
		carts:  make(map[string]Cart),
		logger: logger,
	}
}

// Add creates the store entry on demand and either increments the existing
// line for the product by one or appends a new line with quantity 1. Each call
// adds exactly one unit; a product never appears twice within one store.
// Malformed input is rejected with ErrInvalidInput and the cart left unchanged.
func (s *Store) Add(sessionID, storeID, storeName string, product Product) error {
	if s == nil {
		return errors.New("cart: store not configured")
	}
	if sessionID == "" || storeID == "" || storeName == "" || product.ID == "" || product.UnitPrice < 0 {
		s.logger.Warn().
			Str("session_id", sessionID).
			Str("store_id", storeID).
			Str("product_id", product.ID).
			Msg("rejected malformed add to cart")
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.carts[sessionID]
	if cart == nil {
		cart = make(Cart)
		s.carts[sessionID] = cart
	}
	sc := cart[storeID]
	if sc == nil {
		sc = &StoreCart{StoreID: storeID, StoreName: storeName}
		cart[storeID] = sc
	}
	for i := range sc.Items {
		if sc.Items[i].Product.ID == product.ID {
			sc.Items[i].Quantity++
			return nil
		}
	}
	sc.Items = append(sc.Items, LineItem{Product: product, Quantity: 1})
	return nil
}

// Remove deletes the line item for productID from the store. When the last
// line of a store is removed the store entry disappears entirely. Unknown
// session, store or product IDs are a no-op, not an error.
func (s *Store) Remove(sessionID, storeID, productID string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.carts[sessionID]
	if cart == nil {
		return
	}
	sc := cart[storeID]
	if sc == nil {
		return
	}
	kept := sc.Items[:0]
	for _, it := range sc.Items {
		if it.Product.ID != productID {
			kept = append(kept, it)
		}
	}
	sc.Items = kept
	if len(sc.Items) == 0 {
		delete(cart, storeID)
	}
	if len(cart) == 0 {
		delete(s.carts, sessionID)
	}
}

// SetQuantity sets the quantity of an existing line item. Quantities below 1
// are rejected with ErrInvalidInput; the floor is enforced here rather than
// trusted to callers. Unknown store or product IDs are a no-op.
func (s *Store) SetQuantity(sessionID, storeID, productID string, quantity int) error {
	if s == nil {
		return errors.New("cart: store not configured")
	}
	if quantity < 1 {
		s.logger.Warn().
			Str("session_id", sessionID).
			Str("product_id", productID).
			Int("quantity", quantity).
			Msg("rejected quantity below floor")
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.carts[sessionID]
	if cart == nil {
		return nil
	}
	sc := cart[storeID]
	if sc == nil {
		return nil
	}
	for i := range sc.Items {
		if sc.Items[i].Product.ID == productID {
			sc.Items[i].Quantity = quantity
			return nil
		}
	}
	return nil
}

// SetDeferred toggles the store's payment-on-credit election. The flag is
// independent of product mutations and survives them. No-op for unknown IDs.
func (s *Store) SetDeferred(sessionID, storeID string, deferred bool) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.carts[sessionID]
	if cart == nil {
		return
	}
	if sc := cart[storeID]; sc != nil {
		sc.Deferred = deferred
	}
}

// Clear resets the session's cart to empty. Unconditional and idempotent.
func (s *Store) Clear(sessionID string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
}

// ClearLines subtracts the quantities recorded in snapshot from the current
// cart. Lines added or incremented after the snapshot was taken survive;
// stores emptied by the subtraction disappear. Used after a successful
// checkout so edits made while the submission was in flight are preserved.
func (s *Store) ClearLines(sessionID string, snapshot Cart) {
	if s == nil || len(snapshot) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.carts[sessionID]
	if cart == nil {
		return
	}
	for storeID, snap := range snapshot {
		sc := cart[storeID]
		if sc == nil {
			continue
		}
		submitted := make(map[string]int, len(snap.Items))
		for _, it := range snap.Items {
			submitted[it.Product.ID] = it.Quantity
		}
		kept := sc.Items[:0]
		for _, it := range sc.Items {
			it.Quantity -= submitted[it.Product.ID]
			if it.Quantity > 0 {
				kept = append(kept, it)
			}
		}
		sc.Items = kept
		if len(sc.Items) == 0 {
			delete(cart, storeID)
		}
	}
	if len(cart) == 0 {
		delete(s.carts, sessionID)
	}
}

// Snapshot returns a deep copy of the session's cart for read paths and
// checkout serialization. The copy is detached: later mutations of the live
// cart never show through.
func (s *Store) Snapshot(sessionID string) Cart {
	if s == nil {
		return Cart{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.carts[sessionID]
	if cart == nil {
		return Cart{}
	}
	return cart.clone()
}
