// Package cart keeps the shopper's pending selection and persists it after
// every change. It never talks to the backend.
package cart

import (
	"go.uber.org/zap"

	"github.com/atinyakov/storefront/internal/client/state"
	"github.com/atinyakov/storefront/internal/client/storage"
	"github.com/atinyakov/storefront/internal/models"
)

// StorageKey holds the serialized line items. Renaming it empties every
// restored cart.
const StorageKey = "cart_v1"

// Item is one line of the cart. Product is a full copy taken when the item
// was added.
type Item struct {
	Product  models.Product `json:"product"`
	Quantity int            `json:"qty"`
}

// Store is the cart.
type Store struct {
	store *storage.Adapter
	items *state.Observable[[]Item]
	log   *zap.Logger
}

// New restores the cart from store. A missing or unreadable value yields an
// empty cart.
func New(store *storage.Adapter, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}

	var items []Item
	if !store.ReadJSON(StorageKey, &items) {
		items = nil
	}
	items = sanitize(items)
	log.Debug("cart restored", zap.Int("lines", len(items)))

	return &Store{store: store, items: state.New(items), log: log}
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []Item {
	return clone(s.items.Get())
}

// Subscribe registers fn for every later change.
func (s *Store) Subscribe(fn func([]Item)) (unsubscribe func()) {
	return s.items.Subscribe(func(items []Item) { fn(clone(items)) })
}

// Add puts quantity units of product in the cart. An existing line for the
// same product is incremented. A quantity below 1 adds one unit.
func (s *Store) Add(product models.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	s.mutate(func(items []Item) []Item {
		for i := range items {
			if items[i].Product.ID == product.ID {
				items[i].Quantity += quantity
				return items
			}
		}
		return append(items, Item{Product: product, Quantity: quantity})
	})
}

// Remove deletes the line for productID, if any.
func (s *Store) Remove(productID string) {
	s.mutate(func(items []Item) []Item {
		out := items[:0]
		for _, it := range items {
			if it.Product.ID != productID {
				out = append(out, it)
			}
		}
		return out
	})
}

// UpdateQty sets the quantity of the line for productID in place.
// A quantity of 0 or less removes the line.
func (s *Store) UpdateQty(productID string, quantity int) {
	if quantity <= 0 {
		s.Remove(productID)
		return
	}
	s.mutate(func(items []Item) []Item {
		for i := range items {
			if items[i].Product.ID == productID {
				items[i].Quantity = quantity
			}
		}
		return items
	})
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mutate(func([]Item) []Item { return nil })
}

// TotalItems is the sum of all quantities.
func (s *Store) TotalItems() int {
	total := 0
	for _, it := range s.items.Get() {
		total += it.Quantity
	}
	return total
}

// TotalPrice is the sum of quantity times price. A missing price counts
// as 0.
func (s *Store) TotalPrice() float64 {
	total := 0.0
	for _, it := range s.items.Get() {
		total += float64(it.Quantity) * it.Product.Price
	}
	return total
}

// Snapshot returns the cart as order lines.
func (s *Store) Snapshot() []models.OrderItem {
	items := s.items.Get()
	out := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, models.OrderItem{ProductID: it.Product.ID, Quantity: it.Quantity})
	}
	return out
}

// mutate applies fn to a private copy of the items, publishes the result
// and writes it to storage.
func (s *Store) mutate(fn func([]Item) []Item) {
	var next []Item
	s.items.Update(func(cur []Item) []Item {
		next = fn(clone(cur))
		if len(next) == 0 {
			next = nil
		}
		return next
	})
	if next == nil {
		s.store.WriteJSON(StorageKey, []Item{})
		return
	}
	s.store.WriteJSON(StorageKey, next)
}

// sanitize drops restored lines that break the cart's invariants: a
// non-positive quantity or a product already seen.
func sanitize(items []Item) []Item {
	seen := make(map[string]int, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			continue
		}
		if i, ok := seen[it.Product.ID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		seen[it.Product.ID] = len(out)
		out = append(out, it)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func clone(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it
		out[i].Product.ImageURLs = append([]string(nil), it.Product.ImageURLs...)
	}
	return out
}
