package cart

import (
	"sync"

	"github.com/mcheros/storefront/internal/domain"
)

// Line is one product's accumulated selection. Price and name are frozen at
// the moment the product is first added; later catalog changes do not reach
// into an existing line.
type Line struct {
	ProductID string       `json:"product_id"`
	Name      string       `json:"name"`
	Price     domain.Money `json:"price"`
	Quantity  int          `json:"quantity"`
}

func (l Line) Total() domain.Money {
	return l.Price.MulInt(l.Quantity)
}

// Snapshot is an immutable copy of the cart's ordered lines, taken at a
// specific moment. Mutating the live store after the snapshot was taken does
// not alter it.
type Snapshot []Line

func (s Snapshot) Empty() bool {
	return len(s) == 0
}

func (s Snapshot) Subtotal() domain.Money {
	total := domain.ZeroMoney()
	for _, line := range s {
		total = total.Add(line.Total())
	}
	return total
}

// Store holds the in-progress cart for one visitor. Lines keep insertion
// order, with at most one line per product id.
type Store struct {
	mu    sync.Mutex
	lines []Line
}

func NewStore() *Store {
	return &Store{}
}

// Add merges the product into the cart: an existing line gets its quantity
// bumped by one (price and name untouched), otherwise a new line is appended
// with quantity 1 and the product's current price captured.
func (s *Store) Add(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ProductID == p.ID {
			s.lines[i].Quantity++
			return
		}
	}
	s.lines = append(s.lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  1,
	})
}

// Remove deletes the line for productID. Removing an absent product is a
// no-op, not an error.
func (s *Store) Remove(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, line := range s.lines {
		if line.ProductID == productID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return
		}
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Snapshot returns a copy of the current ordered line sequence.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(Snapshot, len(s.lines))
	copy(snapshot, s.lines)
	return snapshot
}

// Subtotal is derived, never stored: the sum of price times quantity across
// all lines. An empty cart yields zero.
func (s *Store) Subtotal() domain.Money {
	return s.Snapshot().Subtotal()
}
