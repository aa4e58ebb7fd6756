package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcheros/storefront/internal/cart"
	"github.com/mcheros/storefront/internal/checkout"
)

const (
	// DefaultTTL is how long an idle visitor is kept before eviction.
	DefaultTTL = 30 * time.Minute

	// CleanupInterval is how often the background eviction runs
	CleanupInterval = time.Minute
)

// Visitor is one browsing session: its live cart plus, once checkout has been
// entered, the checkout session carrying the handed-off snapshot.
type Visitor struct {
	ID   string
	Cart *cart.Store

	mu       sync.Mutex
	checkout *checkout.Session

	lastSeen time.Time // guarded by the owning Store's mutex
}

func (v *Visitor) Checkout() *checkout.Session {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.checkout
}

// SetCheckout installs the checkout session created at the handoff,
// replacing any earlier one.
func (v *Visitor) SetCheckout(cs *checkout.Session) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.checkout = cs
}

// Store keeps visitor sessions in memory. Carts do not survive eviction;
// persistence across sessions is deliberately out of scope.
type Store struct {
	mu       sync.RWMutex
	visitors map[string]*Visitor
	ttl      time.Duration

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

// NewStore creates a visitor store and starts the background eviction loop.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		visitors:    make(map[string]*Visitor),
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *Store) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *Store) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-s.ttl)
	for id, v := range s.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(s.visitors, id)
		}
	}
}

// Create registers a new visitor with a fresh cart.
func (s *Store) Create() *Visitor {
	v := &Visitor{
		ID:       uuid.NewString(),
		Cart:     cart.NewStore(),
		lastSeen: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.visitors[v.ID] = v
	return v
}

// Get looks up a visitor and refreshes its idle timer.
func (s *Store) Get(id string) (*Visitor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.visitors[id]
	if !ok {
		return nil, false
	}
	v.lastSeen = time.Now()
	return v, true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.visitors)
}

// Close stops the eviction loop.
func (s *Store) Close() {
	close(s.stopCleanup)
	s.wg.Wait()
}
