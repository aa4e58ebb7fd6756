package session

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcheros/storefront/internal/checkout"
	"github.com/mcheros/storefront/internal/domain"
)

func TestCreateAndGet(t *testing.T) {
	sut := NewStore(time.Minute)
	defer sut.Close()

	v := sut.Create()
	require.NotEmpty(t, v.ID)
	require.NotNil(t, v.Cart)
	assert.Nil(t, v.Checkout())

	got, ok := sut.Get(v.ID)
	require.True(t, ok)
	assert.Same(t, v, got)
}

func TestGet_UnknownID(t *testing.T) {
	sut := NewStore(time.Minute)
	defer sut.Close()

	_, ok := sut.Get("nope")
	assert.False(t, ok)
}

func TestEviction_ExpiredVisitorsAreDropped(t *testing.T) {
	sut := NewStore(time.Minute)
	defer sut.Close()

	stale := sut.Create()
	fresh := sut.Create()

	sut.mu.Lock()
	sut.visitors[stale.ID].lastSeen = time.Now().Add(-2 * time.Minute)
	sut.mu.Unlock()

	sut.evictExpired()

	_, ok := sut.Get(stale.ID)
	assert.False(t, ok)
	_, ok = sut.Get(fresh.ID)
	assert.True(t, ok)
	assert.Equal(t, 1, sut.Len())
}

func TestGet_RefreshesIdleTimer(t *testing.T) {
	sut := NewStore(time.Minute)
	defer sut.Close()

	v := sut.Create()
	sut.mu.Lock()
	sut.visitors[v.ID].lastSeen = time.Now().Add(-2 * time.Minute)
	sut.mu.Unlock()

	// touching the visitor keeps it alive past the next eviction pass
	_, ok := sut.Get(v.ID)
	require.True(t, ok)

	sut.evictExpired()
	_, ok = sut.Get(v.ID)
	assert.True(t, ok)
}

func TestVisitor_CheckoutHandoff(t *testing.T) {
	sut := NewStore(time.Minute)
	defer sut.Close()

	v := sut.Create()
	v.Cart.Add(domain.Product{ID: "rank-vip", Name: "VIP Rank", Price: domain.MoneyFromFloat(9.99)})

	cs := checkout.NewSession(v.Cart.Snapshot(), nil, zerolog.Nop())
	v.SetCheckout(cs)

	got := v.Checkout()
	require.Same(t, cs, got)
	require.Len(t, got.Snapshot(), 1)

	// clearing the live cart does not reach the handed-off snapshot
	v.Cart.Clear()
	assert.Len(t, got.Snapshot(), 1)
}
