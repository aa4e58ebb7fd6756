package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productsJSON = `[
	{"id": "rank-vip", "name": "VIP Rank", "description": "Shiny", "price": 9.99},
	{"id": "kit-starter", "name": "Starter Kit", "description": "Basics", "price": 3.50}
]`

func newClient(baseURL string) *Client {
	return NewClient(baseURL, 2*time.Second, nil, zerolog.Nop())
}

func TestLoad_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(productsJSON))
	}))
	defer server.Close()

	sut := newClient(server.URL)
	assert.Equal(t, StateIdle, sut.State())

	sut.Load(context.Background())

	require.Equal(t, StateReady, sut.State())
	products := sut.Products()
	require.Len(t, products, 2)
	assert.Equal(t, "rank-vip", products[0].ID)
	assert.Equal(t, "9.99", products[0].Price.String())

	p, ok := sut.Product("kit-starter")
	require.True(t, ok)
	assert.Equal(t, "Starter Kit", p.Name)
}

func TestLoad_ServerErrorDegradesToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	sut := newClient(server.URL)
	sut.Load(context.Background())

	assert.Equal(t, StateFailed, sut.State())
	assert.Nil(t, sut.Products())
}

func TestLoad_DecodeErrorDegradesToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a list"}`))
	}))
	defer server.Close()

	sut := newClient(server.URL)
	sut.Load(context.Background())

	assert.Equal(t, StateFailed, sut.State())
	assert.Nil(t, sut.Products())
}

func TestLoad_TransportFailureDegradesToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing is listening anymore

	sut := newClient(server.URL)
	sut.Load(context.Background())

	assert.Equal(t, StateFailed, sut.State())
}

func TestLoad_RetriesAfterFailure(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(productsJSON))
	}))
	defer server.Close()

	sut := newClient(server.URL)

	sut.Load(context.Background())
	require.Equal(t, StateFailed, sut.State())

	// a second load is a new view entry
	sut.Load(context.Background())
	assert.Equal(t, StateReady, sut.State())
	assert.Len(t, sut.Products(), 2)
}

func TestLoad_NoRefetchWhenReady(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(productsJSON))
	}))
	defer server.Close()

	sut := newClient(server.URL)
	sut.Load(context.Background())
	sut.Load(context.Background())

	assert.Equal(t, int64(1), calls.Load())
}

func TestReset_DropsStateAndStaleResults(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(productsJSON))
	}))
	defer server.Close()

	sut := newClient(server.URL)

	done := make(chan struct{})
	go func() {
		sut.Load(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool {
		return sut.State() == StateLoading
	}, time.Second, 5*time.Millisecond)

	// the view is dismissed while the fetch is still in flight
	sut.Reset()
	close(release)
	<-done

	// the stale result must not have been applied
	assert.Equal(t, StateIdle, sut.State())
	assert.Nil(t, sut.Products())
}
