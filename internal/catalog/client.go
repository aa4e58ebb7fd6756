package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/mcheros/storefront/internal/domain"
)

// State is the catalog client's lifecycle within one shop-view entry.
type State string

const (
	StateIdle    State = "IDLE"
	StateLoading State = "LOADING"
	StateReady   State = "READY"
	StateFailed  State = "FAILED"
)

func (s State) String() string {
	return string(s)
}

// Client fetches the product list from the catalog service. A fetch failure
// is never surfaced to the shopper: the client lands in StateFailed, the
// failure goes to the log, and the shop degrades to an empty list. Nothing is
// retried automatically; a fresh Load after Reset (or after a failure) is a
// new view entry and triggers a new fetch.
type Client struct {
	mu       sync.Mutex
	state    State
	products []domain.Product
	gen      uint64 // bumped by Reset; stale fetch results are dropped

	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]domain.Product]
	sfg     singleflight.Group // collapses concurrent fetches
	cache   ProductCache
	log     zerolog.Logger
}

// NewClient builds a catalog client against baseURL. cache may be nil.
func NewClient(baseURL string, timeout time.Duration, cache ProductCache, log zerolog.Logger) *Client {
	return &Client{
		state:   StateIdle,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[[]domain.Product](gobreaker.Settings{
			Name:    "catalog",
			Timeout: 30 * time.Second,
		}),
		cache: cache,
		log:   log,
	}
}

// Load runs one fetch cycle. It is a no-op while a load is in flight or once
// the catalog is Ready; from Idle or Failed it transitions to Loading and then
// to Ready or Failed.
func (c *Client) Load(ctx context.Context) {
	c.mu.Lock()
	if c.state == StateLoading || c.state == StateReady {
		c.mu.Unlock()
		return
	}
	c.state = StateLoading
	gen := c.gen
	c.mu.Unlock()

	products, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return // the view this load belonged to is gone
	}
	if err != nil {
		c.log.Warn().Err(err).Msg("catalog fetch failed, degrading to empty list")
		c.state = StateFailed
		c.products = nil
		return
	}
	c.state = StateReady
	c.products = products
}

func (c *Client) fetch(ctx context.Context) ([]domain.Product, error) {
	v, err, _ := c.sfg.Do("products", func() (interface{}, error) {
		if c.cache != nil {
			products, errGet := c.cache.Get(ctx)
			if errGet == nil {
				return products, nil
			}
			if !errors.Is(errGet, ErrCacheMiss) {
				c.log.Warn().Err(errGet).Msg("catalog cache get failed")
			}
		}

		products, errFetch := c.breaker.Execute(func() ([]domain.Product, error) {
			return c.fetchRemote(ctx)
		})
		if errFetch != nil {
			return nil, errFetch
		}

		if c.cache != nil {
			if errSet := c.cache.Set(ctx, products); errSet != nil {
				c.log.Warn().Err(errSet).Msg("catalog cache set failed")
			}
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

func (c *Client) fetchRemote(ctx context.Context) ([]domain.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/products", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var products []domain.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Products returns a copy of the product list, or nil unless Ready.
func (c *Client) Products() []domain.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady {
		return nil
	}
	products := make([]domain.Product, len(c.products))
	copy(products, c.products)
	return products
}

// Product looks up a single catalog entry by id.
func (c *Client) Product(id string) (domain.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Reset returns the client to Idle, as when the shop view is left. A fetch
// still in flight will find the generation changed and drop its result.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.state = StateIdle
	c.products = nil
}
