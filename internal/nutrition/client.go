package nutrition

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// RemoteIndex is a ProductIndex backed by the cloud nutrition service,
// guarded by a circuit breaker so a degraded service cannot stall scoring.
// Lookups that fail resolve to a miss; the scoring pipeline treats misses
// as "no signal" and falls back to item-cached values.
type RemoteIndex struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker

	mu    sync.RWMutex
	cache map[string]Product
}

// RemoteIndexConfig tunes the client and its breaker.
type RemoteIndexConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRequests uint32        `yaml:"max_requests"`
	Interval    time.Duration `yaml:"interval"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

// DefaultRemoteIndexConfig returns production defaults.
func DefaultRemoteIndexConfig(baseURL string) RemoteIndexConfig {
	return RemoteIndexConfig{
		BaseURL:     baseURL,
		Timeout:     3 * time.Second,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		OpenTimeout: 15 * time.Second,
	}
}

// NewRemoteIndex creates a breaker-guarded nutrition index client.
func NewRemoteIndex(cfg RemoteIndexConfig) *RemoteIndex {
	settings := gobreaker.Settings{
		Name:        "nutrition-index",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("component", "nutrition").
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}

	return &RemoteIndex{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		cache:   make(map[string]Product),
	}
}

// Product implements ProductIndex. Previously fetched products are served
// from the local cache even while the breaker is open.
func (r *RemoteIndex) Product(id string) (Product, bool) {
	r.mu.RLock()
	p, ok := r.cache[id]
	r.mu.RUnlock()
	if ok {
		return p, true
	}

	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.fetch(id)
	})
	if err != nil {
		log.Debug().
			Str("component", "nutrition").
			Str("product_id", id).
			Err(err).
			Msg("product lookup miss")
		return Product{}, false
	}

	p = out.(Product)
	r.mu.Lock()
	r.cache[id] = p
	r.mu.Unlock()
	return p, true
}

func (r *RemoteIndex) fetch(id string) (Product, error) {
	url := fmt.Sprintf("%s/v1/products/%s", r.baseURL, id)
	resp, err := r.client.Get(url)
	if err != nil {
		return Product{}, fmt.Errorf("nutrition index request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Product{}, fmt.Errorf("nutrition index status %d for %s", resp.StatusCode, id)
	}

	var p Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Product{}, fmt.Errorf("nutrition index decode: %w", err)
	}
	return p, nil
}
