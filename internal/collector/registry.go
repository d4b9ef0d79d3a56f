package collector

import (
	"sync"

	"github.com/newthinker/cryptodesk/internal/collector/binance"
	"github.com/newthinker/cryptodesk/internal/collector/coingecko"
	"github.com/newthinker/cryptodesk/internal/collector/coinmarketcap"
	"github.com/newthinker/cryptodesk/internal/collector/cryptopanic"
	"github.com/newthinker/cryptodesk/internal/config"
	"github.com/newthinker/cryptodesk/internal/core"
)

// Registry manages upstream sources. Registration order is kept: it is the
// fallback order for sources of the same kind.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	sources map[string]Source
}

// NewRegistry creates a new source registry
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]Source),
	}
}

// NewRegistryFromConfig registers a client for every enabled collector.
// Stats sources are registered CoinMarketCap first so CoinGecko is only a
// fallback. ids maps tickers to CoinGecko coin IDs.
func NewRegistryFromConfig(cfg *config.Config, ids map[core.Ticker]string) *Registry {
	r := NewRegistry()

	if c := cfg.Collector(config.Binance); c.Enabled {
		r.Register(binance.NewWithBaseURL(c.BaseURL, c.Timeout))
	}
	if c := cfg.Collector(config.CoinMarketCap); c.Enabled {
		r.Register(coinmarketcap.NewWithBaseURL(c.APIKey, c.BaseURL, c.Timeout))
	}
	if c := cfg.Collector(config.CoinGecko); c.Enabled {
		r.Register(coingecko.NewWithBaseURL(c.APIKey, c.BaseURL, ids, c.Timeout))
	}
	if c := cfg.Collector(config.CryptoPanic); c.Enabled {
		r.Register(cryptopanic.NewWithBaseURL(c.APIKey, c.BaseURL, c.Timeout))
	}
	return r
}

// Register adds a source to the registry. Re-registering a name replaces the
// source but keeps its position.
func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[s.Name()]; !ok {
		r.order = append(r.order, s.Name())
	}
	r.sources[s.Name()] = s
}

// Get retrieves a source by name
func (r *Registry) Get(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[name]
	return s, ok
}

// GetAll returns all registered sources in registration order
func (r *Registry) GetAll() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Source, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.sources[name])
	}
	return result
}

// List returns the registered source names in registration order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// PriceSources returns the registered price sources in order
func (r *Registry) PriceSources() []PriceSource {
	return sourcesOf[PriceSource](r)
}

// StatsSources returns the registered stats sources in fallback order
func (r *Registry) StatsSources() []StatsSource {
	return sourcesOf[StatsSource](r)
}

// NewsSources returns the registered news sources in order
func (r *Registry) NewsSources() []NewsSource {
	return sourcesOf[NewsSource](r)
}

func sourcesOf[T Source](r *Registry) []T {
	var out []T
	for _, s := range r.GetAll() {
		if t, ok := s.(T); ok {
			out = append(out, t)
		}
	}
	return out
}
