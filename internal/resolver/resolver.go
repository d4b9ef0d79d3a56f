// Package resolver maps free-text questions to supported tickers.
package resolver

import (
	"strings"

	"github.com/newthinker/cryptodesk/internal/cache"
	"github.com/newthinker/cryptodesk/internal/core"
)

// Resolver finds the asset a query talks about. It is safe for concurrent
// use; the asset table is never mutated after construction.
type Resolver struct {
	assets   []Asset
	bySymbol map[core.Ticker]Asset
	needles  []needle
	cache    *cache.Cache[string, core.Ticker]
}

// needle is one searchable spelling of an asset
type needle struct {
	text  string
	order int
	asset core.Ticker
}

// New creates a resolver over the built-in asset table with a resolution
// cache of cacheSize entries.
func New(cacheSize int, opts ...cache.Option) (*Resolver, error) {
	return NewWithAssets(assets, cacheSize, opts...)
}

// NewWithAssets creates a resolver over a custom table (for testing)
func NewWithAssets(table []Asset, cacheSize int, opts ...cache.Option) (*Resolver, error) {
	c, err := cache.New[string, core.Ticker]("resolver", cacheSize, opts...)
	if err != nil {
		return nil, err
	}

	r := &Resolver{
		assets:   table,
		bySymbol: make(map[core.Ticker]Asset, len(table)),
		cache:    c,
	}
	for i, a := range table {
		r.bySymbol[a.Symbol] = a
		r.needles = append(r.needles, needle{text: strings.ToLower(a.Name), order: i, asset: a.Symbol})
		for _, alias := range a.Aliases {
			r.needles = append(r.needles, needle{text: strings.ToLower(alias), order: i, asset: a.Symbol})
		}
		r.needles = append(r.needles, needle{text: strings.ToLower(string(a.Symbol)), order: i, asset: a.Symbol})
	}
	return r, nil
}

// Resolve returns the ticker the query mentions. A query mentions an asset
// when its lowercase text contains the asset's name, an alias or its symbol.
// When several match, the longest matching text wins, then the earliest
// position in the query, then table order.
func (r *Resolver) Resolve(query string) (core.Ticker, bool) {
	if t, ok := r.cache.Get(query); ok {
		return t, t != ""
	}

	t := r.scan(strings.ToLower(query))
	r.cache.Add(query, t)
	return t, t != ""
}

func (r *Resolver) scan(q string) core.Ticker {
	var (
		best    core.Ticker
		bestLen int
		bestPos int
		bestOrd int
	)
	for _, n := range r.needles {
		if n.text == "" {
			continue
		}
		pos := strings.Index(q, n.text)
		if pos < 0 {
			continue
		}
		l := len(n.text)
		better := best == "" ||
			l > bestLen ||
			(l == bestLen && pos < bestPos) ||
			(l == bestLen && pos == bestPos && n.order < bestOrd)
		if better {
			best, bestLen, bestPos, bestOrd = n.asset, l, pos, n.order
		}
	}
	return best
}

// Lookup returns the asset for an exact symbol, case-insensitive.
func (r *Resolver) Lookup(symbol string) (Asset, bool) {
	a, ok := r.bySymbol[core.ParseTicker(symbol)]
	return a, ok
}

// IsSupported reports whether t is in the asset table
func (r *Resolver) IsSupported(t core.Ticker) bool {
	_, ok := r.bySymbol[t]
	return ok
}

// Assets returns a copy of the asset table in table order
func (r *Resolver) Assets() []Asset {
	out := make([]Asset, len(r.assets))
	copy(out, r.assets)
	return out
}
