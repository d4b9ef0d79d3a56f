package collector

import (
	"context"

	"github.com/newthinker/cryptodesk/internal/core"
)

// Source is any upstream market data client
type Source interface {
	Name() string
}

// PriceSource quotes spot prices in USDT and arbitrary trading pairs
type PriceSource interface {
	Source
	FetchPrice(ctx context.Context, ticker core.Ticker) (*core.PriceQuote, error)
	FetchPair(ctx context.Context, pair string) (float64, error)
}

// StatsSource returns USD market statistics
type StatsSource interface {
	Source
	FetchStats(ctx context.Context, ticker core.Ticker) (*core.MarketStats, error)
}

// NewsSource returns recent headlines for a ticker
type NewsSource interface {
	Source
	FetchNews(ctx context.Context, ticker core.Ticker) ([]core.NewsItem, error)
}

// Recorder observes upstream calls and cache lookups. metrics.Registry
// implements it.
type Recorder interface {
	RecordFetch(provider, kind string, ok bool, duration float64)
	CacheHit(cache string)
	CacheMiss(cache string)
}
