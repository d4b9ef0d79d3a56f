package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newthinker/cryptodesk/internal/cache"
	"github.com/newthinker/cryptodesk/internal/core"
	"go.uber.org/zap"
)

// Service is the market data facade used by the converter and the assistant.
// It caches successful fetches, logs failures and tries stats sources in
// order until one answers.
type Service struct {
	price PriceSource
	stats []StatsSource
	news  NewsSource

	prices     *cache.Cache[core.Ticker, core.PriceQuote]
	pairs      *cache.Cache[string, float64]
	statistics *cache.Cache[core.Ticker, core.MarketStats]
	headlines  *cache.Cache[core.Ticker, []core.NewsItem]

	logger   *zap.Logger
	recorder Recorder
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger used for upstream failures
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRecorder reports upstream calls and cache lookups to r
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// NewService builds the facade over the sources in reg. A price source is
// required; without stats or news sources those fetches come back absent or
// empty.
func NewService(reg *Registry, cacheSize int, opts ...Option) (*Service, error) {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	prices := reg.PriceSources()
	if len(prices) == 0 {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("no price source registered"))
	}
	s.price = prices[0]
	s.stats = reg.StatsSources()
	if news := reg.NewsSources(); len(news) > 0 {
		s.news = news[0]
	}

	var cacheOpts []cache.Option
	if s.recorder != nil {
		cacheOpts = append(cacheOpts, cache.WithRecorder(s.recorder))
	}

	var err error
	if s.prices, err = cache.New[core.Ticker, core.PriceQuote]("price", cacheSize, cacheOpts...); err != nil {
		return nil, err
	}
	if s.pairs, err = cache.New[string, float64]("pair", cacheSize, cacheOpts...); err != nil {
		return nil, err
	}
	if s.statistics, err = cache.New[core.Ticker, core.MarketStats]("stats", cacheSize, cacheOpts...); err != nil {
		return nil, err
	}
	if s.headlines, err = cache.New[core.Ticker, []core.NewsItem]("news", cacheSize, cacheOpts...); err != nil {
		return nil, err
	}
	return s, nil
}

// FetchPrice returns the USDT spot price of ticker, or a DATA_UNAVAILABLE error.
func (s *Service) FetchPrice(ctx context.Context, ticker core.Ticker) (*core.PriceQuote, error) {
	q, err := s.prices.GetOrLoad(ctx, ticker, func(ctx context.Context) (core.PriceQuote, error) {
		start := time.Now()
		q, err := s.price.FetchPrice(ctx, ticker)
		s.observe(s.price.Name(), "price", start, err)
		if err != nil {
			return core.PriceQuote{}, err
		}
		return *q, nil
	})
	if err != nil {
		s.logger.Warn("price unavailable",
			zap.String("ticker", ticker.String()),
			zap.String("provider", s.price.Name()),
			zap.Error(err),
		)
		return nil, dataUnavailable(err)
	}
	return &q, nil
}

// FetchPair returns the last price of a trading pair such as "ETHBTC".
func (s *Service) FetchPair(ctx context.Context, pair string) (float64, error) {
	price, err := s.pairs.GetOrLoad(ctx, pair, func(ctx context.Context) (float64, error) {
		start := time.Now()
		price, err := s.price.FetchPair(ctx, pair)
		s.observe(s.price.Name(), "pair", start, err)
		return price, err
	})
	if err != nil {
		s.logger.Debug("pair unavailable", zap.String("pair", pair), zap.Error(err))
		return 0, dataUnavailable(err)
	}
	return price, nil
}

// FetchStats returns market statistics from the first source that answers.
func (s *Service) FetchStats(ctx context.Context, ticker core.Ticker) (*core.MarketStats, error) {
	stats, err := s.statistics.GetOrLoad(ctx, ticker, func(ctx context.Context) (core.MarketStats, error) {
		return s.fetchStats(ctx, ticker)
	})
	if err != nil {
		s.logger.Warn("stats unavailable", zap.String("ticker", ticker.String()), zap.Error(err))
		return nil, dataUnavailable(err)
	}
	return &stats, nil
}

func (s *Service) fetchStats(ctx context.Context, ticker core.Ticker) (core.MarketStats, error) {
	if len(s.stats) == 0 {
		return core.MarketStats{}, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("no stats source registered"))
	}

	var lastErr error
	for _, src := range s.stats {
		start := time.Now()
		stats, err := src.FetchStats(ctx, ticker)
		s.observe(src.Name(), "stats", start, err)
		if err == nil {
			return *stats, nil
		}
		s.logger.Debug("stats source failed",
			zap.String("ticker", ticker.String()),
			zap.String("provider", src.Name()),
			zap.Error(err),
		)
		lastErr = err
	}
	return core.MarketStats{}, fmt.Errorf("all stats sources failed for %s: %w", ticker, lastErr)
}

// FetchNews returns recent headlines in upstream order. It never fails: any
// upstream problem yields an empty, non-nil slice.
func (s *Service) FetchNews(ctx context.Context, ticker core.Ticker) []core.NewsItem {
	if s.news == nil {
		return []core.NewsItem{}
	}

	items, err := s.headlines.GetOrLoad(ctx, ticker, func(ctx context.Context) ([]core.NewsItem, error) {
		start := time.Now()
		items, err := s.news.FetchNews(ctx, ticker)
		s.observe(s.news.Name(), "news", start, err)
		return items, err
	})
	if err != nil {
		s.logger.Warn("news unavailable",
			zap.String("ticker", ticker.String()),
			zap.String("provider", s.news.Name()),
			zap.Error(err),
		)
		return []core.NewsItem{}
	}

	out := make([]core.NewsItem, len(items))
	copy(out, items)
	return out
}

// dataUnavailable keeps coded upstream errors and classifies anything else,
// such as a caller giving up on a shared load, as DATA_UNAVAILABLE.
func dataUnavailable(err error) error {
	var coded *core.Error
	if errors.As(err, &coded) {
		return err
	}
	return core.WrapError(core.ErrDataUnavailable, err)
}

func (s *Service) observe(provider, kind string, start time.Time, err error) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordFetch(provider, kind, err == nil, time.Since(start).Seconds())
}
