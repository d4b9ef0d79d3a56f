// Package convert expresses an amount of one asset in another currency,
// routing through USDT markets when no direct pair exists.
package convert

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/newthinker/cryptodesk/internal/cache"
	"github.com/newthinker/cryptodesk/internal/core"
	"github.com/newthinker/cryptodesk/internal/resolver"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// USD is priced as USDT
const USD = "USD"

// PairQuoter quotes spot prices. collector.Service implements it.
type PairQuoter interface {
	FetchPrice(ctx context.Context, ticker core.Ticker) (*core.PriceQuote, error)
	FetchPair(ctx context.Context, pair string) (float64, error)
}

// Recorder counts conversions by route. metrics.Registry implements it.
type Recorder interface {
	RecordConversion(route string)
}

type key struct {
	source core.Ticker
	target string
	amount float64
}

// Converter prices conversions. It is safe for concurrent use.
type Converter struct {
	quotes   PairQuoter
	fiat     map[string]bool
	results  *cache.Cache[key, core.ConversionResult]
	logger   *zap.Logger
	recorder Recorder

	cacheOpts []cache.Option
}

// Option configures a Converter
type Option func(*Converter)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

func WithRecorder(r Recorder) Option {
	return func(c *Converter) {
		c.recorder = r
	}
}

// WithCacheOptions passes options to the result cache
func WithCacheOptions(opts ...cache.Option) Option {
	return func(c *Converter) {
		c.cacheOpts = append(c.cacheOpts, opts...)
	}
}

// New creates a converter. fiat lists the currencies priced through USDT.
func New(quotes PairQuoter, fiat []string, cacheSize int, opts ...Option) (*Converter, error) {
	c := &Converter{
		quotes: quotes,
		fiat:   make(map[string]bool, len(fiat)),
	}
	for _, f := range fiat {
		c.fiat[strings.ToUpper(strings.TrimSpace(f))] = true
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}

	results, err := cache.New[key, core.ConversionResult]("conversion", cacheSize, c.cacheOpts...)
	if err != nil {
		return nil, err
	}
	c.results = results
	return c, nil
}

// Convert expresses amount of source in target. Fiat currencies go through
// USDT, USD is the USDT price, and other targets are tried as a direct pair
// and then as an inverse pair. Any upstream failure makes the conversion
// unsupported.
func (c *Converter) Convert(ctx context.Context, source core.Ticker, target string, amount float64) (*core.ConversionResult, error) {
	if !(amount > 0) || math.IsInf(amount, 1) {
		return nil, core.WrapError(core.ErrInvalidAmount, fmt.Errorf("amount %v", amount))
	}
	source = core.ParseTicker(source.String())
	target = strings.ToUpper(strings.TrimSpace(target))
	if target == "" || source == "" {
		return nil, core.WrapError(core.ErrConversionUnsupported, errors.New("empty currency"))
	}

	k := key{source: source, target: target, amount: amount}
	res, err := c.results.GetOrLoad(ctx, k, func(ctx context.Context) (core.ConversionResult, error) {
		return c.convert(ctx, source, target, amount)
	})
	if err != nil {
		c.record("unsupported")
		c.logger.Debug("conversion unsupported",
			zap.String("source", source.String()),
			zap.String("target", target),
			zap.Error(err),
		)
		return nil, core.WrapError(core.ErrConversionUnsupported, err)
	}
	c.record(string(res.Route))
	return &res, nil
}

func (c *Converter) convert(ctx context.Context, source core.Ticker, target string, amount float64) (core.ConversionResult, error) {
	result := core.ConversionResult{Source: source, Target: target, Amount: amount}
	amt := decimal.NewFromFloat(amount)

	switch {
	case target == source.String():
		result.Value = amount
		result.Route = core.RouteIdentity
		return result, nil

	case c.fiat[target]:
		srcUSDT, fiatUSDT, err := c.fiatLegs(ctx, source, target)
		if err != nil {
			return result, err
		}
		result.Value = srcUSDT.Mul(amt).Div(fiatUSDT).InexactFloat64()
		result.Route = core.RouteFiatViaUSDT
		return result, nil

	case target == USD || target == core.QuoteAsset:
		q, err := c.quotes.FetchPrice(ctx, source)
		if err != nil {
			return result, err
		}
		result.Value = decimal.NewFromFloat(q.Price).Mul(amt).InexactFloat64()
		result.Route = core.RouteUSD
		return result, nil
	}

	if err := resolver.ValidateSymbol(target); err != nil {
		return result, err
	}

	if q, err := c.quotes.FetchPair(ctx, resolver.Pair(source.String(), target)); err == nil {
		result.Value = decimal.NewFromFloat(q).Mul(amt).InexactFloat64()
		result.Route = core.RouteDirect
		return result, nil
	}

	q, err := c.quotes.FetchPair(ctx, resolver.Pair(target, source.String()))
	if err != nil {
		return result, fmt.Errorf("no %s or %s market: %w", resolver.Pair(source.String(), target), resolver.Pair(target, source.String()), err)
	}
	if q <= 0 {
		return result, fmt.Errorf("non-positive price for %s", resolver.Pair(target, source.String()))
	}
	result.Value = amt.Div(decimal.NewFromFloat(q)).InexactFloat64()
	result.Route = core.RouteInverse
	return result, nil
}

// fiatLegs fetches the source price in USDT and the fiat price in USDT
// concurrently. Either leg failing fails both.
func (c *Converter) fiatLegs(ctx context.Context, source core.Ticker, fiat string) (decimal.Decimal, decimal.Decimal, error) {
	var srcUSDT, fiatUSDT decimal.Decimal

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := c.quotes.FetchPrice(ctx, source)
		if err != nil {
			return err
		}
		srcUSDT = decimal.NewFromFloat(q.Price)
		return nil
	})
	g.Go(func() error {
		p, err := c.fiatPrice(ctx, fiat)
		if err != nil {
			return err
		}
		fiatUSDT = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return srcUSDT, fiatUSDT, nil
}

// fiatPrice returns one unit of fiat in USDT, from {FIAT}USDT or the
// inverted USDT{FIAT} market.
func (c *Converter) fiatPrice(ctx context.Context, fiat string) (decimal.Decimal, error) {
	if q, err := c.quotes.FetchPair(ctx, resolver.Pair(fiat, core.QuoteAsset)); err == nil && q > 0 {
		return decimal.NewFromFloat(q), nil
	}
	q, err := c.quotes.FetchPair(ctx, resolver.Pair(core.QuoteAsset, fiat))
	if err != nil {
		return decimal.Zero, err
	}
	if q <= 0 {
		return decimal.Zero, fmt.Errorf("non-positive price for %s", resolver.Pair(core.QuoteAsset, fiat))
	}
	return decimal.NewFromInt(1).Div(decimal.NewFromFloat(q)), nil
}

func (c *Converter) record(route string) {
	if c.recorder != nil {
		c.recorder.RecordConversion(route)
	}
}
