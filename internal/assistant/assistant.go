// Package assistant answers free-text questions about supported assets:
// resolve the ticker, fetch market data in parallel, optionally convert,
// then compose a reply.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/newthinker/cryptodesk/internal/composer"
	"github.com/newthinker/cryptodesk/internal/convert"
	"github.com/newthinker/cryptodesk/internal/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultLegTimeout = 10 * time.Second

// Resolver maps a question to a ticker
type Resolver interface {
	Resolve(query string) (core.Ticker, bool)
}

// Market fetches the three independent data legs. collector.Service
// implements it.
type Market interface {
	FetchPrice(ctx context.Context, ticker core.Ticker) (*core.PriceQuote, error)
	FetchStats(ctx context.Context, ticker core.Ticker) (*core.MarketStats, error)
	FetchNews(ctx context.Context, ticker core.Ticker) []core.NewsItem
}

// Converter prices a conversion
type Converter interface {
	Convert(ctx context.Context, source core.Ticker, target string, amount float64) (*core.ConversionResult, error)
}

// Composer phrases the answer
type Composer interface {
	Compose(ctx context.Context, in composer.Input) composer.Response
}

// Recorder counts answered queries. metrics.Registry implements it.
type Recorder interface {
	RecordAsk(status string, duration float64)
}

// Request is one question. Amount defaults to 1 when ConvertTo is set.
type Request struct {
	Query     string  `json:"query"`
	ConvertTo string  `json:"convert_to,omitempty"`
	Amount    float64 `json:"amount,omitempty"`
}

// Answer is everything gathered for a question plus the composed reply
type Answer struct {
	Query           string                 `json:"query"`
	Ticker          core.Ticker            `json:"ticker"`
	Price           *core.PriceQuote       `json:"price"`
	Stats           *core.MarketStats      `json:"stats"`
	News            []core.NewsItem        `json:"news"`
	Conversion      *core.ConversionResult `json:"conversion,omitempty"`
	ConversionError string                 `json:"conversion_error,omitempty"`
	Response        string                 `json:"response"`
	Generated       bool                   `json:"generated"`
}

// Assistant runs the query pipeline. It is safe for concurrent use.
type Assistant struct {
	resolver   Resolver
	market     Market
	converter  Converter
	composer   Composer
	legTimeout time.Duration
	logger     *zap.Logger
	recorder   Recorder
}

// Option configures an Assistant
type Option func(*Assistant)

// WithLegTimeout bounds each fetch leg. The caller's deadline still applies
// when it is shorter.
func WithLegTimeout(d time.Duration) Option {
	return func(a *Assistant) {
		if d > 0 {
			a.legTimeout = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Assistant) {
		a.logger = logger
	}
}

func WithRecorder(r Recorder) Option {
	return func(a *Assistant) {
		a.recorder = r
	}
}

// New wires the pipeline stages together.
func New(resolver Resolver, market Market, converter Converter, composer Composer, opts ...Option) *Assistant {
	a := &Assistant{
		resolver:   resolver,
		market:     market,
		converter:  converter,
		composer:   composer,
		legTimeout: defaultLegTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a
}

// Ask answers req. It fails with TICKER_NOT_FOUND before any fetch when the
// question names no supported asset, and with DATA_UNAVAILABLE when the price
// or the statistics cannot be fetched. Missing news and failed conversions
// do not fail the query.
func (a *Assistant) Ask(ctx context.Context, req Request) (*Answer, error) {
	start := time.Now()
	answer, err := a.ask(ctx, req)
	a.record(err, time.Since(start))
	if err != nil {
		a.logger.Info("query failed", zap.String("query", req.Query), zap.Error(err))
		return nil, err
	}
	a.logger.Info("query answered",
		zap.String("ticker", answer.Ticker.String()),
		zap.Bool("generated", answer.Generated),
		zap.Duration("duration", time.Since(start)),
	)
	return answer, nil
}

func (a *Assistant) ask(ctx context.Context, req Request) (*Answer, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, core.WrapError(core.ErrInvalidRequest, errors.New("query is empty"))
	}
	target := strings.ToUpper(strings.TrimSpace(req.ConvertTo))
	amount := req.Amount
	if target != "" && amount == 0 {
		amount = 1
	}
	if target != "" && (!(amount > 0) || math.IsInf(amount, 1)) {
		return nil, core.WrapError(core.ErrInvalidAmount, fmt.Errorf("amount %v", req.Amount))
	}

	ticker, ok := a.resolver.Resolve(query)
	if !ok {
		return nil, core.WrapError(core.ErrTickerNotFound, fmt.Errorf("no supported asset in %q", query))
	}

	var (
		price    *core.PriceQuote
		stats    *core.MarketStats
		news     []core.NewsItem
		priceErr error
		statsErr error
	)

	// Legs never return errors into the group so one failure cannot cancel
	// the others.
	var g errgroup.Group
	g.Go(func() error {
		legCtx, cancel := context.WithTimeout(ctx, a.legTimeout)
		defer cancel()
		price, priceErr = a.market.FetchPrice(legCtx, ticker)
		return nil
	})
	g.Go(func() error {
		legCtx, cancel := context.WithTimeout(ctx, a.legTimeout)
		defer cancel()
		stats, statsErr = a.market.FetchStats(legCtx, ticker)
		return nil
	})
	g.Go(func() error {
		legCtx, cancel := context.WithTimeout(ctx, a.legTimeout)
		defer cancel()
		news = a.market.FetchNews(legCtx, ticker)
		return nil
	})
	_ = g.Wait()

	if price == nil {
		return nil, unavailable("price", ticker, priceErr)
	}
	if stats == nil {
		return nil, unavailable("statistics", ticker, statsErr)
	}
	if news == nil {
		news = []core.NewsItem{}
	}

	answer := &Answer{
		Query:  query,
		Ticker: ticker,
		Price:  price,
		Stats:  stats,
		News:   news,
	}

	if target != "" && target != convert.USD {
		conv, err := a.converter.Convert(ctx, ticker, target, amount)
		if err != nil {
			answer.ConversionError = fmt.Sprintf("conversion %s → %s is not supported", ticker, target)
		} else {
			answer.Conversion = conv
		}
	}

	resp := a.composer.Compose(ctx, composer.Input{
		Query:      query,
		Price:      price,
		Stats:      stats,
		News:       news,
		Conversion: answer.Conversion,
	})
	answer.Response = resp.Text
	answer.Generated = resp.Generated
	return answer, nil
}

func unavailable(what string, ticker core.Ticker, cause error) error {
	if cause == nil {
		cause = errors.New("no data")
	}
	return core.WrapError(core.ErrDataUnavailable, fmt.Errorf("%s for %s: %w", what, ticker, cause))
}

func (a *Assistant) record(err error, d time.Duration) {
	if a.recorder == nil {
		return
	}
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, core.ErrTickerNotFound):
		status = "not_found"
	case errors.Is(err, core.ErrDataUnavailable):
		status = "unavailable"
	default:
		status = "invalid"
	}
	a.recorder.RecordAsk(status, d.Seconds())
}
