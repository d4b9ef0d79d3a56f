package binance

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/newthinker/cryptodesk/internal/core"
	"github.com/newthinker/cryptodesk/internal/httpx"
	"github.com/newthinker/cryptodesk/internal/resolver"
	"github.com/shopspring/decimal"
)

const (
	baseURL        = "https://api.binance.com"
	defaultTimeout = 5 * time.Second
)

// Binance reads spot prices from the Binance public API
type Binance struct {
	client  *httpx.Client
	baseURL string
}

// New creates a new Binance client. A zero timeout uses 5s.
func New(timeout time.Duration) *Binance {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Binance{
		client:  httpx.New(timeout),
		baseURL: baseURL,
	}
}

// NewWithBaseURL creates a Binance client with custom base URL (for testing)
func NewWithBaseURL(url string, timeout time.Duration) *Binance {
	b := New(timeout)
	b.baseURL = url
	return b
}

func (b *Binance) Name() string {
	return "binance"
}

// FetchPrice returns the USDT price of ticker from the {TICKER}USDT market.
func (b *Binance) FetchPrice(ctx context.Context, ticker core.Ticker) (*core.PriceQuote, error) {
	price, err := b.FetchPair(ctx, resolver.Pair(ticker.String(), core.QuoteAsset))
	if err != nil {
		return nil, err
	}
	return &core.PriceQuote{
		Symbol: ticker,
		Price:  price,
		Source: b.Name(),
		Time:   time.Now(),
	}, nil
}

// FetchPair returns the last price of a trading pair such as "ETHBTC".
// A pair the exchange does not list fails like any other upstream error.
func (b *Binance) FetchPair(ctx context.Context, pair string) (float64, error) {
	if err := resolver.ValidateSymbol(pair); err != nil {
		return 0, core.WrapError(core.ErrDataUnavailable, err)
	}

	u := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", b.baseURL, url.QueryEscape(pair))

	var result tickerPrice
	if err := b.client.GetJSON(ctx, u, nil, &result); err != nil {
		return 0, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("binance %s: %w", pair, err))
	}
	if result.Price == nil {
		return 0, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("binance %s: missing price field", pair))
	}

	price, err := decimal.NewFromString(*result.Price)
	if err != nil {
		return 0, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("binance %s: parsing price %q: %w", pair, *result.Price, err))
	}
	if !price.IsPositive() {
		return 0, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("binance %s: non-positive price %s", pair, price))
	}

	f, _ := price.Float64()
	return f, nil
}

// Binance API response types
type tickerPrice struct {
	Symbol string  `json:"symbol"`
	Price  *string `json:"price"`
}
