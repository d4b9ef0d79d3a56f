package coinmarketcap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/newthinker/cryptodesk/internal/core"
	"github.com/newthinker/cryptodesk/internal/httpx"
	"github.com/newthinker/cryptodesk/internal/resolver"
)

const (
	baseURL        = "https://pro-api.coinmarketcap.com"
	defaultTimeout = 10 * time.Second
	apiKeyHeader   = "X-CMC_PRO_API_KEY"
)

var errNoAPIKey = errors.New("coinmarketcap api key not configured")

// CoinMarketCap reads USD market statistics from the CoinMarketCap Pro API
type CoinMarketCap struct {
	client  *httpx.Client
	baseURL string
	apiKey  string
}

// New creates a new CoinMarketCap client. Without an API key every call fails.
func New(apiKey string, timeout time.Duration) *CoinMarketCap {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &CoinMarketCap{
		client:  httpx.New(timeout),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// NewWithBaseURL creates a client with custom base URL (for testing)
func NewWithBaseURL(apiKey, url string, timeout time.Duration) *CoinMarketCap {
	c := New(apiKey, timeout)
	c.baseURL = url
	return c
}

func (c *CoinMarketCap) Name() string {
	return "coinmarketcap"
}

// FetchStats returns price, market cap and rank for ticker. A response that
// lacks the asset, its USD quote or the price is a failure; an explicit null
// market cap or rank yields a nil field instead.
func (c *CoinMarketCap) FetchStats(ctx context.Context, ticker core.Ticker) (*core.MarketStats, error) {
	if c.apiKey == "" {
		return nil, core.WrapError(core.ErrDataUnavailable, errNoAPIKey)
	}
	if err := resolver.ValidateSymbol(ticker.String()); err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, err)
	}

	u := fmt.Sprintf("%s/v1/cryptocurrency/quotes/latest?symbol=%s", c.baseURL, url.QueryEscape(ticker.String()))
	header := http.Header{}
	header.Set(apiKeyHeader, c.apiKey)

	var resp quotesResponse
	if err := c.client.GetJSON(ctx, u, header, &resp); err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("coinmarketcap %s: %w", ticker, err))
	}

	stats, err := resp.stats(ticker)
	if err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("coinmarketcap %s: %w", ticker, err))
	}
	stats.Source = c.Name()
	return stats, nil
}

// CoinMarketCap API response types. Fields stay raw so a missing key can be
// told apart from an explicit null.
type quotesResponse struct {
	Data map[string]asset `json:"data"`
}

type asset struct {
	CMCRank json.RawMessage                       `json:"cmc_rank"`
	Quote   map[string]map[string]json.RawMessage `json:"quote"`
}

func (r quotesResponse) stats(ticker core.Ticker) (*core.MarketStats, error) {
	a, ok := r.Data[ticker.String()]
	if !ok {
		return nil, fmt.Errorf("missing data.%s", ticker)
	}
	usd, ok := a.Quote["USD"]
	if !ok {
		return nil, fmt.Errorf("missing quote.USD")
	}

	price, err := requiredFloat(usd["price"], "price")
	if err != nil {
		return nil, err
	}
	if price == nil {
		return nil, fmt.Errorf("null price")
	}
	marketCap, err := requiredFloat(usd["market_cap"], "market_cap")
	if err != nil {
		return nil, err
	}
	rank, err := requiredInt(a.CMCRank, "cmc_rank")
	if err != nil {
		return nil, err
	}

	return &core.MarketStats{
		Symbol:    ticker,
		Price:     *price,
		MarketCap: marketCap,
		Rank:      rank,
	}, nil
}

var null = []byte("null")

// requiredFloat fails on a missing key and returns nil for an explicit null
func requiredFloat(raw json.RawMessage, field string) (*float64, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing %s", field)
	}
	if bytes.Equal(raw, null) {
		return nil, nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", field, err)
	}
	return &v, nil
}

func requiredInt(raw json.RawMessage, field string) (*int, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing %s", field)
	}
	if bytes.Equal(raw, null) {
		return nil, nil
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", field, err)
	}
	return &v, nil
}
