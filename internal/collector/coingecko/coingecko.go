package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/newthinker/cryptodesk/internal/core"
	"github.com/newthinker/cryptodesk/internal/httpx"
)

const (
	baseURL        = "https://api.coingecko.com/api/v3"
	defaultTimeout = 10 * time.Second
	apiKeyHeader   = "x-cg-demo-api-key"
)

// CoinGecko serves market statistics from the /coins/markets endpoint. It is
// used as a fallback when the primary stats source is down.
type CoinGecko struct {
	client  *httpx.Client
	baseURL string
	apiKey  string
	ids     map[core.Ticker]string
}

// New creates a new CoinGecko client. ids maps tickers to CoinGecko coin IDs;
// unmapped tickers fall back to their lowercase symbol.
func New(apiKey string, ids map[core.Ticker]string, timeout time.Duration) *CoinGecko {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &CoinGecko{
		client:  httpx.New(timeout),
		baseURL: baseURL,
		apiKey:  apiKey,
		ids:     ids,
	}
}

// NewWithBaseURL creates a CoinGecko client with custom base URL (for testing)
func NewWithBaseURL(apiKey, url string, ids map[core.Ticker]string, timeout time.Duration) *CoinGecko {
	c := New(apiKey, ids, timeout)
	c.baseURL = url
	return c
}

func (c *CoinGecko) Name() string {
	return "coingecko"
}

// coinID converts a ticker to a CoinGecko coin ID
func (c *CoinGecko) coinID(ticker core.Ticker) string {
	if id, ok := c.ids[ticker]; ok && id != "" {
		return id
	}
	return strings.ToLower(ticker.String())
}

// FetchStats returns the USD price, market cap and rank of ticker.
func (c *CoinGecko) FetchStats(ctx context.Context, ticker core.Ticker) (*core.MarketStats, error) {
	id := c.coinID(ticker)
	u := fmt.Sprintf("%s/coins/markets?vs_currency=usd&ids=%s", c.baseURL, url.QueryEscape(id))

	var header http.Header
	if c.apiKey != "" {
		header = http.Header{}
		header.Set(apiKeyHeader, c.apiKey)
	}

	var markets []market
	if err := c.client.GetJSON(ctx, u, header, &markets); err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("coingecko %s: %w", id, err))
	}

	for _, m := range markets {
		if m.ID != id {
			continue
		}
		if m.CurrentPrice == nil {
			return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("coingecko %s: missing current_price", id))
		}
		return &core.MarketStats{
			Symbol:    ticker,
			Price:     *m.CurrentPrice,
			MarketCap: m.MarketCap,
			Rank:      m.MarketCapRank,
			Source:    c.Name(),
		}, nil
	}
	return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("coingecko: no data for coin %s", id))
}

// CoinGecko API response types
type market struct {
	ID            string   `json:"id"`
	Symbol        string   `json:"symbol"`
	CurrentPrice  *float64 `json:"current_price"`
	MarketCap     *float64 `json:"market_cap"`
	MarketCapRank *int     `json:"market_cap_rank"`
}
