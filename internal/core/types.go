package core

import (
	"strings"
	"time"
)

// Ticker is an uppercase exchange symbol of a supported asset, e.g. "BTC".
type Ticker string

// String returns the ticker as a plain string
func (t Ticker) String() string {
	return string(t)
}

// ParseTicker normalizes user input into ticker form. It does not check the
// ticker against the supported asset table.
func ParseTicker(s string) Ticker {
	return Ticker(strings.ToUpper(strings.TrimSpace(s)))
}

// QuoteAsset is the stablecoin every spot price is denominated in.
const QuoteAsset = "USDT"

// PriceQuote is a spot price in USDT for one ticker
type PriceQuote struct {
	Symbol Ticker    `json:"symbol"`
	Price  float64   `json:"price"`
	Source string    `json:"source"`
	Time   time.Time `json:"time"`
}

// IsValid checks if the quote has required fields
func (q PriceQuote) IsValid() bool {
	return q.Symbol != "" && q.Price > 0
}

// MarketStats holds USD-quoted market statistics. MarketCap and Rank may be
// nil even when the fetch itself succeeded.
type MarketStats struct {
	Symbol    Ticker   `json:"symbol"`
	Price     float64  `json:"price"`
	MarketCap *float64 `json:"market_cap,omitempty"`
	Rank      *int     `json:"rank,omitempty"`
	Source    string   `json:"source"`
}

// NewsItem is one headline. Provider-specific fields beyond these are dropped.
type NewsItem struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// Route names how a conversion was priced
type Route string

const (
	RouteIdentity    Route = "identity"
	RouteUSD         Route = "usd"
	RouteFiatViaUSDT Route = "fiat_via_usdt"
	RouteDirect      Route = "direct"
	RouteInverse     Route = "inverse"
)

// ConversionResult is an amount of Source expressed in Target
type ConversionResult struct {
	Source Ticker  `json:"source"`
	Target string  `json:"target"`
	Amount float64 `json:"amount"`
	Value  float64 `json:"value"`
	Route  Route   `json:"route"`
}
