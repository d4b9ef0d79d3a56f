// internal/api/handler/api/market.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/newthinker/cryptodesk/internal/api/response"
	"github.com/newthinker/cryptodesk/internal/core"
	"github.com/newthinker/cryptodesk/internal/resolver"
)

// Resolver is the asset lookup used by the market endpoints.
type Resolver interface {
	Resolve(query string) (core.Ticker, bool)
	Lookup(symbol string) (resolver.Asset, bool)
	Assets() []resolver.Asset
}

// Market serves the individual data legs. collector.Service implements it.
type Market interface {
	FetchPrice(ctx context.Context, ticker core.Ticker) (*core.PriceQuote, error)
	FetchStats(ctx context.Context, ticker core.Ticker) (*core.MarketStats, error)
	FetchNews(ctx context.Context, ticker core.Ticker) []core.NewsItem
}

// Converter prices conversions. convert.Converter implements it.
type Converter interface {
	Convert(ctx context.Context, source core.Ticker, target string, amount float64) (*core.ConversionResult, error)
}

// MarketHandler handles the per-asset data endpoints.
type MarketHandler struct {
	resolver  Resolver
	market    Market
	converter Converter
}

// NewMarketHandler creates a new market handler.
func NewMarketHandler(r Resolver, m Market, c Converter) *MarketHandler {
	return &MarketHandler{resolver: r, market: m, converter: c}
}

// Resolve handles GET /api/v1/resolve?q=<query>
func (h *MarketHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		response.FromError(w, core.WrapError(core.ErrInvalidRequest, errors.New("q is required")))
		return
	}

	ticker, ok := h.resolver.Resolve(q)
	if !ok {
		response.FromError(w, core.WrapError(core.ErrTickerNotFound, fmt.Errorf("no supported asset in %q", q)))
		return
	}
	asset, _ := h.resolver.Lookup(ticker.String())
	response.JSON(w, http.StatusOK, map[string]any{
		"query":  q,
		"ticker": ticker,
		"name":   asset.Name,
	})
}

// Price handles GET /api/v1/price/{ticker}
func (h *MarketHandler) Price(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.asset(w, r)
	if !ok {
		return
	}
	quote, err := h.market.FetchPrice(r.Context(), asset.Symbol)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, quote)
}

// Stats handles GET /api/v1/stats/{ticker}
func (h *MarketHandler) Stats(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.asset(w, r)
	if !ok {
		return
	}
	stats, err := h.market.FetchStats(r.Context(), asset.Symbol)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, stats)
}

// News handles GET /api/v1/news/{ticker}. Upstream failures yield an empty list.
func (h *MarketHandler) News(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.asset(w, r)
	if !ok {
		return
	}
	news := h.market.FetchNews(r.Context(), asset.Symbol)
	response.JSON(w, http.StatusOK, map[string]any{
		"ticker": asset.Symbol,
		"news":   news,
	})
}

// Convert handles GET /api/v1/convert?from=<ticker>&to=<currency>&amount=<n>.
// amount defaults to 1.
func (h *MarketHandler) Convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from := q.Get("from")
	asset, ok := h.resolver.Lookup(from)
	if !ok {
		response.FromError(w, core.WrapError(core.ErrTickerNotFound, fmt.Errorf("unsupported ticker %q", from)))
		return
	}
	to := strings.TrimSpace(q.Get("to"))
	if to == "" {
		response.FromError(w, core.WrapError(core.ErrInvalidRequest, errors.New("to is required")))
		return
	}

	amount := 1.0
	if s := q.Get("amount"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			response.FromError(w, core.WrapError(core.ErrInvalidAmount, fmt.Errorf("parsing amount %q: %w", s, err)))
			return
		}
		amount = v
	}

	result, err := h.converter.Convert(r.Context(), asset.Symbol, to, amount)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// Assets handles GET /api/v1/assets
func (h *MarketHandler) Assets(w http.ResponseWriter, r *http.Request) {
	assets := h.resolver.Assets()
	response.JSON(w, http.StatusOK, map[string]any{
		"count":  len(assets),
		"assets": assets,
	})
}

// asset looks up the {ticker} path value, writing a 404 when unsupported
func (h *MarketHandler) asset(w http.ResponseWriter, r *http.Request) (resolver.Asset, bool) {
	ticker := r.PathValue("ticker")
	asset, ok := h.resolver.Lookup(ticker)
	if !ok {
		response.FromError(w, core.WrapError(core.ErrTickerNotFound, fmt.Errorf("unsupported ticker %q", ticker)))
		return resolver.Asset{}, false
	}
	return asset, true
}
