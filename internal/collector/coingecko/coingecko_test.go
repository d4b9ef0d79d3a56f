package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/cryptodesk/internal/core"
)

var testIDs = map[core.Ticker]string{"AVAX": "avalanche-2"}

func TestCoinGecko_Name(t *testing.T) {
	if got := New("", nil, 0).Name(); got != "coingecko" {
		t.Errorf("Name() = %q, want coingecko", got)
	}
}

func TestCoinGecko_FetchStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/markets" {
			t.Errorf("path = %q, want /coins/markets", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("vs_currency") != "usd" || q.Get("ids") != "avalanche-2" {
			t.Errorf("query = %v, want vs_currency=usd ids=avalanche-2", q)
		}
		if got := r.Header.Get("x-cg-demo-api-key"); got != "demo" {
			t.Errorf("x-cg-demo-api-key = %q, want demo", got)
		}
		w.Write([]byte(`[{"id":"avalanche-2","symbol":"avax","current_price":27.5,"market_cap":11000000000,"market_cap_rank":12}]`))
	}))
	defer srv.Close()

	c := NewWithBaseURL("demo", srv.URL, testIDs, time.Second)
	stats, err := c.FetchStats(context.Background(), "AVAX")
	if err != nil {
		t.Fatalf("FetchStats() error = %v", err)
	}

	if stats.Symbol != "AVAX" || stats.Price != 27.5 || stats.Source != "coingecko" {
		t.Errorf("stats = %+v, want AVAX at 27.5 from coingecko", stats)
	}
	if stats.MarketCap == nil || *stats.MarketCap != 11000000000 {
		t.Errorf("MarketCap = %v, want 11000000000", stats.MarketCap)
	}
	if stats.Rank == nil || *stats.Rank != 12 {
		t.Errorf("Rank = %v, want 12", stats.Rank)
	}
}

func TestCoinGecko_UnmappedTickerUsesLowercase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ids"); got != "sui" {
			t.Errorf("ids = %q, want sui", got)
		}
		if got := r.Header.Get("x-cg-demo-api-key"); got != "" {
			t.Errorf("unexpected api key header %q", got)
		}
		w.Write([]byte(`[{"id":"sui","current_price":1.5,"market_cap":null,"market_cap_rank":null}]`))
	}))
	defer srv.Close()

	c := NewWithBaseURL("", srv.URL, nil, time.Second)
	stats, err := c.FetchStats(context.Background(), "SUI")
	if err != nil {
		t.Fatalf("FetchStats() error = %v", err)
	}
	if stats.Price != 1.5 {
		t.Errorf("Price = %v, want 1.5", stats.Price)
	}
	if stats.MarketCap != nil || stats.Rank != nil {
		t.Errorf("MarketCap, Rank = %v, %v; want nil, nil", stats.MarketCap, stats.Rank)
	}
}

func TestCoinGecko_FetchStats_Failures(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"server error", `[]`, http.StatusInternalServerError},
		{"rate limited", `{"status":{"error_code":429}}`, http.StatusTooManyRequests},
		{"empty list", `[]`, http.StatusOK},
		{"other coin", `[{"id":"bitcoin","current_price":1}]`, http.StatusOK},
		{"missing price", `[{"id":"avalanche-2","market_cap":1}]`, http.StatusOK},
		{"malformed", `[{`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewWithBaseURL("", srv.URL, testIDs, time.Second)
			stats, err := c.FetchStats(context.Background(), "AVAX")
			if stats != nil {
				t.Errorf("FetchStats() = %+v, want nil", stats)
			}
			if !errors.Is(err, core.ErrDataUnavailable) {
				t.Errorf("FetchStats() error = %v, want DATA_UNAVAILABLE", err)
			}
		})
	}
}
