package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/newthinker/cryptodesk/internal/core"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Binance {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWithBaseURL(srv.URL, time.Second)
}

func TestBinance_Name(t *testing.T) {
	b := New(0)
	if b.Name() != "binance" {
		t.Errorf("expected 'binance', got '%s'", b.Name())
	}
}

func TestBinance_FetchPrice(t *testing.T) {
	b := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "SOLUSDT" {
			t.Errorf("expected symbol SOLUSDT, got %s", got)
		}
		w.Write([]byte(`{"symbol":"SOLUSDT","price":"150.25000000"}`))
	})

	quote, err := b.FetchPrice(context.Background(), "SOL")
	if err != nil {
		t.Fatalf("FetchPrice failed: %v", err)
	}
	if quote.Price != 150.25 {
		t.Errorf("expected price 150.25, got %f", quote.Price)
	}
	if quote.Symbol != "SOL" {
		t.Errorf("expected symbol SOL, got %s", quote.Symbol)
	}
	if quote.Source != "binance" {
		t.Errorf("expected source binance, got %s", quote.Source)
	}
}

func TestBinance_FetchPair(t *testing.T) {
	b := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"ETHBTC","price":"0.05200000"}`))
	})

	price, err := b.FetchPair(context.Background(), "ETHBTC")
	if err != nil {
		t.Fatalf("FetchPair failed: %v", err)
	}
	if price != 0.052 {
		t.Errorf("expected 0.052, got %f", price)
	}
}

func TestBinance_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"unknown pair", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
		}},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"price":`))
		}},
		{"missing price", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"symbol":"SOLUSDT"}`))
		}},
		{"unparsable price", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"symbol":"SOLUSDT","price":"abc"}`))
		}},
		{"zero price", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"symbol":"SOLUSDT","price":"0.00000000"}`))
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			b := NewWithBaseURL(srv.URL, 100*time.Millisecond)

			quote, err := b.FetchPrice(context.Background(), "SOL")
			if quote != nil {
				t.Errorf("expected nil quote, got %+v", quote)
			}
			if !errors.Is(err, core.ErrDataUnavailable) {
				t.Errorf("expected ErrDataUnavailable, got %v", err)
			}
		})
	}
}

func TestBinance_RejectsInvalidPair(t *testing.T) {
	b := New(time.Second)
	_, err := b.FetchPair(context.Background(), "BTC?x=1")
	if !errors.Is(err, core.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}
}

// Integration test - opt in with CRYPTODESK_INTEGRATION=1
func TestBinance_FetchPrice_Integration(t *testing.T) {
	if testing.Short() || os.Getenv("CRYPTODESK_INTEGRATION") == "" {
		t.Skip("skipping integration test")
	}

	b := New(0)
	quote, err := b.FetchPrice(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("FetchPrice failed: %v", err)
	}
	if quote.Price <= 0 {
		t.Errorf("expected positive price, got %f", quote.Price)
	}
}
