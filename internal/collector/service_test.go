package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/newthinker/cryptodesk/internal/core"
)

type fakePrice struct {
	name   string
	prices map[core.Ticker]float64
	pairs  map[string]float64
	delay  time.Duration
	calls  atomic.Int32
}

func (f *fakePrice) Name() string { return f.name }

func (f *fakePrice) FetchPrice(ctx context.Context, ticker core.Ticker) (*core.PriceQuote, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, core.WrapError(core.ErrDataUnavailable, ctx.Err())
		}
	}
	p, ok := f.prices[ticker]
	if !ok {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("no price for %s", ticker))
	}
	return &core.PriceQuote{Symbol: ticker, Price: p, Source: f.name}, nil
}

func (f *fakePrice) FetchPair(ctx context.Context, pair string) (float64, error) {
	f.calls.Add(1)
	p, ok := f.pairs[pair]
	if !ok {
		return 0, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("no pair %s", pair))
	}
	return p, nil
}

type fakeStats struct {
	name  string
	stats *core.MarketStats
	calls atomic.Int32
}

func (f *fakeStats) Name() string { return f.name }

func (f *fakeStats) FetchStats(ctx context.Context, ticker core.Ticker) (*core.MarketStats, error) {
	f.calls.Add(1)
	if f.stats == nil {
		return nil, core.WrapError(core.ErrDataUnavailable, errors.New("down"))
	}
	s := *f.stats
	s.Source = f.name
	return &s, nil
}

type fakeNews struct {
	name  string
	items []core.NewsItem
	err   error
	calls atomic.Int32
}

func (f *fakeNews) Name() string { return f.name }

func (f *fakeNews) FetchNews(ctx context.Context, ticker core.Ticker) ([]core.NewsItem, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	fetches map[string]int
	hits    int
	misses  int
}

func (r *fakeRecorder) RecordFetch(provider, kind string, ok bool, duration float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetches == nil {
		r.fetches = make(map[string]int)
	}
	r.fetches[fmt.Sprintf("%s/%s/%t", provider, kind, ok)]++
}

func (r *fakeRecorder) CacheHit(string) {
	r.mu.Lock()
	r.hits++
	r.mu.Unlock()
}

func (r *fakeRecorder) CacheMiss(string) {
	r.mu.Lock()
	r.misses++
	r.mu.Unlock()
}

func newService(t *testing.T, sources ...Source) *Service {
	t.Helper()
	reg := NewRegistry()
	for _, s := range sources {
		reg.Register(s)
	}
	svc, err := NewService(reg, 16)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func TestNewService_RequiresPriceSource(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeStats{name: "stats"})

	_, err := NewService(reg, 16)
	if !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("NewService() error = %v, want CONFIG_INVALID", err)
	}
}

func TestNewService_InvalidCacheSize(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakePrice{name: "price"})

	if _, err := NewService(reg, 0); err == nil {
		t.Error("NewService() with cache size 0 should fail")
	}
}

func TestService_FetchPrice_Cached(t *testing.T) {
	price := &fakePrice{name: "binance", prices: map[core.Ticker]float64{"BTC": 64000}}
	svc := newService(t, price)

	for i := 0; i < 3; i++ {
		q, err := svc.FetchPrice(context.Background(), "BTC")
		if err != nil {
			t.Fatalf("FetchPrice() error = %v", err)
		}
		if q.Price != 64000 || q.Symbol != "BTC" {
			t.Errorf("FetchPrice() = %+v, want BTC at 64000", q)
		}
	}
	if got := price.calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}

func TestService_FetchPrice_FailureNotCached(t *testing.T) {
	price := &fakePrice{name: "binance", prices: map[core.Ticker]float64{}}
	svc := newService(t, price)

	q, err := svc.FetchPrice(context.Background(), "BTC")
	if q != nil {
		t.Errorf("FetchPrice() = %+v, want nil", q)
	}
	if !errors.Is(err, core.ErrDataUnavailable) {
		t.Errorf("FetchPrice() error = %v, want DATA_UNAVAILABLE", err)
	}

	price.prices["BTC"] = 1
	q, err = svc.FetchPrice(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("FetchPrice() error = %v", err)
	}
	if q.Price != 1 {
		t.Errorf("Price = %v, want 1", q.Price)
	}
	if got := price.calls.Load(); got != 2 {
		t.Errorf("upstream calls = %d, want 2", got)
	}
}

func TestService_FetchPrice_ReturnsCopy(t *testing.T) {
	svc := newService(t, &fakePrice{name: "binance", prices: map[core.Ticker]float64{"ETH": 3000}})

	q, err := svc.FetchPrice(context.Background(), "ETH")
	if err != nil {
		t.Fatalf("FetchPrice() error = %v", err)
	}
	q.Price = 0

	q, err = svc.FetchPrice(context.Background(), "ETH")
	if err != nil {
		t.Fatalf("FetchPrice() error = %v", err)
	}
	if q.Price != 3000 {
		t.Errorf("Price = %v, want 3000", q.Price)
	}
}

func TestService_FetchPrice_ShortDeadlineDoesNotFailOtherCallers(t *testing.T) {
	price := &fakePrice{
		name:   "binance",
		prices: map[core.Ticker]float64{"BTC": 64000},
		delay:  200 * time.Millisecond,
	}
	svc := newService(t, price)

	hurriedErr := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := svc.FetchPrice(ctx, "BTC")
		hurriedErr <- err
	}()

	time.Sleep(5 * time.Millisecond)
	q, err := svc.FetchPrice(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("FetchPrice() without deadline error = %v", err)
	}
	if q.Price != 64000 {
		t.Errorf("Price = %v, want 64000", q.Price)
	}

	err = <-hurriedErr
	if !errors.Is(err, core.ErrDataUnavailable) {
		t.Errorf("FetchPrice() with 20ms deadline error = %v, want DATA_UNAVAILABLE", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("FetchPrice() with 20ms deadline error = %v, want deadline exceeded cause", err)
	}
	if got := price.calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1 shared load", got)
	}
}

func TestService_FetchPair(t *testing.T) {
	price := &fakePrice{name: "binance", pairs: map[string]float64{"ETHBTC": 0.052}}
	svc := newService(t, price)

	p, err := svc.FetchPair(context.Background(), "ETHBTC")
	if err != nil {
		t.Fatalf("FetchPair() error = %v", err)
	}
	if p != 0.052 {
		t.Errorf("FetchPair() = %v, want 0.052", p)
	}

	if _, err := svc.FetchPair(context.Background(), "ETHBTC"); err != nil {
		t.Fatalf("FetchPair() error = %v", err)
	}
	if got := price.calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}

	if _, err := svc.FetchPair(context.Background(), "BTCETH"); !errors.Is(err, core.ErrDataUnavailable) {
		t.Errorf("FetchPair(BTCETH) error = %v, want DATA_UNAVAILABLE", err)
	}
}

func TestService_FetchStats_Fallback(t *testing.T) {
	rank := 3
	primary := &fakeStats{name: "coinmarketcap"}
	fallback := &fakeStats{name: "coingecko", stats: &core.MarketStats{Symbol: "SOL", Price: 150, Rank: &rank}}
	svc := newService(t, &fakePrice{name: "binance"}, primary, fallback)

	stats, err := svc.FetchStats(context.Background(), "SOL")
	if err != nil {
		t.Fatalf("FetchStats() error = %v", err)
	}
	if stats.Source != "coingecko" {
		t.Errorf("Source = %q, want coingecko", stats.Source)
	}
	if stats.Price != 150 {
		t.Errorf("Price = %v, want 150", stats.Price)
	}
	if stats.MarketCap != nil {
		t.Errorf("MarketCap = %v, want nil", *stats.MarketCap)
	}
	if stats.Rank == nil || *stats.Rank != 3 {
		t.Errorf("Rank = %v, want 3", stats.Rank)
	}
	if primary.calls.Load() != 1 || fallback.calls.Load() != 1 {
		t.Errorf("calls = %d/%d, want 1/1", primary.calls.Load(), fallback.calls.Load())
	}

	if _, err := svc.FetchStats(context.Background(), "SOL"); err != nil {
		t.Fatalf("FetchStats() error = %v", err)
	}
	if got := primary.calls.Load(); got != 1 {
		t.Errorf("primary calls = %d, second call should be served from cache", got)
	}
}

func TestService_FetchStats_PrimaryWins(t *testing.T) {
	primary := &fakeStats{name: "coinmarketcap", stats: &core.MarketStats{Symbol: "BTC", Price: 1}}
	fallback := &fakeStats{name: "coingecko", stats: &core.MarketStats{Symbol: "BTC", Price: 2}}
	svc := newService(t, &fakePrice{name: "binance"}, primary, fallback)

	stats, err := svc.FetchStats(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("FetchStats() error = %v", err)
	}
	if stats.Source != "coinmarketcap" {
		t.Errorf("Source = %q, want coinmarketcap", stats.Source)
	}
	if got := fallback.calls.Load(); got != 0 {
		t.Errorf("fallback calls = %d, want 0", got)
	}
}

func TestService_FetchStats_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		sources []Source
	}{
		{"all fail", []Source{&fakePrice{name: "binance"}, &fakeStats{name: "a"}, &fakeStats{name: "b"}}},
		{"no source", []Source{&fakePrice{name: "binance"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, tt.sources...)
			stats, err := svc.FetchStats(context.Background(), "BTC")
			if stats != nil {
				t.Errorf("FetchStats() = %+v, want nil", stats)
			}
			if !errors.Is(err, core.ErrDataUnavailable) {
				t.Errorf("FetchStats() error = %v, want DATA_UNAVAILABLE", err)
			}
		})
	}
}

func TestService_FetchNews(t *testing.T) {
	news := &fakeNews{name: "cryptopanic", items: []core.NewsItem{
		{Title: "one", Source: "CryptoPanic"},
		{Title: "two", Source: "CryptoPanic"},
	}}
	svc := newService(t, &fakePrice{name: "binance"}, news)

	items := svc.FetchNews(context.Background(), "BTC")
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].Title != "one" {
		t.Errorf("items[0].Title = %q, want one", items[0].Title)
	}

	items[0].Title = "changed"
	items = svc.FetchNews(context.Background(), "BTC")
	if items[0].Title != "one" {
		t.Errorf("cached item mutated: %q", items[0].Title)
	}
	if got := news.calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}

func TestService_FetchNews_FailureIsEmpty(t *testing.T) {
	news := &fakeNews{name: "cryptopanic", err: core.WrapError(core.ErrDataUnavailable, errors.New("timeout"))}
	svc := newService(t, &fakePrice{name: "binance"}, news)

	items := svc.FetchNews(context.Background(), "BTC")
	if items == nil || len(items) != 0 {
		t.Errorf("FetchNews() = %v, want empty non-nil slice", items)
	}

	svc.FetchNews(context.Background(), "BTC")
	if got := news.calls.Load(); got != 2 {
		t.Errorf("upstream calls = %d, failures must not be cached", got)
	}
}

func TestService_FetchNews_NoSource(t *testing.T) {
	svc := newService(t, &fakePrice{name: "binance"})

	items := svc.FetchNews(context.Background(), "BTC")
	if items == nil || len(items) != 0 {
		t.Errorf("FetchNews() = %v, want empty non-nil slice", items)
	}
}

func TestService_Recorder(t *testing.T) {
	rec := &fakeRecorder{}
	reg := NewRegistry()
	reg.Register(&fakePrice{name: "binance", prices: map[core.Ticker]float64{"BTC": 1}})
	reg.Register(&fakeStats{name: "coinmarketcap"})

	svc, err := NewService(reg, 16, WithRecorder(rec))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	svc.FetchPrice(context.Background(), "BTC")
	svc.FetchPrice(context.Background(), "BTC")
	svc.FetchStats(context.Background(), "BTC")

	if got := rec.fetches["binance/price/true"]; got != 1 {
		t.Errorf("binance/price/true = %d, want 1", got)
	}
	if got := rec.fetches["coinmarketcap/stats/false"]; got != 1 {
		t.Errorf("coinmarketcap/stats/false = %d, want 1", got)
	}
	if rec.hits != 1 || rec.misses != 2 {
		t.Errorf("hits/misses = %d/%d, want 1/2", rec.hits, rec.misses)
	}
}
