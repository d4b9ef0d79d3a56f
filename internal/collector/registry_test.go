package collector

import (
	"testing"

	"github.com/newthinker/cryptodesk/internal/config"
	"github.com/newthinker/cryptodesk/internal/core"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	r.Register(&fakePrice{name: "mock"})

	s, ok := r.Get("mock")
	if !ok {
		t.Fatal("expected to find registered source")
	}
	if s.Name() != "mock" {
		t.Errorf("expected name 'mock', got '%s'", s.Name())
	}
}

func TestRegistry_GetAll_KeepsOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeStats{name: "b"})
	r.Register(&fakeStats{name: "a"})
	r.Register(&fakeStats{name: "b"})

	all := r.GetAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(all))
	}
	if all[0].Name() != "b" || all[1].Name() != "a" {
		t.Errorf("expected registration order [b a], got [%s %s]", all[0].Name(), all[1].Name())
	}
	if names := r.List(); len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("expected List [b a], got %v", names)
	}
}

func TestRegistry_GetNotFound(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Get("nonexistent"); ok {
		t.Error("expected not to find nonexistent source")
	}
}

func TestRegistry_SourcesByKind(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakePrice{name: "price"})
	r.Register(&fakeStats{name: "stats1"})
	r.Register(&fakeNews{name: "news"})
	r.Register(&fakeStats{name: "stats2"})

	if got := len(r.PriceSources()); got != 1 {
		t.Errorf("expected 1 price source, got %d", got)
	}
	stats := r.StatsSources()
	if len(stats) != 2 || stats[0].Name() != "stats1" || stats[1].Name() != "stats2" {
		t.Errorf("unexpected stats sources: %v", stats)
	}
	if got := len(r.NewsSources()); got != 1 {
		t.Errorf("expected 1 news source, got %d", got)
	}
}

func TestNewRegistryFromConfig(t *testing.T) {
	cfg := config.Defaults()
	gecko := cfg.Collectors[config.CoinGecko]
	gecko.Enabled = true
	cfg.Collectors[config.CoinGecko] = gecko

	r := NewRegistryFromConfig(cfg, map[core.Ticker]string{"BTC": "bitcoin"})

	var names []string
	for _, s := range r.GetAll() {
		names = append(names, s.Name())
	}
	want := []string{"binance", "coinmarketcap", "coingecko", "cryptopanic"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], names[i])
		}
	}

	stats := r.StatsSources()
	if len(stats) != 2 || stats[0].Name() != "coinmarketcap" {
		t.Errorf("expected coinmarketcap first in stats chain, got %v", stats)
	}
}

func TestNewRegistryFromConfig_SkipsDisabled(t *testing.T) {
	cfg := config.Defaults()
	news := cfg.Collectors[config.CryptoPanic]
	news.Enabled = false
	cfg.Collectors[config.CryptoPanic] = news

	r := NewRegistryFromConfig(cfg, nil)

	if _, ok := r.Get("cryptopanic"); ok {
		t.Error("disabled collector should not be registered")
	}
	if _, ok := r.Get("coingecko"); ok {
		t.Error("coingecko is disabled by default")
	}
}
