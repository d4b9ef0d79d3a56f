// Package app assembles the query pipeline from configuration.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/newthinker/cryptodesk/internal/assistant"
	"github.com/newthinker/cryptodesk/internal/cache"
	"github.com/newthinker/cryptodesk/internal/collector"
	"github.com/newthinker/cryptodesk/internal/composer"
	"github.com/newthinker/cryptodesk/internal/config"
	"github.com/newthinker/cryptodesk/internal/convert"
	"github.com/newthinker/cryptodesk/internal/core"
	"github.com/newthinker/cryptodesk/internal/llm/factory"
	"github.com/newthinker/cryptodesk/internal/metrics"
	"github.com/newthinker/cryptodesk/internal/resolver"
)

// App owns the long-lived components shared by the CLI and the HTTP server.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Registry

	resolver  *resolver.Resolver
	market    *collector.Service
	converter *convert.Converter
	composer  *composer.Composer
	assistant *assistant.Assistant
}

// New builds every component from cfg. reg may be nil, in which case nothing
// is recorded. An LLM provider that cannot be built is logged and answers
// fall back to the template.
func New(cfg *config.Config, logger *zap.Logger, reg *metrics.Registry) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger, metrics: reg}

	var cacheOpts []cache.Option
	if reg != nil {
		cacheOpts = append(cacheOpts, cache.WithRecorder(reg))
	}

	var err error
	if a.resolver, err = resolver.New(cfg.Cache.Size, cacheOpts...); err != nil {
		return nil, fmt.Errorf("creating resolver: %w", err)
	}

	ids := make(map[core.Ticker]string)
	for _, asset := range a.resolver.Assets() {
		if asset.CoinGeckoID != "" {
			ids[asset.Symbol] = asset.CoinGeckoID
		}
	}
	sources := collector.NewRegistryFromConfig(cfg, ids)

	serviceOpts := []collector.Option{collector.WithLogger(logger.Named("collector"))}
	if reg != nil {
		serviceOpts = append(serviceOpts, collector.WithRecorder(reg))
	}
	if a.market, err = collector.NewService(sources, cfg.Cache.Size, serviceOpts...); err != nil {
		return nil, fmt.Errorf("creating market service: %w", err)
	}

	convertOpts := []convert.Option{
		convert.WithLogger(logger.Named("convert")),
		convert.WithCacheOptions(cacheOpts...),
	}
	if reg != nil {
		convertOpts = append(convertOpts, convert.WithRecorder(reg))
	}
	if a.converter, err = convert.New(a.market, cfg.Conversion.Fiat, cfg.Cache.Size, convertOpts...); err != nil {
		return nil, fmt.Errorf("creating converter: %w", err)
	}

	provider, err := factory.New(cfg.LLM)
	if err != nil {
		logger.Warn("LLM provider unavailable, using template answers",
			zap.String("provider", cfg.LLM.Provider),
			zap.Error(err),
		)
		provider = nil
	}
	composerOpts := []composer.Option{
		composer.WithLogger(logger.Named("composer")),
		composer.WithLimits(cfg.LLM.MaxTokens, cfg.LLM.Temperature),
	}
	if reg != nil {
		composerOpts = append(composerOpts, composer.WithRecorder(reg))
	}
	a.composer = composer.New(provider, composerOpts...)

	assistantOpts := []assistant.Option{
		assistant.WithLegTimeout(cfg.Fetch.LegTimeout),
		assistant.WithLogger(logger.Named("assistant")),
	}
	if reg != nil {
		assistantOpts = append(assistantOpts, assistant.WithRecorder(reg))
	}
	a.assistant = assistant.New(a.resolver, a.market, a.converter, a.composer, assistantOpts...)

	logger.Info("cryptodesk initialized",
		zap.Strings("collectors", sources.List()),
		zap.String("llm_provider", providerName(provider != nil, cfg.LLM.Provider)),
		zap.Int("assets", len(a.resolver.Assets())),
	)
	return a, nil
}

// Ask answers one question.
func (a *App) Ask(ctx context.Context, req assistant.Request) (*assistant.Answer, error) {
	return a.assistant.Ask(ctx, req)
}

// Config returns the configuration the app was built from.
func (a *App) Config() *config.Config { return a.cfg }

// Metrics returns the metrics registry, or nil when metrics are disabled.
func (a *App) Metrics() *metrics.Registry { return a.metrics }

func (a *App) Assistant() *assistant.Assistant { return a.assistant }
func (a *App) Resolver() *resolver.Resolver    { return a.resolver }
func (a *App) Market() *collector.Service      { return a.market }
func (a *App) Converter() *convert.Converter   { return a.converter }

func providerName(ok bool, name string) string {
	if !ok {
		return composer.TemplateProvider
	}
	return name
}
