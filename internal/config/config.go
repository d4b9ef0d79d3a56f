package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/cryptodesk/internal/core"
	"github.com/spf13/viper"
)

// Collector names
const (
	Binance       = "binance"
	CoinMarketCap = "coinmarketcap"
	CoinGecko     = "coingecko"
	CryptoPanic   = "cryptopanic"
)

// Environment variables holding upstream credentials
const (
	EnvCoinMarketCapKey = "COINMARKETCAP_API_KEY"
	EnvCryptoPanicKey   = "CRYPTO_PANIC_API_KEY"
	EnvCoinGeckoKey     = "COINGECKO_API_KEY"
	EnvOpenAIKey        = "OPENAI_API_KEY"
	EnvAnthropicKey     = "ANTHROPIC_API_KEY"
)

type Config struct {
	Server     ServerConfig               `mapstructure:"server"`
	Log        LogConfig                  `mapstructure:"log"`
	Cache      CacheConfig                `mapstructure:"cache"`
	Fetch      FetchConfig                `mapstructure:"fetch"`
	Collectors map[string]CollectorConfig `mapstructure:"collectors"`
	Conversion ConversionConfig           `mapstructure:"conversion"`
	LLM        LLMConfig                  `mapstructure:"llm"`
	Metrics    MetricsConfig              `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type LogConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// CacheConfig sizes the shared LRU caches. There is no expiry.
type CacheConfig struct {
	Size int `mapstructure:"size"`
}

// FetchConfig bounds each leg of the parallel price/stats/news fetch.
type FetchConfig struct {
	LegTimeout time.Duration `mapstructure:"leg_timeout"`
}

type CollectorConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ConversionConfig lists fiat currencies priced through USDT.
type ConversionConfig struct {
	Fiat []string `mapstructure:"fiat"`
}

type LLMConfig struct {
	Provider    string       `mapstructure:"provider"`
	MaxTokens   int          `mapstructure:"max_tokens"`
	Temperature float64      `mapstructure:"temperature"`
	Claude      ClaudeConfig `mapstructure:"claude"`
	OpenAI      OpenAIConfig `mapstructure:"openai"`
	Ollama      OllamaConfig `mapstructure:"ollama"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OllamaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers Defaults() with viper so keys the file omits keep
// their default values.
func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("cache.size", d.Cache.Size)
	v.SetDefault("fetch.leg_timeout", d.Fetch.LegTimeout)
	for name, c := range d.Collectors {
		prefix := "collectors." + name + "."
		v.SetDefault(prefix+"enabled", c.Enabled)
		v.SetDefault(prefix+"base_url", c.BaseURL)
		v.SetDefault(prefix+"timeout", c.Timeout)
	}
	v.SetDefault("conversion.fiat", d.Conversion.Fiat)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Cache: CacheConfig{
			Size: 128,
		},
		Fetch: FetchConfig{
			LegTimeout: 10 * time.Second,
		},
		Collectors: map[string]CollectorConfig{
			Binance: {
				Enabled: true,
				BaseURL: "https://api.binance.com",
				Timeout: 5 * time.Second,
			},
			CoinMarketCap: {
				Enabled: true,
				BaseURL: "https://pro-api.coinmarketcap.com",
				Timeout: 10 * time.Second,
			},
			CoinGecko: {
				Enabled: false,
				BaseURL: "https://api.coingecko.com/api/v3",
				Timeout: 10 * time.Second,
			},
			CryptoPanic: {
				Enabled: true,
				BaseURL: "https://cryptopanic.com",
				Timeout: 5 * time.Second,
			},
		},
		Conversion: ConversionConfig{
			Fiat: []string{"EUR", "GBP", "TRY", "BRL"},
		},
		LLM: LLMConfig{
			MaxTokens:   200,
			Temperature: 0.7,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// ApplyEnv fills credentials the config left empty from the process
// environment. A provider whose key stays empty still runs; its calls fail.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if c.Collectors == nil {
		c.Collectors = make(map[string]CollectorConfig)
	}
	fill := func(name, env string) {
		cc := c.Collectors[name]
		if cc.APIKey == "" {
			cc.APIKey = getenv(env)
		}
		c.Collectors[name] = cc
	}
	fill(CoinMarketCap, EnvCoinMarketCapKey)
	fill(CryptoPanic, EnvCryptoPanicKey)
	fill(CoinGecko, EnvCoinGeckoKey)

	if c.LLM.OpenAI.APIKey == "" {
		c.LLM.OpenAI.APIKey = getenv(EnvOpenAIKey)
	}
	if c.LLM.Claude.APIKey == "" {
		c.LLM.Claude.APIKey = getenv(EnvAnthropicKey)
	}
	if c.LLM.Provider == "" && c.LLM.OpenAI.APIKey != "" {
		c.LLM.Provider = "openai"
	}
}

// Collector returns the named collector config, or a disabled zero value.
func (c *Config) Collector(name string) CollectorConfig {
	return c.Collectors[name]
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.Cache.Size < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("cache size must be positive, got %d", c.Cache.Size))
	}
	if c.Fetch.LegTimeout <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("fetch leg_timeout must be positive, got %s", c.Fetch.LegTimeout))
	}

	for name, cc := range c.Collectors {
		if cc.Timeout < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("collector %s timeout cannot be negative, got %s", name, cc.Timeout))
		}
		if cc.Enabled && cc.BaseURL == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("collector %s base_url required when enabled", name))
		}
	}
	if !c.Collector(Binance).Enabled {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("binance collector cannot be disabled, it backs prices and conversion"))
	}

	for _, f := range c.Conversion.Fiat {
		if len(f) != 3 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("fiat currency must be a 3-letter code, got %q", f))
		}
	}

	// LLM validation - if provider set, check config exists
	if c.LLM.Provider != "" {
		switch c.LLM.Provider {
		case "claude":
			if c.LLM.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		case "ollama":
			if c.LLM.Ollama.Endpoint == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("ollama endpoint required when provider is ollama"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
		}
	}

	return nil
}
