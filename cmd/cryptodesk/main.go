package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/cryptodesk/internal/config"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "cryptodesk",
	Short: "cryptodesk - cryptocurrency question answering",
	Long: `cryptodesk answers natural-language questions about cryptocurrencies.
It gathers the current price, market statistics and news for the asset a
question names, optionally converts an amount into another currency, and
summarizes the result.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// loadConfig reads path, or the defaults when path is empty, then overlays
// credentials from the environment and validates the result.
func loadConfig(path string, getenv func(string) string, log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Debug("no config file specified, using defaults")
	}

	cfg.ApplyEnv(getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
