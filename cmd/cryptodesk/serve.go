package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/cryptodesk/internal/api"
	"github.com/newthinker/cryptodesk/internal/app"
	"github.com/newthinker/cryptodesk/internal/logger"
	"github.com/newthinker/cryptodesk/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the cryptodesk HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgFile, os.Getenv, logger.Must(debug, ""))
	if err != nil {
		return err
	}
	log, err := logger.New(debug || cfg.Log.Development, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	a, err := app.New(cfg, log, reg)
	if err != nil {
		return fmt.Errorf("creating app: %w", err)
	}

	log.Info("starting cryptodesk server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("metrics", cfg.Metrics.Enabled),
	)

	server, err := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		MetricsPath: cfg.Metrics.Path,
	}, api.Dependencies{
		Assistant: a.Assistant(),
		Resolver:  a.Resolver(),
		Market:    a.Market(),
		Converter: a.Converter(),
		Metrics:   reg,
	}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down cryptodesk server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
