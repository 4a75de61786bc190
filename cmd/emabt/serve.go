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

	"github.com/Kong-F/backtest/internal/api"
	"github.com/Kong-F/backtest/internal/collector/binance"
	"github.com/Kong-F/backtest/internal/logger"
	"github.com/Kong-F/backtest/internal/metrics"
	"github.com/Kong-F/backtest/internal/report"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the backtest HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	log.Info("starting backtest server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	store, err := newArchive(cfg)
	if err != nil {
		return fmt.Errorf("opening report archive: %w", err)
	}

	var registry *metrics.Registry
	if cfg.Metrics.Enabled {
		registry = metrics.NewRegistry()
	}

	server := api.NewServer(api.Config{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		JobTTL:            time.Duration(cfg.Server.JobTTLHours) * time.Hour,
		MaxJobs:           cfg.Server.MaxJobs,
		MetricsPath:       cfg.Metrics.Path,
		DefaultPeriod:     cfg.Backtest.Period,
		DefaultCapital:    cfg.Backtest.InitialCapital,
		DefaultCommission: cfg.Backtest.CommissionRate,
		DefaultInterval:   cfg.Data.Interval,
		DefaultDays:       cfg.Data.Days,
	}, binance.New(), report.NewWriter(store, log), registry, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down backtest server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
