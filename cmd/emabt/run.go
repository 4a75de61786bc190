package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Kong-F/backtest/internal/collector"
	"github.com/Kong-F/backtest/internal/collector/binance"
	"github.com/Kong-F/backtest/internal/config"
	"github.com/Kong-F/backtest/internal/logger"
	"github.com/Kong-F/backtest/internal/report"
	"github.com/Kong-F/backtest/internal/storage/archive"
	"github.com/Kong-F/backtest/internal/sweep"
)

var (
	runSymbol     string
	runInterval   string
	runDays       int
	runPeriod     int
	runPeriods    []int
	runCapital    float64
	runCommission float64
	runNoSave     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest",
	Long: `Fetch historical data, generate EMA channel signals, simulate the
portfolio and print performance statistics. Passing multiple periods
runs a parameter sweep and marks the best one.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runSymbol, "symbol", "", "symbol to backtest")
	runCmd.Flags().StringVar(&runInterval, "interval", "", "bar interval (1d, 4h, 1h, ...)")
	runCmd.Flags().IntVar(&runDays, "days", 0, "days of history to fetch")
	runCmd.Flags().IntVar(&runPeriod, "period", 0, "EMA channel period")
	runCmd.Flags().IntSliceVar(&runPeriods, "periods", nil, "periods for a parameter sweep")
	runCmd.Flags().Float64Var(&runCapital, "capital", 0, "initial capital")
	runCmd.Flags().Float64Var(&runCommission, "commission", -1, "commission rate")
	runCmd.Flags().BoolVar(&runNoSave, "no-save", false, "skip archiving the report")

	rootCmd.AddCommand(runCmd)
}

// loadConfig reads the config file if given, otherwise the defaults.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// newArchive builds the configured report archive backend.
func newArchive(cfg *config.Config) (archive.Storage, error) {
	switch cfg.Storage.Type {
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.Storage.S3.Bucket,
			Endpoint:  cfg.Storage.S3.Endpoint,
			Region:    cfg.Storage.S3.Region,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
			Prefix:    cfg.Storage.S3.Prefix,
		})
	default:
		return archive.NewLocalFS(cfg.Storage.Path)
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	// Flags override config values.
	symbol := cfg.Data.Symbol
	if runSymbol != "" {
		symbol = runSymbol
	}
	interval := cfg.Data.Interval
	if runInterval != "" {
		interval = runInterval
	}
	days := cfg.Data.Days
	if runDays > 0 {
		days = runDays
	}
	capital := cfg.Backtest.InitialCapital
	if runCapital > 0 {
		capital = runCapital
	}
	commission := cfg.Backtest.CommissionRate
	if runCommission >= 0 {
		commission = runCommission
	}
	periods := cfg.Backtest.Periods
	if len(runPeriods) > 0 {
		periods = runPeriods
	}
	if len(periods) == 0 {
		period := cfg.Backtest.Period
		if runPeriod > 0 {
			period = runPeriod
		}
		periods = []int{period}
	}

	log.Info("fetching history",
		zap.String("symbol", symbol),
		zap.String("interval", interval),
		zap.Int("days", days))

	provider := binance.New()
	end := time.Now()
	raw, err := provider.FetchHistory(symbol, end.AddDate(0, 0, -days), end, interval)
	if err != nil {
		return fmt.Errorf("fetching history: %w", err)
	}
	bars, err := collector.Normalize(raw)
	if err != nil {
		return fmt.Errorf("normalizing bars: %w", err)
	}

	runner, err := sweep.NewRunner(capital, commission, log)
	if err != nil {
		return err
	}
	runs, err := runner.Run(cmd.Context(), bars, periods)
	if err != nil {
		return fmt.Errorf("running backtest: %w", err)
	}

	doc := report.New(symbol, interval, capital, commission, runs)
	report.Render(os.Stdout, doc)

	if !runNoSave {
		store, err := newArchive(cfg)
		if err != nil {
			return fmt.Errorf("opening report archive: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		path, err := report.NewWriter(store, log).Save(ctx, doc)
		if err != nil {
			return fmt.Errorf("saving report: %w", err)
		}
		fmt.Printf("\nReport saved to %s\n", path)
	}

	return nil
}
