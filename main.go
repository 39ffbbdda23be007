// cryptoexport pulls transaction history from configured cryptocurrency
// exchange accounts and writes one normalized CSV ledger per exchange.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"cryptoexport/config"
	"cryptoexport/internal/exchange"
	"cryptoexport/internal/exchange/binance"
	"cryptoexport/internal/exchange/coinbase"
	"cryptoexport/internal/exchange/coinbasepro"
	"cryptoexport/internal/exchange/novadax"
	"cryptoexport/internal/snapshot"
	"cryptoexport/logger"
	"cryptoexport/writer"
)

// Exit codes for configuration failures.
const (
	exitConfigFile   = 1
	exitNotInConfig  = 2
	exitMissingCreds = 3
)

func main() {
	configPath := flag.String("config", "crypto_export.conf", "path to the YAML configuration file")
	include := flag.String("include", "", "comma-separated exchanges to process (default: all configured)")
	exclude := flag.String("exclude", "", "comma-separated exchanges to skip")
	local := flag.Bool("local", false, "reuse cached raw snapshots instead of calling the APIs")
	flag.Parse()

	// Optional; credentials may come from the environment instead.
	_ = godotenv.Load()

	log := logger.GetLogger()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("failed to load configuration")
		os.Exit(exitConfigFile)
	}
	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("failed to configure logging")
		os.Exit(exitConfigFile)
	}

	jobs := []exchange.Job{
		coinbase.New(),
		coinbasepro.New(),
		binance.New(),
		novadax.New(),
	}

	queued, err := exchange.Select(jobs, cfg, splitNames(*include), splitNames(*exclude))
	if err != nil {
		log.WithError(err).Error("exchange selection failed")
		var notConfigured *exchange.NotConfiguredError
		if errors.As(err, &notConfigured) {
			os.Exit(exitNotInConfig)
		}
		var missingCreds *exchange.MissingCredentialsError
		if errors.As(err, &missingCreds) {
			os.Exit(exitMissingCreds)
		}
		os.Exit(exitConfigFile)
	}
	if len(queued) == 0 {
		log.Warn("no exchanges queued, nothing to do")
		return
	}

	env := &exchange.Env{
		Cfg:      cfg,
		Cache:    snapshot.New(cfg.Files.Prefix),
		Limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst),
		UseLocal: *local,
		Log:      log,
	}

	ctx := context.Background()
	for _, job := range queued {
		log.WithFields(logger.Fields{"exchange": job.Name()}).Info("starting export")
		if err := job.Run(ctx, env); err != nil {
			log.WithError(err).WithFields(logger.Fields{"exchange": job.Name()}).Error("export failed")
			os.Exit(1)
		}
	}

	if cfg.Storage.S3.Enabled {
		if err := archiveOutputs(ctx, cfg, log); err != nil {
			log.WithError(err).Error("archive upload failed")
			os.Exit(1)
		}
	}

	log.WithFields(logger.Fields{"exchanges": len(queued)}).Info("export complete")
}

// archiveOutputs uploads every generated CSV ledger and raw snapshot under
// the configured file prefix.
func archiveOutputs(ctx context.Context, cfg *config.Config, log *logger.Log) error {
	var paths []string
	for _, pattern := range []string{"*_transactions.csv", "*.json"} {
		matches, err := filepath.Glob(cfg.Files.Prefix + pattern)
		if err != nil {
			return fmt.Errorf("glob outputs: %w", err)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		log.Warn("no output files found to archive")
		return nil
	}

	archiver, err := writer.NewArchiver(ctx, cfg)
	if err != nil {
		return err
	}
	return archiver.Upload(ctx, paths)
}

func splitNames(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
