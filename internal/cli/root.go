// Package cli implements the receiptdesk command line interface.
//
// Commands talk to the document store facade; package-level service
// variables are wired on first run and can be swapped out in tests.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/seyi-adel/receiptdesk/internal/api"
	"github.com/seyi-adel/receiptdesk/internal/cache"
	"github.com/seyi-adel/receiptdesk/internal/common"
	"github.com/seyi-adel/receiptdesk/internal/export"
	"github.com/seyi-adel/receiptdesk/internal/store"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfg      *common.Config
	logger   *slog.Logger
	backend  api.Backend
	docStore *store.Store
	archive  *cache.Archive
	exporter *export.Service
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "receiptdesk",
	Short: "Track, archive, and export your receipts",
	Long: `receiptdesk submits receipt images for server-side extraction,
tracks processing until the fields come back, and keeps a local,
searchable archive of every approved document.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (TOML)")
}

// initServices wires config, logging, the API client, the local cache,
// and the store. Tests preset the package vars; a non-nil store means
// wiring already happened.
func initServices(cmd *cobra.Command, _ []string) error {
	if docStore != nil {
		return nil
	}
	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	var err error
	cfg, err = common.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger = newLogger(cfg.Log)
	slog.SetDefault(logger)

	client := api.NewClient(cfg.API, api.WithLogger(logger))
	backend = client

	if !cfg.Cache.Disabled {
		archive, err = cache.NewArchive(cfg.Cache.Path, logger)
		if err != nil {
			return fmt.Errorf("opening archive cache: %w", err)
		}
		exporter = export.NewService(archive, logger)
	}

	opts := []store.StoreOption{
		store.WithStorePollInterval(cfg.Tracker.PollInterval),
		store.WithStoreMaxPollTicks(cfg.Tracker.MaxPollTicks),
		store.WithStorePageSize(cfg.Collection.PageSize),
	}
	if archive != nil {
		opts = append(opts, store.WithArchive(archive))
	}
	docStore = store.New(client, logger, opts...)
	return nil
}

func newLogger(lc common.LogConfig) *slog.Logger {
	var level slog.Level
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	ho := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, ho))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, ho))
}
