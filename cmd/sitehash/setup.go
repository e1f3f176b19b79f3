package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/sitehash/internal/config"
	"github.com/nao1215/sitehash/internal/crawler"
	"github.com/nao1215/sitehash/internal/database"
	applog "github.com/nao1215/sitehash/internal/log"
	"github.com/nao1215/sitehash/internal/report"
	"github.com/spf13/cobra"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// commandContext returns the command's context, canceled on SIGINT or
// SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// loadConfig builds a Config from the config file named by --config (or
// found in the default locations) and the environment. Command flags are
// applied by the caller.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var configPath string
	if flag := cmd.Flag("config"); flag != nil {
		configPath = flag.Value.String()
	}
	cfg, err := config.Load(configPath, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// setupLogger creates the sanitizing logger for a command.
// base is the level used without --verbose.
func setupLogger(cfg *config.Config, w io.Writer, base slog.Level) *slog.Logger {
	level := applog.LevelFor(cfg.Verbose, base)
	if cfg.LogJSON {
		return applog.NewSecureJSONLogger(w, level)
	}
	return applog.NewSecureLogger(w, level)
}

// newFingerprinter builds the fetcher and fingerprinter from cfg.
func newFingerprinter(cfg *config.Config, logger *slog.Logger) *crawler.Fingerprinter {
	fetcher := crawler.NewFetcher(&http.Client{},
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithFetcherLogger(logger),
	)
	return crawler.NewFingerprinter(fetcher,
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithLogger(logger),
	)
}

// openHistory opens the history database when history is enabled.
// It returns nil when history is disabled.
func openHistory(cfg *config.Config, logger *slog.Logger) (*database.HistoryDB, error) {
	if !cfg.HistoryEnabled {
		return nil, nil
	}
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("history database opened", "path", db.Path())
	return db, nil
}

// openExistingHistory opens the history database for reading commands.
// A missing database is an error rather than being created empty.
func openExistingHistory(cfg *config.Config) (*database.HistoryDB, error) {
	db, err := database.Open(cfg.DBDir, database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// addDBDirFlag registers --db-dir.
func addDBDirFlag(cmd *cobra.Command) {
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")
}

// applyDBDirFlag copies --db-dir onto cfg when it was set.
func applyDBDirFlag(cmd *cobra.Command, cfg *config.Config) error {
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dir != "" {
		cfg.DBDir = dir
	}
	return nil
}

// openReport returns the report writer selected by cfg and a function that
// closes the output file, if one was opened.
func openReport(cfg *config.Config, stdout io.Writer) (report.Writer, func() error, error) {
	format := report.FormatFor(cfg.JSONReport, cfg.MarkdownReport)
	if cfg.ReportFile == "" {
		return report.NewWriter(stdout, format), func() error { return nil }, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return report.NewWriter(f, format), f.Close, nil
}

// addReportFlags registers the output format flags shared by the reporting
// commands.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write output to specified file path (creates directories if needed)")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
}

// applyReportFlags copies the output format flags onto cfg.
func applyReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	return nil
}
