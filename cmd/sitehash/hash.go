package main

import (
	"fmt"
	"log/slog"

	"github.com/nao1215/sitehash/internal/config"
	"github.com/nao1215/sitehash/internal/model"
	"github.com/nao1215/sitehash/internal/service"
	"github.com/spf13/cobra"
)

// NewHashCmd creates the hash command.
func NewHashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash <url>...",
		Short: "Fingerprint one or more URLs",
		Long: `Hash fetches each URL with every stylesheet and script it references and
prints the SHA-256 fingerprint of the combined content.

URLs without a scheme are fetched over https. Nothing is cached; every run
fetches the sites again. Results are recorded in the history database
unless --no-history is given.

Examples:
  # Fingerprint a site
  sitehash hash https://ranchimall.github.io/standard-operations

  # Fingerprint several sites and write a Markdown table
  sitehash hash --markdown -o fingerprints.md example.com example.org

  # JSON output, same shape as the HTTP API
  sitehash hash --json example.com`,
		Args: cobra.MinimumNArgs(1),
		RunE: runHashCmd,
	}

	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each resource fetch")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Parallel fetches per traversal level")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"URLs hashed at the same time")
	cmd.Flags().Bool("no-history", false,
		"Do not record fingerprints in the history database")
	addDBDirFlag(cmd)
	addReportFlags(cmd)

	return cmd
}

// runHashCmd executes the hash command.
func runHashCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildHashConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg, cmd.ErrOrStderr(), slog.LevelWarn)

	// Reject bad input before any network or database work.
	for _, raw := range args {
		if _, err := model.NormalizeURL(raw); err != nil {
			return err
		}
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	history, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	opts := []service.Option{
		service.WithBatchSize(cfg.BatchSize),
		service.WithSource(model.SourceCLI),
		service.WithLogger(logger),
	}
	if history != nil {
		defer history.Close()
		opts = append(opts, service.WithHistory(history))
	}

	hasher := service.NewHasher(newFingerprinter(cfg, logger), nil, opts...)
	results, err := hasher.HashAll(ctx, args)
	if err != nil {
		return err
	}

	writer, closeOutput, err := openReport(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if _, err := writer.WriteHashes(results); err != nil {
		_ = closeOutput() //nolint:errcheck // the write error is more useful
		return fmt.Errorf("failed to write results: %w", err)
	}
	return closeOutput()
}

// buildHashConfig creates a Config for the hash command.
func buildHashConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("batch") {
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
			return nil, err
		}
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if noHistory {
		cfg.HistoryEnabled = false
	}
	if err := applyDBDirFlag(cmd, cfg); err != nil {
		return nil, err
	}
	if err := applyReportFlags(cmd, cfg); err != nil {
		return nil, err
	}
	// One-shot output goes to stdout; logs stay on stderr as text.
	cfg.LogJSON = false

	return cfg, nil
}
