package main

import (
	"fmt"

	"github.com/nao1215/sitehash/internal/model"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of records shown by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Show recorded fingerprints",
		Long: `History shows the fingerprints recorded for a URL, newest first, and marks
every record whose fingerprint differs from the one computed before it.

Without a URL it lists every tracked URL with its latest fingerprint.

Examples:
  # List tracked URLs
  sitehash history

  # Show the last 20 fingerprints of a site
  sitehash history https://ranchimall.github.io/standard-operations

  # Show the full history as Markdown
  sitehash history --limit 0 --markdown example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of records to show (0 shows all)")
	addDBDirFlag(cmd)
	addReportFlags(cmd)

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyDBDirFlag(cmd, cfg); err != nil {
		return err
	}
	if err := applyReportFlags(cmd, cfg); err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	// Validate arguments before opening database
	var url model.NormalizedURL
	if len(args) == 1 {
		if url, err = model.NormalizeURL(args[0]); err != nil {
			return err
		}
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	db, err := openExistingHistory(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	writer, closeOutput, err := openReport(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if url == "" {
		tracked, err := db.ListURLs(ctx)
		if err != nil {
			_ = closeOutput() //nolint:errcheck // the query error is more useful
			return err
		}
		if _, err := writer.WriteTracked(tracked); err != nil {
			_ = closeOutput() //nolint:errcheck // the write error is more useful
			return fmt.Errorf("failed to write history: %w", err)
		}
		return closeOutput()
	}

	records, err := db.History(ctx, url.String(), limit)
	if err != nil {
		_ = closeOutput() //nolint:errcheck // the query error is more useful
		return err
	}
	if _, err := writer.WriteHistory(url.String(), records); err != nil {
		_ = closeOutput() //nolint:errcheck // the write error is more useful
		return fmt.Errorf("failed to write history: %w", err)
	}
	return closeOutput()
}
