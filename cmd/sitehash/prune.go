package main

import (
	"errors"
	"fmt"

	"github.com/nao1215/sitehash/internal/model"
	"github.com/spf13/cobra"
)

// defaultPruneKeep is the number of records kept per URL by default.
const defaultPruneKeep = 10

// NewPruneCmd creates the prune command.
func NewPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune [url]",
		Short: "Delete old fingerprint history",
		Long: `Prune deletes all but the newest records of a URL from the history
database. With --all it prunes every tracked URL.

Examples:
  # Keep the newest 10 records of a site
  sitehash prune example.com

  # Keep only the latest record of every URL
  sitehash prune --all --keep 1`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPruneCmd,
	}

	cmd.Flags().IntP("keep", "k", defaultPruneKeep,
		"Number of newest records to keep per URL")
	cmd.Flags().Bool("all", false,
		"Prune every tracked URL")
	addDBDirFlag(cmd)

	return cmd
}

// runPruneCmd executes the prune command.
func runPruneCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyDBDirFlag(cmd, cfg); err != nil {
		return err
	}
	keep, err := cmd.Flags().GetInt("keep")
	if err != nil {
		return err
	}
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}

	if keep < 0 {
		return errors.New("--keep must not be negative")
	}
	if all == (len(args) == 1) {
		return errors.New("specify either a URL or --all")
	}

	var urls []string
	if len(args) == 1 {
		u, err := model.NormalizeURL(args[0])
		if err != nil {
			return err
		}
		urls = []string{u.String()}
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	db, err := openExistingHistory(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if all {
		tracked, err := db.ListURLs(ctx)
		if err != nil {
			return err
		}
		for _, t := range tracked {
			urls = append(urls, t.URL)
		}
	}

	var total int64
	for _, u := range urls {
		n, err := db.Prune(ctx, u, keep)
		if err != nil {
			return err
		}
		total += n
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d record(s) from %d URL(s)\n", total, len(urls))
	return nil
}
