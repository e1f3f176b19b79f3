package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sitehash.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitehash",
		Short: "Fingerprint web pages and the assets they load",
		Long: `sitehash computes a SHA-256 fingerprint of a web page together with every
stylesheet and script it references, following nested HTML references.

Two deployments serving identical content produce identical fingerprints,
so the value can be used to verify that a published site has not been
tampered with. Fingerprints of GitHub Pages sites are cached by the server
and refreshed when the repository is pushed.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .sitehash in current or home directory)")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHashCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewPruneCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
