package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/sitehash/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/sitehash.yaml
var configTemplate embed.FS

// templatePath is the embedded template's path.
const templatePath = "templates/sitehash.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new sitehash configuration file",
		Long: `Initialize creates a new .sitehash configuration file in the current directory.

The generated file includes every setting with its default value and a
short explanation.

Examples:
  # Create .sitehash in current directory
  sitehash init

  # Create config file at a specific path
  sitehash init -o ~/.config/sitehash/config.yaml

  # Force overwrite existing file
  sitehash init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// The file may hold the webhook secret and a GitHub token.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nSecrets are better kept in the environment:")
	fmt.Fprintf(out, "  - %s for webhook signature verification\n", config.EnvWebhookSecret)
	fmt.Fprintf(out, "  - %s for GitHub API requests\n", config.EnvGitHubToken)

	return nil
}
