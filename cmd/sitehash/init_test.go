package main

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/nao1215/sitehash/internal/config"
)

// TestNewInitCmd tests the init command creation.
func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
		if flag.DefValue != config.DefaultConfigFile {
			t.Errorf("expected default %q, got %q", config.DefaultConfigFile, flag.DefValue)
		}
	})

	t.Run("has force flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("force")
		if flag == nil {
			t.Fatal("expected force flag")
		}
		if flag.Shorthand != "f" {
			t.Errorf("expected shorthand 'f', got %q", flag.Shorthand)
		}
	})
}

// TestRunInitCmd tests the init command execution.
func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates config file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "config.yaml")
		out, err := runCLI(t, "init", "-o", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, path) {
			t.Errorf("expected output to mention %s, got:\n%s", path, out)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("failed to stat file: %v", err)
		}
		if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
			t.Errorf("expected permissions 0600, got %o", info.Mode().Perm())
		}
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".sitehash")
		if err := os.WriteFile(path, []byte("existing"), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := runCLI(t, "init", "-o", path); err == nil {
			t.Fatal("expected error for existing file")
		}
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "existing" {
			t.Error("existing file must not be modified")
		}

		if _, err := runCLI(t, "init", "-o", path, "-f"); err != nil {
			t.Fatalf("unexpected error with force: %v", err)
		}
		content, err = os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) == "existing" {
			t.Error("expected file to be overwritten")
		}
	})
}

// TestConfigTemplate tests the embedded config template.
func TestConfigTemplate(t *testing.T) {
	t.Parallel()

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		t.Fatalf("failed to read template: %v", err)
	}

	t.Run("contains every section", func(t *testing.T) {
		t.Parallel()
		for _, section := range []string{"server:", "fetch:", "pages:", "github:", "webhook:", "history:", "log:"} {
			if !strings.Contains(string(content), section) {
				t.Errorf("expected template to contain %q", section)
			}
		}
	})

	t.Run("loads to the defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, content, 0600); err != nil {
			t.Fatal(err)
		}
		file, err := config.LoadConfigFile(path)
		if err != nil {
			t.Fatalf("template does not parse: %v", err)
		}

		cfg := config.NewConfig()
		file.Apply(cfg)
		if err := cfg.Validate(); err != nil {
			t.Fatalf("template config is invalid: %v", err)
		}

		want := config.NewConfig()
		if cfg.Addr != want.Addr || cfg.Timeout != want.Timeout || cfg.ShutdownTimeout != want.ShutdownTimeout ||
			cfg.MaxBodySize != want.MaxBodySize || cfg.Concurrency != want.Concurrency ||
			cfg.BatchSize != want.BatchSize || cfg.RateLimitRPS != want.RateLimitRPS ||
			cfg.RateLimitBurst != want.RateLimitBurst || cfg.PagesDomain != want.PagesDomain ||
			cfg.GitHubAPIURL != want.GitHubAPIURL || !cfg.HistoryEnabled {
			t.Errorf("template values differ from defaults:\n got %+v\nwant %+v", cfg, want)
		}
		if len(cfg.PagesOwners) != 1 || cfg.PagesOwners[0] != "ranchimall" {
			t.Errorf("PagesOwners = %v", cfg.PagesOwners)
		}
	})
}
