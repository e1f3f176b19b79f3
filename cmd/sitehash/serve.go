package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nao1215/sitehash/internal/cache"
	"github.com/nao1215/sitehash/internal/config"
	"github.com/nao1215/sitehash/internal/oracle"
	"github.com/nao1215/sitehash/internal/server"
	"github.com/nao1215/sitehash/internal/service"
	"github.com/spf13/cobra"
)

// readHeaderTimeout bounds how long a client may take to send headers.
const readHeaderTimeout = 10 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the fingerprint HTTP API",
		Long: `Serve starts the HTTP API.

Routes:
  POST /hash        {"urls": ["https://..."]} -> [{"url": "...", "hash": "..."}]
  GET  /hash?url=   same for a single URL
  POST /hash/gitwh  GitHub push webhook; refreshes the cached Pages site
  GET  /healthz     liveness and cache size

Fingerprints of Pages sites owned by the configured organizations are cached
and revalidated against the GitHub API. Every computed fingerprint is
recorded in the history database unless --no-history is given.

Examples:
  # Listen on the default address (:3000)
  sitehash serve

  # Listen on another port with JSON logs
  sitehash serve --addr :8080 --log-json

  # Verify webhook signatures
  SITEHASH_WEBHOOK_SECRET=changeme sitehash serve`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", config.DefaultAddr,
		"Address to listen on")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each resource fetch")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Parallel fetches per traversal level")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"URLs of one request hashed at the same time")
	cmd.Flags().Float64("rate-limit", config.DefaultRateLimitRPS,
		"Requests per second per client IP (negative disables)")
	cmd.Flags().Int("burst", config.DefaultRateLimitBurst,
		"Rate limit burst per client IP")
	cmd.Flags().Bool("log-json", false,
		"Emit JSON logs")
	cmd.Flags().Bool("no-history", false,
		"Do not record fingerprints in the history database")
	addDBDirFlag(cmd)

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildServeConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg, cmd.ErrOrStderr(), slog.LevelInfo)
	slog.SetDefault(logger)

	ctx, stop := commandContext(cmd)
	defer stop()

	handler, cleanup, err := newServeHandler(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}

	return serve(ctx, ln, handler, cfg.ShutdownTimeout, logger)
}

// buildServeConfig creates a Config from the config file, the environment
// and the flags the user set explicitly.
func buildServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		if cfg.Addr, err = flags.GetString("addr"); err != nil {
			return nil, err
		}
	}
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
	if flags.Changed("rate-limit") {
		if cfg.RateLimitRPS, err = flags.GetFloat64("rate-limit"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("burst") {
		if cfg.RateLimitBurst, err = flags.GetInt("burst"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("log-json") {
		if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
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

	return cfg, nil
}

// newServeHandler wires the fingerprint service behind the HTTP API.
// cleanup closes the history database.
func newServeHandler(cfg *config.Config, logger *slog.Logger) (http.Handler, func(), error) {
	history, err := openHistory(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if history != nil {
			if err := history.Close(); err != nil {
				logger.Warn("failed to close history database", "error", err)
			}
		}
	}

	github := oracle.NewGitHub(
		oracle.WithBaseURL(cfg.GitHubAPIURL),
		oracle.WithToken(cfg.GitHubToken),
		oracle.WithUserAgent(cfg.UserAgent),
		oracle.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		oracle.WithLogger(logger),
	)

	opts := []service.Option{
		service.WithOracle(github),
		service.WithMatcher(oracle.NewPagesMatcher(cfg.PagesOwners, cfg.PagesDomain)),
		service.WithBatchSize(cfg.BatchSize),
		service.WithLogger(logger),
	}
	if history != nil {
		opts = append(opts, service.WithHistory(history))
	}
	hasher := service.NewHasher(newFingerprinter(cfg, logger), cache.New(), opts...)

	if cfg.WebhookSecret == "" {
		logger.Warn("webhook secret not set, deliveries are only checked by User-Agent")
	}

	srv := server.New(hasher, service.NewInvalidator(hasher),
		server.WithLogger(logger),
		server.WithWebhookSecret(cfg.WebhookSecret),
		server.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
	return srv, cleanup, nil
}

// serve runs handler on ln until ctx is done, then shuts down gracefully,
// waiting up to shutdownTimeout for in-flight requests.
func serve(ctx context.Context, ln net.Listener, handler http.Handler, shutdownTimeout time.Duration, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close() //nolint:errcheck // best effort after a failed drain
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
