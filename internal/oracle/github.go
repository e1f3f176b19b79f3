package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/sitehash/internal/model"
)

const (
	// DefaultAPIURL is the GitHub REST API base URL.
	DefaultAPIURL = "https://api.github.com"

	// DefaultTimeout bounds a single oracle query.
	DefaultTimeout = 10 * time.Second

	apiVersion = "2022-11-28"
)

// Oracle reports when a repository last changed.
type Oracle interface {
	LastChanged(ctx context.Context, repo Repo) (time.Time, error)
}

// GitHub is an Oracle backed by the GitHub REST API.
type GitHub struct {
	client    *http.Client
	baseURL   string
	token     string
	userAgent string
	etags     *etagCache
	logger    *slog.Logger
}

// Option configures a GitHub oracle.
type Option func(*GitHub)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(g *GitHub) {
		g.baseURL = strings.TrimRight(u, "/")
	}
}

// WithToken authenticates requests with a bearer token.
func WithToken(token string) Option {
	return func(g *GitHub) {
		g.token = token
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *GitHub) {
		g.client = c
	}
}

// WithUserAgent sets the User-Agent header. GitHub rejects requests without one.
func WithUserAgent(ua string) Option {
	return func(g *GitHub) {
		g.userAgent = ua
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *GitHub) {
		g.logger = logger
	}
}

// NewGitHub creates a GitHub oracle.
func NewGitHub(opts ...Option) *GitHub {
	g := &GitHub{
		client:    &http.Client{Timeout: DefaultTimeout},
		baseURL:   DefaultAPIURL,
		userAgent: "sitehash",
		etags:     newETagCache(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// repository is the subset of the repository resource we read.
type repository struct {
	PushedAt model.Timestamp `json:"pushed_at"`
}

// LastChanged returns the repository's pushed_at time.
func (g *GitHub) LastChanged(ctx context.Context, repo Repo) (time.Time, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s", g.baseURL, url.PathEscape(repo.Owner), url.PathEscape(repo.Name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", g.userAgent)
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
	cached, hasCached := g.etags.get(endpoint)
	if hasCached {
		req.Header.Set("If-None-Match", cached.etag)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %w", ErrUnavailable, repo, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotModified && hasCached:
		g.logger.Debug("repository unchanged", "repo", repo.String(), "pushed_at", cached.pushedAt)
		return cached.pushedAt, nil
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return time.Time{}, fmt.Errorf("%w: %s: unexpected status %d", ErrUnavailable, repo, resp.StatusCode)
	}

	var body repository
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: decode response: %w", ErrUnavailable, repo, err)
	}
	if body.PushedAt.IsZero() {
		return time.Time{}, fmt.Errorf("%w: %s: repository has no pushed_at", ErrUnavailable, repo)
	}

	g.etags.put(endpoint, resp.Header.Get("ETag"), body.PushedAt.Time)
	return body.PushedAt.Time, nil
}

// IsFresh reports whether a cached entry still describes the deployment,
// that is, it was recorded no earlier than the last upstream change.
func IsFresh(cached model.CacheEntry, lastChanged time.Time) bool {
	return !cached.LastUpdated.Before(lastChanged)
}
