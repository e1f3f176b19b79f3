package config

import (
	"net"
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sitehash"

	// DefaultAddr is the listen address of the HTTP API.
	DefaultAddr = ":3000"

	// DefaultTimeout bounds every single resource fetch.
	// A hung leaf fetch fails its whole root computation after this long.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize caps the decoded size of a single resource.
	// Deployed pages, stylesheets and bundles are far below 10MB.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultUserAgent identifies sitehash in HTTP requests.
	DefaultUserAgent = "sitehash/1.0 (+https://github.com/nao1215/sitehash)"

	// DefaultConcurrency is the number of parallel fetches within one level
	// of a resource graph.
	DefaultConcurrency = 16

	// DefaultBatchSize is the number of URLs of one request hashed at once.
	DefaultBatchSize = 8

	// DefaultPagesDomain is the GitHub Pages host suffix.
	DefaultPagesDomain = "github.io"

	// DefaultGitHubAPIURL is the GitHub REST API base URL.
	DefaultGitHubAPIURL = "https://api.github.com"

	// DefaultRateLimitRPS is the sustained request rate allowed per client IP.
	DefaultRateLimitRPS = 5.0

	// DefaultRateLimitBurst is the burst size allowed per client IP.
	DefaultRateLimitBurst = 20

	// DefaultShutdownTimeout is how long the server waits for in-flight
	// requests on shutdown.
	DefaultShutdownTimeout = 30 * time.Second
)

// DefaultPagesOwners are the GitHub owners whose Pages sites are cached.
var DefaultPagesOwners = []string{"ranchimall"}

// Config holds all configuration options for sitehash.
// This struct is populated from defaults, the config file, the environment
// and CLI flags, in that order, and passed through the application via
// dependency injection rather than global state.
type Config struct {
	// Addr is the listen address of the HTTP API in "host:port" format.
	Addr string

	// Timeout bounds every single resource fetch.
	Timeout time.Duration

	// MaxBodySize is the maximum decoded size in bytes of a single resource.
	// A larger resource fails the computation.
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with every fetch.
	UserAgent string

	// Concurrency bounds parallel fetches within one level of a resource graph.
	Concurrency int

	// BatchSize bounds how many URLs of one request are hashed at once.
	BatchSize int

	// PagesOwners lists the GitHub owners whose Pages sites are cached.
	// Sites of other owners are always computed from scratch.
	PagesOwners []string

	// PagesDomain is the GitHub Pages host suffix.
	PagesDomain string

	// GitHubAPIURL is the GitHub REST API base URL used by the freshness oracle.
	GitHubAPIURL string

	// GitHubToken authenticates freshness queries. Optional; without it the
	// unauthenticated rate limit applies.
	GitHubToken string

	// WebhookSecret, when set, is required to verify the
	// X-Hub-Signature-256 header of push notifications.
	WebhookSecret string

	// RateLimitRPS is the sustained request rate allowed per client IP.
	// Zero or less disables rate limiting.
	RateLimitRPS float64

	// RateLimitBurst is the burst size allowed per client IP.
	RateLimitBurst int

	// ShutdownTimeout is how long the server waits for in-flight requests.
	ShutdownTimeout time.Duration

	// HistoryEnabled records every computed fingerprint in the database.
	HistoryEnabled bool

	// DBDir is the directory path for storing the SQLite database.
	// Defaults to XDG data directory (~/.local/share/sitehash on Linux).
	DBDir string

	// LogJSON switches server logs to JSON.
	LogJSON bool

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches the current directory, the home directory
	// and the XDG config directory.
	ConfigFilePath string

	// JSONReport selects JSON output for one-shot commands.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output for one-shot commands.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for one-shot commands.
	// When empty, output goes to stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because most defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	owners := make([]string, len(DefaultPagesOwners))
	copy(owners, DefaultPagesOwners)

	return &Config{
		Addr:            DefaultAddr,
		Timeout:         DefaultTimeout,
		MaxBodySize:     DefaultMaxBodySize,
		UserAgent:       DefaultUserAgent,
		Concurrency:     DefaultConcurrency,
		BatchSize:       DefaultBatchSize,
		PagesOwners:     owners,
		PagesDomain:     DefaultPagesDomain,
		GitHubAPIURL:    DefaultGitHubAPIURL,
		RateLimitRPS:    DefaultRateLimitRPS,
		RateLimitBurst:  DefaultRateLimitBurst,
		ShutdownTimeout: DefaultShutdownTimeout,
		HistoryEnabled:  true,
		DBDir:           XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for sitehash.
// On Linux: ~/.local/share/sitehash
// On macOS: ~/Library/Application Support/sitehash
// On Windows: %LOCALAPPDATA%\sitehash
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitehash.
// On Linux: ~/.config/sitehash
// On macOS: ~/Library/Application Support/sitehash
// On Windows: %APPDATA%\sitehash
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return ErrInvalidAddr
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.PagesDomain == "" {
		return ErrInvalidPagesDomain
	}
	if u, err := url.Parse(c.GitHubAPIURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidGitHubAPIURL
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		return ErrInvalidRateLimit
	}
	if c.ShutdownTimeout < 0 {
		return ErrInvalidShutdownTimeout
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
