package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() for programmatic handling while users get a readable message.
var (
	// ErrInvalidAddr is returned when the listen address is not "host:port".
	ErrInvalidAddr = errors.New("invalid listen address: must be host:port")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidConcurrency is returned when the fetch concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidPagesDomain is returned when the Pages domain is empty.
	ErrInvalidPagesDomain = errors.New("invalid pages domain: must not be empty")

	// ErrInvalidGitHubAPIURL is returned when the API URL is not an absolute http(s) URL.
	ErrInvalidGitHubAPIURL = errors.New("invalid GitHub API URL: must be an absolute http or https URL")

	// ErrInvalidRateLimit is returned when rate limiting is on with a burst below one.
	ErrInvalidRateLimit = errors.New("invalid rate limit: burst must be positive when rps is positive")

	// ErrInvalidShutdownTimeout is returned when the shutdown timeout is negative.
	ErrInvalidShutdownTimeout = errors.New("invalid shutdown timeout: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
