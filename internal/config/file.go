package config

import "time"

// File represents the structure of the .sitehash configuration file.
// Every field is optional; zero values leave the current setting untouched.
type File struct {
	Server  ServerSection  `yaml:"server,omitempty"`
	Fetch   FetchSection   `yaml:"fetch,omitempty"`
	Pages   PagesSection   `yaml:"pages,omitempty"`
	GitHub  GitHubSection  `yaml:"github,omitempty"`
	Webhook WebhookSection `yaml:"webhook,omitempty"`
	History HistorySection `yaml:"history,omitempty"`
	Log     LogSection     `yaml:"log,omitempty"`
}

// ServerSection configures the HTTP API.
type ServerSection struct {
	Addr            string           `yaml:"addr,omitempty"`
	ShutdownTimeout time.Duration    `yaml:"shutdownTimeout,omitempty"`
	RateLimit       RateLimitSection `yaml:"rateLimit,omitempty"`
}

// RateLimitSection configures per-client rate limiting.
// Rate limiting is disabled with a negative rps.
type RateLimitSection struct {
	RPS   float64 `yaml:"rps,omitempty"`
	Burst int     `yaml:"burst,omitempty"`
}

// FetchSection configures resource fetching.
type FetchSection struct {
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	MaxBodySize int64         `yaml:"maxBodySize,omitempty"`
	UserAgent   string        `yaml:"userAgent,omitempty"`
	Concurrency int           `yaml:"concurrency,omitempty"`
	BatchSize   int           `yaml:"batchSize,omitempty"`
}

// PagesSection configures which sites are cached.
type PagesSection struct {
	Owners []string `yaml:"owners,omitempty"`
	Domain string   `yaml:"domain,omitempty"`
}

// GitHubSection configures the freshness oracle.
type GitHubSection struct {
	APIURL string `yaml:"apiURL,omitempty"`
	Token  string `yaml:"token,omitempty"`
}

// WebhookSection configures push notification verification.
type WebhookSection struct {
	Secret string `yaml:"secret,omitempty"`
}

// HistorySection configures the fingerprint history database.
type HistorySection struct {
	// Enabled is a pointer so that an explicit false can be told apart
	// from an absent key.
	Enabled *bool  `yaml:"enabled,omitempty"`
	DBDir   string `yaml:"dbDir,omitempty"`
}

// LogSection configures log output.
type LogSection struct {
	JSON bool `yaml:"json,omitempty"`
}

// Apply overlays the non-zero values of the file onto cfg.
func (f *File) Apply(cfg *Config) {
	if f.Server.Addr != "" {
		cfg.Addr = f.Server.Addr
	}
	if f.Server.ShutdownTimeout != 0 {
		cfg.ShutdownTimeout = f.Server.ShutdownTimeout
	}
	if f.Server.RateLimit.RPS != 0 {
		cfg.RateLimitRPS = f.Server.RateLimit.RPS
	}
	if f.Server.RateLimit.Burst != 0 {
		cfg.RateLimitBurst = f.Server.RateLimit.Burst
	}

	if f.Fetch.Timeout != 0 {
		cfg.Timeout = f.Fetch.Timeout
	}
	if f.Fetch.MaxBodySize != 0 {
		cfg.MaxBodySize = f.Fetch.MaxBodySize
	}
	if f.Fetch.UserAgent != "" {
		cfg.UserAgent = f.Fetch.UserAgent
	}
	if f.Fetch.Concurrency != 0 {
		cfg.Concurrency = f.Fetch.Concurrency
	}
	if f.Fetch.BatchSize != 0 {
		cfg.BatchSize = f.Fetch.BatchSize
	}

	if len(f.Pages.Owners) > 0 {
		cfg.PagesOwners = f.Pages.Owners
	}
	if f.Pages.Domain != "" {
		cfg.PagesDomain = f.Pages.Domain
	}

	if f.GitHub.APIURL != "" {
		cfg.GitHubAPIURL = f.GitHub.APIURL
	}
	if f.GitHub.Token != "" {
		cfg.GitHubToken = f.GitHub.Token
	}
	if f.Webhook.Secret != "" {
		cfg.WebhookSecret = f.Webhook.Secret
	}

	if f.History.Enabled != nil {
		cfg.HistoryEnabled = *f.History.Enabled
	}
	if f.History.DBDir != "" {
		cfg.DBDir = f.History.DBDir
	}
	if f.Log.JSON {
		cfg.LogJSON = true
	}
}
