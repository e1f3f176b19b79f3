package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Fingerprint is the lowercase hex SHA-256 digest of a resource graph's
// combination string. It is always 64 characters long.
type Fingerprint string

// String returns the fingerprint as a plain string.
func (f Fingerprint) String() string {
	return string(f)
}

// FingerprintOf hashes an already built combination string.
// The crawler streams the combination into the digest instead of building it,
// but both paths must agree byte for byte.
func FingerprintOf(combination string) Fingerprint {
	sum := sha256.Sum256([]byte(combination))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// CacheEntry is a cached fingerprint together with the freshness marker it
// was computed for.
type CacheEntry struct {
	// Fingerprint is the cached digest.
	Fingerprint Fingerprint `json:"fingerprint"`

	// LastUpdated is the upstream change time the fingerprint reflects.
	// It comes from the freshness oracle, a push event, or the computation
	// start time when neither is available.
	LastUpdated time.Time `json:"last_updated"`
}

// HashResult is the answer for one requested URL.
// URL is echoed exactly as the caller supplied it.
type HashResult struct {
	URL  string      `json:"url"`
	Hash Fingerprint `json:"hash"`
}

// Source identifies what triggered a fingerprint computation.
type Source string

const (
	// SourceRequest is a computation triggered by an API request.
	SourceRequest Source = "request"
	// SourceWebhook is a computation triggered by a push event.
	SourceWebhook Source = "webhook"
	// SourceCLI is a one-shot computation from the command line.
	SourceCLI Source = "cli"
)
