package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when an input cannot be parsed as an absolute URL
// after the scheme has been defaulted.
var ErrInvalidURL = errors.New("invalid url")

// DefaultScheme is prepended to inputs that do not carry an http or https scheme.
const DefaultScheme = "https"

// NormalizedURL is an absolute URL string with no fragment and no query.
// Two inputs that normalize to the same value denote the same resource.
type NormalizedURL string

// String returns the URL as a plain string.
func (u NormalizedURL) String() string {
	return string(u)
}

// NormalizeURL canonicalizes input into a NormalizedURL.
//
// The rules are:
//  1. Surrounding whitespace is trimmed
//  2. "https://" is prepended unless the input starts with http:// or https://
//  3. Fragment and query are cleared
//  4. Host is lowercased and an empty path becomes "/"
//
// NormalizeURL is idempotent: normalizing a NormalizedURL returns it unchanged.
func NormalizeURL(input string) (NormalizedURL, error) {
	raw := strings.TrimSpace(input)
	if !HasHTTPScheme(raw) {
		raw = DefaultScheme + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURL, input, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q: missing host", ErrInvalidURL, input)
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.RawQuery = ""
	u.ForceQuery = false
	u.Host = strings.ToLower(u.Host)

	// Empty path and "/" are the same document.
	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}

	return NormalizedURL(u.String()), nil
}

// HasHTTPScheme reports whether s starts with an http:// or https:// prefix,
// ignoring case.
func HasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
