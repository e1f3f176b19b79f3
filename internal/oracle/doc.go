// Package oracle answers "when did this deployment last change?" for sites
// served from GitHub Pages.
//
// Only roots of the form https://<owner>.<domain>/<repo> whose owner is
// configured as eligible take part in caching; MatchPages decides that.
// For eligible roots, GitHub.LastChanged reads the repository's pushed_at
// timestamp from the GitHub REST API, reusing ETags so that unchanged
// repositories do not consume rate limit quota.
//
// Any upstream failure is reported as ErrUnavailable. Callers treat that as
// "unknown" and recompute; it is never surfaced to HTTP clients.
package oracle
