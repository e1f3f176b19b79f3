// Package model defines the core data structures used throughout sitehash.
//
// This package contains the following main types:
//   - NormalizedURL: A canonical absolute URL used as resource and cache key
//   - Fingerprint: The hex SHA-256 digest of a resource graph
//   - CacheEntry: A cached fingerprint with its freshness marker
//   - PushEvent: An upstream content change notification
//   - HashResult: The per-URL answer returned to callers
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawler, cache, oracle, service and server packages all
// exchange these types, so centralizing them prevents import cycles.
package model
