// Package cache holds the process-wide fingerprint cache.
//
// The cache maps a normalized root URL to the last known fingerprint of the
// deployment and the time that fingerprint is valid from. It is created
// empty when the server starts and lives for the whole process; entries are
// never evicted and never expire. Freshness is decided by the caller against
// an upstream change time, not by a TTL.
package cache
