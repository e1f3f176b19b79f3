package crawler

import "errors"

// ErrFetch is returned when a resource cannot be retrieved: DNS failure,
// timeout, protocol error, oversized body or a non-2xx status.
// A single fetch failure aborts the whole fingerprint computation.
var ErrFetch = errors.New("fetch failed")

// ErrParse is returned when fetched HTML cannot be parsed.
var ErrParse = errors.New("parse failed")
