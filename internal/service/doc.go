// Package service ties fingerprinting, caching and freshness together.
//
// Hasher answers hash requests. Roots that are not eligible GitHub Pages
// sites are always computed from scratch. For eligible roots the Hasher asks
// the freshness oracle when the repository last changed and returns the
// cached fingerprint if it was recorded no earlier than that; otherwise it
// recomputes, collapsing concurrent recomputations of the same root into one.
//
// Invalidator handles push notifications: it recomputes the pushed site
// unconditionally and overwrites the cache entry with the push time.
//
// Every computed fingerprint is written to the optional history store, and a
// fingerprint that differs from the previous one for the same URL is logged
// as a warning.
package service
