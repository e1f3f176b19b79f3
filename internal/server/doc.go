// Package server exposes the fingerprint service over HTTP.
//
// Routes:
//   - POST /hash        fingerprints every URL in the JSON body
//   - GET  /hash?url=   fingerprints one URL
//   - POST /hash/gitwh  GitHub push webhook that refreshes cached Pages sites
//   - GET  /healthz     liveness and cache size
//
// Every response body is JSON. Failures are reported as {"error": "..."}.
//
// Design decision: We use net/http's pattern mux rather than a router
// library because:
// 1. Method and path matching cover all four routes
// 2. No route needs path parameters
//
// Requests are rate limited per client IP with golang.org/x/time/rate.
package server
