// Package crawler fetches a page and every stylesheet and script it links to,
// and folds the whole resource graph into a single fingerprint.
//
// # Architecture
//
// The package is built around three pieces:
//
//   - Fetcher: retrieves one resource over HTTP(S) and decodes it to text
//   - Parser: extracts stylesheet and script references in document order
//   - Fingerprinter: walks the resource graph and hashes the combination string
//
// Design decision: The Fingerprinter uses an explicit level-by-level worklist
// over an arena of nodes instead of recursion because:
//  1. Stack depth does not grow with the depth of the resource graph
//  2. Visited-set claims happen in a fixed order, so the fingerprint does
//     not depend on which fetch finishes first
//  3. Cancellation is checked between levels and inside every fetch
//
// # Combination string
//
// For every fetched resource the combination string is
//
//	content + "_" + join("_", childPath + "_" + childResult)
//
// where children appear in document order and a child that was already
// visited elsewhere in the same computation contributes an empty result.
// The fingerprint is the hex SHA-256 of the root's combination string.
//
// # Usage
//
//	fetcher := crawler.NewFetcher(nil, crawler.WithTimeout(30*time.Second))
//	fp := crawler.NewFingerprinter(fetcher)
//	result, err := fp.Compute(ctx, root)
package crawler
