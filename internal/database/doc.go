// Package database provides SQLite-based storage for sitehash.
//
// This package implements the HistoryDB, which stores every fingerprint the
// service computes together with the time it is valid from and what
// triggered the computation (an API request, a webhook, or the CLI).
// The history is what lets an operator see when a deployment's content
// drifted, independently of the in-memory cache.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
//  1. No external dependencies - the database is a single file
//  2. CGO-free implementation allows easy cross-compilation
//  3. WAL mode lets the history command read while the server writes
package database
