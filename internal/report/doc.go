// Package report renders fingerprint results for the command line.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown tables for pull request comments and docs
//
// Design decision: We separate report writing from the data it renders
// (model.HashResult and the database history records) so the HTTP API and
// the CLI share one data shape while only the CLI needs formatting.
//
// Writers implement the Writer interface, allowing the hash, history and
// status commands to pick a format without branching on it.
package report
