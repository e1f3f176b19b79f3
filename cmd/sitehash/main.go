// Package main provides the entry point for the sitehash CLI.
//
// sitehash computes a SHA-256 fingerprint of a web page together with every
// stylesheet and script it references, recursively. It runs as an HTTP
// service with a cache for GitHub Pages sites, or as a one-shot command.
//
// Usage:
//
//	sitehash serve
//	sitehash hash <url>...
//	sitehash history [url]
//
// See --help for all available options.
package main

// main is the entry point for sitehash.
func main() {
	Execute()
}
