package report

import (
	"io"

	"github.com/nao1215/sitehash/internal/database"
	"github.com/nao1215/sitehash/internal/model"
)

// Writer defines the interface for report output.
// Implementations write fingerprint data in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files or stdout with the same API.
type Writer interface {
	// WriteHashes outputs one line, row or object per requested URL.
	// Returns the number of bytes written and any error encountered.
	WriteHashes(results []model.HashResult) (int, error)

	// WriteHistory outputs the recorded fingerprints of one URL,
	// newest first.
	WriteHistory(url string, records []database.Record) (int, error)

	// WriteTracked outputs every URL the history database knows about.
	WriteTracked(tracked []database.TrackedURL) (int, error)
}

// Format selects a Writer implementation.
type Format int

const (
	// FormatSimple is the human-readable default.
	FormatSimple Format = iota
	// FormatJSON is indented JSON.
	FormatJSON
	// FormatMarkdown is GitHub-flavored markdown.
	FormatMarkdown
)

// FormatFor maps the --json and --markdown flags to a Format.
// The flags are validated as mutually exclusive before this is called.
func FormatFor(jsonReport, markdownReport bool) Format {
	switch {
	case jsonReport:
		return FormatJSON
	case markdownReport:
		return FormatMarkdown
	default:
		return FormatSimple
	}
}

// NewWriter returns the Writer for the given format.
func NewWriter(output io.Writer, format Format) Writer {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint())
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	default:
		return NewSimpleWriter(output)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// changedAt reports whether records[i] carries a different fingerprint than
// the record computed just before it. records is ordered newest first.
func changedAt(records []database.Record, i int) bool {
	if i+1 >= len(records) {
		return false
	}
	return records[i].Fingerprint != records[i+1].Fingerprint
}

// countChanges returns how many times the fingerprint changed across records.
func countChanges(records []database.Record) int {
	n := 0
	for i := range records {
		if changedAt(records, i) {
			n++
		}
	}
	return n
}
