package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/sitehash/internal/database"
	"github.com/nao1215/sitehash/internal/model"
)

// timeLayout is the timestamp format used by the text and markdown writers.
const timeLayout = "2006-01-02 15:04:05 MST"

// SimpleWriter outputs human-readable text reports.
// Hash results follow the sha256sum layout ("<hash>  <url>") so the output
// can be diffed or grepped like any checksum file.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
type SimpleWriter struct {
	baseWriter

	// showTimestamps adds computation times to hash output.
	showTimestamps bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithTimestamps appends the local time to each hash line.
func WithTimestamps(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showTimestamps = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteHashes outputs one "<hash>  <url>" line per result.
func (w *SimpleWriter) WriteHashes(results []model.HashResult) (int, error) {
	var sb strings.Builder
	now := time.Now()

	for _, r := range results {
		sb.WriteString(r.Hash.String())
		sb.WriteString("  ")
		sb.WriteString(r.URL)
		if w.showTimestamps {
			sb.WriteString("  ")
			sb.WriteString(now.Format(timeLayout))
		}
		sb.WriteString("\n")
	}

	return io.WriteString(w.output, sb.String())
}

// WriteHistory outputs the records of one URL, marking each change.
func (w *SimpleWriter) WriteHistory(url string, records []database.Record) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 60) + "\n")
	sb.WriteString("FINGERPRINT HISTORY\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&sb, "URL:     %s\n", url)
	fmt.Fprintf(&sb, "Records: %d\n", len(records))
	fmt.Fprintf(&sb, "Changes: %d\n\n", countChanges(records))

	if len(records) == 0 {
		sb.WriteString("No fingerprints recorded.\n")
		return io.WriteString(w.output, sb.String())
	}

	for i, rec := range records {
		marker := " "
		if changedAt(records, i) {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%s %s  %s  %-7s  last updated %s\n",
			marker,
			rec.Fingerprint,
			rec.ComputedAt.Local().Format(timeLayout),
			rec.Source,
			rec.LastUpdated.Local().Format(timeLayout),
		)
	}

	if countChanges(records) > 0 {
		sb.WriteString("\n* fingerprint differs from the previous computation\n")
	}

	return io.WriteString(w.output, sb.String())
}

// WriteTracked outputs one line per tracked URL.
func (w *SimpleWriter) WriteTracked(tracked []database.TrackedURL) (int, error) {
	var sb strings.Builder

	if len(tracked) == 0 {
		sb.WriteString("No URLs tracked yet.\n")
		return io.WriteString(w.output, sb.String())
	}

	for _, t := range tracked {
		fmt.Fprintf(&sb, "%s  %s  (%d records, last seen %s)\n",
			t.Fingerprint,
			t.URL,
			t.Records,
			t.LastSeen.Local().Format(timeLayout),
		)
	}

	return io.WriteString(w.output, sb.String())
}
