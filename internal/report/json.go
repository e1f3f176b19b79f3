package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/sitehash/internal/database"
	"github.com/nao1215/sitehash/internal/model"
)

// JSONWriter outputs reports in JSON format.
// Hash results use the same shape as the HTTP API so scripts can consume
// either source.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. The HTTP API already depends on its field tags
// 2. It's sufficient for our needs
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteHashes outputs the results as a JSON array.
// A nil slice is written as [] rather than null.
func (w *JSONWriter) WriteHashes(results []model.HashResult) (int, error) {
	if results == nil {
		results = []model.HashResult{}
	}
	return w.writeJSON(results)
}

// historyDocument is the JSON shape of WriteHistory.
type historyDocument struct {
	URL     string            `json:"url"`
	Changes int               `json:"changes"`
	Records []database.Record `json:"records"`
}

// WriteHistory outputs the history of one URL with its change count.
func (w *JSONWriter) WriteHistory(url string, records []database.Record) (int, error) {
	if records == nil {
		records = []database.Record{}
	}
	return w.writeJSON(historyDocument{
		URL:     url,
		Changes: countChanges(records),
		Records: records,
	})
}

// WriteTracked outputs the tracked URLs as a JSON array.
func (w *JSONWriter) WriteTracked(tracked []database.TrackedURL) (int, error) {
	if tracked == nil {
		tracked = []database.TrackedURL{}
	}
	return w.writeJSON(tracked)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
