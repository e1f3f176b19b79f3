package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/sitehash/internal/database"
	"github.com/nao1215/sitehash/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for pull request comments and deployment notes.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteHashes outputs a table of URLs and their fingerprints.
func (w *MarkdownWriter) WriteHashes(results []model.HashResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Site Fingerprints")
	md.PlainText("")

	if len(results) == 0 {
		md.PlainText("No URLs hashed.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{r.URL, "`" + r.Hash.String() + "`"}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "SHA-256"},
		Rows:   rows,
	})
	md.PlainText("")

	return len(md.String()), md.Build()
}

// WriteHistory outputs the history of one URL as a table, followed by a
// breakdown of what triggered each computation.
func (w *MarkdownWriter) WriteHistory(url string, records []database.Record) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Fingerprint History")
	md.PlainText("")
	md.PlainText("`" + url + "`")
	md.PlainText("")

	if len(records) == 0 {
		md.Note("No fingerprints recorded for this URL.")
		return len(md.String()), md.Build()
	}

	w.writeChangeAlert(md, records)

	rows := make([][]string, len(records))
	for i, rec := range records {
		changed := ""
		if changedAt(records, i) {
			changed = "changed"
		}
		rows[i] = []string{
			rec.ComputedAt.Format(timeLayout),
			"`" + rec.Fingerprint.String() + "`",
			string(rec.Source),
			rec.LastUpdated.Format(timeLayout),
			changed,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Computed", "Fingerprint", "Source", "Last Updated", "Change"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeSourceChart(md, records)

	return len(md.String()), md.Build()
}

// WriteTracked outputs a table of every tracked URL.
func (w *MarkdownWriter) WriteTracked(tracked []database.TrackedURL) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Tracked URLs")
	md.PlainText("")

	if len(tracked) == 0 {
		md.Note("No URLs tracked yet.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(tracked))
	for i, t := range tracked {
		rows[i] = []string{
			t.URL,
			"`" + t.Fingerprint.String() + "`",
			strconv.Itoa(t.Records),
			t.LastSeen.Format(timeLayout),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Latest Fingerprint", "Records", "Last Seen"},
		Rows:   rows,
	})
	md.PlainText("")

	return len(md.String()), md.Build()
}

// writeChangeAlert summarizes drift across the history.
func (w *MarkdownWriter) writeChangeAlert(md *markdown.Markdown, records []database.Record) {
	changes := countChanges(records)
	if changes == 0 {
		md.Tip("The fingerprint has not changed across the recorded history.")
	} else {
		md.Warningf("The fingerprint changed %d time(s) across %d record(s).", changes, len(records))
	}
	md.PlainText("")
}

// writeSourceChart writes a mermaid pie chart of computation triggers.
func (w *MarkdownWriter) writeSourceChart(md *markdown.Markdown, records []database.Record) {
	counts := make(map[model.Source]uint64)
	for _, rec := range records {
		counts[rec.Source]++
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Computation Triggers"),
		piechart.WithShowData(true),
	)
	for _, src := range []model.Source{model.SourceRequest, model.SourceWebhook, model.SourceCLI} {
		if counts[src] > 0 {
			chart.LabelAndIntValue(string(src), counts[src])
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}
