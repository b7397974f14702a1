package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/deeptext/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter prints GitHub flavored Markdown.
type MarkdownWriter struct {
	baseWriter

	version string
}

// NewMarkdownWriter creates a MarkdownWriter. version appears in the footer.
func NewMarkdownWriter(output io.Writer, version string) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		version:    version,
	}
}

// Write prints a report for one analysis.
func (w *MarkdownWriter) Write(a *model.Analysis) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Deepest Text Report")
	md.PlainText("")

	rows := [][]string{
		{"URL", inlineCode(a.URL)},
		{"Analyzed", a.DateAnalyzed.Format("2006-01-02 15:04:05 MST")},
		{"Outcome", OutcomeLabel(a.Outcome)},
	}
	if a.Strategy != "" {
		rows = append(rows, []string{"Strategy", a.Strategy})
	}
	if a.StatusCode != 0 {
		rows = append(rows, []string{"HTTP Status", strconv.Itoa(a.StatusCode)})
	}
	if a.LineCount > 0 {
		rows = append(rows, []string{"Lines", strconv.Itoa(a.LineCount)})
	}
	if a.Outcome == model.OutcomeFound {
		rows = append(rows,
			[]string{"Depth", strconv.Itoa(a.Depth)},
			[]string{"Line", strconv.Itoa(a.Line)},
		)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeAlert(md, a)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteBatch prints a summary table, an outcome chart and one row per URL.
func (w *MarkdownWriter) WriteBatch(analyses []*model.Analysis) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Deepest Text Batch Report")
	md.PlainText("")

	counts := countOutcomes(analyses)
	summary := make([][]string, 0, len(outcomeOrder)+1)
	for _, o := range outcomeOrder {
		if counts[o] > 0 {
			summary = append(summary, []string{OutcomeLabel(o), strconv.Itoa(counts[o])})
		}
	}
	summary = append(summary, []string{"**Total**", "**" + strconv.Itoa(len(analyses)) + "**"})

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows:   summary,
	})
	md.PlainText("")

	if len(analyses) > 0 {
		w.writePieChart(md, counts)
	}

	md.H2("Results")
	md.PlainText("")
	if len(analyses) == 0 {
		md.PlainText("No URLs were analyzed.")
		md.PlainText("")
	} else {
		rows := make([][]string, len(analyses))
		for i, a := range analyses {
			depth := "-"
			if a.Outcome == model.OutcomeFound {
				depth = strconv.Itoa(a.Depth)
			}
			rows[i] = []string{
				inlineCode(a.URL),
				OutcomeLabel(a.Outcome),
				depth,
				escapeCell(truncateString(detail(a), 80)),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"URL", "Outcome", "Depth", "Text / Reason"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, a *model.Analysis) {
	switch a.Outcome {
	case model.OutcomeFound:
		md.Tip(fmt.Sprintf("Deepest text at depth %d: %s", a.Depth, a.DeepestText))
	case model.OutcomeEmpty:
		md.Note("The document is well formed but no text is nested inside a tag.")
	case model.OutcomeMalformed:
		md.Warningf("Malformed HTML: %s", detail(a))
	default:
		md.Cautionf("Analysis failed: %s", detail(a))
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[model.Outcome]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Outcomes"),
		piechart.WithShowData(true),
	)
	for _, o := range outcomeOrder {
		if counts[o] > 0 {
			chart.LabelAndIntValue(OutcomeLabel(o), uint64(counts[o])) //nolint:gosec // counts are non-negative
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	if w.version != "" {
		md.PlainTextf("*Generated by deeptext %s*", w.version)
		return
	}
	md.PlainText("*Generated by deeptext*")
}

func inlineCode(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "'") + "`"
}

// escapeCell keeps pipes from splitting a table cell.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// truncateString shortens s to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
