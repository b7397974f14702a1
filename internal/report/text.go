package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/deeptext/internal/model"
)

// TextWriter prints plain text.
//
// Write prints only the deepest text followed by a newline, and nothing at
// all when no text was found; callers report failures on stderr. With
// WithVerbose it prints a short summary of every analysis instead.
type TextWriter struct {
	baseWriter

	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithVerbose adds URL, depth and line details.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write prints analysis.
func (w *TextWriter) Write(a *model.Analysis) (int, error) {
	if !w.verbose {
		if a.Outcome != model.OutcomeFound {
			return 0, nil
		}
		return fmt.Fprintln(w.output, a.DeepestText)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "URL:      %s\n", a.URL)
	fmt.Fprintf(&sb, "Outcome:  %s\n", OutcomeLabel(a.Outcome))
	if a.Strategy != "" {
		fmt.Fprintf(&sb, "Strategy: %s\n", a.Strategy)
	}
	if a.Outcome == model.OutcomeFound {
		fmt.Fprintf(&sb, "Depth:    %d\n", a.Depth)
		fmt.Fprintf(&sb, "Line:     %d of %d\n", a.Line, a.LineCount)
		fmt.Fprintf(&sb, "Text:     %s\n", a.DeepestText)
	} else {
		fmt.Fprintf(&sb, "Detail:   %s\n", detail(a))
	}
	return io.WriteString(w.output, sb.String())
}

// WriteBatch prints one tab separated line per analysis:
// URL, outcome and the text or failure reason.
func (w *TextWriter) WriteBatch(analyses []*model.Analysis) (int, error) {
	var sb strings.Builder
	for _, a := range analyses {
		fmt.Fprintf(&sb, "%s\t%s\t%s\n", a.URL, a.Outcome, detail(a))
	}

	if w.verbose {
		counts := countOutcomes(analyses)
		parts := make([]string, 0, len(outcomeOrder))
		for _, o := range outcomeOrder {
			if counts[o] > 0 {
				parts = append(parts, fmt.Sprintf("%s=%d", o, counts[o]))
			}
		}
		fmt.Fprintf(&sb, "\n%d analyzed: %s\n", len(analyses), strings.Join(parts, " "))
	}

	return io.WriteString(w.output, sb.String())
}
