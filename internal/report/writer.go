package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/deeptext/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Writer renders analyses to an output.
type Writer interface {
	// Write renders one analysis and returns the bytes written.
	Write(analysis *model.Analysis) (int, error)

	// WriteBatch renders the results of a batch run.
	WriteBatch(analyses []*model.Analysis) (int, error)
}

// Format selects a Writer implementation.
type Format int

const (
	// FormatText is plain text.
	FormatText Format = iota
	// FormatJSON is JSON.
	FormatJSON
	// FormatMarkdown is GitHub flavored Markdown.
	FormatMarkdown
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	case FormatMarkdown:
		return "markdown"
	default:
		return "unknown"
	}
}

// New returns a Writer for format. version is embedded in JSON and
// Markdown output.
func New(format Format, output io.Writer, version string) Writer {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint(), WithVersion(version))
	case FormatMarkdown:
		return NewMarkdownWriter(output, version)
	default:
		return NewTextWriter(output)
	}
}

// MultiWriter writes to several Writers in turn and stops at the first
// error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a MultiWriter.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders analysis with every writer.
func (m *MultiWriter) Write(analysis *model.Analysis) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(analysis)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteBatch renders analyses with every writer.
func (m *MultiWriter) WriteBatch(analyses []*model.Analysis) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteBatch(analyses)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

var titleCaser = cases.Title(language.English)

// OutcomeLabel returns a human readable outcome, e.g. "Fetch Failed".
func OutcomeLabel(o model.Outcome) string {
	return titleCaser.String(strings.ReplaceAll(o.String(), "_", " "))
}

// detail returns the text of a found analysis, or why there is none.
func detail(a *model.Analysis) string {
	switch a.Outcome {
	case model.OutcomeFound:
		return a.DeepestText
	case model.OutcomeMalformed:
		if a.MalformedReason != "" {
			return fmt.Sprintf("%s: %s", model.ErrMalformed, a.MalformedReason)
		}
		return model.ErrMalformed.Error()
	case model.OutcomeEmpty:
		return model.ErrNoText.Error()
	default:
		if a.ErrorMessage != "" {
			return a.ErrorMessage
		}
		return "-"
	}
}

// countOutcomes tallies analyses by outcome.
func countOutcomes(analyses []*model.Analysis) map[model.Outcome]int {
	counts := make(map[model.Outcome]int)
	for _, a := range analyses {
		counts[a.Outcome]++
	}
	return counts
}

// outcomeOrder is the display order of outcomes.
var outcomeOrder = []model.Outcome{
	model.OutcomeFound,
	model.OutcomeEmpty,
	model.OutcomeMalformed,
	model.OutcomeFetchFailed,
	model.OutcomePending,
}
