package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/deeptext/internal/model"
)

// JSONWriter prints analyses as JSON.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string

	// version, when set, wraps output in an envelope carrying it.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables indented output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint indents with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion wraps output in an envelope with the tool version.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter with compact output.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Envelope wraps one analysis with the tool version.
type Envelope struct {
	Version  string          `json:"version"`
	Analysis *model.Analysis `json:"analysis"`
}

// BatchEnvelope wraps batch results with the tool version and outcome
// counts keyed by outcome name.
type BatchEnvelope struct {
	Version  string            `json:"version,omitempty"`
	Summary  map[string]int    `json:"summary"`
	Analyses []*model.Analysis `json:"analyses"`
}

// Write prints analysis, wrapped in an Envelope when a version is set.
func (w *JSONWriter) Write(analysis *model.Analysis) (int, error) {
	if w.version == "" {
		return w.writeJSON(analysis)
	}
	return w.writeJSON(Envelope{Version: w.version, Analysis: analysis})
}

// WriteBatch prints a BatchEnvelope.
func (w *JSONWriter) WriteBatch(analyses []*model.Analysis) (int, error) {
	summary := make(map[string]int)
	for o, n := range countOutcomes(analyses) {
		summary[o.String()] = n
	}
	if analyses == nil {
		analyses = []*model.Analysis{}
	}
	return w.writeJSON(BatchEnvelope{
		Version:  w.version,
		Summary:  summary,
		Analyses: analyses,
	})
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
