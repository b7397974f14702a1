package model

import (
	"time"

	"github.com/google/uuid"
)

// Analysis is the record of one analysis of one URL.
// Pipeline steps fill it in as they run; reports and the history database
// read it afterwards.
type Analysis struct {
	// ID identifies the analysis across reports and history.
	ID string `json:"id"`

	// URL is the analyzed address after normalization.
	URL string `json:"url"`

	// DateAnalyzed is when the analysis started.
	DateAnalyzed time.Time `json:"date_analyzed"`

	// Strategy is the name of the depth strategy used.
	Strategy string `json:"strategy"`

	// Outcome tells how the analysis ended.
	Outcome Outcome `json:"outcome"`

	// DeepestText is the text found at the deepest nesting level.
	DeepestText string `json:"deepest_text,omitempty"`

	// Depth is the nesting level DeepestText was found at.
	Depth int `json:"depth"`

	// Line is the 1-based line number of DeepestText in the body.
	Line int `json:"line,omitempty"`

	// MalformedReason describes why validation failed.
	MalformedReason string `json:"malformed_reason,omitempty"`

	// StatusCode is the HTTP status of the response, if one was received.
	StatusCode int `json:"status_code,omitempty"`

	// ContentType is the Content-Type of the response.
	ContentType string `json:"content_type,omitempty"`

	// BodyDigest is the SHA3-256 digest of the body.
	BodyDigest string `json:"body_digest,omitempty"`

	// LineCount is the number of lines in the body.
	LineCount int `json:"line_count"`

	// Elapsed is how long the analysis took.
	Elapsed time.Duration `json:"elapsed"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error is the error that ended the analysis, if any.
	// It is not serialized; ErrorMessage carries its text.
	Error error `json:"-"`

	// ErrorMessage is the text of Error.
	ErrorMessage string `json:"error,omitempty"`

	// Document is the fetched document. It is kept in memory only.
	Document *Document `json:"-"`
}

// NewAnalysis creates a pending Analysis for url.
func NewAnalysis(url string) *Analysis {
	return &Analysis{
		ID:           uuid.New().String(),
		URL:          url,
		DateAnalyzed: time.Now(),
		Outcome:      OutcomePending,
	}
}

// SetDocument attaches a fetched document and copies its metadata.
func (a *Analysis) SetDocument(doc *Document) {
	a.Document = doc
	a.StatusCode = doc.StatusCode
	a.ContentType = doc.ContentType
	a.BodyDigest = doc.Digest()
	a.LineCount = len(doc.Lines)
}

// Fail records err as the reason the analysis stopped.
func (a *Analysis) Fail(err error) {
	a.Error = err
	if err != nil {
		a.ErrorMessage = err.Error()
	}
}

// Err returns the error that matches the outcome: nil for found text,
// ErrNoText, ErrMalformed, or the stored error for failed fetches.
func (a *Analysis) Err() error {
	switch a.Outcome {
	case OutcomeFound:
		return nil
	case OutcomeEmpty:
		return ErrNoText
	case OutcomeMalformed:
		return ErrMalformed
	default:
		return a.Error
	}
}
