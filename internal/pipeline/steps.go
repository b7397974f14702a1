package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/deeptext/internal/fetch"
	"github.com/nao1215/deeptext/internal/markup"
	"github.com/nao1215/deeptext/internal/model"
)

// ErrNoDocument is returned by steps that need a fetched document when
// none is attached to the analysis.
var ErrNoDocument = errors.New("no document to analyze")

// Fetcher retrieves a document. *fetch.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.Document, error)
}

// FetchStep normalizes the analysis URL and retrieves its document.
type FetchStep struct {
	fetcher Fetcher
}

// NewFetchStep creates a FetchStep.
func NewFetchStep(fetcher Fetcher) *FetchStep {
	return &FetchStep{fetcher: fetcher}
}

// Name returns "fetch".
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do fetches the document. Any failure sets OutcomeFetchFailed.
func (s *FetchStep) Do(ctx context.Context, analysis *model.Analysis) error {
	normalized, err := fetch.NormalizeURL(analysis.URL)
	if err != nil {
		analysis.Outcome = model.OutcomeFetchFailed
		return err
	}
	analysis.URL = normalized

	doc, err := s.fetcher.Fetch(ctx, normalized)
	if err != nil {
		analysis.Outcome = model.OutcomeFetchFailed
		var fe *fetch.FetchError
		if errors.As(err, &fe) {
			analysis.StatusCode = fe.StatusCode
		}
		return err
	}

	analysis.SetDocument(doc)
	return nil
}

// ValidateStep rejects documents whose tags do not balance.
type ValidateStep struct{}

// NewValidateStep creates a ValidateStep.
func NewValidateStep() *ValidateStep {
	return &ValidateStep{}
}

// Name returns "validate".
func (s *ValidateStep) Name() string {
	return "validate"
}

// Do validates the document body. A rejected body sets OutcomeMalformed
// and returns an error wrapping model.ErrMalformed.
func (s *ValidateStep) Do(_ context.Context, analysis *model.Analysis) error {
	if analysis.Document == nil {
		return ErrNoDocument
	}

	verdict := markup.Validate(analysis.Document.Body)
	if verdict.Valid {
		return nil
	}

	analysis.Outcome = model.OutcomeMalformed
	analysis.MalformedReason = verdict.String()
	return fmt.Errorf("%w: %s", model.ErrMalformed, verdict)
}

// TrackStep finds the deepest text of the document.
type TrackStep struct {
	tracker *markup.Tracker
}

// NewTrackStep creates a TrackStep using strategy.
func NewTrackStep(strategy markup.Strategy) *TrackStep {
	return &TrackStep{tracker: markup.NewTracker(strategy)}
}

// Name returns "track".
func (s *TrackStep) Name() string {
	return "track"
}

// Do records the deepest text and sets OutcomeFound. When the document has
// no nested text it sets OutcomeEmpty and returns model.ErrNoText.
func (s *TrackStep) Do(_ context.Context, analysis *model.Analysis) error {
	if analysis.Document == nil {
		return ErrNoDocument
	}

	analysis.Strategy = s.tracker.Strategy().String()

	result := s.tracker.Track(analysis.Document.Lines)
	if !result.Found() {
		analysis.Outcome = model.OutcomeEmpty
		return model.ErrNoText
	}

	analysis.Outcome = model.OutcomeFound
	analysis.DeepestText = result.Text
	analysis.Depth = result.Depth
	analysis.Line = result.Line
	return nil
}

// DefaultPipeline returns the fetch, validate and track pipeline.
// Validation always runs before tracking.
func DefaultPipeline(fetcher Fetcher, strategy markup.Strategy, opts ...Option) *Pipeline {
	p := New(opts...)
	p.AddSteps(
		NewFetchStep(fetcher),
		NewValidateStep(),
		NewTrackStep(strategy),
	)
	return p
}
