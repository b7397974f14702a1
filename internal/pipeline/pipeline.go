package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/deeptext/internal/model"
)

// Step is one stage of an analysis.
type Step interface {
	// Do runs the step. It records its findings in analysis and returns an
	// error when the analysis cannot go on.
	Do(ctx context.Context, analysis *model.Analysis) error

	// Name returns the step's name for logging.
	Name() string
}

// Pipeline executes steps in order.
type Pipeline struct {
	steps []Step

	logger *slog.Logger

	// continueOnError keeps executing after a failed step.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for step execution.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError runs the remaining steps after a failure. The first
// error is still recorded in the analysis.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends several steps.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs every step against analysis. Cancellation is checked before
// each step. It returns the first step error; with WithContinueOnError it
// returns nil and leaves the error in the analysis.
func (p *Pipeline) Execute(ctx context.Context, analysis *model.Analysis) error {
	start := time.Now()
	defer func() {
		analysis.Elapsed = time.Since(start)
	}()

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"url", analysis.URL,
				"reason", err,
			)
			analysis.Fail(err)
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", analysis.URL,
		)

		analysis.PerformedSteps = append(analysis.PerformedSteps, step.Name())

		if err := step.Do(ctx, analysis); err != nil {
			// Malformed input and missing text are ordinary results, so
			// they are not logged above Info.
			p.logger.Info("step failed",
				"step", step.Name(),
				"url", analysis.URL,
				"error", err,
			)

			if analysis.Error == nil {
				analysis.Fail(err)
			}
			if !p.continueOnError {
				return err
			}
			continue
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"url", analysis.URL,
		)
	}

	return nil
}

// Analyze creates an Analysis for url and runs the pipeline on it.
// The returned analysis is never nil.
func (p *Pipeline) Analyze(ctx context.Context, url string) (*model.Analysis, error) {
	analysis := model.NewAnalysis(url)
	err := p.Execute(ctx, analysis)
	return analysis, err
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
