package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/deeptext/internal/model"
)

// mockStep implements Step for tests.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, analysis *model.Analysis) error
	callCount int
}

func (m *mockStep) Do(ctx context.Context, analysis *model.Analysis) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, analysis)
	}
	return nil
}

func (m *mockStep) Name() string {
	return m.name
}

func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if p.continueOnError {
			t.Error("expected continueOnError to default to false")
		}
		if p.logger == nil {
			t.Error("expected a default logger")
		}
	})

	t.Run("applies WithContinueOnError option", func(t *testing.T) {
		t.Parallel()

		p := New(WithContinueOnError(true))
		if !p.continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "first"})
	p.AddSteps(&mockStep{name: "second"}, &mockStep{name: "third"})

	if p.StepCount() != 3 {
		t.Fatalf("expected 3 steps, got %d", p.StepCount())
	}
	want := []string{"first", "second", "third"}
	for i, name := range p.StepNames() {
		if name != want[i] {
			t.Errorf("step %d: got %q, want %q", i, name, want[i])
		}
	}
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		p := New()
		for _, name := range []string{"step-1", "step-2"} {
			p.AddStep(&mockStep{
				name: name,
				doFunc: func(_ context.Context, _ *model.Analysis) error {
					order = append(order, name)
					return nil
				},
			})
		}

		analysis := model.NewAnalysis("http://example.com")
		if err := p.Execute(context.Background(), analysis); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(order) != 2 || order[0] != "step-1" || order[1] != "step-2" {
			t.Errorf("wrong execution order: %v", order)
		}
		if len(analysis.PerformedSteps) != 2 {
			t.Errorf("expected 2 performed steps, got %v", analysis.PerformedSteps)
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("step failed")
		second := &mockStep{name: "should-not-run"}

		p := New()
		p.AddStep(&mockStep{
			name: "failing-step",
			doFunc: func(_ context.Context, _ *model.Analysis) error {
				return wantErr
			},
		})
		p.AddStep(second)

		analysis := model.NewAnalysis("http://example.com")
		err := p.Execute(context.Background(), analysis)

		if !errors.Is(err, wantErr) {
			t.Errorf("expected %v, got %v", wantErr, err)
		}
		if second.callCount != 0 {
			t.Error("second step should not have been called")
		}
		if !errors.Is(analysis.Error, wantErr) {
			t.Errorf("expected error recorded in analysis, got %v", analysis.Error)
		}
		if analysis.ErrorMessage != "step failed" {
			t.Errorf("unexpected error message %q", analysis.ErrorMessage)
		}
	})

	t.Run("continues on error when configured", func(t *testing.T) {
		t.Parallel()

		first := errors.New("first")
		second := &mockStep{
			name: "fails-too",
			doFunc: func(_ context.Context, _ *model.Analysis) error {
				return errors.New("second")
			},
		}

		p := New(WithContinueOnError(true))
		p.AddStep(&mockStep{
			name: "failing-step",
			doFunc: func(_ context.Context, _ *model.Analysis) error {
				return first
			},
		})
		p.AddStep(second)

		analysis := model.NewAnalysis("http://example.com")
		if err := p.Execute(context.Background(), analysis); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
		if second.callCount != 1 {
			t.Error("second step should have been called")
		}
		if !errors.Is(analysis.Error, first) {
			t.Errorf("expected the first error to be kept, got %v", analysis.Error)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "should-not-run"}
		p := New()
		p.AddStep(step)

		analysis := model.NewAnalysis("http://example.com")
		err := p.Execute(ctx, analysis)

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Error("step should not have been called")
		}
		if analysis.Outcome != model.OutcomePending {
			t.Errorf("expected pending outcome, got %v", analysis.Outcome)
		}
	})

	t.Run("Analyze returns a populated analysis", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "noop"})

		analysis, err := p.Analyze(context.Background(), "http://example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if analysis.URL != "http://example.com" {
			t.Errorf("unexpected URL %q", analysis.URL)
		}
		if analysis.ID == "" {
			t.Error("expected an ID")
		}
	})
}
