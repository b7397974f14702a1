package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nao1215/deeptext/internal/fetch"
	"github.com/nao1215/deeptext/internal/markup"
	"github.com/nao1215/deeptext/internal/model"
)

// stubFetcher serves bodies from memory.
type stubFetcher struct {
	bodies map[string]string
	err    error
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (*model.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.bodies[url]
	if !ok {
		return nil, &fetch.FetchError{URL: url, StatusCode: http.StatusNotFound}
	}
	doc := model.NewDocument(url, body)
	doc.StatusCode = http.StatusOK
	return doc, nil
}

func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{bodies: map[string]string{
		"http://example.com/nested":    "<a>\n<b>\nfoo\n</b>\n</a>",
		"http://example.com/empty":     "<a>\n<b>\n</b>\n</a>",
		"http://example.com/malformed": "<a>\n<b>\nfoo\n</a>",
		"http://example.com/later":     "<a>\nx\n<b>\ny\n</b>\nz\n</a>",
		"http://example.com/selfclose": "<a>\n<br/>\nhi\n</a>",
	}}

	tests := []struct {
		name        string
		url         string
		strategy    markup.Strategy
		wantOutcome model.Outcome
		wantText    string
		wantDepth   int
		wantErr     error
	}{
		{
			name:        "finds nested text",
			url:         "example.com/nested",
			wantOutcome: model.OutcomeFound,
			wantText:    "foo",
			wantDepth:   2,
		},
		{
			name:        "reports empty",
			url:         "http://example.com/empty",
			wantOutcome: model.OutcomeEmpty,
			wantErr:     model.ErrNoText,
		},
		{
			name:        "rejects malformed",
			url:         "http://example.com/malformed",
			wantOutcome: model.OutcomeMalformed,
			wantErr:     model.ErrMalformed,
		},
		{
			name:        "counter keeps the deepest",
			url:         "http://example.com/later",
			wantOutcome: model.OutcomeFound,
			wantText:    "y",
			wantDepth:   2,
		},
		{
			name:        "self-closing does not nest",
			url:         "http://example.com/selfclose",
			wantOutcome: model.OutcomeFound,
			wantText:    "hi",
			wantDepth:   1,
		},
		{
			name:        "levels resets on shallower close",
			url:         "http://example.com/later",
			strategy:    markup.StrategyLevels,
			wantOutcome: model.OutcomeEmpty,
			wantErr:     model.ErrNoText,
		},
		{
			name:        "fetch failure",
			url:         "http://example.com/missing",
			wantOutcome: model.OutcomeFetchFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := DefaultPipeline(fetcher, tt.strategy)
			analysis, err := p.Analyze(context.Background(), tt.url)

			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
			if tt.wantOutcome == model.OutcomeFound && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if analysis.Outcome != tt.wantOutcome {
				t.Errorf("expected outcome %v, got %v", tt.wantOutcome, analysis.Outcome)
			}
			if analysis.DeepestText != tt.wantText {
				t.Errorf("expected text %q, got %q", tt.wantText, analysis.DeepestText)
			}
			if analysis.Depth != tt.wantDepth {
				t.Errorf("expected depth %d, got %d", tt.wantDepth, analysis.Depth)
			}
			if tt.wantErr != nil && !errors.Is(analysis.Err(), tt.wantErr) {
				t.Errorf("expected Err() %v, got %v", tt.wantErr, analysis.Err())
			}
		})
	}
}

func TestFetchStep(t *testing.T) {
	t.Parallel()

	t.Run("records status code of failed fetches", func(t *testing.T) {
		t.Parallel()

		analysis := model.NewAnalysis("http://example.com/missing")
		err := NewFetchStep(&stubFetcher{}).Do(context.Background(), analysis)

		var fe *fetch.FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("expected *fetch.FetchError, got %v", err)
		}
		if analysis.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", analysis.StatusCode)
		}
		if analysis.Outcome != model.OutcomeFetchFailed {
			t.Errorf("expected fetch_failed, got %v", analysis.Outcome)
		}
	})

	t.Run("rejects unsupported schemes before fetching", func(t *testing.T) {
		t.Parallel()

		fetcher := &stubFetcher{err: errors.New("should not be called")}
		analysis := model.NewAnalysis("ftp://example.com")
		err := NewFetchStep(fetcher).Do(context.Background(), analysis)

		if !errors.Is(err, fetch.ErrUnsupportedScheme) {
			t.Errorf("expected ErrUnsupportedScheme, got %v", err)
		}
	})

	t.Run("normalizes URL and attaches document", func(t *testing.T) {
		t.Parallel()

		fetcher := &stubFetcher{bodies: map[string]string{"http://example.com": "<p>\nhi\n</p>"}}
		analysis := model.NewAnalysis("example.com")
		if err := NewFetchStep(fetcher).Do(context.Background(), analysis); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if analysis.URL != "http://example.com" {
			t.Errorf("unexpected URL %q", analysis.URL)
		}
		if analysis.Document == nil || analysis.LineCount != 3 {
			t.Errorf("expected a 3-line document, got %+v", analysis.Document)
		}
		if analysis.BodyDigest == "" {
			t.Error("expected a body digest")
		}
	})
}

func TestStepsWithoutDocument(t *testing.T) {
	t.Parallel()

	steps := []Step{NewValidateStep(), NewTrackStep(markup.StrategyCounter)}
	for _, step := range steps {
		err := step.Do(context.Background(), model.NewAnalysis("http://example.com"))
		if !errors.Is(err, ErrNoDocument) {
			t.Errorf("%s: expected ErrNoDocument, got %v", step.Name(), err)
		}
	}
}

func TestValidateStepRecordsReason(t *testing.T) {
	t.Parallel()

	analysis := model.NewAnalysis("http://example.com")
	analysis.SetDocument(model.NewDocument(analysis.URL, "<a>\n<b>\n</a>"))

	err := NewValidateStep().Do(context.Background(), analysis)
	if !errors.Is(err, model.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if !strings.Contains(analysis.MalformedReason, "</a>") {
		t.Errorf("expected reason to name the tag, got %q", analysis.MalformedReason)
	}
}

func TestDefaultPipelineOverHTTP(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html>\n<head>\n<title>\nTitle\n</title>\n</head>\n<body>\n<div>\n<p>\nDeep\n</p>\n</div>\n</body>\n</html>\n"))
	}))
	defer srv.Close()

	client, err := fetch.NewClient()
	if err != nil {
		t.Fatal(err)
	}

	analysis, err := DefaultPipeline(client, markup.DefaultStrategy).Analyze(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.DeepestText != "Deep" {
		t.Errorf("expected %q, got %q", "Deep", analysis.DeepestText)
	}
	if analysis.Depth != 4 {
		t.Errorf("expected depth 4, got %d", analysis.Depth)
	}
	if analysis.Line != 10 {
		t.Errorf("expected line 10, got %d", analysis.Line)
	}
	if analysis.Strategy != "counter" {
		t.Errorf("expected strategy counter, got %q", analysis.Strategy)
	}
	want := []string{"fetch", "validate", "track"}
	for i, name := range analysis.PerformedSteps {
		if name != want[i] {
			t.Errorf("step %d: got %q, want %q", i, name, want[i])
		}
	}
}

func TestDefaultPipelineOversizedBody(t *testing.T) {
	t.Parallel()

	// Well formed, but longer than the client accepts.
	body := "<html>\n<body>\n<p>\ndeep\n</p>\n" + strings.Repeat("<br/>\n", 200) + "</body>\n</html>\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	if !markup.IsValid(body) {
		t.Fatal("test page must be well formed")
	}

	client, err := fetch.NewClient(fetch.WithMaxBodySize(512))
	if err != nil {
		t.Fatal(err)
	}

	analysis, err := DefaultPipeline(client, markup.DefaultStrategy).Analyze(context.Background(), srv.URL)
	if !errors.Is(err, fetch.ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
	if analysis.Outcome != model.OutcomeFetchFailed {
		t.Errorf("expected outcome %v, got %v", model.OutcomeFetchFailed, analysis.Outcome)
	}
	if errors.Is(err, model.ErrMalformed) {
		t.Error("oversized page must not be reported as malformed")
	}
}
