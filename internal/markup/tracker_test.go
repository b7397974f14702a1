package markup

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// lines builds a document with one token per line.
func lines(tokens ...string) []string {
	return tokens
}

// TestTrackerCounter tests the default counter strategy.
func TestTrackerCounter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		lines []string
		want  Result
	}{
		{
			name:  "two levels of nesting",
			lines: lines("<a>", "<b>", "foo", "</b>", "</a>"),
			want:  Result{Text: "foo", Depth: 2, Line: 3},
		},
		{
			name:  "sibling after deep child does not replace deepest text",
			lines: lines("<a>", "x", "<b>", "y", "</b>", "z", "</a>"),
			want:  Result{Text: "y", Depth: 2, Line: 4},
		},
		{
			name:  "no text lines",
			lines: lines("<a>", "<b>", "</b>", "</a>"),
			want:  Result{},
		},
		{
			name:  "text outside every tag is ignored",
			lines: lines("loose text", "<a>", "</a>"),
			want:  Result{},
		},
		{
			name:  "first text at the deepest level wins",
			lines: lines("<a>", "<b>", "first", "second", "</b>", "</a>"),
			want:  Result{Text: "first", Depth: 2, Line: 3},
		},
		{
			name:  "deeper branch later in the document",
			lines: lines("<a>", "<b>", "shallow", "</b>", "<c>", "<d>", "<e>", "deep", "</e>", "</d>", "</c>", "</a>"),
			want:  Result{Text: "deep", Depth: 4, Line: 8},
		},
		{
			name:  "self-closing tags do not change depth",
			lines: lines("<a>", "<br/>", "<img src=\"x.png\" />", "text", "</a>"),
			want:  Result{Text: "text", Depth: 1, Line: 4},
		},
		{
			name:  "lines are trimmed and blank lines skipped",
			lines: lines("<html>", "", "   <body>", "\t\t  hello world  ", "   </body>", "</html>"),
			want:  Result{Text: "hello world", Depth: 2, Line: 4},
		},
		{
			name:  "text after a tag on the same line is invisible",
			lines: lines("<a>", "<b>inline text</b>", "outer", "</a>"),
			want:  Result{Text: "outer", Depth: 2, Line: 3},
		},
		{
			name:  "empty input",
			lines: nil,
			want:  Result{},
		},
	}

	tracker := NewTracker(StrategyCounter)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tracker.Track(tt.lines)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Track mismatch (-want +got):\n%s", diff)
			}
			if text := tracker.DeepestText(tt.lines); text != tt.want.Text {
				t.Errorf("DeepestText() = %q, want %q", text, tt.want.Text)
			}
		})
	}
}

// TestTrackerLevels tests the level-stack strategy, which discards the
// recorded text when a shallower level closes.
func TestTrackerLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		lines []string
		want  Result
	}{
		{
			name:  "sibling after deep child resets on shallower close",
			lines: lines("<a>", "x", "<b>", "y", "</b>", "z", "</a>"),
			want:  Result{Depth: 1},
		},
		{
			name:  "levels grow from the deepest recorded level",
			lines: lines("<a>", "<b>", "foo", "</b>", "</a>"),
			want:  Result{Text: "foo", Depth: 1, Line: 3},
		},
		{
			name:  "no text lines",
			lines: lines("<a>", "<b>", "</b>", "</a>"),
			want:  Result{},
		},
		{
			name:  "closing tag with an empty stack is ignored",
			lines: lines("</a>", "</b>", "<c>", "text", "</c>"),
			want:  Result{Text: "text", Depth: 1, Line: 4},
		},
		{
			name:  "text outside every tag is ignored",
			lines: lines("loose", "<a>", "</a>"),
			want:  Result{},
		},
		{
			name:  "self-closing tags are not pushed",
			lines: lines("<a>", "<br/>", "text", "</a>"),
			want:  Result{Text: "text", Depth: 1, Line: 3},
		},
	}

	tracker := NewTracker(StrategyLevels)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tracker.Track(tt.lines)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Track mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestTrackerStrategiesDiverge pins the inputs where the two strategies
// disagree, so a change of default is visible. The levels strategy pushes
// deepest+1 rather than the enclosing level+1, so nested tags above the
// first text share one level.
func TestTrackerStrategiesDiverge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		doc         string
		wantCounter Result
		wantLevels  Result
	}{
		{
			name:        "text after a deep child",
			doc:         "<a>\nx\n<b>\ny\n</b>\nz\n</a>\n",
			wantCounter: Result{Text: "y", Depth: 2, Line: 4},
			wantLevels:  Result{Depth: 1},
		},
		{
			name:        "nested tags before the first text",
			doc:         "<a>\n<b>\nfoo\n</b>\n</a>\n",
			wantCounter: Result{Text: "foo", Depth: 2, Line: 3},
			wantLevels:  Result{Text: "foo", Depth: 1, Line: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := SplitLines(tt.doc)
			if diff := cmp.Diff(tt.wantCounter, NewTracker(StrategyCounter).Track(doc)); diff != "" {
				t.Errorf("counter strategy mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantLevels, NewTracker(StrategyLevels).Track(doc)); diff != "" {
				t.Errorf("levels strategy mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantCounter, NewTracker(DefaultStrategy).Track(doc)); diff != "" {
				t.Errorf("default strategy should be counter (-want +got):\n%s", diff)
			}
		})
	}
}

// TestTrackerIdempotent checks that a Tracker keeps no state between calls.
func TestTrackerIdempotent(t *testing.T) {
	t.Parallel()

	doc := SplitLines("<html>\n<body>\n<div>\ndeep\n</div>\n</body>\n</html>")

	for _, strategy := range []Strategy{StrategyCounter, StrategyLevels} {
		tracker := NewTracker(strategy)
		first := tracker.Track(doc)
		second := tracker.Track(doc)
		if first != second {
			t.Errorf("%s: first run %+v, second run %+v", strategy, first, second)
		}
	}
}

// TestParseStrategy tests strategy name parsing.
func TestParseStrategy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    Strategy
		wantErr bool
	}{
		{name: "", want: StrategyCounter},
		{name: "counter", want: StrategyCounter},
		{name: " Counter ", want: StrategyCounter},
		{name: "levels", want: StrategyLevels},
		{name: "level", wantErr: true},
		{name: "stack-of-doom", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseStrategy(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStrategy(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseStrategy(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	if StrategyCounter.String() != "counter" || StrategyLevels.String() != "levels" {
		t.Error("strategy names do not round-trip")
	}
}

// TestSplitLines tests line splitting on the supported line endings.
func TestSplitLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: nil},
		{name: "unix", raw: "a\nb\nc", want: []string{"a", "b", "c"}},
		{name: "trailing newline", raw: "a\nb\n", want: []string{"a", "b"}},
		{name: "windows", raw: "a\r\nb\r\n", want: []string{"a", "b"}},
		{name: "old mac", raw: "a\rb", want: []string{"a", "b"}},
		{name: "blank lines kept", raw: "a\n\nb", want: []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, SplitLines(tt.raw)); diff != "" {
				t.Errorf("SplitLines(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

// TestValidateThenTrack runs the two components in sequence the way the
// analysis pipeline does.
func TestValidateThenTrack(t *testing.T) {
	t.Parallel()

	t.Run("valid document yields deepest text", func(t *testing.T) {
		t.Parallel()

		doc := strings.Join([]string{"<a>", "<b>", "foo", "</b>", "</a>"}, "\n")
		if !IsValid(doc) {
			t.Fatal("expected document to be valid")
		}
		if got := NewTracker(DefaultStrategy).DeepestText(SplitLines(doc)); got != "foo" {
			t.Errorf("got %q, want %q", got, "foo")
		}
	})

	t.Run("unbalanced document is rejected before tracking", func(t *testing.T) {
		t.Parallel()

		doc := strings.Join([]string{"<a>", "<b>", "text", "</a>"}, "\n")
		if IsValid(doc) {
			t.Fatal("expected document to be invalid")
		}
		// The tracker alone would still report text, which is why the
		// validator has to run first.
		if got := NewTracker(DefaultStrategy).DeepestText(SplitLines(doc)); got != "text" {
			t.Errorf("got %q, want %q", got, "text")
		}
	})
}
