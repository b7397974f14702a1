package markup

import (
	"fmt"
	"strings"
)

// Strategy selects how the Tracker follows nesting depth.
type Strategy int

const (
	// StrategyCounter keeps one depth counter: +1 for an opening tag line,
	// -1 for a closing tag line. Text recorded at the deepest point is never
	// discarded, so text after a deep child never replaces it.
	StrategyCounter Strategy = iota

	// StrategyLevels keeps a stack of levels. An opening tag line pushes
	// deepest+1 and a closing tag line pops. When the popped level is
	// shallower than the deepest level recorded so far, the deepest level
	// drops to it and the recorded text is discarded. Tags opened before
	// any text share level 1, so "<a>\n<b>\nfoo" reports depth 1.
	StrategyLevels
)

// DefaultStrategy is the strategy used when none is configured.
const DefaultStrategy = StrategyCounter

// String returns the configuration name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyCounter:
		return "counter"
	case StrategyLevels:
		return "levels"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a configuration name to a Strategy.
// The empty string selects DefaultStrategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "counter":
		return StrategyCounter, nil
	case "levels":
		return StrategyLevels, nil
	default:
		return DefaultStrategy, fmt.Errorf("unknown depth strategy %q (want counter or levels)", name)
	}
}

// Result is what a Tracker found.
type Result struct {
	// Text is the trimmed text line recorded at the deepest level.
	// It is empty when no text line was nested inside a tag.
	Text string

	// Depth is the nesting level Text was recorded at.
	Depth int

	// Line is the 1-based line number of Text, or 0 when Text is empty.
	Line int
}

// Found reports whether any nested text was recorded.
func (r Result) Found() bool {
	return r.Text != ""
}

// Tracker finds the text line at the deepest nesting level.
// A Tracker carries only its strategy; every call to Track starts from a
// fresh state, so one Tracker can be shared freely.
type Tracker struct {
	strategy Strategy
}

// NewTracker returns a Tracker using the given strategy.
func NewTracker(strategy Strategy) *Tracker {
	return &Tracker{strategy: strategy}
}

// Strategy returns the strategy the tracker uses.
func (t *Tracker) Strategy() Strategy {
	return t.strategy
}

// DeepestText returns the text found at the deepest nesting level,
// or "" when there is none.
func (t *Tracker) DeepestText(lines []string) string {
	return t.Track(lines).Text
}

// Track scans lines in order and returns the deepest text with its position.
//
// Each line is trimmed and blank lines are skipped. A line starting with
// "</" closes a level; any other line starting with "<" opens one unless it
// ends with "/>". All remaining lines are text. Text after a tag on the same
// line is part of the tag line and is not seen.
func (t *Tracker) Track(lines []string) Result {
	if t.strategy == StrategyLevels {
		return trackLevels(lines)
	}
	return trackCounter(lines)
}

func trackCounter(lines []string) Result {
	var (
		depth int
		res   Result
	)

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		switch classifyLine(trimmed) {
		case lineClose:
			depth--
		case lineOpen:
			depth++
		case lineSelfClosing:
		case lineText:
			if depth > res.Depth {
				res = Result{Text: trimmed, Depth: depth, Line: i + 1}
			}
		}
	}

	return res
}

func trackLevels(lines []string) Result {
	var (
		levels stack[int]
		res    Result
	)

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		switch classifyLine(trimmed) {
		case lineClose:
			level, ok := levels.pop()
			if ok && level < res.Depth {
				res = Result{Depth: level}
			}
		case lineOpen:
			levels.push(res.Depth + 1)
		case lineSelfClosing:
		case lineText:
			top, _ := levels.peek()
			if top > res.Depth {
				res = Result{Text: trimmed, Depth: top, Line: i + 1}
			}
		}
	}

	return res
}

type lineKind int

const (
	lineText lineKind = iota
	lineOpen
	lineClose
	lineSelfClosing
)

// classifyLine looks only at how a trimmed, non-empty line starts and ends.
func classifyLine(trimmed string) lineKind {
	switch {
	case !strings.HasPrefix(trimmed, "<"):
		return lineText
	case strings.HasPrefix(trimmed, "</"):
		return lineClose
	case strings.HasSuffix(trimmed, "/>"):
		return lineSelfClosing
	default:
		return lineOpen
	}
}

// SplitLines splits a document body into lines. "\n", "\r\n" and a lone
// "\r" all end a line. A trailing line break does not produce an empty
// final line.
func SplitLines(raw string) []string {
	if raw == "" {
		return nil
	}

	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	raw = strings.TrimSuffix(raw, "\n")

	return strings.Split(raw, "\n")
}
