package model

import (
	"fmt"
	"strings"
)

// Outcome describes how an analysis ended.
type Outcome int

const (
	// OutcomePending means the analysis has not finished yet.
	OutcomePending Outcome = iota

	// OutcomeFound means nested text was found.
	OutcomeFound

	// OutcomeEmpty means the document was well formed but no text line was
	// nested inside a tag.
	OutcomeEmpty

	// OutcomeMalformed means the validator rejected the document.
	OutcomeMalformed

	// OutcomeFetchFailed means the document could not be retrieved.
	OutcomeFetchFailed
)

// String returns the stable name of the outcome, used in JSON and in the
// history database.
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeFound:
		return "found"
	case OutcomeEmpty:
		return "empty"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeFetchFailed:
		return "fetch_failed"
	default:
		return "unknown"
	}
}

// ParseOutcome maps a name produced by String back to an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return OutcomePending, nil
	case "found":
		return OutcomeFound, nil
	case "empty":
		return OutcomeEmpty, nil
	case "malformed":
		return OutcomeMalformed, nil
	case "fetch_failed":
		return OutcomeFetchFailed, nil
	default:
		return OutcomePending, fmt.Errorf("unknown outcome %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Succeeded reports whether the outcome carries deepest text.
func (o Outcome) Succeeded() bool {
	return o == OutcomeFound
}
