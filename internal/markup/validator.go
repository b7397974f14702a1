package markup

import (
	"fmt"
	"strings"
)

// Reason tells why a document was rejected.
type Reason int

const (
	// ReasonNone means the document is well formed.
	ReasonNone Reason = iota

	// ReasonUnterminatedTag means a '<' was never followed by '>'.
	ReasonUnterminatedTag

	// ReasonUnexpectedClose means a closing tag arrived with no open tag.
	ReasonUnexpectedClose

	// ReasonMismatchedClose means a closing tag did not match the innermost open tag.
	ReasonMismatchedClose

	// ReasonUnclosedTags means tags were still open at the end of the document.
	ReasonUnclosedTags
)

// String returns a short description of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "well formed"
	case ReasonUnterminatedTag:
		return "unterminated tag"
	case ReasonUnexpectedClose:
		return "closing tag without opening tag"
	case ReasonMismatchedClose:
		return "mismatched closing tag"
	case ReasonUnclosedTags:
		return "unclosed tags"
	default:
		return "unknown"
	}
}

// Verdict is the result of Validate.
type Verdict struct {
	// Valid is true when every opening tag was closed in order.
	Valid bool

	// Reason is ReasonNone for valid documents.
	Reason Reason

	// Offset is the byte offset of the '<' that caused the rejection,
	// or -1 when the rejection was only detected at the end of input.
	Offset int

	// Tag is the name of the offending closing tag for ReasonUnexpectedClose
	// and ReasonMismatchedClose.
	Tag string

	// Expected is the innermost open tag when a closing tag did not match it.
	Expected string

	// Open lists the tags left open, outermost first, for ReasonUnclosedTags.
	Open []string
}

// String describes the verdict in one line.
func (v Verdict) String() string {
	switch v.Reason {
	case ReasonNone:
		return v.Reason.String()
	case ReasonUnterminatedTag:
		return fmt.Sprintf("%s at offset %d", v.Reason, v.Offset)
	case ReasonUnexpectedClose:
		return fmt.Sprintf("%s </%s> at offset %d", v.Reason, v.Tag, v.Offset)
	case ReasonMismatchedClose:
		return fmt.Sprintf("%s </%s> at offset %d, expected </%s>", v.Reason, v.Tag, v.Offset, v.Expected)
	case ReasonUnclosedTags:
		return fmt.Sprintf("%s: %s", v.Reason, strings.Join(v.Open, ", "))
	default:
		return v.Reason.String()
	}
}

// IsValid reports whether every opening tag in raw has a matching closing
// tag in the right order.
func IsValid(raw string) bool {
	return Validate(raw).Valid
}

// Validate checks the tag balance of raw and returns a verdict that says
// where and why it failed. It stops at the first problem.
func Validate(raw string) Verdict {
	var open stack[string]

	for i := 0; i < len(raw); {
		lt := strings.IndexByte(raw[i:], '<')
		if lt < 0 {
			break
		}
		lt += i

		gt := strings.IndexByte(raw[lt+1:], '>')
		if gt < 0 {
			return Verdict{Reason: ReasonUnterminatedTag, Offset: lt}
		}
		gt += lt + 1
		i = gt + 1

		tag, ok := ParseTag(raw[lt+1 : gt])
		if !ok {
			continue
		}

		switch tag.Kind {
		case OpeningTag:
			open.push(tag.Name)
		case ClosingTag:
			top, ok := open.pop()
			if !ok {
				return Verdict{Reason: ReasonUnexpectedClose, Offset: lt, Tag: tag.Name}
			}
			if top != tag.Name {
				return Verdict{Reason: ReasonMismatchedClose, Offset: lt, Tag: tag.Name, Expected: top}
			}
		case SelfClosingTag:
		}
	}

	if open.len() > 0 {
		return Verdict{Reason: ReasonUnclosedTags, Offset: -1, Open: open.snapshot()}
	}
	return Verdict{Valid: true, Reason: ReasonNone, Offset: -1}
}
