package markup

import (
	"strings"
	"unicode"
)

// TagKind classifies a tag token.
type TagKind int

const (
	// OpeningTag is a tag such as <div> or <p class="x">.
	OpeningTag TagKind = iota

	// ClosingTag is a tag such as </div>.
	ClosingTag

	// SelfClosingTag is a tag such as <br/> or <img src="a.png" />.
	SelfClosingTag
)

// String returns the name of the kind.
func (k TagKind) String() string {
	switch k {
	case OpeningTag:
		return "opening"
	case ClosingTag:
		return "closing"
	case SelfClosingTag:
		return "self-closing"
	default:
		return "unknown"
	}
}

// Tag is one token found between '<' and '>'.
type Tag struct {
	// Kind is the classification of the token.
	Kind TagKind

	// Name is the tag name, taken verbatim (no case folding).
	Name string
}

// ParseTag classifies the content found between '<' and '>'.
// The content is trimmed first. ok is false when nothing is left,
// as for a stray "<>".
func ParseTag(content string) (tag Tag, ok bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Tag{}, false
	}

	if rest, found := strings.CutPrefix(content, "/"); found {
		return Tag{Kind: ClosingTag, Name: strings.TrimSpace(rest)}, true
	}

	if strings.HasSuffix(content, "/") {
		return Tag{Kind: SelfClosingTag, Name: tagName(strings.TrimSuffix(content, "/"))}, true
	}

	return Tag{Kind: OpeningTag, Name: tagName(content)}, true
}

// tagName returns the text up to the first whitespace, or all of s if there is none.
func tagName(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return s[:i]
	}
	return s
}
