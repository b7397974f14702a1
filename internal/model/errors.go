package model

import "errors"

// Analysis result errors.
// These are returned for documents that were fetched but yielded no text,
// so callers can tell the two cases apart with errors.Is.
var (
	// ErrMalformed is returned when the tag balance check rejects a document.
	ErrMalformed = errors.New("malformed HTML")

	// ErrNoText is returned when a well-formed document has no nested text.
	ErrNoText = errors.New("no text content available")
)
