package model

import (
	"encoding/hex"
	"time"

	"github.com/nao1215/deeptext/internal/markup"
	"golang.org/x/crypto/sha3"
)

// Document is a fetched HTML body. It is not modified after creation.
type Document struct {
	// URL is the address the body was fetched from.
	URL string

	// Body is the response body decoded to UTF-8.
	Body string

	// Lines is Body split into lines.
	Lines []string

	// StatusCode is the HTTP status of the response.
	StatusCode int

	// ContentType is the Content-Type header of the response.
	ContentType string

	// FetchedAt is when the response was received.
	FetchedAt time.Time
}

// NewDocument creates a Document for body and splits it into lines.
func NewDocument(url, body string) *Document {
	return &Document{
		URL:       url,
		Body:      body,
		Lines:     markup.SplitLines(body),
		FetchedAt: time.Now(),
	}
}

// Digest returns the hex-encoded SHA3-256 hash of the body.
// The history database stores it to tell whether a page changed between runs.
func (d *Document) Digest() string {
	sum := sha3.Sum256([]byte(d.Body))
	return hex.EncodeToString(sum[:])
}
