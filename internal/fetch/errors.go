package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// FetchError is returned when a document cannot be retrieved.
// Exactly one of StatusCode and Err is set: StatusCode for a response other
// than 200 OK, Err for a transport failure or an unreadable body.
type FetchError struct { //nolint:revive // fetch.FetchError reads better than fetch.Error at call sites
	// URL is the requested address.
	URL string

	// StatusCode is the HTTP status of a non-200 response.
	StatusCode int

	// Err is the underlying transport or body error.
	Err error
}

// Error implements error.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s: unexpected status %d %s",
			e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client configuration errors.
var (
	// ErrInvalidProxyAddress is returned when a proxy address is not "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme: only http and https are allowed")

	// ErrEmptyURL is returned when no URL is given.
	ErrEmptyURL = errors.New("empty URL")

	// ErrBodyTooLarge is returned when a response body exceeds the
	// configured maximum size.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTorNotRunning is returned when a client is requested from an
	// embedded Tor daemon that has not been started.
	ErrTorNotRunning = errors.New("embedded Tor daemon is not running")
)
