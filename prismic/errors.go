package prismic

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by GetByUID when no document matches.
	ErrNotFound = errors.New("prismic: document not found")

	// ErrMalformedResponse is returned when a response body does not match
	// the expected shape.
	ErrMalformedResponse = errors.New("prismic: malformed response")

	// ErrForeignCursor is returned by FetchPage when the cursor points at a
	// host other than the configured endpoint.
	ErrForeignCursor = errors.New("prismic: pagination cursor points to a foreign host")
)

// RequestError reports a failed round trip to the content repository:
// a transport failure or a non-2xx status.
type RequestError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("prismic: GET %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("prismic: GET %s: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
