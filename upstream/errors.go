package upstream

import "fmt"

// ErrorKind is the stable classification tag attached to every failed
// upstream exchange. Tags surface verbatim in tool results, so they
// must never change meaning between releases.
type ErrorKind string

const (
	// KindNotFound means the upstream confirmed the entity does not exist (404)
	KindNotFound ErrorKind = "not_found"

	// KindUpstream means the upstream was reachable but returned an unexpected status
	KindUpstream ErrorKind = "upstream_error"

	// KindTransport means the upstream was unreachable or the request timed out
	KindTransport ErrorKind = "transport_error"

	// KindMalformed means a success response did not match the expected shape
	KindMalformed ErrorKind = "malformed_upstream_response"
)

// Error classifies a failed exchange with crates.io or docs.rs
type Error struct {
	Kind       ErrorKind
	StatusCode int    // HTTP status, when one was received
	Message    string // human-readable detail, may include a truncated body
	Err        error  // underlying transport or decode error, if any
}

var _ error = &Error{}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func notFoundError(format string, args ...interface{}) *Error {
	return &Error{
		Kind:       KindNotFound,
		StatusCode: 404,
		Message:    fmt.Sprintf(format, args...),
	}
}

func transportError(err error, url string) *Error {
	return &Error{
		Kind:    KindTransport,
		Message: fmt.Sprintf("request to %s failed: %v", url, err),
		Err:     err,
	}
}

func upstreamError(status int, body []byte, url string) *Error {
	return &Error{
		Kind:       KindUpstream,
		StatusCode: status,
		Message:    fmt.Sprintf("unexpected status %d from %s: %s", status, url, truncate(string(body), 256)),
	}
}

func malformedError(err error, detail string) *Error {
	return &Error{
		Kind:    KindMalformed,
		Message: detail,
		Err:     err,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
