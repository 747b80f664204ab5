package opennotify

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Sentinels matched by the typed errors below, for use with errors.Is.
var (
	ErrTransport  = errors.New("open-notify transport failure")
	ErrParse      = errors.New("open-notify response could not be parsed")
	ErrAPI        = errors.New("open-notify reported failure")
	ErrValidation = errors.New("invalid open-notify request")

	// ErrCountMismatch is wrapped by a ParseError when an astros payload declares
	// a number that differs from the length of its people list.
	ErrCountMismatch = errors.New("people count does not match declared number")
)

// TransportError reports a failure to complete the HTTP exchange (DNS, dial,
// timeout, cancelled context). The underlying error is preserved verbatim.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("open-notify %s: transport: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error        { return e.Err }
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ParseError reports a body that is not JSON or does not have the expected shape.
// Body holds the raw payload for diagnosis.
type ParseError struct {
	Endpoint   string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("open-notify %s: parse response (status %d): %v; body: %s",
		e.Endpoint, e.StatusCode, e.Err, bodySnippet(e.Body))
}

func (e *ParseError) Unwrap() error        { return e.Err }
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// APIError reports a well-formed envelope whose message is not "success".
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Reason     string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("open-notify %s: message %q (status %d): %s", e.Endpoint, e.Message, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("open-notify %s: message %q (status %d)", e.Endpoint, e.Message, e.StatusCode)
}

func (e *APIError) Is(target error) bool { return target == ErrAPI }

// ValidationError reports caller input rejected before any request was issued.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func bodySnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
