package sonar

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedStatus indicates the server answered with a status other than 200
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrTransport indicates the request could not be sent or the body could not be read
	ErrTransport = errors.New("transport failure")

	// ErrDecode indicates a response payload could not be decoded
	ErrDecode = errors.New("malformed response payload")

	// ErrInvalidBaseURL indicates the configured server URL cannot be used
	ErrInvalidBaseURL = errors.New("invalid server URL")
)

// ErrorClass groups remote call failures so callers can apply a policy per class
type ErrorClass int

const (
	// ClassNone is returned for a nil error
	ClassNone ErrorClass = iota
	// ClassStatus covers non-200 responses
	ClassStatus
	// ClassTransport covers network and I/O failures
	ClassTransport
	// ClassDecode covers payloads that could not be parsed
	ClassDecode
	// ClassOther covers everything else, including context cancellation
	ClassOther
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassStatus:
		return "status"
	case ClassTransport:
		return "transport"
	case ClassDecode:
		return "decode"
	default:
		return "other"
	}
}

// StatusError is returned when a request completes with a status other than 200
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d", e.URL, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// TransportError wraps a network or body read failure
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// DecodeError wraps a failure to interpret a response payload
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

// Classify reports which class of failure err belongs to
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, ErrUnexpectedStatus):
		return ClassStatus
	case errors.Is(err, ErrDecode):
		return ClassDecode
	case errors.Is(err, ErrTransport):
		return ClassTransport
	default:
		return ClassOther
	}
}
