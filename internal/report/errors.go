package report

import (
	"errors"
	"fmt"

	"github.com/sqreport/go/internal/sonar"
)

var (
	// ErrAborted indicates a remote call failed and the policy asked to stop the run
	ErrAborted = errors.New("report aborted")

	// ErrUnknownAction indicates a policy action name that is neither abort nor skip
	ErrUnknownAction = errors.New("unknown failure action")

	// ErrWrite indicates the report file could not be written
	ErrWrite = errors.New("report write failed")
)

// StepError records which step of a report build was aborted
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() []error {
	return []error{ErrAborted, e.Err}
}

// TimestampError is returned when a user timestamp does not match TimestampLayout.
// It is classified like any other malformed payload.
type TimestampError struct {
	Login string
	Field string
	Value string
	Err   error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("user %q: cannot parse %s %q: %v", e.Login, e.Field, e.Value, e.Err)
}

func (e *TimestampError) Unwrap() []error {
	return []error{sonar.ErrDecode, e.Err}
}

// WriteError wraps an I/O failure on the report file
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() []error {
	return []error{ErrWrite, e.Err}
}
