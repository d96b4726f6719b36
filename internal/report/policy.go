package report

import (
	"fmt"
	"strings"

	"github.com/sqreport/go/internal/sonar"
)

// Action is what a builder does when a remote call fails
type Action int

const (
	// Abort stops the whole run and returns what was gathered so far
	Abort Action = iota
	// Skip logs the failure and moves on to the next page, project or branch
	Skip
)

func (a Action) String() string {
	if a == Skip {
		return "skip"
	}
	return "abort"
}

// ParseAction converts "abort" or "skip" (any case) to an Action
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "abort":
		return Abort, nil
	case "skip":
		return Skip, nil
	default:
		return Abort, fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}

// Policy maps each failure class to an action
type Policy struct {
	Status    Action
	Transport Action
	Decode    Action
}

// DefaultPolicy aborts on non-200 responses and skips over network failures
// and malformed payloads.
func DefaultPolicy() Policy {
	return Policy{
		Status:    Abort,
		Transport: Skip,
		Decode:    Skip,
	}
}

// Decide returns the action for err. Errors outside the known classes,
// such as a cancelled context, always abort.
func (p Policy) Decide(err error) Action {
	switch sonar.Classify(err) {
	case sonar.ClassStatus:
		return p.Status
	case sonar.ClassTransport:
		return p.Transport
	case sonar.ClassDecode:
		return p.Decode
	default:
		return Abort
	}
}
