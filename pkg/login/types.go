// Package login implements a randomized UI check of a web login form.
//
// Each run draws one credential record from a Catalog and one
// SubmissionMethod, drives a browser Session through the login flow and
// verifies that the page reflects the expected outcome.
package login

// SubmissionMethod selects how the credential form is submitted.
type SubmissionMethod int

const (
	// ProgrammaticSubmit invokes the form's native submit action.
	ProgrammaticSubmit SubmissionMethod = iota
	// ClickButton simulates a user click on the submit control.
	ClickButton
)

// String returns a string representation of the SubmissionMethod.
func (m SubmissionMethod) String() string {
	switch m {
	case ProgrammaticSubmit:
		return "ProgrammaticSubmit"
	case ClickButton:
		return "ClickButton"
	default:
		return "Unknown"
	}
}

// State is a step of a single run.
type State int

const (
	StateInit State = iota
	StateSessionOpen
	StateNavigated
	StateCredentialsEntered
	StateSubmitted
	StateVerified
	StateClosed
	// StateFailed is a pseudo-state entered from any of StateNavigated
	// through StateVerified. A failed run still ends in StateClosed.
	StateFailed
)

// String returns a string representation of the State.
func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateSessionOpen:
		return "SESSION_OPEN"
	case StateNavigated:
		return "NAVIGATED"
	case StateCredentialsEntered:
		return "CREDENTIALS_ENTERED"
	case StateSubmitted:
		return "SUBMITTED"
	case StateVerified:
		return "VERIFIED"
	case StateClosed:
		return "CLOSED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Choice is the scenario selected for one run.
type Choice struct {
	Record Record
	Method SubmissionMethod
}
