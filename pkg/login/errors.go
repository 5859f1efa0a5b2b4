package login

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrElementNotFound is returned by Session.Find when no element matches.
	ErrElementNotFound = errors.New("element not found")

	// ErrTimeout is matched by every TimeoutError.
	ErrTimeout = errors.New("timed out")
)

// ElementNotFoundError reports a locator that matched no element.
type ElementNotFoundError struct {
	Locator Locator
	Err     error // underlying cause, usually a *TimeoutError
}

func (e *ElementNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("element %s not found: %v", e.Locator, e.Err)
	}
	return fmt.Sprintf("element %s not found", e.Locator)
}

func (e *ElementNotFoundError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrElementNotFound) match.
func (e *ElementNotFoundError) Is(target error) bool {
	return target == ErrElementNotFound
}

// AssertionError reports observed page state that did not match the outcome
// expected for the branch taken.
type AssertionError struct {
	Check string // what was checked, e.g. "portal heading"
	Want  string // substring that was expected
	Got   string // observed value
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s: want substring %q, got %q", e.Check, e.Want, e.Got)
}

// SessionError reports a browser session that could not be opened,
// navigated, queried or closed.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("browser session %s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// TimeoutError reports a condition that did not become true before its
// deadline.
type TimeoutError struct {
	What  string
	After time.Duration
	Last  error // last error returned by the condition, if any
}

func (e *TimeoutError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("timed out after %v waiting for %s: %v", e.After, e.What, e.Last)
	}
	return fmt.Sprintf("timed out after %v waiting for %s", e.After, e.What)
}

func (e *TimeoutError) Unwrap() error { return e.Last }

// Is lets errors.Is(err, ErrTimeout) match.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// RunError is the single failure reported for a run. State is the last
// state the run reached before failing.
type RunError struct {
	State State
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("login run failed after %s: %v", e.State, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
