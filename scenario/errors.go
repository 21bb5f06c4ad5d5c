package scenario

import (
	"errors"
	"fmt"
)

var (
	// ErrLockoutBudgetExhausted is returned when the login form never
	// signalled a lockout within the attempt budget.
	ErrLockoutBudgetExhausted = errors.New("lockout not observed within attempt budget")

	// ErrAvailabilityTimeout is returned when a page kept answering 429
	// past the availability deadline.
	ErrAvailabilityTimeout = errors.New("page still rate limited after deadline")

	// ErrRateLimitNotTriggered is returned when no 403 was seen within the
	// click budget.
	ErrRateLimitNotTriggered = errors.New("rate limit not triggered within attempt budget")

	// ErrUnexpectedState is returned when an expectation on the page did
	// not hold before its timeout.
	ErrUnexpectedState = errors.New("unexpected page state")

	// ErrUnknownScenario is returned by Lookup for IDs not in the catalog.
	ErrUnknownScenario = errors.New("unknown scenario")

	// ErrScenarioFailed is returned by Runner.Run when at least one
	// scenario did not pass.
	ErrScenarioFailed = errors.New("scenario failed")
)

// AssertionError reports an expected page or response state that was not
// observed. Step names where it happened.
type AssertionError struct {
	Step string
	Msg  string
	Err  error
}

func (e *AssertionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Step, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Step, e.Msg, e.Err)
}

func (e *AssertionError) Unwrap() error {
	return e.Err
}

func assertionf(step string, err error, format string, args ...interface{}) *AssertionError {
	return &AssertionError{Step: step, Msg: fmt.Sprintf(format, args...), Err: err}
}
