package engine

import (
	"errors"
	"fmt"
)

// Failure is the single error kind of the engine: a terminal outcome
// carrying the exit code the run ends with and an optional message.
// A non-zero child exit produces a Failure with no message; callers
// aborting explicitly may attach one.
type Failure struct {
	Code    int
	Message string
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return f.Message
	}
	return fmt.Sprintf("command failed with exit status %d", f.Code)
}

// AsFailure unwraps err into a *Failure if it is one.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
