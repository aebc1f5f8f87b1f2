package engine

import (
	"context"
	"fmt"
)

// Run drives one complete run: it creates a Session for target,
// executes the composed computation, and reports the outcome. On
// success it prints "Success." and returns nil; on failure it prints
// the optional message to the error stream and returns the Failure so
// the process boundary can adopt its exit code. Errors that are not
// already a Failure are wrapped with exit code 1.
//
// Run is the single top-level driver; it is not composable inside
// another computation.
func Run(ctx context.Context, target Target, fn func(context.Context, *Session) error, opts ...Option) *Failure {
	s := NewSession(target, opts...)

	err := fn(ctx, s)
	if err == nil && s.failure != nil {
		// The computation swallowed a step error; the recorded
		// failure still decides the outcome.
		err = s.failure
	}
	if err == nil {
		fmt.Fprintln(s.out, "Success.")
		return nil
	}

	f, ok := AsFailure(err)
	if !ok {
		f = &Failure{Code: 1, Message: err.Error()}
	}
	if f.Message != "" {
		fmt.Fprintln(s.errOut, f.Message)
	}
	return f
}
