// Package engine executes shell command lines locally or on a remote
// host, capturing output and short-circuiting a run on the first
// non-zero exit status.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
)

// bannerWidth is the total width of a progress banner line.
const bannerWidth = 75

// Session threads a run's shared state through its steps: the
// read-only target, the output writers, and the write-once failure
// channel. The first failing step records the Failure; every later
// primitive call returns it without spawning anything.
type Session struct {
	target  Target
	out     io.Writer
	errOut  io.Writer
	spawner Spawner
	runID   string

	failure *Failure
}

// Option configures a Session.
type Option func(*Session)

// WithOutput redirects the session's progress output and error stream.
func WithOutput(out, errOut io.Writer) Option {
	return func(s *Session) {
		s.out = out
		s.errOut = errOut
	}
}

// WithSpawner substitutes the process spawner.
func WithSpawner(sp Spawner) Option {
	return func(s *Session) { s.spawner = sp }
}

// NewSession creates a session for one run against target. By default
// progress goes to stdout, failure messages to stderr, and processes
// are spawned through os/exec.
func NewSession(target Target, opts ...Option) *Session {
	s := &Session{
		target:  target,
		out:     os.Stdout,
		errOut:  os.Stderr,
		spawner: NewSpawner(DefaultMaxOutput),
		runID:   uuid.New().String(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Target returns the session's read-only target.
func (s *Session) Target() Target { return s.target }

// RunID returns the unique identifier of this run.
func (s *Session) RunID() string { return s.runID }

// Failure returns the recorded failure, or nil while the run is clean.
func (s *Session) Failure() *Failure { return s.failure }

// Fail records a Failure and aborts the rest of the run. Only the
// first failure is kept; later calls return the original.
func (s *Session) Fail(code int, message string) error {
	if s.failure == nil {
		s.failure = &Failure{Code: code, Message: message}
	}
	return s.failure
}

// ExecRaw runs one child process to completion and returns its
// captured stdout. It prints a progress banner and the display text,
// echoes any captured output, and on a non-zero exit status records a
// Failure with that status and no message. Once the session has
// failed, ExecRaw returns the failure without spawning.
func (s *Session) ExecRaw(ctx context.Context, name string, args []string, display string) (string, error) {
	if s.failure != nil {
		return "", s.failure
	}

	s.banner(display)

	res, err := s.spawner.Spawn(ctx, name, args)
	if err != nil {
		// The child never ran; 127 is the shell's own "not found" code.
		return "", s.Fail(127, err.Error())
	}

	if res.Stdout != "" {
		fmt.Fprint(s.out, res.Stdout)
	}
	if res.Stderr != "" {
		fmt.Fprint(s.out, res.Stderr)
	}

	if res.ExitCode != 0 {
		return "", s.Fail(res.ExitCode, "")
	}
	return res.Stdout, nil
}

// banner prints the per-step progress header: the target label padded
// with "*" to a fixed width, then the command line being run.
func (s *Session) banner(display string) {
	line := "*** " + s.target.Label()
	if pad := bannerWidth - len(line); pad > 0 {
		line += strings.Repeat("*", pad)
	}
	fmt.Fprintln(s.out, line)
	fmt.Fprintf(s.out, "$ %s\n", display)
}
