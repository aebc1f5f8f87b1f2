package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// DefaultMaxOutput caps captured stdout/stderr per spawned process.
const DefaultMaxOutput = 1 << 20 // 1 MB

// SpawnResult holds the captured output and exit status of one child
// process that ran to completion.
type SpawnResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Spawner launches a child process and waits for it to terminate.
// Implemented by the os/exec spawner; tests substitute a recording fake.
type Spawner interface {
	Spawn(ctx context.Context, name string, args []string) (*SpawnResult, error)
}

// NewSpawner returns a Spawner backed by os/exec that captures up to
// maxOutput bytes of each output stream. maxOutput <= 0 selects
// DefaultMaxOutput.
func NewSpawner(maxOutput int) Spawner {
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}
	return &execSpawner{maxOutput: maxOutput}
}

type execSpawner struct {
	maxOutput int
}

// Spawn runs the child with stdin detached and blocks until it exits.
// There is deliberately no timeout: a hung child hangs the run.
func (s *execSpawner) Spawn(ctx context.Context, name string, args []string) (*SpawnResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitWriter{buf: &stdout, limit: s.maxOutput}
	cmd.Stderr = &limitWriter{buf: &stderr, limit: s.maxOutput}

	runErr := cmd.Run()

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			// Binary not found or other start error.
			return nil, fmt.Errorf("executing %s: %w", name, runErr)
		}
	}

	return &SpawnResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}, nil
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
type limitWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil // discard
	}
	if len(p) > remaining {
		// Write only what fits, but report all bytes as consumed
		// to avoid short write errors from io.Copy.
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}
