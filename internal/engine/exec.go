package engine

import (
	"context"

	"github.com/deixis/stevedore/internal/command"
)

// Exec runs a typed command on the session's target and parses its
// captured stdout into the command's result type. The command is
// rendered exactly once, before anything is spawned, and the rendered
// line doubles as the display text.
func Exec[T any](ctx context.Context, s *Session, c command.Command[T]) (T, error) {
	line := c.Render()
	name, args := s.Target().ShellArgv(line)

	stdout, err := s.ExecRaw(ctx, name, args, line)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.Parse(stdout), nil
}
