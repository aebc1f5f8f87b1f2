// Package command defines the contract between a command definition
// and the execution engine: how a command renders itself as shell text,
// and how it interprets the raw stdout of running that text.
package command

import "strings"

// Command is one shell-executable operation. Render produces the exact
// shell line to execute; it must be deterministic and must not depend
// on execution-time state. Parse maps the captured stdout of running
// that line into the command's result type; it must be total over any
// stdout text, including the empty string — unexpected text maps to a
// degenerate result, never an error.
//
// Parse is only ever called with output produced by running the text
// Render returned for the same command value.
type Command[T any] interface {
	Render() string
	Parse(stdout string) T
}

// Raw is an arbitrary shell line whose result is the unaltered stdout.
type Raw struct {
	Line string
}

func (r Raw) Render() string { return r.Line }

func (r Raw) Parse(stdout string) string { return stdout }

// Lines is an arbitrary shell line whose result is stdout split into
// lines. Empty output parses to nil.
type Lines struct {
	Line string
}

func (l Lines) Render() string { return l.Line }

func (l Lines) Parse(stdout string) []string {
	trimmed := strings.TrimRight(stdout, "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}
