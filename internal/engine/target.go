package engine

import "strconv"

// Target selects where commands execute. The zero value is the local
// machine; a non-empty Host selects a remote host reached through ssh.
// Targets are immutable for the lifetime of a run.
type Target struct {
	Host string
	Port int
}

// Remote reports whether the target is a remote host.
func (t Target) Remote() bool { return t.Host != "" }

// Label returns the human-readable name used in progress banners:
// "localhost" for the local target, "host:port" for a remote.
func (t Target) Label() string {
	if !t.Remote() {
		return "localhost"
	}
	return t.Host + ":" + strconv.Itoa(t.Port)
}

// ShellArgv builds the program and argument list that executes the
// rendered shell line on this target. The remote form passes the whole
// line as a single ssh argument, so the line must already be valid
// shell syntax for the remote shell.
func (t Target) ShellArgv(line string) (string, []string) {
	if t.Remote() {
		return "ssh", []string{t.Host, "-p", strconv.Itoa(t.Port), line}
	}
	return "bash", []string{"-c", line}
}
