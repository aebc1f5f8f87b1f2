// Package transport copies files and directory trees from the local
// filesystem to a session's target through scp.
package transport

import (
	"context"
	"strconv"
	"strings"

	"github.com/deixis/stevedore/internal/engine"
)

// CopyFile copies a single file to destPath on the session's target.
func CopyFile(ctx context.Context, s *engine.Session, srcPath, destPath string) error {
	return copyPath(ctx, s, []string{"-q"}, srcPath, destPath)
}

// CopyDir recursively copies a directory tree to destPath on the
// session's target.
func CopyDir(ctx context.Context, s *engine.Session, srcPath, destPath string) error {
	return copyPath(ctx, s, []string{"-qr"}, srcPath, destPath)
}

// copyPath invokes scp with flags ++ port selection ++ [src, dest].
// Remote targets get a -P flag and a host-qualified destination; for a
// local target the copy degenerates to a same-host copy with a bare
// destination path. The copy's stdout is discarded: its only
// observable outcomes are success or a Failure abort.
func copyPath(ctx context.Context, s *engine.Session, flags []string, srcPath, destPath string) error {
	t := s.Target()

	args := append([]string{}, flags...)
	if t.Remote() {
		args = append(args, "-P", strconv.Itoa(t.Port))
		destPath = t.Host + ":" + destPath
	}
	args = append(args, srcPath, destPath)

	display := "scp " + strings.Join(args, " ")
	_, err := s.ExecRaw(ctx, "scp", args, display)
	return err
}
