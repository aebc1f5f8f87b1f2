// Command stevedore runs deployment command sequences locally or on a
// remote host over ssh.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/deixis/stevedore"
	"github.com/deixis/stevedore/internal/command"
	"github.com/deixis/stevedore/internal/config"
	"github.com/deixis/stevedore/internal/engine"
	stvmcp "github.com/deixis/stevedore/internal/mcp"
	"github.com/deixis/stevedore/internal/report"
	"github.com/deixis/stevedore/internal/transport"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("stevedore: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "run":
		err = runMain(args)
	case "exec":
		err = execMain(args)
	case "copy":
		err = copyMain(args)
	case "targets":
		err = targetsMain(args)
	case "mcp":
		err = mcpMain(args)
	case "version":
		fmt.Println(stevedore.Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "stevedore: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: stevedore <command> [flags] [args]

Commands:
  run         Run a configured recipe (stops at the first failing step)
  exec        Run one ad-hoc shell command
  copy        Copy a file or directory tree to the target via scp
  targets     List configured targets and recipes
  mcp         Start the MCP server
  version     Print the version
  help        Show this help

Use "stevedore <command> -h" for command-specific flags.
Targets and recipes are read from the nearest .stevedore file.`)
}

// loadConfig reads the .stevedore file discovered from the working
// directory.
func loadConfig() (*config.Config, error) {
	workspace, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determining workspace: %w", err)
	}
	loaded, err := config.Load(workspace)
	if err != nil {
		return nil, err
	}
	return loaded.Config, nil
}

// finish adopts the run outcome as the process outcome. The run driver
// has already printed the failure message, so only the exit code is
// left to propagate.
func finish(f *engine.Failure) error {
	if f != nil {
		os.Exit(f.Code)
	}
	return nil
}

// --- run ---

func runMain(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	targetFlag := fs.String("target", "", "target name, 'local', or host:port")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: stevedore run [-target name] <recipe>")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	steps, err := cfg.Recipe(fs.Arg(0))
	if err != nil {
		return err
	}
	target, err := cfg.Resolve(*targetFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	f := engine.Run(ctx, target, func(ctx context.Context, s *engine.Session) error {
		for _, line := range steps {
			if _, err := engine.Exec(ctx, s, command.Raw{Line: line}); err != nil {
				return err
			}
		}
		return nil
	}, engine.WithSpawner(engine.NewSpawner(cfg.MaxOutputBytes())))

	return finish(f)
}

// --- exec ---

func execMain(args []string) error {
	fs := flag.NewFlagSet("exec", flag.ExitOnError)
	targetFlag := fs.String("target", "", "target name, 'local', or host:port")
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("usage: stevedore exec [-target name] <command...>")
	}
	line := strings.Join(fs.Args(), " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	target, err := cfg.Resolve(*targetFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	f := engine.Run(ctx, target, func(ctx context.Context, s *engine.Session) error {
		_, err := engine.Exec(ctx, s, command.Raw{Line: line})
		return err
	}, engine.WithSpawner(engine.NewSpawner(cfg.MaxOutputBytes())))

	return finish(f)
}

// --- copy ---

func copyMain(args []string) error {
	fs := flag.NewFlagSet("copy", flag.ExitOnError)
	targetFlag := fs.String("target", "", "target name, 'local', or host:port")
	recursive := fs.Bool("r", false, "copy a directory tree")
	_ = fs.Parse(args)

	if fs.NArg() != 2 {
		return fmt.Errorf("usage: stevedore copy [-target name] [-r] <src> <dest>")
	}
	src, dest := fs.Arg(0), fs.Arg(1)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	target, err := cfg.Resolve(*targetFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	f := engine.Run(ctx, target, func(ctx context.Context, s *engine.Session) error {
		if *recursive {
			return transport.CopyDir(ctx, s, src, dest)
		}
		return transport.CopyFile(ctx, s, src, dest)
	}, engine.WithSpawner(engine.NewSpawner(cfg.MaxOutputBytes())))

	return finish(f)
}

// --- targets ---

func targetsMain(args []string) error {
	fs := flag.NewFlagSet("targets", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Print(formatTargets(cfg))
	return nil
}

// formatTargets renders the configured targets and recipes in a stable
// order.
func formatTargets(cfg *config.Config) string {
	var b strings.Builder

	fmt.Fprintln(&b, "Targets:")
	fmt.Fprintln(&b, "  local (built-in)")
	for _, name := range sortedKeys(cfg.Targets) {
		suffix := ""
		if name == cfg.DefaultTarget {
			suffix = " (default)"
		}
		fmt.Fprintf(&b, "  %s -> %s%s\n", name, cfg.Targets[name].Target().Label(), suffix)
	}
	if len(cfg.Recipes) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Recipes:")
		for _, name := range sortedKeys(cfg.Recipes) {
			fmt.Fprintf(&b, "  %s (%d steps)\n", name, len(cfg.Recipes[name]))
		}
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// --- mcp ---

func mcpMain(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	instructions := fs.Bool("instructions", false, "print model instructions and exit")
	httpAddr := fs.String("http", "", "start HTTP server on address (e.g. :9090)")
	_ = fs.Parse(args)

	if *instructions {
		fmt.Print(stvmcp.Instructions)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store := report.NewLRUStore(10)
	server := stvmcp.NewServer(cfg, store)

	if *httpAddr != "" {
		return serveHTTP(ctx, server, *httpAddr)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
