package mcp

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deixis/stevedore/internal/command"
	"github.com/deixis/stevedore/internal/engine"
	"github.com/deixis/stevedore/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type runParams struct {
	Target   string   `json:"target,omitempty" jsonschema:"Target name from the configuration, 'local', or a literal host:port. Defaults to the configured default target."`
	Recipe   string   `json:"recipe,omitempty" jsonschema:"Name of a configured recipe to run. Mutually exclusive with commands."`
	Commands []string `json:"commands,omitempty" jsonschema:"Explicit shell command lines to run in order. Mutually exclusive with recipe."`
}

func (h *handler) runHandler(ctx context.Context, req *mcp.CallToolRequest, params runParams) (*mcp.CallToolResult, any, error) {
	if params.Recipe == "" && len(params.Commands) == 0 {
		return errorResult("either recipe or commands is required")
	}
	if params.Recipe != "" && len(params.Commands) > 0 {
		return errorResult("recipe and commands are mutually exclusive")
	}

	lines := params.Commands
	if params.Recipe != "" {
		var err error
		lines, err = h.cfg.Recipe(params.Recipe)
		if err != nil {
			return errorResult(err.Error())
		}
	}

	target, err := h.cfg.Resolve(params.Target)
	if err != nil {
		return errorResult(err.Error())
	}

	rec := h.runSequence(ctx, target, lines)
	_ = h.store.Save(rec)

	return textResult(formatRun(rec))
}

// runSequence drives one run of the given shell lines against target,
// capturing the progress transcript and per-step outcomes.
func (h *handler) runSequence(ctx context.Context, target engine.Target, lines []string) *report.RunRecord {
	rec := &report.RunRecord{
		Target:  target.Label(),
		Started: time.Now(),
		Steps:   make([]report.StepRecord, len(lines)),
	}
	for i, line := range lines {
		rec.Steps[i] = report.StepRecord{Display: line, Status: report.StepSkipped}
	}

	var buf bytes.Buffer
	f := engine.Run(ctx, target, func(ctx context.Context, s *engine.Session) error {
		rec.ID = s.RunID()
		for i, line := range lines {
			if _, err := engine.Exec(ctx, s, command.Raw{Line: line}); err != nil {
				rec.Steps[i].Status = report.StepFailed
				return err
			}
			rec.Steps[i].Status = report.StepOK
		}
		return nil
	},
		engine.WithOutput(&buf, &buf),
		engine.WithSpawner(engine.NewSpawner(h.cfg.MaxOutputBytes())),
	)

	rec.Transcript = buf.String()
	if f != nil {
		rec.ExitCode = f.Code
		rec.Message = f.Message
	}
	return rec
}

func formatRun(rec *report.RunRecord) string {
	var b strings.Builder

	if rec.Failed() {
		fmt.Fprintf(&b, "Status: FAIL (exit %d)\n", rec.ExitCode)
	} else {
		fmt.Fprintln(&b, "Status: OK")
	}
	fmt.Fprintf(&b, "Run: %s\n", rec.ID)
	fmt.Fprintf(&b, "Target: %s\n", rec.Target)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Steps:")
	for _, st := range rec.Steps {
		fmt.Fprintf(&b, "  [%s] %s\n", st.Status, st.Display)
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Transcript:")
	fmt.Fprint(&b, rec.Transcript)
	if rec.Message != "" {
		fmt.Fprintln(&b, rec.Message)
	}
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Re-read later with stv_results(run_id=%q).\n", rec.ID)

	return b.String()
}
