package mcp

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/deixis/stevedore/internal/engine"
	"github.com/deixis/stevedore/internal/report"
	"github.com/deixis/stevedore/internal/transport"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type copyParams struct {
	Target    string `json:"target,omitempty" jsonschema:"Target name from the configuration, 'local', or a literal host:port. Defaults to the configured default target."`
	Source    string `json:"source" jsonschema:"Absolute path of the local file or directory to copy."`
	Dest      string `json:"dest" jsonschema:"Absolute destination path on the target."`
	Recursive bool   `json:"recursive,omitempty" jsonschema:"Copy a directory tree instead of a single file."`
}

func (h *handler) copyHandler(ctx context.Context, req *mcp.CallToolRequest, params copyParams) (*mcp.CallToolResult, any, error) {
	if params.Source == "" || params.Dest == "" {
		return errorResult("source and dest are required")
	}

	target, err := h.cfg.Resolve(params.Target)
	if err != nil {
		return errorResult(err.Error())
	}

	rec := &report.RunRecord{
		Target:  target.Label(),
		Started: time.Now(),
		Steps:   []report.StepRecord{{Display: params.Source + " -> " + params.Dest, Status: report.StepSkipped}},
	}

	var buf bytes.Buffer
	f := engine.Run(ctx, target, func(ctx context.Context, s *engine.Session) error {
		rec.ID = s.RunID()
		copyFn := transport.CopyFile
		if params.Recursive {
			copyFn = transport.CopyDir
		}
		if err := copyFn(ctx, s, params.Source, params.Dest); err != nil {
			rec.Steps[0].Status = report.StepFailed
			return err
		}
		rec.Steps[0].Status = report.StepOK
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
	_ = h.store.Save(rec)

	if rec.Failed() {
		return textResult(fmt.Sprintf("Status: FAIL (exit %d)\nRun: %s\n\n%s", rec.ExitCode, rec.ID, rec.Transcript))
	}
	return textResult(fmt.Sprintf("Status: OK\nRun: %s\n\n%s", rec.ID, rec.Transcript))
}
