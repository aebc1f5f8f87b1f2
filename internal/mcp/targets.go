package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type targetsParams struct{}

func (h *handler) targetsHandler(ctx context.Context, req *mcp.CallToolRequest, _ targetsParams) (*mcp.CallToolResult, any, error) {
	var b strings.Builder

	fmt.Fprintln(&b, "Targets:")
	fmt.Fprintln(&b, "  local (built-in)")
	for _, name := range sortedKeys(h.cfg.Targets) {
		tc := h.cfg.Targets[name]
		label := tc.Target().Label()
		if name == h.cfg.DefaultTarget {
			fmt.Fprintf(&b, "  %s -> %s (default)\n", name, label)
		} else {
			fmt.Fprintf(&b, "  %s -> %s\n", name, label)
		}
	}

	fmt.Fprintln(&b)
	if len(h.cfg.Recipes) == 0 {
		fmt.Fprintln(&b, "Recipes: none configured")
	} else {
		fmt.Fprintln(&b, "Recipes:")
		for _, name := range sortedKeys(h.cfg.Recipes) {
			fmt.Fprintf(&b, "  %s (%d steps)\n", name, len(h.cfg.Recipes[name]))
		}
	}

	return textResult(b.String())
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
