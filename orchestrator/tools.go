package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mailforge/mailforge/fetcher"
	"github.com/mailforge/mailforge/provider"
)

// FetchURLTool is the single tool exposed to models. Its schema matches the
// wire format both provider families accept after adapter conversion.
var FetchURLTool = provider.ToolDecl{
	Name:        "fetch_url",
	Description: "Fetches the HTML content of a URL",
	InputSchema: json.RawMessage(`{
		"type": "object",
		"properties": {
			"url": {
				"type": "string",
				"description": "The URL to fetch"
			}
		},
		"required": ["url"]
	}`),
}

type fetchInput struct {
	URL string `json:"url"`
}

// executeTool runs one tool call and never fails: failures become a
// descriptive result body so the model can recover or give up on its own.
func executeTool(ctx context.Context, f *fetcher.Fetcher, call provider.ToolCall, fetchBudget int) (string, fetcher.Diagnostics) {
	if call.Name != FetchURLTool.Name {
		return "Unknown tool", fetcher.Diagnostics{Err: "unknown tool: " + call.Name}
	}

	var input fetchInput
	if err := json.Unmarshal(call.Input, &input); err != nil {
		msg := fmt.Sprintf("Error fetching URL: invalid tool input: %v", err)
		return msg, fetcher.Diagnostics{Err: msg}
	}

	res := f.FetchToolResult(ctx, input.URL, fetchBudget)
	return res.Body, res.Diagnostics
}

// truncateToolResult enforces a per-result character ceiling on top of the
// fetch budget. limit <= 0 disables it.
func truncateToolResult(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit] + "\n\n[Content truncated]"
}
