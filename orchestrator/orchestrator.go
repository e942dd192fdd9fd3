// Package orchestrator runs the bounded tool-call loop that lets a model
// fetch product pages while generating. The loop is provider-neutral; it
// speaks the normalized chat types and leaves wire formats to the adapters.
package orchestrator

import (
	"context"
	"log/slog"

	"github.com/mailforge/mailforge/cleaner"
	"github.com/mailforge/mailforge/fetcher"
	"github.com/mailforge/mailforge/models"
	"github.com/mailforge/mailforge/provider"
)

// Iteration ceilings. Extraction calls are small and should settle fast;
// generation calls get more room.
const (
	MaxExtractionIterations = 3
	MaxGenerationIterations = 5
)

// Tool-result character ceilings applied on top of the fetch budget.
const (
	ToolResultLimitSmall   = 30_000
	ToolResultLimitDefault = 50_000
)

// Params configures one loop run.
type Params struct {
	Model           string
	Prompt          string
	MaxOutputTokens int

	// MaxIterations caps tool-call rounds; <= 0 means MaxGenerationIterations.
	MaxIterations int

	// FetchBudget is the character budget passed to the fetcher.
	FetchBudget int

	// ToolResultLimit truncates each tool result after fetching; <= 0
	// disables the second truncation.
	ToolResultLimit int

	// JSONResponse requests a JSON-constrained response where the provider
	// supports it.
	JSONResponse bool

	// Transcript, when set, records tool calls and interleaved text.
	Transcript *Transcript
}

// Outcome is the final text plus accumulated usage across every call the
// loop made.
type Outcome struct {
	Content string
	Usage   models.Usage
}

// Loop drives one model through the fetch tool until it stops asking.
type Loop struct {
	client provider.Chat
	fetch  *fetcher.Fetcher
	clean  *cleaner.Cleaner
	logger *slog.Logger
}

// New creates a Loop. clean, when non-nil, enables readability reduction of
// oversized tool results before truncation. logger may be nil.
func New(client provider.Chat, f *fetcher.Fetcher, clean *cleaner.Cleaner, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{client: client, fetch: f, clean: clean, logger: logger}
}

// Run sends the prompt, executes fetch_url calls until the model stops
// requesting tools or the iteration ceiling is hit, and returns the final
// text with usage folded across all calls.
func (l *Loop) Run(ctx context.Context, p Params) (*Outcome, error) {
	maxIter := p.MaxIterations
	if maxIter <= 0 {
		maxIter = MaxGenerationIterations
	}

	messages := []provider.Message{{Role: provider.RoleUser, Content: p.Prompt}}
	usage := models.Usage{}

	req := provider.ChatRequest{
		Model:           p.Model,
		Tools:           []provider.ToolDecl{FetchURLTool},
		MaxOutputTokens: p.MaxOutputTokens,
		JSONResponse:    p.JSONResponse,
	}

	req.Messages = messages
	res, err := l.client.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	usage = usage.Add(res.Usage)

	for iter := 0; len(res.ToolCalls) > 0 && iter < maxIter; iter++ {
		if p.Transcript != nil {
			p.Transcript.RecordTextBlock(res.Content)
		}
		l.logger.Debug("tool call round",
			"model", p.Model,
			"iteration", iter+1,
			"tool_calls", len(res.ToolCalls))

		messages = append(messages, provider.Message{
			Role:      provider.RoleAssistant,
			Content:   res.Content,
			ToolCalls: res.ToolCalls,
		})

		for _, call := range res.ToolCalls {
			body, diag := executeTool(ctx, l.fetch, call, p.FetchBudget)
			body = l.reduceOversized(body, diag, p.ToolResultLimit)
			body = truncateToolResult(body, p.ToolResultLimit)
			if p.Transcript != nil {
				p.Transcript.RecordToolCall(call.Name, diag)
			}
			messages = append(messages, provider.Message{
				Role:         provider.RoleTool,
				Content:      body,
				ToolResultID: call.ID,
			})
		}

		req.Messages = messages
		res, err = l.client.Chat(ctx, req)
		if err != nil {
			return nil, err
		}
		usage = usage.Add(res.Usage)
	}

	if len(res.ToolCalls) > 0 {
		l.logger.Warn("tool loop hit iteration ceiling",
			"model", p.Model,
			"max_iterations", maxIter)
	}

	if res.Content == "" {
		return nil, models.NewGenError(models.ErrCodeProviderEmpty,
			"model produced no text after the tool loop", nil)
	}

	return &Outcome{Content: res.Content, Usage: usage}, nil
}

// reduceOversized runs readability main-content reduction on a tool result
// that would otherwise be hard-truncated. Failed or ineffective reduction
// leaves the body unchanged.
func (l *Loop) reduceOversized(body string, diag fetcher.Diagnostics, limit int) string {
	if l.clean == nil || limit <= 0 || len(body) <= limit || diag.Err != "" {
		return body
	}
	reduced, ok := l.clean.Reduce(body, diag.URL)
	if !ok || len(reduced) >= len(body) {
		return body
	}
	l.logger.Debug("tool result reduced to main content",
		"url", diag.URL,
		"before_chars", len(body),
		"after_chars", len(reduced))
	return reduced
}
