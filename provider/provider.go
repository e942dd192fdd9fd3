// Package provider normalizes the three LLM backend call conventions
// (Anthropic messages, OpenAI chat completions, OpenAI responses, with xAI
// as an OpenAI-compatible chat endpoint) into one internal result shape.
//
// Each backend decodes into its own wire structs and converts to Result at
// the adapter boundary; nothing outside this package sees provider JSON.
// The clients are hand-rolled on net/http; no SDK is needed for the small
// surface this service uses.
package provider

import (
	"context"
	"encoding/json"

	"github.com/mailforge/mailforge/models"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn in a conversation, in provider-neutral form. Adapters
// convert to and from their backend's wire shape.
type Message struct {
	Role    string
	Content string

	// ToolCalls is set on assistant messages that request tool execution.
	ToolCalls []ToolCall

	// ToolResultID links a tool-role message to the call it answers.
	ToolResultID string
}

// ToolCall is a model's request to run a declared tool.
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolDecl declares a tool the model may call. InputSchema is a
// JSON-schema-shaped object; adapters convert it to their backend's tool
// declaration format.
type ToolDecl struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// ChatRequest is the provider-neutral request shape.
type ChatRequest struct {
	Model           string
	Messages        []Message
	Tools           []ToolDecl
	MaxOutputTokens int

	// JSONResponse asks the backend for a JSON-object response where the
	// convention supports it (OpenAI chat). Ignored elsewhere.
	JSONResponse bool
}

// Result is the normalized outcome of one provider round trip.
type Result struct {
	// Content is the joined text output. May be empty when the model
	// requested tools instead of terminating.
	Content string

	// ToolCalls is non-empty when the model wants tools executed before it
	// continues.
	ToolCalls []ToolCall

	// Usage carries this round trip's token counts and estimated cost.
	Usage models.Usage
}

// Chat is the call surface the orchestrator and pipelines depend on.
type Chat interface {
	Chat(ctx context.Context, req ChatRequest) (*Result, error)
}
