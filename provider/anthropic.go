package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mailforge/mailforge/models"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"
)

// Anthropic is a client for the Anthropic messages API.
type Anthropic struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewAnthropic creates an Anthropic client. Pass nil to use a default
// http.Client.
func NewAnthropic(apiKey string, httpClient *http.Client) *Anthropic {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Anthropic{apiKey: apiKey, baseURL: anthropicBaseURL, httpClient: httpClient}
}

// anthropicRequest is the messages API request body.
type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// anthropicMessage content is either a plain string or a block list.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type anthropicBlock struct {
	Type string `json:"type"`

	// type "text"
	Text string `json:"text,omitempty"`

	// type "tool_use"
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// type "tool_result"
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type anthropicResponse struct {
	Content    []anthropicBlock `json:"content"`
	StopReason string           `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Chat sends one messages-API round trip and normalizes the response.
func (a *Anthropic) Chat(ctx context.Context, req ChatRequest) (*Result, error) {
	body := anthropicRequest{
		Model:     req.Model,
		MaxTokens: req.MaxOutputTokens,
		Messages:  make([]anthropicMessage, 0, len(req.Messages)),
	}
	for _, tool := range req.Tools {
		body.Tools = append(body.Tools, anthropicTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		})
	}
	for _, msg := range req.Messages {
		body.Messages = append(body.Messages, toAnthropicMessage(msg))
	}

	respBody, err := a.post(ctx, "/messages", body)
	if err != nil {
		return nil, err
	}

	var resp anthropicResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, models.NewGenError(models.ErrCodeProviderMalformed, "failed to parse Anthropic response", err)
	}
	if resp.Content == nil {
		return nil, models.NewGenError(models.ErrCodeProviderMalformed, "Anthropic response missing content blocks", nil)
	}

	result := &Result{
		Usage: models.NewUsage(
			resp.Usage.InputTokens,
			resp.Usage.OutputTokens,
			Cost(req.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens),
		),
	}

	var texts []string
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			texts = append(texts, block.Text)
		case "tool_use":
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:    block.ID,
				Name:  block.Name,
				Input: block.Input,
			})
		}
	}
	result.Content = strings.Join(texts, "\n")

	if len(result.ToolCalls) == 0 && strings.TrimSpace(result.Content) == "" {
		return nil, models.NewGenError(models.ErrCodeProviderEmpty,
			"Anthropic returned an empty response with no tool request", nil)
	}

	return result, nil
}

// toAnthropicMessage converts a neutral message to the messages-API shape,
// reconstructing content blocks for tool interactions.
func toAnthropicMessage(msg Message) anthropicMessage {
	switch {
	case msg.Role == RoleAssistant && len(msg.ToolCalls) > 0:
		blocks := []anthropicBlock{}
		if msg.Content != "" {
			blocks = append(blocks, anthropicBlock{Type: "text", Text: msg.Content})
		}
		for _, tc := range msg.ToolCalls {
			blocks = append(blocks, anthropicBlock{
				Type:  "tool_use",
				ID:    tc.ID,
				Name:  tc.Name,
				Input: tc.Input,
			})
		}
		return anthropicMessage{Role: "assistant", Content: blocks}

	case msg.Role == RoleTool:
		return anthropicMessage{Role: "user", Content: []anthropicBlock{{
			Type:      "tool_result",
			ToolUseID: msg.ToolResultID,
			Content:   msg.Content,
		}}}

	default:
		return anthropicMessage{Role: msg.Role, Content: msg.Content}
	}
}

func (a *Anthropic) post(ctx context.Context, path string, payload any) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, models.NewGenError(models.ErrCodeProviderFailure, "Anthropic request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewGenError(models.ErrCodeProviderFailure, "failed to read Anthropic response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp anthropicErrorResponse
		msg := "Anthropic API error"
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return nil, classifyProviderError(resp.StatusCode, msg)
	}

	return respBody, nil
}

// classifyProviderError maps HTTP status codes to error codes, shared by all
// backend clients.
func classifyProviderError(statusCode int, msg string) *models.GenError {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return models.NewGenError(models.ErrCodeProviderAuthFailure, msg, nil)
	case statusCode == http.StatusTooManyRequests:
		return models.NewGenError(models.ErrCodeProviderRateLimited, msg, nil)
	default:
		return models.NewGenError(models.ErrCodeProviderFailure,
			fmt.Sprintf("provider API returned %d: %s", statusCode, msg), nil)
	}
}
