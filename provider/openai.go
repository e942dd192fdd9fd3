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

const openAIBaseURL = "https://api.openai.com/v1"

// OpenAI is a client for OpenAI-compatible endpoints. With the default base
// URL it talks to OpenAI; with an xAI base URL the same chat convention
// reaches Grok models.
type OpenAI struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAI creates a client against the standard OpenAI endpoint.
func NewOpenAI(apiKey string, httpClient *http.Client) *OpenAI {
	return NewOpenAICompatible(apiKey, openAIBaseURL, httpClient)
}

// NewOpenAICompatible creates a client against any OpenAI-compatible base
// URL (e.g. xAI's https://api.x.ai/v1).
func NewOpenAICompatible(apiKey, baseURL string, httpClient *http.Client) *OpenAI {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OpenAI{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// chatRequest is the chat completions request body.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Tools          []chatTool      `json:"tools,omitempty"`
	ToolChoice     string          `json:"tool_choice,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

// chatTool is the OpenAI tool declaration: the shared ToolDecl converted to
// the function-wrapper format this convention expects.
type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string         `json:"content"`
			ToolCalls []chatToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Chat sends one chat-completions round trip and normalizes the response.
func (o *OpenAI) Chat(ctx context.Context, req ChatRequest) (*Result, error) {
	body := chatRequest{
		Model:     req.Model,
		MaxTokens: req.MaxOutputTokens,
		Messages:  make([]chatMessage, 0, len(req.Messages)),
	}
	for _, tool := range req.Tools {
		body.Tools = append(body.Tools, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.InputSchema,
			},
		})
	}
	if len(body.Tools) > 0 {
		body.ToolChoice = "auto"
	}
	if req.JSONResponse {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	for _, msg := range req.Messages {
		body.Messages = append(body.Messages, toChatMessage(msg))
	}

	respBody, err := o.post(ctx, "/chat/completions", body)
	if err != nil {
		return nil, err
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, models.NewGenError(models.ErrCodeProviderMalformed, "failed to parse chat response", err)
	}
	if len(resp.Choices) == 0 {
		return nil, models.NewGenError(models.ErrCodeProviderMalformed, "chat response contained no choices", nil)
	}

	choice := resp.Choices[0].Message
	result := &Result{
		Content: choice.Content,
		Usage: models.NewUsage(
			resp.Usage.PromptTokens,
			resp.Usage.CompletionTokens,
			Cost(req.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
		),
	}
	for _, tc := range choice.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: json.RawMessage(tc.Function.Arguments),
		})
	}

	if len(result.ToolCalls) == 0 && strings.TrimSpace(result.Content) == "" {
		return nil, models.NewGenError(models.ErrCodeProviderEmpty,
			"model returned an empty response; it may have hit context limits", nil)
	}

	return result, nil
}

// toChatMessage converts a neutral message to the chat-completions shape.
func toChatMessage(msg Message) chatMessage {
	out := chatMessage{Role: msg.Role, Content: msg.Content}
	if msg.Role == RoleTool {
		out.ToolCallID = msg.ToolResultID
	}
	for _, tc := range msg.ToolCalls {
		ctc := chatToolCall{ID: tc.ID, Type: "function"}
		ctc.Function.Name = tc.Name
		ctc.Function.Arguments = string(tc.Input)
		out.ToolCalls = append(out.ToolCalls, ctc)
	}
	return out
}

// responsesRequest is the responses API request body: a single flattened
// input string instead of a message list.
type responsesRequest struct {
	Model           string `json:"model"`
	Input           string `json:"input"`
	MaxOutputTokens int    `json:"max_output_tokens,omitempty"`
}

type responsesResponse struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Responses sends one responses-API call (no tool loop, single input string)
// and normalizes the result.
func (o *OpenAI) Responses(ctx context.Context, model, input string, maxOutputTokens int) (*Result, error) {
	respBody, err := o.post(ctx, "/responses", responsesRequest{
		Model:           model,
		Input:           input,
		MaxOutputTokens: maxOutputTokens,
	})
	if err != nil {
		return nil, err
	}

	var resp responsesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, models.NewGenError(models.ErrCodeProviderMalformed, "failed to parse responses output", err)
	}

	content := resp.OutputText
	if content == "" {
		var texts []string
		for _, item := range resp.Output {
			for _, part := range item.Content {
				if part.Type == "output_text" && part.Text != "" {
					texts = append(texts, part.Text)
				}
			}
		}
		content = strings.Join(texts, "\n")
	}

	if strings.TrimSpace(content) == "" {
		return nil, models.NewGenError(models.ErrCodeProviderEmpty,
			"model returned an empty response; it may have hit context limits", nil)
	}

	return &Result{
		Content: content,
		Usage: models.NewUsage(
			resp.Usage.InputTokens,
			resp.Usage.OutputTokens,
			Cost(model, resp.Usage.InputTokens, resp.Usage.OutputTokens),
		),
	}, nil
}

func (o *OpenAI) post(ctx context.Context, path string, payload any) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, models.NewGenError(models.ErrCodeProviderFailure, "provider request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewGenError(models.ErrCodeProviderFailure, "failed to read provider response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp chatErrorResponse
		msg := "provider API error"
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return nil, classifyProviderError(resp.StatusCode, msg)
	}

	return respBody, nil
}
