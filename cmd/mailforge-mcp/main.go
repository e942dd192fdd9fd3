package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// generateRequest mirrors the Mailforge API generate request model.
type generateRequest struct {
	ProductURL   string `json:"product_url"`
	CustomPrompt string `json:"custom_prompt"`
}

// templateRequest mirrors the Mailforge API template request model.
type templateRequest struct {
	ProductURL    string `json:"product_url"`
	EmailTemplate string `json:"email_template"`
	CustomPrompt  string `json:"custom_prompt"`
	Model         string `json:"model,omitempty"`
}

// textEmailRequest mirrors the Mailforge API text email request model.
type textEmailRequest struct {
	BusinessInfo    string `json:"business_info"`
	EmailGuidelines string `json:"email_guidelines"`
	SystemPrompt    string `json:"system_prompt,omitempty"`
	UserPrompt      string `json:"user_prompt"`
	Model           string `json:"model,omitempty"`
}

// generateResponse mirrors the Mailforge API response model.
type generateResponse struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
	Usage   *struct {
		InputTokens      int     `json:"input_tokens"`
		OutputTokens     int     `json:"output_tokens"`
		TotalTokens      int     `json:"total_tokens"`
		EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	} `json:"usage"`
	DiagnosticLog string `json:"diagnostic_log"`
	Error         *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("MAILFORGE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("MAILFORGE_API_KEY")

	s := server.NewMCPServer(
		"mailforge",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	generateEmailTool := mcp.NewTool("generate_email",
		mcp.WithDescription("Generate a complete promotional HTML email for a product page URL. The model fetches the page itself and designs the email from scratch."),
		mcp.WithString("product_url",
			mcp.Required(),
			mcp.Description("The product page URL to generate an email for"),
		),
		mcp.WithString("custom_prompt",
			mcp.Description("Optional extra instructions for tone, audience, or layout"),
		),
	)
	s.AddTool(generateEmailTool, handleGenerateEmail(apiURL, apiKey))

	generateTemplateTool := mcp.NewTool("generate_template_email",
		mcp.WithDescription("Generate a promotional HTML email for a product page using an existing HTML email template as structure. Supports multiple model strategies including cheap hybrid pipelines."),
		mcp.WithString("product_url",
			mcp.Required(),
			mcp.Description("The product page URL"),
		),
		mcp.WithString("email_template",
			mcp.Required(),
			mcp.Description("Complete HTML email template used as structure and inspiration"),
		),
		mcp.WithString("custom_prompt",
			mcp.Description("Optional extra instructions"),
		),
		mcp.WithString("model",
			mcp.Description("Model strategy (default: 'claude-opus-4-5')"),
			mcp.Enum("claude-opus-4-5", "claude-sonnet-4-5", "claude-haiku-4-5",
				"gpt-4o", "gpt-4o-mini", "gpt-4o-extract-mini-generate",
				"claude-sonnet-extract-mini-generate", "claude-haiku-extract-mini-generate",
				"manual-extract-mini-refine-generate"),
		),
	)
	s.AddTool(generateTemplateTool, handleGenerateTemplate(apiURL, apiKey))

	generateTextTool := mcp.NewTool("generate_text_email",
		mcp.WithDescription("Generate a plain text email with a Subject line from business context and email guideline documents (markdown or HTML)."),
		mcp.WithString("business_info",
			mcp.Required(),
			mcp.Description("Business context document the email draws facts from"),
		),
		mcp.WithString("email_guidelines",
			mcp.Required(),
			mcp.Description("Email guidelines and template examples document"),
		),
		mcp.WithString("user_prompt",
			mcp.Required(),
			mcp.Description("What email to generate"),
		),
		mcp.WithString("system_prompt",
			mcp.Description("Optional extra instructions placed before the documents"),
		),
		mcp.WithString("model",
			mcp.Description("Text email model (default: 'gpt-5.2')"),
			mcp.Enum("gpt-5.2", "gpt-5.2-pro", "grok-4-1-fast"),
		),
	)
	s.AddTool(generateTextTool, handleGenerateText(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the Mailforge API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// renderResult converts an API response body into an MCP tool result.
func renderResult(body []byte) *mcp.CallToolResult {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err))
	}
	if !resp.Success {
		if resp.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %s", resp.Error.Code, resp.Error.Message))
		}
		return mcp.NewToolResultError("generation failed")
	}
	return mcp.NewToolResultText(resp.Content)
}

func handleGenerateEmail(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 300 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		productURL, err := request.RequireString("product_url")
		if err != nil {
			return mcp.NewToolResultError("product_url is required"), nil
		}

		body, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/generate", generateRequest{
			ProductURL:   productURL,
			CustomPrompt: request.GetString("custom_prompt", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return renderResult(body), nil
	}
}

func handleGenerateTemplate(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 300 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		productURL, err := request.RequireString("product_url")
		if err != nil {
			return mcp.NewToolResultError("product_url is required"), nil
		}
		emailTemplate, err := request.RequireString("email_template")
		if err != nil {
			return mcp.NewToolResultError("email_template is required"), nil
		}

		body, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/generate/template", templateRequest{
			ProductURL:    productURL,
			EmailTemplate: emailTemplate,
			CustomPrompt:  request.GetString("custom_prompt", ""),
			Model:         request.GetString("model", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return renderResult(body), nil
	}
}

func handleGenerateText(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 300 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		businessInfo, err := request.RequireString("business_info")
		if err != nil {
			return mcp.NewToolResultError("business_info is required"), nil
		}
		guidelines, err := request.RequireString("email_guidelines")
		if err != nil {
			return mcp.NewToolResultError("email_guidelines is required"), nil
		}
		userPrompt, err := request.RequireString("user_prompt")
		if err != nil {
			return mcp.NewToolResultError("user_prompt is required"), nil
		}

		body, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/generate/text", textEmailRequest{
			BusinessInfo:    businessInfo,
			EmailGuidelines: guidelines,
			SystemPrompt:    request.GetString("system_prompt", ""),
			UserPrompt:      userPrompt,
			Model:           request.GetString("model", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return renderResult(body), nil
	}
}
