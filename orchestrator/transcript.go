package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/mailforge/mailforge/fetcher"
	"github.com/mailforge/mailforge/models"
)

const textBlockPreviewChars = 1000

// Transcript collects everything that happened during one generation run,
// for the human-readable diagnostic log returned alongside the email.
type Transcript struct {
	Timestamp    time.Time
	ProductURL   string
	CustomPrompt string
	PromptSent   string
	ToolCalls    []ToolCallRecord
	TextBlocks   []string
	FinalLength  int
	ParseSuccess bool
	Usage        *models.Usage
	Errors       []string
}

// ToolCallRecord is one executed tool call with its fetch diagnostics.
type ToolCallRecord struct {
	Iteration int
	ToolName  string
	fetcher.Diagnostics
}

// NewTranscript starts a transcript for one request.
func NewTranscript(productURL, customPrompt string) *Transcript {
	custom := strings.TrimSpace(customPrompt)
	if custom == "" {
		custom = "(none)"
	}
	return &Transcript{
		Timestamp:    time.Now().UTC(),
		ProductURL:   productURL,
		CustomPrompt: custom,
	}
}

// RecordToolCall appends one executed call.
func (t *Transcript) RecordToolCall(name string, diag fetcher.Diagnostics) {
	t.ToolCalls = append(t.ToolCalls, ToolCallRecord{
		Iteration:   len(t.ToolCalls) + 1,
		ToolName:    name,
		Diagnostics: diag,
	})
}

// RecordTextBlock captures interleaved model commentary, truncated for the log.
func (t *Transcript) RecordTextBlock(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	if len(trimmed) > textBlockPreviewChars {
		trimmed = trimmed[:textBlockPreviewChars]
	}
	t.TextBlocks = append(t.TextBlocks, trimmed)
}

// RecordError appends a failure message.
func (t *Transcript) RecordError(msg string) {
	t.Errors = append(t.Errors, msg)
}

// RecordFinal captures what was ultimately returned to the client.
func (t *Transcript) RecordFinal(html string, parseSuccess bool) {
	t.FinalLength = len(html)
	t.ParseSuccess = parseSuccess
}

// Format renders the transcript as plain text.
func (t *Transcript) Format() string {
	var b strings.Builder

	b.WriteString("========================================\n")
	b.WriteString("EMAIL GENERATOR - DIAGNOSTIC LOG\n")
	b.WriteString("========================================\n")
	fmt.Fprintf(&b, "Timestamp: %s\n", t.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&b, "Product URL: %s\n", t.ProductURL)
	fmt.Fprintf(&b, "Custom Prompt: %s\n\n", t.CustomPrompt)

	b.WriteString("--- PROMPT SENT TO MODEL ---\n")
	fmt.Fprintf(&b, "%s\n\n", t.PromptSent)

	if len(t.ToolCalls) > 0 {
		for _, call := range t.ToolCalls {
			fmt.Fprintf(&b, "--- TOOL CALL #%d ---\n", call.Iteration)
			fmt.Fprintf(&b, "Tool: %s\n", call.ToolName)
			url := call.URL
			if url == "" {
				url = "(none)"
			}
			fmt.Fprintf(&b, "URL Fetched: %s\n", url)
			if call.HTTPStatus != 0 {
				fmt.Fprintf(&b, "HTTP Status: %d\n", call.HTTPStatus)
			}
			if call.SizeChars != 0 {
				fmt.Fprintf(&b, "HTML Size: %s characters\n", groupDigits(call.SizeChars))
				if call.WasTruncated {
					b.WriteString("Truncated: Yes (over budget)\n")
				} else {
					b.WriteString("Truncated: No\n")
				}
			}
			if call.Preview != "" {
				fmt.Fprintf(&b, "HTML Preview (first 500 chars):\n%s\n", call.Preview)
			}
			if call.Err != "" {
				fmt.Fprintf(&b, "Error: %s\n", call.Err)
			}
			b.WriteString("\n")
		}
	} else {
		b.WriteString("--- TOOL CALLS ---\n")
		b.WriteString("None - the model did not call any tools\n\n")
	}

	if len(t.TextBlocks) > 0 {
		b.WriteString("--- MODEL ANALYSIS (text between tool calls) ---\n")
		for i, block := range t.TextBlocks {
			fmt.Fprintf(&b, "[Block %d]: %s\n\n", i+1, block)
		}
	}

	b.WriteString("--- FINAL OUTPUT ---\n")
	fmt.Fprintf(&b, "Generated HTML Length: %s characters\n", groupDigits(t.FinalLength))
	fmt.Fprintf(&b, "HTML Parse Success: %s\n\n", yesNo(t.ParseSuccess))

	if t.Usage != nil {
		b.WriteString("--- TOKEN USAGE ---\n")
		fmt.Fprintf(&b, "Input Tokens: %s\n", groupDigits(t.Usage.InputTokens))
		fmt.Fprintf(&b, "Output Tokens: %s\n", groupDigits(t.Usage.OutputTokens))
		fmt.Fprintf(&b, "Total: %s\n\n", groupDigits(t.Usage.TotalTokens))
	}

	b.WriteString("--- ERRORS ---\n")
	if len(t.Errors) > 0 {
		for _, err := range t.Errors {
			fmt.Fprintf(&b, "- %s\n", err)
		}
	} else {
		b.WriteString("None\n")
	}
	b.WriteString("\n========================================\n")

	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// groupDigits renders n with thousands separators.
func groupDigits(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
