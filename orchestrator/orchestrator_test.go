package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mailforge/mailforge/fetcher"
	"github.com/mailforge/mailforge/models"
	"github.com/mailforge/mailforge/provider"
)

// scriptedChat replays a fixed sequence of results and records every
// request it saw.
type scriptedChat struct {
	responses []*provider.Result
	requests  []provider.ChatRequest
}

func (s *scriptedChat) Chat(_ context.Context, req provider.ChatRequest) (*provider.Result, error) {
	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return nil, errors.New("scripted chat exhausted")
	}
	res := s.responses[0]
	s.responses = s.responses[1:]
	return res, nil
}

func toolCallFor(id, url string) provider.ToolCall {
	input, _ := json.Marshal(map[string]string{"url": url})
	return provider.ToolCall{ID: id, Name: "fetch_url", Input: input}
}

func newTestLoop(chat provider.Chat) *Loop {
	return New(chat, fetcher.New("", 5*time.Second), nil, nil)
}

func TestRunNoToolCalls(t *testing.T) {
	chat := &scriptedChat{responses: []*provider.Result{
		{Content: "<!DOCTYPE html><html></html>", Usage: models.NewUsage(100, 50, 0.001)},
	}}

	out, err := newTestLoop(chat).Run(context.Background(), Params{
		Model:  "test-model",
		Prompt: "make an email",
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Content != "<!DOCTYPE html><html></html>" {
		t.Errorf("Content = %q", out.Content)
	}
	if out.Usage.TotalTokens != 150 {
		t.Errorf("TotalTokens = %d, want 150", out.Usage.TotalTokens)
	}
	if len(chat.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(chat.requests))
	}
	if len(chat.requests[0].Tools) != 1 || chat.requests[0].Tools[0].Name != "fetch_url" {
		t.Error("fetch_url tool not offered")
	}
}

func TestRunToolLoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><title>Product Page</title><body>widget details</body></html>")
	}))
	defer srv.Close()

	chat := &scriptedChat{responses: []*provider.Result{
		{
			Content:   "Let me fetch the page.",
			ToolCalls: []provider.ToolCall{toolCallFor("call_1", srv.URL)},
			Usage:     models.NewUsage(100, 20, 0.001),
		},
		{Content: "final email", Usage: models.NewUsage(300, 80, 0.002)},
	}}

	transcript := NewTranscript(srv.URL, "")
	out, err := newTestLoop(chat).Run(context.Background(), Params{
		Model:       "test-model",
		Prompt:      "make an email",
		FetchBudget: fetcher.BudgetDefault,
		Transcript:  transcript,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Content != "final email" {
		t.Errorf("Content = %q", out.Content)
	}
	if out.Usage.InputTokens != 400 || out.Usage.OutputTokens != 100 {
		t.Errorf("Usage fold = %+v", out.Usage)
	}

	// Second request must carry the assistant tool-call turn and the tool result.
	if len(chat.requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(chat.requests))
	}
	msgs := chat.requests[1].Messages
	if len(msgs) != 3 {
		t.Fatalf("second request messages = %d, want 3", len(msgs))
	}
	if msgs[1].Role != provider.RoleAssistant || len(msgs[1].ToolCalls) != 1 {
		t.Errorf("messages[1] = %+v, want assistant with tool call", msgs[1])
	}
	if msgs[2].Role != provider.RoleTool || msgs[2].ToolResultID != "call_1" {
		t.Errorf("messages[2] = %+v, want tool result for call_1", msgs[2])
	}
	if !strings.Contains(msgs[2].Content, "widget details") {
		t.Errorf("tool result missing page body: %q", msgs[2].Content)
	}

	// Transcript captured the call and the interleaved text.
	if len(transcript.ToolCalls) != 1 {
		t.Fatalf("transcript tool calls = %d, want 1", len(transcript.ToolCalls))
	}
	if transcript.ToolCalls[0].HTTPStatus != http.StatusOK {
		t.Errorf("transcript HTTPStatus = %d", transcript.ToolCalls[0].HTTPStatus)
	}
	if len(transcript.TextBlocks) != 1 || transcript.TextBlocks[0] != "Let me fetch the page." {
		t.Errorf("transcript text blocks = %v", transcript.TextBlocks)
	}
}

func TestRunIterationCeiling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html></html>")
	}))
	defer srv.Close()

	// Always asks for another fetch and never produces text.
	loopy := make([]*provider.Result, 0, 4)
	for i := 0; i < 4; i++ {
		loopy = append(loopy, &provider.Result{
			ToolCalls: []provider.ToolCall{toolCallFor(fmt.Sprintf("call_%d", i), srv.URL)},
			Usage:     models.NewUsage(10, 5, 0),
		})
	}

	chat := &scriptedChat{responses: loopy}
	_, err := newTestLoop(chat).Run(context.Background(), Params{
		Model:         "test-model",
		Prompt:        "extract",
		MaxIterations: MaxExtractionIterations,
	})
	if err == nil {
		t.Fatal("Run() error = nil, want empty-content error at ceiling")
	}
	var genErr *models.GenError
	if !errors.As(err, &genErr) || genErr.Code != models.ErrCodeProviderEmpty {
		t.Errorf("error = %v, want %s", err, models.ErrCodeProviderEmpty)
	}
	// Initial call plus one per allowed iteration.
	if len(chat.requests) != 1+MaxExtractionIterations {
		t.Errorf("requests = %d, want %d", len(chat.requests), 1+MaxExtractionIterations)
	}
}

func TestRunToolResultTruncation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>", strings.Repeat("z", 5000), "</html>")
	}))
	defer srv.Close()

	chat := &scriptedChat{responses: []*provider.Result{
		{ToolCalls: []provider.ToolCall{toolCallFor("call_1", srv.URL)}, Usage: models.NewUsage(1, 1, 0)},
		{Content: "done", Usage: models.NewUsage(1, 1, 0)},
	}}

	_, err := newTestLoop(chat).Run(context.Background(), Params{
		Model:           "test-model",
		Prompt:          "extract",
		ToolResultLimit: 1000,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	toolMsg := chat.requests[1].Messages[2]
	if !strings.HasSuffix(toolMsg.Content, "\n\n[Content truncated]") {
		t.Errorf("tool result not truncated: len=%d", len(toolMsg.Content))
	}
	if len(toolMsg.Content) > 1000+len("\n\n[Content truncated]") {
		t.Errorf("tool result too long: %d", len(toolMsg.Content))
	}
}

func TestRunUnknownTool(t *testing.T) {
	chat := &scriptedChat{responses: []*provider.Result{
		{
			ToolCalls: []provider.ToolCall{{ID: "c1", Name: "launch_rockets", Input: json.RawMessage(`{}`)}},
			Usage:     models.NewUsage(1, 1, 0),
		},
		{Content: "recovered", Usage: models.NewUsage(1, 1, 0)},
	}}

	out, err := newTestLoop(chat).Run(context.Background(), Params{Model: "m", Prompt: "p"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Content != "recovered" {
		t.Errorf("Content = %q", out.Content)
	}
	if chat.requests[1].Messages[2].Content != "Unknown tool" {
		t.Errorf("tool result = %q, want Unknown tool", chat.requests[1].Messages[2].Content)
	}
}

func TestTranscriptFormat(t *testing.T) {
	tr := NewTranscript("https://shop.example.com/p/1", "  ")
	tr.PromptSent = "the prompt"
	tr.RecordToolCall("fetch_url", fetcher.Diagnostics{
		URL:          "https://shop.example.com/p/1",
		HTTPStatus:   200,
		SizeChars:    123456,
		WasTruncated: true,
		Preview:      "<html>",
	})
	tr.RecordTextBlock("thinking about layout")
	tr.RecordFinal("<!DOCTYPE html><html></html>", true)
	usage := models.NewUsage(1200, 340, 0.01)
	tr.Usage = &usage

	out := tr.Format()

	for _, want := range []string{
		"EMAIL GENERATOR - DIAGNOSTIC LOG",
		"Product URL: https://shop.example.com/p/1",
		"Custom Prompt: (none)",
		"--- PROMPT SENT TO MODEL ---",
		"--- TOOL CALL #1 ---",
		"HTTP Status: 200",
		"HTML Size: 123,456 characters",
		"Truncated: Yes",
		"[Block 1]: thinking about layout",
		"HTML Parse Success: Yes",
		"Input Tokens: 1,200",
		"Total: 1,540",
		"--- ERRORS ---\nNone",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q", want)
		}
	}
}

func TestTranscriptNoToolCalls(t *testing.T) {
	tr := NewTranscript("https://example.com", "make it pop")
	tr.RecordError("something broke")

	out := tr.Format()
	if !strings.Contains(out, "None - the model did not call any tools") {
		t.Error("missing no-tool-calls marker")
	}
	if !strings.Contains(out, "Custom Prompt: make it pop") {
		t.Error("missing custom prompt")
	}
	if !strings.Contains(out, "- something broke") {
		t.Error("missing recorded error")
	}
}

func TestGroupDigits(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4500, "-4,500"},
	}
	for _, tt := range tests {
		if got := groupDigits(tt.in); got != tt.want {
			t.Errorf("groupDigits(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
