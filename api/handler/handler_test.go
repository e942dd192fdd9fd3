package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mailforge/mailforge/cleaner"
	"github.com/mailforge/mailforge/config"
	"github.com/mailforge/mailforge/fetcher"
	"github.com/mailforge/mailforge/models"
	"github.com/mailforge/mailforge/pipeline"
)

// newTestRouter wires the handlers against a pipeline with no provider keys
// configured. Requests that pass validation fail fast at the key check, so
// tests never reach a real backend.
func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	p := pipeline.New(config.ProviderConfig{}, fetcher.New("", 5*time.Second), cleaner.New(), nil)

	r := gin.New()
	r.POST("/api/v1/generate", Generate(p))
	r.POST("/api/v1/generate/template", GenerateTemplate(p))
	r.POST("/api/v1/generate/text", GenerateText(p))
	r.GET("/api/v1/health", Health(time.Now()))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, models.GenerateResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp models.GenerateResponse
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("response is not valid JSON: %v\n%s", err, w.Body.String())
		}
	}
	return w, resp
}

const validTemplate = `<!DOCTYPE html><html><body><table><tr><td>Sale</td></tr></table></body></html>`

func TestGenerateInvalidJSON(t *testing.T) {
	r := newTestRouter()
	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/generate", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if resp.Success || resp.Error == nil || resp.Error.Code != models.ErrCodeInvalidInput {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGenerateMissingURL(t *testing.T) {
	r := newTestRouter()
	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/generate", `{"custom_prompt":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeInvalidInput {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestGenerateBadURLScheme(t *testing.T) {
	r := newTestRouter()
	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/generate",
		`{"product_url":"ftp://example.com/product"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeInvalidInput {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestGenerateMissingKeyReturnsDiagnosticLog(t *testing.T) {
	r := newTestRouter()
	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/generate",
		`{"product_url":"https://shop.example.com/widget"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeMissingKey {
		t.Errorf("error = %+v", resp.Error)
	}
	// The diagnostic transcript is returned even on failure.
	if !strings.Contains(resp.DiagnosticLog, "EMAIL GENERATOR - DIAGNOSTIC LOG") {
		t.Error("missing diagnostic log on error response")
	}
}

func TestGenerateTemplateUnknownModel(t *testing.T) {
	r := newTestRouter()
	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/generate/template",
		`{"product_url":"https://shop.example.com/widget","email_template":"`+validTemplate+`","custom_prompt":"","model":"gpt-99"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeInvalidInput {
		t.Fatalf("error = %+v", resp.Error)
	}
	if !strings.Contains(resp.Error.Message, `"gpt-99"`) ||
		!strings.Contains(resp.Error.Message, "claude-opus-4-5") {
		t.Errorf("message should name the bad model and list valid ones: %q", resp.Error.Message)
	}
}

func TestGenerateTemplateInvalidTemplate(t *testing.T) {
	r := newTestRouter()
	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/generate/template",
		`{"product_url":"https://shop.example.com/widget","email_template":"just some text, no tags","custom_prompt":""}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if resp.Error == nil || !strings.Contains(resp.Error.Message, "email_template") {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestGenerateTemplateMissingKey(t *testing.T) {
	r := newTestRouter()
	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/generate/template",
		`{"product_url":"https://shop.example.com/widget","email_template":"`+validTemplate+`","custom_prompt":""}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeMissingKey {
		t.Errorf("error = %+v", resp.Error)
	}
	if !strings.Contains(resp.Error.Message, "ANTHROPIC_API_KEY") {
		t.Errorf("message should name the env var: %q", resp.Error.Message)
	}
}

func TestGenerateTextUnknownModel(t *testing.T) {
	r := newTestRouter()
	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/generate/text",
		`{"business_info":"b","email_guidelines":"g","user_prompt":"u","model":"claude-opus-4-5"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if resp.Error == nil || !strings.Contains(resp.Error.Message, "grok-4-1-fast") {
		t.Errorf("message should list the text models: %+v", resp.Error)
	}
}

func TestGenerateTextMissingKey(t *testing.T) {
	r := newTestRouter()
	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/generate/text",
		`{"business_info":"b","email_guidelines":"g","user_prompt":"u"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeMissingKey {
		t.Errorf("error = %+v", resp.Error)
	}
	if !strings.Contains(resp.Error.Message, "OPENAI_API_KEY") {
		t.Errorf("message = %q", resp.Error.Message)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Status != "healthy" || resp.Version == "" || resp.Uptime == "" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{models.ErrCodeInvalidInput, http.StatusBadRequest},
		{models.ErrCodeUnauthorized, http.StatusUnauthorized},
		{models.ErrCodeRateLimited, http.StatusTooManyRequests},
		{models.ErrCodeProviderRateLimited, http.StatusTooManyRequests},
		{models.ErrCodeFetch, http.StatusBadGateway},
		{models.ErrCodeExtraction, http.StatusBadGateway},
		{models.ErrCodeProviderFailure, http.StatusBadGateway},
		{models.ErrCodeProviderAuthFailure, http.StatusBadGateway},
		{models.ErrCodePipelineStage, http.StatusBadGateway},
		{models.ErrCodeMissingKey, http.StatusInternalServerError},
		{models.ErrCodeInternal, http.StatusInternalServerError},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := mapErrorToStatus(&models.GenError{Code: tt.code}); got != tt.want {
			t.Errorf("mapErrorToStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
