package models

import (
	"net/url"
	"strings"
)

// DefaultModel is used when a request omits the model field or names an
// unknown model. Kept in sync with the provider registry's fallback entry.
const DefaultModel = "claude-opus-4-5"

// GenerateRequest is the payload for POST /api/v1/generate.
// The Claude-only endpoint with full tool-loop diagnostics.
type GenerateRequest struct {
	// ProductURL is the product page the email is generated for. Required.
	ProductURL string `json:"product_url" binding:"required"`

	// CustomPrompt holds optional extra instructions appended to the prompt.
	CustomPrompt string `json:"custom_prompt"`
}

// TemplateRequest is the payload for POST /api/v1/generate/template.
// Multi-model generation that merges an HTML email template with product data.
type TemplateRequest struct {
	// ProductURL is the product page. Required.
	ProductURL string `json:"product_url" binding:"required"`

	// EmailTemplate is the HTML template used as structure and inspiration.
	// Must contain HTML tags and a DOCTYPE or <html> root. Required.
	EmailTemplate string `json:"email_template" binding:"required"`

	// CustomPrompt holds optional extra instructions. The field must be
	// present in the payload; an empty string is fine.
	CustomPrompt string `json:"custom_prompt"`

	// Model selects the generation strategy. Unknown values are rejected;
	// empty defaults to DefaultModel.
	Model string `json:"model"`

	// CSSSelector optionally scopes heuristic extraction to the matched
	// elements' HTML before the selector cascades run.
	CSSSelector string `json:"css_selector,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *TemplateRequest) Defaults() {
	if r.Model == "" {
		r.Model = DefaultModel
	}
}

// TextEmailRequest is the payload for POST /api/v1/generate/text.
// Produces a plain-text email from uploaded business and guideline documents.
type TextEmailRequest struct {
	// BusinessInfo is the business-context document (markdown or HTML). Required.
	BusinessInfo string `json:"business_info" binding:"required"`

	// EmailGuidelines is the guidelines/templates document (markdown or HTML). Required.
	EmailGuidelines string `json:"email_guidelines" binding:"required"`

	// SystemPrompt holds optional extra instructions placed before the documents.
	SystemPrompt string `json:"system_prompt"`

	// UserPrompt describes the email to generate. Required.
	UserPrompt string `json:"user_prompt" binding:"required"`

	// Model selects the text-email backend. Empty defaults to gpt-5.2.
	Model string `json:"model"`
}

// Defaults applies default values to unset fields.
func (r *TextEmailRequest) Defaults() {
	if r.Model == "" {
		r.Model = "gpt-5.2"
	}
}

// IsValidURL reports whether s parses as an absolute http or https URL.
func IsValidURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
