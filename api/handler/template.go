package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mailforge/mailforge/models"
	"github.com/mailforge/mailforge/pipeline"
	"github.com/mailforge/mailforge/provider"
	"github.com/mailforge/mailforge/sanitize"
)

// minEmailHTMLChars rejects degenerate generations: a real email document
// is never this short.
const minEmailHTMLChars = 100

// GenerateTemplate returns a handler for POST /api/v1/generate/template.
//
// Flow:
//  1. Parse and validate TemplateRequest, apply defaults.
//  2. Route to the strategy named by the model key (single-model or hybrid).
//  3. Sanitize the returned HTML and enforce a minimum length.
//  4. Respond with content and aggregated usage.
func GenerateTemplate(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.TemplateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewGenError(models.ErrCodeInvalidInput, err.Error(), err), "")
			return
		}

		if req.Model != "" && !provider.IsKnown(req.Model) {
			respondError(c, models.NewGenError(models.ErrCodeInvalidInput,
				fmt.Sprintf("invalid model %q, must be one of: %s",
					req.Model, strings.Join(provider.KnownModels(), ", ")), nil), "")
			return
		}
		req.Defaults()

		if !models.IsValidURL(req.ProductURL) {
			respondError(c, models.NewGenError(models.ErrCodeInvalidInput,
				"product_url must be a valid HTTP or HTTPS URL", nil), "")
			return
		}
		req.ProductURL = strings.TrimSpace(req.ProductURL)

		if !sanitize.ValidTemplate(req.EmailTemplate) {
			respondError(c, models.NewGenError(models.ErrCodeInvalidInput,
				"email_template must be valid HTML with a DOCTYPE declaration or html tag structure", nil), "")
			return
		}

		content, usage, err := p.GenerateFromTemplate(c.Request.Context(), req)
		if err != nil {
			respondError(c, err, "")
			return
		}

		emailHTML := sanitize.ExtractHTML(content)
		if len(emailHTML) < minEmailHTMLChars {
			respondError(c, models.NewGenError(models.ErrCodeProviderEmpty,
				"generated email HTML was too short or invalid", nil), "")
			return
		}

		rounded := usage.Rounded()
		c.JSON(http.StatusOK, models.GenerateResponse{
			Success: true,
			Content: emailHTML,
			Usage:   &rounded,
		})
	}
}
