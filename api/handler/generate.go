package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mailforge/mailforge/models"
	"github.com/mailforge/mailforge/pipeline"
)

// Generate returns a handler for POST /api/v1/generate.
//
// The template-free strategy: the default Claude model fetches the product
// page through the tool loop and writes the whole email. The diagnostic
// transcript is returned on success and failure alike.
func Generate(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewGenError(models.ErrCodeInvalidInput, err.Error(), err), "")
			return
		}

		if !models.IsValidURL(req.ProductURL) {
			respondError(c, models.NewGenError(models.ErrCodeInvalidInput,
				"product_url must be a valid HTTP or HTTPS URL", nil), "")
			return
		}
		req.ProductURL = strings.TrimSpace(req.ProductURL)

		content, usage, transcript, err := p.Generate(c.Request.Context(), req)
		if err != nil {
			respondError(c, err, transcript.Format())
			return
		}

		rounded := usage.Rounded()
		c.JSON(http.StatusOK, models.GenerateResponse{
			Success:       true,
			Content:       content,
			Usage:         &rounded,
			DiagnosticLog: transcript.Format(),
		})
	}
}
