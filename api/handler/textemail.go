package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mailforge/mailforge/models"
	"github.com/mailforge/mailforge/pipeline"
)

// minTextEmailChars rejects empty or near-empty generations.
const minTextEmailChars = 10

// textEmailModels are the keys accepted by the text endpoint. The shared
// registry also holds the HTML-generation models, which make no sense here.
var textEmailModels = []string{"gpt-5.2", "gpt-5.2-pro", "grok-4-1-fast"}

// GenerateText returns a handler for POST /api/v1/generate/text.
//
// Produces a plain-text email with a Subject line from uploaded business
// and guideline documents. HTML documents are converted to markdown before
// prompting.
func GenerateText(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.TextEmailRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewGenError(models.ErrCodeInvalidInput, err.Error(), err), "")
			return
		}

		if req.Model != "" && !isTextEmailModel(req.Model) {
			respondError(c, models.NewGenError(models.ErrCodeInvalidInput,
				fmt.Sprintf("invalid model %q, must be one of: %s",
					req.Model, strings.Join(textEmailModels, ", ")), nil), "")
			return
		}
		req.Defaults()

		content, usage, err := p.GenerateText(c.Request.Context(), req)
		if err != nil {
			respondError(c, err, "")
			return
		}

		if len(strings.TrimSpace(content)) < minTextEmailChars {
			respondError(c, models.NewGenError(models.ErrCodeProviderEmpty,
				"generated email was empty or too short", nil), "")
			return
		}

		rounded := usage.Rounded()
		c.JSON(http.StatusOK, models.GenerateResponse{
			Success: true,
			Content: content,
			Usage:   &rounded,
		})
	}
}

func isTextEmailModel(model string) bool {
	for _, m := range textEmailModels {
		if m == model {
			return true
		}
	}
	return false
}
