package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mailforge/mailforge/models"
)

// respondError maps an internal error to the correct HTTP status and writes
// a structured JSON error response. diagnosticLog may be empty.
func respondError(c *gin.Context, err error, diagnosticLog string) {
	genErr, ok := err.(*models.GenError)
	if !ok {
		genErr = models.NewGenError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(genErr), models.GenerateResponse{
		Success:       false,
		Error:         genErr.ToDetail(),
		DiagnosticLog: diagnosticLog,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes. Upstream
// provider failures surface as 502 so callers can tell them apart from
// local faults.
func mapErrorToStatus(e *models.GenError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case models.ErrCodeRateLimited, models.ErrCodeProviderRateLimited:
		return http.StatusTooManyRequests
	case models.ErrCodeFetch,
		models.ErrCodeExtraction,
		models.ErrCodeProviderMalformed,
		models.ErrCodeProviderEmpty,
		models.ErrCodeProviderAuthFailure,
		models.ErrCodeProviderFailure,
		models.ErrCodePipelineStage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
