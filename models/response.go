package models

// GenerateResponse is the response shape shared by all generation endpoints.
type GenerateResponse struct {
	// Success indicates whether generation completed without errors.
	Success bool `json:"success"`

	// Content is the final email: a complete HTML document or plain text
	// with a Subject line, depending on the endpoint.
	Content string `json:"content,omitempty"`

	// Usage aggregates token counts and estimated cost across every
	// provider call made for this request.
	Usage *Usage `json:"usage,omitempty"`

	// DiagnosticLog is a human-readable trace of the tool-call loop.
	// Populated only by endpoints that enable it; present on both
	// success and failure.
	DiagnosticLog string `json:"diagnostic_log,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}
