package server

import "github.com/jaki95/studio-eighty7/internal/content"

// GenerateRequest is the body of POST /api/generate
type GenerateRequest struct {
	Topic string `json:"topic"`
}

// GenerateResponse carries the generated line
type GenerateResponse struct {
	Success bool   `json:"success"`
	Data    string `json:"data"`
}

// ContactRequest is the body of POST /api/contact
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// MessageResponse represents a generic message payload used for success responses.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse represents a generic error payload used for error responses.
// Field is only set for contact validation failures.
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

// ContentResponse wraps site content with where it came from
type ContentResponse struct {
	Data   any            `json:"data"`
	Source content.Origin `json:"source"`
}
