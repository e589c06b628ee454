package types

import "time"

// Response is the generic API envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status     string          `json:"status"`
	Service    string          `json:"service"`
	Version    string          `json:"version"`
	Timestamp  string          `json:"timestamp"`
	Components map[string]bool `json:"components"`
}

// VersionResponse reports the build.
type VersionResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Go      string `json:"go"`
}

// ErrorResponse is the detailed error payload.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message,omitempty"`
	Code      string    `json:"code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSuccessResponse wraps data in a success envelope.
func NewSuccessResponse(data interface{}, message string) *Response {
	return &Response{
		Success: true,
		Data:    data,
		Message: message,
	}
}

// NewErrorResponse wraps an error in the envelope.
func NewErrorResponse(err string, message string) *Response {
	return &Response{
		Success: false,
		Error:   err,
		Message: message,
	}
}
