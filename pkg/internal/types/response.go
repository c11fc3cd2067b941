// Package types holds the request and response bodies of the HTTP API.
package types

// Error codes of failed responses.
const (
	CodeValidation   = "validation_error"
	CodeNotFound     = "not_found"
	CodeUnauthorized = "unauthorized"
	CodeConflict     = "conflict"
	CodeRateLimited  = "rate_limited"
	CodeUnavailable  = "unavailable"
	CodeInternal     = "internal_error"
)

// Response is the envelope of every successful JSON response.
type Response[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// ErrorResponse is the envelope of every failed JSON response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// OK builds a successful envelope.
func OK[T any](message string, data T) Response[T] {
	return Response[T]{Success: true, Message: message, Data: data}
}

// Fail builds a failed envelope.
func Fail(code, message string) ErrorResponse {
	return ErrorResponse{Success: false, Message: message, Code: code}
}
