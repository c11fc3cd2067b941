package client

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// ErrRateLimited is returned once the 429 retries are exhausted.
var ErrRateLimited = errors.New("too many requests, please wait a moment before uploading more files")

// ErrUnhealthy is returned by Health when a component is down.
var ErrUnhealthy = errors.New("server reported an unhealthy component")

// APIError is a non-2xx response carrying the server envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}

	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Failure is the class of a failed call.
type Failure int

const (
	FailureGeneric Failure = iota
	// FailureHealth: the server is unreachable or reports itself unhealthy.
	FailureHealth
	// FailureAuth: the session is missing or expired.
	FailureAuth
)

func (f Failure) String() string {
	switch f {
	case FailureHealth:
		return "health"
	case FailureAuth:
		return "auth"
	default:
		return "generic"
	}
}

// Classify returns the class of err.
func Classify(err error) Failure {
	if err == nil {
		return FailureGeneric
	}

	if errors.Is(err, ErrUnhealthy) {
		return FailureHealth
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized:
			return FailureAuth
		case http.StatusServiceUnavailable:
			return FailureHealth
		}

		return FailureGeneric
	}

	var netErr net.Error
	var urlErr *url.Error

	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return FailureHealth
	}

	return FailureGeneric
}

// Describe returns the message shown to a user for err.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, ErrRateLimited) {
		return ErrRateLimited.Error()
	}

	switch Classify(err) {
	case FailureHealth:
		return "the file server is unavailable, please try again later"
	case FailureAuth:
		return "your session has expired, please log in again"
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status < 500 && apiErr.Message != "" {
		return apiErr.Message
	}

	return "something went wrong, please try again"
}
