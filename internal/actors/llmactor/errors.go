// Package llmactor provides an Actor that completes a prompt against a
// configured LLM provider, adapted from the teacher's infrastructure/llm
// package: providers, middleware chain, and error classification, recast
// behind the engine's ports.Actor contract instead of ports.LLMClient.
package llmactor

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors mirroring the teacher's infrastructure/llm/errors.go.
var (
	ErrEmptyAPIKey      = errors.New("API key cannot be empty")
	ErrEmptyResponse    = errors.New("empty response from API")
	ErrNoResponseChoice = errors.New("no response choices returned")
)

// ErrorType categorizes a provider error for retry and reporting purposes.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeAuthentication
	ErrorTypeRateLimit
	ErrorTypeBadRequest
	ErrorTypeNotFound
	ErrorTypeServerError
	ErrorTypeNetwork
	ErrorTypeTimeout
)

// ProviderError normalizes a provider-specific error into a common shape.
type ProviderError struct {
	Type         ErrorType
	Provider     string
	StatusCode   int
	Message      string
	WrappedError error
}

func (e *ProviderError) Error() string {
	base := fmt.Sprintf("%s error", e.Provider)
	if e.StatusCode > 0 {
		base += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if t := e.typeString(); t != "" {
		base += fmt.Sprintf(" [%s]", t)
	}
	if e.Message != "" {
		base += ": " + e.Message
	}
	if e.WrappedError != nil {
		base += fmt.Sprintf(": %v", e.WrappedError)
	}
	return base
}

func (e *ProviderError) Unwrap() error { return e.WrappedError }

// IsRetryable reports whether a request that failed with this error is
// worth retrying.
func (e *ProviderError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

func (e *ProviderError) typeString() string {
	switch e.Type {
	case ErrorTypeAuthentication:
		return "authentication"
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeBadRequest:
		return "bad_request"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeServerError:
		return "server_error"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return ""
	}
}

// NewProviderError builds a ProviderError.
func NewProviderError(provider string, t ErrorType, statusCode int, message string, wrapped error) *ProviderError {
	return &ProviderError{Type: t, Provider: provider, StatusCode: statusCode, Message: message, WrappedError: wrapped}
}

// ErrorClassifier turns HTTP status codes and context errors into
// ProviderError instances for a specific provider.
type ErrorClassifier struct {
	Provider string
}

func (ec *ErrorClassifier) ClassifyHTTPError(statusCode int, message string, err error) *ProviderError {
	var t ErrorType
	switch statusCode {
	case 401, 403:
		t = ErrorTypeAuthentication
	case 429:
		t = ErrorTypeRateLimit
	case 400:
		t = ErrorTypeBadRequest
	case 404:
		t = ErrorTypeNotFound
	case 500, 502, 503, 504:
		t = ErrorTypeServerError
	default:
		switch {
		case statusCode >= 400 && statusCode < 500:
			t = ErrorTypeBadRequest
		case statusCode >= 500:
			t = ErrorTypeServerError
		default:
			t = ErrorTypeUnknown
		}
	}
	return NewProviderError(ec.Provider, t, statusCode, message, err)
}

func (ec *ErrorClassifier) ClassifyContextError(err error) *ProviderError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewProviderError(ec.Provider, ErrorTypeTimeout, 0, "context deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		return NewProviderError(ec.Provider, ErrorTypeNetwork, 0, "request canceled", err)
	default:
		return NewProviderError(ec.Provider, ErrorTypeUnknown, 0, "", err)
	}
}
