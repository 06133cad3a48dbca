// Package errors provides custom error types for the chat completions client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrInvalidResponse   = errors.New("invalid response format")
	ErrNoChoices         = errors.New("no choices in response")
)

// ConfigReason describes why the credential check failed
type ConfigReason string

const (
	ReasonMissing   ConfigReason = "missing"
	ReasonMalformed ConfigReason = "malformed"
)

// ConfigError represents a missing or malformed credential.
// It is detected once at startup and blocks the whole session.
type ConfigError struct {
	Reason  ConfigReason
	Message string
}

func (e *ConfigError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API key is %s", e.Reason)
	}
	return fmt.Sprintf("API key is %s: %s", e.Reason, e.Message)
}

// Is allows comparison with sentinel errors
func (e *ConfigError) Is(target error) bool {
	if target == ErrInvalidCredential {
		return true
	}
	_, ok := target.(*ConfigError)
	return ok
}

// NewConfigError creates a new ConfigError
func NewConfigError(reason ConfigReason, message string) *ConfigError {
	return &ConfigError{Reason: reason, Message: message}
}

// APIError represents a non-success HTTP response
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// NewAPIErrorWithBody creates a new APIError that keeps the raw response body for diagnostics
func NewAPIErrorWithBody(statusCode int, endpoint, message, body string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
		Body:       body,
	}
}

// NetworkError represents a transport failure before any response was read
type NetworkError struct {
	Operation string
	Endpoint  string
	Cause     error
}

func (e *NetworkError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("network error during %s", e.Operation)
	}
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(operation string, cause error) *NetworkError {
	return &NetworkError{Operation: operation, Cause: cause}
}

// NewNetworkErrorWithEndpoint creates a new NetworkError tied to an endpoint
func NewNetworkErrorWithEndpoint(operation, endpoint string, cause error) *NetworkError {
	return &NetworkError{Operation: operation, Endpoint: endpoint, Cause: cause}
}

// ParseError represents a response parsing error
type ParseError struct {
	Message string
	Path    string
	Err     error // Optional sentinel the failure matches
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse error: %s", e.Message)
	}
	return fmt.Sprintf("parse error at %s: %s", e.Path, e.Message)
}

// NewParseError creates a new ParseError
func NewParseError(message, path string) *ParseError {
	return &ParseError{Message: message, Path: path}
}

// NewNoChoicesError reports a success body without a usable candidate
func NewNoChoicesError(path string) *ParseError {
	return &ParseError{Message: ErrNoChoices.Error(), Path: path, Err: ErrNoChoices}
}

// Unwrap returns the sentinel, if any
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// IsConfigError reports whether err is a credential configuration error
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsNetworkError reports whether err is a transport failure
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsParseError reports whether err is a response parsing error
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsAPIError reports whether err is a non-success HTTP response
func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}

// GetHTTPStatus returns the HTTP status carried by err, or 0
func GetHTTPStatus(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}

// GetEndpoint returns the endpoint carried by err, or ""
func GetEndpoint(err error) string {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Endpoint
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Endpoint
	}
	return ""
}

// GetResponseBody returns the raw error body carried by err, or ""
func GetResponseBody(err error) string {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Body
	}
	return ""
}
