package upstream

import (
	"errors"
	"fmt"
)

// Error is a non-validation failure returned by the marketplace API. Message
// is taken from the response body when one is present.
type Error struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return fmt.Sprintf("upstream: request failed with status %d", e.Status)
	}
	return fmt.Sprintf("upstream: %s (status %d)", e.Message, e.Status)
}

// ValidationError carries the field-keyed errors structure of a 422 response.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return "upstream: validation failed"
	}
	return "upstream: " + e.Message
}

// AsValidation extracts a ValidationError from the error chain.
func AsValidation(err error) (*ValidationError, bool) {
	var target *ValidationError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// StatusOf returns the HTTP status carried by an upstream error, or 0 when the
// failure never produced a response (network error, timeout).
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	if _, ok := AsValidation(err); ok {
		return 422
	}
	return 0
}
