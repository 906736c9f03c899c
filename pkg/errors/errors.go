package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"
)

// Error codes
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeRateLimited     = "RATE_LIMITED"
	CodeUpstreamTimeout = "UPSTREAM_TIMEOUT"
	CodeUpstream        = "UPSTREAM_ERROR"
	CodeInternal        = "INTERNAL_ERROR"
	CodeCache           = "CACHE_ERROR"
)

// InsightError is the single typed error surfaced to the boundary layer.
// StatusCode is an HTTP-like severity; the core never writes it to a transport.
type InsightError struct {
	Message    string
	Code       string
	StatusCode int
	Details    map[string]any
	Cause      error
}

func (e *InsightError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InsightError) Unwrap() error {
	return e.Cause
}

func NewInsightError(message, code string, statusCode int, details map[string]any) *InsightError {
	return &InsightError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Details:    details,
	}
}

func (e *InsightError) WithCause(cause error) *InsightError {
	e.Cause = cause
	return e
}

func NewValidationError(message, field string, value any) *InsightError {
	return NewInsightError(message, CodeValidation, 400, map[string]any{
		"field": field,
		"value": value,
	})
}

func NewNotFoundError(message, resource, id string) *InsightError {
	return NewInsightError(message, CodeNotFound, 404, map[string]any{
		"resource": resource,
		"id":       id,
	})
}

func NewRateLimitedError(message string, retryAfter time.Duration) *InsightError {
	return NewInsightError(message, CodeRateLimited, 429, map[string]any{
		"retry_after_ms": retryAfter.Milliseconds(),
	})
}

func NewUpstreamTimeoutError(stage string, timeout time.Duration) *InsightError {
	return NewInsightError(fmt.Sprintf("%s timed out", stage), CodeUpstreamTimeout, 504, map[string]any{
		"stage":      stage,
		"timeout_ms": timeout.Milliseconds(),
	})
}

func NewUpstreamError(stage string, cause error) *InsightError {
	return NewInsightError(fmt.Sprintf("%s failed", stage), CodeUpstream, 502, map[string]any{
		"stage": stage,
	}).WithCause(cause)
}

func NewInternalError(message string, cause error) *InsightError {
	return NewInsightError(message, CodeInternal, 500, nil).WithCause(cause)
}

func NewCacheError(message, operation, key string, cause error) *InsightError {
	return NewInsightError(message, CodeCache, 500, map[string]any{
		"operation": operation,
		"key":       key,
	}).WithCause(cause)
}

// AsInsightError finds the first InsightError in err's chain.
func AsInsightError(err error) (*InsightError, bool) {
	var ie *InsightError
	if stderrors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// CodeOf returns the machine-readable code of err, or CodeInternal for untyped errors.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	if ie, ok := AsInsightError(err); ok {
		return ie.Code
	}
	return CodeInternal
}

// Upstream keeps typed errors as they are and wraps anything else as an upstream failure of stage.
// Cache errors are never surfaced as-is from an upstream stage.
func Upstream(stage string, err error) error {
	if err == nil {
		return nil
	}
	if ie, ok := AsInsightError(err); ok && ie.Code != CodeCache {
		return err
	}
	return NewUpstreamError(stage, err)
}

// Aborted types a caller-side context failure observed at stage. A caller
// deadline becomes UPSTREAM_TIMEOUT; cancellation becomes INTERNAL_ERROR.
// The context error stays in the chain for errors.Is.
func Aborted(stage string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsInsightError(err); ok {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewInsightError(fmt.Sprintf("%s exceeded the caller deadline", stage), CodeUpstreamTimeout, 504, map[string]any{
			"stage": stage,
		}).WithCause(err)
	}
	return NewInsightError(fmt.Sprintf("%s aborted: request cancelled", stage), CodeInternal, 499, map[string]any{
		"stage": stage,
	}).WithCause(err)
}

func IsTimeout(err error) bool {
	return CodeOf(err) == CodeUpstreamTimeout
}
