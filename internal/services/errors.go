package services

// Typed service errors. Handlers map these to HTTP status codes in
// handleServiceError; everything else surfaces as a 500.

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

// InvalidTargetError means the caller-supplied channel/profile reference
// could not be resolved to a canonical identifier.
type InvalidTargetError struct{ Message string }

func (e *InvalidTargetError) Error() string { return e.Message }

type InvalidArgumentError struct{ Message string }

func (e *InvalidArgumentError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

// RateLimitError signals an exhausted upstream quota, kept distinct from
// UpstreamError so callers can back off instead of retrying immediately.
type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

type UpstreamError struct{ Message string }

func (e *UpstreamError) Error() string { return e.Message }

type TimeoutError struct{ Message string }

func (e *TimeoutError) Error() string { return e.Message }
