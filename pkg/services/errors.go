// Package services provides the workflow service layer and its error types.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest    = errors.New("invalid request")
	ErrWorkflowNil       = errors.New("workflow cannot be nil")
	ErrUnknownAgentType  = errors.New("unknown agent type")
	ErrUnknownDependency = errors.New("dependency does not name an existing step")
	ErrSelfDependency    = errors.New("step cannot depend on itself")
	ErrDuplicateStepID   = errors.New("step id already exists in workflow")

	// Business logic conflicts (409 Conflict).
	ErrWorkflowAlreadyStarted = errors.New("workflow has already started")
	ErrWorkflowNotRunnable    = errors.New("workflow is not runnable")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrUnknownAgentType) ||
		errors.Is(err, ErrUnknownDependency) ||
		errors.Is(err, ErrSelfDependency) ||
		errors.Is(err, ErrDuplicateStepID)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrWorkflowAlreadyStarted) ||
		errors.Is(err, ErrWorkflowNotRunnable)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
