package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/atelierhq/handoff-api/internal/service"
	"github.com/atelierhq/handoff-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes based
// on the error type. This keeps internal error types and messages out
// of client responses.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrAmbiguousReference),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, service.ErrTaskTerminal):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// An empty queue is an informative outcome, not a failure.
	case errors.Is(err, store.ErrNoTasksAvailable):
		return http.StatusNoContent

	case errors.Is(err, store.ErrStoreUnavailable):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrAmbiguousReference):
		return "Task reference matches more than one task"

	case errors.Is(err, store.ErrDuplicate):
		return "Task ID already exists"

	case errors.Is(err, service.ErrTaskTerminal):
		return "Task is already complete or blocked"

	case errors.Is(err, service.ErrInvalidInput):
		// Input errors carry their own safe detail after the sentinel.
		msg := err.Error()
		if idx := strings.Index(msg, service.ErrInvalidInput.Error()); idx >= 0 {
			detail := strings.TrimPrefix(msg[idx:], service.ErrInvalidInput.Error())
			detail = strings.TrimPrefix(detail, ": ")
			if detail != "" {
				return "Invalid request: " + detail
			}
		}
		return "Invalid request"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid task data"

	case errors.Is(err, store.ErrStoreUnavailable):
		return "Storage temporarily unavailable"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns a validator error into a user-friendly
// message without echoing struct internals.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example: "Key: 'CreateTaskRequest.Instruction' Error:Field
		// validation for 'Instruction' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly messages.
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
