// Package service provides the application-level operations of the handoff
// queue: task creation and lookup, claiming, lifecycle transitions, and
// project rollups.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API and tool layers map service errors to their own status codes
var (
	// ErrInvalidInput indicates a required field is missing or malformed.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTaskTerminal indicates a lifecycle operation was attempted on a
	// task that is already complete or blocked. There is no defined
	// transition out of either state; reopening is an administrative
	// status edit, not a lifecycle move.
	// API layer should map this to HTTP 409 Conflict.
	ErrTaskTerminal = errors.New("task is already complete or blocked")
)
