package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/tflies/internal/domain/task"
	"github.com/rpggio/tflies/internal/timeparse"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

// MapError maps domain errors to MCP error codes. Unrecognized errors are
// returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return err
	}
	switch {
	case errors.Is(err, task.ErrInvalidIdentifier):
		return &APIError{Code: "INVALID_IDENTIFIER", Message: err.Error(), RecoveryHint: "Read tflies://docs/ids for the id format"}
	case errors.Is(err, task.ErrUnknownTask):
		return &APIError{Code: "UNKNOWN_TASK", Message: err.Error(), RecoveryHint: "Call list_tasks to find current ids"}
	case errors.Is(err, task.ErrOperationConflict):
		return &APIError{Code: "CONFLICT", Message: err.Error(), RecoveryHint: "Check current_task and the task's children"}
	case errors.Is(err, task.ErrInvalidInput), errors.Is(err, timeparse.ErrInvalidTime):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, task.ErrPersistence):
		return &APIError{Code: "PERSISTENCE", Message: err.Error(), RecoveryHint: "Changes are kept in memory; retry later"}
	default:
		return err
	}
}
