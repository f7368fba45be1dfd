package task

import (
	"errors"
	"fmt"

	"github.com/rpggio/tflies/internal/domain/sid"
)

var (
	// ErrInvalidIdentifier indicates a malformed id or an exhausted digit budget.
	ErrInvalidIdentifier = errors.New("invalid task identifier")
	// ErrUnknownTask indicates the id has no task in the forest.
	ErrUnknownTask = errors.New("unknown task")
	// ErrOperationConflict indicates the operation is not allowed in the current state.
	ErrOperationConflict = errors.New("operation conflict")
	// ErrPersistence indicates the store could not read or write a row.
	ErrPersistence = errors.New("persistence failure")
	// ErrInvalidInput indicates invalid field values for a task operation.
	ErrInvalidInput = errors.New("invalid task input")
	// ErrInvalidTimePiece indicates a time piece with an unusable serial number.
	ErrInvalidTimePiece = errors.New("invalid time piece")
	// ErrDuplicateTimePiece indicates two pieces of one task share a serial number.
	ErrDuplicateTimePiece = errors.New("duplicate time piece serial number")
)

// FlushError reports the node at which a flush stopped.
type FlushError struct {
	TaskID sid.ID
	Op     string
	Err    error
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("flush task %d: %s: %v", e.TaskID, e.Op, e.Err)
}

func (e *FlushError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// LoadError reports a failed read during Load.
type LoadError struct {
	Table string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Table, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrOperationConflict, fmt.Sprintf(format, args...))
}
