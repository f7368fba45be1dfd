package task

import "github.com/rpggio/tflies/internal/domain/sid"

// CreateRequest describes a task creation request. DueTime and ExpectTime
// take Unset when absent.
type CreateRequest struct {
	ParentID    sid.ID
	Name        string
	Description string
	Priority    Priority
	DueTime     int64
	ExpectTime  int64
}

// UpdateRequest describes field edits to an existing task. Nil fields are
// left unchanged.
type UpdateRequest struct {
	ID          sid.ID
	Name        *string
	Description *string
	Priority    *Priority
	Efficiency  *Efficiency
	DueTime     *int64
	ExpectTime  *int64
}

// HaltRequest closes the running time piece.
type HaltRequest struct {
	Description string
	Efficiency  Efficiency
}
