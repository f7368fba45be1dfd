package task

import (
	"fmt"

	"github.com/rpggio/tflies/internal/domain/sid"
)

// Start opens a time piece on id. At most one piece is in flight across the
// whole forest.
func (f *Forest) Start(id sid.ID) (*TimePiece, error) {
	node, err := f.lookupMutable(id)
	if err != nil {
		return nil, err
	}
	if node == f.root {
		return nil, conflict("the root task cannot be started")
	}
	if f.running != nil {
		return nil, conflict("task %d is already running", f.running.ID())
	}

	now := f.now()
	piece := &TimePiece{
		ID:           f.nextPieceID,
		TaskID:       id,
		SerialNumber: len(node.pieces),
		BeginTime:    now,
		EndTime:      Unset,
		State:        PieceDirty,
	}
	f.nextPieceID++

	node.inFlight = piece
	f.running = node
	node.item.Status = StatusInProgress
	node.touch(now)
	return piece, nil
}

// Halt closes the in-flight piece, appends it to its task and adds its
// duration to the task's cost time.
func (f *Forest) Halt(description string, efficiency Efficiency) (*TimePiece, error) {
	if f.running == nil {
		return nil, conflict("no task is running")
	}
	if !efficiency.Valid() {
		return nil, fmt.Errorf("%w: efficiency %d", ErrInvalidInput, efficiency)
	}
	node := f.running
	if len(node.pieces) >= MaxSlots {
		return nil, fmt.Errorf("%w: task %d has no free serial number", ErrInvalidTimePiece, node.ID())
	}

	now := f.now()
	piece := node.inFlight
	piece.EndTime = max(now, piece.BeginTime)
	piece.SerialNumber = len(node.pieces)
	piece.Description = description
	piece.Efficiency = efficiency
	piece.State = PieceDirty
	if err := node.AttachTimePiece(piece); err != nil {
		piece.EndTime = Unset
		return nil, err
	}

	node.inFlight = nil
	f.running = nil
	node.item.CostTime += piece.Duration()
	if efficiency != EfficiencyUndefined {
		node.item.Efficiency = efficiency
	}
	node.item.Status = StatusPaused
	node.touch(now)
	return piece, nil
}

// SetStatus overrides the status of id.
func (f *Forest) SetStatus(id sid.ID, status Status) (*Node, error) {
	node, err := f.lookupMutable(id)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: status %d", ErrInvalidInput, status)
	}
	node.item.Status = status
	node.touch(f.now())
	return node, nil
}
