package task

import (
	"fmt"

	"github.com/rpggio/tflies/internal/domain/sid"
)

// Move re-parents the subtree at srcID under targetID. Every live node of
// the subtree is recreated depth-first with a fresh identifier, its time
// pieces follow it, and the originals are tombstoned.
func (f *Forest) Move(srcID, targetID sid.ID) (*Node, error) {
	src, err := f.lookupMutable(srcID)
	if err != nil {
		return nil, err
	}
	target, err := f.lookupMutable(targetID)
	if err != nil {
		return nil, err
	}

	switch {
	case src == f.root:
		return nil, conflict("the root task cannot be moved")
	case src == target || sid.IsAncestor(srcID, targetID):
		return nil, conflict("task %d cannot move into its own subtree", srcID)
	case src.parent == target:
		return nil, conflict("task %d is already under %d", srcID, targetID)
	case f.running != nil && (f.running == src || sid.IsAncestor(srcID, f.running.ID())):
		return nil, conflict("task %d is running", f.running.ID())
	}

	slot := target.freeSlot()
	newID := sid.Encode(targetID, int64(slot))
	if newID == sid.Invalid || slot >= MaxSlots {
		return nil, fmt.Errorf("%w: no identifier for slot %d under %d", ErrInvalidIdentifier, slot, targetID)
	}
	if err := checkRelocatable(src, newID); err != nil {
		return nil, err
	}

	now := f.now()
	oldParent := src.parent
	moved, err := f.relocate(src, target, slot, now)
	if err != nil {
		return nil, err
	}
	oldParent.touch(now)
	moved.PropagateTimestamp(now, true)
	return moved, nil
}

func checkRelocatable(n *Node, id sid.ID) error {
	for i, c := range n.children {
		if !c.live() {
			continue
		}
		cid := sid.Encode(id, int64(i))
		if cid == sid.Invalid {
			return fmt.Errorf("%w: task %d does not fit under %d", ErrInvalidIdentifier, c.ID(), id)
		}
		if err := checkRelocatable(c, cid); err != nil {
			return err
		}
	}
	return nil
}

func (f *Forest) relocate(src, dst *Node, slot int, now int64) (*Node, error) {
	copied, err := dst.claim(slot, src.item, now)
	if err != nil {
		return nil, err
	}
	copied.item.CreateTime = src.item.CreateTime
	if src.Placeholder() {
		copied.kind = kindPlaceholder
		copied.state = StateClean
	}
	f.nodes[copied.ID()] = copied

	for _, p := range src.pieces {
		if p != nil {
			p.TaskID = copied.ID()
			p.State = PieceDirty
		}
	}
	copied.pieces = src.pieces
	src.pieces = nil
	src.state = StateTombstoned

	for i, c := range src.children {
		if !c.live() {
			continue
		}
		if _, err := f.relocate(c, copied, i, now); err != nil {
			return nil, err
		}
	}
	return copied, nil
}
