package task

import (
	"fmt"

	"github.com/rpggio/tflies/internal/domain/sid"
)

// MaxSlots bounds the child and time piece slices of a single node. Sibling
// indices and serial numbers at or above it are rejected.
const MaxSlots = 1 << 16

// NodeState is the flush lifecycle of a node.
type NodeState int

const (
	// StateClean nodes match the store.
	StateClean NodeState = iota
	// StateDirty nodes are upserted on the next flush.
	StateDirty
	// StateTombstoned nodes are deleted on the next flush.
	StateTombstoned
	// StatePurged nodes were tombstoned and have already been deleted.
	StatePurged
)

type nodeKind int

const (
	kindReal nodeKind = iota
	kindPlaceholder
)

// Node is one slot of the task tree. Children are addressed by sibling index
// and pieces by serial number; both slices may contain nil gaps.
type Node struct {
	item     Item
	kind     nodeKind
	state    NodeState
	parent   *Node // non-owning
	children []*Node
	pieces   []*TimePiece
	stale    []*TimePiece
	inFlight *TimePiece
}

func newRoot() *Node {
	item := NewItem(RootName)
	item.ID = sid.Root
	return &Node{item: item}
}

func newPlaceholder(id sid.ID) *Node {
	item := NewItem("")
	item.ID = id
	item.ParentID = id.Parent()
	return &Node{item: item, kind: kindPlaceholder}
}

func (n *Node) ID() sid.ID       { return n.item.ID }
func (n *Node) Item() Item       { return n.item }
func (n *Node) Parent() *Node    { return n.parent }
func (n *Node) State() NodeState { return n.state }

// Placeholder reports whether the node stands in for an ancestor whose row
// has not been seen.
func (n *Node) Placeholder() bool { return n.kind == kindPlaceholder }

// Tombstoned reports whether the node has been deleted, flushed or not.
func (n *Node) Tombstoned() bool {
	return n.state == StateTombstoned || n.state == StatePurged
}

// Child returns the node at a sibling index, or nil.
func (n *Node) Child(index int) *Node {
	if index < 0 || index >= len(n.children) {
		return nil
	}
	return n.children[index]
}

// Children returns the live children in index order.
func (n *Node) Children() []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.live() {
			out = append(out, c)
		}
	}
	return out
}

// Pieces returns copies of the finished time pieces in serial order.
func (n *Node) Pieces() []TimePiece {
	out := make([]TimePiece, 0, len(n.pieces))
	for _, p := range n.pieces {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// InFlight returns the piece currently being timed, or nil.
func (n *Node) InFlight() *TimePiece { return n.inFlight }

func (n *Node) live() bool {
	return n != nil && !n.Tombstoned()
}

func (n *Node) hasLiveChildren() bool {
	for _, c := range n.children {
		if c.live() {
			return true
		}
	}
	return false
}

func (n *Node) freeSlot() int {
	for i, c := range n.children {
		if !c.live() {
			return i
		}
	}
	return len(n.children)
}

// CreateChild writes item into a child slot. A non-negative index that
// addresses a live child updates it in place. Otherwise the child takes the
// given slot, or the lowest free one when index is negative, and receives a
// fresh identifier.
func (n *Node) CreateChild(item Item, index int, now int64) (*Node, error) {
	if index >= 0 && index < len(n.children) && n.children[index].live() {
		child := n.children[index]
		item.ID = child.item.ID
		item.ParentID = child.item.ParentID
		item.CreateTime = child.item.CreateTime
		item.UpdateTime = now
		child.item = item
		child.kind = kindReal
		child.state = StateDirty
		return child, nil
	}

	slot := index
	if slot < 0 {
		slot = n.freeSlot()
	}
	return n.claim(slot, item, now)
}

// claim installs item at slot. A tombstoned occupant is revived in place so
// its pending deletes are not lost.
func (n *Node) claim(slot int, item Item, now int64) (*Node, error) {
	if slot >= MaxSlots {
		return nil, fmt.Errorf("%w: slot %d under %d exceeds %d", ErrInvalidIdentifier, slot, n.item.ID, MaxSlots)
	}
	id := sid.Encode(n.item.ID, int64(slot))
	if id == sid.Invalid {
		return nil, fmt.Errorf("%w: no identifier for slot %d under %d", ErrInvalidIdentifier, slot, n.item.ID)
	}

	item.ID = id
	item.ParentID = n.item.ID
	item.CreateTime = now
	item.UpdateTime = now

	if existing := n.Child(slot); existing != nil {
		if existing.live() {
			return nil, conflict("slot %d under %d is occupied", slot, n.item.ID)
		}
		existing.revive(item)
		return existing, nil
	}

	child := &Node{item: item, state: StateDirty}
	n.setChild(slot, child)
	return child, nil
}

func (n *Node) revive(item Item) {
	for _, p := range n.pieces {
		if p != nil {
			p.State = PieceDeleted
			n.stale = append(n.stale, p)
		}
	}
	n.pieces = nil
	n.item = item
	n.kind = kindReal
	n.state = StateDirty
}

func (n *Node) setChild(slot int, child *Node) {
	for len(n.children) <= slot {
		n.children = append(n.children, nil)
	}
	n.children[slot] = child
	child.parent = n
}

// AttachChild slots an identified node at the index derived from its id.
func (n *Node) AttachChild(child *Node) error {
	if child == nil {
		return fmt.Errorf("%w: nil child", ErrInvalidInput)
	}
	d := sid.Decode(child.item.ID)
	if !d.Valid || d.Depth == 0 {
		return fmt.Errorf("%w: %d cannot be a child", ErrInvalidIdentifier, child.item.ID)
	}
	if d.Parent != n.item.ID {
		return fmt.Errorf("%w: %d is not a child of %d", ErrInvalidIdentifier, child.item.ID, n.item.ID)
	}
	if d.Index >= MaxSlots {
		return fmt.Errorf("%w: sibling index %d exceeds %d", ErrInvalidIdentifier, d.Index, MaxSlots)
	}
	n.setChild(int(d.Index), child)
	return nil
}

// PropagateTimestamp advances updateTime on this node and its ancestors.
// When markDirty is set every real node whose timestamp moves is marked
// dirty.
func (n *Node) PropagateTimestamp(updateTime int64, markDirty bool) {
	for p := n; p != nil; p = p.parent {
		if p.item.UpdateTime < updateTime {
			p.item.UpdateTime = updateTime
			if markDirty && p.kind == kindReal && !p.Tombstoned() {
				p.state = StateDirty
			}
			continue
		}
		updateTime = p.item.UpdateTime
	}
}

// AttachTimePiece stores a finished piece at its serial number.
func (n *Node) AttachTimePiece(piece *TimePiece) error {
	if piece == nil {
		return fmt.Errorf("%w: nil piece", ErrInvalidTimePiece)
	}
	if piece.SerialNumber < 0 || piece.SerialNumber >= MaxSlots {
		return fmt.Errorf("%w: serial number %d", ErrInvalidTimePiece, piece.SerialNumber)
	}
	for len(n.pieces) <= piece.SerialNumber {
		n.pieces = append(n.pieces, nil)
	}
	if n.pieces[piece.SerialNumber] != nil {
		return fmt.Errorf("%w: task %d serial %d", ErrDuplicateTimePiece, n.item.ID, piece.SerialNumber)
	}
	n.pieces[piece.SerialNumber] = piece
	return nil
}

func (n *Node) touch(now int64) {
	n.item.UpdateTime = now
	if n.kind == kindReal {
		n.state = StateDirty
	}
	n.PropagateTimestamp(now, true)
}

func (n *Node) view() *TaskView {
	v := &TaskView{
		Item:     n.item,
		Pieces:   n.Pieces(),
		Children: len(n.Children()),
	}
	if n.inFlight != nil {
		p := *n.inFlight
		v.InFlight = &p
	}
	return v
}
