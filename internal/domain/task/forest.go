package task

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/tflies/internal/domain/sid"
)

// Forest maps identifiers to nodes and owns the root. It also carries the
// execution session: the running node and the time piece id counter.
type Forest struct {
	root        *Node
	nodes       map[sid.ID]*Node
	running     *Node
	nextPieceID int64
	clock       func() time.Time
	logger      *slog.Logger
}

// NewForest returns a forest holding only the root.
func NewForest(logger *slog.Logger, clock func() time.Time) *Forest {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if clock == nil {
		clock = time.Now
	}
	root := newRoot()
	return &Forest{
		root:        root,
		nodes:       map[sid.ID]*Node{sid.Root: root},
		nextPieceID: 1,
		clock:       clock,
		logger:      logger,
	}
}

// IngestReport summarizes a batch of task rows.
type IngestReport struct {
	Loaded       int
	Rejected     int
	Placeholders int
}

// PieceReport summarizes a batch of time piece rows.
type PieceReport struct {
	Attached int
	InFlight int
	Dropped  int
}

func (f *Forest) Root() *Node { return f.root }

// Len is the number of map entries, placeholders and tombstones included.
func (f *Forest) Len() int { return len(f.nodes) }

// Running returns the node with a piece in flight, or nil.
func (f *Forest) Running() *Node { return f.running }

// NextPieceID is the id the next started piece will receive.
func (f *Forest) NextPieceID() int64 { return f.nextPieceID }

func (f *Forest) now() int64 { return f.clock().UnixMilli() }

// Get resolves id to a real node. Tombstoned nodes are returned; callers
// decide how to treat them.
func (f *Forest) Get(id sid.ID) (*Node, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIdentifier, id)
	}
	node, ok := f.nodes[id]
	if !ok || node.Placeholder() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTask, id)
	}
	return node, nil
}

// lookupLive resolves id for read operations, hiding deleted tasks.
func (f *Forest) lookupLive(id sid.ID) (*Node, error) {
	node, err := f.Get(id)
	if err != nil {
		return nil, err
	}
	if node.Tombstoned() {
		return nil, fmt.Errorf("%w: %d was deleted", ErrUnknownTask, id)
	}
	return node, nil
}

// lookupMutable resolves id for mutations, rejecting deleted tasks.
func (f *Forest) lookupMutable(id sid.ID) (*Node, error) {
	node, err := f.Get(id)
	if err != nil {
		return nil, err
	}
	if node.Tombstoned() {
		return nil, conflict("task %d is deleted", id)
	}
	return node, nil
}

// Ingest rebuilds the tree from task rows in any order. Unknown ancestors
// are synthesized as placeholders and promoted when their own row arrives.
func (f *Forest) Ingest(items []Item) IngestReport {
	var report IngestReport
	for _, item := range items {
		if err := f.ingest(item); err != nil {
			report.Rejected++
			f.logger.Warn("skipping task row", "task_id", int64(item.ID), "error", err)
			continue
		}
		report.Loaded++
	}
	for _, n := range f.nodes {
		if n.Placeholder() {
			report.Placeholders++
		}
	}
	return report
}

func (f *Forest) ingest(item Item) error {
	d := sid.Decode(item.ID)
	if !d.Valid {
		return fmt.Errorf("%w: %d", ErrInvalidIdentifier, item.ID)
	}
	if item.ID != sid.Root && item.ParentID != d.Parent {
		f.logger.Warn("stored parent disagrees with identifier",
			"task_id", int64(item.ID), "stored_parent", int64(item.ParentID), "parent", int64(d.Parent))
	}
	item.ParentID = d.Parent

	if node, ok := f.nodes[item.ID]; ok {
		item.UpdateTime = max(item.UpdateTime, node.item.UpdateTime)
		node.item = item
		node.kind = kindReal
		node.PropagateTimestamp(item.UpdateTime, false)
		return nil
	}

	for _, id := range sid.Path(item.ID) {
		if id.Index() >= MaxSlots {
			return fmt.Errorf("%w: sibling index of %d exceeds %d", ErrInvalidIdentifier, id, MaxSlots)
		}
	}

	node := &Node{item: item}
	for cur := node; ; {
		f.nodes[cur.item.ID] = cur
		parent, known := f.nodes[cur.item.ParentID]
		if !known {
			parent = newPlaceholder(cur.item.ParentID)
		}
		if err := parent.AttachChild(cur); err != nil {
			return err
		}
		if known {
			break
		}
		cur = parent
	}
	node.PropagateTimestamp(item.UpdateTime, false)
	return nil
}

// IngestTimePieces attaches piece rows to their tasks. It must run after
// Ingest. A row with EndTime unset becomes the in-flight piece.
func (f *Forest) IngestTimePieces(pieces []TimePiece) PieceReport {
	var report PieceReport
	for i := range pieces {
		piece := pieces[i]
		piece.State = PieceClean
		if piece.ID >= f.nextPieceID {
			f.nextPieceID = piece.ID + 1
		}

		node, ok := f.nodes[piece.TaskID]
		if !ok || node.Placeholder() {
			report.Dropped++
			f.logger.Warn("dropping orphan time piece", "piece_id", piece.ID, "task_id", int64(piece.TaskID))
			continue
		}

		if piece.InFlight() {
			if f.running != nil {
				report.Dropped++
				f.logger.Warn("dropping second in-flight time piece",
					"piece_id", piece.ID, "task_id", int64(piece.TaskID), "running", int64(f.running.ID()))
				continue
			}
			node.inFlight = &piece
			f.running = node
			report.InFlight++
			continue
		}

		if err := node.AttachTimePiece(&piece); err != nil {
			report.Dropped++
			f.logger.Warn("dropping time piece", "piece_id", piece.ID, "task_id", int64(piece.TaskID), "error", err)
			continue
		}
		report.Attached++
	}
	return report
}

// Create adds a child under parentID in the lowest free slot.
func (f *Forest) Create(parentID sid.ID, item Item) (*Node, error) {
	parent, err := f.lookupMutable(parentID)
	if err != nil {
		return nil, err
	}
	child, err := parent.CreateChild(item, -1, f.now())
	if err != nil {
		return nil, err
	}
	f.nodes[child.ID()] = child
	child.PropagateTimestamp(child.item.UpdateTime, true)
	return child, nil
}

// Update applies edit to the item of id. Identity and creation time are
// preserved whatever edit does.
func (f *Forest) Update(id sid.ID, edit func(*Item)) (*Node, error) {
	node, err := f.lookupMutable(id)
	if err != nil {
		return nil, err
	}
	item := node.item
	edit(&item)
	item.ID = node.item.ID
	item.ParentID = node.item.ParentID
	item.CreateTime = node.item.CreateTime
	node.item = item
	node.touch(f.now())
	return node, nil
}

// Delete tombstones id. The node stays in the map until the process exits.
func (f *Forest) Delete(id sid.ID) error {
	node, err := f.lookupMutable(id)
	if err != nil {
		return err
	}
	switch {
	case node == f.root:
		return conflict("the root task cannot be deleted")
	case node == f.running:
		return conflict("task %d is running", id)
	case node.hasLiveChildren():
		return conflict("task %d has children", id)
	}
	node.state = StateTombstoned
	node.parent.touch(f.now())
	return nil
}
