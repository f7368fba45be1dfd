package task

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/rpggio/tflies/internal/domain/sid"
	"github.com/stretchr/testify/require"
)

func row(id sid.ID, name string, updated int64) Item {
	item := NewItem(name)
	item.ID = id
	item.ParentID = id.Parent()
	item.CreateTime = updated
	item.UpdateTime = updated
	return item
}

type nodeShape struct {
	Parent      sid.ID
	Name        string
	Placeholder bool
	Updated     int64
	Children    []sid.ID
}

func shape(t *testing.T, f *Forest) map[sid.ID]nodeShape {
	t.Helper()
	out := make(map[sid.ID]nodeShape, len(f.nodes))
	for id, n := range f.nodes {
		s := nodeShape{Name: n.item.Name, Placeholder: n.Placeholder(), Updated: n.item.UpdateTime, Parent: sid.Invalid}
		if n.parent != nil {
			s.Parent = n.parent.ID()
		}
		for i, c := range n.children {
			if c != nil {
				require.Equal(t, int64(i), c.ID().Index())
				s.Children = append(s.Children, c.ID())
			}
		}
		out[id] = s
	}
	return out
}

func permutations(items []Item) [][]Item {
	if len(items) <= 1 {
		return [][]Item{slices.Clone(items)}
	}
	var out [][]Item
	for i := range items {
		rest := slices.Concat(items[:i:i], items[i+1:])
		for _, p := range permutations(rest) {
			out = append(out, append([]Item{items[i]}, p...))
		}
	}
	return out
}

func TestForest_Ingest_BuildsTree(t *testing.T) {
	f := NewForest(nil, nil)
	report := f.Ingest([]Item{
		row(11211, "deep", 40),
		row(10, "first", 10),
		row(11, "second", 20),
		row(1010, "first child", 30),
	})
	require.Equal(t, IngestReport{Loaded: 4}, report)

	second, err := f.Get(11)
	require.NoError(t, err)
	deep, err := f.Get(11211)
	require.NoError(t, err)
	require.Same(t, second, deep.Parent())
	require.Same(t, deep, second.Child(11))
	require.Len(t, second.children, 12)
	require.Equal(t, int64(40), second.Item().UpdateTime, "child timestamps propagate upward")
	require.Equal(t, int64(40), f.Root().Item().UpdateTime)
	require.Equal(t, StateClean, second.State(), "loading does not dirty nodes")
	require.Len(t, f.Root().Children(), 2)
}

func TestForest_Ingest_SynthesizesAndPromotesPlaceholders(t *testing.T) {
	f := NewForest(nil, nil)
	report := f.Ingest([]Item{row(111010, "grandchild", 50)})
	require.Equal(t, 1, report.Loaded)
	require.Equal(t, 2, report.Placeholders)

	_, err := f.Get(11)
	require.ErrorIs(t, err, ErrUnknownTask)
	_, err = f.Get(1110)
	require.ErrorIs(t, err, ErrUnknownTask)

	placeholder := f.nodes[11]
	require.True(t, placeholder.Placeholder())
	require.Equal(t, int64(50), placeholder.Item().UpdateTime)

	f.Ingest([]Item{row(11, "parent", 20)})
	promoted, err := f.Get(11)
	require.NoError(t, err)
	require.Same(t, placeholder, promoted, "promotion happens in place")
	require.False(t, promoted.Placeholder())
	require.Equal(t, "parent", promoted.Item().Name)
	require.Equal(t, int64(50), promoted.Item().UpdateTime)
	require.Same(t, f.nodes[1110], promoted.Child(0))
}

func TestForest_Ingest_RejectsInvalidIdentifiers(t *testing.T) {
	f := NewForest(nil, nil)
	bad := row(10, "bad", 1)
	bad.ID = 201
	negative := row(10, "negative", 1)
	negative.ID = -5
	wide := row(10, "wide", 1)
	wide.ID = 9999999999

	report := f.Ingest([]Item{bad, negative, wide, row(10, "ok", 1)})
	require.Equal(t, 1, report.Loaded)
	require.Equal(t, 3, report.Rejected)
	require.Equal(t, 2, f.Len())
}

func TestForest_Ingest_DerivedParentWins(t *testing.T) {
	f := NewForest(nil, nil)
	item := row(1110, "child", 1)
	item.ParentID = 10
	f.Ingest([]Item{item})

	n := f.nodes[1110]
	require.Equal(t, sid.ID(11), n.Item().ParentID)
	require.Equal(t, sid.ID(11), n.Parent().ID())
}

func TestForest_Ingest_RootRow(t *testing.T) {
	f := NewForest(nil, nil)
	rootRow := row(sid.Root, "my root", 5)
	rootRow.ParentID = sid.Invalid
	f.Ingest([]Item{rootRow})

	require.Equal(t, 1, f.Len())
	require.Equal(t, "my root", f.Root().Item().Name)
}

func TestForest_Ingest_Idempotent(t *testing.T) {
	rows := []Item{row(10, "a", 1), row(1010, "b", 2), row(11211, "c", 3)}

	once := NewForest(nil, nil)
	once.Ingest(rows)

	twice := NewForest(nil, nil)
	twice.Ingest(rows)
	twice.Ingest(rows)

	require.Equal(t, shape(t, once), shape(t, twice))
	require.Equal(t, once.Len(), twice.Len())
}

func TestForest_Ingest_OrderIndependent(t *testing.T) {
	rows := []Item{
		row(10, "a", 100),
		row(1010, "a0", 300),
		row(11, "b", 500),
		row(111010, "b00", 200),
		row(12, "c", 50),
	}

	reference := NewForest(nil, nil)
	reference.Ingest(rows)
	want := shape(t, reference)

	for i, perm := range permutations(rows) {
		f := NewForest(nil, nil)
		f.Ingest(perm)
		require.Equal(t, want, shape(t, f), fmt.Sprintf("permutation %d", i))
	}
}

func TestForest_IngestTimePieces(t *testing.T) {
	f := NewForest(nil, nil)
	f.Ingest([]Item{row(10, "a", 1), row(111010, "orphaned by placeholder", 1)})

	report := f.IngestTimePieces([]TimePiece{
		{ID: 4, TaskID: 10, SerialNumber: 1, BeginTime: 10, EndTime: 20},
		{ID: 2, TaskID: 10, SerialNumber: 0, BeginTime: 0, EndTime: 5},
		{ID: 9, TaskID: 10, SerialNumber: 0, BeginTime: 0, EndTime: 5},
		{ID: 3, TaskID: 12, SerialNumber: 0, BeginTime: 0, EndTime: 5},
		{ID: 5, TaskID: 11, SerialNumber: 0, BeginTime: 0, EndTime: 5},
		{ID: 6, TaskID: 10, SerialNumber: 2, BeginTime: 30, EndTime: Unset},
	})
	require.Equal(t, PieceReport{Attached: 2, InFlight: 1, Dropped: 3}, report)

	a, err := f.Get(10)
	require.NoError(t, err)
	pieces := a.Pieces()
	require.Len(t, pieces, 2)
	require.Equal(t, int64(2), pieces[0].ID)
	require.Equal(t, int64(4), pieces[1].ID)
	require.Same(t, a, f.Running())
	require.Equal(t, int64(6), a.InFlight().ID)
	require.Equal(t, int64(10), f.NextPieceID(), "counter passes every stored id, dropped rows included")
}

func TestForest_Create(t *testing.T) {
	clock := newFakeClock()
	f := NewForest(nil, clock.Now)

	a, err := f.Create(sid.Root, NewItem("a"))
	require.NoError(t, err)
	require.Equal(t, sid.ID(10), a.ID())
	require.Equal(t, clock.Ms(), a.Item().CreateTime)
	require.Equal(t, StateDirty, f.Root().State())

	child, err := f.Create(10, NewItem("a0"))
	require.NoError(t, err)
	require.Equal(t, sid.ID(1010), child.ID())

	_, err = f.Create(201, NewItem("x"))
	require.ErrorIs(t, err, ErrInvalidIdentifier)
	_, err = f.Create(11, NewItem("x"))
	require.ErrorIs(t, err, ErrUnknownTask)
}

func TestForest_Create_UnderDeletedParent(t *testing.T) {
	f := NewForest(nil, nil)
	_, err := f.Create(sid.Root, NewItem("a"))
	require.NoError(t, err)
	require.NoError(t, f.Delete(10))

	_, err = f.Create(10, NewItem("x"))
	require.ErrorIs(t, err, ErrOperationConflict)
}

func TestForest_Update(t *testing.T) {
	clock := newFakeClock()
	f := NewForest(nil, clock.Now)
	a, err := f.Create(sid.Root, NewItem("a"))
	require.NoError(t, err)
	created := a.Item().CreateTime

	clock.Advance(time.Second)
	_, err = f.Update(10, func(item *Item) {
		item.Name = "renamed"
		item.ID = 99
		item.CreateTime = 0
	})
	require.NoError(t, err)
	require.Equal(t, "renamed", a.Item().Name)
	require.Equal(t, sid.ID(10), a.ID())
	require.Equal(t, created, a.Item().CreateTime)
	require.Equal(t, clock.Ms(), a.Item().UpdateTime)
	require.Equal(t, clock.Ms(), f.Root().Item().UpdateTime)
}

func TestForest_Delete(t *testing.T) {
	f := NewForest(nil, nil)
	_, err := f.Create(sid.Root, NewItem("a"))
	require.NoError(t, err)
	_, err = f.Create(10, NewItem("a0"))
	require.NoError(t, err)

	err = f.Delete(10)
	require.ErrorIs(t, err, ErrOperationConflict)
	a, _ := f.Get(10)
	require.False(t, a.Tombstoned(), "guarded delete leaves the node alone")
	require.Equal(t, StatusTodo, a.Item().Status)

	require.NoError(t, f.Delete(1010))
	require.NoError(t, f.Delete(10))
	require.True(t, a.Tombstoned())
	require.Equal(t, 3, f.Len(), "tombstones stay in the map")

	require.ErrorIs(t, f.Delete(10), ErrOperationConflict)
	require.ErrorIs(t, f.Delete(sid.Root), ErrOperationConflict)
	require.ErrorIs(t, f.Delete(12), ErrUnknownTask)
}

func TestForest_Walk(t *testing.T) {
	f := NewForest(nil, nil)
	f.Ingest([]Item{
		row(10, "a", 1),
		row(1010, "a0", 1),
		row(101010, "a00", 1),
		row(11, "b", 1),
		row(12, "c", 1),
	})
	require.NoError(t, f.Delete(12))

	seq, err := f.Walk(sid.Root, 1)
	require.NoError(t, err)
	var got []string
	for e := range seq {
		got = append(got, fmt.Sprintf("%d:%d:%t", e.Node.ID(), e.Depth, e.Truncated))
	}
	require.Equal(t, []string{"0:0:false", "10:1:true", "11:1:false"}, got)

	seq, err = f.Walk(10, -1)
	require.NoError(t, err)
	got = nil
	for e := range seq {
		got = append(got, fmt.Sprintf("%d:%d", e.Node.ID(), e.Depth))
	}
	require.Equal(t, []string{"10:0", "1010:1", "101010:2"}, got)

	seq, err = f.Walk(sid.Root, -1)
	require.NoError(t, err)
	count := 0
	for range seq {
		count++
		if count == 2 {
			break
		}
	}
	require.Equal(t, 2, count)

	_, err = f.Walk(12, 0)
	require.ErrorIs(t, err, ErrUnknownTask)
}
