package task

import (
	"iter"

	"github.com/rpggio/tflies/internal/domain/sid"
)

// Entry is one node yielded by Walk.
type Entry struct {
	Node *Node
	// Depth is relative to the node the walk started from.
	Depth int
	// Truncated is set when the node has live children below the depth limit.
	Truncated bool
}

// Walk yields the subtree rooted at id in pre-order, skipping deleted nodes.
// A negative maxDepth means no limit.
func (f *Forest) Walk(id sid.ID, maxDepth int) (iter.Seq[Entry], error) {
	start, err := f.lookupLive(id)
	if err != nil {
		return nil, err
	}
	return func(yield func(Entry) bool) {
		var visit func(n *Node, depth int) bool
		visit = func(n *Node, depth int) bool {
			limited := maxDepth >= 0 && depth >= maxDepth
			if !yield(Entry{Node: n, Depth: depth, Truncated: limited && n.hasLiveChildren()}) {
				return false
			}
			if limited {
				return true
			}
			for _, c := range n.children {
				if c.live() && !visit(c, depth+1) {
					return false
				}
			}
			return true
		}
		visit(start, 0)
	}, nil
}
