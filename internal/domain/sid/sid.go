// Package sid implements the self-describing hierarchical task identifier.
//
// The decimal form of an ID is a sequence of segments, one per tree level
// from the root down. A segment is a single length digit L (1-9) followed by
// exactly L digits holding the sibling index at that level. Index 0 is written
// as "10". The root is the value 0 and has no segments.
package sid

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
)

// ID identifies a task and encodes its full ancestor path.
type ID int64

const (
	// Root is the identifier of the tree root.
	Root ID = 0
	// Invalid is the sentinel returned for anything derived from a malformed ID.
	Invalid ID = -1
	// MaxIndexDigits is the widest sibling index a single segment can hold.
	MaxIndexDigits = 9

	maxDigits = 19
)

// ErrInvalid indicates a malformed identifier.
var ErrInvalid = errors.New("invalid identifier")

var pow10 = func() [maxDigits]int64 {
	var t [maxDigits]int64
	t[0] = 1
	for i := 1; i < maxDigits; i++ {
		t[i] = t[i-1] * 10
	}
	return t
}()

// Decoded holds the values derived from an ID.
type Decoded struct {
	Valid  bool
	Parent ID
	Index  int64
	Depth  int
}

var invalid = Decoded{Parent: Invalid, Index: -1, Depth: -1}

// Decode walks the segments of id from the left. Every segment must declare
// its exact digit count and the walk must consume the whole string.
func Decode(id ID) Decoded {
	if id == Root {
		return Decoded{Valid: true, Parent: Invalid, Index: 0, Depth: 0}
	}
	if id < 0 {
		return invalid
	}

	s := strconv.FormatInt(int64(id), 10)
	depth, last := 0, 0
	for i := 0; i < len(s); {
		l := int(s[i] - '0')
		if l < 1 || i+1+l > len(s) {
			return invalid
		}
		if l > 1 && s[i+1] == '0' {
			return invalid
		}
		i += 1 + l
		depth++
		last = l
	}

	v := int64(id)
	return Decoded{
		Valid:  true,
		Parent: ID(v / pow10[last+1]),
		Index:  v % pow10[last],
		Depth:  depth,
	}
}

// Encode returns the ID of the child at index under parent, or Invalid when
// parent is malformed, index is negative or too wide, or the result does not
// fit in 64 bits.
func Encode(parent ID, index int64) ID {
	if !parent.Valid() || index < 0 {
		return Invalid
	}
	l := digits(index)
	if l > MaxIndexDigits {
		return Invalid
	}
	width := 0
	if parent != Root {
		width = digits(int64(parent))
	}
	if width+1+l > maxDigits {
		return Invalid
	}

	v := uint64(parent)*uint64(pow10[l+1]) + uint64(l)*uint64(pow10[l]) + uint64(index)
	if v > math.MaxInt64 {
		return Invalid
	}
	return ID(v)
}

// Path returns the ids from depth 1 down to and including id. The root and
// malformed ids have an empty path.
func Path(id ID) []ID {
	if id == Root || !id.Valid() {
		return nil
	}
	path := make([]ID, 0, id.Depth())
	for cur := id; cur != Root; cur = cur.Parent() {
		path = append(path, cur)
	}
	slices.Reverse(path)
	return path
}

// Ancestors returns Path(id) without id itself.
func Ancestors(id ID) []ID {
	path := Path(id)
	if len(path) == 0 {
		return nil
	}
	return path[:len(path)-1]
}

// IsAncestor reports whether a is a proper ancestor of id.
func IsAncestor(a, id ID) bool {
	if !a.Valid() || !id.Valid() || a == id {
		return false
	}
	if a == Root {
		return id != Root
	}
	return slices.Contains(Ancestors(id), a)
}

// Parse reads a decimal identifier and rejects malformed values.
func Parse(s string) (ID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Invalid, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	id := ID(v)
	if !id.Valid() {
		return Invalid, fmt.Errorf("%w: %d", ErrInvalid, v)
	}
	return id, nil
}

func (id ID) Valid() bool  { return Decode(id).Valid }
func (id ID) Parent() ID   { return Decode(id).Parent }
func (id ID) Index() int64 { return Decode(id).Index }
func (id ID) Depth() int   { return Decode(id).Depth }

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func digits(v int64) int {
	n := 1
	for n < maxDigits && v >= pow10[n] {
		n++
	}
	return n
}
