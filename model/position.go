package model

import (
	"errors"
	"fmt"
)

// Relation is result of comparing two positions.
type Relation int

const (
	Before Relation = iota
	Same
	After
	Different
)

func (r Relation) String() string {
	switch r {
	case Before:
		return "before"
	case Same:
		return "same"
	case After:
		return "after"
	default:
		return "different"
	}
}

// Position is an offset inside container. Offset may point inside a text
// node, in which case TextNode returns that node.
type Position struct {
	Parent Container
	Offset int
}

// PositionAt creates position inside parent.
func PositionAt(parent Container, offset int) Position {
	return Position{Parent: parent, Offset: offset}
}

// PositionAtEnd creates position at the end of parent.
func PositionAtEnd(parent Container) Position {
	return Position{Parent: parent, Offset: parent.MaxOffset()}
}

// PositionBefore creates position before attached node.
func PositionBefore(n Node) Position {
	if n.Parent() == nil {
		panic(fmt.Sprintf("model: cannot create position before detached %v", n))
	}
	return Position{Parent: n.Parent(), Offset: StartOffset(n)}
}

// PositionAfter creates position after attached node.
func PositionAfter(n Node) Position {
	if n.Parent() == nil {
		panic(fmt.Sprintf("model: cannot create position after detached %v", n))
	}
	return Position{Parent: n.Parent(), Offset: EndOffset(n)}
}

// IsZero reports whether position was never set.
func (p Position) IsZero() bool {
	return p.Parent == nil
}

// Index returns index of the child position points at or inside of.
func (p Position) Index() int {
	return offsetToIndex(p.Parent, p.Offset)
}

// TextNode returns text node when position is strictly inside of it.
func (p Position) TextNode() *Text {
	n := p.Parent.Child(p.Index())
	t, ok := n.(*Text)
	if !ok {
		return nil
	}
	if StartOffset(t) < p.Offset {
		return t
	}
	return nil
}

// NodeAfter returns node directly after position, nil when position is
// inside text.
func (p Position) NodeAfter() Node {
	if p.TextNode() != nil {
		return nil
	}
	return p.Parent.Child(p.Index())
}

// NodeBefore returns node directly before position, nil when position is
// inside text.
func (p Position) NodeBefore() Node {
	if p.TextNode() != nil {
		return nil
	}
	return p.Parent.Child(p.Index() - 1)
}

// IsAtStart reports whether position is at the beginning of its parent.
func (p Position) IsAtStart() bool {
	return p.Offset == 0
}

// IsAtEnd reports whether position is at the end of its parent.
func (p Position) IsAtEnd() bool {
	return p.Offset == p.Parent.MaxOffset()
}

// ShiftedBy returns position moved inside the same parent.
func (p Position) ShiftedBy(shift int) Position {
	p.Offset = max(0, p.Offset+shift)
	return p
}

// Root returns root of the tree position belongs to.
func (p Position) Root() Node {
	return Root(p.Parent)
}

// Path returns offsets leading from the root to this position.
func (p Position) Path() []int {
	var path []int
	for _, n := range Ancestors(p.Parent, true)[1:] {
		path = append(path, StartOffset(n))
	}
	return append(path, p.Offset)
}

// IsEqual reports whether both positions point at the same place.
func (p Position) IsEqual(other Position) bool {
	return p.Parent == other.Parent && p.Offset == other.Offset
}

// Compare returns relation of p to other.
func (p Position) Compare(other Position) Relation {
	if p.Parent == nil || other.Parent == nil || p.Root() != other.Root() {
		return Different
	}
	if p.Parent == other.Parent {
		switch {
		case p.Offset < other.Offset:
			return Before
		case p.Offset > other.Offset:
			return After
		default:
			return Same
		}
	}
	return comparePaths(p.Path(), other.Path())
}

// IsValid reports whether offset is within parent bounds.
func (p Position) IsValid() bool {
	return p.Parent != nil && p.Offset >= 0 && p.Offset <= p.Parent.MaxOffset()
}

func (p Position) String() string {
	if p.Parent == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v%v", p.Root(), p.Path())
}

// Range is a pair of positions in the same tree.
type Range struct {
	Start Position
	End   Position
}

// NewRange creates range, collapsed when end is omitted.
func NewRange(start Position, end ...Position) Range {
	r := Range{Start: start, End: start}
	if len(end) > 0 {
		r.End = end[0]
	}
	return r
}

// RangeOn creates range containing exactly one attached node.
func RangeOn(n Node) Range {
	return Range{Start: PositionBefore(n), End: PositionAfter(n)}
}

// RangeIn creates range containing everything inside parent.
func RangeIn(parent Container) Range {
	return Range{Start: PositionAt(parent, 0), End: PositionAtEnd(parent)}
}

// ErrInvalidRange is returned by Validate for malformed ranges.
var ErrInvalidRange = errors.New("invalid model range")

// Validate checks that both ends are valid positions in one tree and start
// is not after end.
func (r Range) Validate() error {
	if !r.Start.IsValid() {
		return fmt.Errorf("%w: start %v out of bounds", ErrInvalidRange, r.Start)
	}
	if !r.End.IsValid() {
		return fmt.Errorf("%w: end %v out of bounds", ErrInvalidRange, r.End)
	}
	switch r.Start.Compare(r.End) {
	case Different:
		return fmt.Errorf("%w: ends belong to different trees", ErrInvalidRange)
	case After:
		return fmt.Errorf("%w: start %v is after end %v", ErrInvalidRange, r.Start, r.End)
	}
	return nil
}

// IsCollapsed reports whether range is empty.
func (r Range) IsCollapsed() bool {
	return r.Start.IsEqual(r.End)
}

// IsFlat reports whether both ends share parent.
func (r Range) IsFlat() bool {
	return r.Start.Parent == r.End.Parent
}

// Items returns elements and text fragments contained in the range in
// document order.
func (r Range) Items() []Item {
	var items []Item
	w := NewWalker(r)
	for v, ok := w.Next(); ok; v, ok = w.Next() {
		if v.Type != ElementEnd {
			items = append(items, v.Item)
		}
	}
	return items
}

func (r Range) String() string {
	return fmt.Sprintf("[%v, %v]", r.Start, r.End)
}

func comparePaths(a, b []int) Relation {
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] < b[i]:
			return Before
		case a[i] > b[i]:
			return After
		}
	}
	switch {
	case len(a) < len(b):
		return Before
	case len(a) > len(b):
		return After
	default:
		return Same
	}
}
