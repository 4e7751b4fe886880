package view

import (
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

// Position points between two children of a container or, when Parent is a
// text node, between two characters of that text.
type Position struct {
	Parent Node
	Offset int
}

// PositionAt creates position inside parent at offset.
func PositionAt(parent Node, offset int) Position {
	return Position{Parent: parent, Offset: offset}
}

// PositionAtEnd creates position at the end of parent.
func PositionAtEnd(parent Node) Position {
	return Position{Parent: parent, Offset: maxOffset(parent)}
}

// PositionBefore creates position directly before attached node.
func PositionBefore(n Node) Position {
	if n.Parent() == nil {
		panic(fmt.Sprintf("view: cannot create position before detached %v", n))
	}
	return Position{Parent: n.Parent(), Offset: Index(n)}
}

// PositionAfter creates position directly after attached node.
func PositionAfter(n Node) Position {
	p := PositionBefore(n)
	p.Offset++
	return p
}

// IsZero reports whether position was never set.
func (p Position) IsZero() bool {
	return p.Parent == nil
}

// NodeBefore returns node directly before position, it is always nil when
// position is inside text.
func (p Position) NodeBefore() Node {
	c, ok := p.Parent.(Container)
	if !ok {
		return nil
	}
	return c.Child(p.Offset - 1)
}

// NodeAfter returns node directly after position, it is always nil when
// position is inside text.
func (p Position) NodeAfter() Node {
	c, ok := p.Parent.(Container)
	if !ok {
		return nil
	}
	return c.Child(p.Offset)
}

// IsAtStart reports whether position is at the beginning of its parent.
func (p Position) IsAtStart() bool {
	return p.Offset == 0
}

// IsAtEnd reports whether position is at the end of its parent.
func (p Position) IsAtEnd() bool {
	return p.Offset == maxOffset(p.Parent)
}

// Root returns root of the tree position belongs to.
func (p Position) Root() Node {
	return Root(p.Parent)
}

// Path returns indexes leading from the root to the position.
func (p Position) Path() []int {
	var path []int
	for _, n := range Ancestors(p.Parent, true)[1:] {
		path = append(path, Index(n))
	}
	return append(path, p.Offset)
}

// ShiftedBy returns position moved by shift inside the same parent.
func (p Position) ShiftedBy(shift int) Position {
	p.Offset = max(0, p.Offset+shift)
	return p
}

// Compare returns relation of p to other.
func (p Position) Compare(other Position) Relation {
	if p.Root() != other.Root() {
		return Different
	}
	return comparePaths(p.Path(), other.Path())
}

// IsEqual reports whether both positions point to the same place.
func (p Position) IsEqual(other Position) bool {
	return p.Parent == other.Parent && p.Offset == other.Offset
}

func (p Position) String() string {
	return fmt.Sprintf("%v:%d", p.Parent, p.Offset)
}

// Range is a pair of positions in the same tree, Start is never after End.
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

// RangeIn creates range containing all children of parent.
func RangeIn(parent Node) Range {
	return Range{Start: PositionAt(parent, 0), End: PositionAtEnd(parent)}
}

// IsCollapsed reports whether range is empty.
func (r Range) IsCollapsed() bool {
	return r.Start.IsEqual(r.End)
}

func (r Range) String() string {
	return fmt.Sprintf("[%v, %v]", r.Start, r.End)
}

func maxOffset(n Node) int {
	switch v := n.(type) {
	case *Text:
		return v.Len()
	case Container:
		return v.ChildCount()
	default:
		return 0
	}
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
