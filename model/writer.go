package model

import (
	"fmt"
	"slices"
)

// SplitResult describes outcome of Writer.Split.
type SplitResult struct {
	// Position between the last split element and its copy.
	Position Position
	// Range from the end of the innermost original element to the start of
	// its copy.
	Range Range
}

// Writer is the only way conversion changes model tree. Invalid arguments
// are programming errors and cause panic.
type Writer struct{}

// NewWriter returns model writer.
func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) CreateElement(name string, attrs ...Attribute) *Element {
	return NewElement(name, attrs)
}

func (w *Writer) CreateText(data string, attrs ...Attribute) *Text {
	return NewText(data, attrs...)
}

func (w *Writer) CreateDocumentFragment() *DocumentFragment {
	return NewDocumentFragment()
}

// Insert puts node at position. Attached node is moved. Inserted text is
// merged with neighbouring text nodes having the same attributes.
func (w *Writer) Insert(n Node, pos Position) {
	if !pos.IsValid() {
		panic(fmt.Sprintf("model: insert at invalid position %v", pos))
	}
	if _, ok := n.(*DocumentFragment); ok {
		panic("model: document fragment cannot be inserted")
	}
	if c, ok := n.(Container); ok && isAncestor(c, pos.Parent) {
		panic(fmt.Sprintf("model: cannot insert %v into itself", n))
	}
	if n.Parent() != nil {
		if n.Parent() == pos.Parent && StartOffset(n) < pos.Offset {
			pos.Offset -= n.OffsetSize()
		}
		w.Remove(n)
	}
	if t, ok := n.(*Text); ok && t.data == "" {
		return
	}
	index := splitTextAt(pos.Parent, pos.Offset)
	insertChild(pos.Parent, index, n)
	mergeTextAround(pos.Parent, index)
}

// Append inserts node at the end of parent.
func (w *Writer) Append(n Node, parent Container) {
	if n.Parent() == parent {
		w.Remove(n)
	}
	w.Insert(n, PositionAtEnd(parent))
}

// Remove detaches node from its parent.
func (w *Writer) Remove(n Node) {
	parent, index := n.Parent(), Index(n)
	detach(n)
	if parent != nil {
		mergeTextAround(parent, index)
	}
}

// Move moves content of a flat range to target position.
func (w *Writer) Move(r Range, target Position) {
	if !r.IsFlat() {
		panic(fmt.Sprintf("model: cannot move non flat range %v", r))
	}
	parent := r.Start.Parent
	if target.Parent == parent && target.Offset > r.Start.Offset && target.Offset < r.End.Offset {
		panic(fmt.Sprintf("model: move target %v inside moved range %v", target, r))
	}
	for _, c := range Ancestors(target.Parent, true) {
		if c != parent && isAncestorNodeIn(c, parent, r) {
			panic(fmt.Sprintf("model: move target %v inside moved range %v", target, r))
		}
	}

	startIdx := splitTextAt(parent, r.Start.Offset)
	endIdx := splitTextAt(parent, r.End.Offset)
	nodes := slices.Clone((*parent.childList())[startIdx:endIdx])

	if target.Parent == parent && target.Offset >= r.End.Offset {
		target.Offset -= r.End.Offset - r.Start.Offset
	}
	for _, n := range nodes {
		detach(n)
	}
	for _, n := range nodes {
		size := n.OffsetSize()
		w.Insert(n, target)
		target.Offset += size
	}
}

// SetAttribute sets attribute on element, text or part of a text. Partial
// text is split off into its own node first.
func (w *Writer) SetAttribute(key, value string, item Item) {
	switch v := item.(type) {
	case *Element:
		v.attrs.set(key, value)
	case *Text:
		v.attrs.set(key, value)
	case *TextProxy:
		isolate(v).attrs.set(key, value)
	default:
		panic(fmt.Sprintf("model: cannot set attribute on %v", item))
	}
}

// RemoveAttribute removes attribute from element, text or part of a text.
func (w *Writer) RemoveAttribute(key string, item Item) {
	switch v := item.(type) {
	case *Element:
		v.attrs.remove(key)
	case *Text:
		v.attrs.remove(key)
	case *TextProxy:
		isolate(v).attrs.remove(key)
	default:
		panic(fmt.Sprintf("model: cannot remove attribute from %v", item))
	}
}

// Split splits position parent and its ancestors up to, but not including,
// limit. Every split element gets a copy (same name and attributes) inserted
// right after it, which receives everything that was after the position.
func (w *Writer) Split(pos Position, limit Container) SplitResult {
	splitElement, ok := pos.Parent.(*Element)
	if !ok || splitElement.Parent() == nil {
		panic(fmt.Sprintf("model: cannot split %v without parent", pos.Parent))
	}
	if limit == nil {
		limit = splitElement.Parent()
	}
	if limit == pos.Parent || !isAncestor(limit, pos.Parent) {
		panic(fmt.Sprintf("model: split limit %v is not an ancestor of %v", limit, pos.Parent))
	}

	var firstSplit, firstCopy *Element
	for {
		parent := pos.Parent.(*Element)
		index := splitTextAt(parent, pos.Offset)

		copyElement := NewElement(parent.name, parent.attrs)
		moved := slices.Clone(parent.children[index:])
		for _, n := range moved {
			detach(n)
			appendChild(copyElement, n)
		}
		insertChild(parent.Parent(), Index(parent)+1, copyElement)

		if firstSplit == nil {
			firstSplit, firstCopy = parent, copyElement
		}
		pos = PositionAfter(parent)
		if pos.Parent == limit {
			break
		}
		if _, ok := pos.Parent.(*Element); !ok {
			panic(fmt.Sprintf("model: split reached %v before limit", pos.Parent))
		}
	}

	return SplitResult{
		Position: pos,
		Range:    NewRange(PositionAtEnd(firstSplit), PositionAt(firstCopy, 0)),
	}
}

// splitTextAt makes sure offset falls between nodes and returns index of the
// node starting at offset.
func splitTextAt(parent Container, offset int) int {
	index := offsetToIndex(parent, offset)
	t, ok := parent.Child(index).(*Text)
	if !ok {
		return index
	}
	start := StartOffset(t)
	if start == offset {
		return index
	}
	cut := runeIndex(t.data, offset-start)
	tail := NewText(t.data[cut:], t.attrs...)
	t.data = t.data[:cut]
	insertChild(parent, index+1, tail)
	return index + 1
}

func isolate(p *TextProxy) *Text {
	if p.IsWhole() {
		return p.Text
	}
	parent := p.Text.Parent()
	if parent == nil {
		panic("model: cannot isolate part of detached text")
	}
	start := StartOffset(p.Text) + p.Offset
	splitTextAt(parent, start+p.Length)
	index := splitTextAt(parent, start)
	return parent.Child(index).(*Text)
}

func mergeTextAround(parent Container, index int) {
	list := parent.childList()
	for _, i := range []int{index, index - 1} {
		if i < 0 || i+1 >= len(*list) {
			continue
		}
		a, aok := (*list)[i].(*Text)
		b, bok := (*list)[i+1].(*Text)
		if !aok || !bok || !a.attrs.equal(b.attrs) {
			continue
		}
		a.data += b.data
		detach(b)
	}
}

// isAncestor reports whether a is n or one of n ancestors.
func isAncestor(a Container, n Node) bool {
	for c := Node(n); c != nil; c = c.Parent() {
		if c == Node(a) {
			return true
		}
	}
	return false
}

// isAncestorNodeIn reports whether n is a child of parent located inside r.
func isAncestorNodeIn(n Node, parent Container, r Range) bool {
	if n.Parent() != parent {
		return false
	}
	start := StartOffset(n)
	return start >= r.Start.Offset && start < r.End.Offset
}
