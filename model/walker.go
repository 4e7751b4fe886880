package model

import (
	"fmt"
	"unicode/utf8"
)

// Item is an element or a (possibly partial) text returned by Walker.
type Item interface {
	fmt.Stringer
}

// TextProxy is a part of a text node.
type TextProxy struct {
	Text   *Text
	Offset int
	Length int
}

// Data returns proxied part of the text.
func (p *TextProxy) Data() string {
	start := runeIndex(p.Text.data, p.Offset)
	end := runeIndex(p.Text.data, p.Offset+p.Length)
	return p.Text.data[start:end]
}

// IsWhole reports whether proxy covers the entire text node.
func (p *TextProxy) IsWhole() bool {
	return p.Offset == 0 && p.Length == p.Text.OffsetSize()
}

func (p *TextProxy) String() string {
	return fmt.Sprintf("#text(%q)", p.Data())
}

// WalkerValueType describes step of the walker.
type WalkerValueType int

const (
	ElementStart WalkerValueType = iota
	ElementEnd
	TextValue
)

func (t WalkerValueType) String() string {
	switch t {
	case ElementStart:
		return "elementStart"
	case ElementEnd:
		return "elementEnd"
	default:
		return "text"
	}
}

// WalkerValue is a single step of the walker.
type WalkerValue struct {
	Type             WalkerValueType
	Item             Item
	PreviousPosition Position
	NextPosition     Position
}

// Walker iterates forward over range entering every element it meets.
// Leaving an element produces ElementEnd step, text is returned in parts
// clipped to the range boundaries.
type Walker struct {
	boundaries Range
	pos        Position
	done       bool
}

// NewWalker creates walker starting at range start.
func NewWalker(r Range) *Walker {
	return &Walker{boundaries: r, pos: r.Start}
}

// Position returns current walker position.
func (w *Walker) Position() Position {
	return w.pos
}

// Next returns next step, false once range end is reached.
func (w *Walker) Next() (WalkerValue, bool) {
	if w.done || w.pos.IsEqual(w.boundaries.End) {
		w.done = true
		return WalkerValue{}, false
	}

	prev := w.pos
	parent := w.pos.Parent

	if w.pos.Offset >= parent.MaxOffset() {
		el, ok := parent.(*Element)
		if !ok || el.Parent() == nil {
			w.done = true
			return WalkerValue{}, false
		}
		w.pos = PositionAfter(el)
		return WalkerValue{Type: ElementEnd, Item: el, PreviousPosition: prev, NextPosition: w.pos}, true
	}

	switch n := parent.Child(w.pos.Index()).(type) {
	case *Element:
		w.pos = PositionAt(n, 0)
		return WalkerValue{Type: ElementStart, Item: n, PreviousPosition: prev, NextPosition: w.pos}, true
	case *Text:
		start := StartOffset(n)
		end := start + n.OffsetSize()
		if w.boundaries.End.Parent == parent && w.boundaries.End.Offset > w.pos.Offset && w.boundaries.End.Offset < end {
			end = w.boundaries.End.Offset
		}
		proxy := &TextProxy{Text: n, Offset: w.pos.Offset - start, Length: end - w.pos.Offset}
		w.pos = PositionAt(parent, end)
		return WalkerValue{Type: TextValue, Item: proxy, PreviousPosition: prev, NextPosition: w.pos}, true
	default:
		w.done = true
		return WalkerValue{}, false
	}
}

func runeIndex(s string, runes int) int {
	i := 0
	for n := 0; n < runes && i < len(s); n++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}
