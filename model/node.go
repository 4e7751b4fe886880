// Package model implements semantic document tree the view is converted to.
//
// Unlike the view, positions in the model are expressed in offsets: every
// element has offset size of one and text node has size equal to the number
// of runes it holds. Text nodes carry attributes, adjacent text nodes with
// equal attributes are merged when inserted by Writer.
package model

import (
	"fmt"
	"maps"
	"slices"
	"unicode/utf8"
)

// Node is any model node.
type Node interface {
	Parent() Container
	OffsetSize() int
	setParent(Container)
}

// Container is a node which may hold children.
type Container interface {
	Node
	Children() []Node
	ChildCount() int
	Child(index int) Node
	MaxOffset() int
	IsEmpty() bool
	childList() *[]Node
}

// Attribute is key/value pair set on element or text.
type Attribute struct {
	Key   string
	Value string
}

type attributes []Attribute

func (a attributes) get(key string) (string, bool) {
	for _, x := range a {
		if x.Key == key {
			return x.Value, true
		}
	}
	return "", false
}

func (a *attributes) set(key, value string) {
	for i := range *a {
		if (*a)[i].Key == key {
			(*a)[i].Value = value
			return
		}
	}
	*a = append(*a, Attribute{Key: key, Value: value})
}

func (a *attributes) remove(key string) {
	*a = slices.DeleteFunc(*a, func(x Attribute) bool { return x.Key == key })
}

func (a attributes) keys() []string {
	out := make([]string, 0, len(a))
	for _, x := range a {
		out = append(out, x.Key)
	}
	return out
}

func (a attributes) equal(b attributes) bool {
	if len(a) != len(b) {
		return false
	}
	am := make(map[string]string, len(a))
	for _, x := range a {
		am[x.Key] = x.Value
	}
	bm := make(map[string]string, len(b))
	for _, x := range b {
		bm[x.Key] = x.Value
	}
	return maps.Equal(am, bm)
}

// Element is a model element.
type Element struct {
	name     string
	attrs    attributes
	children []Node
	parent   Container
}

// NewElement creates detached element. Children are appended without
// merging text nodes.
func NewElement(name string, attrs []Attribute, children ...Node) *Element {
	e := &Element{name: name}
	for _, a := range attrs {
		e.attrs.set(a.Key, a.Value)
	}
	for _, c := range children {
		appendChild(e, c)
	}
	return e
}

func (e *Element) Parent() Container     { return e.parent }
func (e *Element) setParent(p Container) { e.parent = p }
func (e *Element) childList() *[]Node    { return &e.children }
func (e *Element) OffsetSize() int       { return 1 }

func (e *Element) Name() string         { return e.name }
func (e *Element) Is(name string) bool  { return e.name == name }
func (e *Element) Children() []Node     { return slices.Clone(e.children) }
func (e *Element) ChildCount() int      { return len(e.children) }
func (e *Element) Child(index int) Node { return child(e.children, index) }
func (e *Element) MaxOffset() int       { return maxOffset(e.children) }
func (e *Element) IsEmpty() bool        { return len(e.children) == 0 }

func (e *Element) Attribute(key string) (string, bool) { return e.attrs.get(key) }
func (e *Element) Attributes() []Attribute             { return slices.Clone(e.attrs) }
func (e *Element) AttributeKeys() []string             { return e.attrs.keys() }

func (e *Element) HasAttribute(key string) bool {
	_, ok := e.attrs.get(key)
	return ok
}

func (e *Element) String() string {
	return "<" + e.name + ">"
}

// Text is a model text node.
type Text struct {
	data   string
	attrs  attributes
	parent Container
}

// NewText creates detached text node.
func NewText(data string, attrs ...Attribute) *Text {
	t := &Text{data: data}
	for _, a := range attrs {
		t.attrs.set(a.Key, a.Value)
	}
	return t
}

func (t *Text) Parent() Container     { return t.parent }
func (t *Text) setParent(p Container) { t.parent = p }
func (t *Text) OffsetSize() int       { return utf8.RuneCountInString(t.data) }

func (t *Text) Data() string                        { return t.data }
func (t *Text) Attribute(key string) (string, bool) { return t.attrs.get(key) }
func (t *Text) Attributes() []Attribute             { return slices.Clone(t.attrs) }
func (t *Text) AttributeKeys() []string             { return t.attrs.keys() }

func (t *Text) HasAttribute(key string) bool {
	_, ok := t.attrs.get(key)
	return ok
}

func (t *Text) String() string {
	return fmt.Sprintf("#text(%q)", t.data)
}

// DocumentFragment is a detached container, it is the result of conversion
// and carries markers extracted from converted content.
type DocumentFragment struct {
	children []Node
	Markers  map[string]Range
}

// NewDocumentFragment creates empty fragment.
func NewDocumentFragment(children ...Node) *DocumentFragment {
	f := &DocumentFragment{Markers: make(map[string]Range)}
	for _, c := range children {
		appendChild(f, c)
	}
	return f
}

func (f *DocumentFragment) Parent() Container   { return nil }
func (f *DocumentFragment) setParent(Container) {}
func (f *DocumentFragment) childList() *[]Node  { return &f.children }
func (f *DocumentFragment) OffsetSize() int     { return 0 }

func (f *DocumentFragment) Children() []Node     { return slices.Clone(f.children) }
func (f *DocumentFragment) ChildCount() int      { return len(f.children) }
func (f *DocumentFragment) Child(index int) Node { return child(f.children, index) }
func (f *DocumentFragment) MaxOffset() int       { return maxOffset(f.children) }
func (f *DocumentFragment) IsEmpty() bool        { return len(f.children) == 0 }

// MarkerNames returns names of markers sorted by their start position.
func (f *DocumentFragment) MarkerNames() []string {
	names := slices.Collect(maps.Keys(f.Markers))
	slices.SortStableFunc(names, func(a, b string) int {
		switch f.Markers[a].Start.Compare(f.Markers[b].Start) {
		case Before:
			return -1
		case After:
			return 1
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
	return names
}

func (f *DocumentFragment) String() string {
	return "#document-fragment"
}

// Index returns index of the node in its parent, -1 for detached node.
func Index(n Node) int {
	p := n.Parent()
	if p == nil {
		return -1
	}
	return slices.Index(*p.childList(), n)
}

// StartOffset returns offset at which node starts in its parent.
func StartOffset(n Node) int {
	p := n.Parent()
	if p == nil {
		return -1
	}
	offset := 0
	for _, c := range *p.childList() {
		if c == n {
			return offset
		}
		offset += c.OffsetSize()
	}
	return -1
}

// EndOffset returns offset directly after node in its parent.
func EndOffset(n Node) int {
	start := StartOffset(n)
	if start < 0 {
		return -1
	}
	return start + n.OffsetSize()
}

// Root returns the top most ancestor of the node or the node itself.
func Root(n Node) Node {
	for {
		p := n.Parent()
		if p == nil {
			return n
		}
		n = p
	}
}

// Ancestors returns parents of the node starting from the root, with
// includeSelf node itself is appended.
func Ancestors(n Node, includeSelf bool) []Node {
	var out []Node
	if includeSelf {
		out = append(out, n)
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		out = append(out, p)
	}
	slices.Reverse(out)
	return out
}

// NextSibling returns node following n in its parent.
func NextSibling(n Node) Node {
	p := n.Parent()
	if p == nil {
		return nil
	}
	return p.Child(Index(n) + 1)
}

// Name returns element name, "$text" for text nodes and
// "$documentFragment" for fragments.
func Name(n Node) string {
	switch v := n.(type) {
	case *Element:
		return v.name
	case *Text:
		return "$text"
	case *DocumentFragment:
		return "$documentFragment"
	default:
		return ""
	}
}

func child(list []Node, index int) Node {
	if index < 0 || index >= len(list) {
		return nil
	}
	return list[index]
}

func maxOffset(list []Node) int {
	size := 0
	for _, c := range list {
		size += c.OffsetSize()
	}
	return size
}

// offsetToIndex returns index of the child which contains or starts at
// offset, or number of children when offset is at the end.
func offsetToIndex(c Container, offset int) int {
	total := 0
	for i, n := range *c.childList() {
		size := n.OffsetSize()
		if offset < total+size {
			return i
		}
		total += size
	}
	return len(*c.childList())
}

func appendChild(parent Container, n Node) {
	if p := n.Parent(); p != nil {
		detach(n)
	}
	list := parent.childList()
	*list = append(*list, n)
	n.setParent(parent)
}

func insertChild(parent Container, index int, n Node) {
	list := parent.childList()
	*list = slices.Insert(*list, index, n)
	n.setParent(parent)
}

func detach(n Node) {
	p := n.Parent()
	if p == nil {
		return
	}
	list := p.childList()
	*list = slices.Delete(*list, Index(n), Index(n)+1)
	n.setParent(nil)
}
