// Package view implements presentation oriented tree: elements with
// attributes, classes and styles, text nodes and document fragments.
//
// Nodes keep non-owning pointer to the parent, the parent owns its children.
// Inserting node which already has a parent detaches it first.
package view

import (
	"fmt"
	"slices"
	"unicode/utf8"
)

// Node is any node of the view tree.
type Node interface {
	// Parent returns container node belongs to or nil for detached node.
	Parent() Container
	setParent(Container)
}

// Container is a node which may have children.
type Container interface {
	Node
	Children() []Node
	ChildCount() int
	Child(index int) Node
	AppendChildren(nodes ...Node)
	InsertChildren(index int, nodes ...Node)
	RemoveChildren(index, count int) []Node
	childList() *[]Node
}

// Index returns position of the node in its parent or -1 when node is
// detached.
func Index(n Node) int {
	p := n.Parent()
	if p == nil {
		return -1
	}
	return slices.Index(*p.childList(), n)
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

// Ancestors returns node parents starting from the root. When includeSelf is
// set node itself is the last element of the result.
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

// Text is a text node. Offsets inside text are counted in runes.
type Text struct {
	data   string
	parent Container
}

// NewText creates detached text node.
func NewText(data string) *Text {
	return &Text{data: data}
}

func (t *Text) Parent() Container     { return t.parent }
func (t *Text) setParent(p Container) { t.parent = p }

// Data returns text content.
func (t *Text) Data() string {
	return t.data
}

// Len returns text length in runes.
func (t *Text) Len() int {
	return utf8.RuneCountInString(t.data)
}

func (t *Text) String() string {
	return fmt.Sprintf("#text(%q)", t.data)
}

// DocumentFragment is a detached container for view nodes.
type DocumentFragment struct {
	children []Node
}

// NewDocumentFragment creates fragment holding children.
func NewDocumentFragment(children ...Node) *DocumentFragment {
	f := &DocumentFragment{}
	f.AppendChildren(children...)
	return f
}

func (f *DocumentFragment) Parent() Container   { return nil }
func (f *DocumentFragment) setParent(Container) {}
func (f *DocumentFragment) childList() *[]Node  { return &f.children }

func (f *DocumentFragment) Children() []Node     { return slices.Clone(f.children) }
func (f *DocumentFragment) ChildCount() int      { return len(f.children) }
func (f *DocumentFragment) Child(index int) Node { return child(f.children, index) }

func (f *DocumentFragment) AppendChildren(nodes ...Node) {
	insertChildren(f, len(f.children), nodes)
}

func (f *DocumentFragment) InsertChildren(index int, nodes ...Node) {
	insertChildren(f, index, nodes)
}

func (f *DocumentFragment) RemoveChildren(index, count int) []Node {
	return removeChildren(f, index, count)
}

func (f *DocumentFragment) String() string {
	return "#document-fragment"
}

// Detach removes node from its parent, if any.
func Detach(n Node) {
	if p := n.Parent(); p != nil {
		p.RemoveChildren(Index(n), 1)
	}
}

func child(list []Node, index int) Node {
	if index < 0 || index >= len(list) {
		return nil
	}
	return list[index]
}

func insertChildren(parent Container, index int, nodes []Node) {
	list := parent.childList()
	if index < 0 || index > len(*list) {
		panic(fmt.Sprintf("view: insert index %d out of bounds [0,%d]", index, len(*list)))
	}
	for _, n := range nodes {
		if n.Parent() == parent && Index(n) < index {
			index--
		}
		Detach(n)
		n.setParent(parent)
	}
	*list = slices.Insert(*list, index, nodes...)
}

func removeChildren(parent Container, index, count int) []Node {
	list := parent.childList()
	if index < 0 || count < 0 || index+count > len(*list) {
		panic(fmt.Sprintf("view: remove range [%d,%d) out of bounds [0,%d]", index, index+count, len(*list)))
	}
	removed := slices.Clone((*list)[index : index+count])
	*list = slices.Delete(*list, index, index+count)
	for _, n := range removed {
		n.setParent(nil)
	}
	return removed
}
