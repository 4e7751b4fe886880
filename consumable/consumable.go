// Package consumable tracks which parts of view nodes were already converted.
//
// Every converter which turns part of a view element into model content
// consumes that part (element name, attributes, classes, styles) so no other
// converter converts it again. Text nodes and document fragments are tracked
// as a whole.
package consumable

import (
	"errors"
	"fmt"

	"vmconv/view"
)

// ErrInvalidAttribute is returned when "class" or "style" is added as plain
// attribute, those have to be added as classes and styles.
var ErrInvalidAttribute = errors.New("class and style cannot be added as attributes")

// Status is the state of a consumable part.
type Status int

const (
	// Unknown means the part was never added.
	Unknown Status = iota
	Consumed
	Available
)

func (s Status) String() string {
	switch s {
	case Consumed:
		return "consumed"
	case Available:
		return "available"
	default:
		return "unknown"
	}
}

// Facets lists parts of an element. For text nodes and fragments facets are
// ignored.
type Facets struct {
	Name       bool
	Attributes []string
	Classes    []string
	Styles     []string
}

type elementEntry struct {
	el         *view.Element
	name       Status
	attributes map[string]Status
	classes    map[string]Status
	styles     map[string]Status
	// insertion order for expanding "class" and "style"
	classOrder []string
	styleOrder []string
}

// Ledger keeps consumption state for a single conversion.
type Ledger struct {
	elements map[*view.Element]*elementEntry
	nodes    map[view.Node]Status
}

// New creates empty ledger.
func New() *Ledger {
	return &Ledger{
		elements: make(map[*view.Element]*elementEntry),
		nodes:    make(map[view.Node]Status),
	}
}

// CreateFrom creates ledger with every node of the subtree registered as
// available. Elements get their name, plain attributes, classes and styles
// registered.
func CreateFrom(root view.Node) *Ledger {
	l := New()
	l.addTree(root)
	return l
}

func (l *Ledger) addTree(n view.Node) {
	switch v := n.(type) {
	case *view.Element:
		// cannot fail: class and style are excluded
		_ = l.Add(v, FromElement(v))
	default:
		_ = l.Add(v, Facets{})
	}
	if c, ok := n.(view.Container); ok {
		for _, child := range c.Children() {
			l.addTree(child)
		}
	}
}

// FromElement returns all facets of an element.
func FromElement(el *view.Element) Facets {
	f := Facets{Name: true, Classes: el.ClassNames(), Styles: el.StyleNames(false)}
	for _, a := range el.Attributes() {
		f.Attributes = append(f.Attributes, a.Key)
	}
	return f
}

// Add registers facets as available, consumed facets become available
// again.
func (l *Ledger) Add(n view.Node, f Facets) error {
	el, ok := n.(*view.Element)
	if !ok {
		l.nodes[n] = Available
		return nil
	}
	for _, a := range f.Attributes {
		if a == "class" || a == "style" {
			return fmt.Errorf("%w: %q on <%s>", ErrInvalidAttribute, a, el.Name())
		}
	}

	e := l.entry(el)
	if f.Name {
		e.name = Available
	}
	for _, a := range f.Attributes {
		e.attributes[a] = Available
	}
	for _, c := range f.Classes {
		if _, ok := e.classes[c]; !ok {
			e.classOrder = append(e.classOrder, c)
		}
		e.classes[c] = Available
	}
	for _, s := range f.Styles {
		e.addStyle(s)
		for _, related := range el.StyleRelations().Related(s) {
			e.addStyle(related)
		}
	}
	return nil
}

// Test reports status of facets: Unknown when any of them was never added,
// Consumed when any of them was consumed, Available otherwise. Checks go in
// order name, attributes, classes, styles and the first not available facet
// decides.
func (l *Ledger) Test(n view.Node, f Facets) Status {
	el, ok := n.(*view.Element)
	if !ok {
		return l.nodes[n]
	}
	e, ok := l.elements[el]
	if !ok {
		return Unknown
	}
	if f.Name && e.name != Available {
		return e.name
	}
	for _, a := range f.Attributes {
		if st := e.testAttribute(a); st != Available {
			return st
		}
	}
	if st := test(e.classes, f.Classes); st != Available {
		return st
	}
	return test(e.styles, f.Styles)
}

// Consume marks facets consumed if all of them are available. Consuming a
// style consumes related shorthands and longhands too.
func (l *Ledger) Consume(n view.Node, f Facets) bool {
	if l.Test(n, f) != Available {
		return false
	}
	el, ok := n.(*view.Element)
	if !ok {
		l.nodes[n] = Consumed
		return true
	}
	e := l.elements[el]
	if f.Name {
		e.name = Consumed
	}
	for _, a := range f.Attributes {
		switch a {
		case "class":
			e.consumeClasses(e.classOrder)
		case "style":
			e.consumeStyles(e.styleOrder)
		default:
			e.attributes[a] = Consumed
		}
	}
	e.consumeClasses(f.Classes)
	e.consumeStyles(f.Styles)
	return true
}

// Revert makes consumed facets available again. Reverting a style reverts
// related shorthands and longhands too. Facets which were never added stay
// unknown.
func (l *Ledger) Revert(n view.Node, f Facets) {
	el, ok := n.(*view.Element)
	if !ok {
		if l.nodes[n] == Consumed {
			l.nodes[n] = Available
		}
		return
	}
	e, ok := l.elements[el]
	if !ok {
		return
	}
	if f.Name && e.name == Consumed {
		e.name = Available
	}
	for _, a := range f.Attributes {
		switch a {
		case "class":
			revert(e.classes, e.classOrder)
		case "style":
			e.revertStyles(e.styleOrder)
		default:
			revert(e.attributes, []string{a})
		}
	}
	revert(e.classes, f.Classes)
	e.revertStyles(f.Styles)
}

func (l *Ledger) entry(el *view.Element) *elementEntry {
	e, ok := l.elements[el]
	if !ok {
		e = &elementEntry{
			el:         el,
			attributes: make(map[string]Status),
			classes:    make(map[string]Status),
			styles:     make(map[string]Status),
		}
		l.elements[el] = e
	}
	return e
}

func (e *elementEntry) addStyle(name string) {
	if _, ok := e.styles[name]; !ok {
		e.styleOrder = append(e.styleOrder, name)
	}
	e.styles[name] = Available
}

func (e *elementEntry) testAttribute(key string) Status {
	switch key {
	case "class":
		return test(e.classes, e.classOrder)
	case "style":
		return test(e.styles, e.styleOrder)
	default:
		return test(e.attributes, []string{key})
	}
}

func (e *elementEntry) consumeClasses(names []string) {
	for _, c := range names {
		e.classes[c] = Consumed
	}
}

func (e *elementEntry) consumeStyles(names []string) {
	rel := e.el.StyleRelations()
	for _, s := range names {
		e.styles[s] = Consumed
		for _, related := range rel.Related(s) {
			if _, ok := e.styles[related]; ok {
				e.styles[related] = Consumed
			}
		}
	}
}

func (e *elementEntry) revertStyles(names []string) {
	rel := e.el.StyleRelations()
	for _, s := range names {
		revert(e.styles, []string{s})
		revert(e.styles, rel.Related(s))
	}
}

func test(states map[string]Status, names []string) Status {
	for _, n := range names {
		st, ok := states[n]
		if !ok {
			return Unknown
		}
		if st != Available {
			return st
		}
	}
	return Available
}

func revert(states map[string]Status, names []string) {
	for _, n := range names {
		if states[n] == Consumed {
			states[n] = Available
		}
	}
}
