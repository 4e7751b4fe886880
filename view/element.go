package view

import (
	"fmt"
	"slices"
	"strings"

	"vmconv/css"
)

// Kind of view element, it decides how element participates in mapping and
// whether it may have children.
type Kind int

const (
	KindContainer Kind = iota
	KindAttribute
	KindEmpty
	KindUI
)

func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindAttribute:
		return "attribute"
	case KindEmpty:
		return "empty"
	case KindUI:
		return "ui"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Attribute is a single element attribute.
type Attribute struct {
	Key   string
	Value string
}

// DefaultRelations is used by elements which do not have their own style
// relations set.
var DefaultRelations = css.NewRelations()

var styleParser = css.NewParser(nil)

// Element is a view element. Its "class" and "style" attributes are not
// stored as strings, they are kept as ordered class set and ordered style
// declarations and rendered on request.
type Element struct {
	name      string
	kind      Kind
	attrs     []Attribute
	classes   []string
	styles    []css.Declaration
	relations *css.Relations
	parent    Container
	children  []Node
}

// NewElement creates container element.
func NewElement(name string, attrs []Attribute, children ...Node) *Element {
	return newElement(KindContainer, name, attrs, children)
}

// NewAttributeElement creates attribute (formatting) element.
func NewAttributeElement(name string, attrs []Attribute, children ...Node) *Element {
	return newElement(KindAttribute, name, attrs, children)
}

// NewEmptyElement creates element which cannot have children.
func NewEmptyElement(name string, attrs []Attribute) *Element {
	return newElement(KindEmpty, name, attrs, nil)
}

// NewUIElement creates element which has no model counterpart and zero
// model length.
func NewUIElement(name string, attrs []Attribute) *Element {
	return newElement(KindUI, name, attrs, nil)
}

func newElement(kind Kind, name string, attrs []Attribute, children []Node) *Element {
	e := &Element{name: name, kind: kind}
	for _, a := range attrs {
		e.SetAttribute(a.Key, a.Value)
	}
	e.AppendChildren(children...)
	return e
}

func (e *Element) Parent() Container     { return e.parent }
func (e *Element) setParent(p Container) { e.parent = p }
func (e *Element) childList() *[]Node    { return &e.children }

// Name returns element name.
func (e *Element) Name() string { return e.name }

// Kind returns element kind.
func (e *Element) Kind() Kind { return e.kind }

// Is reports whether element has given name.
func (e *Element) Is(name string) bool { return e.name == name }

func (e *Element) Children() []Node     { return slices.Clone(e.children) }
func (e *Element) ChildCount() int      { return len(e.children) }
func (e *Element) Child(index int) Node { return child(e.children, index) }
func (e *Element) IsEmpty() bool        { return len(e.children) == 0 }

func (e *Element) AppendChildren(nodes ...Node) {
	e.InsertChildren(len(e.children), nodes...)
}

func (e *Element) InsertChildren(index int, nodes ...Node) {
	if len(nodes) == 0 {
		return
	}
	if e.kind == KindEmpty || e.kind == KindUI {
		panic(fmt.Sprintf("view: %s element <%s> cannot have children", e.kind, e.name))
	}
	insertChildren(e, index, nodes)
}

func (e *Element) RemoveChildren(index, count int) []Node {
	return removeChildren(e, index, count)
}

// Attribute returns attribute value. For "class" and "style" value is
// rendered from the current class set and style declarations.
func (e *Element) Attribute(key string) (string, bool) {
	switch key {
	case "class":
		if len(e.classes) == 0 {
			return "", false
		}
		return strings.Join(e.classes, " "), true
	case "style":
		if len(e.styles) == 0 {
			return "", false
		}
		return css.Serialize(e.styles), true
	}
	for _, a := range e.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttribute reports whether attribute is present.
func (e *Element) HasAttribute(key string) bool {
	_, ok := e.Attribute(key)
	return ok
}

// AttributeKeys returns keys of all attributes including "class" and "style"
// when element has any classes or styles.
func (e *Element) AttributeKeys() []string {
	keys := make([]string, 0, len(e.attrs)+2)
	if len(e.classes) > 0 {
		keys = append(keys, "class")
	}
	if len(e.styles) > 0 {
		keys = append(keys, "style")
	}
	for _, a := range e.attrs {
		keys = append(keys, a.Key)
	}
	return keys
}

// Attributes returns plain attributes, without class and style.
func (e *Element) Attributes() []Attribute {
	return slices.Clone(e.attrs)
}

// SetAttribute sets attribute value, "class" and "style" values are parsed.
func (e *Element) SetAttribute(key, value string) {
	switch key {
	case "class":
		e.classes = nil
		e.AddClass(strings.Fields(value)...)
		return
	case "style":
		e.styles = styleParser.ParseInline(value)
		return
	}
	for i := range e.attrs {
		if e.attrs[i].Key == key {
			e.attrs[i].Value = value
			return
		}
	}
	e.attrs = append(e.attrs, Attribute{Key: key, Value: value})
}

// RemoveAttribute removes attribute, removing "class" or "style" clears all
// classes or styles.
func (e *Element) RemoveAttribute(key string) {
	switch key {
	case "class":
		e.classes = nil
	case "style":
		e.styles = nil
	default:
		e.attrs = slices.DeleteFunc(e.attrs, func(a Attribute) bool { return a.Key == key })
	}
}

// ClassNames returns classes in the order they were added.
func (e *Element) ClassNames() []string {
	return slices.Clone(e.classes)
}

// HasClass reports whether element has all listed classes.
func (e *Element) HasClass(names ...string) bool {
	for _, n := range names {
		if !slices.Contains(e.classes, n) {
			return false
		}
	}
	return true
}

// AddClass adds classes keeping existing order.
func (e *Element) AddClass(names ...string) {
	for _, n := range names {
		if n != "" && !slices.Contains(e.classes, n) {
			e.classes = append(e.classes, n)
		}
	}
}

// RemoveClass removes classes.
func (e *Element) RemoveClass(names ...string) {
	e.classes = slices.DeleteFunc(e.classes, func(c string) bool { return slices.Contains(names, c) })
}

// StyleRelations returns resolver used for style shorthands of this element.
func (e *Element) StyleRelations() *css.Relations {
	if e.relations != nil {
		return e.relations
	}
	return DefaultRelations
}

// SetStyleRelations overrides style relations resolver for this element.
func (e *Element) SetStyleRelations(r *css.Relations) {
	e.relations = r
}

// StyleNames returns names of declared styles. With expand set longhands of
// declared shorthands are added as well.
func (e *Element) StyleNames(expand bool) []string {
	names := make([]string, 0, len(e.styles))
	for _, d := range e.styles {
		names = append(names, d.Name)
	}
	if !expand {
		return names
	}
	rel := e.StyleRelations()
	for _, d := range e.styles {
		for _, l := range rel.Longhands(d.Name) {
			if !slices.Contains(names, l) {
				names = append(names, l)
			}
		}
	}
	return names
}

// Style returns value of the style property. Longhand values are derived
// from declared shorthands, later declarations win.
func (e *Element) Style(name string) (string, bool) {
	var (
		value string
		found bool
	)
	rel := e.StyleRelations()
	for _, d := range e.styles {
		if d.Name == name {
			value, found = d.Value, true
			continue
		}
		if !slices.Contains(rel.Longhands(d.Name), name) {
			continue
		}
		for _, x := range rel.Expand(d.Name, d.Value) {
			if x.Name == name {
				value, found = x.Value, true
				break
			}
		}
	}
	return value, found
}

// HasStyle reports whether all listed properties have a value.
func (e *Element) HasStyle(names ...string) bool {
	for _, n := range names {
		if _, ok := e.Style(n); !ok {
			return false
		}
	}
	return true
}

// SetStyle sets single style property.
func (e *Element) SetStyle(name, value string) {
	for i := range e.styles {
		if e.styles[i].Name == name {
			e.styles[i].Value = value
			return
		}
	}
	e.styles = append(e.styles, css.Declaration{Name: name, Value: value})
}

// RemoveStyle removes style properties.
func (e *Element) RemoveStyle(names ...string) {
	e.styles = slices.DeleteFunc(e.styles, func(d css.Declaration) bool { return slices.Contains(names, d.Name) })
}

func (e *Element) String() string {
	return "<" + e.name + ">"
}
