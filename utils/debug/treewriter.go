// Package debug renders view and model trees as indented text.
package debug

import (
	"fmt"
	"strconv"
	"strings"

	"vmconv/model"
	"vmconv/view"
)

// TreeWriter accumulates indented lines.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// TextBlock writes label followed by quoted value.
func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

// View writes view subtree.
func (tw TreeWriter) View(depth int, n view.Node) {
	switch v := n.(type) {
	case *view.Text:
		tw.TextBlock(depth, "text", v.Data())
		return
	case *view.DocumentFragment:
		tw.Line(depth, "fragment")
	case *view.Element:
		tw.Line(depth, "%s %s%s", v.Kind(), v.Name(), viewAttrs(v))
	}
	if c, ok := n.(view.Container); ok {
		for _, child := range c.Children() {
			tw.View(depth+1, child)
		}
	}
}

// Model writes model subtree, markers of document fragment are listed after
// its content.
func (tw TreeWriter) Model(depth int, n model.Node) {
	switch v := n.(type) {
	case *model.Text:
		tw.indent(depth)
		tw.w.WriteString("text: ")
		tw.w.WriteString(encodeText(v.Data()))
		tw.w.WriteString(modelAttrs(v.Attributes()))
		tw.w.WriteByte('\n')
		return
	case *model.DocumentFragment:
		tw.Line(depth, "fragment")
	case *model.Element:
		tw.Line(depth, "%s%s", v.Name(), modelAttrs(v.Attributes()))
	}
	if c, ok := n.(model.Container); ok {
		for _, child := range c.Children() {
			tw.Model(depth+1, child)
		}
	}
	if f, ok := n.(*model.DocumentFragment); ok && len(f.Markers) > 0 {
		tw.Line(depth, "markers")
		for _, name := range f.MarkerNames() {
			r := f.Markers[name]
			tw.Line(depth+1, "%s %v-%v", name, r.Start.Path(), r.End.Path())
		}
	}
}

// DumpView returns text representation of view subtree.
func DumpView(n view.Node) string {
	tw := NewTreeWriter()
	tw.View(0, n)
	return tw.String()
}

// DumpModel returns text representation of model subtree.
func DumpModel(n model.Node) string {
	tw := NewTreeWriter()
	tw.Model(0, n)
	return tw.String()
}

func viewAttrs(el *view.Element) string {
	keys := el.AttributeKeys()
	if len(keys) == 0 {
		return ""
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, _ := el.Attribute(k)
		parts = append(parts, k+"="+strconv.Quote(v))
	}
	return " [" + strings.Join(parts, " ") + "]"
}

func modelAttrs(attrs []model.Attribute) string {
	if len(attrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(attrs))
	for _, a := range attrs {
		parts = append(parts, a.Key+"="+strconv.Quote(a.Value))
	}
	return " {" + strings.Join(parts, " ") + "}"
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
