// Package modelxml serializes converted model fragments to XML.
package modelxml

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"vmconv/model"
)

type options struct {
	id     uuid.UUID
	source string
	indent int
}

// Option configures serialization.
type Option func(*options)

// WithID sets document id, random time ordered id is generated otherwise.
func WithID(id uuid.UUID) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithSource records name of the converted input.
func WithSource(name string) Option {
	return func(o *options) {
		o.source = name
	}
}

// WithIndent pretty prints output. Indentation changes whitespace of mixed
// content so it is meant for inspection only.
func WithIndent(spaces int) Option {
	return func(o *options) {
		o.indent = spaces
	}
}

// Build creates XML document with fragment content and its markers.
func Build(frag *model.DocumentFragment, opts ...Option) (*etree.Document, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("unable to generate document id: %w", err)
		}
		o.id = id
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("model")
	root.CreateAttr("id", o.id.String())
	if o.source != "" {
		root.CreateAttr("source", o.source)
	}

	content := root.CreateElement("content")
	for _, child := range frag.Children() {
		writeNode(content, child)
	}

	if len(frag.Markers) > 0 {
		markers := root.CreateElement("markers")
		for _, name := range frag.MarkerNames() {
			r := frag.Markers[name]
			m := markers.CreateElement("marker")
			m.CreateAttr("name", name)
			m.CreateAttr("start", formatPath(r.Start.Path()))
			m.CreateAttr("end", formatPath(r.End.Path()))
		}
	}

	if o.indent > 0 {
		doc.Indent(o.indent)
	}
	return doc, nil
}

// Write serializes fragment to w.
func Write(w io.Writer, frag *model.DocumentFragment, opts ...Option) error {
	doc, err := Build(frag, opts...)
	if err != nil {
		return err
	}
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("unable to write model XML: %w", err)
	}
	return nil
}

func writeNode(parent *etree.Element, n model.Node) {
	switch v := n.(type) {
	case *model.Text:
		attrs := v.Attributes()
		if len(attrs) == 0 {
			parent.CreateText(v.Data())
			return
		}
		el := parent.CreateElement(XMLName(model.Name(v)))
		for _, a := range attrs {
			el.CreateAttr(XMLName(a.Key), a.Value)
		}
		el.CreateText(v.Data())
	case *model.Element:
		el := parent.CreateElement(XMLName(v.Name()))
		for _, a := range v.Attributes() {
			el.CreateAttr(XMLName(a.Key), a.Value)
		}
		for _, child := range v.Children() {
			writeNode(el, child)
		}
	}
}

// XMLName turns model name into valid XML name: "$" prefix of generic names
// becomes "_", other characters not allowed in names are replaced with "_".
func XMLName(name string) string {
	if name == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range name {
		switch {
		case unicode.IsLetter(r) || r == '_':
			b.WriteRune(r)
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.' || r == ':'):
			b.WriteRune(r)
		case i == 0 && (unicode.IsDigit(r) || r == '-' || r == '.'):
			b.WriteByte('_')
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func formatPath(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, " ")
}
