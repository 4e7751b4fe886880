// Package htmlview builds view trees from HTML documents.
package htmlview

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/unicode/norm"

	"vmconv/common"
	"vmconv/css"
	"vmconv/view"
)

// Elements without content model, they become empty view elements.
var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Param: true, atom.Source: true,
	atom.Track: true, atom.Wbr: true,
}

// Whitespace only text next to these is insignificant.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Body: true, atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Figcaption: true, atom.Figure: true, atom.Footer: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Tbody: true, atom.Td: true, atom.Tfoot: true, atom.Th: true, atom.Thead: true,
	atom.Tr: true, atom.Ul: true,
}

// Content of these is never converted.
var skippedElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Template: true, atom.Noscript: true,
}

// Loader converts parsed HTML into view nodes.
type Loader struct {
	log        *zap.Logger
	whitespace common.WhitespaceMode
	relations  *css.Relations
}

// Option configures loader.
type Option func(*Loader)

// WithWhitespace sets text whitespace handling.
func WithWhitespace(mode common.WhitespaceMode) Option {
	return func(l *Loader) {
		l.whitespace = mode
	}
}

// WithRelations sets style relations for created elements.
func WithRelations(rel *css.Relations) Option {
	return func(l *Loader) {
		l.relations = rel
	}
}

// New creates loader.
func New(log *zap.Logger, opts ...Option) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Loader{log: log.Named("html"), whitespace: common.WhitespaceModeCollapse}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads HTML document and returns content of its body as view
// document fragment. Input is converted to UTF-8 using encoding from
// contentType, when empty encoding is detected from the content.
func (l *Loader) Load(r io.Reader, contentType string) (*view.DocumentFragment, error) {
	ur, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, fmt.Errorf("unable to detect document encoding: %w", err)
	}
	doc, err := html.Parse(ur)
	if err != nil {
		return nil, fmt.Errorf("unable to parse HTML: %w", err)
	}
	body := findBody(doc)
	if body == nil {
		return nil, fmt.Errorf("unable to find document body")
	}

	root := view.NewDocumentFragment()
	l.appendChildren(root, body, false)
	l.log.Debug("HTML loaded", zap.Int("nodes", root.ChildCount()))
	return root, nil
}

// LoadString is Load for in memory UTF-8 HTML.
func (l *Loader) LoadString(s string) (*view.DocumentFragment, error) {
	return l.Load(strings.NewReader(s), "text/html; charset=utf-8")
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}

func (l *Loader) appendChildren(parent view.Container, n *html.Node, pre bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			if skippedElements[c.DataAtom] {
				continue
			}
			el := l.createElement(c)
			parent.AppendChildren(el)
			if el.Kind() != view.KindEmpty {
				l.appendChildren(el, c, pre || c.DataAtom == atom.Pre)
			}
		case html.TextNode:
			if data := l.text(c, pre); data != "" {
				parent.AppendChildren(view.NewText(data))
			}
		}
	}
}

func (l *Loader) createElement(n *html.Node) *view.Element {
	attrs := make([]view.Attribute, 0, len(n.Attr))
	for _, a := range n.Attr {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + a.Key
		}
		attrs = append(attrs, view.Attribute{Key: key, Value: a.Val})
	}

	var el *view.Element
	if voidElements[n.DataAtom] {
		el = view.NewEmptyElement(n.Data, nil)
	} else {
		el = view.NewElement(n.Data, nil)
	}
	if l.relations != nil {
		el.SetStyleRelations(l.relations)
	}
	for _, a := range attrs {
		el.SetAttribute(a.Key, a.Value)
	}
	return el
}

func (l *Loader) text(n *html.Node, pre bool) string {
	data := norm.NFC.String(n.Data)
	if pre || l.whitespace == common.WhitespaceModePreserve {
		return data
	}

	data = collapseSpaces(data)
	if isBlockBoundary(n.PrevSibling, n.Parent) {
		data = strings.TrimLeft(data, " ")
	}
	if isBlockBoundary(n.NextSibling, n.Parent) {
		data = strings.TrimRight(data, " ")
	}
	return data
}

// isBlockBoundary reports whether text is adjacent to block element or to
// the edge of block parent.
func isBlockBoundary(sibling, parent *html.Node) bool {
	if sibling == nil {
		return parent == nil || blockElements[parent.DataAtom]
	}
	return sibling.Type == html.ElementNode && blockElements[sibling.DataAtom]
}

func collapseSpaces(s string) string {
	var (
		b     strings.Builder
		space bool
	)
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				b.WriteByte(' ')
			}
			space = true
		default:
			b.WriteRune(r)
			space = false
		}
	}
	return b.String()
}
