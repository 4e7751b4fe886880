package model

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

// dump renders tree in compact form: <p>"ab"<b>"c"</b></p>
func dump(n Node) string {
	var b strings.Builder
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case *Text:
			b.WriteString(`"` + v.data + `"`)
			if len(v.attrs) > 0 {
				b.WriteString("{")
				for i, a := range v.attrs {
					if i > 0 {
						b.WriteString(",")
					}
					b.WriteString(a.Key + "=" + a.Value)
				}
				b.WriteString("}")
			}
		case *Element:
			b.WriteString("<" + v.name + ">")
			for _, c := range v.children {
				walk(c)
			}
			b.WriteString("</" + v.name + ">")
		case *DocumentFragment:
			for _, c := range v.children {
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}

func TestWriter_InsertMergesText(t *testing.T) {
	w := NewWriter()
	p := w.CreateElement("paragraph")
	root := NewDocumentFragment(p)

	w.Insert(w.CreateText("foo"), PositionAt(p, 0))
	w.Insert(w.CreateText("bar"), PositionAtEnd(p))
	if got := dump(root); got != `<paragraph>"foobar"</paragraph>` {
		t.Fatalf("tree = %s", got)
	}

	w.Insert(w.CreateText("X", Attribute{Key: "bold", Value: "true"}), PositionAt(p, 3))
	if got := dump(root); got != `<paragraph>"foo""X"{bold=true}"bar"</paragraph>` {
		t.Fatalf("tree = %s", got)
	}
	if p.MaxOffset() != 7 || p.ChildCount() != 3 {
		t.Errorf("MaxOffset() = %d, ChildCount() = %d", p.MaxOffset(), p.ChildCount())
	}
}

func TestWriter_RemoveMergesNeighbours(t *testing.T) {
	w := NewWriter()
	p := w.CreateElement("paragraph")
	root := NewDocumentFragment(p)
	w.Insert(w.CreateText("foo"), PositionAt(p, 0))
	mid := w.CreateElement("softBreak")
	w.Insert(mid, PositionAtEnd(p))
	w.Insert(w.CreateText("bar"), PositionAtEnd(p))

	w.Remove(mid)
	if got := dump(root); got != `<paragraph>"foobar"</paragraph>` {
		t.Fatalf("tree = %s", got)
	}
	if p.ChildCount() != 1 || mid.Parent() != nil {
		t.Errorf("ChildCount() = %d, removed parent = %v", p.ChildCount(), mid.Parent())
	}
}

func TestWriter_InsertMovesAttachedNode(t *testing.T) {
	w := NewWriter()
	a, b := w.CreateElement("a"), w.CreateElement("b")
	root := NewDocumentFragment(a, b)

	w.Insert(a, PositionAtEnd(root))
	if got := dump(root); got != "<b></b><a></a>" {
		t.Fatalf("tree = %s", got)
	}
	w.Insert(a, PositionAt(b, 0))
	if got := dump(root); got != "<b><a></a></b>" {
		t.Fatalf("tree = %s", got)
	}
}

func TestWriter_Split(t *testing.T) {
	w := NewWriter()
	root := w.CreateElement("$root")
	p := NewElement("paragraph", []Attribute{{Key: "align", Value: "left"}})
	b := NewElement("bold", nil, NewText("abcd"))
	w.Append(p, root)
	w.Append(NewText("xy"), p)
	w.Append(b, p)

	res := w.Split(PositionAt(b, 2), root)
	if got := dump(root); got != `<$root><paragraph>"xy"<bold>"ab"</bold></paragraph><paragraph><bold>"cd"</bold></paragraph></$root>` {
		t.Fatalf("tree = %s", got)
	}
	if !res.Position.IsEqual(PositionAt(root, 1)) {
		t.Errorf("Position = %v", res.Position)
	}
	if res.Range.Start.Parent != Container(b) || !res.Range.Start.IsAtEnd() {
		t.Errorf("Range.Start = %v", res.Range.Start)
	}
	copyP := root.Child(1).(*Element)
	if v, _ := copyP.Attribute("align"); v != "left" {
		t.Errorf("copy lost attributes: %v", copyP.Attributes())
	}
	if res.Range.End.Parent != copyP.Child(0) {
		t.Errorf("Range.End = %v", res.Range.End)
	}

	var steps []string
	walker := NewWalker(res.Range)
	for v, ok := walker.Next(); ok; v, ok = walker.Next() {
		steps = append(steps, v.Type.String()+":"+v.Item.String())
	}
	want := []string{"elementEnd:<bold>", "elementEnd:<paragraph>", "elementStart:<paragraph>", "elementStart:<bold>"}
	if !slices.Equal(steps, want) {
		t.Errorf("walk = %v, want %v", steps, want)
	}
}

func TestWriter_SplitAtEndCreatesEmptyCopy(t *testing.T) {
	w := NewWriter()
	root := w.CreateElement("$root")
	p := NewElement("paragraph", nil, NewText("ab"))
	w.Append(p, root)

	res := w.Split(PositionAtEnd(p), root)
	if got := dump(root); got != `<$root><paragraph>"ab"</paragraph><paragraph></paragraph></$root>` {
		t.Fatalf("tree = %s", got)
	}
	if res.Position.Offset != 1 {
		t.Errorf("Position = %v", res.Position)
	}
}

func TestWriter_SetAttributeOnPartialText(t *testing.T) {
	w := NewWriter()
	p := NewElement("paragraph", nil, NewText("abcdef"))
	root := NewDocumentFragment(p)

	items := NewRange(PositionAt(p, 2), PositionAt(p, 4)).Items()
	if len(items) != 1 {
		t.Fatalf("Items() = %v", items)
	}
	if proxy := items[0].(*TextProxy); proxy.Data() != "cd" || proxy.IsWhole() {
		t.Fatalf("proxy = %v", proxy)
	}
	w.SetAttribute("bold", "true", items[0])
	if got := dump(root); got != `<paragraph>"ab""cd"{bold=true}"ef"</paragraph>` {
		t.Errorf("tree = %s", got)
	}
}

func TestWriter_Move(t *testing.T) {
	w := NewWriter()
	m := NewElement("$marker", []Attribute{{Key: "data-name", Value: "x"}})
	p := NewElement("paragraph", nil)
	root := NewDocumentFragment(m, p)

	w.Move(RangeOn(m), PositionAt(p, 0))
	if got := dump(root); got != "<paragraph><$marker></$marker></paragraph>" {
		t.Errorf("tree = %s", got)
	}
}

func TestRange_Validate(t *testing.T) {
	p := NewElement("paragraph", nil, NewText("abc"))
	q := NewElement("paragraph", nil)
	NewDocumentFragment(p, q)
	other := NewElement("x", nil)

	tests := []struct {
		name  string
		r     Range
		valid bool
	}{
		{"collapsed", NewRange(PositionAt(p, 1)), true},
		{"across parents", NewRange(PositionAt(p, 1), PositionAt(q, 0)), true},
		{"reversed", NewRange(PositionAt(q, 0), PositionAt(p, 1)), false},
		{"out of bounds", NewRange(PositionAt(p, 0), PositionAt(p, 4)), false},
		{"different roots", NewRange(PositionAt(p, 0), PositionAt(other, 0)), false},
		{"zero", Range{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if tt.valid && err != nil {
				t.Errorf("Validate() = %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidRange) {
				t.Errorf("Validate() = %v, want ErrInvalidRange", err)
			}
		})
	}
}

func TestPosition_TextNode(t *testing.T) {
	txt := NewText("hé!")
	el := NewElement("x", nil)
	p := NewElement("paragraph", nil, txt, el)

	if PositionAt(p, 2).TextNode() != txt {
		t.Error("TextNode() inside text = nil")
	}
	if PositionAt(p, 0).TextNode() != nil || PositionAt(p, 0).NodeAfter() != txt {
		t.Error("position before text reported inside")
	}
	if PositionAt(p, 3).NodeAfter() != el || PositionAt(p, 3).NodeBefore() != txt {
		t.Error("NodeBefore/NodeAfter mismatch")
	}
	if p.MaxOffset() != 4 {
		t.Errorf("MaxOffset() = %d, want 4", p.MaxOffset())
	}
	if got := PositionAt(el, 0).Path(); !slices.Equal(got, []int{3, 0}) {
		t.Errorf("Path() = %v", got)
	}
}
