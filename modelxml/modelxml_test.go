package modelxml

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"

	"vmconv/model"
)

func TestWrite(t *testing.T) {
	para := model.NewElement("paragraph", []model.Attribute{{Key: "align", Value: "left"}},
		model.NewText("Foo"),
		model.NewText("bar", model.Attribute{Key: "bold", Value: "true"}),
	)
	frag := model.NewDocumentFragment(para, model.NewElement("horizontalLine", nil))
	frag.Markers["search"] = model.NewRange(model.PositionAt(para, 1), model.PositionAt(para, 4))

	var buf bytes.Buffer
	err := Write(&buf, frag, WithID(uuid.MustParse("00000000-0000-0000-0000-000000000001")), WithSource("a.html"))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	want := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<model id="00000000-0000-0000-0000-000000000001" source="a.html"><content>` +
		`<paragraph align="left">Foo<_text bold="true">bar</_text></paragraph><horizontalLine/>` +
		`</content><markers><marker name="search" start="0 1" end="0 4"/></markers></model>`
	if got := buf.String(); got != want {
		t.Errorf("Write() =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildGeneratesID(t *testing.T) {
	doc, err := Build(model.NewDocumentFragment())
	if err != nil {
		t.Fatal(err)
	}
	id := doc.Root().SelectAttrValue("id", "")
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("generated id %q is not valid: %v", id, err)
	}
	if doc.Root().SelectElement("markers") != nil {
		t.Error("markers element written for fragment without markers")
	}
}

func TestBuildIndent(t *testing.T) {
	frag := model.NewDocumentFragment(model.NewElement("paragraph", nil))
	doc, err := Build(frag, WithIndent(2))
	if err != nil {
		t.Fatal(err)
	}
	s, err := doc.WriteToString()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(s, "\n    <paragraph/>\n") {
		t.Errorf("indented output:\n%s", s)
	}
}

func TestXMLName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"paragraph", "paragraph"},
		{"$text", "_text"},
		{"$marker", "_marker"},
		{"h1", "h1"},
		{"1st", "_1st"},
		{"a b", "a_b"},
		{"data-name", "data-name"},
		{"", "_"},
	}
	for _, tt := range tests {
		if got := XMLName(tt.in); got != tt.want {
			t.Errorf("XMLName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
