package upcast

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"vmconv/common"
	"vmconv/emitter"
	"vmconv/mapping"
	"vmconv/matcher"
	"vmconv/model"
	"vmconv/schema"
	"vmconv/view"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	s := schema.New(log)
	for name, def := range map[string]schema.Definition{
		"paragraph":      {InheritAllFrom: "$block"},
		"blockQuote":     {AllowWhere: []string{"$block"}, AllowContentOf: []string{"$root"}},
		"horizontalLine": {InheritAllFrom: "$blockObject"},
	} {
		if err := s.Register(name, def); err != nil {
			t.Fatalf("Unable to register %s: %v", name, err)
		}
	}
	if err := s.Extend("$text", schema.Definition{AllowAttributes: []string{"bold"}}); err != nil {
		t.Fatalf("Unable to extend $text: %v", err)
	}

	d := New(s, WithLogger(log))
	d.AddDefaultConverters()
	d.OnElement(matcher.New(matcher.Name("p")), ElementToElement(matcher.New(matcher.Name("p")), ModelElement("paragraph")))
	d.OnElement(matcher.New(matcher.Name("blockquote")), ElementToElement(matcher.New(matcher.Name("blockquote")), ModelElement("blockQuote")))
	d.OnElement(matcher.New(matcher.Name("hr")), ElementToElement(matcher.New(matcher.Name("hr")), ModelElement("horizontalLine")))
	return d
}

// render produces compact form of model tree: <paragraph>"foo"</paragraph>
func render(n model.Node) string {
	var b strings.Builder
	var walk func(model.Node)
	walk = func(n model.Node) {
		switch v := n.(type) {
		case *model.Text:
			b.WriteString(`"` + v.Data() + `"`)
			for _, a := range v.Attributes() {
				b.WriteString("{" + a.Key + "=" + a.Value + "}")
			}
		case *model.Element:
			b.WriteString("<" + v.Name() + ">")
			for _, c := range v.Children() {
				walk(c)
			}
			b.WriteString("</" + v.Name() + ">")
		case *model.DocumentFragment:
			for _, c := range v.Children() {
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}

func el(name string, children ...view.Node) *view.Element {
	return view.NewElement(name, nil, children...)
}

func txt(data string) *view.Text {
	return view.NewText(data)
}

func TestDispatcher_Convert(t *testing.T) {
	tests := []struct {
		name string
		root view.Node
		want string
	}{
		{
			name: "paragraph",
			root: view.NewDocumentFragment(el("p", txt("foo"))),
			want: `<paragraph>"foo"</paragraph>`,
		},
		{
			name: "text at root is wrapped",
			root: view.NewDocumentFragment(txt("foo"), el("p", txt("bar"))),
			want: `<paragraph>"foo"</paragraph><paragraph>"bar"</paragraph>`,
		},
		{
			name: "whitespace at root is dropped",
			root: view.NewDocumentFragment(txt("\n  "), el("p", txt("bar")), txt(" ")),
			want: `<paragraph>"bar"</paragraph>`,
		},
		{
			name: "unknown element children converted in place",
			root: view.NewDocumentFragment(el("div", el("p", txt("a")), el("span", txt("b")))),
			want: `<paragraph>"a"</paragraph><paragraph>"b"</paragraph>`,
		},
		{
			name: "nested allowed",
			root: view.NewDocumentFragment(el("blockquote", el("p", txt("q")))),
			want: `<blockQuote><paragraph>"q"</paragraph></blockQuote>`,
		},
		{
			name: "split paragraph around block",
			root: view.NewDocumentFragment(el("p", txt("foo"), el("hr"), txt("bar"))),
			want: `<paragraph>"foo"</paragraph><horizontalLine></horizontalLine><paragraph>"bar"</paragraph>`,
		},
		{
			name: "empty split parts removed",
			root: view.NewDocumentFragment(el("p", el("hr"))),
			want: `<horizontalLine></horizontalLine>`,
		},
		{
			name: "split through two levels",
			root: view.NewDocumentFragment(el("blockquote", el("p", txt("a"), el("hr"), txt("b")))),
			want: `<blockQuote><paragraph>"a"</paragraph><horizontalLine></horizontalLine><paragraph>"b"</paragraph></blockQuote>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDispatcher(t)
			frag, err := d.Convert(tt.root, model.NewWriter())
			if err != nil {
				t.Fatalf("Convert() = %v", err)
			}
			if got := render(frag); got != tt.want {
				t.Errorf("Convert() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestDispatcher_SplitGroup(t *testing.T) {
	d := newTestDispatcher(t)

	var parts []*model.Element
	d.On("element:p", func(_ *emitter.Event, data *Data, api *API) {
		if data.ModelRange == nil {
			return
		}
		first := data.ModelRange.Start.NodeAfter().(*model.Element)
		parts = api.GetSplitParts(first)
		if !data.ModelCursor.IsEqual(model.PositionAfter(parts[len(parts)-1])) {
			t.Errorf("cursor = %v, want after last part", data.ModelCursor)
		}
	}, emitter.WithPriority(emitter.PriorityLow))

	frag, err := d.Convert(view.NewDocumentFragment(el("p", txt("foo"), el("hr"), txt("bar"))), model.NewWriter())
	if err != nil {
		t.Fatalf("Convert() = %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("GetSplitParts() = %v, want 2 parts", parts)
	}
	if frag.Child(0) != model.Node(parts[0]) || frag.Child(2) != model.Node(parts[1]) {
		t.Errorf("split parts %v do not match fragment children %v", parts, frag.Children())
	}
}

func TestDispatcher_KeepEmptyElement(t *testing.T) {
	d := newTestDispatcher(t)
	d.On("element:hr", func(_ *emitter.Event, data *Data, api *API) {
		if data.ModelRange == nil {
			return
		}
		before := data.ModelRange.Start.NodeBefore().(*model.Element)
		api.KeepEmptyElement(before)
	}, emitter.WithPriority(emitter.PriorityLow))

	frag, err := d.Convert(view.NewDocumentFragment(el("p", el("hr"))), model.NewWriter())
	if err != nil {
		t.Fatalf("Convert() = %v", err)
	}
	if got, want := render(frag), `<paragraph></paragraph><horizontalLine></horizontalLine>`; got != want {
		t.Errorf("Convert() = %s, want %s", got, want)
	}
}

func TestDispatcher_Markers(t *testing.T) {
	d := newTestDispatcher(t)
	names := MarkerNameFromAttribute("data-name")
	for _, n := range []string{"marker-start", "marker-end"} {
		m := matcher.New(matcher.Name(n))
		d.OnElement(m, ElementToMarker(m, names))
	}

	marker := func(name string) *view.Element {
		return view.NewEmptyElement(name, []view.Attribute{{Key: "data-name", Value: "search"}})
	}
	root := view.NewDocumentFragment(el("p", txt("Fo"), marker("marker-start"), txt("ob"), marker("marker-end"), txt("ar")))

	frag, err := d.Convert(root, model.NewWriter())
	if err != nil {
		t.Fatalf("Convert() = %v", err)
	}

	p := frag.Child(0).(*model.Element)
	var text strings.Builder
	for _, c := range p.Children() {
		tn, ok := c.(*model.Text)
		if !ok {
			t.Fatalf("marker element left in tree: %v", c)
		}
		text.WriteString(tn.Data())
	}
	if text.String() != "Foobar" {
		t.Errorf("text = %q, want Foobar", text.String())
	}

	r, ok := frag.Markers["search"]
	if !ok {
		t.Fatalf("marker not extracted: %v", frag.Markers)
	}
	if r.Start.Parent != model.Container(p) || r.Start.Offset != 2 || r.End.Offset != 4 {
		t.Errorf("marker range = %v, want [2,4] in paragraph", r)
	}
}

func TestDispatcher_BindsConvertedElements(t *testing.T) {
	d := newTestDispatcher(t)
	mp := mapping.New()
	WithMapper(mp)(d)
	m := matcher.New(matcher.Name("marker"))
	d.OnElement(m, ElementToMarker(m, MarkerNameFromAttribute("data-name")))

	marker := view.NewEmptyElement("marker", []view.Attribute{{Key: "data-name", Value: "q"}})
	ob := txt("ob")
	p := el("p", txt("Fo"), marker, ob)
	hr := el("hr")
	root := view.NewDocumentFragment(p, hr)

	frag, err := d.Convert(root, model.NewWriter())
	if err != nil {
		t.Fatalf("Convert() = %v", err)
	}
	para := frag.Child(0).(*model.Element)
	if got := mp.ToModelElement(p); got != model.Container(para) {
		t.Errorf("ToModelElement(p) = %v", got)
	}
	if got := mp.ToModelElement(hr); got != frag.Child(1) {
		t.Errorf("ToModelElement(hr) = %v", got)
	}
	if got := mp.ToViewElement(frag); got != view.Container(root) {
		t.Errorf("ToViewElement(fragment) = %v", got)
	}
	if got := mp.MarkerNameToElements("q"); len(got) != 1 || got[0] != marker {
		t.Errorf("MarkerNameToElements(q) = %v", got)
	}

	mpos, err := mp.ToModelPosition(view.PositionAt(ob, 1))
	if err != nil {
		t.Fatalf("ToModelPosition() = %v", err)
	}
	if mpos.Parent != model.Container(para) || mpos.Offset != 3 {
		t.Errorf("ToModelPosition(ob, 1) = %v, want offset 3 in paragraph", mpos)
	}
}

func TestDispatcher_MarkerAtRootMovesIntoParagraph(t *testing.T) {
	d := newTestDispatcher(t)
	m := matcher.New(matcher.Name("m"))
	d.OnElement(m, ElementToMarker(m, MarkerNameFromAttribute("name")))

	root := view.NewDocumentFragment(view.NewElement("m", []view.Attribute{{Key: "name", Value: "x"}}), txt("abc"))
	frag, err := d.Convert(root, model.NewWriter())
	if err != nil {
		t.Fatalf("Convert() = %v", err)
	}
	if got := render(frag); got != `<paragraph>"abc"</paragraph>` {
		t.Fatalf("Convert() = %s", got)
	}
	r := frag.Markers["x"]
	if r.Start.Parent != frag.Child(0) || r.Start.Offset != 0 || !r.IsCollapsed() {
		t.Errorf("marker range = %v", r)
	}
}

func TestDispatcher_SchemaRejection(t *testing.T) {
	d := newTestDispatcher(t)
	x := matcher.New(matcher.Name("x"))
	d.OnElement(x, ElementToElement(x, ModelElement("unregistered")))

	frag, err := d.Convert(view.NewDocumentFragment(el("x")), model.NewWriter())
	if err != nil {
		t.Fatalf("Convert() = %v", err)
	}
	if frag.ChildCount() != 0 {
		t.Errorf("Convert() = %s, want empty", render(frag))
	}
}

func TestDispatcher_AtMostOnce(t *testing.T) {
	d := newTestDispatcher(t)
	p := matcher.New(matcher.Name("p"))
	d.OnElement(p, ElementToElement(p, ModelElement("blockQuote")), emitter.WithPriority(emitter.PriorityHigh))

	frag, err := d.Convert(view.NewDocumentFragment(el("p", txt("a"))), model.NewWriter())
	if err != nil {
		t.Fatalf("Convert() = %v", err)
	}
	// "a" is text inside blockQuote, auto-paragraphed
	if got, want := render(frag), `<blockQuote><paragraph>"a"</paragraph></blockQuote>`; got != want {
		t.Errorf("Convert() = %s, want %s", got, want)
	}
}

func TestDispatcher_Stop(t *testing.T) {
	d := newTestDispatcher(t)
	d.On("element:p", func(evt *emitter.Event, _ *Data, _ *API) {
		evt.Stop()
	}, emitter.WithPriority(emitter.PriorityHighest))

	frag, err := d.Convert(view.NewDocumentFragment(el("p", txt("a"))), model.NewWriter())
	if err != nil {
		t.Fatalf("Convert() = %v", err)
	}
	if frag.ChildCount() != 0 {
		t.Errorf("Convert() = %s, want nothing", render(frag))
	}
}

func TestDispatcher_InvalidResultIsFatal(t *testing.T) {
	d := newTestDispatcher(t)
	d.On("element:p", func(evt *emitter.Event, data *Data, _ *API) {
		r := model.NewRange(data.ModelCursor, data.ModelCursor.ShiftedBy(10))
		data.ModelRange = &r
		evt.Stop()
	}, emitter.WithPriority(emitter.PriorityHighest))

	_, err := d.Convert(view.NewDocumentFragment(el("p")), model.NewWriter())
	if !errors.Is(err, ErrInvalidResult) || !errors.Is(err, model.ErrInvalidRange) {
		t.Fatalf("Convert() = %v, want ErrInvalidResult", err)
	}

	// dispatcher is usable again after failure
	if _, err := d.Convert(view.NewDocumentFragment(), model.NewWriter()); err != nil {
		t.Errorf("Convert() after failure = %v", err)
	}
}

func TestWithParagraph(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "", want: "paragraph"},
		{name: "para", want: "para"},
	}
	for _, tt := range tests {
		d := New(schema.New(nil), WithParagraph(tt.name))
		if got := d.api.Paragraph(); got != tt.want {
			t.Errorf("WithParagraph(%q): paragraph = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestDispatcher_Busy(t *testing.T) {
	d := newTestDispatcher(t)
	var inner error
	d.On("element:p", func(_ *emitter.Event, _ *Data, _ *API) {
		_, inner = d.Convert(view.NewDocumentFragment(), model.NewWriter())
	}, emitter.WithPriority(emitter.PriorityHighest))

	if _, err := d.Convert(view.NewDocumentFragment(el("p")), model.NewWriter()); err != nil {
		t.Fatalf("Convert() = %v", err)
	}
	if !errors.Is(inner, ErrBusy) {
		t.Errorf("nested Convert() = %v, want ErrBusy", inner)
	}
}

func TestDispatcher_Context(t *testing.T) {
	d := newTestDispatcher(t)

	frag, err := d.Convert(view.NewDocumentFragment(txt("foo")), model.NewWriter(), "$root", "paragraph")
	if err != nil {
		t.Fatalf("Convert() = %v", err)
	}
	if got := render(frag); got != `"foo"` {
		t.Errorf("Convert() = %s", got)
	}

	// block is not allowed in paragraph and splitting the context is not
	// possible, paragraph inside paragraph is not allowed either
	frag, err = d.Convert(view.NewDocumentFragment(el("hr")), model.NewWriter(), "$root", "paragraph")
	if err != nil {
		t.Fatalf("Convert() = %v", err)
	}
	if frag.ChildCount() != 0 {
		t.Errorf("Convert() = %s, want empty", render(frag))
	}
}

func TestElementToAttribute(t *testing.T) {
	d := newTestDispatcher(t)
	b := matcher.New(matcher.Name("b"))
	d.OnElement(b, ElementToAttribute(b, "bold", FixedValue("true")), emitter.WithPriority(emitter.PriorityLow))

	frag, err := d.Convert(view.NewDocumentFragment(el("p", txt("foo"), el("b", txt("bar")), txt("baz"))), model.NewWriter())
	if err != nil {
		t.Fatalf("Convert() = %v", err)
	}
	if got, want := render(frag), `<paragraph>"foo""bar"{bold=true}"baz"</paragraph>`; got != want {
		t.Errorf("Convert() = %s, want %s", got, want)
	}
}

func TestRegisterRules(t *testing.T) {
	d := newTestDispatcher(t)
	rules := []Rule{
		{Kind: common.RuleKindElement, View: matcher.PatternConfig{Name: "/^h[1-6]$/"}, Model: "paragraph", Attributes: map[string]string{"heading": "true"}},
		{Kind: common.RuleKindAttribute, View: matcher.PatternConfig{Name: "strong"}, Model: "bold"},
	}
	if err := RegisterRules(d, rules); err != nil {
		t.Fatalf("RegisterRules() = %v", err)
	}

	frag, err := d.Convert(view.NewDocumentFragment(el("h2", el("strong", txt("T")))), model.NewWriter())
	if err != nil {
		t.Fatalf("Convert() = %v", err)
	}
	p := frag.Child(0).(*model.Element)
	if v, _ := p.Attribute("heading"); v != "true" {
		t.Errorf("heading attribute = %q", v)
	}
	if got := render(frag); got != `<paragraph>"T"{bold=true}</paragraph>` {
		t.Errorf("Convert() = %s", got)
	}

	bad := []Rule{
		{Kind: common.RuleKindElement, View: matcher.PatternConfig{Name: "/[/"}, Model: "x"},
		{Kind: common.RuleKindAttribute, View: matcher.PatternConfig{Name: "i"}},
		{Kind: common.RuleKindElement, View: matcher.PatternConfig{Name: "i"}, Model: "x", Priority: "soon"},
	}
	err = RegisterRules(d, bad)
	if err == nil {
		t.Fatal("RegisterRules() accepted bad rules")
	}
	if n := len(multierr.Errors(err)); n != 3 {
		t.Errorf("RegisterRules() reported %d errors, want 3: %v", n, err)
	}
}
