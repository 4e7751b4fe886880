package schema

import (
	"errors"
	"slices"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"vmconv/model"
)

func newTestSchema(t *testing.T) *Schema {
	t.Helper()
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	s := New(log)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("Unable to register item: %v", err)
		}
	}
	must(s.Register("paragraph", Definition{InheritAllFrom: "$block"}))
	must(s.Register("blockQuote", Definition{AllowWhere: []string{"$block"}, AllowContentOf: []string{"$root"}}))
	must(s.Register("image", Definition{InheritAllFrom: "$blockObject", AllowAttributes: []string{"src"}}))
	must(s.Extend("$text", Definition{AllowAttributes: []string{"bold"}}))
	return s
}

func TestSchema_CheckChild(t *testing.T) {
	s := newTestSchema(t)

	tests := []struct {
		ctx   Context
		child string
		want  bool
	}{
		{Context{"$root"}, "paragraph", true},
		{Context{"$root"}, "$text", false},
		{Context{"$root", "paragraph"}, "$text", true},
		{Context{"$root", "paragraph"}, "paragraph", false},
		{Context{"$root", "blockQuote"}, "paragraph", true},
		{Context{"$root", "blockQuote", "paragraph"}, "$text", true},
		{Context{"$root", "blockQuote"}, "image", true},
		{Context{"$documentFragment"}, "paragraph", true},
		{Context{"$root", "paragraph"}, "$marker", true},
		{Context{"$root", "image"}, "$marker", true},
		{Context{"$root"}, "unknown", false},
		// whole chain must be valid, not only the last item
		{Context{"paragraph", "blockQuote", "paragraph"}, "$text", false},
		{Context{}, "paragraph", false},
	}
	for _, tt := range tests {
		if got := s.CheckChild(tt.ctx, tt.child); got != tt.want {
			t.Errorf("CheckChild(%v, %q) = %v, want %v", tt.ctx, tt.child, got, tt.want)
		}
	}
}

func TestSchema_Items(t *testing.T) {
	s := newTestSchema(t)

	p, ok := s.Item("paragraph")
	if !ok || !p.IsBlock {
		t.Fatalf("paragraph = %+v", p)
	}
	if !s.IsLimit("image") || !s.IsLimit("$root") || s.IsLimit("paragraph") {
		t.Error("IsLimit mismatch")
	}
	root, _ := s.Item("$root")
	for _, name := range []string{"paragraph", "blockQuote", "image", "$block"} {
		if !slices.Contains(root.AllowChildren, name) {
			t.Errorf("$root children miss %q: %v", name, root.AllowChildren)
		}
	}

	if !s.CheckAttribute(model.NewText("x"), "bold") {
		t.Error("$text should allow bold")
	}
	if s.CheckAttribute(model.NewElement("paragraph", nil), "bold") {
		t.Error("paragraph should not allow bold")
	}
}

func TestSchema_RegisterErrors(t *testing.T) {
	s := New(nil)
	if err := s.Register("$root", Definition{}); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("Register() = %v, want ErrAlreadyRegistered", err)
	}
	if err := s.Extend("nope", Definition{}); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Extend() = %v, want ErrNotRegistered", err)
	}
}

func TestSchema_ChildCheck(t *testing.T) {
	s := newTestSchema(t)
	s.AddChildCheck(func(ctx Context, child *Item) (bool, bool) {
		if ctx.Last() == "blockQuote" && child.Name == "blockQuote" {
			return false, true
		}
		return false, false
	})

	if s.CheckChild(Context{"$root", "blockQuote"}, "blockQuote") {
		t.Error("custom check did not disallow nested blockQuote")
	}
	if !s.CheckChild(Context{"$root"}, "blockQuote") {
		t.Error("custom check affected unrelated context")
	}
}

func TestSchema_FindAllowedParent(t *testing.T) {
	s := newTestSchema(t)

	root := model.NewElement("$root", nil)
	quote := model.NewElement("blockQuote", nil)
	para := model.NewElement("paragraph", nil)
	w := model.NewWriter()
	w.Append(quote, root)
	w.Append(para, quote)

	img := model.NewElement("image", nil)
	if got := s.FindAllowedParent(model.PositionAt(para, 0), img); got != model.Container(quote) {
		t.Errorf("FindAllowedParent(image) = %v, want blockQuote", got)
	}
	if got := s.FindAllowedParent(model.PositionAt(para, 0), model.NewText("x")); got != model.Container(para) {
		t.Errorf("FindAllowedParent(text) = %v, want paragraph", got)
	}

	// image is a limit, search must not escape it
	w.Append(img, quote)
	if got := s.FindAllowedParent(model.PositionAt(img, 0), model.NewElement("paragraph", nil)); got != nil {
		t.Errorf("FindAllowedParent() escaped limit: %v", got)
	}

	frag := model.NewDocumentFragment()
	if got := s.FindAllowedParent(model.PositionAt(frag, 0), model.NewElement("paragraph", nil)); got != model.Container(frag) {
		t.Errorf("FindAllowedParent() in fragment = %v", got)
	}
}

func TestSchema_Validate(t *testing.T) {
	s := newTestSchema(t)
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	if err := s.Register("caption", Definition{AllowIn: []string{"figure"}, InheritAllFrom: "$blok"}); err != nil {
		t.Fatal(err)
	}
	err := s.Validate()
	if !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("Validate() = %v, want ErrNotRegistered", err)
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Errorf("Validate() reported %d errors, want 2: %v", n, err)
	}
}
