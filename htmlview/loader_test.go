package htmlview

import (
	"bytes"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"vmconv/common"
	"vmconv/css"
	"vmconv/utils/debug"
	"vmconv/view"
)

func TestLoadString(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	tests := []struct {
		name string
		in   string
		mode common.WhitespaceMode
		want string
	}{
		{
			name: "blocks and inline",
			in:   "<p>Foo  <b>bar</b>\n</p>\n<p style=\"margin:1px\">x</p><!-- c --><script>y</script><br>",
			want: `fragment
  container p
    text: "Foo "
    container b
      text: "bar"
  container p [style="margin:1px;"]
    text: "x"
  empty br
`,
		},
		{
			name: "space between inline elements",
			in:   "<p><b>a</b> <i>b</i></p>",
			want: `fragment
  container p
    container b
      text: "a"
    text: " "
    container i
      text: "b"
`,
		},
		{
			name: "pre keeps whitespace",
			in:   "<pre>a\n  b</pre>",
			want: `fragment
  container pre
    text: "a\n  b"
`,
		},
		{
			name: "preserve mode",
			in:   "<p> a  b </p>",
			mode: common.WhitespaceModePreserve,
			want: `fragment
  container p
    text: " a  b "
`,
		},
		{
			name: "full document",
			in:   "<!DOCTYPE html><html><head><title>t</title></head><body><div class=\"a b\" id=\"x\">y</div></body></html>",
			want: `fragment
  container div [class="a b" id="x"]
    text: "y"
`,
		},
		{
			name: "normalized text",
			in:   "<p>e\u0301</p>",
			want: `fragment
  container p
    text: "é"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(log, WithWhitespace(tt.mode))
			root, err := l.LoadString(tt.in)
			if err != nil {
				t.Fatalf("LoadString() error = %v", err)
			}
			if got := debug.DumpView(root); got != tt.want {
				t.Errorf("LoadString() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestLoadCharset(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	// "При" in windows-1251
	in := append([]byte("<p>"), 0xcf, 0xf0, 0xe8)
	in = append(in, []byte("</p>")...)

	root, err := New(log).Load(bytes.NewReader(in), "text/html; charset=windows-1251")
	if err != nil {
		t.Fatal(err)
	}
	p := root.Child(0).(*view.Element)
	if got := p.Child(0).(*view.Text).Data(); got != "При" {
		t.Errorf("text = %q, want %q", got, "При")
	}
}

func TestLoadRelations(t *testing.T) {
	rel := css.NewRelations()
	root, err := New(nil, WithRelations(rel)).LoadString(`<p style="margin:1px 2px">x</p>`)
	if err != nil {
		t.Fatal(err)
	}
	p := root.Child(0).(*view.Element)
	if p.StyleRelations() != rel {
		t.Error("style relations not set")
	}
	if got, ok := p.Style("margin-left"); !ok || got != "2px" {
		t.Errorf("margin-left = %q, %v", got, ok)
	}
}
