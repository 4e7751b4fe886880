package matcher

import (
	"fmt"
	"slices"
	"testing"

	"vmconv/view"
)

func TestMatcher_Match(t *testing.T) {
	el := view.NewElement("p", []view.Attribute{
		{Key: "title", Value: "foo"},
		{Key: "data-a", Value: "1"},
		{Key: "data-b", Value: "2"},
		{Key: "class", Value: "x y"},
		{Key: "style", Value: "color: red; margin: 0"},
	})

	tests := []struct {
		name    string
		pattern Pattern
		want    *Match
	}{
		{
			name:    "name",
			pattern: Name("p"),
			want:    &Match{Name: true},
		},
		{
			name:    "name mismatch",
			pattern: Name("div"),
		},
		{
			name:    "name regexp",
			pattern: NameRegexp("^(p|div)$"),
			want:    &Match{Name: true},
		},
		{
			name:    "attribute",
			pattern: Pattern{Attributes: []Entry{Attr("title", "foo")}},
			want:    &Match{Attributes: []string{"title"}},
		},
		{
			name:    "attribute value mismatch",
			pattern: Pattern{Attributes: []Entry{Attr("title", "bar")}},
		},
		{
			name:    "regexp key reports every match",
			pattern: Pattern{Attributes: []Entry{{Key: MustRegexp("^data-"), Value: Any()}}},
			want:    &Match{Attributes: []string{"data-a", "data-b"}},
		},
		{
			name:    "all entries required",
			pattern: Pattern{Attributes: []Entry{HasAttr("title"), HasAttr("missing")}},
		},
		{
			name:    "class and style are not plain attributes",
			pattern: Pattern{Attributes: []Entry{HasAttr("class")}},
		},
		{
			name:    "any attribute",
			pattern: Pattern{Attributes: AnyFacet()},
			want:    &Match{Attributes: []string{"title", "data-a", "data-b"}},
		},
		{
			name:    "classes",
			pattern: Pattern{Name: Exact("p"), Classes: []Entry{Class("y")}},
			want:    &Match{Name: true, Classes: []string{"y"}},
		},
		{
			name:    "longhand style from shorthand",
			pattern: Pattern{Styles: []Entry{Style("margin-top", "0")}},
			want:    &Match{Styles: []string{"margin-top"}},
		},
		{
			name:    "styles",
			pattern: Pattern{Styles: []Entry{HasStyle("color"), Style("margin", "0")}},
			want:    &Match{Styles: []string{"color", "margin"}},
		},
		{
			name: "function",
			pattern: Pattern{Func: func(el *view.Element) *Match {
				if el.HasClass("x") {
					return &Match{Classes: []string{"x"}}
				}
				return nil
			}},
			want: &Match{Classes: []string{"x"}},
		},
		{
			name:    "function rejecting",
			pattern: Pattern{Func: func(*view.Element) *Match { return nil }},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New(tt.pattern).Match(el)
			if tt.want == nil {
				if res != nil {
					t.Fatalf("Match() = %+v, want nil", res.Match)
				}
				return
			}
			if res == nil {
				t.Fatal("Match() = nil")
			}
			if res.Element != el {
				t.Errorf("Element = %v", res.Element)
			}
			if !equalMatch(res.Match, *tt.want) {
				t.Errorf("Match() = %+v, want %+v", res.Match, *tt.want)
			}
		})
	}
}

func TestMatcher_FirstPatternWins(t *testing.T) {
	el := view.NewElement("p", []view.Attribute{{Key: "class", Value: "a"}})
	m := New(Name("div"), Pattern{Classes: []Entry{Class("a")}}, Name("p"))

	res := m.Match(el)
	if res == nil || res.Pattern.Name.IsSet() || len(res.Pattern.Classes) != 1 {
		t.Fatalf("Match() = %+v", res)
	}

	all := m.MatchAll(el, view.NewElement("div", nil))
	if len(all) != 3 {
		t.Fatalf("MatchAll() = %d results, want 3", len(all))
	}
	if all[2].Element.Name() != "div" {
		t.Errorf("MatchAll() order = %v", all)
	}
}

func TestMatcher_ResultKeepsPatternAfterAdd(t *testing.T) {
	el := view.NewElement("p", nil)
	m := New(Name("p"))

	res := m.Match(el)
	if res == nil {
		t.Fatal("Match() = nil")
	}
	for i := range 16 {
		m.Add(Name(fmt.Sprintf("h%d", i)))
	}
	if name, ok := res.Pattern.Name.IsExact(); !ok || name != "p" {
		t.Errorf("Result.Pattern.Name = %v after Add", res.Pattern.Name)
	}
}

func TestMatcher_ElementName(t *testing.T) {
	tests := []struct {
		name string
		m    *Matcher
		want string
		ok   bool
	}{
		{"literal", New(Name("p")), "p", true},
		{"regexp", New(NameRegexp("p")), "", false},
		{"two patterns", New(Name("p"), Name("div")), "", false},
		{"function", New(Pattern{Name: Exact("p"), Func: func(*view.Element) *Match { return nil }}), "", false},
		{"empty", New(), "", false},
	}
	for _, tt := range tests {
		got, ok := tt.m.ElementName()
		if got != tt.want || ok != tt.ok {
			t.Errorf("%s: ElementName() = %q, %v", tt.name, got, ok)
		}
	}
}

func TestPatternConfig_Compile(t *testing.T) {
	pc := PatternConfig{
		Name:       "/^h[1-6]$/",
		Attributes: map[string]string{"data-level": "*"},
		Classes:    []string{"title"},
		Styles:     map[string]string{"color": "red"},
	}
	p, err := pc.Compile()
	if err != nil {
		t.Fatalf("Compile() = %v", err)
	}

	el := view.NewElement("h2", []view.Attribute{
		{Key: "data-level", Value: "2"},
		{Key: "class", Value: "title"},
		{Key: "style", Value: "color:red"},
	})
	if New(p).Match(el) == nil {
		t.Error("compiled pattern does not match")
	}
	if New(p).Match(view.NewElement("h7", nil)) != nil {
		t.Error("compiled pattern matches wrong name")
	}

	if _, err := (PatternConfig{Name: "/[/"}).Compile(); err == nil {
		t.Error("Compile() accepted bad regexp")
	}
}

func equalMatch(a, b Match) bool {
	return a.Name == b.Name &&
		slices.Equal(a.Attributes, b.Attributes) &&
		slices.Equal(a.Classes, b.Classes) &&
		slices.Equal(a.Styles, b.Styles)
}
