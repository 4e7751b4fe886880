package css

import (
	"slices"
	"testing"
)

func TestRelations_Longhands(t *testing.T) {
	r := NewRelations()

	got := r.Longhands("margin")
	want := []string{"margin-top", "margin-right", "margin-bottom", "margin-left"}
	if !slices.Equal(got, want) {
		t.Errorf("Longhands(margin) = %v, want %v", got, want)
	}

	border := r.Longhands("border")
	for _, name := range []string{"border-color", "border-top", "border-top-color", "border-left-width"} {
		if !slices.Contains(border, name) {
			t.Errorf("Longhands(border) misses %q: %v", name, border)
		}
	}
	if slices.Contains(border, "border") {
		t.Error("Longhands(border) must not contain itself")
	}

	if got := r.Longhands("color"); len(got) != 0 {
		t.Errorf("Longhands(color) = %v, want none", got)
	}
}

func TestRelations_Related(t *testing.T) {
	r := NewRelations()

	got := r.Related("margin-top")
	if !slices.Equal(got, []string{"margin"}) {
		t.Errorf("Related(margin-top) = %v, want [margin]", got)
	}

	got = r.Related("border-top-color")
	for _, name := range []string{"border-color", "border-top", "border"} {
		if !slices.Contains(got, name) {
			t.Errorf("Related(border-top-color) misses %q: %v", name, got)
		}
	}
	if !r.IsShorthand("border-top") || r.IsShorthand("border-top-color") {
		t.Error("IsShorthand mismatch for border-top / border-top-color")
	}
}

func TestRelations_ExpandBox(t *testing.T) {
	r := NewRelations()

	tests := []struct {
		value string
		want  []string // top, right, bottom, left
	}{
		{"1px", []string{"1px", "1px", "1px", "1px"}},
		{"1px 2px", []string{"1px", "2px", "1px", "2px"}},
		{"1px 2px 3px", []string{"1px", "2px", "3px", "2px"}},
		{"1px 2px 3px 4px", []string{"1px", "2px", "3px", "4px"}},
	}
	for _, tt := range tests {
		got := r.Expand("padding", tt.value)
		if len(got) != 4 {
			t.Fatalf("Expand(padding, %q) = %v", tt.value, got)
		}
		for i, d := range got {
			if d.Value != tt.want[i] {
				t.Errorf("Expand(padding, %q)[%s] = %q, want %q", tt.value, d.Name, d.Value, tt.want[i])
			}
		}
	}

	if got := r.Expand("padding", "1px 2px 3px 4px 5px"); got != nil {
		t.Errorf("invalid shorthand expanded to %v", got)
	}
}

func TestRelations_ExpandBorder(t *testing.T) {
	r := NewRelations()
	got := r.Expand("border", "1px solid rgb(0, 0, 0)")

	lookup := func(name string) string {
		for _, d := range got {
			if d.Name == name {
				return d.Value
			}
		}
		return ""
	}

	checks := map[string]string{
		"border-color":        "rgb(0, 0, 0)",
		"border-style":        "solid",
		"border-width":        "1px",
		"border-top":          "1px solid rgb(0, 0, 0)",
		"border-left-color":   "rgb(0, 0, 0)",
		"border-bottom-width": "1px",
	}
	for name, want := range checks {
		if v := lookup(name); v != want {
			t.Errorf("%s = %q, want %q", name, v, want)
		}
	}
}

func TestRelations_Register(t *testing.T) {
	r := NewRelations()
	r.Register("inset", []string{"top", "right", "bottom", "left"}, nil)

	if !slices.Equal(r.Related("top"), []string{"inset"}) {
		t.Errorf("Related(top) = %v", r.Related("top"))
	}
	if got := r.Expand("inset", "0"); got != nil {
		t.Errorf("Expand without expander = %v, want nil", got)
	}
}

func TestSplitValues(t *testing.T) {
	got := splitValues("  1px   rgba(1, 2, 3, .5) solid ")
	want := []string{"1px", "rgba(1, 2, 3, .5)", "solid"}
	if !slices.Equal(got, want) {
		t.Errorf("splitValues() = %q, want %q", got, want)
	}
}
