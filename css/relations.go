package css

import (
	"slices"
	"strings"
)

// Expander splits shorthand value into values of its direct longhands.
type Expander func(value string) []Declaration

// Relations knows which style properties are shorthands of which. It is used
// to make consuming "margin" also consume "margin-top" and vice versa, and to
// answer queries for longhand values when only the shorthand was specified.
type Relations struct {
	longhands  map[string][]string
	shorthands map[string][]string
	expanders  map[string]Expander
}

// NewRelations returns resolver preloaded with box model and border shorthands.
func NewRelations() *Relations {
	r := &Relations{
		longhands:  make(map[string][]string),
		shorthands: make(map[string][]string),
		expanders:  make(map[string]Expander),
	}

	for _, prop := range []string{"margin", "padding"} {
		r.Register(prop, sides(prop, ""), boxExpander(prop, ""))
	}
	for _, kind := range []string{"color", "style", "width"} {
		r.Register("border-"+kind, sides("border", kind), boxExpander("border", kind))
	}
	for _, side := range boxSides {
		name := "border-" + side
		r.Register(name, []string{name + "-color", name + "-style", name + "-width"}, borderExpander(name))
	}
	r.Register("border",
		[]string{"border-color", "border-style", "border-width", "border-top", "border-right", "border-bottom", "border-left"},
		func(value string) []Declaration {
			parts := borderExpander("border")(value)
			out := make([]Declaration, 0, len(parts)+len(boxSides))
			out = append(out, parts...)
			for _, side := range boxSides {
				out = append(out, Declaration{Name: "border-" + side, Value: value})
			}
			return out
		})
	return r
}

// Register adds shorthand with its direct longhands. Expander may be nil in
// which case longhand values cannot be derived from the shorthand.
func (r *Relations) Register(shorthand string, longhands []string, expand Expander) {
	r.longhands[shorthand] = append(r.longhands[shorthand], longhands...)
	for _, l := range longhands {
		if !slices.Contains(r.shorthands[l], shorthand) {
			r.shorthands[l] = append(r.shorthands[l], shorthand)
		}
	}
	if expand != nil {
		r.expanders[shorthand] = expand
	}
}

// IsShorthand reports whether name has registered longhands.
func (r *Relations) IsShorthand(name string) bool {
	return len(r.longhands[name]) > 0
}

// Longhands returns all properties name expands to, transitively, in
// declaration order.
func (r *Relations) Longhands(name string) []string {
	var out []string
	r.walk(name, r.longhands, &out)
	return out
}

// Shorthands returns all shorthands covering name, transitively.
func (r *Relations) Shorthands(name string) []string {
	var out []string
	r.walk(name, r.shorthands, &out)
	return out
}

// Related returns every property which has to change availability together
// with name: all of its longhands and all shorthands covering it.
func (r *Relations) Related(name string) []string {
	out := r.Longhands(name)
	for _, s := range r.Shorthands(name) {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// Expand returns values of all longhands derivable from shorthand value,
// transitively. The first derivation of a property wins.
func (r *Relations) Expand(name, value string) []Declaration {
	var out []Declaration
	r.expand(name, value, &out)
	return out
}

func (r *Relations) expand(name, value string, out *[]Declaration) {
	expander, ok := r.expanders[name]
	if !ok {
		return
	}
	for _, d := range expander(value) {
		if !slices.ContainsFunc(*out, func(x Declaration) bool { return x.Name == d.Name }) {
			*out = append(*out, d)
		}
		r.expand(d.Name, d.Value, out)
	}
}

func (r *Relations) walk(name string, edges map[string][]string, out *[]string) {
	for _, next := range edges[name] {
		if next == name || slices.Contains(*out, next) {
			continue
		}
		*out = append(*out, next)
		r.walk(next, edges, out)
	}
}

var boxSides = []string{"top", "right", "bottom", "left"}

// sides produces "margin-top" ... or "border-top-color" ... names.
func sides(prefix, suffix string) []string {
	out := make([]string, 0, len(boxSides))
	for _, side := range boxSides {
		name := prefix + "-" + side
		if suffix != "" {
			name += "-" + suffix
		}
		out = append(out, name)
	}
	return out
}

// boxExpander expands a CSS box model shorthand to individual sides:
//   - 1 value: all sides
//   - 2 values: top/bottom, left/right
//   - 3 values: top, left/right, bottom
//   - 4 values: top, right, bottom, left
func boxExpander(prefix, suffix string) Expander {
	names := sides(prefix, suffix)
	return func(value string) []Declaration {
		parts := splitValues(value)

		var top, right, bottom, left string
		switch len(parts) {
		case 1:
			top, right, bottom, left = parts[0], parts[0], parts[0], parts[0]
		case 2:
			top, bottom = parts[0], parts[0]
			right, left = parts[1], parts[1]
		case 3:
			top = parts[0]
			right, left = parts[1], parts[1]
			bottom = parts[2]
		case 4:
			top, right, bottom, left = parts[0], parts[1], parts[2], parts[3]
		default:
			return nil
		}
		return []Declaration{
			{Name: names[0], Value: top},
			{Name: names[1], Value: right},
			{Name: names[2], Value: bottom},
			{Name: names[3], Value: left},
		}
	}
}

var borderStyles = []string{"none", "hidden", "dotted", "dashed", "solid", "double", "groove", "ridge", "inset", "outset"}

// borderExpander splits "1px solid red" into width, style and color. Missing
// parts are not reported.
func borderExpander(prefix string) Expander {
	return func(value string) []Declaration {
		var width, style, color string
		for _, part := range splitValues(value) {
			lower := strings.ToLower(part)
			switch {
			case slices.Contains(borderStyles, lower):
				style = part
			case lower == "thin" || lower == "medium" || lower == "thick" || isLength(lower):
				width = part
			default:
				color = part
			}
		}
		var out []Declaration
		if color != "" {
			out = append(out, Declaration{Name: prefix + "-color", Value: color})
		}
		if style != "" {
			out = append(out, Declaration{Name: prefix + "-style", Value: style})
		}
		if width != "" {
			out = append(out, Declaration{Name: prefix + "-width", Value: width})
		}
		return out
	}
}

func isLength(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return (c >= '0' && c <= '9') || c == '.' || ((c == '-' || c == '+') && len(s) > 1)
}

// splitValues splits value on whitespace not enclosed in parentheses so
// "rgb(0, 0, 0) solid" gives two parts.
func splitValues(value string) []string {
	var (
		parts []string
		depth int
		start = -1
	)
	for i, r := range value {
		switch {
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case (r == ' ' || r == '\t' || r == '\n') && depth == 0:
			if start >= 0 {
				parts = append(parts, value[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		parts = append(parts, value[start:])
	}
	return parts
}
