// Package matcher tests view elements against patterns and reports which
// parts of the element (name, attributes, classes, styles) were matched.
//
// Matched parts are what a converter should consume once it converts the
// element.
package matcher

import (
	"slices"

	"vmconv/view"
)

// Match lists matched parts of an element.
type Match struct {
	Name       bool
	Attributes []string
	Classes    []string
	Styles     []string
}

// IsEmpty reports whether nothing was matched.
func (m Match) IsEmpty() bool {
	return !m.Name && len(m.Attributes) == 0 && len(m.Classes) == 0 && len(m.Styles) == 0
}

// Func is a pattern implemented as a function. It returns nil when element
// does not match.
type Func func(el *view.Element) *Match

// Pattern describes elements to match. All set parts have to match, unset
// parts are ignored. When Func is set everything else is ignored.
type Pattern struct {
	Name       Value
	Attributes []Entry
	Classes    []Entry
	Styles     []Entry
	Func       Func
}

// Name returns pattern matching element name exactly.
func Name(name string) Pattern {
	return Pattern{Name: Exact(name)}
}

// NameRegexp returns pattern matching element name against expr.
func NameRegexp(expr string) Pattern {
	return Pattern{Name: MustRegexp(expr)}
}

// Result is a successful match. Pattern is a copy of the matching pattern.
type Result struct {
	Element *view.Element
	Pattern Pattern
	Match   Match
}

// Matcher keeps ordered list of patterns.
type Matcher struct {
	patterns []Pattern
}

// New creates matcher with patterns.
func New(patterns ...Pattern) *Matcher {
	m := &Matcher{}
	m.Add(patterns...)
	return m
}

// Add appends patterns.
func (m *Matcher) Add(patterns ...Pattern) {
	m.patterns = append(m.patterns, patterns...)
}

// Match returns result for the first element matching any pattern. For a
// single element the first pattern (in registration order) wins.
func (m *Matcher) Match(elements ...*view.Element) *Result {
	for _, el := range elements {
		for i := range m.patterns {
			if match, ok := isElementMatching(el, &m.patterns[i]); ok {
				return &Result{Element: el, Pattern: m.patterns[i], Match: match}
			}
		}
	}
	return nil
}

// MatchAll returns results for every element and every pattern it matches.
func (m *Matcher) MatchAll(elements ...*view.Element) []Result {
	var results []Result
	for _, el := range elements {
		for i := range m.patterns {
			if match, ok := isElementMatching(el, &m.patterns[i]); ok {
				results = append(results, Result{Element: el, Pattern: m.patterns[i], Match: match})
			}
		}
	}
	return results
}

// ElementName returns element name when matcher consists of exactly one
// pattern with literal name and no function.
func (m *Matcher) ElementName() (string, bool) {
	if len(m.patterns) != 1 {
		return "", false
	}
	p := m.patterns[0]
	if p.Func != nil {
		return "", false
	}
	return p.Name.IsExact()
}

func isElementMatching(el *view.Element, p *Pattern) (Match, bool) {
	if el == nil {
		return Match{}, false
	}
	if p.Func != nil {
		res := p.Func(el)
		if res == nil {
			return Match{}, false
		}
		return *res, true
	}

	var match Match
	if p.Name.IsSet() {
		if !p.Name.Matches(el.Name()) {
			return Match{}, false
		}
		match.Name = true
	}

	if len(p.Attributes) > 0 {
		keys := slices.DeleteFunc(el.AttributeKeys(), func(k string) bool { return k == "class" || k == "style" })
		matched, ok := matchEntries(p.Attributes, keys, func(k string) string {
			v, _ := el.Attribute(k)
			return v
		})
		if !ok {
			return Match{}, false
		}
		match.Attributes = matched
	}

	if len(p.Classes) > 0 {
		// class names have no value, only keys are matched
		matched, ok := matchEntries(p.Classes, el.ClassNames(), nil)
		if !ok {
			return Match{}, false
		}
		match.Classes = matched
	}

	if len(p.Styles) > 0 {
		matched, ok := matchEntries(p.Styles, el.StyleNames(true), func(k string) string {
			v, _ := el.Style(k)
			return v
		})
		if !ok {
			return Match{}, false
		}
		match.Styles = matched
	}

	return match, true
}

// matchEntries matches every entry against every facet instance. Match
// succeeds when number of matched instances (counted per entry) is not less
// than number of entries.
func matchEntries(entries []Entry, keys []string, valueOf func(string) string) ([]string, bool) {
	var matched []string
	count := 0
	for _, e := range entries {
		for _, k := range keys {
			if !e.Key.Matches(k) {
				continue
			}
			if valueOf != nil && !e.Value.Matches(valueOf(k)) {
				continue
			}
			count++
			if !slices.Contains(matched, k) {
				matched = append(matched, k)
			}
		}
	}
	if count == 0 || count < len(entries) {
		return nil, false
	}
	return matched, true
}
