package matcher

import (
	"regexp"
)

type valueKind int

const (
	kindUnset valueKind = iota
	kindAny
	kindExact
	kindRegexp
)

// Value matches a single string: element name, facet key or facet value.
// Zero Value is unset and matches anything.
type Value struct {
	kind valueKind
	text string
	re   *regexp.Regexp
}

// Any matches every string.
func Any() Value {
	return Value{kind: kindAny}
}

// Exact matches exactly s.
func Exact(s string) Value {
	return Value{kind: kindExact, text: s}
}

// Regexp matches strings re matches.
func Regexp(re *regexp.Regexp) Value {
	return Value{kind: kindRegexp, re: re}
}

// MustRegexp compiles expr and panics on error.
func MustRegexp(expr string) Value {
	return Regexp(regexp.MustCompile(expr))
}

// IsSet reports whether value was explicitly set.
func (v Value) IsSet() bool {
	return v.kind != kindUnset
}

// IsExact reports whether value matches single literal, returning it.
func (v Value) IsExact() (string, bool) {
	return v.text, v.kind == kindExact
}

// Matches reports whether s satisfies value.
func (v Value) Matches(s string) bool {
	switch v.kind {
	case kindExact:
		return v.text == s
	case kindRegexp:
		return v.re.MatchString(s)
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case kindAny:
		return "*"
	case kindExact:
		return v.text
	case kindRegexp:
		return "/" + v.re.String() + "/"
	default:
		return ""
	}
}

// Entry is a single facet pattern: key and value to match.
type Entry struct {
	Key   Value
	Value Value
}

// AnyFacet matches any facet instance, element has to have at least one.
func AnyFacet() []Entry {
	return []Entry{{Key: Any(), Value: Any()}}
}

// Attr matches attribute with exact key and value.
func Attr(key, value string) Entry {
	return Entry{Key: Exact(key), Value: Exact(value)}
}

// HasAttr matches attribute with exact key and any value.
func HasAttr(key string) Entry {
	return Entry{Key: Exact(key), Value: Any()}
}

// Class matches class name.
func Class(name string) Entry {
	return Entry{Key: Exact(name), Value: Any()}
}

// Style matches style property with exact value.
func Style(name, value string) Entry {
	return Entry{Key: Exact(name), Value: Exact(value)}
}

// HasStyle matches style property with any value.
func HasStyle(name string) Entry {
	return Entry{Key: Exact(name), Value: Any()}
}
