package matcher

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// PatternConfig is pattern in the form suitable for configuration files.
// Strings enclosed in slashes are regular expressions, "*" and empty
// values match anything.
type PatternConfig struct {
	Name       string            `yaml:"name,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
	Classes    []string          `yaml:"classes,omitempty"`
	Styles     map[string]string `yaml:"styles,omitempty"`
}

// Compile converts configuration into Pattern.
func (pc PatternConfig) Compile() (Pattern, error) {
	var (
		p   Pattern
		err error
	)
	if pc.Name != "" {
		if p.Name, err = parseValue(pc.Name); err != nil {
			return Pattern{}, fmt.Errorf("name: %w", err)
		}
	}
	if p.Attributes, err = parseEntries(pc.Attributes); err != nil {
		return Pattern{}, fmt.Errorf("attributes: %w", err)
	}
	for _, c := range pc.Classes {
		key, err := parseValue(c)
		if err != nil {
			return Pattern{}, fmt.Errorf("classes: %w", err)
		}
		p.Classes = append(p.Classes, Entry{Key: key, Value: Any()})
	}
	if p.Styles, err = parseEntries(pc.Styles); err != nil {
		return Pattern{}, fmt.Errorf("styles: %w", err)
	}
	return p, nil
}

func parseEntries(in map[string]string) ([]Entry, error) {
	var out []Entry
	for _, k := range slices.Sorted(maps.Keys(in)) {
		key, err := parseValue(k)
		if err != nil {
			return nil, err
		}
		value, err := parseValue(in[k])
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Key: key, Value: value})
	}
	return out, nil
}

func parseValue(s string) (Value, error) {
	switch {
	case s == "" || s == "*":
		return Any(), nil
	case len(s) >= 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/"):
		re, err := regexp.Compile(s[1 : len(s)-1])
		if err != nil {
			return Value{}, fmt.Errorf("bad regular expression %q: %w", s, err)
		}
		return Regexp(re), nil
	default:
		return Exact(s), nil
	}
}
