package upcast

import (
	"cmp"
	"fmt"
	"slices"

	"go.uber.org/multierr"

	"vmconv/common"
	"vmconv/emitter"
	"vmconv/matcher"
	"vmconv/model"
)

// Rule is a converter definition from configuration.
type Rule struct {
	Kind common.RuleKind      `yaml:"kind"`
	View matcher.PatternConfig `yaml:"view"`
	// Model is element name for element rules, attribute key for attribute
	// rules and name of the view attribute holding marker name for marker
	// rules (default "data-name").
	Model string `yaml:"model"`
	// Value of the model attribute, "true" when empty.
	Value string `yaml:"value,omitempty"`
	// Attributes set on created model element.
	Attributes map[string]string `yaml:"attributes,omitempty"`
	// Priority name (lowest, low, normal, high, highest) or number.
	Priority string `yaml:"priority,omitempty"`
}

// Register compiles rule and registers its converter.
func (r Rule) Register(d *Dispatcher) error {
	pattern, err := r.View.Compile()
	if err != nil {
		return fmt.Errorf("view pattern: %w", err)
	}
	m := matcher.New(pattern)

	prio := r.Priority
	if prio == "" && r.Kind == common.RuleKindAttribute {
		prio = "low"
	}
	priority, err := emitter.ParsePriority(prio)
	if err != nil {
		return err
	}

	var c Converter
	switch r.Kind {
	case common.RuleKindElement:
		if r.Model == "" {
			return fmt.Errorf("element rule requires model element name")
		}
		var attrs []model.Attribute
		for k, v := range r.Attributes {
			attrs = append(attrs, model.Attribute{Key: k, Value: v})
		}
		slices.SortFunc(attrs, func(a, b model.Attribute) int { return cmp.Compare(a.Key, b.Key) })
		c = ElementToElement(m, ModelElement(r.Model, attrs...))
	case common.RuleKindAttribute:
		if r.Model == "" {
			return fmt.Errorf("attribute rule requires model attribute key")
		}
		value := r.Value
		if value == "" {
			value = "true"
		}
		c = ElementToAttribute(m, r.Model, FixedValue(value))
	case common.RuleKindMarker:
		key := r.Model
		if key == "" {
			key = markerAttribute
		}
		c = ElementToMarker(m, MarkerNameFromAttribute(key))
	default:
		return fmt.Errorf("unknown rule kind %v", r.Kind)
	}

	d.OnElement(m, c, emitter.WithPriority(priority))
	return nil
}

// RegisterRules registers all rules reporting every failed one.
func RegisterRules(d *Dispatcher, rules []Rule) error {
	var errs error
	for i, r := range rules {
		if err := r.Register(d); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("rule %d (%s): %w", i, r.Kind, err))
		}
	}
	return errs
}
