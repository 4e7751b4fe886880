// Package schema decides which model nodes may be placed where.
//
// Items are registered by name with a Definition. Definitions may refer to
// other items (allowWhere, allowContentOf, inheritAllFrom and friends),
// those references are resolved lazily into compiled rules the first time
// schema is queried after a change.
package schema

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"vmconv/model"
)

var (
	ErrAlreadyRegistered = errors.New("schema item already registered")
	ErrNotRegistered     = errors.New("schema item not registered")
)

// Definition describes schema item. It is also used to decode item
// definitions from configuration.
type Definition struct {
	AllowIn           []string `yaml:"allow_in,omitempty"`
	AllowChildren     []string `yaml:"allow_children,omitempty"`
	AllowWhere        []string `yaml:"allow_where,omitempty"`
	AllowContentOf    []string `yaml:"allow_content_of,omitempty"`
	AllowAttributes   []string `yaml:"allow_attributes,omitempty"`
	AllowAttributesOf []string `yaml:"allow_attributes_of,omitempty"`
	InheritTypesFrom  []string `yaml:"inherit_types_from,omitempty"`
	InheritAllFrom    string   `yaml:"inherit_all_from,omitempty"`

	IsBlock   bool `yaml:"is_block,omitempty"`
	IsInline  bool `yaml:"is_inline,omitempty"`
	IsLimit   bool `yaml:"is_limit,omitempty"`
	IsObject  bool `yaml:"is_object,omitempty"`
	IsContent bool `yaml:"is_content,omitempty"`
}

// Item is a compiled schema item.
type Item struct {
	Name            string
	AllowIn         []string
	AllowChildren   []string
	AllowAttributes []string

	IsBlock   bool
	IsInline  bool
	IsLimit   bool
	IsObject  bool
	IsContent bool
}

// ChildCheck may override CheckChild decision. It returns decided=false to
// let other checks and compiled rules decide.
type ChildCheck func(ctx Context, child *Item) (allowed, decided bool)

// Schema is a registry of items.
type Schema struct {
	log         *zap.Logger
	order       []string
	sources     map[string][]Definition
	compiled    map[string]*Item
	childChecks []ChildCheck
}

// New returns schema with generic items registered.
func New(log *zap.Logger) *Schema {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Schema{
		log:     log.Named("schema"),
		sources: make(map[string][]Definition),
	}
	s.registerGeneric()
	return s
}

func (s *Schema) registerGeneric() {
	generic := []struct {
		name string
		def  Definition
	}{
		{"$root", Definition{IsLimit: true}},
		{"$container", Definition{AllowIn: []string{"$root", "$container"}}},
		{"$block", Definition{AllowIn: []string{"$root", "$container"}, IsBlock: true}},
		{"$blockObject", Definition{AllowWhere: []string{"$block"}, IsBlock: true, IsObject: true}},
		{"$inlineObject", Definition{AllowWhere: []string{"$text"}, AllowAttributesOf: []string{"$text"}, IsInline: true, IsObject: true}},
		{"$text", Definition{AllowIn: []string{"$block"}, IsInline: true, IsContent: true}},
		{"$marker", Definition{}},
		{"$documentFragment", Definition{AllowContentOf: []string{"$root"}, IsLimit: true}},
	}
	for _, g := range generic {
		if err := s.Register(g.name, g.def); err != nil {
			panic(err)
		}
	}
	s.AddChildCheck(func(_ Context, child *Item) (bool, bool) {
		if child.Name == "$marker" {
			return true, true
		}
		return false, false
	})
}

// Register adds new item.
func (s *Schema) Register(name string, def Definition) error {
	if _, ok := s.sources[name]; ok {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, name)
	}
	s.order = append(s.order, name)
	s.sources[name] = []Definition{def}
	s.compiled = nil
	return nil
}

// Extend adds rules to already registered item.
func (s *Schema) Extend(name string, def Definition) error {
	if _, ok := s.sources[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	s.sources[name] = append(s.sources[name], def)
	s.compiled = nil
	return nil
}

// Validate reports every definition referring to an item which is not
// registered.
func (s *Schema) Validate() error {
	var errs error
	for _, name := range s.order {
		for _, d := range s.sources[name] {
			refs := slices.Concat(d.AllowIn, d.AllowChildren, d.AllowWhere, d.AllowContentOf,
				d.AllowAttributesOf, d.InheritTypesFrom)
			if d.InheritAllFrom != "" {
				refs = append(refs, d.InheritAllFrom)
			}
			for _, ref := range refs {
				if _, ok := s.sources[ref]; !ok {
					errs = multierr.Append(errs, fmt.Errorf("item %q refers to %w: %q", name, ErrNotRegistered, ref))
				}
			}
		}
	}
	return errs
}

// AddChildCheck registers custom child check. Checks are consulted in
// reverse registration order before compiled rules.
func (s *Schema) AddChildCheck(check ChildCheck) {
	s.childChecks = append(s.childChecks, check)
}

// IsRegistered reports whether item exists.
func (s *Schema) IsRegistered(name string) bool {
	_, ok := s.sources[name]
	return ok
}

// Item returns compiled item.
func (s *Schema) Item(name string) (*Item, bool) {
	s.compile()
	it, ok := s.compiled[name]
	return it, ok
}

// IsLimit reports whether item stops upward searches for allowed parent.
// Objects are limits too.
func (s *Schema) IsLimit(name string) bool {
	it, ok := s.Item(name)
	return ok && (it.IsLimit || it.IsObject)
}

// IsBlock reports whether item is a block.
func (s *Schema) IsBlock(name string) bool {
	it, ok := s.Item(name)
	return ok && it.IsBlock
}

// IsObject reports whether item is an object.
func (s *Schema) IsObject(name string) bool {
	it, ok := s.Item(name)
	return ok && it.IsObject
}

// CheckChild reports whether item named child may be placed at the end of
// context. Whole context chain must be allowed, not only its last item.
func (s *Schema) CheckChild(ctx Context, child string) bool {
	s.compile()
	def, ok := s.compiled[child]
	if !ok || len(ctx) == 0 {
		return false
	}
	for i := len(s.childChecks) - 1; i >= 0; i-- {
		if allowed, decided := s.childChecks[i](ctx, def); decided {
			return allowed
		}
	}
	return s.checkContextMatch(def, ctx, len(ctx)-1)
}

func (s *Schema) checkContextMatch(def *Item, ctx Context, index int) bool {
	name := ctx[index]
	if !slices.Contains(def.AllowIn, name) {
		return false
	}
	if index == 0 {
		return true
	}
	parent, ok := s.compiled[name]
	if !ok {
		return false
	}
	return s.checkContextMatch(parent, ctx, index-1)
}

// CheckAttribute reports whether node may have attribute key.
func (s *Schema) CheckAttribute(node model.Node, key string) bool {
	it, ok := s.Item(model.Name(node))
	return ok && slices.Contains(it.AllowAttributes, key)
}

// FindAllowedParent looks for the closest ancestor of position (starting
// with position parent) node is allowed in. Search stops at the first limit
// element which is still checked itself.
func (s *Schema) FindAllowedParent(pos model.Position, node model.Node) model.Container {
	name := model.Name(node)
	for parent := pos.Parent; parent != nil; parent = parent.Parent() {
		if s.CheckChild(ContextOf(parent), name) {
			return parent
		}
		if s.IsLimit(model.Name(parent)) {
			return nil
		}
	}
	return nil
}

// Context is a list of item names from the root down to the place child is
// being checked for.
type Context []string

// ContextOf returns context for checking children of container.
func ContextOf(c model.Container) Context {
	var ctx Context
	for _, n := range model.Ancestors(c, true) {
		ctx = append(ctx, model.Name(n))
	}
	return ctx
}

// ContextAt returns context of position.
func ContextAt(pos model.Position) Context {
	return ContextOf(pos.Parent)
}

// Push returns new context with name appended.
func (c Context) Push(name string) Context {
	return append(slices.Clip(c), name)
}

// Last returns the innermost item name.
func (c Context) Last() string {
	if len(c) == 0 {
		return ""
	}
	return c[len(c)-1]
}
