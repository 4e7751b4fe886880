package schema

import (
	"slices"

	"go.uber.org/zap"
)

type rule struct {
	item              *Item
	allowContentOf    []string
	allowWhere        []string
	allowAttributesOf []string
	inheritTypesFrom  []string
}

// compile resolves item references. Rules referring to other items are
// applied repeatedly until nothing changes so the order in which items were
// registered does not matter.
func (s *Schema) compile() {
	if s.compiled != nil {
		return
	}

	rules := make(map[string]*rule, len(s.order))
	for _, name := range s.order {
		rules[name] = baseRule(name, s.sources[name])
	}

	for _, name := range s.order {
		r := rules[name]
		for _, child := range r.item.AllowChildren {
			if cr, ok := rules[child]; ok {
				cr.item.AllowIn = appendUnique(cr.item.AllowIn, name)
			} else {
				s.log.Debug("Unknown child item", zap.String("item", name), zap.String("child", child))
			}
		}
	}

	for changed := true; changed; {
		changed = false
		for _, name := range s.order {
			r := rules[name]
			for _, of := range r.allowContentOf {
				for _, other := range s.order {
					or := rules[other]
					if slices.Contains(or.item.AllowIn, of) && !slices.Contains(or.item.AllowIn, name) {
						or.item.AllowIn = append(or.item.AllowIn, name)
						changed = true
					}
				}
			}
			for _, where := range r.allowWhere {
				if wr, ok := rules[where]; ok {
					for _, in := range wr.item.AllowIn {
						if !slices.Contains(r.item.AllowIn, in) {
							r.item.AllowIn = append(r.item.AllowIn, in)
							changed = true
						}
					}
				}
			}
			for _, of := range r.allowAttributesOf {
				if ar, ok := rules[of]; ok {
					for _, attr := range ar.item.AllowAttributes {
						if !slices.Contains(r.item.AllowAttributes, attr) {
							r.item.AllowAttributes = append(r.item.AllowAttributes, attr)
							changed = true
						}
					}
				}
			}
		}
	}

	for _, name := range s.order {
		r := rules[name]
		for _, from := range r.inheritTypesFrom {
			if fr, ok := rules[from]; ok {
				r.item.IsBlock = r.item.IsBlock || fr.item.IsBlock
				r.item.IsInline = r.item.IsInline || fr.item.IsInline
				r.item.IsLimit = r.item.IsLimit || fr.item.IsLimit
				r.item.IsObject = r.item.IsObject || fr.item.IsObject
				r.item.IsContent = r.item.IsContent || fr.item.IsContent
			}
		}
	}

	compiled := make(map[string]*Item, len(rules))
	for _, name := range s.order {
		it := rules[name].item
		it.AllowIn = slices.DeleteFunc(it.AllowIn, func(in string) bool {
			_, ok := rules[in]
			return !ok
		})
		it.AllowChildren = nil
		compiled[name] = it
	}
	for _, name := range s.order {
		for _, in := range compiled[name].AllowIn {
			compiled[in].AllowChildren = append(compiled[in].AllowChildren, name)
		}
	}
	s.compiled = compiled
}

func baseRule(name string, defs []Definition) *rule {
	r := &rule{item: &Item{Name: name}}
	for _, d := range defs {
		r.item.AllowIn = appendUnique(r.item.AllowIn, d.AllowIn...)
		r.item.AllowChildren = appendUnique(r.item.AllowChildren, d.AllowChildren...)
		r.item.AllowAttributes = appendUnique(r.item.AllowAttributes, d.AllowAttributes...)
		r.allowContentOf = appendUnique(r.allowContentOf, d.AllowContentOf...)
		r.allowWhere = appendUnique(r.allowWhere, d.AllowWhere...)
		r.allowAttributesOf = appendUnique(r.allowAttributesOf, d.AllowAttributesOf...)
		r.inheritTypesFrom = appendUnique(r.inheritTypesFrom, d.InheritTypesFrom...)
		if d.InheritAllFrom != "" {
			r.allowContentOf = appendUnique(r.allowContentOf, d.InheritAllFrom)
			r.allowWhere = appendUnique(r.allowWhere, d.InheritAllFrom)
			r.allowAttributesOf = appendUnique(r.allowAttributesOf, d.InheritAllFrom)
			r.inheritTypesFrom = appendUnique(r.inheritTypesFrom, d.InheritAllFrom)
		}
		r.item.IsBlock = r.item.IsBlock || d.IsBlock
		r.item.IsInline = r.item.IsInline || d.IsInline
		r.item.IsLimit = r.item.IsLimit || d.IsLimit
		r.item.IsObject = r.item.IsObject || d.IsObject
		r.item.IsContent = r.item.IsContent || d.IsContent
	}
	return r
}

func appendUnique(list []string, items ...string) []string {
	for _, it := range items {
		if !slices.Contains(list, it) {
			list = append(list, it)
		}
	}
	return list
}
