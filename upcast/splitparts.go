package upcast

import (
	"vmconv/model"
)

// splitParts keeps groups of model elements which are parts of one logical
// element split by schema driven insertion. Elements are stored in arena and
// grouped with union-find, members of a group keep creation order.
type splitParts struct {
	index   map[*model.Element]int
	parts   []*model.Element
	parent  []int
	members map[int][]int
	removed map[int]bool
}

func newSplitParts() *splitParts {
	s := &splitParts{}
	s.clear()
	return s
}

func (s *splitParts) clear() {
	s.index = make(map[*model.Element]int)
	s.parts = nil
	s.parent = nil
	s.members = make(map[int][]int)
	s.removed = make(map[int]bool)
}

func (s *splitParts) id(el *model.Element) int {
	if i, ok := s.index[el]; ok {
		return i
	}
	i := len(s.parts)
	s.parts = append(s.parts, el)
	s.parent = append(s.parent, i)
	s.members[i] = []int{i}
	s.index[el] = i
	return i
}

func (s *splitParts) find(i int) int {
	for s.parent[i] != i {
		s.parent[i] = s.parent[s.parent[i]]
		i = s.parent[i]
	}
	return i
}

// registerPair records that split was created by splitting original.
func (s *splitParts) registerPair(original, split *model.Element) {
	a, b := s.find(s.id(original)), s.find(s.id(split))
	if a == b {
		return
	}
	s.parent[b] = a
	s.members[a] = append(s.members[a], s.members[b]...)
	delete(s.members, b)
}

// get returns all parts of the group element belongs to, element itself
// when it was never split.
func (s *splitParts) get(el *model.Element) []*model.Element {
	i, ok := s.index[el]
	if !ok {
		return []*model.Element{el}
	}
	ids := s.members[s.find(i)]
	out := make([]*model.Element, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.parts[id])
	}
	return out
}

// live returns registered elements which were not removed, in registration
// order.
func (s *splitParts) live() []*model.Element {
	out := make([]*model.Element, 0, len(s.parts))
	for i, el := range s.parts {
		if !s.removed[i] {
			out = append(out, el)
		}
	}
	return out
}

func (s *splitParts) remove(el *model.Element) {
	if i, ok := s.index[el]; ok {
		s.removed[i] = true
	}
}
