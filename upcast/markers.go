package upcast

import (
	"vmconv/model"
)

const (
	markerElement   = "$marker"
	markerAttribute = "data-name"
)

// extractMarkers removes marker elements from the fragment turning them
// into named ranges. The first element of a name opens collapsed range at
// its place, every following one moves range end. Positions are taken after
// earlier markers were removed so they stay valid.
func extractMarkers(frag *model.DocumentFragment, w Writer) map[string]model.Range {
	var found []*model.Element
	for _, item := range model.RangeIn(frag).Items() {
		if el, ok := item.(*model.Element); ok && el.Is(markerElement) {
			found = append(found, el)
		}
	}

	markers := make(map[string]model.Range)
	for _, el := range found {
		name, _ := el.Attribute(markerAttribute)
		pos := model.PositionBefore(el)
		if r, ok := markers[name]; ok {
			r.End = pos
			markers[name] = r
		} else {
			markers[name] = model.NewRange(pos)
		}
		w.Remove(el)
	}
	return markers
}
