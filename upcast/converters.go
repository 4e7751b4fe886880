package upcast

import (
	"strings"

	"vmconv/consumable"
	"vmconv/emitter"
	"vmconv/matcher"
	"vmconv/model"
	"vmconv/schema"
	"vmconv/view"
)

// ConvertToModelFragment converts children of the item in place when no
// other converter handled the item.
func ConvertToModelFragment() Converter {
	return func(_ *emitter.Event, data *Data, api *API) {
		if data.ModelRange != nil {
			return
		}
		if !api.Consumable().Consume(data.ViewItem, consumable.Facets{Name: true}) {
			return
		}
		r, cursor := api.ConvertChildren(data.ViewItem, data.ModelCursor)
		data.ModelRange = &r
		data.ModelCursor = cursor
	}
}

// ConvertText converts view text to model text. When text is not allowed
// at the cursor it is wrapped in a paragraph, whitespace only text is
// dropped in that case. Marker directly preceding the new paragraph is moved
// inside of it.
func ConvertText() Converter {
	return func(_ *emitter.Event, data *Data, api *API) {
		txt, ok := data.ViewItem.(*view.Text)
		if !ok || api.Consumable().Test(txt, consumable.Facets{}) != consumable.Available {
			return
		}

		w := api.Writer()
		pos := data.ModelCursor
		if !api.Schema().CheckChild(schema.ContextAt(pos), "$text") {
			if !api.d.isParagraphable(pos, "$text") {
				return
			}
			if strings.TrimSpace(txt.Data()) == "" {
				return
			}
			before := pos.NodeBefore()
			pos = wrapInParagraph(pos, w, api.Paragraph())
			if m, ok := before.(*model.Element); ok && m.Is(markerElement) {
				w.Move(model.RangeOn(m), pos)
				pos = model.PositionAfter(m)
			}
		}

		api.Consumable().Consume(txt, consumable.Facets{})
		t := w.CreateText(txt.Data())
		w.Insert(t, pos)
		r := model.NewRange(pos, pos.ShiftedBy(t.OffsetSize()))
		data.ModelRange = &r
		data.ModelCursor = r.End
	}
}

// ElementFactory creates model element for matched view element, nil
// means element should not be converted.
type ElementFactory func(el *view.Element, api *API) *model.Element

// ModelElement returns factory creating element with fixed name.
func ModelElement(name string, attrs ...model.Attribute) ElementFactory {
	return func(_ *view.Element, api *API) *model.Element {
		return api.Writer().CreateElement(name, attrs...)
	}
}

// ElementToElement converts matched view elements to model elements and
// their children into the created element.
func ElementToElement(m *matcher.Matcher, create ElementFactory) Converter {
	return func(_ *emitter.Event, data *Data, api *API) {
		el, ok := data.ViewItem.(*view.Element)
		if !ok {
			return
		}
		res := m.Match(el)
		if res == nil {
			return
		}
		f := facets(res.Match)
		f.Name = true
		if api.Consumable().Test(el, f) != consumable.Available {
			return
		}

		modelElement := create(el, api)
		if modelElement == nil {
			return
		}
		if !api.SafeInsert(modelElement, data.ModelCursor) {
			return
		}
		api.Consumable().Consume(el, f)
		api.ConvertChildren(el, model.PositionAt(modelElement, 0))
		api.UpdateConversionResult(modelElement, data)
		if m := api.Mapper(); m != nil && !modelElement.Is(markerElement) {
			m.BindElements(modelElement, el)
		}
	}
}

// AttributeValue returns model attribute value for matched view element,
// false means the attribute should not be set.
type AttributeValue func(el *view.Element, api *API) (string, bool)

// FixedValue returns AttributeValue always producing value.
func FixedValue(value string) AttributeValue {
	return func(*view.Element, *API) (string, bool) {
		return value, true
	}
}

// ElementToAttribute sets model attribute on everything produced from the
// matched element's children (typically formatting elements like <b>).
// Register it with low priority so element converters run first. View
// element name is consumed only when pattern matches by name alone.
func ElementToAttribute(m *matcher.Matcher, key string, value AttributeValue) Converter {
	return func(_ *emitter.Event, data *Data, api *API) {
		el, ok := data.ViewItem.(*view.Element)
		if !ok {
			return
		}
		res := m.Match(el)
		if res == nil {
			return
		}
		f := facets(res.Match)
		f.Name = onlyNameDefined(res.Pattern)
		if api.Consumable().Test(el, f) != consumable.Available {
			return
		}
		v, ok := value(el, api)
		if !ok {
			return
		}

		if data.ModelRange == nil {
			r, cursor := api.ConvertChildren(el, data.ModelCursor)
			data.ModelRange = &r
			data.ModelCursor = cursor
		}

		set := false
		w := api.Writer()
		for _, item := range data.ModelRange.Items() {
			node := itemNode(item)
			if !api.Schema().CheckAttribute(node, key) {
				continue
			}
			set = true
			if hasAttribute(item, key) {
				continue
			}
			w.SetAttribute(key, v, item)
		}
		if set {
			if api.Consumable().Test(el, consumable.Facets{Name: true}) == consumable.Available {
				f.Name = true
			}
			api.Consumable().Consume(el, f)
		}
	}
}

// MarkerName returns marker name for a view element.
type MarkerName func(el *view.Element) (string, bool)

// MarkerNameFromAttribute reads marker name from view attribute.
func MarkerNameFromAttribute(key string) MarkerName {
	return func(el *view.Element) (string, bool) {
		v, ok := el.Attribute(key)
		return v, ok && v != ""
	}
}

// ElementToMarker converts matched elements to marker boundaries. Every
// element becomes a $marker placeholder which is turned into a marker range
// when conversion finishes.
func ElementToMarker(m *matcher.Matcher, name MarkerName) Converter {
	return ElementToElement(m, func(el *view.Element, api *API) *model.Element {
		n, ok := name(el)
		if !ok {
			return nil
		}
		if m := api.Mapper(); m != nil {
			m.BindElementToMarker(el, n)
		}
		return api.Writer().CreateElement(markerElement, model.Attribute{Key: markerAttribute, Value: n})
	})
}

// OnElement registers element converter for the event matching m: named
// event when matcher is limited to a single element name, generic "element"
// otherwise.
func (d *Dispatcher) OnElement(m *matcher.Matcher, c Converter, opts ...emitter.Option) (off func()) {
	if name, ok := m.ElementName(); ok {
		return d.On("element:"+name, c, opts...)
	}
	return d.On("element", c, opts...)
}

func facets(m matcher.Match) consumable.Facets {
	return consumable.Facets(m)
}

func onlyNameDefined(p matcher.Pattern) bool {
	return p.Func == nil && p.Name.IsSet() &&
		len(p.Attributes) == 0 && len(p.Classes) == 0 && len(p.Styles) == 0
}

func itemNode(item model.Item) model.Node {
	if p, ok := item.(*model.TextProxy); ok {
		return p.Text
	}
	return item.(model.Node)
}

func hasAttribute(item model.Item, key string) bool {
	switch v := item.(type) {
	case *model.Element:
		return v.HasAttribute(key)
	case *model.Text:
		return v.HasAttribute(key)
	case *model.TextProxy:
		return v.Text.HasAttribute(key)
	}
	return false
}
