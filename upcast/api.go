package upcast

import (
	"vmconv/consumable"
	"vmconv/mapping"
	"vmconv/model"
	"vmconv/view"
)

// API is handed to converters. It is valid only while conversion is in
// progress.
type API struct {
	d *Dispatcher
}

// Writer returns model writer of the current conversion.
func (a *API) Writer() Writer {
	return a.d.conv.writer
}

// Schema returns model schema.
func (a *API) Schema() Schema {
	return a.d.schema
}

// Consumable returns ledger of the current conversion.
func (a *API) Consumable() *consumable.Ledger {
	return a.d.conv.consumable
}

// Store returns map converters may use to share data during conversion.
func (a *API) Store() map[string]any {
	return a.d.conv.store
}

// Mapper returns mapper converted elements are bound in, nil when
// dispatcher has none.
func (a *API) Mapper() *mapping.Mapper {
	return a.d.mapper
}

// Paragraph returns name of the element used to wrap content.
func (a *API) Paragraph() string {
	return a.d.paragraph
}

// ConvertItem converts single view node at cursor. It returns produced
// range, nil when nothing was converted, and cursor for the next sibling.
func (a *API) ConvertItem(item view.Node, cursor model.Position) (*model.Range, model.Position) {
	return a.d.convertItem(item, cursor)
}

// ConvertChildren converts children of view node one after another
// starting at cursor. Returned range spans from cursor to the end of the
// last produced range.
func (a *API) ConvertChildren(item view.Node, cursor model.Position) (model.Range, model.Position) {
	return a.d.convertChildren(item, cursor)
}

// SafeInsert inserts node at position or, when schema does not allow that,
// in the closest allowed ancestor splitting everything in between. Content
// is wrapped in a paragraph when nothing else helps. Returns false when node
// cannot be inserted at all.
func (a *API) SafeInsert(n model.Node, pos model.Position) bool {
	return a.d.safeInsert(n, pos)
}

// SplitToAllowedParent finds place for the node as SafeInsert does but
// leaves insertion to the caller.
func (a *API) SplitToAllowedParent(n model.Node, pos model.Position) (SplitResult, bool) {
	return a.d.splitToAllowedParent(n, pos)
}

// UpdateConversionResult sets data range to cover element and all its
// split parts unless converter already set it, and moves cursor to where
// conversion should continue.
func (a *API) UpdateConversionResult(el *model.Element, data *Data) {
	a.d.updateConversionResult(el, data)
}

// GetSplitParts returns element and every copy created by splitting it, in
// creation order.
func (a *API) GetSplitParts(el *model.Element) []*model.Element {
	return a.d.conv.splits.get(el)
}

// KeepEmptyElement protects split part from removal when it ends up empty.
func (a *API) KeepEmptyElement(el *model.Element) {
	a.d.conv.keepEmpty[el] = true
}
