// Package mapping binds view elements to model elements and translates
// positions between both trees.
//
// Bindings are kept in two independent maps. Unbinding one side removes
// the opposite mapping only when it still points back at the unbound
// element, so rebinding a model element to a new view element survives
// unbinding of the old view element.
//
// Position translation is done by listeners of a priority ordered event
// bus. Default listeners run with low priority and act only when nothing
// else produced the result, integrations may register higher priority
// listeners for structures needing special treatment.
package mapping

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"vmconv/emitter"
	"vmconv/model"
	"vmconv/view"
)

// ErrUnmappedPosition is returned when position cannot be translated.
var ErrUnmappedPosition = errors.New("position cannot be mapped")

const (
	eventViewToModel = "viewToModelPosition"
	eventModelToView = "modelToViewPosition"
)

// ViewToModelData is shared by view to model position listeners.
type ViewToModelData struct {
	Mapper        *Mapper
	ViewPosition  view.Position
	ModelPosition *model.Position
	Err           error
}

// ModelToViewData is shared by model to view position listeners.
type ModelToViewData struct {
	Mapper        *Mapper
	ModelPosition model.Position
	ViewPosition  *view.Position
	// IsPhantom is set for positions which do not exist in the model any
	// more, e.g. when mapping removed content.
	IsPhantom bool
	Err       error
}

type (
	ViewToModelHandler func(evt *emitter.Event, data *ViewToModelData)
	ModelToViewHandler func(evt *emitter.Event, data *ModelToViewData)
	// LengthFunc returns model length of a view element.
	LengthFunc func(el *view.Element, m *Mapper) int
)

type deferredRemoval struct {
	el   view.Container
	root view.Node
}

// Mapper keeps element bindings. It is not safe for concurrent use.
type Mapper struct {
	log *zap.Logger

	modelToView map[model.Container]view.Container
	viewToModel map[view.Container]model.Container

	markerNameToElements map[string][]*view.Element
	elementToMarkerNames map[*view.Element][]string
	unboundMarkerNames   []string
	deferred             []deferredRemoval

	lengths map[string]LengthFunc
	v2m     *emitter.Bus[ViewToModelHandler]
	m2v     *emitter.Bus[ModelToViewHandler]
}

// Option configures mapper.
type Option func(*Mapper)

// WithLogger sets logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Mapper) {
		if log != nil {
			m.log = log
		}
	}
}

// New creates mapper with default position translation listeners.
func New(opts ...Option) *Mapper {
	m := &Mapper{
		log:     zap.NewNop(),
		lengths: make(map[string]LengthFunc),
		v2m:     emitter.New[ViewToModelHandler](),
		m2v:     emitter.New[ModelToViewHandler](),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.Named("mapper")
	m.ClearBindings()

	m.v2m.On(eventViewToModel, m.defaultViewToModel, emitter.WithPriority(emitter.PriorityLow))
	m.m2v.On(eventModelToView, m.defaultModelToView, emitter.WithPriority(emitter.PriorityLow))
	return m
}

// OnViewToModelPosition registers listener for view to model translation.
func (m *Mapper) OnViewToModelPosition(h ViewToModelHandler, opts ...emitter.Option) (off func()) {
	return m.v2m.On(eventViewToModel, h, opts...)
}

// OnModelToViewPosition registers listener for model to view translation.
func (m *Mapper) OnModelToViewPosition(h ModelToViewHandler, opts ...emitter.Option) (off func()) {
	return m.m2v.On(eventModelToView, h, opts...)
}

// BindElements binds model element (or fragment) with view element (or
// fragment) in both directions.
func (m *Mapper) BindElements(me model.Container, ve view.Container) {
	m.modelToView[me] = ve
	m.viewToModel[ve] = me
}

// UnbindOption configures UnbindViewElement.
type UnbindOption func(*unbindOptions)

type unbindOptions struct {
	deferred bool
}

// Deferred postpones removal of the binding until FlushDeferredBindings,
// the binding is removed then only if the element is still in the same
// tree.
func Deferred() UnbindOption {
	return func(o *unbindOptions) {
		o.deferred = true
	}
}

// UnbindViewElement removes view element binding. Model element mapping is
// removed only when it still points to this view element. Marker names
// bound to the element are remembered as unbound.
func (m *Mapper) UnbindViewElement(ve view.Container, opts ...UnbindOption) {
	var o unbindOptions
	for _, opt := range opts {
		opt(&o)
	}

	if el, ok := ve.(*view.Element); ok {
		for _, name := range m.elementToMarkerNames[el] {
			if !slices.Contains(m.unboundMarkerNames, name) {
				m.unboundMarkerNames = append(m.unboundMarkerNames, name)
			}
		}
	}

	if o.deferred {
		m.deferred = append(m.deferred, deferredRemoval{el: ve, root: view.Root(ve)})
		return
	}

	me, ok := m.viewToModel[ve]
	delete(m.viewToModel, ve)
	if ok && m.modelToView[me] == ve {
		delete(m.modelToView, me)
	}
}

// UnbindModelElement removes model element binding. View element mapping
// is removed only when it still points to this model element.
func (m *Mapper) UnbindModelElement(me model.Container) {
	ve, ok := m.modelToView[me]
	delete(m.modelToView, me)
	if ok && m.viewToModel[ve] == me {
		delete(m.viewToModel, ve)
	}
}

// FlushDeferredBindings performs deferred unbinding of elements which stay
// in the tree they were in when unbinding was requested.
func (m *Mapper) FlushDeferredBindings() {
	pending := m.deferred
	m.deferred = nil
	for _, d := range pending {
		if view.Root(d.el) == d.root {
			m.UnbindViewElement(d.el)
		}
	}
}

// ClearBindings removes all bindings and marker bookkeeping.
func (m *Mapper) ClearBindings() {
	m.modelToView = make(map[model.Container]view.Container)
	m.viewToModel = make(map[view.Container]model.Container)
	m.markerNameToElements = make(map[string][]*view.Element)
	m.elementToMarkerNames = make(map[*view.Element][]string)
	m.unboundMarkerNames = nil
	m.deferred = nil
}

// ToModelElement returns model element bound to view element.
func (m *Mapper) ToModelElement(ve view.Container) model.Container {
	return m.viewToModel[ve]
}

// ToViewElement returns view element bound to model element.
func (m *Mapper) ToViewElement(me model.Container) view.Container {
	return m.modelToView[me]
}

// BindElementToMarker binds view element to marker name.
func (m *Mapper) BindElementToMarker(el *view.Element, name string) {
	if !slices.Contains(m.markerNameToElements[name], el) {
		m.markerNameToElements[name] = append(m.markerNameToElements[name], el)
	}
	if !slices.Contains(m.elementToMarkerNames[el], name) {
		m.elementToMarkerNames[el] = append(m.elementToMarkerNames[el], name)
	}
}

// UnbindElementFromMarkerName removes binding between element and marker.
func (m *Mapper) UnbindElementFromMarkerName(el *view.Element, name string) {
	if list := slices.DeleteFunc(m.markerNameToElements[name], func(x *view.Element) bool { return x == el }); len(list) > 0 {
		m.markerNameToElements[name] = list
	} else {
		delete(m.markerNameToElements, name)
	}
	if list := slices.DeleteFunc(m.elementToMarkerNames[el], func(x string) bool { return x == name }); len(list) > 0 {
		m.elementToMarkerNames[el] = list
	} else {
		delete(m.elementToMarkerNames, el)
	}
}

// MarkerNameToElements returns view elements bound to marker, nil when
// there are none.
func (m *Mapper) MarkerNameToElements(name string) []*view.Element {
	return slices.Clone(m.markerNameToElements[name])
}

// FlushUnboundMarkerNames returns names of markers whose view elements were
// unbound since the last call and forgets them.
func (m *Mapper) FlushUnboundMarkerNames() []string {
	names := m.unboundMarkerNames
	m.unboundMarkerNames = nil
	return names
}

// RegisterViewToModelLength sets custom model length of view elements with
// given name.
func (m *Mapper) RegisterViewToModelLength(name string, fn LengthFunc) {
	m.lengths[name] = fn
}

// GetModelLength returns how many model offsets view node represents.
func (m *Mapper) GetModelLength(n view.Node) int {
	if el, ok := n.(*view.Element); ok {
		if fn, ok := m.lengths[el.Name()]; ok {
			return fn(el, m)
		}
	}
	if c, ok := n.(view.Container); ok {
		if _, bound := m.viewToModel[c]; bound {
			return 1
		}
	}
	switch v := n.(type) {
	case *view.Text:
		return v.Len()
	case *view.Element:
		if v.Kind() == view.KindUI {
			return 0
		}
	}
	length := 0
	if c, ok := n.(view.Container); ok {
		for _, child := range c.Children() {
			length += m.GetModelLength(child)
		}
	}
	return length
}

// FindMappedViewAncestor returns the closest bound ancestor of position.
func (m *Mapper) FindMappedViewAncestor(vp view.Position) view.Container {
	n := vp.Parent
	for n != nil {
		if c, ok := n.(view.Container); ok {
			if _, bound := m.viewToModel[c]; bound {
				return c
			}
		}
		p := n.Parent()
		if p == nil {
			break
		}
		n = p
	}
	return nil
}

// FindPositionIn returns view position inside viewParent corresponding to
// model offset in the model element viewParent represents.
func (m *Mapper) FindPositionIn(viewParent view.Node, expectedOffset int) (view.Position, error) {
	if t, ok := viewParent.(*view.Text); ok {
		if expectedOffset > t.Len() {
			return view.Position{}, fmt.Errorf("%w: offset %d beyond %v", ErrUnmappedPosition, expectedOffset, t)
		}
		return view.PositionAt(t, expectedOffset), nil
	}
	c, ok := viewParent.(view.Container)
	if !ok {
		return view.Position{}, fmt.Errorf("%w: %v cannot contain positions", ErrUnmappedPosition, viewParent)
	}

	var (
		node       view.Node
		lastLength int
		modelOff   int
		viewOff    int
	)
	for modelOff < expectedOffset {
		node = c.Child(viewOff)
		if node == nil {
			return view.Position{}, fmt.Errorf("%w: offset %d beyond %v", ErrUnmappedPosition, expectedOffset, viewParent)
		}
		lastLength = m.GetModelLength(node)
		modelOff += lastLength
		viewOff++
	}
	if modelOff == expectedOffset {
		return moveToTextNode(view.PositionAt(c, viewOff)), nil
	}
	return m.FindPositionIn(node, expectedOffset-(modelOff-lastLength))
}

// ToModelPosition translates view position to model.
func (m *Mapper) ToModelPosition(vp view.Position) (model.Position, error) {
	data := &ViewToModelData{Mapper: m, ViewPosition: vp}
	m.v2m.Fire(eventViewToModel, func(evt *emitter.Event, h ViewToModelHandler) {
		h(evt, data)
	})
	if data.Err != nil {
		return model.Position{}, data.Err
	}
	if data.ModelPosition == nil {
		return model.Position{}, fmt.Errorf("%w: %v", ErrUnmappedPosition, vp)
	}
	return *data.ModelPosition, nil
}

// PositionOption configures ToViewPosition.
type PositionOption func(*ModelToViewData)

// WithPhantom marks position as phantom.
func WithPhantom() PositionOption {
	return func(d *ModelToViewData) {
		d.IsPhantom = true
	}
}

// ToViewPosition translates model position to view.
func (m *Mapper) ToViewPosition(mp model.Position, opts ...PositionOption) (view.Position, error) {
	data := &ModelToViewData{Mapper: m, ModelPosition: mp}
	for _, opt := range opts {
		opt(data)
	}
	m.m2v.Fire(eventModelToView, func(evt *emitter.Event, h ModelToViewHandler) {
		h(evt, data)
	})
	if data.Err != nil {
		return view.Position{}, data.Err
	}
	if data.ViewPosition == nil {
		return view.Position{}, fmt.Errorf("%w: %v", ErrUnmappedPosition, mp)
	}
	return *data.ViewPosition, nil
}

// ToModelRange translates view range to model.
func (m *Mapper) ToModelRange(vr view.Range) (model.Range, error) {
	start, err := m.ToModelPosition(vr.Start)
	if err != nil {
		return model.Range{}, err
	}
	end, err := m.ToModelPosition(vr.End)
	if err != nil {
		return model.Range{}, err
	}
	return model.NewRange(start, end), nil
}

// ToViewRange translates model range to view.
func (m *Mapper) ToViewRange(mr model.Range) (view.Range, error) {
	start, err := m.ToViewPosition(mr.Start)
	if err != nil {
		return view.Range{}, err
	}
	end, err := m.ToViewPosition(mr.End)
	if err != nil {
		return view.Range{}, err
	}
	return view.NewRange(start, end), nil
}

func (m *Mapper) defaultViewToModel(_ *emitter.Event, data *ViewToModelData) {
	if data.ModelPosition != nil || data.Err != nil {
		return
	}
	block := m.FindMappedViewAncestor(data.ViewPosition)
	if block == nil {
		data.Err = fmt.Errorf("%w: no bound ancestor of %v", ErrUnmappedPosition, data.ViewPosition)
		return
	}
	offset := m.toModelOffset(data.ViewPosition.Parent, data.ViewPosition.Offset, block)
	pos := model.PositionAt(m.viewToModel[block], offset)
	data.ModelPosition = &pos
}

func (m *Mapper) defaultModelToView(_ *emitter.Event, data *ModelToViewData) {
	if data.ViewPosition != nil || data.Err != nil {
		return
	}
	vc, ok := m.modelToView[data.ModelPosition.Parent]
	if !ok {
		data.Err = fmt.Errorf("%w: %v is not bound", ErrUnmappedPosition, data.ModelPosition.Parent)
		return
	}
	pos, err := m.FindPositionIn(vc, data.ModelPosition.Offset)
	if err != nil {
		data.Err = err
		return
	}
	m.log.Debug("Mapped model position", zap.Stringer("model", data.ModelPosition), zap.Stringer("view", pos))
	data.ViewPosition = &pos
}

// toModelOffset computes model offset of view position inside viewBlock
// summing model lengths level by level.
func (m *Mapper) toModelOffset(viewParent view.Node, viewOffset int, viewBlock view.Node) int {
	if viewParent != viewBlock {
		toParentStart := m.toModelOffset(viewParent.Parent(), view.Index(viewParent), viewBlock)
		inParent := m.toModelOffset(viewParent, viewOffset, viewParent)
		return toParentStart + inParent
	}
	if _, ok := viewParent.(*view.Text); ok {
		return viewOffset
	}
	c := viewParent.(view.Container)
	offset := 0
	for i := 0; i < viewOffset; i++ {
		offset += m.GetModelLength(c.Child(i))
	}
	return offset
}

// moveToTextNode prefers position inside adjacent text over position next
// to it.
func moveToTextNode(vp view.Position) view.Position {
	if t, ok := vp.NodeBefore().(*view.Text); ok {
		return view.PositionAt(t, t.Len())
	}
	if t, ok := vp.NodeAfter().(*view.Text); ok {
		return view.PositionAt(t, 0)
	}
	return vp
}
