// Package upcast converts view trees into model trees.
//
// Dispatcher walks the view tree firing an event for every node. Converters
// registered for those events decide how the node is represented in the
// model, consume the parts of the view they handled and report which model
// range they produced. Insertion is schema driven: when a model element is
// not allowed at the current position, its ancestors are split until an
// allowed parent is reached and the split copies are tracked so converters
// may continue in the right place.
package upcast

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"vmconv/consumable"
	"vmconv/emitter"
	"vmconv/mapping"
	"vmconv/model"
	"vmconv/schema"
	"vmconv/view"
)

var (
	// ErrInvalidResult is returned when converter leaves invalid model range
	// in the conversion data.
	ErrInvalidResult = errors.New("converter produced invalid model range")
	// ErrBusy is returned when Convert is called from inside of a conversion.
	ErrBusy = errors.New("conversion already in progress")
)

// Schema is what dispatcher and converters need from model schema.
type Schema interface {
	CheckChild(ctx schema.Context, child string) bool
	CheckAttribute(node model.Node, key string) bool
	FindAllowedParent(pos model.Position, node model.Node) model.Container
}

// Writer changes model tree on behalf of converters.
type Writer interface {
	CreateElement(name string, attrs ...model.Attribute) *model.Element
	CreateText(data string, attrs ...model.Attribute) *model.Text
	CreateDocumentFragment() *model.DocumentFragment
	Insert(n model.Node, pos model.Position)
	Append(n model.Node, parent model.Container)
	Remove(n model.Node)
	Move(r model.Range, target model.Position)
	SetAttribute(key, value string, item model.Item)
	Split(pos model.Position, limit model.Container) model.SplitResult
}

// Data is shared by all converters of a single event. Converter which
// converted the view item sets ModelRange to what it created and moves
// ModelCursor to where conversion of the following siblings continues.
type Data struct {
	ViewItem    view.Node
	ModelCursor model.Position
	ModelRange  *model.Range
}

// Converter handles a single conversion event.
type Converter func(evt *emitter.Event, data *Data, api *API)

type phase int

const (
	phaseIdle phase = iota
	phaseWalking
	phaseFinalizing
)

type fatalError struct {
	err error
}

// conversion holds state living for a single Convert call.
type conversion struct {
	writer        Writer
	consumable    *consumable.Ledger
	contextCursor model.Position
	splits        *splitParts
	cursorParents map[model.Node]model.Container
	keepEmpty     map[*model.Element]bool
	store         map[string]any
}

// Dispatcher converts view to model. It is not safe for concurrent use.
type Dispatcher struct {
	log       *zap.Logger
	schema    Schema
	paragraph string
	bus       *emitter.Bus[Converter]
	mapper    *mapping.Mapper
	api       *API
	phase     phase
	conv      *conversion
}

// Option configures dispatcher.
type Option func(*Dispatcher)

// WithLogger sets logger, default is no logging.
func WithLogger(log *zap.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// WithParagraph sets name of the model element used to wrap content which
// is not allowed at the insertion position, default is "paragraph". Empty
// name keeps the default.
func WithParagraph(name string) Option {
	return func(d *Dispatcher) {
		if name != "" {
			d.paragraph = name
		}
	}
}

// WithMapper makes element converters bind converted elements and marker
// elements in m.
func WithMapper(m *mapping.Mapper) Option {
	return func(d *Dispatcher) {
		d.mapper = m
	}
}

// New creates dispatcher without any converters.
func New(sch Schema, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		log:       zap.NewNop(),
		schema:    sch,
		paragraph: "paragraph",
		bus:       emitter.New[Converter](),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.Named("upcast")
	d.api = &API{d: d}
	return d
}

// On registers converter for event: "element:<name>", "element" (any
// element), "text" or "documentFragment".
func (d *Dispatcher) On(event string, c Converter, opts ...emitter.Option) (off func()) {
	return d.bus.On(event, c, opts...)
}

// AddDefaultConverters registers lowest priority converters for text and
// for elements and fragments no other converter handled (their children are
// converted in place).
func (d *Dispatcher) AddDefaultConverters() {
	d.On("text", ConvertText(), emitter.WithPriority(emitter.PriorityLowest))
	d.On("element", ConvertToModelFragment(), emitter.WithPriority(emitter.PriorityLowest))
	d.On("documentFragment", ConvertToModelFragment(), emitter.WithPriority(emitter.PriorityLowest))
}

// Convert converts view subtree to model document fragment. Context lists
// names of model elements the result is going to be inserted to, it
// defaults to "$root". Converted markers are returned in fragment Markers.
func (d *Dispatcher) Convert(root view.Node, w Writer, context ...string) (frag *model.DocumentFragment, err error) {
	if d.phase != phaseIdle {
		return nil, ErrBusy
	}
	if len(context) == 0 {
		context = []string{"$root"}
	}

	d.conv = &conversion{
		writer:        w,
		consumable:    consumable.CreateFrom(root),
		contextCursor: createContextTree(context, w),
		splits:        newSplitParts(),
		cursorParents: make(map[model.Node]model.Container),
		keepEmpty:     make(map[*model.Element]bool),
		store:         make(map[string]any),
	}
	d.phase = phaseWalking

	defer func() {
		d.conv = nil
		d.phase = phaseIdle
	}()
	defer func() {
		if r := recover(); r != nil {
			fe, ok := r.(fatalError)
			if !ok {
				panic(r)
			}
			d.log.Error("Conversion aborted", zap.Error(fe.err))
			frag, err = nil, fe.err
		}
	}()

	res, _ := d.convertItem(root, d.conv.contextCursor)

	d.phase = phaseFinalizing
	frag = w.CreateDocumentFragment()
	if res != nil {
		d.removeEmptyElements()
		for _, n := range d.conv.contextCursor.Parent.Children() {
			w.Append(n, frag)
		}
		frag.Markers = extractMarkers(frag, w)
		if c, ok := root.(view.Container); ok && d.mapper != nil {
			d.mapper.BindElements(frag, c)
		}
	}
	d.log.Debug("Conversion finished",
		zap.String("root", fmt.Sprint(root)),
		zap.Int("children", frag.ChildCount()),
		zap.Int("markers", len(frag.Markers)))
	return frag, nil
}

func (d *Dispatcher) convertItem(item view.Node, cursor model.Position) (*model.Range, model.Position) {
	data := &Data{ViewItem: item, ModelCursor: cursor}

	var event string
	switch v := item.(type) {
	case *view.Element:
		event = "element:" + v.Name()
	case *view.Text:
		event = "text"
	default:
		event = "documentFragment"
	}
	d.bus.Fire(event, func(evt *emitter.Event, c Converter) {
		c(evt, data, d.api)
	})

	if data.ModelRange != nil {
		if err := data.ModelRange.Validate(); err != nil {
			panic(fatalError{err: fmt.Errorf("%w: %s: %w", ErrInvalidResult, event, err)})
		}
	}
	return data.ModelRange, data.ModelCursor
}

func (d *Dispatcher) convertChildren(item view.Node, cursor model.Position) (model.Range, model.Position) {
	r := model.NewRange(cursor)
	c, ok := item.(view.Container)
	if !ok {
		return r, cursor
	}
	for _, child := range c.Children() {
		childRange, next := d.convertItem(child, cursor)
		if childRange != nil {
			r.End = childRange.End
			cursor = next
		}
	}
	return r, cursor
}

func (d *Dispatcher) safeInsert(n model.Node, pos model.Position) bool {
	res, ok := d.splitToAllowedParent(n, pos)
	if !ok {
		return false
	}
	d.conv.writer.Insert(n, res.Position)
	return true
}

// SplitResult describes where node may be inserted after splitting.
type SplitResult struct {
	Position model.Position
	// CursorParent is the innermost split copy, conversion of following
	// view siblings continues inside of it. Nil when nothing was split.
	CursorParent model.Container
}

func (d *Dispatcher) splitToAllowedParent(n model.Node, pos model.Position) (SplitResult, bool) {
	w := d.conv.writer
	allowed := d.schema.FindAllowedParent(pos, n)
	if allowed != nil {
		if allowed == pos.Parent {
			return SplitResult{Position: pos}, true
		}
		for _, a := range model.Ancestors(d.conv.contextCursor.Parent, false) {
			if a == model.Node(allowed) {
				allowed = nil
				break
			}
		}
	}

	if allowed == nil {
		if !d.isParagraphable(pos, model.Name(n)) {
			return SplitResult{}, false
		}
		return SplitResult{Position: wrapInParagraph(pos, w, d.paragraph)}, true
	}

	split := w.Split(pos, allowed)

	var stack []*model.Element
	walker := model.NewWalker(split.Range)
	for v, ok := walker.Next(); ok; v, ok = walker.Next() {
		el, isElement := v.Item.(*model.Element)
		if !isElement {
			continue
		}
		switch v.Type {
		case model.ElementEnd:
			stack = append(stack, el)
		case model.ElementStart:
			if len(stack) == 0 {
				continue
			}
			original := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			d.conv.splits.registerPair(original, el)
		}
	}

	cursorParent := split.Range.End.Parent
	d.conv.cursorParents[n] = cursorParent
	return SplitResult{Position: split.Position, CursorParent: cursorParent}, true
}

func (d *Dispatcher) updateConversionResult(el *model.Element, data *Data) {
	parts := d.conv.splits.get(el)
	if data.ModelRange == nil {
		r := model.NewRange(model.PositionBefore(el), model.PositionAfter(parts[len(parts)-1]))
		data.ModelRange = &r
	}
	if parent, ok := d.conv.cursorParents[el]; ok {
		data.ModelCursor = model.PositionAt(parent, 0)
	} else {
		data.ModelCursor = data.ModelRange.End
	}
}

// removeEmptyElements removes split parts left empty, repeating while
// removal empties their parents.
func (d *Dispatcher) removeEmptyElements() {
	for {
		removed := false
		for _, el := range d.conv.splits.live() {
			if el.IsEmpty() && !d.conv.keepEmpty[el] {
				d.conv.writer.Remove(el)
				d.conv.splits.remove(el)
				removed = true
			}
		}
		if !removed {
			return
		}
	}
}

func (d *Dispatcher) isParagraphable(pos model.Position, name string) bool {
	ctx := schema.ContextAt(pos)
	return d.schema.CheckChild(ctx, d.paragraph) && d.schema.CheckChild(ctx.Push(d.paragraph), name)
}

func wrapInParagraph(pos model.Position, w Writer, name string) model.Position {
	p := w.CreateElement(name)
	w.Insert(p, pos)
	return model.PositionAt(p, 0)
}

// createContextTree builds chain of detached model elements mirroring
// context and returns position inside the innermost one.
func createContextTree(context []string, w Writer) model.Position {
	var pos model.Position
	for _, name := range context {
		el := w.CreateElement(name)
		if !pos.IsZero() {
			w.Insert(el, pos)
		}
		pos = model.PositionAt(el, 0)
	}
	return pos
}
