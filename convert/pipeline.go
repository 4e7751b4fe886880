package convert

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/maruel/natural"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"vmconv/config"
	"vmconv/htmlview"
	"vmconv/mapping"
	"vmconv/model"
	"vmconv/schema"
	"vmconv/upcast"
	"vmconv/view"
)

// Pipeline turns HTML documents into model fragments according to
// conversion configuration. It is not safe for concurrent use.
type Pipeline struct {
	log        *zap.Logger
	context    []string
	loader     *htmlview.Loader
	schema     *schema.Schema
	mapper     *mapping.Mapper
	dispatcher *upcast.Dispatcher
}

// NewPipeline builds schema and dispatcher from configuration. All schema
// and rule errors are reported at once.
func NewPipeline(cfg *config.ConversionConfig, log *zap.Logger) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}

	sch, err := buildSchema(cfg.Schema, log)
	if err != nil {
		return nil, err
	}

	mapper := mapping.New(mapping.WithLogger(log))
	d := upcast.New(sch, upcast.WithLogger(log), upcast.WithParagraph(cfg.Paragraph), upcast.WithMapper(mapper))
	d.AddDefaultConverters()
	if err := upcast.RegisterRules(d, cfg.Rules); err != nil {
		return nil, fmt.Errorf("bad conversion rules: %w", err)
	}

	return &Pipeline{
		log:        log,
		context:    slices.Clone(cfg.Context),
		loader:     htmlview.New(log, htmlview.WithWhitespace(cfg.Whitespace)),
		schema:     sch,
		mapper:     mapper,
		dispatcher: d,
	}, nil
}

// buildSchema registers configured items, generic items are extended.
// Items are processed in natural name order so errors are reported
// deterministically.
func buildSchema(defs map[string]schema.Definition, log *zap.Logger) (*schema.Schema, error) {
	sch := schema.New(log)

	names := slices.Collect(maps.Keys(defs))
	slices.SortFunc(names, naturalCompare)

	var errs error
	for _, name := range names {
		var err error
		if sch.IsRegistered(name) {
			err = sch.Extend(name, defs[name])
		} else {
			err = sch.Register(name, defs[name])
		}
		errs = multierr.Append(errs, err)
	}
	errs = multierr.Append(errs, sch.Validate())
	if errs != nil {
		return nil, fmt.Errorf("bad schema definition: %w", errs)
	}
	return sch, nil
}

func naturalCompare(a, b string) int {
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	default:
		return 0
	}
}

// Schema returns compiled schema.
func (p *Pipeline) Schema() *schema.Schema {
	return p.schema
}

// Load reads HTML document into view tree.
func (p *Pipeline) Load(r io.Reader, contentType string) (*view.DocumentFragment, error) {
	return p.loader.Load(r, contentType)
}

// ConvertView converts view tree in configured context. Bindings of the
// previous conversion are dropped.
func (p *Pipeline) ConvertView(root view.Node) (*model.DocumentFragment, error) {
	p.mapper.ClearBindings()
	return p.dispatcher.Convert(root, model.NewWriter(), p.context...)
}

// Mapper returns element bindings made by the last conversion.
func (p *Pipeline) Mapper() *mapping.Mapper {
	return p.mapper
}

// TextPosition is the model counterpart of the start of a view text node.
// Back is the model position mapped to view again.
type TextPosition struct {
	Text  *view.Text
	Model model.Position
	Back  view.Position
	Err   error
}

// MapTextPositions maps start of every text node of the last converted view
// tree to the model and back.
func (p *Pipeline) MapTextPositions(root view.Node) []TextPosition {
	var out []TextPosition
	var walk func(n view.Node)
	walk = func(n view.Node) {
		if t, ok := n.(*view.Text); ok {
			tp := TextPosition{Text: t}
			tp.Model, tp.Err = p.mapper.ToModelPosition(view.PositionAt(t, 0))
			if tp.Err == nil {
				tp.Back, tp.Err = p.mapper.ToViewPosition(tp.Model)
			}
			out = append(out, tp)
			return
		}
		if c, ok := n.(view.Container); ok {
			for _, child := range c.Children() {
				walk(child)
			}
		}
	}
	walk(root)
	return out
}

// Convert loads HTML document and converts it.
func (p *Pipeline) Convert(r io.Reader, contentType string) (*model.DocumentFragment, error) {
	root, err := p.Load(r, contentType)
	if err != nil {
		return nil, err
	}
	frag, err := p.ConvertView(root)
	if err != nil {
		return nil, fmt.Errorf("unable to convert document: %w", err)
	}
	return frag, nil
}
