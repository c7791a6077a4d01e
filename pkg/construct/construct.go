// Package construct builds the per-frame model table from raw records.
//
// The [Constructor] resolves each group's layout algorithm, derives the
// group's immutable options, runs the optional preprocessing hook on a
// private copy of the records, and then instantiates elements, links,
// markers and freed labels with frame-stable ids. Any input it cannot
// turn into a consistent table is rejected with an INVALID_RECORD error
// naming the offending id; no partial table is ever returned.
package construct

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/structview/pkg/errors"
	"github.com/matzehuels/structview/pkg/layout"
	"github.com/matzehuels/structview/pkg/model"
	"github.com/matzehuels/structview/pkg/source"
)

// Generations reports how many times a base element id has leaked.
// The reconciler's leak accumulator implements it.
type Generations interface {
	Generation(baseID string) int
}

type noGenerations struct{}

func (noGenerations) Generation(string) int { return 0 }

// Constructor turns frames into model tables.
type Constructor struct {
	registry  *layout.Registry
	overrides map[string]model.Options
	logger    *log.Logger
}

// New returns a constructor resolving layouts in reg. overrides, keyed by
// layout name, are merged over each algorithm's own option defaults.
func New(reg *layout.Registry, overrides map[string]model.Options, logger *log.Logger) *Constructor {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Constructor{registry: reg, overrides: overrides, logger: logger}
}

// Registry returns the layout registry the constructor resolves from.
func (c *Constructor) Registry() *layout.Registry { return c.registry }

// Construct builds the table for frame. gens may be nil when nothing has
// leaked yet.
func (c *Constructor) Construct(frame source.Frame, gens Generations) (*model.Table, error) {
	if gens == nil {
		gens = noGenerations{}
	}
	table := model.NewTable()
	for _, sg := range frame.Groups {
		g, err := c.group(sg, gens)
		if err != nil {
			return nil, err
		}
		if !table.Add(g) {
			return nil, errors.Validation(sg.Name, "duplicate group")
		}
		c.logger.Debug("constructed group", "group", g.Name, "layout", g.Layout,
			"elements", len(g.Elements), "links", len(g.Links), "markers", len(g.Markers))
	}
	return table, nil
}

// Options returns the effective options for a layout: the algorithm's
// defaults merged with any configured override.
func (c *Constructor) Options(layoutName string) (model.Options, error) {
	alg, ok := c.registry.Get(layoutName)
	if !ok {
		return model.Options{}, errors.New(errors.ErrCodeNotFound, "unknown layout %q", layoutName)
	}
	opts := alg.DefineOptions()
	if o, ok := c.overrides[layoutName]; ok {
		opts = opts.Merge(o)
	}
	return opts, nil
}

func (c *Constructor) group(sg source.Group, gens Generations) (*model.Group, error) {
	if err := errors.ValidateGroupName(sg.Name); err != nil {
		return nil, errors.Validation(sg.Name, "%s", errors.UserMessage(err))
	}
	if sg.Layout == "" {
		return nil, errors.Validation(sg.Name, "group declares no layout")
	}
	alg, ok := c.registry.Get(sg.Layout)
	if !ok {
		return nil, errors.Validation(sg.Name, "unknown layout %q", sg.Layout)
	}
	opts, err := c.Options(sg.Layout)
	if err != nil {
		return nil, err
	}

	records := make([]source.Record, len(sg.Records))
	for i, r := range sg.Records {
		records[i] = r.Clone()
	}
	if p, ok := alg.(layout.Preprocessor); ok {
		records, err = p.Preprocess(records, opts.Clone())
		if err != nil {
			return nil, errors.Validation(sg.Name, "preprocess: %v", err)
		}
	}

	b := &builder{
		group: model.NewGroup(sg.Name, sg.Layout, opts),
		opts:  opts,
		gens:  gens,
		ids:   make(map[string]string, len(records)),
	}
	for i, r := range records {
		if err := b.element(i, r); err != nil {
			return nil, err
		}
	}
	for _, r := range records {
		if err := b.links(r); err != nil {
			return nil, err
		}
	}
	for _, r := range records {
		if err := b.markers(r); err != nil {
			return nil, err
		}
	}
	return b.group, nil
}

// builder accumulates one group's models.
type builder struct {
	group *model.Group
	opts  model.Options
	gens  Generations
	ids   map[string]string // source id -> element id
	seen  map[string]bool   // marker ids
}

func (b *builder) element(i int, r source.Record) error {
	name := b.group.Name
	if r.ID == "" {
		return errors.Validation(fmt.Sprintf("%s[%d]", name, i), "record has no resolvable id")
	}
	base := model.ElementID(name, r.ID)
	if _, dup := b.ids[r.ID]; dup {
		return errors.Validation(base, "duplicate record id in group")
	}
	id := model.Reincarnate(base, b.gens.Generation(base))
	b.ids[r.ID] = id

	typ := r.Type
	if typ == "" {
		typ = model.DefaultNodeType
	}
	opt := b.opts.NodeFor(typ)
	e := &model.Element{
		ID:           id,
		SourceID:     r.ID,
		Group:        name,
		Type:         typ,
		Shape:        opt.Shape,
		Width:        opt.Size[0],
		Height:       opt.Size[1],
		Rotation:     opt.Rotation,
		BaseRotation: opt.Rotation,
		Style:        opt.Style.Clone(),
		AnchorPoints: append([][2]float64(nil), opt.AnchorPoints...),
		FontSize:     opt.FontSize,
		Freed:        r.Freed,
		Root:         r.Root,
		Payload:      r.Clone().Fields,
	}
	e.Label = resolveLabel(opt.Label, e.Payload)
	b.group.AddElement(e)

	if r.Freed {
		b.group.AddAppendage(&model.Appendage{
			ID:      model.AppendageID(id, model.AppendageFreed),
			Type:    model.AppendageFreed,
			Group:   name,
			Element: id,
			Text:    "freed",
		})
	}
	return nil
}

func (b *builder) links(r source.Record) error {
	src := b.ids[r.ID]
	for _, name := range b.opts.LinkFields() {
		v, ok := r.Field(name)
		if !ok {
			continue
		}
		if list, ok := v.([]any); ok {
			for i, item := range list {
				if item == nil {
					continue
				}
				if err := b.link(src, name, item, i); err != nil {
					return err
				}
			}
			continue
		}
		if err := b.link(src, name, v, -1); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) link(src, name string, v any, index int) error {
	targetID, ok := source.IDOf(v)
	if !ok {
		return errors.Validation(src, "link %q holds an invalid target %v", name, v)
	}
	dst, ok := b.ids[targetID]
	if !ok {
		return errors.Validation(src, "link %q targets missing record %q", name, targetID)
	}
	opt := b.opts.Link[name]
	b.group.AddLink(&model.Link{
		ID:           model.LinkID(name, src, dst, index),
		Name:         name,
		Group:        b.group.Name,
		Source:       src,
		Target:       dst,
		Index:        index,
		Shape:        opt.Shape,
		SourceAnchor: opt.SourceAnchor,
		TargetAnchor: opt.TargetAnchor,
		CurveOffset:  opt.CurveOffset,
		Label:        opt.Label,
		Style:        opt.Style.Clone(),
	})
	return nil
}

func (b *builder) markers(r source.Record) error {
	target := b.group.Element(b.ids[r.ID])
	for _, name := range b.opts.MarkerFields() {
		v, ok := r.Field(name)
		if !ok {
			continue
		}
		label, err := markerLabel(v)
		if err != nil {
			return errors.Validation(target.ID, "marker %q: %v", name, err)
		}
		if label == "" {
			continue
		}

		opt := b.opts.Marker[name]
		if _, ok := target.Anchor(opt.Anchor); !ok {
			return errors.Validation(target.ID, "marker %q uses anchor %d, element has %d",
				name, opt.Anchor, len(target.AnchorPoints))
		}

		id := model.MarkerID(b.group.Name, name, label)
		if b.seen == nil {
			b.seen = make(map[string]bool)
		}
		if b.seen[id] {
			return errors.Validation(id, "marker label %q declared twice", label)
		}
		b.seen[id] = true

		kind := opt.Kind
		if kind == "" {
			kind = model.MarkerPointer
		}
		size := opt.Size
		if size == [2]float64{} {
			size = model.DefaultPointerSize
			if kind == model.MarkerCursor {
				size = model.DefaultCursorSize
			}
		}
		fontSize := opt.FontSize
		if fontSize == 0 {
			fontSize = model.DefaultFontSize
		}

		b.group.AddMarker(&model.Marker{
			ID:          id,
			Name:        name,
			Type:        kind,
			Group:       b.group.Name,
			Target:      target.ID,
			Anchor:      opt.Anchor,
			Label:       label,
			Width:       size[0],
			Height:      size[1],
			FontSize:    fontSize,
			Style:       opt.Style.Clone(),
			Offset:      opt.Offset,
			LabelOffset: opt.LabelOffset,
		})
	}
	return nil
}

// markerLabel reads a marker field: a string or a list of strings.
func markerLabel(v any) (string, error) {
	switch l := v.(type) {
	case string:
		return l, nil
	case []any:
		labels := make([]string, 0, len(l))
		for _, item := range l {
			s, ok := item.(string)
			if !ok {
				return "", fmt.Errorf("label list holds %T", item)
			}
			labels = append(labels, s)
		}
		return model.JoinLabels(labels), nil
	default:
		return "", fmt.Errorf("label must be a string or list of strings, got %T", v)
	}
}

// resolveLabel expands a "[field]" template from the payload. Any other
// label is used literally.
func resolveLabel(tmpl string, payload map[string]any) string {
	if !strings.HasPrefix(tmpl, "[") || !strings.HasSuffix(tmpl, "]") {
		return tmpl
	}
	v, ok := payload[tmpl[1:len(tmpl)-1]]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
