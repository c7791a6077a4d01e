package compose

import (
	"io"
	"math"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/structview/pkg/errors"
	"github.com/matzehuels/structview/pkg/geom"
	"github.com/matzehuels/structview/pkg/layout"
	"github.com/matzehuels/structview/pkg/model"
)

// LeakSet is the read view of the leak accumulator the composer needs.
type LeakSet interface {
	// Models returns every accumulated model in leak order.
	Models() []model.Model
	// Len returns the number of accumulated elements.
	Len() int
}

// Composer lays out model tables.
type Composer struct {
	registry *layout.Registry
	cfg      Config
	measurer Measurer
	logger   *log.Logger
}

// New returns a composer resolving algorithms in reg. A nil measurer
// selects [MonoMeasurer].
func New(reg *layout.Registry, cfg Config, measurer Measurer, logger *log.Logger) *Composer {
	if measurer == nil {
		measurer = MonoMeasurer
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Composer{registry: reg, cfg: cfg, measurer: measurer, logger: logger}
}

// Config returns the composer's configuration.
func (c *Composer) Config() Config { return c.cfg }

// SetCanvas changes the canvas size used by later passes.
func (c *Composer) SetCanvas(width, height float64) {
	c.cfg.Width, c.cfg.Height = width, height
}

// LayoutAll positions every model of table in place and moves leaked,
// the models that leaked this frame, into the leak strip next to acc.
// On error the table is left partially laid out and must be discarded;
// leaked and acc are untouched.
func (c *Composer) LayoutAll(table *model.Table, acc LeakSet, leaked []model.Model) error {
	for _, m := range table.Models() {
		m.Reset()
	}

	for _, g := range table.Groups() {
		if err := c.layoutGroup(g); err != nil {
			return err
		}
	}

	for _, g := range table.Groups() {
		for _, a := range g.Appendages {
			if e := g.Element(a.Element); e != nil {
				a.Place(e.Box())
			}
		}
		for _, m := range g.Markers {
			if e := g.Element(m.Target); e != nil {
				c.placeMarker(m, e)
			}
		}
	}

	visible := table.Visible()
	c.flowGroups(visible)

	hasLeak := len(leaked) > 0
	if acc != nil && acc.Len() > 0 {
		hasLeak = true
	}
	if len(leaked) > 0 {
		c.placeLeaked(acc, leaked)
	}

	if c.cfg.FitCenter {
		c.fitCenter(visible, hasLeak)
	}

	for _, m := range table.Models() {
		m.Settle()
	}
	return nil
}

func (c *Composer) layoutGroup(g *model.Group) error {
	alg, ok := c.registry.Get(g.Layout)
	if !ok {
		return errors.Layout(g.Name, nil, "unknown layout %q", g.Layout)
	}
	if err := alg.Layout(g, g.Params()); err != nil {
		return errors.Layout(g.Name, err, "layout %q failed", g.Layout)
	}
	for _, e := range g.Elements {
		if !geom.Finite(r2.Vec{X: e.X, Y: e.Y}) {
			return errors.Layout(e.ID, nil, "layout %q left a non-finite position (%v, %v)", g.Layout, e.X, e.Y)
		}
	}
	return nil
}

// placeMarker puts m just outside target at its anchor, rotated to face
// the target, with the label pushed further out by its own size.
func (c *Composer) placeMarker(m *model.Marker, target *model.Element) {
	offset, labelOffset := c.cfg.MarkerOffset, c.cfg.LabelOffset
	if m.Offset != nil {
		offset = *m.Offset
	}
	if m.LabelOffset != nil {
		labelOffset = *m.LabelOffset
	}

	center := target.Box().Center()
	anchor, ok := target.Anchor(m.Anchor)
	if !ok {
		anchor = center
	}
	v := r2.Sub(anchor, center)
	length := r2.Norm(v) + offset

	var angle float64
	if v.X == 0 {
		if v.Y > 0 {
			angle = -math.Pi
		}
	} else {
		angle = math.Copysign(1, v.X) * (math.Pi/2 - math.Atan(v.Y/v.X))
	}

	dir := r2.Vec{X: 0, Y: -1}
	if v != (r2.Vec{}) {
		dir = r2.Unit(v)
	}

	w, h := c.measurer.Measure(m.Label, m.FontSize)
	labelRadius := math.Max(w, h) / 2

	pos := r2.Add(center, r2.Scale(length, dir))
	end := r2.Add(center, r2.Scale(m.Height+length+labelRadius+labelOffset, dir))

	m.X, m.Y = pos.X, pos.Y
	m.Rotation = angle
	m.LabelEnd = r2.Sub(end, pos)
}

// flowGroups places groups left to right, each padded box touching the
// previous one. The first group keeps its left edge.
func (c *Composer) flowGroups(groups []*model.Group) {
	type placed struct {
		g   *model.Group
		box geom.Rect
	}
	var boxes []placed

	var prev *geom.Rect
	for _, g := range groups {
		b, ok := g.Bounds()
		if !ok {
			continue
		}
		b = b.Pad(c.cfg.GroupPadding)
		var dx float64
		if prev != nil {
			dx = prev.Right() - b.X
		}
		g.Translate(dx, 0)
		b = b.Translate(dx, 0)
		boxes = append(boxes, placed{g, b})
		prev = &boxes[len(boxes)-1].box
	}

	if c.cfg.Policy != PolicyFlowCentered || len(boxes) == 0 {
		return
	}
	tallest := boxes[0].box
	for _, p := range boxes[1:] {
		if p.box.Height > tallest.Height {
			tallest = p.box
		}
	}
	for _, p := range boxes {
		p.g.Translate(0, tallest.CenterY()-p.box.CenterY())
	}
}

// placeLeaked restores the newly leaked models to their settled layout
// positions and moves them as one cluster to the right of every earlier
// leak, top-aligned with them.
func (c *Composer) placeLeaked(acc LeakSet, leaked []model.Model) {
	for _, m := range leaked {
		m.Restore()
	}

	cluster, ok := model.Bounds(elementsOf(leaked))
	if !ok {
		return
	}

	global := geom.Rect{X: 0, Y: c.cfg.LeakAreaY()}
	if acc != nil {
		if b, ok := model.Bounds(elementsOf(acc.Models())); ok {
			global = b
		}
	}

	dx := global.Right() + c.cfg.LeakGap - cluster.X
	dy := global.Y - cluster.Y
	for _, m := range leaked {
		m.Translate(dx, dy)
	}

	boxes := make(map[string]geom.Rect)
	for _, m := range leaked {
		if e, ok := m.(*model.Element); ok {
			boxes[e.ID] = e.Box()
		}
	}
	for _, m := range leaked {
		if a, ok := m.(*model.Appendage); ok {
			if box, ok := boxes[a.Element]; ok {
				a.Place(box)
			}
		}
	}

	c.logger.Debug("placed leak cluster", "models", len(leaked), "x", cluster.X+dx, "y", cluster.Y+dy)
}

// fitCenter moves the live scene's center to the canvas center. The leak
// strip is excluded from the available height once anything has leaked.
func (c *Composer) fitCenter(groups []*model.Group, hasLeak bool) {
	var models []model.Model
	for _, g := range groups {
		models = append(models, g.Models()...)
	}
	b, ok := model.Bounds(models)
	if !ok {
		return
	}

	height := c.cfg.Height
	if hasLeak {
		height -= c.cfg.LeakAreaHeight
	}
	dx := c.cfg.Width/2 - b.CenterX()
	dy := height/2 - b.CenterY()
	for _, m := range models {
		m.Translate(dx, dy)
	}
}

func elementsOf(models []model.Model) []model.Model {
	var out []model.Model
	for _, m := range models {
		if m.Kind() == model.KindElement {
			out = append(out, m)
		}
	}
	return out
}
