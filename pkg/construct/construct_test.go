package construct

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/structview/pkg/errors"
	"github.com/matzehuels/structview/pkg/layout/builtin"
	"github.com/matzehuels/structview/pkg/model"
	"github.com/matzehuels/structview/pkg/source"
)

func mustFrame(t *testing.T, js string) source.Frame {
	t.Helper()
	f, err := source.Decode(strings.NewReader(js))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return f
}

func newConstructor() *Constructor {
	return New(builtin.Registry(), nil, nil)
}

type gens map[string]int

func (g gens) Generation(id string) int { return g[id] }

func TestConstructList(t *testing.T) {
	frame := mustFrame(t, `{"list": {"layout": "linklist", "data": [
		{"id": 1, "data": "a", "next": 2, "external": "head"},
		{"id": 2, "data": "b", "freed": true, "external": ["p", "q"]}
	]}}`)

	table, err := newConstructor().Construct(frame, nil)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}

	g := table.Group("list")
	if g == nil || g.Layout != "linklist" {
		t.Fatalf("group = %+v", g)
	}

	var ids []string
	for _, e := range g.Elements {
		ids = append(ids, e.ID)
	}
	if diff := cmp.Diff([]string{"list(1)", "list(2)"}, ids); diff != "" {
		t.Errorf("element ids (-want +got):\n%s", diff)
	}

	first, second := g.Element("list(1)"), g.Element("list(2)")
	if first.Label != "a" || second.Label != "b" {
		t.Errorf("labels = %q, %q; want a, b", first.Label, second.Label)
	}
	if first.Width != 60 || first.Height != 30 || first.Type != model.DefaultNodeType {
		t.Errorf("first element = %+v", first)
	}

	if len(g.Links) != 1 {
		t.Fatalf("got %d links, want 1", len(g.Links))
	}
	l := g.Links[0]
	if l.Source != "list(1)" || l.Target != "list(2)" || l.Index != -1 || l.SourceAnchor != 1 {
		t.Errorf("link = %+v", l)
	}
	if diff := cmp.Diff([]string{l.ID}, first.Out); diff != "" {
		t.Errorf("first.Out (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{l.ID}, second.In); diff != "" {
		t.Errorf("second.In (-want +got):\n%s", diff)
	}

	// The head's external pointer is moved to rootExternal by the layout.
	var labels []string
	for _, m := range g.Markers {
		labels = append(labels, m.Name+"="+m.Label+"@"+m.Target)
	}
	want := []string{"rootExternal=head@list(1)", "external=p, q@list(2)"}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Errorf("markers (-want +got):\n%s", diff)
	}
	if m := g.Markers[0]; m.Width != 8 || m.Height != 30 || m.Type != model.MarkerPointer {
		t.Errorf("pointer marker size = %vx%v kind %s", m.Width, m.Height, m.Type)
	}

	if len(g.Appendages) != 1 || g.Appendages[0].Element != "list(2)" || g.Appendages[0].Type != model.AppendageFreed {
		t.Errorf("appendages = %+v", g.Appendages)
	}
}

func TestConstructDoesNotModifyFrame(t *testing.T) {
	frame := mustFrame(t, `{"list": {"layout": "linklist", "data": [{"id": 1, "external": "head"}]}}`)
	if _, err := newConstructor().Construct(frame, nil); err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if _, ok := frame.Groups[0].Records[0].Fields["external"]; !ok {
		t.Error("preprocessing leaked into the caller's frame")
	}
}

func TestConstructMultiEdge(t *testing.T) {
	frame := mustFrame(t, `{"tree": {"layout": "bintree", "data": [
		{"id": "r", "child": [null, "b"]},
		{"id": "b", "child": null}
	]}}`)

	table, err := newConstructor().Construct(frame, nil)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	g := table.Group("tree")
	if len(g.Links) != 1 || g.Links[0].Index != 1 {
		t.Fatalf("links = %+v, want one link at index 1", g.Links)
	}
	if c := g.Child(g.Element("tree(r)"), "child", 1); c == nil || c.ID != "tree(b)" {
		t.Errorf("right child = %v", c)
	}
}

func TestConstructReincarnates(t *testing.T) {
	frame := mustFrame(t, `{"list": {"layout": "linklist", "data": [{"id": 1, "next": 2}, {"id": 2}]}}`)

	table, err := newConstructor().Construct(frame, gens{"list(2)": 1})
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	g := table.Group("list")
	if g.Element("list(2)~1") == nil {
		t.Fatal("leaked id was reused")
	}
	if g.Links[0].Target != "list(2)~1" {
		t.Errorf("link target = %q, want list(2)~1", g.Links[0].Target)
	}
	if table.Element("list(2)~1") == nil {
		t.Error("table lookup of reincarnated id failed")
	}
}

func TestConstructValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		frame  string
		wantID string
	}{
		{
			name:   "missing id",
			frame:  `{"list": {"layout": "linklist", "data": [{"data": 1}]}}`,
			wantID: "list[0]",
		},
		{
			name:   "duplicate id",
			frame:  `{"list": {"layout": "linklist", "data": [{"id": 1}, {"id": "1"}]}}`,
			wantID: "list(1)",
		},
		{
			name:   "missing link target",
			frame:  `{"list": {"layout": "linklist", "data": [{"id": 1, "next": 9}]}}`,
			wantID: "list(1)",
		},
		{
			name:   "invalid link target",
			frame:  `{"list": {"layout": "linklist", "data": [{"id": 1, "next": true}]}}`,
			wantID: "list(1)",
		},
		{
			name:   "unknown layout",
			frame:  `{"list": {"layout": "spiral", "data": []}}`,
			wantID: "list",
		},
		{
			name:   "no layout",
			frame:  `{"list": {"data": []}}`,
			wantID: "list",
		},
		{
			name:   "reserved group name",
			frame:  `{"a(b)": {"layout": "linklist", "data": []}}`,
			wantID: "a(b)",
		},
		{
			name:   "bad marker label",
			frame:  `{"list": {"layout": "linklist", "data": [{"id": 1}, {"id": 2, "external": 5}]}}`,
			wantID: "list(2)",
		},
		{
			name:   "duplicate marker label",
			frame:  `{"list": {"layout": "linklist", "data": [{"id": 1}, {"id": 2, "external": "p"}, {"id": 3, "external": "p"}]}}`,
			wantID: "list#external:p",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newConstructor().Construct(mustFrame(t, tt.frame), nil)
			if !errors.Is(err, errors.ErrCodeValidation) {
				t.Fatalf("Construct() error = %v, want INVALID_RECORD", err)
			}
			if got := errors.GetID(err); got != tt.wantID {
				t.Errorf("error id = %q, want %q", got, tt.wantID)
			}
		})
	}
}

func TestConstructRejectsMissingAnchor(t *testing.T) {
	overrides := map[string]model.Options{
		builtin.LinkList: {Marker: map[string]model.MarkerOption{
			"external": {Kind: model.MarkerPointer, Anchor: 7},
		}},
	}
	c := New(builtin.Registry(), overrides, nil)
	frame := mustFrame(t, `{"list": {"layout": "linklist", "data": [{"id": 1}, {"id": 2, "external": "p"}]}}`)

	_, err := c.Construct(frame, nil)
	if !errors.Is(err, errors.ErrCodeValidation) || errors.GetID(err) != "list(2)" {
		t.Errorf("Construct() error = %v, want INVALID_RECORD for list(2)", err)
	}
}

func TestOptionsOverride(t *testing.T) {
	overrides := map[string]model.Options{
		builtin.LinkList: {Layout: model.Params{"xInterval": 10.0}},
	}
	c := New(builtin.Registry(), overrides, nil)

	opts, err := c.Options(builtin.LinkList)
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if got := opts.Layout.Float("xInterval", 0); got != 10 {
		t.Errorf("xInterval = %v, want 10", got)
	}
	if got := opts.Layout.Float("yInterval", 0); got != 50 {
		t.Errorf("yInterval = %v, want default 50", got)
	}
	if _, err := c.Options("nope"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Options(nope) error = %v, want NOT_FOUND", err)
	}
}

func TestGroupOptionsAreImmutable(t *testing.T) {
	frame := mustFrame(t, `{"list": {"layout": "linklist", "data": [{"id": 1}]}}`)
	c := newConstructor()
	table, err := c.Construct(frame, nil)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}

	opts := table.Group("list").Options()
	opts.Layout["xInterval"] = 1.0
	if table.Group("list").Params().Float("xInterval", 0) != 50 {
		t.Error("group options changed through a returned copy")
	}
}

func TestResolveLabel(t *testing.T) {
	payload := map[string]any{"data": 42, "name": "x"}
	tests := []struct {
		tmpl, want string
	}{
		{"[data]", "42"},
		{"[name]", "x"},
		{"[missing]", ""},
		{"literal", "literal"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := resolveLabel(tt.tmpl, payload); got != tt.want {
			t.Errorf("resolveLabel(%q) = %q, want %q", tt.tmpl, got, tt.want)
		}
	}
}
