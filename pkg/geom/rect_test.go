package geom

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func rectNear(a, b Rect) bool {
	return near(a.X, b.X) && near(a.Y, b.Y) && near(a.Width, b.Width) && near(a.Height, b.Height)
}

func TestRectEdges(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 40, Height: 60}

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"right", r.Right(), 50},
		{"bottom", r.Bottom(), 80},
		{"center x", r.CenterX(), 30},
		{"center y", r.CenterY(), 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestUnion(t *testing.T) {
	tests := []struct {
		name  string
		rects []Rect
		want  Rect
	}{
		{"empty", nil, Rect{}},
		{"single", []Rect{{X: 1, Y: 2, Width: 3, Height: 4}}, Rect{X: 1, Y: 2, Width: 3, Height: 4}},
		{
			name:  "disjoint",
			rects: []Rect{{X: 0, Y: 0, Width: 10, Height: 10}, {X: 20, Y: 5, Width: 10, Height: 20}},
			want:  Rect{X: 0, Y: 0, Width: 30, Height: 25},
		},
		{
			name:  "nested",
			rects: []Rect{{X: 0, Y: 0, Width: 100, Height: 100}, {X: 10, Y: 10, Width: 5, Height: 5}},
			want:  Rect{X: 0, Y: 0, Width: 100, Height: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Union(tt.rects...); got != tt.want {
				t.Errorf("Union() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIntersectAndOverlap(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}

	tests := []struct {
		name    string
		b       Rect
		want    Rect
		wantOK  bool
		overlap bool
	}{
		{"overlapping", Rect{X: 5, Y: 5, Width: 10, Height: 10}, Rect{X: 5, Y: 5, Width: 5, Height: 5}, true, true},
		{"touching edge", Rect{X: 10, Y: 0, Width: 10, Height: 10}, Rect{}, false, false},
		{"disjoint", Rect{X: 50, Y: 50, Width: 1, Height: 1}, Rect{}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Intersect(a, tt.b)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Intersect() = %+v, %v; want %+v, %v", got, ok, tt.want, tt.wantOK)
			}
			if o := Overlaps(a, tt.b); o != tt.overlap {
				t.Errorf("Overlaps() = %v, want %v", o, tt.overlap)
			}
		})
	}
}

func TestRotate(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 60, Height: 30}

	if got := r.Rotate(0); got != r {
		t.Errorf("Rotate(0) = %+v, want %+v", got, r)
	}

	got := r.Rotate(math.Pi / 2)
	want := Rect{X: 15, Y: -15, Width: 30, Height: 60}
	if !rectNear(got, want) {
		t.Errorf("Rotate(pi/2) = %+v, want %+v", got, want)
	}

	if c := got.Center(); !near(c.X, 30) || !near(c.Y, 15) {
		t.Errorf("rotated center = %+v, want {30 15}", c)
	}
}

func TestPadAndAt(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 100, Height: 50}

	if got, want := r.Pad(20), (Rect{X: -10, Y: -10, Width: 140, Height: 90}); got != want {
		t.Errorf("Pad(20) = %+v, want %+v", got, want)
	}
	if got, want := r.At(0.5, 0), (r2.Vec{X: 60, Y: 10}); got != want {
		t.Errorf("At(0.5, 0) = %+v, want %+v", got, want)
	}
	if got, want := r.At(1, 1), (r2.Vec{X: 110, Y: 60}); got != want {
		t.Errorf("At(1, 1) = %+v, want %+v", got, want)
	}
}

func TestFinite(t *testing.T) {
	tests := []struct {
		p    r2.Vec
		want bool
	}{
		{r2.Vec{X: 1, Y: 2}, true},
		{r2.Vec{X: math.NaN(), Y: 0}, false},
		{r2.Vec{X: 0, Y: math.Inf(-1)}, false},
	}
	for _, tt := range tests {
		if got := Finite(tt.p); got != tt.want {
			t.Errorf("Finite(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}
