// seehuhn.de/go/fontconv - convert and repair font outlines
// Copyright (C) 2024  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package outline

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
)

func square(x, y, size float64) Contour {
	b := &Builder{}
	b.MoveTo(x, y)
	b.LineTo(x+size, y)
	b.LineTo(x+size, y+size)
	b.LineTo(x, y+size)
	return b.Glyph()[0]
}

func TestSignedArea(t *testing.T) {
	c := square(10, 10, 20)
	if a := c.SignedArea(); a != 400 {
		t.Errorf("wrong area: %g != 400", a)
	}
	if a := c.Reverse().SignedArea(); a != -400 {
		t.Errorf("wrong reversed area: %g != -400", a)
	}
}

func TestCircleArea(t *testing.T) {
	// four cubic arcs approximating a circle of radius 100
	const r = 100.0
	const k = 0.5522847498 * r
	b := &Builder{}
	b.MoveTo(r, 0)
	b.CubeTo(r, k, k, r, 0, r)
	b.CubeTo(-k, r, -r, k, -r, 0)
	b.CubeTo(-r, -k, -k, -r, 0, -r)
	b.CubeTo(k, -r, r, -k, r, 0)
	g := b.Glyph()

	area := g[0].SignedArea()
	if math.Abs(area-math.Pi*r*r) > 50 {
		t.Errorf("area %g too far from %g", area, math.Pi*r*r)
	}
}

func TestSplit(t *testing.T) {
	s := NewCube(vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 10, Y: 30}, vec.Vec2{X: 40, Y: 30}, vec.Vec2{X: 50, Y: 0})
	for _, tSplit := range []float64{0.1, 0.5, 0.8} {
		left, right := s.Split(tSplit)
		if left.End() != right.Start() {
			t.Fatalf("split pieces do not join: %v %v", left.End(), right.Start())
		}
		for _, u := range []float64{0, 0.25, 0.5, 0.75, 1} {
			p := left.At(u)
			q := s.At(u * tSplit)
			if p.Sub(q).Length() > 1e-9 {
				t.Errorf("left part differs at %g: %v != %v", u, p, q)
			}
			p = right.At(u)
			q = s.At(tSplit + u*(1-tSplit))
			if p.Sub(q).Length() > 1e-9 {
				t.Errorf("right part differs at %g: %v != %v", u, p, q)
			}
		}
	}
}

func TestReverse(t *testing.T) {
	c := square(0, 0, 10)
	r := c.Reverse()
	if r.Start() != c.Start() {
		t.Errorf("start point changed: %v != %v", r.Start(), c.Start())
	}
	rr := r.Reverse()
	if d := cmp.Diff(c.Closed(), rr); d != "" {
		t.Errorf("double reversal changed the contour (-want +got):\n%s", d)
	}
}

func TestTransform(t *testing.T) {
	g := Glyph{square(0, 0, 10)}
	shifted := g.Transform(matrix.Translate(100, 0))
	b := shifted.Bounds()
	if b.LLx != 100 || b.URx != 110 || b.LLy != 0 || b.URy != 10 {
		t.Errorf("wrong bounds after translation: %v", b)
	}
}

func TestAddExtremes(t *testing.T) {
	// an arc bulging to the right, with an x-extremum at t = 0.5
	b := &Builder{}
	b.MoveTo(0, 0)
	b.CubeTo(100, 0, 100, 100, 0, 100)
	g := b.Glyph()

	h := g.AddExtremes()
	if n := len(h[0]); n != 2 {
		t.Fatalf("expected 2 segments, got %d", n)
	}
	p := h[0][0].End()
	if math.Abs(p.X-75) > 1e-9 || math.Abs(p.Y-50) > 1e-9 {
		t.Errorf("wrong extreme point %v", p)
	}
}

func TestSet(t *testing.T) {
	s := NewSet()
	for _, name := range []string{"space", "A", "a"} {
		err := s.Add(&Entry{Name: name, Width: 500})
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Add(&Entry{Name: "A"}); err == nil {
		t.Error("duplicate name accepted")
	}
	if !s.Replace("A", Glyph{square(0, 0, 10)}) {
		t.Fatal("Replace failed")
	}
	want := []string{"space", "A", "a"}
	if d := cmp.Diff(want, s.Names()); d != "" {
		t.Errorf("wrong glyph order (-want +got):\n%s", d)
	}
	e, _ := s.Get("A")
	if e.Width != 500 || len(e.Outline) != 1 {
		t.Errorf("unexpected entry %v", e)
	}
}

func TestFlattenTolerance(t *testing.T) {
	s := NewCube(vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 0, Y: 552}, vec.Vec2{X: 448, Y: 1000}, vec.Vec2{X: 1000, Y: 1000})
	for _, tol := range []float64{0.01, 0.1, 1} {
		pp := s.Flatten([]vec.Vec2{s.Start()}, tol)
		if pp[len(pp)-1] != s.End() {
			t.Errorf("tol %g: polyline ends at %v", tol, pp[len(pp)-1])
		}
		seg := s.PathSegment()
		for i := 1; i < len(pp); i++ {
			p := pp[i-1].Add(pp[i]).Mul(0.5)
			d2, _ := seg.Nearest(Pt(p), 1e-6)
			if d := math.Sqrt(d2); d > 1.05*tol {
				t.Errorf("tol %g: point %v is %g away from the curve", tol, p, d)
			}
		}
	}
}

func TestContourWinding(t *testing.T) {
	c := square(0, 0, 10)
	if w := c.Winding(vec.Vec2{X: 5, Y: 5}); w != 1 {
		t.Errorf("wrong winding number %d", w)
	}
	if w := c.Reverse().Winding(vec.Vec2{X: 5, Y: 5}); w != -1 {
		t.Errorf("wrong winding number %d", w)
	}
	if w := c.Winding(vec.Vec2{X: 15, Y: 5}); w != 0 {
		t.Errorf("wrong winding number %d", w)
	}
}

func TestPathSegment(t *testing.T) {
	segs := []Segment{
		NewLine(vec.Vec2{X: 1, Y: 2}, vec.Vec2{X: 3, Y: 4}),
		NewQuad(vec.Vec2{X: 1, Y: 2}, vec.Vec2{X: 3, Y: 4}, vec.Vec2{X: 5, Y: 0}),
		NewCube(vec.Vec2{X: 1, Y: 2}, vec.Vec2{X: 3, Y: 4}, vec.Vec2{X: 5, Y: 0}, vec.Vec2{X: 7, Y: 1}),
	}
	for _, s := range segs {
		if d := cmp.Diff(s, FromPathSegment(s.PathSegment())); d != "" {
			t.Errorf("%s changed (-want +got):\n%s", s.Op, d)
		}
		for _, u := range []float64{0, 0.25, 0.5, 1} {
			if got := Vec(s.PathSegment().Eval(u)); got.Sub(s.At(u)).Length() > 1e-9 {
				t.Errorf("%s at %g: %v != %v", s.Op, u, got, s.At(u))
			}
		}
	}
}
