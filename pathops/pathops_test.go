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

package pathops

import (
	"math"
	"testing"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/fontconv/outline"
)

func rectangle(x0, y0, x1, y1 float64) outline.Contour {
	b := &outline.Builder{}
	b.MoveTo(x0, y0)
	b.LineTo(x1, y0)
	b.LineTo(x1, y1)
	b.LineTo(x0, y1)
	b.LineTo(x0, y0)
	return b.Glyph()[0]
}

func circle(cx, cy, r float64) outline.Contour {
	k := 0.5522847498 * r
	b := &outline.Builder{}
	b.MoveTo(cx+r, cy)
	b.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
	b.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
	b.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
	b.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	return b.Glyph()[0]
}

func totalArea(g outline.Glyph) float64 {
	var a float64
	for _, c := range g {
		a += c.SignedArea()
	}
	return a
}

func TestUnionDisjoint(t *testing.T) {
	g := outline.Glyph{rectangle(0, 0, 10, 10), rectangle(20, 0, 30, 10)}
	u, err := Union(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(u) != 2 {
		t.Fatalf("expected 2 contours, got %d", len(u))
	}
	for i := range g {
		if len(u[i]) != len(g[i]) || u[i][0] != g[i][0] {
			t.Errorf("contour %d was modified", i)
		}
	}
}

func TestUnionOverlappingSquares(t *testing.T) {
	g := outline.Glyph{rectangle(0, 0, 20, 20), rectangle(10, 10, 30, 30)}
	u, err := Union(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(u) != 1 {
		t.Fatalf("expected 1 contour, got %d", len(u))
	}
	if a := totalArea(u); math.Abs(a-700) > 1e-6 {
		t.Errorf("wrong area %g != 700", a)
	}
	if n := len(u[0]); n != 8 {
		t.Errorf("expected 8 edges, got %d", n)
	}
}

func TestUnionSharedEdge(t *testing.T) {
	g := outline.Glyph{rectangle(0, 0, 10, 10), rectangle(10, 0, 20, 10)}
	u, err := Union(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(u) != 1 {
		t.Fatalf("expected 1 contour, got %d", len(u))
	}
	if a := totalArea(u); math.Abs(a-200) > 1e-6 {
		t.Errorf("wrong area %g != 200", a)
	}
	if n := len(u[0]); n != 4 {
		t.Errorf("expected 4 edges after merging collinear lines, got %d", n)
	}
}

func TestUnionNested(t *testing.T) {
	// A counter-clockwise square inside another one is covered completely.
	g := outline.Glyph{rectangle(0, 0, 30, 30), rectangle(10, 10, 20, 20)}
	u, err := Union(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(u) != 1 {
		t.Fatalf("expected 1 contour, got %d", len(u))
	}

	// A clockwise square inside is a hole and must be kept.
	g = outline.Glyph{rectangle(0, 0, 30, 30), rectangle(10, 10, 20, 20).Reverse()}
	u, err = Union(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(u) != 2 {
		t.Fatalf("expected 2 contours, got %d", len(u))
	}
	if a := totalArea(u); math.Abs(a-800) > 1e-6 {
		t.Errorf("wrong area %g != 800", a)
	}
}

func TestUnionCircles(t *testing.T) {
	g := outline.Glyph{circle(0, 0, 50), circle(10, 0, 50)}
	u, err := Union(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(u) != 1 {
		t.Fatalf("expected 1 contour, got %d", len(u))
	}

	// area of the union of two discs with distance d between the centres
	r, d := 50.0, 10.0
	lens := 2*r*r*math.Acos(d/(2*r)) - d/2*math.Sqrt(4*r*r-d*d)
	want := 2*math.Pi*r*r - lens
	if a := totalArea(u); math.Abs(a-want) > 0.005*want {
		t.Errorf("wrong area %g != %g", a, want)
	}

	for _, c := range u {
		for _, s := range c {
			if s.Op != outline.Cube && s.Op != outline.Line {
				t.Errorf("unexpected segment type %s", s.Op)
			}
		}
	}
}

func TestUnionDuplicates(t *testing.T) {
	square := rectangle(0, 0, 50, 50)
	shifted := append(outline.Contour{}, square[2:]...)
	shifted = append(shifted, square[:2]...)

	cases := []struct {
		name      string
		g         outline.Glyph
		contours  int
		wantArea  float64
		tolerance float64
	}{
		{"squares", outline.Glyph{square, square}, 1, 2500, 1e-6},
		{"shifted start", outline.Glyph{square, shifted}, 1, 2500, 1e-6},
		{"clockwise squares", outline.Glyph{square.Reverse(), square.Reverse()}, 1, -2500, 1e-6},
		{"circles", outline.Glyph{circle(0, 0, 100), circle(0, 0, 100)}, 1, math.Pi * 1e4, 0.005 * math.Pi * 1e4},
		{"rings", outline.Glyph{
			circle(0, 0, 100), circle(0, 0, 50).Reverse(),
			circle(0, 0, 100), circle(0, 0, 50).Reverse(),
		}, 2, 0.75 * math.Pi * 1e4, 0.005 * math.Pi * 1e4},
	}
	for _, c := range cases {
		u, err := Union(c.g)
		if err != nil {
			t.Errorf("%s: %v", c.name, err)
			continue
		}
		if len(u) != c.contours {
			t.Errorf("%s: expected %d contours, got %d", c.name, c.contours, len(u))
			continue
		}
		if a := totalArea(u); math.Abs(a-c.wantArea) > c.tolerance {
			t.Errorf("%s: wrong area %g != %g", c.name, a, c.wantArea)
		}
	}

	// opposite directions cancel under the non-zero rule
	u, err := Union(outline.Glyph{square, square.Reverse()})
	if err != nil {
		t.Fatal(err)
	}
	if len(u) != 0 {
		t.Errorf("expected no contours, got %d", len(u))
	}
}

func TestOrient(t *testing.T) {
	outer := rectangle(0, 0, 30, 30).Reverse() // clockwise
	hole := rectangle(10, 10, 20, 20)          // counter-clockwise
	g := Orient(outline.Glyph{outer, hole}, true)
	if g[0].SignedArea() <= 0 {
		t.Error("outer contour is not counter-clockwise")
	}
	if g[1].SignedArea() >= 0 {
		t.Error("hole is not clockwise")
	}

	g = Orient(g, false)
	if g[0].SignedArea() >= 0 || g[1].SignedArea() <= 0 {
		t.Error("wrong directions for outerCCW=false")
	}
}

func TestOrientContour(t *testing.T) {
	c := rectangle(0, 0, 10, 10)
	if OrientContour(c, true).SignedArea() >= 0 {
		t.Error("contour is not clockwise")
	}
	if OrientContour(c, false).SignedArea() <= 0 {
		t.Error("contour is not counter-clockwise")
	}
}

func TestWinding(t *testing.T) {
	reg := newRegion(outline.Glyph{rectangle(0, 0, 10, 10)})
	if w := reg.winding(vec.Vec2{X: 5, Y: 5}); w != 1 {
		t.Errorf("wrong winding number %d", w)
	}
	if w := reg.winding(vec.Vec2{X: 15, Y: 5}); w != 0 {
		t.Errorf("wrong winding number %d", w)
	}
	// a quadratic bulge covers points outside the control polygon's chord
	bulge := outline.Contour{
		outline.NewLine(vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 10, Y: 0}),
		outline.NewQuad(vec.Vec2{X: 10, Y: 0}, vec.Vec2{X: 20, Y: 5}, vec.Vec2{X: 10, Y: 10}),
		outline.NewLine(vec.Vec2{X: 10, Y: 10}, vec.Vec2{X: 0, Y: 0}),
	}
	reg = newRegion(outline.Glyph{bulge, bulge})
	if w := reg.winding(vec.Vec2{X: 13, Y: 5}); w != 2 {
		t.Errorf("wrong winding number %d", w)
	}
}
