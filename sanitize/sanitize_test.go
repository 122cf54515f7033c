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

package sanitize

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/fontconv/outline"
)

func square(x, y, size float64) outline.Contour {
	b := &outline.Builder{}
	b.MoveTo(x, y)
	b.LineTo(x+size, y)
	b.LineTo(x+size, y+size)
	b.LineTo(x, y+size)
	b.LineTo(x, y)
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

func TestTwoCircles(t *testing.T) {
	g := outline.Glyph{circle(0, 0, 50), circle(10, 0, 50)}
	h, changed, err := Glyph(g, &Options{MinArea: 25})
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("overlapping circles not reported as changed")
	}
	if len(h) != 1 {
		t.Fatalf("expected one contour, got %d", len(h))
	}
	if h[0].SignedArea() <= 0 {
		t.Error("outer contour is not counter-clockwise")
	}
}

func TestTinyContour(t *testing.T) {
	big := square(0, 0, 100)
	tiny := square(200, 200, 4) // area 16
	g := outline.Glyph{big, tiny}

	h, changed, err := Glyph(g, &Options{MinArea: 25})
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("removal not reported")
	}
	if len(h) != 1 {
		t.Fatalf("expected one contour, got %d", len(h))
	}
	if a := h[0].SignedArea(); math.Abs(a-10000) > 1e-6 {
		t.Errorf("remaining fill region changed: area %g", a)
	}

	// a threshold of zero keeps everything
	h, _, err = Glyph(g, &Options{MinArea: 0})
	if err != nil {
		t.Fatal(err)
	}
	if len(h) != 2 {
		t.Errorf("expected two contours, got %d", len(h))
	}
}

func TestUnchanged(t *testing.T) {
	g := outline.Glyph{square(0, 0, 100), square(20, 20, 50).Reverse()}
	h, changed, err := Glyph(g, nil)
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("clean glyph reported as changed")
	}
	if d := cmp.Diff(g, h); d != "" {
		t.Errorf("glyph modified (-want +got):\n%s", d)
	}
}

func TestWrongDirection(t *testing.T) {
	g := outline.Glyph{square(0, 0, 100).Reverse()}
	h, changed, err := Glyph(g, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !changed || h[0].SignedArea() <= 0 {
		t.Error("clockwise outer contour was not reversed")
	}
}

func TestGlyphs(t *testing.T) {
	set := outline.NewSet()
	entries := []*outline.Entry{
		{Name: "o", Width: 600, Outline: outline.Glyph{circle(0, 0, 50), circle(10, 0, 50)}},
		{Name: "l", Width: 300, Outline: outline.Glyph{square(0, 0, 100)}},
		{Name: "dot", Width: 300, Outline: outline.Glyph{square(0, 0, 100), square(300, 0, 2)}},
		{Name: "space", Width: 250},
	}
	for _, e := range entries {
		if err := set.Add(e); err != nil {
			t.Fatal(err)
		}
	}

	names, err := Glyphs(set, &Options{MinArea: DefaultMinArea})
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{"dot", "o"}, names); d != "" {
		t.Errorf("wrong altered glyphs (-want +got):\n%s", d)
	}
	e, _ := set.Get("o")
	if len(e.Outline) != 1 || e.Width != 600 {
		t.Errorf("glyph o not updated correctly")
	}

	names, err = Glyphs(set, &Options{MinArea: DefaultMinArea})
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 {
		t.Errorf("second pass altered %v", names)
	}
}

func TestNegativeArea(t *testing.T) {
	_, _, err := Glyph(outline.Glyph{square(0, 0, 10)}, &Options{MinArea: -1})
	if !errors.Is(err, ErrMinArea) {
		t.Errorf("expected ErrMinArea, got %v", err)
	}
}

func polygon(xy ...float64) outline.Contour {
	b := &outline.Builder{}
	b.MoveTo(xy[0], xy[1])
	for i := 2; i+1 < len(xy); i += 2 {
		b.LineTo(xy[i], xy[i+1])
	}
	b.LineTo(xy[0], xy[1])
	return b.Glyph()[0]
}

func TestFigureEight(t *testing.T) {
	// two triangles of area 2500 each, with net signed area zero
	eight := polygon(0, 0, 100, 100, 100, 0, 0, 100)
	if a := eight.SignedArea(); math.Abs(a) > 1e-6 {
		t.Fatalf("unexpected net area %g", a)
	}
	if a := FillArea(eight); math.Abs(a-5000) > 1e-6 {
		t.Errorf("wrong fill area %g != 5000", a)
	}
	if len(RemoveTiny(outline.Glyph{eight}, 25)) != 1 {
		t.Error("figure eight was removed")
	}

	h, changed, err := Glyph(outline.Glyph{eight}, &Options{MinArea: 25})
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("self-intersecting contour not reported as changed")
	}
	var total float64
	for _, c := range h {
		a := c.SignedArea()
		if a <= 0 {
			t.Errorf("contour with area %g is not counter-clockwise", a)
		}
		total += a
	}
	if math.Abs(total-5000) > 1e-6 {
		t.Errorf("fill region changed: area %g != 5000", total)
	}
}

func TestDuplicateContours(t *testing.T) {
	cases := []outline.Glyph{
		{square(0, 0, 50), square(0, 0, 50)},
		{circle(0, 0, 100), circle(0, 0, 100)},
	}
	for i, g := range cases {
		h, changed, err := Glyph(g, &Options{MinArea: 25})
		if err != nil {
			t.Fatal(err)
		}
		if !changed {
			t.Errorf("%d: duplicate not reported as changed", i)
		}
		if len(h) != 1 {
			t.Errorf("%d: expected one contour, got %d", i, len(h))
			continue
		}
		if h[0].SignedArea() <= 0 {
			t.Errorf("%d: contour is not counter-clockwise", i)
		}
	}
}
