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
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/fontconv/outline"
)

// OrientContour returns c with the given direction.
func OrientContour(c outline.Contour, clockwise bool) outline.Contour {
	area := c.SignedArea()
	if area == 0 || (area < 0) == clockwise {
		return c
	}
	return c.Reverse()
}

// Orient sets the direction of all contours of a non-overlapping outline,
// as produced by Union.  Contours enclosed by an even number of other
// contours are outer contours and are oriented counter-clockwise if
// outerCCW is set; the remaining contours are holes and get the opposite
// direction.
func Orient(g outline.Glyph, outerCCW bool) outline.Glyph {
	if g == nil {
		return nil
	}
	polys := make([][]vec.Vec2, len(g))
	for i, c := range g {
		polys[i] = c.Flatten(windingTol)
	}

	res := make(outline.Glyph, len(g))
	for i, c := range g {
		depth := 0
		if p, ok := interiorPoint(polys[i]); ok {
			for j, other := range g {
				if j != i && other.Winding(p) != 0 {
					depth++
				}
			}
		}
		isOuter := depth%2 == 0
		res[i] = OrientContour(c, isOuter != outerCCW)
	}
	return res
}

// interiorPoint returns a point near the contour boundary which is covered by
// the contour itself, for use in containment tests.
func interiorPoint(poly []vec.Vec2) (vec.Vec2, bool) {
	n := len(poly)
	if n < 3 {
		return vec.Vec2{}, false
	}
	sign := 1.0
	if outline.PolygonArea(poly) < 0 {
		sign = -1
	}
	for i := range n {
		a := poly[i]
		b := poly[(i+1)%n]
		d := b.Sub(a)
		if d.Length() < 4*sideDist {
			continue
		}
		m := a.Add(d.Mul(0.5))
		// step towards the inside of the contour
		return m.Add(leftNormal(d).Mul(sign * sideDist)), true
	}
	return poly[0], true
}
