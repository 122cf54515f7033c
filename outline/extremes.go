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
	"slices"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// extremaEps excludes split points too close to the segment ends.
const extremaEps = 1e-4

// Extrema returns the parameter values in (0, 1), in increasing order,
// where the segment has a horizontal or vertical tangent.
func (s Segment) Extrema() []float64 {
	var tt []float64
	switch s.Op {
	case Quad:
		for _, c := range [2]func(i int) float64{
			func(i int) float64 { return s.P[i].X },
			func(i int) float64 { return s.P[i].Y },
		} {
			den := c(0) - 2*c(1) + c(2)
			if den != 0 {
				tt = append(tt, (c(0)-c(1))/den)
			}
		}
	case Cube:
		for _, c := range [2]func(i int) float64{
			func(i int) float64 { return s.P[i].X },
			func(i int) float64 { return s.P[i].Y },
		} {
			// derivative coefficients: a t² + b t + c
			a := -c(0) + 3*c(1) - 3*c(2) + c(3)
			b := 2 * (c(0) - 2*c(1) + c(2))
			cc := c(1) - c(0)
			tt = append(tt, quadraticRoots(a, b, cc)...)
		}
	}

	res := tt[:0]
	for _, t := range tt {
		if t > extremaEps && t < 1-extremaEps {
			res = append(res, t)
		}
	}
	slices.Sort(res)
	return slices.Compact(res)
}

func quadraticRoots(a, b, c float64) []float64 {
	if math.Abs(a) < 1e-12 {
		if b == 0 {
			return nil
		}
		return []float64{-c / b}
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}
	sq := math.Sqrt(disc)
	return []float64{(-b - sq) / (2 * a), (-b + sq) / (2 * a)}
}

// AddExtremes splits curved segments at their horizontal and vertical
// extreme points, so that every extreme point of the outline is an
// on-curve point.
func (g Glyph) AddExtremes() Glyph {
	if g == nil {
		return nil
	}
	res := make(Glyph, len(g))
	for i, c := range g {
		var out Contour
		for _, s := range c {
			tt := s.Extrema()
			prev := 0.0
			rest := s
			for _, t := range tt {
				u := (t - prev) / (1 - prev)
				var left Segment
				left, rest = rest.Split(u)
				out = append(out, left)
				prev = t
			}
			out = append(out, rest)
		}
		res[i] = out
	}
	return res
}

// TightBounds returns the smallest rectangle which encloses the outline.
// Unlike Bounds, the control points of curves are not included.
func (g Glyph) TightBounds() rect.Rect {
	var b rect.Rect
	first := true
	for _, c := range g.AddExtremes() {
		for _, s := range c {
			for _, p := range [2]vec.Vec2{s.Start(), s.End()} {
				if first {
					b = rect.Rect{LLx: p.X, LLy: p.Y, URx: p.X, URy: p.Y}
					first = false
					continue
				}
				b.LLx = min(b.LLx, p.X)
				b.LLy = min(b.LLy, p.Y)
				b.URx = max(b.URx, p.X)
				b.URy = max(b.URy, p.Y)
			}
		}
	}
	return b
}
