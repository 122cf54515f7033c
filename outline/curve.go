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
	"iter"

	"honnef.co/go/curve"
	"seehuhn.de/go/geom/vec"
)

// Pt converts a vector to a curve point.
func Pt(p vec.Vec2) curve.Point {
	return curve.Pt(p.X, p.Y)
}

// Vec converts a curve point to a vector.
func Vec(p curve.Point) vec.Vec2 {
	return vec.Vec2{X: p.X, Y: p.Y}
}

// PathSegment returns the segment as a curve.PathSegment.
func (s Segment) PathSegment() curve.PathSegment {
	switch s.Op {
	case Quad:
		return curve.QuadBez{P0: Pt(s.P[0]), P1: Pt(s.P[1]), P2: Pt(s.P[2])}.Seg()
	case Cube:
		return curve.CubicBez{P0: Pt(s.P[0]), P1: Pt(s.P[1]), P2: Pt(s.P[2]), P3: Pt(s.P[3])}.Seg()
	default:
		return curve.Line{P0: Pt(s.P[0]), P1: Pt(s.P[1])}.Seg()
	}
}

// FromPathSegment converts a curve.PathSegment back into a Segment.
func FromPathSegment(seg curve.PathSegment) Segment {
	switch seg.Kind {
	case curve.QuadKind:
		return NewQuad(Vec(seg.P0), Vec(seg.P1), Vec(seg.P2))
	case curve.CubicKind:
		return NewCube(Vec(seg.P0), Vec(seg.P1), Vec(seg.P2), Vec(seg.P3))
	default:
		return NewLine(Vec(seg.P0), Vec(seg.P1))
	}
}

// Element returns the path element which continues a path from the start
// point of s along s.
func (s Segment) Element() curve.PathElement {
	switch s.Op {
	case Quad:
		return curve.QuadTo(Pt(s.P[1]), Pt(s.P[2]))
	case Cube:
		return curve.CubicTo(Pt(s.P[1]), Pt(s.P[2]), Pt(s.P[3]))
	default:
		return curve.LineTo(Pt(s.P[1]))
	}
}

// Elements iterates over the contour as a closed curve path.
func (c Contour) Elements() iter.Seq[curve.PathElement] {
	return func(yield func(curve.PathElement) bool) {
		if len(c) == 0 {
			return
		}
		if !yield(curve.MoveTo(Pt(c[0].P[0]))) {
			return
		}
		for _, s := range c.Closed() {
			if !yield(s.Element()) {
				return
			}
		}
		yield(curve.ClosePath())
	}
}

// Segments iterates over the segments of the closed contour.
func (c Contour) Segments() iter.Seq[curve.PathSegment] {
	return func(yield func(curve.PathSegment) bool) {
		for _, s := range c.Closed() {
			if !yield(s.PathSegment()) {
				return
			}
		}
	}
}

// Winding returns the winding number of the closed contour around p.
// Counter-clockwise contours give positive values.
func (c Contour) Winding(p vec.Vec2) int {
	return curve.SegmentsWinding(c.Segments(), Pt(p))
}
