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

// Package outline implements a format independent representation of glyph
// outlines.
//
// A glyph is a list of closed contours.  Each contour is a chain of line,
// quadratic and cubic Bézier segments, where every segment starts at the
// end point of its predecessor.  If the last segment of a contour does not
// end at the start of the first segment, the contour is closed by an
// implied straight line.
package outline

import (
	"honnef.co/go/curve"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Op describes the kind of a path segment.
type Op uint8

// These are the supported segment types.
const (
	Line Op = iota + 1
	Quad
	Cube
)

// Degree returns the polynomial degree of the segment type.
// This is also the index of the segment's end point in Segment.P.
func (op Op) Degree() int {
	return int(op)
}

func (op Op) String() string {
	switch op {
	case Line:
		return "line"
	case Quad:
		return "quad"
	case Cube:
		return "cube"
	default:
		return "invalid"
	}
}

// Segment is a line or a Bézier curve.
type Segment struct {
	Op Op

	// P holds the start point, the control points and the end point.
	// Only the first Op.Degree()+1 entries are used.
	P [4]vec.Vec2
}

// NewLine returns a straight line segment from a to b.
func NewLine(a, b vec.Vec2) Segment {
	return Segment{Op: Line, P: [4]vec.Vec2{a, b}}
}

// NewQuad returns a quadratic Bézier segment.
func NewQuad(a, b, c vec.Vec2) Segment {
	return Segment{Op: Quad, P: [4]vec.Vec2{a, b, c}}
}

// NewCube returns a cubic Bézier segment.
func NewCube(a, b, c, d vec.Vec2) Segment {
	return Segment{Op: Cube, P: [4]vec.Vec2{a, b, c, d}}
}

// Start returns the start point of the segment.
func (s Segment) Start() vec.Vec2 {
	return s.P[0]
}

// End returns the end point of the segment.
func (s Segment) End() vec.Vec2 {
	return s.P[s.Op.Degree()]
}

// At evaluates the segment at parameter t ∈ [0, 1].
func (s Segment) At(t float64) vec.Vec2 {
	u := 1 - t
	p := s.P
	switch s.Op {
	case Line:
		return p[0].Mul(u).Add(p[1].Mul(t))
	case Quad:
		return p[0].Mul(u * u).Add(p[1].Mul(2 * u * t)).Add(p[2].Mul(t * t))
	default:
		return p[0].Mul(u * u * u).
			Add(p[1].Mul(3 * u * u * t)).
			Add(p[2].Mul(3 * u * t * t)).
			Add(p[3].Mul(t * t * t))
	}
}

// Derivative returns the derivative of the segment at parameter t.
func (s Segment) Derivative(t float64) vec.Vec2 {
	u := 1 - t
	p := s.P
	switch s.Op {
	case Line:
		return p[1].Sub(p[0])
	case Quad:
		return p[1].Sub(p[0]).Mul(2 * u).Add(p[2].Sub(p[1]).Mul(2 * t))
	default:
		return p[1].Sub(p[0]).Mul(3 * u * u).
			Add(p[2].Sub(p[1]).Mul(6 * u * t)).
			Add(p[3].Sub(p[2]).Mul(3 * t * t))
	}
}

// Split divides the segment at parameter t using de Casteljau's algorithm.
func (s Segment) Split(t float64) (Segment, Segment) {
	n := s.Op.Degree()
	var tmp [4]vec.Vec2
	copy(tmp[:], s.P[:n+1])

	left := Segment{Op: s.Op}
	right := Segment{Op: s.Op}
	left.P[0] = tmp[0]
	right.P[n] = tmp[n]
	for k := 1; k <= n; k++ {
		for i := 0; i <= n-k; i++ {
			tmp[i] = lerp(tmp[i], tmp[i+1], t)
		}
		left.P[k] = tmp[0]
		right.P[n-k] = tmp[n-k]
	}
	return left, right
}

// Sub returns the part of the segment between the parameters t0 < t1.
func (s Segment) Sub(t0, t1 float64) Segment {
	if t0 > 0 {
		_, s = s.Split(t0)
		t1 = (t1 - t0) / (1 - t0)
	}
	if t1 < 1 {
		s, _ = s.Split(t1)
	}
	return s
}

// Reverse returns the segment traversed in the opposite direction.
func (s Segment) Reverse() Segment {
	n := s.Op.Degree()
	res := Segment{Op: s.Op}
	for i := 0; i <= n; i++ {
		res.P[i] = s.P[n-i]
	}
	return res
}

// Transform applies the affine transformation M to all points of the segment.
func (s Segment) Transform(M matrix.Matrix) Segment {
	res := Segment{Op: s.Op}
	for i := 0; i <= s.Op.Degree(); i++ {
		res.P[i] = Apply(M, s.P[i])
	}
	return res
}

// Bounds returns the bounding box of the control polygon.
// This always contains the segment itself.
func (s Segment) Bounds() rect.Rect {
	p := s.P[0]
	b := rect.Rect{LLx: p.X, LLy: p.Y, URx: p.X, URy: p.Y}
	for _, p := range s.P[1 : s.Op.Degree()+1] {
		b.LLx = min(b.LLx, p.X)
		b.LLy = min(b.LLy, p.Y)
		b.URx = max(b.URx, p.X)
		b.URy = max(b.URy, p.Y)
	}
	return b
}

// IsDegenerate reports whether all points of the segment coincide.
func (s Segment) IsDegenerate() bool {
	for _, p := range s.P[1 : s.Op.Degree()+1] {
		if p != s.P[0] {
			return false
		}
	}
	return true
}

// Flatten appends points along the segment to buf, such that the polyline
// through the start point and the appended points deviates from the segment
// by at most tol.  The start point itself is not appended.
func (s Segment) Flatten(buf []vec.Vec2, tol float64) []vec.Vec2 {
	if s.Op == Line || s.IsDegenerate() || !(tol > 0) {
		return append(buf, s.End())
	}
	start := curve.MoveTo(Pt(s.P[0]))
	path := func(yield func(curve.PathElement) bool) {
		_ = yield(start) && yield(s.Element())
	}
	for el := range curve.Flatten(path, tol) {
		if el.Kind == curve.LineToKind {
			buf = append(buf, Vec(el.P0))
		}
	}
	return buf
}

// Contour is a closed chain of segments.
type Contour []Segment

// Start returns the first point of the contour.
func (c Contour) Start() vec.Vec2 {
	if len(c) == 0 {
		return vec.Vec2{}
	}
	return c[0].P[0]
}

// IsClosed reports whether the last segment ends at the start point.
func (c Contour) IsClosed() bool {
	return len(c) > 0 && c[len(c)-1].End() == c[0].P[0]
}

// Closed returns the contour with an explicit closing line, if needed.
func (c Contour) Closed() Contour {
	if len(c) == 0 || c.IsClosed() {
		return c
	}
	res := make(Contour, len(c), len(c)+1)
	copy(res, c)
	return append(res, NewLine(c[len(c)-1].End(), c[0].P[0]))
}

// Reverse returns the contour traversed in the opposite direction.
// The start point is preserved.
func (c Contour) Reverse() Contour {
	c = c.Closed()
	res := make(Contour, len(c))
	for i, s := range c {
		res[len(c)-1-i] = s.Reverse()
	}
	return res
}

// Transform applies an affine transformation to every segment.
func (c Contour) Transform(M matrix.Matrix) Contour {
	res := make(Contour, len(c))
	for i, s := range c {
		res[i] = s.Transform(M)
	}
	return res
}

// Flatten returns a closed polygon approximating the contour.
// The first point is not repeated at the end.
func (c Contour) Flatten(tol float64) []vec.Vec2 {
	if len(c) == 0 {
		return nil
	}
	var pp []vec.Vec2
	for el := range curve.Flatten(c.Elements(), tol) {
		switch el.Kind {
		case curve.MoveToKind, curve.LineToKind:
			pp = append(pp, Vec(el.P0))
		}
	}
	return pp[:len(pp)-1]
}

// FlattenTolerance is the tolerance used for area computations.
const FlattenTolerance = 0.1

// SignedArea returns the area enclosed by the contour, computed with the
// shoelace formula over the flattened contour.  The area is positive for
// counter-clockwise contours.
func (c Contour) SignedArea() float64 {
	return PolygonArea(c.Flatten(FlattenTolerance))
}

// PolygonArea returns the signed area of a closed polygon.
// Positive means counter-clockwise.
func PolygonArea(pp []vec.Vec2) float64 {
	n := len(pp)
	var area float64
	for i := range n {
		j := (i + 1) % n
		area += pp[i].X*pp[j].Y - pp[j].X*pp[i].Y
	}
	return area / 2
}

// Bounds returns a bounding box of the contour.
func (c Contour) Bounds() rect.Rect {
	var b rect.Rect
	for i, s := range c {
		if i == 0 {
			b = s.Bounds()
		} else {
			b = unionRect(b, s.Bounds())
		}
	}
	return b
}

// Glyph is the outline of a glyph.
type Glyph []Contour

// Transform applies an affine transformation to all contours.
func (g Glyph) Transform(M matrix.Matrix) Glyph {
	if g == nil {
		return nil
	}
	res := make(Glyph, len(g))
	for i, c := range g {
		res[i] = c.Transform(M)
	}
	return res
}

// Reverse reverses the direction of all contours.
func (g Glyph) Reverse() Glyph {
	if g == nil {
		return nil
	}
	res := make(Glyph, len(g))
	for i, c := range g {
		res[i] = c.Reverse()
	}
	return res
}

// Bounds returns a bounding box for the glyph outline.
// The result is the zero rectangle for empty glyphs.
func (g Glyph) Bounds() rect.Rect {
	var b rect.Rect
	first := true
	for _, c := range g {
		if len(c) == 0 {
			continue
		}
		if first {
			b = c.Bounds()
			first = false
		} else {
			b = unionRect(b, c.Bounds())
		}
	}
	return b
}

// NumSegments returns the total number of segments in the glyph.
func (g Glyph) NumSegments() int {
	n := 0
	for _, c := range g {
		n += len(c)
	}
	return n
}

// Apply maps the point p using the affine transformation M.
func Apply(M matrix.Matrix, p vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: M[0]*p.X + M[2]*p.Y + M[4],
		Y: M[1]*p.X + M[3]*p.Y + M[5],
	}
}

func unionRect(a, b rect.Rect) rect.Rect {
	return rect.Rect{
		LLx: min(a.LLx, b.LLx),
		LLy: min(a.LLy, b.LLy),
		URx: max(a.URx, b.URx),
		URy: max(a.URy, b.URy),
	}
}

func lerp(a, b vec.Vec2, t float64) vec.Vec2 {
	return a.Add(b.Sub(a).Mul(t))
}
