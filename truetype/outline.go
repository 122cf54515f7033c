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

package truetype

import (
	"errors"
	"math"
	"slices"

	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/postscript/funit"

	"seehuhn.de/go/fontconv/outline"
)

// Outline returns the outline of a simple glyph.  Implied on-curve points
// between consecutive off-curve points are made explicit.  Contours with
// fewer than two points carry no outline and are skipped.
func (sg SimpleGlyph) Outline() outline.Glyph {
	var res outline.Glyph
	for _, c := range sg.Contours {
		if len(c) < 2 {
			continue
		}
		if oc := contourOutline(c); len(oc) > 0 {
			res = append(res, oc)
		}
	}
	return res
}

func contourOutline(c Contour) outline.Contour {
	type pt struct {
		v       vec.Vec2
		onCurve bool
	}
	seq := make([]pt, 0, len(c)+2)
	first := slices.IndexFunc(c, func(p Point) bool { return p.OnCurve })
	if first < 0 {
		// all points are off-curve
		a, b := c[len(c)-1], c[0]
		seq = append(seq, pt{vec.Vec2{
			X: (float64(a.X) + float64(b.X)) / 2,
			Y: (float64(a.Y) + float64(b.Y)) / 2,
		}, true})
		first = 0
	}
	for k := range c {
		p := c[(first+k)%len(c)]
		seq = append(seq, pt{vec.Vec2{X: float64(p.X), Y: float64(p.Y)}, p.OnCurve})
	}
	seq = append(seq, seq[0])

	var res outline.Contour
	emit := func(s outline.Segment) {
		if !s.IsDegenerate() {
			res = append(res, s)
		}
	}
	cur := seq[0].v
	var ctrl vec.Vec2
	haveCtrl := false
	for _, p := range seq[1:] {
		switch {
		case p.onCurve && haveCtrl:
			emit(outline.NewQuad(cur, ctrl, p.v))
			cur = p.v
			haveCtrl = false
		case p.onCurve:
			emit(outline.NewLine(cur, p.v))
			cur = p.v
		case haveCtrl:
			mid := ctrl.Add(p.v).Mul(0.5)
			emit(outline.NewQuad(cur, ctrl, mid))
			cur = mid
			ctrl = p.v
		default:
			ctrl = p.v
			haveCtrl = true
		}
	}

	// the final line back to the start point is implied
	if k := len(res) - 1; k >= 0 && res[k].Op == outline.Line {
		res = res[:k]
	}
	return res
}

// ErrNotQuadratic is returned by FromOutline if the outline contains cubic
// Bézier segments.
var ErrNotQuadratic = errors.New("truetype: outline contains cubic segments")

// FromOutline converts a glyph outline made of lines and quadratic Bézier
// segments into TrueType contours.  Coordinates are rounded to integers.
// On-curve points which lie exactly halfway between two off-curve points
// are omitted.
func FromOutline(o outline.Glyph) ([]Contour, error) {
	var res []Contour
	for _, oc := range o {
		if len(oc) == 0 {
			continue
		}
		pts := Contour{roundPoint(oc.Start(), true)}
		for _, s := range oc {
			switch s.Op {
			case outline.Line:
				pts = append(pts, roundPoint(s.P[1], true))
			case outline.Quad:
				pts = append(pts, roundPoint(s.P[1], false), roundPoint(s.P[2], true))
			default:
				return nil, ErrNotQuadratic
			}
		}
		pts = simplifyContour(pts)
		if len(pts) >= 2 {
			res = append(res, pts)
		}
	}
	return res, nil
}

func roundPoint(p vec.Vec2, onCurve bool) Point {
	return Point{
		X:       funit.Int16(clampInt16(int(math.Round(p.X)))),
		Y:       funit.Int16(clampInt16(int(math.Round(p.Y)))),
		OnCurve: onCurve,
	}
}

// simplifyContour removes repeated on-curve points, the closing point, and
// implied on-curve points.
func simplifyContour(pts Contour) Contour {
	// the last point duplicates the start point, if the contour is closed
	if n := len(pts); n > 1 && pts[n-1] == pts[0] {
		pts = pts[:n-1]
	}

	dedup := pts[:0:0]
	for i, p := range pts {
		if i > 0 && p.OnCurve && dedup[len(dedup)-1] == p {
			continue
		}
		dedup = append(dedup, p)
	}
	for len(dedup) > 1 && dedup[len(dedup)-1] == dedup[0] {
		dedup = dedup[:len(dedup)-1]
	}

	n := len(dedup)
	if n < 3 {
		return dedup
	}
	keep := make([]bool, n)
	kept := 0
	for i, p := range dedup {
		prev, next := dedup[(i+n-1)%n], dedup[(i+1)%n]
		keep[i] = !p.OnCurve || prev.OnCurve || next.OnCurve ||
			2*int(p.X) != int(prev.X)+int(next.X) ||
			2*int(p.Y) != int(prev.Y)+int(next.Y)
		if keep[i] {
			kept++
		}
	}
	if kept == n {
		return dedup
	}
	res := make(Contour, 0, kept)
	for i, p := range dedup {
		if keep[i] {
			res = append(res, p)
		}
	}
	return res
}
