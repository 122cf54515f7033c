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
	"slices"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/fontconv/outline"
)

// crossing is an intersection between two segments.
type crossing struct {
	ta, tb float64
	p      vec.Vec2
}

const (
	// paramEps is the parameter distance below which split points are merged.
	paramEps = 1e-6

	// endEps is the parameter distance below which an intersection is moved
	// to the segment end point.
	endEps = 1e-7

	// pointEps is the distance in font units below which points are
	// considered equal.
	pointEps = 1e-6

	// bboxEps is the size of a bounding box small enough to count as an
	// intersection point during subdivision.
	bboxEps = 1e-5

	maxDepth          = 64
	maxPairCrossings  = 9
	maxClusterEntries = 64
)

// intersect finds all intersections between the segments a and b.
func intersect(a, b outline.Segment) []crossing {
	if !overlaps(a.Bounds(), b.Bounds()) {
		return nil
	}
	if a.Op == outline.Line && b.Op == outline.Line {
		return intersectLines(a, b)
	}
	if sameCurve(a, b) {
		return nil
	}

	var raw []crossing
	subdivide(a, 0, 1, b, 0, 1, 0, &raw)
	if len(raw) > maxClusterEntries*maxPairCrossings {
		// The curves overlap along an interval.
		return nil
	}
	res := cluster(raw, a, b)
	if len(res) > maxPairCrossings {
		return nil
	}
	return res
}

func subdivide(a outline.Segment, a0, a1 float64, b outline.Segment, b0, b1 float64, depth int, res *[]crossing) {
	if len(*res) > maxClusterEntries*maxPairCrossings {
		return
	}
	ba := a.Bounds()
	bb := b.Bounds()
	if !overlaps(ba, bb) {
		return
	}
	sa := max(ba.URx-ba.LLx, ba.URy-ba.LLy)
	sb := max(bb.URx-bb.LLx, bb.URy-bb.LLy)
	if (sa < bboxEps && sb < bboxEps) || depth >= maxDepth {
		ta := (a0 + a1) / 2
		tb := (b0 + b1) / 2
		*res = append(*res, crossing{ta: ta, tb: tb})
		return
	}

	if sa >= sb {
		l, r := a.Split(0.5)
		am := (a0 + a1) / 2
		subdivide(l, a0, am, b, b0, b1, depth+1, res)
		subdivide(r, am, a1, b, b0, b1, depth+1, res)
	} else {
		l, r := b.Split(0.5)
		bm := (b0 + b1) / 2
		subdivide(a, a0, a1, l, b0, bm, depth+1, res)
		subdivide(a, a0, a1, r, bm, b1, depth+1, res)
	}
}

// cluster merges candidate intersections which belong to the same
// intersection point.
func cluster(raw []crossing, a, b outline.Segment) []crossing {
	if len(raw) == 0 {
		return nil
	}
	slices.SortFunc(raw, func(x, y crossing) int {
		switch {
		case x.ta < y.ta:
			return -1
		case x.ta > y.ta:
			return 1
		case x.tb < y.tb:
			return -1
		case x.tb > y.tb:
			return 1
		}
		return 0
	})

	var res []crossing
	start := 0
	for i := 1; i <= len(raw); i++ {
		if i < len(raw) &&
			raw[i].ta-raw[i-1].ta < 1e-4 && math.Abs(raw[i].tb-raw[i-1].tb) < 1e-4 {
			continue
		}
		group := raw[start:i]
		mid := group[len(group)/2]
		pa := a.At(mid.ta)
		pb := b.At(mid.tb)
		res = append(res, crossing{
			ta: mid.ta,
			tb: mid.tb,
			p:  pa.Add(pb).Mul(0.5),
		})
		start = i
	}
	return res
}

func intersectLines(a, b outline.Segment) []crossing {
	p := a.P[0]
	r := a.P[1].Sub(p)
	q := b.P[0]
	s := b.P[1].Sub(q)

	denom := cross(r, s)
	qp := q.Sub(p)
	if math.Abs(denom) <= 1e-12*r.Length()*s.Length() {
		if math.Abs(cross(qp, r)) > 1e-9*max(r.Length(), 1) {
			return nil // parallel
		}
		return collinearOverlap(a, b)
	}

	t := cross(qp, s) / denom
	u := cross(qp, r) / denom
	if t < -endEps || t > 1+endEps || u < -endEps || u > 1+endEps {
		return nil
	}
	t = max(0, min(1, t))
	u = max(0, min(1, u))
	return []crossing{{ta: t, tb: u, p: p.Add(r.Mul(t))}}
}

// collinearOverlap splits two collinear lines at each other's end points.
func collinearOverlap(a, b outline.Segment) []crossing {
	var res []crossing
	project := func(s outline.Segment, p vec.Vec2) float64 {
		d := s.P[1].Sub(s.P[0])
		l2 := dot(d, d)
		if l2 == 0 {
			return math.NaN()
		}
		return dot(p.Sub(s.P[0]), d) / l2
	}
	for _, p := range []vec.Vec2{b.P[0], b.P[1]} {
		t := project(a, p)
		if t > endEps && t < 1-endEps {
			u := project(b, p)
			res = append(res, crossing{ta: t, tb: u, p: p})
		}
	}
	for _, p := range []vec.Vec2{a.P[0], a.P[1]} {
		u := project(b, p)
		if u > endEps && u < 1-endEps {
			t := project(a, p)
			res = append(res, crossing{ta: t, tb: u, p: p})
		}
	}
	return res
}

func sameCurve(a, b outline.Segment) bool {
	if a.Op != b.Op {
		return false
	}
	if a == b {
		return true
	}
	return a == b.Reverse()
}

func overlaps(a, b rect.Rect) bool {
	return a.LLx <= b.URx+pointEps && b.LLx <= a.URx+pointEps &&
		a.LLy <= b.URy+pointEps && b.LLy <= a.URy+pointEps
}

func cross(a, b vec.Vec2) float64 {
	return a.X*b.Y - a.Y*b.X
}

func dot(a, b vec.Vec2) float64 {
	return a.X*b.X + a.Y*b.Y
}

// leftNormal returns the unit vector pointing to the left of direction d.
func leftNormal(d vec.Vec2) vec.Vec2 {
	l := d.Length()
	return vec.Vec2{X: -d.Y / l, Y: d.X / l}
}
