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

// Package pathops implements boolean operations on glyph outlines.
//
// Union computes the outline of the region covered by a glyph under the
// non-zero fill rule.  The result consists of non-overlapping contours
// which have the filled region on their left: outer contours run
// counter-clockwise and holes run clockwise.
//
// The algorithm splits all segments at their mutual intersections,
// classifies every resulting piece by evaluating the winding number just
// left and right of it, and then chains the boundary pieces into closed
// contours.
package pathops

import (
	"errors"
	"math"
	"slices"

	"github.com/npillmayer/schuko/tracing"
	"honnef.co/go/curve"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/fontconv/outline"
)

// tracer traces with key 'fontconv.pathops'
func tracer() tracing.Trace {
	return tracing.Select("fontconv.pathops")
}

// ErrUnstable is returned if the boundary pieces of a union could not be
// assembled into closed contours.
var ErrUnstable = errors.New("pathops: numerically unstable outline")

const (
	// snapDist is the distance in font units below which an intersection
	// point is moved onto a nearby segment end point.
	snapDist = 1e-3

	// sideDist is the distance from a piece at which the winding number
	// is evaluated.
	sideDist = 0.02

	// windingTol is the flattening tolerance used to locate interior points.
	windingTol = 0.002
)

// piece is part of an input segment.  For kept pieces, fill is the
// winding number on the filled side.
type piece struct {
	seg     outline.Segment
	contour int
	keep    bool
	flip    bool
	fill    int
}

// Union returns contours which describe the region filled by g under the
// non-zero winding rule, without any overlaps.
//
// Contours which do not intersect any other contour are returned unchanged
// (including their direction) if they lie on the boundary of the filled
// region and nothing else covers their filled side, and are omitted if
// they lie inside or outside the filled region.  Coincident contours are
// merged into one.
func Union(g outline.Glyph) (outline.Glyph, error) {
	var contours []outline.Contour
	for _, c := range g {
		c = dropDegenerate(c.Closed())
		if len(c) > 0 {
			contours = append(contours, c)
		}
	}
	if len(contours) == 0 {
		return nil, nil
	}

	type segRef struct {
		contour, index int
	}
	var refs []segRef
	for ci, c := range contours {
		for si := range c {
			refs = append(refs, segRef{ci, si})
		}
	}
	splits := make([][]split, len(refs))
	for i := range refs {
		a := contours[refs[i].contour][refs[i].index]
		for j := i + 1; j < len(refs); j++ {
			b := contours[refs[j].contour][refs[j].index]
			for _, x := range intersect(a, b) {
				addCrossing(&splits[i], a, x.ta, &splits[j], b, x.tb, x.p)
			}
		}
	}

	reg := newRegion(contours)

	var out outline.Glyph
	var pool []*piece
	k := 0
	for ci, c := range contours {
		var pp []*piece
		wasSplit := false
		for si := range c {
			ss := splitSegment(c[si], splits[k])
			if len(ss) > 1 {
				wasSplit = true
			}
			for _, s := range ss {
				pp = append(pp, classify(s, ci, reg))
			}
			k++
		}

		allKept, allDropped, sameDir, single := true, true, true, true
		for _, p := range pp {
			allKept = allKept && p.keep
			allDropped = allDropped && !p.keep
			sameDir = sameDir && p.flip == pp[0].flip
			single = single && (p.fill == 1 || p.fill == -1)
		}
		switch {
		case !wasSplit && allKept && sameDir && single:
			out = append(out, contours[ci])
		case !wasSplit && allDropped:
			// contour lies inside the filled region or outside of it
		default:
			for _, p := range pp {
				if p.keep {
					pool = append(pool, p)
				}
			}
		}
	}

	if len(pool) > 0 {
		loops, err := chain(dedup(pool))
		if err != nil {
			return nil, err
		}
		out = append(out, loops...)
	}
	tracer().Debugf("union: %d contours in, %d contours out", len(g), len(out))
	return out, nil
}

// split is a point where a segment must be divided.
type split struct {
	t float64
	p vec.Vec2
}

func addCrossing(sa *[]split, a outline.Segment, ta float64, sb *[]split, b outline.Segment, tb float64, p vec.Vec2) {
	// snap intersection points to nearby segment end points
	for _, q := range [4]vec.Vec2{a.Start(), a.End(), b.Start(), b.End()} {
		if p.Sub(q).Length() < snapDist {
			p = q
			break
		}
	}
	if interior(a, ta, p) {
		*sa = append(*sa, split{ta, p})
	}
	if interior(b, tb, p) {
		*sb = append(*sb, split{tb, p})
	}
}

func interior(s outline.Segment, t float64, p vec.Vec2) bool {
	return t > endEps && t < 1-endEps && p != s.Start() && p != s.End()
}

// splitSegment divides s at the given split points.  The end points of the
// pieces are set to the exact split points, so that pieces of different
// segments join exactly.
func splitSegment(s outline.Segment, splits []split) []outline.Segment {
	if len(splits) == 0 {
		return []outline.Segment{s}
	}
	slices.SortFunc(splits, func(a, b split) int {
		switch {
		case a.t < b.t:
			return -1
		case a.t > b.t:
			return 1
		}
		return 0
	})

	var res []outline.Segment
	prevT := 0.0
	prevP := s.Start()
	for _, sp := range splits {
		if sp.t-prevT < paramEps || sp.p.Sub(prevP).Length() < snapDist {
			continue
		}
		piece := s.Sub(prevT, sp.t)
		piece.P[0] = prevP
		piece.P[piece.Op.Degree()] = sp.p
		res = append(res, piece)
		prevT = sp.t
		prevP = sp.p
	}
	piece := s.Sub(prevT, 1)
	piece.P[0] = prevP
	piece.P[piece.Op.Degree()] = s.End()
	if prevP.Sub(s.End()).Length() < snapDist && len(res) > 0 {
		// merge a tiny last piece into its predecessor
		last := &res[len(res)-1]
		last.P[last.Op.Degree()] = s.End()
	} else {
		res = append(res, piece)
	}
	return res
}

// classify decides whether a piece is part of the boundary of the filled
// region.  Kept pieces are oriented so that the filled region is on their
// left.
func classify(s outline.Segment, contour int, reg region) *piece {
	m := s.At(0.5)
	d := s.Derivative(0.5)
	if d.Length() == 0 {
		d = s.End().Sub(s.Start())
	}
	p := &piece{seg: s, contour: contour}
	if d.Length() == 0 {
		return p
	}
	n := leftNormal(d) // points to the left
	wl := reg.winding(m.Add(n.Mul(sideDist)))
	wr := reg.winding(m.Sub(n.Mul(sideDist)))
	fl := wl != 0
	fr := wr != 0
	p.keep = fl != fr
	p.flip = fr
	if p.flip {
		p.seg = s.Reverse()
		p.fill = wr
	} else {
		p.fill = wl
	}
	return p
}

// region is the area enclosed by a set of closed contours.
type region [][]curve.PathSegment

func newRegion(contours outline.Glyph) region {
	r := make(region, len(contours))
	for i, c := range contours {
		r[i] = slices.Collect(c.Segments())
	}
	return r
}

// winding computes the winding number of the region's contours around p.
func (r region) winding(p vec.Vec2) int {
	pt := outline.Pt(p)
	w := 0
	for _, segs := range r {
		w += curve.SegmentsWinding(slices.Values(segs), pt)
	}
	return w
}

// dedup removes pieces which coincide with an earlier piece.
func dedup(pool []*piece) []*piece {
	type key struct {
		a, m, b [2]int64
	}
	seen := make(map[key]bool)
	var res []*piece
	for _, p := range pool {
		k := key{quant(p.seg.Start()), quant(p.seg.At(0.5)), quant(p.seg.End())}
		if seen[k] {
			continue
		}
		seen[k] = true
		res = append(res, p)
	}
	return res
}

// chain assembles pieces into closed contours.
func chain(pool []*piece) (outline.Glyph, error) {
	starts := make(map[[2]int64][]int)
	for i, p := range pool {
		k := quant(p.seg.Start())
		starts[k] = append(starts[k], i)
	}

	used := make([]bool, len(pool))
	var res outline.Glyph
	for first := range pool {
		if used[first] {
			continue
		}
		used[first] = true
		c := outline.Contour{pool[first].seg}
		startKey := quant(pool[first].seg.Start())
		for {
			cur := c[len(c)-1]
			endKey := quant(cur.End())
			if endKey == startKey {
				break
			}
			next := pickNext(cur, starts[endKey], pool, used)
			if next < 0 {
				tracer().Infof("union: open chain at %v", cur.End())
				return nil, ErrUnstable
			}
			used[next] = true
			s := pool[next].seg
			s.P[0] = cur.End()
			c = append(c, s)
		}
		last := &c[len(c)-1]
		last.P[last.Op.Degree()] = c[0].P[0]
		res = append(res, mergeLines(c))
	}
	return res, nil
}

// pickNext chooses the continuation of a contour at a vertex.  If there is
// more than one candidate, the one turning most to the left is used.
func pickNext(cur outline.Segment, cand []int, pool []*piece, used []bool) int {
	dIn := cur.Derivative(1)
	if dIn.Length() == 0 {
		dIn = cur.End().Sub(cur.Start())
	}
	best := -1
	bestAngle := math.Inf(-1)
	for _, i := range cand {
		if used[i] {
			continue
		}
		s := pool[i].seg
		dOut := s.Derivative(0)
		if dOut.Length() == 0 {
			dOut = s.End().Sub(s.Start())
		}
		angle := math.Atan2(cross(dIn, dOut), dot(dIn, dOut))
		if angle > bestAngle {
			best = i
			bestAngle = angle
		}
	}
	return best
}

// mergeLines joins consecutive collinear line segments.
func mergeLines(c outline.Contour) outline.Contour {
	var res outline.Contour
	for _, s := range c {
		if n := len(res); n > 0 && s.Op == outline.Line && res[n-1].Op == outline.Line {
			prev := res[n-1]
			d1 := prev.P[1].Sub(prev.P[0])
			d2 := s.P[1].Sub(s.P[0])
			if math.Abs(cross(d1, d2)) <= 1e-9*d1.Length()*d2.Length() && dot(d1, d2) > 0 {
				res[n-1] = outline.NewLine(prev.P[0], s.P[1])
				continue
			}
		}
		res = append(res, s)
	}
	return res
}

func dropDegenerate(c outline.Contour) outline.Contour {
	var res outline.Contour
	for _, s := range c {
		if !s.IsDegenerate() {
			res = append(res, s)
		}
	}
	return res
}

func quant(p vec.Vec2) [2]int64 {
	return [2]int64{int64(math.Round(p.X * 1024)), int64(math.Round(p.Y * 1024))}
}
