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

// Package curves converts glyph outlines between quadratic and cubic
// Bézier curves.
//
// Quadratic curves are converted to cubic curves exactly, optionally merging
// smooth runs of quadratic segments into fewer cubics.  Cubic curves are
// approximated by quadratic splines, using the smallest number of pieces
// which keeps the error below the given tolerance.  Both directions are
// deterministic: the same input always gives the same output.
//
// The curve fitting is done by the honnef.co/go/curve package.
package curves

import (
	"errors"
	"math"

	"github.com/npillmayer/schuko/tracing"
	"honnef.co/go/curve"

	"seehuhn.de/go/fontconv/outline"
)

// tracer traces with key 'fontconv.curves'
func tracer() tracing.Trace {
	return tracing.Select("fontconv.curves")
}

// MaxQuadratics is the maximal number of quadratic segments used to
// approximate a single cubic segment.
const MaxQuadratics = 16

// ErrTolerance is returned when the error tolerance is not a positive number.
var ErrTolerance = errors.New("curves: tolerance must be positive")

func checkTolerance(tol float64) error {
	if !(tol > 0) || math.IsInf(tol, 1) {
		return ErrTolerance
	}
	return nil
}

// CubicToQuadratic replaces every cubic segment in g by a sequence of
// quadratic segments which deviate from the cubic by at most tol.
// Lines and quadratic segments are copied unchanged.
func CubicToQuadratic(g outline.Glyph, tol float64) (outline.Glyph, error) {
	if err := checkTolerance(tol); err != nil {
		return nil, err
	}
	if g == nil {
		return nil, nil
	}

	res := make(outline.Glyph, len(g))
	for i, c := range g {
		var out outline.Contour
		for _, s := range c {
			if s.Op != outline.Cube {
				out = append(out, s)
				continue
			}
			out = append(out, CubeToQuads(s, tol)...)
		}
		res[i] = out
	}
	return res, nil
}

// CubeToQuads approximates the cubic segment s by a quadratic spline.
//
// Two candidates are considered: the tangent preserving spline found by
// curve.CubicBez.ApproxQuadSpline, and an equal parameter split whose
// piece count follows in closed form from the third difference of the
// control points.  The candidate with fewer pieces is used, preferring the
// spline on ties.  If both need more than MaxQuadratics pieces, the cubic is
// split into MaxQuadratics pieces and the resulting error is reported.
func CubeToQuads(s outline.Segment, tol float64) []outline.Segment {
	cb := s.PathSegment().Cubic()

	nSplit := splitCount(cb, tol)
	if nSplit == 1 {
		return splitQuads(s, cb, tol)
	}
	spline, ok := cb.ApproxQuadSpline(tol)
	if ok && len(spline)-2 <= min(nSplit, MaxQuadratics) {
		return splineQuads(s, spline)
	}
	if nSplit <= MaxQuadratics {
		return splitQuads(s, cb, tol)
	}

	res := splitQuads(s, cb, capTolerance(cb))
	tracer().Infof("cubic %v needs more than %d quadratics, error is %.3g instead of %g",
		s.P, MaxQuadratics, MaxDeviation([]outline.Segment{s}, res), tol)
	return res
}

// QuadCount returns the number of quadratic segments CubeToQuads uses
// for the cubic segment s.
func QuadCount(s outline.Segment, tol float64) int {
	return len(CubeToQuads(s, tol))
}

// thirdDiff returns the error of the best single quadratic approximation
// for the equal parameter split, scaled by √432 = 36/√3.
func thirdDiff(cb curve.CubicBez) float64 {
	p1x2 := outline.Vec(cb.P1).Mul(3).Sub(outline.Vec(cb.P0))
	p2x2 := outline.Vec(cb.P2).Mul(3).Sub(outline.Vec(cb.P3))
	return p2x2.Sub(p1x2).Length()
}

// splitCount returns the number of pieces curve.CubicBez.Quadratics
// produces for the given accuracy.
func splitCount(cb curve.CubicBez, tol float64) int {
	d := thirdDiff(cb) / math.Sqrt(432)
	return max(int(math.Ceil(math.Cbrt(d/tol))), 1)
}

// capTolerance returns an accuracy for which the equal parameter split
// uses exactly MaxQuadratics pieces.
func capTolerance(cb curve.CubicBez) float64 {
	d := thirdDiff(cb) / math.Sqrt(432)
	return d / (MaxQuadratics * MaxQuadratics * MaxQuadratics) * (1 + 1e-9)
}

func splitQuads(s outline.Segment, cb curve.CubicBez, tol float64) []outline.Segment {
	var res []outline.Segment
	for q := range cb.Quadratics(tol) {
		res = append(res, outline.FromPathSegment(q.Segment.Seg()))
	}
	return snapEnds(s, res)
}

func splineQuads(s outline.Segment, spline curve.QuadBSpline) []outline.Segment {
	var res []outline.Segment
	for q := range spline.Quads() {
		res = append(res, outline.FromPathSegment(q.Seg()))
	}
	return snapEnds(s, res)
}

// snapEnds makes sure that the pieces start and end exactly at the end
// points of the original segment s.
func snapEnds(s outline.Segment, pieces []outline.Segment) []outline.Segment {
	if len(pieces) == 0 {
		return pieces
	}
	pieces[0].P[0] = s.Start()
	last := &pieces[len(pieces)-1]
	last.P[last.Op.Degree()] = s.End()
	return pieces
}

// QuadraticToCubic replaces every quadratic segment in g by a cubic segment.
// The conversion is exact.  Afterwards, runs of consecutive curves which
// join smoothly are re-fitted with fewer cubics, whenever the new curves
// stay within distance tol of the original curves.
func QuadraticToCubic(g outline.Glyph, tol float64) (outline.Glyph, error) {
	if err := checkTolerance(tol); err != nil {
		return nil, err
	}
	if g == nil {
		return nil, nil
	}

	res := make(outline.Glyph, len(g))
	for i, c := range g {
		res[i] = mergeCubics(elevate(c), tol)
	}
	return res, nil
}

// Elevate converts a quadratic segment into the equivalent cubic segment.
// Other segment types are returned unchanged.
func Elevate(s outline.Segment) outline.Segment {
	if s.Op != outline.Quad {
		return s
	}
	c := outline.FromPathSegment(s.PathSegment().Quad().Raise().Seg())
	c.P[0] = s.P[0]
	c.P[3] = s.P[2]
	return c
}

func elevate(c outline.Contour) outline.Contour {
	res := make(outline.Contour, len(c))
	for i, s := range c {
		res[i] = Elevate(s)
	}
	return res
}

// mergeCubics re-fits maximal runs of smoothly joining cubic segments.
func mergeCubics(c outline.Contour, tol float64) outline.Contour {
	var out outline.Contour
	i := 0
	for i < len(c) {
		if !isRegular(c[i]) {
			out = append(out, c[i])
			i++
			continue
		}
		j := i + 1
		for j < len(c) && isRegular(c[j]) && isSmooth(c[j-1], c[j]) {
			j++
		}
		out = append(out, fitRun(c[i:j], tol)...)
		i = j
	}
	return out
}

// isRegular reports whether s is a cubic with non-zero end tangents.
func isRegular(s outline.Segment) bool {
	return s.Op == outline.Cube && s.P[1] != s.P[0] && s.P[2] != s.P[3]
}

// smoothSin is the largest sine of the angle between the incoming and
// outgoing tangents at a smooth join.
const smoothSin = 0.05

func isSmooth(a, b outline.Segment) bool {
	t0 := a.P[3].Sub(a.P[2])
	t1 := b.P[1].Sub(b.P[0])
	l0 := t0.Length()
	l1 := t1.Length()
	if l0 == 0 || l1 == 0 {
		return false
	}
	cross := t0.X*t1.Y - t0.Y*t1.X
	inner := t0.X*t1.X + t0.Y*t1.Y
	return inner > 0 && math.Abs(cross) <= smoothSin*l0*l1
}

// fitRun re-fits a run of cubic segments using curve.Simplify.  The new
// curves are used if they have fewer segments than the run and stay within
// tol of the run.  Otherwise the run is returned unchanged.
func fitRun(run []outline.Segment, tol float64) []outline.Segment {
	if len(run) < 2 {
		return run
	}

	var path curve.BezPath
	path.MoveTo(outline.Pt(run[0].P[0]))
	for _, s := range run {
		path.Push(s.Element())
	}

	opt := curve.SimplifyOptions{AngleThresh: smoothSin, OptLevel: curve.Subdivide}
	var fitted []outline.Segment
	for seg := range curve.Segments(curve.Simplify(path.Elements(), tol/2, opt)) {
		fitted = append(fitted, outline.FromPathSegment(seg))
	}
	if len(fitted) == 0 || len(fitted) >= len(run) {
		return run
	}
	fitted[0].P[0] = run[0].P[0]
	for k := 1; k < len(fitted); k++ {
		fitted[k].P[0] = fitted[k-1].End()
	}
	last := &fitted[len(fitted)-1]
	last.P[last.Op.Degree()] = run[len(run)-1].End()

	if MaxDeviation(run, fitted) > tol || MaxDeviation(fitted, run) > tol {
		return run
	}
	return fitted
}

// samplesPerSegment is the number of points per segment used to measure
// the distance between curves.
const samplesPerSegment = 8

// nearestAccuracy is the accuracy used for nearest point searches.
const nearestAccuracy = 1e-3

// MaxDeviation returns an estimate of the largest distance between the
// two segment sequences a and b, which must describe curves with the same
// end points.  Sample points on a are projected onto the closest point of b.
func MaxDeviation(a, b []outline.Segment) float64 {
	bb := make([]curve.PathSegment, len(b))
	for i, s := range b {
		bb[i] = s.PathSegment()
	}
	var worst float64
	for _, s := range a {
		for k := 0; k <= samplesPerSegment; k++ {
			p := outline.Pt(s.At(float64(k) / samplesPerSegment))
			best := math.Inf(1)
			for _, seg := range bb {
				d2, _ := seg.Nearest(p, nearestAccuracy)
				best = min(best, d2)
			}
			worst = max(worst, best)
		}
	}
	return math.Sqrt(worst)
}
