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

// Package sanitize repairs the contours of PostScript glyph outlines.
//
// Three passes are applied to every glyph, always in the same order:
// contours with an area below a threshold are removed, overlapping
// contours are merged, and the contour directions are normalized so that
// outer contours run counter-clockwise and holes run clockwise.
package sanitize

import (
	"errors"
	"fmt"
	"math"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/schuko/tracing"

	"seehuhn.de/go/fontconv/outline"
	"seehuhn.de/go/fontconv/pathops"
)

// tracer traces with key 'fontconv.sanitize'
func tracer() tracing.Trace {
	return tracing.Select("fontconv.sanitize")
}

// DefaultMinArea is the default minimal area of a contour, in font units.
const DefaultMinArea = 25

// ErrMinArea is returned for negative area thresholds.
var ErrMinArea = errors.New("sanitize: minimum area must not be negative")

// Options control the contour sanitizer.
type Options struct {
	// MinArea is the area, in square font units, below which contours are
	// removed.
	MinArea int

	// AddExtremes causes curves to be split at their horizontal and
	// vertical extreme points, for glyphs which are modified.
	AddExtremes bool
}

// Glyph applies the sanitizer to a single glyph outline.  The second
// return value indicates whether the outline was changed.
func Glyph(g outline.Glyph, opt *Options) (outline.Glyph, bool, error) {
	if opt == nil {
		opt = &Options{MinArea: DefaultMinArea}
	}
	if opt.MinArea < 0 {
		return nil, false, ErrMinArea
	}

	h := RemoveTiny(g, float64(opt.MinArea))

	u, err := pathops.Union(h)
	if err != nil {
		return nil, false, err
	}
	u = pathops.Orient(u, true)

	if Equal(g, u) {
		return g, false, nil
	}
	if opt.AddExtremes {
		u = u.AddExtremes()
	}
	return u, true, nil
}

// RemoveTiny returns g without the contours which, on their own, fill an
// area of less than minArea under the non-zero rule.  Open or degenerate
// contours have area zero.
func RemoveTiny(g outline.Glyph, minArea float64) outline.Glyph {
	var res outline.Glyph
	for _, c := range g {
		if FillArea(c) < minArea {
			continue
		}
		res = append(res, c)
	}
	return res
}

// FillArea returns the area covered by the contour c under the non-zero
// rule.  For a contour without self-intersections this is the absolute
// value of its signed area.
func FillArea(c outline.Contour) float64 {
	u, err := pathops.Union(outline.Glyph{c})
	if err != nil {
		tracer().Infof("cannot resolve contour, using its net area: %v", err)
		return math.Abs(c.SignedArea())
	}
	var area float64
	for _, d := range pathops.Orient(u, true) {
		area += d.SignedArea()
	}
	return area
}

// Equal reports whether two outlines consist of the same segments.
// An implied closing line and an explicit closing line are treated as
// equal.
func Equal(a, b outline.Glyph) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca := a[i].Closed()
		cb := b[i].Closed()
		if len(ca) != len(cb) {
			return false
		}
		for j := range ca {
			if ca[j] != cb[j] {
				return false
			}
		}
	}
	return true
}

// Glyphs applies the sanitizer to all glyphs in the set.  Modified glyphs
// are replaced in place.  The function returns the sorted names of the
// glyphs which were changed; the result is empty if no glyph needed
// correction.
func Glyphs(set *outline.Set, opt *Options) ([]string, error) {
	altered := treeset.NewWithStringComparator()
	for _, e := range set.Entries() {
		g, changed, err := Glyph(e.Outline, opt)
		if err != nil {
			return nil, fmt.Errorf("glyph %q: %w", e.Name, err)
		}
		if !changed {
			continue
		}
		set.Replace(e.Name, g)
		altered.Add(e.Name)
	}
	tracer().Infof("%d of %d glyphs corrected", altered.Size(), set.Len())

	res := make([]string, 0, altered.Size())
	for _, v := range altered.Values() {
		res = append(res, v.(string))
	}
	return res, nil
}
