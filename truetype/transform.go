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
	"math"

	"seehuhn.de/go/postscript/funit"
)

// RemoveInstructions returns the glyphs with all hinting instructions
// removed, and the number of glyphs which were changed.
func (gg Glyphs) RemoveInstructions() (Glyphs, int) {
	res := make(Glyphs, len(gg))
	changed := 0
	for i, g := range gg {
		res[i] = g
		if g == nil {
			continue
		}
		switch d := g.Data.(type) {
		case SimpleGlyph:
			if len(d.Instructions) > 0 {
				res[i] = &Glyph{Rect16: g.Rect16, Data: SimpleGlyph{Contours: d.Contours}}
				changed++
			}
		case CompositeGlyph:
			if d.Instructions != nil {
				res[i] = &Glyph{Rect16: g.Rect16, Data: CompositeGlyph{Components: d.Components}}
				changed++
			}
		}
	}
	return res, changed
}

// Scale returns the glyphs with all coordinates multiplied by factor.
// Component offsets are scaled as well; point matching anchors and
// component transformation matrices are unchanged.
func (gg Glyphs) Scale(factor float64) Glyphs {
	s := func(x funit.Int16) funit.Int16 {
		return funit.Int16(clampInt16(int(math.Round(float64(x) * factor))))
	}

	res := make(Glyphs, len(gg))
	for i, g := range gg {
		if g == nil {
			continue
		}
		switch d := g.Data.(type) {
		case SimpleGlyph:
			cc := make([]Contour, len(d.Contours))
			for j, c := range d.Contours {
				cc[j] = make(Contour, len(c))
				for k, p := range c {
					cc[j][k] = Point{X: s(p.X), Y: s(p.Y), OnCurve: p.OnCurve}
				}
			}
			sg := SimpleGlyph{Contours: cc, Instructions: d.Instructions}
			res[i] = &Glyph{Rect16: sg.bbox(), Data: sg}
		case CompositeGlyph:
			comps := make([]Component, len(d.Components))
			for j, c := range d.Components {
				comps[j] = c
				p, err := c.Placement()
				if err != nil || p.AlignPoints {
					continue
				}
				dx, dy := unscaledOffset(c)
				comps[j] = c.withOffset(
					int(math.Round(float64(dx)*factor)),
					int(math.Round(float64(dy)*factor)))
			}
			res[i] = &Glyph{
				Rect16: funit.Rect16{LLx: s(g.LLx), LLy: s(g.LLy), URx: s(g.URx), URy: s(g.URy)},
				Data:   CompositeGlyph{Components: comps, Instructions: d.Instructions},
			}
		}
	}
	return res
}

// unscaledOffset returns the raw x/y offset arguments of a component.
func unscaledOffset(c Component) (int, int) {
	if c.Flags&FlagArg1And2AreWords != 0 {
		return int(int16(uint16(c.Args[0])<<8 | uint16(c.Args[1]))),
			int(int16(uint16(c.Args[2])<<8 | uint16(c.Args[3])))
	}
	return int(int8(c.Args[0])), int(int8(c.Args[1]))
}

// Limits summarises glyph complexity, as recorded in the "maxp" table.
type Limits struct {
	MaxPoints             int
	MaxContours           int
	MaxCompositePoints    int
	MaxCompositeContours  int
	MaxComponentElements  int
	MaxComponentDepth     int
	MaxSizeOfInstructions int
}

// Limits computes the maxima over all glyphs.
func (gg Glyphs) Limits() Limits {
	var res Limits

	type info struct {
		points, contours, depth int
	}
	memo := make(map[int]info)
	active := make(map[int]bool)
	var visit func(gid int) info
	visit = func(gid int) info {
		if r, ok := memo[gid]; ok {
			return r
		}
		if gid >= len(gg) || active[gid] || gg[gid] == nil {
			return info{}
		}
		active[gid] = true
		defer delete(active, gid)

		var r info
		switch d := gg[gid].Data.(type) {
		case SimpleGlyph:
			r = info{points: d.NumPoints(), contours: len(d.Contours)}
		case CompositeGlyph:
			for _, c := range d.Components {
				sub := visit(int(c.GlyphIndex))
				r.points += sub.points
				r.contours += sub.contours
				r.depth = max(r.depth, sub.depth+1)
			}
		}
		memo[gid] = r
		return r
	}

	for gid, g := range gg {
		if g == nil {
			continue
		}
		switch d := g.Data.(type) {
		case SimpleGlyph:
			res.MaxPoints = max(res.MaxPoints, d.NumPoints())
			res.MaxContours = max(res.MaxContours, len(d.Contours))
			res.MaxSizeOfInstructions = max(res.MaxSizeOfInstructions, len(d.Instructions))
		case CompositeGlyph:
			r := visit(gid)
			res.MaxCompositePoints = max(res.MaxCompositePoints, r.points)
			res.MaxCompositeContours = max(res.MaxCompositeContours, r.contours)
			res.MaxComponentElements = max(res.MaxComponentElements, len(d.Components))
			res.MaxComponentDepth = max(res.MaxComponentDepth, r.depth)
			res.MaxSizeOfInstructions = max(res.MaxSizeOfInstructions, len(d.Instructions))
		}
	}
	return res
}
