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
	"seehuhn.de/go/postscript/funit"
	"seehuhn.de/go/sfnt/glyf"
)

// SimpleGlyph is a glyph described by its own contours.
type SimpleGlyph struct {
	Contours     []Contour
	Instructions []byte
}

// A Point is a point in a glyph outline.
type Point struct {
	X, Y    funit.Int16
	OnCurve bool
}

// A Contour describes a connected part of a glyph outline.  The contour is
// closed implicitly.
type Contour []Point

func (sg SimpleGlyph) numContours() int {
	n := 0
	for _, c := range sg.Contours {
		if len(c) > 0 {
			n++
		}
	}
	return n
}

// NumPoints returns the total number of points in all contours.
func (sg SimpleGlyph) NumPoints() int {
	n := 0
	for _, c := range sg.Contours {
		n += len(c)
	}
	return n
}

// NewSimpleGlyph returns a glyph with the given contours.  The bounding box
// is computed from the points.  Nil is returned for glyphs without points.
func NewSimpleGlyph(contours []Contour, instructions []byte) *Glyph {
	sg := SimpleGlyph{Contours: contours, Instructions: instructions}
	if sg.NumPoints() == 0 && len(instructions) == 0 {
		return nil
	}
	return &Glyph{Rect16: sg.bbox(), Data: sg}
}

func (sg SimpleGlyph) bbox() funit.Rect16 {
	var bbox funit.Rect16
	first := true
	for _, c := range sg.Contours {
		for _, pt := range c {
			if first || pt.X < bbox.LLx {
				bbox.LLx = pt.X
			}
			if first || pt.X > bbox.URx {
				bbox.URx = pt.X
			}
			if first || pt.Y < bbox.LLy {
				bbox.LLy = pt.Y
			}
			if first || pt.Y > bbox.URy {
				bbox.URy = pt.Y
			}
			first = false
		}
	}
	return bbox
}

// decodeSimple decodes the data of a simple glyph, following the glyph
// header.  The point data is unpacked by seehuhn.de/go/sfnt/glyf.
func decodeSimple(numContours int, buf []byte) (*SimpleGlyph, error) {
	if len(buf) < 2*numContours+2 {
		return nil, errIncompleteGlyph
	}
	prev := -1
	for i := range numContours {
		end := int(buf[2*i])<<8 | int(buf[2*i+1])
		if end < prev {
			return nil, errInvalidGlyphData
		}
		prev = end
	}

	enc := glyf.SimpleGlyph{NumContours: int16(numContours), Encoded: buf}
	u, err := enc.Unpack()
	if err != nil {
		return nil, errIncompleteGlyph
	}

	cc := make([]Contour, len(u.Contours))
	for i, c := range u.Contours {
		contour := make(Contour, len(c))
		for j, pt := range c {
			contour[j] = Point{X: pt.X, Y: pt.Y, OnCurve: pt.OnCurve}
		}
		cc[i] = contour
	}
	return &SimpleGlyph{Contours: cc, Instructions: u.Instructions}, nil
}

// append appends the encoded glyph data, after the glyph header.
// Empty contours are omitted.
func (sg SimpleGlyph) append(buf []byte) ([]byte, error) {
	if len(sg.Instructions) > 0xFFFF {
		return nil, errInvalidGlyphData
	}

	u := &glyf.SimpleUnpacked{Instructions: sg.Instructions}
	totalPoints := 0
	for _, c := range sg.Contours {
		if len(c) == 0 {
			continue
		}
		totalPoints += len(c)
		if totalPoints > 0xFFFF {
			return nil, errInvalidGlyphData
		}
		contour := make(glyf.Contour, len(c))
		for j, pt := range c {
			contour[j] = glyf.Point{X: pt.X, Y: pt.Y, OnCurve: pt.OnCurve}
		}
		u.Contours = append(u.Contours, contour)
	}
	return append(buf, u.Pack().Encoded...), nil
}
