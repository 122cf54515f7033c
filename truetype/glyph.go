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

	"seehuhn.de/go/postscript/funit"

	"seehuhn.de/go/fontconv/internal/parser"
)

// Glyph represents a single glyph in a TrueType font.
type Glyph struct {
	funit.Rect16
	Data any // either SimpleGlyph or CompositeGlyph
}

// CompositeGlyph is a glyph assembled from transformed copies of other
// glyphs.
type CompositeGlyph struct {
	Components   []Component
	Instructions []byte
}

// decodeGlyph decodes a single glyph record.  The result does not retain
// references to data.
func decodeGlyph(data []byte) (*Glyph, error) {
	if len(data) == 0 {
		return nil, nil
	} else if len(data) < 10 {
		return nil, errIncompleteGlyph
	}

	numContours := int16(data[0])<<8 | int16(data[1])
	g := &Glyph{
		Rect16: funit.Rect16{
			LLx: funit.Int16(data[2])<<8 | funit.Int16(data[3]),
			LLy: funit.Int16(data[4])<<8 | funit.Int16(data[5]),
			URx: funit.Int16(data[6])<<8 | funit.Int16(data[7]),
			URy: funit.Int16(data[8])<<8 | funit.Int16(data[9]),
		},
	}
	if numContours >= 0 {
		simple, err := decodeSimple(int(numContours), data[10:])
		if err != nil {
			return nil, err
		}
		g.Data = *simple
	} else {
		comp, err := decodeComposite(data[10:])
		if err != nil {
			return nil, err
		}
		g.Data = *comp
	}
	return g, nil
}

func decodeComposite(data []byte) (*CompositeGlyph, error) {
	components, weHaveInstructions, data, err := ReadComponents(data)
	if err != nil {
		return nil, err
	}

	res := &CompositeGlyph{Components: components}
	if weHaveInstructions && len(data) >= 2 {
		l := int(data[0])<<8 | int(data[1])
		data = data[2:]
		if len(data) > l {
			data = data[:l]
		}
		res.Instructions = append([]byte(nil), data...)
	}
	return res, nil
}

// ReadComponents decodes a sequence of component records, up to and
// including the first record without FlagMoreComponents.  The second
// return value reports whether instructions follow the components, the
// third is the remaining data.
func ReadComponents(data []byte) ([]Component, bool, []byte, error) {
	var components []Component
	weHaveInstructions := false
	for {
		if len(data) < 4 {
			return nil, false, nil, errIncompleteGlyph
		}
		flags := ComponentFlag(data[0])<<8 | ComponentFlag(data[1])
		gid := uint16(data[2])<<8 | uint16(data[3])
		data = data[4:]

		if flags&FlagWeHaveInstructions != 0 {
			weHaveInstructions = true
		}

		n := flags.argsLen()
		if len(data) < n {
			return nil, false, nil, errIncompleteGlyph
		}
		components = append(components, Component{
			Flags:      flags &^ (FlagMoreComponents | FlagWeHaveInstructions),
			GlyphIndex: gid,
			Args:       append([]byte(nil), data[:n]...),
		})
		data = data[n:]

		if flags&FlagMoreComponents == 0 {
			break
		}
	}
	return components, weHaveInstructions, data, nil
}

// AppendComponents appends the binary representation of the component
// records to buf, setting FlagMoreComponents and FlagWeHaveInstructions
// as needed.
func AppendComponents(buf []byte, comps []Component, withInstructions bool) []byte {
	for i, comp := range comps {
		flags := comp.Flags
		if i < len(comps)-1 {
			flags |= FlagMoreComponents
		}
		if withInstructions {
			flags |= FlagWeHaveInstructions
		}
		buf = append(buf,
			byte(flags>>8), byte(flags),
			byte(comp.GlyphIndex>>8), byte(comp.GlyphIndex))
		buf = append(buf, comp.Args...)
	}
	return buf
}

// append appends the binary representation of the glyph, padded to a
// multiple of two bytes.
func (g *Glyph) append(buf []byte) ([]byte, error) {
	if g == nil {
		return buf, nil
	}

	var numContours int
	switch d := g.Data.(type) {
	case SimpleGlyph:
		numContours = d.numContours()
		if numContours > 0x7FFF {
			return nil, errTooManyContours
		}
	case CompositeGlyph:
		numContours = -1
		if len(d.Components) == 0 {
			return nil, errNoComponents
		}
	default:
		return nil, errUnknownGlyphType
	}

	buf = append(buf,
		byte(numContours>>8), byte(numContours),
		byte(g.LLx>>8), byte(g.LLx),
		byte(g.LLy>>8), byte(g.LLy),
		byte(g.URx>>8), byte(g.URx),
		byte(g.URy>>8), byte(g.URy))

	switch d := g.Data.(type) {
	case SimpleGlyph:
		var err error
		buf, err = d.append(buf)
		if err != nil {
			return nil, err
		}
	case CompositeGlyph:
		buf = AppendComponents(buf, d.Components, d.Instructions != nil)
		if d.Instructions != nil {
			l := len(d.Instructions)
			buf = append(buf, byte(l>>8), byte(l))
			buf = append(buf, d.Instructions...)
		}
	}

	if len(buf)%2 != 0 {
		buf = append(buf, 0)
	}
	return buf, nil
}

// Components returns the glyph IDs of the components of a composite glyph,
// or nil if the glyph is simple.
func (g *Glyph) Components() []uint16 {
	if g == nil {
		return nil
	}
	d, ok := g.Data.(CompositeGlyph)
	if !ok {
		return nil
	}
	res := make([]uint16, len(d.Components))
	for i, comp := range d.Components {
		res[i] = comp.GlyphIndex
	}
	return res
}

// IsComposite reports whether g is a composite glyph.
func (g *Glyph) IsComposite() bool {
	if g == nil {
		return false
	}
	_, ok := g.Data.(CompositeGlyph)
	return ok
}

var (
	errIncompleteGlyph  = parser.Invalid("sfnt/glyf", "incomplete glyph")
	errInvalidGlyphData = parser.Invalid("sfnt/glyf", "invalid glyph data")
	errTooManyContours  = errors.New("truetype: too many contours")
	errNoComponents     = errors.New("truetype: composite glyph without components")
	errUnknownGlyphType = errors.New("truetype: unknown glyph type")
)
