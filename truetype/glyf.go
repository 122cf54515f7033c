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

// Package truetype implements reading and writing the "glyf" and "loca"
// tables, and the outline operations which only make sense for quadratic
// TrueType glyphs: decomposing composite glyphs, removing hinting
// instructions, and scaling to a new design grid.
//
// https://learn.microsoft.com/en-us/typography/opentype/spec/glyf
// https://learn.microsoft.com/en-us/typography/opentype/spec/loca
package truetype

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"

	"seehuhn.de/go/fontconv/internal/parser"
)

func tracer() tracing.Trace {
	return tracing.Select("fontconv.truetype")
}

// Glyphs contains the information from a "glyf" table.
// Empty glyphs are represented by nil.
type Glyphs []*Glyph

// Encoded holds the binary data of the "glyf" and "loca" tables.
type Encoded struct {
	GlyfData []byte
	LocaData []byte

	// LocaFormat is the indexToLocFormat value from the "head" table.
	LocaFormat int16
}

// Decode converts the data from the "glyf" and "loca" tables into a slice of
// Glyphs.
func Decode(enc *Encoded) (Glyphs, error) {
	offs, err := decodeLoca(enc)
	if err != nil {
		return nil, err
	}

	numGlyphs := len(offs) - 1
	gg := make(Glyphs, numGlyphs)
	for i := range gg {
		g, err := decodeGlyph(enc.GlyfData[offs[i]:offs[i+1]])
		if err != nil {
			return nil, fmt.Errorf("glyph %d: %w", i, err)
		}
		gg[i] = g
	}
	tracer().Debugf("decoded %d glyphs", numGlyphs)
	return gg, nil
}

// Encode encodes the glyphs into "glyf" and "loca" table data.
func (gg Glyphs) Encode() (*Encoded, error) {
	n := len(gg)
	if n == 0 || n > 0xFFFF {
		return nil, fmt.Errorf("truetype: invalid number of glyphs %d", n)
	}

	var glyfData []byte
	offs := make([]int, n+1)
	for i, g := range gg {
		var err error
		glyfData, err = g.append(glyfData)
		if err != nil {
			return nil, fmt.Errorf("glyph %d: %w", i, err)
		}
		offs[i+1] = len(glyfData)
	}
	locaData, locaFormat := encodeLoca(offs)

	enc := &Encoded{
		GlyfData:   glyfData,
		LocaData:   locaData,
		LocaFormat: locaFormat,
	}
	return enc, nil
}

func decodeLoca(enc *Encoded) ([]int, error) {
	var offs []int
	switch enc.LocaFormat {
	case 0:
		n := len(enc.LocaData)
		if n < 4 || n%2 != 0 {
			return nil, parser.Invalid("sfnt/loca", "invalid table length")
		}
		offs = make([]int, n/2)
		for i := range offs {
			offs[i] = 2 * (int(enc.LocaData[2*i])<<8 | int(enc.LocaData[2*i+1]))
		}
	case 1:
		n := len(enc.LocaData)
		if n < 8 || n%4 != 0 {
			return nil, parser.Invalid("sfnt/loca", "invalid table length")
		}
		offs = make([]int, n/4)
		for i := range offs {
			offs[i] = int(enc.LocaData[4*i])<<24 | int(enc.LocaData[4*i+1])<<16 |
				int(enc.LocaData[4*i+2])<<8 | int(enc.LocaData[4*i+3])
		}
	default:
		return nil, parser.NotSupported("sfnt/loca",
			fmt.Sprintf("loca table format %d", enc.LocaFormat))
	}

	prev := 0
	for _, pos := range offs {
		if pos < prev || pos > len(enc.GlyfData) {
			return nil, parser.Invalid("sfnt/loca", fmt.Sprintf("invalid offset %d", pos))
		}
		prev = pos
	}
	return offs, nil
}

func encodeLoca(offs []int) ([]byte, int16) {
	if offs[len(offs)-1] <= 2*0xFFFF {
		locaData := make([]byte, 2*len(offs))
		for i, off := range offs {
			x := off / 2
			locaData[2*i] = byte(x >> 8)
			locaData[2*i+1] = byte(x)
		}
		return locaData, 0
	}

	locaData := make([]byte, 4*len(offs))
	for i, off := range offs {
		locaData[4*i] = byte(off >> 24)
		locaData[4*i+1] = byte(off >> 16)
		locaData[4*i+2] = byte(off >> 8)
		locaData[4*i+3] = byte(off)
	}
	return locaData, 1
}
