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

// Package makefont provides fonts for use in unit tests.
package makefont

import (
	"bytes"
	"encoding/binary"
	"slices"

	"golang.org/x/image/font/gofont/goregular"
	"seehuhn.de/go/postscript/funit"

	"seehuhn.de/go/fontconv/sfnt/header"
	"seehuhn.de/go/fontconv/sfnt/table"
	"seehuhn.de/go/fontconv/truetype"
)

// GoRegular returns the Go Regular font, with TrueType outlines in SFNT
// format.
func GoRegular() []byte {
	return slices.Clone(goregular.TTF)
}

// SquaresNames lists the glyph names of the font returned by [Squares].
var SquaresNames = []string{".notdef", "square", "overlap", "double"}

// Squares returns a small TrueType font in SFNT format.  The glyphs are
//
//   - an empty .notdef glyph,
//   - "square", a hinted square,
//   - "overlap", two overlapping squares and a contour of area 16,
//   - "double", a composite glyph made of two copies of "square".
//
// The font has hinting tables and a "kern" table, and 1000 units per em.
func Squares() []byte {
	square := truetype.NewSimpleGlyph([]truetype.Contour{
		box(100, 0, 600, 600),
	}, []byte{0xB0, 0x01, 0x21})
	overlap := truetype.NewSimpleGlyph([]truetype.Contour{
		box(0, 0, 400, 400),
		box(200, 200, 600, 600),
		box(700, 700, 704, 704),
	}, nil)
	double := &truetype.Glyph{
		Rect16: funit.Rect16{LLx: 100, LLy: 0, URx: 1300, URy: 600},
		Data: truetype.CompositeGlyph{
			Components: []truetype.Component{
				offsetComponent(1, 0, 0),
				offsetComponent(1, 700, 0),
			},
		},
	}
	gg := truetype.Glyphs{nil, square, overlap, double}

	enc, err := gg.Encode()
	if err != nil {
		panic(err)
	}

	head := &table.Head{
		FontRevision:     0x00010000,
		Flags:            0x0003 | table.HeadFlagInstructionsAlterAdvance,
		UnitsPerEm:       1000,
		IndexToLocFormat: enc.LocaFormat,
	}
	var lsb []funit.Int16
	for i, g := range gg {
		if g == nil {
			lsb = append(lsb, 0)
			continue
		}
		lsb = append(lsb, g.LLx)
		if i == 1 {
			head.FontBBox = g.Rect16
			continue
		}
		head.FontBBox.LLx = min(head.FontBBox.LLx, g.LLx)
		head.FontBBox.LLy = min(head.FontBBox.LLy, g.LLy)
		head.FontBBox.URx = max(head.FontBBox.URx, g.URx)
		head.FontBBox.URy = max(head.FontBBox.URy, g.URy)
	}

	hmtx := &table.Hmtx{
		Widths: []uint16{500, 700, 800, 1400},
		LSB:    lsb,
	}
	hhea := &table.Hhea{
		Ascent:         800,
		Descent:        -200,
		CaretSlopeRise: 1,
	}
	hmtxData, numLong := hmtx.Encode()
	hhea.NumOfLongHorMetrics = numLong
	hmtx.UpdateHhea(hhea, bboxes(gg))

	maxp := &table.Maxp{
		NumGlyphs: len(gg),
		TTF: &table.MaxpTTF{
			MaxZones:         1,
			MaxStackElements: 16,
			MaxFunctionDefs:  1,
		},
	}
	table.SetMaxpLimits(maxp.TTF, gg.Limits())
	maxpData, err := table.EncodeMaxp(maxp)
	if err != nil {
		panic(err)
	}

	post := &table.Post{
		UnderlinePosition:  -100,
		UnderlineThickness: 50,
		Names:              SquaresNames,
	}
	postData, err := post.Encode()
	if err != nil {
		panic(err)
	}

	tables := map[string][]byte{
		"head": head.Encode(),
		"hhea": hhea.Encode(),
		"hmtx": hmtxData,
		"maxp": maxpData,
		"post": postData,
		"glyf": enc.GlyfData,
		"loca": enc.LocaData,
		"kern": kernTable(1, 3, -50),
		"fpgm": {0xB0, 0x00, 0x2C, 0x2D},
		"prep": {0xB0, 0x00, 0x21},
		"cvt ": {0x00, 0x64, 0x02, 0x58},
	}
	return write(header.ScalerTypeTrueType, tables)
}

// WithTable returns a copy of the SFNT font data with the given table
// added or replaced.
func WithTable(data []byte, tag string, body []byte) []byte {
	font, err := header.Read(data)
	if err != nil {
		panic(err)
	}
	font.Tables[tag] = body
	return write(font.ScalerType, font.Tables)
}

// Variable returns a version of [Squares] with an "fvar" table.
func Variable() []byte {
	return WithTable(Squares(), "fvar", make([]byte, 16))
}

func write(scalerType uint32, tables map[string][]byte) []byte {
	buf := &bytes.Buffer{}
	_, err := header.Write(buf, scalerType, tables)
	if err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// box returns a clockwise rectangular contour.
func box(llx, lly, urx, ury funit.Int16) truetype.Contour {
	return truetype.Contour{
		{X: llx, Y: lly, OnCurve: true},
		{X: llx, Y: ury, OnCurve: true},
		{X: urx, Y: ury, OnCurve: true},
		{X: urx, Y: lly, OnCurve: true},
	}
}

func offsetComponent(gid uint16, dx, dy int16) truetype.Component {
	args := binary.BigEndian.AppendUint16(nil, uint16(dx))
	args = binary.BigEndian.AppendUint16(args, uint16(dy))
	return truetype.Component{
		Flags:      truetype.FlagArg1And2AreWords | truetype.FlagArgsAreXYValues,
		GlyphIndex: gid,
		Args:       args,
	}
}

func bboxes(gg truetype.Glyphs) []funit.Rect16 {
	res := make([]funit.Rect16, len(gg))
	for i, g := range gg {
		if g != nil {
			res[i] = g.Rect16
		}
	}
	return res
}

// kernTable returns a version 0 "kern" table with a single kerning pair.
func kernTable(left, right uint16, value int16) []byte {
	var body []byte
	body = binary.BigEndian.AppendUint16(body, 1) // nPairs
	body = binary.BigEndian.AppendUint16(body, 6) // searchRange
	body = binary.BigEndian.AppendUint16(body, 0) // entrySelector
	body = binary.BigEndian.AppendUint16(body, 0) // rangeShift
	body = binary.BigEndian.AppendUint16(body, left)
	body = binary.BigEndian.AppendUint16(body, right)
	body = binary.BigEndian.AppendUint16(body, uint16(value))

	var data []byte
	data = binary.BigEndian.AppendUint16(data, 0) // version
	data = binary.BigEndian.AppendUint16(data, 1) // nTables
	data = binary.BigEndian.AppendUint16(data, 0) // subtable version
	data = binary.BigEndian.AppendUint16(data, uint16(6+len(body)))
	data = append(data, 0, 1) // format 0, horizontal
	return append(data, body...)
}
