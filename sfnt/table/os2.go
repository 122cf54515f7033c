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

package table

import (
	"encoding/binary"
	"fmt"
	"slices"

	"seehuhn.de/go/postscript/funit"

	"seehuhn.de/go/fontconv/internal/parser"
)

// OS2Metrics holds the vertical metrics from the "OS/2" table.
// https://docs.microsoft.com/en-us/typography/opentype/spec/os2
type OS2Metrics struct {
	Version       uint16
	TypoAscender  funit.Int16
	TypoDescender funit.Int16
	TypoLineGap   funit.Int16
	WinAscent     uint16
	WinDescent    uint16

	// XHeight and CapHeight are only present from table version 2 on.
	XHeight   funit.Int16
	CapHeight funit.Int16
}

// byte offsets of fields in the OS/2 table
const (
	os2XAvgCharWidth     = 2
	os2SubscriptXSize    = 10
	os2StrikeoutPosition = 28
	os2TypoAscender      = 68
	os2TypoDescender     = 70
	os2TypoLineGap       = 72
	os2WinAscent         = 74
	os2WinDescent        = 76
	os2XHeight           = 86
	os2CapHeight         = 88

	os2MinLength   = 78
	os2V2MinLength = 96
)

// DecodeOS2Metrics extracts the vertical metrics from an "OS/2" table.
func DecodeOS2Metrics(data []byte) (*OS2Metrics, error) {
	if len(data) < os2MinLength {
		return nil, parser.Invalid("sfnt/OS2", "table too short")
	}
	get := func(pos int) uint16 { return binary.BigEndian.Uint16(data[pos:]) }
	m := &OS2Metrics{
		Version:       get(0),
		TypoAscender:  funit.Int16(get(os2TypoAscender)),
		TypoDescender: funit.Int16(get(os2TypoDescender)),
		TypoLineGap:   funit.Int16(get(os2TypoLineGap)),
		WinAscent:     get(os2WinAscent),
		WinDescent:    get(os2WinDescent),
	}
	if m.Version >= 2 {
		if len(data) < os2V2MinLength {
			return nil, parser.Invalid("sfnt/OS2",
				fmt.Sprintf("table too short for version %d", m.Version))
		}
		m.XHeight = funit.Int16(get(os2XHeight))
		m.CapHeight = funit.Int16(get(os2CapHeight))
	}
	return m, nil
}

// ScaleOS2 returns a copy of the "OS/2" table with all fields measured in
// font units multiplied by factor.  The optical size range is given in
// points and is not changed.
func ScaleOS2(data []byte, factor float64) ([]byte, error) {
	m, err := DecodeOS2Metrics(data)
	if err != nil {
		return nil, err
	}
	res := slices.Clone(data)

	signed := func(pos int) {
		x := funit.Int16(binary.BigEndian.Uint16(res[pos:]))
		binary.BigEndian.PutUint16(res[pos:], uint16(ScaleInt16(x, factor)))
	}
	unsigned := func(pos int) {
		x := binary.BigEndian.Uint16(res[pos:])
		binary.BigEndian.PutUint16(res[pos:], scaleUint16(x, factor))
	}

	signed(os2XAvgCharWidth)
	// subscript, superscript and strikeout sizes and offsets
	for pos := os2SubscriptXSize; pos <= os2StrikeoutPosition; pos += 2 {
		signed(pos)
	}
	signed(os2TypoAscender)
	signed(os2TypoDescender)
	signed(os2TypoLineGap)
	unsigned(os2WinAscent)
	unsigned(os2WinDescent)
	if m.Version >= 2 {
		signed(os2XHeight)
		signed(os2CapHeight)
	}
	return res, nil
}
