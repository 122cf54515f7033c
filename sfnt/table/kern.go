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

// ScaleKern returns a copy of the "kern" table with the kerning values of
// all format 0 subtables multiplied by factor.  Both the Microsoft table
// layout (version 0) and the Apple layout (version 1.0) are understood.
// Subtables in other formats cannot be scaled and cause a
// *parser.NotSupportedError.
// https://docs.microsoft.com/en-us/typography/opentype/spec/kern
func ScaleKern(data []byte, factor float64) ([]byte, error) {
	if len(data) < 4 {
		return nil, parser.Invalid("sfnt/kern", "table too short")
	}
	res := slices.Clone(data)

	var numTables, pos int
	apple := binary.BigEndian.Uint16(data) == 1
	if apple {
		if len(data) < 8 {
			return nil, parser.Invalid("sfnt/kern", "table too short")
		}
		numTables = int(binary.BigEndian.Uint32(data[4:]))
		pos = 8
	} else {
		numTables = int(binary.BigEndian.Uint16(data[2:]))
		pos = 4
	}

	for i := range numTables {
		var length, format, hdrLen int
		if apple {
			if pos+8 > len(data) {
				return nil, parser.Invalid("sfnt/kern", "truncated subtable header")
			}
			length = int(binary.BigEndian.Uint32(data[pos:]))
			format = int(data[pos+5])
			hdrLen = 8
		} else {
			if pos+6 > len(data) {
				return nil, parser.Invalid("sfnt/kern", "truncated subtable header")
			}
			length = int(binary.BigEndian.Uint16(data[pos+2:]))
			format = int(data[pos+4])
			hdrLen = 6
		}
		if length < hdrLen || pos+length > len(data) {
			return nil, parser.Invalid("sfnt/kern",
				fmt.Sprintf("subtable %d has invalid length %d", i, length))
		}
		if format != 0 {
			return nil, parser.NotSupported("sfnt/kern",
				fmt.Sprintf("scaling of format %d subtables", format))
		}

		body := res[pos+hdrLen : pos+length]
		if len(body) < 8 {
			return nil, parser.Invalid("sfnt/kern", "truncated format 0 subtable")
		}
		nPairs := int(binary.BigEndian.Uint16(body))
		if 8+6*nPairs > len(body) {
			return nil, parser.Invalid("sfnt/kern", "truncated kerning pairs")
		}
		for k := range nPairs {
			vpos := 8 + 6*k + 4
			v := funit.Int16(binary.BigEndian.Uint16(body[vpos:]))
			binary.BigEndian.PutUint16(body[vpos:], uint16(ScaleInt16(v, factor)))
		}
		pos += length
	}
	return res, nil
}
