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
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"seehuhn.de/go/sfnt/maxp"

	"seehuhn.de/go/fontconv/internal/parser"
	"seehuhn.de/go/fontconv/truetype"
)

// Maxp contains the information from the "maxp" table.
// https://docs.microsoft.com/en-us/typography/opentype/spec/maxp
//
// TTF is nil for version 0.5 tables, as used by CFF-based fonts.
type Maxp = maxp.Info

// MaxpTTF contains the TrueType-specific fields of a version 1.0 "maxp"
// table.
type MaxpTTF = maxp.TTFInfo

// DecodeMaxp decodes the "maxp" table.
func DecodeMaxp(data []byte) (*Maxp, error) {
	info, err := maxp.Read(bytes.NewReader(data))
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, parser.Invalid("sfnt/maxp", "table too short")
	} else if err != nil {
		return nil, parser.Invalid("sfnt/maxp", err.Error())
	}
	return info, nil
}

// EncodeMaxp encodes the "maxp" table.  A version 0.5 table is written if
// info.TTF is nil, and a version 1.0 table otherwise.
func EncodeMaxp(info *Maxp) ([]byte, error) {
	if info.NumGlyphs < 1 || info.NumGlyphs > math.MaxUint16 {
		return nil, fmt.Errorf("sfnt/maxp: numGlyphs %d out of range", info.NumGlyphs)
	}
	return info.Encode(), nil
}

// SetMaxpLimits stores glyph complexity limits computed from the glyf
// table.  The values describing the hinting program are not changed.
func SetMaxpLimits(ttf *MaxpTTF, l truetype.Limits) {
	u := func(x int) uint16 { return uint16(min(x, math.MaxUint16)) }
	ttf.MaxPoints = u(l.MaxPoints)
	ttf.MaxContours = u(l.MaxContours)
	ttf.MaxCompositePoints = u(l.MaxCompositePoints)
	ttf.MaxCompositeContours = u(l.MaxCompositeContours)
	ttf.MaxComponentElements = u(l.MaxComponentElements)
	ttf.MaxComponentDepth = u(l.MaxComponentDepth)
	ttf.MaxSizeOfInstructions = u(l.MaxSizeOfInstructions)
}

// ClearMaxpHinting resets all values which describe the hinting program.
func ClearMaxpHinting(ttf *MaxpTTF) {
	ttf.MaxZones = 1
	ttf.MaxTwilightPoints = 0
	ttf.MaxStorage = 0
	ttf.MaxFunctionDefs = 0
	ttf.MaxInstructionDefs = 0
	ttf.MaxStackElements = 0
	ttf.MaxSizeOfInstructions = 0
}
