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

// Package table decodes and encodes the sfnt tables which change when
// glyph outlines are rewritten: "head", "hhea", "hmtx", "maxp", "post",
// "OS/2", "name" and "kern".
//
// Fields which fontconv does not interpret are carried through unchanged,
// so that decoding and re-encoding a table is lossless.
package table

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"seehuhn.de/go/postscript/funit"

	"seehuhn.de/go/fontconv/internal/parser"
)

// HeadFlagInstructionsAlterAdvance is bit 4 of head.flags: instructions
// may alter advance widths.
const HeadFlagInstructionsAlterAdvance = 1 << 4

// Head contains the information from the "head" table.
// https://docs.microsoft.com/en-us/typography/opentype/spec/head
type Head struct {
	FontRevision  uint32 // 16.16 fixed point
	Flags         uint16
	UnitsPerEm    uint16
	Created       int64 // seconds since 1904-01-01
	Modified      int64
	FontBBox      funit.Rect16
	MacStyle      uint16
	LowestRecPPEM uint16

	FontDirectionHint int16
	IndexToLocFormat  int16 // 0 for short offsets, 1 for long
	GlyphDataFormat   int16
}

const headLength = 54

// DecodeHead decodes the binary representation of the head table.
func DecodeHead(data []byte) (*Head, error) {
	if len(data) < headLength {
		return nil, parser.Invalid("sfnt/head", "table too short")
	}
	enc := &binaryHead{}
	_ = binary.Read(bytes.NewReader(data), binary.BigEndian, enc)

	if enc.Version != 0x00010000 {
		return nil, parser.NotSupported("sfnt/head",
			fmt.Sprintf("table version %08x", enc.Version))
	}
	if enc.MagicNumber != 0x5F0F3CF5 {
		return nil, parser.Invalid("sfnt/head",
			fmt.Sprintf("invalid magic number %08x", enc.MagicNumber))
	}
	if enc.UnitsPerEm < 16 || enc.UnitsPerEm > 16384 {
		return nil, parser.Invalid("sfnt/head",
			fmt.Sprintf("invalid unitsPerEm %d", enc.UnitsPerEm))
	}

	return &Head{
		FontRevision: enc.FontRevision,
		Flags:        enc.Flags,
		UnitsPerEm:   enc.UnitsPerEm,
		Created:      enc.Created,
		Modified:     enc.Modified,
		FontBBox: funit.Rect16{
			LLx: funit.Int16(enc.XMin),
			LLy: funit.Int16(enc.YMin),
			URx: funit.Int16(enc.XMax),
			URy: funit.Int16(enc.YMax),
		},
		MacStyle:          enc.MacStyle,
		LowestRecPPEM:     enc.LowestRecPPEM,
		FontDirectionHint: enc.FontDirectionHint,
		IndexToLocFormat:  enc.IndexToLocFormat,
		GlyphDataFormat:   enc.GlyphDataFormat,
	}, nil
}

// Encode returns the binary representation of the head table.
// The checksum adjustment is left at zero, it is filled in when the
// font file is written.
func (h *Head) Encode() []byte {
	enc := &binaryHead{
		Version:           0x00010000,
		FontRevision:      h.FontRevision,
		MagicNumber:       0x5F0F3CF5,
		Flags:             h.Flags,
		UnitsPerEm:        h.UnitsPerEm,
		Created:           h.Created,
		Modified:          h.Modified,
		XMin:              int16(h.FontBBox.LLx),
		YMin:              int16(h.FontBBox.LLy),
		XMax:              int16(h.FontBBox.URx),
		YMax:              int16(h.FontBBox.URy),
		MacStyle:          h.MacStyle,
		LowestRecPPEM:     h.LowestRecPPEM,
		FontDirectionHint: h.FontDirectionHint,
		IndexToLocFormat:  h.IndexToLocFormat,
		GlyphDataFormat:   h.GlyphDataFormat,
	}
	buf := bytes.NewBuffer(make([]byte, 0, headLength))
	_ = binary.Write(buf, binary.BigEndian, enc)
	return buf.Bytes()
}

type binaryHead struct {
	Version            uint32
	FontRevision       uint32
	CheckSumAdjustment uint32
	MagicNumber        uint32
	Flags              uint16
	UnitsPerEm         uint16
	Created            int64
	Modified           int64

	XMin int16
	YMin int16
	XMax int16
	YMax int16

	MacStyle uint16

	LowestRecPPEM     uint16
	FontDirectionHint int16

	IndexToLocFormat int16
	GlyphDataFormat  int16
}
