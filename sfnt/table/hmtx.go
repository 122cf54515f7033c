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
	"encoding/binary"
	"fmt"
	"math"

	"seehuhn.de/go/postscript/funit"

	"seehuhn.de/go/fontconv/internal/parser"
)

// Hhea contains the information from the "hhea" table.
// https://docs.microsoft.com/en-us/typography/opentype/spec/hhea
type Hhea struct {
	Ascent  funit.Int16
	Descent funit.Int16 // negative
	LineGap funit.Int16

	AdvanceWidthMax     uint16
	MinLeftSideBearing  funit.Int16
	MinRightSideBearing funit.Int16
	XMaxExtent          funit.Int16

	CaretSlopeRise int16
	CaretSlopeRun  int16
	CaretOffset    funit.Int16

	NumOfLongHorMetrics uint16
}

const hheaLength = 36

// DecodeHhea decodes the binary representation of the hhea table.
func DecodeHhea(data []byte) (*Hhea, error) {
	if len(data) < hheaLength {
		return nil, parser.Invalid("sfnt/hhea", "table too short")
	}
	enc := &binaryHhea{}
	_ = binary.Read(bytes.NewReader(data), binary.BigEndian, enc)
	if enc.Version>>16 != 1 {
		return nil, parser.NotSupported("sfnt/hhea",
			fmt.Sprintf("table version %08x", enc.Version))
	}
	if enc.MetricDataFormat != 0 {
		return nil, parser.NotSupported("sfnt/hhea",
			fmt.Sprintf("metric data format %d", enc.MetricDataFormat))
	}
	return &Hhea{
		Ascent:              funit.Int16(enc.Ascent),
		Descent:             funit.Int16(enc.Descent),
		LineGap:             funit.Int16(enc.LineGap),
		AdvanceWidthMax:     enc.AdvanceWidthMax,
		MinLeftSideBearing:  funit.Int16(enc.MinLeftSideBearing),
		MinRightSideBearing: funit.Int16(enc.MinRightSideBearing),
		XMaxExtent:          funit.Int16(enc.XMaxExtent),
		CaretSlopeRise:      enc.CaretSlopeRise,
		CaretSlopeRun:       enc.CaretSlopeRun,
		CaretOffset:         funit.Int16(enc.CaretOffset),
		NumOfLongHorMetrics: enc.NumOfLongHorMetrics,
	}, nil
}

// Encode returns the binary representation of the hhea table.
func (h *Hhea) Encode() []byte {
	enc := &binaryHhea{
		Version:             0x00010000,
		Ascent:              int16(h.Ascent),
		Descent:             int16(h.Descent),
		LineGap:             int16(h.LineGap),
		AdvanceWidthMax:     h.AdvanceWidthMax,
		MinLeftSideBearing:  int16(h.MinLeftSideBearing),
		MinRightSideBearing: int16(h.MinRightSideBearing),
		XMaxExtent:          int16(h.XMaxExtent),
		CaretSlopeRise:      h.CaretSlopeRise,
		CaretSlopeRun:       h.CaretSlopeRun,
		CaretOffset:         int16(h.CaretOffset),
		NumOfLongHorMetrics: h.NumOfLongHorMetrics,
	}
	buf := bytes.NewBuffer(make([]byte, 0, hheaLength))
	_ = binary.Write(buf, binary.BigEndian, enc)
	return buf.Bytes()
}

// Scale multiplies all distances by factor.  The caret slope is a ratio
// and is not affected.
func (h *Hhea) Scale(factor float64) {
	h.Ascent = ScaleInt16(h.Ascent, factor)
	h.Descent = ScaleInt16(h.Descent, factor)
	h.LineGap = ScaleInt16(h.LineGap, factor)
	h.AdvanceWidthMax = scaleUint16(h.AdvanceWidthMax, factor)
	h.MinLeftSideBearing = ScaleInt16(h.MinLeftSideBearing, factor)
	h.MinRightSideBearing = ScaleInt16(h.MinRightSideBearing, factor)
	h.XMaxExtent = ScaleInt16(h.XMaxExtent, factor)
	h.CaretOffset = ScaleInt16(h.CaretOffset, factor)
}

type binaryHhea struct {
	Version             uint32
	Ascent              int16
	Descent             int16
	LineGap             int16
	AdvanceWidthMax     uint16
	MinLeftSideBearing  int16
	MinRightSideBearing int16
	XMaxExtent          int16
	CaretSlopeRise      int16
	CaretSlopeRun       int16
	CaretOffset         int16
	_                   int16
	_                   int16
	_                   int16
	_                   int16
	MetricDataFormat    int16
	NumOfLongHorMetrics uint16
}

// Hmtx contains the advance widths and left side bearings from the "hmtx"
// table, one entry per glyph.
type Hmtx struct {
	Widths []uint16
	LSB    []funit.Int16
}

// DecodeHmtx decodes the hmtx table.  The number of long metrics is taken
// from the hhea table, the number of glyphs from the maxp table.
func DecodeHmtx(data []byte, numLong, numGlyphs int) (*Hmtx, error) {
	if numLong < 1 || numLong > numGlyphs {
		return nil, parser.Invalid("sfnt/hmtx",
			fmt.Sprintf("invalid number of long metrics %d", numLong))
	}
	if len(data) < 4*numLong+2*(numGlyphs-numLong) {
		return nil, parser.Invalid("sfnt/hmtx", "table too short")
	}

	res := &Hmtx{
		Widths: make([]uint16, numGlyphs),
		LSB:    make([]funit.Int16, numGlyphs),
	}
	for i := range numGlyphs {
		if i < numLong {
			res.Widths[i] = binary.BigEndian.Uint16(data[4*i:])
			res.LSB[i] = funit.Int16(binary.BigEndian.Uint16(data[4*i+2:]))
		} else {
			res.Widths[i] = res.Widths[numLong-1]
			pos := 4*numLong + 2*(i-numLong)
			res.LSB[i] = funit.Int16(binary.BigEndian.Uint16(data[pos:]))
		}
	}
	return res, nil
}

// Encode returns the binary representation of the hmtx table, together
// with the number of long metrics to be stored in the hhea table.
func (m *Hmtx) Encode() ([]byte, uint16) {
	numGlyphs := len(m.Widths)
	numLong := numGlyphs
	for numLong > 1 && m.Widths[numLong-1] == m.Widths[numLong-2] {
		numLong--
	}

	buf := make([]byte, 0, 4*numLong+2*(numGlyphs-numLong))
	for i := range numGlyphs {
		if i < numLong {
			buf = binary.BigEndian.AppendUint16(buf, m.Widths[i])
		}
		buf = binary.BigEndian.AppendUint16(buf, uint16(m.LSB[i]))
	}
	return buf, uint16(numLong)
}

// Scale multiplies all widths and side bearings by factor.
func (m *Hmtx) Scale(factor float64) {
	for i := range m.Widths {
		m.Widths[i] = scaleUint16(m.Widths[i], factor)
		m.LSB[i] = ScaleInt16(m.LSB[i], factor)
	}
}

// UpdateHhea recomputes the derived fields of the hhea table from the
// metrics and the given glyph bounding boxes.  Empty glyphs have a zero
// bounding box and are ignored for the side bearing extrema.
func (m *Hmtx) UpdateHhea(h *Hhea, bbox []funit.Rect16) {
	h.AdvanceWidthMax = 0
	for _, w := range m.Widths {
		h.AdvanceWidthMax = max(h.AdvanceWidthMax, w)
	}

	first := true
	for i, b := range bbox {
		if i >= len(m.Widths) || isZeroRect(b) {
			continue
		}
		lsb := m.LSB[i]
		rsb := funit.Int16(clampInt16(int(m.Widths[i]) - int(lsb) - (int(b.URx) - int(b.LLx))))
		ext := funit.Int16(clampInt16(int(lsb) + (int(b.URx) - int(b.LLx))))
		if first {
			h.MinLeftSideBearing, h.MinRightSideBearing, h.XMaxExtent = lsb, rsb, ext
			first = false
			continue
		}
		h.MinLeftSideBearing = min(h.MinLeftSideBearing, lsb)
		h.MinRightSideBearing = min(h.MinRightSideBearing, rsb)
		h.XMaxExtent = max(h.XMaxExtent, ext)
	}
}

// ScaleInt16 multiplies a signed font-unit value by factor, rounding to the
// nearest integer.
func ScaleInt16(x funit.Int16, factor float64) funit.Int16 {
	return funit.Int16(clampInt16(int(math.Round(float64(x) * factor))))
}

func scaleUint16(x uint16, factor float64) uint16 {
	y := math.Round(float64(x) * factor)
	return uint16(min(max(y, 0), math.MaxUint16))
}

func clampInt16(x int) int {
	return min(max(x, math.MinInt16), math.MaxInt16)
}

func isZeroRect(b funit.Rect16) bool {
	return b.LLx == 0 && b.LLy == 0 && b.URx == 0 && b.URy == 0
}
