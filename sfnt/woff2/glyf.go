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

package woff2

import (
	"encoding/binary"
	"fmt"

	"seehuhn.de/go/postscript/funit"

	"seehuhn.de/go/fontconv/internal/parser"
	"seehuhn.de/go/fontconv/truetype"
)

const (
	glyfHeaderSize = 36

	optionOverlapSimple = 0x0001
)

// glyfStreams holds the sub-streams of a transformed "glyf" table.
type glyfStreams struct {
	nContour    []byte
	nPoints     []byte
	flags       []byte
	glyphs      []byte
	composite   []byte
	bbox        []byte
	instruction []byte
}

// reconstructGlyf decodes a transformed "glyf" table and re-encodes the
// glyphs as "glyf" and "loca" table data.
func reconstructGlyf(data []byte) (*truetype.Encoded, error) {
	if len(data) < glyfHeaderSize {
		return nil, parser.Invalid("woff2/glyf", "table too short")
	}
	version := binary.BigEndian.Uint16(data[0:])
	optionFlags := binary.BigEndian.Uint16(data[2:])
	numGlyphs := int(binary.BigEndian.Uint16(data[4:]))
	if version != 0 {
		return nil, parser.NotSupported("woff2/glyf",
			fmt.Sprintf("transformed glyf version %d", version))
	}
	if numGlyphs == 0 {
		return nil, parser.Invalid("woff2/glyf", "no glyphs")
	}

	var parts [7][]byte
	pos := glyfHeaderSize
	for i := range parts {
		size := int(binary.BigEndian.Uint32(data[8+4*i:]))
		if size > len(data)-pos {
			return nil, parser.Invalid("woff2/glyf", "stream extends beyond end of table")
		}
		parts[i] = data[pos : pos+size]
		pos += size
	}
	if optionFlags&optionOverlapSimple != 0 && len(data)-pos < (numGlyphs+7)/8 {
		return nil, parser.Invalid("woff2/glyf", "overlap bitmap too short")
	}

	bitmapSize := 4 * ((numGlyphs + 31) / 32)
	if len(parts[5]) < bitmapSize {
		return nil, parser.Invalid("woff2/glyf", "bbox bitmap too short")
	}
	bboxBitmap := parts[5][:bitmapSize]

	nContour := parser.New("woff2/glyf/nContour", parts[0])
	nPoints := parser.New("woff2/glyf/nPoints", parts[1])
	flags := parser.New("woff2/glyf/flags", parts[2])
	glyphs := parser.New("woff2/glyf/glyphs", parts[3])
	composite := parts[4]
	bbox := parser.New("woff2/glyf/bbox", parts[5][bitmapSize:])
	instr := parser.New("woff2/glyf/instructions", parts[6])

	readBBox := func() (funit.Rect16, error) {
		v, err := bbox.ReadUint16Slice(4)
		if err != nil {
			return funit.Rect16{}, err
		}
		return funit.Rect16{
			LLx: funit.Int16(v[0]),
			LLy: funit.Int16(v[1]),
			URx: funit.Int16(v[2]),
			URy: funit.Int16(v[3]),
		}, nil
	}
	readInstructions := func() ([]byte, error) {
		n, err := read255UInt16(glyphs)
		if err != nil {
			return nil, err
		}
		buf, err := instr.ReadBytes(int(n))
		if err != nil || n == 0 {
			return nil, err
		}
		return append([]byte(nil), buf...), nil
	}

	gg := make(truetype.Glyphs, numGlyphs)
	for i := range gg {
		hasBBox := bboxBitmap[i>>3]&(0x80>>(i&7)) != 0

		nc, err := nContour.ReadInt16()
		if err != nil {
			return nil, err
		}
		switch {
		case nc == 0:
			if hasBBox {
				return nil, parser.Invalid("woff2/glyf",
					fmt.Sprintf("glyph %d: bounding box for empty glyph", i))
			}

		case nc > 0:
			contours := make([]truetype.Contour, nc)
			total := 0
			for k := range contours {
				n, err := read255UInt16(nPoints)
				if err != nil {
					return nil, err
				}
				contours[k] = make(truetype.Contour, n)
				total += int(n)
			}
			pointFlags, err := flags.ReadBytes(total)
			if err != nil {
				return nil, err
			}
			var x, y int
			idx := 0
			for _, c := range contours {
				for k := range c {
					dx, dy, onCurve, err := readTriplet(glyphs, pointFlags[idx])
					if err != nil {
						return nil, err
					}
					idx++
					x += dx
					y += dy
					if x < -32768 || x > 32767 || y < -32768 || y > 32767 {
						return nil, parser.Invalid("woff2/glyf",
							fmt.Sprintf("glyph %d: coordinate out of range", i))
					}
					c[k] = truetype.Point{X: funit.Int16(x), Y: funit.Int16(y), OnCurve: onCurve}
				}
			}
			instructions, err := readInstructions()
			if err != nil {
				return nil, err
			}
			g := truetype.NewSimpleGlyph(contours, instructions)
			if hasBBox {
				rect, err := readBBox()
				if err != nil {
					return nil, err
				}
				if g != nil {
					g.Rect16 = rect
				}
			}
			gg[i] = g

		case nc == -1:
			if !hasBBox {
				return nil, parser.Invalid("woff2/glyf",
					fmt.Sprintf("glyph %d: composite glyph without bounding box", i))
			}
			comps, withInstructions, rest, err := truetype.ReadComponents(composite)
			if err != nil {
				return nil, fmt.Errorf("glyph %d: %w", i, err)
			}
			composite = rest
			cg := truetype.CompositeGlyph{Components: comps}
			if withInstructions {
				cg.Instructions, err = readInstructions()
				if err != nil {
					return nil, err
				}
			}
			rect, err := readBBox()
			if err != nil {
				return nil, err
			}
			gg[i] = &truetype.Glyph{Rect16: rect, Data: cg}

		default:
			return nil, parser.Invalid("woff2/glyf",
				fmt.Sprintf("glyph %d: invalid number of contours %d", i, nc))
		}
	}

	return gg.Encode()
}

// readTriplet decodes a point delta.  The flag byte selects the encoding
// and the number of data bytes read from p.
func readTriplet(p *parser.Parser, flag byte) (int, int, bool, error) {
	onCurve := flag>>7 == 0
	f := int(flag & 0x7F)

	var n int
	switch {
	case f < 84:
		n = 1
	case f < 120:
		n = 2
	case f < 124:
		n = 3
	default:
		n = 4
	}
	buf, err := p.ReadBytes(n)
	if err != nil {
		return 0, 0, false, err
	}

	var dx, dy int
	switch {
	case f < 10:
		dy = withSign(f, (f&14)<<7+int(buf[0]))
	case f < 20:
		dx = withSign(f, ((f-10)&14)<<7+int(buf[0]))
	case f < 84:
		b0 := f - 20
		b1 := int(buf[0])
		dx = withSign(f, 1+(b0&0x30)+(b1>>4))
		dy = withSign(f>>1, 1+(b0&0x0c)<<2+(b1&0x0f))
	case f < 120:
		b0 := f - 84
		dx = withSign(f, 1+(b0/12)<<8+int(buf[0]))
		dy = withSign(f>>1, 1+((b0%12)>>2)<<8+int(buf[1]))
	case f < 124:
		b2 := int(buf[1])
		dx = withSign(f, int(buf[0])<<4+b2>>4)
		dy = withSign(f>>1, (b2&0x0f)<<8+int(buf[2]))
	default:
		dx = withSign(f, int(buf[0])<<8|int(buf[1]))
		dy = withSign(f>>1, int(buf[2])<<8|int(buf[3]))
	}
	return dx, dy, onCurve, nil
}

func withSign(flag, v int) int {
	if flag&1 != 0 {
		return v
	}
	return -v
}

// appendTriplet encodes a point delta, appending the flag byte to flags
// and the data bytes to data.
func appendTriplet(flags, data []byte, dx, dy int, onCurve bool) ([]byte, []byte) {
	absX, xPos := dx, 1
	if dx < 0 {
		absX, xPos = -dx, 0
	}
	absY, yPos := dy, 1
	if dy < 0 {
		absY, yPos = -dy, 0
	}

	var f int
	switch {
	case dx == 0 && absY < 1280:
		f = (absY>>8)<<1 + yPos
		data = append(data, byte(absY))
	case dy == 0 && absX < 1280:
		f = 10 + (absX>>8)<<1 + xPos
		data = append(data, byte(absX))
	case absX >= 1 && absX <= 64 && absY >= 1 && absY <= 64:
		x, y := absX-1, absY-1
		f = 20 + (x & 0x30) + (y>>4)<<2 + yPos<<1 + xPos
		data = append(data, byte((x&0x0f)<<4|y&0x0f))
	case absX >= 1 && absX <= 768 && absY >= 1 && absY <= 768:
		x, y := absX-1, absY-1
		f = 84 + 12*(x>>8) + 4*(y>>8) + yPos<<1 + xPos
		data = append(data, byte(x), byte(y))
	case absX < 4096 && absY < 4096:
		f = 120 + yPos<<1 + xPos
		data = append(data, byte(absX>>4), byte((absX&0x0f)<<4|absY>>8), byte(absY))
	default:
		f = 124 + yPos<<1 + xPos
		data = append(data, byte(absX>>8), byte(absX), byte(absY>>8), byte(absY))
	}
	if !onCurve {
		f |= 0x80
	}
	return append(flags, byte(f)), data
}

// transformGlyf converts the glyphs into the transformed "glyf" table
// representation.
func transformGlyf(gg truetype.Glyphs, locaFormat int16) ([]byte, error) {
	numGlyphs := len(gg)
	if numGlyphs == 0 || numGlyphs > 0xFFFF {
		return nil, fmt.Errorf("invalid number of glyphs %d", numGlyphs)
	}

	s := &glyfStreams{
		bbox: make([]byte, 4*((numGlyphs+31)/32)),
	}
	appendBBox := func(i int, r funit.Rect16) {
		s.bbox[i>>3] |= 0x80 >> (i & 7)
		for _, v := range []funit.Int16{r.LLx, r.LLy, r.URx, r.URy} {
			s.bbox = binary.BigEndian.AppendUint16(s.bbox, uint16(v))
		}
	}
	appendInstructions := func(instr []byte) error {
		if len(instr) > 0xFFFF {
			return fmt.Errorf("too many instructions")
		}
		s.glyphs = append255UInt16(s.glyphs, uint16(len(instr)))
		s.instruction = append(s.instruction, instr...)
		return nil
	}

	for i, g := range gg {
		if g == nil {
			s.nContour = binary.BigEndian.AppendUint16(s.nContour, 0)
			continue
		}
		switch d := g.Data.(type) {
		case truetype.SimpleGlyph:
			var contours []truetype.Contour
			for _, c := range d.Contours {
				if len(c) > 0 {
					contours = append(contours, c)
				}
			}
			if len(contours) == 0 {
				return nil, fmt.Errorf("glyph %d: instructions without contours", i)
			}
			s.nContour = binary.BigEndian.AppendUint16(s.nContour, uint16(len(contours)))

			var x, y int
			for _, c := range contours {
				if len(c) > 0xFFFF {
					return nil, fmt.Errorf("glyph %d: too many points", i)
				}
				s.nPoints = append255UInt16(s.nPoints, uint16(len(c)))
				for _, pt := range c {
					s.flags, s.glyphs = appendTriplet(s.flags, s.glyphs,
						int(pt.X)-x, int(pt.Y)-y, pt.OnCurve)
					x, y = int(pt.X), int(pt.Y)
				}
			}
			err := appendInstructions(d.Instructions)
			if err != nil {
				return nil, fmt.Errorf("glyph %d: %w", i, err)
			}
			if computed := truetype.NewSimpleGlyph(contours, nil); computed.Rect16 != g.Rect16 {
				appendBBox(i, g.Rect16)
			}

		case truetype.CompositeGlyph:
			s.nContour = binary.BigEndian.AppendUint16(s.nContour, 0xFFFF)
			s.composite = truetype.AppendComponents(s.composite, d.Components, d.Instructions != nil)
			if d.Instructions != nil {
				err := appendInstructions(d.Instructions)
				if err != nil {
					return nil, fmt.Errorf("glyph %d: %w", i, err)
				}
			}
			appendBBox(i, g.Rect16)

		default:
			return nil, fmt.Errorf("glyph %d: unexpected glyph data %T", i, g.Data)
		}
	}

	parts := [][]byte{s.nContour, s.nPoints, s.flags, s.glyphs, s.composite, s.bbox, s.instruction}
	res := make([]byte, glyfHeaderSize, glyfHeaderSize+totalLen(parts))
	binary.BigEndian.PutUint16(res[4:], uint16(numGlyphs))
	binary.BigEndian.PutUint16(res[6:], uint16(locaFormat))
	for i, part := range parts {
		binary.BigEndian.PutUint32(res[8+4*i:], uint32(len(part)))
	}
	for _, part := range parts {
		res = append(res, part...)
	}
	return res, nil
}

func totalLen(parts [][]byte) int {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	return n
}
