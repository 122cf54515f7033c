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
	"seehuhn.de/go/fontconv/internal/parser"
)

// readUIntBase128 reads a variable-length unsigned integer, encoded using
// 7 bits per byte with the high bit set on all but the last byte.
func readUIntBase128(p *parser.Parser) (uint32, error) {
	var accum uint32
	for i := range 5 {
		b, err := p.ReadUint8()
		if err != nil {
			return 0, err
		}
		if i == 0 && b == 0x80 {
			return 0, p.Error("UIntBase128 with leading zeros")
		}
		if accum&0xFE000000 != 0 {
			return 0, p.Error("UIntBase128 overflow")
		}
		accum = accum<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return accum, nil
		}
	}
	return 0, p.Error("UIntBase128 longer than 5 bytes")
}

func appendUIntBase128(buf []byte, x uint32) []byte {
	n := 1
	for y := x >> 7; y != 0; y >>= 7 {
		n++
	}
	for i := n - 1; i >= 0; i-- {
		b := byte(x>>(7*i)) & 0x7F
		if i > 0 {
			b |= 0x80
		}
		buf = append(buf, b)
	}
	return buf
}

const (
	oneMoreByteCode1 = 255
	oneMoreByteCode2 = 254
	wordCode         = 253
	lowestUCode      = 253
)

// read255UInt16 reads a variable-length encoding of a uint16 value.
func read255UInt16(p *parser.Parser) (uint16, error) {
	code, err := p.ReadUint8()
	if err != nil {
		return 0, err
	}
	switch code {
	case wordCode:
		return p.ReadUint16()
	case oneMoreByteCode1:
		b, err := p.ReadUint8()
		return uint16(b) + lowestUCode, err
	case oneMoreByteCode2:
		b, err := p.ReadUint8()
		return uint16(b) + 2*lowestUCode, err
	default:
		return uint16(code), nil
	}
}

func append255UInt16(buf []byte, x uint16) []byte {
	switch {
	case x < lowestUCode:
		return append(buf, byte(x))
	case x < 2*lowestUCode:
		return append(buf, oneMoreByteCode1, byte(x-lowestUCode))
	case x < 3*lowestUCode:
		return append(buf, oneMoreByteCode2, byte(x-2*lowestUCode))
	default:
		return append(buf, wordCode, byte(x>>8), byte(x))
	}
}
