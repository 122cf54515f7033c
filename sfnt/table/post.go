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
	"math"

	"seehuhn.de/go/postscript/funit"

	"seehuhn.de/go/fontconv/internal/parser"
)

// Post contains the information from the "post" table.
// https://docs.microsoft.com/en-us/typography/opentype/spec/post
type Post struct {
	ItalicAngle        float64 // in degrees, counter-clockwise from vertical
	UnderlinePosition  funit.Int16
	UnderlineThickness funit.Int16
	IsFixedPitch       bool
	MinMemType42       uint32
	MaxMemType42       uint32
	MinMemType1        uint32
	MaxMemType1        uint32

	// Names holds the glyph names, indexed by glyph ID.  If Names is nil,
	// a version 3.0 table without glyph names is written.
	Names []string
}

const postHeaderLength = 32

// DecodePost decodes the "post" table.  Glyph names are only present for
// table versions 1.0 and 2.0.
func DecodePost(data []byte) (*Post, error) {
	p := parser.New("post", data)
	version, err := p.ReadUint32()
	if err != nil {
		return nil, err
	}
	hdr, err := p.ReadBytes(postHeaderLength - 4)
	if err != nil {
		return nil, err
	}
	info := &Post{
		ItalicAngle:        float64(int32(binary.BigEndian.Uint32(hdr[0:]))) / 65536,
		UnderlinePosition:  funit.Int16(binary.BigEndian.Uint16(hdr[4:])),
		UnderlineThickness: funit.Int16(binary.BigEndian.Uint16(hdr[6:])),
		IsFixedPitch:       binary.BigEndian.Uint32(hdr[8:]) != 0,
		MinMemType42:       binary.BigEndian.Uint32(hdr[12:]),
		MaxMemType42:       binary.BigEndian.Uint32(hdr[16:]),
		MinMemType1:        binary.BigEndian.Uint32(hdr[20:]),
		MaxMemType1:        binary.BigEndian.Uint32(hdr[24:]),
	}

	switch version {
	case 0x00010000:
		info.Names = append([]string(nil), macRoman[:]...)

	case 0x00020000:
		numGlyphs, err := p.ReadUint16()
		if err != nil {
			return nil, err
		}
		index, err := p.ReadUint16Slice(int(numGlyphs))
		if err != nil {
			return nil, err
		}
		var extra []string
		for p.Pos() < p.Size() {
			l, err := p.ReadUint8()
			if err != nil {
				return nil, err
			}
			s, err := p.ReadBytes(int(l))
			if err != nil {
				return nil, err
			}
			extra = append(extra, string(s))
		}
		info.Names = make([]string, numGlyphs)
		for i, idx := range index {
			if int(idx) < len(macRoman) {
				info.Names[i] = macRoman[idx]
				continue
			}
			k := int(idx) - len(macRoman)
			if k >= len(extra) {
				return nil, parser.Invalid("sfnt/post",
					fmt.Sprintf("glyph %d: invalid name index %d", i, idx))
			}
			info.Names[i] = extra[k]
		}

	case 0x00025000, 0x00030000, 0x00040000:
		// no usable glyph names

	default:
		return nil, parser.NotSupported("sfnt/post",
			fmt.Sprintf("table version %08x", version))
	}
	return info, nil
}

// Encode encodes the "post" table, using version 3.0 if there are no
// glyph names and version 2.0 otherwise.  Repeated non-standard names are
// stored only once.
func (info *Post) Encode() ([]byte, error) {
	version := uint32(0x00030000)
	if info.Names != nil {
		version = 0x00020000
	}

	buf := make([]byte, 0, postHeaderLength+2+2*len(info.Names))
	buf = binary.BigEndian.AppendUint32(buf, version)
	buf = binary.BigEndian.AppendUint32(buf, uint32(int32(math.Round(info.ItalicAngle*65536))))
	buf = binary.BigEndian.AppendUint16(buf, uint16(info.UnderlinePosition))
	buf = binary.BigEndian.AppendUint16(buf, uint16(info.UnderlineThickness))
	var fixed uint32
	if info.IsFixedPitch {
		fixed = 1
	}
	buf = binary.BigEndian.AppendUint32(buf, fixed)
	buf = binary.BigEndian.AppendUint32(buf, info.MinMemType42)
	buf = binary.BigEndian.AppendUint32(buf, info.MaxMemType42)
	buf = binary.BigEndian.AppendUint32(buf, info.MinMemType1)
	buf = binary.BigEndian.AppendUint32(buf, info.MaxMemType1)

	if version != 0x00020000 {
		return buf, nil
	}

	numGlyphs := len(info.Names)
	if numGlyphs > math.MaxUint16 {
		return nil, fmt.Errorf("sfnt/post: too many glyphs (%d)", numGlyphs)
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(numGlyphs))

	idx := make(map[string]int, len(macRoman)+numGlyphs)
	for i, name := range macRoman {
		idx[name] = i
	}
	var stringData []byte
	for _, name := range info.Names {
		k, ok := idx[name]
		if !ok {
			if len(name) > 255 {
				return nil, fmt.Errorf("sfnt/post: glyph name %q too long", name)
			}
			k = len(idx)
			if k > math.MaxUint16 {
				return nil, fmt.Errorf("sfnt/post: too many glyph names")
			}
			idx[name] = k
			stringData = append(stringData, byte(len(name)))
			stringData = append(stringData, name...)
		}
		buf = binary.BigEndian.AppendUint16(buf, uint16(k))
	}
	buf = append(buf, stringData...)
	return buf, nil
}
