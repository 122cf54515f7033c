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

package cff

import (
	"seehuhn.de/go/fontconv/internal/parser"
)

// readCharset reads a charset table and returns the string ID of the name
// of every glyph.
func readCharset(p *parser.Parser, nGlyphs int) ([]int32, error) {
	format, err := p.ReadUint8()
	if err != nil {
		return nil, err
	}

	charset := make([]int32, 1, nGlyphs)
	switch format {
	case 0:
		sids, err := p.ReadUint16Slice(nGlyphs - 1)
		if err != nil {
			return nil, err
		}
		for _, sid := range sids {
			charset = append(charset, int32(sid))
		}
	case 1, 2:
		for len(charset) < nGlyphs {
			first, err := p.ReadUint16()
			if err != nil {
				return nil, err
			}
			var nLeft int
			if format == 1 {
				n, err := p.ReadUint8()
				if err != nil {
					return nil, err
				}
				nLeft = int(n)
			} else {
				n, err := p.ReadUint16()
				if err != nil {
					return nil, err
				}
				nLeft = int(n)
			}
			for i := 0; i <= nLeft && len(charset) < nGlyphs; i++ {
				charset = append(charset, int32(first)+int32(i))
			}
		}
	default:
		return nil, p.Error("unsupported charset format %d", format)
	}

	return charset, nil
}

// encodeCharset returns the shortest encoding of the given glyph name
// string IDs.  The first entry must be 0 (.notdef) and is not stored.
func encodeCharset(sids []int32) ([]byte, error) {
	if len(sids) == 0 || sids[0] != 0 {
		return nil, errMissingNotdef
	}
	sids = sids[1:]

	type run struct {
		first int32
		n     int // number of glyphs in the run
	}
	var runs []run
	for i, sid := range sids {
		if i > 0 && sid == sids[i-1]+1 {
			runs[len(runs)-1].n++
		} else {
			runs = append(runs, run{first: sid, n: 1})
		}
	}

	length0 := 1 + 2*len(sids)
	length1 := 1
	for _, r := range runs {
		length1 += 3 * ((r.n + 255) / 256)
	}
	length2 := 1 + 4*len(runs)

	switch {
	case length0 <= length1 && length0 <= length2:
		buf := make([]byte, 1, length0)
		for _, sid := range sids {
			buf = append(buf, byte(sid>>8), byte(sid))
		}
		return buf, nil
	case length1 < length2:
		buf := make([]byte, 1, length1)
		buf[0] = 1
		for _, r := range runs {
			first := r.first
			for left := r.n; left > 0; {
				k := min(left, 256)
				buf = append(buf, byte(first>>8), byte(first), byte(k-1))
				first += int32(k)
				left -= k
			}
		}
		return buf, nil
	default:
		buf := make([]byte, 1, length2)
		buf[0] = 2
		for _, r := range runs {
			nLeft := r.n - 1
			buf = append(buf, byte(r.first>>8), byte(r.first), byte(nLeft>>8), byte(nLeft))
		}
		return buf, nil
	}
}
