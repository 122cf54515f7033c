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

package header

import (
	"encoding/binary"
	"errors"
	"io"
	"slices"

	sfntheader "seehuhn.de/go/sfnt/header"
)

// Write writes an sfnt file containing the given tables.
// Tables where the data is nil are not written, use a zero-length slice
// to write a table with no data.
//
// The checksum adjustment in the "head" table is computed on a private
// copy; the table data passed in is not modified.
func Write(w io.Writer, scalerType uint32, tables map[string][]byte) (int64, error) {
	out := make(map[string][]byte, len(tables))
	for name, data := range tables {
		if data == nil || !isValidTag(name) {
			continue
		}
		if name == "head" && len(data) >= 12 {
			data = slices.Clone(data)
		}
		out[name] = data
	}
	if len(out) == 0 {
		return 0, errNoTables
	}

	n, err := sfntheader.Write(w, scalerType, out)
	if err != nil {
		return n, err
	}
	tracer().Debugf("wrote sfnt file with %d tables, %d bytes", len(out), n)
	return n, nil
}

var errNoTables = errors.New("sfnt/header: no tables to write")

// Checksum computes the table checksum of data: the sum of all big-endian
// uint32 words, where the data is padded with zeros to a multiple of four
// bytes.
func Checksum(data []byte) uint32 {
	var sum uint32
	for len(data) >= 4 {
		sum += binary.BigEndian.Uint32(data)
		data = data[4:]
	}
	if len(data) > 0 {
		var last [4]byte
		copy(last[:], data)
		sum += binary.BigEndian.Uint32(last[:])
	}
	return sum
}

func isValidTag(tag string) bool {
	if len(tag) != 4 {
		return false
	}
	for i := range 4 {
		if tag[i] < 0x20 || tag[i] > 0x7E {
			return false
		}
	}
	return true
}
