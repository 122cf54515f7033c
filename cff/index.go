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
	"errors"

	"seehuhn.de/go/fontconv/internal/parser"
)

// readIndex reads a CFF INDEX from the current position.  The returned
// slices point into the table data.
func readIndex(p *parser.Parser) ([][]byte, error) {
	count, err := p.ReadUint16()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	offSize, err := p.ReadUint8()
	if err != nil {
		return nil, err
	}

	offsets := make([]uint32, count+1)
	for i := range offsets {
		offs, err := p.ReadOffset(int(offSize))
		if err != nil {
			return nil, err
		}
		if offs < 1 || i > 0 && offs < offsets[i-1]+1 {
			return nil, p.Error("invalid CFF INDEX")
		}
		offsets[i] = offs - 1
	}
	if offsets[0] != 0 {
		return nil, p.Error("invalid CFF INDEX")
	}

	buf, err := p.ReadBytes(int(offsets[count]))
	if err != nil {
		return nil, err
	}

	res := make([][]byte, count)
	for i := range res {
		res[i] = buf[offsets[i]:offsets[i+1]:offsets[i+1]]
	}
	return res, nil
}

func readIndexAt(p *parser.Parser, pos int32, name string) ([][]byte, error) {
	if pos <= 0 {
		return nil, invalidSince("missing " + name + " INDEX")
	}
	err := p.SeekPos(int(pos))
	if err != nil {
		return nil, err
	}
	return readIndex(p)
}

// encodeIndex returns the binary representation of a CFF INDEX.
func encodeIndex(data [][]byte) ([]byte, error) {
	count := len(data)
	if count >= 1<<16 {
		return nil, errors.New("cff: too many items for INDEX")
	}
	if count == 0 {
		return []byte{0, 0}, nil
	}

	bodyLength := 0
	for _, blob := range data {
		bodyLength += len(blob)
	}

	offSize := 1
	for bodyLength+1 >= 1<<(8*offSize) {
		offSize++
	}
	if offSize > 4 {
		return nil, errors.New("cff: too much data for INDEX")
	}

	res := make([]byte, 0, 3+(count+1)*offSize+bodyLength)
	res = append(res, byte(count>>8), byte(count), byte(offSize))
	pos := uint32(1)
	for i := 0; i <= count; i++ {
		for j := offSize - 1; j >= 0; j-- {
			res = append(res, byte(pos>>(8*j)))
		}
		if i < count {
			pos += uint32(len(data[i]))
		}
	}
	for _, blob := range data {
		res = append(res, blob...)
	}
	return res, nil
}
