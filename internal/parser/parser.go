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

// Package parser reads big-endian binary data from font tables.
package parser

import (
	"fmt"
)

// Parser reads binary data from the contents of a single font table.
// Reads past the end of the table result in an *InvalidFontError.
type Parser struct {
	tableName string
	data      []byte
	pos       int
	lastRead  int
}

// New allocates a new Parser which reads from data.  The table name is used
// in error messages.
func New(tableName string, data []byte) *Parser {
	return &Parser{
		tableName: tableName,
		data:      data,
	}
}

// Size returns the total size of the table data.
func (p *Parser) Size() int {
	return len(p.data)
}

// Pos returns the current reading position.
func (p *Parser) Pos() int {
	return p.pos
}

// SeekPos changes the reading position.
func (p *Parser) SeekPos(pos int) error {
	if pos < 0 || pos > len(p.data) {
		p.lastRead = pos
		return p.Error("seek to invalid offset %d", pos)
	}
	p.pos = pos
	return nil
}

// Skip advances the reading position by n bytes.
func (p *Parser) Skip(n int) error {
	return p.SeekPos(p.pos + n)
}

// ReadBytes reads n bytes from the current position.  The returned slice
// points into the table data and must not be modified by the caller.
func (p *Parser) ReadBytes(n int) ([]byte, error) {
	p.lastRead = p.pos
	if n < 0 || p.pos+n > len(p.data) {
		return nil, p.Error("unexpected end of data")
	}
	res := p.data[p.pos : p.pos+n : p.pos+n]
	p.pos += n
	return res, nil
}

// ReadUint8 reads a single uint8 value from the current position.
func (p *Parser) ReadUint8() (uint8, error) {
	buf, err := p.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadUint16 reads a single uint16 value from the current position.
func (p *Parser) ReadUint16() (uint16, error) {
	buf, err := p.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(buf[0])<<8 | uint16(buf[1]), nil
}

// ReadInt16 reads a single int16 value from the current position.
func (p *Parser) ReadInt16() (int16, error) {
	val, err := p.ReadUint16()
	return int16(val), err
}

// ReadUint32 reads a single uint32 value from the current position.
func (p *Parser) ReadUint32() (uint32, error) {
	buf, err := p.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3]), nil
}

// ReadUint16Slice reads n consecutive uint16 values.
func (p *Parser) ReadUint16Slice(n int) ([]uint16, error) {
	buf, err := p.ReadBytes(2 * n)
	if err != nil {
		return nil, err
	}
	res := make([]uint16, n)
	for i := range res {
		res[i] = uint16(buf[2*i])<<8 | uint16(buf[2*i+1])
	}
	return res, nil
}

// ReadOffset reads an unsigned big-endian integer of the given size
// (1 to 4 bytes).
func (p *Parser) ReadOffset(size int) (uint32, error) {
	if size < 1 || size > 4 {
		return 0, p.Error("invalid offset size %d", size)
	}
	buf, err := p.ReadBytes(size)
	if err != nil {
		return 0, err
	}
	var res uint32
	for _, b := range buf {
		res = res<<8 | uint32(b)
	}
	return res, nil
}

// Error returns an *InvalidFontError which records the table name and the
// position of the most recent read.
func (p *Parser) Error(format string, a ...interface{}) error {
	tableName := p.tableName
	if tableName == "" {
		tableName = "header"
	}
	return &InvalidFontError{
		SubSystem: tableName,
		Reason:    fmt.Sprintf("%+d: ", p.lastRead) + fmt.Sprintf(format, a...),
	}
}
