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

// Package woff reads and writes WOFF 1.0 font files.
//
// A WOFF file holds the tables of an sfnt font, each compressed
// separately using zlib.
// https://www.w3.org/TR/WOFF/
package woff

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"slices"

	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/exp/maps"

	"seehuhn.de/go/fontconv/internal/parser"
	"seehuhn.de/go/fontconv/sfnt/header"
)

// tracer traces with key 'fontconv.woff'
func tracer() tracing.Trace {
	return tracing.Select("fontconv.woff")
}

// Signature is the first four bytes of every WOFF file.
const Signature = 0x774F4646 // "wOFF"

const (
	headerSize = 44
	entrySize  = 20

	// maxTableSize bounds the decompressed size of a single table.
	maxTableSize = 1 << 28
)

type woffHeader struct {
	Signature      uint32
	Flavor         uint32
	Length         uint32
	NumTables      uint16
	Reserved       uint16
	TotalSfntSize  uint32
	MajorVersion   uint16
	MinorVersion   uint16
	MetaOffset     uint32
	MetaLength     uint32
	MetaOrigLength uint32
	PrivOffset     uint32
	PrivLength     uint32
}

type tableEntry struct {
	Tag          [4]byte
	Offset       uint32
	CompLength   uint32
	OrigLength   uint32
	OrigChecksum uint32
}

// Decode decodes a WOFF file.  Extended metadata and private data are
// not retained.
func Decode(data []byte) (*header.Font, error) {
	if len(data) < headerSize {
		return nil, parser.Invalid("woff", "file too short")
	}
	hdr := &woffHeader{}
	_ = binary.Read(bytes.NewReader(data), binary.BigEndian, hdr)
	if hdr.Signature != Signature {
		return nil, parser.Invalid("woff", "invalid signature")
	}
	if hdr.Flavor == 0x74746366 { // "ttcf"
		return nil, parser.NotSupported("woff", "font collections")
	}
	if int(hdr.Length) != len(data) {
		return nil, parser.Invalid("woff",
			fmt.Sprintf("length field %d does not match file size %d", hdr.Length, len(data)))
	}
	numTables := int(hdr.NumTables)
	if numTables == 0 || headerSize+entrySize*numTables > len(data) {
		return nil, parser.Invalid("woff", "invalid table directory")
	}

	entries := make([]tableEntry, numTables)
	_ = binary.Read(bytes.NewReader(data[headerSize:]), binary.BigEndian, entries)

	res := &header.Font{
		ScalerType: hdr.Flavor,
		Tables:     make(map[string][]byte, numTables),
	}
	for _, e := range entries {
		tag := string(e.Tag[:])
		if _, dup := res.Tables[tag]; dup {
			return nil, parser.Invalid("woff", fmt.Sprintf("duplicate table %q", tag))
		}
		end := uint64(e.Offset) + uint64(e.CompLength)
		if end > uint64(len(data)) || e.CompLength > e.OrigLength || e.OrigLength > maxTableSize {
			return nil, parser.Invalid("woff", fmt.Sprintf("table %q: invalid size", tag))
		}
		body := data[e.Offset:end]
		if e.CompLength < e.OrigLength {
			var err error
			body, err = inflate(body, int(e.OrigLength))
			if err != nil {
				return nil, parser.Invalid("woff", fmt.Sprintf("table %q: %v", tag, err))
			}
		} else {
			body = slices.Clone(body)
		}
		res.Tables[tag] = body
	}

	tracer().Debugf("decoded WOFF file with %d tables", numTables)
	return res, nil
}

func inflate(body []byte, origLength int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	res := make([]byte, origLength)
	_, err = io.ReadFull(r, res)
	if err != nil {
		return nil, err
	}
	// the stream must end exactly here
	var extra [1]byte
	if n, _ := r.Read(extra[:]); n > 0 {
		return nil, fmt.Errorf("decompressed data too long")
	}
	return res, nil
}

// Encode writes the tables as a WOFF file.  A table is stored compressed
// only if this makes it smaller.
func Encode(w io.Writer, scalerType uint32, tables map[string][]byte) error {
	// Go through the sfnt encoder, so that the table checksums and the
	// head checksum adjustment match the uncompressed font.
	sfntBuf := &bytes.Buffer{}
	_, err := header.Write(sfntBuf, scalerType, tables)
	if err != nil {
		return err
	}
	font, err := header.Read(sfntBuf.Bytes())
	if err != nil {
		return err
	}

	tags := maps.Keys(font.Tables)
	slices.Sort(tags)
	numTables := len(tags)

	hdr := &woffHeader{
		Signature:     Signature,
		Flavor:        scalerType,
		NumTables:     uint16(numTables),
		TotalSfntSize: uint32(sfntBuf.Len()),
		MajorVersion:  1,
	}
	entries := make([]tableEntry, numTables)
	bodies := make([][]byte, numTables)
	offset := uint32(headerSize + entrySize*numTables)
	for i, tag := range tags {
		orig := font.Tables[tag]
		body, err := deflate(orig)
		if err != nil {
			return err
		}
		if len(body) >= len(orig) {
			body = orig
		}
		copy(entries[i].Tag[:], tag)
		entries[i].Offset = offset
		entries[i].CompLength = uint32(len(body))
		entries[i].OrigLength = uint32(len(orig))
		entries[i].OrigChecksum = header.Checksum(orig)
		bodies[i] = body
		offset += 4 * ((uint32(len(body)) + 3) / 4)
	}
	// the last table is not padded
	if numTables > 0 {
		last := len(bodies[numTables-1])
		offset -= 4*((uint32(last)+3)/4) - uint32(last)
	}
	hdr.Length = offset

	buf := bytes.NewBuffer(make([]byte, 0, offset))
	_ = binary.Write(buf, binary.BigEndian, hdr)
	_ = binary.Write(buf, binary.BigEndian, entries)
	var pad [3]byte
	for i, body := range bodies {
		buf.Write(body)
		if k := len(body) % 4; k != 0 && i < numTables-1 {
			buf.Write(pad[:4-k])
		}
	}

	tracer().Debugf("encoded WOFF file: %d -> %d bytes", sfntBuf.Len(), buf.Len())
	_, err = w.Write(buf.Bytes())
	return err
}

func deflate(data []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw, err := zlib.NewWriterLevel(buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	_, err = zw.Write(data)
	if err != nil {
		return nil, err
	}
	err = zw.Close()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
