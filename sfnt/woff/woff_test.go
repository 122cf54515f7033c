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

package woff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"seehuhn.de/go/fontconv/internal/parser"
	"seehuhn.de/go/fontconv/sfnt/header"
)

func testTables() map[string][]byte {
	head := make([]byte, 54)
	binary.BigEndian.PutUint32(head[0:4], 0x00010000)
	binary.BigEndian.PutUint32(head[12:16], 0x5F0F3CF5)
	binary.BigEndian.PutUint16(head[18:20], 1000)
	return map[string][]byte{
		"head": head,
		"name": []byte("abc"),
		"glyf": bytes.Repeat([]byte{0, 1, 2, 3, 4, 5, 6, 7}, 100),
		"post": {},
	}
}

func TestRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontconv.woff")
	defer teardown()

	tables := testTables()
	buf := &bytes.Buffer{}
	err := Encode(buf, header.ScalerTypeTrueType, tables)
	if err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	if string(data[:4]) != "wOFF" {
		t.Errorf("wrong signature %q", data[:4])
	}
	if binary.BigEndian.Uint32(data[8:]) != uint32(len(data)) {
		t.Error("wrong length field")
	}

	f, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if f.ScalerType != header.ScalerTypeTrueType {
		t.Errorf("wrong flavor %08x", f.ScalerType)
	}

	// The head table differs in the checksum adjustment only.
	sfntBuf := &bytes.Buffer{}
	_, err = header.Write(sfntBuf, header.ScalerTypeTrueType, tables)
	if err != nil {
		t.Fatal(err)
	}
	want, err := header.Read(sfntBuf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(want.Tables, f.Tables); d != "" {
		t.Errorf("tables changed (-want +got):\n%s", d)
	}

	// the repetitive glyf table must have been compressed
	if len(data) > 44+4*20+54+3+100+10 {
		t.Errorf("file not compressed, %d bytes", len(data))
	}
}

func TestTotalSfntSize(t *testing.T) {
	tables := testTables()
	buf := &bytes.Buffer{}
	err := Encode(buf, header.ScalerTypeTrueType, tables)
	if err != nil {
		t.Fatal(err)
	}
	sfntBuf := &bytes.Buffer{}
	_, err = header.Write(sfntBuf, header.ScalerTypeTrueType, tables)
	if err != nil {
		t.Fatal(err)
	}
	total := binary.BigEndian.Uint32(buf.Bytes()[16:])
	if total != uint32(sfntBuf.Len()) {
		t.Errorf("wrong totalSfntSize %d != %d", total, sfntBuf.Len())
	}
}

func TestDecodeErrors(t *testing.T) {
	buf := &bytes.Buffer{}
	err := Encode(buf, header.ScalerTypeTrueType, testTables())
	if err != nil {
		t.Fatal(err)
	}
	good := buf.Bytes()

	truncated := good[:len(good)-1]
	_, err = Decode(truncated)
	if !errors.Is(err, parser.ErrInvalidFont) {
		t.Errorf("truncated: got %v", err)
	}

	badSig := bytes.Clone(good)
	badSig[0] = 'x'
	_, err = Decode(badSig)
	if !errors.Is(err, parser.ErrInvalidFont) {
		t.Errorf("bad signature: got %v", err)
	}

	collection := bytes.Clone(good)
	copy(collection[4:8], "ttcf")
	_, err = Decode(collection)
	if !errors.Is(err, parser.ErrNotSupported) {
		t.Errorf("collection: got %v", err)
	}

	// corrupt the compressed data of the glyf table
	corrupt := bytes.Clone(good)
	for i := range 4 {
		entry := corrupt[44+20*i:]
		if string(entry[:4]) != "glyf" {
			continue
		}
		offset := binary.BigEndian.Uint32(entry[4:])
		compLength := binary.BigEndian.Uint32(entry[8:])
		for k := offset; k < offset+compLength; k++ {
			corrupt[k] ^= 0x55
		}
	}
	_, err = Decode(corrupt)
	if !errors.Is(err, parser.ErrInvalidFont) {
		t.Errorf("corrupt data: got %v", err)
	}
}

func FuzzDecode(f *testing.F) {
	buf := &bytes.Buffer{}
	err := Encode(buf, header.ScalerTypeTrueType, testTables())
	if err != nil {
		f.Fatal(err)
	}
	f.Add(buf.Bytes())

	f.Fuzz(func(t *testing.T, data []byte) {
		font, err := Decode(data)
		if err != nil {
			return
		}
		out := &bytes.Buffer{}
		err = Encode(out, font.ScalerType, font.Tables)
		if err != nil {
			// tables decoded from WOFF may still be invalid as sfnt tags
			return
		}
		font2, err := Decode(out.Bytes())
		if err != nil {
			t.Fatal(err)
		}
		if len(font2.Tables) > len(font.Tables) {
			t.Error("tables added")
		}
	})
}
