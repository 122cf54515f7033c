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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"

	"seehuhn.de/go/postscript/funit"

	"seehuhn.de/go/fontconv/internal/parser"
	"seehuhn.de/go/fontconv/truetype"
)

func TestHead(t *testing.T) {
	h := &Head{
		FontRevision: 0x00018000,
		Flags:        0x000B | HeadFlagInstructionsAlterAdvance,
		UnitsPerEm:   2048,
		Created:      3600,
		Modified:     7200,
		FontBBox:     funit.Rect16{LLx: -100, LLy: -200, URx: 1000, URy: 900},
		MacStyle:     1,

		LowestRecPPEM:     8,
		FontDirectionHint: 2,
		IndexToLocFormat:  1,
	}
	data := h.Encode()
	if len(data) != headLength {
		t.Fatalf("wrong length %d", len(data))
	}
	h2, err := DecodeHead(data)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(h, h2); d != "" {
		t.Errorf("head changed (-want +got):\n%s", d)
	}

	data[12] = 0
	_, err = DecodeHead(data)
	if !errors.Is(err, parser.ErrInvalidFont) {
		t.Errorf("bad magic: got %v", err)
	}
}

func TestHmtx(t *testing.T) {
	m := &Hmtx{
		Widths: []uint16{500, 600, 700, 700, 700},
		LSB:    []funit.Int16{0, 10, -20, 30, 0},
	}
	data, numLong := m.Encode()
	if numLong != 3 {
		t.Errorf("wrong number of long metrics %d", numLong)
	}
	if len(data) != 4*3+2*2 {
		t.Errorf("wrong length %d", len(data))
	}
	m2, err := DecodeHmtx(data, int(numLong), 5)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(m, m2); d != "" {
		t.Errorf("hmtx changed (-want +got):\n%s", d)
	}

	_, err = DecodeHmtx(data[:10], int(numLong), 5)
	if !errors.Is(err, parser.ErrInvalidFont) {
		t.Errorf("short table: got %v", err)
	}
}

func TestHhea(t *testing.T) {
	m := &Hmtx{
		Widths: []uint16{500, 600, 0},
		LSB:    []funit.Int16{50, -10, 0},
	}
	bbox := []funit.Rect16{
		{LLx: 50, LLy: 0, URx: 450, URy: 700},
		{LLx: -10, LLy: 0, URx: 620, URy: 700},
		{}, // blank glyph
	}
	h := &Hhea{Ascent: 800, Descent: -200, CaretSlopeRise: 1}
	m.UpdateHhea(h, bbox)
	if h.AdvanceWidthMax != 600 {
		t.Errorf("wrong advance width max %d", h.AdvanceWidthMax)
	}
	if h.MinLeftSideBearing != -10 || h.MinRightSideBearing != -20 || h.XMaxExtent != 620 {
		t.Errorf("wrong extrema %d %d %d",
			h.MinLeftSideBearing, h.MinRightSideBearing, h.XMaxExtent)
	}

	_, h.NumOfLongHorMetrics = m.Encode()
	h2, err := DecodeHhea(h.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(h, h2); d != "" {
		t.Errorf("hhea changed (-want +got):\n%s", d)
	}

	h.Scale(0.5)
	if h.Ascent != 400 || h.Descent != -100 || h.CaretSlopeRise != 1 {
		t.Errorf("wrong scaled values %d %d %d", h.Ascent, h.Descent, h.CaretSlopeRise)
	}
}

func TestMaxp(t *testing.T) {
	cff := &Maxp{NumGlyphs: 17}
	data, err := EncodeMaxp(cff)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 6 {
		t.Errorf("wrong length %d for version 0.5", len(data))
	}

	ttf := &Maxp{NumGlyphs: 17, TTF: &MaxpTTF{MaxZones: 2, MaxStorage: 10}}
	SetMaxpLimits(ttf.TTF, truetype.Limits{
		MaxPoints:             100,
		MaxContours:           3,
		MaxCompositePoints:    200,
		MaxCompositeContours:  6,
		MaxComponentElements:  2,
		MaxComponentDepth:     1,
		MaxSizeOfInstructions: 70000,
	})
	data, err = EncodeMaxp(ttf)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 32 {
		t.Errorf("wrong length %d for version 1.0", len(data))
	}
	ttf2, err := DecodeMaxp(data)
	if err != nil {
		t.Fatal(err)
	}
	if ttf2.TTF.MaxSizeOfInstructions != 0xFFFF {
		t.Errorf("instruction size not clamped: %d", ttf2.TTF.MaxSizeOfInstructions)
	}
	if d := cmp.Diff(ttf, ttf2); d != "" {
		t.Errorf("maxp changed (-want +got):\n%s", d)
	}

	ClearMaxpHinting(ttf2.TTF)
	if ttf2.TTF.MaxZones != 1 || ttf2.TTF.MaxStorage != 0 || ttf2.TTF.MaxPoints != 100 {
		t.Errorf("wrong values after ClearMaxpHinting: %+v", ttf2.TTF)
	}

	_, err = EncodeMaxp(&Maxp{})
	if err == nil {
		t.Error("zero glyphs accepted")
	}

	for _, bad := range [][]byte{
		{0, 1, 0},
		{0, 0, 0x50, 0, 0, 0},
		{0, 2, 0, 0, 0, 1},
		{0, 1, 0, 0, 0, 1, 0, 0},
	} {
		_, err := DecodeMaxp(bad)
		if !errors.Is(err, parser.ErrInvalidFont) {
			t.Errorf("%v: got %v", bad, err)
		}
	}
}

func TestPost(t *testing.T) {
	p := &Post{
		ItalicAngle:        -12.5,
		UnderlinePosition:  -100,
		UnderlineThickness: 50,
		IsFixedPitch:       true,
		Names:              []string{".notdef", "space", "A", "uni1234", "A.alt", "uni1234"},
	}
	data, err := p.Encode()
	if err != nil {
		t.Fatal(err)
	}
	// header, count, 6 indices, two new names stored once
	if want := 32 + 2 + 2*6 + (1 + 7) + (1 + 5); len(data) != want {
		t.Errorf("wrong length %d, expected %d", len(data), want)
	}
	p2, err := DecodePost(data)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(p, p2); d != "" {
		t.Errorf("post changed (-want +got):\n%s", d)
	}

	p.Names = nil
	data, err = p.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if binary.BigEndian.Uint32(data) != 0x00030000 || len(data) != 32 {
		t.Errorf("wrong version 3 table % x", data)
	}
}

func TestPostVersion1(t *testing.T) {
	p := &Post{}
	data, err := p.Encode()
	if err != nil {
		t.Fatal(err)
	}
	binary.BigEndian.PutUint32(data, 0x00010000)
	p2, err := DecodePost(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(p2.Names) != 258 || p2.Names[3] != "space" || p2.Names[257] != "dcroat" {
		t.Errorf("wrong standard names")
	}
}

func TestScaleOS2(t *testing.T) {
	data := make([]byte, 96)
	binary.BigEndian.PutUint16(data[0:], 4)
	binary.BigEndian.PutUint16(data[os2XAvgCharWidth:], 500)
	binary.BigEndian.PutUint16(data[4:], 400) // usWeightClass
	binary.BigEndian.PutUint16(data[os2TypoAscender:], 800)
	binary.BigEndian.PutUint16(data[os2TypoDescender:], uint16(0x10000-200))
	binary.BigEndian.PutUint16(data[os2WinAscent:], 900)
	binary.BigEndian.PutUint16(data[os2CapHeight:], 700)

	scaled, err := ScaleOS2(data, 2)
	if err != nil {
		t.Fatal(err)
	}
	m, err := DecodeOS2Metrics(scaled)
	if err != nil {
		t.Fatal(err)
	}
	want := &OS2Metrics{
		Version:       4,
		TypoAscender:  1600,
		TypoDescender: -400,
		WinAscent:     1800,
		CapHeight:     1400,
	}
	if d := cmp.Diff(want, m); d != "" {
		t.Errorf("wrong metrics (-want +got):\n%s", d)
	}
	if w := binary.BigEndian.Uint16(scaled[4:]); w != 400 {
		t.Errorf("weight class changed to %d", w)
	}
	if x := binary.BigEndian.Uint16(scaled[os2XAvgCharWidth:]); x != 1000 {
		t.Errorf("wrong average width %d", x)
	}
	if binary.BigEndian.Uint16(data[os2TypoAscender:]) != 800 {
		t.Error("input modified")
	}
}

func makeNameTable(recs []NameRecord) []byte {
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	var storage []byte
	buf := []byte{0, 0, 0, byte(len(recs)), 0, byte(6 + 12*len(recs))}
	for _, r := range recs {
		var val []byte
		if r.PlatformID == 1 {
			val = []byte(r.Value)
		} else {
			val, _ = enc.Bytes([]byte(r.Value))
		}
		buf = binary.BigEndian.AppendUint16(buf, r.PlatformID)
		buf = binary.BigEndian.AppendUint16(buf, r.EncodingID)
		buf = binary.BigEndian.AppendUint16(buf, r.LanguageID)
		buf = binary.BigEndian.AppendUint16(buf, r.NameID)
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(val)))
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(storage)))
		storage = append(storage, val...)
	}
	return append(buf, storage...)
}

func TestNames(t *testing.T) {
	data := makeNameTable([]NameRecord{
		{PlatformID: 1, EncodingID: 0, LanguageID: 0, NameID: NameFamily, Value: "Mac Family"},
		{PlatformID: 3, EncodingID: 1, LanguageID: 0x0407, NameID: NameFamily, Value: "Schrift"},
		{PlatformID: 3, EncodingID: 1, LanguageID: 0x0409, NameID: NameFamily, Value: "Test Sans"},
		{PlatformID: 3, EncodingID: 1, LanguageID: 0x0409, NameID: NameFullName, Value: "Test Sans (Bold)"},
	})
	n, err := DecodeNames(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(n.Records) != 4 {
		t.Fatalf("wrong number of records %d", len(n.Records))
	}
	if fam := n.Get(NameFamily, language.English); fam != "Test Sans" {
		t.Errorf("wrong English family name %q", fam)
	}
	if fam := n.Get(NameFamily, language.German); fam != "Schrift" {
		t.Errorf("wrong German family name %q", fam)
	}
	if ps := n.PostScriptName(); ps != "TestSansBold" {
		t.Errorf("wrong PostScript name %q", ps)
	}
}

func TestScaleKern(t *testing.T) {
	// version 0 table with a single format 0 subtable holding two pairs
	data := []byte{
		0, 0, 0, 1, // version, nTables
		0, 0, 0, 26, 0, 1, // subtable version, length, coverage
		0, 2, 0, 12, 0, 1, 0, 0, // nPairs, searchRange, entrySelector, rangeShift
		0, 1, 0, 2, 0xFF, 0xCE, // 1, 2: -50
		0, 3, 0, 4, 0, 20, // 3, 4: 20
	}
	scaled, err := ScaleKern(data, 2)
	if err != nil {
		t.Fatal(err)
	}
	v1 := int16(binary.BigEndian.Uint16(scaled[22:]))
	v2 := int16(binary.BigEndian.Uint16(scaled[28:]))
	if v1 != -100 || v2 != 40 {
		t.Errorf("wrong kerning values %d %d", v1, v2)
	}

	data[8] = 2 // format 2
	_, err = ScaleKern(data, 2)
	if !errors.Is(err, parser.ErrNotSupported) {
		t.Errorf("format 2: got %v", err)
	}
}
