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
	"bytes"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"seehuhn.de/go/fontconv/internal/parser"
	"seehuhn.de/go/fontconv/outline"
)

func TestIndex(t *testing.T) {
	for _, n := range []int{0, 1, 2, 300} {
		data := make([][]byte, n)
		for i := range data {
			data[i] = bytes.Repeat([]byte{byte(i)}, i%7)
		}
		buf, err := encodeIndex(data)
		if err != nil {
			t.Fatal(err)
		}
		p := parser.New("test", buf)
		out, err := readIndex(p)
		if err != nil {
			t.Fatal(err)
		}
		if len(out) != n {
			t.Fatalf("%d: got %d items", n, len(out))
		}
		for i := range out {
			if !bytes.Equal(out[i], data[i]) {
				t.Errorf("%d: item %d differs", n, i)
			}
		}
		if p.Pos() != len(buf) {
			t.Errorf("%d: INDEX not consumed completely", n)
		}
	}
}

func TestDictNumbers(t *testing.T) {
	ss := &cffStrings{}
	d := cffDict{
		opFontBBox:          []any{int32(-1131), int32(-108), int32(1131), int32(40000)},
		opItalicAngle:       []any{-12.5},
		opFontMatrix:        []any{0.001, 0.0, 0.0, 0.001, 0.0, 0.0},
		opFullName:          []any{"Test Sans Bold"},
		opWeight:            []any{"Bold"},
		opCharStrings:       []any{int32(12345678)},
		opUnderlinePosition: []any{1e-5},
	}
	buf := d.encode(ss)
	d2, err := decodeDict(buf, ss)
	if err != nil {
		t.Fatal(err)
	}

	want := cffDict{
		opFontBBox:          []any{int32(-1131), int32(-108), int32(1131), int32(40000)},
		opItalicAngle:       []any{-12.5},
		opFontMatrix:        []any{0.001, int32(0), int32(0), 0.001, int32(0), int32(0)},
		opFullName:          []any{"Test Sans Bold"},
		opWeight:            []any{"Bold"},
		opCharStrings:       []any{int32(12345678)},
		opUnderlinePosition: []any{1e-5},
	}
	if d := cmp.Diff(want, d2); d != "" {
		t.Errorf("DICT changed (-want +got):\n%s", d)
	}

	// "Bold" is a standard string, "Test Sans Bold" is not
	if len(ss.data) != 1 {
		t.Errorf("wrong string table %q", ss.data)
	}
}

func TestStdStrings(t *testing.T) {
	ss := &cffStrings{}
	for sid, name := range map[int32]string{
		0: ".notdef", 1: "space", 34: "A", 229: "exclamsmall", 379: "001.000", 390: "Semibold",
	} {
		if got := ss.lookup(name); got != sid {
			t.Errorf("%s: SID %d != %d", name, got, sid)
		}
	}
	if sid := ss.lookup("uni2603"); sid != nStdString {
		t.Errorf("first custom string has SID %d", sid)
	}
}

func TestCharset(t *testing.T) {
	cases := []struct {
		sids   []int32
		format byte
	}{
		{[]int32{0, 5, 9, 13}, 0},
		{append([]int32{0}, seq(400, 700)...), 1},
		{append([]int32{0}, seq(400, 1000)...), 2},
	}
	for i, c := range cases {
		buf, err := encodeCharset(c.sids)
		if err != nil {
			t.Fatal(err)
		}
		if buf[0] != c.format {
			t.Errorf("%d: format %d != %d", i, buf[0], c.format)
		}
		out, err := readCharset(parser.New("test", buf), len(c.sids))
		if err != nil {
			t.Fatal(err)
		}
		if d := cmp.Diff(c.sids, out); d != "" {
			t.Errorf("%d: charset changed (-want +got):\n%s", i, d)
		}
	}
}

func seq(from, to int32) []int32 {
	var res []int32
	for i := from; i < to; i++ {
		res = append(res, i)
	}
	return res
}

func testGlyphs() []*Glyph {
	notdef := NewGlyph(".notdef", 500)
	notdef.MoveTo(50, 0)
	notdef.LineTo(450, 0)
	notdef.LineTo(450, 700)
	notdef.LineTo(50, 700)

	space := NewGlyph("space", 250)

	o := NewGlyph("o", 550)
	o.HStem = []float64{-10, 20, 480, 510}
	o.VStem = []float64{40, 100, 450, 510}
	o.MoveTo(275, -10)
	o.CurveTo(420, -10, 510, 100, 510, 250)
	o.CurveTo(510, 400, 420, 510, 275, 510)
	o.CurveTo(130, 510, 40, 400, 40, 250)
	o.CurveTo(40, 100, 130, -10, 275, -10)

	flex := NewGlyph("flex", 600)
	flex.MoveTo(0, 0)
	flex.CurveTo(100, 0, 200, 20, 300, 20)
	flex.CurveTo(400, 20, 500, 0, 600, 0)
	flex.LineTo(600, 300)
	flex.CurveTo(500, 310, 400, 330, 300, 330)
	flex.CurveTo(200, 330, 100, 310, 0, 300)

	frac := NewGlyph("frac", 512.5)
	frac.MoveTo(0.5, 0.25)
	frac.LineTo(100.75, 0.25)
	frac.LineTo(100.75, 50)
	frac.LineTo(0.5, 50)

	masked := NewGlyph("masked", 550)
	masked.HStem = []float64{0, 50, 600, 650}
	masked.VStem = []float64{100, 150}
	masked.Cmds = append(masked.Cmds, GlyphOp{Op: OpHintMask, Args: []float64{0xA0}})
	masked.MoveTo(100, 0)
	masked.LineTo(150, 0)
	masked.LineTo(150, 650)
	masked.Cmds = append(masked.Cmds, GlyphOp{Op: OpHintMask, Args: []float64{0x60}})
	masked.LineTo(100, 650)

	lines := NewGlyph("lines", 550)
	lines.MoveTo(10, 10)
	lines.LineTo(200, 10)
	lines.LineTo(200, 200)
	lines.LineTo(300, 200)
	lines.LineTo(350, 250)
	lines.CurveTo(350, 300, 300, 350, 250, 350)
	lines.CurveTo(200, 350, 150, 300, 150, 250)
	lines.LineTo(10, 250)

	return []*Glyph{notdef, space, o, flex, frac, masked, lines}
}

func TestCharStringRoundTrip(t *testing.T) {
	for _, g := range testGlyphs() {
		for _, widths := range [][2]float64{{0, 0}, {550, 500}, {g.Width, 0}} {
			code, err := g.encodeCharString(widths[0], widths[1])
			if err != nil {
				t.Fatal(err)
			}
			info := &decodeInfo{defaultWidth: widths[0], nominalWidth: widths[1]}
			g2, err := decodeCharString(info, code)
			if err != nil {
				t.Fatalf("%s: %v", g.Name, err)
			}
			g2.Name = g.Name
			if !g.Equal(g2) {
				t.Errorf("%s: glyph changed:\n%s\n%s", g.Name, g, g2)
			}
		}
	}
}

func TestShortEncoding(t *testing.T) {
	g := NewGlyph("box", 0)
	g.MoveTo(0, 0)
	g.LineTo(100, 0)
	g.LineTo(100, 100)
	g.LineTo(0, 100)
	code, err := g.encodeCharString(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	// 0 vmoveto 100 100 -100 hlineto endchar
	want := []byte{139, byte(t2vmoveto), 239, 239, 39, byte(t2hlineto), byte(t2endchar)}
	if !bytes.Equal(code, want) {
		t.Errorf("got % x, want % x", code, want)
	}
}

func TestFontRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontconv.cff")
	defer teardown()

	glyphs := testGlyphs()
	info := &Info{
		FontName:    "Test-Regular",
		FullName:    "Test Regular",
		FamilyName:  "Test",
		Weight:      "Regular",
		Version:     "1.000",
		ItalicAngle: -3.5,
	}
	f, err := New(info, glyphs)
	if err != nil {
		t.Fatal(err)
	}
	data, err := f.Encode()
	if err != nil {
		t.Fatal(err)
	}
	f2, err := Read(data)
	if err != nil {
		t.Fatal(err)
	}

	if d := cmp.Diff(info, f2.Info()); d != "" {
		t.Errorf("font info changed (-want +got):\n%s", d)
	}
	glyphs2, err := f2.Glyphs()
	if err != nil {
		t.Fatal(err)
	}
	if len(glyphs2) != len(glyphs) {
		t.Fatalf("%d glyphs != %d", len(glyphs2), len(glyphs))
	}
	for i := range glyphs {
		if !glyphs[i].Equal(glyphs2[i]) {
			t.Errorf("glyph %d changed:\n%s\n%s", i, glyphs[i], glyphs2[i])
		}
	}

	bbox := f2.FontBBox()
	if bbox.LLx != 0 || bbox.LLy != -10 || bbox.URx != 600 || bbox.URy != 700 {
		t.Errorf("wrong font bbox %v", bbox)
	}
}

func TestMissingNotdef(t *testing.T) {
	g := NewGlyph("A", 500)
	_, err := New(&Info{FontName: "X"}, []*Glyph{g})
	if !errors.Is(err, errMissingNotdef) {
		t.Errorf("expected errMissingNotdef, got %v", err)
	}
}

func TestCIDNotSupported(t *testing.T) {
	f, err := New(&Info{FontName: "X"}, testGlyphs()[:1])
	if err != nil {
		t.Fatal(err)
	}
	f.topDict[opROS] = []any{"Adobe", "Identity", int32(0)}
	data, err := f.Encode()
	if err != nil {
		t.Fatal(err)
	}
	_, err = Read(data)
	if !errors.Is(err, parser.ErrNotSupported) {
		t.Errorf("expected a not supported error, got %v", err)
	}
}

func TestReadGarbage(t *testing.T) {
	for _, data := range [][]byte{
		nil,
		{1, 0, 4},
		{2, 0, 5, 0, 0},
		{1, 0, 4, 1, 0, 1, 1, 1},
	} {
		_, err := Read(data)
		if err == nil {
			t.Errorf("% x: no error", data)
		}
	}
}

// manyGlyphs returns glyphs with lots of repeated structure.
func manyGlyphs(n int) []*Glyph {
	res := []*Glyph{NewGlyph(".notdef", 500)}
	for i := range n {
		g := NewGlyph(fmt.Sprintf("g%03d", i), 600)
		dx := float64(10 * (i % 5))
		g.MoveTo(dx, 0)
		g.LineTo(dx+100, 0)
		g.CurveTo(dx+150, 0, dx+200, 50, dx+200, 100)
		g.CurveTo(dx+200, 150, dx+150, 200, dx+100, 200)
		g.LineTo(dx, 200)
		g.MoveTo(dx+50, 50)
		g.LineTo(dx+50, 150)
		g.LineTo(dx+100, 150)
		g.CurveTo(dx+130, 150, dx+150, 130, dx+150, 100)
		g.CurveTo(dx+150, 70, dx+130, 50, dx+100, 50)
		res = append(res, g)
	}
	return res
}

func TestSubroutinize(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontconv.cff")
	defer teardown()

	glyphs := manyGlyphs(50)
	f, err := New(&Info{FontName: "Subrs"}, glyphs)
	if err != nil {
		t.Fatal(err)
	}
	flatSize := totalSize(f)

	err = f.Subroutinize()
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Subrs) == 0 {
		t.Fatal("no subroutines created")
	}
	if s := totalSize(f); s >= flatSize {
		t.Errorf("subroutinized size %d >= %d", s, flatSize)
	}
	checkGlyphs(t, f, glyphs)

	// the result must survive encoding
	data, err := f.Encode()
	if err != nil {
		t.Fatal(err)
	}
	f2, err := Read(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(f2.Subrs) != len(f.Subrs) {
		t.Errorf("%d subrs after reading, %d before", len(f2.Subrs), len(f.Subrs))
	}
	checkGlyphs(t, f2, glyphs)

	err = f2.Desubroutinize()
	if err != nil {
		t.Fatal(err)
	}
	if len(f2.Subrs) != 0 || len(f2.Gsubrs) != 0 {
		t.Error("subroutines remain after Desubroutinize")
	}
	checkGlyphs(t, f2, glyphs)
}

func TestSubroutinizeNothingToDo(t *testing.T) {
	glyphs := testGlyphs()
	f, err := New(&Info{FontName: "X"}, glyphs)
	if err != nil {
		t.Fatal(err)
	}
	err = f.Subroutinize()
	if err != nil {
		t.Fatal(err)
	}
	checkGlyphs(t, f, glyphs)
}

func totalSize(f *Font) int {
	n := 0
	for _, cs := range f.CharStrings {
		n += len(cs)
	}
	for _, s := range f.Subrs {
		n += len(s)
	}
	return n
}

func checkGlyphs(t *testing.T, f *Font, want []*Glyph) {
	t.Helper()
	got, err := f.Glyphs()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("%d glyphs != %d", len(got), len(want))
	}
	for i := range want {
		if !want[i].Equal(got[i]) {
			t.Errorf("glyph %d changed:\n%s\n%s", i, want[i], got[i])
		}
	}
}

func TestFromOutline(t *testing.T) {
	b := &outline.Builder{}
	b.MoveTo(0.4, 0)
	b.LineTo(100, 0)
	b.QuadTo(150, 0, 150, 60)
	b.LineTo(150, 60.2) // vanishes after rounding
	b.LineTo(0, 60)
	b.LineTo(0, 0) // closing line
	o := b.Glyph()

	g := FromOutline("test", 200, o)
	want := []GlyphOp{
		{Op: OpMoveTo, Args: []float64{0, 0}},
		{Op: OpLineTo, Args: []float64{100, 0}},
		{Op: OpCurveTo, Args: []float64{133, 0, 150, 20, 150, 60}},
		{Op: OpLineTo, Args: []float64{0, 60}},
	}
	if d := cmp.Diff(want, g.Cmds); d != "" {
		t.Errorf("wrong commands (-want +got):\n%s", d)
	}

	back := g.Outline()
	if len(back) != 1 || len(back[0]) != 3 {
		t.Fatalf("wrong outline %v", back)
	}
	if a := back[0].SignedArea(); math.Abs(a) < 8000 {
		t.Errorf("implausible area %g", a)
	}
}

func FuzzRead(f *testing.F) {
	font, err := New(&Info{FontName: "Fuzz"}, testGlyphs())
	if err != nil {
		f.Fatal(err)
	}
	data, err := font.Encode()
	if err != nil {
		f.Fatal(err)
	}
	f.Add(data)

	f.Fuzz(func(t *testing.T, data []byte) {
		font, err := Read(data)
		if err != nil {
			return
		}
		glyphs, err := font.Glyphs()
		if err != nil {
			return
		}
		font2, err := New(font.Info(), glyphs)
		if err != nil {
			return
		}
		_, err = font2.Encode()
		if err != nil {
			t.Fatal(err)
		}
	})
}
