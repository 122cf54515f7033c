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

package fontconv

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	xsfnt "golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	"seehuhn.de/go/sfnt"

	"seehuhn.de/go/fontconv/internal/makefont"
	"seehuhn.de/go/fontconv/sfnt/header"
	"seehuhn.de/go/fontconv/sfnt/table"
)

func squares(t *testing.T) *Font {
	t.Helper()
	f, err := Parse(makefont.Squares())
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// snapshot returns a copy of all tables of the font.
func snapshot(f *Font) map[string][]byte {
	res := make(map[string][]byte)
	for _, tag := range f.Tags() {
		res[tag] = f.Table(tag)
	}
	return res
}

func encode(t *testing.T, f *Font) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	err := f.Write(buf)
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestParse(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontconv")
	defer teardown()

	f := squares(t)
	if f.OutlineKind() != TrueType {
		t.Errorf("wrong outline kind %s", f.OutlineKind())
	}
	if f.WrapperKind() != SFNT {
		t.Errorf("wrong wrapper kind %s", f.WrapperKind())
	}
	if f.Modified() || f.IsVariable() {
		t.Errorf("modified=%t variable=%t", f.Modified(), f.IsVariable())
	}
	if ext := f.Extension(); ext != ".ttf" {
		t.Errorf("wrong extension %q", ext)
	}
}

func TestParseErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontconv")
	defer teardown()

	edit := func(fn func(tables map[string][]byte)) []byte {
		font, err := header.Read(makefont.Squares())
		if err != nil {
			t.Fatal(err)
		}
		fn(font.Tables)
		buf := &bytes.Buffer{}
		_, err = header.Write(buf, font.ScalerType, font.Tables)
		if err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}

	cases := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrMalformed},
		{"truncated", makefont.Squares()[:20], ErrMalformed},
		{"both outlines", makefont.WithTable(makefont.Squares(), "CFF ", []byte{1, 0, 4, 1}), ErrMalformed},
		{"no outlines", edit(func(tt map[string][]byte) {
			delete(tt, "glyf")
			delete(tt, "loca")
		}), ErrMalformed},
		{"CFF2", edit(func(tt map[string][]byte) {
			delete(tt, "glyf")
			delete(tt, "loca")
			tt["CFF2"] = []byte{2, 0, 5, 0, 0}
		}), ErrNotSupported},
		{"no head", edit(func(tt map[string][]byte) {
			delete(tt, "head")
		}), ErrMalformed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse(c.data)
			if !errors.Is(err, c.want) {
				t.Errorf("got error %v, want %v", err, c.want)
			}
		})
	}
}

func TestToOTF(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontconv")
	defer teardown()

	f := squares(t)
	err := f.ToOTF(nil)
	if err != nil {
		t.Fatal(err)
	}
	if f.OutlineKind() != PostScript || !f.Modified() {
		t.Fatalf("outline=%s modified=%t", f.OutlineKind(), f.Modified())
	}
	if ext := f.Extension(); ext != ".otf" {
		t.Errorf("wrong extension %q", ext)
	}
	for _, tag := range []string{"glyf", "loca", "fpgm", "prep", "cvt "} {
		if f.Table(tag) != nil {
			t.Errorf("table %q not removed", tag)
		}
	}
	maxp, err := table.DecodeMaxp(f.Table("maxp"))
	if err != nil {
		t.Fatal(err)
	}
	if maxp.TTF != nil || maxp.NumGlyphs != 4 {
		t.Errorf("wrong maxp table %v", maxp)
	}

	g, err := Parse(encode(t, f))
	if err != nil {
		t.Fatal(err)
	}
	if g.OutlineKind() != PostScript {
		t.Errorf("wrong outline kind %s after reading back", g.OutlineKind())
	}
}

// rasterize renders glyph gid of f into an alpha mask of size
// 3*ppem × 3*ppem, with the glyph origin at (ppem, 2*ppem).
func rasterize(t *testing.T, f *xsfnt.Font, gid xsfnt.GlyphIndex, ppem int) *image.Alpha {
	t.Helper()

	var buf xsfnt.Buffer
	segs, err := f.LoadGlyph(&buf, gid, fixed.I(ppem), nil)
	if err != nil {
		t.Fatalf("glyph %d: %v", gid, err)
	}

	size := 3 * ppem
	tx := float32(ppem)
	ty := float32(2 * ppem)
	pt := func(p fixed.Point26_6) (float32, float32) {
		return tx + float32(p.X)/64, ty + float32(p.Y)/64
	}
	rast := vector.NewRasterizer(size, size)
	for _, seg := range segs {
		switch seg.Op {
		case xsfnt.SegmentOpMoveTo:
			rast.MoveTo(pt(seg.Args[0]))
		case xsfnt.SegmentOpLineTo:
			rast.LineTo(pt(seg.Args[0]))
		case xsfnt.SegmentOpQuadTo:
			x1, y1 := pt(seg.Args[0])
			x2, y2 := pt(seg.Args[1])
			rast.QuadTo(x1, y1, x2, y2)
		case xsfnt.SegmentOpCubeTo:
			x1, y1 := pt(seg.Args[0])
			x2, y2 := pt(seg.Args[1])
			x3, y3 := pt(seg.Args[2])
			rast.CubeTo(x1, y1, x2, y2, x3, y3)
		}
	}
	img := image.NewAlpha(image.Rect(0, 0, size, size))
	rast.Draw(img, img.Bounds(), image.Opaque, image.Point{})
	return img
}

// compareOutlines checks that every glyph of got covers the same region
// as the corresponding glyph of want.
func compareOutlines(t *testing.T, want, got *xsfnt.Font) {
	t.Helper()

	if got.NumGlyphs() != want.NumGlyphs() {
		t.Fatalf("%d glyphs, want %d", got.NumGlyphs(), want.NumGlyphs())
	}
	const ppem = 64
	for i := range want.NumGlyphs() {
		gid := xsfnt.GlyphIndex(i)
		a := rasterize(t, want, gid, ppem)
		b := rasterize(t, got, gid, ppem)
		bad := 0
		for k := range a.Pix {
			d := int(a.Pix[k]) - int(b.Pix[k])
			if d > 96 || d < -96 {
				bad++
			}
		}
		if bad > 1 {
			t.Errorf("glyph %d: %d pixels differ", gid, bad)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontconv")
	defer teardown()

	f, err := Parse(makefont.GoRegular())
	if err != nil {
		t.Fatal(err)
	}
	orig, err := xsfnt.Parse(makefont.GoRegular())
	if err != nil {
		t.Fatal(err)
	}

	// default pipeline, including overlap removal
	err = f.ToOTF(nil)
	if err != nil {
		t.Fatal(err)
	}
	otf := encode(t, f)
	info, err := sfnt.Read(bytes.NewReader(otf))
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsCFF() {
		t.Error("converted font has no CFF outlines")
	}
	conv, err := xsfnt.Parse(otf)
	if err != nil {
		t.Fatal(err)
	}
	t.Run("ToOTF", func(t *testing.T) {
		compareOutlines(t, orig, conv)
	})

	err = f.ToTTF(nil)
	if err != nil {
		t.Fatal(err)
	}
	back, err := xsfnt.Parse(encode(t, f))
	if err != nil {
		t.Fatal(err)
	}
	t.Run("ToTTF", func(t *testing.T) {
		compareOutlines(t, orig, back)
	})

	if f.Table("post") == nil {
		t.Fatal("missing post table")
	}
	post, err := table.DecodePost(f.Table("post"))
	if err != nil {
		t.Fatal(err)
	}
	if len(post.Names) != orig.NumGlyphs() {
		t.Errorf("%d glyph names, want %d", len(post.Names), orig.NumGlyphs())
	}
}

func TestGlyphNamesPreserved(t *testing.T) {
	f := squares(t)
	err := f.ToOTF(nil)
	if err != nil {
		t.Fatal(err)
	}
	err = f.ToTTF(nil)
	if err != nil {
		t.Fatal(err)
	}
	post, err := table.DecodePost(f.Table("post"))
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(makefont.SquaresNames, post.Names); d != "" {
		t.Errorf("glyph names (-want +got):\n%s", d)
	}
}

func TestPreconditionLeavesFontUnchanged(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontconv")
	defer teardown()

	f := squares(t)
	before := snapshot(f)

	errs := map[string]error{
		"ToTTF":           f.ToTTF(nil),
		"ToOTF/tolerance": f.ToOTF(&Options{Tolerance: 0}),
		"ToOTF/negative":  f.ToOTF(&Options{Tolerance: -1}),
		"ToSFNT":          f.ToSFNT(),
		"Subroutinize":    f.Subroutinize(),
		"Desubroutinize":  f.Desubroutinize(),
		"ScaleUPM/range":  f.ScaleUPM(8),
		"ScaleUPM/same":   f.ScaleUPM(1000),
	}
	_, errs["CorrectContours"] = f.CorrectContours(DefaultOptions().MinArea)

	for op, err := range errs {
		var pre *PreconditionError
		if !errors.As(err, &pre) {
			t.Errorf("%s: got %v, want a precondition error", op, err)
		}
	}
	if f.Modified() {
		t.Error("font marked as modified")
	}
	if d := cmp.Diff(before, snapshot(f)); d != "" {
		t.Errorf("font changed (-before +after):\n%s", d)
	}
}

func TestVariableFont(t *testing.T) {
	f, err := Parse(makefont.Variable())
	if err != nil {
		t.Fatal(err)
	}
	if !f.IsVariable() {
		t.Fatal("fvar table not detected")
	}

	_, errDecomp := f.Decomponentize()
	_, errCorrect := f.CorrectContours(25)
	for i, err := range []error{
		f.ToOTF(nil),
		f.ToWOFF(),
		f.ToWOFF2(),
		f.RemoveHints(),
		f.ScaleUPM(2048),
		errDecomp,
		errCorrect,
	} {
		if !errors.Is(err, ErrPrecondition) {
			t.Errorf("%d: got %v, want a precondition error", i, err)
		}
	}
	if f.Modified() || f.WrapperKind() != SFNT {
		t.Errorf("variable font was modified")
	}
}

func TestWrapper(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontconv")
	defer teardown()

	f := squares(t)
	tags := f.Tags()

	type step struct {
		apply func() error
		kind  WrapperKind
		ext   string
	}
	for _, s := range []step{
		{f.ToWOFF, WOFF, ".woff"},
		{f.ToWOFF2, WOFF2, ".woff2"},
		{f.ToSFNT, SFNT, ".ttf"},
	} {
		err := s.apply()
		if err != nil {
			t.Fatal(err)
		}
		if f.WrapperKind() != s.kind || f.Extension() != s.ext {
			t.Errorf("got %s/%q, want %s/%q", f.WrapperKind(), f.Extension(), s.kind, s.ext)
		}

		g, err := Parse(encode(t, f))
		if err != nil {
			t.Fatalf("%s: %v", s.kind, err)
		}
		if g.WrapperKind() != s.kind {
			t.Errorf("read back as %s, want %s", g.WrapperKind(), s.kind)
		}
		if d := cmp.Diff(tags, g.Tags()); d != "" {
			t.Errorf("%s: tables differ (-want +got):\n%s", s.kind, d)
		}
	}
	if !f.Modified() {
		t.Error("font not marked as modified")
	}
}

func TestSubroutinizeKeepsWrapper(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontconv")
	defer teardown()

	f := squares(t)
	opt := DefaultOptions()
	opt.Subroutinize = false
	err := f.ToOTF(opt)
	if err != nil {
		t.Fatal(err)
	}
	err = f.ToWOFF2()
	if err != nil {
		t.Fatal(err)
	}

	for _, fn := range []func() error{f.Subroutinize, f.Desubroutinize} {
		err = fn()
		if err != nil {
			t.Fatal(err)
		}
		if f.WrapperKind() != WOFF2 {
			t.Errorf("wrapper changed to %s", f.WrapperKind())
		}
	}
	_, err = Parse(encode(t, f))
	if err != nil {
		t.Fatal(err)
	}
}

func TestCorrectContours(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontconv")
	defer teardown()

	f := squares(t)
	opt := DefaultOptions()
	opt.CorrectContours = false
	err := f.ToOTF(opt)
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.CorrectContours(-1)
	if !errors.Is(err, ErrPrecondition) {
		t.Errorf("negative area: got %v", err)
	}

	altered, err := f.CorrectContours(25)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, name := range altered {
		if name == "overlap" {
			found = true
		}
		if name == ".notdef" {
			t.Error("empty glyph reported as altered")
		}
	}
	if !found {
		t.Errorf("glyph \"overlap\" not corrected, altered=%q", altered)
	}
	_, err = Parse(encode(t, f))
	if err != nil {
		t.Fatal(err)
	}
}

func TestDecomponentize(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontconv")
	defer teardown()

	f := squares(t)
	changed, err := f.Decomponentize()
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]int{3}, changed); d != "" {
		t.Errorf("changed glyphs (-want +got):\n%s", d)
	}

	f.modified = false
	changed, err = f.Decomponentize()
	if err != nil {
		t.Fatal(err)
	}
	if len(changed) != 0 || f.Modified() {
		t.Errorf("second call changed %v", changed)
	}
}

func TestRemoveHints(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontconv")
	defer teardown()

	f := squares(t)
	err := f.RemoveHints()
	if err != nil {
		t.Fatal(err)
	}
	for _, tag := range []string{"fpgm", "prep", "cvt "} {
		if f.Table(tag) != nil {
			t.Errorf("table %q not removed", tag)
		}
	}
	head, err := table.DecodeHead(f.Table("head"))
	if err != nil {
		t.Fatal(err)
	}
	if head.Flags&table.HeadFlagInstructionsAlterAdvance != 0 {
		t.Error("head flag bit 4 still set")
	}
	maxp, err := table.DecodeMaxp(f.Table("maxp"))
	if err != nil {
		t.Fatal(err)
	}
	if maxp.TTF.MaxSizeOfInstructions != 0 || maxp.TTF.MaxFunctionDefs != 0 {
		t.Errorf("hinting limits not cleared: %+v", maxp.TTF)
	}
}

func TestScaleUPM(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontconv")
	defer teardown()

	f := squares(t)
	err := f.ScaleUPM(2048)
	if err != nil {
		t.Fatal(err)
	}
	head, err := table.DecodeHead(f.Table("head"))
	if err != nil {
		t.Fatal(err)
	}
	if head.UnitsPerEm != 2048 {
		t.Errorf("units per em = %d", head.UnitsPerEm)
	}
	hhea, err := table.DecodeHhea(f.Table("hhea"))
	if err != nil {
		t.Fatal(err)
	}
	hmtx, err := table.DecodeHmtx(f.Table("hmtx"), int(hhea.NumOfLongHorMetrics), 4)
	if err != nil {
		t.Fatal(err)
	}
	if hmtx.Widths[1] != 1434 {
		t.Errorf("width of glyph 1 = %d, want 1434", hmtx.Widths[1])
	}
	// glyph 1 spans 100..600 before scaling
	want := table.ScaleInt16(100, 2.048)
	if hmtx.LSB[1] != want {
		t.Errorf("lsb of glyph 1 = %d, want %d", hmtx.LSB[1], want)
	}

	err = f.ScaleUPM(2048)
	if !errors.Is(err, ErrPrecondition) {
		t.Errorf("same units per em: got %v", err)
	}
}

func TestScaleUPMWithGPOS(t *testing.T) {
	f, err := Parse(makefont.WithTable(makefont.Squares(), "GPOS", make([]byte, 10)))
	if err != nil {
		t.Fatal(err)
	}
	before := snapshot(f)
	err = f.ScaleUPM(2048)
	if !errors.Is(err, ErrNotSupported) {
		t.Errorf("got %v, want ErrNotSupported", err)
	}
	if d := cmp.Diff(before, snapshot(f)); d != "" {
		t.Errorf("font changed (-before +after):\n%s", d)
	}
}

func TestSave(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontconv")
	defer teardown()

	dir := t.TempDir()
	fname := filepath.Join(dir, "out.ttf")
	err := os.WriteFile(fname, []byte("old contents"), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	f := squares(t)
	err = f.ToWOFF()
	if err != nil {
		t.Fatal(err)
	}
	err = f.Save(fname)
	if err != nil {
		t.Fatal(err)
	}

	g, err := ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	if g.WrapperKind() != WOFF {
		t.Errorf("saved font has wrapper %s", g.WrapperKind())
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("%d files in output directory, want 1", len(entries))
	}

	err = f.Save(filepath.Join(dir, "missing", "out.ttf"))
	if err == nil {
		t.Error("saving to a missing directory succeeded")
	}
}

func TestExtension(t *testing.T) {
	cases := []struct {
		outline OutlineKind
		wrapper WrapperKind
		want    string
	}{
		{TrueType, SFNT, ".ttf"},
		{PostScript, SFNT, ".otf"},
		{TrueType, WOFF, ".woff"},
		{PostScript, WOFF2, ".woff2"},
	}
	for _, c := range cases {
		f := &Font{outline: c.outline, wrapper: c.wrapper}
		if got := f.Extension(); got != c.want {
			t.Errorf("%s/%s: got %q, want %q", c.outline, c.wrapper, got, c.want)
		}
	}
}

func TestOptionsCheck(t *testing.T) {
	for _, opt := range []*Options{
		{Tolerance: 0},
		{Tolerance: -0.5},
		{Tolerance: 1, MinArea: -1},
		{Tolerance: 1, Workers: -2},
	} {
		err := opt.check("test")
		if !errors.Is(err, ErrPrecondition) {
			t.Errorf("%+v: got %v", opt, err)
		}
	}
	err := DefaultOptions().check("test")
	if err != nil {
		t.Error(err)
	}
}

func TestForEachGlyph(t *testing.T) {
	for _, workers := range []int{1, 4} {
		res := make([]int, 100)
		err := forEachGlyph(len(res), workers, func(i int) error {
			res[i] = i * i
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		for i, v := range res {
			if v != i*i {
				t.Fatalf("workers=%d: res[%d] = %d", workers, i, v)
			}
		}
	}

	errTest := errors.New("test")
	err := forEachGlyph(10, 3, func(i int) error {
		if i == 7 {
			return errTest
		}
		return nil
	})
	if !errors.Is(err, errTest) {
		t.Errorf("got %v", err)
	}
}
