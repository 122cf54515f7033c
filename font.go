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

// Package fontconv converts fonts between TrueType and PostScript outlines
// and between the SFNT, WOFF and WOFF2 container formats, and repairs
// glyph outlines.
//
// A Font is read from a file, modified using its conversion methods, and
// written back:
//
//	f, err := fontconv.ReadFile("in.ttf")
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = f.ToOTF(nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = f.Save("out" + f.Extension())
//
// Every method either succeeds completely or leaves the font unchanged.
package fontconv

import (
	"bytes"
	"encoding/binary"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/npillmayer/schuko/tracing"

	"seehuhn.de/go/fontconv/sfnt/header"
	"seehuhn.de/go/fontconv/sfnt/woff"
	"seehuhn.de/go/fontconv/sfnt/woff2"
)

// tracer traces with key 'fontconv'
func tracer() tracing.Trace {
	return tracing.Select("fontconv")
}

// Font is a font file held in memory.
type Font struct {
	scalerType uint32
	tables     map[string][]byte

	outline  OutlineKind
	wrapper  WrapperKind
	modified bool
}

// Read reads a font in SFNT, WOFF or WOFF2 format.
func Read(r io.Reader) (*Font, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// ReadFile reads a font file.
func ReadFile(fname string) (*Font, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	tracer().Debugf("read %s: %s outlines, %s container", fname, f.outline, f.wrapper)
	return f, nil
}

// Parse decodes a font from its binary representation.
func Parse(data []byte) (*Font, error) {
	const op = "read"

	var font *header.Font
	var wrapper WrapperKind
	var err error
	switch {
	case len(data) >= 4 && binary.BigEndian.Uint32(data) == woff.Signature:
		font, err = woff.Decode(data)
		wrapper = WOFF
	case len(data) >= 4 && binary.BigEndian.Uint32(data) == woff2.Signature:
		font, err = woff2.Decode(data)
		wrapper = WOFF2
	default:
		font, err = header.Read(data)
		wrapper = SFNT
	}
	if err != nil {
		return nil, classify(op, err)
	}

	f := &Font{
		scalerType: font.ScalerType,
		tables:     font.Tables,
		wrapper:    wrapper,
	}
	hasCFF := font.Has("CFF ")
	hasGlyf := font.Has("glyf", "loca")
	switch {
	case hasCFF && hasGlyf:
		return nil, &MalformedError{Op: op, Err: errOutlineTables}
	case hasCFF:
		f.outline = PostScript
	case hasGlyf:
		f.outline = TrueType
	case font.Has("CFF2"):
		return nil, notSupported(op, "CFF2 outlines")
	default:
		return nil, &MalformedError{Op: op, Err: errNoOutlines}
	}
	for _, tag := range []string{"head", "maxp"} {
		if !font.Has(tag) {
			return nil, &MalformedError{Op: op, Err: missingTable(tag)}
		}
	}
	return f, nil
}

// Write writes the font to w, using the current container format.
func (f *Font) Write(w io.Writer) error {
	switch f.wrapper {
	case WOFF:
		return woff.Encode(w, f.scalerType, f.tables)
	case WOFF2:
		return woff2.Encode(w, f.scalerType, f.tables)
	default:
		_, err := header.Write(w, f.scalerType, f.tables)
		return err
	}
}

// Save writes the font to the named file.  The data is first written to a
// temporary file in the same directory, which is then renamed.  An
// existing file is only replaced if the font was written successfully.
func (f *Font) Save(fname string) (err error) {
	buf := &bytes.Buffer{}
	err = f.Write(buf)
	if err != nil {
		return err
	}

	dir, base := filepath.Split(fname)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	_, err = tmp.Write(buf.Bytes())
	if err != nil {
		return err
	}
	err = tmp.Chmod(0o644)
	if err != nil {
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	err = os.Rename(tmp.Name(), fname)
	if err != nil {
		return err
	}
	tracer().Infof("wrote %s (%d bytes)", fname, buf.Len())
	return nil
}

// OutlineKind returns the type of glyph outlines stored in the font.
func (f *Font) OutlineKind() OutlineKind {
	return f.outline
}

// WrapperKind returns the container format of the font.
func (f *Font) WrapperKind() WrapperKind {
	return f.wrapper
}

// IsVariable reports whether the font is a variable font.  Variable fonts
// cannot be converted.
func (f *Font) IsVariable() bool {
	_, ok := f.tables["fvar"]
	return ok
}

// Modified reports whether any operation changed the font since it was
// read.
func (f *Font) Modified() bool {
	return f.modified
}

// Extension returns the conventional file name extension for the font,
// including the leading dot.
func (f *Font) Extension() string {
	switch f.wrapper {
	case WOFF:
		return ".woff"
	case WOFF2:
		return ".woff2"
	}
	if f.outline == PostScript {
		return ".otf"
	}
	return ".ttf"
}

// Tags returns the sorted table tags of the font.
func (f *Font) Tags() []string {
	return slices.Sorted(maps.Keys(f.tables))
}

// Table returns a copy of the table with the given tag, or nil if the font
// has no such table.
func (f *Font) Table(tag string) []byte {
	return slices.Clone(f.tables[tag])
}

// edit collects the changes made by an operation.  The changes are
// applied to the font by commit, after the operation has succeeded.
type edit struct {
	f          *Font
	tables     map[string][]byte
	scalerType uint32
	outline    OutlineKind
}

func (f *Font) begin() *edit {
	return &edit{
		f:          f,
		tables:     maps.Clone(f.tables),
		scalerType: f.scalerType,
		outline:    f.outline,
	}
}

func (e *edit) commit() {
	e.f.tables = e.tables
	e.f.scalerType = e.scalerType
	e.f.outline = e.outline
	e.f.modified = true
}

func (f *Font) requireStatic(op string) error {
	if f.IsVariable() {
		return precondition(op, "variable fonts are not supported")
	}
	return nil
}

func (f *Font) requireOutline(op string, kind OutlineKind) error {
	if f.outline != kind {
		return precondition(op, "requires %s outlines, font has %s outlines", kind, f.outline)
	}
	return nil
}
