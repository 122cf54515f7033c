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

// Package cff reads and writes name-keyed CFF tables.
//
// Glyphs are stored as Type 2 charstrings.  Charstrings can be decoded into
// drawing commands (Glyph) and built from glyph outlines, using the
// shortest available operator sequence.  Local subroutines can be
// introduced (Subroutinize) and removed again (Desubroutinize).
package cff

import (
	"math"
	"slices"

	"github.com/npillmayer/schuko/tracing"
	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/fontconv/internal/parser"
)

// tracer traces with key 'fontconv.cff'
func tracer() tracing.Trace {
	return tracing.Select("fontconv.cff")
}

// Info holds the font-wide information stored in the Top DICT.
type Info struct {
	FontName   string
	Version    string
	Notice     string
	Copyright  string
	FullName   string
	FamilyName string
	Weight     string

	IsFixedPitch       bool
	ItalicAngle        float64
	UnderlinePosition  float64
	UnderlineThickness float64

	// FontMatrix maps glyph space to text space.  The zero value
	// stands for the default matrix [0.001 0 0 0.001 0 0].
	FontMatrix [6]float64
}

const (
	defaultUnderlinePosition  = -100
	defaultUnderlineThickness = 50
)

// Font is a name-keyed CFF font.
type Font struct {
	FontName string

	// GlyphNames and CharStrings are indexed by glyph ID.
	GlyphNames  []string
	CharStrings [][]byte

	// Subrs and Gsubrs are the local and global subroutines.
	Subrs  [][]byte
	Gsubrs [][]byte

	DefaultWidth float64
	NominalWidth float64

	topDict cffDict
	private cffDict
}

// Read decodes a CFF table.
func Read(data []byte) (*Font, error) {
	p := parser.New("CFF", data)
	x, err := p.ReadUint32()
	if err != nil {
		return nil, err
	}
	major := x >> 24
	hdrSize := int((x >> 8) & 0xFF)
	offSize := x & 0xFF
	if major == 2 {
		return nil, notSupported("CFF2")
	} else if major != 1 || hdrSize < 4 || offSize > 4 {
		return nil, invalidSince("not a CFF font")
	}

	err = p.SeekPos(hdrSize)
	if err != nil {
		return nil, err
	}
	fontNames, err := readIndex(p)
	if err != nil {
		return nil, err
	}
	if len(fontNames) != 1 {
		return nil, notSupported("CFF font sets")
	}
	topDictIndex, err := readIndex(p)
	if err != nil {
		return nil, err
	}
	if len(topDictIndex) != 1 {
		return nil, invalidSince("invalid Top DICT INDEX")
	}
	stringIndex, err := readIndex(p)
	if err != nil {
		return nil, err
	}
	strings := &cffStrings{data: make([]string, len(stringIndex))}
	for i, s := range stringIndex {
		strings.data[i] = string(s)
	}
	gsubrs, err := readIndex(p)
	if err != nil {
		return nil, err
	}

	topDict, err := decodeDict(topDictIndex[0], strings)
	if err != nil {
		return nil, err
	}
	if _, isCIDFont := topDict[opROS]; isCIDFont {
		return nil, notSupported("CID-keyed fonts")
	}
	if _, isSynthetic := topDict[opSyntheticBase]; isSynthetic {
		return nil, notSupported("synthetic fonts")
	}
	if topDict.getInt(opCharstringType, 2) != 2 {
		return nil, notSupported("charstring type other than 2")
	}

	charStrings, err := readIndexAt(p, topDict.getInt(opCharStrings, 0), "CharStrings")
	if err != nil {
		return nil, err
	}
	nGlyphs := len(charStrings)
	if nGlyphs == 0 {
		return nil, invalidSince("no glyphs")
	}

	var charset []int32
	switch offs := topDict.getInt(opCharset, 0); offs {
	case 0: // ISOAdobe
		if nGlyphs > 229 {
			return nil, invalidSince("too many glyphs for ISOAdobe charset")
		}
		charset = make([]int32, nGlyphs)
		for i := range charset {
			charset[i] = int32(i)
		}
	case 1, 2:
		return nil, notSupported("expert charsets")
	default:
		err = p.SeekPos(int(offs))
		if err != nil {
			return nil, err
		}
		charset, err = readCharset(p, nGlyphs)
		if err != nil {
			return nil, err
		}
	}

	f := &Font{
		FontName:    string(fontNames[0]),
		GlyphNames:  make([]string, nGlyphs),
		CharStrings: make([][]byte, nGlyphs),
		Gsubrs:      cloneBlobs(gsubrs),
	}
	for i, sid := range charset {
		f.GlyphNames[i], err = strings.get(sid)
		if err != nil {
			return nil, err
		}
		f.CharStrings[i] = slices.Clone(charStrings[i])
	}

	size, offs, ok := topDict.getPair(opPrivate)
	if !ok || size < 0 || offs < 0 || int(offs)+int(size) > len(data) {
		return nil, invalidSince("missing or invalid Private DICT")
	}
	f.private, err = decodeDict(data[offs:offs+size], strings)
	if err != nil {
		return nil, err
	}
	if subrsOffs := f.private.getInt(opSubrs, 0); subrsOffs > 0 {
		subrs, err := readIndexAt(p, offs+subrsOffs, "Subrs")
		if err != nil {
			return nil, err
		}
		f.Subrs = cloneBlobs(subrs)
	}
	f.DefaultWidth = f.private.getFloat(opDefaultWidthX, 0)
	f.NominalWidth = f.private.getFloat(opNominalWidthX, 0)
	delete(f.private, opSubrs)
	delete(f.private, opDefaultWidthX)
	delete(f.private, opNominalWidthX)

	for _, op := range []dictOp{opCharset, opEncoding, opCharStrings, opPrivate} {
		delete(topDict, op)
	}
	f.topDict = topDict

	tracer().Debugf("read CFF font %q with %d glyphs, %d subrs, %d gsubrs",
		f.FontName, nGlyphs, len(f.Subrs), len(f.Gsubrs))
	return f, nil
}

// New builds a CFF font from the given glyphs.  The first glyph must be
// ".notdef".
func New(info *Info, glyphs []*Glyph) (*Font, error) {
	f := &Font{
		FontName: info.FontName,
		topDict:  cffDict{},
		private:  cffDict{},
	}
	setString := func(op dictOp, s string) {
		if s != "" {
			f.topDict[op] = []any{s}
		}
	}
	setString(opVersion, info.Version)
	setString(opNotice, info.Notice)
	setString(opCopyright, info.Copyright)
	setString(opFullName, info.FullName)
	setString(opFamilyName, info.FamilyName)
	setString(opWeight, info.Weight)
	if info.IsFixedPitch {
		f.topDict[opIsFixedPitch] = []any{int32(1)}
	}
	if info.ItalicAngle != 0 {
		f.topDict[opItalicAngle] = []any{info.ItalicAngle}
	}
	if info.UnderlinePosition != defaultUnderlinePosition {
		f.topDict[opUnderlinePosition] = []any{info.UnderlinePosition}
	}
	if info.UnderlineThickness != defaultUnderlineThickness {
		f.topDict[opUnderlineThickness] = []any{info.UnderlineThickness}
	}
	f.topDict.setFontMatrix(info.FontMatrix)

	err := f.SetGlyphs(glyphs)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Info returns the font-wide information from the Top DICT.
func (f *Font) Info() *Info {
	info := &Info{
		FontName:           f.FontName,
		Version:            f.topDict.getString(opVersion),
		Notice:             f.topDict.getString(opNotice),
		Copyright:          f.topDict.getString(opCopyright),
		FullName:           f.topDict.getString(opFullName),
		FamilyName:         f.topDict.getString(opFamilyName),
		Weight:             f.topDict.getString(opWeight),
		IsFixedPitch:       f.topDict.getInt(opIsFixedPitch, 0) != 0,
		ItalicAngle:        f.topDict.getFloat(opItalicAngle, 0),
		UnderlinePosition:  f.topDict.getFloat(opUnderlinePosition, defaultUnderlinePosition),
		UnderlineThickness: f.topDict.getFloat(opUnderlineThickness, defaultUnderlineThickness),
	}
	if fm := f.topDict[opFontMatrix]; len(fm) == 6 {
		for i, x := range fm {
			switch x := x.(type) {
			case float64:
				info.FontMatrix[i] = x
			case int32:
				info.FontMatrix[i] = float64(x)
			}
		}
	}
	return info
}

// NumGlyphs returns the number of glyphs in the font.
func (f *Font) NumGlyphs() int {
	return len(f.CharStrings)
}

// Glyph decodes the charstring of the glyph with the given ID.
func (f *Font) Glyph(gid int) (*Glyph, error) {
	if gid < 0 || gid >= len(f.CharStrings) {
		return nil, invalidSince("glyph ID out of range")
	}
	info := &decodeInfo{
		subrs:        f.Subrs,
		gsubrs:       f.Gsubrs,
		defaultWidth: f.DefaultWidth,
		nominalWidth: f.NominalWidth,
	}
	g, err := decodeCharString(info, f.CharStrings[gid])
	if err != nil {
		return nil, err
	}
	g.Name = f.GlyphNames[gid]
	return g, nil
}

// Glyphs decodes all charstrings of the font.
func (f *Font) Glyphs() ([]*Glyph, error) {
	res := make([]*Glyph, len(f.CharStrings))
	for i := range res {
		g, err := f.Glyph(i)
		if err != nil {
			return nil, err
		}
		res[i] = g
	}
	return res, nil
}

// SetGlyphs replaces all glyphs of the font.  The new charstrings do not
// use subroutines.
func (f *Font) SetGlyphs(glyphs []*Glyph) error {
	if len(glyphs) == 0 || glyphs[0].Name != ".notdef" {
		return errMissingNotdef
	}
	seen := make(map[string]bool, len(glyphs))
	for _, g := range glyphs {
		if seen[g.Name] {
			return invalidSince("duplicate glyph name " + g.Name)
		}
		seen[g.Name] = true
	}

	defaultWidth, nominalWidth := selectWidths(glyphs)
	names := make([]string, len(glyphs))
	charStrings := make([][]byte, len(glyphs))
	var bbox rect.Rect
	first := true
	for i, g := range glyphs {
		code, err := g.encodeCharString(defaultWidth, nominalWidth)
		if err != nil {
			return err
		}
		names[i] = g.Name
		charStrings[i] = code

		o := g.Outline()
		if len(o) == 0 {
			continue
		}
		b := o.TightBounds()
		if first {
			bbox = b
			first = false
		} else {
			bbox = rect.Rect{
				LLx: min(bbox.LLx, b.LLx),
				LLy: min(bbox.LLy, b.LLy),
				URx: max(bbox.URx, b.URx),
				URy: max(bbox.URy, b.URy),
			}
		}
	}

	f.GlyphNames = names
	f.CharStrings = charStrings
	f.Subrs = nil
	f.Gsubrs = nil
	f.DefaultWidth = defaultWidth
	f.NominalWidth = nominalWidth
	f.topDict[opFontBBox] = []any{
		int32(math.Floor(bbox.LLx)), int32(math.Floor(bbox.LLy)),
		int32(math.Ceil(bbox.URx)), int32(math.Ceil(bbox.URy)),
	}
	return nil
}

// FontBBox returns the font bounding box from the Top DICT.
func (f *Font) FontBBox() rect.Rect {
	bb := f.topDict[opFontBBox]
	if len(bb) != 4 {
		return rect.Rect{}
	}
	var v [4]float64
	for i, x := range bb {
		switch x := x.(type) {
		case int32:
			v[i] = float64(x)
		case float64:
			v[i] = x
		}
	}
	return rect.Rect{LLx: v[0], LLy: v[1], URx: v[2], URy: v[3]}
}

// Widths returns the advance widths of all glyphs.
func (f *Font) Widths() ([]float64, error) {
	res := make([]float64, len(f.CharStrings))
	for i := range res {
		g, err := f.Glyph(i)
		if err != nil {
			return nil, err
		}
		res[i] = g.Width
	}
	return res, nil
}

// selectWidths chooses defaultWidthX and nominalWidthX.  The most frequent
// width becomes the default width, the remaining widths are encoded
// relative to their mean.
func selectWidths(glyphs []*Glyph) (float64, float64) {
	hist := make(map[float64]int)
	var defaultWidth float64
	bestCount := 0
	for _, g := range glyphs {
		w := g.Width
		hist[w]++
		if c := hist[w]; c > bestCount || c == bestCount && w < defaultWidth {
			defaultWidth = w
			bestCount = c
		}
	}

	var sum float64
	n := 0
	for _, g := range glyphs {
		if g.Width != defaultWidth {
			sum += g.Width
			n++
		}
	}
	if n == 0 {
		return defaultWidth, defaultWidth
	}
	return defaultWidth, math.Round(sum / float64(n))
}

// Encode returns the binary representation of the CFF table.
func (f *Font) Encode() ([]byte, error) {
	if len(f.CharStrings) == 0 || f.GlyphNames[0] != ".notdef" {
		return nil, errMissingNotdef
	}

	strings := &cffStrings{}
	blobs := make([][]byte, numSections)
	var err error

	blobs[secHeader] = []byte{
		1, // major
		0, // minor
		4, // hdrSize
		4, // offSize, updated below
	}

	blobs[secNameIndex], err = encodeIndex([][]byte{[]byte(f.FontName)})
	if err != nil {
		return nil, err
	}

	blobs[secGsubrsIndex], err = encodeIndex(f.Gsubrs)
	if err != nil {
		return nil, err
	}

	glyphNames := make([]int32, len(f.GlyphNames))
	for i, name := range f.GlyphNames {
		glyphNames[i] = strings.lookup(name)
	}
	blobs[secCharsets], err = encodeCharset(glyphNames)
	if err != nil {
		return nil, err
	}

	blobs[secCharStringsIndex], err = encodeIndex(f.CharStrings)
	if err != nil {
		return nil, err
	}

	if len(f.Subrs) > 0 {
		blobs[secSubrsIndex], err = encodeIndex(f.Subrs)
		if err != nil {
			return nil, err
		}
	}

	topDict := f.topDict.clone()
	privateDict := f.private.clone()
	if f.DefaultWidth != 0 {
		privateDict[opDefaultWidthX] = []any{f.DefaultWidth}
	}
	if f.NominalWidth != 0 {
		privateDict[opNominalWidthX] = []any{f.NominalWidth}
	}

	// All strings must be registered before the String INDEX is written.
	// Offsets are encoded with their final values once these no longer
	// change.
	cumsum := func() []int32 {
		res := make([]int32, numSections+1)
		for i := range numSections {
			res[i+1] = res[i] + int32(len(blobs[i]))
		}
		return res
	}
	offs := cumsum()
	for {
		blobs[secHeader][3] = offsetSize(offs[numSections])

		if len(f.Subrs) > 0 {
			privateDict[opSubrs] = []any{offs[secSubrsIndex] - offs[secPrivateDict]}
		}
		blobs[secPrivateDict] = privateDict.encode(strings)

		topDict[opCharset] = []any{offs[secCharsets]}
		topDict[opCharStrings] = []any{offs[secCharStringsIndex]}
		topDict[opPrivate] = []any{int32(len(blobs[secPrivateDict])), offs[secPrivateDict]}
		blobs[secTopDictIndex], err = encodeIndex([][]byte{topDict.encode(strings)})
		if err != nil {
			return nil, err
		}

		blobs[secStringIndex], err = strings.encode()
		if err != nil {
			return nil, err
		}

		newOffs := cumsum()
		if slices.Equal(newOffs, offs) {
			break
		}
		offs = newOffs
	}

	res := make([]byte, 0, offs[numSections])
	for _, blob := range blobs {
		res = append(res, blob...)
	}
	return res, nil
}

func offsetSize(total int32) byte {
	switch {
	case total < 1<<8:
		return 1
	case total < 1<<16:
		return 2
	case total < 1<<24:
		return 3
	default:
		return 4
	}
}

func cloneBlobs(blobs [][]byte) [][]byte {
	if blobs == nil {
		return nil
	}
	res := make([][]byte, len(blobs))
	for i, b := range blobs {
		res[i] = slices.Clone(b)
	}
	return res
}

// Clone returns a deep copy of the font.
func (f *Font) Clone() *Font {
	res := *f
	res.GlyphNames = slices.Clone(f.GlyphNames)
	res.CharStrings = cloneBlobs(f.CharStrings)
	res.Subrs = cloneBlobs(f.Subrs)
	res.Gsubrs = cloneBlobs(f.Gsubrs)
	res.topDict = f.topDict.clone()
	res.private = f.private.clone()
	return &res
}

// The sections of a CFF table, in the order in which they are written.
const (
	secHeader = iota
	secNameIndex
	secTopDictIndex
	secStringIndex
	secGsubrsIndex
	secCharsets
	secCharStringsIndex
	secPrivateDict
	secSubrsIndex

	numSections
)
