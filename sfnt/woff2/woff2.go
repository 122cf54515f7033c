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

// Package woff2 reads and writes WOFF 2.0 font files.
//
// All tables of a WOFF2 file are compressed together into a single Brotli
// stream.  The "glyf" and "loca" tables are stored in a transformed
// representation, which is reconstructed by the decoder.
// https://www.w3.org/TR/WOFF2/
package woff2

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"slices"

	"github.com/andybalholm/brotli"
	"github.com/npillmayer/schuko/tracing"

	"seehuhn.de/go/fontconv/internal/parser"
	"seehuhn.de/go/fontconv/sfnt/header"
	"seehuhn.de/go/fontconv/truetype"
)

// tracer traces with key 'fontconv.woff2'
func tracer() tracing.Trace {
	return tracing.Select("fontconv.woff2")
}

// Signature is the first four bytes of every WOFF2 file.
const Signature = 0x774F4632 // "wOF2"

const (
	headerSize = 48

	// maxUncompressed bounds the size of the decompressed table data.
	maxUncompressed = 1 << 28
)

type woff2Header struct {
	Signature           uint32
	Flavor              uint32
	Length              uint32
	NumTables           uint16
	Reserved            uint16
	TotalSfntSize       uint32
	TotalCompressedSize uint32
	MajorVersion        uint16
	MinorVersion        uint16
	MetaOffset          uint32
	MetaLength          uint32
	MetaOrigLength      uint32
	PrivOffset          uint32
	PrivLength          uint32
}

// knownTags lists the tables which can be identified by a 6-bit index in
// the table directory.
var knownTags = [63]string{
	"cmap", "head", "hhea", "hmtx", "maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca", "prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern", "LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS", "GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL", "SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar", "fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar", "mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat", "Gloc", "Feat", "Sill",
}

const explicitTag = 63

func knownTagIndex(tag string) int {
	idx := slices.Index(knownTags[:], tag)
	if idx < 0 {
		return explicitTag
	}
	return idx
}

type dirEntry struct {
	Tag             string
	Transform       uint8
	OrigLength      uint32
	TransformLength uint32
}

// isTransformed reports whether the table data is stored in a transformed
// representation.  For "glyf" and "loca", transform version 3 is the null
// transform, for all other tables version 0 is.
func (e *dirEntry) isTransformed() bool {
	if e.Tag == "glyf" || e.Tag == "loca" {
		return e.Transform != 3
	}
	return e.Transform != 0
}

func (e *dirEntry) storedLength() uint32 {
	if e.isTransformed() {
		return e.TransformLength
	}
	return e.OrigLength
}

// Decode decodes a WOFF2 file.  Extended metadata and private data are
// not retained.
func Decode(data []byte) (*header.Font, error) {
	if len(data) < headerSize {
		return nil, parser.Invalid("woff2", "file too short")
	}
	hdr := &woff2Header{}
	_ = binary.Read(bytes.NewReader(data), binary.BigEndian, hdr)
	if hdr.Signature != Signature {
		return nil, parser.Invalid("woff2", "invalid signature")
	}
	if hdr.Flavor == 0x74746366 { // "ttcf"
		return nil, parser.NotSupported("woff2", "font collections")
	}
	if int(hdr.Length) != len(data) {
		return nil, parser.Invalid("woff2",
			fmt.Sprintf("length field %d does not match file size %d", hdr.Length, len(data)))
	}
	if hdr.NumTables == 0 {
		return nil, parser.Invalid("woff2", "no tables")
	}

	p := parser.New("woff2", data)
	err := p.SeekPos(headerSize)
	if err != nil {
		return nil, err
	}
	entries, err := readDirectory(p, int(hdr.NumTables))
	if err != nil {
		return nil, err
	}

	var total uint64
	for _, e := range entries {
		total += uint64(e.storedLength())
	}
	if total > maxUncompressed {
		return nil, parser.Invalid("woff2", "uncompressed data too large")
	}
	compressed, err := p.ReadBytes(int(hdr.TotalCompressedSize))
	if err != nil {
		return nil, err
	}
	stream, err := decompress(compressed, int(total))
	if err != nil {
		return nil, parser.Invalid("woff2", err.Error())
	}

	res := &header.Font{
		ScalerType: hdr.Flavor,
		Tables:     make(map[string][]byte, len(entries)),
	}
	var glyfEntry, locaEntry *dirEntry
	var transformedGlyf []byte
	pos := uint32(0)
	for i := range entries {
		e := &entries[i]
		end := pos + e.storedLength()
		body := stream[pos:end:end]
		pos = end

		if _, dup := res.Tables[e.Tag]; dup {
			return nil, parser.Invalid("woff2", fmt.Sprintf("duplicate table %q", e.Tag))
		}

		switch {
		case !e.isTransformed():
			res.Tables[e.Tag] = body
		case e.Tag == "glyf" && e.Transform == 0:
			glyfEntry = e
			transformedGlyf = body
		case e.Tag == "loca" && e.Transform == 0:
			if e.TransformLength != 0 {
				return nil, parser.Invalid("woff2", "transformed loca table is not empty")
			}
			locaEntry = e
		case e.Tag == "hmtx" && e.Transform == 1:
			return nil, parser.NotSupported("woff2", "transformed hmtx table")
		default:
			return nil, parser.NotSupported("woff2",
				fmt.Sprintf("transform version %d for table %q", e.Transform, e.Tag))
		}
	}

	if (glyfEntry == nil) != (locaEntry == nil) {
		return nil, parser.Invalid("woff2", "glyf and loca must be transformed together")
	}
	if glyfEntry != nil {
		head, ok := res.Tables["head"]
		if !ok || len(head) < 54 {
			return nil, parser.Invalid("woff2", "missing head table")
		}
		enc, err := reconstructGlyf(transformedGlyf)
		if err != nil {
			return nil, err
		}
		res.Tables["glyf"] = enc.GlyfData
		res.Tables["loca"] = enc.LocaData

		head = slices.Clone(head)
		binary.BigEndian.PutUint16(head[50:52], uint16(enc.LocaFormat))
		res.Tables["head"] = head
	}

	tracer().Debugf("decoded WOFF2 file with %d tables", len(res.Tables))
	return res, nil
}

func readDirectory(p *parser.Parser, numTables int) ([]dirEntry, error) {
	entries := make([]dirEntry, numTables)
	for i := range entries {
		e := &entries[i]
		flags, err := p.ReadUint8()
		if err != nil {
			return nil, err
		}
		if idx := flags & 0x3F; idx == explicitTag {
			tag, err := p.ReadBytes(4)
			if err != nil {
				return nil, err
			}
			e.Tag = string(tag)
		} else {
			e.Tag = knownTags[idx]
		}
		e.Transform = flags >> 6

		e.OrigLength, err = readUIntBase128(p)
		if err != nil {
			return nil, err
		}
		if e.isTransformed() {
			e.TransformLength, err = readUIntBase128(p)
			if err != nil {
				return nil, err
			}
		}
	}
	return entries, nil
}

func decompress(compressed []byte, size int) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(compressed))
	res := make([]byte, size)
	_, err := io.ReadFull(r, res)
	if err != nil {
		return nil, fmt.Errorf("brotli: %w", err)
	}
	var extra [1]byte
	if n, _ := r.Read(extra[:]); n > 0 {
		return nil, fmt.Errorf("decompressed data too long")
	}
	return res, nil
}

// Encode writes the tables as a WOFF2 file.  If the font has TrueType
// outlines which can be decoded, the "glyf" and "loca" tables are stored
// in transformed form.
func Encode(w io.Writer, scalerType uint32, tables map[string][]byte) error {
	hasGlyf := tables["glyf"] != nil && tables["loca"] != nil

	// The signature would not survive the conversion.
	var tags []string
	for tag, body := range tables {
		if body == nil || tag == "DSIG" || hasGlyf && tag == "loca" {
			continue
		}
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	if len(tags) == 0 {
		return parser.Invalid("woff2", "no tables")
	}

	var transformed []byte
	var glyfLength, locaLength uint32
	if hasGlyf {
		// loca must directly follow glyf
		glyfIdx := slices.Index(tags, "glyf")
		tags = slices.Insert(tags, glyfIdx+1, "loca")

		var err error
		transformed, glyfLength, locaLength, err = transformTables(tables)
		if err != nil {
			tracer().Debugf("storing glyf untransformed: %v", err)
			transformed = nil
		}
	}

	var uncompressed []byte
	dir := make([]byte, 0, 10*len(tags))
	sfntSize := uint32(12 + 16*len(tags))
	for _, tag := range tags {
		body := tables[tag]
		origLength := uint32(len(body))
		var flags uint8
		var transformLength uint32
		hasTransformLength := false

		switch {
		case tag == "glyf" && transformed != nil:
			body = transformed
			origLength = glyfLength
			transformLength = uint32(len(transformed))
			hasTransformLength = true
		case tag == "loca" && transformed != nil:
			body = nil
			origLength = locaLength
			hasTransformLength = true
		case tag == "glyf" || tag == "loca":
			flags = 3 << 6
		}

		idx := knownTagIndex(tag)
		dir = append(dir, flags|uint8(idx))
		if idx == explicitTag {
			dir = append(dir, tag...)
		}
		dir = appendUIntBase128(dir, origLength)
		if hasTransformLength {
			dir = appendUIntBase128(dir, transformLength)
		}
		uncompressed = append(uncompressed, body...)
		sfntSize += 4 * ((origLength + 3) / 4)
	}

	compressed := &bytes.Buffer{}
	bw := brotli.NewWriterLevel(compressed, brotli.BestCompression)
	_, err := bw.Write(uncompressed)
	if err != nil {
		return err
	}
	err = bw.Close()
	if err != nil {
		return err
	}

	compressedSize := uint32(compressed.Len())
	length := uint32(headerSize+len(dir)) + compressedSize
	padding := (4 - length%4) % 4
	length += padding

	hdr := &woff2Header{
		Signature:           Signature,
		Flavor:              scalerType,
		Length:              length,
		NumTables:           uint16(len(tags)),
		TotalSfntSize:       sfntSize,
		TotalCompressedSize: compressedSize,
		MajorVersion:        1,
	}
	buf := bytes.NewBuffer(make([]byte, 0, length))
	_ = binary.Write(buf, binary.BigEndian, hdr)
	buf.Write(dir)
	buf.Write(compressed.Bytes())
	buf.Write(make([]byte, padding))

	tracer().Debugf("encoded WOFF2 file: %d tables, %d -> %d bytes",
		len(tags), len(uncompressed), buf.Len())
	_, err = w.Write(buf.Bytes())
	return err
}

// transformTables decodes the glyphs and returns the transformed "glyf"
// table, together with the lengths of the "glyf" and "loca" tables which
// a decoder will reconstruct.
func transformTables(tables map[string][]byte) ([]byte, uint32, uint32, error) {
	head := tables["head"]
	if len(head) < 54 {
		return nil, 0, 0, parser.Invalid("woff2", "missing head table")
	}
	locaFormat := int16(binary.BigEndian.Uint16(head[50:52]))
	gg, err := truetype.Decode(&truetype.Encoded{
		GlyfData:   tables["glyf"],
		LocaData:   tables["loca"],
		LocaFormat: locaFormat,
	})
	if err != nil {
		return nil, 0, 0, err
	}
	enc, err := gg.Encode()
	if err != nil {
		return nil, 0, 0, err
	}
	transformed, err := transformGlyf(gg, enc.LocaFormat)
	if err != nil {
		return nil, 0, 0, err
	}
	return transformed, uint32(len(enc.GlyfData)), uint32(len(enc.LocaData)), nil
}
