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

// Package header reads and writes the table directory of sfnt font files.
//
// An sfnt file starts with the scaler type and a directory of tables; the
// table data follows, each table padded to a multiple of four bytes.
// Directory parsing and layout are done by seehuhn.de/go/sfnt/header; this
// package adds the in-memory table map and leaves the caller's "head"
// table untouched when writing.
package header

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/npillmayer/schuko/tracing"
	sfntheader "seehuhn.de/go/sfnt/header"
	sfntparser "seehuhn.de/go/sfnt/parser"

	"seehuhn.de/go/fontconv/internal/parser"
)

// tracer traces with key 'fontconv.sfnt'
func tracer() tracing.Trace {
	return tracing.Select("fontconv.sfnt")
}

// Scaler types found at the start of sfnt files.
const (
	ScalerTypeTrueType = sfntheader.ScalerTypeTrueType
	ScalerTypeCFF      = sfntheader.ScalerTypeCFF
	ScalerTypeApple    = sfntheader.ScalerTypeApple
)

// Font is the decoded contents of an sfnt file.
type Font struct {
	ScalerType uint32

	// Tables maps table tags to the table data.
	Tables map[string][]byte
}

// Read decodes an sfnt file held in memory.  The table data in the result
// points into data.
func Read(data []byte) (*Font, error) {
	if len(data) < 12 {
		return nil, parser.Invalid("sfnt/header", "file too short")
	}
	switch string(data[:4]) {
	case "wOFF", "wOF2":
		return nil, parser.Invalid("sfnt/header", "compressed font, not a raw sfnt file")
	case "ttcf":
		return nil, parser.NotSupported("sfnt/header", "font collections")
	}

	info, err := sfntheader.Read(bytes.NewReader(data))
	if err != nil {
		return nil, convertError(err)
	}

	numTables := len(info.Toc)
	dirEnd := uint64(12 + 16*numTables)
	f := &Font{
		ScalerType: info.ScalerType,
		Tables:     make(map[string][]byte, numTables),
	}
	for tag, rec := range info.Toc {
		end := uint64(rec.Offset) + uint64(rec.Length)
		if end > uint64(len(data)) {
			return nil, parser.Invalid("sfnt/header",
				fmt.Sprintf("table %q extends beyond end of file", tag))
		}
		if rec.Length > 0 && uint64(rec.Offset) < dirEnd {
			return nil, parser.Invalid("sfnt/header", "table overlaps the directory")
		}
		f.Tables[tag] = data[rec.Offset:end:end]
	}

	tracer().Debugf("read sfnt file with %d tables", numTables)
	return f, nil
}

// convertError maps the errors of the sfnt header reader to the error
// types of this module.
func convertError(err error) error {
	var invalid *sfntparser.InvalidFontError
	var notSupported *sfntparser.NotSupportedError
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return parser.Invalid("sfnt/header", "truncated table directory")
	case errors.As(err, &invalid):
		return parser.Invalid(invalid.SubSystem, invalid.Reason)
	case errors.As(err, &notSupported):
		return parser.NotSupported(notSupported.SubSystem, notSupported.Feature)
	default:
		return err
	}
}

// Has reports whether all the given tables are present.
func (f *Font) Has(tags ...string) bool {
	for _, tag := range tags {
		if _, ok := f.Tables[tag]; !ok {
			return false
		}
	}
	return true
}

// IsKnownTable reports whether the tag names a table defined in the
// OpenType or TrueType specifications.
func IsKnownTable(tag string) bool {
	return isKnownTable[tag]
}

var isKnownTable = map[string]bool{
	"BASE": true,
	"CBDT": true,
	"CBLC": true,
	"CFF ": true,
	"CFF2": true,
	"cmap": true,
	"COLR": true,
	"CPAL": true,
	"cvar": true,
	"cvt ": true,
	"DSIG": true,
	"EBDT": true,
	"EBLC": true,
	"EBSC": true,
	"feat": true,
	"fpgm": true,
	"fvar": true,
	"gasp": true,
	"GDEF": true,
	"glyf": true,
	"GPOS": true,
	"GSUB": true,
	"gvar": true,
	"hdmx": true,
	"head": true,
	"hhea": true,
	"hmtx": true,
	"HVAR": true,
	"JSTF": true,
	"kern": true,
	"loca": true,
	"LTSH": true,
	"MATH": true,
	"maxp": true,
	"MERG": true,
	"meta": true,
	"morx": true,
	"MVAR": true,
	"name": true,
	"OS/2": true,
	"PCLT": true,
	"post": true,
	"prep": true,
	"sbix": true,
	"STAT": true,
	"SVG ": true,
	"VDMX": true,
	"vhea": true,
	"vmtx": true,
	"VORG": true,
	"VVAR": true,
}
