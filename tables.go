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
	"errors"
	"fmt"
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/postscript/funit"

	"seehuhn.de/go/fontconv/sfnt/header"
	"seehuhn.de/go/fontconv/sfnt/table"
	"seehuhn.de/go/fontconv/truetype"
)

var (
	errOutlineTables = errors.New("font has both glyf and CFF outlines")
	errNoOutlines    = errors.New("font has no glyph outlines")
)

func missingTable(tag string) error {
	return fmt.Errorf("missing %q table", tag)
}

// Tables which only make sense for one of the outline kinds.
var (
	trueTypeOnlyTables = []string{
		"glyf", "loca", "fpgm", "prep", "cvt ", "gasp", "hdmx", "LTSH", "VDMX",
	}
	postScriptOnlyTables = []string{"CFF ", "VORG"}
)

func (e *edit) table(tag string) ([]byte, error) {
	data, ok := e.tables[tag]
	if !ok {
		return nil, missingTable(tag)
	}
	return data, nil
}

func (e *edit) head() (*table.Head, error) {
	data, err := e.table("head")
	if err != nil {
		return nil, err
	}
	return table.DecodeHead(data)
}

func (e *edit) maxp() (*table.Maxp, error) {
	data, err := e.table("maxp")
	if err != nil {
		return nil, err
	}
	return table.DecodeMaxp(data)
}

func (e *edit) setMaxp(m *table.Maxp) error {
	data, err := table.EncodeMaxp(m)
	if err != nil {
		return err
	}
	e.tables["maxp"] = data
	return nil
}

// metrics returns the "hhea" and "hmtx" tables.
func (e *edit) metrics(numGlyphs int) (*table.Hhea, *table.Hmtx, error) {
	data, err := e.table("hhea")
	if err != nil {
		return nil, nil, err
	}
	hhea, err := table.DecodeHhea(data)
	if err != nil {
		return nil, nil, err
	}
	data, err = e.table("hmtx")
	if err != nil {
		return nil, nil, err
	}
	hmtx, err := table.DecodeHmtx(data, int(hhea.NumOfLongHorMetrics), numGlyphs)
	if err != nil {
		return nil, nil, err
	}
	return hhea, hmtx, nil
}

func (e *edit) setMetrics(hhea *table.Hhea, hmtx *table.Hmtx) {
	var data []byte
	data, hhea.NumOfLongHorMetrics = hmtx.Encode()
	e.tables["hmtx"] = data
	e.tables["hhea"] = hhea.Encode()
}

// post returns the "post" table, or nil if the font has none.
func (e *edit) post() (*table.Post, error) {
	data, ok := e.tables["post"]
	if !ok {
		return nil, nil
	}
	return table.DecodePost(data)
}

// updateBounds stores new glyph bounding boxes: the left side bearings in
// "hmtx", the derived values in "hhea", and the font bounding box in
// "head".  Zero rectangles mark empty glyphs.
func (e *edit) updateBounds(head *table.Head, bbox []funit.Rect16) error {
	hhea, hmtx, err := e.metrics(len(bbox))
	if err != nil {
		return err
	}
	var fontBBox funit.Rect16
	first := true
	for i, b := range bbox {
		if b == (funit.Rect16{}) {
			hmtx.LSB[i] = 0
			continue
		}
		hmtx.LSB[i] = b.LLx
		if first {
			fontBBox = b
			first = false
			continue
		}
		fontBBox.LLx = min(fontBBox.LLx, b.LLx)
		fontBBox.LLy = min(fontBBox.LLy, b.LLy)
		fontBBox.URx = max(fontBBox.URx, b.URx)
		fontBBox.URy = max(fontBBox.URy, b.URy)
	}
	hmtx.UpdateHhea(hhea, bbox)
	e.setMetrics(hhea, hmtx)
	head.FontBBox = fontBBox
	return nil
}

// glyphs decodes the "glyf" and "loca" tables.
func (e *edit) glyphs() (truetype.Glyphs, *table.Head, error) {
	head, err := e.head()
	if err != nil {
		return nil, nil, err
	}
	glyf, err := e.table("glyf")
	if err != nil {
		return nil, nil, err
	}
	loca, err := e.table("loca")
	if err != nil {
		return nil, nil, err
	}
	gg, err := truetype.Decode(&truetype.Encoded{
		GlyfData:   glyf,
		LocaData:   loca,
		LocaFormat: head.IndexToLocFormat,
	})
	if err != nil {
		return nil, nil, err
	}
	return gg, head, nil
}

// setGlyphs stores new TrueType outlines, and updates all tables which
// depend on the glyph data.
func (e *edit) setGlyphs(gg truetype.Glyphs, head *table.Head) error {
	enc, err := gg.Encode()
	if err != nil {
		return err
	}
	e.tables["glyf"] = enc.GlyfData
	e.tables["loca"] = enc.LocaData
	head.IndexToLocFormat = enc.LocaFormat

	maxp, err := e.maxp()
	if err != nil {
		return err
	}
	maxp.NumGlyphs = len(gg)
	if maxp.TTF == nil {
		maxp.TTF = &table.MaxpTTF{MaxZones: 1}
	}
	table.SetMaxpLimits(maxp.TTF, gg.Limits())
	err = e.setMaxp(maxp)
	if err != nil {
		return err
	}

	bbox := make([]funit.Rect16, len(gg))
	for i, g := range gg {
		if g != nil {
			bbox[i] = g.Rect16
		}
	}
	err = e.updateBounds(head, bbox)
	if err != nil {
		return err
	}
	e.tables["head"] = head.Encode()
	return nil
}

// removeTables deletes the given tables, if present.
func (e *edit) removeTables(tags ...string) {
	for _, tag := range tags {
		delete(e.tables, tag)
	}
}

func (e *edit) setScalerType(kind OutlineKind) {
	e.outline = kind
	if kind == PostScript {
		e.scalerType = header.ScalerTypeCFF
	} else {
		e.scalerType = header.ScalerTypeTrueType
	}
}

// toRect16 rounds a bounding box outward to integer font units.
func toRect16(r rect.Rect) funit.Rect16 {
	if r == (rect.Rect{}) {
		return funit.Rect16{}
	}
	c := func(x float64) funit.Int16 {
		return funit.Int16(min(max(x, math.MinInt16), math.MaxInt16))
	}
	return funit.Rect16{
		LLx: c(math.Floor(r.LLx)),
		LLy: c(math.Floor(r.LLy)),
		URx: c(math.Ceil(r.URx)),
		URy: c(math.Ceil(r.URy)),
	}
}
