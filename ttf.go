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
	"seehuhn.de/go/fontconv/sfnt/table"
	"seehuhn.de/go/fontconv/truetype"
)

// Hinting tables of TrueType fonts.
var hintingTables = []string{"fpgm", "prep", "cvt ", "hdmx", "LTSH", "VDMX"}

// Decomponentize replaces all composite glyphs of a TrueType font by simple
// glyphs.  The function returns the IDs of the glyphs which were changed.
// If the font has no composite glyphs, it is left unchanged.
func (f *Font) Decomponentize() ([]int, error) {
	const op = "Decomponentize"
	err := f.requireStatic(op)
	if err != nil {
		return nil, err
	}
	err = f.requireOutline(op, TrueType)
	if err != nil {
		return nil, err
	}

	e := f.begin()
	gg, head, err := e.glyphs()
	if err != nil {
		return nil, classify(op, err)
	}
	gg, changed, err := truetype.Decomponentize(gg)
	if err != nil {
		return nil, classify(op, err)
	}
	if len(changed) == 0 {
		return nil, nil
	}
	err = e.setGlyphs(gg, head)
	if err != nil {
		return nil, classify(op, err)
	}
	e.commit()
	return changed, nil
}

// RemoveHints removes the hinting instructions from a TrueType font.
// The hinting tables are deleted and all glyph instructions are removed.
func (f *Font) RemoveHints() error {
	const op = "RemoveHints"
	err := f.requireStatic(op)
	if err != nil {
		return err
	}
	err = f.requireOutline(op, TrueType)
	if err != nil {
		return err
	}

	e := f.begin()
	err = e.removeHints()
	if err != nil {
		return classify(op, err)
	}
	e.commit()
	return nil
}

func (e *edit) removeHints() error {
	gg, head, err := e.glyphs()
	if err != nil {
		return err
	}
	gg, n := gg.RemoveInstructions()
	e.removeTables(hintingTables...)

	maxp, err := e.maxp()
	if err != nil {
		return err
	}
	if maxp.TTF != nil {
		table.ClearMaxpHinting(maxp.TTF)
		err = e.setMaxp(maxp)
		if err != nil {
			return err
		}
	}
	head.Flags &^= table.HeadFlagInstructionsAlterAdvance
	err = e.setGlyphs(gg, head)
	if err != nil {
		return err
	}
	tracer().Infof("removed instructions from %d glyphs", n)
	return nil
}

// Valid range for the units per em.
const (
	MinUnitsPerEm = 16
	MaxUnitsPerEm = 16384
)

// ScaleUPM changes the units per em of a TrueType font, scaling all glyph
// outlines and metrics accordingly.  Fonts with a "GPOS" table cannot be
// scaled.
func (f *Font) ScaleUPM(unitsPerEm int) error {
	const op = "ScaleUPM"
	if unitsPerEm < MinUnitsPerEm || unitsPerEm > MaxUnitsPerEm {
		return precondition(op, "units per em must be in the range %d to %d, not %d",
			MinUnitsPerEm, MaxUnitsPerEm, unitsPerEm)
	}
	err := f.requireStatic(op)
	if err != nil {
		return err
	}
	err = f.requireOutline(op, TrueType)
	if err != nil {
		return err
	}

	e := f.begin()
	head, err := e.head()
	if err != nil {
		return classify(op, err)
	}
	if int(head.UnitsPerEm) == unitsPerEm {
		return precondition(op, "font already has %d units per em", unitsPerEm)
	}
	if _, hasGPOS := e.tables["GPOS"]; hasGPOS {
		return notSupported(op, "scaling fonts with a GPOS table")
	}

	err = e.scale(unitsPerEm)
	if err != nil {
		return classify(op, err)
	}
	e.commit()
	return nil
}

func (e *edit) scale(unitsPerEm int) error {
	gg, head, err := e.glyphs()
	if err != nil {
		return err
	}
	factor := float64(unitsPerEm) / float64(head.UnitsPerEm)
	head.UnitsPerEm = uint16(unitsPerEm)

	hhea, hmtx, err := e.metrics(len(gg))
	if err != nil {
		return err
	}
	hhea.Scale(factor)
	hmtx.Scale(factor)
	e.setMetrics(hhea, hmtx)

	if data, ok := e.tables["OS/2"]; ok {
		e.tables["OS/2"], err = table.ScaleOS2(data, factor)
		if err != nil {
			return err
		}
	}
	if data, ok := e.tables["kern"]; ok {
		e.tables["kern"], err = table.ScaleKern(data, factor)
		if err != nil {
			return err
		}
	}
	post, err := e.post()
	if err != nil {
		return err
	}
	if post != nil {
		post.UnderlinePosition = table.ScaleInt16(post.UnderlinePosition, factor)
		post.UnderlineThickness = table.ScaleInt16(post.UnderlineThickness, factor)
		data, err := post.Encode()
		if err != nil {
			return err
		}
		e.tables["post"] = data
	}

	// Hinting instructions refer to the old coordinates.
	e.removeTables("hdmx", "VDMX", "LTSH")

	err = e.setGlyphs(gg.Scale(factor), head)
	if err != nil {
		return err
	}
	tracer().Infof("scaled font by %g to %d units per em", factor, unitsPerEm)
	return nil
}
