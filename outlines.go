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
	"fmt"
	"math"

	"golang.org/x/text/language"
	"seehuhn.de/go/postscript/funit"

	"seehuhn.de/go/fontconv/cff"
	"seehuhn.de/go/fontconv/curves"
	"seehuhn.de/go/fontconv/outline"
	"seehuhn.de/go/fontconv/sanitize"
	"seehuhn.de/go/fontconv/sfnt/table"
	"seehuhn.de/go/fontconv/truetype"
)

// ToTTF converts PostScript outlines to TrueType outlines.  Every cubic
// Bézier curve is approximated by quadratic curves which deviate by at most
// opt.Tolerance font units.  If opt is nil, DefaultOptions() is used.
func (f *Font) ToTTF(opt *Options) error {
	const op = "ToTTF"
	if opt == nil {
		opt = DefaultOptions()
	}
	err := opt.check(op)
	if err != nil {
		return err
	}
	err = f.requireStatic(op)
	if err != nil {
		return err
	}
	err = f.requireOutline(op, PostScript)
	if err != nil {
		return err
	}

	e := f.begin()
	err = e.toTTF(opt)
	if err != nil {
		return classify(op, err)
	}
	e.commit()
	return nil
}

func (e *edit) toTTF(opt *Options) error {
	cffFont, err := cff.Read(e.tables["CFF "])
	if err != nil {
		return err
	}
	glyphs, err := cffFont.Glyphs()
	if err != nil {
		return err
	}

	gg := make(truetype.Glyphs, len(glyphs))
	err = forEachGlyph(len(glyphs), opt.workers(), func(i int) error {
		q, err := curves.CubicToQuadratic(glyphs[i].Outline(), opt.Tolerance)
		if err != nil {
			return fmt.Errorf("glyph %q: %w", glyphs[i].Name, err)
		}
		if opt.ReverseDirection {
			q = q.Reverse()
		}
		contours, err := truetype.FromOutline(q)
		if err != nil {
			return fmt.Errorf("glyph %q: %w", glyphs[i].Name, err)
		}
		gg[i] = truetype.NewSimpleGlyph(contours, nil)
		return nil
	})
	if err != nil {
		return err
	}

	head, err := e.head()
	if err != nil {
		return err
	}
	post, err := e.post()
	if err != nil {
		return err
	}
	if post == nil {
		info := cffFont.Info()
		post = &table.Post{
			ItalicAngle:        info.ItalicAngle,
			UnderlinePosition:  funit.Int16(math.Round(info.UnderlinePosition)),
			UnderlineThickness: funit.Int16(math.Round(info.UnderlineThickness)),
			IsFixedPitch:       info.IsFixedPitch,
		}
	}
	post.Names = cffFont.GlyphNames
	data, err := post.Encode()
	if err != nil {
		return err
	}
	e.tables["post"] = data

	e.removeTables(postScriptOnlyTables...)
	err = e.setGlyphs(gg, head)
	if err != nil {
		return err
	}
	e.setScalerType(TrueType)

	tracer().Infof("converted %d glyphs to TrueType outlines", len(gg))
	return nil
}

// ToOTF converts TrueType outlines to PostScript outlines.  Composite glyphs
// are decomposed first.  Depending on opt, the contours are then corrected
// and the charstrings are subroutinized.  If opt is nil, DefaultOptions()
// is used.
func (f *Font) ToOTF(opt *Options) error {
	const op = "ToOTF"
	if opt == nil {
		opt = DefaultOptions()
	}
	err := opt.check(op)
	if err != nil {
		return err
	}
	err = f.requireStatic(op)
	if err != nil {
		return err
	}
	err = f.requireOutline(op, TrueType)
	if err != nil {
		return err
	}

	e := f.begin()
	err = e.toOTF(opt)
	if err != nil {
		return classify(op, err)
	}
	e.commit()
	return nil
}

func (e *edit) toOTF(opt *Options) error {
	gg, head, err := e.glyphs()
	if err != nil {
		return err
	}
	gg, _, err = truetype.Decomponentize(gg)
	if err != nil {
		return err
	}
	_, hmtx, err := e.metrics(len(gg))
	if err != nil {
		return err
	}
	post, err := e.post()
	if err != nil {
		return err
	}
	names := glyphNames(post, len(gg))

	outlines := make([]outline.Glyph, len(gg))
	err = forEachGlyph(len(gg), opt.workers(), func(i int) error {
		if gg[i] == nil {
			return nil
		}
		sg, ok := gg[i].Data.(truetype.SimpleGlyph)
		if !ok {
			return fmt.Errorf("glyph %q: unexpected glyph data %T", names[i], gg[i].Data)
		}
		c, err := curves.QuadraticToCubic(sg.Outline(), opt.Tolerance)
		if err != nil {
			return fmt.Errorf("glyph %q: %w", names[i], err)
		}
		if opt.ReverseDirection {
			c = c.Reverse()
		}
		outlines[i] = c
		return nil
	})
	if err != nil {
		return err
	}

	set := outline.NewSet()
	for i, o := range outlines {
		err = set.Add(&outline.Entry{
			Name:    names[i],
			Width:   float64(hmtx.Widths[i]),
			Outline: o,
		})
		if err != nil {
			return err
		}
	}
	if opt.CorrectContours {
		altered, err := sanitize.Glyphs(set, &sanitize.Options{
			MinArea:     opt.MinArea,
			AddExtremes: true,
		})
		if err != nil {
			return err
		}
		tracer().Debugf("corrected contours of %d glyphs", len(altered))
	}

	entries := set.Entries()
	glyphs := make([]*cff.Glyph, len(entries))
	for i, entry := range entries {
		glyphs[i] = cff.FromOutline(entry.Name, entry.Width, entry.Outline)
	}
	cffFont, err := cff.New(e.cffInfo(head, post), glyphs)
	if err != nil {
		return err
	}
	if opt.Subroutinize {
		err = cffFont.Subroutinize()
		if err != nil {
			return err
		}
	}
	err = e.installCFF(cffFont, glyphs, head)
	if err != nil {
		return err
	}

	if post != nil {
		post.Names = nil
		data, err := post.Encode()
		if err != nil {
			return err
		}
		e.tables["post"] = data
	}
	maxp, err := e.maxp()
	if err != nil {
		return err
	}
	maxp.TTF = nil
	err = e.setMaxp(maxp)
	if err != nil {
		return err
	}
	e.removeTables(trueTypeOnlyTables...)
	e.setScalerType(PostScript)

	tracer().Infof("converted %d glyphs to PostScript outlines", len(glyphs))
	return nil
}

// installCFF stores a new "CFF " table, together with the glyph bounding
// boxes derived from the given glyphs.
func (e *edit) installCFF(cffFont *cff.Font, glyphs []*cff.Glyph, head *table.Head) error {
	data, err := cffFont.Encode()
	if err != nil {
		return err
	}
	e.tables["CFF "] = data

	bbox := make([]funit.Rect16, len(glyphs))
	for i, g := range glyphs {
		bbox[i] = toRect16(g.Outline().TightBounds())
	}
	head.IndexToLocFormat = 0
	err = e.updateBounds(head, bbox)
	if err != nil {
		return err
	}
	e.tables["head"] = head.Encode()
	return nil
}

// cffInfo collects the font-wide information for a new CFF table from the
// "name", "post" and "head" tables.
func (e *edit) cffInfo(head *table.Head, post *table.Post) *cff.Info {
	info := &cff.Info{
		UnderlinePosition:  -100,
		UnderlineThickness: 50,
	}
	if data, ok := e.tables["name"]; ok {
		names, err := table.DecodeNames(data)
		if err == nil {
			info.FontName = names.PostScriptName()
			info.FullName = names.Get(table.NameFullName, language.English)
			info.FamilyName = names.Get(table.NameFamily, language.English)
			info.Copyright = names.Get(table.NameCopyright, language.English)
			info.Notice = names.Get(table.NameTrademark, language.English)
			info.Version = names.Get(table.NameVersion, language.English)
		}
	}
	if info.FontName == "" {
		info.FontName = "Untitled"
	}
	if post != nil {
		info.ItalicAngle = post.ItalicAngle
		info.UnderlinePosition = float64(post.UnderlinePosition)
		info.UnderlineThickness = float64(post.UnderlineThickness)
		info.IsFixedPitch = post.IsFixedPitch
	}
	if upm := float64(head.UnitsPerEm); upm != 1000 {
		info.FontMatrix = [6]float64{1 / upm, 0, 0, 1 / upm, 0, 0}
	}
	return info
}

// glyphNames returns unique names for all glyphs.  Names from the "post"
// table are used where available.
func glyphNames(post *table.Post, numGlyphs int) []string {
	names := make([]string, numGlyphs)
	seen := make(map[string]bool, numGlyphs)
	for i := range names {
		var name string
		if post != nil && i < len(post.Names) {
			name = post.Names[i]
		}
		if i == 0 {
			name = ".notdef"
		} else if name == "" || name == ".notdef" {
			name = fmt.Sprintf("glyph%05d", i)
		}
		base := name
		for k := 1; seen[name]; k++ {
			name = fmt.Sprintf("%s.%d", base, k)
		}
		seen[name] = true
		names[i] = name
	}
	return names
}
