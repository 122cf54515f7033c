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
	"seehuhn.de/go/fontconv/cff"
	"seehuhn.de/go/fontconv/outline"
	"seehuhn.de/go/fontconv/sanitize"
)

// CorrectContours removes contours with an area smaller than minArea,
// removes overlaps, and normalizes the contour directions of a PostScript
// font.  Curves of corrected glyphs are split at their extreme points.
// The function returns the sorted names of all glyphs which were changed.
// If no glyph needed correction, the font is left unchanged.
func (f *Font) CorrectContours(minArea int) ([]string, error) {
	const op = "CorrectContours"
	if minArea < 0 {
		return nil, precondition(op, "minimum area must not be negative, not %d", minArea)
	}
	err := f.requireStatic(op)
	if err != nil {
		return nil, err
	}
	err = f.requireOutline(op, PostScript)
	if err != nil {
		return nil, err
	}

	e := f.begin()
	altered, err := e.correctContours(minArea)
	if err != nil {
		return nil, classify(op, err)
	}
	if len(altered) > 0 {
		e.commit()
	}
	return altered, nil
}

func (e *edit) correctContours(minArea int) ([]string, error) {
	cffFont, err := cff.Read(e.tables["CFF "])
	if err != nil {
		return nil, err
	}
	glyphs, err := cffFont.Glyphs()
	if err != nil {
		return nil, err
	}

	set := outline.NewSet()
	for _, g := range glyphs {
		err = set.Add(&outline.Entry{Name: g.Name, Width: g.Width, Outline: g.Outline()})
		if err != nil {
			return nil, err
		}
	}
	altered, err := sanitize.Glyphs(set, &sanitize.Options{
		MinArea:     minArea,
		AddExtremes: true,
	})
	if err != nil || len(altered) == 0 {
		return altered, err
	}

	// Unchanged glyphs keep their hints.
	for _, name := range altered {
		entry, _ := set.Get(name)
		for i, g := range glyphs {
			if g.Name == name {
				glyphs[i] = cff.FromOutline(name, g.Width, entry.Outline)
				break
			}
		}
	}
	err = cffFont.SetGlyphs(glyphs)
	if err != nil {
		return nil, err
	}
	head, err := e.head()
	if err != nil {
		return nil, err
	}
	err = e.installCFF(cffFont, glyphs, head)
	if err != nil {
		return nil, err
	}
	return altered, nil
}

// Subroutinize moves repeated parts of the charstrings of a PostScript font
// into subroutines, to reduce the file size.
func (f *Font) Subroutinize() error {
	return f.compact("Subroutinize", (*cff.Font).Subroutinize)
}

// Desubroutinize inlines all subroutine calls in the charstrings of a
// PostScript font.
func (f *Font) Desubroutinize() error {
	return f.compact("Desubroutinize", (*cff.Font).Desubroutinize)
}

func (f *Font) compact(op string, fn func(*cff.Font) error) error {
	err := f.requireStatic(op)
	if err != nil {
		return err
	}
	err = f.requireOutline(op, PostScript)
	if err != nil {
		return err
	}

	// The charstrings are rewritten on the uncompressed font.
	saved := f.wrapper
	f.wrapper = SFNT
	defer func() { f.wrapper = saved }()

	e := f.begin()
	cffFont, err := cff.Read(e.tables["CFF "])
	if err != nil {
		return classify(op, err)
	}
	err = fn(cffFont)
	if err != nil {
		return classify(op, err)
	}
	data, err := cffFont.Encode()
	if err != nil {
		return classify(op, err)
	}
	e.tables["CFF "] = data
	e.commit()

	tracer().Infof("%s: %d subroutines, CFF table %d bytes",
		op, len(cffFont.Subrs), len(data))
	return nil
}
