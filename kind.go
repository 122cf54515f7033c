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

// OutlineKind describes how glyph outlines are stored in a font.
type OutlineKind int

// These are the supported outline kinds.
const (
	// TrueType outlines use quadratic Bézier curves and are stored in the
	// "glyf" and "loca" tables.
	TrueType OutlineKind = iota + 1

	// PostScript outlines use cubic Bézier curves and are stored in the
	// "CFF " table.
	PostScript
)

func (k OutlineKind) String() string {
	switch k {
	case TrueType:
		return "TrueType"
	case PostScript:
		return "PostScript"
	default:
		return "unknown"
	}
}

// WrapperKind describes the container format of a font file.
type WrapperKind int

// These are the supported container formats.
const (
	SFNT WrapperKind = iota + 1
	WOFF
	WOFF2
)

func (k WrapperKind) String() string {
	switch k {
	case SFNT:
		return "SFNT"
	case WOFF:
		return "WOFF"
	case WOFF2:
		return "WOFF2"
	default:
		return "unknown"
	}
}
