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

package cff

import (
	"errors"

	"seehuhn.de/go/fontconv/internal/parser"
)

func invalidSince(reason string) error {
	return parser.Invalid("cff", reason)
}

func notSupported(feature string) error {
	return parser.NotSupported("cff", feature)
}

var (
	errCorruptDict    = invalidSince("invalid DICT")
	errIncomplete     = invalidSince("incomplete charstring")
	errStackOverflow  = invalidSince("charstring operand stack overflow")
	errStackUnderflow = invalidSince("charstring operand stack underflow")
	errMissingNotdef  = errors.New("cff: first glyph must be .notdef")
)
