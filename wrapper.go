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

// ToWOFF changes the container format to WOFF.
func (f *Font) ToWOFF() error {
	return f.setWrapper("ToWOFF", WOFF)
}

// ToWOFF2 changes the container format to WOFF2.
func (f *Font) ToWOFF2() error {
	return f.setWrapper("ToWOFF2", WOFF2)
}

// ToSFNT changes the container format to plain SFNT, as used for .ttf and
// .otf files.
func (f *Font) ToSFNT() error {
	return f.setWrapper("ToSFNT", SFNT)
}

func (f *Font) setWrapper(op string, kind WrapperKind) error {
	err := f.requireStatic(op)
	if err != nil {
		return err
	}
	if f.wrapper == kind {
		return precondition(op, "font is already in %s format", kind)
	}
	tracer().Debugf("container format %s -> %s", f.wrapper, kind)
	f.wrapper = kind
	f.modified = true
	return nil
}
