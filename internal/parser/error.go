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

package parser

import "errors"

// InvalidFontError indicates a problem with font data.
type InvalidFontError struct {
	SubSystem string
	Reason    string
}

func (err *InvalidFontError) Error() string {
	return err.SubSystem + ": " + err.Reason
}

// Is makes errors.Is(err, ErrInvalidFont) succeed for all InvalidFontError
// values.
func (err *InvalidFontError) Is(target error) bool {
	return target == ErrInvalidFont
}

// NotSupportedError indicates that a font file seems valid but uses a
// feature which is not supported by this library.
type NotSupportedError struct {
	SubSystem string
	Feature   string
}

func (err *NotSupportedError) Error() string {
	return err.SubSystem + ": " + err.Feature + " not supported"
}

// Is makes errors.Is(err, ErrNotSupported) succeed for all
// NotSupportedError values.
func (err *NotSupportedError) Is(target error) bool {
	return target == ErrNotSupported
}

var (
	// ErrInvalidFont is matched by all *InvalidFontError values.
	ErrInvalidFont = errors.New("invalid font data")

	// ErrNotSupported is matched by all *NotSupportedError values.
	ErrNotSupported = errors.New("font feature not supported")
)

// Invalid returns an *InvalidFontError.
func Invalid(subSystem, reason string) error {
	return &InvalidFontError{SubSystem: subSystem, Reason: reason}
}

// NotSupported returns a *NotSupportedError.
func NotSupported(subSystem, feature string) error {
	return &NotSupportedError{SubSystem: subSystem, Feature: feature}
}
