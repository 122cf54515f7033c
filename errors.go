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

	"seehuhn.de/go/fontconv/internal/parser"
)

var (
	// ErrPrecondition is matched by all *PreconditionError values.
	ErrPrecondition = errors.New("precondition not met")

	// ErrMalformed is matched by all *MalformedError values.
	ErrMalformed = errors.New("malformed font")

	// ErrNotSupported is matched by all *NotSupportedError values.
	ErrNotSupported = errors.New("not supported")
)

// PreconditionError is returned when an operation is not applicable to the
// font in its current state, or when the arguments are invalid.  The font
// is never modified when this error is returned.
type PreconditionError struct {
	Op     string
	Reason string
}

func (err *PreconditionError) Error() string {
	return "fontconv: " + err.Op + ": " + err.Reason
}

// Is makes errors.Is(err, ErrPrecondition) succeed.
func (err *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// MalformedError indicates that the font data could not be interpreted.
type MalformedError struct {
	Op  string
	Err error
}

func (err *MalformedError) Error() string {
	return "fontconv: " + err.Op + ": " + err.Err.Error()
}

func (err *MalformedError) Unwrap() error {
	return err.Err
}

// Is makes errors.Is(err, ErrMalformed) succeed.
func (err *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

// NotSupportedError indicates that the font uses a feature which fontconv
// cannot handle.
type NotSupportedError struct {
	Op  string
	Err error
}

func (err *NotSupportedError) Error() string {
	return "fontconv: " + err.Op + ": " + err.Err.Error()
}

func (err *NotSupportedError) Unwrap() error {
	return err.Err
}

// Is makes errors.Is(err, ErrNotSupported) succeed.
func (err *NotSupportedError) Is(target error) bool {
	return target == ErrNotSupported
}

func precondition(op, format string, a ...any) error {
	return &PreconditionError{Op: op, Reason: fmt.Sprintf(format, a...)}
}

func notSupported(op, feature string) error {
	return &NotSupportedError{Op: op, Err: errors.New(feature + " not supported")}
}

// classify wraps an error from one of the lower level packages.  Errors
// which are already classified are returned unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		pre *PreconditionError
		mal *MalformedError
		ns  *NotSupportedError
	)
	switch {
	case errors.As(err, &pre), errors.As(err, &mal), errors.As(err, &ns):
		return err
	case errors.Is(err, parser.ErrNotSupported):
		return &NotSupportedError{Op: op, Err: err}
	default:
		return &MalformedError{Op: op, Err: err}
	}
}
