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
	"math"
	"runtime"

	"seehuhn.de/go/fontconv/sanitize"
)

// Options control the outline conversions.
type Options struct {
	// Tolerance is the maximal deviation between the original and the
	// converted outlines, in font units.  It must be positive.
	Tolerance float64

	// ReverseDirection reverses the direction of all contours during the
	// conversion.  TrueType fonts conventionally use clockwise outer
	// contours, PostScript fonts use counter-clockwise ones.
	ReverseDirection bool

	// MinArea is the minimal area of a contour, in square font units.
	// Smaller contours are removed when CorrectContours is set.
	MinArea int

	// Subroutinize makes ToOTF move repeated charstring fragments into
	// subroutines.
	Subroutinize bool

	// CorrectContours makes ToOTF remove overlaps and tiny contours, and
	// normalize the contour directions.
	CorrectContours bool

	// Workers is the number of goroutines used to convert glyphs.  If this
	// is zero, runtime.NumCPU() is used.
	Workers int
}

// DefaultOptions returns the options used when nil is passed to one of the
// conversion methods.
func DefaultOptions() *Options {
	return &Options{
		Tolerance:        1.0,
		ReverseDirection: true,
		MinArea:          sanitize.DefaultMinArea,
		Subroutinize:     true,
		CorrectContours:  true,
	}
}

func (opt *Options) check(op string) error {
	if !(opt.Tolerance > 0) || math.IsInf(opt.Tolerance, 0) {
		return precondition(op, "tolerance must be positive, not %g", opt.Tolerance)
	}
	if opt.MinArea < 0 {
		return precondition(op, "minimum area must not be negative, not %d", opt.MinArea)
	}
	if opt.Workers < 0 {
		return precondition(op, "invalid number of workers %d", opt.Workers)
	}
	return nil
}

func (opt *Options) workers() int {
	if opt == nil || opt.Workers == 0 {
		return runtime.NumCPU()
	}
	return opt.Workers
}
