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

package truetype

import (
	"fmt"
	"math"
	"strings"

	"seehuhn.de/go/geom/matrix"
)

// Component is a single component of a composite glyph.
// The flags FlagMoreComponents and FlagWeHaveInstructions are managed
// by the encoder and are never set in Flags.
type Component struct {
	Flags      ComponentFlag
	GlyphIndex uint16
	Args       []byte // arguments and transformation, in file format
}

// ComponentFlag controls how a component is placed within a composite
// glyph.
type ComponentFlag uint16

// https://learn.microsoft.com/en-us/typography/opentype/spec/glyf#compositeGlyphFlags
const (
	FlagArg1And2AreWords        ComponentFlag = 0x0001
	FlagArgsAreXYValues         ComponentFlag = 0x0002
	FlagRoundXYToGrid           ComponentFlag = 0x0004
	FlagWeHaveAScale            ComponentFlag = 0x0008
	FlagMoreComponents          ComponentFlag = 0x0020
	FlagWeHaveAnXAndYScale      ComponentFlag = 0x0040
	FlagWeHaveATwoByTwo         ComponentFlag = 0x0080
	FlagWeHaveInstructions      ComponentFlag = 0x0100
	FlagUseMyMetrics            ComponentFlag = 0x0200
	FlagOverlapCompound         ComponentFlag = 0x0400
	FlagScaledComponentOffset   ComponentFlag = 0x0800
	FlagUnscaledComponentOffset ComponentFlag = 0x1000
)

func (f ComponentFlag) String() string {
	names := []string{
		"ARG_1_AND_2_ARE_WORDS", "ARGS_ARE_XY_VALUES", "ROUND_XY_TO_GRID",
		"WE_HAVE_A_SCALE", "", "MORE_COMPONENTS", "WE_HAVE_AN_X_AND_Y_SCALE",
		"WE_HAVE_A_TWO_BY_TWO", "WE_HAVE_INSTRUCTIONS", "USE_MY_METRICS",
		"OVERLAP_COMPOUND", "SCALED_COMPONENT_OFFSET", "UNSCALED_COMPONENT_OFFSET",
	}
	var res []string
	for i, name := range names {
		if f&(1<<i) != 0 && name != "" {
			res = append(res, name)
		}
	}
	if rest := f & 0xE010; rest != 0 {
		res = append(res, fmt.Sprintf("0x%04x", uint16(rest)))
	}
	return strings.Join(res, "|")
}

// argsLen returns the number of argument bytes following the glyph index.
func (f ComponentFlag) argsLen() int {
	n := 2
	if f&FlagArg1And2AreWords != 0 {
		n = 4
	}
	switch {
	case f&FlagWeHaveAScale != 0:
		n += 2
	case f&FlagWeHaveAnXAndYScale != 0:
		n += 4
	case f&FlagWeHaveATwoByTwo != 0:
		n += 8
	}
	return n
}

// Placement describes how a component is positioned.
type Placement struct {
	// Trfm maps the component's points into the composite glyph.  When
	// AlignPoints is set, the translation part is zero and the offset is
	// found by point matching.
	Trfm matrix.Matrix

	// AlignPoints is set when the component is positioned by matching
	// point OurPoint of the composite glyph to point TheirPoint of the
	// component.
	AlignPoints          bool
	OurPoint, TheirPoint int
}

// Placement decodes the arguments of the component.
func (c Component) Placement() (*Placement, error) {
	args := c.Args
	if len(args) != c.Flags.argsLen() {
		return nil, errIncompleteGlyph
	}

	var arg1, arg2 int
	if c.Flags&FlagArg1And2AreWords != 0 {
		a, b := uint16(args[0])<<8|uint16(args[1]), uint16(args[2])<<8|uint16(args[3])
		if c.Flags&FlagArgsAreXYValues != 0 {
			arg1, arg2 = int(int16(a)), int(int16(b))
		} else {
			arg1, arg2 = int(a), int(b)
		}
		args = args[4:]
	} else {
		if c.Flags&FlagArgsAreXYValues != 0 {
			arg1, arg2 = int(int8(args[0])), int(int8(args[1]))
		} else {
			arg1, arg2 = int(args[0]), int(args[1])
		}
		args = args[2:]
	}

	p := &Placement{Trfm: matrix.Identity}
	switch {
	case c.Flags&FlagWeHaveAScale != 0:
		s := f2dot14(args[0:])
		p.Trfm[0], p.Trfm[3] = s, s
	case c.Flags&FlagWeHaveAnXAndYScale != 0:
		p.Trfm[0] = f2dot14(args[0:])
		p.Trfm[3] = f2dot14(args[2:])
	case c.Flags&FlagWeHaveATwoByTwo != 0:
		p.Trfm[0] = f2dot14(args[0:])
		p.Trfm[1] = f2dot14(args[2:])
		p.Trfm[2] = f2dot14(args[4:])
		p.Trfm[3] = f2dot14(args[6:])
	}

	if c.Flags&FlagArgsAreXYValues == 0 {
		p.AlignPoints = true
		p.OurPoint, p.TheirPoint = arg1, arg2
		return p, nil
	}

	dx, dy := float64(arg1), float64(arg2)
	if c.Flags&FlagScaledComponentOffset != 0 && c.Flags&FlagUnscaledComponentOffset == 0 {
		dx, dy = p.Trfm[0]*dx+p.Trfm[2]*dy, p.Trfm[1]*dx+p.Trfm[3]*dy
	}
	p.Trfm[4], p.Trfm[5] = dx, dy
	return p, nil
}

// withOffset returns a copy of the component with the x/y offset replaced.
// Components positioned by point matching are returned unchanged.
func (c Component) withOffset(dx, dy int) Component {
	if c.Flags&FlagArgsAreXYValues == 0 {
		return c
	}
	oldArgs := 2
	if c.Flags&FlagArg1And2AreWords != 0 {
		oldArgs = 4
	}
	tail := c.Args[oldArgs:]

	res := Component{GlyphIndex: c.GlyphIndex}
	if dx >= -128 && dx <= 127 && dy >= -128 && dy <= 127 {
		res.Flags = c.Flags &^ FlagArg1And2AreWords
		res.Args = append(res.Args, byte(int8(dx)), byte(int8(dy)))
	} else {
		res.Flags = c.Flags | FlagArg1And2AreWords
		dx, dy = clampInt16(dx), clampInt16(dy)
		res.Args = append(res.Args, byte(dx>>8), byte(dx), byte(dy>>8), byte(dy))
	}
	res.Args = append(res.Args, tail...)
	return res
}

func f2dot14(buf []byte) float64 {
	return float64(int16(uint16(buf[0])<<8|uint16(buf[1]))) / (1 << 14)
}

func clampInt16(x int) int {
	return min(max(x, math.MinInt16), math.MaxInt16)
}
