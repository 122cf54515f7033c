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
	"fmt"
	"math"
	"strings"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/fontconv/outline"
)

// Glyph represents a glyph in a CFF font, as a sequence of drawing
// commands in absolute coordinates.
type Glyph struct {
	Name  string
	Width float64
	Cmds  []GlyphOp
	HStem []float64
	VStem []float64
}

// GlyphOp is a CFF glyph drawing command.
type GlyphOp struct {
	Op GlyphOpType

	// Args holds the coordinates of the points for path commands, and
	// the mask bytes for hintmask and cntrmask.
	Args []float64
}

func (c GlyphOp) String() string {
	return fmt.Sprint(c.Op, c.Args)
}

// GlyphOpType is the type of a CFF glyph drawing command.
type GlyphOpType byte

const (
	// OpMoveTo closes the previous sub-path and starts a new one.
	OpMoveTo GlyphOpType = iota + 1

	// OpLineTo appends a straight line segment.
	OpLineTo

	// OpCurveTo appends a cubic Bézier curve segment.
	OpCurveTo

	// OpHintMask switches the active set of stem hints.
	OpHintMask

	// OpCntrMask sets counter control hints.
	OpCntrMask
)

func (op GlyphOpType) String() string {
	switch op {
	case OpMoveTo:
		return "moveto"
	case OpLineTo:
		return "lineto"
	case OpCurveTo:
		return "curveto"
	case OpHintMask:
		return "hintmask"
	case OpCntrMask:
		return "cntrmask"
	default:
		return fmt.Sprintf("GlyphOpType(%d)", op)
	}
}

// NewGlyph allocates a new glyph.
func NewGlyph(name string, width float64) *Glyph {
	return &Glyph{
		Name:  name,
		Width: width,
	}
}

func (g *Glyph) String() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "Glyph %q (width %g):\n", g.Name, g.Width)
	fmt.Fprintf(b, "  - HStem: %v\n", g.HStem)
	fmt.Fprintf(b, "  - VStem: %v\n", g.VStem)
	for i, cmd := range g.Cmds {
		fmt.Fprintf(b, "  - Cmds[%d]: %s\n", i, cmd)
	}
	return b.String()
}

// MoveTo starts a new sub-path and moves the current point to (x, y).
// The previous sub-path, if any, is closed.
func (g *Glyph) MoveTo(x, y float64) {
	g.Cmds = append(g.Cmds, GlyphOp{
		Op:   OpMoveTo,
		Args: []float64{x, y},
	})
}

// LineTo adds a straight line to the current sub-path.
func (g *Glyph) LineTo(x, y float64) {
	g.Cmds = append(g.Cmds, GlyphOp{
		Op:   OpLineTo,
		Args: []float64{x, y},
	})
}

// CurveTo adds a cubic Bézier curve to the current sub-path.
func (g *Glyph) CurveTo(x1, y1, x2, y2, x3, y3 float64) {
	g.Cmds = append(g.Cmds, GlyphOp{
		Op:   OpCurveTo,
		Args: []float64{x1, y1, x2, y2, x3, y3},
	})
}

// FromOutline converts an outline into a CFF glyph.  Coordinates are
// rounded to integers; line segments which become empty are dropped.
// Quadratic segments are converted exactly into cubic ones.
func FromOutline(name string, width float64, o outline.Glyph) *Glyph {
	g := NewGlyph(name, width)
	r := func(p vec.Vec2) (float64, float64) {
		return math.Round(p.X), math.Round(p.Y)
	}
	for _, c := range o {
		if len(c) == 0 {
			continue
		}
		x0, y0 := r(c.Start())
		g.MoveTo(x0, y0)
		curX, curY := x0, y0
		for i, s := range c {
			switch s.Op {
			case outline.Line:
				x, y := r(s.P[1])
				if x == curX && y == curY {
					continue
				}
				if i == len(c)-1 && x == x0 && y == y0 {
					// the closing line is implied
					continue
				}
				g.LineTo(x, y)
				curX, curY = x, y
			case outline.Quad, outline.Cube:
				if s.Op == outline.Quad {
					// exact degree elevation
					p0, p1, p2 := s.P[0], s.P[1], s.P[2]
					s = outline.NewCube(p0,
						p0.Add(p1.Sub(p0).Mul(2.0/3)),
						p2.Add(p1.Sub(p2).Mul(2.0/3)),
						p2)
				}
				x1, y1 := r(s.P[1])
				x2, y2 := r(s.P[2])
				x3, y3 := r(s.P[3])
				if x1 == curX && y1 == curY && x2 == curX && y2 == curY && x3 == curX && y3 == curY {
					continue
				}
				g.CurveTo(x1, y1, x2, y2, x3, y3)
				curX, curY = x3, y3
			}
		}
		if n := len(g.Cmds); g.Cmds[n-1].Op == OpMoveTo {
			// nothing but a single point
			g.Cmds = g.Cmds[:n-1]
		}
	}
	return g
}

// Outline returns the glyph outline described by the drawing commands.
// Hint operators are ignored.
func (g *Glyph) Outline() outline.Glyph {
	var res outline.Glyph
	var cur outline.Contour
	var pos vec.Vec2
	flush := func() {
		if len(cur) > 0 {
			res = append(res, cur)
		}
		cur = nil
	}
	for _, cmd := range g.Cmds {
		a := cmd.Args
		switch cmd.Op {
		case OpMoveTo:
			flush()
			pos = vec.Vec2{X: a[0], Y: a[1]}
		case OpLineTo:
			p := vec.Vec2{X: a[0], Y: a[1]}
			cur = append(cur, outline.NewLine(pos, p))
			pos = p
		case OpCurveTo:
			p1 := vec.Vec2{X: a[0], Y: a[1]}
			p2 := vec.Vec2{X: a[2], Y: a[3]}
			p3 := vec.Vec2{X: a[4], Y: a[5]}
			cur = append(cur, outline.NewCube(pos, p1, p2, p3))
			pos = p3
		}
	}
	flush()
	return res
}

// Equal reports whether two glyphs have the same name, width, hints and
// drawing commands.
func (g *Glyph) Equal(other *Glyph) bool {
	if g.Name != other.Name || g.Width != other.Width ||
		len(g.Cmds) != len(other.Cmds) ||
		!floatsEqual(g.HStem, other.HStem) || !floatsEqual(g.VStem, other.VStem) {
		return false
	}
	for i, cmd := range g.Cmds {
		if cmd.Op != other.Cmds[i].Op || !floatsEqual(cmd.Args, other.Cmds[i].Args) {
			return false
		}
	}
	return true
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (g *Glyph) hasHintMask() bool {
	for _, cmd := range g.Cmds {
		if cmd.Op == OpHintMask || cmd.Op == OpCntrMask {
			return true
		}
	}
	return false
}
