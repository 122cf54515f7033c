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

package outline

import "seehuhn.de/go/geom/vec"

// Builder constructs glyph outlines using a pen-style interface.
type Builder struct {
	g       Glyph
	cur     Contour
	start   vec.Vec2
	current vec.Vec2
}

// MoveTo starts a new contour at (x, y).
func (b *Builder) MoveTo(x, y float64) {
	b.ClosePath()
	b.start = vec.Vec2{X: x, Y: y}
	b.current = b.start
}

// LineTo adds a straight line to the current contour.
func (b *Builder) LineTo(x, y float64) {
	p := vec.Vec2{X: x, Y: y}
	b.cur = append(b.cur, NewLine(b.current, p))
	b.current = p
}

// QuadTo adds a quadratic Bézier curve to the current contour.
func (b *Builder) QuadTo(x1, y1, x2, y2 float64) {
	p := vec.Vec2{X: x2, Y: y2}
	b.cur = append(b.cur, NewQuad(b.current, vec.Vec2{X: x1, Y: y1}, p))
	b.current = p
}

// CubeTo adds a cubic Bézier curve to the current contour.
func (b *Builder) CubeTo(x1, y1, x2, y2, x3, y3 float64) {
	p := vec.Vec2{X: x3, Y: y3}
	b.cur = append(b.cur, NewCube(b.current,
		vec.Vec2{X: x1, Y: y1}, vec.Vec2{X: x2, Y: y2}, p))
	b.current = p
}

// ClosePath finishes the current contour.
// Contours without any segments are discarded.
func (b *Builder) ClosePath() {
	if len(b.cur) > 0 {
		b.g = append(b.g, b.cur)
	}
	b.cur = nil
	b.current = b.start
}

// Glyph returns the outline constructed so far.
func (b *Builder) Glyph() Glyph {
	b.ClosePath()
	return b.g
}
