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
	"errors"
	"fmt"
	"math"

	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/postscript/funit"

	"seehuhn.de/go/fontconv/internal/parser"
	"seehuhn.de/go/fontconv/outline"
)

var (
	// ErrCycle is matched by the error returned when composite glyphs
	// reference each other in a loop.
	ErrCycle = errors.New("cyclic composite glyph reference")

	// ErrBadReference is matched by the error returned when a component
	// refers to a glyph or point which does not exist.
	ErrBadReference = errors.New("invalid component reference")
)

// ComponentError describes a composite glyph which cannot be resolved.
// It matches both its cause and parser.ErrInvalidFont via errors.Is.
type ComponentError struct {
	GID int
	Err error
}

func (err *ComponentError) Error() string {
	return fmt.Sprintf("truetype: glyph %d: %v", err.GID, err.Err)
}

func (err *ComponentError) Unwrap() error {
	return err.Err
}

// Is makes the error match parser.ErrInvalidFont.
func (err *ComponentError) Is(target error) bool {
	return target == parser.ErrInvalidFont
}

type flatPoint struct {
	v       vec.Vec2
	onCurve bool
}

type flatGlyph [][]flatPoint

// decomposer resolves composite glyphs.  Every glyph is resolved at most
// once; the results are kept in memo.
type decomposer struct {
	glyphs  Glyphs
	memo    map[int]flatGlyph
	visited map[int]bool
}

// Decomponentize replaces every composite glyph by a simple glyph whose
// contours are the transformed contours of the components.  Simple glyphs
// are returned unchanged.  The second return value lists the glyph IDs
// which were decomposed, in increasing order.
//
// Instructions of composite glyphs are dropped, since they refer to the
// component structure.
func Decomponentize(gg Glyphs) (Glyphs, []int, error) {
	d := &decomposer{
		glyphs:  gg,
		memo:    make(map[int]flatGlyph),
		visited: make(map[int]bool),
	}

	res := make(Glyphs, len(gg))
	var changed []int
	for gid, g := range gg {
		if !g.IsComposite() {
			res[gid] = g
			continue
		}
		flat, err := d.resolve(gid)
		if err != nil {
			return nil, nil, err
		}
		res[gid] = NewSimpleGlyph(flat.round(), nil)
		changed = append(changed, gid)
	}
	tracer().Debugf("decomposed %d of %d glyphs", len(changed), len(gg))
	return res, changed, nil
}

// resolve returns the contours of glyph gid, with all components
// transformed into the glyph's coordinate system.
func (d *decomposer) resolve(gid int) (flatGlyph, error) {
	if res, ok := d.memo[gid]; ok {
		return res, nil
	}
	if d.visited[gid] {
		return nil, &ComponentError{GID: gid, Err: ErrCycle}
	}
	d.visited[gid] = true

	var res flatGlyph
	switch g := d.glyphs[gid]; data := g.dataOrNil().(type) {
	case nil:
		// empty glyph
	case SimpleGlyph:
		for _, c := range data.Contours {
			fc := make([]flatPoint, len(c))
			for i, p := range c {
				fc[i] = flatPoint{vec.Vec2{X: float64(p.X), Y: float64(p.Y)}, p.OnCurve}
			}
			res = append(res, fc)
		}
	case CompositeGlyph:
		for i, comp := range data.Components {
			cid := int(comp.GlyphIndex)
			if cid >= len(d.glyphs) {
				return nil, &ComponentError{GID: gid,
					Err: fmt.Errorf("component %d: glyph %d: %w", i, cid, ErrBadReference)}
			}
			child, err := d.resolve(cid)
			if err != nil {
				return nil, err
			}
			p, err := comp.Placement()
			if err != nil {
				return nil, err
			}

			M := p.Trfm
			if p.AlignPoints {
				ours, ok1 := res.point(p.OurPoint)
				theirs, ok2 := child.point(p.TheirPoint)
				if !ok1 || !ok2 {
					return nil, &ComponentError{GID: gid,
						Err: fmt.Errorf("component %d: point %d/%d: %w",
							i, p.OurPoint, p.TheirPoint, ErrBadReference)}
				}
				delta := ours.Sub(outline.Apply(M, theirs))
				M[4], M[5] = delta.X, delta.Y
			}

			for _, c := range child {
				fc := make([]flatPoint, len(c))
				for k, pt := range c {
					fc[k] = flatPoint{outline.Apply(M, pt.v), pt.onCurve}
				}
				res = append(res, fc)
			}
		}
	}

	d.visited[gid] = false
	d.memo[gid] = res
	return res, nil
}

// point returns the point with the given index, counting through all
// contours.
func (fg flatGlyph) point(idx int) (vec.Vec2, bool) {
	if idx < 0 {
		return vec.Vec2{}, false
	}
	for _, c := range fg {
		if idx < len(c) {
			return c[idx].v, true
		}
		idx -= len(c)
	}
	return vec.Vec2{}, false
}

func (fg flatGlyph) round() []Contour {
	res := make([]Contour, 0, len(fg))
	for _, c := range fg {
		if len(c) == 0 {
			continue
		}
		rc := make(Contour, len(c))
		for i, p := range c {
			rc[i] = Point{
				X:       funit.Int16(clampInt16(int(math.Round(p.v.X)))),
				Y:       funit.Int16(clampInt16(int(math.Round(p.v.Y)))),
				OnCurve: p.onCurve,
			}
		}
		res = append(res, rc)
	}
	return res
}

func (g *Glyph) dataOrNil() any {
	if g == nil {
		return nil
	}
	return g.Data
}
