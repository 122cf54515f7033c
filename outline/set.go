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

import (
	"errors"
	"fmt"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Entry is a glyph outline together with its advance width.
type Entry struct {
	Name    string
	Width   float64
	Outline Glyph
}

// Set maps glyph names to outlines.  Iteration follows insertion order,
// which is the glyph order of the font.
type Set struct {
	m *linkedhashmap.Map
}

// NewSet returns an empty glyph set.
func NewSet() *Set {
	return &Set{m: linkedhashmap.New()}
}

// ErrDuplicateName is returned when a glyph name is inserted twice.
var ErrDuplicateName = errors.New("outline: duplicate glyph name")

// Add appends a glyph to the set.
func (s *Set) Add(e *Entry) error {
	if _, found := s.m.Get(e.Name); found {
		return fmt.Errorf("%w %q", ErrDuplicateName, e.Name)
	}
	s.m.Put(e.Name, e)
	return nil
}

// Replace changes the outline of an existing glyph.
// Glyph order is not affected.
func (s *Set) Replace(name string, g Glyph) bool {
	val, found := s.m.Get(name)
	if !found {
		return false
	}
	e := val.(*Entry)
	s.m.Put(name, &Entry{Name: name, Width: e.Width, Outline: g})
	return true
}

// Get returns the glyph with the given name.
func (s *Set) Get(name string) (*Entry, bool) {
	val, found := s.m.Get(name)
	if !found {
		return nil, false
	}
	return val.(*Entry), true
}

// Len returns the number of glyphs in the set.
func (s *Set) Len() int {
	return s.m.Size()
}

// Names returns the glyph names in glyph order.
func (s *Set) Names() []string {
	keys := s.m.Keys()
	res := make([]string, len(keys))
	for i, k := range keys {
		res[i] = k.(string)
	}
	return res
}

// Entries returns all glyphs in glyph order.
func (s *Set) Entries() []*Entry {
	vals := s.m.Values()
	res := make([]*Entry, len(vals))
	for i, v := range vals {
		res[i] = v.(*Entry)
	}
	return res
}
