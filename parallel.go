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
	"golang.org/x/sync/errgroup"
)

// forEachGlyph calls fn for every glyph index in 0, ..., n-1, using at most
// the given number of goroutines.  The calls must be independent of each
// other; results are stored by fn at index i, so that the output does not
// depend on the order of execution.  The first error is returned.
func forEachGlyph(n, workers int, fn func(i int) error) error {
	if workers <= 1 || n < 2 {
		for i := range n {
			err := fn(i)
			if err != nil {
				return err
			}
		}
		return nil
	}

	g := &errgroup.Group{}
	g.SetLimit(workers)
	for i := range n {
		g.Go(func() error {
			return fn(i)
		})
	}
	return g.Wait()
}
