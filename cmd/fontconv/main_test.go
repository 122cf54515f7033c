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

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	xsfnt "golang.org/x/image/font/sfnt"

	"seehuhn.de/go/fontconv"
	"seehuhn.de/go/fontconv/internal/makefont"
)

func TestArguments(t *testing.T) {
	require.Equal(t, 1, run(nil))
	require.Equal(t, 0, run([]string{"help"}))
	require.Equal(t, 1, run([]string{"no-such-command", "x.ttf"}))
	require.Equal(t, 1, run([]string{"ttf2otf"}))
	require.Equal(t, 1, run([]string{"ttf2otf", "-upm", "8", "x.ttf"}))
	require.Equal(t, 1, run([]string{"scale-upm", "x.ttf"}))
	require.Equal(t, 1, run([]string{"otf2ttf", "-tolerance", "0", "x.otf"}))
	require.Equal(t, 1, run([]string{"dehint", "-trace", "Verbose", "x.ttf"}))
}

func TestCommands(t *testing.T) {
	in := t.TempDir()
	fname := filepath.Join(in, "squares.ttf")
	require.NoError(t, os.WriteFile(fname, makefont.Squares(), 0o644))

	out := t.TempDir()
	code := run([]string{"ttf2otf", "-out", out, "-workers", "1", fname})
	require.Equal(t, 0, code)
	otf := filepath.Join(out, "squares.otf")
	f, err := fontconv.ReadFile(otf)
	require.NoError(t, err)
	require.Equal(t, fontconv.PostScript, f.OutlineKind())

	code = run([]string{"web", "-out", out, otf})
	require.Equal(t, 0, code)
	for _, name := range []string{"squares.woff", "squares.woff2"} {
		f, err := fontconv.ReadFile(filepath.Join(out, name))
		require.NoError(t, err)
		require.Equal(t, fontconv.PostScript, f.OutlineKind())
	}

	code = run([]string{"scale-upm", "-upm", "2048", "-suffix", "-2048", "-out", out, fname})
	require.Equal(t, 0, code)
	_, err = os.Stat(filepath.Join(out, "squares-2048.ttf"))
	require.NoError(t, err)

	// fonts with the wrong outlines are left alone
	code = run([]string{"dehint", "-out", out, otf})
	require.Equal(t, 0, code)
}

func TestTTF2OTFScale(t *testing.T) {
	in := t.TempDir()
	fname := filepath.Join(in, "squares.ttf")
	require.NoError(t, os.WriteFile(fname, makefont.Squares(), 0o644))
	orig, err := xsfnt.Parse(makefont.Squares())
	require.NoError(t, err)

	out := t.TempDir()
	code := run([]string{"ttf2otf", "-upm", "2048", "-out", out, fname})
	require.Equal(t, 0, code)
	data, err := os.ReadFile(filepath.Join(out, "squares.otf"))
	require.NoError(t, err)
	otf, err := xsfnt.Parse(data)
	require.NoError(t, err)
	require.Equal(t, xsfnt.Units(2048), otf.UnitsPerEm())
	require.Equal(t, orig.NumGlyphs(), otf.NumGlyphs())

	// asking for the current units per em is not an error
	out = t.TempDir()
	code = run([]string{"ttf2otf", "-upm", fmt.Sprint(int(orig.UnitsPerEm())), "-out", out, fname})
	require.Equal(t, 0, code)
	f, err := fontconv.ReadFile(filepath.Join(out, "squares.otf"))
	require.NoError(t, err)
	require.Equal(t, fontconv.PostScript, f.OutlineKind())
}

func TestStrict(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.ttf")
	require.NoError(t, os.WriteFile(bad, []byte("not a font"), 0o644))

	require.Equal(t, 0, run([]string{"sfnt", bad}))
	require.Equal(t, 1, run([]string{"sfnt", "-strict", bad}))
}
