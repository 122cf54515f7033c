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

package batch

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// OutputPath returns the name of the file where the converted version of
// input is saved.  The directory is cfg.OutputDir, or the directory of
// input if OutputDir is empty.  The base name of input is stripped of its
// extension and, if a suffix is used, of all font file extensions left
// over from earlier conversions.  Then cfg.Suffix and ext are appended.
// Unless cfg.Overwrite is set, "#1", "#2", ... is inserted before the
// extension until the name does not refer to an existing file.
func OutputPath(input, ext string, cfg *Config) string {
	return outputPath(input, ext, cfg, fileExists, nil)
}

// outputPath implements OutputPath.  Names for which exists returns true
// are skipped unless cfg.Overwrite is set.  Names for which taken returns
// true are always skipped.
func outputPath(input, ext string, cfg *Config, exists, taken func(string) bool) string {
	if cfg == nil {
		cfg = &Config{}
	}
	dir := cfg.OutputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if cfg.Suffix != "" {
		for _, e := range fontExtensions {
			stem = strings.ReplaceAll(stem, e, "")
		}
	}
	stem += cfg.Suffix

	inUse := func(fname string) bool {
		if taken != nil && taken(fname) {
			return true
		}
		return !cfg.Overwrite && exists(fname)
	}
	name := filepath.Join(dir, stem+ext)
	for n := 1; inUse(name); n++ {
		name = filepath.Join(dir, stem+"#"+strconv.Itoa(n)+ext)
	}
	return name
}

func fileExists(fname string) bool {
	_, err := os.Stat(fname)
	return !errors.Is(err, fs.ErrNotExist)
}

// namer hands out output file names to concurrent workers.  A name stays
// reserved while its file is being written, so that two workers never
// write to the same file, even if Config.Overwrite is set.
type namer struct {
	cfg *Config

	mu       sync.Mutex
	reserved map[string]bool
}

func newNamer(cfg *Config) *namer {
	return &namer{
		cfg:      cfg,
		reserved: make(map[string]bool),
	}
}

func (n *namer) reserve(input, ext string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	name := outputPath(input, ext, n.cfg, fileExists, func(fname string) bool {
		return n.reserved[fname]
	})
	n.reserved[name] = true
	return name
}

func (n *namer) release(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.reserved, name)
}
