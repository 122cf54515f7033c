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

// Package batch applies a font transformation to many font files.
//
// Every file is read, transformed and saved independently.  Failures are
// reported per file and do not stop the processing of other files, unless
// Config.FailFast is set.
package batch

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/sync/errgroup"

	"seehuhn.de/go/fontconv"
)

// tracer traces with key 'fontconv.batch'
func tracer() tracing.Trace {
	return tracing.Select("fontconv.batch")
}

// Config controls how files are processed and where the results are
// stored.
type Config struct {
	// Workers is the number of files processed concurrently.  If this is
	// zero, runtime.NumCPU() is used.
	Workers int

	// OutputDir is the directory where modified fonts are saved.  If this
	// is empty, every font is saved next to its input file.
	OutputDir string

	// Overwrite allows existing files to be replaced.  Otherwise a counter
	// "#1", "#2", ... is added to the file name.
	Overwrite bool

	// Recursive makes Collect descend into subdirectories.
	Recursive bool

	// Suffix is appended to the base name of every output file.
	Suffix string

	// FailFast stops scheduling new files after the first failure.
	FailFast bool
}

func (cfg *Config) workers() int {
	if cfg.Workers <= 0 {
		return runtime.NumCPU()
	}
	return cfg.Workers
}

// Task transforms a single font.  Fonts which are not modified by the task
// are not saved.
type Task func(f *fontconv.Font) error

// Result describes the outcome for one input file.
type Result struct {
	Input   string
	Output  string // empty if nothing was written
	Skipped bool   // the task did not modify the font
	Err     error
	Elapsed time.Duration
}

// Run applies task to all files.  The results are returned in the order of
// the input files.  If ctx is cancelled, the remaining files are not
// processed and their results hold the context error.
func Run(ctx context.Context, cfg *Config, files []string, task Task) []*Result {
	if cfg == nil {
		cfg = &Config{}
	}

	var g *errgroup.Group
	if cfg.FailFast {
		g, ctx = errgroup.WithContext(ctx)
	} else {
		g = &errgroup.Group{}
	}
	g.SetLimit(cfg.workers())

	names := newNamer(cfg)
	results := make([]*Result, len(files))
	for i, fname := range files {
		res := &Result{Input: fname}
		results[i] = res
		if err := ctx.Err(); err != nil {
			res.Err = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				res.Err = err
				return nil
			}
			start := time.Now()
			process(res, task, names)
			res.Elapsed = time.Since(start)
			if res.Err != nil {
				tracer().Errorf("%s: %v", fname, res.Err)
			}
			return res.Err
		})
	}
	_ = g.Wait()
	return results
}

func process(res *Result, task Task, names *namer) {
	f, err := fontconv.ReadFile(res.Input)
	if err != nil {
		res.Err = err
		return
	}
	err = task(f)
	if err != nil {
		res.Err = err
		return
	}
	if !f.Modified() {
		tracer().Infof("%s: no changes", res.Input)
		res.Skipped = true
		return
	}

	out := names.reserve(res.Input, f.Extension())
	defer names.release(out)
	err = f.Save(out)
	if err != nil {
		res.Err = err
		return
	}
	res.Output = out
	tracer().Infof("%s -> %s", res.Input, out)
}

// Summary counts the results by outcome.
func Summary(results []*Result) (saved, skipped, failed int) {
	for _, res := range results {
		switch {
		case res.Err != nil:
			failed++
		case res.Skipped:
			skipped++
		default:
			saved++
		}
	}
	return saved, skipped, failed
}

// fontExtensions lists the file name extensions of font files, in the
// order in which they are removed from base names.
var fontExtensions = []string{".otf", ".ttf", ".woff2", ".woff"}

// IsFontFile reports whether the file name has one of the extensions
// of the supported font formats.
func IsFontFile(fname string) bool {
	return slices.Contains(fontExtensions, strings.ToLower(filepath.Ext(fname)))
}

// Collect expands directories in paths to the font files they contain.
// Subdirectories are only searched if cfg.Recursive is set.  Paths which
// name files are returned unchanged.
func Collect(cfg *Config, paths ...string) ([]string, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	var res []string
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && !cfg.Recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if path == root || IsFontFile(path) {
				res = append(res, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}
