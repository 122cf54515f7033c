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
	"errors"
	"flag"
	"fmt"
	"os"

	"seehuhn.de/go/fontconv"
	"seehuhn.de/go/fontconv/batch"
)

// A command is one of the subcommands of the program.  The setup function
// registers the command-specific flags.  It returns a function which is
// called after the flags have been parsed and which returns the tasks to
// run for every input file.
type command struct {
	name  string
	help  string
	setup func(fs *flag.FlagSet) func() ([]batch.Task, error)
}

var commands = []*command{
	{
		name:  "otf2ttf",
		help:  "Convert PostScript flavored fonts to TrueType flavored fonts.",
		setup: setupOTF2TTF,
	},
	{
		name:  "ttf2otf",
		help:  "Convert TrueType flavored fonts to PostScript flavored fonts.",
		setup: setupTTF2OTF,
	},
	{
		name:  "fix-contours",
		help:  "Remove overlaps and tiny contours, and fix the contour directions of PostScript flavored fonts.",
		setup: setupFixContours,
	},
	{
		name:  "subr",
		help:  "Subroutinize the CFF table of PostScript flavored fonts.",
		setup: simple(fontconv.PostScript, (*fontconv.Font).Subroutinize),
	},
	{
		name:  "desubr",
		help:  "Desubroutinize the CFF table of PostScript flavored fonts.",
		setup: simple(fontconv.PostScript, (*fontconv.Font).Desubroutinize),
	},
	{
		name:  "web",
		help:  "Convert fonts to the WOFF and WOFF2 formats.",
		setup: setupWeb,
	},
	{
		name:  "sfnt",
		help:  "Convert WOFF and WOFF2 fonts to plain SFNT files.",
		setup: setupSFNT,
	},
	{
		name:  "dehint",
		help:  "Remove the hinting instructions from TrueType flavored fonts.",
		setup: simple(fontconv.TrueType, (*fontconv.Font).RemoveHints),
	},
	{
		name:  "decompose",
		help:  "Replace composite glyphs in TrueType flavored fonts by simple glyphs.",
		setup: simple(fontconv.TrueType, func(f *fontconv.Font) error {
			_, err := f.Decomponentize()
			return err
		}),
	},
	{
		name:  "scale-upm",
		help:  "Change the units per em of TrueType flavored fonts.",
		setup: setupScaleUPM,
	},
}

func findCommand(name string) (*command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return nil, false
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: fontconv <command> [options] <file or directory>...")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(os.Stderr, "  %-13s %s\n", cmd.name, cmd.help)
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, `Run "fontconv <command> -h" for the options of a command.`)
}

// only wraps a task so that fonts with other outlines are left unchanged.
func only(kind fontconv.OutlineKind, task batch.Task) batch.Task {
	return func(f *fontconv.Font) error {
		if f.OutlineKind() != kind {
			tracer().Infof("skipping font with %s outlines", f.OutlineKind())
			return nil
		}
		return task(f)
	}
}

func simple(kind fontconv.OutlineKind, task batch.Task) func(*flag.FlagSet) func() ([]batch.Task, error) {
	return func(*flag.FlagSet) func() ([]batch.Task, error) {
		return func() ([]batch.Task, error) {
			return []batch.Task{only(kind, task)}, nil
		}
	}
}

func setupOTF2TTF(fs *flag.FlagSet) func() ([]batch.Task, error) {
	opt := fontconv.DefaultOptions()
	fs.Float64Var(&opt.Tolerance, "tolerance", opt.Tolerance,
		"maximal deviation of the converted curves, in font units")
	noReverse := fs.Bool("no-reverse", false, "keep the contour directions")
	return func() ([]batch.Task, error) {
		opt.ReverseDirection = !*noReverse
		if !(opt.Tolerance > 0) {
			return nil, errors.New("the tolerance must be positive")
		}
		return []batch.Task{only(fontconv.PostScript, func(f *fontconv.Font) error {
			return f.ToTTF(opt)
		})}, nil
	}
}

func setupTTF2OTF(fs *flag.FlagSet) func() ([]batch.Task, error) {
	opt := fontconv.DefaultOptions()
	fs.Float64Var(&opt.Tolerance, "tolerance", opt.Tolerance,
		"maximal deviation of the converted curves, in font units")
	fs.IntVar(&opt.MinArea, "min-area", opt.MinArea,
		"minimal area of contours, in square font units")
	noReverse := fs.Bool("no-reverse", false, "keep the contour directions")
	noCorrect := fs.Bool("no-correct", false, "do not correct the contours")
	noSubr := fs.Bool("no-subr", false, "do not subroutinize the CFF table")
	upm := fs.Int("upm", 0, fmt.Sprintf("change the units per em before converting (%d to %d)",
		fontconv.MinUnitsPerEm, fontconv.MaxUnitsPerEm))
	return func() ([]batch.Task, error) {
		opt.ReverseDirection = !*noReverse
		opt.CorrectContours = !*noCorrect
		opt.Subroutinize = !*noSubr
		if !(opt.Tolerance > 0) {
			return nil, errors.New("the tolerance must be positive")
		}
		if *upm != 0 {
			err := checkUPM(*upm)
			if err != nil {
				return nil, err
			}
		}
		return []batch.Task{only(fontconv.TrueType, func(f *fontconv.Font) error {
			if *upm != 0 {
				err := scaleUPM(f, *upm)
				if err != nil {
					return err
				}
			}
			return f.ToOTF(opt)
		})}, nil
	}
}

func setupFixContours(fs *flag.FlagSet) func() ([]batch.Task, error) {
	minArea := fs.Int("min-area", fontconv.DefaultOptions().MinArea,
		"minimal area of contours, in square font units")
	return func() ([]batch.Task, error) {
		if *minArea < 0 {
			return nil, errors.New("the minimal area must not be negative")
		}
		return []batch.Task{only(fontconv.PostScript, func(f *fontconv.Font) error {
			altered, err := f.CorrectContours(*minArea)
			if err != nil {
				return err
			}
			tracer().Infof("corrected %d glyphs: %v", len(altered), altered)
			return nil
		})}, nil
	}
}

func setupWeb(fs *flag.FlagSet) func() ([]batch.Task, error) {
	woff := fs.Bool("woff", false, "write WOFF files")
	woff2 := fs.Bool("woff2", false, "write WOFF2 files")
	return func() ([]batch.Task, error) {
		if !*woff && !*woff2 {
			*woff, *woff2 = true, true
		}
		var tasks []batch.Task
		if *woff {
			tasks = append(tasks, toWrapper(fontconv.WOFF, (*fontconv.Font).ToWOFF))
		}
		if *woff2 {
			tasks = append(tasks, toWrapper(fontconv.WOFF2, (*fontconv.Font).ToWOFF2))
		}
		return tasks, nil
	}
}

func setupSFNT(*flag.FlagSet) func() ([]batch.Task, error) {
	return func() ([]batch.Task, error) {
		return []batch.Task{toWrapper(fontconv.SFNT, (*fontconv.Font).ToSFNT)}, nil
	}
}

// toWrapper returns a task which changes the container format.  Variable
// fonts are skipped.
func toWrapper(kind fontconv.WrapperKind, fn batch.Task) batch.Task {
	return func(f *fontconv.Font) error {
		if f.WrapperKind() == kind || f.IsVariable() {
			return nil
		}
		return fn(f)
	}
}

func setupScaleUPM(fs *flag.FlagSet) func() ([]batch.Task, error) {
	upm := fs.Int("upm", 0, fmt.Sprintf("new units per em (%d to %d)",
		fontconv.MinUnitsPerEm, fontconv.MaxUnitsPerEm))
	return func() ([]batch.Task, error) {
		err := checkUPM(*upm)
		if err != nil {
			return nil, err
		}
		return []batch.Task{only(fontconv.TrueType, func(f *fontconv.Font) error {
			return scaleUPM(f, *upm)
		})}, nil
	}
}

func checkUPM(upm int) error {
	if upm < fontconv.MinUnitsPerEm || upm > fontconv.MaxUnitsPerEm {
		return fmt.Errorf("-upm must be between %d and %d",
			fontconv.MinUnitsPerEm, fontconv.MaxUnitsPerEm)
	}
	return nil
}

func scaleUPM(f *fontconv.Font, upm int) error {
	err := f.ScaleUPM(upm)
	if errors.Is(err, fontconv.ErrPrecondition) && !f.IsVariable() {
		// the font already has the requested units per em
		return nil
	}
	return err
}
