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

// Fontconv converts and repairs font files.
//
// Usage:
//
//	fontconv <command> [options] <file or directory>...
//
// Run "fontconv help" for a list of commands.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
	"golang.org/x/term"

	"seehuhn.de/go/fontconv/batch"
)

// tracer traces with key 'fontconv.cli'
func tracer() tracing.Trace {
	return tracing.Select("fontconv.cli")
}

// traceKeys lists the tracers whose level is set by the -trace flag.
var traceKeys = []string{
	"fontconv", "fontconv.batch", "fontconv.cli", "fontconv.cff",
	"fontconv.curves", "fontconv.pathops", "fontconv.sanitize",
	"fontconv.truetype", "fontconv.sfnt", "fontconv.woff", "fontconv.woff2",
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	initDisplay(term.IsTerminal(int(os.Stdout.Fd())))

	if len(args) < 1 || args[0] == "help" || args[0] == "-h" || args[0] == "-help" {
		usage()
		if len(args) < 1 {
			return 1
		}
		return 0
	}
	cmd, ok := findCommand(args[0])
	if !ok {
		pterm.Error.Println(fmt.Sprintf("unknown command %q", args[0]))
		usage()
		return 1
	}

	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	common := addCommonFlags(fs)
	task := cmd.setup(fs)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: fontconv %s [options] <file or directory>...\n\n%s\n\n",
			cmd.name, cmd.help)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args[1:]); err != nil {
		return 1
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 1
	}
	if err := setupTracing(common.trace); err != nil {
		pterm.Error.Println(err.Error())
		return 1
	}
	t, err := task()
	if err != nil {
		pterm.Error.Println(err.Error())
		return 1
	}

	cfg := common.config()
	files, err := batch.Collect(cfg, fs.Args()...)
	if err != nil {
		pterm.Error.Println(err.Error())
		return 1
	}
	if len(files) == 0 {
		pterm.Warning.Println("no font files found")
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	var results []*batch.Result
	for _, fn := range t {
		results = append(results, batch.Run(ctx, cfg, files, fn)...)
	}
	report(results, time.Since(start))

	_, _, failed := batch.Summary(results)
	if failed > 0 && common.strict {
		return 1
	}
	return 0
}

type commonFlags struct {
	outputDir string
	overwrite bool
	recursive bool
	suffix    string
	workers   int
	strict    bool
	trace     string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.outputDir, "out", "", "output directory (default: next to the input files)")
	fs.BoolVar(&c.overwrite, "overwrite", true, "replace existing output files")
	fs.BoolVar(&c.recursive, "r", false, "search directories recursively")
	fs.StringVar(&c.suffix, "suffix", "", "suffix for the output file names")
	fs.IntVar(&c.workers, "workers", 0, "number of files processed in parallel (default: number of CPUs)")
	fs.BoolVar(&c.strict, "strict", false, "stop at the first error and exit with status 1")
	fs.StringVar(&c.trace, "trace", "Error", "trace level [Debug|Info|Error]")
	return c
}

func (c *commonFlags) config() *batch.Config {
	return &batch.Config{
		Workers:   c.workers,
		OutputDir: c.outputDir,
		Overwrite: c.overwrite,
		Recursive: c.recursive,
		Suffix:    c.suffix,
		FailFast:  c.strict,
	}
}

func setupTracing(level string) error {
	switch level {
	case "Debug", "Info", "Error":
		// pass
	default:
		return fmt.Errorf("invalid trace level %q", level)
	}

	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter": "go",
	}
	for _, key := range traceKeys {
		conf["trace."+key] = level
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		return fmt.Errorf("error configuring tracing: %w", err)
	}
	tracing.SetTraceSelector(trace2go.Selector())
	for _, key := range traceKeys {
		setTraceLevel(tracing.Select(key), level)
	}
	tracer().Debugf("trace level is %s", level)
	return nil
}

func setTraceLevel(t tracing.Trace, level string) {
	switch level {
	case "Debug":
		t.SetTraceLevel(tracing.LevelDebug)
	case "Info":
		t.SetTraceLevel(tracing.LevelInfo)
	default:
		t.SetTraceLevel(tracing.LevelError)
	}
}

// We use pterm for moderately fancy output.  Colours are only used when
// writing to a terminal.
func initDisplay(isTerminal bool) {
	info := pterm.NewStyle(pterm.BgCyan, pterm.FgBlack)
	success := pterm.NewStyle(pterm.BgGreen, pterm.FgBlack)
	warning := pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	failure := pterm.NewStyle(pterm.BgRed, pterm.FgBlack)
	if !isTerminal {
		info, success, warning, failure = pterm.NewStyle(), pterm.NewStyle(),
			pterm.NewStyle(), pterm.NewStyle()
	}
	pterm.Info.Prefix = pterm.Prefix{Text: " INFO ", Style: info}
	pterm.Success.Prefix = pterm.Prefix{Text: " OK ", Style: success}
	pterm.Warning.Prefix = pterm.Prefix{Text: " WARNING ", Style: warning}
	pterm.Error.Prefix = pterm.Prefix{Text: " ERROR ", Style: failure}
}

func report(results []*batch.Result, elapsed time.Duration) {
	data := [][]string{
		{"File", "Result", "Time"},
	}
	for _, res := range results {
		var outcome string
		switch {
		case res.Err != nil:
			outcome = res.Err.Error()
			pterm.Error.Println(fmt.Sprintf("%s: %v", res.Input, res.Err))
		case res.Skipped:
			outcome = "unchanged"
		default:
			outcome = res.Output
		}
		data = append(data, []string{
			res.Input,
			outcome,
			res.Elapsed.Round(time.Millisecond).String(),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()

	saved, skipped, failed := batch.Summary(results)
	msg := fmt.Sprintf("%d saved, %d unchanged, %d failed in %s",
		saved, skipped, failed, elapsed.Round(time.Millisecond))
	if failed > 0 {
		pterm.Warning.Println(msg)
	} else {
		pterm.Success.Println(msg)
	}
}
