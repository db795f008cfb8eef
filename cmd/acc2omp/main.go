// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command acc2omp translates OpenACC C sources to OpenMP.
//
// Usage:
//
//	acc2omp [options] <input.c>...
//
// Examples:
//
//	acc2omp saxpy.c                         # OpenMP translation to stdout
//	acc2omp --mode acc-omp saxpy.c          # OpenACC with OpenMP in comments
//	acc2omp -o out --emit-json a.c b.c      # Write out/a.c, out/a.c.json, ...
//	acc2omp -W omp-ext -W error=acc-discard saxpy.c
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/urfave/cli/v2"
)

const acc2ompVersion = "0.1.0-dev"

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "acc2omp: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "acc2omp"
	app.Usage = "Translate OpenACC C sources to OpenMP"
	app.Version = acc2ompVersion
	app.ArgsUsage = "<input.c>..."
	app.Writer = stdout
	app.ErrWriter = stderr
	app.HideHelpCommand = true

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "mode",
			Usage: "Print mode: omp, acc, acc-omp, or omp-acc",
			Value: "omp",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "YAML options file; flags override its settings",
		},
		&cli.StringFlag{
			Name:  "present",
			Usage: "Translation of present clauses: present or alloc",
		},
		&cli.StringFlag{
			Name:  "no-create",
			Usage: "Translation of no_create clauses: ompx-no-alloc or alloc",
		},
		&cli.StringFlag{
			Name:  "update-present",
			Usage: "Modifier of update motion clauses: present or none",
		},
		&cli.StringFlag{
			Name:  "structured-ref-count",
			Usage: "Structured reference count of data constructs: ompx-hold or none",
		},
		&cli.Int64Flag{
			Name:  "default-async",
			Usage: "Queue of a bare async clause (-1 is acc_async_noval)",
			Value: -1,
		},
		&cli.StringSliceFlag{
			Name:  "W",
			Usage: "Warning control: <flag>, no-<flag>, error=<flag>, no-error=<flag>, or error",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Directory for translated files (default: stdout)",
		},
		&cli.BoolFlag{
			Name:  "emit-json",
			Usage: "Also write the translated unit as <file>.json (requires --output)",
		},
		&cli.IntFlag{
			Name:    "jobs",
			Aliases: []string{"j"},
			Usage:   "Number of files translated concurrently",
			Value:   runtime.NumCPU(),
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Log translation details",
		},
	}
	app.Action = runTranslate
	return app
}
