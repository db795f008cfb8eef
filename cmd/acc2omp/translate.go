// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/acc2omp"
	"github.com/gogpu/acc2omp/config"
)

// job is one input file and its translation.
type job struct {
	path string
	res  *acc2omp.Result
	err  error
}

func runTranslate(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		return errors.New("no input files")
	}
	opts, err := loadOptions(c)
	if err != nil {
		return err
	}
	outDir := c.String("output")
	if c.Bool("emit-json") && outDir == "" {
		return errors.New("--emit-json requires --output")
	}
	if outDir != "" {
		if err := checkOutputNames(paths); err != nil {
			return err
		}
	}

	log, err := newLogger(c.Bool("verbose"))
	if err != nil {
		return errors.Wrap(err, "logger")
	}
	defer func() { _ = log.Sync() }()

	jobs := make([]*job, len(paths))
	g, ctx := errgroup.WithContext(c.Context)
	if n := c.Int("jobs"); n > 0 {
		g.SetLimit(n)
	}
	for i, path := range paths {
		jobs[i] = &job{path: path}
		j := jobs[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			source, err := os.ReadFile(j.path)
			if err != nil {
				return errors.Wrapf(err, "read %s", j.path)
			}
			flog := log.With(zap.String("file", j.path))
			j.res, j.err = acc2omp.TranslateWithOptions(j.path, string(source), opts, flog)
			flog.Debug("translated", zap.Bool("ok", j.err == nil))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", outDir)
		}
	}
	pr := newDiagPrinter(c.App.ErrWriter)
	failed := 0
	for _, j := range jobs {
		if j.res != nil {
			pr.printAll(j.res.Diagnostics)
		}
		if j.err != nil {
			failed++
			if j.res == nil || !j.res.Diagnostics.HasErrors() {
				fmt.Fprintf(c.App.ErrWriter, "%s: %v\n", j.path, j.err)
			}
			continue
		}
		if err := writeOutput(c.App.Writer, outDir, c.Bool("emit-json"), j); err != nil {
			return err
		}
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d files failed", failed, len(jobs)), 1)
	}
	return nil
}

// loadOptions merges the config file, if any, with the command-line
// flags. Flags that were not given keep the file's settings.
func loadOptions(c *cli.Context) (config.Options, error) {
	opts := config.DefaultOptions()
	if path := c.String("config"); path != "" {
		var err error
		if opts, err = config.Load(path); err != nil {
			return opts, err
		}
	}
	if c.IsSet("mode") {
		m, err := config.ParseMode(c.String("mode"))
		if err != nil {
			return opts, errors.Wrap(err, "--mode")
		}
		opts.Mode = m
	}
	if c.IsSet("present") {
		s, err := config.ParsePresentStrategy(c.String("present"))
		if err != nil {
			return opts, errors.Wrap(err, "--present")
		}
		opts.Present = s
	}
	if c.IsSet("no-create") {
		s, err := config.ParseNoCreateStrategy(c.String("no-create"))
		if err != nil {
			return opts, errors.Wrap(err, "--no-create")
		}
		opts.NoCreate = s
	}
	if c.IsSet("update-present") {
		s, err := config.ParseUpdatePresentStrategy(c.String("update-present"))
		if err != nil {
			return opts, errors.Wrap(err, "--update-present")
		}
		opts.UpdatePresent = s
	}
	if c.IsSet("structured-ref-count") {
		s, err := config.ParseRefCountStrategy(c.String("structured-ref-count"))
		if err != nil {
			return opts, errors.Wrap(err, "--structured-ref-count")
		}
		opts.StructuredRefCount = s
	}
	if c.IsSet("default-async") {
		opts.DefaultAsync = c.Int64("default-async")
	}
	opts.Warnings = append(opts.Warnings, c.StringSlice("W")...)
	if err := opts.Validate(); err != nil {
		return opts, errors.Wrap(err, "options")
	}
	return opts, nil
}

// checkOutputNames rejects inputs that would be written to the same file
// of the output directory.
func checkOutputNames(paths []string) error {
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		base := filepath.Base(path)
		if prev, ok := seen[base]; ok {
			return errors.Errorf("%s and %s would both be written to %s", prev, path, base)
		}
		seen[base] = path
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// writeOutput prints a translation to w, or to outDir under the input's
// base name.
func writeOutput(w io.Writer, outDir string, emitJSON bool, j *job) error {
	if outDir == "" {
		_, err := io.WriteString(w, j.res.Output)
		return errors.Wrap(err, "write output")
	}
	base := filepath.Base(j.path)
	dst := filepath.Join(outDir, base)
	if err := os.WriteFile(dst, []byte(j.res.Output), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", dst)
	}
	if !emitJSON || j.res.Unit == nil {
		return nil
	}
	data, err := acc2omp.Save(j.res.Unit)
	if err != nil {
		return errors.Wrapf(err, "encode %s", j.path)
	}
	dst += ".json"
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", dst)
	}
	return nil
}
