// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package acc2omp translates OpenACC programs to OpenMP.
//
// acc2omp reads C sources annotated with OpenACC directives and prints them
// in one of four forms:
//   - omp: the OpenMP translation
//   - acc: the OpenACC program as written
//   - acc-omp: OpenACC code with the OpenMP translation in comments
//   - omp-acc: OpenMP code with the OpenACC original in comments
//
// The package provides a one-call API as well as access to the individual
// stages.
//
// Example usage:
//
//	source := `
//	void scale(int n, float *x) {
//	    #pragma acc parallel loop copy(x[0:n])
//	    for (int i = 0; i < n; ++i)
//	        x[i] = 2 * x[i];
//	}
//	`
//	res, err := acc2omp.Translate("scale.c", source)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(res.Output)
//
// The stages can also be run one at a time:
//
//	eng, _ := acc2omp.NewEngine("scale.c", source, opts, nil)
//	unit, _ := acc2omp.Parse("scale.c", source, eng)
//	analysis, _ := acc2omp.Analyze(unit, eng, nil)
//	_, _ = acc2omp.Lower(unit, analysis, eng, opts, nil)
//	out, _ := acc2omp.Print(unit, config.ModeOMPACC)
package acc2omp

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gogpu/acc2omp/ast"
	"github.com/gogpu/acc2omp/config"
	"github.com/gogpu/acc2omp/diag"
	"github.com/gogpu/acc2omp/parse"
	"github.com/gogpu/acc2omp/printer"
	"github.com/gogpu/acc2omp/sema"
	"github.com/gogpu/acc2omp/serial"
	"github.com/gogpu/acc2omp/transform"
)

// Options configures a translation.
type Options = config.Options

// DefaultOptions returns the default options: OpenMP output, present and
// ompx extensions enabled, and the noval default queue.
func DefaultOptions() Options {
	return config.DefaultOptions()
}

// Result is the outcome of a translation.
type Result struct {
	// Unit is the translated unit. It is nil when parsing failed.
	Unit *ast.Unit

	// Output is the printed program in the requested mode.
	Output string

	// Diagnostics holds every diagnostic reported, warnings included.
	Diagnostics diag.List

	// Analysis and Lowering summarize the analyzer and lowering runs.
	Analysis *sema.Result
	Lowering *transform.Info
}

// Translate translates source using the default options.
func Translate(name, source string) (*Result, error) {
	return TranslateWithOptions(name, source, DefaultOptions(), nil)
}

// TranslateWithOptions translates source with custom options.
//
// The pipeline is:
//  1. Parse the source into a unit
//  2. Analyze directives (data attributes, levels, routines)
//  3. Lower every directive to its OpenMP implementation
//  4. Print the unit in opts.Mode
//
// The result is returned even when an error is, so callers can show the
// diagnostics collected before the failing stage. When OpenACC processing
// is disabled the source is printed back unchanged.
func TranslateWithOptions(name, source string, opts Options, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	eng, err := NewEngine(name, source, opts, log)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	defer func() { res.Diagnostics = eng.Diagnostics() }()

	if !opts.OpenACC {
		res.Output = source
		return res, nil
	}

	unit, err := Parse(name, source, eng)
	if err != nil {
		return res, fmt.Errorf("parse error: %w", err)
	}
	res.Unit = unit

	res.Analysis, err = Analyze(unit, eng, log)
	if err != nil {
		return res, fmt.Errorf("analysis error: %w", err)
	}

	res.Lowering, err = Lower(unit, res.Analysis, eng, opts, log)
	if err != nil {
		return res, fmt.Errorf("lowering error: %w", err)
	}

	res.Output, err = Print(unit, opts.Mode)
	if err != nil {
		return res, err
	}
	return res, nil
}

// NewEngine validates opts and returns a diagnostics engine for source
// that applies the warning controls of opts.
func NewEngine(name, source string, opts Options, log *zap.Logger) (*diag.Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	policy, err := opts.Policy()
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return diag.NewEngine(name, source, policy, log), nil
}

// Parse parses source into a unit.
//
// This is the first stage of translation. Directives are parsed and
// attached to their statements but not yet checked.
func Parse(name, source string, eng *diag.Engine) (*ast.Unit, error) {
	unit, err := parse.File(name, source, eng)
	if err != nil {
		return nil, err
	}
	return unit, nil
}

// Analyze resolves names and types and computes the implicit data
// attributes, parallelism levels, and routine information of u.
func Analyze(u *ast.Unit, eng *diag.Engine, log *zap.Logger) (*sema.Result, error) {
	return sema.Analyze(u, eng, log)
}

// Lower builds the OpenMP implementation of every directive in u.
func Lower(u *ast.Unit, res *sema.Result, eng *diag.Engine, opts Options, log *zap.Logger) (*transform.Info, error) {
	return transform.Lower(u, res, eng, opts, log)
}

// Print renders u in the given mode.
func Print(u *ast.Unit, mode config.Mode) (string, error) {
	out, err := printer.Print(u, mode)
	if err != nil {
		return "", fmt.Errorf("print error: %w", err)
	}
	return out, nil
}

// Save encodes a translated unit so that it can be printed later without
// translating again.
func Save(u *ast.Unit) ([]byte, error) {
	return serial.Marshal(u)
}

// Load decodes a unit written by Save.
func Load(data []byte) (*ast.Unit, error) {
	return serial.Unmarshal(data)
}
