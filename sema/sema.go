// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package sema analyzes a parsed translation unit: it resolves expression
// types, instantiates templates, computes implicit and predetermined
// OpenACC clauses, infers routine levels, and replays data presence.
//
// Every result is materialized on the tree itself. Implicit clauses are
// appended to their directives with a non-explicit provenance and routine
// records become FuncDecl.Routine directives, so later passes never need
// the analyzer's internal tables.
package sema

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gogpu/acc2omp/ast"
	"github.com/gogpu/acc2omp/diag"
)

// Action is a data action recorded during presence replay.
type Action struct {
	Dir    *ast.Directive
	Clause *ast.Clause
	Var    ast.Expr
	// Key is the storage key the action touched.
	Key string
}

// Result is what the analyzer hands to lowering.
type Result struct {
	// Routines holds the level record of every device function, keyed by
	// the first declaration of its redeclaration chain.
	Routines map[ast.DeclHandle]*RoutineInfo
	// Redundant lists exit-data actions that change no presence.
	Redundant []Action
	// Instances lists template instantiations in creation order.
	Instances []ast.DeclHandle
}

// Level returns the routine level of h's chain.
func (r *Result) Level(u *ast.Unit, h ast.DeclHandle) (ast.Level, bool) {
	info, ok := r.Routines[u.First(h)]
	if !ok {
		return ast.LevelSeq, false
	}
	return info.Level, true
}

// Analyzer holds the state of one analysis run.
type Analyzer struct {
	unit *ast.Unit
	eng  *diag.Engine
	log  *zap.Logger

	routines  routineTable
	calls     []callSite
	instances map[string]ast.DeclHandle
	result    *Result

	// seen deduplicates diagnostics reported again while analyzing
	// template instances, whose nodes keep the pattern's spans.
	seen map[string]bool
}

// Analyze runs every analysis over u. Diagnostics go to eng; the returned
// error is non-nil when an error was reported.
func Analyze(u *ast.Unit, eng *diag.Engine, log *zap.Logger) (*Result, error) {
	if u == nil {
		return nil, errors.New("sema: unit is nil")
	}
	if log == nil {
		log = zap.NewNop()
	}
	a := &Analyzer{
		unit:      u,
		eng:       eng,
		log:       log.Named("sema"),
		instances: make(map[string]ast.DeclHandle),
		result:    &Result{Routines: make(map[ast.DeclHandle]*RoutineInfo)},
		seen:      make(map[string]bool),
	}
	a.routines.init()

	a.resolve()
	a.instantiate()
	a.desugar()

	for _, h := range u.Functions() {
		a.analyzeFunction(h)
	}

	a.inferLevels()
	a.checkRoutines()
	a.materializeRoutines()
	a.replayPresence()

	a.log.Debug("analysis done",
		zap.String("unit", u.Name),
		zap.Int("routines", len(a.result.Routines)),
		zap.Int("instances", len(a.result.Instances)),
		zap.Int("redundant", len(a.result.Redundant)),
	)
	return a.result, eng.Err()
}

// errorf reports an error once per span and message.
func (a *Analyzer) errorf(span ast.Span, format string, args ...any) *diag.Diagnostic {
	msg := fmt.Sprintf(format, args...)
	key := span.Start.String() + "\x00" + msg
	if a.seen[key] {
		return nil
	}
	a.seen[key] = true
	return a.eng.Errorf(span, "%s", msg)
}

// warnf reports a flagged warning once per span and message.
func (a *Analyzer) warnf(flag string, span ast.Span, format string, args ...any) *diag.Diagnostic {
	msg := fmt.Sprintf(format, args...)
	key := flag + "\x00" + span.Start.String() + "\x00" + msg
	if a.seen[key] {
		return nil
	}
	a.seen[key] = true
	return a.eng.Warnf(flag, span, "%s", msg)
}

// analyzeFunction runs the per-function passes over a definition.
func (a *Analyzer) analyzeFunction(h ast.DeclHandle) {
	f := a.unit.Func(h)
	if f == nil || f.Body == nil {
		return
	}
	a.checkLoops(f)
	a.computeDataAttributes(f)
	a.checkReductions(f)
	a.checkAtomics(f)
	if !f.IsPattern() {
		a.collectCalls(h, f)
	}
}

// visitFunc is called for each directive with the enclosing directives,
// outermost first.
type visitFunc func(d *ast.Directive, stack []*ast.Directive)

// directives walks root in source order. A combined directive is visited
// through its effect, so parallel loop shows up as a parallel directive
// enclosing a loop directive. Lambda bodies are not entered.
func (a *Analyzer) directives(root ast.Node, stack []*ast.Directive, fn visitFunc) {
	a.unit.Inspect(root, func(n ast.Node) bool {
		acc, ok := n.(*ast.AccStmt)
		if !ok {
			return true
		}
		d := acc.Dir
		if d.Effect != nil {
			d = d.Effect
		}
		fn(d, stack)
		if d.Stmt != nil {
			a.directives(d.Stmt, append(stack[:len(stack):len(stack)], d), fn)
		}
		return false
	})
}

// enclosingCompute returns the innermost compute construct in stack.
func enclosingCompute(stack []*ast.Directive) *ast.Directive {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Kind.IsCompute() {
			return stack[i]
		}
	}
	return nil
}

// enclosingLoops returns the loop directives in stack inside the innermost
// compute construct, outermost first.
func enclosingLoops(stack []*ast.Directive) []*ast.Directive {
	var out []*ast.Directive
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Kind.IsCompute() {
			break
		}
		if stack[i].Kind == ast.DirLoop {
			out = append([]*ast.Directive{stack[i]}, out...)
		}
	}
	return out
}

// varName returns the name of a declaration for diagnostics.
func (a *Analyzer) varName(h ast.DeclHandle) string {
	return ast.DeclName(a.unit.Decl(h))
}
