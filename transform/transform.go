// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package transform lowers analyzed OpenACC directives to OpenMP.
//
// Lowering never rewrites the OpenACC tree. Every directive gets an
// implementation subtree in Directive.Impl that shares the original
// associated statement, so the printer can show either language, or both,
// from one tree. Directives without an OpenMP counterpart are marked
// discarded; when running the associated loop sequentially would expose a
// loop variable declared outside it, the implementation is a copy of the
// loop inside a block that redeclares the variable.
package transform

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gogpu/acc2omp/ast"
	"github.com/gogpu/acc2omp/config"
	"github.com/gogpu/acc2omp/diag"
	"github.com/gogpu/acc2omp/sema"
)

// Info summarizes a lowering run.
type Info struct {
	// Redundant lists exit data actions that change no presence. Their map
	// clauses are still emitted.
	Redundant []sema.Action
	// Discarded lists the directives that have no OpenMP directive, in
	// lowering order.
	Discarded []*ast.Directive
	// Async is the queue token table after the whole unit.
	Async *AsyncTable
}

type lowerer struct {
	unit *ast.Unit
	res  *sema.Result
	eng  *diag.Engine
	opts config.Options
	log  *zap.Logger

	async *AsyncTable
	info  *Info

	// level is the routine level of the function being lowered.
	level    ast.Level
	hasLevel bool
}

// Lower builds the OpenMP implementation of every directive in u. The unit
// must have been analyzed without errors.
func Lower(u *ast.Unit, res *sema.Result, eng *diag.Engine, opts config.Options, log *zap.Logger) (*Info, error) {
	if u == nil || res == nil {
		return nil, errors.New("transform: unit and analysis result are required")
	}
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "transform")
	}
	if log == nil {
		log = zap.NewNop()
	}
	l := &lowerer{
		unit:  u,
		res:   res,
		eng:   eng,
		opts:  opts,
		log:   log.Named("transform"),
		async: NewAsyncTable(opts.DefaultAsync),
	}
	l.info = &Info{Redundant: res.Redundant, Async: l.async}

	for _, h := range u.Functions() {
		f := u.Func(h)
		if f.IsInstance() {
			continue
		}
		l.level, l.hasLevel = l.routineLevel(h)
		l.block(f.Body, nil)
	}
	l.routines()
	u.AsyncTokens = l.async.Tokens()

	l.log.Debug("lowering done",
		zap.String("unit", u.Name),
		zap.Int("discarded", len(l.info.Discarded)),
		zap.Strings("tokens", u.AsyncTokens),
	)
	return l.info, eng.Err()
}

// routineLevel returns the level of h. A template pattern takes the
// highest level of its instances, since it is printed once for all of
// them.
func (l *lowerer) routineLevel(h ast.DeclHandle) (ast.Level, bool) {
	if level, ok := l.res.Level(l.unit, h); ok {
		return level, true
	}
	f := l.unit.Func(h)
	if !f.IsPattern() {
		return ast.LevelSeq, false
	}
	td := l.unit.Template(f.Template)
	if td == nil {
		return ast.LevelSeq, false
	}
	level, found := ast.LevelSeq, false
	for _, inst := range td.Instances {
		if il, ok := l.res.Level(l.unit, inst); ok {
			level, found = max(level, il), true
		}
	}
	return level, found
}

// block lowers every directive under root, innermost first, and tracks
// acc_set_default_async calls in source order.
func (l *lowerer) block(root ast.Node, stack []*ast.Directive) {
	l.unit.Inspect(root, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.AccStmt:
			l.accStmt(v, stack)
			return false
		case *ast.CallExpr:
			l.call(v)
		}
		return true
	})
}

func (l *lowerer) accStmt(s *ast.AccStmt, stack []*ast.Directive) {
	d := s.Dir
	eff := d
	if d.Effect != nil {
		eff = d.Effect
	}
	if eff.Stmt != nil {
		l.block(eff.Stmt, append(stack[:len(stack):len(stack)], eff))
	}
	l.lower(eff, stack)
	if d.Effect != nil {
		d.Impl = eff.Impl
		d.ImplKind = ast.ImplExplicit
	}
}

func (l *lowerer) lower(d *ast.Directive, stack []*ast.Directive) {
	switch d.Kind {
	case ast.DirParallel:
		l.compute(d)
	case ast.DirLoop:
		l.loop(d, stack)
	case ast.DirData:
		l.data(d)
	case ast.DirEnterData:
		l.enterData(d)
	case ast.DirExitData:
		l.exitData(d)
	case ast.DirUpdate:
		l.update(d)
	case ast.DirWait:
		l.wait(d)
	case ast.DirAtomic:
		l.implement(d, &ast.OMPDirective{Kind: ast.OMPAtomic, Atomic: d.Atomic, Stmt: d.Stmt})
	case ast.DirRoutine:
		l.discard(d, "declare target is not permitted at block scope", nil)
	default:
		l.discard(d, fmt.Sprintf("'%s' has no OpenMP translation", d.Spelling()), nil)
		l.eng.Notef(d.Span, "'%s' is discarded in OpenMP translation", d.Spelling())
	}
}

// call follows acc_set_default_async so later bare async clauses use the
// new default queue.
func (l *lowerer) call(c *ast.CallExpr) {
	id, ok := ast.StripParens(c.Fun).(*ast.Ident)
	if !ok || id.Name != "acc_set_default_async" || len(c.Args) != 1 {
		return
	}
	q, ok := QueueValue(c.Args[0])
	if !ok {
		l.async.ForgetDefault()
		l.softDiscard(c.Span, "argument of 'acc_set_default_async' is not a constant; later default queue operations are synchronous")
		return
	}
	l.async.SetDefault(q)
	l.log.Debug("default async queue", zap.Int64("queue", q), zap.Stringer("pos", c.Span))
}

// implement attaches a single OpenMP directive as d's implementation.
func (l *lowerer) implement(d *ast.Directive, omp *ast.OMPDirective, pre ...ast.Stmt) {
	var impl ast.Stmt = &ast.OMPStmt{Dir: omp, Span: d.Span}
	if len(pre) > 0 {
		impl = &ast.SeqStmt{Stmts: append(pre, impl), Span: d.Span}
	}
	d.Impl = impl
	d.ImplKind = ast.ImplExplicit
	if d.Provenance != ast.ProvExplicit {
		d.ImplKind = ast.ImplImplicit
	}
}

// discard marks d as having no OpenMP directive. impl, when non-nil,
// replaces the associated statement in the translation.
func (l *lowerer) discard(d *ast.Directive, reason string, impl ast.Stmt) {
	d.ImplKind = ast.ImplDiscarded
	d.DiscardReason = reason
	d.Impl = impl
	l.info.Discarded = append(l.info.Discarded, d)
	l.log.Debug("directive discarded",
		zap.String("directive", d.Kind.String()),
		zap.Stringer("pos", d.Span),
		zap.String("reason", reason),
	)
}

// softDiscard reports a part of a directive that is dropped without
// changing what the program computes.
func (l *lowerer) softDiscard(span ast.Span, format string, args ...any) {
	l.eng.Warnf(diag.FlagACCDiscard, span, format, args...)
}

func enclosingCompute(stack []*ast.Directive) *ast.Directive {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Kind == ast.DirParallel {
			return stack[i]
		}
	}
	return nil
}
