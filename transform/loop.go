// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package transform

import (
	"go.uber.org/zap"

	"github.com/gogpu/acc2omp/ast"
	"github.com/gogpu/acc2omp/sema"
)

// loopKinds maps a set of partitioning levels to the OpenMP loop
// directive, indexed by gang<<2 | worker<<1 | vector.
var loopKinds = [8]ast.OMPDirectiveKind{
	1: ast.OMPSimd,
	2: ast.OMPParallelFor,
	3: ast.OMPParallelForSimd,
	4: ast.OMPDistribute,
	5: ast.OMPDistributeSimd,
	6: ast.OMPDistributeParallelFor,
	7: ast.OMPDistributeParallelForSimd,
}

func loopKind(levels []ast.Level) (ast.OMPDirectiveKind, bool) {
	var bits int
	for _, lv := range levels {
		switch lv {
		case ast.LevelGang:
			bits |= 4
		case ast.LevelWorker:
			bits |= 2
		case ast.LevelVector:
			bits |= 1
		}
	}
	return loopKinds[bits], bits != 0
}

// loop lowers a loop directive. Outside compute constructs, gang
// partitioning has no OpenMP form and is dropped; in host code the whole
// loop runs sequentially.
func (l *lowerer) loop(d *ast.Directive, stack []*ast.Directive) {
	loop, ok := d.Stmt.(*ast.ForStmt)
	if !ok {
		l.discard(d, "loop directive has no for statement", nil)
		return
	}
	compute := enclosingCompute(stack)
	levels := d.PartitionLevels()
	if compute == nil {
		if !l.hasLevel {
			l.discard(d, "orphaned loop in host code runs sequentially", l.privatize(d, loop))
			return
		}
		var kept []ast.Level
		for _, lv := range levels {
			if lv != ast.LevelGang {
				kept = append(kept, lv)
			}
		}
		if len(kept) < len(levels) {
			l.softDiscard(d.Span, "gang partitioning of an orphaned loop is dropped in OpenMP translation")
		}
		levels = kept
	}
	kind, ok := loopKind(levels)
	if !ok {
		l.discard(d, "loop is not partitioned", l.privatize(d, loop))
		return
	}

	omp := &ast.OMPDirective{Kind: kind, Stmt: d.Stmt}
	seen := make(map[string]bool)
	var priv *ast.OMPClause
	for _, c := range d.Clauses {
		switch c.Kind {
		case ast.ClauseCollapse:
			omp.AddClause(&ast.OMPClause{Kind: ast.OMPClauseCollapse, Arg: c.Arg})
		case ast.ClausePrivate:
			// Explicit and predetermined private variables share one
			// clause.
			if priv == nil {
				priv = &ast.OMPClause{Kind: ast.OMPClausePrivate}
				omp.AddClause(priv)
			}
			priv.Vars = append(priv.Vars, c.Vars...)
		case ast.ClauseReduction:
			// distribute has no reduction clause; the enclosing teams
			// reduction covers gang-only loops.
			if !kind.IsDistributeOnly() {
				if r := reductionClause(c, seen); r != nil {
					omp.AddClause(r)
				}
			}
		case ast.ClauseShared:
			if kind.HasParallelFor() {
				omp.AddClause(&ast.OMPClause{Kind: ast.OMPClauseShared, Vars: c.Vars, Implicit: c.IsImplicit()})
			}
		}
	}
	if kind.HasSimd() {
		if n, ok := vectorLength(compute); ok {
			omp.AddClause(&ast.OMPClause{Kind: ast.OMPClauseSimdlen, Arg: n})
		}
	}
	l.implement(d, omp)
}

// privatize returns the sequential form of a discarded loop: a block that
// redeclares the control variables declared outside the loop nest and the
// explicit private variables, around a copy of the loop bound to those
// declarations. It returns nil when nothing needs privatizing.
func (l *lowerer) privatize(d *ast.Directive, loop *ast.ForStmt) ast.Stmt {
	vars := l.privateVars(d, loop)
	if len(vars) == 0 {
		return nil
	}
	u := l.unit
	parent := ast.InvalidScope
	if sc := u.Scope(loop.Scope); sc != nil {
		parent = sc.Parent
	}
	blk := u.NewScope(ast.ScopeBlock, parent, ast.InvalidDecl)
	r := ast.NewRebinder(u)
	r.MapScope(parent, blk)

	decls := &ast.DeclStmt{Span: loop.Span}
	names := make([]string, 0, len(vars))
	for _, h := range vars {
		v := u.Var(h)
		nh := u.Add(&ast.VarDecl{Name: v.Name, Type: v.Type, Scope: blk, Span: v.Span})
		u.Declare(blk, v.Name, nh)
		r.MapDecl(h, nh)
		decls.Decls = append(decls.Decls, nh)
		names = append(names, v.Name)
	}
	l.log.Debug("privatized sequential loop", zap.Stringer("pos", d.Span), zap.Strings("vars", names))
	return &ast.CompoundStmt{
		Stmts: []ast.Stmt{decls, r.Stmt(loop)},
		Scope: blk,
		Span:  loop.Span,
	}
}

// privateVars lists the variables a sequential rendition of d must
// redeclare, without duplicates.
func (l *lowerer) privateVars(d *ast.Directive, loop *ast.ForStmt) []ast.DeclHandle {
	var out []ast.DeclHandle
	seen := make(map[ast.DeclHandle]bool)
	add := func(h ast.DeclHandle) {
		if v := l.unit.Var(h); v != nil && !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	for _, f := range l.nest(d, loop) {
		if !ast.LoopVarDeclaredInInit(f) {
			add(l.unit.LoopVar(f))
		}
	}
	for _, c := range d.All(ast.ClausePrivate) {
		if c.Provenance == ast.ProvPredetermined {
			continue
		}
		for _, e := range c.Vars {
			if id, ok := ast.StripParens(e).(*ast.Ident); ok {
				add(id.Decl)
			}
		}
	}
	return out
}

// nest returns the loops a directive associates with, outermost first.
func (l *lowerer) nest(d *ast.Directive, loop *ast.ForStmt) []*ast.ForStmt {
	n := int64(1)
	if c := d.Find(ast.ClauseCollapse); c != nil {
		if v, ok := sema.ConstInt(c.Arg); ok {
			n = v
		}
	}
	return ast.LoopNest(loop, n)
}
