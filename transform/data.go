// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package transform

import (
	"github.com/gogpu/acc2omp/ast"
	"github.com/gogpu/acc2omp/config"
	"github.com/gogpu/acc2omp/diag"
	"github.com/gogpu/acc2omp/sema"
)

// mapContext says which construct a data clause sits on.
type mapContext uint8

const (
	mapStructured mapContext = iota
	mapEnter
	mapExit
	mapExitFinalize
)

// mapClause translates an OpenACC data clause to an OpenMP map clause.
func (l *lowerer) mapClause(c *ast.Clause, ctx mapContext) *ast.OMPClause {
	m := &ast.OMPClause{Kind: ast.OMPClauseMap, Vars: c.Vars, Implicit: c.IsImplicit()}
	switch c.Kind {
	case ast.ClauseCopy:
		m.MapType = ast.MapToFrom
	case ast.ClauseCopyIn:
		m.MapType = ast.MapTo
	case ast.ClauseCopyOut:
		m.MapType = ast.MapFrom
		if ctx == mapExitFinalize {
			m.Modifiers = append(m.Modifiers, ast.ModAlways)
		}
	case ast.ClauseCreate:
		m.MapType = ast.MapAlloc
	case ast.ClauseDelete:
		m.MapType = ast.MapRelease
		if ctx == mapExitFinalize {
			m.MapType = ast.MapDelete
		}
	case ast.ClausePresent:
		m.MapType = ast.MapAlloc
		if l.opts.Present == config.PresentModifier {
			m.Modifiers = append(m.Modifiers, ast.ModPresent)
			l.eng.Warnf(diag.FlagOMPMapPresent, c.Span,
				"'%s' is translated to the OpenMP 5.1 'present' map type modifier", c.Name())
		}
	case ast.ClauseNoCreate:
		m.MapType = ast.MapAlloc
		if l.opts.NoCreate == config.NoCreateNoAlloc {
			m.Modifiers = append(m.Modifiers, ast.ModOMPXNoAlloc)
			l.eng.Warnf(diag.FlagOMPMapOMPXNoAlloc, c.Span,
				"'%s' is translated to the 'ompx_no_alloc' map type modifier, an OpenMP extension", c.Name())
		}
	default:
		return nil
	}
	if ctx == mapStructured && l.opts.StructuredRefCount == config.RefCountHold {
		m.Modifiers = append([]ast.Modifier{ast.ModOMPXHold}, m.Modifiers...)
		l.eng.Warnf(diag.FlagOMPMapOMPXHold, c.Span,
			"'%s' is translated with the 'ompx_hold' map type modifier, an OpenMP extension", c.Name())
	}
	return m
}

// data lowers a structured data construct to target data.
func (l *lowerer) data(d *ast.Directive) {
	omp := &ast.OMPDirective{Kind: ast.OMPTargetData, Stmt: d.Stmt}
	for _, c := range d.Clauses {
		switch {
		case c.Kind == ast.ClauseIf:
			omp.AddClause(&ast.OMPClause{Kind: ast.OMPClauseIf, Arg: c.Arg})
		case c.Kind.IsDataMapping():
			if m := l.mapClause(c, mapStructured); m != nil {
				omp.AddClause(m)
			}
		}
	}
	if omp.Find(ast.OMPClauseMap) == nil {
		// target data needs at least one map.
		l.discard(d, "data construct maps no variables", nil)
		return
	}
	l.implement(d, omp)
}

func (l *lowerer) enterData(d *ast.Directive) {
	omp := &ast.OMPDirective{Kind: ast.OMPTargetEnterData}
	pre := l.standaloneClauses(d, omp)
	for _, c := range d.Clauses {
		if c.Kind.IsDataMapping() {
			if m := l.mapClause(c, mapEnter); m != nil {
				omp.AddClause(m)
			}
		}
	}
	if omp.Find(ast.OMPClauseMap) == nil {
		l.discard(d, "enter data maps no variables", nil)
		return
	}
	l.implement(d, omp, pre...)
}

// exitData lowers exit data. With finalize, copyout becomes an always
// from map followed by a second exit that deletes the same data.
func (l *lowerer) exitData(d *ast.Directive) {
	ctx := mapExit
	if d.Has(ast.ClauseFinalize) {
		ctx = mapExitFinalize
	}
	omp := &ast.OMPDirective{Kind: ast.OMPTargetExitData}
	pre := l.standaloneClauses(d, omp)
	var copied []ast.Expr
	for _, c := range d.Clauses {
		if !c.Kind.IsDataMapping() {
			continue
		}
		if m := l.mapClause(c, ctx); m != nil {
			omp.AddClause(m)
		}
		if ctx == mapExitFinalize && c.Kind == ast.ClauseCopyOut {
			copied = append(copied, c.Vars...)
		}
	}
	if omp.Find(ast.OMPClauseMap) == nil {
		l.discard(d, "exit data maps no variables", nil)
		return
	}
	if len(copied) == 0 {
		l.implement(d, omp, pre...)
		return
	}
	del := &ast.OMPDirective{Kind: ast.OMPTargetExitData}
	for _, c := range omp.Clauses {
		if c.Kind != ast.OMPClauseMap {
			del.AddClause(c)
		}
	}
	del.AddClause(&ast.OMPClause{Kind: ast.OMPClauseMap, MapType: ast.MapDelete, Vars: copied})
	l.implement(d, omp, pre...)
	second := &ast.OMPStmt{Dir: del, Span: d.Span}
	if seq, ok := d.Impl.(*ast.SeqStmt); ok {
		seq.Stmts = append(seq.Stmts, second)
		return
	}
	d.Impl = &ast.SeqStmt{Stmts: []ast.Stmt{d.Impl, second}, Span: d.Span}
}

// update lowers update to target update. Motion clauses carry the present
// modifier unless if_present is given or the strategy turns it off.
func (l *lowerer) update(d *ast.Directive) {
	omp := &ast.OMPDirective{Kind: ast.OMPTargetUpdate}
	pre := l.standaloneClauses(d, omp)
	present := l.opts.UpdatePresent == config.UpdatePresentModifier && !d.Has(ast.ClauseIfPresent)
	for _, c := range d.Clauses {
		if !c.Kind.IsMotion() {
			continue
		}
		kind := ast.OMPClauseFrom
		if c.Kind == ast.ClauseDevice {
			kind = ast.OMPClauseTo
		}
		m := &ast.OMPClause{Kind: kind, Vars: c.Vars}
		if present {
			m.Modifiers = []ast.Modifier{ast.ModPresent}
			l.eng.Warnf(diag.FlagOMPUpdatePresent, c.Span,
				"'%s' is translated with the OpenMP 5.1 'present' motion modifier", c.Name())
		}
		omp.AddClause(m)
	}
	if omp.Find(ast.OMPClauseTo) == nil && omp.Find(ast.OMPClauseFrom) == nil {
		l.discard(d, "update moves no variables", nil)
		return
	}
	l.implement(d, omp, pre...)
}

// standaloneClauses translates the if, async, and wait clauses shared by
// the executable directives. It returns statements that must run before
// the directive.
func (l *lowerer) standaloneClauses(d *ast.Directive, omp *ast.OMPDirective) []ast.Stmt {
	var pre []ast.Stmt
	for _, c := range d.Clauses {
		switch c.Kind {
		case ast.ClauseIf:
			omp.AddClause(&ast.OMPClause{Kind: ast.OMPClauseIf, Arg: c.Arg})
		case ast.ClauseAsync:
			l.asyncClause(omp, c)
		case ast.ClauseWait:
			pre = append(pre, l.waitClause(d, omp, c)...)
		}
	}
	return pre
}

// asyncClause turns async into nowait plus an inout dependence on the
// queue's token. async(acc_async_sync) stays synchronous but is still
// ordered on its token.
func (l *lowerer) asyncClause(omp *ast.OMPDirective, c *ast.Clause) {
	q, ok := QueueValue(c.Arg)
	if !ok {
		l.softDiscard(c.Span, "async argument is not a constant; the operation is executed synchronously")
		return
	}
	tok, ok := l.async.Token(q)
	if !ok {
		l.softDiscard(c.Span, "async queue cannot be determined; the operation is executed synchronously")
		return
	}
	if q == config.AsyncNoval {
		q, _ = l.async.Default()
	}
	if q != config.AsyncSync {
		omp.AddClause(&ast.OMPClause{Kind: ast.OMPClauseNowait})
	}
	omp.AddClause(&ast.OMPClause{Kind: ast.OMPClauseDepend, Depend: ast.DependInOut, Vars: []ast.Expr{tokenRef(tok, c.Span)}})
}

// waitClause adds an in dependence per waited queue. A bare wait, or one
// whose queues are not constant, waits for everything before the
// directive instead.
func (l *lowerer) waitClause(d *ast.Directive, omp *ast.OMPDirective, c *ast.Clause) []ast.Stmt {
	toks, ok := l.queueTokens(c.Args)
	if !ok {
		l.softDiscard(c.Span, "wait argument is not a constant; waiting for all queues instead")
	}
	if len(toks) == 0 {
		return []ast.Stmt{&ast.OMPStmt{Dir: &ast.OMPDirective{Kind: ast.OMPTaskwait}, Span: d.Span}}
	}
	omp.AddClause(&ast.OMPClause{Kind: ast.OMPClauseDepend, Depend: ast.DependIn, Vars: toks})
	return nil
}

// queueTokens resolves queue arguments to token references. It returns no
// tokens and false when any argument cannot be resolved.
func (l *lowerer) queueTokens(args []ast.Expr) ([]ast.Expr, bool) {
	var out []ast.Expr
	for _, a := range args {
		q, ok := QueueValue(a)
		if !ok {
			return nil, false
		}
		tok, ok := l.async.Token(q)
		if !ok {
			return nil, false
		}
		out = append(out, tokenRef(tok, a.Pos()))
	}
	return out, true
}

// wait lowers the wait directive to taskwait.
func (l *lowerer) wait(d *ast.Directive) {
	omp := &ast.OMPDirective{Kind: ast.OMPTaskwait}
	toks, ok := l.queueTokens(d.WaitArgs)
	if !ok {
		l.softDiscard(d.Span, "wait argument is not a constant; waiting for all queues instead")
	}
	if len(toks) > 0 {
		omp.AddClause(&ast.OMPClause{Kind: ast.OMPClauseDepend, Depend: ast.DependInOut, Vars: toks})
	}
	for _, c := range d.Clauses {
		// Waiting unconditionally and synchronously only adds ordering.
		l.softDiscard(c.Span, "'%s' clause on '%s' is dropped; the wait is unconditional and synchronous", c.Name(), d.Spelling())
	}
	l.implement(d, omp)
}

func tokenRef(tok string, span ast.Span) ast.Expr {
	return &ast.Ident{Name: tok, Decl: ast.InvalidDecl, Span: span}
}

// reductionKey identifies a reduction list item.
func reductionKey(op ast.ReductionOp, v ast.Expr) string {
	return op.String() + ":" + sema.ExprKey(v)
}
