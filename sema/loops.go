// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package sema

import (
	"strconv"
	"strings"

	"github.com/gogpu/acc2omp/ast"
)

// checkLoops adds implicit gang clauses and predetermined privates to the
// loop directives of f and checks their nesting and collapse depth.
func (a *Analyzer) checkLoops(f *ast.FuncDecl) {
	a.directives(f.Body, nil, func(d *ast.Directive, stack []*ast.Directive) {
		if d.Kind != ast.DirLoop {
			return
		}
		loop, ok := d.Stmt.(*ast.ForStmt)
		if !ok {
			return
		}
		outer := enclosingLoops(stack)
		if enclosingCompute(stack) != nil && a.wantsImplicitGang(d, outer) {
			d.AddClause(&ast.Clause{Kind: ast.ClauseGang, Span: d.Span, Provenance: ast.ProvImplicit})
		}
		a.checkNesting(d, outer)
		nest := a.collapsed(d, loop)
		if d.IsPartitioned() {
			a.privatizeControlVars(d, nest)
		}
	})
}

// wantsImplicitGang reports whether a loop directly inside a compute
// construct is partitioned across gangs by default.
func (a *Analyzer) wantsImplicitGang(d *ast.Directive, outer []*ast.Directive) bool {
	for _, k := range []ast.ClauseKind{ast.ClauseGang, ast.ClauseWorker, ast.ClauseVector, ast.ClauseSeq, ast.ClauseAuto} {
		if d.Has(k) {
			return false
		}
	}
	for _, o := range outer {
		if o.IsPartitioned() {
			return false
		}
	}
	gang := false
	a.directives(d.Stmt, nil, func(inner *ast.Directive, _ []*ast.Directive) {
		if inner.Kind == ast.DirLoop && inner.HasExplicit(ast.ClauseGang) {
			gang = true
		}
	})
	return !gang
}

// checkNesting rejects a partitioned loop whose level is not strictly
// below the innermost level of the enclosing partitioned loop.
func (a *Analyzer) checkNesting(d *ast.Directive, outer []*ast.Directive) {
	if !d.IsPartitioned() {
		return
	}
	for i := len(outer) - 1; i >= 0; i-- {
		levels := outer[i].PartitionLevels()
		if len(levels) == 0 {
			continue
		}
		inner := levels[len(levels)-1]
		if d.MaxLevel() >= inner {
			span := d.Span
			if c := d.Find(d.MaxLevel().Clause()); c != nil && !c.IsImplicit() {
				span = c.Span
			}
			a.errorf(span, "loop with '%s' clause cannot be nested within loop with '%s' clause", d.MaxLevel(), inner)
		}
		return
	}
}

// collapsed returns the for statements a loop directive associates with,
// outermost first.
func (a *Analyzer) collapsed(d *ast.Directive, loop *ast.ForStmt) []*ast.ForStmt {
	nest := []*ast.ForStmt{loop}
	c := d.Find(ast.ClauseCollapse)
	if c == nil {
		return nest
	}
	n, ok := ConstInt(c.Arg)
	if !ok || n < 1 {
		a.errorf(c.Span, "argument to 'collapse' clause must be a strictly positive integer value")
		return nest
	}
	nest = ast.LoopNest(loop, n)
	if int64(len(nest)) < n {
		a.errorf(c.Span, "expected %d nested for loops for 'collapse(%d)'", n, n)
	}
	return nest
}

// privatizeControlVars gives the control variables of a partitioned loop
// nest a predetermined private clause when they are declared outside it.
func (a *Analyzer) privatizeControlVars(d *ast.Directive, nest []*ast.ForStmt) {
	var vars []ast.Expr
	for _, loop := range nest {
		if ast.LoopVarDeclaredInInit(loop) {
			continue
		}
		v := a.unit.LoopVar(loop)
		if a.unit.Var(v) == nil {
			continue
		}
		if c, ref := findClauseVar(d, v); c != nil {
			a.errorf(ref.Pos(), "loop control variable '%s' cannot appear in '%s' clause", a.varName(v), c.Name())
			continue
		}
		vars = append(vars, &ast.Ident{Name: a.varName(v), Decl: v, Span: loop.Init.Pos()})
	}
	if len(vars) > 0 {
		d.AddClause(&ast.Clause{Kind: ast.ClausePrivate, Span: d.Span, Provenance: ast.ProvPredetermined, Vars: vars})
	}
}

// findClauseVar returns the explicit data-sharing clause of d naming v.
func findClauseVar(d *ast.Directive, v ast.DeclHandle) (*ast.Clause, ast.Expr) {
	for _, c := range d.Clauses {
		if c.IsImplicit() || !c.Kind.IsDataSharing() {
			continue
		}
		for _, e := range c.Vars {
			if id, ok := ast.StripParens(e).(*ast.Ident); ok && id.Decl == v {
				return c, e
			}
		}
	}
	return nil, nil
}

// ConstInt evaluates an integer constant expression made of literals,
// parentheses, unary minus, and the arithmetic operators.
func ConstInt(e ast.Expr) (int64, bool) {
	switch v := ast.StripParens(e).(type) {
	case *ast.IntLit:
		text := strings.TrimRight(strings.ToLower(v.Text), "ul")
		n, err := strconv.ParseInt(text, 0, 64)
		return n, err == nil
	case *ast.UnaryExpr:
		x, ok := ConstInt(v.X)
		switch {
		case !ok:
			return 0, false
		case v.Op == ast.OpNeg:
			return -x, true
		case v.Op == ast.OpPlus:
			return x, true
		}
	case *ast.BinaryExpr:
		x, okx := ConstInt(v.X)
		y, oky := ConstInt(v.Y)
		if !okx || !oky {
			return 0, false
		}
		switch v.Op {
		case ast.OpAdd:
			return x + y, true
		case ast.OpSub:
			return x - y, true
		case ast.OpMul:
			return x * y, true
		case ast.OpDiv:
			if y != 0 {
				return x / y, true
			}
		}
	}
	return 0, false
}
