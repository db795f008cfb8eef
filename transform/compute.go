// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package transform

import (
	"github.com/gogpu/acc2omp/ast"
	"github.com/gogpu/acc2omp/sema"
)

// compute lowers a parallel construct to target teams.
func (l *lowerer) compute(d *ast.Directive) {
	omp := &ast.OMPDirective{Kind: ast.OMPTargetTeams, Stmt: d.Stmt}
	var pre []ast.Stmt
	seen := make(map[string]bool)
	for _, c := range d.Clauses {
		if c.Provenance == ast.ProvPredetermined {
			continue
		}
		switch c.Kind {
		case ast.ClauseNumGangs:
			omp.AddClause(&ast.OMPClause{Kind: ast.OMPClauseNumTeams, Arg: c.Arg})
		case ast.ClauseNumWorkers:
			omp.AddClause(&ast.OMPClause{Kind: ast.OMPClauseThreadLimit, Arg: c.Arg})
		case ast.ClauseVectorLength:
			if _, ok := sema.ConstInt(c.Arg); !ok {
				l.softDiscard(c.Span, "'vector_length' argument is not a constant; no simdlen is emitted")
			}
		case ast.ClauseIf:
			omp.AddClause(&ast.OMPClause{Kind: ast.OMPClauseIf, Arg: c.Arg})
		case ast.ClausePrivate:
			omp.AddClause(&ast.OMPClause{Kind: ast.OMPClausePrivate, Vars: c.Vars, Implicit: c.IsImplicit()})
		case ast.ClauseFirstPrivate:
			omp.AddClause(&ast.OMPClause{Kind: ast.OMPClauseFirstPrivate, Vars: c.Vars, Implicit: c.IsImplicit()})
		case ast.ClauseReduction:
			if r := reductionClause(c, seen); r != nil {
				omp.AddClause(r)
			}
		case ast.ClauseAsync:
			l.asyncClause(omp, c)
		case ast.ClauseWait:
			pre = append(pre, l.waitClause(d, omp, c)...)
		default:
			if c.Kind.IsDataMapping() {
				if m := l.mapClause(c, mapStructured); m != nil {
					omp.AddClause(m)
				}
			}
		}
	}
	// Gang reductions combine across teams.
	for _, c := range l.gangReductions(d) {
		if r := reductionClause(c, seen); r != nil {
			r.Implicit = true
			omp.AddClause(r)
		}
	}
	l.implement(d, omp, pre...)
}

// reductionClause translates the items of c not yet in seen.
func reductionClause(c *ast.Clause, seen map[string]bool) *ast.OMPClause {
	var vars []ast.Expr
	for _, v := range c.Vars {
		key := reductionKey(c.Op, v)
		if seen[key] {
			continue
		}
		seen[key] = true
		vars = append(vars, v)
	}
	if len(vars) == 0 {
		return nil
	}
	return &ast.OMPClause{Kind: ast.OMPClauseReduction, Op: c.Op, Vars: vars, Implicit: c.IsImplicit()}
}

// gangReductions returns the reduction clauses of the gang loops inside
// the compute construct d.
func (l *lowerer) gangReductions(d *ast.Directive) []*ast.Clause {
	var out []*ast.Clause
	l.unit.Inspect(d.Stmt, func(n ast.Node) bool {
		acc, ok := n.(*ast.AccStmt)
		if !ok {
			return true
		}
		if acc.Dir.Kind == ast.DirLoop && acc.Dir.Has(ast.ClauseGang) {
			out = append(out, acc.Dir.All(ast.ClauseReduction)...)
		}
		return true
	})
	return out
}

// vectorLength returns the constant vector_length of a compute construct.
func vectorLength(compute *ast.Directive) (ast.Expr, bool) {
	if compute == nil {
		return nil, false
	}
	c := compute.Find(ast.ClauseVectorLength)
	if c == nil {
		return nil, false
	}
	if _, ok := sema.ConstInt(c.Arg); !ok {
		return nil, false
	}
	return c.Arg, true
}
