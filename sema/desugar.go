// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package sema

import "github.com/gogpu/acc2omp/ast"

// loopClauses are the clauses of a combined construct that belong to its
// loop half. Everything else stays on the parallel half.
var loopClauses = map[ast.ClauseKind]bool{
	ast.ClauseGang:        true,
	ast.ClauseWorker:      true,
	ast.ClauseVector:      true,
	ast.ClauseSeq:         true,
	ast.ClauseAuto:        true,
	ast.ClauseIndependent: true,
	ast.ClauseCollapse:    true,
	ast.ClausePrivate:     true,
	ast.ClauseReduction:   true,
}

// Desugar returns the effect of a parallel loop directive: an implicit
// parallel directive whose associated statement is an implicit loop
// directive over the original for statement. Clause pointers are shared
// with d.
func Desugar(d *ast.Directive) *ast.Directive {
	par := &ast.Directive{Kind: ast.DirParallel, Span: d.Span, Provenance: ast.ProvImplicit}
	loop := &ast.Directive{Kind: ast.DirLoop, Span: d.Span, Stmt: d.Stmt, Provenance: ast.ProvImplicit}
	for _, c := range d.Clauses {
		if loopClauses[c.Kind] {
			loop.AddClause(c)
		} else {
			par.AddClause(c)
		}
	}
	par.Stmt = &ast.AccStmt{Dir: loop}
	return par
}

func (a *Analyzer) desugar() {
	for _, h := range a.unit.Functions() {
		a.unit.Inspect(a.unit.Func(h).Body, func(n ast.Node) bool {
			if acc, ok := n.(*ast.AccStmt); ok && acc.Dir.Kind == ast.DirParallelLoop && acc.Dir.Effect == nil {
				acc.Dir.Effect = Desugar(acc.Dir)
			}
			return true
		})
	}
}
