// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package sema

import "github.com/gogpu/acc2omp/ast"

// reductionKind returns the operand category an operator needs and a
// predicate accepting it.
func reductionKind(op ast.ReductionOp) (string, func(ast.Type) bool) {
	switch op {
	case ast.RedBitAnd, ast.RedBitOr, ast.RedBitXor:
		return "integer", ast.IsInteger
	case ast.RedLAnd, ast.RedLOr:
		return "scalar", ast.IsArithmetic
	}
	return "arithmetic", ast.IsArithmetic
}

// checkReductions verifies operator and operand type compatibility of
// every reduction clause in f.
func (a *Analyzer) checkReductions(f *ast.FuncDecl) {
	a.directives(f.Body, nil, func(d *ast.Directive, _ []*ast.Directive) {
		for _, c := range d.All(ast.ClauseReduction) {
			kind, ok := reductionKind(c.Op)
			for _, e := range c.Vars {
				t := TypeOf(a.unit, e)
				if t == nil || ast.IsDependent(t) {
					continue
				}
				if !ok(t) {
					a.errorf(e.Pos(), "OpenACC reduction operator '%s' argument must be of %s type", c.Op, kind)
				}
			}
		}
	})
}
