// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package transform

import (
	"github.com/gogpu/acc2omp/ast"
)

// routines lowers routine directives. A routine applying to a file-scope
// declaration wraps it in declare target; the named form becomes declare
// target to(name). OpenMP has no block-scope declare target, and functions
// used in target regions are declare target implicitly, so block-scope and
// implied routines need no directive.
func (l *lowerer) routines() {
	u := l.unit
	for _, d := range u.Decls {
		switch v := d.(type) {
		case *ast.FuncDecl:
			if v.Routine == nil || v.IsInstance() {
				continue
			}
			l.funcRoutine(v)
		case *ast.DirectiveDecl:
			if v.Dir.Kind != ast.DirRoutine || v.Dir.RoutineName == nil {
				continue
			}
			l.implement(v.Dir, &ast.OMPDirective{
				Kind:    ast.OMPDeclareTargetTo,
				Clauses: []*ast.OMPClause{{Kind: ast.OMPClauseTo, Vars: []ast.Expr{v.Dir.RoutineName}}},
			})
		}
	}
}

func (l *lowerer) funcRoutine(f *ast.FuncDecl) {
	r := f.Routine
	switch {
	case r.Provenance == ast.ProvImplicit:
		r.ImplKind = ast.ImplImplicit
		r.Impl = nil
	case f.Lambda || !l.unit.IsFileScope(f.Scope):
		l.discard(r, "declare target is not permitted at block scope", nil)
	default:
		l.implement(r, &ast.OMPDirective{Kind: ast.OMPDeclareTarget})
	}
}
