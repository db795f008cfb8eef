// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package printer

import (
	"strings"

	"github.com/gogpu/acc2omp/ast"
)

// ACCDirective renders the source form of d. Clauses the analyzer added
// are not shown.
func ACCDirective(u *ast.Unit, d *ast.Directive) string {
	var b strings.Builder
	b.WriteString(d.Spelling())
	switch d.Kind {
	case ast.DirWait:
		if len(d.WaitArgs) > 0 {
			b.WriteByte('(')
			writeExprList(&b, u, d.WaitArgs)
			b.WriteByte(')')
		}
	case ast.DirRoutine:
		if d.RoutineName != nil {
			b.WriteByte('(')
			b.WriteString(d.RoutineName.Name)
			b.WriteByte(')')
		}
	case ast.DirAtomic:
		if d.AtomicClause {
			b.WriteByte(' ')
			b.WriteString(d.Atomic.String())
		}
	}
	for _, c := range d.Clauses {
		if c.IsImplicit() {
			continue
		}
		b.WriteByte(' ')
		writeACCClause(&b, u, c)
	}
	return b.String()
}

func writeACCClause(b *strings.Builder, u *ast.Unit, c *ast.Clause) {
	b.WriteString(c.Name())
	switch c.Kind {
	case ast.ClauseReduction:
		b.WriteByte('(')
		b.WriteString(c.Op.String())
		b.WriteByte(':')
		writeExprList(b, u, c.Vars)
		b.WriteByte(')')
	case ast.ClauseDefault:
		b.WriteByte('(')
		b.WriteString(c.Default.String())
		b.WriteByte(')')
	case ast.ClauseWait:
		if len(c.Args) > 0 {
			b.WriteByte('(')
			writeExprList(b, u, c.Args)
			b.WriteByte(')')
		}
	default:
		switch {
		case c.Arg != nil:
			b.WriteByte('(')
			b.WriteString(Expr(u, c.Arg))
			b.WriteByte(')')
		case len(c.Vars) > 0:
			b.WriteByte('(')
			writeExprList(b, u, c.Vars)
			b.WriteByte(')')
		}
	}
}

// OMPDirective renders d as an OpenMP pragma line.
func OMPDirective(u *ast.Unit, d *ast.OMPDirective) string {
	var b strings.Builder
	b.WriteString("#pragma omp ")
	b.WriteString(d.Kind.String())
	if d.Kind == ast.OMPAtomic {
		b.WriteByte(' ')
		b.WriteString(d.Atomic.String())
	}
	for _, c := range d.Clauses {
		b.WriteByte(' ')
		writeOMPClause(&b, u, c)
	}
	return b.String()
}

func writeOMPClause(b *strings.Builder, u *ast.Unit, c *ast.OMPClause) {
	b.WriteString(c.Kind.String())
	switch c.Kind {
	case ast.OMPClauseNowait:
		return
	case ast.OMPClauseMap:
		b.WriteByte('(')
		for _, m := range c.Modifiers {
			b.WriteString(m.String())
			b.WriteByte(',')
		}
		b.WriteString(c.MapType.String())
		b.WriteString(": ")
	case ast.OMPClauseTo, ast.OMPClauseFrom:
		b.WriteByte('(')
		for i, m := range c.Modifiers {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(m.String())
		}
		if len(c.Modifiers) > 0 {
			b.WriteString(": ")
		}
	case ast.OMPClauseReduction:
		b.WriteByte('(')
		b.WriteString(c.Op.String())
		b.WriteString(": ")
	case ast.OMPClauseDepend:
		b.WriteByte('(')
		b.WriteString(c.Depend.String())
		b.WriteString(": ")
	default:
		b.WriteByte('(')
		if c.Arg != nil {
			b.WriteString(Expr(u, c.Arg))
			b.WriteByte(')')
			return
		}
	}
	writeExprList(b, u, c.Vars)
	b.WriteByte(')')
}

// ompLines returns the OpenMP directive lines an implementation subtree
// places in front of the statement it applies to. Implementation chains
// through implicit directives are followed, so a combined construct yields
// one line per OpenMP directive.
func ompLines(u *ast.Unit, impl ast.Stmt) []string {
	var lines []string
	for impl != nil {
		switch v := impl.(type) {
		case *ast.SeqStmt:
			for _, s := range v.Stmts {
				lines = append(lines, ompLines(u, s)...)
			}
			return lines
		case *ast.OMPStmt:
			lines = append(lines, OMPDirective(u, v.Dir))
			impl = v.Dir.Stmt
		case *ast.AccStmt:
			d := v.Dir
			if d.Provenance == ast.ProvExplicit || d.ImplKind == ast.ImplDiscarded {
				return lines
			}
			impl = d.Impl
		default:
			return lines
		}
	}
	return lines
}

func writeExprList(b *strings.Builder, u *ast.Unit, list []ast.Expr) {
	for i, e := range list {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(Expr(u, e))
	}
}
