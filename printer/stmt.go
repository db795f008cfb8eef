// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package printer

import (
	"github.com/gogpu/acc2omp/ast"
	"github.com/gogpu/acc2omp/config"
)

// writeStmt writes s as complete lines at the current indentation.
func (w *Writer) writeStmt(s ast.Stmt) {
	switch v := s.(type) {
	case nil:
	case *ast.CompoundStmt:
		w.writeIndent()
		w.writeBlock(v)
		w.out.WriteByte('\n')
	case *ast.SeqStmt:
		for _, st := range v.Stmts {
			w.writeStmt(st)
		}
	case *ast.DeclStmt:
		w.writeDeclStmt(v)
	case *ast.ExprStmt:
		w.writeIndent()
		w.writeExpr(v.X)
		w.out.WriteString(";\n")
	case *ast.IfStmt:
		w.writeIndent()
		if w.writeIf(v) {
			w.out.WriteByte('\n')
		}
	case *ast.ForStmt:
		w.writeIndent()
		w.out.WriteString("for (")
		switch init := v.Init.(type) {
		case *ast.DeclStmt:
			w.writeDeclGroup(init.Decls)
		case *ast.ExprStmt:
			w.writeExpr(init.X)
		}
		w.out.WriteString("; ")
		w.writeExpr(v.Cond)
		w.out.WriteString("; ")
		w.writeExpr(v.Post)
		w.out.WriteByte(')')
		if w.writeNested(v.Body) {
			w.out.WriteByte('\n')
		}
	case *ast.WhileStmt:
		w.writeIndent()
		w.out.WriteString("while (")
		w.writeExpr(v.Cond)
		w.out.WriteByte(')')
		if w.writeNested(v.Body) {
			w.out.WriteByte('\n')
		}
	case *ast.DoStmt:
		w.writeIndent()
		w.out.WriteString("do")
		if !w.writeNested(v.Body) {
			w.writeIndent()
		} else {
			w.out.WriteByte(' ')
		}
		w.out.WriteString("while (")
		w.writeExpr(v.Cond)
		w.out.WriteString(");\n")
	case *ast.ReturnStmt:
		if v.X == nil {
			w.writeLine("return;")
			return
		}
		w.writeIndent()
		w.out.WriteString("return ")
		w.writeExpr(v.X)
		w.out.WriteString(";\n")
	case *ast.BreakStmt:
		w.writeLine("break;")
	case *ast.ContinueStmt:
		w.writeLine("continue;")
	case *ast.NullStmt:
		w.writeLine(";")
	case *ast.AccStmt:
		w.writeDirective(v.Dir)
	case *ast.OMPStmt:
		w.writeLine("%s", OMPDirective(w.unit, v.Dir))
		w.writeStmt(v.Dir.Stmt)
	case *ast.PragmaStmt:
		w.writeLine("%s", v.Text)
	}
}

// writeBlock writes a braced block starting at the current column. The
// closing brace is left unterminated.
func (w *Writer) writeBlock(c *ast.CompoundStmt) {
	if len(c.Stmts) == 0 {
		w.out.WriteString("{\n")
		w.writeIndent()
		w.out.WriteByte('}')
		return
	}
	w.out.WriteString("{\n")
	w.pushIndent()
	for _, s := range c.Stmts {
		w.writeStmt(s)
	}
	w.popIndent()
	w.writeIndent()
	w.out.WriteByte('}')
}

// writeNested writes the body of a statement whose header is on the
// current line. A braced body stays on the header line and leaves the
// closing brace unterminated, in which case it reports true.
func (w *Writer) writeNested(s ast.Stmt) bool {
	if c, ok := s.(*ast.CompoundStmt); ok {
		w.out.WriteByte(' ')
		w.writeBlock(c)
		return true
	}
	w.out.WriteByte('\n')
	w.pushIndent()
	w.writeStmt(s)
	w.popIndent()
	return false
}

// writeIf writes an if statement; "else if" chains stay on one line. It
// reports whether the statement ends in an unterminated closing brace.
func (w *Writer) writeIf(s *ast.IfStmt) bool {
	w.out.WriteString("if (")
	w.writeExpr(s.Cond)
	w.out.WriteByte(')')
	braced := w.writeNested(s.Then)
	if s.Else == nil {
		return braced
	}
	if braced {
		w.out.WriteByte(' ')
	} else {
		w.writeIndent()
	}
	w.out.WriteString("else")
	if next, ok := s.Else.(*ast.IfStmt); ok {
		w.out.WriteByte(' ')
		return w.writeIf(next)
	}
	return w.writeNested(s.Else)
}

func (w *Writer) writeDeclStmt(s *ast.DeclStmt) {
	if len(s.Decls) == 1 {
		if f := w.unit.Func(s.Decls[0]); f != nil {
			w.writeFunction(f)
			return
		}
	}
	w.writeIndent()
	w.writeDeclGroup(s.Decls)
	w.out.WriteString(";\n")
}

// writeDeclGroup writes declarators sharing the base specifier of the
// first one, without the terminating semicolon.
func (w *Writer) writeDeclGroup(decls []ast.DeclHandle) {
	u := w.unit
	for i, h := range decls {
		var spec, decl string
		var init ast.Expr
		switch d := u.Decl(h).(type) {
		case *ast.VarDecl:
			if i == 0 && d.Static {
				w.out.WriteString("static ")
			}
			spec, decl = split(d.Type, d.Name)
			init = d.Init
		case *ast.FuncDecl:
			if i == 0 && d.Static {
				w.out.WriteString("static ")
			}
			spec, decl = split(d.Result, d.Name+w.paramList(d))
		default:
			continue
		}
		if i == 0 {
			w.out.WriteString(spec)
			w.out.WriteByte(' ')
		} else {
			w.out.WriteString(", ")
		}
		w.out.WriteString(decl)
		if init != nil {
			w.out.WriteString(" = ")
			w.writeExpr(init)
		}
	}
}

// writeDirective writes an OpenACC directive, its associated statement,
// and the OpenMP translation as the mode requires.
func (w *Writer) writeDirective(d *ast.Directive) {
	explicit := d.Provenance == ast.ProvExplicit
	switch w.mode {
	case config.ModeACC:
		if explicit {
			w.writeLine("%s", ACCDirective(w.unit, d))
		}
		w.writeStmt(d.Stmt)
	case config.ModeACCOMP:
		if explicit {
			w.writeLine("%s", ACCDirective(w.unit, d))
		}
		if d.ImplKind == ast.ImplDiscarded || d.ImplKind == ast.ImplNone {
			if explicit {
				w.writeLine("%s", discardedNote)
			}
		} else {
			for _, line := range ompLines(w.unit, d.Impl) {
				w.writeLine("// %s", line)
			}
		}
		w.writeStmt(d.Stmt)
	default:
		if explicit && w.mode == config.ModeOMPACC {
			w.writeACCComment(d)
		}
		if d.Impl != nil && d.ImplKind != ast.ImplNone {
			w.writeStmt(d.Impl)
			return
		}
		w.writeStmt(d.Stmt)
	}
}

// writeACCComment writes d as a comment line, noting when it has no
// OpenMP counterpart.
func (w *Writer) writeACCComment(d *ast.Directive) {
	line := "// " + ACCDirective(w.unit, d)
	if d.ImplKind == ast.ImplDiscarded || d.ImplKind == ast.ImplNone {
		line += " " + discardedNote
	}
	w.writeLine("%s", line)
}
