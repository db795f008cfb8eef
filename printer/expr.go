// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package printer

import (
	"fmt"
	"strings"

	"github.com/gogpu/acc2omp/ast"
	"github.com/gogpu/acc2omp/config"
)

// Expr renders e on one line. u resolves lambda bodies and may be nil when
// e contains none.
func Expr(u *ast.Unit, e ast.Expr) string {
	w := newWriter(u, config.ModeACC)
	w.writeExpr(e)
	return w.String()
}

func (w *Writer) writeExpr(e ast.Expr) {
	switch v := e.(type) {
	case nil:
	case *ast.IntLit:
		w.out.WriteString(v.Text)
	case *ast.FloatLit:
		w.out.WriteString(v.Text)
	case *ast.CharLit:
		w.out.WriteString(v.Text)
	case *ast.StringLit:
		w.out.WriteString(v.Text)
	case *ast.BoolLit:
		if v.Value {
			w.out.WriteString("true")
		} else {
			w.out.WriteString("false")
		}
	case *ast.Ident:
		w.out.WriteString(v.Name)
	case *ast.ParenExpr:
		w.out.WriteByte('(')
		w.writeExpr(v.X)
		w.out.WriteByte(')')
	case *ast.UnaryExpr:
		if v.Postfix {
			w.writeExpr(v.X)
			w.out.WriteString(v.Op.String())
			return
		}
		op := v.Op.String()
		w.out.WriteString(op)
		// "- -x" must not print as "--x".
		if inner, ok := v.X.(*ast.UnaryExpr); ok && !inner.Postfix {
			last := op[len(op)-1]
			if strings.IndexByte("+-&", last) >= 0 && inner.Op.String()[0] == last {
				w.out.WriteByte(' ')
			}
		}
		w.writeExpr(v.X)
	case *ast.BinaryExpr:
		w.writeExpr(v.X)
		fmt.Fprintf(&w.out, " %s ", v.Op)
		w.writeExpr(v.Y)
	case *ast.AssignExpr:
		w.writeExpr(v.LHS)
		fmt.Fprintf(&w.out, " %s ", v.Op)
		w.writeExpr(v.RHS)
	case *ast.CondExpr:
		w.writeExpr(v.Cond)
		w.out.WriteString(" ? ")
		w.writeExpr(v.Then)
		w.out.WriteString(" : ")
		w.writeExpr(v.Else)
	case *ast.CallExpr:
		w.writeExpr(v.Fun)
		if len(v.TemplateArgs) > 0 {
			w.out.WriteString(templateArgs(v.TemplateArgs))
		}
		w.out.WriteByte('(')
		w.writeExprs(v.Args)
		w.out.WriteByte(')')
	case *ast.IndexExpr:
		w.writeExpr(v.X)
		w.out.WriteByte('[')
		w.writeExpr(v.Index)
		w.out.WriteByte(']')
	case *ast.SectionExpr:
		w.writeExpr(v.X)
		w.out.WriteByte('[')
		w.writeExpr(v.Lo)
		w.out.WriteByte(':')
		w.writeExpr(v.Len)
		w.out.WriteByte(']')
	case *ast.MemberExpr:
		w.writeExpr(v.X)
		if v.Arrow {
			w.out.WriteString("->")
		} else {
			w.out.WriteByte('.')
		}
		w.out.WriteString(v.Name)
	case *ast.CastExpr:
		w.out.WriteString("(" + typeName(v.Type) + ")")
		w.writeExpr(v.X)
	case *ast.LambdaExpr:
		w.writeLambda(v)
	default:
		fmt.Fprintf(&w.out, "/* %T */", e)
	}
}

func (w *Writer) writeExprs(list []ast.Expr) {
	for i, e := range list {
		if i > 0 {
			w.out.WriteString(", ")
		}
		w.writeExpr(e)
	}
}

// writeLambda writes a lambda with its body as an indented block, so the
// expression can span lines.
func (w *Writer) writeLambda(l *ast.LambdaExpr) {
	w.out.WriteString("[" + l.Capture + "]")
	if w.unit == nil {
		w.out.WriteString("(...) {...}")
		return
	}
	f := w.unit.Func(l.Func)
	if f == nil {
		return
	}
	w.out.WriteString(w.paramList(f))
	if f.Body != nil {
		w.out.WriteByte(' ')
		w.writeBlock(f.Body)
	}
}

// declaration renders a declarator of type t named name ("int *p",
// "double a[4]"). An empty name gives the abstract declarator.
func declaration(t ast.Type, name string) string {
	spec, decl := split(t, name)
	if decl == "" {
		return spec
	}
	if strings.HasPrefix(decl, "[") {
		return spec + decl
	}
	return spec + " " + decl
}

// split separates t into its base specifier and the declarator wrapped
// around name.
func split(t ast.Type, name string) (string, string) {
	switch v := t.(type) {
	case *ast.PointerType:
		if _, ok := v.Elem.(*ast.ArrayType); ok {
			return split(v.Elem, "(*"+name+")")
		}
		return split(v.Elem, "*"+name)
	case *ast.ReferenceType:
		if _, ok := v.Elem.(*ast.ArrayType); ok {
			return split(v.Elem, "(&"+name+")")
		}
		return split(v.Elem, "&"+name)
	case *ast.ArrayType:
		if v.Len < 0 {
			return split(v.Elem, name+"[]")
		}
		return split(v.Elem, fmt.Sprintf("%s[%d]", name, v.Len))
	case *ast.SpecializationType:
		return v.Name + templateArgs(v.Args), name
	default:
		return ast.TypeString(t), name
	}
}

// typeName renders t as a type-id, as in casts and template arguments.
func typeName(t ast.Type) string {
	return declaration(t, "")
}

func templateArgs(args []ast.Type) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, typeName(a))
	}
	return "<" + strings.Join(parts, ", ") + ">"
}
