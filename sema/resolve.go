// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package sema

import (
	"strings"

	"github.com/gogpu/acc2omp/ast"
)

// Runtime names that behave like integer constants in clause arguments.
var predefinedInts = map[string]bool{
	"acc_async_sync":  true,
	"acc_async_noval": true,
}

// IsPredefined reports whether name is an OpenACC runtime constant.
func IsPredefined(name string) bool { return predefinedInts[name] }

// resolve checks that every variable reference resolved and deduces the
// results of lambdas.
func (a *Analyzer) resolve() {
	u := a.unit
	for i, d := range u.Decls {
		switch v := d.(type) {
		case *ast.FuncDecl:
			if v.Lambda {
				resultType(u, ast.DeclHandle(i))
			}
			if v.Body != nil {
				a.checkNames(v.Body)
				a.directives(v.Body, nil, func(dir *ast.Directive, _ []*ast.Directive) {
					for _, e := range clauseExprs(dir) {
						a.checkNames(e)
					}
				})
			}
		case *ast.VarDecl:
			if u.IsFileScope(v.Scope) && v.Init != nil {
				a.checkNames(v.Init)
			}
		}
	}
}

// checkNames reports unresolved identifiers under n. A call of an unknown
// name is an external host function and is not reported.
func (a *Analyzer) checkNames(n ast.Node) {
	callee := make(map[*ast.Ident]bool)
	a.unit.Inspect(n, func(n ast.Node) bool {
		switch v := n.(type) {
		case *ast.CallExpr:
			if id, ok := ast.StripParens(v.Fun).(*ast.Ident); ok {
				callee[id] = true
			}
		case *ast.Ident:
			if !v.Decl.IsValid() && !callee[v] && !IsPredefined(v.Name) {
				a.errorf(v.Span, "use of undeclared identifier '%s'", v.Name)
			}
		}
		return true
	})
}

// clauseExprs returns every expression in the clauses of d.
func clauseExprs(d *ast.Directive) []ast.Expr {
	var out []ast.Expr
	for _, c := range d.Clauses {
		out = append(out, c.Vars...)
		out = append(out, c.Args...)
		if c.Arg != nil {
			out = append(out, c.Arg)
		}
	}
	return append(out, d.WaitArgs...)
}

// resultType returns the result type of f, deducing a lambda's result from
// its first return statement.
func resultType(u *ast.Unit, h ast.DeclHandle) ast.Type {
	f := u.Func(h)
	if f == nil {
		return nil
	}
	auto, ok := f.Result.(*ast.AutoType)
	if !ok || auto.Deduced != nil || f.Body == nil {
		return f.Result
	}
	auto.Deduced = ast.Builtin(ast.Void)
	u.Inspect(f.Body, func(n ast.Node) bool {
		if ret, ok := n.(*ast.ReturnStmt); ok && ret.X != nil {
			if t := TypeOf(u, ret.X); t != nil {
				auto.Deduced = t
			}
			return false
		}
		return true
	})
	return f.Result
}

// TypeOf resolves the type of e. It returns nil when e does not name
// anything typed.
func TypeOf(u *ast.Unit, e ast.Expr) ast.Type {
	switch v := e.(type) {
	case *ast.IntLit:
		return intLitType(v.Text)
	case *ast.FloatLit:
		if strings.HasSuffix(v.Text, "f") || strings.HasSuffix(v.Text, "F") {
			return ast.Builtin(ast.Float)
		}
		return ast.Builtin(ast.Double)
	case *ast.CharLit:
		return ast.Builtin(ast.Char)
	case *ast.StringLit:
		return &ast.PointerType{Elem: ast.Builtin(ast.Char)}
	case *ast.BoolLit:
		return ast.Builtin(ast.Bool)
	case *ast.Ident:
		return identType(u, v)
	case *ast.ParenExpr:
		return TypeOf(u, v.X)
	case *ast.UnaryExpr:
		return unaryType(u, v)
	case *ast.BinaryExpr:
		return binaryType(u, v)
	case *ast.AssignExpr:
		return TypeOf(u, v.LHS)
	case *ast.CondExpr:
		then, els := TypeOf(u, v.Then), TypeOf(u, v.Else)
		if ast.IsArithmetic(then) && ast.IsArithmetic(els) {
			return arith(then, els)
		}
		return then
	case *ast.CallExpr:
		return callType(u, v)
	case *ast.IndexExpr:
		t := TypeOf(u, v.X)
		if ast.IsDependent(t) {
			return t
		}
		elem, _ := ast.ElemType(t)
		return elem
	case *ast.SectionExpr:
		return TypeOf(u, v.X)
	case *ast.MemberExpr:
		return memberType(u, v)
	case *ast.CastExpr:
		return v.Type
	case *ast.LambdaExpr:
		return &ast.LambdaType{Func: v.Func}
	}
	return nil
}

func intLitType(text string) ast.Type {
	lower := strings.TrimPrefix(strings.ToLower(text), "0x")
	suffix := lower[len(strings.TrimRight(lower, "ul")):]
	unsigned, long := strings.Contains(suffix, "u"), strings.Contains(suffix, "l")
	switch {
	case unsigned && long:
		return ast.Builtin(ast.ULong)
	case long:
		return ast.Builtin(ast.Long)
	case unsigned:
		return ast.Builtin(ast.UInt)
	}
	return ast.Builtin(ast.Int)
}

func identType(u *ast.Unit, id *ast.Ident) ast.Type {
	switch d := u.Decl(id.Decl).(type) {
	case *ast.VarDecl:
		if auto, ok := d.Type.(*ast.AutoType); ok && auto.Deduced == nil && d.Init != nil {
			auto.Deduced = TypeOf(u, d.Init)
		}
		return d.Type
	case *ast.FuncDecl:
		return &ast.FunctionType{Decl: id.Decl}
	case nil:
		if IsPredefined(id.Name) {
			return ast.Builtin(ast.Int)
		}
	}
	return nil
}

func unaryType(u *ast.Unit, e *ast.UnaryExpr) ast.Type {
	t := TypeOf(u, e.X)
	switch e.Op {
	case ast.OpNot:
		return ast.Builtin(ast.Bool)
	case ast.OpAddr:
		if t == nil {
			return nil
		}
		return &ast.PointerType{Elem: ast.Underlying(t)}
	case ast.OpDeref:
		if ast.IsDependent(t) {
			return t
		}
		elem, _ := ast.ElemType(t)
		return elem
	case ast.OpNeg, ast.OpPlus, ast.OpBitNot:
		return promote(t)
	}
	return t
}

func binaryType(u *ast.Unit, e *ast.BinaryExpr) ast.Type {
	if e.Op.IsComparison() {
		return ast.Builtin(ast.Bool)
	}
	x, y := TypeOf(u, e.X), TypeOf(u, e.Y)
	switch {
	case ast.IsDependent(x):
		return x
	case ast.IsDependent(y):
		return y
	}
	if e.Op == ast.OpShl || e.Op == ast.OpShr {
		return promote(x)
	}
	_, xp := ast.Underlying(x).(*ast.PointerType)
	_, yp := ast.Underlying(y).(*ast.PointerType)
	switch {
	case xp && yp && e.Op == ast.OpSub:
		return ast.Builtin(ast.Long)
	case xp:
		return ast.Underlying(x)
	case yp:
		return ast.Underlying(y)
	}
	if _, ok := ast.Underlying(x).(*ast.ArrayType); ok {
		elem, _ := ast.ElemType(x)
		return &ast.PointerType{Elem: elem}
	}
	return arith(x, y)
}

func callType(u *ast.Unit, e *ast.CallExpr) ast.Type {
	if e.Callee.IsValid() {
		return ast.Underlying(resultType(u, e.Callee))
	}
	// An uninstantiated template call inside a pattern, or an external
	// function.
	if id, ok := ast.StripParens(e.Fun).(*ast.Ident); ok {
		if td := u.Template(id.Decl); td != nil {
			if f := u.Func(td.Pattern); f != nil {
				return f.Result
			}
		}
	}
	return nil
}

func memberType(u *ast.Unit, e *ast.MemberExpr) ast.Type {
	t := TypeOf(u, e.X)
	if e.Arrow {
		t, _ = ast.ElemType(t)
	}
	rt, ok := ast.Underlying(t).(*ast.RecordType)
	if !ok {
		return nil
	}
	rec := u.Record(rt.Decl)
	if rec == nil {
		return nil
	}
	if i := rec.FieldIndex(e.Name); i >= 0 {
		return rec.Fields[i].Type
	}
	return nil
}

// promote applies the integer promotions.
func promote(t ast.Type) ast.Type {
	k, ok := ast.AsBuiltin(t)
	if !ok {
		return t
	}
	if k.Rank() == 1 {
		return ast.Builtin(ast.Int)
	}
	return ast.Builtin(k)
}

// arith applies the usual arithmetic conversions.
func arith(x, y ast.Type) ast.Type {
	kx, okx := ast.AsBuiltin(x)
	ky, oky := ast.AsBuiltin(y)
	switch {
	case !okx:
		return y
	case !oky:
		return x
	}
	k := kx
	if ky.Rank() > kx.Rank() {
		k = ky
	}
	if k.Rank() == 1 {
		k = ast.Int
	}
	return ast.Builtin(k)
}
