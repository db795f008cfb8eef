// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildLoop returns "{ int t = i; a[i] = t; }" inside "for (i = 0; i < n; i++)",
// where i and a live in an outer scope.
func buildLoop(u *Unit) (loop *ForStmt, i, a DeclHandle, outer ScopeHandle) {
	outer = u.NewScope(ScopeBlock, FileScope, InvalidDecl)
	i = u.Add(&VarDecl{Name: "i", Type: Builtin(Int), Scope: outer})
	a = u.Add(&VarDecl{Name: "a", Type: &ArrayType{Elem: Builtin(Int), Len: 8}, Scope: outer})
	u.Declare(outer, "i", i)
	u.Declare(outer, "a", a)

	forScope := u.NewScope(ScopeBlock, outer, InvalidDecl)
	bodyScope := u.NewScope(ScopeBlock, forScope, InvalidDecl)
	tmp := u.Add(&VarDecl{Name: "t", Type: Builtin(Int), Scope: bodyScope, Init: &Ident{Name: "i", Decl: i}})
	u.Declare(bodyScope, "t", tmp)

	ref := func(name string, h DeclHandle) *Ident { return &Ident{Name: name, Decl: h} }
	loop = &ForStmt{
		Init:  &ExprStmt{X: &AssignExpr{Op: OpAssign, LHS: ref("i", i), RHS: &IntLit{Text: "0"}}},
		Cond:  &BinaryExpr{Op: OpLt, X: ref("i", i), Y: &IntLit{Text: "8"}},
		Post:  &UnaryExpr{Op: OpInc, X: ref("i", i), Postfix: true},
		Scope: forScope,
		Body: &CompoundStmt{Scope: bodyScope, Stmts: []Stmt{
			&DeclStmt{Decls: []DeclHandle{tmp}},
			&ExprStmt{X: &AssignExpr{Op: OpAssign, LHS: &IndexExpr{X: ref("a", a), Index: ref("i", i)}, RHS: ref("t", tmp)}},
		}},
	}
	return loop, i, a, outer
}

func TestRebinderRedirectsReferences(t *testing.T) {
	u := NewUnit("t.c", "")
	loop, i, a, outer := buildLoop(u)

	shadowScope := u.NewScope(ScopeBlock, outer, InvalidDecl)
	shadow := u.Add(&VarDecl{Name: "i", Type: Builtin(Int), Scope: shadowScope})
	u.Declare(shadowScope, "i", shadow)

	r := NewRebinder(u)
	r.MapDecl(i, shadow)
	r.MapScope(outer, shadowScope)
	clone, ok := r.Stmt(loop).(*ForStmt)
	require.True(t, ok)
	require.NotSame(t, loop, clone)

	var refs []DeclHandle
	u.Inspect(clone, func(n Node) bool {
		if id, ok := n.(*Ident); ok && id.Name == "i" {
			refs = append(refs, id.Decl)
		}
		return true
	})
	require.NotEmpty(t, refs)
	for _, h := range refs {
		assert.Equal(t, shadow, h)
	}

	// The original is untouched.
	assert.Equal(t, i, u.LoopVar(loop))
	assert.Equal(t, shadow, u.LoopVar(clone))

	// Locals inside the region are fresh and live in the copied scopes.
	body := clone.Body.(*CompoundStmt)
	tmp := body.Stmts[0].(*DeclStmt).Decls[0]
	orig := loop.Body.(*CompoundStmt).Stmts[0].(*DeclStmt).Decls[0]
	assert.NotEqual(t, orig, tmp)
	assert.Equal(t, body.Scope, u.Var(tmp).Scope)
	assert.True(t, u.Encloses(shadowScope, body.Scope))
	assert.Equal(t, tmp, u.LookupLocal(body.Scope, "t"))

	// Declarations outside the region keep their identity.
	idx := body.Stmts[1].(*ExprStmt).X.(*AssignExpr).LHS.(*IndexExpr)
	assert.Equal(t, a, idx.X.(*Ident).Decl)
}

func TestRebinderPreservesSharing(t *testing.T) {
	u := NewUnit("t.c", "")
	loop, _, _, _ := buildLoop(u)

	inner := &Directive{Kind: DirLoop, Stmt: loop}
	inner.Impl = &OMPStmt{Dir: &OMPDirective{Kind: OMPDistribute, Stmt: loop}}

	r := NewRebinder(u)
	c := r.Directive(inner)
	impl := c.Impl.(*OMPStmt)
	assert.Same(t, c.Stmt, impl.Dir.Stmt)
	assert.NotSame(t, inner.Stmt, c.Stmt)
}

func TestRebinderInstantiatesTemplateFunction(t *testing.T) {
	u := NewUnit("t.c", "")
	param := &TemplateParamType{Name: "T", Index: 0}
	fh := u.Add(&FuncDecl{Name: "id", Prev: InvalidDecl, Next: InvalidDecl, Template: 7})
	f := u.Func(fh)
	f.BodyScope = u.NewScope(ScopeFunction, FileScope, fh)
	p := u.Add(&VarDecl{Name: "x", Type: param, Param: true, Scope: f.BodyScope})
	u.Declare(f.BodyScope, "x", p)
	f.Params = []DeclHandle{p}
	f.Result = param
	f.Body = &CompoundStmt{Scope: f.BodyScope, Stmts: []Stmt{&ReturnStmt{X: &Ident{Name: "x", Decl: p}}}}

	r := NewRebinder(u)
	r.Args = []Type{Builtin(Float)}
	ih := r.Func(fh, FileScope)
	inst := u.Func(ih)
	require.NotNil(t, inst)
	assert.True(t, Equal(inst.Result, Builtin(Float)))
	require.Len(t, inst.Params, 1)
	assert.True(t, Equal(u.Var(inst.Params[0]).Type, Builtin(Float)))
	ret := inst.Body.Stmts[0].(*ReturnStmt)
	assert.Equal(t, inst.Params[0], ret.X.(*Ident).Decl)
	assert.Equal(t, inst.BodyScope, u.Var(inst.Params[0]).Scope)
}
