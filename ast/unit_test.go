// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeLookup(t *testing.T) {
	u := NewUnit("t.c", "")
	g := u.Add(&VarDecl{Name: "x", Type: Builtin(Int), Scope: FileScope})
	u.Declare(FileScope, "x", g)

	fn := u.NewScope(ScopeFunction, FileScope, InvalidDecl)
	blk := u.NewScope(ScopeBlock, fn, InvalidDecl)
	l := u.Add(&VarDecl{Name: "x", Type: Builtin(Float), Scope: blk})
	u.Declare(blk, "x", l)

	assert.Equal(t, l, u.Lookup(blk, "x"))
	assert.Equal(t, g, u.Lookup(fn, "x"))
	assert.Equal(t, InvalidDecl, u.Lookup(blk, "y"))
	assert.Equal(t, InvalidDecl, u.LookupLocal(fn, "x"))

	assert.True(t, u.Encloses(fn, blk))
	assert.False(t, u.Encloses(blk, fn))
	assert.True(t, u.IsFileScope(FileScope))
	assert.False(t, u.IsFileScope(blk))
}

func TestRedeclarationChain(t *testing.T) {
	u := NewUnit("t.c", "")
	newFunc := func(body bool) DeclHandle {
		f := &FuncDecl{Name: "f", Result: Builtin(Void), Prev: InvalidDecl, Next: InvalidDecl, Template: InvalidDecl}
		if body {
			f.Body = &CompoundStmt{}
		}
		return u.Add(f)
	}
	a := newFunc(false)
	b := newFunc(true)
	c := newFunc(false)
	u.Link(a, b)
	u.Link(b, c)

	for _, h := range []DeclHandle{a, b, c} {
		assert.Equal(t, a, u.First(h))
		assert.Equal(t, c, u.MostRecent(h))
	}
	assert.Equal(t, []DeclHandle{a, b, c}, u.Redecls(c))
	assert.Equal(t, b, u.Definition(a))
	require.Len(t, u.Functions(), 1)
	assert.Equal(t, b, u.Functions()[0])
}

func TestInspectSkipsLambdaBodies(t *testing.T) {
	u := NewUnit("t.c", "")
	lam := u.Add(&FuncDecl{
		Name: "operator()", Lambda: true, Prev: InvalidDecl, Next: InvalidDecl, Template: InvalidDecl,
		Body: &CompoundStmt{Stmts: []Stmt{&ExprStmt{X: &Ident{Name: "hidden", Decl: InvalidDecl}}}},
	})
	body := &CompoundStmt{Stmts: []Stmt{
		&ExprStmt{X: &CallExpr{Fun: &Ident{Name: "g"}, Args: []Expr{&LambdaExpr{Func: lam}}}},
	}}

	var names []string
	u.Inspect(body, func(n Node) bool {
		if id, ok := n.(*Ident); ok {
			names = append(names, id.Name)
		}
		return true
	})
	assert.Equal(t, []string{"g"}, names)
}

func TestLoopVar(t *testing.T) {
	u := NewUnit("t.c", "")
	i := u.Add(&VarDecl{Name: "i", Type: Builtin(Int)})
	outer := &ForStmt{Init: &ExprStmt{X: &AssignExpr{Op: OpAssign, LHS: &Ident{Name: "i", Decl: i}, RHS: &IntLit{Text: "0"}}}}
	inner := &ForStmt{Init: &DeclStmt{Decls: []DeclHandle{i}}}

	assert.Equal(t, i, u.LoopVar(outer))
	assert.False(t, LoopVarDeclaredInInit(outer))
	assert.Equal(t, i, u.LoopVar(inner))
	assert.True(t, LoopVarDeclaredInInit(inner))
}

func TestDirectiveLevels(t *testing.T) {
	d := &Directive{Kind: DirLoop}
	d.AddClause(&Clause{Kind: ClauseVector})
	d.AddClause(&Clause{Kind: ClauseGang, Provenance: ProvImplicit})

	assert.Equal(t, []Level{LevelGang, LevelVector}, d.PartitionLevels())
	assert.Equal(t, LevelGang, d.MaxLevel())
	assert.True(t, d.Has(ClauseGang))
	assert.False(t, d.HasExplicit(ClauseGang))
	assert.Equal(t, "#pragma acc loop", d.Spelling())

	r := &Directive{Kind: DirRoutine, Clauses: []*Clause{{Kind: ClauseWorker}}}
	lvl, ok := r.RoutineLevel()
	require.True(t, ok)
	assert.Equal(t, LevelWorker, lvl)
}

func TestClauseName(t *testing.T) {
	c := &Clause{Kind: ClauseCopyIn, Spelling: "pcopyin"}
	assert.Equal(t, "pcopyin", c.Name())
	c.Spelling = ""
	assert.Equal(t, "copyin", c.Name())

	op, ok := ParseReductionOp("max")
	require.True(t, ok)
	assert.Equal(t, RedMax, op)
	_, ok = ParseReductionOp("-")
	assert.False(t, ok)
}
