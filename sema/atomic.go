// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package sema

import "github.com/gogpu/acc2omp/ast"

func (a *Analyzer) checkAtomics(f *ast.FuncDecl) {
	a.directives(f.Body, nil, func(d *ast.Directive, _ []*ast.Directive) {
		if d.Kind != ast.DirAtomic || d.Stmt == nil {
			return
		}
		if !ValidAtomic(d.Atomic, d.Stmt) {
			a.errorf(d.Stmt.Pos(), "statement form is not valid for '#pragma acc atomic %s'", d.Atomic)
		}
	})
}

// ValidAtomic reports whether s has a statement form the atomic sub-clause
// accepts.
func ValidAtomic(kind ast.AtomicKind, s ast.Stmt) bool {
	switch kind {
	case ast.AtomicRead:
		e, ok := exprOf(s)
		if !ok {
			return false
		}
		_, _, ok = readForm(e)
		return ok
	case ast.AtomicWrite:
		e, ok := exprOf(s)
		if !ok {
			return false
		}
		as, ok := e.(*ast.AssignExpr)
		return ok && as.Op == ast.OpAssign && isLValue(as.LHS)
	case ast.AtomicUpdate:
		e, ok := exprOf(s)
		if !ok {
			return false
		}
		_, ok = updateForm(e)
		return ok
	case ast.AtomicCapture:
		return captureForm(s)
	case ast.AtomicCompare:
		return compareForm(s)
	}
	return false
}

// exprOf returns the expression of an expression statement, looking
// through blocks of one statement.
func exprOf(s ast.Stmt) (ast.Expr, bool) {
	es, ok := ast.SoleStmt(s).(*ast.ExprStmt)
	if !ok {
		return nil, false
	}
	return ast.StripParens(es.X), true
}

func isLValue(e ast.Expr) bool {
	switch v := ast.StripParens(e).(type) {
	case *ast.Ident:
		return v.Decl.IsValid()
	case *ast.MemberExpr, *ast.IndexExpr:
		return true
	case *ast.UnaryExpr:
		return v.Op == ast.OpDeref
	}
	return false
}

func sameLValue(x, y ast.Expr) bool {
	return isLValue(x) && isLValue(y) && StorageKey(x) == StorageKey(y)
}

// readForm matches "v = x;".
func readForm(e ast.Expr) (v, x ast.Expr, ok bool) {
	as, isAssign := e.(*ast.AssignExpr)
	if !isAssign || as.Op != ast.OpAssign || !isLValue(as.LHS) || !isLValue(as.RHS) {
		return nil, nil, false
	}
	return as.LHS, ast.StripParens(as.RHS), true
}

var updateOps = map[ast.Op]bool{
	ast.OpAdd: true, ast.OpSub: true, ast.OpMul: true, ast.OpDiv: true,
	ast.OpAnd: true, ast.OpOr: true, ast.OpXor: true, ast.OpShl: true, ast.OpShr: true,
}

// updateForm matches "x++", "++x", "x--", "--x", "x op= e", "x = x op e",
// and "x = e op x", returning x.
func updateForm(e ast.Expr) (ast.Expr, bool) {
	switch v := e.(type) {
	case *ast.UnaryExpr:
		if (v.Op == ast.OpInc || v.Op == ast.OpDec) && isLValue(v.X) {
			return v.X, true
		}
	case *ast.AssignExpr:
		if !isLValue(v.LHS) {
			return nil, false
		}
		if v.Op.IsCompoundAssign() {
			return v.LHS, updateOps[v.Op.BinaryOf()]
		}
		bin, ok := ast.StripParens(v.RHS).(*ast.BinaryExpr)
		if v.Op == ast.OpAssign && ok && updateOps[bin.Op] &&
			(sameLValue(v.LHS, bin.X) || sameLValue(v.LHS, bin.Y)) {
			return v.LHS, true
		}
	}
	return nil, false
}

// captureForm matches "v = x++;", "v = x op= e;", and the two-statement
// blocks "{ v = x; x op= e; }" and "{ x op= e; v = x; }".
func captureForm(s ast.Stmt) bool {
	if e, ok := exprOf(s); ok {
		as, ok := e.(*ast.AssignExpr)
		if !ok || as.Op != ast.OpAssign || !isLValue(as.LHS) {
			return false
		}
		switch rhs := ast.StripParens(as.RHS).(type) {
		case *ast.UnaryExpr:
			_, ok := updateForm(rhs)
			return ok
		case *ast.AssignExpr:
			_, ok := updateForm(rhs)
			return ok && rhs.Op.IsCompoundAssign()
		}
		return false
	}
	block, ok := s.(*ast.CompoundStmt)
	if !ok || len(block.Stmts) != 2 {
		return false
	}
	first, ok1 := exprOf(block.Stmts[0])
	second, ok2 := exprOf(block.Stmts[1])
	if !ok1 || !ok2 {
		return false
	}
	if _, x, ok := readForm(first); ok {
		if y, ok := updateForm(second); ok && sameLValue(x, y) {
			return true
		}
	}
	if y, ok := updateForm(first); ok {
		if _, x, ok := readForm(second); ok && sameLValue(x, y) {
			return true
		}
	}
	return false
}

// compareForm matches "if (x == e) { x = d; }" and "x = x < e ? e : x"
// (or with >).
func compareForm(s ast.Stmt) bool {
	if ifs, ok := ast.SoleStmt(s).(*ast.IfStmt); ok {
		if ifs.Else != nil {
			return false
		}
		cond, ok := ast.StripParens(ifs.Cond).(*ast.BinaryExpr)
		if !ok || cond.Op != ast.OpEq || !isLValue(cond.X) {
			return false
		}
		e, ok := exprOf(ifs.Then)
		if !ok {
			return false
		}
		as, ok := e.(*ast.AssignExpr)
		return ok && as.Op == ast.OpAssign && sameLValue(as.LHS, cond.X)
	}
	e, ok := exprOf(s)
	if !ok {
		return false
	}
	as, ok := e.(*ast.AssignExpr)
	if !ok || as.Op != ast.OpAssign {
		return false
	}
	ce, ok := ast.StripParens(as.RHS).(*ast.CondExpr)
	if !ok {
		return false
	}
	cond, ok := ast.StripParens(ce.Cond).(*ast.BinaryExpr)
	if !ok || (cond.Op != ast.OpLt && cond.Op != ast.OpGt) {
		return false
	}
	x := as.LHS
	return sameLValue(cond.X, x) && sameLValue(ce.Else, x) &&
		StorageKey(ce.Then) == StorageKey(cond.Y)
}
