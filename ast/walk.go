// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ast

// Inspect traverses the tree rooted at n in depth-first order, calling f for
// every statement, expression, and local variable declaration. When f
// returns false the children of that node are skipped.
//
// Directive statements are entered through their associated statement only;
// clause arguments, effect, and implementation subtrees are not visited.
// Lambda bodies are not entered: f sees the *LambdaExpr and may recurse
// through u.Func(lambda.Func).Body itself.
func (u *Unit) Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch v := n.(type) {
	case *CompoundStmt:
		for _, s := range v.Stmts {
			u.Inspect(s, f)
		}
	case *SeqStmt:
		for _, s := range v.Stmts {
			u.Inspect(s, f)
		}
	case *DeclStmt:
		for _, h := range v.Decls {
			if vd := u.Var(h); vd != nil {
				u.Inspect(vd, f)
			}
		}
	case *VarDecl:
		if v.Init != nil {
			u.Inspect(v.Init, f)
		}
	case *ExprStmt:
		u.Inspect(v.X, f)
	case *IfStmt:
		u.Inspect(v.Cond, f)
		u.Inspect(v.Then, f)
		if v.Else != nil {
			u.Inspect(v.Else, f)
		}
	case *ForStmt:
		if v.Init != nil {
			u.Inspect(v.Init, f)
		}
		if v.Cond != nil {
			u.Inspect(v.Cond, f)
		}
		if v.Post != nil {
			u.Inspect(v.Post, f)
		}
		u.Inspect(v.Body, f)
	case *WhileStmt:
		u.Inspect(v.Cond, f)
		u.Inspect(v.Body, f)
	case *DoStmt:
		u.Inspect(v.Body, f)
		u.Inspect(v.Cond, f)
	case *ReturnStmt:
		if v.X != nil {
			u.Inspect(v.X, f)
		}
	case *AccStmt:
		if v.Dir.Stmt != nil {
			u.Inspect(v.Dir.Stmt, f)
		}
	case *OMPStmt:
		if v.Dir.Stmt != nil {
			u.Inspect(v.Dir.Stmt, f)
		}
	case *ParenExpr:
		u.Inspect(v.X, f)
	case *UnaryExpr:
		u.Inspect(v.X, f)
	case *BinaryExpr:
		u.Inspect(v.X, f)
		u.Inspect(v.Y, f)
	case *AssignExpr:
		u.Inspect(v.LHS, f)
		u.Inspect(v.RHS, f)
	case *CondExpr:
		u.Inspect(v.Cond, f)
		u.Inspect(v.Then, f)
		u.Inspect(v.Else, f)
	case *CallExpr:
		u.Inspect(v.Fun, f)
		for _, a := range v.Args {
			u.Inspect(a, f)
		}
	case *IndexExpr:
		u.Inspect(v.X, f)
		u.Inspect(v.Index, f)
	case *SectionExpr:
		u.Inspect(v.X, f)
		if v.Lo != nil {
			u.Inspect(v.Lo, f)
		}
		if v.Len != nil {
			u.Inspect(v.Len, f)
		}
	case *MemberExpr:
		u.Inspect(v.X, f)
	case *CastExpr:
		u.Inspect(v.X, f)
	}
}

// LoopVar returns the control variable of a canonical for loop: the
// variable assigned or declared by its init statement.
func (u *Unit) LoopVar(loop *ForStmt) DeclHandle {
	switch init := loop.Init.(type) {
	case *DeclStmt:
		if len(init.Decls) > 0 {
			return init.Decls[0]
		}
	case *ExprStmt:
		if as, ok := StripParens(init.X).(*AssignExpr); ok {
			if id, ok := StripParens(as.LHS).(*Ident); ok {
				return id.Decl
			}
		}
	}
	return InvalidDecl
}

// LoopVarDeclaredInInit reports whether the control variable of loop is
// declared by the loop itself.
func LoopVarDeclaredInInit(loop *ForStmt) bool {
	_, ok := loop.Init.(*DeclStmt)
	return ok
}

// SoleStmt unwraps blocks holding exactly one statement.
func SoleStmt(s Stmt) Stmt {
	for {
		c, ok := s.(*CompoundStmt)
		if !ok || len(c.Stmts) != 1 {
			return s
		}
		s = c.Stmts[0]
	}
}

// LoopNest returns loop and the loops perfectly nested in it, outermost
// first, stopping at depth n or at the first body that is not a lone for
// statement.
func LoopNest(loop *ForStmt, n int64) []*ForStmt {
	nest := []*ForStmt{loop}
	for cur := loop; int64(len(nest)) < n; {
		next, ok := SoleStmt(cur.Body).(*ForStmt)
		if !ok {
			break
		}
		nest = append(nest, next)
		cur = next
	}
	return nest
}
