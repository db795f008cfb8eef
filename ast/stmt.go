// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ast

// Stmt is a statement.
type Stmt interface {
	Node
	stmtNode()
}

// CompoundStmt is a braced block with its own scope.
type CompoundStmt struct {
	Stmts []Stmt
	Scope ScopeHandle
	Span  Span
}

// SeqStmt is a flat statement sequence without braces or scope. It only
// appears in implementation subtrees.
type SeqStmt struct {
	Stmts []Stmt
	Span  Span
}

// DeclStmt declares one or more local entities.
type DeclStmt struct {
	Decls []DeclHandle
	Span  Span
}

// ExprStmt evaluates an expression.
type ExprStmt struct {
	X    Expr
	Span Span
}

// IfStmt is if/else. Else is nil without an else branch.
type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt
	Span Span
}

// ForStmt is a C for loop. Init is a *DeclStmt, an *ExprStmt, or nil.
type ForStmt struct {
	Init  Stmt
	Cond  Expr
	Post  Expr
	Body  Stmt
	Scope ScopeHandle
	Span  Span
}

// WhileStmt is a while loop.
type WhileStmt struct {
	Cond Expr
	Body Stmt
	Span Span
}

// DoStmt is a do/while loop.
type DoStmt struct {
	Body Stmt
	Cond Expr
	Span Span
}

// ReturnStmt returns from the enclosing function. X may be nil.
type ReturnStmt struct {
	X    Expr
	Span Span
}

// BreakStmt is break.
type BreakStmt struct{ Span Span }

// ContinueStmt is continue.
type ContinueStmt struct{ Span Span }

// NullStmt is a lone semicolon.
type NullStmt struct{ Span Span }

// AccStmt places an OpenACC directive in a statement list.
type AccStmt struct {
	Dir *Directive
}

// OMPStmt places an OpenMP directive in a statement list. It is created by
// lowering and never by the parser.
type OMPStmt struct {
	Dir  *OMPDirective
	Span Span
}

// PragmaStmt is a non-OpenACC pragma or preprocessor line kept verbatim.
type PragmaStmt struct {
	Text string
	Span Span
}

func (s *CompoundStmt) Pos() Span { return s.Span }
func (s *SeqStmt) Pos() Span      { return s.Span }
func (s *DeclStmt) Pos() Span     { return s.Span }
func (s *ExprStmt) Pos() Span     { return s.Span }
func (s *IfStmt) Pos() Span       { return s.Span }
func (s *ForStmt) Pos() Span      { return s.Span }
func (s *WhileStmt) Pos() Span    { return s.Span }
func (s *DoStmt) Pos() Span       { return s.Span }
func (s *ReturnStmt) Pos() Span   { return s.Span }
func (s *BreakStmt) Pos() Span    { return s.Span }
func (s *ContinueStmt) Pos() Span { return s.Span }
func (s *NullStmt) Pos() Span     { return s.Span }
func (s *AccStmt) Pos() Span      { return s.Dir.Span }
func (s *OMPStmt) Pos() Span      { return s.Span }
func (s *PragmaStmt) Pos() Span   { return s.Span }

func (*CompoundStmt) stmtNode() {}
func (*SeqStmt) stmtNode()      {}
func (*DeclStmt) stmtNode()     {}
func (*ExprStmt) stmtNode()     {}
func (*IfStmt) stmtNode()       {}
func (*ForStmt) stmtNode()      {}
func (*WhileStmt) stmtNode()    {}
func (*DoStmt) stmtNode()       {}
func (*ReturnStmt) stmtNode()   {}
func (*BreakStmt) stmtNode()    {}
func (*ContinueStmt) stmtNode() {}
func (*NullStmt) stmtNode()     {}
func (*AccStmt) stmtNode()      {}
func (*OMPStmt) stmtNode()      {}
func (*PragmaStmt) stmtNode()   {}
