// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ast

import "fmt"

// Expr is an expression.
type Expr interface {
	Node
	exprNode()
}

// Op is a unary, binary, or assignment operator.
type Op uint8

const (
	OpInvalid Op = iota

	// Binary
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpLAnd
	OpLOr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// Unary
	OpNeg
	OpPlus
	OpNot
	OpBitNot
	OpAddr
	OpDeref
	OpInc
	OpDec

	// Assignment
	OpAssign
	OpAddAssign
	OpSubAssign
	OpMulAssign
	OpDivAssign
	OpRemAssign
	OpAndAssign
	OpOrAssign
	OpXorAssign
	OpShlAssign
	OpShrAssign
)

var opSpellings = [...]string{
	OpInvalid:   "<invalid>",
	OpAdd:       "+",
	OpSub:       "-",
	OpMul:       "*",
	OpDiv:       "/",
	OpRem:       "%",
	OpAnd:       "&",
	OpOr:        "|",
	OpXor:       "^",
	OpShl:       "<<",
	OpShr:       ">>",
	OpLAnd:      "&&",
	OpLOr:       "||",
	OpEq:        "==",
	OpNe:        "!=",
	OpLt:        "<",
	OpLe:        "<=",
	OpGt:        ">",
	OpGe:        ">=",
	OpNeg:       "-",
	OpPlus:      "+",
	OpNot:       "!",
	OpBitNot:    "~",
	OpAddr:      "&",
	OpDeref:     "*",
	OpInc:       "++",
	OpDec:       "--",
	OpAssign:    "=",
	OpAddAssign: "+=",
	OpSubAssign: "-=",
	OpMulAssign: "*=",
	OpDivAssign: "/=",
	OpRemAssign: "%=",
	OpAndAssign: "&=",
	OpOrAssign:  "|=",
	OpXorAssign: "^=",
	OpShlAssign: "<<=",
	OpShrAssign: ">>=",
}

func (o Op) String() string {
	if int(o) < len(opSpellings) {
		return opSpellings[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// IsCompoundAssign reports whether o is "op=".
func (o Op) IsCompoundAssign() bool { return o > OpAssign && o <= OpShrAssign }

// BinaryOf returns the binary operator of a compound assignment.
func (o Op) BinaryOf() Op {
	switch o {
	case OpAddAssign:
		return OpAdd
	case OpSubAssign:
		return OpSub
	case OpMulAssign:
		return OpMul
	case OpDivAssign:
		return OpDiv
	case OpRemAssign:
		return OpRem
	case OpAndAssign:
		return OpAnd
	case OpOrAssign:
		return OpOr
	case OpXorAssign:
		return OpXor
	case OpShlAssign:
		return OpShl
	case OpShrAssign:
		return OpShr
	}
	return OpInvalid
}

// IsComparison reports whether o yields a boolean from two operands.
func (o Op) IsComparison() bool {
	switch o {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpLAnd, OpLOr:
		return true
	}
	return false
}

// IntLit is an integer literal, kept as written.
type IntLit struct {
	Text string
	Span Span
}

// FloatLit is a floating literal, kept as written.
type FloatLit struct {
	Text string
	Span Span
}

// CharLit is a character literal including its quotes.
type CharLit struct {
	Text string
	Span Span
}

// StringLit is a string literal including its quotes.
type StringLit struct {
	Text string
	Span Span
}

// BoolLit is true or false.
type BoolLit struct {
	Value bool
	Span  Span
}

// Ident names a declaration. Decl is InvalidDecl when the name did not
// resolve.
type Ident struct {
	Name string
	Decl DeclHandle
	Span Span
}

// ParenExpr is a parenthesized expression.
type ParenExpr struct {
	X    Expr
	Span Span
}

// UnaryExpr is a prefix or postfix unary operation.
type UnaryExpr struct {
	Op      Op
	X       Expr
	Postfix bool
	Span    Span
}

// BinaryExpr is a binary operation.
type BinaryExpr struct {
	Op   Op
	X    Expr
	Y    Expr
	Span Span
}

// AssignExpr is plain or compound assignment.
type AssignExpr struct {
	Op   Op
	LHS  Expr
	RHS  Expr
	Span Span
}

// CondExpr is c ? a : b.
type CondExpr struct {
	Cond Expr
	Then Expr
	Else Expr
	Span Span
}

// CallExpr is a function call. Callee is the function actually invoked once
// resolved: a plain function, a template instantiation, or a lambda call
// operator.
type CallExpr struct {
	Fun          Expr
	TemplateArgs []Type
	Args         []Expr
	Callee       DeclHandle
	Span         Span
}

// IndexExpr is x[i].
type IndexExpr struct {
	X     Expr
	Index Expr
	Span  Span
}

// SectionExpr is an array section x[lo:len]. Either bound may be nil.
type SectionExpr struct {
	X    Expr
	Lo   Expr
	Len  Expr
	Span Span
}

// MemberExpr is x.name or x->name.
type MemberExpr struct {
	X     Expr
	Name  string
	Arrow bool
	Span  Span
}

// CastExpr is (T)x.
type CastExpr struct {
	Type Type
	X    Expr
	Span Span
}

// LambdaExpr is [capture](params) { body }. Func is the call operator.
type LambdaExpr struct {
	Capture string
	Func    DeclHandle
	Span    Span
}

func (e *IntLit) Pos() Span      { return e.Span }
func (e *FloatLit) Pos() Span    { return e.Span }
func (e *CharLit) Pos() Span     { return e.Span }
func (e *StringLit) Pos() Span   { return e.Span }
func (e *BoolLit) Pos() Span     { return e.Span }
func (e *Ident) Pos() Span       { return e.Span }
func (e *ParenExpr) Pos() Span   { return e.Span }
func (e *UnaryExpr) Pos() Span   { return e.Span }
func (e *BinaryExpr) Pos() Span  { return e.Span }
func (e *AssignExpr) Pos() Span  { return e.Span }
func (e *CondExpr) Pos() Span    { return e.Span }
func (e *CallExpr) Pos() Span    { return e.Span }
func (e *IndexExpr) Pos() Span   { return e.Span }
func (e *SectionExpr) Pos() Span { return e.Span }
func (e *MemberExpr) Pos() Span  { return e.Span }
func (e *CastExpr) Pos() Span    { return e.Span }
func (e *LambdaExpr) Pos() Span  { return e.Span }

func (*IntLit) exprNode()      {}
func (*FloatLit) exprNode()    {}
func (*CharLit) exprNode()     {}
func (*StringLit) exprNode()   {}
func (*BoolLit) exprNode()     {}
func (*Ident) exprNode()       {}
func (*ParenExpr) exprNode()   {}
func (*UnaryExpr) exprNode()   {}
func (*BinaryExpr) exprNode()  {}
func (*AssignExpr) exprNode()  {}
func (*CondExpr) exprNode()    {}
func (*CallExpr) exprNode()    {}
func (*IndexExpr) exprNode()   {}
func (*SectionExpr) exprNode() {}
func (*MemberExpr) exprNode()  {}
func (*CastExpr) exprNode()    {}
func (*LambdaExpr) exprNode()  {}

// StripParens removes any number of enclosing parentheses.
func StripParens(e Expr) Expr {
	for {
		p, ok := e.(*ParenExpr)
		if !ok {
			return e
		}
		e = p.X
	}
}

// BaseIdent returns the variable at the root of a storage expression
// (x, x.a, x[i], x[lo:n], p->f), or nil.
func BaseIdent(e Expr) *Ident {
	for {
		switch v := StripParens(e).(type) {
		case *Ident:
			return v
		case *MemberExpr:
			e = v.X
		case *IndexExpr:
			e = v.X
		case *SectionExpr:
			e = v.X
		default:
			return nil
		}
	}
}
