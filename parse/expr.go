// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package parse

import (
	"strings"

	"github.com/gogpu/acc2omp/ast"
)

// binaryOps maps binary operator tokens to their operator and precedence.
var binaryOps = map[TokenKind]struct {
	op   ast.Op
	prec int
}{
	TokenPipePipe:       {ast.OpLOr, 1},
	TokenAmpAmp:         {ast.OpLAnd, 2},
	TokenPipe:           {ast.OpOr, 3},
	TokenCaret:          {ast.OpXor, 4},
	TokenAmpersand:      {ast.OpAnd, 5},
	TokenEqualEqual:     {ast.OpEq, 6},
	TokenBangEqual:      {ast.OpNe, 6},
	TokenLess:           {ast.OpLt, 7},
	TokenLessEqual:      {ast.OpLe, 7},
	TokenGreater:        {ast.OpGt, 7},
	TokenGreaterEqual:   {ast.OpGe, 7},
	TokenLessLess:       {ast.OpShl, 8},
	TokenGreaterGreater: {ast.OpShr, 8},
	TokenPlus:           {ast.OpAdd, 9},
	TokenMinus:          {ast.OpSub, 9},
	TokenStar:           {ast.OpMul, 10},
	TokenSlash:          {ast.OpDiv, 10},
	TokenPercent:        {ast.OpRem, 10},
}

var assignOps = map[TokenKind]ast.Op{
	TokenEqual:               ast.OpAssign,
	TokenPlusEqual:           ast.OpAddAssign,
	TokenMinusEqual:          ast.OpSubAssign,
	TokenStarEqual:           ast.OpMulAssign,
	TokenSlashEqual:          ast.OpDivAssign,
	TokenPercentEqual:        ast.OpRemAssign,
	TokenAmpEqual:            ast.OpAndAssign,
	TokenPipeEqual:           ast.OpOrAssign,
	TokenCaretEqual:          ast.OpXorAssign,
	TokenLessLessEqual:       ast.OpShlAssign,
	TokenGreaterGreaterEqual: ast.OpShrAssign,
}

var prefixOps = map[TokenKind]ast.Op{
	TokenMinus:      ast.OpNeg,
	TokenPlus:       ast.OpPlus,
	TokenBang:       ast.OpNot,
	TokenTilde:      ast.OpBitNot,
	TokenAmpersand:  ast.OpAddr,
	TokenStar:       ast.OpDeref,
	TokenPlusPlus:   ast.OpInc,
	TokenMinusMinus: ast.OpDec,
}

// expression parses a full expression. The comma operator is not part of
// the supported language.
func (p *Parser) expression() (ast.Expr, *ParseError) {
	return p.assignment()
}

func (p *Parser) assignment() (ast.Expr, *ParseError) {
	lhs, err := p.conditional()
	if err != nil {
		return nil, err
	}
	if op, ok := assignOps[p.peek().Kind]; ok {
		p.advance()
		rhs, err := p.assignment()
		if err != nil {
			return nil, err
		}
		return &ast.AssignExpr{Op: op, LHS: lhs, RHS: rhs, Span: lhs.Pos().Join(rhs.Pos())}, nil
	}
	return lhs, nil
}

func (p *Parser) conditional() (ast.Expr, *ParseError) {
	cond, err := p.binary(1)
	if err != nil {
		return nil, err
	}
	if !p.match(TokenQuestion) {
		return cond, nil
	}
	then, err := p.assignment()
	if err != nil {
		return nil, err
	}
	if err := p.expectErr(TokenColon); err != nil {
		return nil, err
	}
	els, err := p.conditional()
	if err != nil {
		return nil, err
	}
	return &ast.CondExpr{Cond: cond, Then: then, Else: els, Span: cond.Pos().Join(els.Pos())}, nil
}

// binary parses left-associative binary operators of at least minPrec.
func (p *Parser) binary(minPrec int) (ast.Expr, *ParseError) {
	x, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		info, ok := binaryOps[p.peek().Kind]
		if !ok || info.prec < minPrec {
			return x, nil
		}
		p.advance()
		y, err := p.binary(info.prec + 1)
		if err != nil {
			return nil, err
		}
		x = &ast.BinaryExpr{Op: info.op, X: x, Y: y, Span: x.Pos().Join(y.Pos())}
	}
}

func (p *Parser) unary() (ast.Expr, *ParseError) {
	tok := p.peek()
	if op, ok := prefixOps[tok.Kind]; ok {
		p.advance()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: op, X: x, Span: tok.Span().Join(x.Pos())}, nil
	}
	if tok.Kind == TokenLeftParen && p.isTypeToken(p.peekAt(1)) {
		p.advance()
		spec, err := p.declSpecifiers()
		if err != nil {
			return nil, err
		}
		d, err := p.declarator(spec.typ, false)
		if err != nil {
			return nil, err
		}
		if err := p.expectErr(TokenRightParen); err != nil {
			return nil, err
		}
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.CastExpr{Type: d.typ, X: x, Span: tok.Span().Join(x.Pos())}, nil
	}
	return p.postfix()
}

func (p *Parser) postfix() (ast.Expr, *ParseError) {
	x, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.match(TokenLeftParen):
			call := &ast.CallExpr{Fun: x, Callee: p.calleeOf(x)}
			if err := p.callArgs(call); err != nil {
				return nil, err
			}
			x = call
		case p.check(TokenLeftBracket):
			x, err = p.subscript(x)
			if err != nil {
				return nil, err
			}
		case p.check(TokenDot) || p.check(TokenArrow):
			arrow := p.advance().Kind == TokenArrow
			name := p.peek()
			if err := p.expectErr(TokenIdent); err != nil {
				return nil, err
			}
			x = &ast.MemberExpr{X: x, Name: name.Lexeme, Arrow: arrow, Span: x.Pos().Join(name.Span())}
		case p.check(TokenPlusPlus) || p.check(TokenMinusMinus):
			tok := p.advance()
			op := ast.OpInc
			if tok.Kind == TokenMinusMinus {
				op = ast.OpDec
			}
			x = &ast.UnaryExpr{Op: op, X: x, Postfix: true, Span: x.Pos().Join(tok.Span())}
		default:
			return x, nil
		}
	}
}

// subscript parses x[i], or x[lo:len] in clause argument lists.
func (p *Parser) subscript(x ast.Expr) (ast.Expr, *ParseError) {
	open := p.advance()
	var lo ast.Expr
	if !p.check(TokenColon) {
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		lo = e
	}
	if p.check(TokenColon) {
		colon := p.advance()
		if !p.allowSection {
			return nil, p.errorAt(colon, "array sections are only allowed in OpenACC clauses")
		}
		sec := &ast.SectionExpr{X: x, Lo: lo}
		if !p.check(TokenRightBracket) {
			n, err := p.expression()
			if err != nil {
				return nil, err
			}
			sec.Len = n
		}
		if err := p.expectErr(TokenRightBracket); err != nil {
			return nil, err
		}
		sec.Span = x.Pos().Join(p.previous().Span())
		return sec, nil
	}
	if lo == nil {
		return nil, p.errorAt(open, "expected expression")
	}
	if err := p.expectErr(TokenRightBracket); err != nil {
		return nil, err
	}
	return &ast.IndexExpr{X: x, Index: lo, Span: x.Pos().Join(p.previous().Span())}, nil
}

// callArgs parses the arguments after '(' through ')'.
func (p *Parser) callArgs(call *ast.CallExpr) *ParseError {
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		arg, err := p.assignment()
		if err != nil {
			return err
		}
		call.Args = append(call.Args, arg)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return err
	}
	call.Span = call.Fun.Pos().Join(p.previous().Span())
	return nil
}

// calleeOf resolves the function a call expression invokes when that is
// known from the callee expression alone.
func (p *Parser) calleeOf(fun ast.Expr) ast.DeclHandle {
	id, ok := ast.StripParens(fun).(*ast.Ident)
	if !ok {
		if l, ok := ast.StripParens(fun).(*ast.LambdaExpr); ok {
			return l.Func
		}
		return ast.InvalidDecl
	}
	switch d := p.unit.Decl(id.Decl).(type) {
	case *ast.FuncDecl:
		return id.Decl
	case *ast.VarDecl:
		if auto, ok := d.Type.(*ast.AutoType); ok {
			if lt, ok := auto.Deduced.(*ast.LambdaType); ok {
				return lt.Func
			}
		}
	}
	return ast.InvalidDecl
}

func (p *Parser) primary() (ast.Expr, *ParseError) {
	tok := p.peek()
	switch tok.Kind {
	case TokenIntLiteral:
		p.advance()
		return &ast.IntLit{Text: tok.Lexeme, Span: tok.Span()}, nil
	case TokenFloatLiteral:
		p.advance()
		return &ast.FloatLit{Text: tok.Lexeme, Span: tok.Span()}, nil
	case TokenCharLiteral:
		p.advance()
		return &ast.CharLit{Text: tok.Lexeme, Span: tok.Span()}, nil
	case TokenStringLiteral:
		p.advance()
		return &ast.StringLit{Text: tok.Lexeme, Span: tok.Span()}, nil
	case TokenTrue, TokenFalse:
		p.advance()
		return &ast.BoolLit{Value: tok.Kind == TokenTrue, Span: tok.Span()}, nil
	case TokenIdent:
		p.advance()
		id := &ast.Ident{Name: tok.Lexeme, Decl: p.unit.Lookup(p.scope, tok.Lexeme), Span: tok.Span()}
		if p.unit.Template(id.Decl) != nil && p.check(TokenLess) {
			p.advance()
			args, err := p.templateArgs()
			if err != nil {
				return nil, err
			}
			if err := p.expectErr(TokenLeftParen); err != nil {
				return nil, err
			}
			call := &ast.CallExpr{Fun: id, TemplateArgs: args, Callee: ast.InvalidDecl}
			if err := p.callArgs(call); err != nil {
				return nil, err
			}
			return call, nil
		}
		return id, nil
	case TokenLeftParen:
		p.advance()
		x, err := p.expression()
		if err != nil {
			return nil, err
		}
		if err := p.expectErr(TokenRightParen); err != nil {
			return nil, err
		}
		return &ast.ParenExpr{X: x, Span: p.spanFrom(tok)}, nil
	case TokenLeftBracket:
		return p.lambda()
	}
	return nil, p.errorAt(tok, "expected expression")
}

// lambda parses [captures](params) { body }.
func (p *Parser) lambda() (ast.Expr, *ParseError) {
	start := p.advance()
	var capture strings.Builder
	for !p.check(TokenRightBracket) && !p.isAtEnd() {
		tok := p.advance()
		capture.WriteString(tok.Lexeme)
		if tok.Kind == TokenComma {
			capture.WriteByte(' ')
		}
	}
	if err := p.expectErr(TokenRightBracket); err != nil {
		return nil, err
	}

	f := &ast.FuncDecl{
		Lambda:   true,
		Result:   &ast.AutoType{},
		Scope:    p.scope,
		Prev:     ast.InvalidDecl,
		Next:     ast.InvalidDecl,
		Template: ast.InvalidDecl,
	}
	h := p.unit.Add(f)
	f.BodyScope = p.unit.NewScope(ast.ScopeLambda, p.scope, h)
	if p.match(TokenLeftParen) {
		d := &declarator{}
		if err := p.paramList(d); err != nil {
			return nil, err
		}
		f.VoidParams = d.void
		p.declareParams(f, d.params)
	}
	body, err := p.functionBody(h, f.BodyScope)
	if err != nil {
		return nil, err
	}
	f.Body = body
	f.Span = p.spanFrom(start)
	return &ast.LambdaExpr{Capture: capture.String(), Func: h, Span: f.Span}, nil
}
