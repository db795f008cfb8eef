// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package parse

import "github.com/gogpu/acc2omp/ast"

// compound parses a braced block. A new block scope is opened when
// newScope is set; function bodies reuse the parameter scope.
func (p *Parser) compound(newScope bool) (*ast.CompoundStmt, *ParseError) {
	start := p.peek()
	if err := p.expectErr(TokenLeftBrace); err != nil {
		return nil, err
	}
	if newScope {
		outer := p.scope
		p.scope = p.unit.NewScope(ast.ScopeBlock, outer, ast.InvalidDecl)
		defer func() { p.scope = outer }()
	}
	block := &ast.CompoundStmt{Scope: p.scope}
	stmts, err := p.statementList()
	if err != nil {
		return nil, err
	}
	block.Stmts = stmts
	if err := p.expectErr(TokenRightBrace); err != nil {
		return nil, err
	}
	block.Span = p.spanFrom(start)
	return block, nil
}

// statementList parses statements up to the closing brace, recovering from
// errors at statement boundaries.
func (p *Parser) statementList() ([]ast.Stmt, *ParseError) {
	var stmts []ast.Stmt
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		s, err := p.statement()
		if err != nil {
			p.report(err)
			p.synchronizeStmt()
			continue
		}
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts, nil
}

// synchronizeStmt skips to the next statement boundary inside a block.
func (p *Parser) synchronizeStmt() {
	depth := 0
	for !p.isAtEnd() {
		switch p.peek().Kind {
		case TokenSemicolon:
			p.advance()
			if depth == 0 {
				return
			}
		case TokenLeftBrace:
			depth++
			p.advance()
		case TokenRightBrace:
			if depth == 0 {
				return
			}
			depth--
			p.advance()
			if depth == 0 {
				return
			}
		case TokenPragma, TokenHashLine:
			if depth == 0 {
				return
			}
			p.advance()
		default:
			p.advance()
		}
	}
}

// statement parses one statement. A nil statement with a nil error means
// the input produced nothing, such as a dropped directive.
func (p *Parser) statement() (ast.Stmt, *ParseError) {
	tok := p.peek()
	switch tok.Kind {
	case TokenLeftBrace:
		return p.compound(true)
	case TokenPragma:
		p.advance()
		if isACCPragma(tok.Lexeme) {
			return p.directiveStmt(tok)
		}
		return &ast.PragmaStmt{Text: tok.Lexeme, Span: tok.Span()}, nil
	case TokenHashLine:
		p.advance()
		return &ast.PragmaStmt{Text: tok.Lexeme, Span: tok.Span()}, nil
	case TokenSemicolon:
		p.advance()
		return &ast.NullStmt{Span: tok.Span()}, nil
	case TokenIf:
		return p.ifStmt()
	case TokenFor:
		return p.forStmt()
	case TokenWhile:
		return p.whileStmt()
	case TokenDo:
		return p.doStmt()
	case TokenReturn:
		p.advance()
		ret := &ast.ReturnStmt{}
		if !p.check(TokenSemicolon) {
			x, err := p.expression()
			if err != nil {
				return nil, err
			}
			ret.X = x
		}
		if err := p.expectErr(TokenSemicolon); err != nil {
			return nil, err
		}
		ret.Span = p.spanFrom(tok)
		return ret, nil
	case TokenBreak:
		p.advance()
		if err := p.expectErr(TokenSemicolon); err != nil {
			return nil, err
		}
		return &ast.BreakStmt{Span: p.spanFrom(tok)}, nil
	case TokenContinue:
		p.advance()
		if err := p.expectErr(TokenSemicolon); err != nil {
			return nil, err
		}
		return &ast.ContinueStmt{Span: p.spanFrom(tok)}, nil
	}

	if p.isTypeStart() {
		if p.check(TokenStruct) && p.peekAt(2).Kind == TokenLeftBrace {
			return nil, p.errorAt(tok, "struct definition is only supported at file scope")
		}
		decls, err := p.declaration(true)
		if err != nil {
			return nil, err
		}
		return &ast.DeclStmt{Decls: decls, Span: p.spanFrom(tok)}, nil
	}
	x, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{X: x, Span: p.spanFrom(tok)}, nil
}

// directiveStmt parses an OpenACC directive in statement position together
// with its associated statement.
func (p *Parser) directiveStmt(tok Token) (ast.Stmt, *ParseError) {
	dir := p.directive(tok)
	if dir == nil {
		return nil, nil
	}
	switch {
	case dir.Kind == ast.DirRoutine:
		return p.blockRoutine(dir)
	case dir.Kind.IsStandalone():
		return &ast.AccStmt{Dir: dir}, nil
	case dir.Kind.IsLoop() && !p.check(TokenFor):
		p.errorf(p.peek().Span(), "expected for statement after '%s'", dir.Spelling())
		return nil, nil
	}
	if p.check(TokenRightBrace) || p.isAtEnd() {
		p.errorf(dir.Span, "expected statement after '%s'", dir.Spelling())
		return nil, nil
	}
	s, err := p.statement()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	dir.Stmt = s
	return &ast.AccStmt{Dir: dir}, nil
}

// blockRoutine handles a routine directive inside a function body. The
// named form stands alone; the unnamed form applies to the function
// prototype that follows.
func (p *Parser) blockRoutine(dir *ast.Directive) (ast.Stmt, *ParseError) {
	if dir.RoutineName != nil {
		return &ast.AccStmt{Dir: dir}, nil
	}
	s, err := p.statement()
	if err != nil {
		return nil, err
	}
	ds, ok := s.(*ast.DeclStmt)
	if ok && len(ds.Decls) > 0 {
		if f := p.unit.Func(ds.Decls[0]); f != nil {
			f.Routine = dir
			return ds, nil
		}
		if v := p.unit.Var(ds.Decls[0]); v != nil {
			if _, isLambda := ast.StripParens(v.Init).(*ast.LambdaExpr); isLambda {
				p.errorf(dir.Span, "'#pragma acc routine' is not supported for lambdas")
				return s, nil
			}
		}
	}
	p.errorf(dir.Span, "expected function declaration after '#pragma acc routine'")
	return s, nil
}

func (p *Parser) ifStmt() (ast.Stmt, *ParseError) {
	start := p.advance()
	if err := p.expectErr(TokenLeftParen); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return nil, err
	}
	then, err := p.subStatement()
	if err != nil {
		return nil, err
	}
	s := &ast.IfStmt{Cond: cond, Then: then}
	if p.match(TokenElse) {
		els, err := p.subStatement()
		if err != nil {
			return nil, err
		}
		s.Else = els
	}
	s.Span = p.spanFrom(start)
	return s, nil
}

func (p *Parser) forStmt() (ast.Stmt, *ParseError) {
	start := p.advance()
	if err := p.expectErr(TokenLeftParen); err != nil {
		return nil, err
	}
	outer := p.scope
	p.scope = p.unit.NewScope(ast.ScopeBlock, outer, ast.InvalidDecl)
	defer func() { p.scope = outer }()

	loop := &ast.ForStmt{Scope: p.scope}
	switch {
	case p.match(TokenSemicolon):
	case p.isTypeStart():
		initTok := p.peek()
		decls, err := p.declaration(false)
		if err != nil {
			return nil, err
		}
		loop.Init = &ast.DeclStmt{Decls: decls, Span: p.spanFrom(initTok)}
	default:
		initTok := p.peek()
		x, err := p.expression()
		if err != nil {
			return nil, err
		}
		if err := p.expectErr(TokenSemicolon); err != nil {
			return nil, err
		}
		loop.Init = &ast.ExprStmt{X: x, Span: p.spanFrom(initTok)}
	}
	if !p.check(TokenSemicolon) {
		cond, err := p.expression()
		if err != nil {
			return nil, err
		}
		loop.Cond = cond
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return nil, err
	}
	if !p.check(TokenRightParen) {
		post, err := p.expression()
		if err != nil {
			return nil, err
		}
		loop.Post = post
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return nil, err
	}
	body, err := p.subStatement()
	if err != nil {
		return nil, err
	}
	loop.Body = body
	loop.Span = p.spanFrom(start)
	return loop, nil
}

func (p *Parser) whileStmt() (ast.Stmt, *ParseError) {
	start := p.advance()
	if err := p.expectErr(TokenLeftParen); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return nil, err
	}
	body, err := p.subStatement()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Cond: cond, Body: body, Span: p.spanFrom(start)}, nil
}

func (p *Parser) doStmt() (ast.Stmt, *ParseError) {
	start := p.advance()
	body, err := p.subStatement()
	if err != nil {
		return nil, err
	}
	if err := p.expectErr(TokenWhile); err != nil {
		return nil, err
	}
	if err := p.expectErr(TokenLeftParen); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return nil, err
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return nil, err
	}
	return &ast.DoStmt{Body: body, Cond: cond, Span: p.spanFrom(start)}, nil
}

// subStatement parses the body of a control statement, substituting a null
// statement when a dropped directive produced nothing.
func (p *Parser) subStatement() (ast.Stmt, *ParseError) {
	tok := p.peek()
	s, err := p.statement()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return &ast.NullStmt{Span: tok.Span()}, nil
	}
	return s, nil
}
