// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package parse

import (
	"fmt"

	"github.com/gogpu/acc2omp/ast"
	"github.com/gogpu/acc2omp/diag"
)

// Parser parses tokens into an ast.Unit. Syntax errors are reported to the
// diagnostics engine; the parser resynchronizes and keeps going so one run
// reports every error.
type Parser struct {
	tokens  []Token
	current int

	unit  *ast.Unit
	eng   *diag.Engine
	scope ast.ScopeHandle
	// fn is the function whose body is being parsed.
	fn ast.DeclHandle
	// allowSection enables a[lo:len] inside clause argument lists.
	allowSection bool
	errors       int
}

// ParseError represents a parsing error.
type ParseError struct {
	Message string
	Token   Token
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Token.Line, e.Token.Column, e.Message)
}

// NewParser creates a parser that fills unit and reports to eng.
func NewParser(unit *ast.Unit, tokens []Token, eng *diag.Engine) *Parser {
	return &Parser{
		tokens: tokens,
		unit:   unit,
		eng:    eng,
		scope:  ast.FileScope,
		fn:     ast.InvalidDecl,
	}
}

// File lexes and parses source into a new unit. The returned error is a
// diag.List when syntax errors were reported; the unit is returned either
// way.
func File(name, source string, eng *diag.Engine) (*ast.Unit, error) {
	unit := ast.NewUnit(name, source)
	tokens, err := NewLexer(source).Tokenize()
	if err != nil {
		eng.Errorf(ast.Span{}, "%v", err)
		return unit, eng.Err()
	}
	return NewParser(unit, tokens, eng).Parse()
}

// Parse parses all tokens into the unit.
func (p *Parser) Parse() (*ast.Unit, error) {
	var pending *ast.Directive
	for !p.isAtEnd() {
		items, dir, err := p.externalDecl(pending)
		pending = dir
		if err != nil {
			p.report(err)
			p.synchronize()
			continue
		}
		p.unit.Items = append(p.unit.Items, items...)
	}
	if pending != nil {
		p.errorf(pending.Span, "expected function declaration after '#pragma acc routine'")
	}
	return p.unit, p.eng.Err()
}

func (p *Parser) report(err *ParseError) {
	p.errorf(err.Token.Span(), "%s", err.Message)
}

func (p *Parser) errorAt(tok Token, format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Token: tok}
}

// errorf reports an error at span and counts it against the directive
// being parsed.
func (p *Parser) errorf(span ast.Span, format string, args ...any) *diag.Diagnostic {
	p.errors++
	return p.eng.Errorf(span, format, args...)
}

// externalDecl parses one file-scope item. pending is an unnamed routine
// directive that applies to this item; the returned directive is the one
// that applies to the next item.
func (p *Parser) externalDecl(pending *ast.Directive) ([]ast.DeclHandle, *ast.Directive, *ParseError) {
	tok := p.peek()
	switch tok.Kind {
	case TokenPragma:
		p.advance()
		if !isACCPragma(tok.Lexeme) {
			p.rejectPending(pending)
			h := p.unit.Add(&ast.PragmaDecl{Text: tok.Lexeme, Span: tok.Span()})
			return []ast.DeclHandle{h}, nil, nil
		}
		p.rejectPending(pending)
		dir := p.directive(tok)
		if dir == nil {
			return nil, nil, nil
		}
		switch {
		case dir.Kind == ast.DirRoutine && dir.RoutineName == nil:
			return nil, dir, nil
		case dir.Kind == ast.DirRoutine:
			h := p.unit.Add(&ast.DirectiveDecl{Dir: dir, Span: dir.Span})
			return []ast.DeclHandle{h}, nil, nil
		default:
			p.errorf(dir.Span, "unexpected OpenACC directive '%s'", dir.Spelling())
			return nil, nil, nil
		}
	case TokenHashLine:
		p.advance()
		p.rejectPending(pending)
		h := p.unit.Add(&ast.PragmaDecl{Text: tok.Lexeme, Span: tok.Span()})
		return []ast.DeclHandle{h}, nil, nil
	case TokenSemicolon:
		p.advance()
		return nil, pending, nil
	case TokenTemplate:
		h, err := p.templateDecl(pending)
		if err != nil {
			return nil, nil, err
		}
		return []ast.DeclHandle{h}, nil, nil
	case TokenStruct:
		if p.peekAt(1).Kind == TokenIdent && p.peekAt(2).Kind == TokenLeftBrace {
			p.rejectPending(pending)
			h, err := p.recordDecl()
			if err != nil {
				return nil, nil, err
			}
			return []ast.DeclHandle{h}, nil, nil
		}
	}

	if !p.isTypeStart() {
		p.rejectPending(pending)
		return nil, nil, p.errorAt(tok, "expected declaration, got %s", tok.Kind)
	}
	decls, err := p.declaration(true)
	if err != nil {
		return nil, nil, err
	}
	p.attachRoutine(pending, decls)
	if len(decls) == 0 {
		return nil, nil, nil
	}
	if len(decls) == 1 && p.unit.Func(decls[0]) != nil {
		return decls, nil, nil
	}
	span := ast.Span{}
	for _, h := range decls {
		span = span.Join(p.unit.Decl(h).Pos())
	}
	g := p.unit.Add(&ast.GroupDecl{Members: decls, Span: span})
	return []ast.DeclHandle{g}, nil, nil
}

func (p *Parser) rejectPending(pending *ast.Directive) {
	if pending != nil {
		p.errorf(pending.Span, "expected function declaration after '#pragma acc routine'")
	}
}

// attachRoutine binds an unnamed routine directive to the declaration that
// follows it.
func (p *Parser) attachRoutine(dir *ast.Directive, decls []ast.DeclHandle) {
	if dir == nil {
		return
	}
	if len(decls) > 0 {
		if f := p.unit.Func(decls[0]); f != nil {
			f.Routine = dir
			return
		}
		if v := p.unit.Var(decls[0]); v != nil {
			if _, ok := ast.StripParens(v.Init).(*ast.LambdaExpr); ok {
				p.errorf(dir.Span, "'#pragma acc routine' is not supported for lambdas")
				return
			}
		}
	}
	p.errorf(dir.Span, "expected function declaration after '#pragma acc routine'")
}

// templateDecl parses "template <typename T, ...>" followed by a function
// declaration or a deduction guide.
func (p *Parser) templateDecl(pending *ast.Directive) (ast.DeclHandle, *ParseError) {
	start := p.advance()
	if err := p.expectErr(TokenLess); err != nil {
		return ast.InvalidDecl, err
	}
	td := &ast.TemplateDecl{Scope: p.scope, Pattern: ast.InvalidDecl}
	th := p.unit.Add(td)
	td.ParamScope = p.unit.NewScope(ast.ScopeTemplate, p.scope, th)
	for {
		if !p.match(TokenTypename) && !p.matchWord("class") {
			return ast.InvalidDecl, p.errorAt(p.peek(), "expected 'typename' in template parameter list")
		}
		name := p.peek()
		if err := p.expectErr(TokenIdent); err != nil {
			return ast.InvalidDecl, err
		}
		ph := p.unit.Add(&ast.TemplateParamDecl{
			Name:  name.Lexeme,
			Index: len(td.Params),
			Scope: td.ParamScope,
			Span:  name.Span(),
		})
		td.Params = append(td.Params, ph)
		p.unit.Declare(td.ParamScope, name.Lexeme, ph)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expectErr(TokenGreater); err != nil {
		return ast.InvalidDecl, err
	}

	outer := p.scope
	p.scope = td.ParamScope
	defer func() { p.scope = outer }()

	// A deduction guide starts with the template name and a parameter list.
	if p.check(TokenIdent) && p.peekAt(1).Kind == TokenLeftParen {
		gh, err := p.deductionGuide(start)
		if err != nil {
			return ast.InvalidDecl, err
		}
		if pending != nil {
			p.errorf(pending.Span, "expected function declaration after '#pragma acc routine'")
		}
		g := p.unit.Decl(gh).(*ast.DeductionGuideDecl)
		td.Name = g.Name
		td.Pattern = gh
		td.Span = start.Span().Join(g.Span)
		return th, nil
	}

	decls, err := p.declaration(false)
	if err != nil {
		return ast.InvalidDecl, err
	}
	if len(decls) != 1 || p.unit.Func(decls[0]) == nil {
		return ast.InvalidDecl, p.errorAt(start, "expected function template declaration")
	}
	fh := decls[0]
	f := p.unit.Func(fh)
	f.Template = th
	td.Name = f.Name
	td.Pattern = fh
	td.Span = start.Span().Join(f.Span)
	p.unit.Declare(outer, f.Name, th)
	if pending != nil {
		f.Routine = pending
	}
	return th, nil
}

func (p *Parser) deductionGuide(start Token) (ast.DeclHandle, *ParseError) {
	name := p.advance()
	p.advance() // (
	g := &ast.DeductionGuideDecl{Name: name.Lexeme, Scope: p.scope}
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		spec, err := p.declSpecifiers()
		if err != nil {
			return ast.InvalidDecl, err
		}
		d, err := p.declarator(spec.typ, false)
		if err != nil {
			return ast.InvalidDecl, err
		}
		g.Params = append(g.Params, d.typ)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return ast.InvalidDecl, err
	}
	if err := p.expectErr(TokenArrow); err != nil {
		return ast.InvalidDecl, err
	}
	result := p.peek()
	if err := p.expectErr(TokenIdent); err != nil {
		return ast.InvalidDecl, err
	}
	spec := &ast.SpecializationType{Name: result.Lexeme}
	if p.match(TokenLess) {
		args, err := p.templateArgs()
		if err != nil {
			return ast.InvalidDecl, err
		}
		spec.Args = args
	}
	g.Result = spec
	end := p.peek()
	if err := p.expectErr(TokenSemicolon); err != nil {
		return ast.InvalidDecl, err
	}
	g.Span = ast.Span{Start: start.Pos(), End: end.End()}
	return p.unit.Add(g), nil
}

// templateArgs parses "T, U>" after the opening '<'.
func (p *Parser) templateArgs() ([]ast.Type, *ParseError) {
	var args []ast.Type
	for !p.check(TokenGreater) && !p.isAtEnd() {
		spec, err := p.declSpecifiers()
		if err != nil {
			return nil, err
		}
		d, err := p.declarator(spec.typ, false)
		if err != nil {
			return nil, err
		}
		args = append(args, d.typ)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expectErr(TokenGreater); err != nil {
		return nil, err
	}
	return args, nil
}

// recordDecl parses "struct S { members };".
func (p *Parser) recordDecl() (ast.DeclHandle, *ParseError) {
	start := p.advance()
	name := p.advance()
	rh := p.unit.LookupLocal(p.scope, name.Lexeme)
	rec := p.unit.Record(rh)
	if rec == nil || len(rec.Fields) > 0 {
		rec = &ast.RecordDecl{Name: name.Lexeme, Scope: p.scope}
		rh = p.unit.Add(rec)
		p.unit.Declare(p.scope, name.Lexeme, rh)
	}
	p.advance() // {
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		if p.check(TokenPragma) || p.check(TokenHashLine) {
			tok := p.advance()
			if isACCPragma(tok.Lexeme) {
				if dir := p.directive(tok); dir != nil {
					p.errorf(dir.Span, "unexpected OpenACC directive '%s'", dir.Spelling())
				}
			}
			continue
		}
		spec, err := p.declSpecifiers()
		if err != nil {
			return ast.InvalidDecl, err
		}
		for {
			d, err := p.declarator(spec.typ, false)
			if err != nil {
				return ast.InvalidDecl, err
			}
			if d.name.Kind != TokenIdent {
				return ast.InvalidDecl, p.errorAt(p.peek(), "expected member name")
			}
			rec.Fields = append(rec.Fields, ast.Field{Name: d.name.Lexeme, Type: d.typ, Span: d.name.Span()})
			if !p.match(TokenComma) {
				break
			}
		}
		if err := p.expectErr(TokenSemicolon); err != nil {
			return ast.InvalidDecl, err
		}
	}
	if err := p.expectErr(TokenRightBrace); err != nil {
		return ast.InvalidDecl, err
	}
	end := p.peek()
	if err := p.expectErr(TokenSemicolon); err != nil {
		return ast.InvalidDecl, err
	}
	rec.Span = ast.Span{Start: start.Pos(), End: end.End()}
	return rh, nil
}

// Helper methods

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) peekAt(n int) Token {
	if p.current+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+n]
}

func (p *Parser) previous() Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == TokenEOF
}

func (p *Parser) check(kind TokenKind) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Kind == kind
}

func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchWord(word string) bool {
	if p.check(TokenIdent) && p.peek().Lexeme == word {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectErr(kind TokenKind) *ParseError {
	if p.check(kind) {
		p.advance()
		return nil
	}
	return &ParseError{
		Message: fmt.Sprintf("expected %s, got %s", kind, p.peek().Kind),
		Token:   p.peek(),
	}
}

// spanFrom covers start through the last consumed token.
func (p *Parser) spanFrom(start Token) ast.Span {
	return ast.Span{Start: start.Pos(), End: p.previous().End()}
}

// synchronize skips to the start of the next file-scope declaration.
func (p *Parser) synchronize() {
	depth := 0
	for !p.isAtEnd() {
		tok := p.advance()
		switch tok.Kind {
		case TokenLeftBrace:
			depth++
		case TokenRightBrace:
			depth--
			if depth <= 0 {
				p.match(TokenSemicolon)
				return
			}
		case TokenSemicolon:
			if depth == 0 {
				return
			}
		}
		if depth == 0 {
			switch p.peek().Kind {
			case TokenPragma, TokenHashLine, TokenTemplate, TokenStruct, TokenStatic:
				return
			}
		}
	}
}
