// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package parse

import (
	"strconv"
	"strings"

	"github.com/gogpu/acc2omp/ast"
)

// declSpec is the specifier part of a declaration.
type declSpec struct {
	typ    ast.Type
	static bool
	start  Token
}

// param is a parsed function parameter before its VarDecl exists.
type param struct {
	name Token
	typ  ast.Type
}

// declarator is one declarator of a declaration. name.Kind is TokenEOF for
// abstract declarators.
type declarator struct {
	name   Token
	typ    ast.Type
	isFunc bool
	params []param
	void   bool
}

// isTypeStart reports whether the current token begins a declaration.
func (p *Parser) isTypeStart() bool {
	return p.isTypeToken(p.peek())
}

func (p *Parser) isTypeToken(tok Token) bool {
	switch tok.Kind {
	case TokenStatic, TokenUnsigned, TokenLong, TokenInt, TokenChar, TokenBool,
		TokenFloat, TokenDouble, TokenVoid, TokenAuto, TokenStruct:
		return true
	case TokenIdent:
		switch p.unit.Decl(p.unit.Lookup(p.scope, tok.Lexeme)).(type) {
		case *ast.RecordDecl, *ast.TemplateParamDecl:
			return true
		}
	}
	return false
}

// declSpecifiers parses storage class and type specifiers.
func (p *Parser) declSpecifiers() (declSpec, *ParseError) {
	spec := declSpec{start: p.peek()}
	if p.match(TokenStatic) {
		spec.static = true
	}
	tok := p.advance()
	switch tok.Kind {
	case TokenVoid:
		spec.typ = ast.Builtin(ast.Void)
	case TokenBool:
		spec.typ = ast.Builtin(ast.Bool)
	case TokenChar:
		spec.typ = ast.Builtin(ast.Char)
	case TokenInt:
		spec.typ = ast.Builtin(ast.Int)
	case TokenFloat:
		spec.typ = ast.Builtin(ast.Float)
	case TokenDouble:
		spec.typ = ast.Builtin(ast.Double)
	case TokenLong:
		p.match(TokenInt)
		spec.typ = ast.Builtin(ast.Long)
	case TokenUnsigned:
		switch {
		case p.match(TokenLong):
			p.match(TokenInt)
			spec.typ = ast.Builtin(ast.ULong)
		default:
			p.match(TokenInt)
			spec.typ = ast.Builtin(ast.UInt)
		}
	case TokenAuto:
		spec.typ = &ast.AutoType{}
	case TokenStruct:
		name := p.peek()
		if err := p.expectErr(TokenIdent); err != nil {
			return spec, err
		}
		spec.typ = p.recordType(name, true)
	case TokenIdent:
		switch d := p.unit.Decl(p.unit.Lookup(p.scope, tok.Lexeme)).(type) {
		case *ast.RecordDecl:
			spec.typ = p.recordType(tok, false)
		case *ast.TemplateParamDecl:
			spec.typ = &ast.TemplateParamType{Name: d.Name, Index: d.Index}
		default:
			return spec, p.errorAt(tok, "unknown type name '%s'", tok.Lexeme)
		}
	default:
		return spec, p.errorAt(tok, "expected type, got %s", tok.Kind)
	}
	return spec, nil
}

// recordType resolves a struct name, declaring it when first seen.
func (p *Parser) recordType(name Token, elaborated bool) *ast.RecordType {
	h := p.unit.Lookup(p.scope, name.Lexeme)
	if p.unit.Record(h) == nil {
		h = p.unit.Add(&ast.RecordDecl{Name: name.Lexeme, Scope: p.scope, Span: name.Span()})
		p.unit.Declare(p.scope, name.Lexeme, h)
	}
	return &ast.RecordType{Decl: h, Name: name.Lexeme, Elaborated: elaborated}
}

// declarator parses pointers, references, the name, and array or function
// suffixes. Function suffixes are only accepted when allowFunc is set.
func (p *Parser) declarator(base ast.Type, allowFunc bool) (*declarator, *ParseError) {
	d := &declarator{typ: base, name: Token{Kind: TokenEOF}}
	for {
		switch {
		case p.match(TokenStar):
			d.typ = &ast.PointerType{Elem: d.typ}
			continue
		case p.match(TokenAmpersand):
			d.typ = &ast.ReferenceType{Elem: d.typ}
			continue
		}
		break
	}
	if p.check(TokenIdent) {
		d.name = p.advance()
	}
	if allowFunc && d.name.Kind == TokenIdent && p.check(TokenLeftParen) {
		p.advance()
		if err := p.paramList(d); err != nil {
			return nil, err
		}
		d.isFunc = true
		return d, nil
	}
	var dims []int64
	for p.match(TokenLeftBracket) {
		n := int64(-1)
		if p.check(TokenIntLiteral) {
			tok := p.advance()
			v, err := parseIntLiteral(tok.Lexeme)
			if err != nil {
				return nil, p.errorAt(tok, "invalid array size '%s'", tok.Lexeme)
			}
			n = v
		}
		if err := p.expectErr(TokenRightBracket); err != nil {
			return nil, err
		}
		dims = append(dims, n)
	}
	for i := len(dims) - 1; i >= 0; i-- {
		d.typ = &ast.ArrayType{Elem: d.typ, Len: dims[i]}
	}
	return d, nil
}

// paramList parses parameters after '(' through ')'.
func (p *Parser) paramList(d *declarator) *ParseError {
	if p.check(TokenVoid) && p.peekAt(1).Kind == TokenRightParen {
		p.advance()
		p.advance()
		d.void = true
		return nil
	}
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		spec, err := p.declSpecifiers()
		if err != nil {
			return err
		}
		pd, err := p.declarator(spec.typ, false)
		if err != nil {
			return err
		}
		d.params = append(d.params, param{name: pd.name, typ: pd.typ})
		if !p.match(TokenComma) {
			break
		}
	}
	return p.expectErr(TokenRightParen)
}

func parseIntLiteral(text string) (int64, error) {
	text = strings.TrimRight(text, "uUlL")
	return strconv.ParseInt(text, 0, 64)
}

// declaration parses a declaration statement at file or block scope. When
// redeclare is set, function declarations join the redeclaration chain of
// the visible declaration with the same name.
func (p *Parser) declaration(redeclare bool) ([]ast.DeclHandle, *ParseError) {
	spec, err := p.declSpecifiers()
	if err != nil {
		return nil, err
	}
	if p.match(TokenSemicolon) {
		return nil, nil
	}
	var decls []ast.DeclHandle
	for {
		d, err := p.declarator(spec.typ, true)
		if err != nil {
			return nil, err
		}
		if d.name.Kind != TokenIdent {
			return nil, p.errorAt(p.peek(), "expected identifier, got %s", p.peek().Kind)
		}
		if d.isFunc {
			h, err := p.funcDecl(spec, d, redeclare)
			if err != nil {
				return nil, err
			}
			decls = append(decls, h)
			if p.unit.Func(h).IsDefinition() {
				return decls, nil
			}
		} else {
			h, err := p.varDecl(spec, d)
			if err != nil {
				return nil, err
			}
			decls = append(decls, h)
		}
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return nil, err
	}
	return decls, nil
}

func (p *Parser) varDecl(spec declSpec, d *declarator) (ast.DeclHandle, *ParseError) {
	v := &ast.VarDecl{
		Name:   d.name.Lexeme,
		Type:   d.typ,
		Static: spec.static,
		Scope:  p.scope,
	}
	h := p.unit.Add(v)
	if p.match(TokenEqual) {
		init, err := p.assignment()
		if err != nil {
			return ast.InvalidDecl, err
		}
		v.Init = init
		if auto, ok := v.Type.(*ast.AutoType); ok {
			if l, ok := ast.StripParens(init).(*ast.LambdaExpr); ok {
				auto.Deduced = &ast.LambdaType{Func: l.Func}
			}
		}
	}
	v.Span = p.spanFrom(spec.start)
	p.unit.Declare(p.scope, v.Name, h)
	return h, nil
}

// funcDecl creates a function declaration, its parameters, and its body.
func (p *Parser) funcDecl(spec declSpec, d *declarator, redeclare bool) (ast.DeclHandle, *ParseError) {
	f := &ast.FuncDecl{
		Name:       d.name.Lexeme,
		Result:     d.typ,
		VoidParams: d.void,
		Static:     spec.static,
		Scope:      p.scope,
		Prev:       ast.InvalidDecl,
		Next:       ast.InvalidDecl,
		Template:   ast.InvalidDecl,
	}
	h := p.unit.Add(f)
	f.BodyScope = p.unit.NewScope(ast.ScopeFunction, p.scope, h)
	p.declareParams(f, d.params)

	if redeclare {
		if prev := p.unit.Lookup(p.scope, f.Name); p.unit.Func(prev) != nil {
			p.unit.Link(p.unit.MostRecent(prev), h)
		}
		p.unit.Declare(p.scope, f.Name, h)
	}

	if p.check(TokenLeftBrace) {
		if !p.unit.IsFileScope(p.scope) {
			return ast.InvalidDecl, p.errorAt(p.peek(), "function definition is not allowed here")
		}
		body, err := p.functionBody(h, f.BodyScope)
		if err != nil {
			return ast.InvalidDecl, err
		}
		f.Body = body
	}
	f.Span = p.spanFrom(spec.start)
	return h, nil
}

func (p *Parser) declareParams(f *ast.FuncDecl, params []param) {
	for _, pr := range params {
		v := &ast.VarDecl{
			Name:  pr.name.Lexeme,
			Type:  pr.typ,
			Param: true,
			Scope: f.BodyScope,
			Span:  pr.name.Span(),
		}
		ph := p.unit.Add(v)
		f.Params = append(f.Params, ph)
		if pr.name.Kind == TokenIdent {
			p.unit.Declare(f.BodyScope, v.Name, ph)
		}
	}
}

// functionBody parses a body in the given parameter scope with fn as the
// enclosing function.
func (p *Parser) functionBody(fn ast.DeclHandle, scope ast.ScopeHandle) (*ast.CompoundStmt, *ParseError) {
	outerScope, outerFn := p.scope, p.fn
	p.scope, p.fn = scope, fn
	defer func() { p.scope, p.fn = outerScope, outerFn }()
	return p.compound(false)
}
