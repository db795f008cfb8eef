// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package parse

import (
	"strings"

	"github.com/gogpu/acc2omp/ast"
)

// clauseName is a clause spelling and the kind it denotes.
type clauseName struct {
	kind  ast.ClauseKind
	alias bool
}

var clauseNames = map[string]clauseName{
	"num_gangs":          {kind: ast.ClauseNumGangs},
	"num_workers":        {kind: ast.ClauseNumWorkers},
	"vector_length":      {kind: ast.ClauseVectorLength},
	"gang":               {kind: ast.ClauseGang},
	"worker":             {kind: ast.ClauseWorker},
	"vector":             {kind: ast.ClauseVector},
	"seq":                {kind: ast.ClauseSeq},
	"auto":               {kind: ast.ClauseAuto},
	"independent":        {kind: ast.ClauseIndependent},
	"collapse":           {kind: ast.ClauseCollapse},
	"private":            {kind: ast.ClausePrivate},
	"firstprivate":       {kind: ast.ClauseFirstPrivate},
	"copy":               {kind: ast.ClauseCopy},
	"pcopy":              {kind: ast.ClauseCopy, alias: true},
	"present_or_copy":    {kind: ast.ClauseCopy, alias: true},
	"copyin":             {kind: ast.ClauseCopyIn},
	"pcopyin":            {kind: ast.ClauseCopyIn, alias: true},
	"present_or_copyin":  {kind: ast.ClauseCopyIn, alias: true},
	"copyout":            {kind: ast.ClauseCopyOut},
	"pcopyout":           {kind: ast.ClauseCopyOut, alias: true},
	"present_or_copyout": {kind: ast.ClauseCopyOut, alias: true},
	"create":             {kind: ast.ClauseCreate},
	"pcreate":            {kind: ast.ClauseCreate, alias: true},
	"present_or_create":  {kind: ast.ClauseCreate, alias: true},
	"delete":             {kind: ast.ClauseDelete},
	"present":            {kind: ast.ClausePresent},
	"no_create":          {kind: ast.ClauseNoCreate},
	"reduction":          {kind: ast.ClauseReduction},
	"async":              {kind: ast.ClauseAsync},
	"wait":               {kind: ast.ClauseWait},
	"if":                 {kind: ast.ClauseIf},
	"if_present":         {kind: ast.ClauseIfPresent},
	"finalize":           {kind: ast.ClauseFinalize},
	"default":            {kind: ast.ClauseDefault},
	"self":               {kind: ast.ClauseSelf},
	"host":               {kind: ast.ClauseHost},
	"device":             {kind: ast.ClauseDevice},
}

func kinds(ks ...ast.ClauseKind) map[ast.ClauseKind]bool {
	m := make(map[ast.ClauseKind]bool, len(ks))
	for _, k := range ks {
		m[k] = true
	}
	return m
}

var (
	parallelClauses = []ast.ClauseKind{
		ast.ClauseNumGangs, ast.ClauseNumWorkers, ast.ClauseVectorLength,
		ast.ClauseAsync, ast.ClauseWait, ast.ClauseIf, ast.ClausePrivate,
		ast.ClauseFirstPrivate, ast.ClauseCopy, ast.ClauseCopyIn, ast.ClauseCopyOut,
		ast.ClauseCreate, ast.ClausePresent, ast.ClauseNoCreate, ast.ClauseReduction,
		ast.ClauseDefault,
	}
	loopClauses = []ast.ClauseKind{
		ast.ClauseGang, ast.ClauseWorker, ast.ClauseVector, ast.ClauseSeq,
		ast.ClauseAuto, ast.ClauseIndependent, ast.ClauseCollapse,
		ast.ClausePrivate, ast.ClauseReduction,
	}
)

// allowedClauses lists the clauses each directive accepts.
var allowedClauses = map[ast.DirectiveKind]map[ast.ClauseKind]bool{
	ast.DirParallel:     kinds(parallelClauses...),
	ast.DirLoop:         kinds(loopClauses...),
	ast.DirParallelLoop: kinds(append(append([]ast.ClauseKind{}, parallelClauses...), loopClauses...)...),
	ast.DirData: kinds(ast.ClauseIf, ast.ClauseCopy, ast.ClauseCopyIn, ast.ClauseCopyOut,
		ast.ClauseCreate, ast.ClausePresent, ast.ClauseNoCreate),
	ast.DirEnterData: kinds(ast.ClauseIf, ast.ClauseAsync, ast.ClauseWait, ast.ClauseCopyIn, ast.ClauseCreate),
	ast.DirExitData: kinds(ast.ClauseIf, ast.ClauseAsync, ast.ClauseWait, ast.ClauseCopyOut,
		ast.ClauseDelete, ast.ClauseFinalize),
	ast.DirUpdate: kinds(ast.ClauseIf, ast.ClauseAsync, ast.ClauseWait, ast.ClauseSelf,
		ast.ClauseHost, ast.ClauseDevice, ast.ClauseIfPresent),
	ast.DirWait:    kinds(ast.ClauseAsync, ast.ClauseIf),
	ast.DirRoutine: kinds(ast.ClauseGang, ast.ClauseWorker, ast.ClauseVector, ast.ClauseSeq),
	ast.DirAtomic:  kinds(),
}

// singleUse lists clauses that may appear at most once per directive.
var singleUse = kinds(
	ast.ClauseNumGangs, ast.ClauseNumWorkers, ast.ClauseVectorLength,
	ast.ClauseCollapse, ast.ClauseIf, ast.ClauseAsync, ast.ClauseDefault,
	ast.ClauseGang, ast.ClauseWorker, ast.ClauseVector, ast.ClauseSeq,
	ast.ClauseAuto, ast.ClauseIndependent, ast.ClauseIfPresent, ast.ClauseFinalize,
)

// conflicts lists clause pairs that cannot appear together on one loop.
var conflicts = [][2]ast.ClauseKind{
	{ast.ClauseSeq, ast.ClauseGang},
	{ast.ClauseSeq, ast.ClauseWorker},
	{ast.ClauseSeq, ast.ClauseVector},
	{ast.ClauseSeq, ast.ClauseAuto},
	{ast.ClauseSeq, ast.ClauseIndependent},
	{ast.ClauseAuto, ast.ClauseIndependent},
}

var atomicKinds = map[string]ast.AtomicKind{
	"read":    ast.AtomicRead,
	"write":   ast.AtomicWrite,
	"update":  ast.AtomicUpdate,
	"capture": ast.AtomicCapture,
	"compare": ast.AtomicCompare,
}

// isACCPragma reports whether a #pragma line is an OpenACC directive.
func isACCPragma(text string) bool {
	_, ok := accBody(text)
	return ok
}

// accBody returns the byte offset of the text after "acc" in a pragma line.
func accBody(text string) (int, bool) {
	i := 1
	skip := func() {
		for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
			i++
		}
	}
	skip()
	if !strings.HasPrefix(text[i:], "pragma") {
		return 0, false
	}
	i += len("pragma")
	skip()
	if !strings.HasPrefix(text[i:], "acc") {
		return 0, false
	}
	i += len("acc")
	if i < len(text) && text[i] != ' ' && text[i] != '\t' {
		return 0, false
	}
	return i, true
}

// directive parses the OpenACC directive in a pragma token. It returns nil
// when an error was reported; the directive is then dropped.
func (p *Parser) directive(tok Token) *ast.Directive {
	off, _ := accBody(tok.Lexeme)
	pos := ast.Position{Line: tok.Line, Column: tok.Column + off, Offset: tok.Offset + off}
	tokens, err := NewLexerAt(tok.Lexeme[off:], pos).Tokenize()
	if err != nil {
		p.errorf(tok.Span(), "%v", err)
		return nil
	}
	dp := &Parser{
		tokens:       tokens,
		unit:         p.unit,
		eng:          p.eng,
		scope:        p.scope,
		fn:           p.fn,
		allowSection: true,
	}
	dir := dp.directiveBody(tok)
	p.errors += dp.errors
	if dp.errors > 0 {
		return nil
	}
	return dir
}

func (p *Parser) directiveBody(pragma Token) *ast.Directive {
	dir := &ast.Directive{Span: pragma.Span()}
	name := p.peek()
	if !name.IsWord() {
		p.errorf(pragma.Span(), "unknown or unsupported OpenACC directive")
		return nil
	}
	p.advance()
	switch name.Lexeme {
	case "parallel":
		dir.Kind = ast.DirParallel
		if p.check(TokenIdent) && p.peek().Lexeme == "loop" {
			p.advance()
			dir.Kind = ast.DirParallelLoop
		}
	case "loop":
		dir.Kind = ast.DirLoop
	case "data":
		dir.Kind = ast.DirData
	case "enter", "exit":
		if !p.matchWord("data") {
			p.errorf(name.Span(), "unknown or unsupported OpenACC directive")
			return nil
		}
		dir.Kind = ast.DirEnterData
		if name.Lexeme == "exit" {
			dir.Kind = ast.DirExitData
		}
	case "atomic":
		dir.Kind = ast.DirAtomic
		if p.peek().IsWord() {
			sub := p.advance()
			k, ok := atomicKinds[sub.Lexeme]
			if !ok {
				p.errorf(sub.Span(), "unknown or unsupported OpenACC clause '%s'", sub.Lexeme)
				return nil
			}
			dir.Atomic = k
			dir.AtomicClause = true
		}
	case "wait":
		dir.Kind = ast.DirWait
		if p.match(TokenLeftParen) {
			args, ok := p.exprList()
			if !ok {
				return nil
			}
			dir.WaitArgs = args
		}
	case "update":
		dir.Kind = ast.DirUpdate
	case "routine":
		dir.Kind = ast.DirRoutine
		if p.match(TokenLeftParen) {
			id := p.peek()
			if p.expectErr(TokenIdent) != nil {
				p.errorf(id.Span(), "expected identifier")
				return nil
			}
			dir.RoutineName = &ast.Ident{Name: id.Lexeme, Decl: p.unit.Lookup(p.scope, id.Lexeme), Span: id.Span()}
			if err := p.expectErr(TokenRightParen); err != nil {
				p.report(err)
				return nil
			}
			if dir.RoutineName.Decl.IsValid() && p.unit.Func(dir.RoutineName.Decl) == nil {
				p.errorf(id.Span(), "expected function declaration after '#pragma acc routine'")
				return nil
			}
			if !dir.RoutineName.Decl.IsValid() {
				p.errorf(id.Span(), "use of undeclared identifier '%s'", id.Lexeme)
				return nil
			}
		}
	default:
		p.errorf(name.Span(), "unknown or unsupported OpenACC directive")
		return nil
	}

	p.clauses(dir)
	if p.errors > 0 {
		return nil
	}
	p.checkClauses(dir)
	return dir
}

// clauses parses the clause list of dir, resynchronizing after errors at the
// next comma or clause name at paren depth zero.
func (p *Parser) clauses(dir *ast.Directive) {
	allowed := allowedClauses[dir.Kind]
	for !p.isAtEnd() {
		if p.match(TokenComma) {
			continue
		}
		tok := p.peek()
		if !tok.IsWord() {
			p.errorf(tok.Span(), "expected OpenACC clause")
			p.skipClause()
			continue
		}
		p.advance()
		cn, ok := clauseNames[tok.Lexeme]
		if !ok {
			p.errorf(tok.Span(), "unknown or unsupported OpenACC clause '%s'", tok.Lexeme)
			p.skipArgs()
			continue
		}
		if !allowed[cn.kind] {
			p.errorf(tok.Span(), "unexpected OpenACC clause '%s' in directive '%s'", tok.Lexeme, dir.Spelling())
			p.skipArgs()
			continue
		}
		c := &ast.Clause{Kind: cn.kind}
		if cn.alias {
			c.Spelling = tok.Lexeme
		}
		if !p.clauseArgs(c, tok) {
			p.skipClause()
			continue
		}
		c.Span = p.spanFrom(tok)
		dir.AddClause(c)
	}
}

// clauseArgs parses the parenthesized arguments of c.
func (p *Parser) clauseArgs(c *ast.Clause, name Token) bool {
	switch c.Kind {
	case ast.ClauseNumGangs, ast.ClauseNumWorkers, ast.ClauseVectorLength,
		ast.ClauseCollapse, ast.ClauseIf:
		if !p.open(name) {
			return false
		}
		x, ok := p.clauseExpr()
		if !ok {
			return false
		}
		c.Arg = x
		return p.close()

	case ast.ClauseAsync:
		if !p.match(TokenLeftParen) {
			return true
		}
		x, ok := p.clauseExpr()
		if !ok {
			return false
		}
		c.Arg = x
		return p.close()

	case ast.ClauseWait:
		if !p.match(TokenLeftParen) {
			return true
		}
		args, ok := p.exprList()
		c.Args = args
		return ok

	case ast.ClauseDefault:
		if !p.open(name) {
			return false
		}
		arg := p.peek()
		switch {
		case arg.IsWord() && arg.Lexeme == "none":
			c.Default = ast.DefaultNone
		case arg.IsWord() && arg.Lexeme == "present":
			c.Default = ast.DefaultPresent
		default:
			p.errorf(arg.Span(), "expected 'none' or 'present' in OpenACC clause 'default'")
			return false
		}
		p.advance()
		return p.close()

	case ast.ClauseReduction:
		if !p.open(name) {
			return false
		}
		op, ok := p.reductionOp()
		if !ok {
			return false
		}
		c.Op = op
		if err := p.expectErr(TokenColon); err != nil {
			p.report(err)
			return false
		}
		vars, ok := p.exprList()
		c.Vars = vars
		return ok

	case ast.ClausePrivate, ast.ClauseFirstPrivate, ast.ClauseShared, ast.ClauseCopy,
		ast.ClauseCopyIn, ast.ClauseCopyOut, ast.ClauseCreate, ast.ClauseDelete,
		ast.ClausePresent, ast.ClauseNoCreate, ast.ClauseSelf, ast.ClauseHost,
		ast.ClauseDevice:
		if !p.open(name) {
			return false
		}
		vars, ok := p.exprList()
		c.Vars = vars
		return ok
	}
	// Clauses without arguments.
	if p.check(TokenLeftParen) {
		p.errorf(p.peek().Span(), "OpenACC clause '%s' does not take arguments", name.Lexeme)
		return false
	}
	return true
}

func (p *Parser) reductionOp() (ast.ReductionOp, bool) {
	tok := p.peek()
	text := tok.Lexeme
	switch tok.Kind {
	case TokenPlus, TokenStar, TokenAmpersand, TokenPipe, TokenCaret, TokenAmpAmp, TokenPipePipe:
	case TokenIdent:
		if text != "max" && text != "min" {
			text = ""
		}
	default:
		text = ""
	}
	op, ok := ast.ParseReductionOp(text)
	if text == "" || !ok {
		p.errorf(tok.Span(), "invalid reduction operator '%s'", tok.Lexeme)
		return ast.RedAdd, false
	}
	p.advance()
	return op, true
}

func (p *Parser) open(name Token) bool {
	if !p.match(TokenLeftParen) {
		p.errorf(p.peek().Span(), "expected '(' after '%s'", name.Lexeme)
		return false
	}
	return true
}

func (p *Parser) close() bool {
	if err := p.expectErr(TokenRightParen); err != nil {
		p.report(err)
		return false
	}
	return true
}

func (p *Parser) clauseExpr() (ast.Expr, bool) {
	if p.check(TokenRightParen) || p.isAtEnd() {
		p.errorf(p.peek().Span(), "expected expression")
		return nil, false
	}
	x, err := p.assignment()
	if err != nil {
		p.report(err)
		return nil, false
	}
	return x, true
}

// exprList parses "e, e, ...)" after an opening paren.
func (p *Parser) exprList() ([]ast.Expr, bool) {
	var out []ast.Expr
	for {
		x, ok := p.clauseExpr()
		if !ok {
			return nil, false
		}
		out = append(out, x)
		if !p.match(TokenComma) {
			break
		}
	}
	return out, p.close()
}

// skipArgs skips a balanced parenthesized argument list if one follows.
func (p *Parser) skipArgs() {
	if !p.check(TokenLeftParen) {
		return
	}
	depth := 0
	for !p.isAtEnd() {
		switch p.advance().Kind {
		case TokenLeftParen:
			depth++
		case TokenRightParen:
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

// skipClause skips to the next comma or clause name at paren depth zero.
func (p *Parser) skipClause() {
	depth := 0
	for !p.isAtEnd() {
		tok := p.peek()
		switch {
		case tok.Kind == TokenLeftParen:
			depth++
		case tok.Kind == TokenRightParen:
			if depth > 0 {
				depth--
			}
		case depth == 0 && tok.Kind == TokenComma:
			return
		case depth == 0 && tok.IsWord():
			if _, ok := clauseNames[tok.Lexeme]; ok {
				return
			}
		}
		p.advance()
	}
}

// checkClauses enforces clause multiplicity and directive-level clause
// requirements.
func (p *Parser) checkClauses(dir *ast.Directive) {
	seen := make(map[ast.ClauseKind]*ast.Clause)
	for _, c := range dir.Clauses {
		if _, dup := seen[c.Kind]; dup && singleUse[c.Kind] {
			p.errorf(c.Span, "directive '%s' cannot contain more than one '%s' clause", dir.Spelling(), c.Name())
			continue
		}
		seen[c.Kind] = c
	}
	for _, pair := range conflicts {
		a, b := seen[pair[0]], seen[pair[1]]
		if a == nil || b == nil {
			continue
		}
		later, earlier := b, a
		if b.Span.Start.Before(a.Span.Start) {
			later, earlier = a, b
		}
		p.errorf(later.Span, "OpenACC clause '%s' conflicts with clause '%s' in directive '%s'",
			later.Name(), earlier.Name(), dir.Spelling())
	}

	switch dir.Kind {
	case ast.DirRoutine:
		var levels []*ast.Clause
		for _, c := range dir.Clauses {
			if _, ok := ast.LevelOf(c.Kind); ok {
				levels = append(levels, c)
			}
		}
		switch {
		case len(levels) == 0:
			p.errorf(dir.Span, "'%s' requires a gang, worker, vector, or seq clause", dir.Spelling())
		case len(levels) > 1 && levels[0].Kind != levels[1].Kind:
			p.errorf(levels[1].Span, "OpenACC clause '%s' conflicts with clause '%s' in directive '%s'",
				levels[1].Name(), levels[0].Name(), dir.Spelling())
		}
	case ast.DirData, ast.DirEnterData, ast.DirExitData:
		if !hasClause(dir, ast.ClauseKind.IsDataMapping) {
			p.errorf(dir.Span, "expected at least one data clause for '%s'", dir.Spelling())
		}
	case ast.DirUpdate:
		if !hasClause(dir, ast.ClauseKind.IsMotion) {
			p.errorf(dir.Span, "expected at least one data clause for '%s'", dir.Spelling())
		}
	}
}

func hasClause(dir *ast.Directive, pred func(ast.ClauseKind) bool) bool {
	for _, c := range dir.Clauses {
		if pred(c.Kind) {
			return true
		}
	}
	return false
}
