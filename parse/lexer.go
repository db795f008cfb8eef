// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package parse

import (
	"fmt"
	"strings"

	"github.com/gogpu/acc2omp/ast"
)

// Lexer tokenizes C source. Preprocessor lines are returned whole as
// TokenPragma or TokenHashLine tokens.
type Lexer struct {
	source    string
	pos       int
	line      int
	column    int
	start     int
	startLine int
	startCol  int
	base      int
	lineStart bool
	tokens    []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string) *Lexer {
	return NewLexerAt(source, ast.Position{Line: 1, Column: 1})
}

// NewLexerAt creates a lexer whose first character sits at pos. It is used
// to tokenize directive text in place.
func NewLexerAt(source string, pos ast.Position) *Lexer {
	est := len(source) / 5
	if est < 16 {
		est = 16
	}
	return &Lexer{
		source:    source,
		line:      pos.Line,
		column:    pos.Column,
		base:      pos.Offset,
		lineStart: pos.Column == 1,
		tokens:    make([]Token, 0, est),
	}
}

// Tokenize returns all tokens from the source.
func (l *Lexer) Tokenize() ([]Token, error) {
	for !l.isAtEnd() {
		l.start = l.pos
		l.startLine = l.line
		l.startCol = l.column
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}

	l.tokens = append(l.tokens, Token{
		Kind:   TokenEOF,
		Line:   l.line,
		Column: l.column,
		Offset: l.base + l.pos,
	})
	return l.tokens, nil
}

func (l *Lexer) scanToken() error {
	r := l.advance()

	switch r {
	case '#':
		if l.lineStart {
			l.preprocessorLine()
			return nil
		}
		l.addToken(TokenError)
	case '(':
		l.addToken(TokenLeftParen)
	case ')':
		l.addToken(TokenRightParen)
	case '{':
		l.addToken(TokenLeftBrace)
	case '}':
		l.addToken(TokenRightBrace)
	case '[':
		l.addToken(TokenLeftBracket)
	case ']':
		l.addToken(TokenRightBracket)
	case ',':
		l.addToken(TokenComma)
	case ':':
		l.addToken(TokenColon)
	case ';':
		l.addToken(TokenSemicolon)
	case '?':
		l.addToken(TokenQuestion)
	case '~':
		l.addToken(TokenTilde)
	case '.':
		if isDigit(l.peek()) {
			l.number()
		} else {
			l.addToken(TokenDot)
		}
	case '%':
		l.addPair('=', TokenPercentEqual, TokenPercent)
	case '^':
		l.addPair('=', TokenCaretEqual, TokenCaret)
	case '=':
		l.addPair('=', TokenEqualEqual, TokenEqual)
	case '!':
		l.addPair('=', TokenBangEqual, TokenBang)
	case '*':
		l.addPair('=', TokenStarEqual, TokenStar)
	case '+':
		switch {
		case l.match('+'):
			l.addToken(TokenPlusPlus)
		case l.match('='):
			l.addToken(TokenPlusEqual)
		default:
			l.addToken(TokenPlus)
		}
	case '-':
		switch {
		case l.match('-'):
			l.addToken(TokenMinusMinus)
		case l.match('='):
			l.addToken(TokenMinusEqual)
		case l.match('>'):
			l.addToken(TokenArrow)
		default:
			l.addToken(TokenMinus)
		}
	case '/':
		switch {
		case l.match('/'):
			for l.peek() != '\n' && !l.isAtEnd() {
				l.advance()
			}
		case l.match('*'):
			return l.blockComment()
		case l.match('='):
			l.addToken(TokenSlashEqual)
		default:
			l.addToken(TokenSlash)
		}
	case '<':
		switch {
		case l.match('<'):
			l.addPair('=', TokenLessLessEqual, TokenLessLess)
		case l.match('='):
			l.addToken(TokenLessEqual)
		default:
			l.addToken(TokenLess)
		}
	case '>':
		switch {
		case l.match('>'):
			l.addPair('=', TokenGreaterGreaterEqual, TokenGreaterGreater)
		case l.match('='):
			l.addToken(TokenGreaterEqual)
		default:
			l.addToken(TokenGreater)
		}
	case '&':
		switch {
		case l.match('&'):
			l.addToken(TokenAmpAmp)
		case l.match('='):
			l.addToken(TokenAmpEqual)
		default:
			l.addToken(TokenAmpersand)
		}
	case '|':
		switch {
		case l.match('|'):
			l.addToken(TokenPipePipe)
		case l.match('='):
			l.addToken(TokenPipeEqual)
		default:
			l.addToken(TokenPipe)
		}
	case '\'':
		l.quoted('\'', TokenCharLiteral)
	case '"':
		l.quoted('"', TokenStringLiteral)

	// Whitespace
	case ' ', '\r', '\t', '\f', '\v':
	case '\n':
		l.newline()
	case '\\':
		// Line splice outside a directive.
		if l.peek() == '\n' {
			l.advance()
			l.newline()
			return nil
		}
		l.addToken(TokenError)

	default:
		switch {
		case isDigit(r):
			l.number()
		case isAlpha(r) || r == '_':
			l.identifier()
		default:
			l.addToken(TokenError)
		}
	}
	return nil
}

func (l *Lexer) newline() {
	l.line++
	l.column = 1
	l.lineStart = true
}

// preprocessorLine reads a # line including backslash continuations. The
// lexeme is the line with continuations joined by a space.
func (l *Lexer) preprocessorLine() {
	var sb strings.Builder
	sb.WriteByte('#')
	for !l.isAtEnd() && l.peek() != '\n' {
		if l.peek() == '\\' && l.peekNext() == '\n' {
			l.advance()
			l.advance()
			l.line++
			l.column = 1
			sb.WriteByte(' ')
			continue
		}
		c := l.advance()
		sb.WriteByte(c)
	}
	text := strings.TrimRight(sb.String(), " \t\r")
	kind := TokenHashLine
	if isPragma(text) {
		kind = TokenPragma
	}
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: text,
		Line:   l.startLine,
		Column: l.startCol,
		Offset: l.base + l.start,
	})
	l.lineStart = false
}

func isPragma(text string) bool {
	rest := strings.TrimLeft(text[1:], " \t")
	if !strings.HasPrefix(rest, "pragma") {
		return false
	}
	rest = rest[len("pragma"):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

func (l *Lexer) blockComment() error {
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return nil
		}
		if l.advance() == '\n' {
			l.line++
			l.column = 1
		}
	}
	return fmt.Errorf("%d:%d: unterminated comment", l.startLine, l.startCol)
}

func (l *Lexer) quoted(quote byte, kind TokenKind) {
	for !l.isAtEnd() && l.peek() != quote && l.peek() != '\n' {
		if l.peek() == '\\' {
			l.advance()
		}
		if !l.isAtEnd() {
			l.advance()
		}
	}
	if l.peek() != quote {
		l.addToken(TokenError)
		return
	}
	l.advance()
	l.addToken(kind)
}

func (l *Lexer) number() {
	if l.source[l.start] == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.advance()
		for isHexDigit(l.peek()) {
			l.advance()
		}
		l.intSuffix()
		l.addToken(TokenIntLiteral)
		return
	}

	isFloat := l.source[l.start] == '.'
	for isDigit(l.peek()) {
		l.advance()
	}
	if !isFloat && l.peek() == '.' {
		isFloat = true
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		isFloat = true
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if isFloat {
		if p := l.peek(); p == 'f' || p == 'F' || p == 'l' || p == 'L' {
			l.advance()
		}
		l.addToken(TokenFloatLiteral)
		return
	}
	l.intSuffix()
	l.addToken(TokenIntLiteral)
}

func (l *Lexer) intSuffix() {
	for {
		switch l.peek() {
		case 'u', 'U', 'l', 'L':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) identifier() {
	for isAlphaNumeric(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	text := l.source[l.start:l.pos]
	if kind, ok := keywords[text]; ok {
		l.addToken(kind)
		return
	}
	l.addToken(TokenIdent)
}

var keywords = map[string]TokenKind{
	"auto":     TokenAuto,
	"bool":     TokenBool,
	"break":    TokenBreak,
	"char":     TokenChar,
	"continue": TokenContinue,
	"do":       TokenDo,
	"double":   TokenDouble,
	"else":     TokenElse,
	"false":    TokenFalse,
	"float":    TokenFloat,
	"for":      TokenFor,
	"if":       TokenIf,
	"int":      TokenInt,
	"long":     TokenLong,
	"return":   TokenReturn,
	"static":   TokenStatic,
	"struct":   TokenStruct,
	"template": TokenTemplate,
	"true":     TokenTrue,
	"typename": TokenTypename,
	"unsigned": TokenUnsigned,
	"void":     TokenVoid,
	"while":    TokenWhile,
}

func (l *Lexer) addPair(next byte, two, one TokenKind) {
	if l.match(next) {
		l.addToken(two)
	} else {
		l.addToken(one)
	}
}

func (l *Lexer) addToken(kind TokenKind) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.pos],
		Line:   l.startLine,
		Column: l.startCol,
		Offset: l.base + l.start,
	})
	l.lineStart = false
}

func (l *Lexer) advance() byte {
	c := l.source[l.pos]
	l.pos++
	l.column++
	return c
}

func (l *Lexer) match(expected byte) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}
