// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package parse reads C/C++ source with OpenACC directives into an ast.Unit.
package parse

import "github.com/gogpu/acc2omp/ast"

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenError

	// Literals
	TokenIdent
	TokenIntLiteral
	TokenFloatLiteral
	TokenCharLiteral
	TokenStringLiteral

	// Preprocessor lines, lexed whole
	TokenPragma   // #pragma ...
	TokenHashLine // any other # line

	// Operators
	TokenPlus                // +
	TokenMinus               // -
	TokenStar                // *
	TokenSlash               // /
	TokenPercent             // %
	TokenAmpersand           // &
	TokenPipe                // |
	TokenCaret               // ^
	TokenTilde               // ~
	TokenBang                // !
	TokenEqual               // =
	TokenLess                // <
	TokenGreater             // >
	TokenDot                 // .
	TokenComma               // ,
	TokenColon               // :
	TokenSemicolon           // ;
	TokenQuestion            // ?
	TokenArrow               // ->
	TokenPlusPlus            // ++
	TokenMinusMinus          // --
	TokenEqualEqual          // ==
	TokenBangEqual           // !=
	TokenLessEqual           // <=
	TokenGreaterEqual        // >=
	TokenAmpAmp              // &&
	TokenPipePipe            // ||
	TokenLessLess            // <<
	TokenGreaterGreater      // >>
	TokenPlusEqual           // +=
	TokenMinusEqual          // -=
	TokenStarEqual           // *=
	TokenSlashEqual          // /=
	TokenPercentEqual        // %=
	TokenAmpEqual            // &=
	TokenPipeEqual           // |=
	TokenCaretEqual          // ^=
	TokenLessLessEqual       // <<=
	TokenGreaterGreaterEqual // >>=

	// Delimiters
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenLeftBracket  // [
	TokenRightBracket // ]

	// Keywords
	TokenAuto
	TokenBool
	TokenBreak
	TokenChar
	TokenContinue
	TokenDo
	TokenDouble
	TokenElse
	TokenFalse
	TokenFloat
	TokenFor
	TokenIf
	TokenInt
	TokenLong
	TokenReturn
	TokenStatic
	TokenStruct
	TokenTemplate
	TokenTrue
	TokenTypename
	TokenUnsigned
	TokenVoid
	TokenWhile
)

var tokenNames = map[TokenKind]string{
	TokenEOF:           "end of input",
	TokenError:         "invalid character",
	TokenIdent:         "identifier",
	TokenIntLiteral:    "integer literal",
	TokenFloatLiteral:  "floating literal",
	TokenCharLiteral:   "character literal",
	TokenStringLiteral: "string literal",
	TokenPragma:        "pragma",
	TokenHashLine:      "preprocessor line",
	TokenPlus:          "'+'",
	TokenMinus:         "'-'",
	TokenStar:          "'*'",
	TokenSlash:         "'/'",
	TokenAmpersand:     "'&'",
	TokenEqual:         "'='",
	TokenLess:          "'<'",
	TokenGreater:       "'>'",
	TokenDot:           "'.'",
	TokenComma:         "','",
	TokenColon:         "':'",
	TokenSemicolon:     "';'",
	TokenQuestion:      "'?'",
	TokenArrow:         "'->'",
	TokenLeftParen:     "'('",
	TokenRightParen:    "')'",
	TokenLeftBrace:     "'{'",
	TokenRightBrace:    "'}'",
	TokenLeftBracket:   "'['",
	TokenRightBracket:  "']'",
}

// String returns the string representation of the token kind.
func (k TokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	for word, kind := range keywords {
		if kind == k {
			return "'" + word + "'"
		}
	}
	return "token"
}

// Token represents a lexical token.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
	Column int
	Offset int
}

// Pos returns the position of the first character of the token.
func (t Token) Pos() ast.Position {
	return ast.Position{Line: t.Line, Column: t.Column, Offset: t.Offset}
}

// End returns the position just past the token.
func (t Token) End() ast.Position {
	return ast.Position{Line: t.Line, Column: t.Column + len(t.Lexeme), Offset: t.Offset + len(t.Lexeme)}
}

// Span returns the source span of the token.
func (t Token) Span() ast.Span { return ast.Span{Start: t.Pos(), End: t.End()} }

// IsWord reports whether the token is an identifier or a keyword, which is
// how directive and clause names are spelled.
func (t Token) IsWord() bool {
	if t.Kind == TokenIdent {
		return true
	}
	_, ok := keywords[t.Lexeme]
	return ok
}
