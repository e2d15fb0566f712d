package parser

import (
	"strings"
	"unicode"
)

// tokenKind classifies lexed tokens.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokHex
	tokPunct // single-character punctuation: ( ) [ ] { } : = . - >
)

// token is a lexed unit with its byte offset in the input.
type token struct {
	kind tokenKind
	text string
	pos  int
}

// isKeyword reports whether the token is the given keyword,
// case-insensitively. Keywords are ordinary identifiers to the lexer.
func (t token) isKeyword(kw string) bool {
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

// isPunct reports whether the token is the given punctuation character.
func (t token) isPunct(ch string) bool {
	return t.kind == tokPunct && t.text == ch
}

// lex splits query text into tokens. The lexer itself cannot fail: any
// character it does not recognize becomes a one-byte punct token that the
// parser then rejects with a positioned error.
func lex(input string) []token {
	var tokens []token
	i := 0
	for i < len(input) {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++

		case isIdentStart(ch):
			start := i
			for i < len(input) && isIdentPart(input[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: input[start:i], pos: start})

		case ch >= '0' && ch <= '9':
			start := i
			// 0x... is a single hex-literal token; plain digit runs are
			// numbers.
			if ch == '0' && i+1 < len(input) && (input[i+1] == 'x' || input[i+1] == 'X') {
				i += 2
				for i < len(input) && isHexDigit(input[i]) {
					i++
				}
				tokens = append(tokens, token{kind: tokHex, text: input[start:i], pos: start})
				break
			}
			for i < len(input) && input[i] >= '0' && input[i] <= '9' {
				i++
			}
			tokens = append(tokens, token{kind: tokNumber, text: input[start:i], pos: start})

		default:
			tokens = append(tokens, token{kind: tokPunct, text: string(ch), pos: i})
			i++
		}
	}
	return tokens
}

func isIdentStart(ch byte) bool {
	return ch == '_' || unicode.IsLetter(rune(ch))
}

func isIdentPart(ch byte) bool {
	return ch == '_' || unicode.IsLetter(rune(ch)) || (ch >= '0' && ch <= '9')
}

func isHexDigit(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
