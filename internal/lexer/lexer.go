// Package lexer turns raw Rocket markup into a flat token stream.
//
// The lexer never fails: input that does not form a recognized delimiter
// falls through to a plain text run. Balance checking is the parser's job.
package lexer

import (
	"regexp"
	"strings"
)

// Kind discriminates the token variants.
type Kind int

const (
	// Text is a literal run of characters, including single newlines.
	Text Kind = iota
	// BlockOpen is a block delimiter "(:", "(::", "(:::", ... carrying
	// its colon depth.
	BlockOpen
	// BlockClose is a closing delimiter ":)", "::)", ... carrying its
	// colon depth.
	BlockClose
	// Rocket is the "=>" marker at the end of a line, introducing an
	// indented text block.
	Rocket
	// Dedent is emitted once per indentation level unwound when a line
	// is indented less than the innermost open rocket block.
	Dedent
	// Quote is a '"' delimiter.
	Quote
)

// Token is one lexeme plus its 1-based source line.
type Token struct {
	Kind  Kind
	Line  int
	Depth int // colon count, BlockOpen/BlockClose only
	Text  string
}

// OpenFence returns the literal text of a block opener at the given depth.
func OpenFence(depth int) string {
	return "(" + strings.Repeat(":", depth)
}

// CloseFence returns the literal text of a block closer at the given depth.
func CloseFence(depth int) string {
	return strings.Repeat(":", depth) + ")"
}

// Alternatives are tried in order, so ":+\)" wins over a bare colon run
// and "(:+" wins over a literal parenthesis. Every byte of the input is
// covered by some alternative.
var tokenPattern = regexp.MustCompile(`\(:+|:+\)|:+|"|=>|\n *|=|[ \t\r\f]+|[^():="\s]+|[()]`)

// Lex tokenizes data. Indentation is tracked with a stack: a rocket
// marker records the indentation of the following line, and any later
// line indented below a recorded level emits one Dedent per level
// unwound. Blank lines pass through as newline text and leave the
// indentation stack alone.
func Lex(data string) []Token {
	var tokens []Token
	line := 1
	lastStart := 0
	indent := []int{0}
	startRocket := false

	for _, loc := range tokenPattern.FindAllStringIndex(data, -1) {
		start, end := loc[0], loc[1]
		line += strings.Count(data[lastStart:start], "\n")
		lastStart = start
		text := data[start:end]

		switch text[0] {
		case '"':
			tokens = append(tokens, Token{Kind: Quote, Line: line})
		case '\n':
			if !startRocket {
				tokens = append(tokens, Token{Kind: Text, Line: line, Text: "\n"})
			}
			if end < len(data) && data[end] == '\n' {
				// Blank line: no indentation tracking.
				continue
			}
			newIndent := len(text) - 1
			current := indent[len(indent)-1]
			for newIndent < current {
				indent = indent[:len(indent)-1]
				current = indent[len(indent)-1]
				tokens = append(tokens, Token{Kind: Dedent, Line: line})
			}
			if startRocket {
				indent = append(indent, newIndent)
				startRocket = false
			} else if newIndent > current {
				tokens = append(tokens, Token{Kind: Text, Line: line, Text: text[1+current:]})
			}
		case '(':
			if len(text) > 1 {
				tokens = append(tokens, Token{Kind: BlockOpen, Line: line, Depth: len(text) - 1})
			} else {
				tokens = append(tokens, Token{Kind: Text, Line: line, Text: text})
			}
		case ':':
			if text[len(text)-1] == ')' {
				tokens = append(tokens, Token{Kind: BlockClose, Line: line, Depth: len(text) - 1})
			} else {
				tokens = append(tokens, Token{Kind: Text, Line: line, Text: text})
			}
		case '=':
			if end >= len(data) || data[end] != '\n' {
				tokens = append(tokens, Token{Kind: Text, Line: line, Text: text})
			} else if text == "=>" {
				startRocket = true
				tokens = append(tokens, Token{Kind: Rocket, Line: line})
			} else {
				tokens = append(tokens, Token{Kind: Text, Line: line, Text: text})
			}
		default:
			tokens = append(tokens, Token{Kind: Text, Line: line, Text: text})
		}
	}

	for len(indent) > 1 {
		tokens = append(tokens, Token{Kind: Dedent, Line: line})
		indent = indent[:len(indent)-1]
	}

	return tokens
}
