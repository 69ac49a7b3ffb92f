package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []Token) []Kind {
	out := make([]Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestLexEmpty(t *testing.T) {
	assert.Empty(t, Lex(""))
}

func TestLexSimpleBlock(t *testing.T) {
	tokens := Lex("(:h1 Rocket:)")
	require.Len(t, tokens, 5)

	assert.Equal(t, Token{Kind: BlockOpen, Line: 1, Depth: 1}, tokens[0])
	assert.Equal(t, Token{Kind: Text, Line: 1, Text: "h1"}, tokens[1])
	assert.Equal(t, Token{Kind: Text, Line: 1, Text: " "}, tokens[2])
	assert.Equal(t, Token{Kind: Text, Line: 1, Text: "Rocket"}, tokens[3])
	assert.Equal(t, Token{Kind: BlockClose, Line: 1, Depth: 1}, tokens[4])
}

func TestLexWhitespacePreserved(t *testing.T) {
	input := "a \t\r\fb"
	tokens := Lex(input)
	var joined string
	for _, tok := range tokens {
		joined += tok.Text
	}
	assert.Equal(t, input, joined)
}

func TestLexColonDepth(t *testing.T) {
	tokens := Lex("(:::x:::)")
	require.Len(t, tokens, 3)
	assert.Equal(t, Token{Kind: BlockOpen, Line: 1, Depth: 3}, tokens[0])
	assert.Equal(t, Token{Kind: Text, Line: 1, Text: "x"}, tokens[1])
	assert.Equal(t, Token{Kind: BlockClose, Line: 1, Depth: 3}, tokens[2])
}

func TestLexQuote(t *testing.T) {
	tokens := Lex(`(:h1 "Getting Started":)`)
	assert.Equal(t, []Kind{BlockOpen, Text, Text, Quote, Text, Text, Text, Quote, BlockClose}, kinds(tokens))
}

func TestLexRocketAndDedent(t *testing.T) {
	tokens := Lex("(:code txt =>\n    foo\n:)")
	assert.Equal(t, []Kind{
		BlockOpen, Text, Text, Text, Text, Rocket,
		Text, Text, Dedent, BlockClose,
	}, kinds(tokens))

	// The newline on the rocket line itself is suppressed; the one
	// ending the indented line is not.
	assert.Equal(t, "foo", tokens[6].Text)
	assert.Equal(t, "\n", tokens[7].Text)
	assert.Equal(t, 2, tokens[8].Line)
}

func TestLexRocketRequiresNewline(t *testing.T) {
	// "=>" not followed by a newline is plain text.
	tokens := Lex("a => b")
	for _, tok := range tokens {
		assert.NotEqual(t, Rocket, tok.Kind)
	}
}

func TestLexBlankLineKeepsIndent(t *testing.T) {
	tokens := Lex("(:code txt =>\n    foo\n\n    bar\nx")
	var dedents int
	for _, tok := range tokens {
		if tok.Kind == Dedent {
			dedents++
		}
	}
	assert.Equal(t, 1, dedents, "the blank line must not unwind the indentation stack")
}

func TestLexNestedRocketDedents(t *testing.T) {
	tokens := Lex("(:a =>\n  (:b =>\n    deep\nx")
	var dedents int
	for _, tok := range tokens {
		if tok.Kind == Dedent {
			dedents++
		}
	}
	assert.Equal(t, 2, dedents, "dedenting to column zero unwinds one level per open rocket block")
}

func TestLexDedentsFlushedAtEOF(t *testing.T) {
	tokens := Lex("(:code txt =>\n    foo")
	require.NotEmpty(t, tokens)
	assert.Equal(t, Dedent, tokens[len(tokens)-1].Kind)
}

func TestLexLineNumbers(t *testing.T) {
	tokens := Lex("one\ntwo\nthree")
	last := tokens[len(tokens)-1]
	assert.Equal(t, "three", last.Text)
	assert.Equal(t, 3, last.Line)
}

func TestLexFences(t *testing.T) {
	assert.Equal(t, "(:", OpenFence(1))
	assert.Equal(t, "(:::", OpenFence(3))
	assert.Equal(t, ":)", CloseFence(1))
	assert.Equal(t, ":::)", CloseFence(3))
}

func TestLexBareParenAndColon(t *testing.T) {
	tokens := Lex("a (b) c:d")
	for _, tok := range tokens {
		assert.Equal(t, Text, tok.Kind)
	}
}
