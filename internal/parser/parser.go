// Package parser builds a Node tree from a Rocket token stream.
//
// Parsing runs a stack of handler states. A rocket state accumulates
// literal text into a "concat" invocation; an expression state parses
// whitespace-separated arguments. The states are a tagged variant rather
// than an interface so that transitions can be tested in isolation and
// dispatch stays static.
package parser

import (
	"fmt"
	"os"
	"strings"

	"git.home.luguber.info/inful/rocket/internal/lexer"
)

type stateKind int

const (
	stateRocket stateKind = iota
	stateExpression
)

type parseState struct {
	kind   stateKind
	depth  int
	nodes  []Node
	fileID FileID
	line   int

	// rocket text accumulation
	buffer []string

	// expression argument assembly
	quote            strings.Builder
	inQuote          bool
	quoteShouldMerge bool
	newNode          bool
}

// stackRequest is the outcome of handling one token: push a new state,
// pop n finished states, or neither.
type stackRequest struct {
	pop  int
	push *parseState
}

func newRocketState(depth int, id FileID, line int) *parseState {
	return &parseState{
		kind:   stateRocket,
		depth:  depth,
		nodes:  []Node{NewText("concat", id, line)},
		fileID: id,
		line:   line,
	}
}

func newExpressionState(depth int, id FileID, line int) *parseState {
	return &parseState{
		kind:    stateExpression,
		depth:   depth,
		fileID:  id,
		line:    line,
		newNode: true,
	}
}

func (s *parseState) handleToken(tok lexer.Token) stackRequest {
	if s.kind == stateRocket {
		return s.handleRocketToken(tok)
	}
	return s.handleExpressionToken(tok)
}

func (s *parseState) handleRocketToken(tok lexer.Token) stackRequest {
	switch tok.Kind {
	case lexer.Text:
		s.buffer = append(s.buffer, tok.Text)
	case lexer.Quote:
		s.buffer = append(s.buffer, `"`)
	case lexer.BlockOpen:
		if tok.Depth < s.depth {
			// A shallower fence inside a deeper rocket block is inert
			// literal text. This is the escaping mechanism.
			s.buffer = append(s.buffer, lexer.OpenFence(tok.Depth))
		} else {
			s.flushBuffer(tok.Line)
			return stackRequest{push: newExpressionState(tok.Depth, s.fileID, tok.Line)}
		}
	case lexer.BlockClose:
		s.buffer = append(s.buffer, lexer.CloseFence(tok.Depth))
	case lexer.Rocket:
		s.buffer = append(s.buffer, "=>")
	case lexer.Dedent:
		// Pop both this rocket block and the expression that opened it.
		return stackRequest{pop: 2}
	}
	return stackRequest{}
}

func (s *parseState) handleExpressionToken(tok lexer.Token) stackRequest {
	if s.inQuote {
		switch tok.Kind {
		case lexer.Text:
			s.quote.WriteString(tok.Text)
		case lexer.Quote:
			s.finishQuote(tok.Line)
		case lexer.BlockOpen:
			s.quote.WriteString(lexer.OpenFence(tok.Depth))
		case lexer.BlockClose:
			s.quote.WriteString(lexer.CloseFence(tok.Depth))
		case lexer.Rocket:
			s.quote.WriteString("=>")
		case lexer.Dedent:
		}
		return stackRequest{}
	}

	switch tok.Kind {
	case lexer.Text:
		// Whitespace only separates arguments inside an expression.
		if strings.TrimSpace(tok.Text) == "" {
			s.newNode = true
			s.quoteShouldMerge = false
		} else {
			s.addText(tok.Line, tok.Text)
		}
	case lexer.Quote:
		s.inQuote = true
	case lexer.BlockOpen:
		return stackRequest{push: newExpressionState(tok.Depth, s.fileID, tok.Line)}
	case lexer.Rocket:
		return stackRequest{push: newRocketState(s.depth, s.fileID, tok.Line)}
	case lexer.BlockClose:
		if tok.Depth == s.depth {
			return stackRequest{pop: 1}
		}
		// A closer at the wrong depth is literal closing-fence text.
		s.addText(s.line, lexer.CloseFence(tok.Depth))
	case lexer.Dedent:
		return stackRequest{pop: 1}
	}
	return stackRequest{}
}

// addText appends literal text, merging with an immediately preceding
// literal argument so runs like `a"b"` stay a single argument.
func (s *parseState) addText(line int, text string) {
	s.quoteShouldMerge = true
	if !s.newNode && len(s.nodes) > 0 {
		last := &s.nodes[len(s.nodes)-1]
		if !last.Block {
			last.Text += text
			s.newNode = false
			return
		}
	}
	s.nodes = append(s.nodes, NewText(text, s.fileID, line))
	s.newNode = false
}

func (s *parseState) finishQuote(line int) {
	added := false
	if s.quoteShouldMerge && len(s.nodes) > 0 {
		last := &s.nodes[len(s.nodes)-1]
		if !last.Block {
			last.Text += s.quote.String()
			added = true
		}
	}
	if !added {
		s.nodes = append(s.nodes, NewText(s.quote.String(), s.fileID, line))
	}
	s.quoteShouldMerge = false
	s.inQuote = false
	s.quote.Reset()
}

func (s *parseState) flushBuffer(line int) {
	if len(s.buffer) == 0 {
		return
	}
	s.nodes = append(s.nodes, NewText(strings.Join(s.buffer, ""), s.fileID, line))
	s.buffer = nil
}

func (s *parseState) finish() Node {
	if s.kind == stateRocket {
		s.flushBuffer(s.line)
	}
	return NewBlock(s.nodes, s.fileID, s.line)
}

func (s *parseState) pushNode(n Node) {
	s.nodes = append(s.nodes, n)
}

// Parser parses Rocket source files and remembers which FileID maps to
// which path for diagnostics. A Parser belongs to a single worker and is
// not safe for concurrent use.
type Parser struct {
	fileIDs []string
}

func New() *Parser {
	return &Parser{}
}

// Path returns the source path registered for id, or "" if unknown.
func (p *Parser) Path(id FileID) string {
	if int(id) < len(p.fileIDs) {
		return p.fileIDs[id]
	}
	return ""
}

// ParseString parses data registered under an existing FileID.
func (p *Parser) ParseString(id FileID, data string) (Node, error) {
	stack := []*parseState{newRocketState(0, id, 1)}

	for _, tok := range lexer.Lex(data) {
		req := stack[len(stack)-1].handleToken(tok)
		if req.push != nil {
			stack = append(stack, req.push)
		}
		for i := 0; i < req.pop && len(stack) > 1; i++ {
			finished := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			stack[len(stack)-1].pushNode(finished.finish())
		}
	}

	root := stack[len(stack)-1].finish()
	stack = stack[:len(stack)-1]
	if len(stack) > 0 {
		return Node{}, fmt.Errorf("unterminated block started on line %d", root.Line)
	}
	return root, nil
}

// Parse reads and parses the file at path, registering a new FileID.
func (p *Parser) Parse(path string) (Node, error) {
	id := FileID(len(p.fileIDs))
	p.fileIDs = append(p.fileIDs, path)

	data, err := os.ReadFile(path)
	if err != nil {
		return Node{}, fmt.Errorf("open %s: %w", path, err)
	}
	return p.ParseString(id, string(data))
}
