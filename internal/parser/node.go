package parser

// FileID identifies a source file registered with a Parser, so nodes can
// stay small while still carrying a diagnostic location.
type FileID uint32

// Node is one element of the concrete syntax tree: either a literal text
// run or a block whose first child names a directive (or a bound
// variable) and whose remaining children are its arguments. Nodes are
// immutable once the parser returns them.
type Node struct {
	Text     string
	Children []Node
	Block    bool
	FileID   FileID
	Line     int
}

// NewText returns a literal text node.
func NewText(text string, id FileID, line int) Node {
	return Node{Text: text, FileID: id, Line: line}
}

// NewBlock returns a block node with the given children.
func NewBlock(children []Node, id FileID, line int) Node {
	return Node{Children: children, Block: true, FileID: id, Line: line}
}
