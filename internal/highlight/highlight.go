// Package highlight is the syntax highlighting facade used by the code
// directive.
package highlight

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultSyntaxTheme is used when the project configuration does not
// name a style.
const DefaultSyntaxTheme = "github"

// Highlighter renders source snippets as standalone HTML with inline
// styles. One Highlighter belongs to a single worker.
type Highlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

func New(styleName string) *Highlighter {
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	return &Highlighter{
		style:     style,
		formatter: chromahtml.New(chromahtml.WithClasses(false)),
	}
}

// Highlight renders code in the named language. An unknown language is
// an error; the caller decides whether to degrade to escaped text.
func (h *Highlighter) Highlight(language, code string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		return "", fmt.Errorf("no syntax definition for language %q", language)
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenize %s snippet: %w", language, err)
	}

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, it); err != nil {
		return "", fmt.Errorf("format %s snippet: %w", language, err)
	}
	return buf.String(), nil
}
