// Package markdown renders embedded Markdown fragments and extracts
// page titles from them.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Renderer wraps a configured Goldmark instance. One Renderer belongs to
// a single worker.
type Renderer struct {
	md goldmark.Markdown
}

func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
}

// Render converts src to HTML and returns the plain text of its first
// level-1 heading, if any, as the extracted title.
func (r *Renderer) Render(src string) (html string, title string, err error) {
	source := []byte(src)
	doc := r.md.Parser().Parse(text.NewReader(source))
	title = extractTitle(doc, source)

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, source, doc); err != nil {
		return "", "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), title, nil
}

func extractTitle(doc gmast.Node, source []byte) string {
	var title string
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok && h.Level == 1 {
			title = string(plainText(h, source))
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return title
}

func plainText(n gmast.Node, source []byte) []byte {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*gmast.Text); ok {
			buf.Write(t.Segment.Value(source))
			continue
		}
		buf.Write(plainText(c, source))
	}
	return buf.Bytes()
}
