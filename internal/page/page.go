// Package page holds the Slug and Page types shared by the build and
// link phases.
package page

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

// Slug is a normalized logical page path with no extension, always using
// forward slashes. It derives output paths and relative links.
type Slug struct {
	value string
}

func NewSlug(v string) Slug {
	return Slug{value: strings.TrimPrefix(filepath.ToSlash(v), "./")}
}

func (s Slug) String() string {
	return s.value
}

// OutputPath derives the on-disk output file for this slug, rooted at
// prefix. Pretty URLs place each page in its own directory except for
// the root index.
func (s Slug) OutputPath(prefix string, prettyURL bool) string {
	p := filepath.Join(prefix, filepath.FromSlash(s.value))
	if prettyURL && s.value != "index" {
		p = filepath.Join(p, "index")
	}
	return p + ".html"
}

// Depth is the number of path separators, adjusted for pretty-URL mode,
// where every page except the root index lives one directory deeper.
func (s Slug) Depth(prettyURL bool) int {
	d := strings.Count(s.value, "/")
	if prettyURL && s.value != "index" {
		d++
	}
	return d
}

// RelativeRoot returns the "../" prefix that leads from this page's
// output location back to the output root.
func (s Slug) RelativeRoot(prettyURL bool) string {
	return strings.Repeat("../", s.Depth(prettyURL))
}

// PathTo computes the relative path from this page to dest. Every
// generated hyperlink goes through here.
func (s Slug) PathTo(dest Slug, prettyURL bool) string {
	if prettyURL {
		return s.RelativeRoot(prettyURL) + dest.value
	}
	return s.RelativeRoot(prettyURL) + dest.value + ".html"
}

// Page is the product of the build phase for one source file. Its body
// still contains placeholder markers; the link phase resolves them into
// a new string and renders the final template.
type Page struct {
	SourcePath  string
	Slug        Slug
	Body        string
	ThemeConfig map[string]any
}

// Title returns the page title accumulated during evaluation, falling
// back to "Untitled".
func (p *Page) Title() string {
	v, ok := p.ThemeConfig["title"]
	if !ok {
		return "Untitled"
	}
	if s, ok := v.(string); ok {
		return s
	}
	if raw, err := json.Marshal(v); err == nil {
		return string(raw)
	}
	return "Untitled"
}
