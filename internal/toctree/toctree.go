// Package toctree maintains the document hierarchy declared by toctree
// directives and renders it as nested navigation HTML.
package toctree

import (
	"fmt"
	"strings"
	"sync"

	"git.home.luguber.info/inful/rocket/internal/page"
)

// Entry is one parent→child edge. Title is empty until given explicitly
// by the directive or fixed during Finish.
type Entry struct {
	Slug  page.Slug
	Title string
}

// TocTree records parent→child edges during the build phase and renders
// navigation lists during the link phase. Add may be called from many
// workers at once; Finish must be called exactly once, after all pages
// have been evaluated and before any rendering.
type TocTree struct {
	mu        sync.RWMutex
	children  map[string][]Entry
	parents   map[string][]string
	prettyURL bool

	cacheMu sync.Mutex
	cache   map[string]string
}

func New(prettyURL bool) *TocTree {
	return &TocTree{
		children:  make(map[string][]Entry),
		parents:   make(map[string][]string),
		prettyURL: prettyURL,
		cache:     make(map[string]string),
	}
}

// Add registers child under parent, with an optional explicit title.
func (t *TocTree) Add(parent, child page.Slug, title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.children[parent.String()] = append(t.children[parent.String()], Entry{Slug: child, Title: title})
	t.parents[child.String()] = append(t.parents[child.String()], parent.String())
}

// Finish fixes the title of every entry that was not given one
// explicitly, using the extracted titles accumulated by the build phase.
func (t *TocTree) Finish(titles map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for parent, entries := range t.children {
		for i := range entries {
			if entries[i].Title == "" {
				entries[i].Title = titles[entries[i].Slug.String()]
			}
		}
		t.children[parent] = entries
	}
}

// isAncestor reports whether ancestor appears on some parent chain of
// slug (a slug is its own ancestor).
func (t *TocTree) isAncestor(slug, ancestor string) bool {
	seen := make(map[string]bool)
	var walk func(string) bool
	walk = func(cur string) bool {
		if cur == ancestor {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
		for _, p := range t.parents[cur] {
			if walk(p) {
				return true
			}
		}
		return false
	}
	return walk(slug)
}

// GenerateHTML renders the subtree rooted at root as a nested list,
// marking the chain of ancestors of current as "current".
func (t *TocTree) GenerateHTML(root, current page.Slug) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entries := t.children[root.String()]
	if len(entries) == 0 {
		return "", fmt.Errorf("toctree: no entries under %q", root.String())
	}
	return t.subtreeHTML(current, 1, entries), nil
}

func (t *TocTree) subtreeHTML(current page.Slug, level int, entries []Entry) string {
	var b strings.Builder
	b.WriteString("<ul>")
	for _, e := range entries {
		onPath := t.isAncestor(current.String(), e.Slug.String())
		marker := ""
		if onPath {
			marker = " current"
		}

		title := e.Title
		if title == "" {
			title = e.Slug.String()
		}
		fmt.Fprintf(&b, `<li class="toctree-l%d%s"><a class="reference internal%s" href="%s">%s</a>`,
			level, marker, marker, current.PathTo(e.Slug, t.prettyURL), title)

		if children := t.children[e.Slug.String()]; len(children) > 0 {
			b.WriteString(t.childrenHTML(current, level+1, children, onPath))
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
	return b.String()
}

// childrenHTML renders one sibling list, memoized. The cache is bypassed
// on the path from the tree root to the current page, since the
// "current" marking differs per render there; everything else renders
// identically for pages at the same depth, so the cache key is the depth
// prefix plus the ordered slug list.
func (t *TocTree) childrenHTML(current page.Slug, level int, children []Entry, onPath bool) string {
	if onPath {
		return t.subtreeHTML(current, level, children)
	}

	var key strings.Builder
	fmt.Fprintf(&key, "%d|%s", level, current.RelativeRoot(t.prettyURL))
	for _, c := range children {
		key.WriteByte(' ')
		key.WriteString(c.Slug.String())
	}

	t.cacheMu.Lock()
	cached, ok := t.cache[key.String()]
	t.cacheMu.Unlock()
	if ok {
		return cached
	}

	html := t.subtreeHTML(current, level, children)
	t.cacheMu.Lock()
	t.cache[key.String()] = html
	t.cacheMu.Unlock()
	return html
}
