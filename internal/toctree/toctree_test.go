package toctree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/rocket/internal/page"
)

func buildTree(t *testing.T) *TocTree {
	t.Helper()
	tree := New(true)
	tree.Add(page.NewSlug("index"), page.NewSlug("guides"), "")
	tree.Add(page.NewSlug("index"), page.NewSlug("reference"), "API Reference")
	tree.Add(page.NewSlug("guides"), page.NewSlug("guides/setup"), "")
	tree.Add(page.NewSlug("guides"), page.NewSlug("guides/deploy"), "")
	tree.Finish(map[string]string{
		"guides":        "Guides",
		"guides/setup":  "Setup",
		"guides/deploy": "Deploy",
	})
	return tree
}

func TestGenerateHTMLEmptyRootErrors(t *testing.T) {
	tree := New(true)
	_, err := tree.GenerateHTML(page.NewSlug("index"), page.NewSlug("index"))
	assert.Error(t, err)
}

func TestFinishFillsTitles(t *testing.T) {
	tree := buildTree(t)
	html, err := tree.GenerateHTML(page.NewSlug("index"), page.NewSlug("index"))
	require.NoError(t, err)

	assert.Contains(t, html, ">Guides</a>")
	assert.Contains(t, html, ">Setup</a>")
	// Explicit titles win over extracted ones.
	assert.Contains(t, html, ">API Reference</a>")
}

func TestCurrentChainMarking(t *testing.T) {
	tree := buildTree(t)
	html, err := tree.GenerateHTML(page.NewSlug("index"), page.NewSlug("guides/setup"))
	require.NoError(t, err)

	assert.Contains(t, html, `<li class="toctree-l1 current"><a class="reference internal current" href="../../guides">Guides</a>`)
	assert.Contains(t, html, `<li class="toctree-l2 current"><a class="reference internal current" href="../../guides/setup">Setup</a>`)
	assert.Contains(t, html, `<li class="toctree-l2"><a class="reference internal" href="../../guides/deploy">Deploy</a>`)
	assert.Contains(t, html, `<li class="toctree-l1"><a class="reference internal" href="../../reference">API Reference</a>`)
}

func TestNestingStructure(t *testing.T) {
	tree := buildTree(t)
	html, err := tree.GenerateHTML(page.NewSlug("index"), page.NewSlug("index"))
	require.NoError(t, err)

	// The guides subtree nests inside the guides list item.
	assert.Equal(t, 2, strings.Count(html, "<ul>"))
	assert.True(t, strings.Index(html, ">Guides</a>") < strings.Index(html, ">Setup</a>"))
}

func TestCacheDoesNotLeakCurrentMarking(t *testing.T) {
	tree := buildTree(t)

	// Render with setup current first so its sibling list lands in the
	// cache, then verify a render for a different page is unaffected.
	_, err := tree.GenerateHTML(page.NewSlug("index"), page.NewSlug("guides/setup"))
	require.NoError(t, err)

	html, err := tree.GenerateHTML(page.NewSlug("index"), page.NewSlug("reference"))
	require.NoError(t, err)
	assert.NotContains(t, html, `toctree-l2 current`)
	assert.Contains(t, html, `<li class="toctree-l1 current"><a class="reference internal current" href="../reference">API Reference</a>`)
}

func TestCacheRespectsDepth(t *testing.T) {
	tree := buildTree(t)

	// Same subtree rendered for pages at different depths must use
	// different relative prefixes.
	deep, err := tree.GenerateHTML(page.NewSlug("index"), page.NewSlug("guides/setup"))
	require.NoError(t, err)
	assert.Contains(t, deep, `href="../../reference"`)

	shallow, err := tree.GenerateHTML(page.NewSlug("index"), page.NewSlug("about"))
	require.NoError(t, err)
	assert.Contains(t, shallow, `href="../reference"`)
}
