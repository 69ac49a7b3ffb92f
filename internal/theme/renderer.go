package theme

import (
	"log/slog"
	"strings"

	"github.com/aymerick/raymond"
	xhtml "golang.org/x/net/html"

	"git.home.luguber.info/inful/rocket/internal/page"
	"git.home.luguber.info/inful/rocket/internal/rocketerr"
	"git.home.luguber.info/inful/rocket/internal/toctree"
)

// Renderer renders linked pages through the theme's templates. Every
// template receives the fixed variable contract: "page" (the page's
// theme configuration), "project" (project constants), "theme" (theme
// constants), and "body" (the resolved page HTML, unescaped), plus the
// "toctree" and "striptags" helpers.
type Renderer struct {
	theme   *Theme
	toc     *toctree.TocTree
	project map[string]any
}

// NewRenderer binds the theme's templates to a finalized toctree and the
// project constants. Helpers are registered here, once, before the link
// phase runs its worker pool.
func NewRenderer(theme *Theme, toc *toctree.TocTree, project map[string]any) *Renderer {
	r := &Renderer{theme: theme, toc: toc, project: project}
	for _, tpl := range theme.templates {
		tpl.RegisterHelper("toctree", r.toctreeHelper)
		tpl.RegisterHelper("striptags", StripTags)
	}
	return r
}

// Render produces the final HTML for pg using the named template.
func (r *Renderer) Render(templateName string, pg *page.Page, body string) (string, error) {
	tpl, ok := r.theme.templates[templateName]
	if !ok {
		return "", rocketerr.Newf(rocketerr.CategoryTemplate, "no template named %q", templateName)
	}

	ctx := map[string]any{
		"page":    pg.ThemeConfig,
		"project": r.project,
		"theme":   r.theme.Constants,
		"body":    raymond.SafeString(body),
		"slug":    pg.Slug.String(),
	}

	rendered, err := tpl.Exec(ctx)
	if err != nil {
		return "", rocketerr.Wrap(err, rocketerr.CategoryTemplate, "template execution failed")
	}
	return rendered, nil
}

// toctreeHelper renders the navigation subtree rooted at the given slug,
// marking the path to the page currently being rendered. The current
// slug rides along in the render context.
func (r *Renderer) toctreeHelper(root string, options *raymond.Options) raymond.SafeString {
	current, _ := options.Value("slug").(string)
	html, err := r.toc.GenerateHTML(page.NewSlug(root), page.NewSlug(current))
	if err != nil {
		slog.Debug("Empty toctree", "root", root, "error", err)
		return ""
	}
	return raymond.SafeString(html)
}

// StripTags removes HTML tags from s, keeping only text content. Used
// for <title> generation in themes.
func StripTags(s string) string {
	z := xhtml.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return b.String()
		case xhtml.TextToken:
			b.Write(z.Text())
		}
	}
}
