package eval

import (
	"log/slog"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/rocket/internal/highlight"
	"git.home.luguber.info/inful/rocket/internal/markdown"
	"git.home.luguber.info/inful/rocket/internal/page"
	"git.home.luguber.info/inful/rocket/internal/parser"
	"git.home.luguber.info/inful/rocket/internal/rocketerr"
)

// Worker is the per-thread half of the interpreter. A build goroutine
// creates one Worker and reuses it across pages, calling Reset between
// them. Nothing in a Worker is shared.
type Worker struct {
	ev *Evaluator

	Parser      *parser.Parser
	Highlighter *highlight.Highlighter
	Markdown    *markdown.Renderer

	slug    page.Slug
	slugSet bool

	// Current heading nesting depth on the page being evaluated.
	level int

	// Lexically scoped bindings. let and define shadow and restore
	// entries here; define-template registers directives here.
	ctx map[string]*StoredValue

	// ThemeConfig accumulates theme-config values for the current page.
	ThemeConfig map[string]any

	pageErr error
}

// NewWorker creates a worker bound to the shared evaluator.
func NewWorker(ev *Evaluator) *Worker {
	return &Worker{
		ev:          ev,
		Parser:      parser.New(),
		Highlighter: highlight.New(ev.syntaxTheme),
		Markdown:    markdown.New(),
		ctx:         make(map[string]*StoredValue),
		ThemeConfig: make(map[string]any),
	}
}

// Reset clears all per-page state so the worker can take the next page.
func (w *Worker) Reset() {
	w.slugSet = false
	w.level = 0
	w.ctx = make(map[string]*StoredValue)
	w.ThemeConfig = make(map[string]any)
	w.pageErr = nil
}

// SetSlug tells the worker which page it is evaluating. Must be called
// before Evaluate on any tree containing headings or references.
func (w *Worker) SetSlug(s page.Slug) {
	w.slug = s
	w.slugSet = true
}

// Slug returns the current page slug.
func (w *Worker) Slug() page.Slug {
	return w.slug
}

// PageErr reports the first page-fatal error hit while evaluating the
// current page, if any.
func (w *Worker) PageErr() error {
	return w.pageErr
}

// failPage records a page-fatal error. Evaluation continues so later
// diagnostics still surface, but the page must not be emitted.
func (w *Worker) failPage(err error) {
	if w.pageErr == nil {
		w.pageErr = err
	}
	slog.Error("page failed", "slug", w.slug.String(), "error", err)
}

// logError reports a recoverable evaluation problem with source
// position, without failing the page.
func (w *Worker) logError(n *parser.Node, msg string, args ...any) {
	attrs := []any{"path", w.Parser.Path(n.FileID), "line", n.Line}
	attrs = append(attrs, args...)
	slog.Error(msg, attrs...)
}

// Evaluate renders a node to its output string. Text nodes pass
// through; a block's first child names the directive or variable to
// invoke, the remaining children are its arguments.
func (w *Worker) Evaluate(n *parser.Node) string {
	if !n.Block {
		return n.Text
	}
	if len(n.Children) == 0 {
		return ""
	}
	name := w.Evaluate(&n.Children[0])
	return w.invoke(n, name, n.Children[1:])
}

// EvaluateAll evaluates and concatenates a slice of nodes.
func (w *Worker) EvaluateAll(nodes []parser.Node) string {
	var b strings.Builder
	for i := range nodes {
		b.WriteString(w.Evaluate(&nodes[i]))
	}
	return b.String()
}

// invoke resolves name against the local context first, then the shared
// prelude. Local bindings shadow prelude directives.
func (w *Worker) invoke(n *parser.Node, name string, args []parser.Node) string {
	if stored, ok := w.ctx[name]; ok {
		if stored.Directive != nil {
			out, err := stored.Directive.Handle(w, args)
			return w.handleResult(n, name, out, err)
		}
		if stored.Node != nil {
			if len(args) > 0 {
				w.logError(n, "variable invoked with arguments", "name", name)
				return ""
			}
			return w.Evaluate(stored.Node)
		}
		return ""
	}
	if d, ok := w.ev.prelude[name]; ok {
		out, err := d.Handle(w, args)
		return w.handleResult(n, name, out, err)
	}
	w.logError(n, "unknown directive", "name", name)
	return ""
}

// handleResult routes a directive error. Directives signal page-fatal
// conditions by returning a categorized error; anything else is logged
// and evaluation continues with empty output.
func (w *Worker) handleResult(n *parser.Node, name string, out string, err error) string {
	if err != nil {
		var rerr *rocketerr.Error
		if rocketerr.As(err, &rerr) {
			w.failPage(rerr.WithSource(w.Parser.Path(n.FileID), n.Line))
			return ""
		}
		w.logError(n, "directive failed", "name", name, "error", err)
		return ""
	}
	return out
}

// handleHeading emits the section transition for a heading of the given
// level relative to the current nesting depth. Deepening always goes one
// step at a time.
func (w *Worker) handleHeading(level int) (string, error) {
	switch {
	case level == w.level+1:
		w.level = level
		return "<section>", nil
	case level == w.level:
		return "", nil
	case level < w.level:
		closed := strings.Repeat("</section>", w.level-level)
		w.level = level
		return closed, nil
	default:
		return "", rocketerr.Newf(rocketerr.CategoryHeading,
			"heading level jumped from %d to %d", w.level, level)
	}
}

// CloseSections closes every section still open at the end of a page.
func (w *Worker) CloseSections() string {
	out := strings.Repeat("</section>", w.level)
	w.level = 0
	return out
}

// Placeholder records a pending reference and returns its marker.
func (w *Worker) Placeholder(refID string, action PlaceholderAction) string {
	return w.ev.placeholder(refID, action)
}

// InsertRefDef registers a reference target owned by the current page.
func (w *Worker) InsertRefDef(id, title string) {
	w.ev.InsertRefDef(id, RefDef{Title: title, Slug: w.slug})
}

// AddToTocTree records child as a toctree entry under the current page.
// An empty title is filled from the child's extracted title during
// TocTree.Finish.
func (w *Worker) AddToTocTree(child page.Slug, title string) {
	w.ev.Toc.Add(w.slug, child, title)
}

// AddAsset returns the page-relative path of a static asset.
func (w *Worker) AddAsset(src string) string {
	return w.slug.RelativeRoot(w.ev.prettyURL) + "_static/" + src
}

// resolveSourcePath resolves a path used in markup (include, import)
// relative to the file the node came from. Absolute paths are taken
// as-is.
func (w *Worker) resolveSourcePath(n *parser.Node, rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	base := w.Parser.Path(n.FileID)
	if base == "" {
		return rel
	}
	dir := base
	if idx := strings.LastIndexByte(dir, '/'); idx >= 0 {
		dir = dir[:idx]
	} else {
		return rel
	}
	return dir + "/" + rel
}

// bind installs a stored value under name and returns a restore func
// reinstating whatever was bound before, for lexical shadowing.
func (w *Worker) bind(name string, v *StoredValue) func() {
	prev, had := w.ctx[name]
	w.ctx[name] = v
	return func() {
		if had {
			w.ctx[name] = prev
		} else {
			delete(w.ctx, name)
		}
	}
}
