// Package eval interprets parsed Rocket trees. A process-wide Evaluator
// holds everything shared between build threads; each thread owns a
// Worker with the per-page mutable state.
package eval

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/rocket/internal/page"
	"git.home.luguber.info/inful/rocket/internal/parser"
	"git.home.luguber.info/inful/rocket/internal/rocketerr"
	"git.home.luguber.info/inful/rocket/internal/toctree"
)

// PlaceholderAction says what a pending link placeholder resolves to.
type PlaceholderAction int

const (
	// PlaceholderPath resolves to the relative path from the containing
	// page to the referenced page.
	PlaceholderPath PlaceholderAction = iota
	// PlaceholderTitle resolves to the referenced definition's title.
	PlaceholderTitle
)

// PendingLink is one deferred cross-reference, recorded during the build
// phase and resolved during the link phase.
type PendingLink struct {
	Action PlaceholderAction
	RefID  string
}

// RefDef is a registered reference target: the title to display and the
// slug of the page that registered it.
type RefDef struct {
	Title string
	Slug  page.Slug
}

// Directive is a named operation invocable from markup. Handlers receive
// their arguments unevaluated and decide per argument whether to
// evaluate.
type Directive interface {
	Handle(w *Worker, args []parser.Node) (string, error)
}

// StoredValue is a local binding: either a captured node (let/define) or
// a directive registered for the rest of the page (define-template).
type StoredValue struct {
	Node      *parser.Node
	Directive Directive
}

// Evaluator is the shared, process-wide half of the interpreter. The
// directive prelude is populated once, single-threaded, before any
// worker starts, and is read-only thereafter. The reference registry,
// the toctree, and the pending-link list take append-only writes during
// the build phase and read-only access during the link phase.
type Evaluator struct {
	prelude map[string]Directive

	refMu   sync.RWMutex
	refdefs map[string]RefDef

	linkMu  sync.RWMutex
	pending []PendingLink

	Toc *toctree.TocTree

	markerPrefix  string
	markerPattern *regexp.Regexp

	prettyURL   bool
	syntaxTheme string
}

// New creates an Evaluator with an empty prelude. The placeholder marker
// prefix is process-random so markers cannot collide with page content.
func New(prettyURL bool, syntaxTheme string) *Evaluator {
	prefix := uuid.NewString()
	return &Evaluator{
		prelude:       make(map[string]Directive),
		refdefs:       make(map[string]RefDef),
		Toc:           toctree.New(prettyURL),
		markerPrefix:  prefix,
		markerPattern: regexp.MustCompile("\x00" + regexp.QuoteMeta(prefix) + `:(\d+)\x00`),
		prettyURL:     prettyURL,
		syntaxTheme:   syntaxTheme,
	}
}

// RegisterPrelude adds a directive to the shared prelude. Not safe to
// call once workers are running.
func (e *Evaluator) RegisterPrelude(name string, d Directive) {
	e.prelude[name] = d
}

// InsertRefDef registers a reference target.
func (e *Evaluator) InsertRefDef(id string, def RefDef) {
	e.refMu.Lock()
	defer e.refMu.Unlock()
	e.refdefs[id] = def
}

// LookupRefDef resolves a reference id; used by tests and the link
// phase.
func (e *Evaluator) LookupRefDef(id string) (RefDef, bool) {
	e.refMu.RLock()
	defer e.refMu.RUnlock()
	def, ok := e.refdefs[id]
	return def, ok
}

// placeholder appends a pending link and returns its opaque marker.
func (e *Evaluator) placeholder(refID string, action PlaceholderAction) string {
	e.linkMu.Lock()
	index := len(e.pending)
	e.pending = append(e.pending, PendingLink{Action: action, RefID: refID})
	e.linkMu.Unlock()
	return fmt.Sprintf("\x00%s:%d\x00", e.markerPrefix, index)
}

// Substitute resolves every placeholder marker in p's body against the
// now-complete reference registry, returning a new string. A marker
// whose refid was never registered is an undefined-reference error for
// this page.
func (e *Evaluator) Substitute(p *page.Page) (string, error) {
	e.linkMu.RLock()
	defer e.linkMu.RUnlock()
	e.refMu.RLock()
	defer e.refMu.RUnlock()

	var substErr error
	resolved := e.markerPattern.ReplaceAllStringFunc(p.Body, func(marker string) string {
		submatch := e.markerPattern.FindStringSubmatch(marker)
		index, err := strconv.Atoi(submatch[1])
		if err != nil || index >= len(e.pending) {
			substErr = rocketerr.Newf(rocketerr.CategoryLink, "malformed placeholder marker %q", marker)
			return marker
		}

		entry := e.pending[index]
		def, ok := e.refdefs[entry.RefID]
		if !ok {
			substErr = rocketerr.Newf(rocketerr.CategoryLink, "undefined reference %q", entry.RefID)
			return marker
		}

		switch entry.Action {
		case PlaceholderTitle:
			return def.Title
		default:
			return p.Slug.PathTo(def.Slug, e.prettyURL)
		}
	})
	if substErr != nil {
		return "", substErr
	}
	return resolved, nil
}
