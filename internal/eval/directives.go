package eval

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/rocket/internal/page"
	"git.home.luguber.info/inful/rocket/internal/parser"
	"git.home.luguber.info/inful/rocket/internal/rocketerr"
)

// EscapeString escapes text for use inside HTML attribute values.
func EscapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		switch ch {
		case '"':
			b.WriteString("&#34;")
		case '\'':
			b.WriteString("&#39;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			b.WriteString("&amp;")
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// concatNodes evaluates nodes and joins the results with sep, skipping
// the separator next to empty pieces the way string folding does.
func concatNodes(w *Worker, nodes []parser.Node, sep string) string {
	var result string
	for i := range nodes {
		piece := w.Evaluate(&nodes[i])
		if result == "" {
			result = piece
		} else {
			result = result + sep + piece
		}
	}
	return result
}

// DirectiveFunc adapts a plain function to the Directive interface.
type DirectiveFunc func(w *Worker, args []parser.Node) (string, error)

func (f DirectiveFunc) Handle(w *Worker, args []parser.Node) (string, error) {
	return f(w, args)
}

// Dummy ignores its arguments and produces nothing. Registered for
// directives that are recognized but intentionally inert.
type Dummy struct{}

func (Dummy) Handle(*Worker, []parser.Node) (string, error) {
	return "", nil
}

// Markdown renders its concatenated arguments as markdown. If the page
// has no title yet and the markdown starts with a level-1 heading, that
// heading becomes the page title.
type Markdown struct{}

func (Markdown) Handle(w *Worker, args []parser.Node) (string, error) {
	body := w.EvaluateAll(args)
	rendered, title, err := w.Markdown.Render(body)
	if err != nil {
		return "", err
	}
	if title != "" {
		if _, ok := w.ThemeConfig["title"]; !ok {
			w.ThemeConfig["title"] = title
		}
	}
	return strings.TrimSpace(rendered), nil
}

// Code syntax-highlights a literal. The first argument names the
// language, the rest concatenate into the source text.
type Code struct{}

func (Code) Handle(w *Worker, args []parser.Node) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("code requires a language argument")
	}
	language := w.Evaluate(&args[0])
	literal := strings.TrimSpace(concatNodes(w, args[1:], ""))
	return w.Highlighter.Highlight(language, literal)
}

// Version exposes the project version. With no arguments the full
// version; with one argument, as many dot components as the argument
// has.
type Version struct {
	components []string
}

func NewVersion(version string) *Version {
	return &Version{components: strings.Split(version, ".")}
}

func (v *Version) Handle(w *Worker, args []parser.Node) (string, error) {
	switch len(args) {
	case 0:
		return strings.Join(v.components, "."), nil
	case 1:
		arg := w.Evaluate(&args[0])
		if arg == "" {
			return "", nil
		}
		n := strings.Count(arg, ".") + 1
		if n > len(v.components) {
			n = len(v.components)
		}
		return strings.Join(v.components[:n], "."), nil
	default:
		return "", fmt.Errorf("version takes at most one argument")
	}
}

// Admonition renders a titled callout box.
type Admonition struct {
	title string
	class string
}

func NewAdmonition(title, class string) *Admonition {
	return &Admonition{title: title, class: class}
}

func (a *Admonition) Handle(w *Worker, args []parser.Node) (string, error) {
	title := a.title
	var body string
	switch len(args) {
	case 1:
		body = w.Evaluate(&args[0])
	case 2:
		title = w.Evaluate(&args[0])
		body = w.Evaluate(&args[1])
	default:
		return "", fmt.Errorf("admonition takes one or two arguments")
	}

	return fmt.Sprintf(
		`<div class="admonition admonition-%s"><span class="admonition-title admonition-title-%s">%s</span>%s</div>`+"\n",
		a.class, a.class, title, body), nil
}

// Concat joins its evaluated arguments.
type Concat struct{}

func (Concat) Handle(w *Worker, args []parser.Node) (string, error) {
	return concatNodes(w, args, ""), nil
}

var templateArgPattern = regexp.MustCompile(`\$\{(\d)\}`)

// Template substitutes evaluated arguments into ${n} slots. Each
// positional checker must match its argument or the invocation fails.
type Template struct {
	template string
	checkers []*regexp.Regexp
}

func NewTemplate(template string, checkers []*regexp.Regexp) *Template {
	return &Template{template: template, checkers: checkers}
}

func (t *Template) Handle(w *Worker, args []parser.Node) (string, error) {
	n := len(args)
	if len(t.checkers) > n {
		n = len(t.checkers)
	}

	values := make([]string, n)
	for i := 0; i < n; i++ {
		var arg string
		if i < len(args) {
			arg = w.Evaluate(&args[i])
		}
		if i < len(t.checkers) && !t.checkers[i].MatchString(arg) {
			return "", fmt.Errorf("template argument %d does not match %q", i, t.checkers[i].String())
		}
		values[i] = arg
	}

	result := templateArgPattern.ReplaceAllStringFunc(t.template, func(m string) string {
		index, _ := strconv.Atoi(m[2 : len(m)-1])
		if index < len(values) {
			return values[index]
		}
		return ""
	})
	return result, nil
}

// DefineTemplate registers a Template under a page-local name.
type DefineTemplate struct{}

func (DefineTemplate) Handle(w *Worker, args []parser.Node) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("define-template requires a name and a template body")
	}
	name := w.Evaluate(&args[0])
	body := w.Evaluate(&args[1])

	checkers := make([]*regexp.Regexp, 0, len(args)-2)
	for i := 2; i < len(args); i++ {
		pattern, err := regexp.Compile(w.Evaluate(&args[i]))
		if err != nil {
			return "", fmt.Errorf("bad template checker: %w", err)
		}
		checkers = append(checkers, pattern)
	}

	w.ctx[name] = &StoredValue{Directive: NewTemplate(body, checkers)}
	return "", nil
}

// DefinitionList renders term/body pairs. Each argument must be a block
// of exactly two children. The caller decides whether to wrap the
// result in <dl>.
type DefinitionList struct{}

func (DefinitionList) Handle(w *Worker, args []parser.Node) (string, error) {
	var b strings.Builder
	for i := range args {
		arg := &args[i]
		if !arg.Block || len(arg.Children) != 2 {
			return "", fmt.Errorf("definition-list entries must be (term body) pairs")
		}
		term := w.Evaluate(&arg.Children[0])
		body := w.Evaluate(&arg.Children[1])
		fmt.Fprintf(&b, "<dt>%s</dt><dd>%s</dd>", term, body)
	}
	return b.String(), nil
}

// Include parses another source file, relative to the including file,
// and evaluates it in place.
type Include struct{}

func (Include) Handle(w *Worker, args []parser.Node) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("include takes exactly one path")
	}
	path := w.resolveSourcePath(&args[0], w.Evaluate(&args[0]))
	node, err := w.Parser.Parse(path)
	if err != nil {
		return "", fmt.Errorf("include %q: %w", path, err)
	}
	return w.Evaluate(&node), nil
}

// Import evaluates another file for its definitions only, discarding
// its output.
type Import struct{}

func (Import) Handle(w *Worker, args []parser.Node) (string, error) {
	if _, err := (Include{}).Handle(w, args); err != nil {
		return "", err
	}
	return "", nil
}

// Let binds eagerly evaluated key/value pairs for the duration of its
// body, restoring prior bindings afterwards.
type Let struct{}

func (Let) Handle(w *Worker, args []parser.Node) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("let requires a binding list")
	}
	kvs := &args[0]
	if !kvs.Block || len(kvs.Children)%2 != 0 {
		return "", rocketerr.New(rocketerr.CategoryEvaluate, "let bindings must be an even-length block")
	}

	var restores []func()
	defer func() {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	}()
	for i := 0; i+1 < len(kvs.Children); i += 2 {
		key := w.Evaluate(&kvs.Children[i])
		valueNode := &kvs.Children[i+1]
		value := parser.NewText(w.Evaluate(valueNode), valueNode.FileID, valueNode.Line)
		restores = append(restores, w.bind(key, &StoredValue{Node: &value}))
	}

	return concatNodes(w, args[1:], ""), nil
}

// Define installs a page-scoped binding. The plain form captures its
// value unevaluated; the "evaluate" sigil form evaluates once at
// definition time.
type Define struct{}

func (Define) Handle(w *Worker, args []parser.Node) (string, error) {
	malformed := func(msg string) (string, error) {
		return "", rocketerr.New(rocketerr.CategoryEvaluate, msg)
	}

	switch len(args) {
	case 2:
		key := w.Evaluate(&args[0])
		value := cloneNode(&args[1])
		w.ctx[key] = &StoredValue{Node: value}
		return "", nil
	case 3:
		if w.Evaluate(&args[0]) != "evaluate" {
			return malformed("three-argument define must start with the evaluate sigil")
		}
		key := w.Evaluate(&args[1])
		valueNode := &args[2]
		value := parser.NewText(w.Evaluate(valueNode), valueNode.FileID, valueNode.Line)
		w.ctx[key] = &StoredValue{Node: &value}
		return "", nil
	default:
		return malformed("define takes a key and a value")
	}
}

func cloneNode(n *parser.Node) *parser.Node {
	clone := *n
	if n.Children != nil {
		clone.Children = make([]parser.Node, len(n.Children))
		for i := range n.Children {
			clone.Children[i] = *cloneNode(&n.Children[i])
		}
	}
	return &clone
}

// ThemeConfigDirective stores key/value pairs passed through to the
// page template.
type ThemeConfigDirective struct{}

func (ThemeConfigDirective) Handle(w *Worker, args []parser.Node) (string, error) {
	if len(args)%2 != 0 {
		return "", fmt.Errorf("theme-config takes key value pairs")
	}
	for i := 0; i+1 < len(args); i += 2 {
		key := w.Evaluate(&args[i])
		w.ThemeConfig[key] = w.Evaluate(&args[i+1])
	}
	return "", nil
}

// TocTreeDirective records child pages of the current page. A bare
// string argument is a slug; a two-child block is (title slug).
type TocTreeDirective struct{}

func (TocTreeDirective) Handle(w *Worker, args []parser.Node) (string, error) {
	for i := range args {
		arg := &args[i]
		if !arg.Block {
			w.AddToTocTree(page.NewSlug(arg.Text), "")
			continue
		}
		if len(arg.Children) != 2 {
			return "", fmt.Errorf("toctree entries must be slugs or (title slug) pairs")
		}
		title := w.Evaluate(&arg.Children[0])
		slug := w.Evaluate(&arg.Children[1])
		w.AddToTocTree(page.NewSlug(slug), title)
	}
	return "", nil
}

// Heading emits <hN> with a reference anchor and handles section
// transitions. The one-argument form derives the anchor id from the
// title; the two-argument form is (id title).
type Heading struct {
	level int
}

func NewHeading(level int) *Heading {
	return &Heading{level: level}
}

func (h *Heading) Handle(w *Worker, args []parser.Node) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("heading requires a title")
	}

	var id, title string
	if len(args) >= 2 {
		id = w.Evaluate(&args[0])
		title = w.Evaluate(&args[1])
	} else {
		title = w.Evaluate(&args[0])
		id = titleToID(title)
	}
	w.InsertRefDef(id, title)

	if _, ok := w.ThemeConfig["title"]; !ok {
		w.ThemeConfig["title"] = title
	}

	prefix, err := w.handleHeading(h.level)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`%s<h%d id="%s">%s</h%d>`, prefix, h.level, EscapeString(id), title, h.level), nil
}

// titleToID derives a stable anchor id from a heading title.
// Alphanumerics are lowercased, hyphen and underscore pass through,
// spaces become hyphens, and anything else becomes its decimal
// codepoint.
func titleToID(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, c := range norm.NFC.String(title) {
		switch {
		case isAlphanumeric(c):
			b.WriteString(strings.ToLower(string(c)))
		case c == '-' || c == '_':
			b.WriteRune(c)
		case c == ' ':
			b.WriteByte('-')
		default:
			b.WriteString(strconv.FormatUint(uint64(c), 10))
		}
	}
	return b.String()
}

func isAlphanumeric(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c)
}

// RefDefDirective registers a reference target without emitting output.
type RefDefDirective struct{}

func (RefDefDirective) Handle(w *Worker, args []parser.Node) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("define-ref takes an id and a title")
	}
	id := w.Evaluate(&args[0])
	title := w.Evaluate(&args[1])
	w.InsertRefDef(id, title)
	return "", nil
}

// RefDirective emits a link to a reference target. Both the path and,
// when no explicit link text is given, the text resolve during the link
// phase.
type RefDirective struct{}

func (RefDirective) Handle(w *Worker, args []parser.Node) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("ref takes a reference id")
	}
	refID := w.Evaluate(&args[0])

	var title string
	if len(args) >= 2 {
		title = w.Evaluate(&args[1])
	} else {
		title = w.Placeholder(refID, PlaceholderTitle)
	}

	path := w.Placeholder(refID, PlaceholderPath)
	return fmt.Sprintf(`<a href="%s">%s</a>`, path, title), nil
}

// Steps renders a numbered sequence of (title body) steps. A bare
// string argument names a stored block binding holding the step.
type Steps struct{}

func (Steps) Handle(w *Worker, args []parser.Node) (string, error) {
	var b strings.Builder
	b.WriteString(`<div class="steps">`)

	for i := range args {
		stepNode := &args[i]
		if !stepNode.Block {
			stored, ok := w.ctx[stepNode.Text]
			if !ok || stored.Node == nil || !stored.Node.Block {
				return "", fmt.Errorf("step %q is not a stored block", stepNode.Text)
			}
			stepNode = stored.Node
		}

		// children[0] is the binding or wrapper name, the step content
		// is in children[1] and children[2].
		if len(stepNode.Children) != 3 {
			return "", fmt.Errorf("steps entries must have a title and a body")
		}
		title := w.Evaluate(&stepNode.Children[1])
		body := w.Evaluate(&stepNode.Children[2])

		fmt.Fprintf(&b,
			`<div class="steps__step"><div class="steps__bullet"><div class="steps__stepnumber">%d</div></div><h4>%s</h4><div>%s</div></div>`,
			i+1, title, body)
	}

	b.WriteString("</div>")
	return b.String(), nil
}

// Figure emits an image referencing a theme static asset.
type Figure struct{}

func (Figure) Handle(w *Worker, args []parser.Node) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("figure takes a source and alt text")
	}
	src := w.AddAsset(EscapeString(w.Evaluate(&args[0])))
	alt := EscapeString(w.Evaluate(&args[1]))

	widthTerm := ""
	if len(args) >= 3 {
		width, err := strconv.ParseUint(w.Evaluate(&args[2]), 10, 16)
		if err != nil {
			return "", fmt.Errorf("figure width must be an integer: %w", err)
		}
		widthTerm = fmt.Sprintf(" width=%dpx", width)
	}

	return fmt.Sprintf(`<img src="%s" alt="%s"%s>`, src, alt, widthTerm), nil
}

// FormattingMarker wraps its space-joined arguments in an inline tag.
type FormattingMarker struct {
	tag string
}

func NewFormattingMarker(tag string) *FormattingMarker {
	return &FormattingMarker{tag: tag}
}

func (f *FormattingMarker) Handle(w *Worker, args []parser.Node) (string, error) {
	body := concatNodes(w, args, " ")
	return fmt.Sprintf("<%s>%s</%s>", f.tag, body, f.tag), nil
}

// Link emits an anchor. With no link text the href doubles as the text.
type Link struct{}

func (Link) Handle(w *Worker, args []parser.Node) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("link takes an href")
	}
	href := EscapeString(w.Evaluate(&args[0]))
	body := concatNodes(w, args[1:], " ")
	if body == "" {
		body = href
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, href, body), nil
}

// List renders each argument as a list item inside the given tag.
type List struct {
	tag string
}

func NewList(tag string) *List {
	return &List{tag: tag}
}

func (l *List) Handle(w *Worker, args []parser.Node) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "<%s>", l.tag)
	for i := range args {
		fmt.Fprintf(&b, "<li>%s</li>", w.Evaluate(&args[i]))
	}
	fmt.Fprintf(&b, "</%s>", l.tag)
	return b.String(), nil
}
