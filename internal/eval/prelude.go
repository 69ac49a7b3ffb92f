package eval

import "strconv"

// RegisterStandard installs the full standard directive prelude on e.
// version is the project version exposed through the version directive.
func RegisterStandard(e *Evaluator, version string) {
	e.RegisterPrelude("md", Markdown{})
	e.RegisterPrelude("table", Dummy{})
	e.RegisterPrelude("null", Dummy{})
	e.RegisterPrelude("version", NewVersion(version))
	e.RegisterPrelude("code", Code{})

	e.RegisterPrelude("note", NewAdmonition("Note", "note"))
	e.RegisterPrelude("warning", NewAdmonition("Warning", "warning"))

	e.RegisterPrelude("concat", Concat{})
	e.RegisterPrelude("define-template", DefineTemplate{})
	e.RegisterPrelude("definition-list", DefinitionList{})
	e.RegisterPrelude("glossary", Glossary{})
	e.RegisterPrelude("steps", Steps{})
	e.RegisterPrelude("figure", Figure{})

	e.RegisterPrelude("include", Include{})
	e.RegisterPrelude("import", Import{})
	e.RegisterPrelude("let", Let{})
	e.RegisterPrelude("define", Define{})

	e.RegisterPrelude("theme-config", ThemeConfigDirective{})
	e.RegisterPrelude("toctree", TocTreeDirective{})
	e.RegisterPrelude("define-ref", RefDefDirective{})
	e.RegisterPrelude("ref", RefDirective{})

	for level := 1; level <= 6; level++ {
		e.RegisterPrelude("h"+strconv.Itoa(level), NewHeading(level))
	}

	e.RegisterPrelude("link", Link{})
	e.RegisterPrelude("ul", NewList("ul"))
	e.RegisterPrelude("ol", NewList("ol"))

	for _, tag := range []string{"strong", "em", "del", "sub", "sup"} {
		e.RegisterPrelude(tag, NewFormattingMarker(tag))
	}

	e.RegisterPrelude("if", If{})
	e.RegisterPrelude("not", Not{})
	e.RegisterPrelude("=", Equals{})
	e.RegisterPrelude("!=", NotEquals{})
}
