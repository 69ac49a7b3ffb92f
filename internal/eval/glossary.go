package eval

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/rocket/internal/parser"
)

// Glossary renders a definition list of terms and registers each term
// as a reference target under a "term-" prefixed id, so other pages can
// link to individual entries.
type Glossary struct{}

func (Glossary) Handle(w *Worker, args []parser.Node) (string, error) {
	var b strings.Builder
	b.WriteString(`<dl class="glossary">`)

	for i := range args {
		arg := &args[i]
		if !arg.Block || len(arg.Children) == 0 {
			return "", fmt.Errorf("glossary entries must be (term body...) blocks")
		}

		term := w.Evaluate(&arg.Children[0])
		refID := "term-" + EscapeString(term)
		body := concatNodes(w, arg.Children[1:], " ")

		fmt.Fprintf(&b, `<dt id="%s">%s</dt><dd>%s</dd>`, refID, term, body)
		w.InsertRefDef(refID, term)
	}

	b.WriteString("</dl>")
	return b.String(), nil
}
