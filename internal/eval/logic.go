package eval

import (
	"fmt"

	"git.home.luguber.info/inful/rocket/internal/parser"
)

// Truthiness follows the empty-string convention: any non-empty string
// is true, the empty string is false.

// If evaluates its condition eagerly and only the branch that is taken.
type If struct{}

func (If) Handle(w *Worker, args []parser.Node) (string, error) {
	if len(args) < 2 || len(args) > 3 {
		return "", fmt.Errorf("if takes a condition, a consequent, and an optional alternative")
	}

	condition := w.Evaluate(&args[0])
	if condition != "" {
		return w.Evaluate(&args[1]), nil
	}
	if len(args) == 3 {
		return w.Evaluate(&args[2]), nil
	}
	return "", nil
}

// Not inverts truthiness.
type Not struct{}

func (Not) Handle(w *Worker, args []parser.Node) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("not takes exactly one argument")
	}
	if w.Evaluate(&args[0]) == "" {
		return "true", nil
	}
	return "", nil
}

// Equals is true when every argument evaluates to the same string.
type Equals struct{}

func (Equals) Handle(w *Worker, args []parser.Node) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("= takes at least two arguments")
	}
	initial := w.Evaluate(&args[0])
	for i := 1; i < len(args); i++ {
		if w.Evaluate(&args[i]) != initial {
			return "", nil
		}
	}
	return "true", nil
}

// NotEquals inverts Equals.
type NotEquals struct{}

func (NotEquals) Handle(w *Worker, args []parser.Node) (string, error) {
	result, err := (Equals{}).Handle(w, args)
	if err != nil {
		return "", err
	}
	if result == "" {
		return "true", nil
	}
	return "", nil
}
