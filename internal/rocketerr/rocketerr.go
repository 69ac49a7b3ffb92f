// Package rocketerr provides a lightweight structured error type for
// category-based classification of page-scoped build failures.
package rocketerr

import (
	"errors"
	"fmt"
)

// Category classifies a build error for logging and exit decisions.
type Category string

const (
	// User-facing configuration errors; fatal before any build work.
	CategoryConfig Category = "config"
	CategoryTheme  Category = "theme"

	// Page-scoped errors; the page is skipped, the build continues.
	CategoryParse    Category = "parse"
	CategoryEvaluate Category = "evaluate"
	CategoryHeading  Category = "heading"
	CategoryLink     Category = "link"
	CategoryTemplate Category = "template"
	CategoryIO       Category = "io"
)

// Error is a categorized build error with optional source context.
type Error struct {
	Category Category
	Message  string
	Cause    error
	Path     string
	Line     int
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Category, e.Message)
	if e.Path != "" {
		if e.Line > 0 {
			msg = fmt.Sprintf("%s (%s:%d)", msg, e.Path, e.Line)
		} else {
			msg = fmt.Sprintf("%s (%s)", msg, e.Path)
		}
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithSource attaches a source file location to the error.
func (e *Error) WithSource(path string, line int) *Error {
	e.Path = path
	e.Line = line
	return e
}

// New creates a categorized error.
func New(category Category, message string) *Error {
	return &Error{Category: category, Message: message}
}

// Newf creates a categorized error with a formatted message.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{Category: category, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a categorized error wrapping an existing one.
func Wrap(err error, category Category, message string) *Error {
	return &Error{Category: category, Message: message, Cause: err}
}

// As unwraps err into target if it is or wraps an *Error.
func As(err error, target **Error) bool {
	return errors.As(err, target)
}
