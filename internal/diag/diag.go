// Package diag holds the shared diagnostic formatting used across stages:
// lex/parse errors carry a source position and render as
// "<Kind> error: <message> at <line>:<col>"; tych/lower errors are
// free-form but always name the offending symbol and conflicting types.
package diag

import "fmt"

// Positioned is a lex/parse error: a message plus its source position.
type Positioned struct {
	Kind    string
	Message string
	Line    int
	Column  int
}

func (e *Positioned) Error() string {
	return fmt.Sprintf("%s error: %s at %d:%d", e.Kind, e.Message, e.Line, e.Column)
}

// TypeMismatch is the canonical tych complaint: two types that should have
// agreed but didn't, at a named site.
type TypeMismatch struct {
	Site     string
	Expected string
	Actual   string
}

func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("type error: %s expected %s but found %s", e.Site, e.Expected, e.Actual)
}

// NameError reports an unresolved identifier, function, or type.
// Suggestion, if non-empty, names the closest visible symbol.
type NameError struct {
	What       string // "identifier" | "function" | "type"
	Name       string
	Suggestion string
}

func (e *NameError) Error() string {
	if e.Suggestion == "" {
		return fmt.Sprintf("name error: unknown %s '%s'", e.What, e.Name)
	}
	return fmt.Sprintf("name error: unknown %s '%s' (did you mean '%s'?)", e.What, e.Name, e.Suggestion)
}

// StructuralError reports a structural violation: a struct declared at
// non-global scope, a struct-field initializer, a non-void main return.
type StructuralError struct {
	Message string
}

func (e *StructuralError) Error() string { return "structural error: " + e.Message }

// Internal marks a condition that must never fire on well-formed input.
// Construct it at the point where an invariant would otherwise be
// silently violated.
type Internal struct {
	Message string
}

func (e *Internal) Error() string { return "internal error: " + e.Message }
