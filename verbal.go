/*
Package verbal is an extensible verb/adverb script engine.

Scripts are made of named segments; a segment holds sentences; a sentence is a
run of clauses, and every clause is matched by one of the rules contributed by
extensions. A matched clause yields verbs (actions to invoke) and adverbs
(named values bound into the current scope before the following verbs run).

Consists of subpackages:
  - source: named source text with line/column mapping;
  - lexer: dictionary-driven tokenizer and the backtracking token stream;
  - rule: grammar nodes and the compact rule description language;
  - ast: segments, sentences, verbs, adverbs, and literal values;
  - value: constant and deferred (runtime) adverb values;
  - parser: rule-driven parser with atomic backtracking;
  - eval: scope chain and verb dispatch;
  - registry: extension contributions compiled into an immutable configuration;
  - engine: lexing, parsing, and evaluation tied together, plus a named script pool;
  - extension: HCL extension manifests;
  - interpreters/goja: verbs scripted in ECMAScript;
  - store: persisted script sources;
  - tools: rule set documentation;
  - cmd/verbal: console runner.

Typical usage is:

1. Describe clause rules in the compact form, e.g. "{set} <x:number>",
and contribute them together with verb actions through a registry.Extension
or an HCL manifest.

2. Compile the registry into a registry.Config.

3. Create an engine for that configuration and feed it scripts.
*/
package verbal

import (
	"errors"
	"fmt"
)

// Error classes used by subpackages, each class contains up to 99 error codes:
const (
	RuleErrors      = 1   // used by rule
	LexicalErrors   = 101 // used by lexer
	SyntaxErrors    = 201 // used by parser
	RegistryErrors  = 301 // used by registry
	EvalErrors      = 401 // used by eval and engine
	ExtensionErrors = 501 // used by extension and interpreters
)

// Error is the error type used by verbal subpackages.
type Error struct {
	// Code contains non-zero error code.
	Code int

	// Message contains non-empty error message including source name and position information if provided.
	Message string

	// SourceName contains source name that caused this error or empty string.
	SourceName string

	// Line contains line number in source file or 0.
	Line int

	// Col contains column number in source file or 0.
	Col int
}

// SourcePos is used to retrieve source name and position information when constructing an error;
// source.Pos and lexer.Token implement this interface.
type SourcePos interface {
	// SourceName returns source file name or empty string.
	SourceName() string
	// Line returns line number or 0.
	Line() int
	// Col returns column number or 0.
	Col() int
}

// NewError creates new Error structure.
// name, line, and col will be added to error message if provided (non-zero).
func NewError(code int, msg, name string, line, col int) *Error {
	if line != 0 && col != 0 {
		if name == "" {
			msg += fmt.Sprintf(" at line %d col %d", line, col)
		} else {
			msg += fmt.Sprintf(" in %s at line %d col %d", name, line, col)
		}
	}
	return &Error{code, msg, name, line, col}
}

// Error simply returns Error.Message.
func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is an *Error with the same code,
// so errors.Is(err, &verbal.Error{Code: c}) works through wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// FormatError creates Error structure with no source and position information.
// params will be added to error message using fmt.Sprintf function.
func FormatError(code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg, "", 0, 0)
}

// FormatErrorPos creates Error structure with source and position information.
// pos must not be nil.
// params will be added to error message using fmt.Sprintf function.
func FormatErrorPos(pos SourcePos, code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg, pos.SourceName(), pos.Line(), pos.Col())
}

// HasCode reports whether e is (or wraps) an *Error with the given code.
func HasCode(e error, code int) bool {
	var ve *Error
	return errors.As(e, &ve) && ve.Code == code
}
