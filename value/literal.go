// Package value defines literal values of scripts and runtime values resolved against an execution environment.
package value

import (
	"strconv"
	"strings"
)

// Literal is a value written in script source.
// The set of literal types is closed: String, Number, Boolean, Opaque.
type Literal interface {
	// Go returns the plain Go value bound into scopes: string, float64, bool or Opaque.
	Go() any
	String() string
	isLiteral()
}

type String string

type Number float64

type Boolean bool

// Kinds of opaque literals recognized by parser.
const (
	PositionKind = "position"
	EntityKind   = "entity"
)

// Opaque is a host-specific literal the core does not interpret, e.g. a position or an entity reference.
// Parts hold plain Go values of bracketed items.
type Opaque struct {
	Kind  string
	Parts []any
}

func (String) isLiteral()  {}
func (Number) isLiteral()  {}
func (Boolean) isLiteral() {}
func (Opaque) isLiteral()  {}

func (v String) Go() any {
	return string(v)
}

func (v Number) Go() any {
	return float64(v)
}

func (v Boolean) Go() any {
	return bool(v)
}

func (v Opaque) Go() any {
	return v
}

func (v String) String() string {
	return strconv.Quote(string(v))
}

func (v Number) String() string {
	return strconv.FormatFloat(float64(v), 'f', -1, 64)
}

func (v Boolean) String() string {
	return strconv.FormatBool(bool(v))
}

func (v Opaque) String() string {
	parts := make([]string, len(v.Parts))
	for i, p := range v.Parts {
		parts[i] = FormatGo(p)
	}
	return v.Kind + "[" + strings.Join(parts, ", ") + "]"
}

// NewPosition creates a position literal.
func NewPosition(x, y, z float64) Opaque {
	return Opaque{PositionKind, []any{x, y, z}}
}

// NewEntity creates a named entity reference.
func NewEntity(name string) Opaque {
	return Opaque{EntityKind, []any{name}}
}

// Position returns coordinates of a position literal.
func (v Opaque) Position() (x, y, z float64, ok bool) {
	if v.Kind != PositionKind || len(v.Parts) != 3 {
		return
	}

	var c [3]float64
	for i, p := range v.Parts {
		c[i], ok = p.(float64)
		if !ok {
			return
		}
	}
	return c[0], c[1], c[2], true
}

// EntityName returns the name of an entity reference.
func (v Opaque) EntityName() (string, bool) {
	if v.Kind != EntityKind || len(v.Parts) != 1 {
		return "", false
	}

	name, ok := v.Parts[0].(string)
	return name, ok
}

// FormatGo renders a resolved Go value the way literals are rendered.
func FormatGo(v any) string {
	switch v := v.(type) {
	case string:
		return String(v).String()
	case float64:
		return Number(v).String()
	case bool:
		return Boolean(v).String()
	case Literal:
		return v.String()
	case nil:
		return "nil"
	}

	if s, is := v.(interface{ String() string }); is {
		return s.String()
	}
	return "?"
}
