package value

import (
	"fmt"
)

// Environment is the host context of a script execution, available to transformers and verbs.
type Environment struct {
	Actor    any
	Location any
	Values   map[string]any

	// Vars resolves variable references, the evaluator sets it to the current scope.
	Vars Vars
}

// Vars is a source of variables visible where a value is resolved.
type Vars interface {
	Get(name string) (any, bool)
}

// WithVars returns a copy of env resolving variable references with vars. env may be nil.
func (env *Environment) WithVars(vars Vars) *Environment {
	var result Environment
	if env != nil {
		result = *env
	}
	result.Vars = vars
	return &result
}

// Var returns a variable visible where a value is resolved. Safe to call on nil environment.
func (env *Environment) Var(name string) (any, bool) {
	if env == nil || env.Vars == nil {
		return nil, false
	}
	return env.Vars.Get(name)
}

// Value returns a named host value. Safe to call on nil environment.
func (env *Environment) Value(name string) (any, bool) {
	if env == nil {
		return nil, false
	}

	v, found := env.Values[name]
	return v, found
}

// ComputeFunc produces a new value from the resolved base value.
type ComputeFunc func(env *Environment, base any) (any, error)

// Runtime is an adverb value: either a constant or a transformer resolved at evaluation time.
// The set of runtime value types is closed: *Const, *Transformer.
type Runtime interface {
	String() string
	isRuntime()
}

// Const is a literal value resolved without environment.
type Const struct {
	Value Literal
}

// Transformer wraps a base value and computes a new value when resolved.
type Transformer struct {
	Name    string
	Base    Runtime
	Compute ComputeFunc
}

func (*Const) isRuntime()       {}
func (*Transformer) isRuntime() {}

func NewConst(v Literal) *Const {
	return &Const{v}
}

// Wrap returns a transformer named name applying compute to base.
func Wrap(name string, base Runtime, compute ComputeFunc) *Transformer {
	return &Transformer{name, base, compute}
}

func (c *Const) String() string {
	return c.Value.String()
}

func (t *Transformer) String() string {
	return t.Name + "(" + t.Base.String() + ")"
}

// Resolve returns the plain Go value of v.
// A transformer resolves its base first, then applies its own computation.
// env may be nil; constants never use it.
func Resolve(v Runtime, env *Environment) (any, error) {
	switch v := v.(type) {
	case *Const:
		return v.Value.Go(), nil

	case *Transformer:
		base, e := Resolve(v.Base, env)
		if e != nil {
			return nil, e
		}

		if v.Compute == nil {
			return base, nil
		}

		result, e := v.Compute(env, base)
		if e != nil {
			return nil, fmt.Errorf("%s: %w", v.Name, e)
		}
		return result, nil

	case nil:
		return nil, nil
	}

	return nil, fmt.Errorf("unsupported runtime value %T", v)
}
