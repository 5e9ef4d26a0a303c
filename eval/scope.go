package eval

import (
	"context"
	"sort"

	"github.com/ava12/verbal/value"
)

// Scope is a chain of variable bindings.
// Lookup walks the parent chain, assignment always writes to the scope itself.
// A scope belongs to a single execution and is not safe for concurrent use.
type Scope struct {
	parent   *Scope
	bindings map[string]any
	env      *value.Environment
	ctx      context.Context
}

// NewScope creates a scope with no parent.
func NewScope(env *value.Environment) *Scope {
	return &Scope{bindings: make(map[string]any), env: env}
}

// Child creates a nested scope inheriting environment and context.
func (s *Scope) Child() *Scope {
	return &Scope{parent: s, bindings: make(map[string]any), env: s.env, ctx: s.ctx}
}

// ChildWith creates a nested scope with different environment. nil env keeps the parent one.
func (s *Scope) ChildWith(env *value.Environment) *Scope {
	c := s.Child()
	if env != nil {
		c.env = env
	}
	return c
}

func (s *Scope) withContext(ctx context.Context) *Scope {
	s.ctx = ctx
	return s
}

func (s *Scope) Parent() *Scope {
	return s.parent
}

// Env returns execution environment, may be nil.
func (s *Scope) Env() *value.Environment {
	return s.env
}

// Context returns the context of current execution.
func (s *Scope) Context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// Get returns the value bound to name in this scope or the nearest ancestor.
func (s *Scope) Get(name string) (any, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, found := sc.bindings[name]; found {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether name is bound in this scope or any ancestor.
func (s *Scope) Has(name string) bool {
	_, found := s.Get(name)
	return found
}

// Local returns the value bound to name in this scope only.
func (s *Scope) Local(name string) (any, bool) {
	v, found := s.bindings[name]
	return v, found
}

// Set binds name in this scope, shadowing any ancestor binding.
func (s *Scope) Set(name string, v any) {
	s.bindings[name] = v
}

// Names returns sorted names visible from this scope.
func (s *Scope) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for sc := s; sc != nil; sc = sc.parent {
		for name := range sc.bindings {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Values returns all visible bindings, nearer bindings shadowing farther ones.
func (s *Scope) Values() map[string]any {
	result := make(map[string]any)
	for _, name := range s.Names() {
		result[name], _ = s.Get(name)
	}
	return result
}
