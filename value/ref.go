package value

import (
	"fmt"
)

// RefName is the transformer name of variable references.
const RefName = "var"

// NewRef returns a transformer reading the variable name from the environment when resolved.
func NewRef(name string) *Transformer {
	return Wrap(RefName, NewConst(String(name)), readVar)
}

func readVar(env *Environment, base any) (any, error) {
	name, _ := base.(string)
	v, found := env.Var(name)
	if !found {
		return nil, fmt.Errorf("undefined variable %q", name)
	}
	return v, nil
}
