package value

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstResolvesWithoutEnvironment(t *testing.T) {
	samples := []struct {
		lit      Literal
		expected any
		text     string
	}{
		{String("abc"), "abc", `"abc"`},
		{Number(5), 5.0, "5"},
		{Number(-2.5), -2.5, "-2.5"},
		{Boolean(true), true, "true"},
		{NewPosition(1, 2, 3), NewPosition(1, 2, 3), "position[1, 2, 3]"},
		{NewEntity("Steve"), NewEntity("Steve"), `entity["Steve"]`},
	}

	for i, s := range samples {
		got, e := Resolve(NewConst(s.lit), nil)
		require.NoError(t, e, "sample #%d", i)
		assert.Equal(t, s.expected, got, "sample #%d", i)
		assert.Equal(t, s.text, NewConst(s.lit).String(), "sample #%d", i)
	}
}

func TestTransformerChain(t *testing.T) {
	double := func(env *Environment, base any) (any, error) {
		return base.(float64) * 2, nil
	}
	offset := func(env *Environment, base any) (any, error) {
		d, _ := env.Value("offset")
		return base.(float64) + d.(float64), nil
	}

	v := Wrap("offset", Wrap("double", NewConst(Number(5)), double), offset)
	env := &Environment{Values: map[string]any{"offset": 1.5}}

	got, e := Resolve(v, env)
	require.NoError(t, e)
	assert.Equal(t, 11.5, got)
	assert.Equal(t, "offset(double(5))", v.String())
}

func TestTransformerSeesEnvironment(t *testing.T) {
	nearest := func(env *Environment, base any) (any, error) {
		return fmt.Sprintf("%s near %v", base, env.Location), nil
	}

	got, e := Resolve(Wrap("nearest", NewConst(String("tree")), nearest), &Environment{Location: "spawn"})
	require.NoError(t, e)
	assert.Equal(t, "tree near spawn", got)
}

func TestTransformerError(t *testing.T) {
	failure := errors.New("no actor")
	fail := func(env *Environment, base any) (any, error) {
		return nil, failure
	}
	called := false
	outer := func(env *Environment, base any) (any, error) {
		called = true
		return base, nil
	}

	_, e := Resolve(Wrap("outer", Wrap("self", NewConst(Number(1)), fail), outer), nil)
	require.Error(t, e)
	assert.ErrorIs(t, e, failure)
	assert.True(t, strings.HasPrefix(e.Error(), "self: "))
	assert.False(t, called)
}

func TestNilComputeKeepsBase(t *testing.T) {
	got, e := Resolve(Wrap("noop", NewConst(Boolean(false)), nil), nil)
	require.NoError(t, e)
	assert.Equal(t, false, got)
}

func TestOpaqueAccessors(t *testing.T) {
	x, y, z, ok := NewPosition(1, -2, 3.5).Position()
	assert.True(t, ok)
	assert.Equal(t, []float64{1, -2, 3.5}, []float64{x, y, z})

	_, _, _, ok = NewEntity("Steve").Position()
	assert.False(t, ok)

	name, ok := NewEntity("Steve").EntityName()
	assert.True(t, ok)
	assert.Equal(t, "Steve", name)

	_, ok = Opaque{Kind: EntityKind, Parts: []any{1.0}}.EntityName()
	assert.False(t, ok)
}

func TestEnvironmentNilSafe(t *testing.T) {
	var env *Environment
	_, found := env.Value("x")
	assert.False(t, found)
}

type mapVars map[string]any

func (m mapVars) Get(name string) (any, bool) {
	v, found := m[name]
	return v, found
}

func TestRefReadsVariables(t *testing.T) {
	ref := NewRef("count")
	assert.Equal(t, `var("count")`, ref.String())

	env := &Environment{Actor: "alice"}
	got, e := Resolve(ref, env.WithVars(mapVars{"count": 3.0}))
	require.NoError(t, e)
	assert.Equal(t, 3.0, got)
	assert.Nil(t, env.Vars)

	_, e = Resolve(ref, env)
	assert.EqualError(t, e, `var: undefined variable "count"`)

	_, e = Resolve(ref, nil)
	assert.EqualError(t, e, `var: undefined variable "count"`)
}
