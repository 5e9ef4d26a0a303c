package extension

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava12/verbal"
	"github.com/ava12/verbal/eval"
	"github.com/ava12/verbal/internal/test"
	"github.com/ava12/verbal/registry"
	"github.com/ava12/verbal/value"
)

// echo compiles a verb into an action binding "ran" to the verb name and script source,
// and a modifier into a function appending the source to a string base.
type echo struct{}

func (echo) CompileVerb(name, src string) (eval.Verb, error) {
	if src == "bad" {
		return nil, errors.New("syntax error")
	}
	return func(s *eval.Scope) {
		s.Set("ran", name+":"+src)
	}, nil
}

func (echo) CompileModifier(name, src string) (value.ComputeFunc, error) {
	return func(_ *value.Environment, base any) (any, error) {
		return base.(string) + src, nil
	}, nil
}

// capturing records scope bindings after each verb.
type capturing struct {
	cfg    *registry.Config
	scopes []map[string]any
}

func (c *capturing) Verb(name string) (eval.Verb, bool) {
	v, found := c.cfg.Verb(name)
	if !found {
		return nil, false
	}
	return func(s *eval.Scope) {
		v(s)
		c.scopes = append(c.scopes, s.Values())
	}, true
}

const shop = `
extension "shop" {
  keywords = ["please"]

  rule "buy" {
    pattern = "{buy} <item:string> (for <price:number>|now)"
  }

  rule "rest" {
    pattern = "{rest}"
  }

  verb "buy" {
    defaults = { price = var.base_price, currency = upper("gold") }
    script   = "charge"
  }

  verb "rest" {
    defaults = { hours = 8 }
  }

  modifier "loud" {
    suffix = true
    script = "!"
  }
}

extension "empty" {
}
`

func load(src string, opts ...Option) ([]*registry.Bundle, error) {
	opts = append([]Option{WithInterpreter("goja", echo{})}, opts...)
	return NewLoader(opts...).Parse(context.Background(), "shop.hcl", []byte(src))
}

func TestManifest(t *testing.T) {
	exts, e := load(shop, WithVariables(map[string]any{"base_price": 3}))
	require.NoError(t, e)
	require.Len(t, exts, 2)

	b := exts[0]
	assert.Equal(t, "shop", b.Name())
	assert.Equal(t, []string{"please"}, b.Keywords)
	require.Len(t, b.Rules, 2)
	assert.Equal(t, "{buy} <item:string> (for <price:number>|now)", b.Rules[0].String())
	require.Len(t, b.Modifiers, 1)
	assert.Equal(t, "loud", b.Modifiers[0].Keyword)
	assert.True(t, b.Modifiers[0].Suffix)

	assert.Equal(t, "empty", exts[1].Name())
	assert.Empty(t, exts[1].Rules)

	reg := registry.New()
	require.NoError(t, reg.Add(exts[0], exts[1]))
	cfg, e := reg.Compile()
	require.NoError(t, e)
	assert.True(t, cfg.Dictionary().Has("please"))
	assert.Equal(t, []string{"buy", "rest"}, cfg.Verbs())

	script, e := cfg.Parser().ParseString("s", `group "g" { buy "apple" now; buy "pear" loud for 5; rest }`)
	require.NoError(t, e)

	c := &capturing{cfg: cfg}
	require.NoError(t, eval.New(c).RunScript(context.Background(), script, nil))

	require.Len(t, c.scopes, 3)
	assert.Equal(t, map[string]any{"item": "apple", "price": 3.0, "currency": "GOLD", "ran": "buy:charge"}, c.scopes[0])
	assert.Equal(t, map[string]any{"item": "pear!", "price": 5.0, "currency": "GOLD", "ran": "buy:charge"}, c.scopes[1])
	assert.Equal(t, map[string]any{"item": "pear!", "price": 5.0, "currency": "GOLD", "ran": "buy:charge", "hours": 8.0}, c.scopes[2])
}

func TestManifestErrors(t *testing.T) {
	samples := []struct {
		src  string
		code int
		line int
	}{
		{`extension "x" {`, ManifestError, 1},
		{`extension "x" { unknown = 1 }`, ManifestError, 1},
		{`extension "x" {
  rule "r" { pattern = "{x" }
}`, ManifestError, 2},
		{`extension "x" {
  rule "r" { pattern = ["a"] }
}`, ManifestError, 2},
		{`extension "x" {
  verb "v" { script = "bad" }
}`, ScriptCompileError, 2},
		{`extension "x" {
  interpreter = "lua"
  verb "v" { script = "ok" }
}`, UnknownInterpreterError, 3},
		{`extension "x" {
  verb "v" { defaults = 5 }
}`, ManifestError, 2},
		{`extension "x" {
  verb "v" { defaults = { a = var.missing } }
}`, ManifestError, 2},
		{`extension "x" {
  verb "v" { script = "a" }
  verb "v" { script = "b" }
}`, ManifestError, 3},
		{`extension "x" {
  modifier "m" { script = "" }
}`, ManifestError, 2},
	}

	for i, s := range samples {
		_, e := load(s.src)
		var ve *verbal.Error
		if !errors.As(e, &ve) {
			t.Fatalf("sample #%d: expecting *verbal.Error, got %v", i, e)
		}
		if ve.Code != s.code || ve.Line != s.line {
			t.Fatalf("sample #%d: expecting code %d at line %d, got %v (code %d)", i, s.code, s.line, e, ve.Code)
		}
		if ve.SourceName != "shop.hcl" {
			t.Fatalf("sample #%d: expecting shop.hcl source, got %q", i, ve.SourceName)
		}
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.hcl"), []byte(`extension "b" {}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hcl"), []byte(`extension "a" {}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`extension "c" {}`), 0o644))

	l := NewLoader()
	exts, e := l.LoadDir(context.Background(), dir)
	require.NoError(t, e)
	require.Len(t, exts, 2)
	assert.Equal(t, "a", exts[0].Name())
	assert.Equal(t, "b", exts[1].Name())

	exts, e = l.LoadDir(context.Background(), t.TempDir())
	require.NoError(t, e)
	assert.Empty(t, exts)

	_, e = l.LoadFiles(context.Background(), filepath.Join(dir, "missing.hcl"))
	assert.Error(t, e)
}

func TestInvalidVariables(t *testing.T) {
	_, e := load(`extension "x" {}`, WithVariables(map[string]any{"ch": make(chan int)}))
	test.ExpectErrorCode(t, ManifestError, e)
}

func TestConvert(t *testing.T) {
	src := map[any]any{
		"name":  "x",
		"n":     2,
		"f":     1.5,
		"ok":    true,
		"list":  []any{"a", int64(1)},
		"inner": map[string]any{"k": nil},
		"empty": []any{},
	}

	v, e := goToCty(src)
	require.NoError(t, e)
	back, e := ctyToGo(v)
	require.NoError(t, e)
	assert.Equal(t, map[string]any{
		"name":  "x",
		"n":     2.0,
		"f":     1.5,
		"ok":    true,
		"list":  []any{"a", 1.0},
		"inner": map[string]any{"k": nil},
		"empty": []any{},
	}, back)

	_, e = goToCty(map[any]any{1: "x"})
	assert.Error(t, e)
}
