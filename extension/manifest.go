package extension

import (
	"context"
	"os"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/ava12/verbal"
	"github.com/ava12/verbal/eval"
	"github.com/ava12/verbal/internal/ctxlog"
	"github.com/ava12/verbal/internal/fsutil"
	"github.com/ava12/verbal/registry"
	"github.com/ava12/verbal/rule"
	"github.com/ava12/verbal/value"
)

// ManifestExt is the file name extension of manifest files.
const ManifestExt = ".hcl"

type manifestFile struct {
	Extensions []*extensionBlock `hcl:"extension,block"`
}

type extensionBlock struct {
	Name        string           `hcl:"name,label"`
	Interpreter string           `hcl:"interpreter,optional"`
	Keywords    []string         `hcl:"keywords,optional"`
	Rules       []*ruleBlock     `hcl:"rule,block"`
	Verbs       []*verbBlock     `hcl:"verb,block"`
	Modifiers   []*modifierBlock `hcl:"modifier,block"`
}

type ruleBlock struct {
	Name    string         `hcl:"name,label"`
	Pattern hcl.Expression `hcl:"pattern"`
}

type verbBlock struct {
	Name     string         `hcl:"name,label"`
	Defaults hcl.Expression `hcl:"defaults,optional"`
	Script   hcl.Expression `hcl:"script,optional"`
}

type modifierBlock struct {
	Name   string         `hcl:"name,label"`
	Suffix bool           `hcl:"suffix,optional"`
	Script hcl.Expression `hcl:"script"`
}

// Option configures Loader.
type Option func(l *Loader)

// WithInterpreter makes interpreter available to manifests under name.
func WithInterpreter(name string, i Interpreter) Option {
	return func(l *Loader) {
		l.interpreters[name] = i
	}
}

// WithVariables exposes values to manifest expressions as var.<name>.
func WithVariables(vars map[string]any) Option {
	return func(l *Loader) {
		for k, v := range vars {
			l.vars[k] = v
		}
	}
}

// Loader reads manifest files. It is not safe for concurrent use.
type Loader struct {
	interpreters map[string]Interpreter
	vars         map[string]any
	evalCtx      *hcl.EvalContext
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		interpreters: make(map[string]Interpreter),
		vars:         make(map[string]any),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var functions = map[string]function.Function{
	"upper":  stdlib.UpperFunc,
	"lower":  stdlib.LowerFunc,
	"join":   stdlib.JoinFunc,
	"format": stdlib.FormatFunc,
	"trim":   stdlib.TrimSpaceFunc,
}

func (l *Loader) evalContext() (*hcl.EvalContext, error) {
	if l.evalCtx != nil {
		return l.evalCtx, nil
	}

	vars, e := objectToCty(l.vars)
	if e != nil {
		return nil, verbal.FormatError(ManifestError, "invalid manifest variables: %s", e)
	}

	l.evalCtx = &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": vars},
		Functions: functions,
	}
	return l.evalCtx, nil
}

// LoadDir loads all manifest files found in dir and its subdirectories, in lexical order.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]*registry.Bundle, error) {
	logger := ctxlog.FromContext(ctx)
	files, e := fsutil.FindFilesByExtension(dir, ManifestExt)
	if e != nil {
		return nil, e
	}

	if len(files) == 0 {
		logger.Warn("no manifest files found", "path", dir)
		return nil, nil
	}

	return l.LoadFiles(ctx, files...)
}

// LoadFiles loads manifest files in given order.
func (l *Loader) LoadFiles(ctx context.Context, files ...string) ([]*registry.Bundle, error) {
	var result []*registry.Bundle
	for _, name := range files {
		src, e := os.ReadFile(name)
		if e != nil {
			return nil, e
		}

		exts, e := l.Parse(ctx, name, src)
		if e != nil {
			return nil, e
		}

		result = append(result, exts...)
	}

	ctxlog.FromContext(ctx).Info("extensions loaded", "files", len(files), "extensions", len(result))
	return result, nil
}

// Parse decodes manifest source. filename is used in error messages only.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte) ([]*registry.Bundle, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagError(diags)
	}

	evalCtx, e := l.evalContext()
	if e != nil {
		return nil, e
	}

	var mf manifestFile
	diags = gohcl.DecodeBody(file.Body, evalCtx, &mf)
	if diags.HasErrors() {
		return nil, diagError(diags)
	}

	result := make([]*registry.Bundle, 0, len(mf.Extensions))
	for _, eb := range mf.Extensions {
		b, e := l.build(evalCtx, eb)
		if e != nil {
			return nil, e
		}

		ctxlog.FromContext(ctx).Debug("extension manifest decoded", "file", filename, "extension", b.ID,
			"rules", len(b.Rules), "verbs", len(b.Verbs), "modifiers", len(b.Modifiers))
		result = append(result, b)
	}
	return result, nil
}

type blockBuilder struct {
	l       *Loader
	evalCtx *hcl.EvalContext
	eb      *extensionBlock
}

func (l *Loader) build(evalCtx *hcl.EvalContext, eb *extensionBlock) (*registry.Bundle, error) {
	bb := &blockBuilder{l, evalCtx, eb}
	b := &registry.Bundle{
		ID:       eb.Name,
		Verbs:    make(map[string]eval.Verb, len(eb.Verbs)),
		Keywords: eb.Keywords,
	}

	for _, rb := range eb.Rules {
		r, e := bb.rule(rb)
		if e != nil {
			return nil, e
		}
		b.Rules = append(b.Rules, r)
	}

	for _, vb := range eb.Verbs {
		if _, exists := b.Verbs[vb.Name]; exists {
			return nil, manifestError(vb.Script.Range(), "verb %q is defined twice in extension %q", vb.Name, eb.Name)
		}

		v, e := bb.verb(vb)
		if e != nil {
			return nil, e
		}
		b.Verbs[vb.Name] = v
	}

	for _, mb := range eb.Modifiers {
		m, e := bb.modifier(mb)
		if e != nil {
			return nil, e
		}
		b.Modifiers = append(b.Modifiers, m)
	}

	return b, nil
}

// str evaluates expr as a string. Null yields empty string.
func (bb *blockBuilder) str(expr hcl.Expression) (string, error) {
	v, diags := expr.Value(bb.evalCtx)
	if diags.HasErrors() {
		return "", diagError(diags)
	}
	if v.IsNull() {
		return "", nil
	}

	v, e := convert.Convert(v, cty.String)
	if e != nil || !v.IsKnown() {
		return "", manifestError(expr.Range(), "string expected")
	}
	return v.AsString(), nil
}

func (bb *blockBuilder) rule(rb *ruleBlock) (*rule.Rule, error) {
	pattern, e := bb.str(rb.Pattern)
	if e != nil {
		return nil, e
	}

	r, e := rule.Parse(rb.Name, pattern)
	if e != nil {
		return nil, manifestError(rb.Pattern.Range(), "invalid pattern of rule %q: %s", rb.Name, e)
	}
	return r, nil
}

func (bb *blockBuilder) interpreter(r hcl.Range) (Interpreter, error) {
	name := bb.eb.Interpreter
	if name == "" {
		name = DefaultInterpreter
	}

	i, found := bb.l.interpreters[name]
	if !found {
		return nil, verbal.FormatErrorPos(hclPos{r}, UnknownInterpreterError, "unknown interpreter %q", name)
	}
	return i, nil
}

func compileError(r hcl.Range, e error) error {
	code := ScriptCompileError
	if ve, is := e.(*verbal.Error); is {
		code = ve.Code
	}
	return verbal.FormatErrorPos(hclPos{r}, code, "%s", e.Error())
}

func (bb *blockBuilder) verb(vb *verbBlock) (eval.Verb, error) {
	defaults, names, e := bb.defaults(vb.Defaults)
	if e != nil {
		return nil, e
	}

	src, e := bb.str(vb.Script)
	if e != nil {
		return nil, e
	}

	var action eval.Verb
	if src != "" {
		i, e := bb.interpreter(vb.Script.Range())
		if e != nil {
			return nil, e
		}

		action, e = i.CompileVerb(vb.Name, src)
		if e != nil {
			return nil, compileError(vb.Script.Range(), e)
		}
	}

	return withDefaults(defaults, names, action), nil
}

func (bb *blockBuilder) defaults(expr hcl.Expression) (map[string]any, []string, error) {
	v, diags := expr.Value(bb.evalCtx)
	if diags.HasErrors() {
		return nil, nil, diagError(diags)
	}
	if v.IsNull() {
		return nil, nil, nil
	}

	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, nil, manifestError(expr.Range(), "defaults must be an object")
	}

	x, e := ctyToGo(v)
	if e != nil {
		return nil, nil, manifestError(expr.Range(), "invalid defaults: %s", e)
	}

	defaults := x.(map[string]any)
	names := make([]string, 0, len(defaults))
	for name := range defaults {
		names = append(names, name)
	}
	sort.Strings(names)
	return defaults, names, nil
}

// withDefaults binds missing defaults in the segment scope before running action.
// nil action only binds defaults.
func withDefaults(defaults map[string]any, names []string, action eval.Verb) eval.Verb {
	if len(names) == 0 && action != nil {
		return action
	}

	return func(s *eval.Scope) {
		for _, name := range names {
			if !s.Has(name) {
				s.Set(name, defaults[name])
			}
		}
		if action != nil {
			action(s)
		}
	}
}

func (bb *blockBuilder) modifier(mb *modifierBlock) (value.Modifier, error) {
	src, e := bb.str(mb.Script)
	if e != nil {
		return value.Modifier{}, e
	}
	if src == "" {
		return value.Modifier{}, manifestError(mb.Script.Range(), "empty script of modifier %q", mb.Name)
	}

	i, e := bb.interpreter(mb.Script.Range())
	if e != nil {
		return value.Modifier{}, e
	}

	compute, e := i.CompileModifier(mb.Name, src)
	if e != nil {
		return value.Modifier{}, compileError(mb.Script.Range(), e)
	}

	return value.Modifier{Keyword: mb.Name, Suffix: mb.Suffix, Compute: compute}, nil
}
