// Package engine runs scripts against a compiled registry configuration
// and keeps a pool of named parsed scripts.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/ava12/verbal"
	"github.com/ava12/verbal/ast"
	"github.com/ava12/verbal/eval"
	"github.com/ava12/verbal/internal/ctxlog"
	"github.com/ava12/verbal/registry"
	"github.com/ava12/verbal/store"
	"github.com/ava12/verbal/value"
)

// Option configures Engine.
type Option func(en *Engine)

// WithStore persists sources of loaded scripts.
func WithStore(s store.Store) Option {
	return func(en *Engine) {
		en.store = s
	}
}

// WithEvalOptions passes options to the evaluator.
func WithEvalOptions(opts ...eval.Option) Option {
	return func(en *Engine) {
		en.evalOpts = append(en.evalOpts, opts...)
	}
}

type entry struct {
	script *ast.Script
	source string
}

// Engine is safe for concurrent use. Each invocation owns its token stream and scope chain.
type Engine struct {
	cfg      *registry.Config
	ev       *eval.Evaluator
	evalOpts []eval.Option
	store    store.Store
	logger   *slog.Logger

	mu      sync.RWMutex
	scripts map[string]entry
}

// New creates an engine. Logger is taken from ctx.
func New(ctx context.Context, cfg *registry.Config, opts ...Option) *Engine {
	en := &Engine{
		cfg:     cfg,
		logger:  ctxlog.FromContext(ctx),
		scripts: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(en)
	}
	en.ev = eval.New(cfg, en.evalOpts...)
	return en
}

func (en *Engine) Config() *registry.Config {
	return en.cfg
}

func (en *Engine) Evaluator() *eval.Evaluator {
	return en.ev
}

// Parse lexes and parses script text.
func (en *Engine) Parse(name, text string) (*ast.Script, error) {
	p := en.cfg.Parser()
	ts, e := p.Lex(name, text)
	if e != nil {
		return nil, e
	}

	if skipped := ts.Skipped(); len(skipped) > 0 {
		en.logger.Debug("unrecognized characters skipped", "script", name, "count", len(skipped))
	}

	return p.ParseScript(ts)
}

// Run parses text and runs all its segments. Nothing runs if parsing fails.
func (en *Engine) Run(ctx context.Context, name, text string, env *value.Environment) error {
	script, e := en.Parse(name, text)
	if e != nil {
		return e
	}
	return en.ev.RunScript(en.context(ctx, name), script, env)
}

// Load parses text and keeps the script in the pool under name, replacing a script with the same name.
// The source is saved to the store if the engine has one.
func (en *Engine) Load(ctx context.Context, name, text string) error {
	script, e := en.Parse(name, text)
	if e != nil {
		return e
	}

	if en.store != nil {
		e = en.store.Put(ctx, name, text)
		if e != nil {
			return e
		}
	}

	en.keep(name, script, text)
	en.logger.Info("script loaded", "script", name, "segments", len(script.Segments))
	return nil
}

func (en *Engine) keep(name string, script *ast.Script, text string) {
	en.mu.Lock()
	defer en.mu.Unlock()
	en.scripts[name] = entry{script, text}
}

// Unload removes a script from the pool and the store.
func (en *Engine) Unload(ctx context.Context, name string) error {
	en.mu.Lock()
	_, found := en.scripts[name]
	delete(en.scripts, name)
	en.mu.Unlock()

	if !found {
		return unknownScriptError(name)
	}
	if en.store != nil {
		return en.store.Delete(ctx, name)
	}
	return nil
}

// Restore loads all scripts saved in the store.
// Scripts that fail to load are skipped, the returned error joins their errors.
func (en *Engine) Restore(ctx context.Context) error {
	if en.store == nil {
		return nil
	}

	names, e := en.store.List(ctx)
	if e != nil {
		return e
	}

	var errs []error
	for _, name := range names {
		rec, e := en.store.Get(ctx, name)
		if e == nil {
			var script *ast.Script
			script, e = en.Parse(name, rec.Source)
			if e == nil {
				en.keep(name, script, rec.Source)
				continue
			}
		}

		en.logger.Warn("cannot restore script", "script", name, "error", e)
		errs = append(errs, e)
	}

	en.logger.Info("scripts restored", "count", len(names)-len(errs))
	return errors.Join(errs...)
}

func unknownScriptError(name string) *verbal.Error {
	return verbal.FormatError(eval.UnknownScriptError, "unknown script %q", name)
}

func (en *Engine) script(name string) (entry, bool) {
	en.mu.RLock()
	defer en.mu.RUnlock()
	ent, found := en.scripts[name]
	return ent, found
}

// Exec runs a segment of a loaded script, or all its segments if segment is empty.
func (en *Engine) Exec(ctx context.Context, scriptName, segment string, env *value.Environment) error {
	ent, found := en.script(scriptName)
	if !found {
		return unknownScriptError(scriptName)
	}

	ctx = en.context(ctx, scriptName)
	if segment == "" {
		return en.ev.RunScript(ctx, ent.script, env)
	}
	return en.ev.RunNamed(ctx, ent.script, segment, env)
}

func (en *Engine) context(ctx context.Context, script string) context.Context {
	return ctxlog.WithLogger(ctx, ctxlog.FromContext(ctx).With("script", script))
}

// Scripts returns sorted names of loaded scripts.
func (en *Engine) Scripts() []string {
	en.mu.RLock()
	defer en.mu.RUnlock()
	names := make([]string, 0, len(en.scripts))
	for name := range en.scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Segments returns segment names of a loaded script in source order.
func (en *Engine) Segments(scriptName string) ([]string, error) {
	ent, found := en.script(scriptName)
	if !found {
		return nil, unknownScriptError(scriptName)
	}
	return ent.script.SegmentNames(), nil
}

// Source returns source text of a loaded script.
func (en *Engine) Source(scriptName string) (string, error) {
	ent, found := en.script(scriptName)
	if !found {
		return "", unknownScriptError(scriptName)
	}
	return ent.source, nil
}
