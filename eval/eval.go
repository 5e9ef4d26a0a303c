// Package eval runs parsed scripts: it binds adverb values into scopes and invokes verb actions.
package eval

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/ava12/verbal"
	"github.com/ava12/verbal/ast"
	"github.com/ava12/verbal/internal/ctxlog"
	"github.com/ava12/verbal/value"
)

// Error codes used by evaluator and script pool:
const (
	// TransformError indicates a failed computation of a runtime value.
	TransformError = verbal.EvalErrors + iota
	// VerbPanicError indicates a panic inside a verb action.
	VerbPanicError
	UnknownSegmentError
	UnknownScriptError
	// VerbFailedError is used for errors reported by verb actions via Abort.
	VerbFailedError
)

// Verb is an action invoked with the scope of current sentence.
type Verb func(s *Scope)

// VerbPool receives verb registrations.
type VerbPool interface {
	AddVerb(name string, v Verb) error
}

// VerbSet resolves verb names to actions.
type VerbSet interface {
	Verb(name string) (Verb, bool)
}

// Verbs is a plain verb map implementing both VerbPool and VerbSet.
type Verbs map[string]Verb

func (vs Verbs) Verb(name string) (Verb, bool) {
	v, found := vs[name]
	return v, found
}

func (vs Verbs) AddVerb(name string, v Verb) error {
	vs[name] = v
	return nil
}

type abortSignal struct {
	err error
}

// Abort stops the running verb and the segment with error e.
// Must be called from a verb action only.
func Abort(e error) {
	panic(abortSignal{e})
}

// Option configures Evaluator.
type Option func(ev *Evaluator)

// WithRoot replaces the root scope.
func WithRoot(root *Scope) Option {
	return func(ev *Evaluator) {
		ev.root = root
	}
}

// WithGlobals binds values in the root scope, including a root set by WithRoot in any option order.
func WithGlobals(values map[string]any) Option {
	return func(ev *Evaluator) {
		ev.globals = append(ev.globals, values)
	}
}

// Evaluator owns the root scope. Every segment run gets its own child scope
// shared by all sentences of the segment.
type Evaluator struct {
	verbs   VerbSet
	root    *Scope
	globals []map[string]any
}

func New(verbs VerbSet, opts ...Option) *Evaluator {
	if verbs == nil {
		verbs = Verbs{}
	}
	ev := &Evaluator{verbs: verbs, root: NewScope(nil)}
	for _, opt := range opts {
		opt(ev)
	}

	for _, values := range ev.globals {
		for name, v := range values {
			ev.root.Set(name, v)
		}
	}
	ev.globals = nil
	return ev
}

func (ev *Evaluator) Root() *Scope {
	return ev.root
}

// RunScript runs all segments in source order, stopping at the first error.
func (ev *Evaluator) RunScript(ctx context.Context, script *ast.Script, env *value.Environment) error {
	for _, seg := range script.Segments {
		e := ev.RunSegment(ctx, seg, env)
		if e != nil {
			return e
		}
	}
	return nil
}

// RunNamed runs the segment of script with given name.
func (ev *Evaluator) RunNamed(ctx context.Context, script *ast.Script, name string, env *value.Environment) error {
	seg := script.Segment(name)
	if seg == nil {
		return verbal.FormatError(UnknownSegmentError, "unknown segment %q in script %q", name, script.Name)
	}
	return ev.RunSegment(ctx, seg, env)
}

// RunSegment runs sentences of seg in a new child of the root scope.
// Bindings made by a sentence are visible to the following sentences of the segment.
func (ev *Evaluator) RunSegment(ctx context.Context, seg *ast.Segment, env *value.Environment) error {
	logger := ctxlog.FromContext(ctx).With("segment", seg.Name)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("running segment", "sentences", len(seg.Sentences))

	scope := ev.root.ChildWith(env).withContext(ctx)
	for _, sent := range seg.Sentences {
		e := ev.RunSentence(ctx, sent, scope)
		if e != nil {
			logger.Debug("segment aborted", "error", e)
			return e
		}
	}
	return nil
}

// RunSentence walks components left to right in scope.
// Adverbs are bound as they appear, so a verb sees only the adverbs written before it.
// Verbs missing from the verb set are skipped.
func (ev *Evaluator) RunSentence(ctx context.Context, sent *ast.Sentence, scope *Scope) error {
	logger := ctxlog.FromContext(ctx)
	scope.withContext(ctx)
	env := scope.Env().WithVars(scope)

	for _, c := range sent.Components {
		switch c := c.(type) {
		case *ast.Adverb:
			v, e := value.Resolve(c.Value, env)
			if e != nil {
				return verbal.FormatErrorPos(sent.Pos, TransformError, "cannot compute %q: %s", c.Name, e)
			}
			scope.Set(c.Name, v)

		case *ast.Verb:
			action, found := ev.verbs.Verb(c.Name)
			if !found || action == nil {
				logger.Debug("unknown verb", "verb", c.Name, "line", sent.Pos.Line())
				continue
			}

			e := ev.invoke(ctx, sent, c.Name, action, scope)
			if e != nil {
				return e
			}
		}
	}
	return nil
}

func (ev *Evaluator) invoke(ctx context.Context, sent *ast.Sentence, name string, action Verb, scope *Scope) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		if abort, is := r.(abortSignal); is {
			err = verbal.FormatErrorPos(sent.Pos, VerbFailedError, "verb %q failed: %s", name, abort.err)
			return
		}

		ctxlog.FromContext(ctx).Error("verb panicked", "verb", name, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		err = verbal.FormatErrorPos(sent.Pos, VerbPanicError, "verb %q panicked: %v", name, r)
	}()

	action(scope)
	return nil
}
