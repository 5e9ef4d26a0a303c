// Package goja compiles verb and modifier scripts written in ECMAScript 5.1+
// using Goja, see https://github.com/dop251/goja.
//
// A script is the body of a function. The following properties are available at _:
//
//	get(name): the value bound in the segment scope or null (verbs only);
//	has(name): whether the name is bound (verbs only);
//	set(name, value): bind the name in the segment scope (verbs only);
//	names(): visible binding names (verbs only);
//	base: the value being modified (modifiers only);
//	env: the environment, {actor, location, values};
//	log(args...): log a message at info level;
//	cronNext(expr): the next time matching a cron expression, in RFC 3339 format.
//
// A verb script that throws fails the verb. A modifier script returns the modified value.
package goja

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/gorhill/cronexpr"

	"github.com/ava12/verbal"
	"github.com/ava12/verbal/eval"
	"github.com/ava12/verbal/extension"
	"github.com/ava12/verbal/internal/ctxlog"
	"github.com/ava12/verbal/value"
)

// InterruptedMessage is passed to the runtime when the execution context is done.
var InterruptedMessage = "RuntimeError: interrupted"

// Interpreter implements extension.Interpreter. It is safe for concurrent use,
// every execution gets its own runtime.
type Interpreter struct {
	// Testing exposes sleep(ms).
	Testing bool

	// Now is used by cronNext, time.Now if nil.
	Now func() time.Time
}

var _ extension.Interpreter = (*Interpreter)(nil)

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

func wrapSrc(src string) string {
	return fmt.Sprintf("(function() {\n%s\n}());\n", src)
}

// Compile compiles script body.
func (i *Interpreter) Compile(name, src string) (*goja.Program, error) {
	p, e := goja.Compile(name, wrapSrc(src), true)
	if e != nil {
		return nil, verbal.FormatError(extension.ScriptCompileError, "cannot compile %s: %s", name, e)
	}
	return p, nil
}

// CompileVerb implements extension.Interpreter.
// Script errors abort the verb with ScriptRuntimeError or ScriptInterruptedError.
func (i *Interpreter) CompileVerb(name, src string) (eval.Verb, error) {
	p, e := i.Compile("verb "+name, src)
	if e != nil {
		return nil, e
	}

	return func(s *eval.Scope) {
		ctx := ctxlog.WithLogger(s.Context(), ctxlog.FromContext(s.Context()).With("verb", name))
		_, e := i.run(ctx, p, func(o *goja.Runtime, api map[string]any) {
			api["get"] = func(name string) any {
				v, _ := s.Get(name)
				return v
			}
			api["has"] = s.Has
			api["set"] = func(name string, v goja.Value) {
				s.Set(name, export(v))
			}
			api["names"] = s.Names
			api["env"] = envObject(s.Env())
		})
		if e != nil {
			eval.Abort(e)
		}
	}, nil
}

// CompileModifier implements extension.Interpreter.
func (i *Interpreter) CompileModifier(name, src string) (value.ComputeFunc, error) {
	p, e := i.Compile("modifier "+name, src)
	if e != nil {
		return nil, e
	}

	return func(env *value.Environment, base any) (any, error) {
		return i.run(context.Background(), p, func(o *goja.Runtime, api map[string]any) {
			api["base"] = base
			api["env"] = envObject(env)
		})
	}, nil
}

func envObject(env *value.Environment) map[string]any {
	if env == nil {
		return map[string]any{"values": map[string]any{}}
	}

	values := env.Values
	if values == nil {
		values = map[string]any{}
	}
	return map[string]any{
		"actor":    env.Actor,
		"location": env.Location,
		"values":   values,
	}
}

func protest(o *goja.Runtime, x any) {
	panic(o.ToValue(x))
}

func (i *Interpreter) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

func (i *Interpreter) run(ctx context.Context, p *goja.Program, setup func(o *goja.Runtime, api map[string]any)) (any, error) {
	logger := ctxlog.FromContext(ctx)
	o := goja.New()
	api := make(map[string]any)

	api["log"] = func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for n, arg := range call.Arguments {
			parts[n] = arg.String()
		}
		logger.Info(strings.Join(parts, " "))
		return goja.Undefined()
	}

	api["cronNext"] = func(x goja.Value) string {
		expr, is := x.Export().(string)
		if !is {
			protest(o, "not a string")
		}

		c, e := cronexpr.Parse(expr)
		if e != nil {
			protest(o, e.Error())
		}
		return c.Next(i.now()).UTC().Format(time.RFC3339Nano)
	}

	if i.Testing {
		api["sleep"] = func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		}
	}

	setup(o, api)
	e := o.Set("_", api)
	if e != nil {
		return nil, e
	}

	ictx, cancel := context.WithCancel(ctx)
	go func() {
		<-ictx.Done()
		o.Interrupt(InterruptedMessage)
	}()

	v, e := o.RunProgram(p)
	cancel()

	if e != nil {
		var ie *goja.InterruptedError
		if errors.As(e, &ie) {
			return nil, verbal.FormatError(extension.ScriptInterruptedError, "script interrupted: %v", context.Cause(ctx))
		}
		return nil, verbal.FormatError(extension.ScriptRuntimeError, "%s", e)
	}

	return export(v), nil
}

// export converts a script value to plain Go data. Integers become float64.
func export(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return normalize(v.Export())
}

func normalize(x any) any {
	switch x := x.(type) {
	case int64:
		return float64(x)
	case int:
		return float64(x)
	case []any:
		for n, item := range x {
			x[n] = normalize(item)
		}
		return x
	case map[string]any:
		for k, item := range x {
			x[k] = normalize(item)
		}
		return x
	}
	return x
}
