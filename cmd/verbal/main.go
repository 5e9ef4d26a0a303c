/*
verbal is a console utility running verbal scripts.
Usage is

	verbal [-c <file>] [-x <dir>]... [-s <segment>] [-db <file>] [-doc <file>] [-v] [<script>...]

-c <file> defines YAML config file;

-x <dir> adds a directory (or a single file) with HCL extension manifests, may be repeated;

-s <segment> runs only the named segment of every script, default is to run all segments;

-db <file> keeps script sources in a bbolt database; loaded scripts are saved there,
and saved scripts are run when no script files are given;

-doc <file> writes HTML documentation of the compiled rule set;

-v enables debug logging;

<script> is a script file name.

Built-in rules are "{say} <text:any>" printing a value, "{say}" printing the value bound to "text",
and "{dump}" printing all visible bindings.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ava12/verbal"
	"github.com/ava12/verbal/engine"
	"github.com/ava12/verbal/eval"
	"github.com/ava12/verbal/extension"
	"github.com/ava12/verbal/internal/config"
	"github.com/ava12/verbal/internal/ctxlog"
	"github.com/ava12/verbal/interpreters/goja"
	"github.com/ava12/verbal/registry"
	"github.com/ava12/verbal/rule"
	"github.com/ava12/verbal/store/bolt"
	"github.com/ava12/verbal/tools"
	"github.com/ava12/verbal/value"
)

// ExitError carries process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func main() {
	e := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	if e != nil {
		var ee *ExitError
		if errors.As(e, &ee) {
			if ee.Message != "" {
				fmt.Fprintln(os.Stderr, ee.Message)
			}
			os.Exit(ee.Code)
		}

		fmt.Fprintln(os.Stderr, e.Error())
		os.Exit(3)
	}
}

type options struct {
	configFile string
	extDirs    []string
	segment    string
	storePath  string
	docFile    string
	verbose    bool
	scripts    []string
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("verbal", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage is  verbal [-c <file>] [-x <dir>]... [-s <segment>] [-db <file>] [-doc <file>] [-v] [<script>...]")
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "  <script>")
		fmt.Fprintln(fs.Output(), "\tscript file name")
	}

	fs.StringVar(&opts.configFile, "c", "", "YAML config file")
	fs.Func("x", "directory or file with extension manifests, may be repeated", func(s string) error {
		opts.extDirs = append(opts.extDirs, s)
		return nil
	})
	fs.StringVar(&opts.segment, "s", "", "segment to run, default is all segments")
	fs.StringVar(&opts.storePath, "db", "", "script store file")
	fs.StringVar(&opts.docFile, "doc", "", "write HTML documentation of rules to file")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")

	e := fs.Parse(args)
	if e != nil {
		if errors.Is(e, flag.ErrHelp) {
			return nil, &ExitError{Code: 0}
		}
		return nil, &ExitError{Code: 2, Message: e.Error()}
	}

	opts.scripts = fs.Args()
	if len(opts.scripts) == 0 && opts.docFile == "" && opts.storePath == "" {
		fs.Usage()
		return nil, &ExitError{Code: 2}
	}
	return opts, nil
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configFile != "" {
		var e error
		cfg, e = config.Load(opts.configFile)
		if e != nil {
			return nil, &ExitError{Code: 2, Message: e.Error()}
		}
	}

	cfg.ExtensionDirs = append(cfg.ExtensionDirs, opts.extDirs...)
	if opts.segment != "" {
		cfg.Segment = opts.segment
	}
	if opts.storePath != "" {
		cfg.StorePath = opts.storePath
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// builtins returns verbs printing to out.
func builtins(out io.Writer) *registry.Bundle {
	return &registry.Bundle{
		ID: "builtin",
		Verbs: map[string]eval.Verb{
			"say": func(s *eval.Scope) {
				v, _ := s.Get("text")
				fmt.Fprintln(out, printable(v))
			},
			"dump": func(s *eval.Scope) {
				values := s.Values()
				for _, name := range s.Names() {
					fmt.Fprintf(out, "%s=%s\n", name, value.FormatGo(values[name]))
				}
			},
		},
		Rules: []*rule.Rule{
			rule.MustParse("say", "{say} <text:any>"),
			rule.MustParse("say-bound", "{say}"),
			rule.MustParse("dump", "{dump}"),
		},
	}
}

func printable(v any) string {
	if s, is := v.(string); is {
		return s
	}
	return value.FormatGo(v)
}

func compile(ctx context.Context, cfg *config.Config, out io.Writer) (*registry.Config, error) {
	reg := registry.New(registry.WithLogger(ctxlog.FromContext(ctx)))
	e := reg.Add(builtins(out))
	if e == nil && len(cfg.SegmentKeywords) > 0 {
		e = reg.SetSegmentKeywords(cfg.SegmentKeywords...)
	}
	if e != nil {
		return nil, e
	}

	loader := extension.NewLoader(
		extension.WithInterpreter(extension.DefaultInterpreter, goja.NewInterpreter()),
		extension.WithVariables(cfg.Values),
	)
	for _, dir := range cfg.ExtensionDirs {
		exts, e := loader.LoadDir(ctx, dir)
		if e != nil {
			return nil, e
		}

		for _, ext := range exts {
			e = reg.Add(ext)
			if e != nil {
				return nil, e
			}
		}
	}

	return reg.Compile(cfg.Keywords...)
}

func writeDoc(rc *registry.Config, filename string) error {
	f, e := os.Create(filename)
	if e != nil {
		return e
	}

	e = tools.RenderPage(rc, "verbal rules", nil, f)
	if ce := f.Close(); e == nil {
		e = ce
	}
	return e
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, e := parseArgs(args, stderr)
	if e != nil {
		var ee *ExitError
		if errors.As(e, &ee) && ee.Code == 0 {
			return nil
		}
		return e
	}

	cfg, e := loadConfig(opts)
	if e != nil {
		return e
	}

	logger := cfg.Logger(stderr)
	ctx = ctxlog.WithLogger(ctx, logger)

	rc, e := compile(ctx, cfg, stdout)
	if e != nil {
		return e
	}

	if opts.docFile != "" {
		e = writeDoc(rc, opts.docFile)
		if e != nil {
			return e
		}
		logger.Info("documentation written", "file", opts.docFile)
	}

	var engineOpts []engine.Option
	if cfg.StorePath != "" {
		st, e := bolt.Open(ctx, cfg.StorePath)
		if e != nil {
			return e
		}
		defer st.Close()
		engineOpts = append(engineOpts, engine.WithStore(st))
	}

	en := engine.New(ctx, rc, engineOpts...)
	env := &value.Environment{Actor: cfg.Actor, Location: cfg.Location, Values: cfg.Values}

	if len(opts.scripts) == 0 {
		if cfg.StorePath == "" {
			return nil
		}

		e = en.Restore(ctx)
		if e != nil {
			logger.Warn("some scripts were not restored", "error", e)
		}
		return execAll(ctx, en, en.Scripts(), cfg.Segment, env)
	}

	names := make([]string, 0, len(opts.scripts))
	for _, filename := range opts.scripts {
		src, e := os.ReadFile(filename)
		if e != nil {
			return e
		}

		e = en.Load(ctx, filename, string(src))
		if e != nil {
			return e
		}
		names = append(names, filename)
	}

	return execAll(ctx, en, names, cfg.Segment, env)
}

// execAll runs scripts in order. A script lacking the segment is skipped.
func execAll(ctx context.Context, en *engine.Engine, names []string, segment string, env *value.Environment) error {
	logger := ctxlog.FromContext(ctx)
	for _, name := range names {
		e := en.Exec(ctx, name, segment, env)
		if segment != "" && isUnknownSegment(e) {
			logger.Debug("segment not found", "script", name, "segment", segment)
			continue
		}
		if e != nil {
			return e
		}
	}
	return nil
}

func isUnknownSegment(e error) bool {
	return verbal.HasCode(e, eval.UnknownSegmentError)
}
