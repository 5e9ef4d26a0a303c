// Package registry collects rules, verbs and modifiers contributed by extensions
// and compiles them once into an immutable Config.
//
// Registration is only possible before Compile. Extension order matters:
// rules of an earlier extension are tried before rules of a later one,
// and a verb registered later replaces an earlier verb with the same name.
package registry

import (
	"log/slog"
	"sort"

	"github.com/ava12/verbal"
	"github.com/ava12/verbal/eval"
	"github.com/ava12/verbal/lexer"
	"github.com/ava12/verbal/parser"
	"github.com/ava12/verbal/rule"
	"github.com/ava12/verbal/value"
)

// Error codes used by registry:
const (
	AlreadyCompiledError = verbal.RegistryErrors + iota
	EmptyVerbNameError
	NilVerbError
	NilRuleError
	EmptyKeywordError
)

func alreadyCompiledError() *verbal.Error {
	return verbal.FormatError(AlreadyCompiledError, "registry is already compiled")
}

// Extension contributes verbs and rules.
type Extension interface {
	RegisterVerbs(pool eval.VerbPool) error
	RegisterRules(rules *RuleList) error
}

// ModifierExtension is an extension contributing adverb modifiers as well.
type ModifierExtension interface {
	Extension
	RegisterModifiers(mods *ModifierList) error
}

// KeywordSource is an extension contributing extra dictionary words.
type KeywordSource interface {
	ExtensionKeywords() []string
}

// RuleList is an ordered list of rules being registered.
type RuleList struct {
	reg   *Registry
	rules []*rule.Rule
}

// Add appends rules to the list.
func (rl *RuleList) Add(rules ...*rule.Rule) error {
	if rl.reg.compiled {
		return alreadyCompiledError()
	}

	for _, r := range rules {
		if r == nil || r.Body == nil {
			return verbal.FormatError(NilRuleError, "nil rule")
		}
	}

	rl.rules = append(rl.rules, rules...)
	return nil
}

// Parse parses rule description and appends the rule to the list.
func (rl *RuleList) Parse(name, desc string) error {
	r, e := rule.Parse(name, desc)
	if e != nil {
		return e
	}
	return rl.Add(r)
}

func (rl *RuleList) Len() int {
	return len(rl.rules)
}

// ModifierList is an ordered list of adverb modifiers being registered.
type ModifierList struct {
	reg  *Registry
	mods []value.Modifier
}

func (ml *ModifierList) Add(mods ...value.Modifier) error {
	if ml.reg.compiled {
		return alreadyCompiledError()
	}

	for _, m := range mods {
		if m.Keyword == "" {
			return verbal.FormatError(EmptyKeywordError, "empty modifier keyword")
		}
	}

	ml.mods = append(ml.mods, mods...)
	return nil
}

// Option configures Registry.
type Option func(r *Registry)

// WithLogger sets the logger reporting registrations, slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// Registry is a mutable collection of contributions. It is not safe for concurrent use.
type Registry struct {
	logger          *slog.Logger
	verbs           map[string]eval.Verb
	rules           RuleList
	mods            ModifierList
	keywords        []string
	segmentKeywords []string
	compiled        bool
}

func New(opts ...Option) *Registry {
	r := &Registry{
		logger: slog.Default(),
		verbs:  make(map[string]eval.Verb),
	}
	r.rules.reg = r
	r.mods.reg = r
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers extensions in given order.
// Contributions of an extension are kept only if all of its registration steps succeed.
func (r *Registry) Add(exts ...Extension) error {
	for _, ext := range exts {
		if r.compiled {
			return alreadyCompiledError()
		}

		stage := r.stage()
		e := ext.RegisterVerbs(stage)
		if e == nil {
			e = ext.RegisterRules(&stage.rules)
		}
		if me, is := ext.(ModifierExtension); is && e == nil {
			e = me.RegisterModifiers(&stage.mods)
		}
		if e != nil {
			return e
		}
		if ks, is := ext.(KeywordSource); is {
			stage.keywords = append(stage.keywords, ks.ExtensionKeywords()...)
		}

		r.commit(stage)
		r.logger.Debug("extension registered", "extension", extensionName(ext))
	}
	return nil
}

// stage returns an empty registry collecting contributions of a single extension.
func (r *Registry) stage() *Registry {
	return New(WithLogger(r.logger))
}

func (r *Registry) commit(stage *Registry) {
	names := make([]string, 0, len(stage.verbs))
	for name := range stage.verbs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, exists := r.verbs[name]; exists {
			r.logger.Warn("verb redefined", "verb", name)
		}
		r.verbs[name] = stage.verbs[name]
	}
	r.rules.rules = append(r.rules.rules, stage.rules.rules...)
	r.mods.mods = append(r.mods.mods, stage.mods.mods...)
	r.keywords = append(r.keywords, stage.keywords...)
}

func extensionName(ext Extension) string {
	if named, is := ext.(interface{ Name() string }); is {
		return named.Name()
	}
	return "-"
}

// AddVerb implements eval.VerbPool.
func (r *Registry) AddVerb(name string, v eval.Verb) error {
	if r.compiled {
		return alreadyCompiledError()
	}
	if name == "" {
		return verbal.FormatError(EmptyVerbNameError, "empty verb name")
	}
	if v == nil {
		return verbal.FormatError(NilVerbError, "nil action for verb %q", name)
	}

	if _, exists := r.verbs[name]; exists {
		r.logger.Warn("verb redefined", "verb", name)
	}
	r.verbs[name] = v
	return nil
}

func (r *Registry) AddRules(rules ...*rule.Rule) error {
	return r.rules.Add(rules...)
}

func (r *Registry) AddModifier(mods ...value.Modifier) error {
	return r.mods.Add(mods...)
}

// AddKeywords adds words to the lexer dictionary.
func (r *Registry) AddKeywords(words ...string) error {
	if r.compiled {
		return alreadyCompiledError()
	}
	r.keywords = append(r.keywords, words...)
	return nil
}

// SetSegmentKeywords replaces default segment keywords.
func (r *Registry) SetSegmentKeywords(words ...string) error {
	if r.compiled {
		return alreadyCompiledError()
	}
	if len(words) == 0 {
		return verbal.FormatError(EmptyKeywordError, "no segment keywords")
	}
	for _, w := range words {
		if w == "" {
			return verbal.FormatError(EmptyKeywordError, "empty segment keyword")
		}
	}

	r.segmentKeywords = append([]string(nil), words...)
	return nil
}

// Compile freezes the registry and builds the configuration.
// Extra keywords are added to the lexer dictionary.
// Any registration after Compile fails with AlreadyCompiledError.
func (r *Registry) Compile(keywords ...string) (*Config, error) {
	if r.compiled {
		return nil, alreadyCompiledError()
	}
	r.compiled = true

	verbs := make(map[string]eval.Verb, len(r.verbs))
	for name, v := range r.verbs {
		verbs[name] = v
	}

	opts := []parser.Option{
		parser.WithModifiers(r.mods.mods...),
		parser.WithKeywords(r.keywords...),
		parser.WithKeywords(keywords...),
	}
	if len(r.segmentKeywords) > 0 {
		opts = append(opts, parser.WithSegmentKeywords(r.segmentKeywords...))
	}

	cfg := &Config{
		parser:    parser.New(r.rules.rules, opts...),
		verbs:     verbs,
		modifiers: append([]value.Modifier(nil), r.mods.mods...),
	}
	r.logger.Debug("registry compiled", "rules", len(r.rules.rules), "verbs", len(verbs),
		"modifiers", len(cfg.modifiers), "keywords", cfg.Dictionary().Len())
	return cfg, nil
}

// Config is a compiled read-only set of rules, verbs and modifiers.
// It is safe for concurrent use.
type Config struct {
	parser    *parser.Parser
	verbs     map[string]eval.Verb
	modifiers []value.Modifier
}

func (c *Config) Parser() *parser.Parser {
	return c.parser
}

// Rules returns rules in priority order. The slice must not be modified.
func (c *Config) Rules() []*rule.Rule {
	return c.parser.Rules()
}

// Verb implements eval.VerbSet.
func (c *Config) Verb(name string) (eval.Verb, bool) {
	v, found := c.verbs[name]
	return v, found
}

// Verbs returns sorted verb names.
func (c *Config) Verbs() []string {
	names := make([]string, 0, len(c.verbs))
	for name := range c.verbs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) Dictionary() *lexer.Dictionary {
	return c.parser.Dictionary()
}

// Modifiers returns modifiers in registration order. The slice must not be modified.
func (c *Config) Modifiers() []value.Modifier {
	return c.modifiers
}

func (c *Config) SegmentKeywords() []string {
	return c.parser.SegmentKeywords()
}
