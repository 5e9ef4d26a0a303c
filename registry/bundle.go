package registry

import (
	"sort"

	"github.com/ava12/verbal/eval"
	"github.com/ava12/verbal/rule"
	"github.com/ava12/verbal/value"
)

// Bundle is an extension made of plain data.
type Bundle struct {
	ID        string
	Verbs     map[string]eval.Verb
	Rules     []*rule.Rule
	Modifiers []value.Modifier
	Keywords  []string
}

func (b *Bundle) Name() string {
	return b.ID
}

// RegisterVerbs registers verbs in name order.
func (b *Bundle) RegisterVerbs(pool eval.VerbPool) error {
	names := make([]string, 0, len(b.Verbs))
	for name := range b.Verbs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		e := pool.AddVerb(name, b.Verbs[name])
		if e != nil {
			return e
		}
	}
	return nil
}

func (b *Bundle) RegisterRules(rules *RuleList) error {
	return rules.Add(b.Rules...)
}

func (b *Bundle) ExtensionKeywords() []string {
	return b.Keywords
}

func (b *Bundle) RegisterModifiers(mods *ModifierList) error {
	return mods.Add(b.Modifiers...)
}
