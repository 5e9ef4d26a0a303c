// Package rule defines clause grammar: a closed set of match nodes and named rules built from them.
// Rules are pure data and are never modified once built.
package rule

import (
	"strings"
)

// ValueType is the declared type of an adverb slot.
type ValueType int

const (
	// Any accepts the first literal kind that matches.
	Any ValueType = iota
	String
	Number
	Boolean
	// Position is a bracketed triple of numbers, e.g. [1, 2, 3].
	Position
	// Entity is a bracketed quoted name, e.g. ["Steve"].
	Entity
)

var valueTypeNames = [...]string{"any", "string", "number", "boolean", "position", "entity"}

var valueTypeAliases = map[string]ValueType{
	"any":      Any,
	"string":   String,
	"number":   Number,
	"bool":     Boolean,
	"boolean":  Boolean,
	"position": Position,
	"pos":      Position,
	"entity":   Entity,
	"player":   Entity,
}

func (vt ValueType) String() string {
	if vt < 0 || int(vt) >= len(valueTypeNames) {
		return "-unknown-"
	}
	return valueTypeNames[vt]
}

// ParseValueType returns value type by its name or alias, case-insensitive.
func ParseValueType(name string) (ValueType, bool) {
	vt, found := valueTypeAliases[strings.ToLower(name)]
	return vt, found
}

// Node is a grammar match node. The set of node types is closed:
// *Seq, *AnyOf, *Text, *VerbSlot, *AdverbSlot.
type Node interface {
	String() string
	isNode()
}

// Seq matches all its nodes consecutively.
type Seq struct {
	Nodes []Node
}

// AnyOf matches the first of its alternatives that matches.
type AnyOf struct {
	Nodes []Node
}

// Text matches a keyword with exactly the same text.
type Text struct {
	Text string
}

// VerbSlot matches a verb keyword and captures it as a verb component.
type VerbSlot struct {
	Verb string
}

// AdverbSlot captures a literal of declared type bound to a parameter name.
type AdverbSlot struct {
	Name string
	Type ValueType
}

func (*Seq) isNode()        {}
func (*AnyOf) isNode()      {}
func (*Text) isNode()       {}
func (*VerbSlot) isNode()   {}
func (*AdverbSlot) isNode() {}

func NewSeq(nodes ...Node) *Seq {
	return &Seq{nodes}
}

func NewAnyOf(nodes ...Node) *AnyOf {
	return &AnyOf{nodes}
}

func NewText(text string) *Text {
	return &Text{text}
}

func NewVerb(verb string) *VerbSlot {
	return &VerbSlot{verb}
}

func NewAdverb(name string, vt ValueType) *AdverbSlot {
	return &AdverbSlot{name, vt}
}

const specialChars = "{}<>()|\""

func (n *Seq) String() string {
	parts := make([]string, len(n.Nodes))
	for i, child := range n.Nodes {
		parts[i] = child.String()
	}
	return strings.Join(parts, " ")
}

func (n *AnyOf) String() string {
	verbs := make([]string, 0, len(n.Nodes))
	for _, child := range n.Nodes {
		if v, is := child.(*VerbSlot); is {
			verbs = append(verbs, v.Verb)
		}
	}
	if len(verbs) > 0 && len(verbs) == len(n.Nodes) {
		return "{" + strings.Join(verbs, "|") + "}"
	}

	parts := make([]string, len(n.Nodes))
	for i, child := range n.Nodes {
		parts[i] = child.String()
	}
	return "(" + strings.Join(parts, "|") + ")"
}

func (n *Text) String() string {
	if strings.ContainsAny(n.Text, specialChars+" \t") {
		return "\"" + strings.ReplaceAll(n.Text, "\"", "\\\"") + "\""
	}
	return n.Text
}

func (n *VerbSlot) String() string {
	return "{" + n.Verb + "}"
}

func (n *AdverbSlot) String() string {
	return "<" + n.Name + ":" + n.Type.String() + ">"
}

// Rule is a named top-level sequence describing one clause form.
type Rule struct {
	Name string
	Body *Seq
}

// New creates a rule matching nodes in sequence.
func New(name string, nodes ...Node) *Rule {
	return &Rule{name, NewSeq(nodes...)}
}

// String returns rule description that Parse accepts.
func (r *Rule) String() string {
	return r.Body.String()
}

// Walk calls visit for n and its descendants in depth-first order.
// Children are skipped if visit returns false.
func Walk(n Node, visit func(Node) bool) {
	if !visit(n) {
		return
	}

	switch n := n.(type) {
	case *Seq:
		for _, child := range n.Nodes {
			Walk(child, visit)
		}
	case *AnyOf:
		for _, child := range n.Nodes {
			Walk(child, visit)
		}
	}
}

// Keywords returns texts of all verbs and literals of rules in order of first appearance.
// These are the words the lexer dictionary must contain for the rules to match.
func Keywords(rules ...*Rule) []string {
	var result []string
	seen := make(map[string]bool)
	add := func(text string) {
		if text != "" && !seen[text] {
			seen[text] = true
			result = append(result, text)
		}
	}

	for _, r := range rules {
		Walk(r.Body, func(n Node) bool {
			switch n := n.(type) {
			case *Text:
				add(n.Text)
			case *VerbSlot:
				add(n.Verb)
			}
			return true
		})
	}
	return result
}

// Verbs returns verb names of a rule in order of first appearance.
func Verbs(r *Rule) []string {
	var result []string
	seen := make(map[string]bool)
	Walk(r.Body, func(n Node) bool {
		if v, is := n.(*VerbSlot); is && !seen[v.Verb] {
			seen[v.Verb] = true
			result = append(result, v.Verb)
		}
		return true
	})
	return result
}

// Adverbs returns adverb slots of a rule in order of appearance.
func Adverbs(r *Rule) []*AdverbSlot {
	var result []*AdverbSlot
	Walk(r.Body, func(n Node) bool {
		if a, is := n.(*AdverbSlot); is {
			result = append(result, a)
		}
		return true
	})
	return result
}
