// Package parser builds script AST from a token stream using an ordered list of rules.
// Every rule attempt is atomic: a failed attempt leaves the stream cursor where the attempt started.
package parser

import (
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/ava12/verbal/ast"
	"github.com/ava12/verbal/lexer"
	"github.com/ava12/verbal/rule"
	"github.com/ava12/verbal/source"
	"github.com/ava12/verbal/value"
)

// DefaultSegmentKeywords open a segment unless WithSegmentKeywords option is used.
var DefaultSegmentKeywords = []string{"group", "脚本组", "脚本段"}

// Option configures Parser.
type Option func(p *Parser)

// WithSegmentKeywords replaces default segment keywords.
func WithSegmentKeywords(words ...string) Option {
	return func(p *Parser) {
		p.segmentKeywords = append([]string(nil), words...)
	}
}

// WithModifiers registers prefix and suffix modifiers of adverb literals.
// A later modifier with the same keyword and placement replaces the earlier one.
func WithModifiers(mods ...value.Modifier) Option {
	return func(p *Parser) {
		for _, m := range mods {
			if m.Suffix {
				p.suffixes[m.Keyword] = m
			} else {
				p.prefixes[m.Keyword] = m
			}
		}
	}
}

// WithKeywords adds words to the parser dictionary, e.g. keywords used only by suggestions.
func WithKeywords(words ...string) Option {
	return func(p *Parser) {
		p.extraWords = append(p.extraWords, words...)
	}
}

// Parser is immutable after creation and safe for concurrent use.
type Parser struct {
	rules           []*rule.Rule
	ruleNames       []string
	segmentKeywords []string
	prefixes        map[string]value.Modifier
	suffixes        map[string]value.Modifier
	extraWords      []string
	dict            *lexer.Dictionary
}

// New creates a parser trying rules in given order.
func New(rules []*rule.Rule, opts ...Option) *Parser {
	p := &Parser{
		rules:           append([]*rule.Rule(nil), rules...),
		segmentKeywords: DefaultSegmentKeywords,
		prefixes:        make(map[string]value.Modifier),
		suffixes:        make(map[string]value.Modifier),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.ruleNames = make([]string, len(p.rules))
	for i, r := range p.rules {
		p.ruleNames[i] = r.Name
	}

	words := rule.Keywords(p.rules...)
	words = append(words, p.segmentKeywords...)
	for kw := range p.prefixes {
		words = append(words, kw)
	}
	for kw := range p.suffixes {
		words = append(words, kw)
	}
	words = append(words, p.extraWords...)
	p.dict = lexer.NewDictionary(words...)
	return p
}

func (p *Parser) Rules() []*rule.Rule {
	return p.rules
}

func (p *Parser) SegmentKeywords() []string {
	return p.segmentKeywords
}

// Dictionary returns all keywords the parser may expect.
func (p *Parser) Dictionary() *lexer.Dictionary {
	return p.dict
}

// Lex tokenizes text using parser dictionary.
func (p *Parser) Lex(name, text string) (*lexer.TokenStream, error) {
	return lexer.New(p.dict).Lex(source.NewString(name, text))
}

// ParseString lexes and parses the whole script.
func (p *Parser) ParseString(name, text string) (*ast.Script, error) {
	ts, e := p.Lex(name, text)
	if e != nil {
		return nil, e
	}
	return p.ParseScript(ts)
}

// ParseScript parses segments until the end of input.
// Returns nil and *verbal.Error if any segment fails, no partial script is returned.
func (p *Parser) ParseScript(ts *lexer.TokenStream) (*ast.Script, error) {
	pc := &parseContext{p, ts}
	script := &ast.Script{Name: ts.Peek(0).SourceName()}
	for {
		pc.skipTerminators()
		if ts.Peek(0).Type() == lexer.EOF {
			return script, nil
		}

		seg, e := pc.parseSegment()
		if e != nil {
			return nil, e
		}

		script.Segments = append(script.Segments, seg)
	}
}

// ParseSegment parses "<segment keyword> <name> { <sentences> }".
func (p *Parser) ParseSegment(ts *lexer.TokenStream) (*ast.Segment, error) {
	return (&parseContext{p, ts}).parseSegment()
}

// ParseSentence parses clauses up to a sentence terminator, a closing brace or the end of input.
// A trailing terminator is consumed, a closing brace is not.
func (p *Parser) ParseSentence(ts *lexer.TokenStream) (*ast.Sentence, error) {
	return (&parseContext{p, ts}).parseSentence()
}

// ParseClause returns components of the first rule matching at the cursor.
func (p *Parser) ParseClause(ts *lexer.TokenStream) ([]ast.Component, error) {
	return (&parseContext{p, ts}).parseClause()
}

type parseContext struct {
	p  *Parser
	ts *lexer.TokenStream
}

func (pc *parseContext) skipTerminators() {
	for pc.ts.Peek(0).IsTerminator() {
		pc.ts.Next()
	}
}

func (pc *parseContext) expect(text, expected string) (*lexer.Token, error) {
	t := pc.ts.Peek(0)
	if !t.Is(lexer.Structural, text) {
		return nil, unexpectedTokenError(t, expected)
	}
	return pc.ts.Next(), nil
}

func (pc *parseContext) isSegmentKeyword(t *lexer.Token) bool {
	if t.Type() != lexer.Word && t.Type() != lexer.Boolean {
		return false
	}
	for _, kw := range pc.p.segmentKeywords {
		if t.Text() == kw {
			return true
		}
	}
	return false
}

func (pc *parseContext) parseSegment() (*ast.Segment, error) {
	start := pc.ts.Peek(0)
	if !pc.isSegmentKeyword(start) {
		return nil, unexpectedTokenError(start, "segment keyword")
	}
	pc.ts.Next()

	name := pc.ts.Peek(0)
	if name.Type() != lexer.String && name.Type() != lexer.Word && name.Type() != lexer.Ident {
		return nil, unexpectedTokenError(name, "segment name")
	}
	pc.ts.Next()

	_, e := pc.expect(lexer.LBrace, "\"{\"")
	if e != nil {
		return nil, e
	}

	seg := &ast.Segment{Name: name.Text(), Pos: start.Pos()}
	for {
		pc.skipTerminators()
		t := pc.ts.Peek(0)
		if t.Is(lexer.Structural, lexer.RBrace) {
			pc.ts.Next()
			return seg, nil
		}
		if t.Type() == lexer.EOF {
			return nil, unexpectedTokenError(t, "\"}\"")
		}

		sent, e := pc.parseSentence()
		if e != nil {
			return nil, e
		}

		if len(sent.Components) > 0 {
			seg.Sentences = append(seg.Sentences, sent)
		}
	}
}

func (pc *parseContext) parseSentence() (*ast.Sentence, error) {
	sent := &ast.Sentence{Pos: pc.ts.Peek(0).Pos()}
	for {
		t := pc.ts.Peek(0)
		switch {
		case t.Type() == lexer.EOF, t.Is(lexer.Structural, lexer.RBrace):
			return sent, nil

		case t.IsTerminator():
			pc.ts.Next()
			return sent, nil

		case t.Is(lexer.Structural, lexer.Comma):
			pc.ts.Next()
			continue
		}

		comps, e := pc.parseClause()
		if e != nil {
			return nil, e
		}

		sent.Components = append(sent.Components, comps...)
	}
}

func (pc *parseContext) parseClause() ([]ast.Component, error) {
	start := pc.ts.Pos()
	for _, r := range pc.p.rules {
		comps, matched := pc.matchNode(r.Body)
		if matched && pc.ts.Pos() > start {
			return comps, nil
		}

		pc.ts.Jump(start)
	}

	t := pc.ts.Peek(0)
	return nil, noRuleMatchError(t, pc.p.ruleNames, pc.suggest(t))
}

// matchNode matches n at the cursor. On failure the cursor is left where it was.
func (pc *parseContext) matchNode(n rule.Node) ([]ast.Component, bool) {
	switch n := n.(type) {
	case *rule.Seq:
		var result []ast.Component
		pc.ts.Save()
		for _, child := range n.Nodes {
			comps, matched := pc.matchNode(child)
			if !matched {
				pc.ts.Restore()
				return nil, false
			}

			result = append(result, comps...)
		}
		pc.ts.Release()
		return result, true

	case *rule.AnyOf:
		for _, alt := range n.Nodes {
			comps, matched := pc.matchNode(alt)
			if matched {
				return comps, true
			}
		}
		return nil, false

	case *rule.Text:
		return nil, pc.matchKeyword(n.Text)

	case *rule.VerbSlot:
		if pc.matchKeyword(n.Verb) {
			return []ast.Component{ast.NewVerb(n.Verb)}, true
		}
		return nil, false

	case *rule.AdverbSlot:
		v, matched := pc.readAdverb(n.Type)
		if matched {
			return []ast.Component{ast.NewAdverb(n.Name, v)}, true
		}
		return nil, false
	}

	return nil, false
}

// matchKeyword consumes a token with given text. Boolean and structural tokens match too,
// so rules may use words like "是" or "," as literals. Boolean literals ignore case like the lexer does.
func (pc *parseContext) matchKeyword(text string) bool {
	t := pc.ts.Peek(0)
	matched := false
	switch t.Type() {
	case lexer.Word, lexer.Structural:
		matched = (t.Text() == text)
	case lexer.Boolean:
		matched = strings.EqualFold(t.Text(), text)
	}

	if matched {
		pc.ts.Next()
	}
	return matched
}

// readAdverb reads optional prefix modifiers, a literal of type vt or a variable reference
// and optional suffix modifiers.
func (pc *parseContext) readAdverb(vt rule.ValueType) (value.Runtime, bool) {
	pc.ts.Save()

	var prefixes, suffixes []value.Modifier
	for {
		m, found := pc.modifier(pc.p.prefixes)
		if !found {
			break
		}
		prefixes = append(prefixes, m)
	}

	var base value.Runtime
	if t := pc.ts.Peek(0); t.Type() == lexer.Ident {
		pc.ts.Next()
		base = value.NewRef(t.Text())
	} else {
		lit, matched := pc.readLiteral(vt)
		if !matched {
			pc.ts.Restore()
			return nil, false
		}
		base = value.NewConst(lit)
	}

	for {
		m, found := pc.modifier(pc.p.suffixes)
		if !found {
			break
		}
		suffixes = append(suffixes, m)
	}

	pc.ts.Release()
	return value.ApplyModifiers(base, prefixes, suffixes), true
}

func (pc *parseContext) modifier(mods map[string]value.Modifier) (value.Modifier, bool) {
	t := pc.ts.Peek(0)
	if t.Type() != lexer.Word {
		return value.Modifier{}, false
	}

	m, found := mods[t.Text()]
	if found {
		pc.ts.Next()
	}
	return m, found
}

var anyTypeOrder = []rule.ValueType{rule.String, rule.Number, rule.Boolean, rule.Position, rule.Entity}

func (pc *parseContext) readLiteral(vt rule.ValueType) (value.Literal, bool) {
	t := pc.ts.Peek(0)
	switch vt {
	case rule.Any:
		for _, typ := range anyTypeOrder {
			lit, matched := pc.readLiteral(typ)
			if matched {
				return lit, true
			}
		}

	case rule.String:
		if t.Type() == lexer.String {
			pc.ts.Next()
			return value.String(t.Text()), true
		}

	case rule.Number:
		if t.Type() == lexer.Number {
			n, e := strconv.ParseFloat(t.Text(), 64)
			if e == nil {
				pc.ts.Next()
				return value.Number(n), true
			}
		}

	case rule.Boolean:
		if t.Type() == lexer.Boolean {
			pc.ts.Next()
			return value.Boolean(t.Bool()), true
		}

	case rule.Position:
		return pc.readBracketed(func() ([]any, bool) {
			var parts []any
			for i := 0; i < 3; i++ {
				if i > 0 && pc.ts.Peek(0).Is(lexer.Structural, lexer.Comma) {
					pc.ts.Next()
				}
				lit, matched := pc.readLiteral(rule.Number)
				if !matched {
					return nil, false
				}
				parts = append(parts, lit.Go())
			}
			return parts, true
		}, value.PositionKind)

	case rule.Entity:
		return pc.readBracketed(func() ([]any, bool) {
			lit, matched := pc.readLiteral(rule.String)
			if !matched {
				return nil, false
			}
			return []any{lit.Go()}, true
		}, value.EntityKind)
	}

	return nil, false
}

var closingBrackets = map[string]string{
	lexer.LBracket: lexer.RBracket,
	lexer.LParen:   lexer.RParen,
}

func (pc *parseContext) readBracketed(readParts func() ([]any, bool), kind string) (value.Literal, bool) {
	open := pc.ts.Peek(0)
	closing, found := closingBrackets[open.Text()]
	if open.Type() != lexer.Structural || !found {
		return nil, false
	}

	pc.ts.Save()
	pc.ts.Next()
	parts, matched := readParts()
	if !matched || !pc.ts.Peek(0).Is(lexer.Structural, closing) {
		pc.ts.Restore()
		return nil, false
	}

	pc.ts.Next()
	pc.ts.Release()
	return value.Opaque{Kind: kind, Parts: parts}, true
}

// suggest returns the dictionary keyword closest to the unrecognized word written right before t,
// or to the text of t itself.
func (pc *parseContext) suggest(t *lexer.Token) string {
	target := ""
	if src := t.Pos().Source(); src != nil {
		from := 0
		if pc.ts.Pos() > 0 {
			from = pc.ts.Peek(-1).End()
		}
		if from <= t.Offset() {
			fields := strings.Fields(string(src.Content()[from:t.Offset()]))
			if len(fields) > 0 {
				target = fields[len(fields)-1]
			}
		}
	}
	if target == "" && (t.Type() == lexer.Word || t.Type() == lexer.Ident || t.Type() == lexer.String) {
		target = t.Text()
	}

	return closestKeyword(target, pc.p.dict.Words())
}

func closestKeyword(target string, keywords []string) string {
	if target == "" || len(keywords) == 0 {
		return ""
	}

	ranks := fuzzy.RankFindFold(target, keywords)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best := ""
	bestDistance := len([]rune(target))/2 + 1
	for _, kw := range keywords {
		d := fuzzy.LevenshteinDistance(strings.ToLower(target), strings.ToLower(kw))
		if d < bestDistance {
			best = kw
			bestDistance = d
		}
	}
	return best
}
