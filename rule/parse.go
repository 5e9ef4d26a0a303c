package rule

import (
	"strings"
	"unicode/utf8"

	"github.com/ava12/verbal"
	"github.com/ava12/verbal/source"
)

// Error codes used by rule description parser:
const (
	UnexpectedCharError = verbal.RuleErrors + iota
	UnterminatedSlotError
	UnknownTypeError
	EmptyRuleError
	EmptyAlternativeError
)

type descParser struct {
	src  *source.Source
	text string
	pos  int
}

func (p *descParser) errorAt(pos, code int, msg string, params ...any) *verbal.Error {
	return verbal.FormatErrorPos(p.src.Pos(pos), code, msg, params...)
}

func (p *descParser) unexpectedCharError(pos int) *verbal.Error {
	r, _ := utf8.DecodeRuneInString(p.text[pos:])
	return p.errorAt(pos, UnexpectedCharError, "unexpected %q", r)
}

func (p *descParser) unterminatedError(pos int, closing byte) *verbal.Error {
	return p.errorAt(pos, UnterminatedSlotError, "%q expected", closing)
}

func (p *descParser) emptyAlternativeError(pos int) *verbal.Error {
	return p.errorAt(pos, EmptyAlternativeError, "empty alternative")
}

// Parse builds a rule from its description.
// Description is a space-separated sequence of items:
//
//	{verb}              verb slot
//	{verbA|verbB}       any of verb slots
//	<name:type>         adverb slot, type is one of any, string, number, bool, position, entity
//	literal             literal keyword, may be quoted: "two words"
//	(a b|<x:number>)    any of item sequences
//
// Returns nil and *verbal.Error on error.
func Parse(name, desc string) (*Rule, error) {
	p := &descParser{src: source.NewString(name, desc), text: desc}
	p.text = string(p.src.Content())

	nodes, e := p.parseSeq(0)
	if e != nil {
		return nil, e
	}

	p.skipSpaces()
	if p.pos < len(p.text) {
		return nil, p.unexpectedCharError(p.pos)
	}

	if len(nodes) == 0 {
		return nil, verbal.FormatErrorPos(p.src.Pos(0), EmptyRuleError, "empty rule %q", name)
	}

	return New(name, nodes...), nil
}

// MustParse is like Parse but panics on error.
func MustParse(name, desc string) *Rule {
	r, e := Parse(name, desc)
	if e != nil {
		panic(e)
	}
	return r
}

func isDescSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '　'
}

func (p *descParser) skipSpaces() {
	for p.pos < len(p.text) {
		r, size := utf8.DecodeRuneInString(p.text[p.pos:])
		if !isDescSpace(r) {
			return
		}
		p.pos += size
	}
}

// parseSeq reads items until end of text or a '|' or ')' character, which are left unread.
// depth is the group nesting level; '|' and ')' are not allowed at depth 0.
func (p *descParser) parseSeq(depth int) ([]Node, error) {
	var nodes []Node
	for {
		p.skipSpaces()
		if p.pos >= len(p.text) {
			return nodes, nil
		}

		var (
			n Node
			e error
		)
		switch p.text[p.pos] {
		case '|', ')':
			if depth == 0 {
				return nil, p.unexpectedCharError(p.pos)
			}
			return nodes, nil

		case '}', '>', ':':
			return nil, p.unexpectedCharError(p.pos)

		case '{':
			n, e = p.parseVerbs()

		case '<':
			n, e = p.parseAdverb()

		case '(':
			n, e = p.parseGroup(depth + 1)

		case '"':
			n, e = p.parseQuoted()

		default:
			n = p.parseLiteral()
		}
		if e != nil {
			return nil, e
		}

		nodes = append(nodes, n)
	}
}

// readUntil returns text up to one of stop bytes and advances to it.
// Returns false if none found.
func (p *descParser) readUntil(stop string) (string, bool) {
	i := strings.IndexAny(p.text[p.pos:], stop)
	if i < 0 {
		return "", false
	}

	text := p.text[p.pos : p.pos+i]
	p.pos += i
	return text, true
}

func (p *descParser) parseVerbs() (Node, error) {
	start := p.pos
	p.pos++

	var verbs []Node
	for {
		itemPos := p.pos
		text, found := p.readUntil("|}{<>()")
		if !found || (p.text[p.pos] != '|' && p.text[p.pos] != '}') {
			return nil, p.unterminatedError(start, '}')
		}

		verb := strings.TrimSpace(text)
		if verb == "" {
			return nil, p.emptyAlternativeError(itemPos)
		}

		verbs = append(verbs, NewVerb(verb))
		closing := p.text[p.pos] == '}'
		p.pos++
		if closing {
			break
		}
	}

	if len(verbs) == 1 {
		return verbs[0], nil
	}
	return NewAnyOf(verbs...), nil
}

func (p *descParser) parseAdverb() (Node, error) {
	start := p.pos
	p.pos++

	text, found := p.readUntil("><{}()|")
	if !found || p.text[p.pos] != '>' {
		return nil, p.unterminatedError(start, '>')
	}
	p.pos++

	name, typeName, hasType := strings.Cut(text, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, p.errorAt(start, UnexpectedCharError, "adverb name expected")
	}

	vt := Any
	if hasType {
		typeName = strings.TrimSpace(typeName)
		var known bool
		vt, known = ParseValueType(typeName)
		if !known {
			return nil, p.errorAt(start, UnknownTypeError, "unknown value type %q", typeName)
		}
	}

	return NewAdverb(name, vt), nil
}

func (p *descParser) parseGroup(depth int) (Node, error) {
	start := p.pos
	p.pos++

	var alts []Node
	for {
		altPos := p.pos
		nodes, e := p.parseSeq(depth)
		if e != nil {
			return nil, e
		}

		if p.pos >= len(p.text) {
			return nil, p.unterminatedError(start, ')')
		}

		switch len(nodes) {
		case 0:
			return nil, p.emptyAlternativeError(altPos)
		case 1:
			alts = append(alts, nodes[0])
		default:
			alts = append(alts, NewSeq(nodes...))
		}

		closing := p.text[p.pos] == ')'
		p.pos++
		if closing {
			break
		}
	}

	return NewAnyOf(alts...), nil
}

func (p *descParser) parseQuoted() (Node, error) {
	start := p.pos
	p.pos++

	var sb strings.Builder
	for p.pos < len(p.text) {
		c := p.text[p.pos]
		switch {
		case c == '"':
			p.pos++
			if sb.Len() == 0 {
				return nil, p.errorAt(start, EmptyAlternativeError, "empty literal")
			}
			return NewText(sb.String()), nil

		case c == '\\' && p.pos+1 < len(p.text):
			sb.WriteByte(p.text[p.pos+1])
			p.pos += 2

		default:
			sb.WriteByte(c)
			p.pos++
		}
	}

	return nil, p.unterminatedError(start, '"')
}

func (p *descParser) parseLiteral() Node {
	start := p.pos
	for p.pos < len(p.text) {
		r, size := utf8.DecodeRuneInString(p.text[p.pos:])
		if isDescSpace(r) || strings.ContainsRune(specialChars, r) || r == ':' {
			break
		}
		p.pos += size
	}
	return NewText(p.text[start:p.pos])
}
