package lexer

import (
	"strings"

	"github.com/ava12/verbal/source"
)

// Kind is the token kind.
type Kind int

const (
	// EOF is the kind of the synthetic token returned past the end of a stream.
	EOF Kind = iota
	String
	Number
	Boolean
	Word
	Structural
	// Ident is a name that is not a keyword: a segment name or a variable reference.
	Ident
)

var kindNames = [...]string{"-end-of-input-", "string", "number", "boolean", "word", "structural", "identifier"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "-unknown-"
	}
	return kindNames[k]
}

// Canonical texts of structural tokens; full-width variants are mapped to these.
const (
	Terminator = "\n"
	LBrace     = "{"
	RBrace     = "}"
	LBracket   = "["
	RBracket   = "]"
	LParen     = "("
	RParen     = ")"
	Comma      = ","
)

// Token is an immutable lexeme. Text holds unquoted content for String tokens
// and canonical text for Structural tokens.
type Token struct {
	kind Kind
	text string
	pos  source.Pos
	end  int
}

// NewToken creates a token spanning source bytes from pos to end.
func NewToken(kind Kind, text string, pos source.Pos, end int) *Token {
	return &Token{kind, text, pos, end}
}

// Type returns token kind.
func (t *Token) Type() Kind {
	return t.kind
}

func (t *Token) TypeName() string {
	return t.kind.String()
}

func (t *Token) Text() string {
	return t.text
}

func (t *Token) Pos() source.Pos {
	return t.pos
}

func (t *Token) SourceName() string {
	return t.pos.SourceName()
}

func (t *Token) Line() int {
	return t.pos.Line()
}

func (t *Token) Col() int {
	return t.pos.Col()
}

// Offset returns byte offset of the first source byte of the token.
func (t *Token) Offset() int {
	return t.pos.Offset()
}

// End returns byte offset right after the last source byte of the token.
func (t *Token) End() int {
	return t.end
}

// Is reports whether token has given kind and text.
func (t *Token) Is(kind Kind, text string) bool {
	return t.kind == kind && t.text == text
}

// IsTerminator reports whether token ends a sentence.
func (t *Token) IsTerminator() bool {
	return t.Is(Structural, Terminator)
}

// Bool returns the value of a Boolean token, false for other kinds.
func (t *Token) Bool() bool {
	if t.kind != Boolean {
		return false
	}
	_, value := matchBoolWord(t.text)
	return value
}

// Describe returns short human-readable token description for error messages.
func (t *Token) Describe() string {
	switch t.kind {
	case EOF:
		return "end of input"
	case Structural:
		if t.text == Terminator {
			return "end of sentence"
		}
		return "\"" + t.text + "\""
	case String:
		text := t.text
		if len(text) > 20 {
			text = text[:17] + "..."
		}
		return "string \"" + strings.ReplaceAll(text, "\"", "\\\"") + "\""
	default:
		return t.kind.String() + " \"" + t.text + "\""
	}
}

// EofToken returns end-of-input token positioned at the end of s.
func EofToken(s *source.Source) *Token {
	if s == nil {
		return &Token{kind: EOF}
	}
	return &Token{kind: EOF, pos: s.Pos(s.Len()), end: s.Len()}
}
