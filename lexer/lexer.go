// Package lexer defines the dictionary-driven lexical analyzer and the token stream used by the parser.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ava12/verbal"
	"github.com/ava12/verbal/source"
)

// Error codes used by lexer:
const (
	// UnterminatedLiteralError indicates a quoted string or bracketed literal
	// that is not closed before the end of line (strings) or input (brackets).
	UnterminatedLiteralError = verbal.LexicalErrors + iota
)

func unterminatedStringError(pos source.Pos) *verbal.Error {
	return verbal.FormatErrorPos(pos, UnterminatedLiteralError, "unterminated string literal")
}

func unterminatedBracketError(pos source.Pos, bracket string) *verbal.Error {
	return verbal.FormatErrorPos(pos, UnterminatedLiteralError, "unclosed %q", bracket)
}

var structuralRunes = map[rune]string{
	'\n': Terminator,
	'。':  Terminator,
	'.':  Terminator,
	';':  Terminator,
	'；':  Terminator,
	'{':  LBrace,
	'｛':  LBrace,
	'}':  RBrace,
	'｝':  RBrace,
	'[':  LBracket,
	'［':  LBracket,
	'【':  LBracket,
	']':  RBracket,
	'］':  RBracket,
	'】':  RBracket,
	'(':  LParen,
	'（':  LParen,
	')':  RParen,
	'）':  RParen,
	',':  Comma,
	'，':  Comma,
	'、':  Comma,
}

var closingQuotes = map[rune]rune{
	'"':  '"',
	'\'': '\'',
	'“': '”',
	'‘': '’',
	'「': '」',
	'『': '』',
}

var escapedRunes = map[rune]rune{
	'n': '\n',
	't': '\t',
}

// TrueWords and FalseWords are boolean literals in all supported language variants.
var (
	TrueWords  = []string{"true", "yes", "真", "是", "对"}
	FalseWords = []string{"false", "no", "假", "否", "错"}
)

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\u00a0' || r == '\u3000' || r == '\ufeff'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// matchBoolWord returns the length of a boolean literal at the start of text and its value.
// ASCII literals are matched case-insensitively on a word boundary.
func matchBoolWord(text string) (size int, value bool) {
	for i, words := range [2][]string{FalseWords, TrueWords} {
		for _, w := range words {
			if len(text) < len(w) || !strings.EqualFold(text[:len(w)], w) || !atWordBoundary(w, text[len(w):]) {
				continue
			}

			if len(w) > size {
				size = len(w)
				value = (i == 1)
			}
		}
	}
	return
}

// Lexer turns script text into tokens using a fixed set of literal recognizers and a keyword dictionary.
// Lexer is immutable and safe for concurrent use.
type Lexer struct {
	dict *Dictionary
}

// New creates new Lexer. dict may be nil.
func New(dict *Dictionary) *Lexer {
	return &Lexer{dict}
}

func (l *Lexer) Dictionary() *Dictionary {
	return l.dict
}

// LexString is a shortcut for New(dict).Lex(source.NewString(name, text)).
func LexString(name, text string, dict *Dictionary) (*TokenStream, error) {
	return New(dict).Lex(source.NewString(name, text))
}

type openBracket struct {
	text string
	pos  int
}

type scanner struct {
	src      *source.Source
	text     string
	pos      int
	tokens   []*Token
	skipped  []int
	brackets []openBracket
}

func (s *scanner) emit(kind Kind, text string, size int) {
	s.tokens = append(s.tokens, NewToken(kind, text, s.src.Pos(s.pos), s.pos+size))
	s.pos += size
}

// Lex tokenizes the whole source.
// Returns nil and *verbal.Error on unterminated literal.
// Characters no recognizer accepts are skipped, their offsets are available via TokenStream.Skipped().
func (l *Lexer) Lex(src *source.Source) (*TokenStream, error) {
	s := &scanner{src: src, text: string(src.Content())}
	for s.pos < len(s.text) {
		e := l.step(s)
		if e != nil {
			return nil, e
		}
	}

	if len(s.brackets) > 0 {
		b := s.brackets[0]
		return nil, unterminatedBracketError(src.Pos(b.pos), b.text)
	}

	ts := NewTokenStream(s.tokens, EofToken(src))
	ts.skipped = s.skipped
	return ts, nil
}

func (l *Lexer) step(s *scanner) error {
	rest := s.text[s.pos:]
	r, size := utf8.DecodeRuneInString(rest)

	if isSpace(r) {
		s.pos += size
		return nil
	}

	if r == '#' {
		end := strings.IndexByte(rest, '\n')
		if end < 0 {
			end = len(rest)
		}
		s.pos += end
		return nil
	}

	if n := numberSize(rest); n > 0 {
		s.emit(Number, rest[:n], n)
		return nil
	}

	if text, found := structuralRunes[r]; found {
		l.trackBracket(s, text)
		s.emit(Structural, text, size)
		return nil
	}

	if closing, found := closingQuotes[r]; found {
		return l.readString(s, closing, size)
	}

	if kind, n := l.keywordAt(s.text, s.pos); n > 0 {
		s.emit(kind, rest[:n], n)
		return nil
	}

	if n := l.identSize(s.text, s.pos); n > 0 {
		s.emit(Ident, rest[:n], n)
		return nil
	}

	s.skipped = append(s.skipped, s.pos)
	s.pos += size
	return nil
}

// keywordAt returns the kind and the length of a boolean literal or a dictionary keyword starting at pos.
// The longer match wins, a boolean literal wins a tie.
func (l *Lexer) keywordAt(text string, pos int) (Kind, int) {
	rest := text[pos:]
	var prev byte
	if pos > 0 {
		prev = text[pos-1]
	}

	word, inDict := l.dict.match(rest, prev)
	boolSize, _ := matchBoolWord(rest)
	if boolSize > 0 && atWordStart(rest, prev) && (!inDict || len(word) <= boolSize) {
		return Boolean, boolSize
	}
	if inDict {
		return Word, len(word)
	}
	return EOF, 0
}

func isIdentRune(r rune) bool {
	return r == '_' || (r < utf8.RuneSelf && isASCIIAlnum(byte(r))) || unicode.Is(unicode.Han, r)
}

// identSize returns the length of an identifier starting at pos: a run of ASCII letters, digits,
// underscores and Han characters not starting with a digit.
// The run stops where a keyword or a boolean literal starts, so a keyword never matches
// partway into an ASCII word and Han keywords need no separators.
func (l *Lexer) identSize(text string, pos int) int {
	i := pos
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isIdentRune(r) || (i == pos && isDigit(text[i])) {
			break
		}
		if i > pos {
			if _, n := l.keywordAt(text, i); n > 0 {
				break
			}
		}
		i += size
	}
	return i - pos
}

func (l *Lexer) trackBracket(s *scanner, text string) {
	switch text {
	case LBracket, LParen:
		s.brackets = append(s.brackets, openBracket{text, s.pos})
	case RBracket, RParen:
		last := len(s.brackets) - 1
		if last < 0 {
			return
		}

		open := s.brackets[last].text
		if (open == LBracket && text == RBracket) || (open == LParen && text == RParen) {
			s.brackets = s.brackets[:last]
		}
	}
}

// numberSize returns the length of numeric literal at the start of text:
// optional minus, digits, optional single point followed by digits.
func numberSize(text string) int {
	i := 0
	if i < len(text) && text[i] == '-' {
		i++
	}
	start := i
	for i < len(text) && isDigit(text[i]) {
		i++
	}
	if i == start {
		return 0
	}

	if i+1 < len(text) && text[i] == '.' && isDigit(text[i+1]) {
		i++
		for i < len(text) && isDigit(text[i]) {
			i++
		}
	}
	return i
}

func (l *Lexer) readString(s *scanner, closing rune, openSize int) error {
	var sb strings.Builder
	i := s.pos + openSize
	for i < len(s.text) {
		r, size := utf8.DecodeRuneInString(s.text[i:])
		switch {
		case r == '\n':
			return unterminatedStringError(s.src.Pos(s.pos))

		case r == closing:
			s.emit(String, sb.String(), i+size-s.pos)
			return nil

		case r == '\\' && i+size < len(s.text):
			next, nextSize := utf8.DecodeRuneInString(s.text[i+size:])
			if next == '\n' {
				return unterminatedStringError(s.src.Pos(s.pos))
			}
			if subst, found := escapedRunes[next]; found {
				next = subst
			}
			sb.WriteRune(next)
			i += size + nextSize

		default:
			sb.WriteRune(r)
			i += size
		}
	}

	return unterminatedStringError(s.src.Pos(s.pos))
}
