package lexer

// TokenStream is an indexed view over tokens with a cursor and a stack of checkpoints.
// Restoring a checkpoint makes the stream behave as if no tokens were consumed since it was saved.
// A stream belongs to a single parse and is not safe for concurrent use.
type TokenStream struct {
	tokens  []*Token
	index   int
	saved   []int
	eof     *Token
	skipped []int
}

// NewTokenStream creates a stream over tokens. eof is returned when reading past the last token;
// a position-less EOF token is used if eof is nil.
func NewTokenStream(tokens []*Token, eof *Token) *TokenStream {
	if eof == nil {
		eof = EofToken(nil)
	}
	return &TokenStream{tokens: tokens, eof: eof}
}

// Tokens returns all tokens of the stream. The slice must not be modified.
func (ts *TokenStream) Tokens() []*Token {
	return ts.tokens
}

// Skipped returns source offsets of characters skipped by lexer.
func (ts *TokenStream) Skipped() []int {
	return ts.skipped
}

func (ts *TokenStream) Len() int {
	return len(ts.tokens)
}

// Pos returns cursor position, i.e. the index of the next token.
func (ts *TokenStream) Pos() int {
	return ts.index
}

// Jump moves cursor to given index, clamped to [0, Len()].
func (ts *TokenStream) Jump(index int) {
	if index < 0 {
		index = 0
	} else if index > len(ts.tokens) {
		index = len(ts.tokens)
	}
	ts.index = index
}

func (ts *TokenStream) AtEnd() bool {
	return ts.index >= len(ts.tokens)
}

// Peek returns the token at given offset from the cursor without consuming anything.
// Returns EOF token past the end.
func (ts *TokenStream) Peek(offset int) *Token {
	i := ts.index + offset
	if i < 0 || i >= len(ts.tokens) {
		return ts.eof
	}
	return ts.tokens[i]
}

// Next returns the next token and advances cursor. Returns EOF token and stays in place at the end.
func (ts *TokenStream) Next() *Token {
	if ts.index >= len(ts.tokens) {
		return ts.eof
	}

	ts.index++
	return ts.tokens[ts.index-1]
}

// Skip advances cursor by count tokens.
func (ts *TokenStream) Skip(count int) {
	ts.Jump(ts.index + count)
}

// Save pushes current cursor position as a checkpoint.
// Each Save must be paired with exactly one Restore or Release.
func (ts *TokenStream) Save() {
	ts.saved = append(ts.saved, ts.index)
}

// Restore pops the last checkpoint and moves cursor back to it.
func (ts *TokenStream) Restore() {
	ts.index = ts.pop()
}

// Release pops the last checkpoint keeping the current cursor position.
func (ts *TokenStream) Release() {
	ts.pop()
}

// Depth returns the number of active checkpoints.
func (ts *TokenStream) Depth() int {
	return len(ts.saved)
}

func (ts *TokenStream) pop() int {
	last := len(ts.saved) - 1
	if last < 0 {
		panic("token stream: no saved checkpoint")
	}

	index := ts.saved[last]
	ts.saved = ts.saved[:last]
	return index
}
