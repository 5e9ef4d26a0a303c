package lexer

import (
	"strings"
	"testing"

	"github.com/ava12/verbal/internal/test"
	"github.com/ava12/verbal/source"
)

type tokenSample struct {
	kind Kind
	text string
}

func lexSamples(t *testing.T, dict *Dictionary, src string, expected []tokenSample) *TokenStream {
	t.Helper()
	ts, e := LexString("sample", src, dict)
	if e != nil {
		t.Fatalf("source %q: unexpected error: %s", src, e)
	}

	tokens := ts.Tokens()
	if len(tokens) != len(expected) {
		got := make([]string, len(tokens))
		for i, tok := range tokens {
			got[i] = tok.Describe()
		}
		t.Fatalf("source %q: expecting %d tokens, got %d: %s", src, len(expected), len(tokens), strings.Join(got, ", "))
	}

	for i, tok := range tokens {
		if tok.Type() != expected[i].kind || tok.Text() != expected[i].text {
			t.Fatalf("source %q, token #%d: expecting %s %q, got %s %q",
				src, i, expected[i].kind, expected[i].text, tok.TypeName(), tok.Text())
		}
	}
	return ts
}

func TestEmpty(t *testing.T) {
	sources := []string{"", " ", "\t  ", "# comment only", "　  "}
	for _, src := range sources {
		ts := lexSamples(t, nil, src, nil)
		if !ts.AtEnd() || ts.Next().Type() != EOF {
			t.Fatalf("source %q: expecting EOF", src)
		}
	}
}

func TestLiterals(t *testing.T) {
	lexSamples(t, nil, `12 3.5 -7 "foo" 'bar' “baz” 「qux」 true 否 YES`, []tokenSample{
		{Number, "12"},
		{Number, "3.5"},
		{Number, "-7"},
		{String, "foo"},
		{String, "bar"},
		{String, "baz"},
		{String, "qux"},
		{Boolean, "true"},
		{Boolean, "否"},
		{Boolean, "YES"},
	})
}

func TestStructural(t *testing.T) {
	lexSamples(t, nil, "{ [1，2】 ( ) }\n5.\n6。｝", []tokenSample{
		{Structural, LBrace},
		{Structural, LBracket},
		{Number, "1"},
		{Structural, Comma},
		{Number, "2"},
		{Structural, RBracket},
		{Structural, LParen},
		{Structural, RParen},
		{Structural, RBrace},
		{Structural, Terminator},
		{Number, "5"},
		{Structural, Terminator},
		{Structural, Terminator},
		{Number, "6"},
		{Structural, Terminator},
		{Structural, RBrace},
	})
}

func TestEscapes(t *testing.T) {
	lexSamples(t, nil, `"a\"b\\c\nd" '\''`, []tokenSample{
		{String, "a\"b\\c\nd"},
		{String, "'"},
	})
}

func TestLongestMatch(t *testing.T) {
	dict := NewDictionary("ab", "abc", "a")
	lexSamples(t, dict, "abc ab a abc", []tokenSample{
		{Word, "abc"},
		{Word, "ab"},
		{Word, "a"},
		{Word, "abc"},
	})
}

func TestMixedScriptKeywords(t *testing.T) {
	dict := NewDictionary("设置", "设置为", "脚本组", "是否开启")
	lexSamples(t, dict, "脚本组 “组” ｛设置为5。是否开启是｝", []tokenSample{
		{Word, "脚本组"},
		{String, "组"},
		{Structural, LBrace},
		{Word, "设置为"},
		{Number, "5"},
		{Structural, Terminator},
		{Word, "是否开启"},
		{Boolean, "是"},
		{Structural, RBrace},
	})
}

func TestWordBoundary(t *testing.T) {
	dict := NewDictionary("set", "yes")
	lexSamples(t, dict, "settle set yesterday yes", []tokenSample{
		{Ident, "settle"},
		{Word, "set"},
		{Ident, "yesterday"},
		{Boolean, "yes"},
	})
	lexSamples(t, dict, "reset 5 unset eyes set_x", []tokenSample{
		{Ident, "reset"},
		{Number, "5"},
		{Ident, "unset"},
		{Ident, "eyes"},
		{Ident, "set_x"},
	})
}

func TestIdentifiers(t *testing.T) {
	dict := NewDictionary("设置", "say")
	lexSamples(t, dict, "_x x2 组长设置5 say名字", []tokenSample{
		{Ident, "_x"},
		{Ident, "x2"},
		{Ident, "组长"},
		{Word, "设置"},
		{Number, "5"},
		{Word, "say"},
		{Ident, "名字"},
	})
	lexSamples(t, dict, "2x", []tokenSample{
		{Number, "2"},
		{Ident, "x"},
	})
}

func TestSkippedFiller(t *testing.T) {
	dict := NewDictionary("say")
	src := "say ~ 5 @@ say"
	ts := lexSamples(t, dict, src, []tokenSample{
		{Word, "say"},
		{Number, "5"},
		{Word, "say"},
	})

	skipped := ts.Skipped()
	test.ExpectInt(t, 3, len(skipped))
	test.ExpectString(t, "~", src[skipped[0]:skipped[0]+1])

	var sb strings.Builder
	k := 0
	for _, tok := range ts.Tokens() {
		for k < len(skipped) && skipped[k] < tok.Offset() {
			sb.WriteByte(src[skipped[k]])
			k++
		}
		sb.WriteString(src[tok.Offset():tok.End()])
	}
	test.ExpectString(t, "say~5@@say", sb.String())
}

func TestUnterminated(t *testing.T) {
	samples := []struct {
		src       string
		line, col int
	}{
		{`"abc`, 1, 1},
		{"say \"abc\n\"", 1, 5},
		{"x\n  ‘abc”", 2, 3},
		{"[1, 2, 3", 1, 1},
		{"(1 [2] ", 1, 1},
		{`"abc\`, 1, 1},
	}

	for _, s := range samples {
		_, e := LexString("src", s.src, nil)
		test.ExpectErrorCode(t, UnterminatedLiteralError, e)
		test.ExpectErrorPos(t, s.line, s.col, e)
	}
}

func TestTokenPositions(t *testing.T) {
	ts, e := New(NewDictionary("say")).Lex(source.NewString("pos", "say\n  say \"x\""))
	if e != nil {
		t.Fatalf("unexpected error: %s", e)
	}

	expected := [][2]int{{1, 1}, {1, 4}, {2, 3}, {2, 7}}
	for i, tok := range ts.Tokens() {
		if tok.Line() != expected[i][0] || tok.Col() != expected[i][1] {
			t.Fatalf("token #%d: expecting %v, got %d:%d", i, expected[i], tok.Line(), tok.Col())
		}
	}

	eof := ts.Peek(10)
	test.Expect(t, eof.Type() == EOF, EOF, eof.Type())
	test.ExpectInt(t, 2, eof.Line())
}

func TestBoolValues(t *testing.T) {
	ts := lexSamples(t, nil, "yes No 真 假 对 错", []tokenSample{
		{Boolean, "yes"}, {Boolean, "No"}, {Boolean, "真"}, {Boolean, "假"}, {Boolean, "对"}, {Boolean, "错"},
	})
	expected := []bool{true, false, true, false, true, false}
	for i, tok := range ts.Tokens() {
		test.ExpectBool(t, expected[i], tok.Bool())
	}
}

func TestDictionaryOrder(t *testing.T) {
	d := NewDictionary("b", "abc", "", "ab", "b", "设置为", "设置")
	test.ExpectString(t, "abc 设置为 ab 设置 b", strings.Join(d.Words(), " "))
	test.ExpectBool(t, true, d.Has("ab"))
	test.ExpectBool(t, false, d.Has(""))
	test.ExpectInt(t, 6, d.With("ab", "z").Len())
}
