package rule

import (
	"strings"
	"testing"

	"github.com/ava12/verbal/internal/test"
)

func TestParseRoundTrip(t *testing.T) {
	samples := [][2]string{
		{"{设置} <name:string> 为 <value:any>", ""},
		{"{say|tell} <text:string>", ""},
		{"{go}  (to|toward <p:position>)", "{go} (to|toward <p:position>)"},
		{`"set to" <x>`, `"set to" <x:any>`},
		{"{toggle} <b:bool>", "{toggle} <b:boolean>"},
		{"{greet} <who:Player>", "{greet} <who:entity>"},
		{"{ teleport } <where:pos> (now|(after <t:number> seconds))", "{teleport} <where:position> (now|(after <t:number> seconds))"},
	}

	for i, s := range samples {
		r, e := Parse("sample", s[0])
		if e != nil {
			t.Fatalf("sample #%d: unexpected error: %s", i, e)
		}

		expected := s[1]
		if expected == "" {
			expected = s[0]
		}
		if r.String() != expected {
			t.Fatalf("sample #%d: expecting %q, got %q", i, expected, r.String())
		}

		again, e := Parse("again", r.String())
		if e != nil || again.String() != r.String() {
			t.Fatalf("sample #%d: description %q does not parse back: %v", i, r.String(), e)
		}
	}
}

func TestParseStructure(t *testing.T) {
	r := MustParse("set", "{设置} <name:string> 为 <value:number>")
	test.ExpectString(t, "set", r.Name)
	test.ExpectInt(t, 4, len(r.Body.Nodes))

	v, is := r.Body.Nodes[0].(*VerbSlot)
	test.Assert(t, is && v.Verb == "设置", "verb slot expected, got %s", r.Body.Nodes[0])

	a, is := r.Body.Nodes[1].(*AdverbSlot)
	test.Assert(t, is && a.Name == "name" && a.Type == String, "string adverb expected, got %s", r.Body.Nodes[1])

	txt, is := r.Body.Nodes[2].(*Text)
	test.Assert(t, is && txt.Text == "为", "text expected, got %s", r.Body.Nodes[2])

	a, is = r.Body.Nodes[3].(*AdverbSlot)
	test.Assert(t, is && a.Type == Number, "number adverb expected, got %s", r.Body.Nodes[3])

	r = MustParse("go", "{go|walk} (to <p:position>|home)")
	alt, is := r.Body.Nodes[0].(*AnyOf)
	test.Assert(t, is && len(alt.Nodes) == 2, "verb alternatives expected, got %s", r.Body.Nodes[0])

	alt, is = r.Body.Nodes[1].(*AnyOf)
	test.Assert(t, is && len(alt.Nodes) == 2, "group expected, got %s", r.Body.Nodes[1])
	_, is = alt.Nodes[0].(*Seq)
	test.Assert(t, is, "sequence expected, got %s", alt.Nodes[0])
	_, is = alt.Nodes[1].(*Text)
	test.Assert(t, is, "single text expected, got %s", alt.Nodes[1])
}

func TestParseErrors(t *testing.T) {
	samples := []struct {
		desc string
		code int
	}{
		{"", EmptyRuleError},
		{"   ", EmptyRuleError},
		{"{say", UnterminatedSlotError},
		{"{say <x>}", UnterminatedSlotError},
		{"<x:number", UnterminatedSlotError},
		{"(a|b", UnterminatedSlotError},
		{`"abc`, UnterminatedSlotError},
		{"<x:color>", UnknownTypeError},
		{"{}", EmptyAlternativeError},
		{"{a|}", EmptyAlternativeError},
		{"(a||b)", EmptyAlternativeError},
		{"()", EmptyAlternativeError},
		{`""`, EmptyAlternativeError},
		{"a | b", UnexpectedCharError},
		{"a)", UnexpectedCharError},
		{"}", UnexpectedCharError},
		{"<:number>", UnexpectedCharError},
	}

	for _, s := range samples {
		_, e := Parse("bad", s.desc)
		test.ExpectErrorCode(t, s.code, e)
	}
}

func TestErrorPosition(t *testing.T) {
	_, e := Parse("bad", "{go} (to")
	test.ExpectErrorCode(t, UnterminatedSlotError, e)
	test.ExpectErrorPos(t, 1, 6, e)

	_, e = Parse("bad", "{说} <名字:颜色>")
	test.ExpectErrorCode(t, UnknownTypeError, e)
	test.ExpectErrorPos(t, 1, 5, e)
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		test.Assert(t, recover() != nil, "panic expected")
	}()
	MustParse("bad", "{")
}

func TestKeywords(t *testing.T) {
	rules := []*Rule{
		MustParse("say", "{say|tell} <t:string> loudly"),
		MustParse("go", "{go} (to|toward <p:position>)"),
		MustParse("again", "{say} again"),
	}
	test.ExpectString(t, "say tell loudly go to toward again", strings.Join(Keywords(rules...), " "))
	test.ExpectString(t, "say tell", strings.Join(Verbs(rules[0]), " "))

	adverbs := Adverbs(rules[1])
	test.ExpectInt(t, 1, len(adverbs))
	test.ExpectString(t, "<p:position>", adverbs[0].String())
}

func TestNewRule(t *testing.T) {
	r := New("set", NewVerb("set"), NewAdverb("x", Number))
	test.ExpectString(t, "{set} <x:number>", r.String())
	test.ExpectString(t, "set", strings.Join(Keywords(r), ","))
}

func TestValueTypes(t *testing.T) {
	names := map[string]ValueType{
		"ANY": Any, "string": String, "Number": Number, "bool": Boolean,
		"boolean": Boolean, "pos": Position, "player": Entity, "entity": Entity,
	}
	for name, expected := range names {
		vt, found := ParseValueType(name)
		test.Assert(t, found && vt == expected, "%s: expecting %s, got %s", name, expected, vt)
	}

	_, found := ParseValueType("color")
	test.ExpectBool(t, false, found)
	test.ExpectString(t, "-unknown-", ValueType(42).String())
}
