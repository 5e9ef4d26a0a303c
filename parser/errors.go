package parser

import (
	"strings"

	"github.com/ava12/verbal"
	"github.com/ava12/verbal/lexer"
)

// Error codes used by parser:
const (
	// NoRuleMatchError indicates that no rule matches tokens at a clause position.
	NoRuleMatchError = verbal.SyntaxErrors + iota
	// UnexpectedTokenError indicates a missing structural token or segment keyword.
	UnexpectedTokenError
	// UnexpectedEofError indicates that input ends inside a segment.
	UnexpectedEofError
)

const maxReportedRules = 5

func noRuleMatchError(t *lexer.Token, rules []string, suggestion string) *verbal.Error {
	tried := rules
	if len(tried) > maxReportedRules {
		tried = append(tried[:maxReportedRules:maxReportedRules], "...")
	}

	msg := "no rule matches " + t.Describe()
	if len(tried) > 0 {
		msg += " (tried: " + strings.Join(tried, ", ") + ")"
	}
	if suggestion != "" {
		return verbal.FormatErrorPos(t, NoRuleMatchError, "%s; did you mean %q?", msg, suggestion)
	}
	return verbal.FormatErrorPos(t, NoRuleMatchError, "%s", msg)
}

func unexpectedTokenError(t *lexer.Token, expected string) *verbal.Error {
	if t.Type() == lexer.EOF {
		return verbal.FormatErrorPos(t, UnexpectedEofError, "unexpected end of input, expecting %s", expected)
	}
	return verbal.FormatErrorPos(t, UnexpectedTokenError, "unexpected %s, expecting %s", t.Describe(), expected)
}
