// Package extension loads extensions described in HCL manifests.
//
// A manifest file holds one or more extension blocks:
//
//	extension "shop" {
//	  interpreter = "goja"
//	  keywords    = ["please"]
//
//	  rule "buy" {
//	    pattern = "{buy} <item:string> (for <price:number>|now)"
//	  }
//
//	  verb "buy" {
//	    defaults = { price = 1 }
//	    script   = "_.set('total', _.get('price') * 2)"
//	  }
//
//	  modifier "double" {
//	    script = "return _.base * 2"
//	  }
//	}
//
// Verb and modifier scripts are compiled by the named interpreter when the manifest is loaded.
// Verb defaults are bound before the script runs unless the segment scope already binds them.
// Manifest expressions may refer to variables as var.<name> and use string functions.
package extension

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/ava12/verbal"
	"github.com/ava12/verbal/eval"
	"github.com/ava12/verbal/value"
)

// Error codes used by extension and interpreters:
const (
	// ManifestError indicates malformed manifest file.
	ManifestError = verbal.ExtensionErrors + iota
	UnknownInterpreterError
	ScriptCompileError
	ScriptRuntimeError
	ScriptInterruptedError
)

// DefaultInterpreter is used by extensions without interpreter attribute.
const DefaultInterpreter = "goja"

// Interpreter compiles verb and modifier scripts.
type Interpreter interface {
	CompileVerb(name, src string) (eval.Verb, error)
	CompileModifier(name, src string) (value.ComputeFunc, error)
}

type hclPos struct {
	r hcl.Range
}

func (p hclPos) SourceName() string {
	return p.r.Filename
}

func (p hclPos) Line() int {
	return p.r.Start.Line
}

func (p hclPos) Col() int {
	return p.r.Start.Column
}

func manifestError(r hcl.Range, msg string, params ...any) *verbal.Error {
	return verbal.FormatErrorPos(hclPos{r}, ManifestError, msg, params...)
}

// diagError converts the first error diagnostic into *verbal.Error.
func diagError(diags hcl.Diagnostics) error {
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}

		msg := d.Summary
		if d.Detail != "" {
			msg += ": " + d.Detail
		}
		if d.Subject == nil {
			return verbal.FormatError(ManifestError, "%s", msg)
		}
		return manifestError(*d.Subject, "%s", msg)
	}
	return nil
}
