// Package tools renders documentation of a compiled rule set.
package tools

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	md "github.com/russross/blackfriday/v2"

	"github.com/ava12/verbal/registry"
	"github.com/ava12/verbal/rule"
)

// RenderMarkdown writes rules, verbs, modifiers and segment keywords of cfg as Markdown.
// Rules are listed in priority order.
func RenderMarkdown(cfg *registry.Config, out io.Writer) error {
	var b strings.Builder
	f := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	f("## Segments\n")
	kws := make([]string, len(cfg.SegmentKeywords()))
	for i, kw := range cfg.SegmentKeywords() {
		kws[i] = "`" + kw + "`"
	}
	f("Segment keywords: %s.\n", strings.Join(kws, ", "))

	f("## Rules\n")
	if len(cfg.Rules()) == 0 {
		f("No rules.\n")
	}
	for _, r := range cfg.Rules() {
		f("### %s\n", r.Name)
		f("`%s`\n", r.String())

		if verbs := rule.Verbs(r); len(verbs) > 0 {
			f("- verbs: %s", strings.Join(verbs, ", "))
		}
		if advs := rule.Adverbs(r); len(advs) > 0 {
			names := make([]string, len(advs))
			for i, a := range advs {
				names[i] = fmt.Sprintf("%s (%s)", a.Name, a.Type)
			}
			f("- adverbs: %s", strings.Join(names, ", "))
		}
		f("")
	}

	f("## Verbs\n")
	verbs := cfg.Verbs()
	if len(verbs) == 0 {
		f("No verbs.\n")
	}
	for _, name := range verbs {
		f("- `%s`", name)
	}
	f("")

	if mods := cfg.Modifiers(); len(mods) > 0 {
		f("## Modifiers\n")
		for _, m := range mods {
			placement := "prefix"
			if m.Suffix {
				placement = "suffix"
			}
			f("- `%s` (%s)", m.Keyword, placement)
		}
		f("")
	}

	_, e := io.WriteString(out, b.String())
	return e
}

// RenderHTML writes rule set documentation as an HTML fragment.
func RenderHTML(cfg *registry.Config, out io.Writer) error {
	var buf bytes.Buffer
	e := RenderMarkdown(cfg, &buf)
	if e != nil {
		return e
	}

	_, e = out.Write(md.Run(buf.Bytes(), md.WithExtensions(md.CommonExtensions)))
	return e
}

// RenderPage writes a complete HTML page. Default stylesheet is used if cssFiles is nil.
func RenderPage(cfg *registry.Config, title string, cssFiles []string, out io.Writer) error {
	if cssFiles == nil {
		cssFiles = []string{"/static/verbal.css"}
	}

	title = html.EscapeString(title)
	fmt.Fprintf(out, `<!DOCTYPE html>
<html>
  <head>
  <meta charset="utf-8">
  <title>%s</title>
`, title)

	for _, css := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", html.EscapeString(css))
	}

	fmt.Fprintf(out, `  </head>
  <body>
    <h1>%s</h1>
`, title)

	e := RenderHTML(cfg, out)
	if e != nil {
		return e
	}

	_, e = fmt.Fprint(out, `  </body>
</html>
`)
	return e
}
