package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ava12/verbal/internal/test"
	"github.com/ava12/verbal/parser"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runArgs(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	e := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), e
}

func exitCode(e error) int {
	var ee *ExitError
	if errors.As(e, &ee) {
		return ee.Code
	}
	return -1
}

func TestRunScript(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "hello.vb", `
group "first" {
  say "hello"; say 5
}
group "second" {
  say [1, 2, 3], dump
}
`)

	out, _, e := runArgs(script)
	require.NoError(t, e)
	assert.Equal(t, "hello\n5\nposition[1, 2, 3]\ntext=position[1, 2, 3]\n", out)

	out, _, e = runArgs("-s", "first", script)
	require.NoError(t, e)
	assert.Equal(t, "hello\n5\n", out)

	out, _, e = runArgs("-s", "third", script)
	require.NoError(t, e)
	assert.Empty(t, out)
}

func TestUsage(t *testing.T) {
	_, errOut, e := runArgs()
	assert.Equal(t, 2, exitCode(e))
	assert.Contains(t, errOut, "Usage is  verbal")

	_, errOut, e = runArgs("-h")
	require.NoError(t, e)
	assert.Contains(t, errOut, "Usage is  verbal")

	_, _, e = runArgs("-bogus", "x")
	assert.Equal(t, 2, exitCode(e))
}

func TestConfigAndExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ext/greet.hcl", `
extension "greet" {
  rule "greet" {
    pattern = "{greet} <who:string>"
  }

  verb "greet" {
    defaults = { greeting = var.greeting }
    script   = "_.set('text', _.get('greeting') + ', ' + _.get('who') + ' from ' + _.env.actor);"
  }
}
`)
	cfgFile := writeFile(t, dir, "verbal.yaml", `
log_level: warn
segment_keywords: [proc]
actor: alice
values:
  greeting: hi
`)
	script := writeFile(t, dir, "s.vb", `proc "main" { greet "bob", say }`)

	out, _, e := runArgs("-c", cfgFile, "-x", filepath.Join(dir, "ext"), script)
	require.NoError(t, e)
	assert.Equal(t, "hi, bob from alice\n", out)

	bad := writeFile(t, dir, "bad.yaml", "log_level: loud\n")
	_, _, e = runArgs("-c", bad, script)
	assert.Equal(t, 2, exitCode(e))
}

func TestScriptErrors(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "bad.vb", `group "g" { say "a" } group "h" { shout "b" }`)

	out, _, e := runArgs(script)
	test.ExpectErrorCode(t, parser.NoRuleMatchError, e)
	assert.Empty(t, out)

	_, _, e = runArgs(filepath.Join(dir, "missing.vb"))
	assert.Error(t, e)
}

func TestStoreAndDoc(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "scripts.db")
	doc := filepath.Join(dir, "rules.html")
	script := writeFile(t, dir, "s.vb", `group "g" { say "stored" }`)

	out, _, e := runArgs("-db", db, "-doc", doc, script)
	require.NoError(t, e)
	assert.Equal(t, "stored\n", out)

	page, e := os.ReadFile(doc)
	require.NoError(t, e)
	assert.Contains(t, string(page), "<h3>say</h3>")

	out, _, e = runArgs("-db", db)
	require.NoError(t, e)
	assert.Equal(t, "stored\n", out)
}
