package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naheedmk/java-glr-parser/glr"
)

const calc = `
Expr   = Expr ( "+" | "-" ) Term | Term .
Term   = number | "(" Expr ")" .

number = digit { digit } .
digit  = "0" … "9" .
space  = " " | "\t" | "\n" .
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestParseCommand(t *testing.T) {
	dir := t.TempDir()
	grammarFile := writeFile(t, dir, "calc.ebnf", calc)
	a := writeFile(t, dir, "a.txt", "1+2")
	b := writeFile(t, dir, "b.txt", "(3 - 4)\n")

	stdout, _, err := run(t, "", "parse", "-g", grammarFile, "-s", "Expr", "-i", "space", a, b)
	require.NoError(t, err)
	assert.Equal(t,
		`Expr(Expr(Term("1")) (+ | -)("+") Term("2"))`+"\n"+
			`Expr(Term("(" Expr(Expr(Term("3")) (+ | -)("-") Term("4")) ")"))`+"\n",
		stdout)
}

func TestParseCommandStdin(t *testing.T) {
	dir := t.TempDir()
	grammarFile := writeFile(t, dir, "calc.ebnf", calc)

	stdout, _, err := run(t, " 5 + 6 ", "parse", "-g", grammarFile, "-s", "Expr", "-i", "space", "-f", "source")
	require.NoError(t, err)
	assert.Equal(t, " 5 + 6", stdout)
}

func TestParseCommandSyntaxError(t *testing.T) {
	dir := t.TempDir()
	grammarFile := writeFile(t, dir, "calc.ebnf", calc)
	good := writeFile(t, dir, "good.txt", "1")
	bad := writeFile(t, dir, "bad.txt", "1 +")

	_, stderr, err := run(t, "", "parse", "-g", grammarFile, "-s", "Expr", "-i", "space", good, bad)
	require.Error(t, err)
	assert.Equal(t, "1 of 2 inputs failed to parse", err.Error())
	assert.Contains(t, stderr, "bad.txt: 1:4: unexpected end of input")

	stdout, _, err := run(t, "", "parse", "-g", grammarFile, "-s", "Expr", "-i", "space", "-f", "json", bad)
	require.Error(t, err)
	assert.Contains(t, stdout, `"message": "unexpected end of input, expected`)
}

func TestParseCommandRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	grammarFile := writeFile(t, dir, "calc.ebnf", calc)

	_, _, err := run(t, "1", "parse", "-g", grammarFile, "-s", "Expr", "-f", "xml")
	assert.ErrorContains(t, err, `unknown format "xml"`)
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	grammarFile := writeFile(t, dir, "calc.ebnf", calc)

	_, _, err := run(t, "", "check", grammarFile)
	assert.NoError(t, err)

	_, _, err = run(t, "", "check", "--start", "Expr", "--ignore", "space", grammarFile)
	assert.NoError(t, err)

	_, stderr, err := run(t, "", "check", "--start", "Expr", grammarFile)
	require.Error(t, err)
	assert.Contains(t, stderr, "space is unreachable")

	broken := writeFile(t, dir, "broken.ebnf", `Expr = "a" `)
	_, stderr, err = run(t, "", "check", broken)
	require.Error(t, err)
	assert.NotEmpty(t, stderr)
}

func TestIncomplete(t *testing.T) {
	dir := t.TempDir()
	grammarFile := writeFile(t, dir, "calc.ebnf", calc)
	flags := grammarFlags{file: grammarFile, start: "Expr", ignore: []string{"space"}}
	p, err := flags.parser()
	require.NoError(t, err)

	tests := []struct {
		src  string
		want bool
	}{
		{"(1 +", true},
		{"(1 +\n2", true},
		{"1 )", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := p.ParseString(tt.src, "<repl>")
			var syntaxErr *glr.SyntaxError
			require.True(t, errors.As(err, &syntaxErr))
			assert.Equal(t, tt.want, incomplete(syntaxErr, tt.src))
		})
	}
}
