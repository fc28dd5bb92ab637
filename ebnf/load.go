// Package ebnf builds parser grammars from EBNF files in the notation of
// golang.org/x/exp/ebnf.
//
// Productions whose name starts with a lower-case letter are lexical: each
// is compiled to a single regular expression and used as a terminal.
// Productions starting with an upper-case letter become non-terminals with
// one rule per top-level alternative. Ignorable terminals are named by the
// caller.
package ebnf

import (
	"fmt"
	"io"
	"maps"
	"os"
	"reflect"

	xebnf "golang.org/x/exp/ebnf"

	"github.com/naheedmk/java-glr-parser/grammar"
)

// LoadGrammar loads an EBNF grammar from a file.
func LoadGrammar(filename string) (xebnf.Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	return Read(filename, f)
}

// Read parses EBNF source.
func Read(filename string, r io.Reader) (xebnf.Grammar, error) {
	src, err := xebnf.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}
	return src, nil
}

// Load reads an EBNF file and builds a grammar rooted at start.
func Load(filename, start string, ignore ...string) (*grammar.Grammar, error) {
	src, err := LoadGrammar(filename)
	if err != nil {
		return nil, err
	}
	return Build(src, start, ignore...)
}

// Check parses an EBNF file and, when start is not empty, verifies that
// every production is defined and reachable from start or from one of the
// ignorable productions.
func Check(filename, start string, ignore ...string) error {
	src, err := LoadGrammar(filename)
	if err != nil {
		return err
	}
	if start == "" {
		return nil
	}
	if len(ignore) == 0 {
		return xebnf.Verify(src, start)
	}

	// A name with a space cannot clash with a parsed production.
	root := "Check " + start
	seq := xebnf.Sequence{&xebnf.Name{String: start}}
	for _, name := range ignore {
		seq = append(seq, &xebnf.Name{String: name})
	}
	verified := maps.Clone(src)
	verified[root] = &xebnf.Production{Name: &xebnf.Name{String: root}, Expr: seq}
	return xebnf.Verify(verified, root)
}

// Errors flattens the error lists returned by the EBNF parser and verifier.
func Errors(err error) []error {
	if err == nil {
		return nil
	}
	var out []error
	v := reflect.ValueOf(err)
	if v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			if e, ok := v.Index(i).Interface().(error); ok {
				out = append(out, e)
			}
		}
		return out
	}
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range u.Unwrap() {
			out = append(out, Errors(e)...)
		}
		return out
	}
	if u, ok := err.(interface{ Unwrap() error }); ok && u.Unwrap() != nil {
		if inner := Errors(u.Unwrap()); len(inner) > 1 {
			return inner
		}
	}
	return []error{err}
}
