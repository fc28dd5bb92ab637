// Package grammar describes a language's surface syntax as a graph of
// composable symbols: pattern and keyword terminals, repetitions, named
// non-terminals with prioritized rules and late-bound references between
// them.
package grammar

import (
	"fmt"
	"strconv"

	"github.com/dlclark/regexp2"
)

// Symbol is implemented by every grammar symbol. The set of variants is
// closed: PatternTerminal, KeywordTerminal, Marker, Sequence, NonTerminal and
// SymbolRef.
type Symbol interface {
	Name() string
	String() string
	isSymbol()
}

// Terminal is a symbol matched directly against the input text.
type Terminal interface {
	Symbol
	// Pattern is anchored with \G so it only matches at the start offset.
	Pattern() *regexp2.Regexp
}

func anchor(expr string) string {
	return `\G(?:` + expr + `)`
}

// PatternTerminal matches a regular expression at the current position.
type PatternTerminal struct {
	name string
	expr string
	re   *regexp2.Regexp
}

// NewPatternTerminal compiles expr with regexp2 (Perl/.NET syntax, so
// lookahead such as `if(?!\w)` is available for keyword boundaries).
func NewPatternTerminal(name, expr string) (*PatternTerminal, error) {
	re, err := regexp2.Compile(anchor(expr), regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("terminal %s: %w", name, err)
	}
	return &PatternTerminal{name: name, expr: expr, re: re}, nil
}

// Re is NewPatternTerminal for patterns known to be valid; it panics otherwise.
func Re(name, expr string) *PatternTerminal {
	t, err := NewPatternTerminal(name, expr)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *PatternTerminal) Name() string             { return t.name }
func (t *PatternTerminal) String() string           { return t.name }
func (t *PatternTerminal) Expr() string             { return t.expr }
func (t *PatternTerminal) Pattern() *regexp2.Regexp { return t.re }
func (t *PatternTerminal) isSymbol()                {}

// KeywordTerminal matches a fixed literal.
type KeywordTerminal struct {
	text string
	re   *regexp2.Regexp
}

func Kw(text string) *KeywordTerminal {
	if text == "" {
		panic("grammar: empty keyword")
	}
	return &KeywordTerminal{
		text: text,
		re:   regexp2.MustCompile(anchor(regexp2.Escape(text)), regexp2.None),
	}
}

func (k *KeywordTerminal) Name() string             { return k.text }
func (k *KeywordTerminal) String() string           { return strconv.Quote(k.text) }
func (k *KeywordTerminal) Text() string             { return k.text }
func (k *KeywordTerminal) Pattern() *regexp2.Regexp { return k.re }
func (k *KeywordTerminal) isSymbol()                {}

// Marker always matches without consuming input. The engine emits it as a
// zero-length token standing for an absent optional.
type Marker struct {
	name string
}

// Nil is the marker used by optional sequences.
var Nil = NewMarker("nil")

func NewMarker(name string) *Marker {
	return &Marker{name: name}
}

func (m *Marker) Name() string   { return m.name }
func (m *Marker) String() string { return "<" + m.name + ">" }
func (m *Marker) isSymbol()      {}
