// Package parsetree holds the concrete syntax trees produced by the glr
// engine: tokens for matched terminals and markers, elements for
// non-terminals and sequences.
package parsetree

import (
	"strconv"
	"strings"

	"github.com/naheedmk/java-glr-parser/grammar"
	"github.com/naheedmk/java-glr-parser/source"
)

// Node is a token or an element.
type Node interface {
	Range() source.Range
	Symbol() grammar.Symbol
	Children() []Node
	// Equal compares structure, symbols, text and ranges. Ignored prefixes
	// are not compared.
	Equal(other Node) bool
	String() string
}

// Token is a leaf: the text matched by a terminal, or the empty text of a
// marker.
type Token struct {
	rng     source.Range
	symbol  grammar.Symbol
	text    string
	ignored string
}

// NewToken creates a leaf. ignored is the text of the ignorable terminals
// skipped directly before the token.
func NewToken(rng source.Range, symbol grammar.Symbol, text, ignored string) *Token {
	return &Token{rng: rng, symbol: symbol, text: text, ignored: ignored}
}

func (t *Token) Range() source.Range    { return t.rng }
func (t *Token) Symbol() grammar.Symbol { return t.symbol }
func (t *Token) Children() []Node       { return nil }
func (t *Token) Text() string           { return t.text }

// IgnoredPrefix is the whitespace and comments that preceded the token.
func (t *Token) IgnoredPrefix() string {
	return t.ignored
}

// IsMarker reports whether the token stands for an absent construct.
func (t *Token) IsMarker() bool {
	_, ok := t.symbol.(*grammar.Marker)
	return ok
}

func (t *Token) Equal(other Node) bool {
	o, ok := other.(*Token)
	if !ok {
		return false
	}
	return t.symbol == o.symbol && t.text == o.text && t.rng == o.rng
}

func (t *Token) String() string {
	if t.IsMarker() {
		return t.symbol.String()
	}
	return strconv.Quote(t.text)
}

// Element is an interior node: a non-terminal derivation or a sequence.
type Element struct {
	rng      source.Range
	symbol   grammar.Symbol
	children []Node
}

// NewElement creates an interior node. Its range spans the first to the
// last child that is neither a marker nor an empty element; otherwise it
// takes the range of the first child. It panics without children;
// use NewEmptyElement for those.
func NewElement(symbol grammar.Symbol, children ...Node) *Element {
	if len(children) == 0 {
		panic("parsetree: element " + symbol.Name() + " without children")
	}
	return &Element{rng: span(children), symbol: symbol, children: children}
}

// NewEmptyElement creates an element without children covering the empty
// range at. Empty repetitions produce these.
func NewEmptyElement(symbol grammar.Symbol, at source.Range) *Element {
	return &Element{rng: at, symbol: symbol}
}

func span(children []Node) source.Range {
	var first, last Node
	for _, c := range children {
		if placeholder(c) {
			continue
		}
		if first == nil {
			first = c
		}
		last = c
	}
	if first == nil {
		return children[0].Range()
	}
	if first == last {
		return first.Range()
	}
	return source.Join(first.Range(), last.Range())
}

func placeholder(n Node) bool {
	switch n := n.(type) {
	case *Token:
		return n.IsMarker()
	case *Element:
		return len(n.children) == 0
	}
	return false
}

func (e *Element) Range() source.Range    { return e.rng }
func (e *Element) Symbol() grammar.Symbol { return e.symbol }
func (e *Element) Children() []Node       { return e.children }

func (e *Element) Equal(other Node) bool {
	o, ok := other.(*Element)
	if !ok || e.symbol != o.symbol || e.rng != o.rng || len(e.children) != len(o.children) {
		return false
	}
	for i, c := range e.children {
		if !c.Equal(o.children[i]) {
			return false
		}
	}
	return true
}

// String renders the compact form Expr(Expr("12") "+" Expr("34")).
func (e *Element) String() string {
	var b strings.Builder
	writeCompact(&b, e)
	return b.String()
}

func writeCompact(b *strings.Builder, n Node) {
	e, ok := n.(*Element)
	if !ok {
		b.WriteString(n.String())
		return
	}
	b.WriteString(e.symbol.Name())
	b.WriteByte('(')
	for i, c := range e.children {
		if i > 0 {
			b.WriteByte(' ')
		}
		writeCompact(b, c)
	}
	b.WriteByte(')')
}

// StringWithPositions renders n as an indented tree, one node per line,
// each annotated with its range.
func StringWithPositions(n Node) string {
	var b strings.Builder
	writeIndented(&b, n, 0)
	return b.String()
}

func writeIndented(b *strings.Builder, n Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	r := n.Range()
	if _, ok := n.(*Element); ok {
		b.WriteString(n.Symbol().Name())
	} else {
		b.WriteString(n.String())
	}
	b.WriteString(" @ ")
	b.WriteString(r.Start.String())
	b.WriteByte('-')
	b.WriteString(r.End.String())
	b.WriteByte('\n')
	for _, c := range n.Children() {
		writeIndented(b, c, depth+1)
	}
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the children of the visited node.
func Walk(n Node, fn func(Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// Tokens returns the leaves of n in source order, markers included.
func Tokens(n Node) []*Token {
	var out []*Token
	Walk(n, func(n Node) bool {
		if t, ok := n.(*Token); ok {
			out = append(out, t)
		}
		return true
	})
	return out
}
