// Package glr parses text against a grammar.Grammar without a separate
// tokenizer. Terminals are matched directly on the character stream,
// ignorable terminals are skipped in front of every token, and operator
// precedence is resolved by the priority filters on symbol references.
//
// The engine is a memoizing recursive descent parser. Left-recursive
// references are grown from a seed until the match stops getting longer,
// so a rule such as Expr := Expr '+' Expr needs no rewriting.
package glr

import (
	"github.com/tliron/commonlog"

	"github.com/naheedmk/java-glr-parser/grammar"
	"github.com/naheedmk/java-glr-parser/parsetree"
	"github.com/naheedmk/java-glr-parser/reader"
)

// Parser parses input against a finalized grammar. It holds no per-parse
// state and may be used from several goroutines at once.
type Parser struct {
	grammar *grammar.Grammar
	log     commonlog.Logger
	trace   bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for trace output.
func WithLogger(log commonlog.Logger) Option {
	return func(p *Parser) {
		p.log = log
	}
}

// WithTrace logs every symbol attempt at debug level.
func WithTrace() Option {
	return func(p *Parser) {
		p.trace = true
	}
}

// NewParser creates a parser for g.
func NewParser(g *grammar.Grammar, opts ...Option) *Parser {
	p := &Parser{grammar: g}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = commonlog.GetLogger("glr")
	}
	return p
}

// Grammar returns the grammar the parser was built for.
func (p *Parser) Grammar() *grammar.Grammar {
	return p.grammar
}

// Parse reads the input from rd's current position to the end and returns
// the tree rooted at the grammar's root symbol. Input that does not match
// yields a *SyntaxError; failures of the underlying source are returned as
// the reader's *reader.IOError.
func (p *Parser) Parse(rd *reader.Reader) (parsetree.Node, error) {
	rd.Mark()
	s := newState(p, rd)
	root, err := s.parse(p.grammar.Root(), grammar.Filter{})
	if err != nil {
		return nil, err
	}
	if root.node == nil {
		return nil, s.syntaxError(s.furthest, s.expected)
	}
	if _, err := s.skipIgnored(); err != nil {
		return nil, err
	}
	if !rd.AtEOF() {
		at := rd.Position()
		switch {
		case s.furthest.Offset > at.Offset:
			return nil, s.syntaxError(s.furthest, s.expected)
		case s.furthest.Offset == at.Offset:
			return nil, s.syntaxError(at, s.expected)
		}
		return nil, s.syntaxError(at, nil)
	}
	return root.node, nil
}

// ParseString parses src, reporting positions against filename.
func (p *Parser) ParseString(src, filename string) (parsetree.Node, error) {
	return p.Parse(reader.NewString(src, filename))
}

// ParseFile reads and parses a file.
func (p *Parser) ParseFile(filename string) (parsetree.Node, error) {
	rd, err := reader.Open(filename)
	if err != nil {
		return nil, err
	}
	return p.Parse(rd)
}

// Parse parses src against g.
func Parse(g *grammar.Grammar, src, filename string) (parsetree.Node, error) {
	return NewParser(g).ParseString(src, filename)
}

// ParseSymbol builds a grammar rooted at sym and parses src with it.
func ParseSymbol(sym grammar.Symbol, ignore []grammar.Terminal, src, filename string) (parsetree.Node, error) {
	g, err := grammar.New(sym, ignore)
	if err != nil {
		return nil, err
	}
	return Parse(g, src, filename)
}
