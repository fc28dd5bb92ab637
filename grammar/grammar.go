package grammar

import (
	"errors"
	"fmt"
)

var (
	ErrUndefinedSymbol = errors.New("grammar: undefined symbol")
	ErrDuplicateSymbol = errors.New("grammar: duplicate non-terminal name")
	ErrEmptyRules      = errors.New("grammar: non-terminal has no rules")
)

// Grammar is a finalized set of symbols: a root, the ignore-set of terminals
// skipped between significant tokens, and a registry resolving every
// SymbolRef by name. A Grammar is read-only and may be shared by concurrent
// parses.
type Grammar struct {
	root    Symbol
	ignore  []Terminal
	symbols []Symbol
	byName  map[string]*NonTerminal
}

// New finalizes a grammar reachable from root. Extra symbols are registered
// as well, for non-terminals only reachable through references. All
// construction errors are reported together.
func New(root Symbol, ignore []Terminal, extra ...Symbol) (*Grammar, error) {
	if root == nil {
		return nil, errors.New("grammar: nil root")
	}
	b := &builder{
		seen:   make(map[Symbol]bool),
		byName: make(map[string]*NonTerminal),
		prios:  make(map[*Priority]bool),
	}
	b.visit(root)
	for _, t := range ignore {
		b.visit(t)
	}
	for _, s := range extra {
		b.visit(s)
	}
	for _, ref := range b.refs {
		if _, ok := b.byName[ref.target]; !ok {
			b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrUndefinedSymbol, ref.target))
		}
	}
	prios := make([]*Priority, 0, len(b.prios))
	for p := range b.prios {
		prios = append(prios, p)
	}
	if err := checkPriorities(prios); err != nil {
		b.errs = append(b.errs, err)
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	return &Grammar{
		root:    root,
		ignore:  append([]Terminal(nil), ignore...),
		symbols: b.order,
		byName:  b.byName,
	}, nil
}

// MustNew is New for grammars known to be well formed; it panics otherwise.
func MustNew(root Symbol, ignore []Terminal, extra ...Symbol) *Grammar {
	g, err := New(root, ignore, extra...)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Grammar) Root() Symbol {
	return g.root
}

func (g *Grammar) Ignore() []Terminal {
	return g.ignore
}

// Symbols lists every reachable symbol in discovery order.
func (g *Grammar) Symbols() []Symbol {
	return g.symbols
}

// Lookup finds a named non-terminal.
func (g *Grammar) Lookup(name string) (*NonTerminal, bool) {
	nt, ok := g.byName[name]
	return nt, ok
}

// Resolve returns the non-terminal a reference points to. References are
// validated by New, so this only fails for references from another grammar.
func (g *Grammar) Resolve(ref *SymbolRef) *NonTerminal {
	nt, ok := g.byName[ref.target]
	if !ok {
		panic(fmt.Errorf("%w: %s", ErrUndefinedSymbol, ref.target))
	}
	return nt
}

// IsIgnored reports whether t is in the ignore-set.
func (g *Grammar) IsIgnored(t Terminal) bool {
	for _, i := range g.ignore {
		if i == t {
			return true
		}
	}
	return false
}

type builder struct {
	seen   map[Symbol]bool
	order  []Symbol
	byName map[string]*NonTerminal
	refs   []*SymbolRef
	prios  map[*Priority]bool
	errs   []error
}

func (b *builder) visit(s Symbol) {
	if s == nil || b.seen[s] {
		return
	}
	b.seen[s] = true
	b.order = append(b.order, s)

	switch s := s.(type) {
	case *Sequence:
		b.visit(s.item)
		b.visit(s.separator)
	case *NonTerminal:
		if !s.anonymous {
			if other, ok := b.byName[s.name]; ok && other != s {
				b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrDuplicateSymbol, s.name))
			} else {
				b.byName[s.name] = s
			}
		}
		if len(s.rules) == 0 {
			b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrEmptyRules, s.name))
		}
		for _, r := range s.rules {
			if r.Priority != nil {
				b.prios[r.Priority] = true
			}
			for _, child := range r.Symbols {
				b.visit(child)
			}
		}
	case *SymbolRef:
		b.refs = append(b.refs, s)
		if s.filter.Priority != nil {
			b.prios[s.filter.Priority] = true
		}
	}
}
