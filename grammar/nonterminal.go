package grammar

import "strings"

// Rule is one alternative production of a non-terminal.
type Rule struct {
	Priority *Priority
	Symbols  []Symbol
}

// NewRule builds a production. p may be nil for rules that take no part in
// precedence; such rules are only eligible at unfiltered reference sites.
func NewRule(p *Priority, symbols ...Symbol) Rule {
	return Rule{Priority: p, Symbols: symbols}
}

func (r Rule) String() string {
	names := make([]string, len(r.Symbols))
	for i, s := range r.Symbols {
		names[i] = s.String()
	}
	s := strings.Join(names, " ")
	if r.Priority != nil {
		s = "[" + r.Priority.Name() + "] " + s
	}
	return s
}

// NonTerminal is a named symbol with ordered alternative rules. Earlier rules
// win ties between derivations of equal length.
type NonTerminal struct {
	name      string
	rules     []Rule
	anonymous bool
}

// NewNonTerminal declares a non-terminal. Passing no rules declares a
// placeholder that must be completed with Define before the grammar is built.
func NewNonTerminal(name string, rules ...Rule) *NonTerminal {
	return &NonTerminal{name: name, rules: rules}
}

// Nt declares a non-terminal with a single unprioritized rule.
func Nt(name string, symbols ...Symbol) *NonTerminal {
	return NewNonTerminal(name, NewRule(nil, symbols...))
}

// Group is an anonymous single-rule non-terminal. It is not registered by
// name, so several groups may share the same spelling.
func Group(symbols ...Symbol) *NonTerminal {
	names := make([]string, len(symbols))
	for i, s := range symbols {
		names[i] = s.Name()
	}
	nt := Nt("("+strings.Join(names, " ")+")", symbols...)
	nt.anonymous = true
	return nt
}

// Choice is an anonymous non-terminal with one unprioritized rule per
// alternative.
func Choice(alternatives ...[]Symbol) *NonTerminal {
	rules := make([]Rule, len(alternatives))
	names := make([]string, len(alternatives))
	for i, alt := range alternatives {
		rules[i] = NewRule(nil, alt...)
		parts := make([]string, len(alt))
		for j, s := range alt {
			parts[j] = s.Name()
		}
		names[i] = strings.Join(parts, " ")
	}
	nt := NewNonTerminal("("+strings.Join(names, " | ")+")", rules...)
	nt.anonymous = true
	return nt
}

// Define appends rules to a placeholder declared earlier.
func (n *NonTerminal) Define(rules ...Rule) *NonTerminal {
	n.rules = append(n.rules, rules...)
	return n
}

func (n *NonTerminal) Name() string    { return n.name }
func (n *NonTerminal) String() string  { return n.name }
func (n *NonTerminal) Anonymous() bool { return n.anonymous }
func (n *NonTerminal) isSymbol()       {}

func (n *NonTerminal) Rules() []Rule {
	return n.rules
}

// Comparison selects which rule priorities a reference admits.
type Comparison int

const (
	None Comparison = iota
	GreaterThan
	GreaterOrEqual
)

func (c Comparison) String() string {
	switch c {
	case GreaterThan:
		return ">"
	case GreaterOrEqual:
		return ">="
	}
	return ""
}

// Filter restricts the rules eligible at a reference site.
type Filter struct {
	Cmp      Comparison
	Priority *Priority
}

// Admits reports whether a rule tagged with p may be used under f.
// Rules without a priority are incomparable and only pass an empty filter.
func (f Filter) Admits(p *Priority) bool {
	switch f.Cmp {
	case GreaterThan:
		return p.Higher(f.Priority)
	case GreaterOrEqual:
		return p != nil && (p == f.Priority || p.Higher(f.Priority))
	}
	return true
}

func (f Filter) String() string {
	if f.Cmp == None {
		return ""
	}
	return f.Cmp.String() + f.Priority.String()
}

// SymbolRef is a late-bound reference to a non-terminal by name. The name is
// resolved once, when the Grammar is built.
type SymbolRef struct {
	target string
	filter Filter
}

func Ref(name string) *SymbolRef {
	return &SymbolRef{target: name}
}

// Gt returns a reference admitting only rules strictly above p.
func (r *SymbolRef) Gt(p *Priority) *SymbolRef {
	return &SymbolRef{target: r.target, filter: Filter{Cmp: GreaterThan, Priority: p}}
}

// Ge returns a reference admitting rules at p or above.
func (r *SymbolRef) Ge(p *Priority) *SymbolRef {
	return &SymbolRef{target: r.target, filter: Filter{Cmp: GreaterOrEqual, Priority: p}}
}

func (r *SymbolRef) Target() string { return r.target }
func (r *SymbolRef) Filter() Filter { return r.filter }
func (r *SymbolRef) Name() string   { return r.target }
func (r *SymbolRef) String() string { return r.target + r.filter.String() }
func (r *SymbolRef) isSymbol()      {}
