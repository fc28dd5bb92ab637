package ebnf

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	xebnf "golang.org/x/exp/ebnf"

	"github.com/naheedmk/java-glr-parser/grammar"
)

var (
	ErrUndefined        = errors.New("ebnf: undefined production")
	ErrLexicalCycle     = errors.New("ebnf: recursive lexical production")
	ErrLexicalSyntax    = errors.New("ebnf: lexical production refers to non-lexical production")
	ErrIgnoreNotLexical = errors.New("ebnf: ignorable production is not lexical")
)

// IsLexical reports whether a production name denotes a terminal.
func IsLexical(name string) bool {
	ch, _ := utf8.DecodeRuneInString(name)
	return !unicode.IsUpper(ch)
}

// Build converts src into a grammar rooted at the production start. The
// productions named in ignore must be lexical; they form the ignore-set in
// the given order.
func Build(src xebnf.Grammar, start string, ignore ...string) (*grammar.Grammar, error) {
	b := &builder{
		src:       src,
		terminals: make(map[string]*grammar.PatternTerminal),
		keywords:  make(map[string]*grammar.KeywordTerminal),
		rules:     make(map[string]*grammar.NonTerminal),
		regexps:   make(map[string]string),
		compiling: make(map[string]bool),
	}

	names := slices.Sorted(maps.Keys(src))
	for _, name := range names {
		if !IsLexical(name) {
			b.rules[name] = grammar.NewNonTerminal(name)
		}
	}
	for _, name := range names {
		if nt, ok := b.rules[name]; ok {
			b.define(nt, src[name])
		}
	}

	var ignored []grammar.Terminal
	for _, name := range ignore {
		if !IsLexical(name) {
			b.errorf(ErrIgnoreNotLexical, "%s", name)
			continue
		}
		if t := b.terminal(name); t != nil {
			ignored = append(ignored, t)
		}
	}

	var root grammar.Symbol
	switch {
	case src[start] == nil:
		b.errorf(ErrUndefined, "start production %s", start)
	case IsLexical(start):
		root = b.terminal(start)
	default:
		root = b.rules[start]
	}

	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	extra := make([]grammar.Symbol, 0, len(b.rules))
	for _, name := range names {
		if nt, ok := b.rules[name]; ok {
			extra = append(extra, nt)
		}
	}
	return grammar.New(root, ignored, extra...)
}

type builder struct {
	src       xebnf.Grammar
	terminals map[string]*grammar.PatternTerminal
	keywords  map[string]*grammar.KeywordTerminal
	rules     map[string]*grammar.NonTerminal
	regexps   map[string]string
	compiling map[string]bool
	errs      []error
}

func (b *builder) errorf(sentinel error, format string, args ...any) {
	b.errs = append(b.errs, fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...))
}

// define adds one rule per top-level alternative of prod.
func (b *builder) define(nt *grammar.NonTerminal, prod *xebnf.Production) {
	if prod.Expr == nil {
		nt.Define(grammar.NewRule(nil))
		return
	}
	alts, ok := prod.Expr.(xebnf.Alternative)
	if !ok {
		alts = xebnf.Alternative{prod.Expr}
	}
	for _, alt := range alts {
		nt.Define(grammar.NewRule(nil, b.symbols(alt)...))
	}
}

// symbols converts the body of a syntactic rule.
func (b *builder) symbols(expr xebnf.Expression) []grammar.Symbol {
	switch e := expr.(type) {
	case nil:
		return nil
	case xebnf.Sequence:
		var out []grammar.Symbol
		for _, item := range e {
			out = append(out, b.symbols(item)...)
		}
		return out
	case xebnf.Alternative:
		return []grammar.Symbol{b.choice(e)}
	case *xebnf.Group:
		return []grammar.Symbol{b.item(e.Body)}
	case *xebnf.Option:
		return []grammar.Symbol{grammar.Opt(b.item(e.Body))}
	case *xebnf.Repetition:
		item := b.item(e.Body)
		return []grammar.Symbol{grammar.Star(item.Name()+"*", item)}
	case *xebnf.Token:
		return []grammar.Symbol{b.keyword(e.String)}
	case *xebnf.Range:
		re, err := rangeClass(e)
		if err != nil {
			b.errs = append(b.errs, err)
			return nil
		}
		t, err := grammar.NewPatternTerminal(e.Begin.String+"…"+e.End.String, re)
		if err != nil {
			b.errs = append(b.errs, err)
			return nil
		}
		return []grammar.Symbol{t}
	case *xebnf.Name:
		if IsLexical(e.String) {
			if t := b.terminal(e.String); t != nil {
				return []grammar.Symbol{t}
			}
			return nil
		}
		if b.src[e.String] == nil {
			b.errorf(ErrUndefined, "%s at %s", e.String, e.Pos())
			return nil
		}
		return []grammar.Symbol{grammar.Ref(e.String)}
	}
	b.errs = append(b.errs, fmt.Errorf("ebnf: unsupported expression %T at %s", expr, expr.Pos()))
	return nil
}

// item converts a bracketed body into a single symbol.
func (b *builder) item(expr xebnf.Expression) grammar.Symbol {
	if alts, ok := expr.(xebnf.Alternative); ok {
		return b.choice(alts)
	}
	syms := b.symbols(expr)
	if len(syms) == 1 {
		return syms[0]
	}
	return grammar.Group(syms...)
}

func (b *builder) choice(alts xebnf.Alternative) grammar.Symbol {
	options := make([][]grammar.Symbol, len(alts))
	for i, alt := range alts {
		options[i] = b.symbols(alt)
	}
	return grammar.Choice(options...)
}

func (b *builder) keyword(text string) *grammar.KeywordTerminal {
	if k, ok := b.keywords[text]; ok {
		return k
	}
	k := grammar.Kw(text)
	b.keywords[text] = k
	return k
}

// terminal returns the pattern terminal of a lexical production, or nil
// after recording why it cannot be built. Failures are reported once.
func (b *builder) terminal(name string) *grammar.PatternTerminal {
	if t, ok := b.terminals[name]; ok {
		return t
	}
	b.terminals[name] = nil
	prod := b.src[name]
	if prod == nil {
		b.errorf(ErrUndefined, "%s", name)
		return nil
	}
	re, err := b.regexp(name)
	if err != nil {
		b.errs = append(b.errs, err)
		return nil
	}
	t, err := grammar.NewPatternTerminal(name, re)
	if err != nil {
		b.errs = append(b.errs, err)
		return nil
	}
	b.terminals[name] = t
	return t
}

// regexp compiles a lexical production, inlining the lexical productions it
// refers to.
func (b *builder) regexp(name string) (string, error) {
	if re, ok := b.regexps[name]; ok {
		return re, nil
	}
	if b.compiling[name] {
		return "", fmt.Errorf("%w: %s", ErrLexicalCycle, name)
	}
	prod := b.src[name]
	if prod == nil {
		return "", fmt.Errorf("%w: %s", ErrUndefined, name)
	}
	b.compiling[name] = true
	defer delete(b.compiling, name)

	var sb strings.Builder
	if err := b.pattern(&sb, prod.Expr); err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	re := sb.String()
	b.regexps[name] = re
	return re, nil
}

func (b *builder) pattern(sb *strings.Builder, expr xebnf.Expression) error {
	switch e := expr.(type) {
	case nil:
	case xebnf.Sequence:
		for _, item := range e {
			if err := b.pattern(sb, item); err != nil {
				return err
			}
		}
	case xebnf.Alternative:
		sb.WriteString("(?:")
		for i, alt := range e {
			if i > 0 {
				sb.WriteString("|")
			}
			if err := b.pattern(sb, alt); err != nil {
				return err
			}
		}
		sb.WriteString(")")
	case *xebnf.Group:
		return b.wrap(sb, e.Body, "")
	case *xebnf.Option:
		return b.wrap(sb, e.Body, "?")
	case *xebnf.Repetition:
		return b.wrap(sb, e.Body, "*")
	case *xebnf.Token:
		sb.WriteString(regexp2.Escape(e.String))
	case *xebnf.Range:
		class, err := rangeClass(e)
		if err != nil {
			return err
		}
		sb.WriteString(class)
	case *xebnf.Name:
		if !IsLexical(e.String) {
			return fmt.Errorf("%w: %s at %s", ErrLexicalSyntax, e.String, e.Pos())
		}
		re, err := b.regexp(e.String)
		if err != nil {
			return err
		}
		sb.WriteString("(?:" + re + ")")
	default:
		return fmt.Errorf("ebnf: unsupported expression %T at %s", expr, expr.Pos())
	}
	return nil
}

func (b *builder) wrap(sb *strings.Builder, body xebnf.Expression, suffix string) error {
	sb.WriteString("(?:")
	if err := b.pattern(sb, body); err != nil {
		return err
	}
	sb.WriteString(")" + suffix)
	return nil
}

// rangeClass turns "a" … "z" into a character class.
func rangeClass(r *xebnf.Range) (string, error) {
	lo, hi := []rune(r.Begin.String), []rune(r.End.String)
	if len(lo) != 1 || len(hi) != 1 || lo[0] > hi[0] {
		return "", fmt.Errorf("ebnf: invalid range %q … %q at %s", r.Begin.String, r.End.String, r.Pos())
	}
	return "[" + classEscape(lo[0]) + "-" + classEscape(hi[0]) + "]", nil
}

func classEscape(ch rune) string {
	switch ch {
	case '\\', ']', '[', '^', '-':
		return `\` + string(ch)
	}
	return string(ch)
}
