package glr

import (
	"strings"

	"github.com/tliron/commonlog"

	"github.com/naheedmk/java-glr-parser/grammar"
	"github.com/naheedmk/java-glr-parser/parsetree"
	"github.com/naheedmk/java-glr-parser/reader"
	"github.com/naheedmk/java-glr-parser/source"
)

// outcome is the result of one symbol attempt. A nil node means the symbol
// did not match and the reader is back at the start of the attempt;
// otherwise the reader is at end.
type outcome struct {
	node     parsetree.Node
	priority *grammar.Priority
	end      source.Position
}

type memoKey struct {
	symbol grammar.Symbol
	filter grammar.Filter
	offset int
}

// headKey identifies a call regardless of its filter: a second call of the
// same symbol at the same offset while the first is still running is left
// recursion, whatever the filters.
type headKey struct {
	symbol grammar.Symbol
	offset int
}

// frame is an in-progress non-terminal or sequence call.
type frame struct {
	key       headKey
	seeds     []outcome // successive matches of a growing head, each longer
	recursive bool      // reached again at the same offset
	tainted   bool      // used the seed of a head below; must not be memoized
}

type skipped struct {
	end  source.Position
	text string
}

// state is everything a single parse mutates.
type state struct {
	g     *grammar.Grammar
	rd    *reader.Reader
	log   commonlog.Logger
	trace bool
	depth int

	memo   map[memoKey]outcome
	skips  map[int]skipped
	active map[headKey]*frame
	stack  []*frame

	furthest source.Position
	expected []string
}

func newState(p *Parser, rd *reader.Reader) *state {
	return &state{
		g:        p.grammar,
		rd:       rd,
		log:      p.log,
		trace:    p.trace && p.log.AllowLevel(commonlog.Debug),
		memo:     make(map[memoKey]outcome),
		skips:    make(map[int]skipped),
		active:   make(map[headKey]*frame),
		furthest: rd.Position(),
	}
}

func (s *state) parse(sym grammar.Symbol, f grammar.Filter) (outcome, error) {
	switch sym := sym.(type) {
	case grammar.Terminal:
		return s.memoized(sym, f, func() (outcome, error) { return s.terminal(sym) })
	case *grammar.Marker:
		return s.marker(sym), nil
	case *grammar.Sequence:
		return s.apply(sym, f, func() (outcome, error) { return s.sequence(sym) })
	case *grammar.NonTerminal:
		return s.apply(sym, f, func() (outcome, error) { return s.nonTerminal(sym, f) })
	case *grammar.SymbolRef:
		return s.parse(s.g.Resolve(sym), sym.Filter())
	}
	panic("glr: unknown symbol " + sym.String())
}

func (s *state) seek(offset int) error {
	return s.rd.Seek(offset)
}

// resume moves the reader to the end of a remembered match.
func (s *state) resume(o outcome) (outcome, error) {
	if o.node == nil {
		return o, nil
	}
	return o, s.seek(o.end.Offset)
}

func (s *state) memoized(sym grammar.Symbol, f grammar.Filter, eval func() (outcome, error)) (outcome, error) {
	key := memoKey{sym, f, s.rd.Offset()}
	if o, ok := s.memo[key]; ok {
		return s.resume(o)
	}
	o, err := eval()
	if err != nil {
		return outcome{}, err
	}
	s.memo[key] = o
	return o, nil
}

// apply evaluates a non-terminal or sequence call with memoization and
// left-recursion support.
//
// A call that reaches itself at the same offset marks itself recursive and
// the inner call answers from the seeds collected so far (none at first, so
// only the non-recursive alternatives match). The head then re-evaluates
// with its latest match as the new seed until the match stops growing.
// Frames between the head and the recursive call depend on a seed, so
// their results are not memoized.
func (s *state) apply(sym grammar.Symbol, f grammar.Filter, eval func() (outcome, error)) (outcome, error) {
	start := s.rd.Position()
	key := memoKey{sym, f, start.Offset}
	if o, ok := s.memo[key]; ok {
		return s.resume(o)
	}
	hk := headKey{sym, start.Offset}
	if head, ok := s.active[hk]; ok {
		return s.recurse(head, f)
	}

	fr := &frame{key: hk}
	s.active[hk] = fr
	s.stack = append(s.stack, fr)
	s.enter(sym, f, start)
	defer func() {
		delete(s.active, hk)
		s.stack = s.stack[:len(s.stack)-1]
		s.depth--
	}()

	o, err := eval()
	if err != nil {
		return outcome{}, err
	}
	for fr.recursive && o.node != nil {
		fr.seeds = append(fr.seeds, o)
		if err := s.seek(start.Offset); err != nil {
			return outcome{}, err
		}
		next, err := eval()
		if err != nil {
			return outcome{}, err
		}
		if next.node == nil || next.end.Offset <= o.end.Offset {
			if err := s.seek(o.end.Offset); err != nil {
				return outcome{}, err
			}
			break
		}
		if s.trace {
			s.log.Debugf("%sgrow %s to %s", s.indent(), sym, next.end)
		}
		o = next
	}
	s.leave(sym, o)
	if !fr.tainted {
		s.memo[key] = o
	}
	return o, nil
}

// recurse answers a left-recursive call from head's seeds: the longest one
// whose rule f admits.
func (s *state) recurse(head *frame, f grammar.Filter) (outcome, error) {
	head.recursive = true
	for i := len(s.stack) - 1; s.stack[i] != head; i-- {
		s.stack[i].tainted = true
	}
	for i := len(head.seeds) - 1; i >= 0; i-- {
		if seed := head.seeds[i]; f.Admits(seed.priority) {
			return s.resume(seed)
		}
	}
	return outcome{}, nil
}

// skipIgnored consumes ignorable terminals and returns their text. The
// ignore-set is tried in order and the first match is taken, until none
// matches.
func (s *state) skipIgnored() (string, error) {
	start := s.rd.Offset()
	if sk, ok := s.skips[start]; ok {
		return sk.text, s.seek(sk.end.Offset)
	}
	for {
		matched := false
		for _, t := range s.g.Ignore() {
			n, err := s.rd.MatchAt(t.Pattern())
			if err != nil {
				return "", err
			}
			if n > 0 {
				if _, err := s.rd.Skip(n); err != nil {
					return "", err
				}
				matched = true
				break
			}
		}
		if !matched {
			break
		}
	}
	sk := skipped{end: s.rd.Position(), text: s.rd.Slice(start, s.rd.Offset())}
	s.skips[start] = sk
	return sk.text, nil
}

func (s *state) terminal(t grammar.Terminal) (outcome, error) {
	start := s.rd.Offset()
	ignored, err := s.skipIgnored()
	if err != nil {
		return outcome{}, err
	}
	at := s.rd.Position()
	n, err := s.rd.MatchAt(t.Pattern())
	if err != nil {
		return outcome{}, err
	}
	if n == 0 {
		s.expect(at, t)
		return outcome{}, s.seek(start)
	}
	if _, err := s.rd.Skip(n); err != nil {
		return outcome{}, err
	}
	tok := parsetree.NewToken(s.rd.RangeFrom(at), t, s.rd.Slice(at.Offset, s.rd.Offset()), ignored)
	if s.trace {
		s.log.Debugf("%s%s %q at %s", s.indent(), t, tok.Text(), at)
	}
	return outcome{node: tok, end: s.rd.Position()}, nil
}

// marker matches the empty string where the reader stands, before any
// ignorable input.
func (s *state) marker(m *grammar.Marker) outcome {
	at := s.rd.Position()
	tok := parsetree.NewToken(source.Empty(s.rd.Filename(), at), m, "", "")
	return outcome{node: tok, end: at}
}

func (s *state) sequence(seq *grammar.Sequence) (outcome, error) {
	start := s.rd.Position()
	if seq.Mode() == grammar.ZeroOrOne {
		item, err := s.parse(seq.Item(), grammar.Filter{})
		if err != nil {
			return outcome{}, err
		}
		if item.node == nil {
			item = s.marker(grammar.Nil)
		}
		return outcome{node: parsetree.NewElement(seq, item.node), end: s.rd.Position()}, nil
	}

	var children []parsetree.Node
	for {
		mark := s.rd.Offset()
		var sep parsetree.Node
		if len(children) > 0 && seq.Separator() != nil {
			o, err := s.parse(seq.Separator(), grammar.Filter{})
			if err != nil {
				return outcome{}, err
			}
			if o.node == nil {
				break
			}
			sep = o.node
		}
		item, err := s.parse(seq.Item(), grammar.Filter{})
		if err != nil {
			return outcome{}, err
		}
		if item.node == nil {
			// drop a separator without a following item
			if err := s.seek(mark); err != nil {
				return outcome{}, err
			}
			break
		}
		if sep != nil {
			children = append(children, sep)
		}
		children = append(children, item.node)
		if s.rd.Offset() == mark {
			break
		}
	}

	if len(children) == 0 {
		if seq.Mode() == grammar.OneOrMore {
			return outcome{}, nil
		}
		return outcome{node: parsetree.NewEmptyElement(seq, source.Empty(s.rd.Filename(), start)), end: start}, nil
	}
	return outcome{node: parsetree.NewElement(seq, children...), end: s.rd.Position()}, nil
}

// nonTerminal tries every rule f admits from the same offset and keeps the
// longest match. Between matches of equal length the earlier rule wins.
func (s *state) nonTerminal(nt *grammar.NonTerminal, f grammar.Filter) (outcome, error) {
	start := s.rd.Position()
	var best outcome
	for _, r := range nt.Rules() {
		if !f.Admits(r.Priority) {
			continue
		}
		o, err := s.rule(nt, r, start)
		if err != nil {
			return outcome{}, err
		}
		if o.node != nil && (best.node == nil || o.end.Offset > best.end.Offset) {
			best = o
		}
		if err := s.seek(start.Offset); err != nil {
			return outcome{}, err
		}
	}
	return s.resume(best)
}

// rule matches the symbols of r one after the other.
func (s *state) rule(nt *grammar.NonTerminal, r grammar.Rule, start source.Position) (outcome, error) {
	children := make([]parsetree.Node, 0, len(r.Symbols))
	for _, sym := range r.Symbols {
		o, err := s.parse(sym, grammar.Filter{})
		if err != nil {
			return outcome{}, err
		}
		if o.node == nil {
			return outcome{}, s.seek(start.Offset)
		}
		children = append(children, o.node)
	}
	var node parsetree.Node
	if len(children) == 0 {
		node = parsetree.NewEmptyElement(nt, source.Empty(s.rd.Filename(), start))
	} else {
		node = parsetree.NewElement(nt, children...)
	}
	return outcome{node: node, priority: r.Priority, end: s.rd.Position()}, nil
}

// expect records a terminal that failed at `at`. Only the failures at the
// furthest offset are kept.
func (s *state) expect(at source.Position, t grammar.Terminal) {
	switch {
	case at.Offset > s.furthest.Offset:
		s.furthest = at
		s.expected = []string{t.String()}
	case at.Offset == s.furthest.Offset:
		name := t.String()
		for _, e := range s.expected {
			if e == name {
				return
			}
		}
		s.expected = append(s.expected, name)
	}
}

func (s *state) enter(sym grammar.Symbol, f grammar.Filter, at source.Position) {
	if s.trace {
		s.log.Debugf("%s%s%s at %s", s.indent(), sym, f, at)
	}
	s.depth++
}

func (s *state) leave(sym grammar.Symbol, o outcome) {
	if !s.trace {
		return
	}
	if o.node == nil {
		s.log.Debugf("%s%s failed", s.indent(), sym)
	} else {
		s.log.Debugf("%s%s matched to %s", s.indent(), sym, o.end)
	}
}

func (s *state) indent() string {
	return strings.Repeat("  ", s.depth)
}
