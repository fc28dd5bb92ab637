package grammar

import (
	"strconv"
	"strings"
)

// Mode is the repetition mode of a Sequence.
type Mode int

const (
	ZeroOrOne Mode = iota
	ZeroOrMore
	OneOrMore
)

func (m Mode) String() string {
	switch m {
	case ZeroOrOne:
		return "?"
	case ZeroOrMore:
		return "*"
	case OneOrMore:
		return "+"
	}
	return "Mode(" + strconv.Itoa(int(m)) + ")"
}

// Sequence repeats an item, optionally separated by a separator symbol.
//
// A ZeroOrOne sequence always yields exactly one child: the item, or a
// zero-length Nil marker when it is absent. The repeating modes yield the
// flattened list item, separator, item, ...
type Sequence struct {
	name      string
	item      Symbol
	mode      Mode
	separator Symbol
}

// NewSequence builds a repetition of item. separator may be nil.
func NewSequence(name string, item Symbol, mode Mode, separator Symbol) *Sequence {
	if item == nil {
		panic("grammar: sequence " + name + " without item")
	}
	return &Sequence{name: name, item: item, mode: mode, separator: separator}
}

// Opt makes items optional. Several items are grouped into an anonymous
// non-terminal that becomes the optional item.
func Opt(items ...Symbol) *Sequence {
	var item Symbol
	switch len(items) {
	case 0:
		panic("grammar: empty optional")
	case 1:
		item = items[0]
	default:
		item = Group(items...)
	}
	return NewSequence(item.Name()+"?", item, ZeroOrOne, nil)
}

// Star matches item zero or more times.
func Star(name string, item Symbol) *Sequence {
	return NewSequence(name, item, ZeroOrMore, nil)
}

// Plus matches item one or more times.
func Plus(name string, item Symbol) *Sequence {
	return NewSequence(name, item, OneOrMore, nil)
}

// List matches one or more items separated by sep.
func List(name string, item, sep Symbol) *Sequence {
	return NewSequence(name, item, OneOrMore, sep)
}

func (s *Sequence) Name() string      { return s.name }
func (s *Sequence) Item() Symbol      { return s.item }
func (s *Sequence) Mode() Mode        { return s.mode }
func (s *Sequence) Separator() Symbol { return s.separator }
func (s *Sequence) isSymbol()         {}

func (s *Sequence) String() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(s.item.Name())
	if s.separator != nil {
		b.WriteString(" / ")
		b.WriteString(s.separator.Name())
	}
	b.WriteString(")")
	b.WriteString(s.mode.String())
	return b.String()
}
