package glr

import (
	"strconv"
	"strings"

	"github.com/naheedmk/java-glr-parser/source"
)

// SyntaxError reports input the grammar cannot derive. Range is the empty
// range at the furthest position any alternative reached.
type SyntaxError struct {
	Message  string
	Range    source.Range
	Expected []string
}

func (e *SyntaxError) Error() string {
	return e.Range.String() + ": " + e.Message
}

// syntaxError describes the input found at `at`. The reader is left at `at`.
func (s *state) syntaxError(at source.Position, expected []string) *SyntaxError {
	found := "end of input"
	if err := s.rd.Seek(at.Offset); err == nil {
		if ch, _, err := s.rd.ReadRune(); err == nil {
			found = strconv.QuoteRune(ch)
			_ = s.rd.Seek(at.Offset)
		}
	}

	var b strings.Builder
	b.WriteString("unexpected ")
	b.WriteString(found)
	if len(expected) > 0 {
		b.WriteString(", expected ")
		b.WriteString(alternatives(expected))
	}
	return &SyntaxError{
		Message:  b.String(),
		Range:    source.Empty(s.rd.Filename(), at),
		Expected: append([]string(nil), expected...),
	}
}

func alternatives(names []string) string {
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
}
