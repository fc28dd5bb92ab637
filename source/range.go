// Package source holds the position and range types shared by the reader,
// the grammar engine and every parse tree node.
package source

import (
	"errors"
	"fmt"
)

var (
	ErrRangeOrder = errors.New("range: start after end")
	ErrRangeFiles = errors.New("range: ranges belong to different files")
)

// Position is a point in source text. Offset counts characters from the
// start of the file; Line and Column are 1-based and cached for display.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Start is the position of the first character of a file.
var Start = Position{Offset: 0, Line: 1, Column: 1}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Compare orders positions by offset.
func (p Position) Compare(other Position) int {
	switch {
	case p.Offset < other.Offset:
		return -1
	case p.Offset > other.Offset:
		return 1
	}
	return 0
}

func (p Position) Before(other Position) bool {
	return p.Offset < other.Offset
}

// Range is a contiguous span of a single file.
type Range struct {
	Filename string
	Start    Position
	End      Position
}

// NewRange panics when start lies after end.
func NewRange(filename string, start, end Position) Range {
	if start.Offset > end.Offset {
		panic(fmt.Errorf("%w: %s after %s in %s", ErrRangeOrder, start, end, filename))
	}
	return Range{Filename: filename, Start: start, End: end}
}

// Empty returns the zero-length range at the given position.
func Empty(filename string, at Position) Range {
	return Range{Filename: filename, Start: at, End: at}
}

// Join spans from the start of head to the end of tail. Both ranges must
// come from the same file and head must end no later than tail begins.
func Join(head, tail Range) Range {
	if head.Filename != tail.Filename {
		panic(fmt.Errorf("%w: %q and %q", ErrRangeFiles, head.Filename, tail.Filename))
	}
	if !head.Before(tail) {
		panic(fmt.Errorf("%w: %s does not precede %s", ErrRangeOrder, head, tail))
	}
	return Range{Filename: head.Filename, Start: head.Start, End: tail.End}
}

// Before reports whether r ends no later than other begins.
func (r Range) Before(other Range) bool {
	return r.End.Offset <= other.Start.Offset
}

// Length is the number of characters covered, newlines included.
func (r Range) Length() int {
	return r.End.Offset - r.Start.Offset
}

func (r Range) IsEmpty() bool {
	return r.Start.Offset == r.End.Offset
}

// Contains reports whether offset falls inside [Start, End).
func (r Range) Contains(offset int) bool {
	return r.Start.Offset <= offset && offset < r.End.Offset
}

func (r Range) String() string {
	s := r.Filename + ": " + r.Start.String()
	if r.Start != r.End {
		s += " to " + r.End.String()
	}
	return s
}
