// Package reader provides a repositionable character cursor over a source
// file with exact line/column bookkeeping and regular expression lookahead.
package reader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"github.com/naheedmk/java-glr-parser/source"
)

var ErrOutOfBounds = errors.New("reader: offset out of bounds")

const unknownSize = int(^uint(0) >> 1)

// BoundsError reports a seek outside [mark, size]. It is raised as a panic:
// callers are expected to mark conservatively and never seek past the end.
type BoundsError struct {
	Offset int
	Mark   int
	Size   int
}

func (e *BoundsError) Error() string {
	if e.Offset > e.Size {
		return fmt.Sprintf("reader: seek to %d past end of file (%d)", e.Offset, e.Size)
	}
	return fmt.Sprintf("reader: seek to %d before mark at %d", e.Offset, e.Mark)
}

func (e *BoundsError) Unwrap() error {
	return ErrOutOfBounds
}

// IOError wraps a failure of the underlying character source.
type IOError struct {
	Filename string
	Offset   int
	Err      error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read %s at offset %d: %v", e.Filename, e.Offset, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Reader is a cursor over a character stream. Characters are decoded lazily
// into an in-memory buffer which is never discarded, so any offset at or after
// the mark can be revisited. A Reader belongs to a single parse at a time.
type Reader struct {
	src      io.RuneReader
	filename string
	size     int

	buf   []rune
	lines []int // offsets of line starts seen so far; lines[0] == 0
	err   error

	current source.Position
	mark    source.Position
}

// New wraps r. size is the total number of characters in the file; when it
// is negative the whole source is read immediately to determine it.
func New(r io.Reader, filename string, size int) (*Reader, error) {
	rr, ok := r.(io.RuneReader)
	if !ok {
		rr = bufio.NewReader(r)
	}
	rd := &Reader{
		src:      rr,
		filename: filename,
		size:     size,
		lines:    []int{0},
		current:  source.Start,
	}
	if size < 0 {
		rd.size = unknownSize
		if err := rd.fill(rd.size); err != nil {
			return nil, err
		}
		rd.size = len(rd.buf)
	} else if size > 0 {
		rd.buf = make([]rune, 0, size)
	}
	rd.Mark()
	return rd, nil
}

// NewString returns a reader over an in-memory string.
func NewString(src, filename string) *Reader {
	rd, err := New(strings.NewReader(src), filename, utf8.RuneCountInString(src))
	if err != nil {
		// strings.Reader never fails
		panic(err)
	}
	return rd
}

// fill materializes characters until at least n are buffered or the file ends.
func (r *Reader) fill(n int) error {
	if n > r.size {
		n = r.size
	}
	for len(r.buf) < n {
		if r.err != nil {
			return r.err
		}
		ch, _, err := r.src.ReadRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if r.size == unknownSize {
					r.size = len(r.buf)
					return nil
				}
				err = io.ErrUnexpectedEOF
			}
			r.err = &IOError{Filename: r.filename, Offset: len(r.buf), Err: err}
			return r.err
		}
		r.buf = append(r.buf, ch)
		if ch == '\n' {
			r.lines = append(r.lines, len(r.buf))
		}
	}
	return nil
}

func (r *Reader) advance(ch rune) {
	r.current.Offset++
	if ch == '\n' {
		r.current.Line++
		r.current.Column = 1
	} else {
		r.current.Column++
	}
}

// ReadRune consumes one character and updates line and column.
func (r *Reader) ReadRune() (rune, int, error) {
	if r.current.Offset >= r.size {
		return 0, 0, io.EOF
	}
	if err := r.fill(r.current.Offset + 1); err != nil {
		return 0, 0, err
	}
	ch := r.buf[r.current.Offset]
	r.advance(ch)
	return ch, utf8.RuneLen(ch), nil
}

// Skip consumes n characters, stopping early at end of file.
func (r *Reader) Skip(n int) (int, error) {
	for i := 0; i < n; i++ {
		if _, _, err := r.ReadRune(); err != nil {
			if errors.Is(err, io.EOF) {
				return i, nil
			}
			return i, err
		}
	}
	return n, nil
}

// Mark records the current position as the restore point. Earlier reads
// stay valid; seeking before the mark is no longer permitted.
func (r *Reader) Mark() {
	r.mark = r.current
}

// Reset returns to the last mark.
func (r *Reader) Reset() {
	r.current = r.mark
}

// Seek moves to an absolute character offset. Offsets before the mark or
// past the end of the file panic with a *BoundsError.
func (r *Reader) Seek(offset int) error {
	if offset > r.size || offset < r.mark.Offset {
		panic(&BoundsError{Offset: offset, Mark: r.mark.Offset, Size: r.size})
	}
	switch back := r.current.Offset - offset; {
	case back == 0:
	case offset == r.mark.Offset:
		r.Reset()
	case back < 0:
		_, err := r.Skip(-back)
		return err
	case back < r.current.Column:
		// Still on the current line, no newline can lie in between.
		r.current.Offset = offset
		r.current.Column -= back
	default:
		r.current = r.locate(offset)
	}
	return nil
}

// SeekPosition moves to p.Offset.
func (r *Reader) SeekPosition(p source.Position) error {
	return r.Seek(p.Offset)
}

// locate derives line and column of an already buffered offset from the
// line start index.
func (r *Reader) locate(offset int) source.Position {
	i := sort.Search(len(r.lines), func(i int) bool { return r.lines[i] > offset }) - 1
	return source.Position{
		Offset: offset,
		Line:   i + 1,
		Column: offset - r.lines[i] + 1,
	}
}

// MatchAt tries re at the current position without moving the cursor and
// returns the length of the match. Zero means no match; a zero-length match
// also counts as none. re should be anchored with \G.
func (r *Reader) MatchAt(re *regexp2.Regexp) (int, error) {
	if err := r.fill(r.size); err != nil {
		return 0, err
	}
	m, err := re.FindRunesMatchStartingAt(r.buf[:r.size], r.current.Offset)
	if err != nil {
		return 0, fmt.Errorf("match %q at %s: %w", re.String(), r.current, err)
	}
	if m == nil || m.Index != r.current.Offset || m.Length == 0 {
		return 0, nil
	}
	return m.Length, nil
}

// Slice returns the text between two buffered offsets.
func (r *Reader) Slice(from, to int) string {
	return string(r.buf[from:to])
}

func (r *Reader) Offset() int {
	return r.current.Offset
}

func (r *Reader) Line() int {
	return r.current.Line
}

func (r *Reader) Column() int {
	return r.current.Column
}

// Position returns the current offset, line and column.
func (r *Reader) Position() source.Position {
	return r.current
}

// MarkPosition returns the position of the last mark.
func (r *Reader) MarkPosition() source.Position {
	return r.mark
}

func (r *Reader) Remaining() int {
	return r.size - r.current.Offset
}

func (r *Reader) AtEOF() bool {
	return r.current.Offset >= r.size
}

func (r *Reader) Size() int {
	return r.size
}

func (r *Reader) Filename() string {
	return r.filename
}

// RangeFrom returns the range from start to the current position.
func (r *Reader) RangeFrom(start source.Position) source.Range {
	return source.NewRange(r.filename, start, r.current)
}
