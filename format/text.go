package format

import (
	"io"

	"github.com/naheedmk/java-glr-parser/parsetree"
)

// TreeEncoder writes the compact form Expr(Expr("1") "+" Expr("2")) or,
// with positions, one indented line per node.
type TreeEncoder struct {
	w         io.Writer
	positions bool
}

func NewTreeEncoder(w io.Writer, positions bool) *TreeEncoder {
	return &TreeEncoder{w: w, positions: positions}
}

func (e *TreeEncoder) Encode(node parsetree.Node) error {
	text, err := e.MarshalText(node)
	return write(e.w, text, err)
}

func (e *TreeEncoder) MarshalText(node parsetree.Node) ([]byte, error) {
	if e.positions {
		return []byte(parsetree.StringWithPositions(node)), nil
	}
	return []byte(node.String() + "\n"), nil
}
