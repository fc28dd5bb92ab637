package format

import (
	"io"
	"strings"

	"github.com/naheedmk/java-glr-parser/parsetree"
)

// Source reconstructs the text a tree was parsed from: every token's
// ignored prefix followed by its text. Ignorable input after the last token
// is not part of the tree and is not reproduced.
func Source(node parsetree.Node) string {
	var sb strings.Builder
	for _, t := range parsetree.Tokens(node) {
		sb.WriteString(t.IgnoredPrefix())
		sb.WriteString(t.Text())
	}
	return sb.String()
}

type SourceEncoder struct {
	w io.Writer
}

func NewSourceEncoder(w io.Writer) *SourceEncoder {
	return &SourceEncoder{w: w}
}

func (e *SourceEncoder) Encode(node parsetree.Node) error {
	_, err := io.WriteString(e.w, Source(node))
	return err
}

func (e *SourceEncoder) MarshalText(node parsetree.Node) ([]byte, error) {
	return []byte(Source(node)), nil
}
