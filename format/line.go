package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/naheedmk/java-glr-parser/parsetree"
)

// LineEncoder writes one tab-separated line per token or marker, with the
// quoted text and ignored prefix last.
type LineEncoder struct {
	w io.Writer
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(node parsetree.Node) error {
	text, err := e.MarshalText(node)
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText(node parsetree.Node) ([]byte, error) {
	var sb strings.Builder

	for _, t := range parsetree.Tokens(node) {
		kind := "token"
		if t.IsMarker() {
			kind = "marker"
		}
		fmt.Fprintf(&sb, "%s\t%s\t%s\t%q\t%q\n",
			t.Range().Start,
			kind,
			t.Symbol().Name(),
			t.Text(),
			t.IgnoredPrefix(),
		)
	}

	return []byte(sb.String()), nil
}
