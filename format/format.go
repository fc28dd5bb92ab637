// Package format renders parse trees: as compact or indented text, as JSON
// or YAML documents, as one line per token, or back into source text.
package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/naheedmk/java-glr-parser/glr"
	"github.com/naheedmk/java-glr-parser/parsetree"
)

type Encoder interface {
	Encode(node parsetree.Node) error
	MarshalText(node parsetree.Node) ([]byte, error)
}

// ErrorEncoder is implemented by encoders with a structured representation
// of syntax errors.
type ErrorEncoder interface {
	EncodeError(err *glr.SyntaxError) error
}

// Names lists the formats understood by NewEncoder.
var Names = []string{"tree", "positions", "json", "yaml", "tokens", "source"}

// NewEncoder returns the encoder registered under name.
func NewEncoder(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "tree":
		return NewTreeEncoder(w, false), nil
	case "positions":
		return NewTreeEncoder(w, true), nil
	case "json":
		return NewJSONEncoder(w), nil
	case "yaml":
		return NewYAMLEncoder(w), nil
	case "tokens":
		return NewLineEncoder(w), nil
	case "source":
		return NewSourceEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown format %q (want one of %s)", name, strings.Join(Names, ", "))
}

func write(w io.Writer, text []byte, err error) error {
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}
