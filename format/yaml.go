package format

import (
	"bytes"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/naheedmk/java-glr-parser/glr"
	"github.com/naheedmk/java-glr-parser/parsetree"
)

type YAMLEncoder struct {
	w io.Writer
}

func NewYAMLEncoder(w io.Writer) *YAMLEncoder {
	return &YAMLEncoder{w: w}
}

func (e *YAMLEncoder) Encode(node parsetree.Node) error {
	text, err := e.MarshalText(node)
	return write(e.w, text, err)
}

func (e *YAMLEncoder) MarshalText(node parsetree.Node) ([]byte, error) {
	return marshalYAML(nodeToDocument(node))
}

func (e *YAMLEncoder) EncodeError(err *glr.SyntaxError) error {
	text, yerr := marshalYAML(errorToDocument(err))
	return write(e.w, text, yerr)
}

func marshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
