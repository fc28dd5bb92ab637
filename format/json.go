package format

import (
	"encoding/json"
	"io"

	"github.com/naheedmk/java-glr-parser/glr"
	"github.com/naheedmk/java-glr-parser/parsetree"
	"github.com/naheedmk/java-glr-parser/source"
)

type JSONEncoder struct {
	w io.Writer
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(node parsetree.Node) error {
	text, err := e.MarshalText(node)
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *JSONEncoder) MarshalText(node parsetree.Node) ([]byte, error) {
	return json.MarshalIndent(nodeToDocument(node), "", "  ")
}

func (e *JSONEncoder) EncodeError(err *glr.SyntaxError) error {
	text, jerr := json.MarshalIndent(errorToDocument(err), "", "  ")
	return write(e.w, append(text, '\n'), jerr)
}

// docNode is the JSON and YAML shape of a parse tree node.
type docNode struct {
	Symbol   string     `json:"symbol" yaml:"symbol"`
	Kind     string     `json:"kind" yaml:"kind"`
	Span     docSpan    `json:"span" yaml:"span"`
	Text     string     `json:"text,omitempty" yaml:"text,omitempty"`
	Ignored  string     `json:"ignored,omitempty" yaml:"ignored,omitempty"`
	Children []*docNode `json:"children,omitempty" yaml:"children,omitempty"`
}

type docSpan struct {
	File  string      `json:"file" yaml:"file"`
	Start docPosition `json:"start" yaml:"start"`
	End   docPosition `json:"end" yaml:"end"`
}

type docPosition struct {
	Offset int `json:"offset" yaml:"offset"`
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

type docError struct {
	Message  string      `json:"message" yaml:"message"`
	File     string      `json:"file" yaml:"file"`
	At       docPosition `json:"at" yaml:"at"`
	Expected []string    `json:"expected,omitempty" yaml:"expected,omitempty"`
}

func position(p source.Position) docPosition {
	return docPosition{Offset: p.Offset, Line: p.Line, Column: p.Column}
}

func nodeToDocument(n parsetree.Node) *docNode {
	r := n.Range()
	dn := &docNode{
		Symbol: n.Symbol().Name(),
		Kind:   "element",
		Span:   docSpan{File: r.Filename, Start: position(r.Start), End: position(r.End)},
	}

	if t, ok := n.(*parsetree.Token); ok {
		dn.Kind = "token"
		if t.IsMarker() {
			dn.Kind = "marker"
		}
		dn.Text = t.Text()
		dn.Ignored = t.IgnoredPrefix()
	}

	if children := n.Children(); len(children) > 0 {
		dn.Children = make([]*docNode, len(children))
		for i, child := range children {
			dn.Children[i] = nodeToDocument(child)
		}
	}

	return dn
}

func errorToDocument(err *glr.SyntaxError) *docError {
	return &docError{
		Message:  err.Message,
		File:     err.Range.Filename,
		At:       position(err.Range.Start),
		Expected: err.Expected,
	}
}
