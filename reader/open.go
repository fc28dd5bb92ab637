package reader

import (
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Open reads a file, decoding UTF-16 when it starts with a byte order mark
// and UTF-8 otherwise, and returns a reader positioned at its start.
func Open(filename string) (*Reader, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, &IOError{Filename: filename, Err: err}
	}
	text, err := Decode(data)
	if err != nil {
		return nil, &IOError{Filename: filename, Err: err}
	}
	return NewString(text, filename), nil
}

// Decode converts raw file content to text. A leading byte order mark selects
// the encoding and is stripped; invalid UTF-8 is replaced with U+FFFD.
func Decode(data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
