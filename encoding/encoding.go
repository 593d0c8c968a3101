// Package encoding implements the bidirectional translation between a
// named character encoding used on the wire (an EBCDIC dialect or an
// extended-ASCII dialect) and the canonical UTF-8 text the rest of the
// codec works with. Binary-typed field values pass through these
// translators untouched; translation only ever applies to text.
package encoding

import (
	"fmt"

	"github.com/adelosa/go-cardutil/record"
	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Translator converts between the wire bytes of a named encoding and
// canonical text, with a strict-error policy: any byte sequence or
// character that cannot be translated is reported as an *record.EncodingError.
type Translator interface {
	// Name is the configured encoding name, e.g. "cp500".
	Name() string
	// ToText decodes wire bytes into canonical text. field is the 1-based
	// top-level field index the bytes belong to, or 0 when not
	// attributable to a specific field (e.g. the MTI); it is carried on
	// a returned *record.EncodingError.
	ToText(b []byte, field int) (string, error)
	// FromText encodes canonical text into wire bytes. field is as for
	// ToText.
	FromText(s string, field int) ([]byte, error)
}

type charmapTranslator struct {
	name string
	cm   *charmap.Charmap
}

func (t charmapTranslator) Name() string { return t.name }

func (t charmapTranslator) ToText(b []byte, field int) (string, error) {
	out, err := t.cm.NewDecoder().Bytes(b)
	if err != nil {
		return "", &record.EncodingError{Field: field, Err: fmt.Errorf("%s: decode: %w", t.name, err)}
	}
	return string(out), nil
}

func (t charmapTranslator) FromText(s string, field int) ([]byte, error) {
	out, err := t.cm.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, &record.EncodingError{Field: field, Err: fmt.Errorf("%s: encode: %w", t.name, err)}
	}
	return out, nil
}

// asciiTranslator is a strict 7-bit ASCII codec: golang.org/x/text has no
// dedicated ASCII charmap, so bytes/runes above 0x7f are rejected directly.
type asciiTranslator struct{}

func (asciiTranslator) Name() string { return "ascii" }

func (asciiTranslator) ToText(b []byte, field int) (string, error) {
	for i, c := range b {
		if c > 0x7f {
			return "", &record.EncodingError{Field: field, Err: fmt.Errorf("ascii: byte 0x%02x at offset %d is not 7-bit clean", c, i)}
		}
	}
	return string(b), nil
}

func (asciiTranslator) FromText(s string, field int) ([]byte, error) {
	for i, r := range s {
		if r > 0x7f {
			return nil, &record.EncodingError{Field: field, Err: fmt.Errorf("ascii: rune %q at offset %d is not 7-bit clean", r, i)}
		}
	}
	return []byte(s), nil
}

var registry = map[string]Translator{
	"cp500":   charmapTranslator{name: "cp500", cm: charmap.CodePage500},
	"cp037":   charmapTranslator{name: "cp037", cm: charmap.CodePage037},
	"latin-1": charmapTranslator{name: "latin-1", cm: charmap.ISO8859_1},
	"ascii":   asciiTranslator{},
}

// Lookup resolves a configured encoding name to a Translator.
func Lookup(name string) (Translator, error) {
	t, ok := registry[name]
	if !ok {
		return nil, &record.ConfigError{Msg: fmt.Sprintf("unknown encoding %q", name)}
	}
	return t, nil
}

// MustLookup is Lookup but panics on an unknown name; used for constants
// wired at init time, never for caller-supplied configuration.
func MustLookup(name string) Translator {
	t, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return t
}

var _ xencoding.Encoding = charmap.CodePage500 // confirms the charmap values satisfy encoding.Encoding
