// Package record defines the flat key/value record that both the ISO 8583
// message codec and the IPM file codec produce and consume.
package record

import (
	"encoding/json"
	"fmt"
)

// MTIKey is the well known key holding the 4 character Message Type Indicator.
const MTIKey = "MTI"

// Value is a tagged union of the two shapes a record field can take: text
// decoded in the message's character encoding, or an opaque byte string for
// binary-typed fields. Exactly one of the two is meaningful; IsBytes reports
// which.
type Value struct {
	text    string
	bytes   []byte
	isBytes bool
}

// Text wraps a decoded character value.
func Text(s string) Value {
	return Value{text: s}
}

// Bytes wraps an opaque binary value.
func Bytes(b []byte) Value {
	return Value{bytes: b, isBytes: true}
}

// IsBytes reports whether this value is a binary value rather than text.
func (v Value) IsBytes() bool {
	return v.isBytes
}

// String returns the text form of the value. For binary values it returns
// the raw bytes reinterpreted as a string; callers that need a view
// (hex_bin) should convert before calling String.
func (v Value) String() string {
	if v.isBytes {
		return string(v.bytes)
	}
	return v.text
}

// RawBytes returns the binary form of the value. For text values it returns
// the UTF-8 bytes of the text.
func (v Value) RawBytes() []byte {
	if v.isBytes {
		return v.bytes
	}
	return []byte(v.text)
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(other Value) bool {
	if v.isBytes != other.isBytes {
		return false
	}
	if v.isBytes {
		return string(v.bytes) == string(other.bytes)
	}
	return v.text == other.text
}

func (v Value) GoString() string {
	if v.isBytes {
		return fmt.Sprintf("record.Bytes(%#v)", v.bytes)
	}
	return fmt.Sprintf("record.Text(%q)", v.text)
}

// MarshalJSON renders a Value as its text form: mci2json/json2mci always
// operate with the message codec's HexBin view enabled, so a binary-typed
// field value has already been rendered as uppercase hex text by the time
// it reaches here (see iso8583.DecodeOptions.HexBin).
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON restores a Value from its text form, as Text. A consumer
// decoding with a binary-typed field descriptor and HexBin enabled treats
// that text as hex, per EncodeOptions.HexBin.
func (v *Value) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*v = Text(s)
	return nil
}

// Record is a flat mapping from string keys to values, as produced by the
// ISO 8583 message decoder and the IPM parameter-table extractor, and as
// consumed by their respective encoders.
//
// Recognised key forms: MTIKey, "DE<n>" for top-level fields, "PDS<nnnn>"
// for PDS subfields, and any number of projected/derived keys that encoders
// are expected to ignore.
type Record map[string]Value

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
