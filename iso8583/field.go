// Package iso8583 implements the ISO 8583 message codec: field encoding
// (FIXED/LLVAR/LLLVAR over AN/N/B/NS data types), the primary/secondary
// bitmap, the PDS sub-TLV layer carried inside configured container
// fields, and the whole-message Loads/Dumps pair.
package iso8583

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/adelosa/go-cardutil/config"
	"github.com/adelosa/go-cardutil/encoding"
	"github.com/adelosa/go-cardutil/record"
)

// DecodeField decodes a single field starting at byte offset pos in buf,
// per fd's layout, returning the decoded value and the offset of the byte
// following the field.
func DecodeField(buf []byte, pos int, index int, fd config.FieldDescriptor, enc encoding.Translator) (record.Value, int, error) {
	switch fd.Type {
	case config.FieldFixed:
		return decodeFixed(buf, pos, index, fd, enc)
	case config.FieldLLVar:
		return decodeVar(buf, pos, index, fd, enc, 2)
	case config.FieldLLLVar:
		return decodeVar(buf, pos, index, fd, enc, 3)
	default:
		return record.Value{}, pos, &record.FieldError{Field: index, Msg: fmt.Sprintf("unknown field_type %q", fd.Type)}
	}
}

// EncodeField encodes v per fd's layout, returning the wire bytes for just
// this field (length prefix included, for *VAR types).
func EncodeField(v record.Value, index int, fd config.FieldDescriptor, enc encoding.Translator) ([]byte, error) {
	switch fd.Type {
	case config.FieldFixed:
		return encodeFixed(v, index, fd, enc)
	case config.FieldLLVar:
		return encodeVar(v, index, fd, enc, 2)
	case config.FieldLLLVar:
		return encodeVar(v, index, fd, enc, 3)
	default:
		return nil, &record.FieldError{Field: index, Msg: fmt.Sprintf("unknown field_type %q", fd.Type)}
	}
}

func decodeFixed(buf []byte, pos int, index int, fd config.FieldDescriptor, enc encoding.Translator) (record.Value, int, error) {
	n, err := unitByteLength(fd.DataType, fd.Length)
	if err != nil {
		return record.Value{}, pos, &record.FieldError{Field: index, Err: err}
	}
	if pos+n > len(buf) {
		return record.Value{}, pos, &record.FieldError{Field: index, Msg: "fixed field runs past end of message"}
	}
	raw := buf[pos : pos+n]
	v, err := decodeUnits(raw, index, fd, enc)
	if err != nil {
		return record.Value{}, pos, err
	}
	return v, pos + n, nil
}

func decodeVar(buf []byte, pos int, index int, fd config.FieldDescriptor, enc encoding.Translator, prefixDigits int) (record.Value, int, error) {
	if pos+prefixDigits > len(buf) {
		return record.Value{}, pos, &record.FieldError{Field: index, Msg: "length prefix runs past end of message"}
	}
	prefixText, err := enc.ToText(buf[pos:pos+prefixDigits], index)
	if err != nil {
		return record.Value{}, pos, err
	}
	if !isAllDigits(prefixText) {
		return record.Value{}, pos, &record.FieldError{Field: index, Msg: fmt.Sprintf("length prefix %q is not all digits", prefixText)}
	}
	length, err := strconv.Atoi(prefixText)
	if err != nil {
		return record.Value{}, pos, &record.FieldError{Field: index, Err: err}
	}
	if length > fd.Length {
		return record.Value{}, pos, &record.FieldError{Field: index, Msg: fmt.Sprintf("declared length %d exceeds maximum %d", length, fd.Length)}
	}
	pos += prefixDigits

	n, err := unitByteLength(fd.DataType, length)
	if err != nil {
		return record.Value{}, pos, &record.FieldError{Field: index, Err: err}
	}
	if pos+n > len(buf) {
		return record.Value{}, pos, &record.FieldError{Field: index, Msg: "variable field runs past end of message"}
	}
	raw := buf[pos : pos+n]
	v, err := decodeUnitsN(raw, index, fd, enc, length)
	if err != nil {
		return record.Value{}, pos, err
	}
	return v, pos + n, nil
}

// unitByteLength returns the on-wire byte count for displayLen units of
// fd's data type: 1 byte/char for AN, N and B, ceil(displayLen/2) for BCD.
func unitByteLength(dt config.FieldDataType, displayLen int) (int, error) {
	switch dt {
	case config.DataAN, config.DataN, config.DataB:
		return displayLen, nil
	case config.DataNS:
		return (displayLen + 1) / 2, nil
	default:
		return 0, fmt.Errorf("unknown field_processing_type %q", dt)
	}
}

func decodeUnits(raw []byte, index int, fd config.FieldDescriptor, enc encoding.Translator) (record.Value, error) {
	return decodeUnitsN(raw, index, fd, enc, fd.Length)
}

func decodeUnitsN(raw []byte, index int, fd config.FieldDescriptor, enc encoding.Translator, displayLen int) (record.Value, error) {
	switch fd.DataType {
	case config.DataAN, config.DataN:
		text, err := enc.ToText(raw, index)
		if err != nil {
			return record.Value{}, err
		}
		return record.Text(text), nil
	case config.DataB:
		cp := make([]byte, len(raw))
		copy(cp, raw)
		return record.Bytes(cp), nil
	case config.DataNS:
		digits, err := decodeBCD(raw, displayLen)
		if err != nil {
			return record.Value{}, &record.FieldError{Field: index, Err: err}
		}
		return record.Text(digits), nil
	default:
		return record.Value{}, &record.FieldError{Field: index, Msg: fmt.Sprintf("unknown field_processing_type %q", fd.DataType)}
	}
}

func encodeFixed(v record.Value, index int, fd config.FieldDescriptor, enc encoding.Translator) ([]byte, error) {
	switch fd.DataType {
	case config.DataAN:
		text := v.String()
		chars := len([]rune(text))
		if chars > fd.Length {
			return nil, &record.FieldError{Field: index, Msg: fmt.Sprintf("value length %d overflows fixed width %d", chars, fd.Length)}
		}
		text = text + strings.Repeat(" ", fd.Length-chars)
		return enc.FromText(text, index)
	case config.DataN:
		text := v.String()
		if !isAllDigits(text) {
			return nil, &record.FieldError{Field: index, Msg: fmt.Sprintf("numeric value %q contains non-digit characters", text)}
		}
		if len(text) > fd.Length {
			return nil, &record.FieldError{Field: index, Msg: fmt.Sprintf("value length %d overflows fixed width %d", len(text), fd.Length)}
		}
		text = strings.Repeat("0", fd.Length-len(text)) + text
		return enc.FromText(text, index)
	case config.DataB:
		raw := v.RawBytes()
		if len(raw) != fd.Length {
			return nil, &record.FieldError{Field: index, Msg: fmt.Sprintf("binary value length %d does not match fixed width %d", len(raw), fd.Length)}
		}
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	case config.DataNS:
		text := v.String()
		if !isAllDigits(text) {
			return nil, &record.FieldError{Field: index, Msg: fmt.Sprintf("BCD value %q contains non-digit characters", text)}
		}
		if len(text) > fd.Length {
			return nil, &record.FieldError{Field: index, Msg: fmt.Sprintf("value length %d overflows fixed width %d", len(text), fd.Length)}
		}
		text = strings.Repeat("0", fd.Length-len(text)) + text
		return encodeBCD(text)
	default:
		return nil, &record.FieldError{Field: index, Msg: fmt.Sprintf("unknown field_processing_type %q", fd.DataType)}
	}
}

func encodeVar(v record.Value, index int, fd config.FieldDescriptor, enc encoding.Translator, prefixDigits int) ([]byte, error) {
	maxLen := 1
	for i := 0; i < prefixDigits; i++ {
		maxLen *= 10
	}
	maxLen--

	var length int
	var payload []byte

	switch fd.DataType {
	case config.DataAN, config.DataN:
		text := v.String()
		if fd.DataType == config.DataN && text != "" && !isAllDigits(text) {
			return nil, &record.FieldError{Field: index, Msg: fmt.Sprintf("numeric value %q contains non-digit characters", text)}
		}
		length = len([]rune(text))
		p, err := enc.FromText(text, index)
		if err != nil {
			return nil, err
		}
		payload = p
	case config.DataB:
		raw := v.RawBytes()
		length = len(raw)
		payload = make([]byte, len(raw))
		copy(payload, raw)
	case config.DataNS:
		text := v.String()
		if text != "" && !isAllDigits(text) {
			return nil, &record.FieldError{Field: index, Msg: fmt.Sprintf("BCD value %q contains non-digit characters", text)}
		}
		length = len(text)
		p, err := encodeBCD(text)
		if err != nil {
			return nil, &record.FieldError{Field: index, Err: err}
		}
		payload = p
	default:
		return nil, &record.FieldError{Field: index, Msg: fmt.Sprintf("unknown field_processing_type %q", fd.DataType)}
	}
	if length > fd.Length {
		return nil, &record.FieldError{Field: index, Msg: fmt.Sprintf("value length %d exceeds declared maximum %d", length, fd.Length)}
	}
	if length > maxLen {
		return nil, &record.FieldError{Field: index, Msg: fmt.Sprintf("value length %d cannot be represented in a %d-digit length prefix", length, prefixDigits)}
	}

	prefixText := fmt.Sprintf("%0*d", prefixDigits, length)
	prefixBytes, err := enc.FromText(prefixText, index)
	if err != nil {
		return nil, err
	}
	return append(prefixBytes, payload...), nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// decodeBCD unpacks packed BCD bytes into displayLen decimal digit
// characters, high nibble first, discarding the padding nibble when
// displayLen is odd (the high nibble of the first byte is then zero).
func decodeBCD(raw []byte, displayLen int) (string, error) {
	var sb strings.Builder
	sb.Grow(displayLen)
	for _, b := range raw {
		hi := b >> 4
		lo := b & 0x0f
		if hi > 9 || lo > 9 {
			return "", fmt.Errorf("invalid BCD byte 0x%02x", b)
		}
		sb.WriteByte('0' + hi)
		sb.WriteByte('0' + lo)
	}
	digits := sb.String()
	if len(digits) < displayLen {
		return "", fmt.Errorf("BCD payload too short for %d displayed digits", displayLen)
	}
	// drop the leading pad nibble for an odd displayed length
	return digits[len(digits)-displayLen:], nil
}

// encodeBCD packs a decimal digit string into BCD bytes, high nibble
// first, left-zero-padded to a whole byte when the digit count is odd.
func encodeBCD(digits string) ([]byte, error) {
	if len(digits)%2 != 0 {
		digits = "0" + digits
	}
	out := make([]byte, len(digits)/2)
	for i := 0; i < len(out); i++ {
		hi := digits[i*2] - '0'
		lo := digits[i*2+1] - '0'
		if hi > 9 || lo > 9 {
			return nil, fmt.Errorf("invalid decimal digit in %q", digits)
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}
