package config

import (
	"fmt"

	"github.com/adelosa/go-cardutil/record"
)

// FieldType is the length-prefixing style of a field: fixed width, or
// 2/3-digit length-prefixed.
type FieldType string

const (
	// FieldFixed is a fixed-width field: exactly Length bytes/characters.
	FieldFixed FieldType = "FIXED"
	// FieldLLVar is prefixed by a 2 decimal digit length.
	FieldLLVar FieldType = "LLVAR"
	// FieldLLLVar is prefixed by a 3 decimal digit length.
	FieldLLLVar FieldType = "LLLVAR"
)

// UnmarshalJSON restricts FieldType to the three known variants.
func (ft *FieldType) UnmarshalJSON(b []byte) error {
	t, err := unquoteJSONString(b)
	if err != nil {
		return err
	}
	switch FieldType(t) {
	case FieldFixed, FieldLLVar, FieldLLLVar:
		*ft = FieldType(t)
		return nil
	default:
		return fmt.Errorf("cardutil: unknown field_type value: %q", t)
	}
}

// FieldDataType is the on-wire representation of a field's content.
type FieldDataType string

const (
	// DataAN is alphanumeric text, right-padded when FIXED.
	DataAN FieldDataType = "AN"
	// DataN is numeric text, left-padded with zero when FIXED.
	DataN FieldDataType = "N"
	// DataB is raw, opaque bytes.
	DataB FieldDataType = "B"
	// DataNS is packed BCD numeric, high nibble first.
	DataNS FieldDataType = "NS"
)

// UnmarshalJSON restricts FieldDataType to the four known variants.
func (dt *FieldDataType) UnmarshalJSON(b []byte) error {
	t, err := unquoteJSONString(b)
	if err != nil {
		return err
	}
	switch FieldDataType(t) {
	case DataAN, DataN, DataB, DataNS:
		*dt = FieldDataType(t)
		return nil
	default:
		return fmt.Errorf("cardutil: unknown field_processing_type value: %q", t)
	}
}

func unquoteJSONString(b []byte) (string, error) {
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		return string(b[1 : len(b)-1]), nil
	}
	return "", fmt.Errorf("cardutil: expected JSON string, got %s", string(b))
}

// FieldDescriptor is a single entry of the field table, keyed by field
// index 2..128 in Config.BitConfig.
type FieldDescriptor struct {
	Name       string        `json:"field_name"`
	Type       FieldType     `json:"field_type"`
	Length     int           `json:"field_length"`
	DataType   FieldDataType `json:"field_processing_type"`
	Subfields  bool          `json:"subfields,omitempty"`
	DateFormat string        `json:"date_format,omitempty"`
	// PDSTagMin and PDSTagMax bound the subfield tags this container
	// carries, inclusive. Only meaningful when Subfields is set. Required
	// when more than one field in the table is a PDS container, so that
	// a decoded PDS tag can be routed back to the container it came from
	// on re-encode; optional when only one container field is configured.
	PDSTagMin int `json:"pds_tag_min,omitempty"`
	PDSTagMax int `json:"pds_tag_max,omitempty"`
}

// Validate reports a *record.ConfigError if the descriptor's own shape is
// inconsistent (e.g. a non-positive length).
func (fd FieldDescriptor) Validate(index int) error {
	if fd.Length <= 0 {
		return &record.ConfigError{Msg: fmt.Sprintf("field %d: field_length must be positive", index)}
	}
	switch fd.Type {
	case FieldFixed, FieldLLVar, FieldLLLVar:
	default:
		return &record.ConfigError{Msg: fmt.Sprintf("field %d: unknown field_type %q", index, fd.Type)}
	}
	switch fd.DataType {
	case DataAN, DataN, DataB, DataNS:
	default:
		return &record.ConfigError{Msg: fmt.Sprintf("field %d: unknown field_processing_type %q", index, fd.DataType)}
	}
	if fd.Type == FieldLLVar && fd.Length > 99 {
		return &record.ConfigError{Msg: fmt.Sprintf("field %d: LLVAR field_length %d exceeds 99", index, fd.Length)}
	}
	if fd.Type == FieldLLLVar && fd.Length > 999 {
		return &record.ConfigError{Msg: fmt.Sprintf("field %d: LLLVAR field_length %d exceeds 999", index, fd.Length)}
	}
	if fd.PDSTagMax != 0 && fd.PDSTagMin > fd.PDSTagMax {
		return &record.ConfigError{Msg: fmt.Sprintf("field %d: pds_tag_min %d exceeds pds_tag_max %d", index, fd.PDSTagMin, fd.PDSTagMax)}
	}
	return nil
}

// OwnsPDSTag reports whether tag falls within this container's declared
// tag range. A container with no declared range (PDSTagMax == 0) owns
// every tag, matching the single-container default.
func (fd FieldDescriptor) OwnsPDSTag(tag int) bool {
	if fd.PDSTagMax == 0 {
		return true
	}
	return tag >= fd.PDSTagMin && tag <= fd.PDSTagMax
}
