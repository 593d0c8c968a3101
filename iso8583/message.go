package iso8583

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/adelosa/go-cardutil/config"
	"github.com/adelosa/go-cardutil/encoding"
	"github.com/adelosa/go-cardutil/record"
)

// DecodeOptions controls Loads' view of the decoded record.
type DecodeOptions struct {
	// HexBin, when true, represents binary-typed field values as
	// uppercase hex text instead of opaque bytes.
	HexBin bool
}

// EncodeOptions controls Dumps' interpretation of the input record.
type EncodeOptions struct {
	// HexBin, when true, expects binary-typed field values to already be
	// uppercase hex text rather than opaque bytes.
	HexBin bool
}

// Loads decodes a single ISO 8583 message: MTI, bitmap, then each present
// field in ascending index order, into a flat record.
func Loads(buf []byte, cfg *config.Config, enc encoding.Translator, opts DecodeOptions) (record.Record, error) {
	if len(buf) < 4 {
		return nil, &record.FieldError{Msg: "message shorter than the 4 character MTI"}
	}
	mti, err := enc.ToText(buf[0:4], 0)
	if err != nil {
		return nil, err
	}
	pos := 4

	present, pos, err := DecodeBitmap(buf, pos)
	if err != nil {
		return nil, err
	}

	result := record.Record{record.MTIKey: record.Text(mti)}
	for _, n := range present.sorted() {
		fd, ok := cfg.Field(n)
		if !ok {
			return nil, &record.FieldError{Field: n, Msg: "field present in bitmap but not configured"}
		}
		v, newPos, err := DecodeField(buf, pos, n, fd, enc)
		if err != nil {
			return nil, err
		}
		pos = newPos

		key := fmt.Sprintf("DE%d", n)
		final := v

		if fd.Subfields {
			pdsValues, err := DecodePDS(n, v.String())
			if err != nil {
				return nil, err
			}
			for tag, val := range pdsValues {
				result[fmt.Sprintf("PDS%04d", tag)] = record.Text(val)
			}
		}
		if fd.DateFormat != "" {
			iso, err := ToISODate(v.String(), fd.DateFormat)
			if err != nil {
				return nil, &record.FieldError{Field: n, Msg: "date-formatted field does not match date_format", Err: err}
			}
			final = record.Text(iso)
		}
		if fd.DataType == config.DataB && opts.HexBin {
			final = record.Text(strings.ToUpper(hex.EncodeToString(v.RawBytes())))
		}
		result[key] = final

		if n == 43 && len(cfg.Field43Layout) > 0 {
			decomposeField43(result, v.String(), cfg.Field43Layout)
		}
		if cfg.ICCField != 0 && n == cfg.ICCField {
			icc := v
			if v.IsBytes() && opts.HexBin {
				icc = record.Text(strings.ToUpper(hex.EncodeToString(v.RawBytes())))
			}
			result["ICC_DATA"] = icc
		}
	}
	return result, nil
}

func decomposeField43(result record.Record, text string, layout map[string]config.ColumnLayout) {
	for col, cl := range layout {
		if cl.Start < 0 || cl.Start >= cl.End || cl.End > len(text) {
			continue
		}
		key := fmt.Sprintf("DE43_%s", strings.ToUpper(col))
		result[key] = record.Text(strings.TrimRight(text[cl.Start:cl.End], " "))
	}
}

// Dumps encodes a flat record into a single ISO 8583 message: first any
// PDS* keys are collected, grouped by the container field whose declared
// tag range owns each tag, and encoded into those container fields
// (overwriting any user-supplied DE<container> value), then MTI, bitmap,
// and each present field are emitted in ascending index order. Unknown
// keys (not MTI, DE<n>, or PDS<nnnn>) are silently ignored.
func Dumps(rec record.Record, cfg *config.Config, enc encoding.Translator, opts EncodeOptions) ([]byte, error) {
	mtiVal, ok := rec[record.MTIKey]
	if !ok {
		return nil, &record.FieldError{Msg: "record is missing MTI"}
	}
	mtiText := mtiVal.String()
	if len(mtiText) != 4 {
		return nil, &record.FieldError{Msg: fmt.Sprintf("MTI %q must be exactly 4 characters", mtiText)}
	}
	mtiBytes, err := enc.FromText(mtiText, 0)
	if err != nil {
		return nil, err
	}

	working := rec.Clone()

	pdsByContainer := map[int]map[int]string{}
	hasContainer := len(cfg.ContainerFields()) > 0
	for key, v := range rec {
		tag, ok := pdsTag(key)
		if !ok {
			continue
		}
		if !hasContainer {
			return nil, &record.ConfigError{Msg: "record contains PDS keys but no container field is configured"}
		}
		container, ok := cfg.ContainerForPDSTag(tag)
		if !ok {
			return nil, &record.PdsError{Msg: fmt.Sprintf("tag %04d does not fall within any configured container's pds_tag range", tag)}
		}
		if pdsByContainer[container] == nil {
			pdsByContainer[container] = map[int]string{}
		}
		pdsByContainer[container][tag] = v.String()
	}
	for _, container := range sortedKeys(pdsByContainer) {
		encoded, err := EncodePDS(container, pdsByContainer[container])
		if err != nil {
			return nil, err
		}
		key := fmt.Sprintf("DE%d", container)
		if _, exists := working[key]; exists {
			record.Logger().Warnf("cardutil: overwriting DE%d with PDS-encoded subfields", container)
		}
		working[key] = record.Text(encoded)
	}

	present := FieldSet{}
	for key := range working {
		n, ok := deIndex(key)
		if !ok {
			continue
		}
		if _, ok := cfg.Field(n); !ok {
			continue
		}
		present[n] = true
	}

	bitmap := EncodeBitmap(present)
	out := make([]byte, 0, 4+len(bitmap)+64)
	out = append(out, mtiBytes...)
	out = append(out, bitmap...)

	for _, n := range present.sorted() {
		fd, _ := cfg.Field(n)
		key := fmt.Sprintf("DE%d", n)
		v := working[key]

		if fd.DateFormat != "" {
			wire, err := FromISODate(v.String(), fd.DateFormat)
			if err != nil {
				return nil, &record.FieldError{Field: n, Msg: "date value is not valid ISO 8601", Err: err}
			}
			v = record.Text(wire)
		}
		if fd.DataType == config.DataB && opts.HexBin && !v.IsBytes() {
			raw, err := hex.DecodeString(v.String())
			if err != nil {
				return nil, &record.FieldError{Field: n, Msg: "binary field value is not valid hex", Err: err}
			}
			v = record.Bytes(raw)
		}

		encodedField, err := EncodeField(v, n, fd, enc)
		if err != nil {
			return nil, err
		}
		out = append(out, encodedField...)
	}
	return out, nil
}

// sortedKeys returns m's keys in ascending order, so that container fields
// are encoded (and, for any overwrite warning, logged) in a deterministic
// order.
func sortedKeys(m map[int]map[int]string) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// deIndex reports whether key is of the form "DE<n>" and, if so, returns n.
func deIndex(key string) (int, bool) {
	if !strings.HasPrefix(key, "DE") {
		return 0, false
	}
	rest := key[2:]
	if rest == "" || !isAllDigits(rest) {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// pdsTag reports whether key is of the form "PDS<nnnn>" and, if so,
// returns the tag.
func pdsTag(key string) (int, bool) {
	if !strings.HasPrefix(key, "PDS") || len(key) != 7 {
		return 0, false
	}
	rest := key[3:]
	if !isAllDigits(rest) {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (fs FieldSet) sorted() []int {
	out := make([]int, 0, len(fs))
	for n := range fs {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
