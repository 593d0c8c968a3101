package iso8583

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/adelosa/go-cardutil/record"
)

const (
	pdsTagDigits    = 4
	pdsLengthDigits = 3
	pdsHeaderLen    = pdsTagDigits + pdsLengthDigits
)

// DecodePDS walks a container field's already-decoded text payload as a
// concatenation of (4-digit tag, 3-digit length, value) sub-records,
// returning tag -> value. Duplicate tags within the same container keep
// the last-decoded value.
func DecodePDS(container int, text string) (map[int]string, error) {
	values := map[int]string{}
	pos := 0
	for pos < len(text) {
		if pos+pdsHeaderLen > len(text) {
			return nil, &record.PdsError{Field: container, Msg: "partial tag/length header at end of container"}
		}
		tagText := text[pos : pos+pdsTagDigits]
		lengthText := text[pos+pdsTagDigits : pos+pdsHeaderLen]
		if !isAllDigits(tagText) {
			return nil, &record.PdsError{Field: container, Msg: fmt.Sprintf("tag %q is not all digits", tagText)}
		}
		if !isAllDigits(lengthText) {
			return nil, &record.PdsError{Field: container, Msg: fmt.Sprintf("length %q is not all digits", lengthText)}
		}
		tag, _ := strconv.Atoi(tagText)
		length, _ := strconv.Atoi(lengthText)
		pos += pdsHeaderLen

		if pos+length > len(text) {
			return nil, &record.PdsError{Field: container, Msg: fmt.Sprintf("subfield %04d length %d overruns container", tag, length)}
		}
		values[tag] = text[pos : pos+length]
		pos += length
	}
	return values, nil
}

// EncodePDS orders values by ascending numeric tag and concatenates them
// into the container field's text payload.
func EncodePDS(container int, values map[int]string) (string, error) {
	tags := make([]int, 0, len(values))
	for tag := range values {
		tags = append(tags, tag)
	}
	sort.Ints(tags)

	out := make([]byte, 0, len(values)*pdsHeaderLen)
	for _, tag := range tags {
		if tag < 0 || tag > 9999 {
			return "", &record.PdsError{Field: container, Msg: fmt.Sprintf("tag %d does not fit in %d digits", tag, pdsTagDigits)}
		}
		v := values[tag]
		if len(v) > 999 {
			return "", &record.PdsError{Field: container, Msg: fmt.Sprintf("subfield %04d value length %d does not fit in %d digits", tag, len(v), pdsLengthDigits)}
		}
		out = append(out, []byte(fmt.Sprintf("%04d%03d%s", tag, len(v), v))...)
	}
	return string(out), nil
}
