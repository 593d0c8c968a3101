package iso8583

import "github.com/adelosa/go-cardutil/record"

// FieldSet is the set of top-level field indices (1..128) present in a
// message, as recovered from or destined for the primary/secondary bitmap.
type FieldSet map[int]bool

// DecodeBitmap reads the primary bitmap (and, if bit 1 is set, the
// secondary bitmap) starting at pos in buf. Bit numbering is big-endian
// within each byte and across bytes: bit 1 is the MSB of byte 0. Bit 1
// itself is a flag, not a field, and never appears in the returned set.
func DecodeBitmap(buf []byte, pos int) (FieldSet, int, error) {
	if pos+8 > len(buf) {
		return nil, pos, &record.BitmapError{Msg: "primary bitmap runs past end of message"}
	}
	primary := buf[pos : pos+8]
	hasSecondary := primary[0]&0x80 != 0

	present := FieldSet{}
	for byteIdx := 0; byteIdx < 8; byteIdx++ {
		for bitIdx := 0; bitIdx < 8; bitIdx++ {
			if primary[byteIdx]&(0x80>>uint(bitIdx)) == 0 {
				continue
			}
			n := byteIdx*8 + bitIdx + 1
			if n == 1 {
				continue // bit 1 is the secondary-bitmap-present flag
			}
			present[n] = true
		}
	}
	pos += 8

	if hasSecondary {
		if pos+8 > len(buf) {
			return nil, pos, &record.BitmapError{Msg: "secondary bitmap present bit set but bitmap is truncated"}
		}
		secondary := buf[pos : pos+8]
		for byteIdx := 0; byteIdx < 8; byteIdx++ {
			for bitIdx := 0; bitIdx < 8; bitIdx++ {
				if secondary[byteIdx]&(0x80>>uint(bitIdx)) == 0 {
					continue
				}
				present[64+byteIdx*8+bitIdx+1] = true
			}
		}
		pos += 8
	}
	return present, pos, nil
}

// EncodeBitmap computes the minimal primary bitmap for present, emitting a
// secondary bitmap (and setting bit 1 of the primary) iff present contains
// any field in 65..128. Field 1 in present is ignored: the bitmap's own
// bit 1 is computed, never caller-supplied.
func EncodeBitmap(present FieldSet) []byte {
	hasSecondary := false
	for n := range present {
		if n >= 65 && n <= 128 {
			hasSecondary = true
			break
		}
	}

	primary := make([]byte, 8)
	if hasSecondary {
		primary[0] |= 0x80
	}
	for n := range present {
		if n < 2 || n > 64 {
			continue
		}
		idx := n - 1
		primary[idx/8] |= 0x80 >> uint(idx%8)
	}
	if !hasSecondary {
		return primary
	}

	secondary := make([]byte, 8)
	for n := range present {
		if n < 65 || n > 128 {
			continue
		}
		idx := n - 65
		secondary[idx/8] |= 0x80 >> uint(idx%8)
	}
	return append(primary, secondary...)
}
