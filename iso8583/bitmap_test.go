package iso8583

import (
	"testing"

	"github.com/adelosa/go-cardutil/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBitmap_PrimaryOnly(t *testing.T) {
	// DE2 present only: primary bitmap, no secondary.
	got := EncodeBitmap(FieldSet{2: true})
	assert.Equal(t, []byte{0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, got)
}

func TestEncodeBitmap_Secondary(t *testing.T) {
	// DE2 and DE70 present: DE70 beyond bit 64 forces a secondary bitmap.
	got := EncodeBitmap(FieldSet{2: true, 70: true})
	require.Len(t, got, 16)
	assert.Equal(t, byte(0xC0), got[0])
	assert.Equal(t, byte(0x04), got[8])
}

func TestDecodeBitmap_Secondary(t *testing.T) {
	wire := append([]byte{0xC0, 0, 0, 0, 0, 0, 0, 0}, []byte{0x04, 0, 0, 0, 0, 0, 0, 0}...)
	present, newPos, err := DecodeBitmap(wire, 0)
	require.NoError(t, err)
	assert.Equal(t, 16, newPos)
	assert.Equal(t, FieldSet{2: true, 70: true}, present)
}

func TestDecodeBitmap_EmptyMessage(t *testing.T) {
	wire := []byte{0, 0, 0, 0, 0, 0, 0, 0}
	present, newPos, err := DecodeBitmap(wire, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, newPos)
	assert.Empty(t, present)
}

func TestDecodeBitmap_TruncatedSecondary(t *testing.T) {
	wire := []byte{0x80, 0, 0, 0, 0, 0, 0, 0}
	_, _, err := DecodeBitmap(wire, 0)
	require.Error(t, err)
	assert.IsType(t, &record.BitmapError{}, err)
}

func TestDecodeBitmap_FieldOneIgnored(t *testing.T) {
	wire := []byte{0x80, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	present, _, err := DecodeBitmap(wire, 0)
	require.NoError(t, err)
	assert.NotContains(t, present, 1)
}

func TestEncodeBitmap_RoundTrip(t *testing.T) {
	want := FieldSet{2: true, 3: true, 64: true, 65: true, 128: true}
	wire := EncodeBitmap(want)
	got, _, err := DecodeBitmap(wire, 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
