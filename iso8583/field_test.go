package iso8583

import (
	"testing"

	"github.com/adelosa/go-cardutil/config"
	"github.com/adelosa/go-cardutil/encoding"
	"github.com/adelosa/go-cardutil/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ascii = encoding.MustLookup("ascii")

func TestDecodeField_Fixed(t *testing.T) {
	fd := config.FieldDescriptor{Type: config.FieldFixed, Length: 3, DataType: config.DataN}
	v, pos, err := DecodeField([]byte("123rest"), 0, 70, fd, ascii)
	require.NoError(t, err)
	assert.Equal(t, 3, pos)
	assert.Equal(t, "123", v.String())
}

func TestDecodeField_LLVAR(t *testing.T) {
	fd := config.FieldDescriptor{Type: config.FieldLLVar, Length: 19, DataType: config.DataN}
	buf := []byte("164444555566667777rest")
	v, pos, err := DecodeField(buf, 0, 2, fd, ascii)
	require.NoError(t, err)
	assert.Equal(t, 18, pos)
	assert.Equal(t, "4444555566667777", v.String())
}

func TestDecodeField_LLVAR_ZeroLength(t *testing.T) {
	fd := config.FieldDescriptor{Type: config.FieldLLVar, Length: 19, DataType: config.DataN}
	buf := []byte("00rest")
	v, pos, err := DecodeField(buf, 0, 2, fd, ascii)
	require.NoError(t, err)
	assert.Equal(t, 2, pos)
	assert.Equal(t, "", v.String())
}

func TestEncodeField_LLVAR_ZeroLength(t *testing.T) {
	fd := config.FieldDescriptor{Type: config.FieldLLVar, Length: 19, DataType: config.DataN}
	out, err := EncodeField(record.Text(""), 2, fd, ascii)
	require.NoError(t, err)
	assert.Equal(t, []byte("00"), out)
}

func TestEncodeField_LLVAR_ExceedsMax(t *testing.T) {
	fd := config.FieldDescriptor{Type: config.FieldLLVar, Length: 3, DataType: config.DataN}
	_, err := EncodeField(record.Text("1234"), 2, fd, ascii)
	assert.Error(t, err)
}

func TestEncodeField_Fixed_AN_RightPad(t *testing.T) {
	fd := config.FieldDescriptor{Type: config.FieldFixed, Length: 5, DataType: config.DataAN}
	out, err := EncodeField(record.Text("AB"), 1, fd, ascii)
	require.NoError(t, err)
	assert.Equal(t, "AB   ", string(out))
}

func TestEncodeField_Fixed_N_LeftZeroPad(t *testing.T) {
	fd := config.FieldDescriptor{Type: config.FieldFixed, Length: 5, DataType: config.DataN}
	out, err := EncodeField(record.Text("42"), 11, fd, ascii)
	require.NoError(t, err)
	assert.Equal(t, "00042", string(out))
}

func TestEncodeField_Fixed_N_Overflow(t *testing.T) {
	fd := config.FieldDescriptor{Type: config.FieldFixed, Length: 3, DataType: config.DataN}
	_, err := EncodeField(record.Text("12345"), 11, fd, ascii)
	assert.Error(t, err)
}

func TestField_Binary_RoundTrip(t *testing.T) {
	fd := config.FieldDescriptor{Type: config.FieldFixed, Length: 4, DataType: config.DataB}
	raw := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	encoded, err := EncodeField(record.Bytes(raw), 52, fd, ascii)
	require.NoError(t, err)
	assert.Equal(t, raw, encoded)

	v, pos, err := DecodeField(encoded, 0, 52, fd, ascii)
	require.NoError(t, err)
	assert.Equal(t, 4, pos)
	assert.True(t, v.IsBytes())
	assert.Equal(t, raw, v.RawBytes())
}

func TestField_BCD_RoundTrip(t *testing.T) {
	var testCases = []struct {
		name       string
		digits     string
		declaredLn int
		wantBytes  []byte
	}{
		{name: "even length", digits: "1234", declaredLn: 4, wantBytes: []byte{0x12, 0x34}},
		{name: "odd length, high nibble zero", digits: "123", declaredLn: 3, wantBytes: []byte{0x01, 0x23}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fd := config.FieldDescriptor{Type: config.FieldFixed, Length: tc.declaredLn, DataType: config.DataNS}
			encoded, err := EncodeField(record.Text(tc.digits), 35, fd, ascii)
			require.NoError(t, err)
			assert.Equal(t, tc.wantBytes, encoded)

			v, pos, err := DecodeField(encoded, 0, 35, fd, ascii)
			require.NoError(t, err)
			assert.Equal(t, len(tc.wantBytes), pos)
			assert.Equal(t, tc.digits, v.String())
		})
	}
}

func TestEncodeField_BCD_NonDigit(t *testing.T) {
	fd := config.FieldDescriptor{Type: config.FieldFixed, Length: 4, DataType: config.DataNS}
	_, err := EncodeField(record.Text("12a4"), 35, fd, ascii)
	assert.Error(t, err)
}

func TestDecodeField_RunsPastEndOfMessage(t *testing.T) {
	fd := config.FieldDescriptor{Type: config.FieldFixed, Length: 10, DataType: config.DataAN}
	_, _, err := DecodeField([]byte("short"), 0, 2, fd, ascii)
	assert.Error(t, err)
	assert.True(t, record.IsFieldError(err))
}

func TestDecodeField_UntranslatableCharacterIsEncodingErrorWithFieldIndex(t *testing.T) {
	fd := config.FieldDescriptor{Type: config.FieldFixed, Length: 3, DataType: config.DataAN}
	_, _, err := DecodeField([]byte{0x80, 0x80, 0x80}, 0, 41, fd, ascii)
	require.Error(t, err)
	var encErr *record.EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, 41, encErr.Field)
}

func TestEncodeField_UntranslatableCharacterIsEncodingErrorWithFieldIndex(t *testing.T) {
	fd := config.FieldDescriptor{Type: config.FieldFixed, Length: 3, DataType: config.DataAN}
	_, err := EncodeField(record.Text("é"), 42, fd, ascii)
	require.Error(t, err)
	var encErr *record.EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, 42, encErr.Field)
}
