package ipm

import (
	"bytes"
	"io"
	"testing"

	"github.com/adelosa/go-cardutil/config"
	"github.com/adelosa/go-cardutil/encoding"
	"github.com/adelosa/go-cardutil/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		BitConfig: config.BitConfig{
			2:  {Name: "PAN", Type: config.FieldLLVar, Length: 19, DataType: config.DataN},
			70: {Name: "Network Management", Type: config.FieldFixed, Length: 3, DataType: config.DataN},
		},
	}
}

var ascii = encoding.MustLookup("ascii")

func TestWriterReader_RoundTrip_VBSOnly(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, testConfig(), ascii, WriterOptions{Blocked1014: false})
	require.NoError(t, w.Write(record.Record{record.MTIKey: record.Text("1144"), "DE2": record.Text("4444555566667777")}))
	require.NoError(t, w.Write(record.Record{record.MTIKey: record.Text("1804"), "DE70": record.Text("301")}))
	require.NoError(t, w.Finalise())

	r := NewReader(bytes.NewReader(buf.Bytes()), testConfig(), ascii, ReaderOptions{Blocked1014: false})
	rec1, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "1144", rec1[record.MTIKey].String())
	assert.Equal(t, "4444555566667777", rec1["DE2"].String())

	rec2, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "1804", rec2[record.MTIKey].String())
	assert.Equal(t, "301", rec2["DE70"].String())

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriterReader_RoundTrip_1014Blocked(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, testConfig(), ascii, WriterOptions{Blocked1014: true})
	for i := 0; i < 50; i++ {
		require.NoError(t, w.Write(record.Record{record.MTIKey: record.Text("1144"), "DE2": record.Text("4444555566667777")}))
	}
	require.NoError(t, w.Finalise())
	assert.Equal(t, 0, buf.Len()%1014)

	r := NewReader(bytes.NewReader(buf.Bytes()), testConfig(), ascii, ReaderOptions{Blocked1014: true})
	count := 0
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, "4444555566667777", rec["DE2"].String())
		count++
	}
	assert.Equal(t, 50, count)
}

func TestWriter_FinaliseIdempotent(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, testConfig(), ascii, WriterOptions{})
	require.NoError(t, w.Finalise())
	n := buf.Len()
	require.NoError(t, w.Finalise())
	assert.Equal(t, n, buf.Len())
}

func TestWriter_WriteAfterFinaliseErrors(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, testConfig(), ascii, WriterOptions{})
	require.NoError(t, w.Finalise())
	err := w.Write(record.Record{record.MTIKey: record.Text("1144")})
	assert.Error(t, err)
}

func TestConvert_ReEncodesText(t *testing.T) {
	var original bytes.Buffer
	w := NewWriter(&original, testConfig(), ascii, WriterOptions{Blocked1014: false})
	require.NoError(t, w.Write(record.Record{record.MTIKey: record.Text("1144"), "DE2": record.Text("4444555566667777")}))
	require.NoError(t, w.Finalise())

	var converted bytes.Buffer
	n, err := Convert(bytes.NewReader(original.Bytes()), &converted, testConfig(), ascii, ascii, ConvertOptions{Blocked1014: false})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	r := NewReader(bytes.NewReader(converted.Bytes()), testConfig(), ascii, ReaderOptions{Blocked1014: false})
	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "4444555566667777", rec["DE2"].String())
}
