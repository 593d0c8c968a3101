package ipm

import (
	"bytes"
	"io"
	"testing"

	"github.com/adelosa/go-cardutil/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVBSWriter_Terminator(t *testing.T) {
	// writing "AA" then "BBB" produces the exact byte sequence.
	var buf bytes.Buffer
	w := NewVBSWriter(&buf)
	require.NoError(t, w.WriteRecord([]byte("AA")))
	require.NoError(t, w.WriteRecord([]byte("BBB")))
	require.NoError(t, w.Close())

	want := []byte{0, 0, 0, 2, 'A', 'A', 0, 0, 0, 3, 'B', 'B', 'B', 0, 0, 0, 0}
	assert.Equal(t, want, buf.Bytes())
}

func TestVBSReader_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewVBSWriter(&buf)
	require.NoError(t, w.WriteRecord([]byte("hello")))
	require.NoError(t, w.WriteRecord([]byte("world!")))
	require.NoError(t, w.Close())

	r := NewVBSReader(&buf)
	rec1, err := r.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), rec1)

	rec2, err := r.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, []byte("world!"), rec2)

	_, err = r.ReadRecord()
	assert.ErrorIs(t, err, io.EOF)
}

func TestVBSReader_TruncatedMidRecord(t *testing.T) {
	wire := []byte{0, 0, 0, 10, 'a', 'b', 'c'} // declares 10 bytes, has 3
	r := NewVBSReader(bytes.NewReader(wire))
	_, err := r.ReadRecord()
	require.Error(t, err)
	assert.True(t, record.IsTruncatedError(err))
}

func TestVBSReader_TruncatedBeforeTerminator(t *testing.T) {
	wire := []byte{0, 0, 0, 2, 'a', 'b'} // no terminator follows
	r := NewVBSReader(bytes.NewReader(wire))
	_, err := r.ReadRecord()
	require.NoError(t, err)
	_, err = r.ReadRecord()
	require.Error(t, err)
	assert.True(t, record.IsTruncatedError(err))
}

func TestVBSWriter_EmptyFile(t *testing.T) {
	var buf bytes.Buffer
	w := NewVBSWriter(&buf)
	require.NoError(t, w.Close())
	assert.Equal(t, []byte{0, 0, 0, 0}, buf.Bytes())

	// Close is idempotent.
	require.NoError(t, w.Close())
	assert.Equal(t, []byte{0, 0, 0, 0}, buf.Bytes())
}
