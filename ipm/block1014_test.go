package ipm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlock1014Writer_SingleShortRecord(t *testing.T) {
	// one VBS-framed record whose payload is 100 bytes.
	var physical bytes.Buffer
	bw := NewBlock1014Writer(&physical)
	vw := NewVBSWriter(bw)
	require.NoError(t, vw.WriteRecord(bytes.Repeat([]byte("x"), 100)))
	require.NoError(t, bw.Close())

	out := physical.Bytes()
	require.Len(t, out, 1014)
	assert.Equal(t, byte(0x40), out[1012])
	assert.Equal(t, byte(0x40), out[1013])
	for i := 104; i < 1012; i++ {
		assert.Equalf(t, byte(0x40), out[i], "byte %d should be 0x40 fill", i)
	}
}

func TestBlock1014_RoundTrip(t *testing.T) {
	var physical bytes.Buffer
	bw := NewBlock1014Writer(&physical)
	vw := NewVBSWriter(bw)
	require.NoError(t, vw.WriteRecord([]byte("first record payload")))
	require.NoError(t, vw.WriteRecord(bytes.Repeat([]byte("Z"), 2000)))
	require.NoError(t, vw.Close())
	require.NoError(t, bw.Close())

	require.Equal(t, 0, physical.Len()%1014)

	br := NewBlock1014Reader(bytes.NewReader(physical.Bytes()), false)
	vr := NewVBSReader(br)

	rec1, err := vr.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, []byte("first record payload"), rec1)

	rec2, err := vr.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte("Z"), 2000), rec2)
}

func TestBlock1014Reader_TolerantShortFinalBlock(t *testing.T) {
	short := bytes.Repeat([]byte{0x40}, 500)
	r := NewBlock1014Reader(bytes.NewReader(short), true)
	buf := make([]byte, 500)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 500, n)
}

func TestBlock1014Reader_StrictShortFinalBlockErrors(t *testing.T) {
	short := bytes.Repeat([]byte{0x40}, 500)
	r := NewBlock1014Reader(bytes.NewReader(short), false)
	buf := make([]byte, 500)
	_, err := r.Read(buf)
	require.Error(t, err)
}
