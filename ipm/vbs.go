// Package ipm implements the IPM clearing-file codec: the variable-block
// (VBS) record framing, the 1014-byte physical block framing layered over
// it, and the reader/writer pair that composes either framing with the
// iso8583 message codec.
package ipm

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/adelosa/go-cardutil/record"
)

// VBSReader reads variable-block (VBS) record framing: each record is a
// 4-byte big-endian length prefix followed by that many bytes of payload,
// terminated by a zero-length record. It is single-pass and
// non-restartable.
type VBSReader struct {
	src  io.Reader
	done bool
}

// NewVBSReader wraps src, an already-unblocked byte stream (or a raw VBS
// file when no 1014 framing is in effect).
func NewVBSReader(src io.Reader) *VBSReader {
	return &VBSReader{src: src}
}

// ReadRecord returns the next record's payload, or io.EOF once the
// terminating zero-length record has been consumed. A short read mid-record
// or before the terminator is reported as a *record.TruncatedError.
func (r *VBSReader) ReadRecord() ([]byte, error) {
	if r.done {
		return nil, io.EOF
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(r.src, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &record.TruncatedError{Msg: "stream ended before the terminating zero-length record"}
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &record.TruncatedError{Msg: "stream ended mid length prefix"}
		}
		return nil, &record.IoError{Err: err}
	}

	length := binary.BigEndian.Uint32(lenBuf[:])
	if length == 0 {
		r.done = true
		return nil, io.EOF
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r.src, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &record.TruncatedError{Msg: "stream ended mid record payload"}
		}
		return nil, &record.IoError{Err: err}
	}
	return payload, nil
}

// VBSWriter writes the variable-block framing. Close must be called after
// the last record to emit the terminating zero-length record.
type VBSWriter struct {
	dst    io.Writer
	closed bool
}

// NewVBSWriter wraps dst, the byte sink for the (possibly to-be-1014-blocked)
// VBS stream.
func NewVBSWriter(dst io.Writer) *VBSWriter {
	return &VBSWriter{dst: dst}
}

// WriteRecord emits payload as a single length-prefixed record.
func (w *VBSWriter) WriteRecord(payload []byte) error {
	if w.closed {
		return errors.New("cardutil: VBSWriter is already closed")
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.dst.Write(lenBuf[:]); err != nil {
		return &record.IoError{Err: err}
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.dst.Write(payload); err != nil {
		return &record.IoError{Err: err}
	}
	return nil
}

// Close emits the terminating zero-length record. It is safe to call more
// than once; subsequent calls are a no-op.
func (w *VBSWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	var zero [4]byte
	if _, err := w.dst.Write(zero[:]); err != nil {
		return &record.IoError{Err: err}
	}
	return nil
}
