package ipm

import (
	"bytes"
	"errors"
	"io"

	"github.com/adelosa/go-cardutil/record"
)

const (
	blockSize     = 1014
	blockFillSize = 2
	blockDataSize = blockSize - blockFillSize // 1012

	blockFillByte = 0x40
)

// Block1014Reader strips the 2 trailing fill bytes of each 1014-byte
// physical block and exposes the concatenated logical content as an
// io.Reader, for a VBSReader to frame. It is itself just an io.Reader, so
// it slots in wherever a raw VBS stream is expected.
type Block1014Reader struct {
	src      io.Reader
	tolerant bool

	buf bytes.Buffer
	eof bool
}

// NewBlock1014Reader wraps src, a stream of whole 1014-byte blocks. When
// tolerant is false (the default posture), a final block short of 1014
// bytes is reported as a *record.BlockError; when true, a short final
// block is accepted and its fill bytes are not required.
func NewBlock1014Reader(src io.Reader, tolerant bool) *Block1014Reader {
	return &Block1014Reader{src: src, tolerant: tolerant}
}

func (r *Block1014Reader) Read(p []byte) (int, error) {
	for r.buf.Len() == 0 {
		if r.eof {
			return 0, io.EOF
		}
		if err := r.fillOne(); err != nil {
			return 0, err
		}
	}
	return r.buf.Read(p)
}

func (r *Block1014Reader) fillOne() error {
	block := make([]byte, blockSize)
	n, err := io.ReadFull(r.src, block)
	switch {
	case err == nil:
		r.buf.Write(block[:blockDataSize])
		return nil
	case errors.Is(err, io.EOF):
		r.eof = true
		return nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		if r.tolerant {
			if n > blockDataSize {
				n = blockDataSize
			}
			r.buf.Write(block[:n])
			r.eof = true
			return nil
		}
		return &record.BlockError{Msg: "incomplete final 1014-byte block"}
	default:
		return &record.IoError{Err: err}
	}
}

// Block1014Writer buffers the VBS byte stream written to it and, on Close,
// pads the final partial block with 0x40 up to 1012 bytes before appending
// the 2-byte 0x40 0x40 fill, emitting whole 1014-byte blocks as soon as
// 1012 logical bytes have accumulated.
type Block1014Writer struct {
	dst    io.Writer
	buf    bytes.Buffer
	closed bool
}

// NewBlock1014Writer wraps dst, the physical file or stream that receives
// whole 1014-byte blocks.
func NewBlock1014Writer(dst io.Writer) *Block1014Writer {
	return &Block1014Writer{dst: dst}
}

func (w *Block1014Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("cardutil: Block1014Writer is already closed")
	}
	n, _ := w.buf.Write(p)
	for w.buf.Len() >= blockDataSize {
		if err := w.flushBlock(w.buf.Next(blockDataSize)); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (w *Block1014Writer) flushBlock(data []byte) error {
	block := make([]byte, blockSize)
	copy(block, data)
	for i := len(data); i < blockDataSize; i++ {
		block[i] = blockFillByte
	}
	block[blockDataSize] = blockFillByte
	block[blockDataSize+1] = blockFillByte
	if _, err := w.dst.Write(block); err != nil {
		return &record.IoError{Err: err}
	}
	return nil
}

// Close flushes any remaining buffered bytes as a final, fill-padded
// block, even when that remainder is empty (an exact multiple of 1012
// logical bytes still produces a trailing all-fill block). Idempotent.
func (w *Block1014Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	remaining := w.buf.Next(w.buf.Len())
	return w.flushBlock(remaining)
}
