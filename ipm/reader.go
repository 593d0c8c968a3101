package ipm

import (
	"io"

	"github.com/adelosa/go-cardutil/config"
	"github.com/adelosa/go-cardutil/encoding"
	"github.com/adelosa/go-cardutil/iso8583"
	"github.com/adelosa/go-cardutil/record"
)

// ReaderOptions configures Reader's framing and decode view, mirroring the
// CLI surface's --in-encoding/--no1014blocking flags.
type ReaderOptions struct {
	// Blocked1014 selects 1014-block framing over the raw VBS stream.
	// Matches the CLI's default (true unless --no1014blocking is given).
	Blocked1014 bool
	// Tolerant1014 accepts a short final 1014 block rather than failing
	// with *record.BlockError.
	Tolerant1014 bool
	iso8583.DecodeOptions
}

// Reader composes VBS (and optionally 1014-block) framing with the ISO
// 8583 message codec to yield an iterator of flat records. It implements
// record.RecordReader and is single-pass and non-restartable.
type Reader struct {
	vbs *VBSReader
	cfg *config.Config
	enc encoding.Translator
	opt iso8583.DecodeOptions

	closer io.Closer
}

// NewReader opens an IPM reader over src, decoding text-typed fields with
// enc, per cfg's field table.
func NewReader(src io.Reader, cfg *config.Config, enc encoding.Translator, opts ReaderOptions) *Reader {
	var logical io.Reader = src
	if opts.Blocked1014 {
		logical = NewBlock1014Reader(src, opts.Tolerant1014)
	}
	r := &Reader{
		vbs: NewVBSReader(logical),
		cfg: cfg,
		enc: enc,
		opt: opts.DecodeOptions,
	}
	if c, ok := src.(io.Closer); ok {
		r.closer = c
	}
	return r
}

// Next decodes and returns the next record in the file, returning (nil,
// io.EOF) once the terminating zero-length VBS record has been consumed.
func (r *Reader) Next() (record.Record, error) {
	raw, err := r.vbs.ReadRecord()
	if err != nil {
		return nil, err
	}
	return iso8583.Loads(raw, r.cfg, r.enc, r.opt)
}

// Close releases the underlying source, if it implements io.Closer.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

var _ record.RecordReader = (*Reader)(nil)
