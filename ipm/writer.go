package ipm

import (
	"errors"
	"io"

	"github.com/adelosa/go-cardutil/config"
	"github.com/adelosa/go-cardutil/encoding"
	"github.com/adelosa/go-cardutil/iso8583"
	"github.com/adelosa/go-cardutil/record"
)

// WriterOptions configures Writer's framing and encode view.
type WriterOptions struct {
	// Blocked1014 selects 1014-block framing over the raw VBS stream.
	Blocked1014 bool
	iso8583.EncodeOptions
}

// Writer is the dual of Reader: it accepts flat records, encodes each via
// the ISO 8583 message codec, and frames the result as VBS (optionally
// 1014-blocked). Finalise is mandatory: it emits the VBS terminator and,
// when 1014-blocked, the trailing padded block; a Writer dropped without
// Finalise has produced an invalid file.
type Writer struct {
	vbs *VBSWriter
	blk *Block1014Writer // nil when Blocked1014 is false

	cfg *config.Config
	enc encoding.Translator
	opt iso8583.EncodeOptions

	closer    io.Closer
	finalised bool
}

// NewWriter opens an IPM writer over dst, encoding text-typed fields with
// enc, per cfg's field table.
func NewWriter(dst io.Writer, cfg *config.Config, enc encoding.Translator, opts WriterOptions) *Writer {
	w := &Writer{cfg: cfg, enc: enc, opt: opts.EncodeOptions}
	var physical io.Writer = dst
	if opts.Blocked1014 {
		w.blk = NewBlock1014Writer(dst)
		physical = w.blk
	}
	w.vbs = NewVBSWriter(physical)
	if c, ok := dst.(io.Closer); ok {
		w.closer = c
	}
	return w
}

// Write encodes rec and appends it to the file as the next VBS record.
func (w *Writer) Write(rec record.Record) error {
	if w.finalised {
		return errors.New("cardutil: Writer is already finalised")
	}
	raw, err := iso8583.Dumps(rec, w.cfg, w.enc, w.opt)
	if err != nil {
		return err
	}
	return w.vbs.WriteRecord(raw)
}

// Finalise emits the VBS terminator and, when 1014-blocking is in effect,
// pads and flushes the trailing physical block. It is idempotent: calling
// it more than once is a no-op returning nil.
func (w *Writer) Finalise() error {
	if w.finalised {
		return nil
	}
	w.finalised = true
	if err := w.vbs.Close(); err != nil {
		return err
	}
	if w.blk != nil {
		if err := w.blk.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Close finalises the writer (if not already done) and releases the
// underlying destination, if it implements io.Closer.
func (w *Writer) Close() error {
	err := w.Finalise()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var _ record.RecordWriter = (*Writer)(nil)
