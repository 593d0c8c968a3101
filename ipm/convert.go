package ipm

import (
	"io"

	"github.com/adelosa/go-cardutil/config"
	"github.com/adelosa/go-cardutil/encoding"
)

// ConvertOptions configures Convert's framing; the same framing choice
// applies to both the input and output streams.
type ConvertOptions struct {
	Blocked1014  bool
	Tolerant1014 bool
}

// Convert re-reads src at inEnc and rewrites it to dst at outEnc, reusing
// Reader/Writer for framing and the message codec only insofar as
// text-typed fields must be transcoded between the two encodings;
// binary-typed field bytes pass through untouched because
// DecodeOptions/EncodeOptions default to HexBin=false, so the message
// codec hands them back and forth as opaque record.Bytes values.
func Convert(src io.Reader, dst io.Writer, cfg *config.Config, inEnc, outEnc encoding.Translator, opts ConvertOptions) (int, error) {
	r := NewReader(src, cfg, inEnc, ReaderOptions{Blocked1014: opts.Blocked1014, Tolerant1014: opts.Tolerant1014})
	defer r.Close()

	w := NewWriter(dst, cfg, outEnc, WriterOptions{Blocked1014: opts.Blocked1014})

	count := 0
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = w.Finalise()
			return count, err
		}
		if err := w.Write(rec); err != nil {
			_ = w.Finalise()
			return count, err
		}
		count++
	}
	if err := w.Finalise(); err != nil {
		return count, err
	}
	return count, nil
}
