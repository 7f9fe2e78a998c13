package rowio

import (
	"io"

	"github.com/brimdata/openrec/builder"
	"github.com/brimdata/openrec/layout"
	"github.com/brimdata/openrec/pointable"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/exp/slices"
)

type Writer struct {
	writer io.Writer
	opts   WriterOpts

	caster     builder.Caster
	ubuf       []byte
	zbuf       []byte
	compressor lz4.Compressor
	frames     int
}

func NewWriter(w io.Writer, opts WriterOpts) *Writer {
	if opts.FrameThresh <= 0 {
		opts.FrameThresh = DefaultFrameThresh
	}
	return &Writer{writer: w, opts: opts}
}

// Write appends v to the current frame in self-describing form.
func (w *Writer) Write(v pointable.Value) error {
	var err error
	w.ubuf, err = w.caster.AppendTagged(w.ubuf, v)
	if err != nil {
		return err
	}
	if len(w.ubuf) >= w.opts.FrameThresh {
		return w.flush()
	}
	return nil
}

func (w *Writer) flush() error {
	if len(w.ubuf) == 0 {
		return nil
	}
	body := w.ubuf
	format := CompressionFormatNone
	if w.opts.Compress {
		// A destination one byte short of the input makes the compressor
		// fail unless it saves space.
		n := len(w.ubuf) - 1
		w.zbuf = slices.Grow(w.zbuf[:0], n)[:n]
		zlen, err := w.compressor.CompressBlock(w.ubuf, w.zbuf)
		if err != nil && err != lz4.ErrInvalidSourceShortBuffer {
			return err
		}
		if zlen > 0 {
			body = w.zbuf[:zlen]
			format = CompressionFormatLZ4
		}
	}
	hdr := make([]byte, 1, FrameHeaderSize)
	hdr[0] = byte(format)
	hdr = layout.AppendUint32(hdr, uint32(len(w.ubuf)))
	hdr = layout.AppendUint32(hdr, uint32(len(body)))
	if _, err := w.writer.Write(hdr); err != nil {
		return err
	}
	if _, err := w.writer.Write(body); err != nil {
		return err
	}
	w.ubuf = w.ubuf[:0]
	w.frames++
	return nil
}

// Frames returns the number of frames written so far.
func (w *Writer) Frames() int {
	return w.frames
}

// Close writes any buffered values.  It does not close the underlying
// writer.
func (w *Writer) Close() error {
	return w.flush()
}
