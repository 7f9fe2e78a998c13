package rowio

import (
	"bufio"
	"errors"
	"io"

	"github.com/brimdata/openrec/layout"
	"github.com/brimdata/openrec/pointable"
	"github.com/brimdata/openrec/rerr"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/exp/slices"
)

type Reader struct {
	reader *bufio.Reader
	ubuf   []byte
	zbuf   []byte
	off    int
}

func NewReader(r io.Reader) *Reader {
	return &Reader{reader: bufio.NewReader(r)}
}

// Read returns the next value of the stream or io.EOF at its end.  The
// value is a view into the reader's buffer and is valid until the next
// call to Read.
func (r *Reader) Read() (pointable.Value, error) {
	for r.off >= len(r.ubuf) {
		if err := r.readFrame(); err != nil {
			return pointable.Value{}, err
		}
	}
	v, next, err := pointable.ReadAt(r.ubuf, r.off)
	if err != nil {
		return pointable.Value{}, err
	}
	r.off = next
	return v, nil
}

func (r *Reader) readFrame() error {
	var hdr [FrameHeaderSize]byte
	if _, err := io.ReadFull(r.reader, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return rerr.E(rerr.Bounds, "rowio: truncated frame header")
		}
		return err
	}
	ulen, _ := layout.Uint32(hdr[:], 1)
	zlen, _ := layout.Uint32(hdr[:], 5)
	if ulen > MaxFrameSize || zlen > MaxFrameSize {
		return rerr.E(rerr.Format, "rowio: frame of %d bytes exceeds limit", max(ulen, zlen))
	}
	r.ubuf = slices.Grow(r.ubuf[:0], int(ulen))[:ulen]
	r.off = 0
	switch CompressionFormat(hdr[0]) {
	case CompressionFormatNone:
		if ulen != zlen {
			return rerr.E(rerr.Format, "rowio: uncompressed frame with length %d stored in %d bytes", ulen, zlen)
		}
		return r.readBody(r.ubuf)
	case CompressionFormatLZ4:
		r.zbuf = slices.Grow(r.zbuf[:0], int(zlen))[:zlen]
		if err := r.readBody(r.zbuf); err != nil {
			return err
		}
		n, err := lz4.UncompressBlock(r.zbuf, r.ubuf)
		if err != nil {
			return rerr.E(rerr.Format, "rowio: %w", err)
		}
		if n != int(ulen) {
			return rerr.E(rerr.Format, "rowio: got %d uncompressed bytes, expected %d", n, ulen)
		}
		return nil
	}
	return rerr.E(rerr.Format, "rowio: unknown compression format 0x%x", hdr[0])
}

func (r *Reader) readBody(b []byte) error {
	if _, err := io.ReadFull(r.reader, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return rerr.E(rerr.Bounds, "rowio: truncated frame")
		}
		return err
	}
	return nil
}

func max(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
