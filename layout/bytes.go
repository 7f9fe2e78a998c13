package layout

import (
	"encoding/binary"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/rerr"
)

func boundsErr(what string, off, n, size int) error {
	return rerr.E(rerr.Bounds, "%s at offset %d needs %d bytes but only %d remain", what, off, n, size-off)
}

// Byte returns b[off] or a Bounds error.
func Byte(b []byte, off int) (byte, error) {
	if off < 0 || off >= len(b) {
		return 0, boundsErr("byte", off, 1, len(b))
	}
	return b[off], nil
}

// Uint32 decodes the big-endian integer at b[off:] or returns a Bounds
// error.
func Uint32(b []byte, off int) (uint32, error) {
	if off < 0 || off+4 > len(b) {
		return 0, boundsErr("uint32", off, 4, len(b))
	}
	return binary.BigEndian.Uint32(b[off:]), nil
}

// Offset decodes a length, count, or offset field and checks that it does
// not exceed limit.
func Offset(b []byte, off, limit int) (int, error) {
	v, err := Uint32(b, off)
	if err != nil {
		return 0, err
	}
	if int64(v) > int64(limit) {
		return 0, rerr.E(rerr.Bounds, "value %d at offset %d exceeds limit %d", v, off, limit)
	}
	return int(v), nil
}

func PutUint32(b []byte, off int, v uint32) {
	binary.BigEndian.PutUint32(b[off:], v)
}

func AppendUint32(dst []byte, v uint32) []byte {
	return append(dst, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func AppendUint16(dst []byte, v uint16) []byte {
	return append(dst, byte(v>>8), byte(v))
}

func AppendUint64(dst []byte, v uint64) []byte {
	return append(dst, byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// AppendString appends s as a string body: its uvarint length followed by
// its bytes.  Field names and STRING and BINARY values share this encoding.
func AppendString(dst []byte, s []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(s)))
	return append(dst, s...)
}

// StringBody decodes the string body starting at b[off:] and returns the
// string bytes and the offset just past them.
func StringBody(b []byte, off int) ([]byte, int, error) {
	if off < 0 || off >= len(b) {
		return nil, 0, boundsErr("string length", off, 1, len(b))
	}
	n, k := binary.Uvarint(b[off:])
	if k <= 0 {
		return nil, 0, rerr.E(rerr.Format, "bad string length at offset %d", off)
	}
	start := off + k
	if n > uint64(len(b)-start) {
		return nil, 0, boundsErr("string", start, int(n), len(b))
	}
	end := start + int(n)
	return b[start:end], end, nil
}

// ValueSize returns the size of the body of a value with the given tag
// that starts at b[off:].
func ValueSize(b []byte, off int, tag openrec.Tag) (int, error) {
	if n, ok := FixedSize(tag); ok {
		if off < 0 || off+n > len(b) {
			return 0, boundsErr(tag.String(), off, n, len(b))
		}
		return n, nil
	}
	switch tag {
	case openrec.TagString, openrec.TagBinary:
		_, end, err := StringBody(b, off)
		if err != nil {
			return 0, err
		}
		return end - off, nil
	case openrec.TagRecord:
		n, err := Offset(b, off, len(b)-off)
		if err != nil {
			return 0, err
		}
		if n < MinRecordSize {
			return 0, rerr.E(rerr.Format, "record length %d at offset %d is too small", n, off)
		}
		return n, nil
	case openrec.TagOrderedList, openrec.TagUnorderedList:
		n, err := Offset(b, off+ItemTagSize, len(b)-off)
		if err != nil {
			return 0, err
		}
		if n < ListHeaderSize {
			return 0, rerr.E(rerr.Format, "list length %d at offset %d is too small", n, off)
		}
		return n, nil
	}
	return 0, rerr.E(rerr.Format, "no serialized form for tag %s", tag)
}

// ReadTag returns the tag at b[off] and checks that it is a serialized tag.
func ReadTag(b []byte, off int) (openrec.Tag, error) {
	c, err := Byte(b, off)
	if err != nil {
		return 0, err
	}
	tag := openrec.Tag(c)
	if !tag.Valid() {
		return 0, rerr.E(rerr.Format, "bad type tag %d at offset %d", c, off)
	}
	return tag, nil
}
