package openrec

import "encoding/binary"

func AppendInt8(b []byte, i int8) []byte {
	return append(b, byte(i))
}

func AppendInt16(b []byte, i int16) []byte {
	return binary.BigEndian.AppendUint16(b, uint16(i))
}

func AppendInt32(b []byte, i int32) []byte {
	return binary.BigEndian.AppendUint32(b, uint32(i))
}

func AppendInt64(b []byte, i int64) []byte {
	return binary.BigEndian.AppendUint64(b, uint64(i))
}

func EncodeInt64(i int64) []byte {
	return AppendInt64(make([]byte, 0, 8), i)
}

// AppendInt appends i as the body of an integer of the given tag.  The
// value is truncated to the width of the tag.
func AppendInt(b []byte, tag Tag, i int64) []byte {
	switch tag {
	case TagInt8:
		return AppendInt8(b, int8(i))
	case TagInt16:
		return AppendInt16(b, int16(i))
	case TagInt32:
		return AppendInt32(b, int32(i))
	}
	return AppendInt64(b, i)
}
