// Package layout defines the binary layout of records and lists: header
// field sizes, offset arithmetic, the string and integer codecs, and the
// field-name hash shared by writers and readers.
//
// A serialized value is an optional one-byte tag followed by a body.  The
// tag is elided whenever the reader knows the value's type from a schema.
// All lengths and offsets below are measured from the first byte of the
// body, never from the tag, so a body may be copied verbatim with or
// without its tag.
//
// Record body:
//
//	length(4)                         bytes in the body
//	isExpanded(1)                     only if the schema is open
//	openPartOffset(4)                 only if isExpanded != 0
//	numClosedFields(4)                only if the schema has fields
//	nullBitmap(ceil(n/8))             only if a closed field is nullable
//	closedFieldOffset[n](4 each)
//	closedFieldValue[n]               tag elided
//	numOpenFields(4)                  open part, only if isExpanded != 0
//	(nameHash(4), fieldOffset(4))[m]  sorted by hash
//	(name, taggedValue)[m]
//
// List body:
//
//	itemTypeTag(1)
//	length(4)                         bytes in the body
//	itemCount(4)
//	itemOffset[itemCount](4 each)     only if items have no fixed size
//	items                             tagged iff itemTypeTag is any
//
// Integers are big-endian.
package layout

import (
	"github.com/brimdata/openrec"
	"github.com/cespare/xxhash/v2"
)

const (
	TagSize       = 1
	LengthSize    = 4
	ExpandedSize  = 1
	OffsetSize    = 4
	CountSize     = 4
	HashSize      = 4
	ItemTagSize   = 1
	OpenEntrySize = HashSize + OffsetSize

	// MinRecordSize is the body size of a record of a closed, empty schema.
	MinRecordSize = LengthSize
	// ListHeaderSize is the size of a list body with no items.
	ListHeaderSize = ItemTagSize + LengthSize + CountSize
)

// NullBitmapSize returns the number of bitmap bytes for n closed fields.
func NullBitmapSize(n int) int {
	return (n + 7) / 8
}

// BitIsSet returns true iff the presence bit of closed field k is set.
// Bits are numbered from the most significant bit of the first byte.
func BitIsSet(bitmap []byte, k int) bool {
	return bitmap[k/8]&(1<<(7-uint(k%8))) != 0
}

// SetBit sets the presence bit of closed field k.
func SetBit(bitmap []byte, k int) {
	bitmap[k/8] |= 1 << (7 - uint(k%8))
}

// FixedSize returns the body size of values with the given tag and true,
// or false if their size varies.
func FixedSize(tag openrec.Tag) (int, bool) {
	switch tag {
	case openrec.TagInt8, openrec.TagBoolean:
		return 1, true
	case openrec.TagInt16:
		return 2, true
	case openrec.TagInt32, openrec.TagFloat:
		return 4, true
	case openrec.TagInt64, openrec.TagDouble:
		return 8, true
	case openrec.TagNull, openrec.TagMissing:
		return 0, true
	}
	return 0, false
}

// Hash returns the open-field hash of a field name.
func Hash(name []byte) uint32 {
	return uint32(xxhash.Sum64(name))
}

// HashString is Hash for a string name.
func HashString(name string) uint32 {
	return uint32(xxhash.Sum64String(name))
}

// RecordClosedHeaderSize returns the size of the closed-part header
// (count, bitmap and offsets) for a schema with n fields.
func RecordClosedHeaderSize(n int, nullable bool) int {
	if n == 0 {
		return 0
	}
	size := CountSize + n*OffsetSize
	if nullable {
		size += NullBitmapSize(n)
	}
	return size
}
