package openrec

import "strconv"

// A Tag is the leading type byte of a serialized value.  Tags are elided
// on the wire wherever the reader knows the value's type from a schema.
type Tag byte

const (
	TagInt8          Tag = 1
	TagInt16         Tag = 2
	TagInt32         Tag = 3
	TagInt64         Tag = 4
	TagBinary        Tag = 9
	TagFloat         Tag = 11
	TagDouble        Tag = 12
	TagString        Tag = 13
	TagMissing       Tag = 14
	TagBoolean       Tag = 15
	TagOrderedList   Tag = 22
	TagUnorderedList Tag = 23
	TagRecord        Tag = 24
	// TagUnion and TagAny never start a serialized value.  TagAny does
	// appear as the item tag of a heterogeneous list.
	TagUnion Tag = 26
	TagAny   Tag = 29
	TagNull  Tag = 41
)

func (t Tag) String() string {
	switch t {
	case TagInt8:
		return "int8"
	case TagInt16:
		return "int16"
	case TagInt32:
		return "int32"
	case TagInt64:
		return "int64"
	case TagBinary:
		return "binary"
	case TagFloat:
		return "float"
	case TagDouble:
		return "double"
	case TagString:
		return "string"
	case TagMissing:
		return "missing"
	case TagBoolean:
		return "boolean"
	case TagOrderedList:
		return "orderedlist"
	case TagUnorderedList:
		return "unorderedlist"
	case TagRecord:
		return "record"
	case TagUnion:
		return "union"
	case TagAny:
		return "any"
	case TagNull:
		return "null"
	}
	return "tag(" + strconv.Itoa(int(t)) + ")"
}

// Valid returns true iff t may start a serialized value.
func (t Tag) Valid() bool {
	switch t {
	case TagInt8, TagInt16, TagInt32, TagInt64, TagBinary, TagFloat, TagDouble,
		TagString, TagMissing, TagBoolean, TagOrderedList, TagUnorderedList,
		TagRecord, TagNull:
		return true
	}
	return false
}

// ValidItem returns true iff t may appear as the item tag of a list.
func (t Tag) ValidItem() bool {
	return t == TagAny || t.Valid()
}

func (t Tag) IsList() bool {
	return t == TagOrderedList || t == TagUnorderedList
}

func (t Tag) IsInteger() bool {
	return t >= TagInt8 && t <= TagInt64
}

func (t Tag) IsFloat() bool {
	return t == TagFloat || t == TagDouble
}

// IsUnknown returns true for tags that signal an absent value.
func (t Tag) IsUnknown() bool {
	return t == TagNull || t == TagMissing
}
