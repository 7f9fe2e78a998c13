// Package pointable overlays typed structure on serialized values without
// copying them.  A Value is a borrowed view of one value's body; ParseRecord
// and ParseList scan a record or list header once and return the positions
// of its fields or items as further views into the same bytes.
//
// Views never own their bytes.  The caller guarantees that the underlying
// buffer outlives every view of it and does not retain views past the row
// they were created for.
package pointable

import (
	"bytes"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/layout"
	"github.com/brimdata/openrec/rerr"
)

// Value is a view of a serialized value.  Type is the static type of the
// view, never a union or the any type, and Bytes is the body of the value
// without its tag.
type Value struct {
	Type  openrec.Type
	Bytes []byte
}

var (
	Null    = Value{Type: openrec.TypeNull}
	Missing = Value{Type: openrec.TypeMissing}
)

func NewValue(typ openrec.Type, b []byte) Value {
	return Value{typ, b}
}

// Set rebinds v to the n-byte body at b[off:].
func (v *Value) Set(typ openrec.Type, b []byte, off, n int) {
	v.Type = typ
	v.Bytes = b[off : off+n : off+n]
}

func (v Value) Tag() openrec.Tag {
	return v.Type.Tag()
}

func (v Value) IsNull() bool {
	return v.Type.Tag() == openrec.TagNull
}

func (v Value) IsMissing() bool {
	return v.Type.Tag() == openrec.TagMissing
}

// IsUnknown returns true iff v is null or missing.
func (v Value) IsUnknown() bool {
	return v.Type.Tag().IsUnknown()
}

func (v Value) IsRecord() bool {
	return v.Type.Tag() == openrec.TagRecord
}

func (v Value) IsList() bool {
	return v.Type.Tag().IsList()
}

// Size returns the number of bytes v occupies when written with or without
// its tag.
func (v Value) Size(withTag bool) int {
	if withTag {
		return layout.TagSize + len(v.Bytes)
	}
	return len(v.Bytes)
}

// Append appends the serialized form of v to dst.
func (v Value) Append(dst []byte, withTag bool) []byte {
	if withTag {
		dst = append(dst, byte(v.Tag()))
	}
	return append(dst, v.Bytes...)
}

// Equal returns true iff a and b have the same tag and identical bodies.
func Equal(a, b Value) bool {
	return a.Tag() == b.Tag() && bytes.Equal(a.Bytes, b.Bytes)
}

// Read views the tagged value that starts b.
func Read(b []byte) (Value, error) {
	v, n, err := ReadAt(b, 0)
	if err != nil {
		return Value{}, err
	}
	if n != len(b) {
		return Value{}, rerr.E(rerr.Format, "%d trailing bytes after %s value", len(b)-n, v.Tag())
	}
	return v, nil
}

// ReadAt views the tagged value at b[off:] and returns it along with the
// offset just past it.  The value's static type is the default type for its
// tag.
func ReadAt(b []byte, off int) (Value, int, error) {
	tag, err := layout.ReadTag(b, off)
	if err != nil {
		return Value{}, 0, err
	}
	off += layout.TagSize
	n, err := layout.ValueSize(b, off, tag)
	if err != nil {
		return Value{}, 0, err
	}
	end := off + n
	return Value{openrec.DefaultType(tag), b[off:end:end]}, end, nil
}

// ReadBody views the value of static type typ at b[off:].  If typ has a
// fixed tag, the body starts at off; otherwise the value is tagged.  A
// nullable typ is read as its non-null member since nulls are carried by
// the enclosing record's bitmap.
func ReadBody(b []byte, off int, typ openrec.Type) (Value, int, error) {
	if !openrec.HasFixedTag(typ) {
		return ReadAt(b, off)
	}
	typ = openrec.NonNull(typ)
	n, err := layout.ValueSize(b, off, typ.Tag())
	if err != nil {
		return Value{}, 0, err
	}
	end := off + n
	return Value{typ, b[off:end:end]}, end, nil
}
