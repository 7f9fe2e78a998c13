// Package openrec implements the data model of the binary record format:
// type tags, primitive types, and the record, list and union types that
// schemas are made of.  Values are serialized against these types by the
// builder package and viewed, without copying, by the pointable package.
//
// Types are immutable once constructed.  Every derived schema is a new
// Type; nothing in this module mutates a Type in place, so a Type may be
// shared by any number of evaluators.
package openrec

// A Type describes the static shape of a serialized value.
type Type interface {
	// Tag returns the serialized tag of values of this type.  A union
	// or the any type returns TagUnion or TagAny, in which case the tag
	// must be read from the value itself.
	Tag() Tag
	String() string
}

type TypePrimitive struct {
	tag  Tag
	name string
}

func (t *TypePrimitive) Tag() Tag {
	return t.tag
}

func (t *TypePrimitive) String() string {
	return t.name
}

type TypeOfAny struct{}

func (*TypeOfAny) Tag() Tag {
	return TagAny
}

func (*TypeOfAny) String() string {
	return "any"
}

var (
	TypeInt8    = &TypePrimitive{TagInt8, "int8"}
	TypeInt16   = &TypePrimitive{TagInt16, "int16"}
	TypeInt32   = &TypePrimitive{TagInt32, "int32"}
	TypeInt64   = &TypePrimitive{TagInt64, "int64"}
	TypeBinary  = &TypePrimitive{TagBinary, "binary"}
	TypeFloat   = &TypePrimitive{TagFloat, "float"}
	TypeDouble  = &TypePrimitive{TagDouble, "double"}
	TypeString  = &TypePrimitive{TagString, "string"}
	TypeMissing = &TypePrimitive{TagMissing, "missing"}
	TypeBoolean = &TypePrimitive{TagBoolean, "boolean"}
	TypeNull    = &TypePrimitive{TagNull, "null"}

	TypeAny = &TypeOfAny{}

	// TypeOpenRecord is the open record of any fields: the static type
	// of a record whose schema is not known at compile time and the type
	// a reader assumes for a tagged record value.
	TypeOpenRecord = &TypeRecord{id: -1, Fields: []Field{}, Open: true, LUT: map[string]int{}}

	TypeOrderedListOfAny   = &TypeList{id: -1, Ordered: true, Item: TypeAny}
	TypeUnorderedListOfAny = &TypeList{id: -1, Ordered: false, Item: TypeAny}
)

func LookupPrimitive(name string) Type {
	switch name {
	case "int8":
		return TypeInt8
	case "int16":
		return TypeInt16
	case "int32":
		return TypeInt32
	case "int64":
		return TypeInt64
	case "binary":
		return TypeBinary
	case "float":
		return TypeFloat
	case "double":
		return TypeDouble
	case "string":
		return TypeString
	case "missing":
		return TypeMissing
	case "boolean":
		return TypeBoolean
	case "null":
		return TypeNull
	case "any":
		return TypeAny
	}
	return nil
}

func LookupPrimitiveByTag(tag Tag) Type {
	switch tag {
	case TagInt8:
		return TypeInt8
	case TagInt16:
		return TypeInt16
	case TagInt32:
		return TypeInt32
	case TagInt64:
		return TypeInt64
	case TagBinary:
		return TypeBinary
	case TagFloat:
		return TypeFloat
	case TagDouble:
		return TypeDouble
	case TagString:
		return TypeString
	case TagMissing:
		return TypeMissing
	case TagBoolean:
		return TypeBoolean
	case TagNull:
		return TypeNull
	}
	return nil
}

// DefaultType returns the type a reader assumes for a tagged value when no
// static type is known, or nil if tag is not a serialized tag.
func DefaultType(tag Tag) Type {
	switch tag {
	case TagRecord:
		return TypeOpenRecord
	case TagOrderedList:
		return TypeOrderedListOfAny
	case TagUnorderedList:
		return TypeUnorderedListOfAny
	}
	return LookupPrimitiveByTag(tag)
}

func IsPrimitiveType(typ Type) bool {
	_, ok := typ.(*TypePrimitive)
	return ok
}

func IsRecordType(typ Type) bool {
	_, ok := NonNull(typ).(*TypeRecord)
	return ok
}

// TypeRecordOf returns the record type underlying typ (looking through a
// nullable union) or nil.
func TypeRecordOf(typ Type) *TypeRecord {
	t, _ := NonNull(typ).(*TypeRecord)
	return t
}

// TypeListOf returns the list type underlying typ (looking through a
// nullable union) or nil.
func TypeListOf(typ Type) *TypeList {
	t, _ := NonNull(typ).(*TypeList)
	return t
}

// HasFixedTag returns true iff every value of typ carries the same tag, so
// the tag may be elided when the reader knows typ.
func HasFixedTag(typ Type) bool {
	switch typ := NonNull(typ).(type) {
	case *TypeOfAny, *TypeUnion:
		return false
	case *TypePrimitive:
		// Null and missing have no body, so they are always tagged.
		return !typ.tag.IsUnknown()
	}
	return true
}

// IsSelfDescribing returns true iff a value of typ can be read back from
// its tagged bytes alone, i.e., reading it with DefaultType loses nothing.
func IsSelfDescribing(typ Type) bool {
	switch typ := typ.(type) {
	case *TypePrimitive, *TypeOfAny:
		return true
	case *TypeRecord:
		return typ.Open && len(typ.Fields) == 0
	case *TypeList:
		return IsSelfDescribing(typ.Item)
	}
	return false
}

// SameType returns true iff a and b describe the same serialized layout.
// Record names do not participate.
func SameType(a, b Type) bool {
	if a == b {
		return true
	}
	switch a := a.(type) {
	case *TypePrimitive:
		b, ok := b.(*TypePrimitive)
		return ok && a.tag == b.tag
	case *TypeOfAny:
		_, ok := b.(*TypeOfAny)
		return ok
	case *TypeRecord:
		b, ok := b.(*TypeRecord)
		if !ok || a.Open != b.Open || len(a.Fields) != len(b.Fields) {
			return false
		}
		for k, f := range a.Fields {
			if f.Name != b.Fields[k].Name || !SameType(f.Type, b.Fields[k].Type) {
				return false
			}
		}
		return true
	case *TypeList:
		b, ok := b.(*TypeList)
		return ok && a.Ordered == b.Ordered && SameType(a.Item, b.Item)
	case *TypeUnion:
		b, ok := b.(*TypeUnion)
		if !ok || len(a.Types) != len(b.Types) {
			return false
		}
		for k, t := range a.Types {
			if !SameType(t, b.Types[k]) {
				return false
			}
		}
		return true
	}
	return false
}
