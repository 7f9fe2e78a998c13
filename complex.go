package openrec

import (
	"strings"

	"github.com/brimdata/openrec/rerr"
	"go.uber.org/multierr"
	"golang.org/x/exp/slices"
)

// Field defines the name and type of a closed field in a record type.
type Field struct {
	Name string
	Type Type
}

func NewField(name string, typ Type) Field {
	return Field{name, typ}
}

type TypeRecord struct {
	id     int
	Name   string
	Fields []Field
	Open   bool
	LUT    map[string]int

	nullable bool
}

// NewTypeRecord returns a record type with its own copy of fields.  It fails
// if a field name is empty or repeated; all such problems are reported.
func NewTypeRecord(id int, name string, fields []Field, open bool) (*TypeRecord, error) {
	fields = slices.Clone(fields)
	if fields == nil {
		fields = []Field{}
	}
	t := &TypeRecord{
		id:     id,
		Name:   name,
		Fields: fields,
		Open:   open,
		LUT:    make(map[string]int, len(fields)),
	}
	var err error
	for k, f := range fields {
		if f.Name == "" {
			err = multierr.Append(err, rerr.E(rerr.Type, "field %d of record type %s has an empty name", k, name))
			continue
		}
		if f.Type == nil {
			err = multierr.Append(err, rerr.E(rerr.Type, "field %q of record type %s has no type", f.Name, name))
			continue
		}
		if _, ok := t.LUT[f.Name]; ok {
			err = multierr.Append(err, rerr.E(rerr.DuplicateField, "field %q is repeated", f.Name))
			continue
		}
		t.LUT[f.Name] = k
		if IsNullable(f.Type) {
			t.nullable = true
		}
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *TypeRecord) ID() int {
	return t.id
}

func (t *TypeRecord) Tag() Tag {
	return TagRecord
}

func (t *TypeRecord) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for k, f := range t.Fields {
		if k > 0 {
			b.WriteByte(',')
		}
		b.WriteString(QuotedName(f.Name))
		b.WriteByte(':')
		b.WriteString(f.Type.String())
	}
	if t.Open {
		if len(t.Fields) > 0 {
			b.WriteByte(',')
		}
		b.WriteString("...")
	}
	b.WriteByte('}')
	return b.String()
}

// Len returns the number of closed fields.
func (t *TypeRecord) Len() int {
	return len(t.Fields)
}

func (t *TypeRecord) IndexOf(name string) (int, bool) {
	k, ok := t.LUT[name]
	return k, ok
}

func (t *TypeRecord) TypeOfField(name string) (Type, bool) {
	k, ok := t.LUT[name]
	if !ok {
		return nil, false
	}
	return t.Fields[k].Type, true
}

func (t *TypeRecord) HasField(name string) bool {
	_, ok := t.LUT[name]
	return ok
}

func (t *TypeRecord) FieldNames() []string {
	names := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		names = append(names, f.Name)
	}
	return names
}

func (t *TypeRecord) FieldTypes() []Type {
	types := make([]Type, 0, len(t.Fields))
	for _, f := range t.Fields {
		types = append(types, f.Type)
	}
	return types
}

// HasNullable returns true iff some closed field is nullable, which means
// serialized values of t carry a null bitmap.
func (t *TypeRecord) HasNullable() bool {
	return t.nullable
}

// QuotedName returns name as it appears in a type string.
func QuotedName(name string) string {
	for _, c := range name {
		if !(c == '_' || c == '-' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return `"` + strings.ReplaceAll(name, `"`, `\"`) + `"`
		}
	}
	return name
}

type TypeList struct {
	id      int
	Ordered bool
	Item    Type
}

func NewTypeList(id int, ordered bool, item Type) *TypeList {
	return &TypeList{id, ordered, item}
}

func (t *TypeList) ID() int {
	return t.id
}

func (t *TypeList) Tag() Tag {
	if t.Ordered {
		return TagOrderedList
	}
	return TagUnorderedList
}

func (t *TypeList) String() string {
	if t.Ordered {
		return "[" + t.Item.String() + "]"
	}
	return "{{" + t.Item.String() + "}}"
}

// TypeUnion is a static-only type: values of a union are always written
// with the tag of their concrete member.  The union of a type and null is
// the nullable form of that type.
type TypeUnion struct {
	id    int
	Types []Type
}

func NewTypeUnion(id int, types []Type) *TypeUnion {
	return &TypeUnion{id, slices.Clone(types)}
}

func (t *TypeUnion) ID() int {
	return t.id
}

func (t *TypeUnion) Tag() Tag {
	return TagUnion
}

func (t *TypeUnion) String() string {
	if inner := NonNull(t); inner != Type(t) && len(t.Types) == 2 {
		return inner.String() + "?"
	}
	var b strings.Builder
	b.WriteString("union(")
	for k, typ := range t.Types {
		if k > 0 {
			b.WriteByte(',')
		}
		b.WriteString(typ.String())
	}
	b.WriteByte(')')
	return b.String()
}

// NewNullable returns the nullable form of typ.  A type that already
// admits null is returned as is.
func NewNullable(typ Type) Type {
	if typ == TypeNull || typ == TypeAny || IsNullable(typ) {
		return typ
	}
	return &TypeUnion{id: -1, Types: []Type{typ, TypeNull}}
}

// IsNullable returns true iff typ is a union with a null member.
func IsNullable(typ Type) bool {
	if u, ok := typ.(*TypeUnion); ok {
		for _, t := range u.Types {
			if t == TypeNull {
				return true
			}
		}
	}
	return false
}

// NonNull returns typ with the null member of a nullable union removed.
// Other types are returned unchanged.
func NonNull(typ Type) Type {
	u, ok := typ.(*TypeUnion)
	if !ok || !IsNullable(typ) {
		return typ
	}
	var types []Type
	for _, t := range u.Types {
		if t != TypeNull {
			types = append(types, t)
		}
	}
	if len(types) == 1 {
		return types[0]
	}
	return &TypeUnion{id: -1, Types: types}
}

// AdmitsNull returns true iff a value of type typ may be null.
func AdmitsNull(typ Type) bool {
	switch typ.(type) {
	case *TypeOfAny:
		return true
	}
	return typ == TypeNull || IsNullable(typ)
}
