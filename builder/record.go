// Package builder serializes records and lists.  A RecordBuilder collects
// closed fields by schema position and open fields by name, copying each
// value into its own arena, and writes the record in one pass.  Builders are
// reused across rows: Reset binds a schema and Init clears the previous
// row's fields.
package builder

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/layout"
	"github.com/brimdata/openrec/pointable"
	"github.com/brimdata/openrec/rerr"
	"golang.org/x/exp/slices"
)

type span struct {
	off int
	end int
}

type slot struct {
	span
	set  bool
	null bool
}

type openField struct {
	hash uint32
	name span
	// entry covers the name and the tagged value.
	entry span
}

type RecordBuilder struct {
	typ    *openrec.TypeRecord
	arena  []byte
	closed []slot
	open   []openField
	names  map[string]struct{}
	cast   caster
}

func NewRecordBuilder(typ *openrec.TypeRecord) *RecordBuilder {
	b := &RecordBuilder{}
	b.Reset(typ)
	return b
}

// Reset binds the builder to a schema and clears all fields.
func (b *RecordBuilder) Reset(typ *openrec.TypeRecord) {
	b.typ = typ
	if n := len(typ.Fields); cap(b.closed) < n {
		b.closed = make([]slot, n)
	} else {
		b.closed = b.closed[:n]
	}
	b.Init()
}

// Init clears the fields of the previous row and keeps the schema.
func (b *RecordBuilder) Init() {
	b.arena = b.arena[:0]
	for k := range b.closed {
		b.closed[k] = slot{}
	}
	b.open = b.open[:0]
	for name := range b.names {
		delete(b.names, name)
	}
}

func (b *RecordBuilder) Type() *openrec.TypeRecord {
	return b.typ
}

// AddClosed sets the closed field at position pos.  A value whose static
// type differs from the declared type is cast to it.
func (b *RecordBuilder) AddClosed(pos int, v pointable.Value) error {
	if pos < 0 || pos >= len(b.closed) {
		return rerr.E(rerr.Bounds, "position %d out of range for %s", pos, b.typ)
	}
	s := &b.closed[pos]
	f := b.typ.Fields[pos]
	if s.set {
		return rerr.E(rerr.DuplicateField, "field %q is set twice", f.Name)
	}
	if v.IsUnknown() {
		if !openrec.AdmitsNull(f.Type) {
			return rerr.E(rerr.Type, "field %q of type %s cannot be %s", f.Name, f.Type, v.Tag())
		}
		if openrec.HasFixedTag(f.Type) {
			s.set, s.null = true, true
			return nil
		}
	}
	off := len(b.arena)
	arena, err := b.cast.appendAs(b.arena, v, f.Type, !openrec.HasFixedTag(f.Type))
	if err != nil {
		return fieldErr(f.Name, err)
	}
	b.arena = arena
	*s = slot{span: span{off, len(b.arena)}, set: true}
	return nil
}

// AddClosedByName is AddClosed for the closed field named name.
func (b *RecordBuilder) AddClosedByName(name string, v pointable.Value) error {
	pos, ok := b.typ.IndexOf(name)
	if !ok {
		return rerr.E(rerr.Type, "no closed field %q in %s", name, b.typ)
	}
	return b.AddClosed(pos, v)
}

// AddOpen adds an open field.  The value is written tagged and in
// self-describing form.  A missing value adds nothing.
func (b *RecordBuilder) AddOpen(name []byte, v pointable.Value) error {
	if !b.typ.Open {
		return rerr.E(rerr.Type, "cannot add open field %q to closed type %s", name, b.typ)
	}
	if len(name) == 0 {
		return rerr.E(rerr.Type, "open field name is empty")
	}
	if b.typ.HasField(string(name)) {
		return rerr.E(rerr.DuplicateField, "open field %q duplicates a closed field", name)
	}
	if b.names == nil {
		b.names = make(map[string]struct{})
	}
	if _, ok := b.names[string(name)]; ok {
		return rerr.E(rerr.DuplicateField, "open field %q is repeated", name)
	}
	if v.IsMissing() {
		return nil
	}
	off := len(b.arena)
	b.arena = layout.AppendString(b.arena, name)
	nameEnd := len(b.arena)
	arena, err := b.cast.appendAs(b.arena, v, openrec.TypeAny, true)
	if err != nil {
		b.arena = b.arena[:off]
		return fieldErr(string(name), err)
	}
	b.arena = arena
	b.names[string(name)] = struct{}{}
	b.open = append(b.open, openField{
		hash:  layout.Hash(name),
		name:  span{nameEnd - len(name), nameEnd},
		entry: span{off, len(b.arena)},
	})
	return nil
}

func (b *RecordBuilder) AddOpenString(name string, v pointable.Value) error {
	return b.AddOpen([]byte(name), v)
}

// Add adds v as the closed field named name if the schema has one and as
// an open field otherwise.
func (b *RecordBuilder) Add(name []byte, v pointable.Value) error {
	if pos, ok := b.typ.IndexOf(string(name)); ok {
		return b.AddClosed(pos, v)
	}
	return b.AddOpen(name, v)
}

func fieldErr(name string, err error) error {
	var e *rerr.Error
	if errors.As(err, &e) {
		return rerr.E(e.Kind, "field %q: %s", name, e.Message())
	}
	return fmt.Errorf("field %q: %w", name, err)
}

var taggedNull = []byte{byte(openrec.TagNull)}

// Write appends the record to dst, with its tag if withTag is true.  It
// fails if a non-nullable closed field was never set.
func (b *RecordBuilder) Write(dst []byte, withTag bool) ([]byte, error) {
	for k, s := range b.closed {
		if !s.set && !openrec.AdmitsNull(b.typ.Fields[k].Type) {
			return dst, rerr.E(rerr.MissingField, "field %q of %s is not set", b.typ.Fields[k].Name, b.typ)
		}
	}
	if withTag {
		dst = append(dst, byte(openrec.TagRecord))
	}
	start := len(dst)
	dst = layout.AppendUint32(dst, 0)
	expanded := len(b.open) > 0
	openPtr := -1
	if b.typ.Open {
		if expanded {
			dst = append(dst, 1)
			openPtr = len(dst)
			dst = layout.AppendUint32(dst, 0)
		} else {
			dst = append(dst, 0)
		}
	}
	if n := len(b.closed); n > 0 {
		dst = layout.AppendUint32(dst, uint32(n))
		bitmap := -1
		if b.typ.HasNullable() {
			bitmap = len(dst)
			for k := 0; k < layout.NullBitmapSize(n); k++ {
				dst = append(dst, 0)
			}
		}
		table := len(dst)
		for k := 0; k < n; k++ {
			dst = layout.AppendUint32(dst, 0)
		}
		for k, s := range b.closed {
			fixed := openrec.HasFixedTag(b.typ.Fields[k].Type)
			if fixed && (!s.set || s.null) {
				continue
			}
			if bitmap >= 0 {
				layout.SetBit(dst[bitmap:], k)
			}
			layout.PutUint32(dst, table+k*layout.OffsetSize, uint32(len(dst)-start))
			if s.set {
				dst = append(dst, b.arena[s.off:s.end]...)
			} else {
				dst = append(dst, taggedNull...)
			}
		}
	}
	if expanded {
		layout.PutUint32(dst, openPtr, uint32(len(dst)-start))
		arena := b.arena
		slices.SortFunc(b.open, func(x, y openField) bool {
			if x.hash != y.hash {
				return x.hash < y.hash
			}
			return bytes.Compare(arena[x.name.off:x.name.end], arena[y.name.off:y.name.end]) < 0
		})
		dst = layout.AppendUint32(dst, uint32(len(b.open)))
		table := len(dst)
		for range b.open {
			dst = layout.AppendUint32(dst, 0)
			dst = layout.AppendUint32(dst, 0)
		}
		for j, f := range b.open {
			entry := table + j*layout.OpenEntrySize
			layout.PutUint32(dst, entry, f.hash)
			layout.PutUint32(dst, entry+layout.HashSize, uint32(len(dst)-start))
			dst = append(dst, b.arena[f.entry.off:f.entry.end]...)
		}
	}
	layout.PutUint32(dst, start, uint32(len(dst)-start))
	return dst, nil
}

// Encode returns the record as a new value.
func (b *RecordBuilder) Encode() (pointable.Value, error) {
	body, err := b.Write(nil, false)
	if err != nil {
		return pointable.Value{}, err
	}
	return pointable.NewValue(b.typ, body), nil
}
