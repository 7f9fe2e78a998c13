package pointable

import (
	"bytes"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/layout"
	"github.com/brimdata/openrec/rerr"
)

// Field is one field of a parsed record.  Name aliases either the schema
// (closed fields) or the record's bytes (open fields).
type Field struct {
	Name   []byte
	Value  Value
	Closed bool
	// Hash is the name hash stored in the open-field table.  It is zero
	// for closed fields.
	Hash uint32
}

// Record is a parsed record: the positions of every closed field, in schema
// order, followed by every open field, in table order.  A closed field whose
// presence bit is clear appears with a null value.
type Record struct {
	Value
	Type     *openrec.TypeRecord
	Fields   []Field
	Expanded bool

	nclosed int
}

// ParseRecord parses the header of the record viewed by v.  The type of v
// must be a record type (or its nullable form).  ParseRecord does not modify
// or retain any state outside the returned Record.
func ParseRecord(v Value) (*Record, error) {
	typ := openrec.TypeRecordOf(v.Type)
	if typ == nil {
		return nil, rerr.E(rerr.Type, "value of type %s is not a record", v.Type)
	}
	b := v.Bytes
	length, err := layout.Offset(b, 0, len(b))
	if err != nil {
		return nil, err
	}
	if length < layout.MinRecordSize {
		return nil, rerr.E(rerr.Format, "record length %d is too small", length)
	}
	b = b[:length:length]
	r := &Record{
		Value:   Value{typ, b},
		Type:    typ,
		Fields:  make([]Field, 0, len(typ.Fields)),
		nclosed: len(typ.Fields),
	}
	pos := layout.LengthSize
	openOff := 0
	if typ.Open {
		flag, err := layout.Byte(b, pos)
		if err != nil {
			return nil, err
		}
		pos += layout.ExpandedSize
		if flag != 0 {
			r.Expanded = true
			if openOff, err = layout.Offset(b, pos, length); err != nil {
				return nil, err
			}
			pos += layout.OffsetSize
		}
	}
	if n := len(typ.Fields); n > 0 {
		if pos, err = r.parseClosed(b, pos, n); err != nil {
			return nil, err
		}
	}
	if r.Expanded {
		if openOff < pos {
			return nil, rerr.E(rerr.Format, "open part at offset %d overlaps record header ending at %d", openOff, pos)
		}
		if err := r.parseOpen(b, openOff); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Record) parseClosed(b []byte, pos, n int) (int, error) {
	count, err := layout.Offset(b, pos, len(b))
	if err != nil {
		return 0, err
	}
	if count != n {
		return 0, rerr.E(rerr.Format, "record has %d closed fields but schema %s has %d", count, r.Type, n)
	}
	pos += layout.CountSize
	var bitmap []byte
	if r.Type.HasNullable() {
		size := layout.NullBitmapSize(n)
		if pos+size > len(b) {
			return 0, rerr.E(rerr.Bounds, "null bitmap of %d bytes at offset %d overruns record of length %d", size, pos, len(b))
		}
		bitmap = b[pos : pos+size]
		pos += size
	}
	table := pos
	headerEnd := table + n*layout.OffsetSize
	if headerEnd > len(b) {
		return 0, rerr.E(rerr.Bounds, "closed offsets end at %d beyond record of length %d", headerEnd, len(b))
	}
	for k, f := range r.Type.Fields {
		field := Field{Name: []byte(f.Name), Closed: true}
		if bitmap != nil && !layout.BitIsSet(bitmap, k) {
			if !openrec.IsNullable(f.Type) {
				return 0, rerr.E(rerr.Format, "non-nullable field %q is marked null", f.Name)
			}
			field.Value = Null
			r.Fields = append(r.Fields, field)
			continue
		}
		off, err := layout.Offset(b, table+k*layout.OffsetSize, len(b))
		if err != nil {
			return 0, err
		}
		if off < headerEnd {
			return 0, rerr.E(rerr.Format, "field %q at offset %d lies inside the record header", f.Name, off)
		}
		if field.Value, _, err = ReadBody(b, off, f.Type); err != nil {
			return 0, err
		}
		r.Fields = append(r.Fields, field)
	}
	return headerEnd, nil
}

func (r *Record) parseOpen(b []byte, off int) error {
	m, err := layout.Offset(b, off, len(b))
	if err != nil {
		return err
	}
	table := off + layout.CountSize
	if m > (len(b)-table)/layout.OpenEntrySize {
		return rerr.E(rerr.Bounds, "open field table of %d entries overruns record of length %d", m, len(b))
	}
	end := table + m*layout.OpenEntrySize
	var prev []byte
	for j := 0; j < m; j++ {
		entry := table + j*layout.OpenEntrySize
		h, _ := layout.Uint32(b, entry)
		fo, err := layout.Offset(b, entry+layout.HashSize, len(b))
		if err != nil {
			return err
		}
		if fo < end {
			return rerr.E(rerr.Format, "open field %d at offset %d lies inside the open field table", j, fo)
		}
		name, next, err := layout.StringBody(b, fo)
		if err != nil {
			return err
		}
		if layout.Hash(name) != h {
			return rerr.E(rerr.Format, "open field %q does not match its hash %#x", name, h)
		}
		if j > 0 {
			ph := r.Fields[len(r.Fields)-1].Hash
			if h < ph || h == ph && bytes.Compare(prev, name) >= 0 {
				return rerr.E(rerr.Format, "open field %q is out of order", name)
			}
		}
		val, _, err := ReadAt(b, next)
		if err != nil {
			return err
		}
		r.Fields = append(r.Fields, Field{Name: name, Value: val, Hash: h})
		prev = name
	}
	return nil
}

// NumClosed returns the number of closed fields.  They occupy
// Fields[:NumClosed()].
func (r *Record) NumClosed() int {
	return r.nclosed
}

// Open returns the open fields in table order.
func (r *Record) Open() []Field {
	return r.Fields[r.nclosed:]
}

func (r *Record) Len() int {
	return len(r.Fields)
}

func (r *Record) FieldNames() [][]byte {
	names := make([][]byte, 0, len(r.Fields))
	for _, f := range r.Fields {
		names = append(names, f.Name)
	}
	return names
}

func (r *Record) FieldValues() []Value {
	vals := make([]Value, 0, len(r.Fields))
	for _, f := range r.Fields {
		vals = append(vals, f.Value)
	}
	return vals
}

func (r *Record) FieldTags() []openrec.Tag {
	tags := make([]openrec.Tag, 0, len(r.Fields))
	for _, f := range r.Fields {
		tags = append(tags, f.Value.Tag())
	}
	return tags
}

// Lookup returns the field named name.  Closed fields are found through the
// schema; open fields by binary search on the name hash followed by a
// comparison of the names that share it.
func (r *Record) Lookup(name []byte) (Field, bool) {
	if k, ok := r.Type.LUT[string(name)]; ok {
		return r.Fields[k], true
	}
	open := r.Open()
	h := layout.Hash(name)
	lo, hi := 0, len(open)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if open[mid].Hash < h {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	for ; lo < len(open) && open[lo].Hash == h; lo++ {
		if bytes.Equal(open[lo].Name, name) {
			return open[lo], true
		}
	}
	return Field{}, false
}

func (r *Record) LookupString(name string) (Field, bool) {
	return r.Lookup([]byte(name))
}

// Has returns true iff the record has a field named name.
func (r *Record) Has(name []byte) bool {
	_, ok := r.Lookup(name)
	return ok
}
