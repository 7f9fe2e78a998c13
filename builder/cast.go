package builder

import (
	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/pointable"
	"github.com/brimdata/openrec/rerr"
)

// caster re-encodes values whose static type differs from the type of the
// position they are written to.  Each level of nesting gets its own
// builders, created on first use and reused for every later row.
type caster struct {
	record *RecordBuilder
	list   *ListBuilder
}

// appendAs appends v to dst as a value of type typ.  Values written to a
// position of type any (or a union) are tagged and converted to the
// self-describing form their tag implies.
func (c *caster) appendAs(dst []byte, v pointable.Value, typ openrec.Type, withTag bool) ([]byte, error) {
	if v.IsUnknown() {
		if !withTag {
			return dst, rerr.E(rerr.Type, "%s value requires a tagged position", v.Tag())
		}
		return append(dst, byte(v.Tag())), nil
	}
	if typ.Tag().IsUnknown() {
		return dst, rerr.E(rerr.Type, "%s value cannot be written as %s", v.Tag(), typ)
	}
	if !openrec.HasFixedTag(typ) {
		typ = openrec.DefaultType(v.Tag())
		withTag = true
	} else {
		typ = openrec.NonNull(typ)
	}
	if v.Tag() != typ.Tag() {
		return dst, rerr.E(rerr.Type, "%s value cannot be written as %s", v.Tag(), typ)
	}
	if v.Type == typ || openrec.SameType(v.Type, typ) {
		return v.Append(dst, withTag), nil
	}
	switch typ := typ.(type) {
	case *openrec.TypeRecord:
		return c.appendRecord(dst, v, typ, withTag)
	case *openrec.TypeList:
		return c.appendList(dst, v, typ, withTag)
	}
	// Primitives of the same tag share a layout.
	return v.Append(dst, withTag), nil
}

func (c *caster) appendRecord(dst []byte, v pointable.Value, typ *openrec.TypeRecord, withTag bool) ([]byte, error) {
	r, err := pointable.ParseRecord(v)
	if err != nil {
		return dst, err
	}
	if c.record == nil {
		c.record = NewRecordBuilder(typ)
	} else {
		c.record.Reset(typ)
	}
	for _, f := range r.Fields {
		if err := c.record.Add(f.Name, f.Value); err != nil {
			return dst, err
		}
	}
	return c.record.Write(dst, withTag)
}

func (c *caster) appendList(dst []byte, v pointable.Value, typ *openrec.TypeList, withTag bool) ([]byte, error) {
	l, err := pointable.ParseList(v)
	if err != nil {
		return dst, err
	}
	if c.list == nil {
		c.list = NewListBuilder(typ)
	} else {
		c.list.Reset(typ)
	}
	for _, item := range l.Items {
		if err := c.list.AddItem(item); err != nil {
			return dst, err
		}
	}
	return c.list.Write(dst, withTag)
}

// Caster converts values of any static type to their tagged,
// self-describing form, the form pointable.Read views.  A Caster reuses its
// nested builders across calls and is not safe for concurrent use.
type Caster struct {
	caster
}

func (c *Caster) AppendTagged(dst []byte, v pointable.Value) ([]byte, error) {
	return c.appendAs(dst, v, openrec.TypeAny, true)
}
