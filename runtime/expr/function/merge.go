package function

import (
	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/pointable"
	"github.com/brimdata/openrec/rerr"
	"github.com/brimdata/openrec/runtime/expr"
)

// Merge combines the fields of two records.  Fields present in both must
// be records themselves, which are merged recursively; any other collision
// fails the row with a DuplicateField error.
type Merge struct {
	ectx *expr.Context
	typ  *openrec.TypeRecord
	stack
}

func NewMerge(ectx *expr.Context, typ *openrec.TypeRecord) *Merge {
	return &Merge{ectx: ectx, typ: typ}
}

func (m *Merge) Call(dst []byte, args []pointable.Value) ([]byte, error) {
	if tag, ok := unknown(args[0], args[1]); ok {
		return append(dst, byte(tag)), nil
	}
	for k, arg := range args[:2] {
		if !arg.IsRecord() {
			return dst, badarg("merge", k, arg, "a record")
		}
	}
	return m.merge(dst, args[0], args[1], m.typ, 0, true)
}

func (m *Merge) merge(dst []byte, v0, v1 pointable.Value, typ *openrec.TypeRecord, depth int, withTag bool) ([]byte, error) {
	if err := m.ectx.Config.CheckDepth(depth + 1); err != nil {
		return dst, err
	}
	r0, err := pointable.ParseRecord(v0)
	if err != nil {
		return dst, err
	}
	r1, err := pointable.ParseRecord(v1)
	if err != nil {
		return dst, err
	}
	b := m.builder(depth, typ)
	for _, f := range r0.Fields {
		val := f.Value
		if g, ok := r1.Lookup(f.Name); ok {
			if !val.IsRecord() || !g.Value.IsRecord() {
				return dst, rerr.E(rerr.DuplicateField, "merge: field %q is in both records", f.Name)
			}
			sub := nestedType(typ, f.Name)
			out, err := m.merge(m.buffer(depth+1), val, g.Value, sub, depth+1, false)
			if err != nil {
				return dst, err
			}
			m.keep(depth+1, out)
			val = pointable.NewValue(sub, out)
		}
		if err := b.Add(f.Name, val); err != nil {
			return dst, err
		}
	}
	for _, g := range r1.Fields {
		if r0.Has(g.Name) {
			continue
		}
		if err := b.Add(g.Name, g.Value); err != nil {
			return dst, err
		}
	}
	return b.Write(dst, withTag)
}
