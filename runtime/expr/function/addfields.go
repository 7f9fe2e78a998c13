package function

import (
	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/builder"
	"github.com/brimdata/openrec/pointable"
	"github.com/brimdata/openrec/rerr"
	"github.com/brimdata/openrec/runtime/expr"
)

const (
	PairName  = "field-name"
	PairValue = "field-value"
)

// AddFields adds to a record the fields described by a list of pairs,
// each a record {field-name: string, field-value: any}.  Adding a name
// the record already has, or adding a name twice, is a Conflict.
type AddFields struct {
	ectx    *expr.Context
	typ     *openrec.TypeRecord
	builder builder.RecordBuilder
	added   map[string]struct{}
}

func NewAddFields(ectx *expr.Context, typ *openrec.TypeRecord) *AddFields {
	return &AddFields{
		ectx:  ectx,
		typ:   typ,
		added: make(map[string]struct{}),
	}
}

func (a *AddFields) Call(dst []byte, args []pointable.Value) ([]byte, error) {
	if tag, ok := unknown(args[0], args[1]); ok {
		return append(dst, byte(tag)), nil
	}
	if !args[0].IsRecord() {
		return dst, badarg("add_fields", 0, args[0], "a record")
	}
	if !args[1].IsList() {
		return dst, badarg("add_fields", 1, args[1], "a list")
	}
	r, err := pointable.ParseRecord(args[0])
	if err != nil {
		return dst, err
	}
	pairs, err := pointable.ParseList(args[1])
	if err != nil {
		return dst, err
	}
	b := &a.builder
	b.Reset(a.typ)
	for _, f := range r.Fields {
		if err := b.Add(f.Name, f.Value); err != nil {
			return dst, err
		}
	}
	for name := range a.added {
		delete(a.added, name)
	}
	for k, item := range pairs.Items {
		name, val, err := pair(k, item)
		if err != nil {
			return dst, err
		}
		if r.Has(name) {
			return dst, rerr.E(rerr.Conflict, "add_fields: field %q is already in the record", name)
		}
		if _, ok := a.added[string(name)]; ok {
			return dst, rerr.E(rerr.Conflict, "add_fields: field %q is added twice", name)
		}
		a.added[string(name)] = struct{}{}
		if err := b.Add(name, val); err != nil {
			return dst, err
		}
	}
	return b.Write(dst, true)
}

// pair decodes the k-th item of the pairs list.
func pair(k int, item pointable.Value) ([]byte, pointable.Value, error) {
	if !item.IsRecord() {
		return nil, pointable.Value{}, rerr.E(rerr.Type, "add_fields: pair %d is %s, not a record", k, item.Tag())
	}
	r, err := pointable.ParseRecord(item)
	if err != nil {
		return nil, pointable.Value{}, err
	}
	nf, ok := r.LookupString(PairName)
	if !ok || nf.Value.Tag() != openrec.TagString {
		return nil, pointable.Value{}, rerr.E(rerr.Type, "add_fields: pair %d has no string %q", k, PairName)
	}
	vf, ok := r.LookupString(PairValue)
	if !ok {
		return nil, pointable.Value{}, rerr.E(rerr.Type, "add_fields: pair %d has no %q", k, PairValue)
	}
	name, err := pointable.Bytes(nf.Value)
	if err != nil {
		return nil, pointable.Value{}, err
	}
	return name, vf.Value, nil
}

// Pair is one decoded item of the add_fields pairs list.
type Pair struct {
	Name  []byte
	Value pointable.Value
}

// ParsePairs decodes a complete pairs list.
func ParsePairs(v pointable.Value) ([]Pair, error) {
	if !v.IsList() {
		return nil, rerr.E(rerr.Type, "add_fields: pairs argument is %s, not a list", v.Tag())
	}
	l, err := pointable.ParseList(v)
	if err != nil {
		return nil, err
	}
	pairs := make([]Pair, 0, l.Len())
	for k, item := range l.Items {
		name, val, err := pair(k, item)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{name, val})
	}
	return pairs, nil
}
