// Package infer computes the output types of the structural operators
// from the types of their arguments.  The record type inferred for an
// operator is the type the runtime operator builds its output with, so
// every closed field of an inferred type is a field of every non-null
// output the operator produces.
package infer

import (
	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/field"
	"github.com/brimdata/openrec/rerr"
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheSize = 1024

// mergeKey identifies a merge by its record arguments, which are never
// mutated after construction.
type mergeKey struct {
	a        *openrec.TypeRecord
	b        *openrec.TypeRecord
	nullable bool
}

// Typer infers operator output types.  Derived record types are created
// in its type context.  A Typer is safe for concurrent use.
type Typer struct {
	zctx       *openrec.Context
	merges     *lru.Cache[mergeKey, openrec.Type]
	pruneEmpty bool
}

func NewTyper(zctx *openrec.Context, cacheSize int) (*Typer, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	merges, err := lru.New[mergeKey, openrec.Type](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Typer{zctx: zctx, merges: merges}, nil
}

// SetPruneEmpty makes RemoveFieldsType agree with a runtime configured to
// prune records that remove_fields empties.
func (t *Typer) SetPruneEmpty(on bool) {
	t.pruneEmpty = on
}

func (t *Typer) Context() *openrec.Context {
	return t.zctx
}

// unknownResult handles the argument types every operator treats alike.
// It returns the result type and true if one of them decides the result.
func unknownResult(types ...openrec.Type) (openrec.Type, bool) {
	for _, typ := range types {
		if typ == openrec.TypeMissing {
			return openrec.TypeMissing, true
		}
	}
	for _, typ := range types {
		if typ == openrec.TypeNull {
			return openrec.TypeNull, true
		}
	}
	return nil, false
}

func anyNullable(types ...openrec.Type) bool {
	for _, typ := range types {
		if openrec.IsNullable(typ) {
			return true
		}
	}
	return false
}

func isAny(typ openrec.Type) bool {
	_, ok := openrec.NonNull(typ).(*openrec.TypeOfAny)
	return ok
}

// recordArg returns the record type of an argument that must be a record,
// the open record for an argument of type any, or a Type error.
func recordArg(op string, k int, typ openrec.Type) (*openrec.TypeRecord, error) {
	if isAny(typ) {
		return openrec.TypeOpenRecord, nil
	}
	if rtyp := openrec.TypeRecordOf(typ); rtyp != nil {
		return rtyp, nil
	}
	return nil, rerr.E(rerr.Type, "%s: argument %d has type %s, not a record", op, k+1, typ)
}

func (t *Typer) wrap(typ openrec.Type, nullable bool) openrec.Type {
	if nullable {
		return t.zctx.NewNullable(typ)
	}
	return typ
}

// MergeType returns the output type of merge(t0, t1).
func (t *Typer) MergeType(t0, t1 openrec.Type) (openrec.Type, error) {
	if typ, ok := unknownResult(t0, t1); ok {
		return typ, nil
	}
	r0, err := recordArg("merge", 0, t0)
	if err != nil {
		return nil, err
	}
	r1, err := recordArg("merge", 1, t1)
	if err != nil {
		return nil, err
	}
	key := mergeKey{r0, r1, anyNullable(t0, t1)}
	if typ, ok := t.merges.Get(key); ok {
		return typ, nil
	}
	rtyp, err := t.mergeRecords(r0, r1)
	if err != nil {
		return nil, err
	}
	typ := t.wrap(rtyp, key.nullable)
	t.merges.Add(key, typ)
	return typ, nil
}

func (t *Typer) mergeRecords(r0, r1 *openrec.TypeRecord) (*openrec.TypeRecord, error) {
	if r0 == openrec.TypeOpenRecord && r1 == openrec.TypeOpenRecord {
		return openrec.TypeOpenRecord, nil
	}
	var fields []openrec.Field
	for _, f := range r0.Fields {
		gtyp, ok := r1.TypeOfField(f.Name)
		if !ok {
			if !r1.Open || !mergeable(f.Type) {
				fields = append(fields, f)
			}
			continue
		}
		s0, s1 := openrec.TypeRecordOf(f.Type), openrec.TypeRecordOf(gtyp)
		switch {
		case s0 != nil && s1 != nil:
			sub, err := t.mergeRecords(s0, s1)
			if err != nil {
				return nil, err
			}
			fields = append(fields, openrec.NewField(f.Name, t.wrap(sub, anyNullable(f.Type, gtyp))))
		case isAny(f.Type) || isAny(gtyp):
			fields = append(fields, openrec.NewField(f.Name, openrec.TypeAny))
		case openrec.NonNull(f.Type).Tag() == openrec.NonNull(gtyp).Tag():
			// Every row collides on this field; the runtime reports it.
			fields = append(fields, f)
		default:
			return nil, rerr.E(rerr.DuplicateField, "merge: field %q has type %s in one record and %s in the other", f.Name, f.Type, gtyp)
		}
	}
	for _, g := range r1.Fields {
		if r0.HasField(g.Name) || r0.Open && mergeable(g.Type) {
			continue
		}
		fields = append(fields, g)
	}
	return t.zctx.NewTypeRecord("", fields, r0.Open || r1.Open)
}

// mergeable returns true iff a closed field of type typ might be merged
// with an open field of the other record, which would change its type.  A
// collision of any other field fails the row, so it keeps its type.
func mergeable(typ openrec.Type) bool {
	return openrec.TypeRecordOf(typ) != nil
}

// FieldsArg is what the compiler knows about the pairs argument of
// add_fields.  If Constant is true, Pairs lists the name and value type of
// every pair in order.
type FieldsArg struct {
	Type     openrec.Type
	Pairs    []openrec.Field
	Constant bool
}

// AddFieldsType returns the output type of add_fields(typ, arg).
func (t *Typer) AddFieldsType(typ openrec.Type, arg FieldsArg) (openrec.Type, error) {
	if out, ok := unknownResult(typ, arg.Type); ok {
		return out, nil
	}
	if err := listArg("add_fields", arg.Type, false); err != nil {
		return nil, err
	}
	rtyp, err := recordArg("add_fields", 0, typ)
	if err != nil {
		return nil, err
	}
	fields := rtyp.Fields
	open := rtyp.Open
	if arg.Constant {
		fields = append([]openrec.Field{}, fields...)
		seen := make(map[string]struct{}, len(arg.Pairs))
		for _, p := range arg.Pairs {
			if rtyp.HasField(p.Name) {
				return nil, rerr.E(rerr.Conflict, "add_fields: field %q is already in the record", p.Name)
			}
			if _, ok := seen[p.Name]; ok {
				return nil, rerr.E(rerr.Conflict, "add_fields: field %q is added twice", p.Name)
			}
			seen[p.Name] = struct{}{}
			fields = append(fields, p)
		}
	} else {
		open = true
	}
	out, err := t.zctx.NewTypeRecord("", fields, open)
	if err != nil {
		return nil, err
	}
	return t.wrap(out, anyNullable(typ, arg.Type)), nil
}

// listArg checks the type of a list argument.  Any is accepted.
func listArg(op string, typ openrec.Type, orderedOnly bool) error {
	switch typ := openrec.NonNull(typ).(type) {
	case *openrec.TypeOfAny:
		return nil
	case *openrec.TypeList:
		if !orderedOnly || typ.Ordered {
			return nil
		}
	}
	want := "a list"
	if orderedOnly {
		want = "an ordered list"
	}
	return rerr.E(rerr.Type, "%s: argument 2 has type %s, not %s", op, typ, want)
}

// PathsArg is what the compiler knows about the paths argument of
// remove_fields.  If Constant is true, Paths lists every path.
type PathsArg struct {
	Type     openrec.Type
	Paths    field.List
	Constant bool
}

// RemoveFieldsType returns the output type of remove_fields(typ, arg).
// Without constant paths any closed field may be removed, so the result is
// the open record.
func (t *Typer) RemoveFieldsType(typ openrec.Type, arg PathsArg) (openrec.Type, error) {
	if typ == openrec.TypeMissing || arg.Type == openrec.TypeMissing {
		return openrec.TypeMissing, nil
	}
	if typ == openrec.TypeNull {
		return openrec.TypeNull, nil
	}
	if arg.Type == openrec.TypeNull {
		return nil, rerr.E(rerr.Type, "remove_fields: paths argument is null")
	}
	if err := listArg("remove_fields", arg.Type, true); err != nil {
		return nil, err
	}
	rtyp, err := recordArg("remove_fields", 0, typ)
	if err != nil {
		return nil, err
	}
	var out openrec.Type = openrec.TypeOpenRecord
	if arg.Constant {
		if out, _, err = t.removeFields(rtyp, arg.Paths, nil); err != nil {
			return nil, err
		}
	}
	return t.wrap(out, openrec.IsNullable(typ)), nil
}

// removeFields returns rtyp without the closed fields named by paths below
// prefix.  It also returns true if a closed field was removed.
func (t *Typer) removeFields(rtyp *openrec.TypeRecord, paths field.List, prefix field.Path) (*openrec.TypeRecord, bool, error) {
	if rtyp == openrec.TypeOpenRecord {
		return rtyp, false, nil
	}
	var fields []openrec.Field
	open := rtyp.Open
	removed := false
	for _, f := range rtyp.Fields {
		path := append(prefix[:len(prefix):len(prefix)], f.Name)
		if paths.Has(path) {
			removed = true
			continue
		}
		if !descends(paths, path) {
			fields = append(fields, f)
			continue
		}
		sub := openrec.TypeRecordOf(f.Type)
		if sub == nil {
			if isAny(f.Type) {
				fields = append(fields, f)
				continue
			}
			return nil, false, rerr.E(rerr.UnsupportedShape, "remove_fields: path below %s descends into field of type %s", path, f.Type)
		}
		nt, subRemoved, err := t.removeFields(sub, paths, path)
		if err != nil {
			return nil, false, err
		}
		if !subRemoved {
			fields = append(fields, f)
			continue
		}
		removed = true
		if t.pruneEmpty && len(nt.Fields) == 0 {
			// The runtime drops this record when it ends up empty and
			// keeps it as an open field otherwise.
			open = true
			continue
		}
		fields = append(fields, openrec.NewField(f.Name, t.wrap(nt, openrec.IsNullable(f.Type))))
	}
	if !removed {
		return rtyp, false, nil
	}
	out, err := t.zctx.NewTypeRecord("", fields, open)
	return out, true, err
}

func descends(paths field.List, path field.Path) bool {
	for _, p := range paths {
		if p.HasStrictPrefix(path) {
			return true
		}
	}
	return false
}

// DeepEqualType returns the output type of deep_equal(t0, t1).
func (t *Typer) DeepEqualType(t0, t1 openrec.Type) (openrec.Type, error) {
	if typ, ok := unknownResult(t0, t1); ok {
		return typ, nil
	}
	return t.wrap(openrec.TypeBoolean, anyNullable(t0, t1)), nil
}
