package function

import (
	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/field"
	"github.com/brimdata/openrec/pointable"
	"github.com/brimdata/openrec/rerr"
	"github.com/brimdata/openrec/runtime/expr"
)

// RemoveFields removes from a record the fields named by a list of paths.
// A path is a string naming a top-level field or an ordered list of
// strings naming a nested field from the outside in.  Paths match at
// exactly their own depth.
type RemoveFields struct {
	ectx *expr.Context
	typ  *openrec.TypeRecord
	stack
}

func NewRemoveFields(ectx *expr.Context, typ *openrec.TypeRecord) *RemoveFields {
	return &RemoveFields{ectx: ectx, typ: typ}
}

func (r *RemoveFields) Call(dst []byte, args []pointable.Value) ([]byte, error) {
	in, paths := args[0], args[1]
	if in.IsMissing() || paths.IsMissing() {
		return append(dst, byte(openrec.TagMissing)), nil
	}
	if in.IsNull() {
		return append(dst, byte(openrec.TagNull)), nil
	}
	if !in.IsRecord() {
		return dst, badarg("remove_fields", 0, in, "a record")
	}
	targets, err := ParsePaths(paths)
	if err != nil {
		return dst, err
	}
	out, _, _, err := r.remove(dst, in, r.typ, field.NewMatcher(targets), nil, true)
	return out, err
}

// ParsePaths decodes the path list argument of remove_fields.
func ParsePaths(v pointable.Value) (field.List, error) {
	if v.Tag() != openrec.TagOrderedList {
		return nil, rerr.E(rerr.Type, "remove_fields: paths argument is %s, not an ordered list", v.Tag())
	}
	l, err := pointable.ParseList(v)
	if err != nil {
		return nil, err
	}
	paths := make(field.List, 0, len(l.Items))
	for k, item := range l.Items {
		path, err := parsePath(item)
		if err != nil {
			return nil, rerr.E(rerr.Type, "remove_fields: path %d: %s", k, message(err))
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func parsePath(v pointable.Value) (field.Path, error) {
	switch v.Tag() {
	case openrec.TagString:
		s, err := pointable.String(v)
		if err != nil {
			return nil, err
		}
		return field.New(s), nil
	case openrec.TagOrderedList:
		l, err := pointable.ParseList(v)
		if err != nil {
			return nil, err
		}
		if l.Len() == 0 {
			return nil, rerr.E(rerr.Type, "empty path")
		}
		path := make(field.Path, 0, l.Len())
		for _, item := range l.Items {
			if item.Tag() != openrec.TagString {
				return nil, rerr.E(rerr.Type, "path element is %s, not a string", item.Tag())
			}
			s, err := pointable.String(item)
			if err != nil {
				return nil, err
			}
			path = append(path, s)
		}
		return path, nil
	}
	return nil, rerr.E(rerr.Type, "%s is not a string or an ordered list of strings", v.Tag())
}

func message(err error) string {
	if e, ok := err.(*rerr.Error); ok {
		return e.Message()
	}
	return err.Error()
}

// remove writes the record v without the fields m removes.  It returns the
// number of fields written and the number v had.
func (r *RemoveFields) remove(dst []byte, v pointable.Value, typ *openrec.TypeRecord, m *field.Matcher, trail *field.Trail, withTag bool) ([]byte, int, int, error) {
	depth := trail.Depth()
	if err := r.ectx.Config.CheckDepth(depth + 1); err != nil {
		return dst, 0, 0, err
	}
	rec, err := pointable.ParseRecord(v)
	if err != nil {
		return dst, 0, 0, err
	}
	b := r.builder(depth, typ)
	n := 0
	for _, f := range rec.Fields {
		t := trail.Push(f.Name)
		if !m.Keep(t) {
			continue
		}
		val := f.Value
		if val.IsRecord() && m.Descend(t) {
			sub := nestedType(typ, f.Name)
			out, kept, had, err := r.remove(r.buffer(depth+1), val, sub, m, t, false)
			if err != nil {
				return dst, 0, 0, err
			}
			r.keep(depth+1, out)
			if kept == 0 && had > 0 && r.ectx.Config.PruneEmpty && !typ.HasField(string(f.Name)) {
				continue
			}
			val = pointable.NewValue(sub, out)
		}
		if err := b.Add(f.Name, val); err != nil {
			return dst, 0, 0, err
		}
		n++
	}
	out, err := b.Write(dst, withTag)
	return out, n, rec.Len(), err
}
