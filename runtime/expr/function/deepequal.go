package function

import (
	"bytes"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/pointable"
	"github.com/brimdata/openrec/runtime/expr"
)

// DeepEqual compares two values structurally.  Values of different tags
// are never equal.  Records are equal when they have the same field names
// with equal values in any order, ordered lists when their items are equal
// pairwise, and unordered lists when their items are equal as multisets.
type DeepEqual struct {
	ectx *expr.Context
}

func NewDeepEqual(ectx *expr.Context) *DeepEqual {
	return &DeepEqual{ectx}
}

func (d *DeepEqual) Call(dst []byte, args []pointable.Value) ([]byte, error) {
	if tag, ok := unknown(args[0], args[1]); ok {
		return append(dst, byte(tag)), nil
	}
	eq, err := d.Equal(args[0], args[1])
	if err != nil {
		return dst, err
	}
	return openrec.AppendBool(append(dst, byte(openrec.TagBoolean)), eq), nil
}

func (d *DeepEqual) Equal(a, b pointable.Value) (bool, error) {
	return d.equal(a, b, 0)
}

func (d *DeepEqual) equal(a, b pointable.Value, depth int) (bool, error) {
	tag := a.Tag()
	if tag != b.Tag() {
		return false, nil
	}
	if sameLayout(a.Type, b.Type) && bytes.Equal(a.Bytes, b.Bytes) {
		return true, nil
	}
	switch {
	case tag == openrec.TagRecord:
		if err := d.ectx.Config.CheckDepth(depth + 1); err != nil {
			return false, err
		}
		return d.equalRecords(a, b, depth)
	case tag.IsList():
		if err := d.ectx.Config.CheckDepth(depth + 1); err != nil {
			return false, err
		}
		return d.equalLists(a, b, depth)
	case tag.IsInteger():
		x, err := pointable.Int(a)
		if err != nil {
			return false, err
		}
		y, err := pointable.Int(b)
		return err == nil && x == y, err
	case tag.IsFloat():
		x, err := pointable.Float(a)
		if err != nil {
			return false, err
		}
		y, err := pointable.Float(b)
		return err == nil && x == y, err
	case tag == openrec.TagBoolean:
		x, err := pointable.Bool(a)
		if err != nil {
			return false, err
		}
		y, err := pointable.Bool(b)
		return err == nil && x == y, err
	case tag == openrec.TagString, tag == openrec.TagBinary:
		x, err := pointable.Bytes(a)
		if err != nil {
			return false, err
		}
		y, err := pointable.Bytes(b)
		return err == nil && bytes.Equal(x, y), err
	}
	// Null and missing.
	return true, nil
}

// sameLayout returns true iff identical bytes under types a and b imply
// identical values.
func sameLayout(a, b openrec.Type) bool {
	return a == b || openrec.SameType(a, b) || openrec.IsSelfDescribing(a) && openrec.IsSelfDescribing(b)
}

func (d *DeepEqual) equalRecords(a, b pointable.Value, depth int) (bool, error) {
	ra, err := pointable.ParseRecord(a)
	if err != nil {
		return false, err
	}
	rb, err := pointable.ParseRecord(b)
	if err != nil {
		return false, err
	}
	if ra.Len() != rb.Len() {
		return false, nil
	}
	for _, f := range ra.Fields {
		g, ok := rb.Lookup(f.Name)
		if !ok {
			return false, nil
		}
		if eq, err := d.equal(f.Value, g.Value, depth+1); !eq || err != nil {
			return false, err
		}
	}
	return true, nil
}

func (d *DeepEqual) equalLists(a, b pointable.Value, depth int) (bool, error) {
	la, err := pointable.ParseList(a)
	if err != nil {
		return false, err
	}
	lb, err := pointable.ParseList(b)
	if err != nil {
		return false, err
	}
	if la.Len() != lb.Len() {
		return false, nil
	}
	if la.Ordered() {
		for k, item := range la.Items {
			if eq, err := d.equal(item, lb.Items[k], depth+1); !eq || err != nil {
				return false, err
			}
		}
		return true, nil
	}
	// Match each item of a with a distinct equal item of b.
	used := make([]bool, lb.Len())
	for _, item := range la.Items {
		found := false
		for k, other := range lb.Items {
			if used[k] {
				continue
			}
			eq, err := d.equal(item, other, depth+1)
			if err != nil {
				return false, err
			}
			if eq {
				used[k], found = true, true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	return true, nil
}
