package builder

import (
	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/layout"
	"github.com/brimdata/openrec/pointable"
	"github.com/brimdata/openrec/rerr"
)

// ListBuilder serializes an ordered or unordered list.  Items of a list
// whose item type has a fixed tag and admits no null are written untagged;
// all other items are tagged and self-describing.
type ListBuilder struct {
	typ     *openrec.TypeList
	itemTag openrec.Tag
	arena   []byte
	items   []span
	cast    caster
}

func NewListBuilder(typ *openrec.TypeList) *ListBuilder {
	b := &ListBuilder{}
	b.Reset(typ)
	return b
}

func (b *ListBuilder) Reset(typ *openrec.TypeList) {
	b.typ = typ
	b.itemTag = ItemTag(typ.Item)
	b.Init()
}

func (b *ListBuilder) Init() {
	b.arena = b.arena[:0]
	b.items = b.items[:0]
}

func (b *ListBuilder) Type() *openrec.TypeList {
	return b.typ
}

func (b *ListBuilder) Len() int {
	return len(b.items)
}

// ItemTag returns the item tag written for lists with item type typ.
func ItemTag(typ openrec.Type) openrec.Tag {
	if openrec.HasFixedTag(typ) && !openrec.AdmitsNull(typ) {
		return typ.Tag()
	}
	return openrec.TagAny
}

func (b *ListBuilder) AddItem(v pointable.Value) error {
	off := len(b.arena)
	var err error
	if b.itemTag == openrec.TagAny {
		b.arena, err = b.cast.appendAs(b.arena, v, openrec.TypeAny, true)
	} else {
		if v.IsUnknown() {
			return rerr.E(rerr.Type, "%s item in list of %s", v.Tag(), b.typ.Item)
		}
		b.arena, err = b.cast.appendAs(b.arena, v, b.typ.Item, false)
	}
	if err != nil {
		b.arena = b.arena[:off]
		return rerr.E(rerr.KindOf(err), "item %d: %s", len(b.items), message(err))
	}
	b.items = append(b.items, span{off, len(b.arena)})
	return nil
}

func message(err error) string {
	if e, ok := err.(*rerr.Error); ok {
		return e.Message()
	}
	return err.Error()
}

// Write appends the list to dst, with its tag if withTag is true.
func (b *ListBuilder) Write(dst []byte, withTag bool) ([]byte, error) {
	if withTag {
		dst = append(dst, byte(b.typ.Tag()))
	}
	start := len(dst)
	dst = append(dst, byte(b.itemTag))
	dst = layout.AppendUint32(dst, 0)
	dst = layout.AppendUint32(dst, uint32(len(b.items)))
	fixed := false
	if b.itemTag != openrec.TagAny {
		_, fixed = layout.FixedSize(b.itemTag)
	}
	if fixed {
		dst = append(dst, b.arena...)
	} else {
		table := len(dst)
		for range b.items {
			dst = layout.AppendUint32(dst, 0)
		}
		for k, s := range b.items {
			layout.PutUint32(dst, table+k*layout.OffsetSize, uint32(len(dst)-start))
			dst = append(dst, b.arena[s.off:s.end]...)
		}
	}
	layout.PutUint32(dst, start+layout.ItemTagSize, uint32(len(dst)-start))
	return dst, nil
}

func (b *ListBuilder) Encode() (pointable.Value, error) {
	body, err := b.Write(nil, false)
	if err != nil {
		return pointable.Value{}, err
	}
	return pointable.NewValue(b.typ, body), nil
}
