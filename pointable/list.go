package pointable

import (
	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/layout"
	"github.com/brimdata/openrec/rerr"
)

// List is a parsed ordered or unordered list.
type List struct {
	Value
	// Type is the list type the items were read with.  When the declared
	// item type disagrees with the serialized item tag, the items are read
	// with the default type for that tag.
	Type    *openrec.TypeList
	ItemTag openrec.Tag
	Items   []Value
}

// ParseList parses the header of the list viewed by v.  The type of v must
// be a list type (or its nullable form).
func ParseList(v Value) (*List, error) {
	typ := openrec.TypeListOf(v.Type)
	if typ == nil {
		return nil, rerr.E(rerr.Type, "value of type %s is not a list", v.Type)
	}
	b := v.Bytes
	c, err := layout.Byte(b, 0)
	if err != nil {
		return nil, err
	}
	itemTag := openrec.Tag(c)
	if !itemTag.ValidItem() {
		return nil, rerr.E(rerr.Format, "bad list item tag %d", c)
	}
	length, err := layout.Offset(b, layout.ItemTagSize, len(b))
	if err != nil {
		return nil, err
	}
	if length < layout.ListHeaderSize {
		return nil, rerr.E(rerr.Format, "list length %d is too small", length)
	}
	b = b[:length:length]
	count, err := layout.Offset(b, layout.ItemTagSize+layout.LengthSize, length)
	if err != nil {
		return nil, err
	}
	l := &List{
		Type:    itemListType(typ, itemTag),
		ItemTag: itemTag,
		Items:   make([]Value, 0, count),
	}
	l.Value = Value{l.Type, b}
	pos := layout.ListHeaderSize
	if itemTag != openrec.TagAny {
		if size, ok := layout.FixedSize(itemTag); ok {
			if count*size > length-pos {
				return nil, rerr.E(rerr.Bounds, "%d items of %d bytes overrun list of length %d", count, size, length)
			}
			for k := 0; k < count; k++ {
				off := pos + k*size
				l.Items = append(l.Items, Value{l.Type.Item, b[off : off+size : off+size]})
			}
			return l, nil
		}
	}
	if count > (length-pos)/layout.OffsetSize {
		return nil, rerr.E(rerr.Bounds, "%d item offsets overrun list of length %d", count, length)
	}
	headerEnd := pos + count*layout.OffsetSize
	for k := 0; k < count; k++ {
		off, err := layout.Offset(b, pos+k*layout.OffsetSize, length)
		if err != nil {
			return nil, err
		}
		if off < headerEnd {
			return nil, rerr.E(rerr.Format, "item %d at offset %d lies inside the list header", k, off)
		}
		var item Value
		if itemTag == openrec.TagAny {
			item, _, err = ReadAt(b, off)
		} else {
			item, _, err = ReadBody(b, off, l.Type.Item)
		}
		if err != nil {
			return nil, err
		}
		l.Items = append(l.Items, item)
	}
	return l, nil
}

// itemListType returns the list type whose items are read with itemTag.
func itemListType(declared *openrec.TypeList, itemTag openrec.Tag) *openrec.TypeList {
	if itemTag == openrec.TagAny {
		if !openrec.HasFixedTag(declared.Item) {
			return declared
		}
		return listOfAny(declared.Ordered)
	}
	if item := openrec.NonNull(declared.Item); openrec.HasFixedTag(item) && item.Tag() == itemTag {
		if item == declared.Item {
			return declared
		}
		return openrec.NewTypeList(-1, declared.Ordered, item)
	}
	return openrec.NewTypeList(-1, declared.Ordered, openrec.DefaultType(itemTag))
}

func listOfAny(ordered bool) *openrec.TypeList {
	if ordered {
		return openrec.TypeOrderedListOfAny
	}
	return openrec.TypeUnorderedListOfAny
}

func (l *List) Len() int {
	return len(l.Items)
}

func (l *List) Ordered() bool {
	return l.Type.Ordered
}

// ItemTags returns the tag of each item.  For a list whose item tag is not
// any, every entry is that tag.
func (l *List) ItemTags() []openrec.Tag {
	tags := make([]openrec.Tag, 0, len(l.Items))
	for _, item := range l.Items {
		tags = append(tags, item.Tag())
	}
	return tags
}
