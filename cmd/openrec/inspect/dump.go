package inspect

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/layout"
	"github.com/brimdata/openrec/pointable"
)

// Dump writes the header breakdown and a hex dump of the body of v.  The
// offsets shown are relative to the start of the body, as are the offsets
// stored in the headers.
func Dump(w io.Writer, v pointable.Value) error {
	fmt.Fprintf(w, "  %-16s %s\n", "tag", v.Tag())
	var err error
	switch {
	case v.IsRecord():
		err = dumpRecord(w, v)
	case v.IsList():
		err = dumpList(w, v)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, hex.Dump(v.Bytes))
	return err
}

func line(w io.Writer, what string, off int, format string, args ...interface{}) {
	fmt.Fprintf(w, "  %-16s %#06x  %s\n", what, off, fmt.Sprintf(format, args...))
}

func dumpRecord(w io.Writer, v pointable.Value) error {
	r, err := pointable.ParseRecord(v)
	if err != nil {
		return err
	}
	b := r.Bytes
	line(w, "length", 0, "%d", len(b))
	pos := layout.LengthSize
	openOff := 0
	if r.Type.Open {
		line(w, "expanded", pos, "%t", r.Expanded)
		pos += layout.ExpandedSize
		if r.Expanded {
			openOff, _ = layout.Offset(b, pos, len(b))
			line(w, "open part", pos, "offset %d", openOff)
			pos += layout.OffsetSize
		}
	}
	if n := r.NumClosed(); n > 0 {
		line(w, "closed fields", pos, "%d", n)
		pos += layout.CountSize
		if r.Type.HasNullable() {
			size := layout.NullBitmapSize(n)
			line(w, "null bitmap", pos, "%x", b[pos:pos+size])
			pos += size
		}
		for k, f := range r.Fields[:n] {
			at := pos + k*layout.OffsetSize
			if f.Value.IsNull() && openrec.IsNullable(r.Type.Fields[k].Type) {
				line(w, "field "+string(f.Name), at, "null")
				continue
			}
			off, _ := layout.Offset(b, at, len(b))
			line(w, "field "+string(f.Name), at, "offset %d %s", off, f.Value.Tag())
		}
	}
	if r.Expanded {
		open := r.Open()
		line(w, "open fields", openOff, "%d", len(open))
		table := openOff + layout.CountSize
		for j, f := range open {
			at := table + j*layout.OpenEntrySize
			off, _ := layout.Offset(b, at+layout.HashSize, len(b))
			line(w, "open "+string(f.Name), at, "hash %#08x offset %d %s", f.Hash, off, f.Value.Tag())
		}
	}
	return nil
}

func dumpList(w io.Writer, v pointable.Value) error {
	l, err := pointable.ParseList(v)
	if err != nil {
		return err
	}
	line(w, "item tag", 0, "%s", l.ItemTag)
	line(w, "length", layout.ItemTagSize, "%d", len(l.Bytes))
	line(w, "items", layout.ItemTagSize+layout.LengthSize, "%d", l.Len())
	if _, ok := layout.FixedSize(l.ItemTag); ok && l.ItemTag != openrec.TagAny {
		return nil
	}
	for k := 0; k < l.Len(); k++ {
		at := layout.ListHeaderSize + k*layout.OffsetSize
		off, _ := layout.Offset(l.Bytes, at, len(l.Bytes))
		line(w, fmt.Sprintf("item %d", k), at, "offset %d %s", off, l.Items[k].Tag())
	}
	return nil
}
