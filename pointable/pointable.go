package pointable

import (
	"github.com/brimdata/openrec"
)

// Pointable is a parsed view: a *Flat, *List or *Record.
type Pointable interface {
	View() Value
}

// Flat is a view of a scalar, null or missing value.
type Flat struct {
	Value
}

func (f *Flat) View() Value   { return f.Value }
func (l *List) View() Value   { return l.Value }
func (r *Record) View() Value { return r.Value }

// Of parses v according to its tag.
func Of(v Value) (Pointable, error) {
	switch v.Tag() {
	case openrec.TagRecord:
		return ParseRecord(v)
	case openrec.TagOrderedList, openrec.TagUnorderedList:
		return ParseList(v)
	}
	return &Flat{v}, nil
}
