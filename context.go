package openrec

import (
	"fmt"
	"sync"
)

// IDFirstComplex is the first ID a Context hands out.  IDs below it are
// reserved for the types identified by their tag.
const IDFirstComplex = 64

// A Context is the factory for the complex types of one compilation.  It
// gives every type it creates a unique ID and, for records created without
// a name, a generated name.  Types are never deduplicated: each call
// returns a new Type, so a derived schema never aliases its inputs.
type Context struct {
	mu    sync.RWMutex
	table []Type
}

func NewContext() *Context {
	return &Context{}
}

func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.table)
}

func (c *Context) LookupType(id int) (Type, error) {
	if id < IDFirstComplex {
		if typ := LookupPrimitiveByTag(Tag(id)); typ != nil {
			return typ, nil
		}
		return nil, fmt.Errorf("no type found for id %d", id)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	k := id - IDFirstComplex
	if k >= len(c.table) {
		return nil, fmt.Errorf("id %d out of range for table of size %d", id, len(c.table))
	}
	return c.table[k], nil
}

func (c *Context) nextIDWithLock() int {
	return IDFirstComplex + len(c.table)
}

// NewTypeRecord returns a new record type.  If name is empty, a name is
// generated from the type's ID.
func (c *Context) NewTypeRecord(name string, fields []Field, open bool) (*TypeRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextIDWithLock()
	if name == "" {
		name = fmt.Sprintf("record%d", id)
	}
	typ, err := NewTypeRecord(id, name, fields, open)
	if err != nil {
		return nil, err
	}
	c.table = append(c.table, typ)
	return typ, nil
}

func (c *Context) MustNewTypeRecord(name string, fields []Field, open bool) *TypeRecord {
	typ, err := c.NewTypeRecord(name, fields, open)
	if err != nil {
		panic(err)
	}
	return typ
}

func (c *Context) NewTypeList(ordered bool, item Type) *TypeList {
	c.mu.Lock()
	defer c.mu.Unlock()
	typ := NewTypeList(c.nextIDWithLock(), ordered, item)
	c.table = append(c.table, typ)
	return typ
}

func (c *Context) NewTypeUnion(types []Type) *TypeUnion {
	c.mu.Lock()
	defer c.mu.Unlock()
	typ := NewTypeUnion(c.nextIDWithLock(), types)
	c.table = append(c.table, typ)
	return typ
}

// NewNullable is like the package-level NewNullable but registers the
// union it creates.
func (c *Context) NewNullable(typ Type) Type {
	if typ == TypeNull || typ == TypeAny || IsNullable(typ) {
		return typ
	}
	return c.NewTypeUnion([]Type{typ, TypeNull})
}
