// Package field names fields inside nested records.  A Path is a static
// sequence of names from the outermost record inward; a Trail is the
// dynamic position of a field during a walk, innermost name first.
package field

import (
	"strings"

	"golang.org/x/exp/slices"
)

type Path []string

func New(name string) Path {
	return Path{name}
}

func (p Path) String() string {
	return strings.Join(p, ".")
}

func (p Path) Leaf() string {
	return p[len(p)-1]
}

func (p Path) Equal(to Path) bool {
	return slices.Equal(p, to)
}

// IsBare returns true iff p names a top-level field.
func (p Path) IsBare() bool {
	return len(p) == 1
}

func (p Path) HasStrictPrefix(prefix Path) bool {
	return len(p) > len(prefix) && prefix.Equal(p[:len(prefix)])
}

func (p Path) HasPrefix(prefix Path) bool {
	return len(p) >= len(prefix) && prefix.Equal(p[:len(prefix)])
}

func (p Path) In(list List) bool {
	return list.Has(p)
}

func Dotted(s string) Path {
	return strings.Split(s, ".")
}

func DottedList(s string) List {
	var paths List
	for _, name := range strings.Split(s, ",") {
		paths = append(paths, Dotted(name))
	}
	return paths
}

type List []Path

func (l List) String() string {
	names := make([]string, 0, len(l))
	for _, p := range l {
		names = append(names, p.String())
	}
	return strings.Join(names, ",")
}

func (l List) Has(in Path) bool {
	for _, p := range l {
		if p.Equal(in) {
			return true
		}
	}
	return false
}

func (l List) Equal(to List) bool {
	return slices.EqualFunc(l, to, Path.Equal)
}
