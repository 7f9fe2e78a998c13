package field

// Trail is the position of a field during a walk of nested records: its
// own name followed by the names of its enclosing fields.  Trails are
// immutable; Push returns a new trail and leaves the receiver unchanged,
// so sibling walks never see each other's names.  The nil Trail is the
// top-level record.
type Trail struct {
	name   []byte
	parent *Trail
	depth  int
}

// Push returns the trail of the field name nested in t.
func (t *Trail) Push(name []byte) *Trail {
	return &Trail{name: name, parent: t, depth: t.Depth() + 1}
}

func (t *Trail) Depth() int {
	if t == nil {
		return 0
	}
	return t.depth
}

// Name returns the innermost name of t.
func (t *Trail) Name() []byte {
	return t.name
}

func (t *Trail) Parent() *Trail {
	return t.parent
}

// Path returns t as a Path, outermost name first.
func (t *Trail) Path() Path {
	p := make(Path, t.Depth())
	for k := len(p) - 1; t != nil; k, t = k-1, t.parent {
		p[k] = string(t.name)
	}
	return p
}

// Is returns true iff t names exactly the field at path p.
func (t *Trail) Is(p Path) bool {
	if len(p) != t.Depth() {
		return false
	}
	for k := len(p) - 1; t != nil; k, t = k-1, t.parent {
		if string(t.name) != p[k] {
			return false
		}
	}
	return true
}

// Under returns true iff p names a field strictly inside the field at t.
func (t *Trail) Under(p Path) bool {
	depth := t.Depth()
	if len(p) <= depth {
		return false
	}
	for k := depth - 1; t != nil; k, t = k-1, t.parent {
		if string(t.name) != p[k] {
			return false
		}
	}
	return true
}

func (t *Trail) String() string {
	return t.Path().String()
}
