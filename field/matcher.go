package field

// Matcher decides which fields of a walk to remove.  A bare name matches
// a top-level field only and a path of length k matches only a trail of
// depth k whose names agree pairwise.  Depths are matched exactly: a path
// never matches a trail that is shallower or deeper than it, so a field
// named by a shorter path is not pruned on behalf of a longer one.
type Matcher struct {
	targets List
}

func NewMatcher(targets List) *Matcher {
	return &Matcher{targets: targets}
}

func (m *Matcher) Targets() List {
	return m.targets
}

// Keep returns false iff the field at t is named by a target.
func (m *Matcher) Keep(t *Trail) bool {
	for _, p := range m.targets {
		if t.Is(p) {
			return false
		}
	}
	return true
}

// Descend returns true iff some target names a field strictly inside the
// field at t, i.e., the walk must look inside t.
func (m *Matcher) Descend(t *Trail) bool {
	for _, p := range m.targets {
		if t.Under(p) {
			return true
		}
	}
	return false
}
