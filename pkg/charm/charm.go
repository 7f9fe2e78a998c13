// Package charm is a minimalist CLI framework inspired by cobra and
// urfave/cli.  A tree of Specs describes the commands; each command gets
// its own flag set, and the flags of every command along the path from
// the root may appear before the sub-command that follows it.
package charm

import (
	"errors"
	"flag"
)

var (
	NeedHelp = errors.New("help")
	ErrNoRun = errors.New("no run method")
)

type Constructor func(Command, *flag.FlagSet) (Command, error)

type Command interface {
	Run([]string) error
}

type Spec struct {
	Name  string
	Usage string
	Short string
	Long  string
	New   Constructor
	// Hidden hides this command from help.
	Hidden bool
	// HiddenFlags (comma-separated) marks these flags as hidden.
	HiddenFlags string
	children    []*Spec
	parent      *Spec
}

func (s *Spec) Add(child *Spec) {
	s.children = append(s.children, child)
	child.parent = s
}

func (s *Spec) Root() *Spec {
	for s.parent != nil {
		s = s.parent
	}
	return s
}

func (s *Spec) lookupSub(name string) *Spec {
	for _, child := range s.children {
		if name == child.Name {
			return child
		}
	}
	return nil
}

// ExecRoot parses args against the command tree rooted at s and runs the
// command they select.  A "-h" flag or a NeedHelp error from a command
// prints help for the selected command instead.
func (s *Spec) ExecRoot(args []string) error {
	p, rest, err := parse(s, args)
	if err == nil {
		err = p.run(rest)
	}
	if errors.Is(err, NeedHelp) || errors.Is(err, flag.ErrHelp) {
		p, herr := parseHelp(s, args)
		if herr != nil {
			return herr
		}
		displayHelp(p, false)
		return nil
	}
	return err
}
