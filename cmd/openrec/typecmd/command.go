package typecmd

import (
	"errors"
	"flag"
	"fmt"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/cmd/openrec/root"
	"github.com/brimdata/openrec/compiler/infer"
	"github.com/brimdata/openrec/pkg/charm"
	"github.com/brimdata/openrec/plan"
)

var Cmd = &charm.Spec{
	Name:  "type",
	Usage: "type [options] plan.yaml",
	Short: "print the output type of a plan",
	Long: `
The type command infers and prints the output type of the plan's operator
without evaluating any rows.  A second argument that is the same in every
row is treated as a constant unless the plan sets "dynamic: true".`,
	New: New,
}

func init() {
	root.Openrec.Add(Cmd)
}

type Command struct {
	*root.Command
	pruneEmpty bool
	args       bool
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.BoolVar(&c.pruneEmpty, "prune-empty", false, "infer types for an evaluator that drops records emptied by remove_fields")
	f.BoolVar(&c.args, "args", false, "also print the static type of each argument")
	return c, nil
}

func (c *Command) Run(args []string) error {
	_, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	if len(args) != 1 {
		return errors.New("type: a single plan file is required")
	}
	p, err := plan.Load(args[0])
	if err != nil {
		return err
	}
	typer, err := infer.NewTyper(openrec.NewContext(), 0)
	if err != nil {
		return err
	}
	typer.SetPruneEmpty(c.pruneEmpty)
	prog, err := p.Compile(typer)
	if err != nil {
		return err
	}
	if c.args {
		for k, arg := range prog.Args {
			constant := ""
			if arg.Const != nil {
				constant = " (constant)"
			}
			fmt.Printf("arg%d: %s%s\n", k+1, arg.Type, constant)
		}
	}
	fmt.Println(prog.Out)
	return nil
}
