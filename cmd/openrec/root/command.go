package root

import (
	"flag"

	"github.com/brimdata/openrec/cli"
	"github.com/brimdata/openrec/pkg/charm"
)

var Openrec = &charm.Spec{
	Name:  "openrec",
	Usage: "openrec <command> [options] [arguments...]",
	Short: "evaluate structural operators over open records",
	Long: `
openrec compiles and evaluates the structural record operators merge,
add_fields, remove_fields and deep_equal over rows described in a YAML plan.
See the eval command for the plan format.`,
	New: New,
}

type Command struct {
	charm.Command
	cli.Flags
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{}
	c.SetFlags(f)
	return c, nil
}

func (c *Command) Run(args []string) error {
	_, cancel, err := c.Init()
	if err != nil {
		return err
	}
	defer cancel()
	if len(args) == 0 {
		return charm.NeedHelp
	}
	return charm.ErrNoRun
}
