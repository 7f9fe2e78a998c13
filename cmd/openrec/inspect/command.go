package inspect

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/cmd/openrec/root"
	"github.com/brimdata/openrec/compiler/infer"
	"github.com/brimdata/openrec/pkg/charm"
	"github.com/brimdata/openrec/plan"
	"github.com/brimdata/openrec/rowio"
)

var Cmd = &charm.Spec{
	Name:  "inspect",
	Usage: "inspect [options] file",
	Short: "dump the binary layout of values",
	Long: `
The inspect command serializes the arguments of one row of a plan and
prints, for each argument, a breakdown of its record or list headers
followed by a hex dump of its bytes.

With "-i bin" the file is instead a binary stream written by
"openrec eval -f bin" and every value in it is dumped.`,
	New: New,
}

func init() {
	root.Openrec.Add(Cmd)
}

type Command struct {
	*root.Command
	row    int
	format string
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.IntVar(&c.row, "row", 1, "row of the plan to inspect")
	f.StringVar(&c.format, "i", "plan", "format of input file (values: plan, bin)")
	return c, nil
}

func (c *Command) Run(args []string) error {
	_, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	if len(args) != 1 {
		return errors.New("inspect: a single file is required")
	}
	switch c.format {
	case "plan":
		return c.inspectPlan(args[0])
	case "bin":
		return inspectStream(os.Stdout, args[0])
	}
	return fmt.Errorf("inspect: unknown input format: %s", c.format)
}

func (c *Command) inspectPlan(path string) error {
	p, err := plan.Load(path)
	if err != nil {
		return err
	}
	typer, err := infer.NewTyper(openrec.NewContext(), 0)
	if err != nil {
		return err
	}
	prog, err := p.Compile(typer)
	if err != nil {
		return err
	}
	if c.row < 1 || c.row > len(prog.Rows) {
		return fmt.Errorf("inspect: plan has no row %d", c.row)
	}
	for k, v := range prog.Rows[c.row-1] {
		fmt.Printf("arg%d: %s\n", k+1, v.Type)
		if err := Dump(os.Stdout, v); err != nil {
			return err
		}
	}
	return nil
}

func inspectStream(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	r := rowio.NewReader(f)
	for k := 1; ; k++ {
		v, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("value %d: %w", k, err)
		}
		fmt.Fprintf(w, "value%d:\n", k)
		if err := Dump(w, v); err != nil {
			return err
		}
	}
}
