package charm

import (
	"flag"
	"fmt"
	"io"
)

// instance pairs a command constructed from a Spec with the flag set it
// registered its flags on.
type instance struct {
	spec    *Spec
	command Command
	flags   *flag.FlagSet
}

func newInstance(parent Command, spec *Spec) (*instance, error) {
	if spec.New == nil {
		return nil, fmt.Errorf("charm: spec %q has no constructor", spec.Name)
	}
	fs := flag.NewFlagSet(spec.Name, flag.ContinueOnError)
	// Parse errors are returned, and help is formatted by displayHelp.
	fs.SetOutput(io.Discard)
	cmd, err := spec.New(parent, fs)
	if err != nil {
		return nil, err
	}
	return &instance{spec: spec, command: cmd, flags: fs}, nil
}

// options lists the instance's flags one per line for help output.  Hidden
// flags are shown bracketed when vflag is set and omitted otherwise.
func (i *instance) options(vflag bool) []string {
	hidden := flagMap(i.spec.HiddenFlags)
	var lines []string
	i.flags.VisitAll(func(f *flag.Flag) {
		if hidden[f.Name] && !vflag {
			return
		}
		lines = append(lines, flagLine(f, hidden[f.Name]))
	})
	return lines
}

func flagLine(f *flag.Flag, hidden bool) string {
	name := "-" + f.Name
	if hidden {
		name = "[" + name + "]"
	}
	switch f.DefValue {
	case "", "false", "0":
		return name + " " + f.Usage
	}
	return fmt.Sprintf("%s %s (default %q)", name, f.Usage, f.DefValue)
}
