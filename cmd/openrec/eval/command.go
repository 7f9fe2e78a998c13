package eval

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/cli/logflags"
	"github.com/brimdata/openrec/cmd/openrec/root"
	"github.com/brimdata/openrec/compiler/infer"
	"github.com/brimdata/openrec/pkg/charm"
	"github.com/brimdata/openrec/pkg/fs"
	"github.com/brimdata/openrec/pkg/logger"
	"github.com/brimdata/openrec/pkg/plural"
	"github.com/brimdata/openrec/plan"
	"github.com/brimdata/openrec/rowio"
	"github.com/brimdata/openrec/runtime/expr"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var Cmd = &charm.Spec{
	Name:  "eval",
	Usage: "eval [options] plan.yaml",
	Short: "evaluate the rows of a plan",
	Long: `
The eval command infers the output type of the plan's operator and applies
the operator to each row of the plan, printing the outputs as a YAML
sequence in row order.

A plan is a YAML document with an "op" (merge, add_fields, remove_fields or
deep_equal), an optional "types" list giving the static type of each
argument, and "rows", a list of two-element argument lists.

With -f bin the outputs are written as a stream of LZ4-framed binary
values (see "openrec inspect -i bin"), with a failed row written as the
missing value.

The -c flag names a YAML configuration file with the keys logger,
partitions, on_error (skip or abort), cache_size, and evaluator
(prune_empty, max_depth).  Flags given on the command line override the
file.`,
	New: New,
}

func init() {
	root.Openrec.Add(Cmd)
}

type Command struct {
	*root.Command
	flags      *flag.FlagSet
	logFlags   logflags.Flags
	configPath string
	partitions int
	onError    plan.OnError
	pruneEmpty bool
	stats      bool
	outPath    string
	format     string
	compress   bool
	frameSize  string
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command), flags: f}
	c.logFlags.SetFlags(f)
	f.StringVar(&c.configPath, "c", "", "path of YAML configuration file")
	f.IntVar(&c.partitions, "P", 0, "number of partitions evaluated concurrently (default from config, else 1)")
	f.Var(&c.onError, "on-error", "what to do with a failed row (values: skip, abort)")
	f.BoolVar(&c.pruneEmpty, "prune-empty", false, "drop records emptied by remove_fields")
	f.BoolVar(&c.stats, "s", false, "print row and error counts to stderr")
	f.StringVar(&c.outPath, "o", "", "write results to file instead of stdout")
	f.StringVar(&c.format, "f", "yaml", "format for results (values: yaml, bin)")
	f.BoolVar(&c.compress, "z", false, "LZ4-compress frames of bin output")
	f.StringVar(&c.frameSize, "frame", "512KiB", "target frame size of bin output, as '64KiB' or '1MB'")
	return c, nil
}

func (c *Command) Run(args []string) error {
	ctx, cleanup, err := c.Init()
	if err != nil {
		return err
	}
	defer cleanup()
	if len(args) != 1 {
		return errors.New("eval: a single plan file is required")
	}
	conf, err := c.config()
	if err != nil {
		return err
	}
	zlog, err := logger.New(conf.Logger)
	if err != nil {
		return err
	}
	defer zlog.Sync()
	p, err := plan.Load(args[0])
	if err != nil {
		return err
	}
	typer, err := infer.NewTyper(openrec.NewContext(), conf.CacheSize)
	if err != nil {
		return err
	}
	typer.SetPruneEmpty(conf.Evaluator.PruneEmpty)
	prog, err := p.Compile(typer)
	if err != nil {
		return err
	}
	zlog.Info("plan compiled", zap.String("op", prog.Op), zap.Stringer("type", prog.Out), zap.Int("rows", len(prog.Rows)))
	registry := prometheus.NewRegistry()
	results, err := prog.Run(ctx, zlog, conf, expr.NewMetrics(registry))
	if err != nil {
		return err
	}
	b, err := c.encode(results)
	if err != nil {
		return err
	}
	if c.outPath != "" {
		err = fs.WriteFile(c.outPath, b, 0644)
	} else {
		_, err = os.Stdout.Write(b)
	}
	if err != nil {
		return err
	}
	if n := failed(results); n > 0 {
		fmt.Fprintf(os.Stderr, "%d of %s failed\n", n, plural.Of(len(results), "row"))
	}
	if c.stats {
		return writeStats(os.Stderr, registry)
	}
	return nil
}

// config merges the configuration file with the flags that were set.
func (c *Command) config() (plan.Config, error) {
	conf := plan.DefaultConfig()
	if c.configPath != "" {
		var err error
		if conf, err = plan.LoadConfig(c.configPath); err != nil {
			return conf, err
		}
	}
	c.logFlags.Override(c.flags, &conf.Logger)
	if c.partitions > 0 {
		conf.Partitions = c.partitions
	}
	if c.onError != "" {
		conf.OnError = c.onError
	}
	if c.pruneEmpty {
		conf.Evaluator.PruneEmpty = true
	}
	return conf, conf.Validate()
}

func (c *Command) encode(results []plan.Result) ([]byte, error) {
	switch c.format {
	case "yaml":
		return plan.Marshal(results)
	case "bin":
		thresh, err := rowio.ParseFrameThresh(c.frameSize)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		err = plan.WriteBinary(&buf, results, rowio.WriterOpts{Compress: c.compress, FrameThresh: thresh})
		return buf.Bytes(), err
	}
	return nil, fmt.Errorf("unknown output format: %s", c.format)
}

func failed(results []plan.Result) int {
	var n int
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
