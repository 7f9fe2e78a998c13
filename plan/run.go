package plan

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/brimdata/openrec/pointable"
	"github.com/brimdata/openrec/rerr"
	"github.com/brimdata/openrec/rowio"
	"github.com/brimdata/openrec/runtime/expr"
	"github.com/brimdata/openrec/runtime/expr/function"
	"github.com/brimdata/openrec/yamlval"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Result is the outcome of one row.  Exactly one of Value and Err is set.
type Result struct {
	Row   int
	Value pointable.Value
	Err   error
}

// Run evaluates the program over its rows in conf.Partitions partitions of
// consecutive rows, one evaluator per partition, and returns the results in
// row order.  With OnErrorAbort the first failed row stops every partition
// and Run returns the errors of the partitions that failed.
func (p *Program) Run(ctx context.Context, logger *zap.Logger, conf Config, metrics *expr.Metrics) ([]Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make([]Result, len(p.Rows))
	nparts := conf.Partitions
	if nparts < 1 {
		nparts = 1
	}
	if nparts > len(p.Rows) {
		nparts = len(p.Rows)
	}
	errs := make([]error, nparts)
	group, gctx := errgroup.WithContext(ctx)
	for k := 0; k < nparts; k++ {
		k := k
		lo := k * len(p.Rows) / nparts
		hi := (k + 1) * len(p.Rows) / nparts
		group.Go(func() error {
			ectx := expr.NewContext(logger.With(zap.Int("partition", k)), conf.Evaluator, metrics)
			errs[k] = p.runPartition(gctx, ectx, conf.OnError, results, lo, hi)
			return errs[k]
		})
	}
	// Every partition error is in errs.
	_ = group.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var err error
	for _, e := range errs {
		// A partition stopped by another partition's failure reports
		// context.Canceled, which adds nothing.
		if e != nil && !errors.Is(e, context.Canceled) {
			err = multierr.Append(err, e)
		}
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Program) runPartition(ctx context.Context, ectx *expr.Context, onError OnError, results []Result, lo, hi int) error {
	fn, err := function.New(ectx, p.Op, p.Out, 2)
	if err != nil {
		return err
	}
	ectx.Logger.Debug("partition started", zap.Int("first", lo), zap.Int("rows", hi-lo))
	var buf []byte
	for row := lo; row < hi; row++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		results[row].Row = row
		buf, err = fn.Call(buf[:0], p.Rows[row])
		if err == nil {
			var out pointable.Value
			if out, err = function.ReadOutput(slices.Clone(buf), p.Out); err == nil {
				results[row].Value = out
				continue
			}
		}
		err = fmt.Errorf("row %d: %w", row+1, err)
		if onError == OnErrorAbort {
			return err
		}
		ectx.Logger.Info("row skipped", zap.Int("row", row+1), zap.Error(err))
		results[row].Err = err
	}
	return nil
}

// Marshal renders results as a YAML sequence in row order.  A failed row
// appears as a mapping with its error kind and message.
func Marshal(results []Result) ([]byte, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, r := range results {
		if r.Err != nil {
			seq.Content = append(seq.Content, errorNode(r.Err))
			continue
		}
		node, err := yamlval.NodeOf(r.Value)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r.Row+1, err)
		}
		seq.Content = append(seq.Content, node)
	}
	return yaml.Marshal(seq)
}

func errorNode(err error) *yaml.Node {
	str := func(s string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	}
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
		Content: []*yaml.Node{
			str("error"), str(rerr.KindOf(err).Name()),
			str("message"), str(err.Error()),
		},
	}
}

// WriteBinary writes results as a rowio stream in row order.  A failed row
// is written as the missing value so rows keep their positions.
func WriteBinary(w io.Writer, results []Result, opts rowio.WriterOpts) error {
	writer := rowio.NewWriter(w, opts)
	for _, r := range results {
		v := r.Value
		if r.Err != nil {
			v = pointable.Missing
		}
		if err := writer.Write(v); err != nil {
			return fmt.Errorf("row %d: %w", r.Row+1, err)
		}
	}
	return writer.Close()
}
