// Package expr holds the state shared by the structural operators of one
// evaluator: its logger, configuration, metrics and a scratch allocator
// for intermediate values.  An evaluator, and hence a Context, is used by
// one goroutine at a time; run one per partition for parallelism.
package expr

import (
	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/pointable"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

type Context struct {
	ID      ksuid.KSUID
	Logger  *zap.Logger
	Config  Config
	Metrics *Metrics

	buf []byte
}

// NewContext returns an evaluator context.  A nil logger is replaced by a
// no-op logger and a nil metrics by one that records nothing.
func NewContext(logger *zap.Logger, config Config, metrics *Metrics) *Context {
	id := ksuid.New()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{
		ID:      id,
		Logger:  logger.With(zap.Stringer("evaluator", id)),
		Config:  config,
		Metrics: metrics,
	}
}

func DefaultContext() *Context {
	return NewContext(nil, DefaultConfig(), nil)
}

// NewValue copies b into the context's scratch space and returns a view of
// the copy.  The view is valid until the next Reset.
func (c *Context) NewValue(typ openrec.Type, b []byte) pointable.Value {
	// Preserve nil b and empty b.
	if len(b) > 0 {
		n := len(c.buf)
		c.buf = append(c.buf, b...)
		b = c.buf[n:len(c.buf):len(c.buf)]
	}
	return pointable.NewValue(typ, b)
}

func (c *Context) CopyValue(v pointable.Value) pointable.Value {
	return c.NewValue(v.Type, v.Bytes)
}

// Reset releases the scratch space.  Call it between rows.
func (c *Context) Reset() {
	c.buf = c.buf[:0]
}
