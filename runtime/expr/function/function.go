// Package function implements the structural record operators merge,
// add_fields, remove_fields and deep_equal.  Each operator is bound to an
// evaluator context and to the output type computed for it by the
// compiler, and is called once per row.  Call appends exactly one tagged
// value to dst or returns an error for the row.
package function

import (
	"errors"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/pointable"
	"github.com/brimdata/openrec/rerr"
	"github.com/brimdata/openrec/runtime/expr"
	"go.uber.org/zap"
)

var (
	ErrNoSuchFunction = errors.New("no such function")
	ErrTooFewArgs     = errors.New("too few arguments")
	ErrTooManyArgs    = errors.New("too many arguments")
)

type Interface interface {
	Call(dst []byte, args []pointable.Value) ([]byte, error)
}

// New returns the operator called name.  out is the operator's output type
// as computed by the compiler; a nil out means the open record.
func New(ectx *expr.Context, name string, out openrec.Type, narg int) (Interface, error) {
	argmin := 2
	argmax := 2
	var f Interface
	switch name {
	default:
		return nil, ErrNoSuchFunction
	case "merge":
		f = NewMerge(ectx, outputRecord(out))
	case "add_fields":
		f = NewAddFields(ectx, outputRecord(out))
	case "remove_fields":
		f = NewRemoveFields(ectx, outputRecord(out))
	case "deep_equal":
		f = NewDeepEqual(ectx)
	}
	if argmin != -1 && narg < argmin {
		return nil, ErrTooFewArgs
	}
	if argmax != -1 && narg > argmax {
		return nil, ErrTooManyArgs
	}
	return &instrumented{name: name, narg: narg, ectx: ectx, fn: f}, nil
}

// Names returns the names New accepts.
func Names() []string {
	return []string{"merge", "add_fields", "remove_fields", "deep_equal"}
}

// outputRecord returns the record type an operator builds for out.
func outputRecord(out openrec.Type) *openrec.TypeRecord {
	if out == nil {
		return openrec.TypeOpenRecord
	}
	if typ := openrec.TypeRecordOf(out); typ != nil {
		return typ
	}
	return openrec.TypeOpenRecord
}

type instrumented struct {
	name string
	narg int
	ectx *expr.Context
	fn   Interface
}

func (i *instrumented) Call(dst []byte, args []pointable.Value) ([]byte, error) {
	i.ectx.Metrics.Row(i.name)
	if len(args) != i.narg {
		return dst, rerr.E(rerr.Type, "%s: called with %d arguments, compiled for %d", i.name, len(args), i.narg)
	}
	out, err := i.fn.Call(dst, args)
	if err != nil {
		i.ectx.Metrics.Error(i.name, err)
		i.ectx.Logger.Debug("row failed",
			zap.String("op", i.name),
			zap.String("kind", rerr.KindOf(err).Name()),
			zap.Error(err))
		return dst, err
	}
	return out, nil
}

// unknown returns the tag of the first missing argument, or failing that
// the first null argument, and true; or false if every argument is known.
func unknown(args ...pointable.Value) (openrec.Tag, bool) {
	null := false
	for _, arg := range args {
		switch arg.Tag() {
		case openrec.TagMissing:
			return openrec.TagMissing, true
		case openrec.TagNull:
			null = true
		}
	}
	if null {
		return openrec.TagNull, true
	}
	return 0, false
}

func badarg(op string, k int, v pointable.Value, want string) error {
	return rerr.E(rerr.Type, "%s: argument %d is %s, not %s", op, k+1, v.Tag(), want)
}

// ReadOutput views the tagged output of an operator whose output type is
// out.  Records are viewed with the record type the operator built them
// with.
func ReadOutput(b []byte, out openrec.Type) (pointable.Value, error) {
	v, err := pointable.Read(b)
	if err != nil {
		return v, err
	}
	if v.IsRecord() {
		v.Type = outputRecord(out)
	}
	return v, nil
}
