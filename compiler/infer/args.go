package infer

import (
	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/pointable"
	"github.com/brimdata/openrec/rerr"
	"github.com/brimdata/openrec/runtime/expr/function"
)

// Arg is what the compiler knows about one operator argument: its static
// type and, for a compile-time constant, its value.
type Arg struct {
	Type  openrec.Type
	Const *pointable.Value
}

func TypeArg(typ openrec.Type) Arg {
	return Arg{Type: typ}
}

func ConstArg(v pointable.Value) Arg {
	return Arg{Type: v.Type, Const: &v}
}

// FieldsArgOf returns the FieldsArg for arg.  The value type of a constant
// pair is the static type of its value.
func FieldsArgOf(arg Arg) (FieldsArg, error) {
	out := FieldsArg{Type: arg.Type}
	if arg.Const == nil || arg.Const.IsUnknown() {
		return out, nil
	}
	pairs, err := function.ParsePairs(*arg.Const)
	if err != nil {
		return out, err
	}
	for _, p := range pairs {
		out.Pairs = append(out.Pairs, openrec.NewField(string(p.Name), p.Value.Type))
	}
	out.Constant = true
	return out, nil
}

func PathsArgOf(arg Arg) (PathsArg, error) {
	out := PathsArg{Type: arg.Type}
	if arg.Const == nil || arg.Const.IsUnknown() {
		return out, nil
	}
	paths, err := function.ParsePaths(*arg.Const)
	if err != nil {
		return out, err
	}
	out.Paths = paths
	out.Constant = true
	return out, nil
}

// Infer returns the output type of the operator called name.
func (t *Typer) Infer(name string, args []Arg) (openrec.Type, error) {
	if len(args) < 2 {
		return nil, function.ErrTooFewArgs
	}
	if len(args) > 2 {
		return nil, function.ErrTooManyArgs
	}
	switch name {
	case "merge":
		return t.MergeType(args[0].Type, args[1].Type)
	case "add_fields":
		fa, err := FieldsArgOf(args[1])
		if err != nil {
			return nil, err
		}
		return t.AddFieldsType(args[0].Type, fa)
	case "remove_fields":
		pa, err := PathsArgOf(args[1])
		if err != nil {
			return nil, err
		}
		return t.RemoveFieldsType(args[0].Type, pa)
	case "deep_equal":
		return t.DeepEqualType(args[0].Type, args[1].Type)
	}
	return nil, rerr.E(rerr.Type, "%s: %w", name, function.ErrNoSuchFunction)
}
