// Package plan loads and runs evaluation plans.  A plan is a YAML document
// naming one structural operator, optional static types for its two
// arguments, and the rows of arguments to apply it to:
//
//	op: merge
//	types: [{fields: {id: int64}, open: true}, ~]
//	rows:
//	  - [{id: 1}, {tags: [a, b]}]
//	  - [{id: 2}, {tags: []}]
//
// Compiling a plan infers the operator's output type once.  Running it
// splits the rows across partitions, each with its own evaluator.
package plan

import (
	"bytes"
	"fmt"
	"os"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/compiler/infer"
	"github.com/brimdata/openrec/pointable"
	"github.com/brimdata/openrec/yamlval"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

type Plan struct {
	Op    string        `yaml:"op"`
	Types []yaml.Node   `yaml:"types,omitempty"`
	Rows  [][]yaml.Node `yaml:"rows"`
	// Dynamic keeps the compiler from treating a second argument shared
	// by every row as a constant.
	Dynamic bool `yaml:"dynamic,omitempty"`
}

func Load(path string) (*Plan, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func Parse(b []byte) (*Plan, error) {
	var p Plan
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	return &p, p.validate()
}

func (p *Plan) validate() error {
	var err error
	if p.Op == "" {
		err = multierr.Append(err, fmt.Errorf("plan has no op"))
	}
	if len(p.Types) > 2 {
		err = multierr.Append(err, fmt.Errorf("plan has %d types for 2 arguments", len(p.Types)))
	}
	for k, row := range p.Rows {
		if len(row) != 2 {
			err = multierr.Append(err, fmt.Errorf("row %d has %d arguments", k+1, len(row)))
		}
	}
	return err
}

// Program is a compiled plan.
type Program struct {
	Op   string
	Out  openrec.Type
	Args []infer.Arg
	Rows [][]pointable.Value
}

// Compile converts the plan's rows to serialized values and infers the
// output type.  An argument without a declared type gets the type shared
// by its values in every row, or any if they differ.
func (p *Plan) Compile(typer *infer.Typer) (*Program, error) {
	zctx := typer.Context()
	declared := make([]openrec.Type, 2)
	for k := range p.Types {
		node := &p.Types[k]
		if node.Kind == 0 || node.ShortTag() == "!!null" {
			continue
		}
		typ, err := yamlval.ParseType(zctx, node)
		if err != nil {
			return nil, fmt.Errorf("type of argument %d: %w", k+1, err)
		}
		declared[k] = typ
	}
	prog := &Program{Op: p.Op}
	for r, row := range p.Rows {
		vals := make([]pointable.Value, 0, len(row))
		for k := range row {
			val, err := yamlval.ValueOf(&row[k], declared[k])
			if err != nil {
				return nil, fmt.Errorf("row %d argument %d: %w", r+1, k+1, err)
			}
			vals = append(vals, val)
		}
		prog.Rows = append(prog.Rows, vals)
	}
	for k := 0; k < 2; k++ {
		arg := infer.Arg{Type: declared[k]}
		if arg.Type == nil {
			arg.Type = unify(zctx, prog.column(k))
		}
		if k == 1 && !p.Dynamic {
			if v, ok := constant(prog.column(k)); ok {
				arg.Const = &v
			}
		}
		prog.Args = append(prog.Args, arg)
	}
	out, err := typer.Infer(p.Op, prog.Args)
	if err != nil {
		return nil, err
	}
	prog.Out = out
	return prog, nil
}

func (p *Program) column(k int) []pointable.Value {
	vals := make([]pointable.Value, 0, len(p.Rows))
	for _, row := range p.Rows {
		vals = append(vals, row[k])
	}
	return vals
}

// unify returns the static type of a column of values.  Nulls make the
// type nullable and a mix of types gives any.
func unify(zctx *openrec.Context, vals []pointable.Value) openrec.Type {
	var typ openrec.Type
	var nullable, missing bool
	for _, v := range vals {
		switch {
		case v.IsMissing():
			missing = true
		case v.IsNull():
			nullable = true
		case typ == nil:
			typ = v.Type
		case !openrec.SameType(typ, v.Type):
			return openrec.TypeAny
		}
	}
	switch {
	case typ == nil && missing && !nullable:
		return openrec.TypeMissing
	case typ == nil && !missing:
		return openrec.TypeNull
	case typ == nil || missing:
		return openrec.TypeAny
	case nullable:
		return zctx.NewNullable(typ)
	}
	return typ
}

// constant returns the value of a column whose rows all hold the same
// value.
func constant(vals []pointable.Value) (pointable.Value, bool) {
	if len(vals) == 0 {
		return pointable.Value{}, false
	}
	for _, v := range vals[1:] {
		if !pointable.Equal(v, vals[0]) || !openrec.SameType(v.Type, vals[0].Type) {
			return pointable.Value{}, false
		}
	}
	return vals[0], true
}
