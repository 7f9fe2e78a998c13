// Package rtest runs operator tests described in YAML files.
//
// A test file holds a list of cases.  Each case names an operator and
// gives its two arguments as YAML values, optionally with YAML type
// descriptions (see yamlval.ParseType) for the arguments, and expects either an
// output value or an error kind:
//
//	cases:
//	  - name: nested merge
//	    op: merge
//	    types: [{fields: {a: int32}}, ~]
//	    args:
//	      - {a: 1}
//	      - {b: {c: x}}
//	    output: {a: 1, b: {c: x}}
//	    type: "{a:int32,...}"
//
// The runner infers the output type with the second argument treated as a
// compile-time constant, evaluates the operator, and compares the result
// with the expected output using deep_equal.  It also checks that every
// closed field of the inferred type appears in the output.  A case with an
// "error" expects that error kind from either the inference or the
// evaluation.
package rtest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/compiler/infer"
	"github.com/brimdata/openrec/pointable"
	"github.com/brimdata/openrec/rerr"
	"github.com/brimdata/openrec/runtime/expr"
	"github.com/brimdata/openrec/runtime/expr/function"
	"github.com/brimdata/openrec/yamlval"
	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

type File struct {
	Cases []*Case `yaml:"cases"`
}

type Case struct {
	Name string
	Skip string
	Op   string
	// Types holds one optional type description per argument.  A null
	// entry leaves the argument self-describing.
	Types []*yaml.Node
	Args  []*yaml.Node
	// Dynamic makes the second argument a runtime value whose content
	// the compiler does not know.
	Dynamic bool
	// Output is the expected value.  It is nil if the case has no
	// "output" key and a null node for "output: ~".
	Output *yaml.Node
	Type   string
	Error  string
	Config *expr.Config
}

// UnmarshalYAML decodes a case, keeping the argument, type, and output
// values as nodes for yamlval.
func (c *Case) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: case is not a mapping", node.Line)
	}
	for k := 0; k+1 < len(node.Content); k += 2 {
		key, val := node.Content[k], node.Content[k+1]
		var err error
		switch key.Value {
		case "name":
			err = val.Decode(&c.Name)
		case "skip":
			err = val.Decode(&c.Skip)
		case "op":
			err = val.Decode(&c.Op)
		case "types":
			c.Types, err = sequence(val)
		case "args":
			c.Args, err = sequence(val)
		case "dynamic":
			err = val.Decode(&c.Dynamic)
		case "output":
			c.Output = val
		case "type":
			err = val.Decode(&c.Type)
		case "error":
			err = val.Decode(&c.Error)
		case "config":
			c.Config = &expr.Config{}
			err = decodeStrict(val, c.Config)
		default:
			err = fmt.Errorf("line %d: unknown case field %q", key.Line, key.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func sequence(node *yaml.Node) ([]*yaml.Node, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a sequence", node.Line)
	}
	return node.Content, nil
}

func decodeStrict(node *yaml.Node, v interface{}) error {
	b, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	return nil
}

// Load reads the test file at path.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, f.validate(path)
}

func (f *File) validate(path string) error {
	var err error
	for k, c := range f.Cases {
		if c.Name == "" {
			err = multierr.Append(err, fmt.Errorf("%s: case %d has no name", path, k))
		}
		if len(c.Args) != 2 {
			err = multierr.Append(err, fmt.Errorf("%s: case %q has %d arguments", path, c.Name, len(c.Args)))
		}
		if (c.Output == nil) == (c.Error == "") {
			err = multierr.Append(err, fmt.Errorf("%s: case %q needs exactly one of output and error", path, c.Name))
		}
		if c.Error != "" {
			if _, kerr := rerr.ParseKind(c.Error); kerr != nil {
				err = multierr.Append(err, fmt.Errorf("%s: case %q: %w", path, c.Name, kerr))
			}
		}
	}
	return err
}

// Run runs every case of every .yaml file in dirname as a subtest.
func Run(t *testing.T, dirname string) {
	t.Helper()
	paths, err := filepath.Glob(filepath.Join(dirname, "*.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		t.Fatalf("no test files in %s", dirname)
	}
	for _, path := range paths {
		path := path
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			f, err := Load(path)
			if err != nil {
				t.Fatal(err)
			}
			for _, c := range f.Cases {
				c := c
				t.Run(c.Name, func(t *testing.T) {
					if c.Skip != "" {
						t.Skip(c.Skip)
					}
					if err := c.Run(); err != nil {
						t.Fatalf("%s: %s", path, err)
					}
				})
			}
		})
	}
}

// Run evaluates the case and returns a description of any mismatch.
func (c *Case) Run() error {
	config := expr.DefaultConfig()
	if c.Config != nil {
		config = *c.Config
		if config.MaxDepth == 0 {
			config.MaxDepth = expr.DefaultMaxDepth
		}
	}
	zctx := openrec.NewContext()
	typer, err := infer.NewTyper(zctx, 0)
	if err != nil {
		return err
	}
	typer.SetPruneEmpty(config.PruneEmpty)
	var args []pointable.Value
	var sargs []infer.Arg
	for k := range c.Args {
		var typ openrec.Type
		if k < len(c.Types) && c.Types[k].ShortTag() != "!!null" {
			if typ, err = yamlval.ParseType(zctx, c.Types[k]); err != nil {
				return err
			}
		}
		val, err := yamlval.ValueOf(c.Args[k], typ)
		if err != nil {
			return fmt.Errorf("argument %d: %w", k+1, err)
		}
		if typ == nil {
			typ = val.Type
		}
		args = append(args, val)
		arg := infer.Arg{Type: typ}
		if k == 1 && !c.Dynamic {
			arg.Const = &val
		}
		sargs = append(sargs, arg)
	}
	out, err := typer.Infer(c.Op, sargs)
	if err != nil {
		return c.checkError("inference", err)
	}
	if c.Type != "" && out.String() != c.Type {
		return fmt.Errorf("inferred type %s, expected %s", out, c.Type)
	}
	ectx := expr.NewContext(nil, config, nil)
	fn, err := function.New(ectx, c.Op, out, len(args))
	if err != nil {
		return err
	}
	b, err := fn.Call(nil, args)
	if err != nil {
		return c.checkError("evaluation", err)
	}
	got, err := function.ReadOutput(b, out)
	if err != nil {
		return fmt.Errorf("output does not parse: %w", err)
	}
	if c.Error != "" {
		return fmt.Errorf("expected %s error, got %s", c.Error, pointable.MustFormat(got))
	}
	if err := conforms(got, out); err != nil {
		return err
	}
	want, err := yamlval.ValueOf(c.Output, out)
	if err != nil {
		return fmt.Errorf("expected output: %w", err)
	}
	eq, err := function.NewDeepEqual(ectx).Equal(got, want)
	if err != nil {
		return err
	}
	if !eq {
		return mismatch(want, got)
	}
	return nil
}

func (c *Case) checkError(stage string, err error) error {
	if c.Error == "" {
		return fmt.Errorf("%s failed: %w", stage, err)
	}
	if kind := rerr.KindOf(err); kind.Name() != c.Error {
		return fmt.Errorf("expected %s error, got %s error from %s: %s", c.Error, kind.Name(), stage, err)
	}
	return nil
}

// conforms checks that got has every closed field of the record type typ.
func conforms(got pointable.Value, typ openrec.Type) error {
	rtyp := openrec.TypeRecordOf(typ)
	if rtyp == nil || !got.IsRecord() {
		return nil
	}
	r, err := pointable.ParseRecord(got)
	if err != nil {
		return err
	}
	for _, f := range rtyp.Fields {
		if !r.Has([]byte(f.Name)) {
			return fmt.Errorf("output %s lacks field %q of inferred type %s", pointable.MustFormat(got), f.Name, typ)
		}
	}
	return nil
}

func mismatch(want, got pointable.Value) error {
	a, err := yamlval.Marshal(want)
	if err != nil {
		return err
	}
	b, err := yamlval.Marshal(got)
	if err != nil {
		return err
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  5,
	})
	if err != nil {
		return err
	}
	return fmt.Errorf("output mismatch:\n%s", diff)
}
