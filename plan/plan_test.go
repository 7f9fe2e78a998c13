package plan

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/compiler/infer"
	"github.com/brimdata/openrec/pointable"
	"github.com/brimdata/openrec/rerr"
	"github.com/brimdata/openrec/rowio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"
)

func compile(t *testing.T, src string) *Program {
	t.Helper()
	p, err := Parse([]byte(src))
	require.NoError(t, err)
	typer, err := infer.NewTyper(openrec.NewContext(), 0)
	require.NoError(t, err)
	prog, err := p.Compile(typer)
	require.NoError(t, err)
	return prog
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("op: merge\nrowz: []\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("rows: [[{}], [{}, {}, {}]]\ntypes: [~, ~, ~]\n"))
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("op: deep_equal\nrows: [[1, 1]]\n"), 0644))
	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "deep_equal", p.Op)
	assert.Len(t, p.Rows, 1)

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestCompileConstant(t *testing.T) {
	prog := compile(t, `
op: remove_fields
types: [{fields: {a: int64, b: string}}]
rows:
  - [{a: 1, b: x}, [b]]
  - [{a: 2, b: y}, [b]]
`)
	require.NotNil(t, prog.Args[1].Const)
	assert.Equal(t, "{a:int64}", prog.Out.String())
	assert.Len(t, prog.Rows, 2)
}

func TestCompileDynamic(t *testing.T) {
	prog := compile(t, `
op: remove_fields
types: [{fields: {a: int64, b: string}}]
dynamic: true
rows:
  - [{a: 1, b: x}, [b]]
`)
	assert.Nil(t, prog.Args[1].Const)
	assert.Equal(t, "{...}", prog.Out.String())

	prog = compile(t, `
op: remove_fields
types: [{fields: {a: int64, b: string}}]
rows:
  - [{a: 1, b: x}, [b]]
  - [{a: 2, b: y}, [a]]
`)
	assert.Nil(t, prog.Args[1].Const)
	assert.Equal(t, "{...}", prog.Out.String())
}

func TestCompileErrors(t *testing.T) {
	p, err := Parse([]byte("op: merge\ntypes: [int64]\nrows: [[x, {}]]\n"))
	require.NoError(t, err)
	typer, err := infer.NewTyper(openrec.NewContext(), 0)
	require.NoError(t, err)
	_, err = p.Compile(typer)
	assert.Error(t, err)

	p, err = Parse([]byte("op: merge\ntypes: [{fields: {a: int64}}, {fields: {a: string}}]\nrows: []\n"))
	require.NoError(t, err)
	_, err = p.Compile(typer)
	assert.True(t, rerr.Is(err, rerr.DuplicateField), "%v", err)
}

func TestUnify(t *testing.T) {
	zctx := openrec.NewContext()
	i := pointable.NewInt64(1)
	s := pointable.NewString("x")
	assert.Equal(t, openrec.TypeNull, unify(zctx, nil))
	assert.Equal(t, openrec.TypeInt64, unify(zctx, []pointable.Value{i, i}))
	assert.Equal(t, "int64?", unify(zctx, []pointable.Value{i, pointable.Null}).String())
	assert.Equal(t, openrec.TypeAny, unify(zctx, []pointable.Value{i, s}))
	assert.Equal(t, openrec.TypeMissing, unify(zctx, []pointable.Value{pointable.Missing}))
	assert.Equal(t, openrec.TypeAny, unify(zctx, []pointable.Value{i, pointable.Missing}))
	assert.Equal(t, openrec.TypeNull, unify(zctx, []pointable.Value{pointable.Null}))
}

func TestConstant(t *testing.T) {
	_, ok := constant(nil)
	assert.False(t, ok)
	v, ok := constant([]pointable.Value{pointable.NewString("a"), pointable.NewString("a")})
	assert.True(t, ok)
	assert.Equal(t, "a", string(v.Bytes[1:]))
	_, ok = constant([]pointable.Value{pointable.NewString("a"), pointable.NewString("b")})
	assert.False(t, ok)
	_, ok = constant([]pointable.Value{pointable.NewString("a"), pointable.NewBinary([]byte("a"))})
	assert.False(t, ok)
}

const mergeRows = `
op: merge
rows:
  - [{a: 1}, {b: 1}]
  - [{a: 2}, {a: 2}]
  - [{a: 3}, {b: 3}]
  - [{a: 4}, {b: 4}]
  - [{a: 5}, {b: 5}]
`

func TestRunSkip(t *testing.T) {
	prog := compile(t, mergeRows)
	core, logs := observer.New(zap.InfoLevel)
	conf := DefaultConfig()
	conf.Partitions = 3
	results, err := prog.Run(context.Background(), zap.New(core), conf, nil)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for k, r := range results {
		assert.Equal(t, k, r.Row)
		if k == 1 {
			assert.True(t, rerr.Is(r.Err, rerr.DuplicateField), "%v", r.Err)
			continue
		}
		require.NoError(t, r.Err)
		rec, err := pointable.ParseRecord(r.Value)
		require.NoError(t, err)
		f, ok := rec.LookupString("a")
		require.True(t, ok)
		a, err := pointable.Int(f.Value)
		require.NoError(t, err)
		assert.Equal(t, int64(k+1), a)
	}
	skipped := logs.FilterMessage("row skipped").All()
	require.Len(t, skipped, 1)
	assert.EqualValues(t, 2, skipped[0].ContextMap()["row"])
}

func TestRunAbort(t *testing.T) {
	prog := compile(t, mergeRows)
	conf := DefaultConfig()
	conf.OnError = OnErrorAbort
	conf.Partitions = 2
	_, err := prog.Run(context.Background(), nil, conf, nil)
	require.Error(t, err)
	assert.True(t, rerr.Is(err, rerr.DuplicateField), "%v", err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestRunCanceled(t *testing.T) {
	prog := compile(t, mergeRows)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := prog.Run(ctx, nil, DefaultConfig(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunMorePartitionsThanRows(t *testing.T) {
	prog := compile(t, "op: deep_equal\nrows: [[1, 1]]\n")
	conf := DefaultConfig()
	conf.Partitions = 8
	results, err := prog.Run(context.Background(), nil, conf, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	ok, err := pointable.Bool(results[0].Value)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMarshal(t *testing.T) {
	prog := compile(t, mergeRows)
	results, err := prog.Run(context.Background(), nil, DefaultConfig(), nil)
	require.NoError(t, err)
	b, err := Marshal(results)
	require.NoError(t, err)
	var out []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(b, &out))
	require.Len(t, out, 5)
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 1}, out[0])
	assert.Equal(t, "DuplicateField", out[1]["error"])
	assert.Contains(t, out[1]["message"], "row 2")
}

func TestValidate(t *testing.T) {
	conf := DefaultConfig()
	require.NoError(t, conf.Validate())
	conf.Partitions = 0
	conf.CacheSize = -1
	conf.OnError = "retry"
	conf.Evaluator.MaxDepth = 0
	assert.Len(t, multierr.Errors(conf.Validate()), 4)
}

func TestWriteBinary(t *testing.T) {
	prog := compile(t, mergeRows)
	results, err := prog.Run(context.Background(), nil, DefaultConfig(), nil)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, results, rowio.WriterOpts{Compress: true}))
	r := rowio.NewReader(&buf)
	for k := range results {
		v, err := r.Read()
		require.NoError(t, err)
		if k == 1 {
			assert.True(t, v.IsMissing())
			continue
		}
		rec, err := pointable.ParseRecord(v)
		require.NoError(t, err)
		assert.Equal(t, 2, rec.Len())
	}
	_, err = r.Read()
	assert.Equal(t, io.EOF, err)
}

func TestOnError(t *testing.T) {
	var o OnError
	require.NoError(t, o.Set("abort"))
	assert.Equal(t, OnErrorAbort, o)
	require.NoError(t, o.Set(""))
	assert.Equal(t, OnErrorSkip, o)
	assert.Error(t, o.Set("retry"))
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "openrec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logger:
  path: /dev/null
  level: debug
partitions: 4
on_error: abort
evaluator:
  prune_empty: true
  max_depth: 8
`), 0644))
	conf, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, conf.Partitions)
	assert.Equal(t, OnErrorAbort, conf.OnError)
	assert.Equal(t, zap.DebugLevel, conf.Logger.Level)
	assert.True(t, conf.Evaluator.PruneEmpty)
	assert.Equal(t, 8, conf.Evaluator.MaxDepth)
	assert.Equal(t, infer.DefaultCacheSize, conf.CacheSize)

	require.NoError(t, os.WriteFile(path, []byte("on_error: retry\n"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("partitions: 0\ncache_size: -1\n"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("partitionz: 1\n"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}
