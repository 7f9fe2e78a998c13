package function_test

import (
	"testing"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/pointable"
	"github.com/brimdata/openrec/rerr"
	"github.com/brimdata/openrec/rtest"
	"github.com/brimdata/openrec/runtime/expr"
	"github.com/brimdata/openrec/runtime/expr/function"
	"github.com/brimdata/openrec/yamlval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"
)

func TestZTests(t *testing.T) {
	rtest.Run(t, "ztests")
}

// val converts a YAML document to its self-describing value.
func val(t *testing.T, s string) pointable.Value {
	t.Helper()
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(s), &node))
	v, err := yamlval.ValueOf(&node, nil)
	require.NoError(t, err)
	return v
}

func call(t *testing.T, ectx *expr.Context, op string, args ...pointable.Value) (pointable.Value, error) {
	t.Helper()
	fn, err := function.New(ectx, op, nil, len(args))
	require.NoError(t, err)
	b, err := fn.Call(nil, args)
	if err != nil {
		return pointable.Value{}, err
	}
	return function.ReadOutput(b, nil)
}

func equal(t *testing.T, a, b pointable.Value) bool {
	t.Helper()
	eq, err := function.NewDeepEqual(expr.DefaultContext()).Equal(a, b)
	require.NoError(t, err)
	return eq
}

func assertValue(t *testing.T, want string, got pointable.Value) {
	t.Helper()
	w := val(t, want)
	assert.True(t, equal(t, w, got), "expected %s, got %s", pointable.MustFormat(w), pointable.MustFormat(got))
}

// records have no field z.
var records = []string{
	"{}",
	"{a: 1}",
	"{a: {x: 1, y: [1, 2]}, b: str, c: ~}",
	"{w: {y: {x: {}}}}",
}

func TestNew(t *testing.T) {
	ectx := expr.DefaultContext()
	_, err := function.New(ectx, "nope", nil, 2)
	assert.ErrorIs(t, err, function.ErrNoSuchFunction)
	_, err = function.New(ectx, "merge", nil, 1)
	assert.ErrorIs(t, err, function.ErrTooFewArgs)
	_, err = function.New(ectx, "merge", nil, 3)
	assert.ErrorIs(t, err, function.ErrTooManyArgs)
	for _, name := range function.Names() {
		_, err := function.New(ectx, name, nil, 2)
		assert.NoError(t, err, name)
	}
}

func TestMergeIdentity(t *testing.T) {
	ectx := expr.DefaultContext()
	empty := val(t, "{}")
	for _, s := range records {
		r := val(t, s)
		out, err := call(t, ectx, "merge", r, empty)
		require.NoError(t, err)
		assert.True(t, equal(t, r, out), s)
		out, err = call(t, ectx, "merge", empty, r)
		require.NoError(t, err)
		assert.True(t, equal(t, r, out), s)
	}
}

func TestMergeConflict(t *testing.T) {
	ectx := expr.DefaultContext()
	_, err := call(t, ectx, "merge", val(t, "{a: 1}"), val(t, "{a: 2}"))
	assert.True(t, rerr.Is(err, rerr.DuplicateField), "%v", err)
	_, err = call(t, ectx, "merge", val(t, "{a: 1}"), val(t, "{a: x}"))
	assert.True(t, rerr.Is(err, rerr.DuplicateField), "%v", err)

	out, err := call(t, ectx, "merge", val(t, "{a: {x: 1}}"), val(t, "{a: {y: 2}}"))
	require.NoError(t, err)
	assertValue(t, "{a: {x: 1, y: 2}}", out)

	// The evaluator is reused after a failed row.
	out, err = call(t, ectx, "merge", val(t, "{a: {b: {c: 1}}}"), val(t, "{a: {b: {d: 2}}, e: 3}"))
	require.NoError(t, err)
	assertValue(t, "{a: {b: {c: 1, d: 2}}, e: 3}", out)
}

func TestAddRemoveInverse(t *testing.T) {
	ectx := expr.DefaultContext()
	pairs := val(t, "[{field-name: z, field-value: 5}]")
	paths := val(t, "[z]")
	for _, s := range records {
		r := val(t, s)
		added, err := call(t, ectx, "add_fields", r, pairs)
		require.NoError(t, err)
		rec, err := pointable.ParseRecord(added)
		require.NoError(t, err)
		assert.True(t, rec.Has([]byte("z")))
		removed, err := call(t, ectx, "remove_fields", added, paths)
		require.NoError(t, err)
		assert.True(t, equal(t, r, removed), s)
	}
	_, err := call(t, ectx, "add_fields", val(t, "{z: {y: 1}}"), pairs)
	assert.True(t, rerr.Is(err, rerr.Conflict), "%v", err)
}

func TestAddFieldsConflict(t *testing.T) {
	ectx := expr.DefaultContext()
	_, err := call(t, ectx, "add_fields", val(t, "{a: 1}"), val(t, "[{field-name: a, field-value: 2}]"))
	assert.True(t, rerr.Is(err, rerr.Conflict), "%v", err)
	_, err = call(t, ectx, "add_fields", val(t, "{}"), val(t, "[{field-name: b, field-value: 1}, {field-name: b, field-value: 2}]"))
	assert.True(t, rerr.Is(err, rerr.Conflict), "%v", err)
	_, err = call(t, ectx, "add_fields", val(t, "{}"), val(t, "[{name: b}]"))
	assert.True(t, rerr.Is(err, rerr.Type), "%v", err)
	_, err = call(t, ectx, "add_fields", val(t, "{}"), val(t, "[1]"))
	assert.True(t, rerr.Is(err, rerr.Type), "%v", err)
}

func TestNestedPathExactness(t *testing.T) {
	ectx := expr.DefaultContext()
	out, err := call(t, ectx, "remove_fields", val(t, "{a: {b: {c: 1}}}"), val(t, "[[a, b]]"))
	require.NoError(t, err)
	assertValue(t, "{a: {}}", out)

	out, err = call(t, ectx, "remove_fields", val(t, "{a: {b: 1}, b: 2}"), val(t, "[[a, b]]"))
	require.NoError(t, err)
	assertValue(t, "{a: {}, b: 2}", out)

	// A bare name does not reach below the top level.
	out, err = call(t, ectx, "remove_fields", val(t, "{a: {b: 1}, b: 2}"), val(t, "[b]"))
	require.NoError(t, err)
	assertValue(t, "{a: {b: 1}}", out)

	// A path longer than the data is kept: a.b is not a record here.
	out, err = call(t, ectx, "remove_fields", val(t, "{a: {b: 1}}"), val(t, "[[a, b, c]]"))
	require.NoError(t, err)
	assertValue(t, "{a: {b: 1}}", out)
}

func TestRemoveFieldsPruneEmpty(t *testing.T) {
	conf := expr.DefaultConfig()
	conf.PruneEmpty = true
	ectx := expr.NewContext(nil, conf, nil)
	out, err := call(t, ectx, "remove_fields", val(t, "{a: {b: {c: 1}}, d: 1}"), val(t, "[[a, b, c]]"))
	require.NoError(t, err)
	assertValue(t, "{d: 1}", out)

	// Pruning stops at a record with a remaining field.
	out, err = call(t, ectx, "remove_fields", val(t, "{a: {b: {c: 1}, e: 2}}"), val(t, "[[a, b, c]]"))
	require.NoError(t, err)
	assertValue(t, "{a: {e: 2}}", out)

	// A record that was empty to begin with is kept.
	out, err = call(t, ectx, "remove_fields", val(t, "{a: {}}"), val(t, "[[a, b]]"))
	require.NoError(t, err)
	assertValue(t, "{a: {}}", out)
}

func TestRemoveFieldsArgs(t *testing.T) {
	ectx := expr.DefaultContext()
	_, err := call(t, ectx, "remove_fields", val(t, "{a: 1}"), pointable.Null)
	assert.True(t, rerr.Is(err, rerr.Type), "%v", err)
	_, err = call(t, ectx, "remove_fields", val(t, "{a: 1}"), val(t, "!bag [a]"))
	assert.True(t, rerr.Is(err, rerr.Type), "%v", err)
	_, err = call(t, ectx, "remove_fields", val(t, "{a: 1}"), val(t, "[1]"))
	assert.True(t, rerr.Is(err, rerr.Type), "%v", err)
	_, err = call(t, ectx, "remove_fields", val(t, "{a: 1}"), val(t, "[[]]"))
	assert.True(t, rerr.Is(err, rerr.Type), "%v", err)
	_, err = call(t, ectx, "remove_fields", val(t, "[1]"), val(t, "[a]"))
	assert.True(t, rerr.Is(err, rerr.Type), "%v", err)
}

func TestUnknownInputs(t *testing.T) {
	ectx := expr.DefaultContext()
	r := val(t, "{a: 1}")
	for _, op := range []string{"merge", "add_fields", "deep_equal"} {
		out, err := call(t, ectx, op, pointable.Null, r)
		require.NoError(t, err)
		assert.True(t, out.IsNull(), op)
		out, err = call(t, ectx, op, pointable.Null, pointable.Missing)
		require.NoError(t, err)
		assert.True(t, out.IsMissing(), op)
	}
	out, err := call(t, ectx, "remove_fields", pointable.Null, val(t, "[a]"))
	require.NoError(t, err)
	assert.True(t, out.IsNull())
	out, err = call(t, ectx, "remove_fields", r, pointable.Missing)
	require.NoError(t, err)
	assert.True(t, out.IsMissing())
}

func TestDeepEqualProperties(t *testing.T) {
	values := []string{
		"1", "1.5", "x", "true", "~", "[1, 2]", "!bag [1, 2, 2]",
		"{a: 1, b: [x, {c: ~}]}", "{b: [x, {c: ~}], a: 1}",
	}
	for _, a := range values {
		va := val(t, a)
		assert.True(t, equal(t, va, va), a)
		for _, b := range values {
			vb := val(t, b)
			assert.Equal(t, equal(t, va, vb), equal(t, vb, va), "%s vs %s", a, b)
		}
	}
	assert.True(t, equal(t, val(t, "{a: 1, b: 2}"), val(t, "{b: 2, a: 1}")))
	assert.False(t, equal(t, val(t, "[1, 2]"), val(t, "[2, 1]")))
	assert.True(t, equal(t, val(t, "!bag [1, 2, 2]"), val(t, "!bag [2, 1, 2]")))
	assert.False(t, equal(t, val(t, "!bag [1, 2, 2]"), val(t, "!bag [1, 1, 2]")))
	assert.False(t, equal(t, val(t, "{a: 1}"), val(t, "{a: 1, b: 2}")))
	assert.False(t, equal(t, val(t, "[1]"), val(t, "!bag [1]")))
	// Tags must agree even when the numbers do.
	assert.False(t, equal(t, pointable.NewInt32(1), pointable.NewInt64(1)))
}

func TestDeepEqualCall(t *testing.T) {
	out, err := call(t, expr.DefaultContext(), "deep_equal", val(t, "{a: 1}"), val(t, "{a: 1}"))
	require.NoError(t, err)
	ok, err := pointable.Bool(out)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeepEqualClosedVsOpen(t *testing.T) {
	zctx := openrec.NewContext()
	typ := zctx.MustNewTypeRecord("", []openrec.Field{openrec.NewField("a", openrec.TypeInt64)}, false)
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("{a: 1}"), &node))
	closed, err := yamlval.ValueOf(&node, typ)
	require.NoError(t, err)
	assert.True(t, equal(t, closed, val(t, "{a: 1}")))
}

func TestTruncatedRecord(t *testing.T) {
	ectx := expr.DefaultContext()
	r := val(t, "{a: 1, b: {c: 2}}")
	for n := 0; n < len(r.Bytes); n++ {
		bad := pointable.NewValue(r.Type, r.Bytes[:n])
		_, err := call(t, ectx, "merge", bad, val(t, "{}"))
		require.Error(t, err, "length %d", n)
		kind := rerr.KindOf(err)
		assert.True(t, kind == rerr.Bounds || kind == rerr.Format, "length %d: %v", n, err)
	}
}

func TestMaxDepth(t *testing.T) {
	conf := expr.DefaultConfig()
	conf.MaxDepth = 2
	ectx := expr.NewContext(nil, conf, nil)
	_, err := call(t, ectx, "merge", val(t, "{a: {b: {c: 1}}}"), val(t, "{a: {b: {d: 1}}}"))
	assert.True(t, rerr.Is(err, rerr.UnsupportedShape), "%v", err)
	_, err = call(t, ectx, "merge", val(t, "{a: {b: 1}}"), val(t, "{a: {c: 1}}"))
	assert.NoError(t, err)
}

func TestFailedRowsAreLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ectx := expr.NewContext(zap.New(core), expr.DefaultConfig(), nil)
	_, err := call(t, ectx, "merge", val(t, "{a: 1}"), val(t, "{a: 1}"))
	require.Error(t, err)
	entries := logs.FilterMessage("row failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "merge", fields["op"])
	assert.Equal(t, "DuplicateField", fields["kind"])
	assert.Equal(t, ectx.ID.String(), fields["evaluator"])
}

func TestCallArgCount(t *testing.T) {
	ectx := expr.DefaultContext()
	fn, err := function.New(ectx, "merge", nil, 2)
	require.NoError(t, err)
	_, err = fn.Call(nil, []pointable.Value{val(t, "{}")})
	assert.True(t, rerr.Is(err, rerr.Type))
}
