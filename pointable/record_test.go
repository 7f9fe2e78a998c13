package pointable_test

import (
	"testing"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/builder"
	"github.com/brimdata/openrec/layout"
	"github.com/brimdata/openrec/pointable"
	"github.com/brimdata/openrec/rerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func personType(t *testing.T, zctx *openrec.Context) *openrec.TypeRecord {
	typ, err := zctx.NewTypeRecord("person", []openrec.Field{
		openrec.NewField("id", openrec.TypeInt64),
		openrec.NewField("name", zctx.NewNullable(openrec.TypeString)),
		openrec.NewField("extra", openrec.TypeAny),
	}, true)
	require.NoError(t, err)
	return typ
}

func buildPerson(t *testing.T, typ *openrec.TypeRecord, name pointable.Value, open map[string]pointable.Value) pointable.Value {
	b := builder.NewRecordBuilder(typ)
	require.NoError(t, b.AddClosedByName("id", pointable.NewInt64(7)))
	require.NoError(t, b.AddClosedByName("name", name))
	for k, v := range open {
		require.NoError(t, b.AddOpenString(k, v))
	}
	v, err := b.Encode()
	require.NoError(t, err)
	return v
}

func TestParseRecord(t *testing.T) {
	typ := personType(t, openrec.NewContext())
	v := buildPerson(t, typ, pointable.NewString("ann"), map[string]pointable.Value{
		"zip":  pointable.NewInt32(94110),
		"tags": pointable.NewString("x"),
	})
	r, err := pointable.ParseRecord(v)
	require.NoError(t, err)
	assert.Equal(t, 3, r.NumClosed())
	assert.Equal(t, 5, r.Len())
	assert.True(t, r.Expanded)

	f, ok := r.LookupString("name")
	require.True(t, ok)
	assert.True(t, f.Closed)
	s, err := pointable.String(f.Value)
	require.NoError(t, err)
	assert.Equal(t, "ann", s)

	f, ok = r.LookupString("extra")
	require.True(t, ok)
	assert.True(t, f.Value.IsNull())

	f, ok = r.LookupString("zip")
	require.True(t, ok)
	assert.False(t, f.Closed)
	// Open values are self-describing, so the int32 reads back as an int32.
	assert.Equal(t, openrec.TagInt32, f.Value.Tag())
	n, err := pointable.Int(f.Value)
	require.NoError(t, err)
	assert.Equal(t, int64(94110), n)

	assert.False(t, r.Has([]byte("nope")))
	assert.Len(t, r.FieldNames(), 5)
	assert.Len(t, r.FieldValues(), 5)
	assert.Equal(t, openrec.TagInt64, r.FieldTags()[0])

	open := r.Open()
	require.Len(t, open, 2)
	assert.LessOrEqual(t, open[0].Hash, open[1].Hash)
	assert.Equal(t, layout.Hash(open[0].Name), open[0].Hash)
}

func TestParseRecordNullBitmap(t *testing.T) {
	typ := personType(t, openrec.NewContext())
	v := buildPerson(t, typ, pointable.Null, nil)
	r, err := pointable.ParseRecord(v)
	require.NoError(t, err)
	assert.False(t, r.Expanded)
	f, ok := r.LookupString("name")
	require.True(t, ok)
	assert.True(t, f.Value.IsNull())
	assert.Equal(t, `{id:7,name:null,extra:null}`, pointable.MustFormat(v))
}

func TestParseRecordIsPure(t *testing.T) {
	typ := personType(t, openrec.NewContext())
	v := buildPerson(t, typ, pointable.NewString("bob"), map[string]pointable.Value{"a": pointable.True})
	before := append([]byte(nil), v.Bytes...)
	r1, err := pointable.ParseRecord(v)
	require.NoError(t, err)
	r2, err := pointable.ParseRecord(v)
	require.NoError(t, err)
	assert.Equal(t, r1.Fields, r2.Fields)
	assert.Equal(t, before, v.Bytes)
}

func TestParseRecordErrors(t *testing.T) {
	zctx := openrec.NewContext()
	typ := personType(t, zctx)
	v := buildPerson(t, typ, pointable.NewString("ann"), map[string]pointable.Value{"zip": pointable.NewInt32(1)})

	t.Run("truncated", func(t *testing.T) {
		_, err := pointable.ParseRecord(pointable.NewValue(typ, v.Bytes[:len(v.Bytes)-3]))
		assert.True(t, rerr.Is(err, rerr.Bounds), "%v", err)
	})
	t.Run("short length", func(t *testing.T) {
		_, err := pointable.ParseRecord(pointable.NewValue(typ, []byte{0, 0, 0, 1}))
		assert.True(t, rerr.Is(err, rerr.Format), "%v", err)
	})
	t.Run("bad hash", func(t *testing.T) {
		b := append([]byte(nil), v.Bytes...)
		r, err := pointable.ParseRecord(pointable.NewValue(typ, b))
		require.NoError(t, err)
		// The only open entry's hash is the first word of the open table.
		openOff, err := layout.Offset(b, layout.LengthSize+layout.ExpandedSize, len(b))
		require.NoError(t, err)
		layout.PutUint32(b, openOff+layout.CountSize, r.Open()[0].Hash+1)
		_, err = pointable.ParseRecord(pointable.NewValue(typ, b))
		assert.True(t, rerr.Is(err, rerr.Format), "%v", err)
	})
	t.Run("wrong schema", func(t *testing.T) {
		other := zctx.MustNewTypeRecord("", []openrec.Field{openrec.NewField("id", openrec.TypeInt64)}, true)
		_, err := pointable.ParseRecord(pointable.NewValue(other, v.Bytes))
		assert.True(t, rerr.Is(err, rerr.Format), "%v", err)
	})
	t.Run("not a record", func(t *testing.T) {
		_, err := pointable.ParseRecord(pointable.NewInt64(1))
		assert.True(t, rerr.Is(err, rerr.Type), "%v", err)
	})
	t.Run("non-nullable marked null", func(t *testing.T) {
		b := append([]byte(nil), v.Bytes...)
		// length, expanded, open offset, count, then the bitmap.
		bitmap := layout.LengthSize + layout.ExpandedSize + layout.OffsetSize + layout.CountSize
		b[bitmap] &^= 0x80
		_, err := pointable.ParseRecord(pointable.NewValue(typ, b))
		assert.True(t, rerr.Is(err, rerr.Format), "%v", err)
	})
}

func TestOpenRecordRoundTrip(t *testing.T) {
	b := builder.NewRecordBuilder(openrec.TypeOpenRecord)
	require.NoError(t, b.AddOpenString("b", pointable.NewString("x")))
	require.NoError(t, b.AddOpenString("a", pointable.NewInt64(1)))
	tagged, err := b.Write(nil, true)
	require.NoError(t, err)
	v, err := pointable.Read(tagged)
	require.NoError(t, err)
	assert.Same(t, openrec.TypeOpenRecord, v.Type)
	r, err := pointable.ParseRecord(v)
	require.NoError(t, err)
	assert.Equal(t, 0, r.NumClosed())
	assert.Equal(t, 2, r.Len())
	a, ok := r.LookupString("a")
	require.True(t, ok)
	assert.True(t, pointable.Equal(pointable.NewInt64(1), a.Value))

	_, err = pointable.Read(append(tagged, 0))
	assert.True(t, rerr.Is(err, rerr.Format))
}
