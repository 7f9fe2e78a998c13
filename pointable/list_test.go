package pointable_test

import (
	"testing"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/builder"
	"github.com/brimdata/openrec/pointable"
	"github.com/brimdata/openrec/rerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListFixed(t *testing.T) {
	typ := openrec.NewTypeList(-1, true, openrec.TypeInt32)
	b := builder.NewListBuilder(typ)
	for _, i := range []int32{1, -2, 3} {
		require.NoError(t, b.AddItem(pointable.NewInt32(i)))
	}
	v, err := b.Encode()
	require.NoError(t, err)
	l, err := pointable.ParseList(v)
	require.NoError(t, err)
	assert.Equal(t, openrec.TagInt32, l.ItemTag)
	assert.Equal(t, 3, l.Len())
	assert.True(t, l.Ordered())
	n, err := pointable.Int(l.Items[1])
	require.NoError(t, err)
	assert.Equal(t, int64(-2), n)
	assert.Equal(t, "[1,-2,3]", pointable.MustFormat(v))
}

func TestParseListAny(t *testing.T) {
	b := builder.NewListBuilder(openrec.TypeUnorderedListOfAny)
	require.NoError(t, b.AddItem(pointable.NewString("a")))
	require.NoError(t, b.AddItem(pointable.Null))
	require.NoError(t, b.AddItem(pointable.NewDouble(1)))
	v, err := b.Encode()
	require.NoError(t, err)
	l, err := pointable.ParseList(v)
	require.NoError(t, err)
	assert.Equal(t, openrec.TagAny, l.ItemTag)
	assert.False(t, l.Ordered())
	assert.Equal(t, []openrec.Tag{openrec.TagString, openrec.TagNull, openrec.TagDouble}, l.ItemTags())
	assert.Equal(t, `{{"a",null,1.}}`, pointable.MustFormat(v))
}

func TestParseListErrors(t *testing.T) {
	typ := openrec.NewTypeList(-1, true, openrec.TypeString)
	b := builder.NewListBuilder(typ)
	require.NoError(t, b.AddItem(pointable.NewString("hello")))
	v, err := b.Encode()
	require.NoError(t, err)

	_, err = pointable.ParseList(pointable.NewValue(typ, v.Bytes[:len(v.Bytes)-1]))
	assert.True(t, rerr.Is(err, rerr.Bounds), "%v", err)

	bad := append([]byte(nil), v.Bytes...)
	bad[0] = 5
	_, err = pointable.ParseList(pointable.NewValue(typ, bad))
	assert.True(t, rerr.Is(err, rerr.Format), "%v", err)

	_, err = pointable.ParseList(pointable.NewString("x"))
	assert.True(t, rerr.Is(err, rerr.Type), "%v", err)
}

func TestOf(t *testing.T) {
	p, err := pointable.Of(pointable.NewInt8(3))
	require.NoError(t, err)
	_, ok := p.(*pointable.Flat)
	assert.True(t, ok)
	assert.True(t, pointable.Equal(pointable.NewInt8(3), p.View()))

	b := builder.NewListBuilder(openrec.TypeOrderedListOfAny)
	v, err := b.Encode()
	require.NoError(t, err)
	p, err = pointable.Of(v)
	require.NoError(t, err)
	_, ok = p.(*pointable.List)
	assert.True(t, ok)
}
