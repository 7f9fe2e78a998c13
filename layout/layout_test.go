package layout_test

import (
	"testing"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/layout"
	"github.com/brimdata/openrec/rerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitmap(t *testing.T) {
	assert.Equal(t, 0, layout.NullBitmapSize(0))
	assert.Equal(t, 1, layout.NullBitmapSize(8))
	assert.Equal(t, 2, layout.NullBitmapSize(9))
	bitmap := make([]byte, 2)
	layout.SetBit(bitmap, 0)
	layout.SetBit(bitmap, 9)
	assert.Equal(t, []byte{0x80, 0x40}, bitmap)
	assert.True(t, layout.BitIsSet(bitmap, 0))
	assert.False(t, layout.BitIsSet(bitmap, 1))
	assert.True(t, layout.BitIsSet(bitmap, 9))
}

func TestBigEndian(t *testing.T) {
	b := layout.AppendUint32(nil, 0x01020304)
	assert.Equal(t, []byte{1, 2, 3, 4}, b)
	v, err := layout.Uint32(b, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), v)
	layout.PutUint32(b, 0, 9)
	assert.Equal(t, []byte{0, 0, 0, 9}, b)
	assert.Equal(t, []byte{0xab, 0xcd}, layout.AppendUint16(nil, 0xabcd))
	assert.Len(t, layout.AppendUint64(nil, 1), 8)
}

func TestBounds(t *testing.T) {
	b := []byte{0, 0, 0, 10}
	_, err := layout.Uint32(b, 1)
	assert.True(t, rerr.Is(err, rerr.Bounds))
	_, err = layout.Offset(b, 0, 9)
	assert.True(t, rerr.Is(err, rerr.Bounds))
	n, err := layout.Offset(b, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	_, err = layout.Byte(b, 4)
	assert.True(t, rerr.Is(err, rerr.Bounds))
}

func TestString(t *testing.T) {
	b := layout.AppendString(nil, []byte("hello"))
	assert.Equal(t, byte(5), b[0])
	s, end, err := layout.StringBody(b, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(s))
	assert.Equal(t, len(b), end)
	n, err := layout.ValueSize(b, 0, openrec.TagString)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	_, _, err = layout.StringBody(b[:3], 0)
	assert.True(t, rerr.Is(err, rerr.Bounds))
}

func TestValueSize(t *testing.T) {
	n, err := layout.ValueSize([]byte{0, 0, 0, 0, 0, 0, 0, 1}, 0, openrec.TagInt64)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	_, err = layout.ValueSize([]byte{0, 0, 0, 1}, 0, openrec.TagInt64)
	assert.True(t, rerr.Is(err, rerr.Bounds))
	_, err = layout.ValueSize([]byte{0, 0, 0, 2}, 0, openrec.TagRecord)
	assert.True(t, rerr.Is(err, rerr.Format))
	n, err = layout.ValueSize([]byte{byte(openrec.TagInt8), 0, 0, 0, 9, 0, 0, 0, 0}, 0, openrec.TagOrderedList)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
}

func TestReadTag(t *testing.T) {
	tag, err := layout.ReadTag([]byte{byte(openrec.TagRecord)}, 0)
	require.NoError(t, err)
	assert.Equal(t, openrec.TagRecord, tag)
	_, err = layout.ReadTag([]byte{byte(openrec.TagAny)}, 0)
	assert.True(t, rerr.Is(err, rerr.Format))
}

func TestHash(t *testing.T) {
	assert.Equal(t, layout.Hash([]byte("name")), layout.HashString("name"))
	assert.NotEqual(t, layout.HashString("a"), layout.HashString("b"))
}

func TestClosedHeaderSize(t *testing.T) {
	assert.Equal(t, 0, layout.RecordClosedHeaderSize(0, true))
	assert.Equal(t, 4+3*4, layout.RecordClosedHeaderSize(3, false))
	assert.Equal(t, 4+1+3*4, layout.RecordClosedHeaderSize(3, true))
}
