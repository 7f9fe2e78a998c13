package rowio

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/builder"
	"github.com/brimdata/openrec/pointable"
	"github.com/brimdata/openrec/rerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closedRecord(t *testing.T, zctx *openrec.Context, k int) pointable.Value {
	typ := zctx.MustNewTypeRecord("", []openrec.Field{
		openrec.NewField("id", openrec.TypeInt64),
		openrec.NewField("name", zctx.NewNullable(openrec.TypeString)),
	}, false)
	b := builder.NewRecordBuilder(typ)
	require.NoError(t, b.Add([]byte("id"), pointable.NewInt64(int64(k))))
	require.NoError(t, b.Add([]byte("name"), pointable.NewString(strings.Repeat("x", k%7))))
	v, err := b.Encode()
	require.NoError(t, err)
	return v
}

func roundTrip(t *testing.T, opts WriterOpts, n int) (*Writer, []byte) {
	zctx := openrec.NewContext()
	var buf bytes.Buffer
	w := NewWriter(&buf, opts)
	for k := 0; k < n; k++ {
		require.NoError(t, w.Write(closedRecord(t, zctx, k)))
	}
	require.NoError(t, w.Write(pointable.Null))
	require.NoError(t, w.Write(pointable.NewString("end")))
	require.NoError(t, w.Close())

	r := NewReader(bytes.NewReader(buf.Bytes()))
	for k := 0; k < n; k++ {
		v, err := r.Read()
		require.NoError(t, err)
		rec, err := pointable.ParseRecord(v)
		require.NoError(t, err)
		f, ok := rec.LookupString("id")
		require.True(t, ok)
		id, err := pointable.Int(f.Value)
		require.NoError(t, err)
		assert.Equal(t, int64(k), id)
		f, ok = rec.LookupString("name")
		require.True(t, ok)
		s, err := pointable.String(f.Value)
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("x", k%7), s)
	}
	v, err := r.Read()
	require.NoError(t, err)
	assert.True(t, v.IsNull())
	v, err = r.Read()
	require.NoError(t, err)
	s, err := pointable.String(v)
	require.NoError(t, err)
	assert.Equal(t, "end", s)
	_, err = r.Read()
	assert.Equal(t, io.EOF, err)
	return w, buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	w, _ := roundTrip(t, WriterOpts{}, 100)
	assert.Equal(t, 1, w.Frames())
}

func TestRoundTripFrames(t *testing.T) {
	w, _ := roundTrip(t, WriterOpts{FrameThresh: 64}, 100)
	assert.Greater(t, w.Frames(), 10)
}

func TestRoundTripCompressed(t *testing.T) {
	_, plain := roundTrip(t, WriterOpts{}, 1000)
	_, compressed := roundTrip(t, WriterOpts{Compress: true}, 1000)
	assert.Less(t, len(compressed), len(plain))
	assert.Equal(t, byte(CompressionFormatLZ4), compressed[0])
}

func TestIncompressibleFrame(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WriterOpts{Compress: true})
	require.NoError(t, w.Write(pointable.NewInt8(1)))
	require.NoError(t, w.Close())
	assert.Equal(t, byte(CompressionFormatNone), buf.Bytes()[0])
	v, err := NewReader(&buf).Read()
	require.NoError(t, err)
	assert.Equal(t, openrec.TagInt8, v.Tag())
}

func TestReaderErrors(t *testing.T) {
	_, b := roundTrip(t, WriterOpts{}, 3)
	for _, n := range []int{4, len(b) - 1} {
		_, err := readAll(b[:n])
		assert.True(t, rerr.Is(err, rerr.Bounds), "length %d: %v", n, err)
	}
	bad := append([]byte{7}, b[1:]...)
	_, err := readAll(bad)
	assert.ErrorContains(t, err, "unknown compression format")
	assert.True(t, rerr.Is(err, rerr.Format))

	mismatch := append([]byte{}, b...)
	mismatch[8]++
	_, err = readAll(mismatch)
	assert.Error(t, err)
}

func readAll(b []byte) (int, error) {
	r := NewReader(bytes.NewReader(b))
	var n int
	for {
		_, err := r.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

func TestParseFrameThresh(t *testing.T) {
	n, err := ParseFrameThresh("64KiB")
	require.NoError(t, err)
	assert.Equal(t, 64*1024, n)
	n, err = ParseFrameThresh("1MB")
	require.NoError(t, err)
	assert.Equal(t, 1000*1000, n)
	_, err = ParseFrameThresh("1GiB")
	assert.Error(t, err)
	_, err = ParseFrameThresh("lots")
	assert.Error(t, err)
}
