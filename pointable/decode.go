package pointable

import (
	"encoding/binary"
	"math"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/layout"
	"github.com/brimdata/openrec/rerr"
)

func typeErr(v Value, want string) error {
	return rerr.E(rerr.Type, "%s value is not %s", v.Tag(), want)
}

// Int decodes an integer value of any width.
func Int(v Value) (int64, error) {
	b := v.Bytes
	switch v.Tag() {
	case openrec.TagInt8:
		if len(b) == 1 {
			return int64(int8(b[0])), nil
		}
	case openrec.TagInt16:
		if len(b) == 2 {
			return int64(int16(binary.BigEndian.Uint16(b))), nil
		}
	case openrec.TagInt32:
		if len(b) == 4 {
			return int64(int32(binary.BigEndian.Uint32(b))), nil
		}
	case openrec.TagInt64:
		if len(b) == 8 {
			return int64(binary.BigEndian.Uint64(b)), nil
		}
	default:
		return 0, typeErr(v, "an integer")
	}
	return 0, rerr.E(rerr.Format, "%s value has %d bytes", v.Tag(), len(b))
}

// Float decodes a float or double value.
func Float(v Value) (float64, error) {
	b := v.Bytes
	switch v.Tag() {
	case openrec.TagFloat:
		if len(b) == 4 {
			return float64(math.Float32frombits(binary.BigEndian.Uint32(b))), nil
		}
	case openrec.TagDouble:
		if len(b) == 8 {
			return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
		}
	default:
		return 0, typeErr(v, "a float")
	}
	return 0, rerr.E(rerr.Format, "%s value has %d bytes", v.Tag(), len(b))
}

func Bool(v Value) (bool, error) {
	if v.Tag() != openrec.TagBoolean {
		return false, typeErr(v, "a boolean")
	}
	if len(v.Bytes) != 1 {
		return false, rerr.E(rerr.Format, "boolean value has %d bytes", len(v.Bytes))
	}
	return v.Bytes[0] != 0, nil
}

// Bytes decodes a string or binary value and returns its bytes, which alias
// the view.
func Bytes(v Value) ([]byte, error) {
	if tag := v.Tag(); tag != openrec.TagString && tag != openrec.TagBinary {
		return nil, typeErr(v, "a string")
	}
	s, end, err := layout.StringBody(v.Bytes, 0)
	if err != nil {
		return nil, err
	}
	if end != len(v.Bytes) {
		return nil, rerr.E(rerr.Format, "%d trailing bytes after string", len(v.Bytes)-end)
	}
	return s, nil
}

func String(v Value) (string, error) {
	b, err := Bytes(v)
	return string(b), err
}
