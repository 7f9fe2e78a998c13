package pointable

import (
	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/layout"
)

var (
	True  = Value{openrec.TypeBoolean, []byte{1}}
	False = Value{openrec.TypeBoolean, []byte{0}}
)

func NewBool(ok bool) Value {
	if ok {
		return True
	}
	return False
}

func NewInt8(i int8) Value {
	return Value{openrec.TypeInt8, openrec.AppendInt8(nil, i)}
}

func NewInt16(i int16) Value {
	return Value{openrec.TypeInt16, openrec.AppendInt16(nil, i)}
}

func NewInt32(i int32) Value {
	return Value{openrec.TypeInt32, openrec.AppendInt32(nil, i)}
}

func NewInt64(i int64) Value {
	return Value{openrec.TypeInt64, openrec.EncodeInt64(i)}
}

func NewFloat(f float32) Value {
	return Value{openrec.TypeFloat, openrec.AppendFloat(nil, f)}
}

func NewDouble(d float64) Value {
	return Value{openrec.TypeDouble, openrec.EncodeDouble(d)}
}

func NewString(s string) Value {
	return Value{openrec.TypeString, layout.AppendString(nil, []byte(s))}
}

func NewBinary(b []byte) Value {
	return Value{openrec.TypeBinary, layout.AppendString(nil, b)}
}
