package openrec

import (
	"encoding/binary"
	"math"
)

func AppendFloat(b []byte, f float32) []byte {
	return binary.BigEndian.AppendUint32(b, math.Float32bits(f))
}

func AppendDouble(b []byte, d float64) []byte {
	return binary.BigEndian.AppendUint64(b, math.Float64bits(d))
}

func EncodeDouble(d float64) []byte {
	return AppendDouble(make([]byte, 0, 8), d)
}
