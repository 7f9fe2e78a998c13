package openrec

func AppendBool(b []byte, ok bool) []byte {
	if ok {
		return append(b, 1)
	}
	return append(b, 0)
}

func EncodeBool(ok bool) []byte {
	return AppendBool(nil, ok)
}
