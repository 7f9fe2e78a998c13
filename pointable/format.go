package pointable

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/brimdata/openrec"
)

// Format returns a text rendering of v for diagnostics and tests.  Records
// print closed fields in schema order and open fields in table order.
func Format(v Value) (string, error) {
	var b strings.Builder
	if err := formatValue(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

// MustFormat is Format that renders a malformed value as its error.
func MustFormat(v Value) string {
	s, err := Format(v)
	if err != nil {
		return "error(" + strconv.Quote(err.Error()) + ")"
	}
	return s
}

func formatValue(b *strings.Builder, v Value) error {
	switch tag := v.Tag(); {
	case tag == openrec.TagNull:
		b.WriteString("null")
	case tag == openrec.TagMissing:
		b.WriteString("missing")
	case tag.IsInteger():
		n, err := Int(v)
		if err != nil {
			return err
		}
		b.WriteString(strconv.FormatInt(n, 10))
	case tag.IsFloat():
		f, err := Float(v)
		if err != nil {
			return err
		}
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += "."
		}
		b.WriteString(s)
	case tag == openrec.TagBoolean:
		ok, err := Bool(v)
		if err != nil {
			return err
		}
		b.WriteString(strconv.FormatBool(ok))
	case tag == openrec.TagString:
		s, err := Bytes(v)
		if err != nil {
			return err
		}
		b.WriteString(strconv.Quote(string(s)))
	case tag == openrec.TagBinary:
		s, err := Bytes(v)
		if err != nil {
			return err
		}
		b.WriteString("0x")
		b.WriteString(hex.EncodeToString(s))
	case tag == openrec.TagRecord:
		r, err := ParseRecord(v)
		if err != nil {
			return err
		}
		b.WriteByte('{')
		for k, f := range r.Fields {
			if k > 0 {
				b.WriteByte(',')
			}
			b.WriteString(openrec.QuotedName(string(f.Name)))
			b.WriteByte(':')
			if err := formatValue(b, f.Value); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	case tag.IsList():
		l, err := ParseList(v)
		if err != nil {
			return err
		}
		open, close := "[", "]"
		if !l.Ordered() {
			open, close = "{{", "}}"
		}
		b.WriteString(open)
		for k, item := range l.Items {
			if k > 0 {
				b.WriteByte(',')
			}
			if err := formatValue(b, item); err != nil {
				return err
			}
		}
		b.WriteString(close)
	default:
		b.WriteString(tag.String())
	}
	return nil
}
