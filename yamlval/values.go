package yamlval

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"

	"github.com/brimdata/openrec"
	"github.com/brimdata/openrec/builder"
	"github.com/brimdata/openrec/pointable"
	"gopkg.in/yaml.v3"
)

const (
	// TagMissing marks the missing value, e.g., "!missing ~".
	TagMissing = "!missing"
	// TagBinary marks a hex-encoded binary value.
	TagBinary = "!binary"
	// TagBag marks a sequence as an unordered list.
	TagBag = "!bag"
)

// ValueOf converts a YAML value to a serialized value of type typ.  A nil
// typ, or the any type, selects the value's self-describing form: mappings
// become open records, sequences ordered lists of any, integers int64,
// floats double, and strings string.
func ValueOf(node *yaml.Node, typ openrec.Type) (pointable.Value, error) {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Tag == TagMissing {
		return pointable.Missing, nil
	}
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return pointable.Null, nil
	}
	if typ == nil || !openrec.HasFixedTag(typ) {
		typ = defaultType(node)
	}
	typ = openrec.NonNull(typ)
	switch typ := typ.(type) {
	case *openrec.TypeRecord:
		if node.Kind != yaml.MappingNode {
			return pointable.Value{}, nodeErr(node, "a record")
		}
		b := builder.NewRecordBuilder(typ)
		for k := 0; k+1 < len(node.Content); k += 2 {
			name := node.Content[k].Value
			ftyp, _ := typ.TypeOfField(name)
			val, err := ValueOf(node.Content[k+1], ftyp)
			if err != nil {
				return pointable.Value{}, err
			}
			if err := b.Add([]byte(name), val); err != nil {
				return pointable.Value{}, fmt.Errorf("line %d: %w", node.Line, err)
			}
		}
		return b.Encode()
	case *openrec.TypeList:
		if node.Kind != yaml.SequenceNode {
			return pointable.Value{}, nodeErr(node, "a list")
		}
		b := builder.NewListBuilder(typ)
		for _, item := range node.Content {
			val, err := ValueOf(item, typ.Item)
			if err != nil {
				return pointable.Value{}, err
			}
			if err := b.AddItem(val); err != nil {
				return pointable.Value{}, fmt.Errorf("line %d: %w", item.Line, err)
			}
		}
		return b.Encode()
	}
	return scalarOf(node, typ)
}

func nodeErr(node *yaml.Node, want string) error {
	return fmt.Errorf("line %d: %q is not %s", node.Line, node.Value, want)
}

func defaultType(node *yaml.Node) openrec.Type {
	switch node.Kind {
	case yaml.MappingNode:
		return openrec.TypeOpenRecord
	case yaml.SequenceNode:
		if node.Tag == TagBag {
			return openrec.TypeUnorderedListOfAny
		}
		return openrec.TypeOrderedListOfAny
	}
	switch node.Tag {
	case TagBinary:
		return openrec.TypeBinary
	}
	switch node.ShortTag() {
	case "!!int":
		return openrec.TypeInt64
	case "!!float":
		return openrec.TypeDouble
	case "!!bool":
		return openrec.TypeBoolean
	}
	return openrec.TypeString
}

func scalarOf(node *yaml.Node, typ openrec.Type) (pointable.Value, error) {
	if node.Kind != yaml.ScalarNode {
		return pointable.Value{}, nodeErr(node, typ.String())
	}
	s := node.Value
	switch tag := typ.Tag(); {
	case tag.IsInteger():
		bits := map[openrec.Tag]int{
			openrec.TagInt8:  8,
			openrec.TagInt16: 16,
			openrec.TagInt32: 32,
			openrec.TagInt64: 64,
		}[tag]
		i, err := strconv.ParseInt(s, 0, bits)
		if err != nil {
			return pointable.Value{}, nodeErr(node, typ.String())
		}
		return pointable.NewValue(typ, openrec.AppendInt(nil, tag, i)), nil
	case tag == openrec.TagFloat:
		f, err := parseFloat(s, 32)
		if err != nil {
			return pointable.Value{}, nodeErr(node, typ.String())
		}
		return pointable.NewFloat(float32(f)), nil
	case tag == openrec.TagDouble:
		f, err := parseFloat(s, 64)
		if err != nil {
			return pointable.Value{}, nodeErr(node, typ.String())
		}
		return pointable.NewDouble(f), nil
	case tag == openrec.TagBoolean:
		var ok bool
		if err := node.Decode(&ok); err != nil {
			return pointable.Value{}, nodeErr(node, typ.String())
		}
		return pointable.NewBool(ok), nil
	case tag == openrec.TagString:
		return pointable.NewString(s), nil
	case tag == openrec.TagBinary:
		b, err := hex.DecodeString(s)
		if err != nil {
			return pointable.Value{}, nodeErr(node, typ.String())
		}
		return pointable.NewBinary(b), nil
	}
	return pointable.Value{}, nodeErr(node, typ.String())
}

func parseFloat(s string, bits int) (float64, error) {
	switch s {
	case ".inf", "+.inf":
		return math.Inf(1), nil
	case "-.inf":
		return math.Inf(-1), nil
	case ".nan":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, bits)
}

// NodeOf converts a serialized value to YAML.  It is the inverse of
// ValueOf for self-describing values; widths of numbers are not kept.
func NodeOf(v pointable.Value) (*yaml.Node, error) {
	switch tag := v.Tag(); {
	case tag == openrec.TagMissing:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: TagMissing, Value: "~"}, nil
	case tag == openrec.TagNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case tag == openrec.TagRecord:
		r, err := pointable.ParseRecord(v)
		if err != nil {
			return nil, err
		}
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, f := range r.Fields {
			val, err := NodeOf(f.Value)
			if err != nil {
				return nil, err
			}
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(f.Name)}
			node.Content = append(node.Content, key, val)
		}
		return node, nil
	case tag.IsList():
		l, err := pointable.ParseList(v)
		if err != nil {
			return nil, err
		}
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if !l.Ordered() {
			node.Tag = TagBag
		}
		for _, item := range l.Items {
			val, err := NodeOf(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, val)
		}
		return node, nil
	case tag == openrec.TagBinary:
		b, err := pointable.Bytes(v)
		if err != nil {
			return nil, err
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: TagBinary, Value: hex.EncodeToString(b)}, nil
	case tag == openrec.TagString:
		s, err := pointable.String(v)
		if err != nil {
			return nil, err
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}, nil
	}
	// The remaining scalars print as they do in Format.
	s, err := pointable.Format(v)
	if err != nil {
		return nil, err
	}
	node := &yaml.Node{Kind: yaml.ScalarNode, Value: s}
	switch tag := v.Tag(); {
	case tag.IsInteger():
		node.Tag = "!!int"
	case tag.IsFloat():
		node.Tag = "!!float"
		node.Value = yamlFloat(v)
	case tag == openrec.TagBoolean:
		node.Tag = "!!bool"
	}
	return node, nil
}

func yamlFloat(v pointable.Value) string {
	f, _ := pointable.Float(v)
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		s += ".0"
	}
	return s
}

// Marshal renders v as a YAML document.
func Marshal(v pointable.Value) (string, error) {
	node, err := NodeOf(v)
	if err != nil {
		return "", err
	}
	b, err := yaml.Marshal(node)
	return string(b), err
}
