// Package yamlval converts between YAML documents and serialized values.
// It is used by the fixture runner and by the openrec command to describe
// argument types and values in YAML.
package yamlval

import (
	"fmt"
	"strings"

	"github.com/brimdata/openrec"
	"gopkg.in/yaml.v3"
)

// ParseType converts a YAML type description to a Type.  A scalar names a
// primitive type, with a "?" suffix for its nullable form (quoted inside
// flow collections, where "?" is a key indicator).  A mapping
// describes a complex type:
//
//	{fields: {a: int64, b: "string?"}, open: true}    record
//	{list: int64}                                     ordered list
//	{bag: string}                                     unordered list
//
// and any of them may add "nullable: true".
func ParseType(zctx *openrec.Context, node *yaml.Node) (openrec.Type, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		name := node.Value
		nullable := strings.HasSuffix(name, "?")
		name = strings.TrimSuffix(name, "?")
		typ := openrec.LookupPrimitive(name)
		if typ == nil {
			return nil, fmt.Errorf("line %d: unknown type %q", node.Line, name)
		}
		if nullable {
			typ = zctx.NewNullable(typ)
		}
		return typ, nil
	case yaml.MappingNode:
		var desc struct {
			Name     string    `yaml:"name"`
			Fields   yaml.Node `yaml:"fields"`
			Open     bool      `yaml:"open"`
			List     yaml.Node `yaml:"list"`
			Bag      yaml.Node `yaml:"bag"`
			Nullable bool      `yaml:"nullable"`
		}
		if err := node.Decode(&desc); err != nil {
			return nil, err
		}
		var typ openrec.Type
		switch {
		case desc.List.Kind != 0:
			item, err := ParseType(zctx, &desc.List)
			if err != nil {
				return nil, err
			}
			typ = zctx.NewTypeList(true, item)
		case desc.Bag.Kind != 0:
			item, err := ParseType(zctx, &desc.Bag)
			if err != nil {
				return nil, err
			}
			typ = zctx.NewTypeList(false, item)
		default:
			fields, err := parseFields(zctx, &desc.Fields)
			if err != nil {
				return nil, err
			}
			typ, err = zctx.NewTypeRecord(desc.Name, fields, desc.Open)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", node.Line, err)
			}
		}
		if desc.Nullable {
			typ = zctx.NewNullable(typ)
		}
		return typ, nil
	}
	return nil, fmt.Errorf("line %d: a type is a name or a mapping", node.Line)
}

func parseFields(zctx *openrec.Context, node *yaml.Node) ([]openrec.Field, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: record fields must be a mapping", node.Line)
	}
	var fields []openrec.Field
	for k := 0; k+1 < len(node.Content); k += 2 {
		typ, err := ParseType(zctx, node.Content[k+1])
		if err != nil {
			return nil, err
		}
		fields = append(fields, openrec.NewField(node.Content[k].Value, typ))
	}
	return fields, nil
}
