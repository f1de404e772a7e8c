package fixture

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mnehpets/papyrus/geojson"
)

// LoadYAML decodes a single YAML document.
//
// Mappings become geojson.Object in document order and sequences become
// []any. Scalars are resolved by tag:
//   - !!float becomes decimal.Decimal, or float64 when it has no decimal
//     form (.inf, .nan)
//   - !!int becomes int64, uint64 or decimal.Decimal, whichever holds it
//   - a date-only !!timestamp becomes civil.Date, any other time.Time
//   - !!str, !!bool and !!null become string, bool and nil
//
// Aliases are expanded and merge keys (<<) are applied. An empty document
// decodes to nil.
func LoadYAML(r io.Reader) (any, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return yamlValue(&doc, 0)
}

func yamlValue(n *yaml.Node, depth int) (any, error) {
	if depth > maxDepth {
		return nil, formatError("line %d: maximum nesting depth exceeded", n.Line)
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0], depth+1)
	case yaml.AliasNode:
		return yamlValue(n.Alias, depth+1)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlValue(c, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		obj := geojson.Object{}
		if err := yamlMapping(&obj, n, depth); err != nil {
			return nil, err
		}
		return obj, nil
	case yaml.ScalarNode:
		return yamlScalar(n)
	}
	return nil, formatError("line %d: unexpected node kind %d", n.Line, n.Kind)
}

// yamlMapping adds the members of n to obj. Explicit keys replace earlier
// values. Merged keys never replace a key already present.
func yamlMapping(obj *geojson.Object, n *yaml.Node, depth int) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind == yaml.AliasNode {
			k = k.Alias
		}
		if k.Kind != yaml.ScalarNode {
			return formatError("line %d: mapping key must be a scalar", k.Line)
		}

		if k.ShortTag() == "!!merge" {
			if err := yamlMerge(obj, v, depth+1); err != nil {
				return err
			}
			continue
		}

		val, err := yamlValue(v, depth+1)
		if err != nil {
			return err
		}
		obj.Set(k.Value, val)
	}
	return nil
}

func yamlMerge(obj *geojson.Object, n *yaml.Node, depth int) error {
	if depth > maxDepth {
		return formatError("line %d: maximum nesting depth exceeded", n.Line)
	}
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	switch n.Kind {
	case yaml.MappingNode:
		var merged geojson.Object
		if err := yamlMapping(&merged, n, depth); err != nil {
			return err
		}
		for _, m := range merged {
			if _, ok := obj.Get(m.Key); !ok {
				*obj = append(*obj, m)
			}
		}
		return nil
	case yaml.SequenceNode:
		for _, c := range n.Content {
			if c.Kind == yaml.SequenceNode {
				return formatError("line %d: merge value must be a mapping", c.Line)
			}
			if err := yamlMerge(obj, c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return formatError("line %d: merge value must be a mapping", n.Line)
}

func yamlScalar(n *yaml.Node) (any, error) {
	switch tag := n.ShortTag(); tag {
	case "!!null":
		return nil, nil
	case "!!str":
		return n.Value, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return i, nil
		}
		var u uint64
		if err := n.Decode(&u); err == nil {
			return u, nil
		}
		d, err := decimal.NewFromString(n.Value)
		if err != nil {
			return nil, formatError("line %d: invalid integer %q", n.Line, n.Value)
		}
		return d, nil
	case "!!float":
		if d, err := decimal.NewFromString(n.Value); err == nil {
			return d, nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, formatError("line %d: invalid float %q", n.Line, n.Value)
		}
		return f, nil
	case "!!timestamp":
		if d, err := civil.ParseDate(n.Value); err == nil {
			return d, nil
		}
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return nil, formatError("line %d: invalid timestamp %q", n.Line, n.Value)
		}
		return t, nil
	default:
		return nil, formatError("line %d: unsupported tag %s", n.Line, strconv.Quote(tag))
	}
}
