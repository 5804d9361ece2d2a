package filter

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseJSON parses a JSON filter document. Key order is kept.
func ParseJSON(data []byte) (Expr, error) {
	tree, err := DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decode filter: %w", err)
	}
	return parseRoot(tree)
}

// ParseYAML parses a YAML filter document. Key order is kept.
func ParseYAML(data []byte) (Expr, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode filter: %w", err)
	}
	return ParseNode(&doc)
}

// ParseNode parses an already decoded YAML node.
func ParseNode(n *yaml.Node) (Expr, error) {
	tree, err := DecodeYAML(n)
	if err != nil {
		return nil, fmt.Errorf("decode filter: %w", err)
	}
	return parseRoot(tree)
}

// Parse parses a filter given as Go values: an Object from DecodeJSON or
// DecodeYAML, or map[string]any as produced by encoding/json.
func Parse(v any) (Expr, error) {
	tree, err := fromNative(v)
	if err != nil {
		return nil, err
	}
	return parseRoot(tree)
}

func parseRoot(tree any) (Expr, error) {
	switch t := tree.(type) {
	case nil:
		return nil, nil
	case Object:
		return parseObject(t, "")
	}
	return nil, malformed("", "filter must be an object, got %s", describe(tree))
}

// parseObject normalizes a map: no keys is no filter, one key is parsed
// directly, several keys become an And of single-key maps in key order.
func parseObject(obj Object, path string) (Expr, error) {
	switch len(obj) {
	case 0:
		return nil, nil
	case 1:
		return parseMember(obj[0], path)
	}
	exprs := make([]Expr, 0, len(obj))
	for _, m := range obj {
		e, err := parseMember(m, path)
		if err != nil {
			return nil, err
		}
		if e != nil {
			exprs = append(exprs, e)
		}
	}
	return And{Exprs: exprs}, nil
}

func parseMember(m Member, path string) (Expr, error) {
	at := join(path, m.Key)
	switch m.Key {
	case KeyAnd, KeyOr:
		children, err := parseChildren(m.Value, at)
		if err != nil {
			return nil, err
		}
		if m.Key == KeyAnd {
			return And{Exprs: children}, nil
		}
		return Or{Exprs: children}, nil

	case KeyIn, KeyNotIn:
		vals, err := parseList(m.Value, at)
		if err != nil {
			return nil, err
		}
		if m.Key == KeyIn {
			return In{Values: vals}, nil
		}
		return NotIn{Values: vals}, nil

	case KeyEq, KeyNe:
		v, ok := scalar(m.Value)
		if !ok {
			return nil, malformed(at, "%s expects a scalar or null, got %s", m.Key, describe(m.Value))
		}
		if m.Key == KeyEq {
			return Eq{Value: v}, nil
		}
		return Ne{Value: v}, nil

	case KeyGt, KeyLt, KeyGte, KeyLte:
		v, ok := scalar(m.Value)
		if !ok || IsNull(v) {
			return nil, malformed(at, "%s expects a non-null scalar, got %s", m.Key, describe(m.Value))
		}
		switch m.Key {
		case KeyGt:
			return Gt{Value: v}, nil
		case KeyLt:
			return Lt{Value: v}, nil
		case KeyGte:
			return Gte{Value: v}, nil
		default:
			return Lte{Value: v}, nil
		}

	case KeyContains:
		s, ok := m.Value.(string)
		if !ok {
			return nil, malformed(at, "contains expects a string, got %s", describe(m.Value))
		}
		return Contains{Pattern: s}, nil
	}

	cond, err := parseSubfilter(m.Value, at)
	if err != nil {
		return nil, err
	}
	return Field{Name: m.Key, Cond: cond}, nil
}

// parseSubfilter resolves a field's value: an array is in, an object is an
// operator expression, a scalar is eq.
func parseSubfilter(v any, path string) (Expr, error) {
	switch t := v.(type) {
	case []any:
		vals, err := parseList(t, path)
		if err != nil {
			return nil, err
		}
		return In{Values: vals}, nil
	case Object:
		return parseObject(t, path)
	case nil:
		return nil, malformed(path, "field value must be a scalar, array or object; use {eq: null} to match NULL")
	}
	s, ok := scalar(v)
	if !ok {
		return nil, malformed(path, "field value must be a scalar, array or object, got %s", describe(v))
	}
	return Eq{Value: s}, nil
}

func parseChildren(v any, path string) ([]Expr, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, malformed(path, "expects a list of objects, got %s", describe(v))
	}
	out := make([]Expr, 0, len(list))
	for i, c := range list {
		at := fmt.Sprintf("%s[%d]", path, i)
		obj, ok := c.(Object)
		if !ok {
			return nil, malformed(at, "expects an object, got %s", describe(c))
		}
		e, err := parseObject(obj, at)
		if err != nil {
			return nil, err
		}
		if e != nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func parseList(v any, path string) ([]Value, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, malformed(path, "expects a list, got %s", describe(v))
	}
	out := make([]Value, 0, len(list))
	for i, e := range list {
		s, ok := scalar(e)
		if !ok || IsNull(s) {
			return nil, malformed(fmt.Sprintf("%s[%d]", path, i), "list items must be non-null scalars, got %s", describe(e))
		}
		out = append(out, s)
	}
	return out, nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case Object, map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, int, int32, int64, float32, float64:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
