package filter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Object is a decoded JSON object that remembers key order.
type Object []Member

// Member is one key of an Object.
type Member struct {
	Key   string
	Value any
}

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// set replaces an existing key in place, otherwise appends it.
func (o Object) set(key string, v any) Object {
	for i := range o {
		if o[i].Key == key {
			o[i].Value = v
			return o
		}
	}
	return append(o, Member{Key: key, Value: v})
}

// DecodeJSON decodes data into a tree of Object, []any, string, json.Number,
// bool and nil values.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level JSON value")
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		obj := Object{}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("object key must be a string, got %v", kt)
			}
			v, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			obj = obj.set(key, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			v, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %q", delim)
}

// DecodeYAML converts a YAML node into the same tree DecodeJSON produces.
// Mapping key order is kept.
func DecodeYAML(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return DecodeYAML(n.Content[0])
	case yaml.AliasNode:
		return DecodeYAML(n.Alias)
	case yaml.MappingNode:
		obj := Object{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			var key string
			if err := n.Content[i].Decode(&key); err != nil {
				return nil, fmt.Errorf("line %d: mapping key: %w", n.Content[i].Line, err)
			}
			v, err := DecodeYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj = obj.set(key, v)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := DecodeYAML(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		return decodeYAMLScalar(n)
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
}

func decodeYAMLScalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return json.Number(strconv.FormatInt(i, 10)), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return json.Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
	default:
		return n.Value, nil
	}
}

// fromNative converts values produced by encoding/json or written as Go
// literals into the decoded tree. Map keys are sorted.
func fromNative(v any) (any, error) {
	switch t := v.(type) {
	case Object:
		return t, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := make(Object, 0, len(keys))
		for _, k := range keys {
			c, err := fromNative(t[k])
			if err != nil {
				return nil, err
			}
			obj = append(obj, Member{Key: k, Value: c})
		}
		return obj, nil
	case []any:
		arr := make([]any, len(t))
		for i, e := range t {
			c, err := fromNative(e)
			if err != nil {
				return nil, err
			}
			arr[i] = c
		}
		return arr, nil
	case []string:
		return convertSlice(t), nil
	case []int:
		return convertSlice(t), nil
	case []int64:
		return convertSlice(t), nil
	case []float64:
		return convertSlice(t), nil
	}
	return v, nil
}

func convertSlice[E any](s []E) []any {
	out := make([]any, len(s))
	for i, e := range s {
		out[i] = e
	}
	return out
}

// scalar converts a decoded leaf to a Value. ok is false for objects,
// arrays and unsupported Go types.
func scalar(v any) (Value, bool) {
	switch t := v.(type) {
	case nil:
		return Null{}, true
	case Value:
		return t, true
	case string:
		return String(t), true
	case bool:
		return Bool(t), true
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i), true
		}
		f, err := t.Float64()
		if err != nil {
			return nil, false
		}
		return numeric(f), true
	case int:
		return Int(t), true
	case int32:
		return Int(t), true
	case int64:
		return Int(t), true
	case float32:
		return numeric(float64(t)), true
	case float64:
		return numeric(t), true
	}
	return nil, false
}

// numeric keeps integral floats integral so 2018.0 and 2018 compare alike.
func numeric(f float64) Value {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return Int(int64(f))
	}
	return Float(f)
}

// Normalize converts Go maps and slices into the decoded tree form so
// callers can treat map[string]any and Object input alike.
func Normalize(v any) (any, error) {
	return fromNative(v)
}
