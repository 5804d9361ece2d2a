// Package request holds the sort and page inputs and the {filter, sort, page}
// envelope a caller submits in one document.
package request

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sift/internal/filter"
	"github.com/roach88/sift/internal/querybuilder"
)

// Sort orders by one field. The zero value means no sort.
type Sort struct {
	Field     string
	Direction querybuilder.Direction
}

// IsZero reports whether s requests no ordering.
func (s Sort) IsZero() bool {
	return s.Field == ""
}

// Page selects a window of rows. A nil Limit means unbounded, a nil Offset
// falls back to the configured default.
type Page struct {
	Limit  *int64 `json:"limit,omitempty" yaml:"limit,omitempty"`
	Offset *int64 `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// Int64 returns a pointer to n, for building Page literals.
func Int64(n int64) *int64 {
	return &n
}

// Request is one filter/sort/page submission.
type Request struct {
	Filter filter.Expr
	Sort   Sort
	Page   *Page
}

// ParseJSON parses a request envelope from JSON.
func ParseJSON(data []byte) (*Request, error) {
	tree, err := filter.DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return FromTree(tree)
}

// ParseYAML parses a request envelope from YAML.
func ParseYAML(data []byte) (*Request, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	tree, err := filter.DecodeYAML(&doc)
	if err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return FromTree(tree)
}

// Load reads a request file, choosing the decoder by extension
// (.yaml/.yml or JSON otherwise).
func Load(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// FromTree builds a Request from a decoded document. Unknown top-level keys
// are rejected.
func FromTree(tree any) (*Request, error) {
	if tree == nil {
		return &Request{}, nil
	}
	obj, ok := tree.(filter.Object)
	if !ok {
		return nil, fmt.Errorf("request must be an object")
	}
	req := &Request{}
	for _, m := range obj {
		var err error
		switch m.Key {
		case "filter":
			req.Filter, err = filter.Parse(m.Value)
		case "sort":
			req.Sort, err = ParseSort(m.Value)
		case "page":
			req.Page, err = ParsePage(m.Value)
		default:
			err = fmt.Errorf("unknown request key %q", m.Key)
		}
		if err != nil {
			return nil, err
		}
	}
	return req, nil
}

// ParseSort reads a {field: direction} mapping. Only the first entry is
// honored. Directions are case-insensitive.
func ParseSort(v any) (Sort, error) {
	tree, err := filter.Normalize(v)
	if err != nil {
		return Sort{}, err
	}
	switch t := tree.(type) {
	case nil:
		return Sort{}, nil
	case filter.Object:
		if len(t) == 0 {
			return Sort{}, nil
		}
		s, ok := t[0].Value.(string)
		if !ok {
			return Sort{}, fmt.Errorf("sort.%s: direction must be a string", t[0].Key)
		}
		dir, err := querybuilder.ParseDirection(s)
		if err != nil {
			return Sort{}, fmt.Errorf("sort.%s: %w", t[0].Key, err)
		}
		return Sort{Field: t[0].Key, Direction: dir}, nil
	}
	return Sort{}, fmt.Errorf("sort must be an object")
}

// ParsePage reads a {limit, offset} mapping.
func ParsePage(v any) (*Page, error) {
	tree, err := filter.Normalize(v)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, nil
	}
	obj, ok := tree.(filter.Object)
	if !ok {
		return nil, fmt.Errorf("page must be an object")
	}
	p := &Page{}
	for _, m := range obj {
		n, err := integer(m.Value)
		if err != nil {
			return nil, fmt.Errorf("page.%s: %w", m.Key, err)
		}
		switch m.Key {
		case "limit":
			p.Limit = &n
		case "offset":
			p.Offset = &n
		default:
			return nil, fmt.Errorf("unknown page key %q", m.Key)
		}
	}
	return p, nil
}

func integer(v any) (int64, error) {
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, fmt.Errorf("must be an integer, got %s", t)
		}
		return n, nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		if t != float64(int64(t)) {
			return 0, fmt.Errorf("must be an integer, got %v", t)
		}
		return int64(t), nil
	}
	return 0, fmt.Errorf("must be an integer")
}
