package sqbuilder

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/sift/internal/compiler"
	"github.com/roach88/sift/internal/registry"
	"github.com/roach88/sift/internal/request"
)

// Subqueries wraps caller-built squirrel statements into a registry.
// Each statement must project resource_id, value and sort.
func Subqueries(runner sq.BaseRunner, queries map[string]sq.SelectBuilder) registry.Registry[sq.SelectBuilder] {
	r := make(registry.Registry[sq.SelectBuilder], len(queries))
	for field, q := range queries {
		r[field] = &Builder{runner: runner, format: sq.Question, sel: q, hasColumns: true}
	}
	return r
}

// Compile seeds a builder from opts, applies req and returns the squirrel
// statement ready to run.
func Compile(c *compiler.Compiler[sq.SelectBuilder], opts Options, req *request.Request) (sq.SelectBuilder, error) {
	b, err := New(opts)
	if err != nil {
		return sq.SelectBuilder{}, err
	}
	q, err := c.Apply(req, b)
	if err != nil {
		return sq.SelectBuilder{}, err
	}
	return q.Build()
}
