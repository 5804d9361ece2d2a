package goqubuilder

import (
	"github.com/doug-martin/goqu/v9"

	"github.com/roach88/sift/internal/compiler"
	"github.com/roach88/sift/internal/registry"
	"github.com/roach88/sift/internal/request"
)

// Subqueries wraps caller-built datasets into a registry. Each dataset
// must project resource_id, value and sort.
func Subqueries(datasets map[string]*goqu.SelectDataset) registry.Registry[*goqu.SelectDataset] {
	r := make(registry.Registry[*goqu.SelectDataset], len(datasets))
	for field, ds := range datasets {
		r[field] = &Builder{dialect: goqu.Dialect(DefaultDialect), ds: ds, columns: true}
	}
	return r
}

// Compile seeds a builder from opts, applies req and returns the prepared
// dataset.
func Compile(c *compiler.Compiler[*goqu.SelectDataset], opts Options, req *request.Request) (*goqu.SelectDataset, error) {
	b, err := New(opts)
	if err != nil {
		return nil, err
	}
	q, err := c.Apply(req, b)
	if err != nil {
		return nil, err
	}
	return q.Build()
}
