package registry

import (
	"github.com/roach88/sift/internal/querybuilder"
)

// Build derives a registry from cfg. base supplies the connection and
// dialect; it is only used through NewInstance and is never modified.
//
// Column subqueries come first and virtual fields override them.
func Build[T any](cfg *Config, base querybuilder.Builder[T]) Registry[T] {
	var columns Registry[T]
	if cfg.ColumnSubqueries {
		columns = ColumnSubqueries(base, cfg.Table, cfg.ID, columnNames(cfg.Columns)...)
	}
	custom := Registry[T]{}
	for _, f := range cfg.Fields {
		custom[f.Name] = FieldSubquery(base, f)
	}
	return Merge(columns, custom)
}

// ColumnSubqueries builds SELECT id AS resource_id, c AS value, c AS sort
// FROM table for each column c.
func ColumnSubqueries[T any](base querybuilder.Builder[T], table, id string, columns ...string) Registry[T] {
	r := make(Registry[T], len(columns))
	for _, c := range columns {
		r[c] = base.NewInstance().
			Select(id+" AS resource_id", c+" AS value", c+" AS sort").
			From(table)
	}
	return r
}

// FieldSubquery builds the subquery for one virtual field.
func FieldSubquery[T any](base querybuilder.Builder[T], f FieldSpec) querybuilder.Builder[T] {
	sortExpr := f.Sort
	if sortExpr == "" {
		sortExpr = f.Value
	}
	q := base.NewInstance().
		Select(f.ResourceID+" AS resource_id", f.Value+" AS value", sortExpr+" AS sort").
		From(f.From)
	for _, j := range f.Joins {
		q = q.LeftJoin(j.Table, j.Left, j.Right)
	}
	return q
}

func columnNames(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}
