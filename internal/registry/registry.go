// Package registry maps logical field names to virtual-field subqueries.
//
// Every subquery projects three columns:
//
//	resource_id  joins back to the base table's id column
//	value        the value filters compare against
//	sort         the value sorts order by
//
// Registries are read-only to the compilers. Entries are cloned before use.
package registry

import (
	"maps"
	"slices"

	"github.com/roach88/sift/internal/querybuilder"
)

// Registry maps field names to subquery builders.
type Registry[T any] map[string]querybuilder.Builder[T]

// Lookup returns the subquery registered for field.
func (r Registry[T]) Lookup(field string) (querybuilder.Builder[T], bool) {
	b, ok := r[field]
	return b, ok && b != nil
}

// Fields returns the registered field names, sorted.
func (r Registry[T]) Fields() []string {
	return slices.Sorted(maps.Keys(r))
}

// FromMap copies caller-built subqueries into a Registry.
func FromMap[T any](m map[string]querybuilder.Builder[T]) Registry[T] {
	r := make(Registry[T], len(m))
	for k, v := range m {
		r[k] = v
	}
	return r
}

// Merge combines registries. Later registries override earlier ones, so
// custom fields merged after column-derived ones win.
func Merge[T any](regs ...Registry[T]) Registry[T] {
	out := Registry[T]{}
	for _, r := range regs {
		maps.Copy(out, r)
	}
	return out
}
