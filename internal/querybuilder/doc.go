// Package querybuilder defines the capability contract the filter, sort and
// pagination compilers are written against.
//
// Builder is the abstraction boundary between the compilers and concrete SQL
// engines:
//
//	[filter/sort/page input] → [compiler] → Builder[T] → [squirrel adapter] → SQL
//	                                                   → [goqu adapter]
//
// The compilers never see SQL text. They issue calls such as Where, WhereIn
// and LeftJoinSubquery, and each backend decides how to render them. T is the
// backend's concrete statement type (for example squirrel.SelectBuilder) and
// is only surfaced by Build.
//
// # Ownership
//
// Builders are mutable and chainable. Clone returns an independent copy and
// NewInstance returns an empty builder bound to the same connection and
// dialect. Group callbacks passed to Where and OrWhere receive a fresh
// builder scoped to a sub-predicate and are invoked synchronously before the
// call returns.
//
// # Identifiers
//
// Column and table names are quoted by the backend. Raw predicates mark
// identifier bindings with the Identifier type so they are quoted instead of
// being bound as values:
//
//	b.WhereRaw("lower(?) LIKE ?", querybuilder.Identifier("model"), "%ci%")
package querybuilder
