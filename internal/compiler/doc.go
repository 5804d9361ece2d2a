// Package compiler lowers filter, sort and page inputs into calls on a
// querybuilder.Builder.
//
// The three compilers are independent and may be applied in any order;
// Apply runs them in the conventional filter, sort, page order:
//
//	c := compiler.New(subqueries)
//	q, err := c.Apply(req, base)
//
// A filter field with a registered subquery becomes a correlated IN:
//
//	id IN (SELECT resource_id FROM (<subquery>) AS subquery_<field>__<n> WHERE <cond on value>)
//
// A field with no registered subquery is treated as a column of the base
// table unless the compiler is strict, in which case it is a
// MISSING_SUBQUERY error. Sorting on a registered field wraps the query:
//
//	SELECT subquery.* FROM (<query>) AS subquery
//	LEFT JOIN (<subquery>) AS subquery_sort ON subquery.id = subquery_sort.resource_id
//	ORDER BY subquery_sort.sort <dir>
//
// Compilers never modify registry entries or the builder passed in beyond
// the calls that builder's own chaining implies; subqueries are cloned.
package compiler
