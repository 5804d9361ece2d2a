// Package filter defines the filter expression tree and turns JSON-shaped
// input into it.
//
// A filter arrives as a nested mapping such as
//
//	{"year": {"gte": 2015}, "make": "Nissan"}
//
// and is parsed into a closed set of node types:
//
//	And{Field{year, Gte{2015}}, Field{make, Eq{"Nissan"}}}
//
// Parsing resolves the shorthand forms before the compiler sees the tree:
// a bare scalar is Eq, a bare array is In, and a map with several keys is an
// And over one single-key map per key, kept in input order. An empty map is
// no filter at all and parses to nil.
//
// JSON input is decoded token by token so sibling keys keep their document
// order. Go maps carry no order; their keys are visited sorted.
package filter
