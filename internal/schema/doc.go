// Package schema declares and validates the request shapes the compiler
// consumes.
//
// Two collaborators live here. The declaration side renders GraphQL input
// types (FilterQuery_<Scalar>, SortDirection, LimitOffsetPage and one
// <Table>Filter/<Table>Sort pair per config) with graphql-go. The
// validation side generates CUE definitions for the same shapes and checks
// JSON or YAML requests against them before they reach the compiler.
package schema
