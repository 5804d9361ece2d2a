package querybuilder

import (
	"fmt"
	"strings"
)

// GroupFunc receives a builder scoped to a sub-predicate and returns it.
type GroupFunc[T any] func(Builder[T]) Builder[T]

// Builder is the minimal query-builder capability set the compilers need.
//
// Every method except Build returns a builder for chaining. Implementations
// must keep instances referentially independent after Clone and NewInstance.
type Builder[T any] interface {
	// Select adds result columns. Plain identifiers ("m.name", "subquery.*")
	// are quoted, anything else ("v.id AS resource_id") is parsed by
	// ParseColumnRef.
	Select(columns ...string) Builder[T]

	// From sets a table source, optionally aliased ("vehicles AS v").
	From(table string) Builder[T]

	// FromSubquery sets a subquery source. The subquery must carry an alias
	// set with As.
	FromSubquery(sub Builder[T]) Builder[T]

	// As names this builder when it is used as a subquery.
	As(alias string) Builder[T]

	// LeftJoin joins a table on left = right.
	LeftJoin(table, left, right string) Builder[T]

	// LeftJoinSubquery joins an aliased subquery on left = right.
	LeftJoinSubquery(sub Builder[T], left, right string) Builder[T]

	// Where conjoins column <op> value.
	Where(column string, op Operator, value any) Builder[T]

	// WhereGroup conjoins the predicate produced by fn.
	WhereGroup(fn GroupFunc[T]) Builder[T]

	// OrWhereGroup disjoins the predicate produced by fn with whatever
	// predicate the builder already holds.
	OrWhereGroup(fn GroupFunc[T]) Builder[T]

	WhereIn(column string, values []any) Builder[T]
	WhereInSubquery(column string, sub Builder[T]) Builder[T]
	WhereNotIn(column string, values []any) Builder[T]
	WhereNotInSubquery(column string, sub Builder[T]) Builder[T]
	WhereNull(column string) Builder[T]
	WhereNotNull(column string) Builder[T]

	// WhereRaw conjoins a raw predicate. Each ? consumes one binding:
	// Identifier bindings are rendered as quoted identifiers, all other
	// bindings are passed to the engine as parameters.
	WhereRaw(predicate string, bindings ...any) Builder[T]

	OrderBy(column string, dir Direction) Builder[T]

	// Limit and Offset treat negative values as "no clause".
	Limit(n int64) Builder[T]
	Offset(n int64) Builder[T]

	Clone() Builder[T]
	NewInstance() Builder[T]

	// Build materializes the concrete statement. Errors recorded while
	// chaining (for example a foreign Builder passed as a subquery) are
	// reported here.
	Build() (T, error)
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection accepts "asc"/"desc" in any case.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToUpper(strings.TrimSpace(s))) {
	case Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	default:
		return "", fmt.Errorf("invalid sort direction %q: must be ASC or DESC", s)
	}
}

// Operator is a binary comparison accepted by Builder.Where.
type Operator string

const (
	OpEq  Operator = "="
	OpNe  Operator = "!="
	OpGt  Operator = ">"
	OpLt  Operator = "<"
	OpGte Operator = ">="
	OpLte Operator = "<="
)

// Identifier marks a WhereRaw binding as a column reference.
type Identifier string

// ConfigError reports a builder constructed without a connection handle or
// seed query.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Message
}

// ErrMissingBackend is returned by adapter constructors given neither a
// connection nor a seed query.
var ErrMissingBackend = &ConfigError{Message: "a connection handle or a seed query builder is required"}
