package compiler

import (
	"fmt"
	"log/slog"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/sift/internal/filter"
	"github.com/roach88/sift/internal/querybuilder"
	"github.com/roach88/sift/internal/registry"
	"github.com/roach88/sift/internal/request"
)

// Compiler lowers requests against one subquery registry.
//
// A Compiler holds no per-compilation state and is safe for concurrent use
// as long as the builders passed to it are not shared.
type Compiler[T any] struct {
	subqueries registry.Registry[T]
	opts       options
}

// New creates a Compiler. subqueries may be nil.
func New[T any](subqueries registry.Registry[T], opts ...Option) *Compiler[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Compiler[T]{subqueries: subqueries, opts: o}
}

// Apply runs Filter, Sort and Page in that order.
func (c *Compiler[T]) Apply(req *request.Request, q querybuilder.Builder[T]) (querybuilder.Builder[T], error) {
	if req == nil {
		return q, nil
	}
	q, err := c.Filter(req.Filter, q)
	if err != nil {
		return nil, err
	}
	q, err = c.Sort(req.Sort, q)
	if err != nil {
		return nil, err
	}
	return c.Page(req.Page, q), nil
}

// Filter conjoins e onto q. A nil filter returns q unchanged.
func (c *Compiler[T]) Filter(e filter.Expr, q querybuilder.Builder[T]) (querybuilder.Builder[T], error) {
	if e == nil {
		return q, nil
	}
	fc := &filterCompilation[T]{
		Compiler: c,
		aliases:  c.opts.newAliases(),
		lower:    cases.Lower(language.Und),
	}
	// A root OR is grouped so it cannot absorb predicates already on q.
	if _, ok := e.(filter.Or); ok {
		var err error
		q = q.WhereGroup(fc.group(e, c.opts.valueColumn, &err))
		if err != nil {
			return nil, err
		}
		return q, nil
	}
	return fc.compile(e, c.opts.valueColumn, q)
}

// filterCompilation carries the state of one Filter call.
type filterCompilation[T any] struct {
	*Compiler[T]
	aliases AliasGenerator
	lower   cases.Caser
}

// compile applies e to q with col as the active value column.
func (fc *filterCompilation[T]) compile(e filter.Expr, col string, q querybuilder.Builder[T]) (querybuilder.Builder[T], error) {
	switch n := e.(type) {
	case nil:
		return q, nil

	case filter.And:
		for _, child := range n.Exprs {
			var err error
			q = q.WhereGroup(fc.group(child, col, &err))
			if err != nil {
				return nil, err
			}
		}
		return q, nil

	case filter.Or:
		for _, child := range n.Exprs {
			var err error
			q = q.OrWhereGroup(fc.group(child, col, &err))
			if err != nil {
				return nil, err
			}
		}
		return q, nil

	case filter.Field:
		return fc.field(n, q)

	case filter.In:
		return q.WhereIn(col, filter.Natives(n.Values)), nil

	case filter.NotIn:
		return q.WhereNotIn(col, filter.Natives(n.Values)), nil

	case filter.Eq:
		if filter.IsNull(n.Value) {
			return q.WhereNull(col), nil
		}
		return q.Where(col, querybuilder.OpEq, n.Value.Native()), nil

	case filter.Ne:
		if filter.IsNull(n.Value) {
			return q.WhereNotNull(col), nil
		}
		return q.Where(col, querybuilder.OpNe, n.Value.Native()), nil

	case filter.Gt:
		return fc.compare(col, querybuilder.OpGt, n.Value, q)
	case filter.Lt:
		return fc.compare(col, querybuilder.OpLt, n.Value, q)
	case filter.Gte:
		return fc.compare(col, querybuilder.OpGte, n.Value, q)
	case filter.Lte:
		return fc.compare(col, querybuilder.OpLte, n.Value, q)

	case filter.Contains:
		pattern := "%" + fc.lower.String(n.Pattern) + "%"
		return q.WhereRaw("lower(?) LIKE ?", querybuilder.Identifier(col), pattern), nil
	}

	return nil, &CompileError{
		Code:    ErrCodeMalformedFilter,
		Message: fmt.Sprintf("unsupported filter node %T", e),
	}
}

func (fc *filterCompilation[T]) compare(col string, op querybuilder.Operator, v filter.Value, q querybuilder.Builder[T]) (querybuilder.Builder[T], error) {
	if v == nil || filter.IsNull(v) {
		return nil, &CompileError{
			Code:    ErrCodeMalformedFilter,
			Field:   col,
			Message: fmt.Sprintf("operator %s needs a non-null operand", op),
		}
	}
	return q.Where(col, op, v.Native()), nil
}

// group returns a callback compiling e into the scoped builder. Callbacks
// run before WhereGroup returns, so the error is visible to the caller
// immediately after the call.
func (fc *filterCompilation[T]) group(e filter.Expr, col string, errp *error) querybuilder.GroupFunc[T] {
	return func(b querybuilder.Builder[T]) querybuilder.Builder[T] {
		out, err := fc.compile(e, col, b)
		if err != nil {
			*errp = err
			return b
		}
		return out
	}
}

func (fc *filterCompilation[T]) field(n filter.Field, q querybuilder.Builder[T]) (querybuilder.Builder[T], error) {
	sub, ok := fc.subqueries.Lookup(n.Name)
	if !ok {
		if fc.opts.strict {
			return nil, missingSubquery(n.Name)
		}
		var err error
		q = q.WhereGroup(fc.group(n.Cond, n.Name, &err))
		return q, err
	}

	alias := fc.aliases.Next(n.Name)
	fc.opts.logger.Debug("correlating virtual field",
		slog.String("field", n.Name),
		slog.String("alias", alias),
	)

	var err error
	inner := q.NewInstance().
		Select("resource_id").
		FromSubquery(sub.Clone().As(alias)).
		WhereGroup(fc.group(n.Cond, fc.opts.valueColumn, &err))
	if err != nil {
		return nil, err
	}
	return q.WhereInSubquery(fc.opts.idColumn, inner), nil
}

// Sort orders q by s. A zero Sort returns q unchanged. Registered fields
// wrap q so its projection survives; other fields order q directly.
func (c *Compiler[T]) Sort(s request.Sort, q querybuilder.Builder[T]) (querybuilder.Builder[T], error) {
	if s.IsZero() {
		return q, nil
	}
	if s.Direction != querybuilder.Asc && s.Direction != querybuilder.Desc {
		return nil, &CompileError{
			Code:    ErrCodeInvalidSort,
			Field:   s.Field,
			Message: fmt.Sprintf("direction %q must be ASC or DESC", s.Direction),
		}
	}

	sub, ok := c.subqueries.Lookup(s.Field)
	if !ok {
		if c.opts.strict {
			return nil, missingSubquery(s.Field)
		}
		return q.OrderBy(s.Field, s.Direction), nil
	}

	c.opts.logger.Debug("wrapping query for virtual field sort",
		slog.String("field", s.Field),
		slog.String("direction", string(s.Direction)),
	)

	return q.NewInstance().
		Select("subquery.*").
		FromSubquery(q.Clone().As("subquery")).
		LeftJoinSubquery(sub.Clone().As("subquery_sort"), "subquery."+c.opts.idColumn, "subquery_sort.resource_id").
		OrderBy("subquery_sort.sort", s.Direction), nil
}

// Page applies offset, falling back to the configured default, then limit
// when one is set. A nil page returns q unchanged. Values are passed to the
// builder as given.
func (c *Compiler[T]) Page(p *request.Page, q querybuilder.Builder[T]) querybuilder.Builder[T] {
	if p == nil {
		return q
	}
	offset := c.opts.pageDefaults.Offset
	if p.Offset != nil {
		offset = *p.Offset
	}
	q = q.Offset(offset)

	limit := c.opts.pageDefaults.Limit
	if p.Limit != nil {
		limit = p.Limit
	}
	if limit != nil {
		q = q.Limit(*limit)
	}
	return q
}
