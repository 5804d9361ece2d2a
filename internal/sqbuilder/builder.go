package sqbuilder

import (
	"fmt"
	"math"
	"slices"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/sift/internal/querybuilder"
)

// QB is the capability interface instantiated for squirrel statements.
type QB = querybuilder.Builder[sq.SelectBuilder]

var _ QB = (*Builder)(nil)

// Options configures a Builder. At least one of Runner or Query is required.
type Options struct {
	// Runner is the connection handle attached to built statements.
	Runner sq.BaseRunner

	// Query seeds the builder. It is copied, never mutated.
	Query *sq.SelectBuilder

	// Format is the placeholder format of the top-level statement.
	// Defaults to sq.Question.
	Format sq.PlaceholderFormat
}

// Builder adapts squirrel.SelectBuilder to querybuilder.Builder.
//
// squirrel builders are immutable values, so Clone is a shallow copy plus a
// copy of the pending predicate clauses. Predicates are kept apart from the
// seed query until Build so OrWhereGroup composes only with predicates added
// through this builder.
type Builder struct {
	runner     sq.BaseRunner
	format     sq.PlaceholderFormat
	sel        sq.SelectBuilder
	hasColumns bool
	clauses    []clause
	alias      string
	limited    bool
	offset     bool
	err        error
}

// New creates a Builder. It fails with a configuration error when opts has
// neither a Runner nor a Query.
func New(opts Options) (*Builder, error) {
	if opts.Runner == nil && opts.Query == nil {
		return nil, querybuilder.ErrMissingBackend
	}
	b := &Builder{
		runner: opts.Runner,
		format: opts.Format,
		sel:    sq.Select(),
	}
	if b.format == nil {
		b.format = sq.Question
	}
	if opts.Query != nil {
		b.sel = *opts.Query
		b.hasColumns = true
	}
	return b, nil
}

// Table returns a seed query equivalent to SELECT * FROM table.
func Table(table string) sq.SelectBuilder {
	return sq.Select("*").From(querybuilder.QuoteIdentifier(table))
}

// ToSQL builds b and renders it.
func ToSQL(b QB) (string, []any, error) {
	sel, err := b.Build()
	if err != nil {
		return "", nil, err
	}
	return sel.ToSql()
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// unwrap extracts the squirrel statement and alias of a subquery argument.
func (b *Builder) unwrap(sub QB) (sq.SelectBuilder, string, bool) {
	s, ok := sub.(*Builder)
	if !ok {
		b.fail(fmt.Errorf("sqbuilder: subquery of type %T is not a squirrel builder", sub))
		return sq.SelectBuilder{}, "", false
	}
	built, err := s.Build()
	if err != nil {
		b.fail(err)
		return sq.SelectBuilder{}, "", false
	}
	return built, s.alias, true
}

func (b *Builder) Select(columns ...string) QB {
	rendered := make([]string, 0, len(columns))
	for _, c := range columns {
		rendered = append(rendered, selectExpr(c))
	}
	b.sel = b.sel.Columns(rendered...)
	b.hasColumns = true
	return b
}

func (b *Builder) From(table string) QB {
	from, err := tableExpr(table)
	if err != nil {
		b.fail(err)
		return b
	}
	b.sel = b.sel.From(from)
	return b
}

func (b *Builder) FromSubquery(sub QB) QB {
	built, alias, ok := b.unwrap(sub)
	if !ok {
		return b
	}
	if alias == "" {
		b.fail(fmt.Errorf("sqbuilder: subquery used in FROM needs an alias"))
		return b
	}
	b.sel = b.sel.FromSelect(built, querybuilder.QuoteIdentifier(alias))
	return b
}

func (b *Builder) As(alias string) QB {
	b.alias = alias
	return b
}

func (b *Builder) LeftJoin(table, left, right string) QB {
	join, err := tableExpr(table)
	if err != nil {
		b.fail(err)
		return b
	}
	b.sel = b.sel.LeftJoin(join + " ON " + refExpr(left) + " = " + refExpr(right))
	return b
}

func (b *Builder) LeftJoinSubquery(sub QB, left, right string) QB {
	built, alias, ok := b.unwrap(sub)
	if !ok {
		return b
	}
	if alias == "" {
		b.fail(fmt.Errorf("sqbuilder: joined subquery needs an alias"))
		return b
	}
	on := fmt.Sprintf("LEFT JOIN (?) AS %s ON %s = %s",
		querybuilder.QuoteIdentifier(alias), refExpr(left), refExpr(right))
	b.sel = b.sel.JoinClause(sq.Expr(on, built))
	return b
}

func (b *Builder) Where(column string, op querybuilder.Operator, value any) QB {
	col := querybuilder.QuoteIdentifier(column)
	var pred sq.Sqlizer
	switch op {
	case querybuilder.OpEq:
		pred = sq.Eq{col: value}
	case querybuilder.OpNe:
		pred = sq.NotEq{col: value}
	case querybuilder.OpGt:
		pred = sq.Gt{col: value}
	case querybuilder.OpLt:
		pred = sq.Lt{col: value}
	case querybuilder.OpGte:
		pred = sq.GtOrEq{col: value}
	case querybuilder.OpLte:
		pred = sq.LtOrEq{col: value}
	default:
		b.fail(fmt.Errorf("sqbuilder: unsupported operator %q", op))
		return b
	}
	return b.add(false, pred)
}

func (b *Builder) WhereGroup(fn querybuilder.GroupFunc[sq.SelectBuilder]) QB {
	return b.group(false, fn)
}

func (b *Builder) OrWhereGroup(fn querybuilder.GroupFunc[sq.SelectBuilder]) QB {
	return b.group(true, fn)
}

func (b *Builder) group(or bool, fn querybuilder.GroupFunc[sq.SelectBuilder]) QB {
	scope := &Builder{runner: b.runner, format: b.format, sel: sq.Select()}
	res, ok := fn(scope).(*Builder)
	if !ok {
		b.fail(fmt.Errorf("sqbuilder: group callback returned a foreign builder"))
		return b
	}
	if res.err != nil {
		b.fail(res.err)
		return b
	}
	if len(res.clauses) == 0 {
		return b
	}
	return b.add(or, group{inner: conj(res.clauses)})
}

func (b *Builder) WhereIn(column string, values []any) QB {
	if values == nil {
		values = []any{}
	}
	return b.add(false, sq.Eq{querybuilder.QuoteIdentifier(column): values})
}

func (b *Builder) WhereInSubquery(column string, sub QB) QB {
	built, _, ok := b.unwrap(sub)
	if !ok {
		return b
	}
	return b.add(false, sq.Expr(querybuilder.QuoteIdentifier(column)+" IN (?)", built))
}

func (b *Builder) WhereNotIn(column string, values []any) QB {
	if values == nil {
		values = []any{}
	}
	return b.add(false, sq.NotEq{querybuilder.QuoteIdentifier(column): values})
}

func (b *Builder) WhereNotInSubquery(column string, sub QB) QB {
	built, _, ok := b.unwrap(sub)
	if !ok {
		return b
	}
	return b.add(false, sq.Expr(querybuilder.QuoteIdentifier(column)+" NOT IN (?)", built))
}

func (b *Builder) WhereNull(column string) QB {
	return b.add(false, sq.Eq{querybuilder.QuoteIdentifier(column): nil})
}

func (b *Builder) WhereNotNull(column string) QB {
	return b.add(false, sq.NotEq{querybuilder.QuoteIdentifier(column): nil})
}

func (b *Builder) WhereRaw(predicate string, bindings ...any) QB {
	sql, args, err := querybuilder.ExpandRaw(predicate, bindings, querybuilder.QuoteIdentifier)
	if err != nil {
		b.fail(err)
		return b
	}
	return b.add(false, sq.Expr(sql, args...))
}

func (b *Builder) OrderBy(column string, dir querybuilder.Direction) QB {
	if dir != querybuilder.Asc && dir != querybuilder.Desc {
		b.fail(fmt.Errorf("sqbuilder: invalid sort direction %q", dir))
		return b
	}
	b.sel = b.sel.OrderBy(querybuilder.QuoteIdentifier(column) + " " + string(dir))
	return b
}

func (b *Builder) Limit(n int64) QB {
	if n >= 0 {
		b.sel = b.sel.Limit(uint64(n))
		b.limited = true
	}
	return b
}

func (b *Builder) Offset(n int64) QB {
	if n >= 0 {
		b.sel = b.sel.Offset(uint64(n))
		b.offset = true
	}
	return b
}

func (b *Builder) Clone() QB {
	c := *b
	c.clauses = slices.Clone(b.clauses)
	return &c
}

func (b *Builder) NewInstance() QB {
	return &Builder{runner: b.runner, format: b.format, sel: sq.Select()}
}

// Build returns the squirrel statement with pending predicates applied,
// the placeholder format set, and the runner attached.
func (b *Builder) Build() (sq.SelectBuilder, error) {
	if b.err != nil {
		return sq.SelectBuilder{}, b.err
	}
	sel := b.sel
	if !b.hasColumns {
		sel = sel.Columns("*")
	}
	if len(b.clauses) > 0 {
		var pred sq.Sqlizer = conj(b.clauses)
		if conj(b.clauses).hasTopLevelOr() {
			pred = group{inner: pred}
		}
		sel = sel.Where(pred)
	}
	// SQLite rejects OFFSET without LIMIT.
	if b.offset && !b.limited {
		sel = sel.Limit(math.MaxInt64)
	}
	sel = sel.PlaceholderFormat(b.format)
	if b.runner != nil {
		sel = sel.RunWith(b.runner)
	}
	return sel, nil
}

func (b *Builder) add(or bool, pred sq.Sqlizer) QB {
	b.clauses = append(b.clauses, clause{or: or, pred: pred})
	return b
}

func selectExpr(col string) string {
	if querybuilder.IsIdentifier(col) {
		return querybuilder.QuoteIdentifier(col)
	}
	expr, alias := querybuilder.ParseColumnRef(col)
	if alias == "" {
		return col
	}
	return refExpr(expr) + " AS " + querybuilder.QuoteIdentifier(alias)
}

func tableExpr(ref string) (string, error) {
	table, alias, err := querybuilder.ParseTableRef(ref)
	if err != nil {
		return "", err
	}
	out := querybuilder.QuoteIdentifier(table)
	if alias != "" {
		out += " AS " + querybuilder.QuoteIdentifier(alias)
	}
	return out, nil
}

// refExpr quotes identifiers and passes configured expressions through.
func refExpr(s string) string {
	if querybuilder.IsIdentifier(s) {
		return querybuilder.QuoteIdentifier(s)
	}
	return s
}
