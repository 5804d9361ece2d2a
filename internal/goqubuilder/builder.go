// Package goqubuilder implements querybuilder.Builder over goqu datasets.
//
// Statements render for the postgres dialect by default, with prepared
// ($n) placeholders. goqu parenthesizes every boolean expression, so groups
// fold with goqu.And and goqu.Or directly.
package goqubuilder

import (
	"database/sql"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/roach88/sift/internal/querybuilder"
)

// QB is the capability interface instantiated for goqu datasets.
type QB = querybuilder.Builder[*goqu.SelectDataset]

var _ QB = (*Builder)(nil)

// DefaultDialect is used when Options.Dialect is empty.
const DefaultDialect = "postgres"

// Options configures a Builder. At least one of DB or Query is required.
type Options struct {
	// DB binds built datasets to a connection.
	DB *sql.DB

	// Query seeds the builder.
	Query *goqu.SelectDataset

	// Dialect names a registered goqu dialect.
	Dialect string
}

type clause struct {
	or   bool
	pred exp.Expression
}

// Builder adapts goqu.SelectDataset to querybuilder.Builder. Datasets are
// immutable, so Clone copies the struct and the pending clauses.
type Builder struct {
	db      *goqu.Database
	dialect goqu.DialectWrapper
	ds      *goqu.SelectDataset
	columns bool
	clauses []clause
	alias   string
	err     error
}

// New creates a Builder. It fails with a configuration error when opts has
// neither a DB nor a Query.
func New(opts Options) (*Builder, error) {
	if opts.DB == nil && opts.Query == nil {
		return nil, querybuilder.ErrMissingBackend
	}
	name := opts.Dialect
	if name == "" {
		name = DefaultDialect
	}
	b := &Builder{dialect: goqu.Dialect(name)}
	if opts.DB != nil {
		b.db = goqu.New(name, opts.DB)
	}
	if opts.Query != nil {
		b.ds = opts.Query
		b.columns = true
	} else {
		b.ds = b.empty()
	}
	return b, nil
}

// Table returns a seed dataset equivalent to SELECT * FROM table.
func Table(table string) *goqu.SelectDataset {
	return goqu.Dialect(DefaultDialect).From(goqu.T(table))
}

// ToSQL builds b and renders it with placeholders.
func ToSQL(b QB) (string, []any, error) {
	ds, err := b.Build()
	if err != nil {
		return "", nil, err
	}
	return ds.ToSQL()
}

func (b *Builder) empty() *goqu.SelectDataset {
	if b.db != nil {
		return b.db.From()
	}
	return b.dialect.From()
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) scope() *Builder {
	nb := &Builder{db: b.db, dialect: b.dialect}
	nb.ds = nb.empty()
	return nb
}

// unwrap builds a subquery argument and applies its alias.
func (b *Builder) unwrap(sub QB) (*goqu.SelectDataset, string, bool) {
	s, ok := sub.(*Builder)
	if !ok {
		b.fail(fmt.Errorf("goqubuilder: subquery of type %T is not a goqu builder", sub))
		return nil, "", false
	}
	ds, err := s.Build()
	if err != nil {
		b.fail(err)
		return nil, "", false
	}
	if s.alias != "" {
		ds = ds.As(s.alias)
	}
	return ds, s.alias, true
}

func (b *Builder) Select(columns ...string) QB {
	cols := make([]any, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, selectExpr(c))
	}
	if b.columns {
		b.ds = b.ds.SelectAppend(cols...)
	} else {
		b.ds = b.ds.Select(cols...)
		b.columns = true
	}
	return b
}

func (b *Builder) From(table string) QB {
	t, err := tableExpr(table)
	if err != nil {
		b.fail(err)
		return b
	}
	b.ds = b.ds.From(t)
	return b
}

func (b *Builder) FromSubquery(sub QB) QB {
	ds, alias, ok := b.unwrap(sub)
	if !ok {
		return b
	}
	if alias == "" {
		b.fail(fmt.Errorf("goqubuilder: subquery used in FROM needs an alias"))
		return b
	}
	b.ds = b.ds.From(ds)
	return b
}

func (b *Builder) As(alias string) QB {
	b.alias = alias
	return b
}

func (b *Builder) LeftJoin(table, left, right string) QB {
	t, err := tableExpr(table)
	if err != nil {
		b.fail(err)
		return b
	}
	b.ds = b.ds.LeftJoin(t, goqu.On(equal(left, right)))
	return b
}

func (b *Builder) LeftJoinSubquery(sub QB, left, right string) QB {
	ds, alias, ok := b.unwrap(sub)
	if !ok {
		return b
	}
	if alias == "" {
		b.fail(fmt.Errorf("goqubuilder: joined subquery needs an alias"))
		return b
	}
	b.ds = b.ds.LeftJoin(ds, goqu.On(equal(left, right)))
	return b
}

func (b *Builder) Where(column string, op querybuilder.Operator, value any) QB {
	col := goqu.I(column)
	var pred exp.Expression
	switch op {
	case querybuilder.OpEq:
		pred = col.Eq(value)
	case querybuilder.OpNe:
		pred = col.Neq(value)
	case querybuilder.OpGt:
		pred = col.Gt(value)
	case querybuilder.OpLt:
		pred = col.Lt(value)
	case querybuilder.OpGte:
		pred = col.Gte(value)
	case querybuilder.OpLte:
		pred = col.Lte(value)
	default:
		b.fail(fmt.Errorf("goqubuilder: unsupported operator %q", op))
		return b
	}
	return b.add(false, pred)
}

func (b *Builder) WhereGroup(fn querybuilder.GroupFunc[*goqu.SelectDataset]) QB {
	return b.group(false, fn)
}

func (b *Builder) OrWhereGroup(fn querybuilder.GroupFunc[*goqu.SelectDataset]) QB {
	return b.group(true, fn)
}

func (b *Builder) group(or bool, fn querybuilder.GroupFunc[*goqu.SelectDataset]) QB {
	res, ok := fn(b.scope()).(*Builder)
	if !ok {
		b.fail(fmt.Errorf("goqubuilder: group callback returned a foreign builder"))
		return b
	}
	if res.err != nil {
		b.fail(res.err)
		return b
	}
	pred := res.predicate()
	if pred == nil {
		return b
	}
	return b.add(or, pred)
}

func (b *Builder) WhereIn(column string, values []any) QB {
	if len(values) == 0 {
		return b.add(false, goqu.L("1=0"))
	}
	return b.add(false, goqu.I(column).In(values...))
}

func (b *Builder) WhereInSubquery(column string, sub QB) QB {
	ds, _, ok := b.unwrap(sub)
	if !ok {
		return b
	}
	return b.add(false, goqu.I(column).In(ds))
}

func (b *Builder) WhereNotIn(column string, values []any) QB {
	if len(values) == 0 {
		return b.add(false, goqu.L("1=1"))
	}
	return b.add(false, goqu.I(column).NotIn(values...))
}

func (b *Builder) WhereNotInSubquery(column string, sub QB) QB {
	ds, _, ok := b.unwrap(sub)
	if !ok {
		return b
	}
	return b.add(false, goqu.I(column).NotIn(ds))
}

func (b *Builder) WhereNull(column string) QB {
	return b.add(false, goqu.I(column).IsNull())
}

func (b *Builder) WhereNotNull(column string) QB {
	return b.add(false, goqu.I(column).IsNotNull())
}

func (b *Builder) WhereRaw(predicate string, bindings ...any) QB {
	if n := strings.Count(predicate, "?"); n != len(bindings) {
		b.fail(fmt.Errorf("raw predicate %q has %d placeholders but %d bindings", predicate, n, len(bindings)))
		return b
	}
	args := make([]any, len(bindings))
	for i, v := range bindings {
		if id, ok := v.(querybuilder.Identifier); ok {
			args[i] = goqu.I(string(id))
		} else {
			args[i] = v
		}
	}
	return b.add(false, goqu.L(predicate, args...))
}

func (b *Builder) OrderBy(column string, dir querybuilder.Direction) QB {
	col := goqu.I(column)
	switch dir {
	case querybuilder.Asc:
		b.ds = b.ds.OrderAppend(col.Asc())
	case querybuilder.Desc:
		b.ds = b.ds.OrderAppend(col.Desc())
	default:
		b.fail(fmt.Errorf("goqubuilder: invalid sort direction %q", dir))
	}
	return b
}

// Limit renders LIMIT ALL when n does not fit goqu's uint.
func (b *Builder) Limit(n int64) QB {
	if n < 0 {
		return b
	}
	if v, ok := toUint(n, math.MaxUint); ok {
		b.ds = b.ds.Limit(v)
	} else {
		b.ds = b.ds.LimitAll()
	}
	return b
}

func (b *Builder) Offset(n int64) QB {
	if n < 0 {
		return b
	}
	v, ok := toUint(n, math.MaxUint)
	if !ok {
		b.fail(fmt.Errorf("goqubuilder: offset %d exceeds the platform uint range", n))
		return b
	}
	b.ds = b.ds.Offset(v)
	return b
}

func (b *Builder) Clone() QB {
	c := *b
	c.clauses = slices.Clone(b.clauses)
	return &c
}

func (b *Builder) NewInstance() QB {
	return b.scope()
}

// Build returns the dataset with pending predicates applied and prepared
// placeholders enabled.
func (b *Builder) Build() (*goqu.SelectDataset, error) {
	if b.err != nil {
		return nil, b.err
	}
	ds := b.ds
	if pred := b.predicate(); pred != nil {
		ds = ds.Where(pred)
	}
	return ds.Prepared(true), nil
}

func (b *Builder) add(or bool, pred exp.Expression) QB {
	b.clauses = append(b.clauses, clause{or: or, pred: pred})
	return b
}

// predicate folds the clauses left to right.
func (b *Builder) predicate() exp.Expression {
	if len(b.clauses) == 0 {
		return nil
	}
	acc := b.clauses[0].pred
	for _, c := range b.clauses[1:] {
		if c.or {
			acc = goqu.Or(acc, c.pred)
		} else {
			acc = goqu.And(acc, c.pred)
		}
	}
	return acc
}

// toUint converts a non-negative n no larger than max.
func toUint(n int64, max uint64) (uint, bool) {
	if n < 0 || uint64(n) > max {
		return 0, false
	}
	return uint(n), true
}

func selectExpr(col string) any {
	if querybuilder.IsIdentifier(col) {
		return identExpr(col)
	}
	expr, alias := querybuilder.ParseColumnRef(col)
	if alias == "" {
		return goqu.L(col)
	}
	if querybuilder.IsIdentifier(expr) {
		return goqu.I(expr).As(alias)
	}
	return goqu.L(expr).As(alias)
}

// identExpr handles "*" and "t.*", which goqu.I would quote as a column.
func identExpr(col string) any {
	switch {
	case col == "*":
		return goqu.Star()
	case strings.HasSuffix(col, ".*"):
		return goqu.T(strings.TrimSuffix(col, ".*")).All()
	}
	return goqu.I(col)
}

func tableExpr(ref string) (exp.Expression, error) {
	table, alias, err := querybuilder.ParseTableRef(ref)
	if err != nil {
		return nil, err
	}
	if alias != "" {
		return goqu.T(table).As(alias), nil
	}
	return goqu.T(table), nil
}

func equal(left, right string) exp.Expression {
	if querybuilder.IsIdentifier(left) && querybuilder.IsIdentifier(right) {
		return goqu.I(left).Eq(goqu.I(right))
	}
	return goqu.L(refSQL(left) + " = " + refSQL(right))
}

func refSQL(s string) string {
	if querybuilder.IsIdentifier(s) {
		return querybuilder.QuoteIdentifier(s)
	}
	return s
}
