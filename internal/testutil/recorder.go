package testutil

import (
	"fmt"
	"strings"

	"github.com/roach88/sift/internal/querybuilder"
)

// Recorder is a querybuilder.Builder that records calls instead of
// building SQL. Build returns the call log, for example:
//
//	from(vehicles).where(where(year >= 2015))
//
// Group callbacks are rendered inline and subqueries in braces with their
// alias, so tests can assert compiler output without a SQL backend.
type Recorder struct {
	calls []string
	alias string
}

var _ querybuilder.Builder[string] = (*Recorder)(nil)

// NewRecorder creates a Recorder whose log starts with calls.
func NewRecorder(calls ...string) *Recorder {
	return &Recorder{calls: calls}
}

// String returns the call log joined with dots.
func (r *Recorder) String() string {
	return strings.Join(r.calls, ".")
}

func (r *Recorder) add(format string, args ...any) querybuilder.Builder[string] {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	return r
}

func describe(b querybuilder.Builder[string]) string {
	r, ok := b.(*Recorder)
	if !ok {
		return fmt.Sprintf("<%T>", b)
	}
	s := "{" + r.String() + "}"
	if r.alias != "" {
		s += " as " + r.alias
	}
	return s
}

func value(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return "'" + t + "'"
	case querybuilder.Identifier:
		return string(t)
	}
	return fmt.Sprint(v)
}

func values(vs []any) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = value(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (r *Recorder) Select(columns ...string) querybuilder.Builder[string] {
	return r.add("select(%s)", strings.Join(columns, ", "))
}

func (r *Recorder) From(table string) querybuilder.Builder[string] {
	return r.add("from(%s)", table)
}

func (r *Recorder) FromSubquery(sub querybuilder.Builder[string]) querybuilder.Builder[string] {
	return r.add("from(%s)", describe(sub))
}

func (r *Recorder) As(alias string) querybuilder.Builder[string] {
	r.alias = alias
	return r
}

func (r *Recorder) LeftJoin(table, left, right string) querybuilder.Builder[string] {
	return r.add("leftJoin(%s, %s, %s)", table, left, right)
}

func (r *Recorder) LeftJoinSubquery(sub querybuilder.Builder[string], left, right string) querybuilder.Builder[string] {
	return r.add("leftJoin(%s, %s, %s)", describe(sub), left, right)
}

func (r *Recorder) Where(column string, op querybuilder.Operator, v any) querybuilder.Builder[string] {
	return r.add("where(%s %s %s)", column, op, value(v))
}

func (r *Recorder) WhereGroup(fn querybuilder.GroupFunc[string]) querybuilder.Builder[string] {
	return r.add("where(%s)", fn(NewRecorder()).(*Recorder).String())
}

func (r *Recorder) OrWhereGroup(fn querybuilder.GroupFunc[string]) querybuilder.Builder[string] {
	return r.add("orWhere(%s)", fn(NewRecorder()).(*Recorder).String())
}

func (r *Recorder) WhereIn(column string, vs []any) querybuilder.Builder[string] {
	return r.add("whereIn(%s, %s)", column, values(vs))
}

func (r *Recorder) WhereInSubquery(column string, sub querybuilder.Builder[string]) querybuilder.Builder[string] {
	return r.add("whereIn(%s, %s)", column, describe(sub))
}

func (r *Recorder) WhereNotIn(column string, vs []any) querybuilder.Builder[string] {
	return r.add("whereNotIn(%s, %s)", column, values(vs))
}

func (r *Recorder) WhereNotInSubquery(column string, sub querybuilder.Builder[string]) querybuilder.Builder[string] {
	return r.add("whereNotIn(%s, %s)", column, describe(sub))
}

func (r *Recorder) WhereNull(column string) querybuilder.Builder[string] {
	return r.add("whereNull(%s)", column)
}

func (r *Recorder) WhereNotNull(column string) querybuilder.Builder[string] {
	return r.add("whereNotNull(%s)", column)
}

func (r *Recorder) WhereRaw(predicate string, bindings ...any) querybuilder.Builder[string] {
	return r.add("whereRaw(%s, %s)", predicate, values(bindings))
}

func (r *Recorder) OrderBy(column string, dir querybuilder.Direction) querybuilder.Builder[string] {
	return r.add("orderBy(%s, %s)", column, dir)
}

func (r *Recorder) Limit(n int64) querybuilder.Builder[string] {
	return r.add("limit(%d)", n)
}

func (r *Recorder) Offset(n int64) querybuilder.Builder[string] {
	return r.add("offset(%d)", n)
}

func (r *Recorder) Clone() querybuilder.Builder[string] {
	return &Recorder{calls: append([]string(nil), r.calls...), alias: r.alias}
}

func (r *Recorder) NewInstance() querybuilder.Builder[string] {
	return NewRecorder()
}

func (r *Recorder) Build() (string, error) {
	return r.String(), nil
}
