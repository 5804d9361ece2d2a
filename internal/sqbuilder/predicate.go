package sqbuilder

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
)

type clause struct {
	or   bool
	pred sq.Sqlizer
}

// conj folds clauses left to right. The first clause's connective is
// ignored. When an AND follows an OR the accumulated text is parenthesized
// so SQL precedence matches the fold order.
type conj []clause

func (c conj) ToSql() (string, []any, error) {
	var sql strings.Builder
	var args []any
	openOr := false
	for i, cl := range c {
		s, a, err := cl.pred.ToSql()
		if err != nil {
			return "", nil, err
		}
		switch {
		case i == 0:
		case cl.or:
			sql.WriteString(" OR ")
			openOr = true
		default:
			if openOr {
				wrapped := "(" + sql.String() + ")"
				sql.Reset()
				sql.WriteString(wrapped)
				openOr = false
			}
			sql.WriteString(" AND ")
		}
		sql.WriteString(s)
		args = append(args, a...)
	}
	return sql.String(), args, nil
}

// hasTopLevelOr reports whether the rendered fold ends in an unparenthesized
// OR and so needs wrapping before it is conjoined with other predicates.
func (c conj) hasTopLevelOr() bool {
	openOr := false
	for i, cl := range c {
		if i == 0 {
			continue
		}
		openOr = cl.or
	}
	return openOr
}

type group struct {
	inner sq.Sqlizer
}

func (g group) ToSql() (string, []any, error) {
	sql, args, err := g.inner.ToSql()
	if err != nil {
		return "", nil, err
	}
	return "(" + sql + ")", args, nil
}
