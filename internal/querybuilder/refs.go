package querybuilder

import (
	"fmt"
	"regexp"
	"strings"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.([A-Za-z_][A-Za-z0-9_]*|\*))*$`)

// IsIdentifier reports whether s is a plain, optionally dotted identifier
// such as "year", "m.name" or "subquery.*".
func IsIdentifier(s string) bool {
	return s == "*" || identPattern.MatchString(s)
}

// QuoteIdentifier quotes each dotted part of name with ANSI double quotes.
// A "*" part is left bare. Embedded quotes are doubled, so arbitrary field
// names coming from user input cannot break out of the identifier.
func QuoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

// ParseTableRef splits "vehicles", "vehicles v" or "vehicles AS v" into the
// table name and alias.
func ParseTableRef(ref string) (table, alias string, err error) {
	fields := strings.Fields(ref)
	switch {
	case len(fields) == 1:
		return fields[0], "", nil
	case len(fields) == 2:
		return fields[0], fields[1], nil
	case len(fields) == 3 && strings.EqualFold(fields[1], "as"):
		return fields[0], fields[2], nil
	default:
		return "", "", fmt.Errorf("invalid table reference %q", ref)
	}
}

// ParseColumnRef splits a select expression at its last top-level AS.
// "v.id AS resource_id" yields ("v.id", "resource_id"); an expression with
// no alias yields an empty alias.
func ParseColumnRef(ref string) (expr, alias string) {
	ref = strings.TrimSpace(ref)
	lower := strings.ToLower(ref)
	depth := 0
	at := -1
	for i := 0; i < len(lower); i++ {
		switch lower[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ' ':
			if depth == 0 && strings.HasPrefix(lower[i:], " as ") {
				at = i
			}
		}
	}
	if at < 0 {
		return ref, ""
	}
	return strings.TrimSpace(ref[:at]), strings.TrimSpace(ref[at+4:])
}

// ExpandRaw substitutes Identifier bindings in a raw predicate with the
// result of quote and returns the remaining value bindings in order.
func ExpandRaw(predicate string, bindings []any, quote func(string) string) (string, []any, error) {
	var b strings.Builder
	var args []any
	next := 0
	for i := 0; i < len(predicate); i++ {
		if predicate[i] != '?' {
			b.WriteByte(predicate[i])
			continue
		}
		if next >= len(bindings) {
			return "", nil, fmt.Errorf("raw predicate %q has more placeholders than bindings", predicate)
		}
		if id, ok := bindings[next].(Identifier); ok {
			b.WriteString(quote(string(id)))
		} else {
			b.WriteByte('?')
			args = append(args, bindings[next])
		}
		next++
	}
	if next != len(bindings) {
		return "", nil, fmt.Errorf("raw predicate %q has %d placeholders but %d bindings", predicate, next, len(bindings))
	}
	return b.String(), args, nil
}
