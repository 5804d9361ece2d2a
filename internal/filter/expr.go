package filter

// Expr is a sealed interface for filter expression nodes.
//
// And and Or combine children. Field scopes its condition to a named field.
// The remaining nodes are terminal operators applied to whatever column the
// enclosing Field selects.
type Expr interface {
	filterExpr()
}

// And holds when every child holds.
type And struct {
	Exprs []Expr
}

// Or holds when at least one child holds.
type Or struct {
	Exprs []Expr
}

// Field applies Cond to the named field. A nil Cond places no constraint on
// the field's value.
type Field struct {
	Name string
	Cond Expr
}

type In struct {
	Values []Value
}

type NotIn struct {
	Values []Value
}

// Eq with a Null operand means IS NULL.
type Eq struct {
	Value Value
}

// Ne with a Null operand means IS NOT NULL.
type Ne struct {
	Value Value
}

type Gt struct {
	Value Value
}

type Lt struct {
	Value Value
}

type Gte struct {
	Value Value
}

type Lte struct {
	Value Value
}

// Contains is a case-insensitive substring match.
type Contains struct {
	Pattern string
}

func (And) filterExpr()      {}
func (Or) filterExpr()       {}
func (Field) filterExpr()    {}
func (In) filterExpr()       {}
func (NotIn) filterExpr()    {}
func (Eq) filterExpr()       {}
func (Ne) filterExpr()       {}
func (Gt) filterExpr()       {}
func (Lt) filterExpr()       {}
func (Gte) filterExpr()      {}
func (Lte) filterExpr()      {}
func (Contains) filterExpr() {}

// Operator keys recognized in filter input.
const (
	KeyAnd      = "AND"
	KeyOr       = "OR"
	KeyIn       = "in"
	KeyNotIn    = "nin"
	KeyEq       = "eq"
	KeyNe       = "ne"
	KeyGt       = "gt"
	KeyLt       = "lt"
	KeyGte      = "gte"
	KeyLte      = "lte"
	KeyContains = "contains"
)

// Operators lists the terminal operator keys in declaration order.
var Operators = []string{KeyIn, KeyNotIn, KeyEq, KeyNe, KeyGt, KeyLt, KeyGte, KeyLte, KeyContains}

// IsOperator reports whether key is a terminal operator or a combinator.
func IsOperator(key string) bool {
	switch key {
	case KeyAnd, KeyOr, KeyIn, KeyNotIn, KeyEq, KeyNe, KeyGt, KeyLt, KeyGte, KeyLte, KeyContains:
		return true
	}
	return false
}

// Fields returns the distinct field names referenced by e, in first-seen order.
func Fields(e Expr) []string {
	var out []string
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case And:
			for _, c := range n.Exprs {
				walk(c)
			}
		case Or:
			for _, c := range n.Exprs {
				walk(c)
			}
		case Field:
			if !seen[n.Name] {
				seen[n.Name] = true
				out = append(out, n.Name)
			}
			walk(n.Cond)
		}
	}
	walk(e)
	return out
}
