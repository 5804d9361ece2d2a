package compiler

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// AliasGenerator names virtual-field subqueries within one compilation.
// Names must be unique per generator.
type AliasGenerator interface {
	Next(field string) string
}

// CounterAliases produces subquery_<field>__1, subquery_<field>__2, ...
// A fresh generator is created for every compilation, so output is
// deterministic.
type CounterAliases struct {
	n int
}

// NewCounterAliases returns a counter starting at 1.
func NewCounterAliases() AliasGenerator {
	return &CounterAliases{}
}

func (g *CounterAliases) Next(field string) string {
	g.n++
	return fmt.Sprintf("subquery_%s__%d", sanitize(field), g.n)
}

// UUIDAliases suffixes aliases with a random UUID (hex, no dashes).
//
// Thread-safety: UUIDAliases is stateless and safe for concurrent use.
type UUIDAliases struct{}

// NewUUIDAliases returns a UUID alias generator.
func NewUUIDAliases() AliasGenerator {
	return UUIDAliases{}
}

func (UUIDAliases) Next(field string) string {
	return fmt.Sprintf("subquery_%s__%s", sanitize(field), strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// sanitize keeps field names usable inside an identifier.
func sanitize(field string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, field)
}
