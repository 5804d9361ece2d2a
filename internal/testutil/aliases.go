package testutil

import "fmt"

// FixedAliases hands out predetermined subquery aliases in order. Once
// they run out it falls back to subquery_<field>__<n>, n counting every
// call so far. It satisfies compiler.AliasGenerator.
type FixedAliases struct {
	aliases []string
	n       int
}

// NewFixedAliases creates a generator that returns aliases in order.
func NewFixedAliases(aliases ...string) *FixedAliases {
	return &FixedAliases{aliases: aliases}
}

func (g *FixedAliases) Next(field string) string {
	g.n++
	if g.n <= len(g.aliases) {
		return g.aliases[g.n-1]
	}
	return fmt.Sprintf("subquery_%s__%d", field, g.n)
}
