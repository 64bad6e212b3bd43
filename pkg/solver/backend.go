package solver

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

// Backend is the subset of a satisfiability solver's surface that a
// Session drives. Implementations must support interleaved clause
// addition and solving without discarding state learned by earlier
// calls. The specific backend in use is a configuration choice; the
// algorithms in this module depend only on this contract.
type Backend interface {
	// Lit introduces a fresh variable and returns its positive
	// literal.
	Lit() z.Lit
	// Add appends a literal to the clause under construction;
	// adding z.LitNull completes the clause.
	Add(m z.Lit)
	// Solve blocks until the accumulated formula is decided and
	// returns 1 if it is satisfiable, -1 if it is not.
	Solve() int
	// Value reports the polarity of m in the satisfying assignment
	// found by the last call to Solve.
	Value(m z.Lit) bool
}

var _ Backend = (*gini.Gini)(nil)
