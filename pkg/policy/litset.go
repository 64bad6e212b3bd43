package policy

import "github.com/falsifian/openai-gym-sandbox/pkg/solver"

// litSet is an insertion-ordered set of literals.
type litSet struct {
	indices map[solver.Literal]int
	lits    []solver.Literal
}

func newLitSet() *litSet {
	return &litSet{indices: make(map[solver.Literal]int)}
}

func (set *litSet) Add(l solver.Literal) {
	if set.Contains(l) {
		return
	}
	set.indices[l] = len(set.lits)
	set.lits = append(set.lits, l)
}

func (set *litSet) Contains(l solver.Literal) bool {
	_, ok := set.indices[l]
	return ok
}

func (set *litSet) Slice() []solver.Literal {
	return set.lits
}

func (set *litSet) Len() int {
	return len(set.lits)
}

func (set *litSet) Clear() {
	set.lits = set.lits[:0]
	for l := range set.indices {
		delete(set.indices, l)
	}
}
