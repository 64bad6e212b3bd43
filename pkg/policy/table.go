package policy

import (
	"fmt"
	"strings"

	"github.com/falsifian/openai-gym-sandbox/pkg/solver"
)

// Table is a controller compiled down to plain lookup slices, decoded
// once from an assignment. It carries no provenance and no reference
// to the solver; all rule values are bound by value at construction.
type Table struct {
	Spec Spec
	// Dir, Write and Next are indexed by state then input symbol.
	// A Write value of Spec.Outputs-1 means "write nothing".
	Dir   [][]int
	Write [][]int
	Next  [][]int
}

// NewTable returns a zero-valued table of the given shape.
func NewTable(spec Spec) *Table {
	t := &Table{Spec: spec}
	t.Dir = makeCells(spec)
	t.Write = makeCells(spec)
	t.Next = makeCells(spec)
	return t
}

func makeCells(spec Spec) [][]int {
	cells := make([][]int, spec.States)
	for st := range cells {
		cells[st] = make([]int, spec.Inputs)
	}
	return cells
}

// Table decodes the entire rule set under the given assignment into a
// Table.
func (r *Rules) Table(a solver.Assignment) (*Table, error) {
	t := NewTable(r.spec)
	for _, pair := range []struct {
		ru    rule
		cells [][]int
	}{
		{r.dir, t.Dir},
		{r.write, t.Write},
		{r.state, t.Next},
	} {
		for st := range pair.ru.cells {
			for in := range pair.ru.cells[st] {
				val, _, _, err := pair.ru.cells[st][in].decode(a)
				if err != nil {
					return nil, fmt.Errorf("%s rule (%d,%d): %s", pair.ru.name, st, in, err)
				}
				pair.cells[st][in] = val
			}
		}
	}
	return t, nil
}

// Action returns the action the table prescribes for the given
// internal state and input symbol.
func (t *Table) Action(state, input int) (dir int, write bool, symbol int) {
	writeno := t.Write[state][input]
	if writeno == t.Spec.Outputs-1 {
		return t.Dir[state][input], false, 0
	}
	return t.Dir[state][input], true, writeno
}

// NextState returns the next internal state the table prescribes.
func (t *Table) NextState(state, input int) int {
	return t.Next[state][input]
}

// String implements fmt.Stringer and renders one line per (state,
// input) pair.
func (t *Table) String() string {
	var b strings.Builder
	for st := 0; st < t.Spec.States; st++ {
		for in := 0; in < t.Spec.Inputs; in++ {
			dir, write, symbol := t.Action(st, in)
			move := "left"
			if dir == 1 {
				move = "right"
			}
			wr := "write nothing"
			if write {
				wr = fmt.Sprintf("write %d", symbol)
			}
			fmt.Fprintf(&b, "state %d, input %d: move %s, %s, next state %d\n",
				st, in, move, wr, t.NextState(st, in))
		}
	}
	return b.String()
}
