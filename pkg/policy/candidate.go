package policy

import (
	"fmt"
	"strings"

	"github.com/falsifian/openai-gym-sandbox/pkg/solver"
)

// Candidate is one concrete controller read out of a satisfying
// assignment. Besides answering rule lookups it records provenance:
// which decision literals were actually exercised on the way to
// whatever outcome the episodes produce. Committed literals are the
// material for a nogood if the candidate fails; the pending buffer
// holds the most recent step's direction and next-state decisions,
// which are only committed if the episode survives past that step.
type Candidate struct {
	rules      *Rules
	assignment solver.Assignment
	committed  *litSet
	pending    *litSet
	errs       []error
}

// Bind fixes the given assignment into a fresh Candidate with empty
// provenance.
func (r *Rules) Bind(a solver.Assignment) *Candidate {
	return &Candidate{
		rules:      r,
		assignment: a,
		committed:  newLitSet(),
		pending:    newLitSet(),
	}
}

// Action returns the decoded action for the given internal state and
// input symbol. The pending buffer from the previous step is flushed
// into committed provenance first: reaching this call means the
// episode survived that step, so its decisions mattered. The write
// decision commits immediately (if this step fails, the write is what
// failed) while the direction decision is only buffered.
func (c *Candidate) Action(state, input int) (dir int, write bool, symbol int) {
	c.flush()
	writeno := c.decode(c.rules.write, state, input, false)
	dir = c.decode(c.rules.dir, state, input, true)
	if writeno == c.rules.spec.Outputs-1 {
		// The last output value encodes "write nothing"; the
		// symbol is meaningless in that case.
		return dir, false, 0
	}
	return dir, true, writeno
}

// NextState returns the decoded next internal state. With a single
// state the answer is constant and leaves no provenance. Otherwise
// the transition literal joins the direction literal in the pending
// buffer as this step's "only matters if we survive it" pair.
func (c *Candidate) NextState(state, input int) int {
	if c.rules.spec.States == 1 {
		return 0
	}
	return c.decode(c.rules.state, state, input, true)
}

func (c *Candidate) decode(ru rule, state, input int, buffer bool) int {
	val, lit, ok, err := ru.cells[state][input].decode(c.assignment)
	if err != nil {
		c.errs = append(c.errs, fmt.Errorf("%s rule (%d,%d): %s", ru.name, state, input, err))
		return val
	}
	if !ok {
		return val
	}
	if buffer {
		c.pending.Add(lit)
	} else {
		c.committed.Add(lit)
	}
	return val
}

func (c *Candidate) flush() {
	if c.pending.Len() == 0 {
		return
	}
	for _, l := range c.pending.Slice() {
		c.committed.Add(l)
	}
	c.pending.Clear()
}

// Provenance returns the committed literals exercised so far.
// Decisions still sitting in the pending buffer are excluded: the
// step they belong to never proved consequential.
func (c *Candidate) Provenance() []solver.Literal {
	out := make([]solver.Literal, c.committed.Len())
	copy(out, c.committed.Slice())
	return out
}

// Discard drops all provenance, committed and buffered alike. Called
// after an episode succeeds: nothing learned there may contaminate a
// future nogood.
func (c *Candidate) Discard() {
	c.committed.Clear()
	c.pending.Clear()
}

// Err returns a single error aggregating every decode anomaly
// encountered during the Candidate's lifetime, or nil if there have
// been none. A non-nil return likely indicates a broken cardinality
// constraint or backend.
func (c *Candidate) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	s := make([]string, len(c.errs))
	for i, err := range c.errs {
		s[i] = err.Error()
	}
	return fmt.Errorf("%d decode errors: %s", len(s), strings.Join(s, ", "))
}
