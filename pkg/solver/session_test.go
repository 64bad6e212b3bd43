package solver

import (
	"testing"

	"github.com/go-air/gini/z"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend reports satisfiability until the first clause is added,
// and unsatisfiability forever after. Every variable reads as false.
type fakeBackend struct {
	vars    uint32
	clauses int
	outcome int
}

func (f *fakeBackend) Lit() z.Lit {
	f.vars++
	return z.Var(f.vars).Pos()
}

func (f *fakeBackend) Add(m z.Lit) {
	if m == z.LitNull {
		f.clauses++
	}
}

func (f *fakeBackend) Solve() int {
	if f.outcome != 0 {
		return f.outcome
	}
	if f.clauses > 0 {
		return unsatisfiable
	}
	return satisfiable
}

func (f *fakeBackend) Value(m z.Lit) bool {
	return false
}

func declare(t *testing.T, s *Session, ids ...Identifier) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, s.Declare(id))
	}
}

func TestDeclareDuplicate(t *testing.T) {
	s, err := NewSession()
	require.NoError(t, err)
	require.NoError(t, s.Declare("a"))
	err = s.Declare("a")
	require.Error(t, err)
	assert.IsType(t, DuplicateIdentifier(""), err)
	assert.Equal(t, 1, s.NumVars())
}

func TestExactlyOne(t *testing.T) {
	s, err := NewSession()
	require.NoError(t, err)
	declare(t, s, "a", "b", "c")
	require.NoError(t, s.ExactlyOne("a", "b", "c"))
	// Registering the same group again must not add clauses that
	// change any outcome.
	require.NoError(t, s.ExactlyOne("a", "b", "c"))

	// Three members admit exactly three assignments; forbidding
	// each in turn must exhaust the space.
	seen := make(map[Identifier]bool)
	for i := 0; i < 3; i++ {
		a, err := s.Solve()
		require.NoError(t, err)
		var trues []Literal
		for _, id := range []Identifier{"a", "b", "c"} {
			if a.Value(id) {
				trues = append(trues, Literal{ID: id, Value: true})
			}
		}
		require.Len(t, trues, 1)
		assert.False(t, seen[trues[0].ID])
		seen[trues[0].ID] = true
		require.NoError(t, s.AssertNogood(trues))
	}
	_, err = s.Solve()
	var unsat Unsatisfiable
	require.ErrorAs(t, err, &unsat)
	assert.Equal(t, 3, unsat.Models)
}

func TestNogoodsAccumulate(t *testing.T) {
	s, err := NewSession()
	require.NoError(t, err)
	declare(t, s, "x", "y")

	var nogoods [][]Literal
	for i := 0; i < 4; i++ {
		a, err := s.Solve()
		require.NoError(t, err)
		ng := []Literal{
			{ID: "x", Value: a.Value("x")},
			{ID: "y", Value: a.Value("y")},
		}
		nogoods = append(nogoods, ng)
		require.NoError(t, s.AssertNogood(ng))
		if i == 2 {
			// Re-asserting an already-forbidden combination
			// must not change any subsequent outcome.
			require.NoError(t, s.AssertNogood(nogoods[0]))
		}
	}
	_, err = s.Solve()
	var unsat Unsatisfiable
	require.ErrorAs(t, err, &unsat)
	assert.Equal(t, 4, unsat.Models)
}

func TestAssertNogoodEmptyIsNoop(t *testing.T) {
	s, err := NewSession()
	require.NoError(t, err)
	declare(t, s, "x")
	require.NoError(t, s.AssertNogood(nil))
	_, err = s.Solve()
	require.NoError(t, err)
}

func TestUnknownIdentifier(t *testing.T) {
	s, err := NewSession()
	require.NoError(t, err)
	err = s.AssertNogood([]Literal{{ID: "ghost", Value: true}})
	require.Error(t, err)
	assert.IsType(t, UnknownIdentifier(""), err)
	err = s.ExactlyOne("ghost", "ghoul")
	require.Error(t, err)
}

func TestAssignmentIsASnapshot(t *testing.T) {
	s, err := NewSession()
	require.NoError(t, err)
	declare(t, s, "x")
	first, err := s.Solve()
	require.NoError(t, err)
	v := first.Value("x")
	require.NoError(t, s.AssertNogood([]Literal{{ID: "x", Value: v}}))
	second, err := s.Solve()
	require.NoError(t, err)
	assert.Equal(t, v, first.Value("x"), "earlier assignment must not change")
	assert.Equal(t, !v, second.Value("x"))
}

func TestBackendErrorSurfaced(t *testing.T) {
	s, err := NewSession(WithBackend(&fakeBackend{outcome: 42}))
	require.NoError(t, err)
	_, err = s.Solve()
	var berr *BackendError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, 42, berr.Outcome)
}

func TestFakeBackendUnsatAfterFirstAssertion(t *testing.T) {
	s, err := NewSession(WithBackend(&fakeBackend{}))
	require.NoError(t, err)
	declare(t, s, "x")
	_, err = s.Solve()
	require.NoError(t, err)
	require.NoError(t, s.AssertNogood([]Literal{{ID: "x", Value: false}}))
	_, err = s.Solve()
	var unsat Unsatisfiable
	require.ErrorAs(t, err, &unsat)
}
