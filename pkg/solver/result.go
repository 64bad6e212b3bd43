package solver

import "fmt"

// Assignment is a snapshot of one satisfying valuation over every
// variable declared in a Session. It is immutable: later assertions
// and solves on the originating Session do not affect it.
type Assignment struct {
	values map[Identifier]bool
}

// Value reports the polarity the assignment gives to the variable
// named by id. Undeclared identifiers read as false.
func (a Assignment) Value(id Identifier) bool {
	return a.values[id]
}

// Len returns the number of variables the assignment covers.
func (a Assignment) Len() int {
	return len(a.values)
}

// Unsatisfiable is returned by Solve when no valuation can satisfy
// every constraint asserted into the Session so far. It is an
// expected terminal outcome, a proof that the remaining search space
// is empty, not a failure of the backend.
type Unsatisfiable struct {
	// Models is the number of satisfying assignments the Session
	// produced before the proof was reached.
	Models int
}

func (e Unsatisfiable) Error() string {
	return fmt.Sprintf("constraints not satisfiable after %d models", e.Models)
}

// BackendError reports an internal failure of the satisfiability
// backend. It is not locally recoverable; callers are expected to
// abandon the Session.
type BackendError struct {
	Outcome int
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned unexpected outcome %d", e.Outcome)
}
