package solver

import "fmt"

// Identifier values uniquely identify particular decision variables
// within a single Session.
type Identifier string

func (id Identifier) String() string {
	return string(id)
}

// IdentifierFromString returns an Identifier based on a provided
// string.
func IdentifierFromString(s string) Identifier {
	return Identifier(s)
}

// Literal is a committed fact about a decision variable: the variable
// named by ID held the polarity Value in the assignment under which
// the decision was taken.
type Literal struct {
	ID    Identifier
	Value bool
}

// String implements fmt.Stringer and returns a human-readable
// rendering of the receiver.
func (l Literal) String() string {
	if l.Value {
		return string(l.ID)
	}
	return "!" + string(l.ID)
}

type DuplicateIdentifier Identifier

func (e DuplicateIdentifier) Error() string {
	return fmt.Sprintf("duplicate identifier %q in session", Identifier(e))
}

type UnknownIdentifier Identifier

func (e UnknownIdentifier) Error() string {
	return fmt.Sprintf("identifier %q referenced but never declared", Identifier(e))
}
