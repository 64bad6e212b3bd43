package solver

import (
	"strings"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

const (
	satisfiable   = 1
	unsatisfiable = -1
)

// Session wraps one incremental satisfiability session. Variables are
// declared once, constraints and learned nogoods are asserted over
// time, and Solve may be called repeatedly; the backend keeps
// everything it has learned between calls.
//
// A Session is a single stateful resource used by exactly one caller;
// it performs no locking. Independent syntheses require fully
// independent Sessions.
type Session struct {
	g       Backend
	lits    map[Identifier]z.Lit
	inorder []Identifier
	groups  map[string]struct{}
	models  int
}

// NewSession returns a Session backed, by default, by a fresh gini
// solver.
func NewSession(options ...Option) (*Session, error) {
	s := &Session{
		lits:   make(map[Identifier]z.Lit),
		groups: make(map[string]struct{}),
	}
	for _, option := range append(options, defaults...) {
		if err := option(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

type Option func(s *Session) error

// WithBackend substitutes the satisfiability backend the Session
// drives.
func WithBackend(b Backend) Option {
	return func(s *Session) error {
		s.g = b
		return nil
	}
}

var defaults = []Option{
	func(s *Session) error {
		if s.g == nil {
			s.g = gini.New()
		}
		return nil
	},
}

// Declare introduces a new decision variable named by id.
func (s *Session) Declare(id Identifier) error {
	if _, ok := s.lits[id]; ok {
		return DuplicateIdentifier(id)
	}
	s.lits[id] = s.g.Lit()
	s.inorder = append(s.inorder, id)
	return nil
}

// NumVars returns the number of variables declared so far.
func (s *Session) NumVars() int {
	return len(s.inorder)
}

func (s *Session) litOf(id Identifier) (z.Lit, error) {
	m, ok := s.lits[id]
	if !ok {
		return z.LitNull, UnknownIdentifier(id)
	}
	return m, nil
}

// ExactlyOne constrains the given group of variables so that exactly
// one member is true in any satisfying assignment: one at-least-one
// clause plus pairwise at-most-one clauses. Registering the same
// group again is a no-op. A group with a single member is forced
// true; the empty group registers nothing.
func (s *Session) ExactlyOne(ids ...Identifier) error {
	if len(ids) == 0 {
		return nil
	}
	key := joinIdentifiers(ids)
	if _, ok := s.groups[key]; ok {
		return nil
	}
	ms := make([]z.Lit, len(ids))
	for i, id := range ids {
		m, err := s.litOf(id)
		if err != nil {
			return err
		}
		ms[i] = m
	}
	s.groups[key] = struct{}{}
	for _, m := range ms {
		s.g.Add(m)
	}
	s.g.Add(z.LitNull)
	for i := 0; i < len(ms); i++ {
		for j := i + 1; j < len(ms); j++ {
			s.g.Add(ms[i].Not())
			s.g.Add(ms[j].Not())
			s.g.Add(z.LitNull)
		}
	}
	return nil
}

// AssertNogood permanently forbids the exact combination of committed
// decisions in lits: any future assignment must give at least one of
// them the opposite polarity. Asserting an empty set is a no-op.
// Nogoods accumulate for the life of the Session and are never
// retracted.
func (s *Session) AssertNogood(lits []Literal) error {
	if len(lits) == 0 {
		return nil
	}
	ms := make([]z.Lit, len(lits))
	for i, l := range lits {
		m, err := s.litOf(l.ID)
		if err != nil {
			return err
		}
		if l.Value {
			m = m.Not()
		}
		ms[i] = m
	}
	for _, m := range ms {
		s.g.Add(m)
	}
	s.g.Add(z.LitNull)
	return nil
}

// Solve blocks until the accumulated formula is decided. It returns a
// snapshot of a satisfying assignment, an Unsatisfiable proof that
// none remains, or a BackendError for anything else the backend
// reports.
func (s *Session) Solve() (Assignment, error) {
	switch outcome := s.g.Solve(); outcome {
	case satisfiable:
		values := make(map[Identifier]bool, len(s.inorder))
		for _, id := range s.inorder {
			values[id] = s.g.Value(s.lits[id])
		}
		s.models++
		return Assignment{values: values}, nil
	case unsatisfiable:
		return Assignment{}, Unsatisfiable{Models: s.models}
	default:
		return Assignment{}, &BackendError{Outcome: outcome}
	}
}

func joinIdentifiers(ids []Identifier) string {
	ss := make([]string, len(ids))
	for i, id := range ids {
		ss[i] = string(id)
	}
	return strings.Join(ss, "\x00")
}
