package policy

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/falsifian/openai-gym-sandbox/pkg/solver"
)

// Spec describes the shape of the controllers under search: how many
// internal states they may use, and the sizes of the input symbol,
// output symbol and movement direction domains.
type Spec struct {
	States  int
	Inputs  int
	Outputs int
	Dirs    int
}

func (s Spec) validate() error {
	if s.States < 1 {
		return fmt.Errorf("controller needs at least one state, got %d", s.States)
	}
	for _, d := range []struct {
		name string
		n    int
	}{
		{"input", s.Inputs},
		{"output", s.Outputs},
		{"direction", s.Dirs},
	} {
		if d.n < 1 {
			return fmt.Errorf("%s domain must not be empty, got %d", d.name, d.n)
		}
	}
	return nil
}

type groupKind int

const (
	// groupConstant covers a domain of one value: no variable, the
	// decision is forced.
	groupConstant groupKind = iota
	// groupBoolean covers a domain of two values with a single
	// variable; the excluded middle supplies the cardinality
	// constraint for free.
	groupBoolean
	// groupOneHot covers larger domains with one variable per
	// value and an exactly-one constraint.
	groupOneHot
)

// group encodes the decision for one (state, input) cell of a rule
// table. Its representation is fixed here, at construction, from the
// domain size; decoding never has to inspect which shape it received.
type group struct {
	kind    groupKind
	lone    solver.Identifier
	members []solver.Identifier
}

func (g group) decode(a solver.Assignment) (int, solver.Literal, bool, error) {
	switch g.kind {
	case groupConstant:
		return 0, solver.Literal{}, false, nil
	case groupBoolean:
		v := a.Value(g.lone)
		val := 0
		if v {
			val = 1
		}
		return val, solver.Literal{ID: g.lone, Value: v}, true, nil
	default:
		for i, id := range g.members {
			if a.Value(id) {
				return i, solver.Literal{ID: id, Value: true}, true, nil
			}
		}
		return 0, solver.Literal{}, false, fmt.Errorf("no true member in one-hot group %s", g.members[0])
	}
}

// rule is one controller rule table, indexed by state then input
// symbol.
type rule struct {
	name  string
	cells [][]group
}

// Rules holds the boolean encoding of every decision a controller can
// make: which way to move, what to write, and which state to enter
// next, for every (state, input symbol) pair.
type Rules struct {
	spec  Spec
	dir   rule
	write rule
	state rule
}

// New builds the decision variables for a controller of the given
// shape on the provided session. One-hot groups register their
// exactly-one cardinality constraint as they are built; degenerate
// domains are reported as advisory warnings only.
func New(spec Spec, s *solver.Session, logger logrus.FieldLogger) (*Rules, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	if spec.Dirs != 2 {
		logger.Warnf("%d movement directions - are you sure about this?", spec.Dirs)
	}
	r := &Rules{spec: spec}
	var err error
	if r.dir, err = buildRule("dir", spec, spec.Dirs, s, logger); err != nil {
		return nil, err
	}
	if r.write, err = buildRule("write", spec, spec.Outputs, s, logger); err != nil {
		return nil, err
	}
	if r.state, err = buildRule("state", spec, spec.States, s, logger); err != nil {
		return nil, err
	}
	return r, nil
}

// Spec returns the controller shape the rules were built for.
func (r *Rules) Spec() Spec {
	return r.spec
}

func buildRule(name string, spec Spec, domain int, s *solver.Session, logger logrus.FieldLogger) (rule, error) {
	if domain < 2 {
		logger.Warnf("rule %q has a single-valued domain; its decisions are constant", name)
	}
	cells := make([][]group, spec.States)
	for st := range cells {
		cells[st] = make([]group, spec.Inputs)
		for in := range cells[st] {
			g, err := buildGroup(name, st, in, domain, s)
			if err != nil {
				return rule{}, err
			}
			cells[st][in] = g
		}
	}
	return rule{name: name, cells: cells}, nil
}

func buildGroup(name string, st, in, domain int, s *solver.Session) (group, error) {
	switch {
	case domain < 2:
		return group{kind: groupConstant}, nil
	case domain == 2:
		id := solver.Identifier(fmt.Sprintf("%s_%d_%d", name, st, in))
		if err := s.Declare(id); err != nil {
			return group{}, err
		}
		return group{kind: groupBoolean, lone: id}, nil
	default:
		members := make([]solver.Identifier, domain)
		for v := range members {
			id := solver.Identifier(fmt.Sprintf("%s_%d_%d__%d", name, st, in, v))
			if err := s.Declare(id); err != nil {
				return group{}, err
			}
			members[v] = id
		}
		if err := s.ExactlyOne(members...); err != nil {
			return group{}, err
		}
		return group{kind: groupOneHot, members: members}, nil
	}
}
