package synth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/falsifian/openai-gym-sandbox/pkg/metrics"
	"github.com/falsifian/openai-gym-sandbox/pkg/policy"
	"github.com/falsifian/openai-gym-sandbox/pkg/solver"
	"github.com/falsifian/openai-gym-sandbox/pkg/task"
)

// Outcome is a terminal state of the refinement loop.
type Outcome int

const (
	// Succeeded means a candidate passed the required consecutive
	// qualifying episodes.
	Succeeded Outcome = iota
	// Exhausted means the solver proved that no controller with
	// the configured state count satisfies every learned
	// constraint. This is a proof of non-existence, not an error.
	Exhausted
	// Aborted means the iteration budget or an external
	// cancellation ran out before either verdict. Inconclusive,
	// unlike Exhausted.
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Exhausted:
		return "exhausted"
	case Aborted:
		return "aborted"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result summarizes one synthesis run.
type Result struct {
	Outcome    Outcome
	States     int
	Controller *policy.Table // nil unless Succeeded
	Iterations int
	Episodes   int
	Elapsed    time.Duration
}

const (
	// DefaultEpisodeCap bounds how many episodes a single
	// candidate may be evaluated for before the evaluation is
	// declared anomalous.
	DefaultEpisodeCap = 100000
)

// Synthesizer drives the refinement loop for one task and one fixed
// state count: propose a candidate, evaluate it against episodes,
// learn a nogood from failure, repeat.
type Synthesizer struct {
	task   task.Spec
	states int

	session *solver.Session
	rules   *policy.Rules
	env     task.Environment
	logger  logrus.FieldLogger

	maxIterations int
	episodeCap    int
	seed          int64
	sessionOpts   []solver.Option
}

type Option func(s *Synthesizer) error

// WithLogger substitutes the logger; the default is the standard
// logrus logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Synthesizer) error {
		s.logger = logger
		return nil
	}
}

// WithEnvironment substitutes the environment instance, bypassing the
// task's own construction. Intended for tests.
func WithEnvironment(env task.Environment) Option {
	return func(s *Synthesizer) error {
		s.env = env
		return nil
	}
}

// WithSessionOptions forwards options to the constraint session, most
// usefully solver.WithBackend.
func WithSessionOptions(options ...solver.Option) Option {
	return func(s *Synthesizer) error {
		s.sessionOpts = append(s.sessionOpts, options...)
		return nil
	}
}

// WithIterationBudget bounds the number of refinement iterations;
// zero means unbounded. A spent budget yields an Aborted result.
func WithIterationBudget(n int) Option {
	return func(s *Synthesizer) error {
		if n < 0 {
			return fmt.Errorf("iteration budget must not be negative, got %d", n)
		}
		s.maxIterations = n
		return nil
	}
}

// WithEpisodeCap bounds how many episodes one candidate is evaluated
// for.
func WithEpisodeCap(n int) Option {
	return func(s *Synthesizer) error {
		if n < 1 {
			return fmt.Errorf("episode cap must be positive, got %d", n)
		}
		s.episodeCap = n
		return nil
	}
}

// WithSeed fixes the environment's random source.
func WithSeed(seed int64) Option {
	return func(s *Synthesizer) error {
		s.seed = seed
		return nil
	}
}

// New prepares a Synthesizer for the given task and state count. The
// controller's decision variables are declared, and one-hot
// cardinality constraints registered, on a fresh session.
func New(t task.Spec, states int, options ...Option) (*Synthesizer, error) {
	if states < 1 {
		return nil, fmt.Errorf("state count must be positive, got %d", states)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	s := &Synthesizer{
		task:       t,
		states:     states,
		episodeCap: DefaultEpisodeCap,
	}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	s.logger = s.logger.WithFields(logrus.Fields{
		"task":   t.Name,
		"states": states,
	})
	if s.env == nil {
		env, err := t.Environment(s.seed)
		if err != nil {
			return nil, err
		}
		s.env = env
	}
	session, err := solver.NewSession(s.sessionOpts...)
	if err != nil {
		return nil, err
	}
	s.session = session
	rules, err := policy.New(policy.Spec{
		States:  states,
		Inputs:  t.Base + 1,
		Outputs: t.Base + 1,
		Dirs:    2,
	}, session, s.logger)
	if err != nil {
		return nil, err
	}
	s.rules = rules
	return s, nil
}

// Run executes the refinement loop to a terminal outcome. External
// cancellation is honored only between iterations; a solve in flight
// cannot be interrupted. Unsatisfiability from the session is the
// Exhausted outcome, not an error; backend failures and decode
// anomalies are errors and abort the loop.
func (s *Synthesizer) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{States: s.states, Outcome: Aborted}
	finish := func() *Result {
		res.Elapsed = time.Since(start)
		metrics.SynthesisOutcomes.WithLabelValues(s.task.Name, res.Outcome.String()).Inc()
		return res
	}

	for iteration := 1; s.maxIterations == 0 || iteration <= s.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return finish(), err
		}
		res.Iterations = iteration

		timer := prometheus.NewTimer(metrics.SolveDuration)
		assignment, err := s.session.Solve()
		timer.ObserveDuration()
		metrics.SolveCount.Inc()
		if err != nil {
			var unsat solver.Unsatisfiable
			if errors.As(err, &unsat) {
				s.logger.Infof("exhausted possibilities after %d iterations", iteration)
				res.Outcome = Exhausted
				return finish(), nil
			}
			return finish(), err
		}

		candidate := s.rules.Bind(assignment)
		solved := s.evaluate(candidate, res)
		if err := candidate.Err(); err != nil {
			return finish(), err
		}
		if solved {
			table, err := s.rules.Table(assignment)
			if err != nil {
				return finish(), err
			}
			s.logger.Infof("solved after %d iterations", iteration)
			res.Outcome = Succeeded
			res.Controller = table
			return finish(), nil
		}

		nogood := candidate.Provenance()
		if err := s.session.AssertNogood(nogood); err != nil {
			return finish(), err
		}
		metrics.NogoodCount.Inc()
		metrics.NogoodLiterals.Add(float64(len(nogood)))

		if iteration%500 == 0 {
			s.logger.Infof("iteration %d", iteration)
		}
	}

	s.logger.Warnf("iteration budget of %d spent without a verdict", s.maxIterations)
	return finish(), nil
}

// evaluate runs episodes under a fixed candidate until one fails, the
// required qualifying streak is reached, or the episode cap trips.
// When evaluate returns false the candidate's committed provenance
// holds exactly the decisions to blame.
//
// Cap policy: an evaluation that reaches the cap without resolving is
// anomalous. It is logged, counted, and treated as a failure, with
// the final episode's decisions kept as the nogood material so the
// loop still makes progress.
func (s *Synthesizer) evaluate(c *policy.Candidate, res *Result) bool {
	streak := 0
	for i := 0; i < s.episodeCap; i++ {
		if i > 0 {
			// The previous episode finished cleanly; nothing
			// it exercised may leak into a future nogood.
			c.Discard()
		}
		succeeded, total := RunEpisode(s.env, c)
		res.Episodes++
		metrics.EpisodeCount.Inc()
		if !succeeded {
			return false
		}
		if total >= s.task.RewardThreshold {
			streak++
			if streak >= s.task.Trials {
				return true
			}
		}
	}
	metrics.AnomalousEvaluations.Inc()
	s.logger.Warnf("candidate ran %d episodes without failing or qualifying; treating as failure", s.episodeCap)
	return false
}
