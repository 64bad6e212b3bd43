package enum

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/falsifian/openai-gym-sandbox/pkg/policy"
	"github.com/falsifian/openai-gym-sandbox/pkg/synth"
	"github.com/falsifian/openai-gym-sandbox/pkg/task"
)

// Enumerator exhaustively searches the space of deterministic
// controller tables, smallest state count first. The space grows as
// (dirs · outputs · states)^(states · inputs), which makes this
// hopeless for stateful tasks; it remains a useful cross-check on
// small ones and a baseline for the refinement loop.
type Enumerator struct {
	task   task.Spec
	env    task.Environment
	logger logrus.FieldLogger

	episodeCap int
	seed       int64
}

type Option func(e *Enumerator) error

// WithEnvironment substitutes the environment instance. Intended for
// tests.
func WithEnvironment(env task.Environment) Option {
	return func(e *Enumerator) error {
		e.env = env
		return nil
	}
}

// WithLogger substitutes the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Enumerator) error {
		e.logger = logger
		return nil
	}
}

// WithEpisodeCap bounds how many episodes one table is evaluated for.
func WithEpisodeCap(n int) Option {
	return func(e *Enumerator) error {
		if n < 1 {
			return fmt.Errorf("episode cap must be positive, got %d", n)
		}
		e.episodeCap = n
		return nil
	}
}

// WithSeed fixes the environment's random source.
func WithSeed(seed int64) Option {
	return func(e *Enumerator) error {
		e.seed = seed
		return nil
	}
}

// New prepares an Enumerator for the given task.
func New(t task.Spec, options ...Option) (*Enumerator, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	e := &Enumerator{
		task:       t,
		episodeCap: synth.DefaultEpisodeCap,
	}
	for _, option := range options {
		if err := option(e); err != nil {
			return nil, err
		}
	}
	if e.logger == nil {
		e.logger = logrus.StandardLogger()
	}
	e.logger = e.logger.WithField("task", t.Name)
	if e.env == nil {
		env, err := t.Environment(e.seed)
		if err != nil {
			return nil, err
		}
		e.env = env
	}
	return e, nil
}

// Solve tries every controller with 1 through maxStates states, in
// order of state count, and returns the first table that passes the
// task's trials requirement. A nil table with a nil error means the
// whole space was exhausted.
func (e *Enumerator) Solve(ctx context.Context, maxStates int) (*policy.Table, error) {
	if maxStates < 1 {
		return nil, fmt.Errorf("max state count must be positive, got %d", maxStates)
	}
	for n := 1; n <= maxStates; n++ {
		table, err := e.solveStates(ctx, n)
		if err != nil || table != nil {
			return table, err
		}
	}
	return nil, nil
}

func (e *Enumerator) solveStates(ctx context.Context, states int) (*policy.Table, error) {
	spec := policy.Spec{
		States:  states,
		Inputs:  e.task.Base + 1,
		Outputs: e.task.Base + 1,
		Dirs:    2,
	}
	cells := states * spec.Inputs
	e.logger.Infof("%d states: %.3g direction, %.3g output, %.3g transition tables",
		states,
		math.Pow(float64(spec.Dirs), float64(cells)),
		math.Pow(float64(spec.Outputs), float64(cells)),
		math.Pow(float64(states), float64(cells)))

	dir := make([]int, cells)
	write := make([]int, cells)
	next := make([]int, cells)
	tried := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		table := tableFrom(spec, dir, write, next)
		if e.run(table) {
			e.logger.Infof("found a %d-state controller after %d tables", states, tried+1)
			return table, nil
		}
		tried++
		if tried%100000 == 0 {
			e.logger.Debugf("tried %d tables", tried)
		}
		if !advance(next, states) && !advance(write, spec.Outputs) && !advance(dir, spec.Dirs) {
			return nil, nil
		}
	}
}

// run evaluates one fixed table against the task's consecutive-trials
// requirement, in the same way the refinement loop evaluates a
// candidate.
func (e *Enumerator) run(t *policy.Table) bool {
	countdown := e.task.Trials
	for i := 0; i < e.episodeCap && countdown > 0; i++ {
		succeeded, total := synth.RunEpisode(e.env, t)
		if !succeeded {
			return false
		}
		if total >= e.task.RewardThreshold {
			countdown--
		}
	}
	return countdown == 0
}

// tableFrom copies the current odometer images into a fresh table, so
// every candidate's rule values are bound by value.
func tableFrom(spec policy.Spec, dir, write, next []int) *policy.Table {
	t := policy.NewTable(spec)
	for st := 0; st < spec.States; st++ {
		for in := 0; in < spec.Inputs; in++ {
			i := st*spec.Inputs + in
			t.Dir[st][in] = dir[i]
			t.Write[st][in] = write[i]
			t.Next[st][in] = next[i]
		}
	}
	return t
}

// advance increments image as an odometer over the given domain and
// reports false when it wraps back around to all zeros.
func advance(image []int, domain int) bool {
	if domain < 2 {
		return false
	}
	for i := range image {
		image[i]++
		if image[i] < domain {
			return true
		}
		image[i] = 0
	}
	return false
}
