package task

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Movement directions understood by the tape environments.
const (
	MoveLeft  = 0
	MoveRight = 1
)

// Action is one controller output applied to an environment: a head
// movement, and optionally a symbol written to the output.
type Action struct {
	Direction int
	Write     bool
	Symbol    int
}

// Environment is a sequential episode source. One episode is a
// strictly alternating exchange: Reset yields the first observation,
// then each Step consumes one action and yields the next observation,
// a reward, and whether the episode is over.
//
// Implementations are not safe for concurrent use.
type Environment interface {
	Reset() int
	Step(Action) (obs int, reward float64, done bool)
}

// Spec describes one algorithmic tape task. A task is considered
// solved by a controller that completes Trials consecutive episodes
// each totalling at least RewardThreshold reward.
type Spec struct {
	Name string `json:"name"`
	// Kind selects the target function; see Kinds.
	Kind string `json:"kind"`
	// Base is the input alphabet size, excluding the blank read
	// off the end of the strip.
	Base int `json:"base"`
	// MinLength and MaxLength bound the randomly drawn length of
	// the underlying input sequence.
	MinLength int `json:"minLength"`
	MaxLength int `json:"maxLength"`

	RewardThreshold float64 `json:"rewardThreshold"`
	Trials          int     `json:"trials"`
}

// Blank returns the observation reported when the head is off the
// input strip.
func (s Spec) Blank() int {
	return s.Base
}

// Validate reports the first problem that makes the spec unusable.
func (s Spec) Validate() error {
	if s.Name == "" {
		return errors.New("task needs a name")
	}
	if _, ok := targets[s.Kind]; !ok {
		return errors.Errorf("task %q: unknown kind %q", s.Name, s.Kind)
	}
	if s.Base < 1 {
		return errors.Errorf("task %q: base must be positive, got %d", s.Name, s.Base)
	}
	if s.MinLength < 1 || s.MaxLength < s.MinLength {
		return errors.Errorf("task %q: bad length range [%d, %d]", s.Name, s.MinLength, s.MaxLength)
	}
	if s.RewardThreshold <= 0 {
		return errors.Errorf("task %q: reward threshold must be positive, got %g", s.Name, s.RewardThreshold)
	}
	if s.Trials < 1 {
		return errors.Errorf("task %q: trials must be positive, got %d", s.Name, s.Trials)
	}
	return nil
}

// Environment returns a fresh, independent environment instance for
// the task. Episodes are deterministic for a given seed.
func (s Spec) Environment(seed int64) (Environment, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &tape{
		spec:   s,
		target: targets[s.Kind],
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}
