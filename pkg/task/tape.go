package task

import "math/rand"

// tape simulates a one-dimensional input strip with a movable read
// head and a write-once output. Each step may write the next output
// symbol: a correct write earns +1, a wrong write earns -0.5 and ends
// the episode. The episode also ends when the full target has been
// written, or when a step limit expires. The terminal step's reward
// is therefore strictly positive exactly when the episode succeeded.
type tape struct {
	spec   Spec
	target targetFunc
	rng    *rand.Rand

	input    []int
	expected []int
	head     int
	wrote    int
	steps    int
	limit    int
	done     bool
}

func (t *tape) Reset() int {
	n := t.spec.MinLength + t.rng.Intn(t.spec.MaxLength-t.spec.MinLength+1)
	seq := make([]int, n)
	for i := range seq {
		seq[i] = t.rng.Intn(t.spec.Base)
	}
	if t.spec.Kind == "duplicated-input" {
		t.input = make([]int, 0, 2*n)
		for _, c := range seq {
			t.input = append(t.input, c, c)
		}
	} else {
		t.input = seq
	}
	t.expected = t.target(t.input)
	t.head = 0
	t.wrote = 0
	t.steps = 0
	// Generous enough that any controller writing at a steady rate
	// finishes well before it trips.
	t.limit = 4*(len(t.input)+len(t.expected)) + 8
	t.done = false
	return t.obs()
}

func (t *tape) obs() int {
	if t.head >= 0 && t.head < len(t.input) {
		return t.input[t.head]
	}
	return t.spec.Blank()
}

func (t *tape) Step(a Action) (int, float64, bool) {
	if t.done {
		return t.obs(), 0, true
	}
	t.steps++
	var reward float64
	if a.Write {
		if a.Symbol == t.expected[t.wrote] {
			reward = 1
			t.wrote++
			if t.wrote == len(t.expected) {
				t.done = true
			}
		} else {
			reward = -0.5
			t.done = true
		}
	}
	if a.Direction == MoveRight {
		t.head++
	} else {
		t.head--
	}
	if !t.done && t.steps >= t.limit {
		t.done = true
	}
	return t.obs(), reward, t.done
}
