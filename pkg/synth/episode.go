package synth

import "github.com/falsifian/openai-gym-sandbox/pkg/task"

// Controller is anything that can drive an episode: a candidate fresh
// off the solver, a compiled table, or an enumerated one.
type Controller interface {
	// Action maps an internal state and input symbol to a
	// movement direction, a write flag and a symbol to write. The
	// symbol is meaningless when the flag is false.
	Action(state, input int) (dir int, write bool, symbol int)
	// NextState maps an internal state and input symbol to the
	// next internal state.
	NextState(state, input int) int
}

// RunEpisode plays one episode of env under ctrl, starting from
// internal state zero, and returns whether the episode succeeded
// along with the total reward. Success is defined as the terminal
// step carrying strictly positive reward; that is an assumption about
// the tape tasks (the last thing a successful episode does is write a
// correct symbol), not a general contract of Environment.
func RunEpisode(env task.Environment, ctrl Controller) (succeeded bool, total float64) {
	obs := env.Reset()
	state := 0
	var reward float64
	for {
		dir, write, symbol := ctrl.Action(state, obs)
		state = ctrl.NextState(state, obs)
		var done bool
		obs, reward, done = env.Step(task.Action{Direction: dir, Write: write, Symbol: symbol})
		total += reward
		if done {
			return reward > 0, total
		}
	}
}
