package synth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/falsifian/openai-gym-sandbox/pkg/task"
)

// Sweep synthesizes controllers for every state count from 1 through
// maxStates, each on its own fully independent session and
// environment, and returns the result for the smallest state count
// that succeeded. The syntheses run concurrently; they share no
// state, per the session's single-caller contract. Once any state
// count succeeds the others are cancelled.
//
// The combined outcome is Exhausted only when every state count was
// proof-exhausted; any inconclusive run leaves it Aborted.
func Sweep(ctx context.Context, t task.Spec, maxStates int, options ...Option) (*Result, error) {
	if maxStates < 1 {
		return nil, fmt.Errorf("max state count must be positive, got %d", maxStates)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*Result, maxStates)
	g, ctx := errgroup.WithContext(ctx)
	for n := 1; n <= maxStates; n++ {
		n := n
		g.Go(func() error {
			syn, err := New(t, n, options...)
			if err != nil {
				return err
			}
			res, err := syn.Run(ctx)
			results[n-1] = res
			if err != nil {
				if errors.Is(err, context.Canceled) {
					// Another state count finished first.
					return nil
				}
				return err
			}
			if res.Outcome == Succeeded {
				cancel()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined := &Result{Outcome: Exhausted, States: maxStates}
	for _, res := range results {
		if res == nil {
			combined.Outcome = Aborted
			continue
		}
		combined.Iterations += res.Iterations
		combined.Episodes += res.Episodes
		if res.Elapsed > combined.Elapsed {
			combined.Elapsed = res.Elapsed
		}
		switch res.Outcome {
		case Succeeded:
			if combined.Controller == nil || res.States < combined.States {
				combined.Outcome = Succeeded
				combined.States = res.States
				combined.Controller = res.Controller
			}
		case Aborted:
			if combined.Outcome != Succeeded {
				combined.Outcome = Aborted
			}
		}
	}
	return combined, nil
}
