package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/falsifian/openai-gym-sandbox/pkg/enum"
	"github.com/falsifian/openai-gym-sandbox/pkg/metrics"
	"github.com/falsifian/openai-gym-sandbox/pkg/synth"
	"github.com/falsifian/openai-gym-sandbox/pkg/task"
)

type options struct {
	taskName    string
	taskFile    string
	states      int
	maxStates   int
	backend     string
	iterations  int
	episodeCap  int
	seed        int64
	brute       bool
	debug       bool
	metricsAddr string
}

func (o *options) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.taskName, "task", "copy", fmt.Sprintf("task to synthesize a controller for; built in: %v", task.Names()))
	fs.StringVar(&o.taskFile, "task-file", "", "YAML file with additional task definitions")
	fs.IntVar(&o.states, "states", 2, "controller state count")
	fs.IntVar(&o.maxStates, "max-states", 0, "sweep state counts 1..N concurrently instead of using a fixed count")
	fs.StringVar(&o.backend, "backend", "gini", "satisfiability backend")
	fs.IntVar(&o.iterations, "iterations", 0, "iteration budget, 0 for unbounded; a spent budget gives up without a proof")
	fs.IntVar(&o.episodeCap, "episode-cap", synth.DefaultEpisodeCap, "episodes per candidate before the evaluation is declared anomalous")
	fs.Int64Var(&o.seed, "seed", 1, "seed for the environment's random source")
	fs.BoolVar(&o.brute, "brute", false, "use the exhaustive enumerator instead of the refinement loop")
	fs.BoolVar(&o.debug, "debug", false, "use debug log level")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
}

func (o *options) lookupTask() (task.Spec, error) {
	if o.taskFile != "" {
		specs, err := task.LoadSpecs(o.taskFile)
		if err != nil {
			return task.Spec{}, err
		}
		for _, spec := range specs {
			if spec.Name == o.taskName {
				return spec, nil
			}
		}
	}
	return task.Lookup(o.taskName)
}

func (o *options) run(logger *logrus.Logger) error {
	if o.backend != "gini" {
		return errors.Errorf("unknown backend %q; only \"gini\" is available", o.backend)
	}
	spec, err := o.lookupTask()
	if err != nil {
		return err
	}

	if o.metricsAddr != "" {
		metrics.RegisterSynth()
		go func() {
			if err := http.ListenAndServe(o.metricsAddr, promhttp.Handler()); err != nil {
				logger.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if o.brute {
		return o.runBrute(ctx, spec, logger, start)
	}

	synthOptions := []synth.Option{
		synth.WithLogger(logger),
		synth.WithSeed(o.seed),
		synth.WithEpisodeCap(o.episodeCap),
		synth.WithIterationBudget(o.iterations),
	}
	var res *synth.Result
	if o.maxStates > 0 {
		res, err = synth.Sweep(ctx, spec, o.maxStates, synthOptions...)
	} else {
		var syn *synth.Synthesizer
		syn, err = synth.New(spec, o.states, synthOptions...)
		if err != nil {
			return err
		}
		res, err = syn.Run(ctx)
	}
	if err != nil {
		return err
	}

	elapsed := time.Since(start).Seconds()
	switch res.Outcome {
	case synth.Succeeded:
		fmt.Printf("Solved with %d states after %.1fs\n\n%s", res.States, elapsed, res.Controller)
	case synth.Exhausted:
		fmt.Printf("Exhausted policies after %.1fs\n", elapsed)
	default:
		fmt.Printf("Gave up after %.1fs without a verdict\n", elapsed)
	}
	return nil
}

func (o *options) runBrute(ctx context.Context, spec task.Spec, logger *logrus.Logger, start time.Time) error {
	e, err := enum.New(spec,
		enum.WithLogger(logger),
		enum.WithSeed(o.seed),
		enum.WithEpisodeCap(o.episodeCap),
	)
	if err != nil {
		return err
	}
	states := o.states
	if o.maxStates > 0 {
		states = o.maxStates
	}
	table, err := e.Solve(ctx, states)
	if err != nil {
		return err
	}
	elapsed := time.Since(start).Seconds()
	if table == nil {
		fmt.Printf("Exhausted policies after %.1fs\n", elapsed)
		return nil
	}
	fmt.Printf("Solved with %d states after %.1fs\n\n%s", table.Spec.States, elapsed, table)
	return nil
}

func main() {
	o := &options{}
	logger := logrus.New()

	cmd := &cobra.Command{
		Use:   "algosynth",
		Short: "Synthesize finite-state controllers for algorithmic tape tasks",
		Long: "algosynth searches for a small finite-state controller that solves an " +
			"algorithmic tape task, either by counterexample-guided refinement over " +
			"a satisfiability backend or by exhaustive enumeration.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.debug {
				logger.SetLevel(logrus.DebugLevel)
			}
			return o.run(logger)
		},
	}
	o.addFlags(cmd.Flags())

	if err := cmd.Execute(); err != nil {
		logger.WithError(err).Fatal("synthesis failed")
	}
}
