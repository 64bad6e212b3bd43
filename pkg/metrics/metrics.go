package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OutcomeLabel = "outcome"
	TaskLabel    = "task"
)

var (
	SolveCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "algosynth_solver_queries_total",
		Help: "Number of satisfiability queries issued to the backend.",
	})

	SolveDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "algosynth_solver_query_duration_seconds",
		Help:    "Time spent inside individual satisfiability queries.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	NogoodCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "algosynth_nogoods_learned_total",
		Help: "Number of nogood clauses learned from failed candidates.",
	})

	NogoodLiterals = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "algosynth_nogood_literals_total",
		Help: "Total literals across all learned nogood clauses.",
	})

	EpisodeCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "algosynth_episodes_total",
		Help: "Number of environment episodes simulated.",
	})

	AnomalousEvaluations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "algosynth_anomalous_evaluations_total",
		Help: "Candidate evaluations that hit the episode safety cap without resolving.",
	})

	SynthesisOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "algosynth_syntheses_total",
		Help: "Completed synthesis runs by task and outcome.",
	}, []string{TaskLabel, OutcomeLabel})
)

// RegisterSynth registers the synthesis collectors with the default
// prometheus registry. Collectors work unregistered, so library use
// and tests need not call this.
func RegisterSynth() {
	prometheus.MustRegister(
		SolveCount,
		SolveDuration,
		NogoodCount,
		NogoodLiterals,
		EpisodeCount,
		AnomalousEvaluations,
		SynthesisOutcomes,
	)
}
