// Package metrics exposes the engine's Prometheus collectors. Registration
// happens at import time on the default registry; embedders expose them via
// promhttp or scrape the registry directly.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/epiforge/epiforge/disease"
	"github.com/epiforge/epiforge/population"
)

var (
	infectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epiforge_infections_total",
		Help: "New infections by group type where the contact happened",
	}, []string{"group_spec"})

	outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epiforge_outcomes_total",
		Help: "Selected worst-case outcomes of new infections by symptom tag",
	}, []string{"max_tag"})

	activeByTag = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "epiforge_active_infections",
		Help: "Currently active infections by symptom tag (last sweep)",
	}, []string{"tag"})

	populationByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "epiforge_population",
		Help: "People by epidemic status (last sweep)",
	}, []string{"status"})

	stepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "epiforge_step_duration_seconds",
		Help:    "Wall-clock duration of one interaction timestep",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})
)

// RecordInfection counts one new infection in a group of the given type.
func RecordInfection(groupSpec string) {
	infectionsTotal.WithLabelValues(groupSpec).Inc()
}

// RecordOutcome counts the worst-case outcome selected for a new infection.
func RecordOutcome(maxTag disease.SymptomTag) {
	outcomesTotal.WithLabelValues(maxTag.String()).Inc()
}

// SetActiveInfections publishes the per-tag active infection counts of the
// latest health sweep.
func SetActiveInfections(counts map[disease.SymptomTag]int) {
	for _, tag := range []disease.SymptomTag{
		disease.TagExposed, disease.TagAsymptomatic, disease.TagMild,
		disease.TagSevere, disease.TagHospitalised, disease.TagIntensiveCare,
	} {
		activeByTag.WithLabelValues(tag.String()).Set(float64(counts[tag]))
	}
}

// SetPopulation publishes the per-status population counts of the latest
// health sweep.
func SetPopulation(counts map[population.Status]int) {
	for _, status := range []population.Status{
		population.StatusSusceptible, population.StatusInfected,
		population.StatusRecovered, population.StatusDead,
	} {
		populationByStatus.WithLabelValues(status.String()).Set(float64(counts[status]))
	}
}

// ObserveStepDuration records how long one timestep took.
func ObserveStepDuration(seconds float64) {
	stepDuration.Observe(seconds)
}
