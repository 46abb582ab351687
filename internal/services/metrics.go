package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recurringGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitify_recurring_debts_generated_total",
		Help: "Shared debts generated from recurring templates",
	})
	recurringConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitify_recurring_generation_conflicts_total",
		Help: "Generations lost to a concurrent sweep and retried later",
	})
	recurringFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitify_recurring_generation_failures_total",
		Help: "Recurring templates whose sweep failed with an error",
	})
	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "splitify_recurring_sweep_duration_seconds",
		Help:    "Duration of a full recurring debt sweep",
		Buckets: prometheus.DefBuckets,
	})
)
