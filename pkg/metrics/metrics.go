// Package metrics holds the prometheus collectors published by the join
// engine and the local vocabulary. The collectors are package singletons so
// that every query evaluated by the process reports into the same series.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// namespace is the leading part of all published metrics.
const namespace = "qlever"

const (
	joinSubsystem  = "join"
	vocabSubsystem = "local_vocab"
)

var (
	// JoinAlgorithm counts joins by the algorithm that computed them.
	JoinAlgorithm = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: joinSubsystem,
		Name:      "algorithm_total",
		Help:      "Number of joins computed, by algorithm.",
	}, []string{"algorithm"})

	// JoinResultRows counts rows produced by joins.
	JoinResultRows = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: joinSubsystem,
		Name:      "result_rows_total",
		Help:      "Number of rows produced by joins.",
	})

	// JoinCancelled counts joins aborted by their cancellation check.
	JoinCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: joinSubsystem,
		Name:      "cancelled_total",
		Help:      "Number of joins aborted because the query was cancelled.",
	})

	// VocabInterned counts values newly added to local vocabularies.
	VocabInterned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: vocabSubsystem,
		Name:      "interned_total",
		Help:      "Number of values added to local vocabularies.",
	})

	// VocabOutOfMemory counts values refused because of the memory limit.
	VocabOutOfMemory = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: vocabSubsystem,
		Name:      "oom_total",
		Help:      "Number of values refused because the memory limit was reached.",
	})
)

// PrometheusCollectors returns all prometheus metrics of the engine.
func PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		JoinAlgorithm,
		JoinResultRows,
		JoinCancelled,
		VocabInterned,
		VocabOutOfMemory,
	}
}

// Register registers every collector with reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range PrometheusCollectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
