package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lifecycleOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goalkeep_lifecycle_operations_total",
			Help: "Goal lifecycle operations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	lifecycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "goalkeep_lifecycle_operation_duration_seconds",
			Help:    "Latency of goal lifecycle operations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	rewardIssuances = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goalkeep_reward_issuances_total",
			Help: "Reward issuance attempts after a successful mint, by outcome.",
		},
		[]string{"outcome"},
	)
)

// observe records one finished lifecycle operation. Usage:
//
//	defer observe("complete", time.Now(), &err)
func observe(operation string, start time.Time, err *error) {
	lifecycleDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	lifecycleOperations.WithLabelValues(operation, outcome(*err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return Code(err)
}
