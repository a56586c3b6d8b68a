package transpiler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	passDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qpass",
			Subsystem: "transpiler",
			Name:      "pass_duration_seconds",
			Help:      "Duration of individual transpiler passes",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		},
		[]string{"pass"},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qpass",
			Subsystem: "transpiler",
			Name:      "runs_total",
			Help:      "Total number of pass manager runs",
		},
		// status: success/error
		[]string{"status"},
	)

	swapsInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "qpass",
			Subsystem: "transpiler",
			Name:      "swaps_inserted_total",
			Help:      "Swap instructions inserted by routing",
		},
	)
)
