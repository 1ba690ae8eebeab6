package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	loadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "videod",
			Subsystem: "engine",
			Name:      "pipeline_loads_total",
			Help:      "Successful pipeline loads",
		},
	)

	loadFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "videod",
			Subsystem: "engine",
			Name:      "pipeline_load_failures_total",
			Help:      "Failed pipeline load attempts",
		},
	)

	loadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "videod",
			Subsystem: "engine",
			Name:      "pipeline_load_duration_seconds",
			Help:      "Duration of the pipeline load sequence in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "videod",
			Subsystem: "engine",
			Name:      "generations_total",
			Help:      "Generation attempts by terminal status",
		},
		[]string{"status"},
	)

	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "videod",
			Subsystem: "engine",
			Name:      "generation_duration_seconds",
			Help:      "Duration of successful generations in seconds",
			Buckets:   []float64{30, 60, 120, 300, 600, 1200, 2400},
		},
	)

	memoryReclaimsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "videod",
			Subsystem: "engine",
			Name:      "memory_reclaims_total",
			Help:      "Transient memory reclamation passes",
		},
	)
)

func init() {
	prometheus.MustRegister(
		loadsTotal,
		loadFailuresTotal,
		loadDuration,
		generationsTotal,
		generationDuration,
		memoryReclaimsTotal,
	)
}
