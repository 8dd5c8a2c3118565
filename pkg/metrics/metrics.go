package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fit metrics are registered on the default registry through promauto.

var (
	// FitRunsTotal counts fit runs by family and outcome ("ok", "error").
	FitRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsgroups_fit_runs_total",
			Help: "Total number of group fit runs",
		},
		[]string{"family", "status"},
	)

	// FitDuration measures a complete run, from indexing to entry writing.
	FitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tsgroups_fit_duration_seconds",
			Help:    "Duration of group fit runs in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"family"},
	)

	// DesignRows tracks the row count of the last design matrix per family.
	DesignRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tsgroups_design_rows",
			Help: "Rows of the last least-squares design matrix",
		},
		[]string{"family"},
	)

	// FittedNodes tracks how many nodes received a fitted value.
	FittedNodes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tsgroups_fitted_nodes",
			Help: "Nodes written with fitted distances in the last run",
		},
		[]string{"family"},
	)

	// RankDeficientTotal counts runs solved with a rank-deficient system.
	RankDeficientTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsgroups_rank_deficient_total",
			Help: "Fit runs whose design matrix was rank deficient",
		},
		[]string{"family"},
	)

	// DegenerateNodesTotal counts nodes left without an uncertainty.
	DegenerateNodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsgroups_degenerate_nodes_total",
			Help: "Fitted nodes with too few samples for an uncertainty",
		},
		[]string{"family"},
	)
)
