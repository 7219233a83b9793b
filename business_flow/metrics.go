package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickrs_rows_created_total",
			Help: "Total counters and gauges provisioned",
		},
		[]string{"domain"},
	)

	tickIncrementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickrs_increments_total",
			Help: "Total applied increment operations",
		},
		[]string{"domain"},
	)

	tickDeletesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickrs_rows_deleted_total",
			Help: "Total counters and gauges deleted",
		},
		[]string{"domain"},
	)
)
