package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// statusChecks counts resolution attempts by resulting status kind, or
	// "fatal" when the provider aborted the attempt.
	statusChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flight_status_checks_total",
		Help: "Flight status resolutions by outcome.",
	}, []string{"result"})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flight_sweep_duration_seconds",
		Help:    "Wall time of one periodic sweep.",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
	})

	sweepEligible = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flight_sweep_eligible",
		Help: "Flights selected for polling by the latest sweep.",
	})

	sweepAborts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flight_sweep_aborts_total",
		Help: "Sweeps stopped early, by reason.",
	}, []string{"reason"})

	retentionDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flight_retention_deleted_total",
		Help: "Flights removed by retention cleanup.",
	})
)
