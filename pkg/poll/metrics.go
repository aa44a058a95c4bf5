package poll

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	startedTotal  *prometheus.CounterVec
	finishedTotal *prometheus.CounterVec
	elapsed       *prometheus.HistogramVec
	active        *prometheus.GaugeVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		startedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "poll",
			Name:      "started_total",
			Help:      "Total number of polls started.",
		}, []string{"name"}),
		finishedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "poll",
			Name:      "finished_total",
			Help:      "Total number of polls finished, by outcome.",
		}, []string{"name", "outcome"}),
		elapsed: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "poll",
			Name:      "elapsed_seconds",
			Help:      "Time from poll start to its outcome.",
			Buckets: []float64{
				0.1, 0.2, 0.5,
				1, 2, 5, 10, 15,
			},
		}, []string{"name", "outcome"}),
		active: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "poll",
			Name:      "active",
			Help:      "Current number of running polls.",
		}, []string{"name"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
