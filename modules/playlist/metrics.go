package playlist

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "radiodir"
	metricsSubsystem = "playlist"
)

type metrics struct {
	stations      prometheus.Counter
	streams       prometheus.Counter
	fetchDuration *prometheus.HistogramVec
	lastSuccess   prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)

	return &metrics{
		stations: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "stations_total",
			Help:      "Stations whose pointer file was resolved.",
		}),
		streams: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "streams_total",
			Help:      "Stream URLs written to the playlist.",
		}),
		fetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching aggregator documents, excluding the courtesy delay.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"document"}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed playlist run.",
		}),
	}
}
