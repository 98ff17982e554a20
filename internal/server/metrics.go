package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	videosTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "replay_coach_videos_total",
		Help: "Total number of videos in database",
	})

	uploadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "replay_coach_uploads_total",
		Help: "Total number of issued upload URLs",
	})

	analysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "replay_coach_analyses_total",
		Help: "Total number of analysis runs",
	}, []string{"status"})

	analysisDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "replay_coach_analysis_duration_seconds",
		Help:    "Duration of analysis runs in seconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	relayedBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "replay_coach_relayed_bytes_total",
		Help: "Total number of file bytes relayed to clients",
	})
)

func init() {
	prometheus.MustRegister(videosTotal)
	prometheus.MustRegister(uploadsTotal)
	prometheus.MustRegister(analysesTotal)
	prometheus.MustRegister(analysisDurationSeconds)
	prometheus.MustRegister(relayedBytesTotal)
}

// UpdateVideoCount updates the videos_total metric
func UpdateVideoCount(count int64) {
	videosTotal.Set(float64(count))
}

// RecordUpload records an issued upload URL
func RecordUpload() {
	uploadsTotal.Inc()
}

// RecordAnalysis records the outcome of an analysis run
func RecordAnalysis(status string, duration time.Duration) {
	analysesTotal.WithLabelValues(status).Inc()
	analysisDurationSeconds.Observe(duration.Seconds())
}

// RecordRelayedBytes records file bytes streamed to a client
func RecordRelayedBytes(n int64) {
	relayedBytesTotal.Add(float64(n))
}
