package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NoteCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinder_note_created_total",
		Help: "no. of notes created",
	})
	NoteConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinder_note_consumed_total",
		Help: "no. of note views consumed",
	})
	NoteBurned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinder_note_burned_total",
		Help: "no. of notes deleted by their terminal view",
	})
	NotePeeked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinder_note_peeked_total",
		Help: "no. of meta previews served",
	})
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinder_rate_limit_hits_total",
			Help: "no. of rate limit violations",
		},
		[]string{"action"},
	)
	StorageErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinder_storage_errors_total",
		Help: "no. of backend failures surfaced to callers",
	})
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinder_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
)

func Init() {
}
