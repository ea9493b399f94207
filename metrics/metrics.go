package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coursehub_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	MediaUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_media_uploads_total",
			Help: "Media store uploads by resource kind and outcome",
		},
		[]string{"kind", "status"},
	)

	MediaUploadBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_media_upload_bytes_total",
			Help: "Bytes accepted by the media store",
		},
		[]string{"kind"},
	)

	PurchaseIntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_purchase_intents_total",
			Help: "Purchase intents by outcome",
		},
		[]string{"status"},
	)

	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursehub_events_published_total",
			Help: "Domain events handed to the broker",
		},
		[]string{"type", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		MediaUploadsTotal,
		MediaUploadBytes,
		PurchaseIntentsTotal,
		EventsPublishedTotal,
	)
}

func RecordRequest(method, route, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, route, status).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordUpload(kind string, size int64, err error) {
	if err != nil {
		MediaUploadsTotal.WithLabelValues(kind, "failed").Inc()
		return
	}
	MediaUploadsTotal.WithLabelValues(kind, "success").Inc()
	MediaUploadBytes.WithLabelValues(kind).Add(float64(size))
}
