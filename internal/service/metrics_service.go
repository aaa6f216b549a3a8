package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSnapshot is a lightweight aggregate for the admin API.
type MetricsSnapshot struct {
	RequestCount     uint64  `json:"requestCount"`
	AvgRequestMillis float64 `json:"avgRequestMillis"`
	CacheHits        uint64  `json:"cacheHits"`
	CacheMisses      uint64  `json:"cacheMisses"`
	UploadCount      uint64  `json:"uploadCount"`
	UploadedBytes    uint64  `json:"uploadedBytes"`
	PurgedItems      uint64  `json:"purgedItems"`
	Goroutines       int     `json:"goroutines"`
}

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	uploadTotal     *prometheus.CounterVec
	uploadBytes     *prometheus.CounterVec
	purgedItems     prometheus.Counter

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	uploadCount          uint64
	uploadByteCount      uint64
	purgedItemCount      uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "permission_cache_hit_ratio",
		Help: "Ratio of permission cache hits to total lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "permission_cache_hits_total",
		Help: "Total permission cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "permission_cache_misses_total",
		Help: "Total permission cache misses",
	})

	uploadTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drive_uploads_total",
		Help: "Total file uploads by repository type",
	}, []string{"repository"})

	uploadBytes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drive_upload_bytes_total",
		Help: "Total uploaded bytes by repository type",
	}, []string{"repository"})

	purgedItems := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "drive_purged_items_total",
		Help: "Total items permanently deleted from trash",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHitRatio, cacheHits, cacheMisses, uploadTotal, uploadBytes, purgedItems, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		uploadTotal:     uploadTotal,
		uploadBytes:     uploadBytes,
		purgedItems:     purgedItems,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records permission cache hit/miss metrics and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// RecordUpload tracks a stored file and its size.
func (m *MetricsService) RecordUpload(repository string, sizeBytes int64) {
	if m == nil {
		return
	}
	m.uploadTotal.WithLabelValues(repository).Inc()
	m.uploadBytes.WithLabelValues(repository).Add(float64(sizeBytes))
	atomic.AddUint64(&m.uploadCount, 1)
	atomic.AddUint64(&m.uploadByteCount, uint64(sizeBytes))
}

// RecordPurged tracks items permanently removed from trash.
func (m *MetricsService) RecordPurged(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.purgedItems.Add(float64(count))
	atomic.AddUint64(&m.purgedItemCount, uint64(count))
}

// Snapshot returns aggregated counters for the admin API.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	snapshot := MetricsSnapshot{
		RequestCount:  atomic.LoadUint64(&m.requestCount),
		CacheHits:     atomic.LoadUint64(&m.cacheHitCount),
		CacheMisses:   atomic.LoadUint64(&m.cacheMissCount),
		UploadCount:   atomic.LoadUint64(&m.uploadCount),
		UploadedBytes: atomic.LoadUint64(&m.uploadByteCount),
		PurgedItems:   atomic.LoadUint64(&m.purgedItemCount),
		Goroutines:    runtime.NumGoroutine(),
	}
	if snapshot.RequestCount > 0 {
		totalNanos := atomic.LoadUint64(&m.requestDurationTotal)
		snapshot.AvgRequestMillis = float64(totalNanos) / float64(snapshot.RequestCount) / float64(time.Millisecond)
	}
	return snapshot
}
