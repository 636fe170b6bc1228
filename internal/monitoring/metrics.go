package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fame_http_requests_total",
			Help: "Total HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fame_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	realtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fame_realtime_clients",
			Help: "Currently connected WebSocket clients",
		},
	)

	realtimeEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fame_realtime_events_total",
			Help: "Realtime events delivered to local hubs",
		},
		[]string{"type"},
	)

	realtimeDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fame_realtime_dropped_clients_total",
			Help: "WebSocket clients dropped because their send queue was full",
		},
	)

	storageConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fame_storage_conflicts_total",
			Help: "Conditional document writes that lost a race and were retried",
		},
	)

	importRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fame_import_rows_total",
			Help: "Roster import rows by outcome",
		},
		[]string{"result"},
	)

	importJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fame_import_jobs_total",
			Help: "Roster import jobs by final status",
		},
		[]string{"status"},
	)
)

// TrackHTTPRequest records one served request
func TrackHTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func RealtimeClientConnected()    { realtimeClients.Inc() }
func RealtimeClientDisconnected() { realtimeClients.Dec() }
func RealtimeClientDropped()      { realtimeDropped.Inc() }

// TrackRealtimeEvent counts an event fanned out to a local hub
func TrackRealtimeEvent(eventType string) {
	realtimeEvents.WithLabelValues(eventType).Inc()
}

// TrackStorageConflict counts a version conflict on a document write
func TrackStorageConflict() {
	storageConflicts.Inc()
}

// TrackImportRows counts the outcome of one import batch
func TrackImportRows(successful, failed int) {
	importRows.WithLabelValues("success").Add(float64(successful))
	importRows.WithLabelValues("failed").Add(float64(failed))
}

// TrackImportJob counts a finished import job
func TrackImportJob(status string) {
	importJobs.WithLabelValues(status).Inc()
}
