package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "medequip_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	consumerLag *prometheus.GaugeVec

	faultReportsTotal    *prometheus.CounterVec
	workOrderClosesTotal *prometheus.CounterVec

	riskRefreshTotal   *prometheus.CounterVec
	riskRefreshLatency *prometheus.HistogramVec

	recommendationTotal   *prometheus.CounterVec
	recommendationLatency *prometheus.HistogramVec

	patternTotal   *prometheus.CounterVec
	patternLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	alertEventsTotal *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total RFID movement ingest requests by result",
			},
			[]string{"result"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_errors_total",
				Help: "Total ingest errors by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		consumerLag = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "event_consumer_lag_seconds",
				Help: "Consumer processing lag in seconds",
			},
			[]string{"consumer"},
		)

		faultReportsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fault_reports_total",
				Help: "Total reported faults by priority",
			},
			[]string{"priority"},
		)
		workOrderClosesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "workorder_closes_total",
				Help: "Total work order closures by result",
			},
			[]string{"result"},
		)

		riskRefreshTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "risk_refresh_total",
				Help: "Total risk score refresh runs by result",
			},
			[]string{"result"},
		)
		riskRefreshLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "risk_refresh_latency_seconds",
				Help:    "Risk score refresh latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		recommendationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "recommendation_requests_total",
				Help: "Total technician recommendation queries by result",
			},
			[]string{"result"},
		)
		recommendationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "recommendation_latency_seconds",
				Help:    "Technician recommendation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		patternTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "pattern_requests_total",
				Help: "Total historical pattern queries by result",
			},
			[]string{"result"},
		)
		patternLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "pattern_latency_seconds",
				Help:    "Historical pattern query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total export operations by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		alertEventsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alert_events_total",
				Help: "Total risk alert lifecycle events by type",
			},
			[]string{"event"},
		)

		prometheus.MustRegister(
			ingestRequests,
			ingestErrors,
			ingestLatency,
			consumerLag,
			faultReportsTotal,
			workOrderClosesTotal,
			riskRefreshTotal,
			riskRefreshLatency,
			recommendationTotal,
			recommendationLatency,
			patternTotal,
			patternLatency,
			exportTotal,
			exportLatency,
			alertEventsTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveIngest records ingest request duration and result.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncIngestError increments ingest error counter.
func IncIngestError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if ingestErrors != nil {
		ingestErrors.WithLabelValues(reason).Inc()
	}
}

// ObserveConsumerLag sets consumer lag in seconds.
func ObserveConsumerLag(consumer string, lag time.Duration) {
	if consumer == "" {
		consumer = "unknown"
	}
	if lag < 0 {
		lag = 0
	}
	if consumerLag != nil {
		consumerLag.WithLabelValues(consumer).Set(lag.Seconds())
	}
}

// IncFaultReported increments the fault report counter.
func IncFaultReported(priority string) {
	if priority == "" {
		priority = "unknown"
	}
	if faultReportsTotal != nil {
		faultReportsTotal.WithLabelValues(priority).Inc()
	}
}

// IncWorkOrderClosed increments the work order close counter.
func IncWorkOrderClosed(result string) {
	if result == "" {
		result = resultSuccess
	}
	if workOrderClosesTotal != nil {
		workOrderClosesTotal.WithLabelValues(result).Inc()
	}
}

// ObserveRiskRefresh records a risk refresh run.
func ObserveRiskRefresh(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if riskRefreshTotal != nil {
		riskRefreshTotal.WithLabelValues(result).Inc()
	}
	if riskRefreshLatency != nil {
		riskRefreshLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveRecommendation records a recommendation query.
func ObserveRecommendation(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if recommendationTotal != nil {
		recommendationTotal.WithLabelValues(result).Inc()
	}
	if recommendationLatency != nil {
		recommendationLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObservePattern records a historical pattern query.
func ObservePattern(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if patternTotal != nil {
		patternTotal.WithLabelValues(result).Inc()
	}
	if patternLatency != nil {
		patternLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncAlertEvent increments alert lifecycle counters.
func IncAlertEvent(event string) {
	if event == "" {
		event = "unknown"
	}
	if alertEventsTotal != nil {
		alertEventsTotal.WithLabelValues(event).Inc()
	}
}

// Exported constants for callers.
const (
	IngestResultSuccess = resultSuccess
	IngestResultError   = resultError

	ResultSuccess = resultSuccess
	ResultError   = resultError
)
