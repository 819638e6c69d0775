package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// notes api client
	CounterApiRequests     *prometheus.CounterVec
	HistApiRequestDuration *prometheus.HistogramVec

	// notes sync
	CounterRefreshes *prometheus.CounterVec
	CounterMutations *prometheus.CounterVec

	// identity store
	CounterIdentityWrites *prometheus.CounterVec

	// dev backend
	CounterRequests           *prometheus.CounterVec
	CounterNotes              prometheus.Counter
	CounterHandleRequestPanic prometheus.Counter
	GaugeRequests             prometheus.Gauge
	HistogramRequestDuration  *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("hxnotes", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("hxnotes", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterApiRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "api_requests",
		Help:      "The total number of requests sent to the notes api",
	}, []string{"operation", "status"})
	histApiRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "api_request_duration_seconds",
		Help:      "Histogram of notes api response time in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"operation"})

	counterRefreshes := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "notes_refreshes",
		Help:      "Notes list refreshes by result (loaded, failed, stale)",
	}, []string{"result"})
	counterMutations := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "notes_mutations",
		Help:      "Notes mutations by kind and result",
	}, []string{"kind", "result"})

	counterIdentityWrites := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "identity_writes",
		Help:      "Durable identity writes by result",
	}, []string{"result"})

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterNotes := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "notes",
		Help:      "The total number of added notes",
	})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})

	return &Manager{
		CounterApiRequests:        counterApiRequests,
		HistApiRequestDuration:    histApiRequestDuration,
		CounterRefreshes:          counterRefreshes,
		CounterMutations:          counterMutations,
		CounterIdentityWrites:     counterIdentityWrites,
		CounterRequests:           counterRequests,
		CounterNotes:              counterNotes,
		CounterHandleRequestPanic: counterHandleRequestPanic,
		GaugeRequests:             gaugeRequests,
		HistogramRequestDuration:  histogramRequestDuration,
	}
}
