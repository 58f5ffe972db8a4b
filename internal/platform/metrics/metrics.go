// Package metrics exposes the service's prometheus collectors. A disabled
// configuration yields a Recorder that does nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "arcana"

// Recorder receives measurements from the API, cache and engine events.
type Recorder interface {
	IncRequestsTotal(route, method string, status int)
	ObserveRequestDuration(route string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	AddXPAwarded(source string, amount int)
	IncLevelUps()
	IncRewardUnlocks(skinID string)
	IncGatingDecisions(action, kind string)
	IncSpreadsCreated(topic, access string)
	IncInterpretations(status string)
	ObserveInterpretationDuration(duration time.Duration)
	IncEventHandlerErrors(eventType string)

	// Handler serves the collected metrics.
	Handler() http.Handler
}

// Prometheus records into its own registry.
type Prometheus struct {
	registry *prometheus.Registry

	requestsTotal          *prometheus.CounterVec
	requestDuration        *prometheus.HistogramVec
	cacheHits              prometheus.Counter
	cacheMisses            prometheus.Counter
	xpAwarded              *prometheus.CounterVec
	levelUps               prometheus.Counter
	rewardUnlocks          *prometheus.CounterVec
	gatingDecisions        *prometheus.CounterVec
	spreadsCreated         *prometheus.CounterVec
	interpretations        *prometheus.CounterVec
	interpretationDuration prometheus.Histogram
	eventHandlerErrors     *prometheus.CounterVec
}

var _ Recorder = (*Prometheus)(nil)

// New returns a Prometheus recorder when enabled and a no-op recorder otherwise.
func New(enabled bool) Recorder {
	if !enabled {
		return Noop()
	}
	return NewPrometheus(prometheus.NewRegistry())
}

// NewPrometheus registers every collector on reg, together with the Go
// runtime and process collectors.
func NewPrometheus(reg *prometheus.Registry) *Prometheus {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Prometheus{
		registry: reg,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"route", "method", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of record cache hits",
		}),

		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of record cache misses",
		}),

		xpAwarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "xp_awarded_total",
			Help:      "Experience points awarded, including streak bonus",
		}, []string{"source"}),

		levelUps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "level_ups_total",
			Help:      "Total number of level-ups",
		}),

		rewardUnlocks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reward_unlocks_total",
			Help:      "Cosmetic rewards unlocked by milestones",
		}, []string{"skin"}),

		gatingDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gating_decisions_total",
			Help:      "Gating decisions by action and outcome",
		}, []string{"action", "kind"}),

		spreadsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spreads_created_total",
			Help:      "Spreads created by topic and access",
		}, []string{"topic", "access"}),

		interpretations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interpretations_total",
			Help:      "Interpretation attempts by outcome",
		}, []string{"status"}),

		interpretationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "interpretation_duration_seconds",
			Help:      "Duration of interpretation calls in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),

		eventHandlerErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_handler_errors_total",
			Help:      "Event handler failures by event type",
		}, []string{"event_type"}),
	}
}

func (m *Prometheus) IncRequestsTotal(route, method string, status int) {
	m.requestsTotal.WithLabelValues(route, method, httpStatusBucket(status)).Inc()
}

func (m *Prometheus) ObserveRequestDuration(route string, duration time.Duration) {
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *Prometheus) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *Prometheus) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *Prometheus) AddXPAwarded(source string, amount int) {
	if amount <= 0 {
		return
	}
	m.xpAwarded.WithLabelValues(source).Add(float64(amount))
}

func (m *Prometheus) IncLevelUps() {
	m.levelUps.Inc()
}

func (m *Prometheus) IncRewardUnlocks(skinID string) {
	m.rewardUnlocks.WithLabelValues(skinID).Inc()
}

func (m *Prometheus) IncGatingDecisions(action, kind string) {
	m.gatingDecisions.WithLabelValues(action, kind).Inc()
}

func (m *Prometheus) IncSpreadsCreated(topic, access string) {
	m.spreadsCreated.WithLabelValues(topic, access).Inc()
}

func (m *Prometheus) IncInterpretations(status string) {
	m.interpretations.WithLabelValues(status).Inc()
}

func (m *Prometheus) ObserveInterpretationDuration(duration time.Duration) {
	m.interpretationDuration.Observe(duration.Seconds())
}

func (m *Prometheus) IncEventHandlerErrors(eventType string) {
	m.eventHandlerErrors.WithLabelValues(eventType).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Prometheus) Registry() *prometheus.Registry {
	return m.registry
}

func httpStatusBucket(code int) string {
	switch {
	case code < 100 || code > 599:
		return strconv.Itoa(code)
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Noop returns a Recorder that discards every measurement.
func Noop() Recorder {
	return noopMetrics{}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (noopMetrics) IncRequestsTotal(_, _ string, _ int)              {}
func (noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (noopMetrics) IncCacheHits()                                    {}
func (noopMetrics) IncCacheMisses()                                  {}
func (noopMetrics) AddXPAwarded(_ string, _ int)                     {}
func (noopMetrics) IncLevelUps()                                     {}
func (noopMetrics) IncRewardUnlocks(_ string)                        {}
func (noopMetrics) IncGatingDecisions(_, _ string)                   {}
func (noopMetrics) IncSpreadsCreated(_, _ string)                    {}
func (noopMetrics) IncInterpretations(_ string)                      {}
func (noopMetrics) ObserveInterpretationDuration(_ time.Duration)    {}
func (noopMetrics) IncEventHandlerErrors(_ string)                   {}
func (noopMetrics) Handler() http.Handler                            { return http.NotFoundHandler() }
