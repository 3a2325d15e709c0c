package observability

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luisquicidev/easydiet-backend/internal/platform/envutil"
	"github.com/luisquicidev/easydiet-backend/internal/platform/logger"
)

// Metrics is the process-wide Prometheus instrumentation. All methods are
// safe on a nil receiver so callers never need to check Enabled.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec

	taskTotal    *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	queueDepth   *prometheus.GaugeVec
	corrections  *prometheus.CounterVec
	jobEvents    *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("prometheus metrics initialized")
		}
	})
	return instance
}

// New builds a Metrics bound to its own registry. Init is the normal entry point.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "easydiet_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "easydiet_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"method", "route", "status"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "easydiet_ai_requests_total",
			Help: "AI completion calls by provider/model/outcome.",
		}, []string{"provider", "model", "outcome"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "easydiet_ai_request_duration_seconds",
			Help:    "AI completion latency in seconds by provider.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		}, []string{"provider", "outcome"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "easydiet_ai_tokens_total",
			Help: "AI tokens by provider and direction.",
		}, []string{"provider", "direction"}),
		taskTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "easydiet_phase_tasks_total",
			Help: "Phase tasks processed by type/outcome (succeeded, retried, failed).",
		}, []string{"task_type", "outcome"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "easydiet_phase_task_duration_seconds",
			Help:    "Phase task execution time by type.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"task_type"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "easydiet_phase_queue_depth",
			Help: "Phase tasks by status.",
		}, []string{"status"}),
		corrections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "easydiet_macro_tolerance_corrections_total",
			Help: "Detailed meals whose macro totals were reset to their targets.",
		}, []string{"axis"}),
		jobEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "easydiet_job_transitions_total",
			Help: "Job state machine transitions by resulting stage.",
		}, []string{"stage"}),
	}
	reg.MustRegister(
		m.apiRequests, m.apiLatency,
		m.llmRequests, m.llmLatency, m.llmTokens,
		m.taskTotal, m.taskDuration, m.queueDepth,
		m.corrections, m.jobEvents,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ObserveLLMRequest(provider, model, outcome string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	provider = orUnknown(provider)
	model = orUnknown(model)
	outcome = orUnknown(outcome)
	m.llmRequests.WithLabelValues(provider, model, outcome).Inc()
	if dur > 0 {
		m.llmLatency.WithLabelValues(provider, outcome).Observe(dur.Seconds())
	}
	if inputTokens > 0 {
		m.llmTokens.WithLabelValues(provider, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.llmTokens.WithLabelValues(provider, "output").Add(float64(outputTokens))
	}
}

func (m *Metrics) ObserveTask(taskType, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.taskTotal.WithLabelValues(orUnknown(taskType), orUnknown(outcome)).Inc()
	if dur > 0 {
		m.taskDuration.WithLabelValues(orUnknown(taskType)).Observe(dur.Seconds())
	}
}

func (m *Metrics) SetQueueDepth(status string, n int64) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(orUnknown(status)).Set(float64(n))
}

func (m *Metrics) IncToleranceCorrection(axis string) {
	if m == nil {
		return
	}
	m.corrections.WithLabelValues(orUnknown(axis)).Inc()
}

func (m *Metrics) IncJobTransition(stage string) {
	if m == nil {
		return
	}
	m.jobEvents.WithLabelValues(orUnknown(stage)).Inc()
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}
