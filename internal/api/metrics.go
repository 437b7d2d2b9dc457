package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docvia-widget/internal/queue"
)

const (
	namespace = "docvia"

	// routeUnmatched labels requests no registered pattern served.
	routeUnmatched = "unmatched"
)

// serverMetrics holds the transport-level collectors. Route labels come from
// the ServeMux pattern, so cardinality is bounded by the registered routes.
type serverMetrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	active   prometheus.Gauge
	chatbot  *ChatbotMetrics
}

func newServerMetrics(reg *prometheus.Registry, listenAddr string, q *queue.RequestQueueManager) *serverMetrics {
	constLabels := prometheus.Labels{"listen_addr": listenAddr}
	byRoute := []string{"method", "route", "code"}

	m := &serverMetrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "HTTP requests served, by route pattern and status code.",
			ConstLabels: constLabels,
		}, byRoute),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "Time spent serving HTTP requests.",
			Buckets:     []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			ConstLabels: constLabels,
		}, byRoute),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "active_requests",
			Help:        "Requests currently being served.",
			ConstLabels: constLabels,
		}),
		chatbot: newChatbotMetrics(constLabels),
	}

	reg.MustRegister(m.requests, m.latency, m.active)
	m.chatbot.register(reg)

	if q != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "queue",
			Name:        "pending_jobs",
			Help:        "Handler jobs waiting for a worker.",
			ConstLabels: constLabels,
		}, func() float64 {
			return float64(len(q.JobQueue))
		}))
	}

	return m
}

func (m *serverMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// wrap records every request the mux serves. The mux fills in r.Pattern on
// the request it is handed, so it is read after the call returns.
func (m *serverMetrics) wrap(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.active.Inc()
		defer m.active.Dec()

		rec := &codeRecorder{ResponseWriter: w, code: http.StatusOK}
		started := time.Now()
		mux.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = routeUnmatched
		}
		labels := prometheus.Labels{"method": r.Method, "route": route, "code": strconv.Itoa(rec.code)}
		m.requests.With(labels).Inc()
		m.latency.With(labels).Observe(time.Since(started).Seconds())
	})
}

type codeRecorder struct {
	http.ResponseWriter
	code        int
	wroteHeader bool
}

func (c *codeRecorder) WriteHeader(code int) {
	if !c.wroteHeader {
		c.code = code
		c.wroteHeader = true
	}
	c.ResponseWriter.WriteHeader(code)
}

// ChatbotMetrics counts widget traffic by outcome. A nil *ChatbotMetrics
// records nothing.
type ChatbotMetrics struct {
	tokens   prometheus.Counter
	queries  *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

func newChatbotMetrics(constLabels prometheus.Labels) *ChatbotMetrics {
	return &ChatbotMetrics{
		tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "chatbot",
			Name:        "access_tokens_issued_total",
			Help:        "Session tokens handed out by the access-token route.",
			ConstLabels: constLabels,
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "chatbot",
			Name:        "queries_total",
			Help:        "Visitor queries answered, split by whether the knowledge base matched.",
			ConstLabels: constLabels,
		}, []string{"result"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "chatbot",
			Name:        "session_rejections_total",
			Help:        "Query requests refused with 401, by reason.",
			ConstLabels: constLabels,
		}, []string{"reason"}),
	}
}

func (c *ChatbotMetrics) register(reg prometheus.Registerer) {
	reg.MustRegister(c.tokens, c.queries, c.rejected)
}

func (c *ChatbotMetrics) TokenIssued() {
	if c == nil {
		return
	}
	c.tokens.Inc()
}

func (c *ChatbotMetrics) QueryAnswered(matched bool) {
	if c == nil {
		return
	}
	result := "unmatched"
	if matched {
		result = "matched"
	}
	c.queries.WithLabelValues(result).Inc()
}

func (c *ChatbotMetrics) SessionRejected(reason string) {
	if c == nil {
		return
	}
	c.rejected.WithLabelValues(reason).Inc()
}
