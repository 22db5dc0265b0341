package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	probeUp         *prometheus.GaugeVec
	probeTotal      *prometheus.CounterVec
	probeDuration   *prometheus.HistogramVec
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "supabase_admin_http_requests_total",
		Help: "Jumlah permintaan HTTP berdasarkan route dan status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "supabase_admin_http_request_duration_seconds",
		Help:    "Durasi permintaan HTTP per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	probeUp := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "supabase_admin_probe_up",
		Help: "Hasil probe koneksi terakhir (1 terhubung, 0 gagal).",
	}, []string{"target"})
	probeTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "supabase_admin_probe_total",
		Help: "Jumlah probe koneksi berdasarkan target dan status.",
	}, []string{"target", "status"})
	probeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "supabase_admin_probe_duration_seconds",
		Help:    "Durasi probe koneksi per target.",
		Buckets: prometheus.DefBuckets,
	}, []string{"target"})
	registry.MustRegister(requests, duration, probeUp, probeTotal, probeDuration)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		probeUp:         probeUp,
		probeTotal:      probeTotal,
		probeDuration:   probeDuration,
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// RecordProbe mencatat hasil probe koneksi.
func (m *Metrics) RecordProbe(target string, ok bool, duration time.Duration) {
	if m == nil {
		return
	}
	status, up := "failure", 0.0
	if ok {
		status, up = "success", 1.0
	}
	m.probeUp.WithLabelValues(target).Set(up)
	m.probeTotal.WithLabelValues(target, status).Inc()
	m.probeDuration.WithLabelValues(target).Observe(duration.Seconds())
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
