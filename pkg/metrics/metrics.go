// Package metrics owns the Prometheus registry of the process: HTTP request
// metrics, file service counters and, when enabled, Go runtime collectors.
//
// Example:
//
//	m := metrics.New(cfg.Metrics)
//	m.Mount(engine)
//
//	m.RequestCounter.WithLabelValues("GET", "/api/files", "200").Inc()
package metrics

import (
	"net/http"
	"net/http/pprof"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/filevault/pkg/configs"
)

const namespace = "filevault"

// Metrics holds every collector registered by the application.
type Metrics struct {
	cfg      configs.MetricsConfig
	Registry *prometheus.Registry

	RequestCounter    *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	ActiveConnections prometheus.Gauge

	Uploads        *prometheus.CounterVec
	FilesStored    prometheus.Counter
	BytesStored    prometheus.Counter
	FilesDeleted   prometheus.Counter
	OrphansRemoved *prometheus.CounterVec
}

// New creates a registry with all collectors registered.
func New(cfg configs.MetricsConfig) *Metrics {
	m := &Metrics{
		cfg:      cfg,
		Registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Number of in-flight HTTP requests",
		}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Upload attempts by result",
		}, []string{"result"}),
		FilesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_stored_total",
			Help:      "Files stored, counted from domain events",
		}),
		BytesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_stored_total",
			Help:      "Bytes stored, counted from domain events",
		}),
		FilesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_deleted_total",
			Help:      "Files deleted, counted from domain events",
		}),
		OrphansRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphans_removed_total",
			Help:      "Records or blobs removed by the orphan cleanup job",
		}, []string{"kind"}),
	}

	reg := prometheus.WrapRegistererWith(prometheus.Labels(cfg.Labels), m.Registry)

	reg.MustRegister(
		m.RequestCounter, m.RequestDuration, m.ActiveConnections,
		m.Uploads, m.FilesStored, m.BytesStored, m.FilesDeleted, m.OrphansRemoved,
	)

	if cfg.RuntimeMetrics {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return m
}

// Handler serves this registry together with the default one, which is
// where the gorm plugin registers its collectors.
func (m *Metrics) Handler() http.Handler {
	gatherers := prometheus.Gatherers{m.Registry, prometheus.DefaultGatherer}

	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}

// Mount registers the metrics route and, when enabled, the pprof routes.
func (m *Metrics) Mount(engine *gin.Engine) {
	path := m.cfg.Path
	if path == "" {
		path = "/metrics"
	}

	engine.GET(path, gin.WrapH(m.Handler()))

	if m.cfg.Pprof {
		pp := engine.Group("/debug/pprof")
		pp.GET("/", gin.WrapF(pprof.Index))
		pp.GET("/:name", func(c *gin.Context) {
			switch name := c.Param("name"); name {
			case "cmdline":
				pprof.Cmdline(c.Writer, c.Request)
			case "profile":
				pprof.Profile(c.Writer, c.Request)
			case "symbol":
				pprof.Symbol(c.Writer, c.Request)
			case "trace":
				pprof.Trace(c.Writer, c.Request)
			default:
				pprof.Handler(name).ServeHTTP(c.Writer, c.Request)
			}
		})
	}
}

// ObserveUpload counts an upload attempt; nil receivers are ignored.
func (m *Metrics) ObserveUpload(result string) {
	if m == nil {
		return
	}

	m.Uploads.WithLabelValues(result).Inc()
}

// ObserveStored counts a stored file of size bytes.
func (m *Metrics) ObserveStored(size int64) {
	if m == nil {
		return
	}

	m.FilesStored.Inc()
	m.BytesStored.Add(float64(size))
}

// ObserveDeleted counts a deleted file.
func (m *Metrics) ObserveDeleted() {
	if m == nil {
		return
	}

	m.FilesDeleted.Inc()
}

// ObserveOrphan counts an orphan removed by kind ("record" or "blob").
func (m *Metrics) ObserveOrphan(kind string) {
	if m == nil {
		return
	}

	m.OrphansRemoved.WithLabelValues(kind).Inc()
}
