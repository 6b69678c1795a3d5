package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollermap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rollermap",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Ingestion metrics
	FilesParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollermap",
		Subsystem: "ingest",
		Name:      "files_parsed_total",
		Help:      "Track-log files parsed successfully",
	}, []string{"mode"})

	ParseErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollermap",
		Subsystem: "ingest",
		Name:      "parse_errors_total",
		Help:      "Track-log files skipped because they failed to parse",
	}, []string{"mode"})

	PointsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollermap",
		Subsystem: "ingest",
		Name:      "points_total",
		Help:      "Track points read, before and after decimation",
	}, []string{"stage"})

	// Classification metrics
	RecordsClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollermap",
		Subsystem: "classification",
		Name:      "records_total",
		Help:      "Road-work records assigned to each bucket",
	}, []string{"bucket"})

	ClassificationAmbiguities = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rollermap",
		Subsystem: "classification",
		Name:      "ambiguities_total",
		Help:      "Records whose id appears in more than one lookup table",
	})

	// Dataset metrics
	DatasetLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollermap",
		Subsystem: "dataset",
		Name:      "loads_total",
		Help:      "Road-work dataset loads by origin",
	}, []string{"source"})

	DatasetFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rollermap",
		Subsystem: "dataset",
		Name:      "fetch_errors_total",
		Help:      "Failed road-work dataset fetches",
	})

	DatasetFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rollermap",
		Subsystem: "dataset",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of road-work dataset fetches",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rollermap",
		Subsystem: "render",
		Name:      "duration_seconds",
		Help:      "Time spent rendering the map document",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// WriteTextfile dumps the default registry in the node_exporter textfile
// format. An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
