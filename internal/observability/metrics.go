package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vbanctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"server", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vbanctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"server", "method", "path", "status"},
	)
	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vbanctl",
			Subsystem: "pipewire",
			Name:      "command_duration_seconds",
			Help:      "External PipeWire command duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"command", "success"},
	)
	autolinkLinks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vbanctl",
			Subsystem: "autolink",
			Name:      "links_total",
			Help:      "Port links requested by autolink, by outcome.",
		},
		[]string{"outcome"},
	)
	autolinkIssues = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vbanctl",
			Subsystem: "autolink",
			Name:      "issues_total",
			Help:      "Non-fatal problems recorded during autolink passes.",
		},
	)
	fragmentOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vbanctl",
			Subsystem: "fragments",
			Name:      "operations_total",
			Help:      "Fragment files written or removed, by kind and action.",
		},
		[]string{"kind", "action"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			commandDuration,
			autolinkLinks,
			autolinkIssues,
			fragmentOps,
		)
	})
}

func RecordHTTPRequest(server, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(server, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(server, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordCommand(command string, success bool, duration time.Duration) {
	RegisterMetrics()
	commandDuration.WithLabelValues(command, strconv.FormatBool(success)).Observe(duration.Seconds())
}

func RecordLink(outcome string) {
	RegisterMetrics()
	autolinkLinks.WithLabelValues(outcome).Inc()
}

func RecordAutolinkIssue() {
	RegisterMetrics()
	autolinkIssues.Inc()
}

func RecordFragment(kind, action string) {
	RegisterMetrics()
	fragmentOps.WithLabelValues(kind, action).Inc()
}

// WriteTextfile dumps the default registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	RegisterMetrics()
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
