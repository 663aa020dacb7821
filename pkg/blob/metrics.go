// pkg/blob/metrics.go

package blob

import "github.com/prometheus/client_golang/prometheus"

var (
	remoteRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aveblob",
		Name:      "remote_requests_total",
		Help:      "Remote calls to the page blob.",
	}, []string{"op"})
	remoteErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aveblob",
		Name:      "remote_errors_total",
		Help:      "Failed remote calls by kind.",
	}, []string{"op", "kind"})
	remoteRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aveblob",
		Name:      "remote_retries_total",
		Help:      "Remote calls retried after a recoverable failure.",
	}, []string{"op"})
	selfHeals = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aveblob",
		Name:      "self_heals_total",
		Help:      "Containers or blobs created to serve a request.",
	}, []string{"action"})
	cachePages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aveblob",
		Name:      "cache_pages_total",
		Help:      "Pages served by source.",
	}, []string{"result"})
	remoteDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "aveblob",
		Name:      "remote_request_duration_seconds",
		Help:      "Latency of remote calls.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 18),
	}, []string{"op"})
)

// InitMetrics registers the metrics of cached blobs.
func InitMetrics(registerer prometheus.Registerer) {
	if registerer == nil {
		return
	}
	registerer.MustRegister(remoteRequests)
	registerer.MustRegister(remoteErrors)
	registerer.MustRegister(remoteRetries)
	registerer.MustRegister(selfHeals)
	registerer.MustRegister(cachePages)
	registerer.MustRegister(remoteDuration)
}
