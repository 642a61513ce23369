package cache

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics instruments the hot paths of a CacheIndex: archive reads, store
// round trips, and catalog hits. Grounded directly on server_metrics.go's
// metrics struct and register[K prometheus.Collector] generic helper; field
// names follow the same requests/duration/hits shape, narrowed to this
// core's operations instead of HTTP request handling.
type metrics struct {
	archiveReads    *prometheus.CounterVec
	archiveDuration *prometheus.HistogramVec
	storeRoundTrips *prometheus.CounterVec
	catalogHits     prometheus.Counter
}

func register[K prometheus.Collector](logger *log.Logger, metric K) K {
	if err := prometheus.Register(metric); err != nil {
		logger.Println(err)
	}
	return metric
}

// createMetrics builds and registers a fresh metrics set for one CacheIndex
// scope (typically the index id as a string, so multiple open indexes don't
// collide in the default registry).
func createMetrics(scope string, logger *log.Logger) *metrics {
	namespace := "rscache"

	return &metrics{
		archiveReads: register(logger, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "archive_reads_total",
			ConstLabels: prometheus.Labels{"index": scope},
		}, []string{"status"})),
		archiveDuration: register(logger, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "archive_read_duration_seconds",
			ConstLabels: prometheus.Labels{"index": scope},
			Buckets:     prometheus.DefBuckets,
		}, []string{"status"})),
		storeRoundTrips: register(logger, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "store_round_trips_total",
			ConstLabels: prometheus.Labels{"index": scope},
		}, []string{"op"})),
		catalogHits: register(logger, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "catalog_hits_total",
			ConstLabels: prometheus.Labels{"index": scope},
		})),
	}
}
