// Package metrics documents the Prometheus metrics exposed by the
// screener. All metrics are defined in their respective packages
// (subgraph, enrich, cache) via promauto to maintain modularity and avoid
// circular dependencies.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the screener.
// All metrics are automatically registered via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Subgraph Metrics (pkg/subgraph):
//   - screener_subgraph_requests_total{view, status} (Counter): Page requests by view and outcome
//   - screener_subgraph_request_duration_seconds{view} (Histogram): Page request duration
//   - screener_subgraph_retries_total (Counter): Retry attempts
//   - screener_subgraph_retry_exhausted_total (Counter): Requests that exhausted the retry budget
//   - screener_subgraph_pages_total{view, outcome} (Counter): Pages fetched by the pager
//
// Enrichment Metrics (pkg/enrich):
//   - screener_enrich_batches_total{outcome} (Counter): Batch requests by outcome (ok, failed)
//
// Cache Metrics (pkg/cache):
//   - screener_cache_hits_total{backend} (Counter): Result cache hits
//   - screener_cache_misses_total{backend} (Counter): Result cache misses
//   - screener_cache_errors_total{backend, operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(screener_cache_hits_total[5m])) /
//   (sum(rate(screener_cache_hits_total[5m])) + sum(rate(screener_cache_misses_total[5m])))
//
//   # Enrichment Batch Failure Rate
//   rate(screener_enrich_batches_total{outcome="failed"}[5m]) /
//   rate(screener_enrich_batches_total[5m])
//
//   # P95 Subgraph Page Latency
//   histogram_quantile(0.95, rate(screener_subgraph_request_duration_seconds_bucket[5m]))
