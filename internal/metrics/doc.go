// Package metrics defines the Prometheus metrics exported by the importer
// and serves them on the metrics port.
//
// All metrics are registered at package init time using promauto. Call
// Init once at startup to pre-populate expected label combinations so
// every series is visible from the first scrape, then Serve to expose
// /metrics.
package metrics
