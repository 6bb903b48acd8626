// Package metric provides Prometheus metrics for TokRelay.
//
// Registry owns a private prometheus.Registry with the relay's counters,
// gauges and histograms, plus the Go runtime and process collectors. It
// implements service.DeliveryObserver so the collect and dispatch pipeline
// feed it directly, and exposes the /metrics handler.
package metric
