// Package prometheus exposes engine metrics through prometheus/client_golang.
//
// [NewCollector] wraps a metrics source as a [prometheus.Collector] that
// emits constant metrics from [tokenAuth.Engine.MetricsSnapshot] on every
// scrape. [NewExporter] registers it on a private registry and serves it.
// Counter names are tokenauth_*_total; the single histogram is
// tokenauth_validate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry. Callers mount the Handler
//     or register the Collector themselves.
//   - Mutate engine state.
package prometheus
