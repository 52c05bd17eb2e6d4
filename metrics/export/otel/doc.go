// Package otel binds engine counters and the validate latency histogram to
// OpenTelemetry observable instruments.
//
// Each engine counter becomes an Int64ObservableCounter named as in the
// Prometheus exporter. The latency histogram is exported as a cumulative
// "<name>_bucket" gauge with one data point per "le" attribute value plus a
// "<name>_count" counter. One callback reads
// [tokenAuth.Engine.MetricsSnapshot] per collection cycle.
//
// The caller owns the MeterProvider.
package otel
