package hive

import "github.com/xraph/hive/internal/metrics"

// MetricsRecorder receives registry events.
type MetricsRecorder = metrics.Recorder

// MetricsCollector records registry events as Prometheus metrics.
type MetricsCollector = metrics.Collector

// NewMetricsCollector registers the registry metrics with a Prometheus registerer.
var NewMetricsCollector = metrics.NewCollector

// NewNoOpMetrics creates a recorder that discards every event.
var NewNoOpMetrics = metrics.NewNoOpRecorder
