// Package hive is a hierarchical registry of lazily constructed singleton
// services.
//
// Services are registered under one or more declared types and are found by
// any type in their hierarchy. Registries can be chained: a lookup that finds
// nothing locally falls through to the parent registries.
//
//	r := hive.New("build services")
//	_ = hive.ProvideValue[Greeter](r, "greeter", englishGreeter{})
//	g, err := hive.Get[Greeter](ctx, r)
package hive

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"github.com/xraph/hive/internal/config"
	"github.com/xraph/hive/internal/logger"
	"github.com/xraph/hive/internal/metrics"
	"github.com/xraph/hive/internal/registry"
)

// Registry is a named container of singleton services.
type Registry = registry.Registry

// ServiceRegistry is the lookup surface passed to construction hooks. Every
// registry can be resolved as a service of this type.
type ServiceRegistry = registry.ServiceRegistry

// Definition describes a singleton service.
type Definition = registry.Definition

// Service is a matched service yielded by GetAll.
type Service = registry.Service

// Visitor receives services from Registry.GetAll.
type Visitor = registry.Visitor

// ServiceInfo describes a registered service for diagnostics.
type ServiceInfo = registry.ServiceInfo

// Report is the document written by Registry.WriteReport.
type Report = registry.Report

// Lifecycle handler contracts.
type (
	LifecycleHandler = registry.LifecycleHandler
	ImplicitTagger   = registry.ImplicitTagger
	Registration     = registry.Registration
	Stoppable        = registry.Stoppable
)

// Option configures a Registry.
type Option = registry.Option

// Registry options.
var (
	WithParent    = registry.WithParent
	WithLogger    = registry.WithLogger
	WithMetrics   = registry.WithMetrics
	WithTracer    = registry.WithTracer
	WithInspector = registry.WithInspector
)

// New creates an empty registry.
func New(name string, opts ...Option) *Registry {
	return registry.New(name, opts...)
}

// NewFromConfig creates a registry with the logger, metrics and tracer
// described by cfg. Metrics are registered with the default Prometheus
// registerer. Explicit options take precedence.
func NewFromConfig(cfg *Config, opts ...Option) (*Registry, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := []Option{WithLogger(logger.NewLogger(cfg.Logging))}
	if cfg.Metrics.Enabled {
		collector, err := metrics.NewCollector(metrics.MetricsConfig{
			Namespace: cfg.Metrics.Namespace,
			Subsystem: cfg.Metrics.Subsystem,
		}, prometheus.DefaultRegisterer)
		if err != nil {
			return nil, ErrConfigError("failed to register metrics", err)
		}
		base = append(base, WithMetrics(collector))
	}
	if cfg.Tracing.Enabled {
		base = append(base, WithTracer(otel.Tracer(cfg.Tracing.TracerName)))
	}

	return registry.New(cfg.Name, append(base, opts...)...), nil
}
