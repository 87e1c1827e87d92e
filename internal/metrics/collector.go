// Package metrics records registry activity with Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Lookup outcomes reported through Recorder.Lookup.
const (
	ResultFound     = "found"
	ResultNotFound  = "not_found"
	ResultAmbiguous = "ambiguous"
	ResultError     = "error"
)

// Recorder receives registry events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ServiceRegistered(registry string)
	HandlerRegistered(registry string)
	Lookup(registry, result string)
	InstanceCreated(registry string, elapsed time.Duration)
	InstanceStopped(registry string)
	ConstructionFailed(registry string)
	CycleDetected(registry string)
}

// MetricsConfig configures a Collector.
type MetricsConfig struct {
	Namespace string
	Subsystem string
}

// Collector implements Recorder on top of Prometheus metric vectors, all
// labelled by registry name.
type Collector struct {
	servicesRegistered  *prometheus.CounterVec
	handlersRegistered  *prometheus.CounterVec
	lookups             *prometheus.CounterVec
	instancesCreated    *prometheus.CounterVec
	constructionFailed  *prometheus.CounterVec
	cyclesDetected      *prometheus.CounterVec
	liveInstances       *prometheus.GaugeVec
	constructionLatency *prometheus.HistogramVec
}

// NewCollector creates the registry metrics and registers them with reg.
func NewCollector(config MetricsConfig, reg prometheus.Registerer) (*Collector, error) {
	namespace := config.Namespace
	if namespace == "" {
		namespace = "hive"
	}
	subsystem := config.Subsystem

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		}, append([]string{"registry"}, labels...))
	}

	c := &Collector{
		servicesRegistered: counter("services_registered_total", "Total number of services added to a registry"),
		handlersRegistered: counter("handlers_registered_total", "Total number of lifecycle handlers activated"),
		lookups:            counter("lookups_total", "Total number of service lookups by outcome", "result"),
		instancesCreated:   counter("instances_created_total", "Total number of service instances constructed"),
		constructionFailed: counter("construction_failures_total", "Total number of failed service constructions"),
		cyclesDetected:     counter("cycles_detected_total", "Total number of dependency cycles detected"),
		liveInstances: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "live_instances",
			Help:      "Number of realized service instances not yet stopped",
		}, []string{"registry"}),
		constructionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "construction_duration_seconds",
			Help:      "Service construction duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"registry"}),
	}

	var err error
	for _, counter := range []**prometheus.CounterVec{
		&c.servicesRegistered,
		&c.handlersRegistered,
		&c.lookups,
		&c.instancesCreated,
		&c.constructionFailed,
		&c.cyclesDetected,
	} {
		if *counter, err = register(reg, *counter); err != nil {
			return nil, err
		}
	}
	if c.liveInstances, err = register(reg, c.liveInstances); err != nil {
		return nil, err
	}
	if c.constructionLatency, err = register(reg, c.constructionLatency); err != nil {
		return nil, err
	}

	return c, nil
}

// register adds c to reg, reusing an identical collector that is already
// registered so several registries can share one Prometheus registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

func (c *Collector) ServiceRegistered(registry string) {
	c.servicesRegistered.WithLabelValues(registry).Inc()
}

func (c *Collector) HandlerRegistered(registry string) {
	c.handlersRegistered.WithLabelValues(registry).Inc()
}

func (c *Collector) Lookup(registry, result string) {
	c.lookups.WithLabelValues(registry, result).Inc()
}

func (c *Collector) InstanceCreated(registry string, elapsed time.Duration) {
	c.instancesCreated.WithLabelValues(registry).Inc()
	c.liveInstances.WithLabelValues(registry).Inc()
	c.constructionLatency.WithLabelValues(registry).Observe(elapsed.Seconds())
}

func (c *Collector) InstanceStopped(registry string) {
	c.liveInstances.WithLabelValues(registry).Dec()
}

func (c *Collector) ConstructionFailed(registry string) {
	c.constructionFailed.WithLabelValues(registry).Inc()
}

func (c *Collector) CycleDetected(registry string) {
	c.cyclesDetected.WithLabelValues(registry).Inc()
}
