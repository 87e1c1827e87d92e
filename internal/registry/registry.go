// Package registry implements a hierarchical registry of lazily constructed
// singleton services.
package registry

import (
	"context"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/multierr"

	"github.com/xraph/hive/internal/access"
	"github.com/xraph/hive/internal/errors"
	"github.com/xraph/hive/internal/logger"
	"github.com/xraph/hive/internal/metrics"
	"github.com/xraph/hive/internal/types"
)

// Option configures a Registry.
type Option func(*Registry)

// WithParent adds a registry that lookups fall through to when no local
// service matches. Parents are consulted in the order they were given.
func WithParent(parent *Registry) Option {
	return func(r *Registry) {
		if parent != nil {
			r.parents = append(r.parents, parent)
		}
	}
}

// WithLogger sets the logger. Defaults to a noop logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder. Defaults to a noop recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithTracer sets the tracer used for construction spans.
func WithTracer(t trace.Tracer) Option {
	return func(r *Registry) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithInspector sets the type inspector. Defaults to types.DefaultInspector.
func WithInspector(i *types.Inspector) Option {
	return func(r *Registry) {
		if i != nil {
			r.inspector = i
		}
	}
}

// Registry is a named container of singleton services.
type Registry struct {
	id        uuid.UUID
	name      string
	parents   []*Registry
	logger    logger.Logger
	metrics   metrics.Recorder
	tracer    trace.Tracer
	inspector *types.Inspector

	own    *ownServices
	all    compositeProvider
	closed atomic.Bool

	mu        sync.Mutex
	providers []*singletonProvider
	created   []*singletonProvider
}

// New creates an empty registry.
func New(name string, opts ...Option) *Registry {
	r := &Registry{
		id:        uuid.New(),
		name:      name,
		logger:    logger.NewNoopLogger(),
		metrics:   metrics.NewNoOpRecorder(),
		tracer:    noop.NewTracerProvider().Tracer("github.com/xraph/hive"),
		inspector: types.DefaultInspector,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.name == "" {
		r.name = "ServiceRegistry"
	}
	r.logger = r.logger.Named("hive").With(
		logger.String("registry", r.name),
		logger.String("registry_id", r.id.String()),
	)

	r.own = newOwnServices(r)
	r.all = compositeProvider{r.own, thisAsService{registry: r}}
	for _, parent := range r.parents {
		r.all = append(r.all, parentServices{parent: parent})
	}
	return r
}

// ID returns the unique identifier of the registry.
func (r *Registry) ID() uuid.UUID { return r.id }

// DisplayName returns the registry's name.
func (r *Registry) DisplayName() string { return r.name }

func (r *Registry) String() string { return r.name }

// Parents returns the registries lookups fall through to.
func (r *Registry) Parents() []*Registry { return slices.Clone(r.parents) }

// Add registers a singleton service. Definitions declaring LifecycleHandler
// are realized immediately so the handler becomes active.
func (r *Registry) Add(def Definition) error {
	if r.closed.Load() {
		return errors.ErrRegistryClosed(r.name, "add a service")
	}

	erased, err := def.validate(r.inspector)
	if err != nil {
		return err
	}

	p := newSingletonProvider(r, def, erased)
	r.own.add(context.Background(), p)

	r.mu.Lock()
	r.providers = append(r.providers, p)
	r.mu.Unlock()

	r.metrics.ServiceRegistered(r.name)
	r.logger.Debug("service registered",
		logger.String("service", p.displayName),
		logger.String("types", types.FormatTypes("type", p.declared)),
	)

	if r.closed.Load() {
		return multierr.Append(errors.ErrRegistryClosed(r.name, "add a service"), p.Stop(context.Background()))
	}

	if p.provides(lifecycleHandlerType) {
		if _, err := p.Instance(context.Background()); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the service of type t visible to token, or (nil, nil) when no
// registry in the hierarchy provides one.
func (r *Registry) Find(ctx context.Context, t types.Type, token *access.Token) (any, error) {
	svc, err := r.lookup(ctx, t, token)
	if err != nil {
		if !errors.IsAmbiguous(err) {
			r.metrics.Lookup(r.name, metrics.ResultError)
		}
		return nil, err
	}
	if svc == nil {
		r.metrics.Lookup(r.name, metrics.ResultNotFound)
		return nil, nil
	}

	instance, err := svc.Instance(ctx)
	if err != nil {
		r.metrics.Lookup(r.name, metrics.ResultError)
		return nil, err
	}
	r.metrics.Lookup(r.name, metrics.ResultFound)
	return instance, nil
}

// Get returns the public service of type t.
func (r *Registry) Get(ctx context.Context, t types.Type) (any, error) {
	instance, err := r.Find(ctx, t, nil)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, errors.ErrServiceNotFound(types.Format(t), r.name)
	}
	return instance, nil
}

// GetAll visits every service of class visible to token, local services
// first and then those of each parent.
func (r *Registry) GetAll(ctx context.Context, class reflect.Type, token *access.Token, visit Visitor) error {
	return r.visitAll(ctx, class, token, visit)
}

func (r *Registry) lookup(ctx context.Context, t types.Type, token *access.Token) (Service, error) {
	if r.closed.Load() {
		return nil, errors.ErrRegistryClosed(r.name, "look up services")
	}
	if _, err := types.Erase(t); err != nil {
		return nil, err
	}
	return r.all.GetService(ctx, t, token)
}

func (r *Registry) visitAll(ctx context.Context, class reflect.Type, token *access.Token, visit Visitor) error {
	if r.closed.Load() {
		return errors.ErrRegistryClosed(r.name, "look up services")
	}
	return r.all.GetAll(ctx, class, token, visit)
}

// instanceCreated records p for reverse-order shutdown.
func (r *Registry) instanceCreated(p *singletonProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, p)
}

// Close stops every realized service in reverse creation order, then marks
// all remaining services stopped. Only the first call has any effect.
func (r *Registry) Close(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	r.mu.Lock()
	created := slices.Clone(r.created)
	providers := slices.Clone(r.providers)
	r.mu.Unlock()

	var err error
	for i := len(created) - 1; i >= 0; i-- {
		err = multierr.Append(err, created[i].Stop(ctx))
	}
	for _, p := range providers {
		err = multierr.Append(err, p.Stop(ctx))
	}

	if err != nil {
		r.logger.Error("failed to stop services", logger.Error(err))
		return errors.ErrStopFailed(r.name, err)
	}
	r.logger.Debug("registry closed", logger.Int("services", len(providers)))
	return nil
}

// Closed reports whether Close has been called.
func (r *Registry) Closed() bool { return r.closed.Load() }
