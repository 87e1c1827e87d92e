package registry

import (
	"context"
	"io"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"

	"github.com/xraph/hive/internal/access"
	"github.com/xraph/hive/internal/errors"
	"github.com/xraph/hive/internal/logger"
	"github.com/xraph/hive/internal/types"
)

// bindState is the binding state of a singleton provider.
type bindState int32

const (
	stateUnbound bindState = iota
	stateBinding
	stateBound
)

func (s bindState) String() string {
	switch s {
	case stateUnbound:
		return "unbound"
	case stateBinding:
		return "binding"
	case stateBound:
		return "bound"
	default:
		return "unknown"
	}
}

type instanceBox struct {
	value any
}

// singletonProvider owns the bind, construct and stop lifecycle of a single
// service instance.
type singletonProvider struct {
	owner       *Registry
	displayName string
	declared    []types.Type
	erased      []reflect.Type
	scope       access.Scope
	tags        []types.Tag
	bind        func(ctx context.Context, r ServiceRegistry) error
	create      func(ctx context.Context, r ServiceRegistry) (any, error)

	// mu serializes bind, construction and stop.
	mu       sync.Mutex
	state    atomic.Int32
	instance atomic.Pointer[instanceBox]
	stopped  atomic.Bool

	depMu      sync.Mutex
	dependents []*singletonProvider
}

func newSingletonProvider(owner *Registry, def Definition, erased []reflect.Type) *singletonProvider {
	scope := def.Scope
	if scope == nil {
		scope = access.Public()
	}
	return &singletonProvider{
		owner:       owner,
		displayName: def.displayName(),
		declared:    append([]types.Type(nil), def.Types...),
		erased:      erased,
		scope:       scope,
		tags:        append([]types.Tag(nil), def.Tags...),
		bind:        def.Bind,
		create:      def.Create,
	}
}

func (p *singletonProvider) DisplayName() string { return p.displayName }

func (p *singletonProvider) DeclaredTypes() []types.Type {
	return append([]types.Type(nil), p.declared...)
}

func (p *singletonProvider) String() string { return p.displayName }

func (p *singletonProvider) GetService(ctx context.Context, t types.Type, token *access.Token) (Service, error) {
	if p.stopped.Load() || !p.scope.Contains(token) || !p.satisfies(t) {
		return nil, nil
	}
	if err := p.prepare(ctx); err != nil {
		return nil, err
	}
	if dependent := innermost(ctx); dependent != nil {
		p.requiredBy(dependent)
	}
	return p, nil
}

func (p *singletonProvider) GetAll(ctx context.Context, class reflect.Type, token *access.Token, visit Visitor) error {
	if p.stopped.Load() || !p.scope.Contains(token) || !p.provides(class) {
		return nil
	}
	if err := p.prepare(ctx); err != nil {
		return err
	}
	if dependent := innermost(ctx); dependent != nil {
		p.requiredBy(dependent)
	}
	visit(p)
	return nil
}

// Instance returns the realized instance, constructing it on first use.
func (p *singletonProvider) Instance(ctx context.Context) (any, error) {
	if box := p.instance.Load(); box != nil {
		return box.value, nil
	}
	return p.getInstance(ctx)
}

func (p *singletonProvider) satisfies(t types.Type) bool {
	for _, declared := range p.declared {
		if p.owner.inspector.Satisfies(declared, t) {
			return true
		}
	}
	return false
}

func (p *singletonProvider) provides(class reflect.Type) bool {
	for _, raw := range p.erased {
		if p.owner.inspector.Provides(raw, class) {
			return true
		}
	}
	return false
}

// hasTag reports whether the declared contract carries tag, either explicitly
// or through an annotation on a declared type.
func (p *singletonProvider) hasTag(tag types.Tag) bool {
	if slices.Contains(p.tags, tag) {
		return true
	}
	for _, raw := range p.erased {
		if p.owner.inspector.HasTag(raw, tag) {
			return true
		}
	}
	return false
}

func (p *singletonProvider) allTags() []types.Tag {
	tags := append([]types.Tag(nil), p.tags...)
	for _, raw := range p.erased {
		for _, tag := range p.owner.inspector.Tags(raw) {
			if !slices.Contains(tags, tag) {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

func (p *singletonProvider) bindingState() bindState {
	return bindState(p.state.Load())
}

// prepare runs the bind hook exactly once. A provider revisited while binding
// on the same chain is a dependency cycle; callers on other chains wait.
func (p *singletonProvider) prepare(ctx context.Context) error {
	if p.bindingState() == stateBound {
		return nil
	}
	if onChain(ctx, p) {
		return p.cycle(ctx)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bindLocked(ctx)
}

// bindLocked runs the bind hook unless the provider is already bound. The
// caller holds p.mu.
func (p *singletonProvider) bindLocked(ctx context.Context) error {
	if p.bindingState() == stateBound {
		return nil
	}
	p.state.Store(int32(stateBinding))
	if p.bind != nil {
		if err := p.bind(withBinding(ctx, p), p.owner); err != nil {
			p.state.Store(int32(stateUnbound))
			return errors.ErrConstructionFailed(p.displayName, err)
		}
	}
	p.state.Store(int32(stateBound))
	return nil
}

func (p *singletonProvider) getInstance(ctx context.Context) (any, error) {
	if onChain(ctx, p) {
		return nil, p.cycle(ctx)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if box := p.instance.Load(); box != nil {
		return box.value, nil
	}
	if p.stopped.Load() {
		return nil, errors.ErrServiceNotFound(p.displayName, p.owner.DisplayName())
	}
	// A construction that failed while we waited on mu resets the provider
	// to unbound, so bind again before constructing.
	if err := p.bindLocked(ctx); err != nil {
		return nil, err
	}

	registry := p.owner
	ctx, span := registry.tracer.Start(withBinding(ctx, p), "hive.construct",
		trace.WithAttributes(
			attribute.String("hive.service", p.displayName),
			attribute.String("hive.registry", registry.DisplayName()),
		),
	)
	defer span.End()

	start := time.Now()
	value, err := p.create(ctx, registry)
	if err == nil && value == nil {
		err = errors.ErrNilInstance
	}
	if err == nil {
		err = registry.own.instanceRealized(ctx, p, value)
		if err != nil {
			p.state.Store(int32(stateUnbound))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}
	if err != nil {
		p.state.Store(int32(stateUnbound))
		registry.metrics.ConstructionFailed(registry.DisplayName())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.ErrConstructionFailed(p.displayName, err)
	}

	elapsed := time.Since(start)
	p.instance.Store(&instanceBox{value: value})
	registry.instanceCreated(p)
	registry.metrics.InstanceCreated(registry.DisplayName(), elapsed)
	registry.logger.Debug("service realized",
		logger.String("service", p.displayName),
		logger.Duration("elapsed", elapsed),
	)
	return value, nil
}

func (p *singletonProvider) cycle(ctx context.Context) error {
	chain := append(chainNames(ctx), p.displayName)
	p.owner.metrics.CycleDetected(p.owner.DisplayName())
	p.owner.logger.Warn("dependency cycle detected",
		logger.String("service", p.displayName),
		logger.String("chain", strings.Join(chain, " -> ")),
	)
	return errors.ErrCircularDependency(p.displayName, chain)
}

// requiredBy records dependent so it is stopped before p. Dependents owned by
// other registries are not tracked.
func (p *singletonProvider) requiredBy(dependent *singletonProvider) {
	if dependent == p || dependent.owner != p.owner {
		return
	}
	p.depMu.Lock()
	defer p.depMu.Unlock()
	if !slices.Contains(p.dependents, dependent) {
		p.dependents = append(p.dependents, dependent)
	}
}

func (p *singletonProvider) dependentNames() []string {
	p.depMu.Lock()
	defer p.depMu.Unlock()
	names := make([]string, len(p.dependents))
	for i, d := range p.dependents {
		names[i] = d.displayName
	}
	return names
}

// Stop stops every dependent, in the order they were recorded, and then the
// instance itself. A stopped provider never constructs again. Failures are
// aggregated so every dependent gets a chance to stop.
func (p *singletonProvider) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped.Load() {
		p.mu.Unlock()
		return nil
	}
	p.stopped.Store(true)
	box := p.instance.Swap(nil)
	p.mu.Unlock()

	p.depMu.Lock()
	dependents := p.dependents
	p.dependents = nil
	p.depMu.Unlock()

	var err error
	for _, d := range dependents {
		err = multierr.Append(err, d.Stop(ctx))
	}
	if box != nil {
		if stopErr := stopInstance(ctx, box.value); stopErr != nil {
			err = multierr.Append(err, errors.NewServiceError(p.displayName, "stop", stopErr))
		}
		p.owner.metrics.InstanceStopped(p.owner.DisplayName())
	}
	return err
}

func stopInstance(ctx context.Context, instance any) error {
	switch v := instance.(type) {
	case Stoppable:
		return v.Stop(ctx)
	case io.Closer:
		return v.Close()
	default:
		return nil
	}
}
