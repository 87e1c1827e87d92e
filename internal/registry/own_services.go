package registry

import (
	"context"
	"reflect"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/xraph/hive/internal/access"
	"github.com/xraph/hive/internal/errors"
	"github.com/xraph/hive/internal/logger"
	"github.com/xraph/hive/internal/metrics"
	"github.com/xraph/hive/internal/types"
)

// servicesSnapshot is an immutable view of the services and lifecycle
// handlers registered so far. It is replaced as a unit, never mutated.
type servicesSnapshot struct {
	services *serviceNode
	handlers []LifecycleHandler
}

// serviceNode is a newest-first singly linked list of providers.
type serviceNode struct {
	provider *singletonProvider
	next     *serviceNode
}

func (s *servicesSnapshot) withService(p *singletonProvider) *servicesSnapshot {
	return &servicesSnapshot{
		services: &serviceNode{provider: p, next: s.services},
		handlers: s.handlers,
	}
}

func (s *servicesSnapshot) withHandler(h LifecycleHandler) *servicesSnapshot {
	handlers := make([]LifecycleHandler, len(s.handlers), len(s.handlers)+1)
	copy(handlers, s.handlers)
	return &servicesSnapshot{
		services: s.services,
		handlers: append(handlers, h),
	}
}

func (s *servicesSnapshot) eachService(fn func(p *singletonProvider)) {
	for node := s.services; node != nil; node = node.next {
		fn(node.provider)
	}
}

// ownServices indexes the providers registered with one registry by every
// type they provide.
type ownServices struct {
	registry *Registry

	mu       sync.RWMutex
	byType   map[reflect.Type][]*singletonProvider
	snapshot atomic.Pointer[servicesSnapshot]
}

func newOwnServices(r *Registry) *ownServices {
	o := &ownServices{
		registry: r,
		byType:   make(map[reflect.Type][]*singletonProvider),
	}
	o.snapshot.Store(&servicesSnapshot{})
	return o
}

// add indexes p under every type of its declared hierarchy, publishes it and
// notifies the handlers known at publication.
func (o *ownServices) add(ctx context.Context, p *singletonProvider) {
	o.mu.Lock()
	for _, raw := range p.erased {
		for _, t := range o.registry.inspector.Hierarchy(raw) {
			current := o.byType[t]
			if slices.Contains(current, p) {
				continue
			}
			next := make([]*singletonProvider, len(current), len(current)+1)
			copy(next, current)
			o.byType[t] = append(next, p)
		}
	}
	o.mu.Unlock()

	var published *servicesSnapshot
	for {
		current := o.snapshot.Load()
		published = current.withService(p)
		if o.snapshot.CompareAndSwap(current, published) {
			break
		}
	}

	for _, h := range published.handlers {
		notify(ctx, h, p)
	}
}

// addHandler activates h and replays every service registered so far to it.
// ctx is the construction context of the handler's own provider.
func (o *ownServices) addHandler(ctx context.Context, h LifecycleHandler) {
	var published *servicesSnapshot
	for {
		current := o.snapshot.Load()
		published = current.withHandler(h)
		if o.snapshot.CompareAndSwap(current, published) {
			break
		}
	}

	o.registry.metrics.HandlerRegistered(o.registry.DisplayName())
	published.eachService(func(p *singletonProvider) {
		notify(ctx, h, p)
	})
}

func (o *ownServices) providers(t reflect.Type) []*singletonProvider {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.byType[t]
}

// services returns every registered provider, newest first.
func (o *ownServices) services() []*singletonProvider {
	var result []*singletonProvider
	o.snapshot.Load().eachService(func(p *singletonProvider) {
		result = append(result, p)
	})
	return result
}

func (o *ownServices) handlers() []LifecycleHandler {
	return o.snapshot.Load().handlers
}

func (o *ownServices) GetService(ctx context.Context, t types.Type, token *access.Token) (Service, error) {
	raw, err := types.Erase(t)
	if err != nil {
		return nil, err
	}

	candidates := o.providers(raw)
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return candidates[0].GetService(ctx, t, token)
	}

	var found []Service
	for _, p := range candidates {
		svc, err := p.GetService(ctx, t, token)
		if err != nil {
			return nil, err
		}
		if svc != nil {
			found = append(found, svc)
		}
	}

	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	}

	names := make([]string, len(found))
	for i, svc := range found {
		names[i] = svc.DisplayName()
	}
	sort.Strings(names)
	o.registry.metrics.Lookup(o.registry.DisplayName(), metrics.ResultAmbiguous)
	o.registry.logger.Warn("ambiguous service lookup",
		logger.String("type", types.Format(t)),
		logger.Strings("candidates", names),
	)
	return nil, errors.ErrAmbiguousService(types.Format(t), o.registry.DisplayName(), names)
}

func (o *ownServices) GetAll(ctx context.Context, class reflect.Type, token *access.Token, visit Visitor) error {
	for _, p := range o.providers(class) {
		if err := p.GetAll(ctx, class, token, visit); err != nil {
			return err
		}
	}
	return nil
}

// instanceRealized checks a freshly constructed instance against the
// handlers known so far and activates it if it is itself a handler.
func (o *ownServices) instanceRealized(ctx context.Context, p *singletonProvider, instance any) error {
	handler, isHandler := instance.(LifecycleHandler)
	if isHandler && !p.provides(lifecycleHandlerType) {
		return errors.ErrLifecycleViolation(p.displayName,
			p.displayName+" implements LifecycleHandler but is not declared as a service of this type. "+
				"This service is declared as having "+types.FormatTypes("type", p.declared)+".")
	}

	inspector := o.registry.inspector
	for _, h := range o.handlers() {
		for _, tag := range h.Tags() {
			if inspector.InstanceHasTag(instance, tag) && !p.hasTag(tag) {
				return errors.ErrLifecycleViolation(p.displayName,
					p.displayName+" is tagged with "+string(tag)+" but is not declared as a service with this tag. "+
						"This service is declared as having "+types.FormatTypes("type", p.declared)+".")
			}
		}
	}

	if isHandler {
		o.addHandler(ctx, handler)
	}
	return nil
}
