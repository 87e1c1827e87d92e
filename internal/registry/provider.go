package registry

import (
	"context"
	"reflect"

	"github.com/xraph/hive/internal/access"
	"github.com/xraph/hive/internal/types"
)

// ServiceRegistry is the lookup surface of a registry. It is what
// construction hooks receive, and every registry can be resolved as a
// service of this type. Services may not declare it.
type ServiceRegistry interface {
	DisplayName() string
	// Find returns the service of type t visible to token, or (nil, nil) when
	// no registry in the hierarchy has one.
	Find(ctx context.Context, t types.Type, token *access.Token) (any, error)
	// Get returns the public service of type t, failing with SERVICE_NOT_FOUND
	// when there is none.
	Get(ctx context.Context, t types.Type) (any, error)
	// GetAll visits every service of class visible to token, local services
	// before those of parent registries.
	GetAll(ctx context.Context, class reflect.Type, token *access.Token, visit Visitor) error
}

var serviceRegistryType = reflect.TypeFor[ServiceRegistry]()

// Service is a matched, not yet necessarily realized, service.
type Service interface {
	DisplayName() string
	Instance(ctx context.Context) (any, error)
}

// Visitor receives services from GetAll.
type Visitor func(svc Service)

// ServiceProvider answers lookups. GetService returns (nil, nil) when the
// provider has no service matching t for token.
type ServiceProvider interface {
	GetService(ctx context.Context, t types.Type, token *access.Token) (Service, error)
	GetAll(ctx context.Context, class reflect.Type, token *access.Token, visit Visitor) error
}

// compositeProvider asks each of its providers in turn; the first service
// found wins. GetAll visits all of them.
type compositeProvider []ServiceProvider

func (c compositeProvider) GetService(ctx context.Context, t types.Type, token *access.Token) (Service, error) {
	for _, p := range c {
		svc, err := p.GetService(ctx, t, token)
		if err != nil || svc != nil {
			return svc, err
		}
	}
	return nil, nil
}

func (c compositeProvider) GetAll(ctx context.Context, class reflect.Type, token *access.Token, visit Visitor) error {
	for _, p := range c {
		if err := p.GetAll(ctx, class, token, visit); err != nil {
			return err
		}
	}
	return nil
}

// thisAsService exposes the registry itself under ServiceRegistry.
type thisAsService struct {
	registry *Registry
}

func (s thisAsService) DisplayName() string { return s.registry.DisplayName() }

func (s thisAsService) Instance(context.Context) (any, error) { return s.registry, nil }

func (s thisAsService) GetService(_ context.Context, t types.Type, _ *access.Token) (Service, error) {
	if !s.registry.inspector.Satisfies(types.For(serviceRegistryType), t) {
		return nil, nil
	}
	return s, nil
}

func (s thisAsService) GetAll(_ context.Context, class reflect.Type, _ *access.Token, visit Visitor) error {
	if class == serviceRegistryType {
		visit(s)
	}
	return nil
}

// parentServices forwards lookups to a parent registry, including the
// parent's own ancestors.
type parentServices struct {
	parent *Registry
}

func (p parentServices) GetService(ctx context.Context, t types.Type, token *access.Token) (Service, error) {
	return p.parent.lookup(ctx, t, token)
}

func (p parentServices) GetAll(ctx context.Context, class reflect.Type, token *access.Token, visit Visitor) error {
	return p.parent.visitAll(ctx, class, token, visit)
}
