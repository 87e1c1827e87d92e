package hive

import (
	"context"
	"reflect"

	"github.com/xraph/hive/internal/errors"
	"github.com/xraph/hive/internal/types"
)

// ProvideOption customizes a definition built by Provide.
type ProvideOption func(*Definition)

// AlsoProvides declares extra types the service can be found by.
func AlsoProvides(ts ...Type) ProvideOption {
	return func(d *Definition) {
		d.Types = append(d.Types, ts...)
	}
}

// InScope restricts which tokens can see the service.
func InScope(scope Scope) ProvideOption {
	return func(d *Definition) {
		d.Scope = scope
	}
}

// WithTags declares the tags lifecycle handlers match the service on.
func WithTags(tags ...Tag) ProvideOption {
	return func(d *Definition) {
		d.Tags = append(d.Tags, tags...)
	}
}

// WithBind sets a hook run once before the first construction.
func WithBind(bind func(ctx context.Context, r ServiceRegistry) error) ProvideOption {
	return func(d *Definition) {
		d.Bind = bind
	}
}

// Provide registers a singleton of type T built lazily by create.
func Provide[T any](r *Registry, name string, create func(ctx context.Context, r ServiceRegistry) (T, error), opts ...ProvideOption) error {
	def := Definition{
		Name:  name,
		Types: []Type{types.Of[T]()},
	}
	if create != nil {
		def.Create = func(ctx context.Context, r ServiceRegistry) (any, error) {
			v, err := create(ctx, r)
			if err != nil {
				return nil, err
			}
			if isNil(v) {
				return nil, nil
			}
			return v, nil
		}
	}
	for _, opt := range opts {
		opt(&def)
	}
	return r.Add(def)
}

// ProvideValue registers an already constructed singleton of type T.
func ProvideValue[T any](r *Registry, name string, value T, opts ...ProvideOption) error {
	return Provide(r, name, func(context.Context, ServiceRegistry) (T, error) {
		return value, nil
	}, opts...)
}

// Find returns the service of type T visible to token. The boolean is false
// when no registry in the hierarchy provides one.
func Find[T any](ctx context.Context, r ServiceRegistry, token *Token) (T, bool, error) {
	var zero T
	t := types.Of[T]()
	v, err := r.Find(ctx, t, token)
	if err != nil || v == nil {
		return zero, false, err
	}
	typed, err := cast[T](v, t)
	if err != nil {
		return zero, false, err
	}
	return typed, true, nil
}

// Get returns the public service of type T.
func Get[T any](ctx context.Context, r ServiceRegistry) (T, error) {
	var zero T
	t := types.Of[T]()
	v, err := r.Get(ctx, t)
	if err != nil {
		return zero, err
	}
	return cast[T](v, t)
}

// MustGet is Get that panics on failure.
func MustGet[T any](ctx context.Context, r ServiceRegistry) T {
	v, err := Get[T](ctx, r)
	if err != nil {
		panic(err)
	}
	return v
}

// GetAll returns every public service of type T in the hierarchy, local
// services first.
func GetAll[T any](ctx context.Context, r ServiceRegistry) ([]T, error) {
	t := types.Of[T]()
	var (
		services []Service
		result   []T
	)
	if err := r.GetAll(ctx, reflect.TypeFor[T](), nil, func(svc Service) {
		services = append(services, svc)
	}); err != nil {
		return nil, err
	}
	for _, svc := range services {
		v, err := svc.Instance(ctx)
		if err != nil {
			return nil, err
		}
		typed, err := cast[T](v, t)
		if err != nil {
			return nil, err
		}
		result = append(result, typed)
	}
	return result, nil
}

func cast[T any](v any, t Type) (T, error) {
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, errors.ErrInvalidType(types.Format(t),
			"service instance is a "+types.FormatReflect(reflect.TypeOf(v)))
	}
	return typed, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
